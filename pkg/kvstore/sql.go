package kvstore

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"gorm.io/driver/mysql"
	"gorm.io/driver/postgres"
	"gorm.io/driver/sqlite"
	"gorm.io/driver/sqlserver"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// Record is the single table backing the SQL driver.
type Record struct {
	Key       string `gorm:"primaryKey;size:512"`
	Value     []byte `gorm:"type:blob"`
	UpdatedAt time.Time
}

func (Record) TableName() string { return "shopfront_records" }

type sqlStore struct {
	db *gorm.DB
}

// OpenSQL opens the key/value table on any supported GORM dialect.
func OpenSQL(driver, dsn string) (Store, error) {
	dialector, err := buildDialector(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("kvstore/sql: build dialector: %w", err)
	}

	db, err := gorm.Open(dialector, &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent), // pkg/logger owns output
	})
	if err != nil {
		return nil, fmt.Errorf("kvstore/sql: open: %w", err)
	}

	if err := db.AutoMigrate(&Record{}); err != nil {
		return nil, fmt.Errorf("kvstore/sql: migrate: %w", err)
	}

	return &sqlStore{db: db}, nil
}

func buildDialector(driver, dsn string) (gorm.Dialector, error) {
	switch driver {
	case "sqlite":
		return sqlite.Open(dsn), nil
	case "postgres":
		return postgres.Open(dsn), nil
	case "mysql":
		return mysql.Open(dsn), nil
	case "sqlserver":
		return sqlserver.Open(dsn), nil
	default:
		return nil, fmt.Errorf("unsupported DB_DRIVER %q (supported: sqlite, postgres, mysql, sqlserver)", driver)
	}
}

func (s *sqlStore) Get(key string, dest interface{}) (bool, error) {
	var rec Record
	err := s.db.First(&rec, "key = ?", key).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return false, nil
	}
	if err != nil {
		return false, wrap("sql", "get", key, err)
	}
	if err := unmarshal(rec.Value, dest); err != nil {
		return false, wrap("sql", "get", key, err)
	}
	return true, nil
}

func (s *sqlStore) Set(key string, value interface{}) error {
	raw, err := marshal(value)
	if err != nil {
		return wrap("sql", "set", key, err)
	}
	rec := Record{Key: key, Value: raw, UpdatedAt: time.Now()}
	err = s.db.Save(&rec).Error
	if err != nil {
		return wrap("sql", "set", key, err)
	}
	return nil
}

func (s *sqlStore) Delete(key string) error {
	if err := s.db.Delete(&Record{}, "key = ?", key).Error; err != nil {
		return wrap("sql", "delete", key, err)
	}
	return nil
}

func (s *sqlStore) Keys(prefix string) ([]string, error) {
	var keys []string
	pattern := strings.ReplaceAll(strings.ReplaceAll(prefix, "%", `\%`), "_", `\_`) + "%"
	err := s.db.Model(&Record{}).Where("key LIKE ?", pattern).Pluck("key", &keys).Error
	if err != nil {
		return nil, wrap("sql", "keys", prefix, err)
	}
	return keys, nil
}
