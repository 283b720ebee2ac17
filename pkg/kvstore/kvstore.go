// Package kvstore provides the client's local persistence: small structured
// records (session token, cart partitions, the staged payment) stored under
// string keys.
//
// Three durable drivers are available, selected by STORE_DRIVER:
//
//	file   one JSON file per key under STATE_DIR (default)
//	redis  shared Redis, for multi-device kiosk fleets
//	sql    a single key/value table via GORM (sqlite, postgres, mysql, sqlserver)
//
// plus an in-process memory driver used for session-scoped state and tests.
package kvstore

import (
	"encoding/json"
	"fmt"
	"path/filepath"

	"github.com/hyunwoopark/shopfront/config"
)

// Store is a keyed record store. Values are marshalled to JSON on write and
// unmarshalled on read.
type Store interface {
	// Get reads the record under key into dest. It returns false when the
	// key does not exist; err is reserved for storage failures.
	Get(key string, dest interface{}) (bool, error)

	// Set writes value under key, replacing any previous record.
	Set(key string, value interface{}) error

	// Delete removes the record under key. Deleting a missing key is a no-op.
	Delete(key string) error

	// Keys lists all stored keys with the given prefix.
	Keys(prefix string) ([]string, error)
}

// Open builds the durable store selected by configuration.
func Open() (Store, error) {
	switch config.StoreDriver() {
	case "redis":
		return OpenRedis(config.RedisAddr(), config.RedisPassword(), "shopfront")
	case "sql":
		return OpenSQL(config.DatabaseDriver(), config.DatabaseDSN())
	default:
		return NewFile(config.StateDir()), nil
	}
}

// OpenSession builds the session-scoped store: file-backed under the state
// dir so a restarted process can rehydrate, wiped entirely on logout.
func OpenSession() Store {
	return NewFile(filepath.Join(config.StateDir(), "session"))
}

func wrap(driver, op, key string, err error) error {
	return fmt.Errorf("kvstore/%s: %s %s: %w", driver, op, key, err)
}

func marshal(value interface{}) ([]byte, error)    { return json.Marshal(value) }
func unmarshal(raw []byte, dest interface{}) error { return json.Unmarshal(raw, dest) }
