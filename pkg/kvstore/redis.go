package kvstore

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/redis/go-redis/v9"
)

// redisStore keeps records in a shared Redis instance. Used by kiosk fleets
// where several devices must see one user's cart.
type redisStore struct {
	rdb    *redis.Client
	prefix string
}

// OpenRedis connects to Redis and verifies the connection with a ping.
func OpenRedis(addr, password, prefix string) (Store, error) {
	rdb := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: password,
		DB:       0,
	})

	if err := rdb.Ping(context.Background()).Err(); err != nil {
		return nil, fmt.Errorf("kvstore/redis: ping: %w", err)
	}
	return &redisStore{rdb: rdb, prefix: prefix + ":"}, nil
}

func (s *redisStore) Get(key string, dest interface{}) (bool, error) {
	val, err := s.rdb.Get(context.Background(), s.prefix+key).Result()
	if err == redis.Nil {
		return false, nil
	}
	if err != nil {
		return false, wrap("redis", "get", key, err)
	}
	if err := json.Unmarshal([]byte(val), dest); err != nil {
		return false, wrap("redis", "get", key, err)
	}
	return true, nil
}

func (s *redisStore) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return wrap("redis", "set", key, err)
	}
	// No TTL: cart partitions and staged payments live until deleted.
	if err := s.rdb.Set(context.Background(), s.prefix+key, raw, 0).Err(); err != nil {
		return wrap("redis", "set", key, err)
	}
	return nil
}

func (s *redisStore) Delete(key string) error {
	if err := s.rdb.Del(context.Background(), s.prefix+key).Err(); err != nil {
		return wrap("redis", "delete", key, err)
	}
	return nil
}

func (s *redisStore) Keys(prefix string) ([]string, error) {
	full, err := s.rdb.Keys(context.Background(), s.prefix+prefix+"*").Result()
	if err != nil {
		return nil, wrap("redis", "keys", prefix, err)
	}
	keys := make([]string, 0, len(full))
	for _, k := range full {
		keys = append(keys, k[len(s.prefix):])
	}
	return keys, nil
}
