package kvstore

import (
	"encoding/json"
	"strings"
	"sync"
)

// memoryStore is an in-process driver used by tests and for state that must
// not outlive the process.
type memoryStore struct {
	mu      sync.RWMutex
	records map[string]json.RawMessage
}

// NewMemory returns an empty in-process store.
func NewMemory() Store {
	return &memoryStore{records: map[string]json.RawMessage{}}
}

func (s *memoryStore) Get(key string, dest interface{}) (bool, error) {
	s.mu.RLock()
	raw, ok := s.records[key]
	s.mu.RUnlock()
	if !ok {
		return false, nil
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, wrap("memory", "get", key, err)
	}
	return true, nil
}

func (s *memoryStore) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return wrap("memory", "set", key, err)
	}
	s.mu.Lock()
	s.records[key] = raw
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Delete(key string) error {
	s.mu.Lock()
	delete(s.records, key)
	s.mu.Unlock()
	return nil
}

func (s *memoryStore) Keys(prefix string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	var keys []string
	for k := range s.records {
		if strings.HasPrefix(k, prefix) {
			keys = append(keys, k)
		}
	}
	return keys, nil
}
