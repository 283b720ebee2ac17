package kvstore

import (
	"encoding/json"
	"net/url"
	"os"
	"path/filepath"
	"strings"
)

// fileStore keeps one JSON file per key under a root directory.
type fileStore struct {
	root string // absolute root directory
}

// NewFile returns a file-backed store rooted at root. The directory is
// created lazily on first write.
func NewFile(root string) Store {
	if !filepath.IsAbs(root) {
		cwd, _ := os.Getwd()
		root = filepath.Join(cwd, root)
	}
	return &fileStore{root: root}
}

// path maps a key to a file name. Keys can contain characters that are not
// filesystem-safe (emails, slashes), so each key is escaped.
func (s *fileStore) path(key string) string {
	return filepath.Join(s.root, url.PathEscape(key)+".json")
}

func (s *fileStore) Get(key string, dest interface{}) (bool, error) {
	raw, err := os.ReadFile(s.path(key))
	if err != nil {
		if os.IsNotExist(err) {
			return false, nil
		}
		return false, wrap("file", "get", key, err)
	}
	if err := json.Unmarshal(raw, dest); err != nil {
		return false, wrap("file", "get", key, err)
	}
	return true, nil
}

func (s *fileStore) Set(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return wrap("file", "set", key, err)
	}
	if err := os.MkdirAll(s.root, 0o700); err != nil {
		return wrap("file", "set", key, err)
	}

	// Write to a temp file and rename so a crash mid-write never leaves a
	// truncated record behind.
	full := s.path(key)
	tmp := full + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o600); err != nil {
		return wrap("file", "set", key, err)
	}
	if err := os.Rename(tmp, full); err != nil {
		return wrap("file", "set", key, err)
	}
	return nil
}

func (s *fileStore) Delete(key string) error {
	err := os.Remove(s.path(key))
	if err != nil && !os.IsNotExist(err) {
		return wrap("file", "delete", key, err)
	}
	return nil
}

func (s *fileStore) Keys(prefix string) ([]string, error) {
	entries, err := os.ReadDir(s.root)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, wrap("file", "keys", prefix, err)
	}

	var keys []string
	for _, e := range entries {
		name := e.Name()
		if e.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		key, err := url.PathUnescape(strings.TrimSuffix(name, ".json"))
		if err != nil {
			continue
		}
		if strings.HasPrefix(key, prefix) {
			keys = append(keys, key)
		}
	}
	return keys, nil
}
