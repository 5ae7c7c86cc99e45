package statefile

import (
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
)

// Store persists a single JSON-encoded value at a fixed path.
// Writes go to a temp file in the same directory followed by a rename,
// so a crash mid-write never truncates the previous state.
type Store[T any] struct {
	path string
}

// New creates a store for the given file path
func New[T any](path string) *Store[T] {
	return &Store[T]{path: path}
}

// Path returns the file path backing this store
func (s *Store[T]) Path() string {
	return s.path
}

// Load reads the persisted value. A missing file returns def with a nil
// error; an unreadable or corrupt file also returns def, but with the
// underlying error so the caller can log the fallback.
func (s *Store[T]) Load(def T) (T, error) {
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return def, nil
		}
		return def, fmt.Errorf("read state file %s: %w", s.path, err)
	}

	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return def, fmt.Errorf("parse state file %s: %w", s.path, err)
	}
	return v, nil
}

// Save atomically replaces the persisted value
func (s *Store[T]) Save(v T) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("encode state for %s: %w", s.path, err)
	}

	dir := filepath.Dir(s.path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("create state directory %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, filepath.Base(s.path)+".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp state file: %w", err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("write temp state file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("close temp state file: %w", err)
	}

	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("replace state file %s: %w", s.path, err)
	}
	return nil
}
