package persistence

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
)

// FileStore keeps all entries in a single JSON object on disk. Every
// update rewrites the file through a temp file and rename, so a crash
// mid-write never truncates existing state.
type FileStore struct {
	path string

	mu      sync.Mutex
	entries map[string]string
}

// NewFileStore opens or creates the JSON state file.
func NewFileStore(path string) (*FileStore, error) {
	s := &FileStore{
		path:    path,
		entries: make(map[string]string),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := json.Unmarshal(data, &s.entries); err != nil {
		return nil, fmt.Errorf("%w: corrupt state file %s: %v", ErrUnavailable, path, err)
	}
	return s, nil
}

func (s *FileStore) GetLastRelease(_ context.Context, key string) (string, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	tag, found := s.entries[key]
	return tag, found, nil
}

func (s *FileStore) SetLastRelease(_ context.Context, key, tag string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[key] = tag
	return s.save()
}

func (s *FileStore) GetAllEntries(_ context.Context, prefix string) (map[string]string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	entries := make(map[string]string, len(s.entries))
	for key, tag := range s.entries {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			entries[key] = tag
		}
	}
	return entries, nil
}

func (s *FileStore) DeleteEntries(_ context.Context, prefix string) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	deleted := 0
	for key := range s.entries {
		if prefix == "" || strings.HasPrefix(key, prefix) {
			delete(s.entries, key)
			deleted++
		}
	}
	if deleted == 0 {
		return 0, nil
	}
	return deleted, s.save()
}

func (s *FileStore) Count(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

func (s *FileStore) Close() error { return nil }

// save writes the state atomically; callers hold the mutex.
func (s *FileStore) save() error {
	data, err := json.MarshalIndent(s.entries, "", "  ")
	if err != nil {
		return err
	}

	dir := filepath.Dir(s.path)
	tmp, err := os.CreateTemp(dir, ".release-tracker-*")
	if err != nil {
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	tmpName := tmp.Name()

	if _, err := tmp.Write(data); err != nil {
		tmp.Close()
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := tmp.Close(); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	if err := os.Rename(tmpName, s.path); err != nil {
		os.Remove(tmpName)
		return fmt.Errorf("%w: %v", ErrUnavailable, err)
	}
	return nil
}
