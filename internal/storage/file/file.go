// Package file keeps values in a YAML document on disk, scoped to the user's
// profile directory so they survive restarts.
package file

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/brizzai/popup-login/internal/logger"
	"github.com/brizzai/popup-login/internal/storage"
	"go.uber.org/zap"
	"gopkg.in/yaml.v3"
)

const fileMode fs.FileMode = 0o600

// Store is a YAML file backed storage.Store
type Store struct {
	mu   sync.Mutex
	path string
}

var _ storage.Store = (*Store)(nil)

// DefaultPath returns credentials.yaml under the user's config directory
func DefaultPath() (string, error) {
	dir, err := os.UserConfigDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve user config dir: %w", err)
	}
	return filepath.Join(dir, "popup-login", "credentials.yaml"), nil
}

// New returns a Store writing to path. An empty path selects DefaultPath.
func New(path string) (*Store, error) {
	if path == "" {
		p, err := DefaultPath()
		if err != nil {
			return nil, err
		}
		path = p
	}
	return &Store{path: path}, nil
}

// Path returns the backing file location
func (s *Store) Path() string { return s.path }

func (s *Store) Get(key string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		logger.Warn("Failed to read credential file", zap.String("path", s.path), zap.Error(err))
		return "", false
	}
	v, ok := values[key]
	return v, ok
}

func (s *Store) Set(key, value string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		logger.Warn("Discarding unreadable credential file", zap.String("path", s.path), zap.Error(err))
		values = map[string]string{}
	}
	values[key] = value
	if err := s.save(values); err != nil {
		logger.Error("Failed to write credential file", zap.String("path", s.path), zap.Error(err))
	}
}

func (s *Store) Delete(key string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	values, err := s.load()
	if err != nil {
		logger.Warn("Failed to read credential file", zap.String("path", s.path), zap.Error(err))
		return
	}
	if _, ok := values[key]; !ok {
		return
	}
	delete(values, key)
	if err := s.save(values); err != nil {
		logger.Error("Failed to write credential file", zap.String("path", s.path), zap.Error(err))
	}
}

func (s *Store) load() (map[string]string, error) {
	data, err := os.ReadFile(s.path)
	if errors.Is(err, fs.ErrNotExist) {
		return map[string]string{}, nil
	}
	if err != nil {
		return nil, err
	}

	values := map[string]string{}
	if err := yaml.Unmarshal(data, &values); err != nil {
		return nil, fmt.Errorf("failed to decode %s: %w", s.path, err)
	}
	return values, nil
}

func (s *Store) save(values map[string]string) error {
	data, err := yaml.Marshal(values)
	if err != nil {
		return fmt.Errorf("failed to encode credentials: %w", err)
	}
	return writeAtomic(s.path, data, fileMode)
}

// writeAtomic writes to a temp file in the same directory and renames it
// over path, so readers never observe a partial document.
func writeAtomic(path string, data []byte, perm fs.FileMode) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("mkdir %s: %w", dir, err)
	}

	tmp, err := os.CreateTemp(dir, ".tmp-*")
	if err != nil {
		return fmt.Errorf("create temp: %w", err)
	}
	tmpPath := tmp.Name()
	defer func() {
		_ = tmp.Close()
		_ = os.Remove(tmpPath)
	}()

	if _, err := tmp.Write(data); err != nil {
		return fmt.Errorf("write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return fmt.Errorf("fsync temp: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("close temp: %w", err)
	}
	if err := os.Chmod(tmpPath, perm); err != nil {
		return fmt.Errorf("chmod temp: %w", err)
	}

	if err := os.Rename(tmpPath, path); err != nil {
		// Windows refuses to rename over an open file
		_ = os.Remove(path)
		if err2 := os.Rename(tmpPath, path); err2 != nil {
			return fmt.Errorf("rename: %v (after remove: %v)", err, err2)
		}
	}
	return nil
}
