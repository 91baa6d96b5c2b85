package settings

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sync"

	"github.com/pelletier/go-toml/v2"
)

// Store owns the settings file and hands out snapshots.
type Store struct {
	path    string
	mu      sync.RWMutex
	current Settings
}

// Open loads settings from path. When the file does not exist it is created
// from seed. The bool result reports whether the file was created.
func Open(path string, seed Settings) (*Store, bool, error) {
	s := &Store{path: path}

	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		var loaded Settings
		if err := toml.NewDecoder(bytes.NewReader(data)).Decode(&loaded); err != nil {
			return nil, false, fmt.Errorf("parse settings: %w", err)
		}
		loaded.normalize()
		s.current = loaded
		return s, false, nil
	case errors.Is(err, fs.ErrNotExist):
		seed = seed.Clone()
		seed.normalize()
		if err := s.persist(seed); err != nil {
			return nil, false, err
		}
		s.current = seed
		return s, true, nil
	default:
		return nil, false, fmt.Errorf("read settings: %w", err)
	}
}

// Path returns the settings file location.
func (s *Store) Path() string {
	return s.path
}

// Snapshot returns a copy of the current settings.
func (s *Store) Snapshot() Settings {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.current.Clone()
}

// Update validates next, writes it to disk and makes it current. On any error
// the previous settings remain in effect.
func (s *Store) Update(next Settings) (Settings, error) {
	next = next.Clone()
	next.normalize()
	if err := next.Validate(); err != nil {
		return Settings{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if err := s.persist(next); err != nil {
		return Settings{}, err
	}
	s.current = next
	return next.Clone(), nil
}

func (s *Store) persist(cfg Settings) error {
	data, err := toml.Marshal(cfg)
	if err != nil {
		return fmt.Errorf("encode settings: %w", err)
	}
	if dir := filepath.Dir(s.path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create settings directory: %w", err)
		}
	}
	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("write settings: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		_ = os.Remove(tmp)
		return fmt.Errorf("replace settings: %w", err)
	}
	return nil
}
