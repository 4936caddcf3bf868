package session

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/nkiryanov/jobboard/internal/models"
)

// State is what survives client restarts
type State struct {
	Authenticated bool        `yaml:"authenticated"`
	Role          models.Role `yaml:"role,omitempty"`
	Token         string      `yaml:"token,omitempty"`
	SessionStart  time.Time   `yaml:"session_start,omitempty"`
}

type Store interface {
	// Load stored state. Empty state if nothing stored
	Load() (State, error)
	Save(state State) error
	Clear() error
}

// FileStore keeps state in yaml file readable by the owner only
type FileStore struct {
	path string
}

func NewFileStore(path string) *FileStore {
	return &FileStore{path: path}
}

func (s *FileStore) Load() (State, error) {
	var state State

	f, err := os.Open(s.path)
	switch {
	case errors.Is(err, os.ErrNotExist):
		return state, nil
	case err != nil:
		return state, err
	}
	defer f.Close() // nolint:errcheck

	if err := yaml.NewDecoder(f).Decode(&state); err != nil {
		return State{}, fmt.Errorf("session file %s is broken: %w", s.path, err)
	}

	return state, nil
}

// Save writes state to temp file and renames it, so readers never see partial file
func (s *FileStore) Save(state State) error {
	data, err := yaml.Marshal(state)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o700); err != nil {
		return err
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return err
	}

	return os.Rename(tmp, s.path)
}

func (s *FileStore) Clear() error {
	err := os.Remove(s.path)
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	return err
}
