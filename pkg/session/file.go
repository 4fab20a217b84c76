package session

import (
	"context"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"
)

// State is the part of a session worth keeping between runs: the threshold
// and transform a user settled on for one input.
type State struct {
	InputHash string    `json:"input_hash"`
	Dims      int       `json:"dims"`
	Threshold uint8     `json:"threshold"`
	Transform string    `json:"transform"`
	UpdatedAt time.Time `json:"updated_at"`
}

// State returns the session's current state for the input hashed as inputHash.
func (s *Session) State(inputHash string) State {
	snap := s.Snapshot()
	return State{
		InputHash: inputHash,
		Dims:      int(s.hist.Dims()),
		Threshold: snap.Threshold,
		Transform: snap.Transform,
		UpdatedAt: time.Now(),
	}
}

// FileStore keeps session states as JSON files, one per input and
// dimensionality.
type FileStore struct {
	mu      sync.RWMutex
	baseDir string
}

// NewFileStore creates a file-based state store.
// If baseDir is empty, defaults to $XDG_CONFIG_HOME/binvis/sessions/.
func NewFileStore(baseDir string) (*FileStore, error) {
	if baseDir == "" {
		dir, err := defaultDir()
		if err != nil {
			return nil, err
		}
		baseDir = dir
	}
	if err := os.MkdirAll(baseDir, 0o700); err != nil {
		return nil, fmt.Errorf("create session dir: %w", err)
	}
	return &FileStore{baseDir: baseDir}, nil
}

func defaultDir() (string, error) {
	if dir := os.Getenv("XDG_CONFIG_HOME"); dir != "" {
		return filepath.Join(dir, "binvis", "sessions"), nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("get home dir: %w", err)
	}
	return filepath.Join(home, ".config", "binvis", "sessions"), nil
}

func (s *FileStore) statePath(inputHash string, dims int) string {
	return filepath.Join(s.baseDir, fmt.Sprintf("%s-%dd.json", inputHash, dims))
}

// Get returns the saved state, or nil if there is none.
func (s *FileStore) Get(ctx context.Context, inputHash string, dims int) (*State, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	data, err := os.ReadFile(s.statePath(inputHash, dims))
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("read session file: %w", err)
	}

	var st State
	if err := json.Unmarshal(data, &st); err != nil {
		return nil, fmt.Errorf("parse session: %w", err)
	}
	return &st, nil
}

// Set saves st, replacing any earlier state for the same input.
func (s *FileStore) Set(ctx context.Context, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(st, "", "  ")
	if err != nil {
		return fmt.Errorf("marshal session: %w", err)
	}
	if err := os.WriteFile(s.statePath(st.InputHash, st.Dims), data, 0o600); err != nil {
		return fmt.Errorf("write session file: %w", err)
	}
	return nil
}

// Delete removes the saved state. Missing state is not an error.
func (s *FileStore) Delete(ctx context.Context, inputHash string, dims int) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.statePath(inputHash, dims)); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("remove session file: %w", err)
	}
	return nil
}

// Path returns the base directory for session files.
func (s *FileStore) Path() string {
	return s.baseDir
}
