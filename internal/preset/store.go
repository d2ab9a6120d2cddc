package preset

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
)

// Blob is the flat key-value document backing the repository
type Blob struct {
	Presets []string `json:"presets"`
	Current string   `json:"current_preset,omitempty"`
}

// Store reads and writes the preset blob file
type Store struct {
	path string
}

// NewStore creates a store backed by the file at path
func NewStore(path string) *Store {
	return &Store{path: path}
}

// DefaultPath returns the per-user location of the preset blob
func DefaultPath() string {
	homeDir, _ := os.UserHomeDir()
	return filepath.Join(homeDir, ".config", "picofanctl", "presets.json")
}

// Path returns the backing file path
func (s *Store) Path() string {
	return s.path
}

// Load reads the blob from disk. A missing file yields an empty blob.
func (s *Store) Load() (Blob, error) {
	var b Blob
	data, err := os.ReadFile(s.path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return b, nil
		}
		return b, fmt.Errorf("failed to read presets: %w", err)
	}
	if err := json.Unmarshal(data, &b); err != nil {
		return Blob{}, fmt.Errorf("%w: %v", ErrParseFailure, err)
	}
	return b, nil
}

// Save replaces the blob on disk, creating parent directories as needed
func (s *Store) Save(b Blob) error {
	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return fmt.Errorf("failed to create presets directory: %w", err)
	}

	data, err := json.MarshalIndent(b, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal presets: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o600); err != nil {
		return fmt.Errorf("failed to save presets: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to save presets: %w", err)
	}
	return nil
}
