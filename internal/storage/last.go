package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sync"
	"time"
)

// LastCommand is the most recently dispatched build. Values of secret flags
// are stored blank.
type LastCommand struct {
	Path       string    `json:"path"`
	Args       []string  `json:"args"`
	Dir        string    `json:"dir,omitempty"`
	RecordedAt time.Time `json:"recorded_at"`
}

// LastCommandStore holds a single LastCommand slot. Save overwrites.
type LastCommandStore interface {
	// Load returns the stored command, or nil if none was recorded.
	Load() (*LastCommand, error)
	Save(cmd *LastCommand) error
	// Clear empties the slot. Clearing an empty slot is not an error.
	Clear() error
}

// MemoryLastStore keeps the command for the lifetime of the process.
type MemoryLastStore struct {
	mu  sync.Mutex
	cmd *LastCommand
}

// NewMemoryLastStore creates an empty in-memory store.
func NewMemoryLastStore() *MemoryLastStore {
	return &MemoryLastStore{}
}

func (s *MemoryLastStore) Load() (*LastCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.cmd == nil {
		return nil, nil
	}
	c := *s.cmd
	c.Args = slices.Clone(s.cmd.Args)
	return &c, nil
}

func (s *MemoryLastStore) Save(cmd *LastCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	c := *cmd
	c.Args = slices.Clone(cmd.Args)
	s.cmd = &c
	return nil
}

func (s *MemoryLastStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.cmd = nil
	return nil
}

// FileLastStore persists the command as JSON under dir.
type FileLastStore struct {
	mu  sync.Mutex
	dir string
}

// NewFileLastStore creates a file-backed store in the given directory.
func NewFileLastStore(dir string) *FileLastStore {
	return &FileLastStore{dir: dir}
}

func (s *FileLastStore) filePath() string {
	return filepath.Join(s.dir, "last.json")
}

// Load reads the command from disk. A missing file is not an error.
func (s *FileLastStore) Load() (*LastCommand, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := os.ReadFile(s.filePath())
	if err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read last command: %w", err)
	}

	var c LastCommand
	if err := json.Unmarshal(data, &c); err != nil {
		return nil, fmt.Errorf("failed to parse last command: %w", err)
	}
	if c.Path == "" {
		return nil, nil
	}
	return &c, nil
}

// Save writes the command to disk. The file names the account, so it is
// created with 0600 permissions.
func (s *FileLastStore) Save(cmd *LastCommand) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	data, err := json.MarshalIndent(cmd, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal last command: %w", err)
	}

	if err := os.MkdirAll(s.dir, 0o755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	if err := os.WriteFile(s.filePath(), data, 0o600); err != nil {
		return fmt.Errorf("failed to write last command: %w", err)
	}
	return nil
}

// Clear removes the file.
func (s *FileLastStore) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if err := os.Remove(s.filePath()); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove last command: %w", err)
	}
	return nil
}
