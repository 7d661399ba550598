package secrets

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

const (
	accountFile     = "account.json"
	accountFileMode = 0o600
)

// fileStore keeps the account in a JSON file readable only by the owner.
type fileStore struct {
	mu   sync.Mutex
	path string
}

func newFileStore(dir string) *fileStore {
	return &fileStore{path: filepath.Join(dir, accountFile)}
}

func (f *fileStore) Load() (Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := os.ReadFile(f.path)
	if os.IsNotExist(err) {
		return Account{}, nil
	}
	if err != nil {
		return Account{}, fmt.Errorf("failed to read %s: %w", f.path, err)
	}
	var a Account
	if err := json.Unmarshal(raw, &a); err != nil {
		return Account{}, fmt.Errorf("failed to parse %s: %w", f.path, err)
	}
	return a, nil
}

// Save writes through a temp file so a crash never leaves half an account.
func (f *fileStore) Save(a Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	raw, err := json.MarshalIndent(a, "", "  ")
	if err != nil {
		return err
	}
	dir := filepath.Dir(f.path)
	if err := os.MkdirAll(dir, 0o700); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}
	tmp, err := os.CreateTemp(dir, accountFile+".*")
	if err != nil {
		return fmt.Errorf("failed to write account: %w", err)
	}
	defer os.Remove(tmp.Name())
	if err := tmp.Chmod(accountFileMode); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write account: %w", err)
	}
	if _, err := tmp.Write(raw); err != nil {
		tmp.Close()
		return fmt.Errorf("failed to write account: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("failed to write account: %w", err)
	}
	if err := os.Rename(tmp.Name(), f.path); err != nil {
		return fmt.Errorf("failed to write account: %w", err)
	}
	return nil
}

func (f *fileStore) Forget() error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if err := os.Remove(f.path); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("failed to remove %s: %w", f.path, err)
	}
	return nil
}
