package secrets

import (
	"errors"
	"fmt"

	"github.com/zalando/go-keyring"
)

// accountEntry holds the username. The password lives under the username
// itself, the way keychains key passwords by service and user.
const accountEntry = "appc-account"

const checkEntry = "__tibuild_check__"

func keychainAvailable() bool {
	if err := keyring.Set(serviceName, checkEntry, "ok"); err != nil {
		return false
	}
	_ = keyring.Delete(serviceName, checkEntry)
	return true
}

type keychainStore struct{}

func (keychainStore) Load() (Account, error) {
	user, err := lookup(accountEntry)
	if err != nil || user == "" {
		return Account{}, err
	}
	pass, err := lookup(user)
	if err != nil {
		return Account{}, err
	}
	return Account{Username: user, Password: pass}, nil
}

// Save stores the account. Switching accounts drops the previous password.
func (keychainStore) Save(a Account) error {
	if a.Username == "" {
		return errors.New("username is required")
	}
	prev, err := lookup(accountEntry)
	if err != nil {
		return err
	}
	if prev != "" && prev != a.Username {
		if err := remove(prev); err != nil {
			return err
		}
	}
	if err := keyring.Set(serviceName, accountEntry, a.Username); err != nil {
		return fmt.Errorf("failed to store username: %w", err)
	}
	if err := keyring.Set(serviceName, a.Username, a.Password); err != nil {
		return fmt.Errorf("failed to store password: %w", err)
	}
	return nil
}

func (keychainStore) Forget() error {
	user, err := lookup(accountEntry)
	if err != nil {
		return err
	}
	if user != "" {
		if err := remove(user); err != nil {
			return err
		}
	}
	return remove(accountEntry)
}

// lookup returns "" for a missing entry.
func lookup(user string) (string, error) {
	v, err := keyring.Get(serviceName, user)
	if errors.Is(err, keyring.ErrNotFound) {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("keychain read failed: %w", err)
	}
	return v, nil
}

func remove(user string) error {
	err := keyring.Delete(serviceName, user)
	if err != nil && !errors.Is(err, keyring.ErrNotFound) {
		return fmt.Errorf("keychain delete failed: %w", err)
	}
	return nil
}
