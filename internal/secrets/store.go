// Package secrets stores the appc account between runs. It uses the OS
// keychain (macOS Keychain, Linux Secret Service) when available, with a 0600
// JSON file fallback for machines without one.
package secrets

// serviceName is the keychain service identifier for all tibuild secrets.
const serviceName = "tibuild"

// Account is the appc login.
type Account struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// Store keeps a single Account.
type Store interface {
	// Load returns the stored account. Nothing stored is a zero Account.
	Load() (Account, error)
	// Save replaces the stored account.
	Save(a Account) error
	// Forget removes the stored account. Forgetting nothing is not an error.
	Forget() error
}

// New returns the keychain store when the OS keychain accepts writes, and the
// file store in dir otherwise.
func New(dir string) Store {
	if keychainAvailable() {
		return keychainStore{}
	}
	return newFileStore(dir)
}
