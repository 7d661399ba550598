package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/pelletier/go-toml/v2"
	"github.com/spf13/viper"
	"gopkg.in/yaml.v3"
)

const (
	// AppName is the application name.
	AppName = "tibuild"
	// ConfigFileName is the config file name inside Dir().
	ConfigFileName = "config.yaml"
	// EnvPrefix prefixes environment overrides (TIBUILD_LOG_LEVEL, ...).
	EnvPrefix = "TIBUILD"
)

// Credential storage modes.
const (
	// CredentialsSession keeps prompted credentials for the current run only.
	CredentialsSession = "session"
	// CredentialsKeychain stores prompted credentials in the OS keychain.
	CredentialsKeychain = "keychain"
)

var (
	logLevels   = []string{"trace", "debug", "info", "warn", "error"}
	iosFamilies = []string{"universal", "iphone", "ipad"}
)

// Project is a named project folder.
type Project struct {
	Name string `mapstructure:"name" yaml:"name" toml:"name"`
	Path string `mapstructure:"path" yaml:"path" toml:"path"`
}

// Config holds the wizard settings. Every field is optional.
type Config struct {
	// AppcPath is the appc binary.
	AppcPath string `mapstructure:"appc_path" yaml:"appc_path" toml:"appc_path"`
	// LogLevel is passed to the build as --log-level.
	LogLevel string `mapstructure:"log_level" yaml:"log_level" toml:"log_level"`
	// AndroidKeystore skips the keystore prompt when set.
	AndroidKeystore string `mapstructure:"android_keystore" yaml:"android_keystore" toml:"android_keystore"`
	// UseProjectNames labels the project picker by name instead of folder.
	UseProjectNames bool   `mapstructure:"use_project_names" yaml:"use_project_names" toml:"use_project_names"`
	Username        string `mapstructure:"username" yaml:"username" toml:"username"`
	Password        string `mapstructure:"password" yaml:"password" toml:"password"`
	// IOSBuildFamily skips the family prompt when it names a valid family.
	IOSBuildFamily string `mapstructure:"ios_build_family" yaml:"ios_build_family" toml:"ios_build_family"`
	// IOSKeychain selects the keychain certificates are read from.
	// Empty means the login keychain.
	IOSKeychain string `mapstructure:"ios_keychain" yaml:"ios_keychain" toml:"ios_keychain"`
	// CredentialStorage is CredentialsSession or CredentialsKeychain.
	CredentialStorage string `mapstructure:"credential_storage" yaml:"credential_storage" toml:"credential_storage"`
	// RememberLast persists the most recent command across runs.
	RememberLast bool      `mapstructure:"remember_last" yaml:"remember_last" toml:"remember_last"`
	Projects     []Project `mapstructure:"projects" yaml:"projects,omitempty" toml:"projects,omitempty"`
}

// DefaultConfig returns the built-in defaults.
func DefaultConfig() *Config {
	return &Config{
		AppcPath:          "/usr/local/bin/appc",
		LogLevel:          "info",
		CredentialStorage: CredentialsSession,
		RememberLast:      true,
	}
}

// Dir returns the tibuild state directory: $TIBUILD_HOME, or ~/.tibuild.
func Dir() (string, error) {
	if d := os.Getenv(EnvPrefix + "_HOME"); d != "" {
		return d, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to get home directory: %w", err)
	}
	return filepath.Join(home, "."+AppName), nil
}

// DefaultPath returns the default config file location.
func DefaultPath() (string, error) {
	dir, err := Dir()
	if err != nil {
		return "", err
	}
	return filepath.Join(dir, ConfigFileName), nil
}

// Load reads configuration from path (or the default location when path is
// empty), applies TIBUILD_* environment overrides and validates the result.
// A missing default file is not an error; a missing explicit file is.
// The second return value is the file that was read, if any.
func Load(path string) (*Config, string, error) {
	v := viper.New()

	defaults := DefaultConfig()
	v.SetDefault("appc_path", defaults.AppcPath)
	v.SetDefault("log_level", defaults.LogLevel)
	v.SetDefault("android_keystore", defaults.AndroidKeystore)
	v.SetDefault("use_project_names", defaults.UseProjectNames)
	v.SetDefault("username", defaults.Username)
	v.SetDefault("password", defaults.Password)
	v.SetDefault("ios_build_family", defaults.IOSBuildFamily)
	v.SetDefault("ios_keychain", defaults.IOSKeychain)
	v.SetDefault("credential_storage", defaults.CredentialStorage)
	v.SetDefault("remember_last", defaults.RememberLast)
	v.SetDefault("projects", []Project{})

	v.SetEnvPrefix(EnvPrefix)
	v.AutomaticEnv()

	resolved := ""
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, "", fmt.Errorf("config file not found: %s", path)
		}
		resolved = path
	} else {
		def, err := DefaultPath()
		if err != nil {
			return nil, "", err
		}
		if _, err := os.Stat(def); err == nil {
			resolved = def
		}
	}

	if resolved != "" {
		v.SetConfigFile(resolved)
		if !strings.EqualFold(filepath.Ext(resolved), ".toml") {
			v.SetConfigType("yaml")
		}
		if err := v.ReadInConfig(); err != nil {
			return nil, "", fmt.Errorf("failed to read config %s: %w", resolved, err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, "", fmt.Errorf("failed to parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, "", fmt.Errorf("invalid config %s: %w", resolved, err)
	}
	return &cfg, resolved, nil
}

// Validate checks enumerated settings.
func (c *Config) Validate() error {
	var errs []error
	if !slices.Contains(logLevels, c.LogLevel) {
		errs = append(errs, fmt.Errorf("log_level %q must be one of %s", c.LogLevel, strings.Join(logLevels, ", ")))
	}
	if c.IOSBuildFamily != "" && !slices.Contains(iosFamilies, c.IOSBuildFamily) {
		errs = append(errs, fmt.Errorf("ios_build_family %q must be one of %s", c.IOSBuildFamily, strings.Join(iosFamilies, ", ")))
	}
	switch c.CredentialStorage {
	case CredentialsSession, CredentialsKeychain:
	default:
		errs = append(errs, fmt.Errorf("credential_storage %q must be %q or %q", c.CredentialStorage, CredentialsSession, CredentialsKeychain))
	}
	for i, p := range c.Projects {
		if p.Path == "" {
			errs = append(errs, fmt.Errorf("projects[%d] has no path", i))
		}
	}
	return errors.Join(errs...)
}

func (c *Config) masked() *Config {
	out := *c
	if out.Password != "" {
		out.Password = "********"
	}
	return &out
}

// YAML renders the configuration. The password is masked.
func (c *Config) YAML() ([]byte, error) {
	return yaml.Marshal(c.masked())
}

// TOML renders the configuration. The password is masked.
func (c *Config) TOML() ([]byte, error) {
	return toml.Marshal(c.masked())
}

// WriteFile writes the configuration to path, creating parent directories.
// A .toml extension selects TOML, anything else YAML. Existing files are
// left alone.
func (c *Config) WriteFile(path string) error {
	if _, err := os.Stat(path); err == nil {
		return fmt.Errorf("%s already exists", path)
	}
	marshal := yaml.Marshal
	if strings.EqualFold(filepath.Ext(path), ".toml") {
		marshal = toml.Marshal
	}
	data, err := marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}
	return os.WriteFile(path, data, 0o600)
}
