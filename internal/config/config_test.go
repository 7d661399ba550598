package config

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gopkg.in/yaml.v3"
)

func TestLoadDefaults(t *testing.T) {
	t.Setenv("TIBUILD_HOME", t.TempDir())

	cfg, path, err := Load("")
	require.NoError(t, err)
	assert.Empty(t, path)
	assert.Equal(t, DefaultConfig().AppcPath, cfg.AppcPath)
	assert.Equal(t, "info", cfg.LogLevel)
	assert.Equal(t, CredentialsSession, cfg.CredentialStorage)
	assert.True(t, cfg.RememberLast)
	assert.False(t, cfg.UseProjectNames)
	assert.Empty(t, cfg.AndroidKeystore)
	assert.Empty(t, cfg.Projects)
}

func TestLoadFile(t *testing.T) {
	home := t.TempDir()
	t.Setenv("TIBUILD_HOME", home)

	content := `
appc_path: /opt/appc/bin/appc
log_level: debug
android_keystore: /keys/release.keystore
use_project_names: true
ios_build_family: ipad
projects:
  - name: Shop
    path: /src/shop
  - name: Admin
    path: /src/admin
`
	require.NoError(t, os.WriteFile(filepath.Join(home, ConfigFileName), []byte(content), 0o600))

	cfg, path, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, filepath.Join(home, ConfigFileName), path)
	assert.Equal(t, "/opt/appc/bin/appc", cfg.AppcPath)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "/keys/release.keystore", cfg.AndroidKeystore)
	assert.True(t, cfg.UseProjectNames)
	assert.Equal(t, "ipad", cfg.IOSBuildFamily)
	assert.Equal(t, []Project{{Name: "Shop", Path: "/src/shop"}, {Name: "Admin", Path: "/src/admin"}}, cfg.Projects)
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("TIBUILD_HOME", t.TempDir())
	t.Setenv("TIBUILD_LOG_LEVEL", "trace")
	t.Setenv("TIBUILD_USERNAME", "ci@acme.com")

	cfg, _, err := Load("")
	require.NoError(t, err)
	assert.Equal(t, "trace", cfg.LogLevel)
	assert.Equal(t, "ci@acme.com", cfg.Username)
}

func TestLoadExplicitMissing(t *testing.T) {
	_, _, err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
	assert.Error(t, err)
}

func TestLoadInvalid(t *testing.T) {
	path := filepath.Join(t.TempDir(), "c.yaml")
	require.NoError(t, os.WriteFile(path, []byte("log_level: loud\nios_build_family: watch\n"), 0o600))

	_, _, err := Load(path)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "log_level")
	assert.Contains(t, err.Error(), "ios_build_family")
}

func TestValidate(t *testing.T) {
	tests := []struct {
		name    string
		mutate  func(c *Config)
		wantErr bool
	}{
		{"defaults", func(c *Config) {}, false},
		{"keychain storage", func(c *Config) { c.CredentialStorage = CredentialsKeychain }, false},
		{"unknown storage", func(c *Config) { c.CredentialStorage = "disk" }, true},
		{"universal family", func(c *Config) { c.IOSBuildFamily = "universal" }, false},
		{"project without path", func(c *Config) { c.Projects = []Project{{Name: "x"}} }, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := DefaultConfig()
			tt.mutate(c)
			err := c.Validate()
			if tt.wantErr {
				assert.Error(t, err)
			} else {
				assert.NoError(t, err)
			}
		})
	}
}

func TestYAMLMasksPassword(t *testing.T) {
	c := DefaultConfig()
	c.Password = "hunter2"

	out, err := c.YAML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.Equal(t, "hunter2", c.Password)
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "nested", ConfigFileName)

	require.NoError(t, DefaultConfig().WriteFile(path))
	assert.Error(t, DefaultConfig().WriteFile(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var got Config
	require.NoError(t, yaml.Unmarshal(data, &got))
	assert.Equal(t, *DefaultConfig(), got)
}

func TestTOMLMasksPassword(t *testing.T) {
	c := DefaultConfig()
	c.Password = "hunter2"

	out, err := c.TOML()
	require.NoError(t, err)
	assert.NotContains(t, string(out), "hunter2")
	assert.Contains(t, string(out), "appc_path = ")
	assert.Contains(t, string(out), "/usr/local/bin/appc")
}

func TestTOMLFileRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.toml")
	want := DefaultConfig()
	want.LogLevel = "debug"
	want.IOSBuildFamily = "iphone"
	want.Projects = []Project{{Name: "Shop", Path: "/src/shop"}}
	require.NoError(t, want.WriteFile(path))

	cfg, resolved, err := Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, resolved)
	assert.Equal(t, "debug", cfg.LogLevel)
	assert.Equal(t, "iphone", cfg.IOSBuildFamily)
	assert.True(t, cfg.RememberLast)
	assert.Equal(t, want.Projects, cfg.Projects)
}
