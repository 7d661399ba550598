package mcpserver

import (
	"context"
	"errors"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"
	"github.com/moasq/tibuild/internal/runner"
	"github.com/moasq/tibuild/internal/toolchain"
	"github.com/moasq/tibuild/internal/wizard"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeTools struct {
	env     *toolchain.EnvironmentInfo
	infoErr error
}

func (f *fakeTools) Info(context.Context, toolchain.Credentials) (*toolchain.EnvironmentInfo, error) {
	return f.env, f.infoErr
}

func (f *fakeTools) SDKVersion(context.Context, toolchain.Credentials, string) (string, error) {
	return "5.1.2.GA", nil
}

func (f *fakeTools) ProjectVersion(context.Context, toolchain.Credentials, string) (string, error) {
	return "2.3.0", nil
}

type fakeDispatcher struct {
	ran      []runner.Command
	execed   []runner.Command
	last     *runner.Command
	replayed int
}

func (f *fakeDispatcher) Run(_ context.Context, c runner.Command) error {
	f.ran = append(f.ran, c)
	f.last = &c
	return nil
}

func (f *fakeDispatcher) Exec(_ context.Context, c runner.Command) error {
	f.execed = append(f.execed, c)
	return nil
}

func (f *fakeDispatcher) Replay(context.Context) error {
	if f.last == nil {
		return runner.ErrNoRecent
	}
	f.replayed++
	return nil
}

func (f *fakeDispatcher) Last() (*runner.Command, error) { return f.last, nil }

func newProject(t *testing.T) string {
	t.Helper()
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "tiapp.xml"), []byte("<ti:app><name>Shop</name></ti:app>"), 0o644))
	return dir
}

func newServer(tools *fakeTools, d *fakeDispatcher, settings wizard.Settings) *Server {
	if tools == nil {
		tools = &fakeTools{env: &toolchain.EnvironmentInfo{}}
	}
	cfg := Config{
		Toolchain: tools,
		Credentials: func() (toolchain.Credentials, error) {
			return toolchain.Credentials{Username: "dev", Password: "pw"}, nil
		},
		Settings: settings,
		Logger:   log.New(io.Discard),
		Version:  "test",
	}
	if d != nil {
		cfg.Dispatcher = d
		cfg.Recent = d
	}
	return New(cfg)
}

func TestEnvironmentInfo(t *testing.T) {
	env := &toolchain.EnvironmentInfo{AndroidEmulators: []toolchain.AndroidEmulator{{Name: "Nexus 5"}}}
	s := newServer(&fakeTools{env: env}, nil, wizard.Settings{})

	_, out, err := s.handleEnvironmentInfo(context.Background(), nil, emptyInput{})
	require.NoError(t, err)
	assert.Same(t, env, out.Environment)
	assert.Empty(t, out.Warning)
}

func TestEnvironmentInfoProbeFailure(t *testing.T) {
	s := newServer(&fakeTools{infoErr: errors.New("appc missing")}, nil, wizard.Settings{})

	_, out, err := s.handleEnvironmentInfo(context.Background(), nil, emptyInput{})
	require.NoError(t, err)
	assert.NotNil(t, out.Environment)
	assert.Equal(t, "appc missing", out.Warning)
}

func TestProjectInfo(t *testing.T) {
	dir := newProject(t)
	s := newServer(nil, nil, wizard.Settings{})

	_, out, err := s.handleProjectInfo(context.Background(), nil, projectInput{ProjectDir: dir})
	require.NoError(t, err)
	assert.Equal(t, projectOutput{Name: "Shop", SDKVersion: "5.1.2.GA", Version: "2.3.0"}, out)
}

func TestBuildCommandRejectsNonProject(t *testing.T) {
	s := newServer(nil, nil, wizard.Settings{})

	_, _, err := s.handleBuildCommand(context.Background(), nil, buildInput{ProjectDir: t.TempDir(), Platform: "android", Target: "device"})
	assert.ErrorContains(t, err, "not a Titanium project")

	_, _, err = s.handleBuildCommand(context.Background(), nil, buildInput{Platform: "android"})
	assert.ErrorContains(t, err, "project_dir is required")
}

func TestBuildCommandAndroidDistribution(t *testing.T) {
	dir := newProject(t)
	s := newServer(nil, nil, wizard.Settings{AppcPath: "appc", AndroidKeystore: "/keys/release.keystore"})

	_, out, err := s.handleBuildCommand(context.Background(), nil, buildInput{
		ProjectDir:       dir,
		Platform:         "android",
		Target:           "distribution",
		DeviceID:         "ignored",
		KeystorePassword: "storepass",
		KeyAlias:         "release",
	})
	require.NoError(t, err)

	assert.False(t, out.Executed)
	assert.Equal(t, dir, out.Dir)
	assert.Contains(t, out.Command, "--target dist-playstore")
	assert.Contains(t, out.Command, "--keystore /keys/release.keystore")
	assert.Contains(t, out.Command, "--store-password '********'")
	assert.Contains(t, out.Command, "--password '********'")
	assert.Contains(t, out.Command, "--output-dir "+filepath.Join(dir, "dist", "2.3.0"))
	assert.NotContains(t, out.Command, "storepass")
	assert.NotContains(t, out.Command, "--device-id")
}

func TestBuildCommandIOSUsesConfiguredFamily(t *testing.T) {
	dir := newProject(t)
	s := newServer(nil, nil, wizard.Settings{AppcPath: "appc", IOSBuildFamily: "ipad"})

	_, out, err := s.handleBuildCommand(context.Background(), nil, buildInput{
		ProjectDir:  dir,
		Platform:    "ios",
		Target:      "device",
		DeviceID:    "udid-1",
		Certificate: "Jane",
		ProfileUUID: "pp-1",
	})
	require.NoError(t, err)
	assert.Contains(t, out.Command, "--device-family ipad")
	assert.Contains(t, out.Command, "--developer-name Jane")
}

func TestBuildCommandValidation(t *testing.T) {
	dir := newProject(t)
	s := newServer(nil, nil, wizard.Settings{})

	_, _, err := s.handleBuildCommand(context.Background(), nil, buildInput{ProjectDir: dir, Platform: "ios", Target: "device"})
	assert.ErrorIs(t, err, wizard.ErrIncomplete)

	_, _, err = s.handleBuildCommand(context.Background(), nil, buildInput{ProjectDir: dir, Platform: "mobileweb", Target: "web"})
	assert.ErrorContains(t, err, "development or production")

	_, _, err = s.handleBuildCommand(context.Background(), nil, buildInput{ProjectDir: dir, Platform: "tizen", Target: "device"})
	assert.ErrorContains(t, err, "unknown platform")
}

func TestBuildCommandExecute(t *testing.T) {
	dir := newProject(t)
	d := &fakeDispatcher{}
	s := newServer(nil, d, wizard.Settings{AppcPath: "appc"})

	_, out, err := s.handleBuildCommand(context.Background(), nil, buildInput{
		ProjectDir: dir, Platform: "mobileweb", Target: "production", Execute: true,
	})
	require.NoError(t, err)
	assert.True(t, out.Executed)
	require.Len(t, d.ran, 1)
	assert.Equal(t, "appc", d.ran[0].Path)
	assert.Equal(t, dir, d.ran[0].Dir)
	assert.Contains(t, d.ran[0].Args, "pw")
}

func TestExecuteDisabled(t *testing.T) {
	dir := newProject(t)
	s := newServer(nil, nil, wizard.Settings{})

	_, _, err := s.handleCleanCommand(context.Background(), nil, cleanInput{ProjectDir: dir, Execute: true})
	assert.ErrorIs(t, err, errExecutionDisabled)

	_, out, err := s.handleCleanCommand(context.Background(), nil, cleanInput{ProjectDir: dir})
	require.NoError(t, err)
	assert.Contains(t, out.Command, "ti clean")
}

func TestCleanExecuteIsNotRecorded(t *testing.T) {
	dir := newProject(t)
	d := &fakeDispatcher{}
	s := newServer(nil, d, wizard.Settings{AppcPath: "appc"})

	_, out, err := s.handleCleanCommand(context.Background(), nil, cleanInput{ProjectDir: dir, Execute: true})
	require.NoError(t, err)
	assert.True(t, out.Executed)
	assert.Empty(t, d.ran)
	require.Len(t, d.execed, 1)
	assert.Equal(t, "clean", d.execed[0].Args[1])
}

func TestLastCommand(t *testing.T) {
	d := &fakeDispatcher{}
	s := newServer(nil, d, wizard.Settings{})

	_, _, err := s.handleLastCommand(context.Background(), nil, lastInput{})
	assert.ErrorIs(t, err, runner.ErrNoRecent)

	d.last = &runner.Command{Path: "appc", Args: []string{"run", "--password", ""}, Dir: "/p"}
	_, out, err := s.handleLastCommand(context.Background(), nil, lastInput{Execute: true})
	require.NoError(t, err)
	assert.True(t, out.Executed)
	assert.Equal(t, "appc run --password '********'", out.Command)
	assert.Equal(t, 1, d.replayed)
}

func TestLastCommandReadableWithoutExecute(t *testing.T) {
	recent := &fakeDispatcher{last: &runner.Command{Path: "appc", Args: []string{"run", "--platform", "android"}, Dir: "/p"}}
	s := New(Config{Recent: recent, Logger: log.New(io.Discard)})

	_, out, err := s.handleLastCommand(context.Background(), nil, lastInput{})
	require.NoError(t, err)
	assert.Equal(t, "appc run --platform android", out.Command)
	assert.False(t, out.Executed)

	_, _, err = s.handleLastCommand(context.Background(), nil, lastInput{Execute: true})
	assert.ErrorIs(t, err, errExecutionDisabled)
	assert.Zero(t, recent.replayed)
}

func TestServerRegistersTools(t *testing.T) {
	assert.NotNil(t, newServer(nil, nil, wizard.Settings{}).server())
}
