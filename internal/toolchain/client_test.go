package toolchain

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeExecutor struct {
	out   []byte
	err   error
	calls [][]string
}

func (f *fakeExecutor) Output(_ context.Context, name string, args ...string) ([]byte, error) {
	f.calls = append(f.calls, append([]string{name}, args...))
	return f.out, f.err
}

var testCreds = Credentials{Username: "dev@acme.com", Password: "s3cret"}

func TestClientSDKVersionTrimsNewline(t *testing.T) {
	fx := &fakeExecutor{out: []byte("5.1.2.GA\n")}
	c := NewClient("/opt/appc", WithExecutor(fx))

	v, err := c.SDKVersion(context.Background(), testCreds, "/src/app")
	require.NoError(t, err)
	assert.Equal(t, "5.1.2.GA", v)

	want := []string{"/opt/appc", "ti", "project", "sdk-version", "--username", "dev@acme.com", "--password", "s3cret", "--project-dir", "/src/app", "--output=text", "--no-banner"}
	require.Len(t, fx.calls, 1)
	assert.Equal(t, want, fx.calls[0])
}

func TestClientProjectVersion(t *testing.T) {
	fx := &fakeExecutor{out: []byte("1.4.0\r\n")}
	c := NewClient("", WithExecutor(fx))

	v, err := c.ProjectVersion(context.Background(), testCreds, "/src/app")
	require.NoError(t, err)
	assert.Equal(t, "1.4.0", v)
	assert.Equal(t, DefaultPath, fx.calls[0][0])
	assert.Equal(t, "version", fx.calls[0][3])
}

func TestClientInfo(t *testing.T) {
	fx := &fakeExecutor{out: []byte(sampleInfo)}
	c := NewClient("/opt/appc", WithExecutor(fx), WithKeychain("/tmp/login.keychain"))

	info, err := c.Info(context.Background(), testCreds)
	require.NoError(t, err)
	assert.Len(t, info.DeveloperCertificates, 1)
	assert.Equal(t, append([]string{"/opt/appc"}, InfoArgs(testCreds)...), fx.calls[0])
}

func TestClientInfoLaunchFailureIsEmpty(t *testing.T) {
	fx := &fakeExecutor{err: errors.New("exec: not found")}
	c := NewClient("/missing/appc", WithExecutor(fx))

	info, err := c.Info(context.Background(), testCreds)
	require.Error(t, err)
	require.NotNil(t, info)
	assert.Empty(t, info.AndroidEmulators)
	assert.Empty(t, info.DeveloperCertificates)
}

func TestCredentialsComplete(t *testing.T) {
	assert.True(t, testCreds.Complete())
	assert.False(t, Credentials{Username: "a"}.Complete())
	assert.False(t, Credentials{}.Complete())
}
