// Package toolchain talks to the appc command-line tool: it probes the build
// environment and queries project metadata. Build dispatch itself lives in
// the runner package.
package toolchain

import (
	"bytes"
	"context"
	"fmt"
	"os/exec"
	"strings"
)

// DefaultPath is the conventional appc install location.
const DefaultPath = "/usr/local/bin/appc"

// Credentials are the platform account used for every appc call.
type Credentials struct {
	Username string
	Password string
}

// Complete reports whether both fields are set.
func (c Credentials) Complete() bool {
	return c.Username != "" && c.Password != ""
}

// Executor runs a command to completion and returns its stdout.
type Executor interface {
	Output(ctx context.Context, name string, args ...string) ([]byte, error)
}

type execExecutor struct{}

func (execExecutor) Output(ctx context.Context, name string, args ...string) ([]byte, error) {
	cmd := exec.CommandContext(ctx, name, args...)
	var stderr bytes.Buffer
	cmd.Stderr = &stderr
	out, err := cmd.Output()
	if err != nil {
		if msg := strings.TrimSpace(stderr.String()); msg != "" {
			return out, fmt.Errorf("%s %s: %w: %s", name, args[0], err, msg)
		}
		return out, fmt.Errorf("%s %s: %w", name, args[0], err)
	}
	return out, nil
}

// Client invokes appc.
type Client struct {
	path     string
	keychain string
	exec     Executor
}

// Option configures a Client.
type Option func(*Client)

// WithExecutor replaces the process executor.
func WithExecutor(e Executor) Option {
	return func(c *Client) { c.exec = e }
}

// WithKeychain selects the keychain certificates are read from.
func WithKeychain(path string) Option {
	return func(c *Client) { c.keychain = path }
}

// NewClient returns a client for the appc binary at path.
func NewClient(path string, opts ...Option) *Client {
	if path == "" {
		path = DefaultPath
	}
	c := &Client{path: path, exec: execExecutor{}}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Path returns the appc binary path.
func (c *Client) Path() string {
	return c.path
}

// InfoArgs returns the arguments for the environment probe.
func InfoArgs(creds Credentials) []string {
	return []string{"ti", "info", "--username", creds.Username, "--password", creds.Password, "-o", "json", "--no-banner"}
}

// SDKVersionArgs returns the arguments for the project SDK version query.
func SDKVersionArgs(creds Credentials, projectDir string) []string {
	return projectQueryArgs("sdk-version", creds, projectDir)
}

// ProjectVersionArgs returns the arguments for the project version query.
func ProjectVersionArgs(creds Credentials, projectDir string) []string {
	return projectQueryArgs("version", creds, projectDir)
}

func projectQueryArgs(query string, creds Credentials, projectDir string) []string {
	return []string{"ti", "project", query, "--username", creds.Username, "--password", creds.Password, "--project-dir", projectDir, "--output=text", "--no-banner"}
}

// Info probes the environment. The returned info is never nil: on failure
// it is empty and the error describes why.
func (c *Client) Info(ctx context.Context, creds Credentials) (*EnvironmentInfo, error) {
	out, err := c.exec.Output(ctx, c.path, InfoArgs(creds)...)
	if err != nil {
		return &EnvironmentInfo{}, fmt.Errorf("failed to load environment info: %w", err)
	}
	return ParseInfo(out, c.keychain)
}

// SDKVersion returns the Titanium SDK version the project is configured for.
func (c *Client) SDKVersion(ctx context.Context, creds Credentials, projectDir string) (string, error) {
	out, err := c.exec.Output(ctx, c.path, SDKVersionArgs(creds, projectDir)...)
	if err != nil {
		return "", fmt.Errorf("failed to get SDK version: %w", err)
	}
	return trimOutput(out), nil
}

// ProjectVersion returns the version declared by the project.
func (c *Client) ProjectVersion(ctx context.Context, creds Credentials, projectDir string) (string, error) {
	out, err := c.exec.Output(ctx, c.path, ProjectVersionArgs(creds, projectDir)...)
	if err != nil {
		return "", fmt.Errorf("failed to get project version: %w", err)
	}
	return trimOutput(out), nil
}

func trimOutput(out []byte) string {
	return strings.TrimRight(string(out), "\r\n")
}
