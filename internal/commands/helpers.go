package commands

import (
	"context"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/log"
	"github.com/moasq/tibuild/internal/config"
	"github.com/moasq/tibuild/internal/runner"
	"github.com/moasq/tibuild/internal/secrets"
	"github.com/moasq/tibuild/internal/storage"
	"github.com/moasq/tibuild/internal/terminal"
	"github.com/moasq/tibuild/internal/toolchain"
	"github.com/moasq/tibuild/internal/wizard"
)

// appEnv is everything a command needs, built from the loaded config.
type appEnv struct {
	cfg     *config.Config
	cfgPath string
	logger  *log.Logger
	client  *toolchain.Client
	store   storage.LastCommandStore
	// secrets is nil unless credential_storage is keychain.
	secrets secrets.Store
}

func loadEnv() (*appEnv, error) {
	cfg, path, err := config.Load(cfgFile)
	if err != nil {
		return nil, err
	}
	logger := newLogger(os.Stderr)

	dir, err := config.Dir()
	if err != nil {
		return nil, err
	}

	var store storage.LastCommandStore = storage.NewMemoryLastStore()
	if cfg.RememberLast {
		store = storage.NewFileLastStore(dir)
	}
	if dryRun {
		store = readOnlyStore{store}
	}

	keychain := cfg.IOSKeychain
	if keychain == "" {
		keychain = toolchain.DefaultKeychain()
	}

	env := &appEnv{
		cfg:     cfg,
		cfgPath: path,
		logger:  logger,
		client:  toolchain.NewClient(cfg.AppcPath, toolchain.WithKeychain(keychain)),
		store:   store,
	}
	if cfg.CredentialStorage == config.CredentialsKeychain {
		env.secrets = secrets.New(dir)
	}
	logger.Debug("config loaded", "path", path, "appc", cfg.AppcPath, "credentials", cfg.CredentialStorage)
	return env, nil
}

func newLogger(w io.Writer) *log.Logger {
	level := log.WarnLevel
	if verbose {
		level = log.DebugLevel
	}
	return log.NewWithOptions(w, log.Options{
		Prefix:          "tibuild",
		Level:           level,
		ReportTimestamp: verbose,
	})
}

// newRunner builds a Runner over the env's store. With --dry-run commands are
// printed to stdout instead of started.
func (e *appEnv) newRunner(opts ...runner.Option) *runner.Runner {
	opts = append([]runner.Option{runner.WithLogger(e.logger), runner.WithSecrets(e.replaySecret)}, opts...)
	if dryRun {
		opts = append(opts, runner.WithStart(printCommand))
	}
	return runner.New(e.store, opts...)
}

// replaySecret asks again for the secrets a replayed command needs. The
// account password goes through the usual credential lookup.
func (e *appEnv) replaySecret(_ context.Context, flag string) (string, error) {
	if dryRun {
		// Display masks it anyway.
		return "********", nil
	}
	if flag == "--password" {
		creds, err := e.promptedCredentials(terminalHost{})
		return creds.Password, err
	}
	v, ok := terminal.ReadSecret("Keystore password")
	if !ok {
		return "", wizard.ErrAborted
	}
	return v, nil
}

func printCommand(_ context.Context, c runner.Command, _ io.Reader, stdout, _ io.Writer) error {
	if c.Dir != "" {
		fmt.Fprintf(stdout, "(cd %s) ", c.Dir)
	}
	fmt.Fprintln(stdout, c.Display())
	return nil
}

func (e *appEnv) settings() wizard.Settings {
	return wizard.Settings{
		AppcPath:        e.cfg.AppcPath,
		LogLevel:        e.cfg.LogLevel,
		AndroidKeystore: e.cfg.AndroidKeystore,
		UseProjectNames: e.cfg.UseProjectNames,
		IOSBuildFamily:  e.cfg.IOSBuildFamily,
	}
}

// credentials returns the configured account, filling gaps from the
// keychain when credential_storage is keychain.
func (e *appEnv) credentials() toolchain.Credentials {
	creds := toolchain.Credentials{Username: e.cfg.Username, Password: e.cfg.Password}
	if creds.Complete() || e.secrets == nil {
		return creds
	}
	stored, err := e.secrets.Load()
	if err != nil {
		e.logger.Warn("could not read stored credentials", "err", err)
		return creds
	}
	if creds.Username == "" {
		creds.Username = stored.Username
	}
	// A stored password only belongs to the stored account.
	if creds.Password == "" && creds.Username == stored.Username {
		creds.Password = stored.Password
	}
	return creds
}

// rememberCredentials stores prompted credentials. Session storage keeps
// nothing.
func (e *appEnv) rememberCredentials(creds toolchain.Credentials) {
	if e.secrets == nil {
		return
	}
	if err := e.secrets.Save(secrets.Account{Username: creds.Username, Password: creds.Password}); err != nil {
		e.logger.Warn("could not store credentials", "err", err)
		return
	}
	e.logger.Debug("credentials stored")
}

// promptedCredentials resolves the account, asking for whatever is missing.
func (e *appEnv) promptedCredentials(p wizard.Prompter) (toolchain.Credentials, error) {
	creds := e.credentials()
	if creds.Complete() {
		return creds, nil
	}
	creds, err := wizard.PromptCredentials(p, creds)
	if err != nil {
		return creds, err
	}
	e.rememberCredentials(creds)
	return creds, nil
}

// readOnlyStore drops writes so a dry run leaves the most recent command
// untouched.
type readOnlyStore struct {
	storage.LastCommandStore
}

func (readOnlyStore) Save(*storage.LastCommand) error { return nil }
func (readOnlyStore) Clear() error                    { return nil }
