// Package runner dispatches toolchain commands and remembers the most
// recent one for replay.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"slices"
	"strings"
	"time"

	"github.com/charmbracelet/log"
	"github.com/moasq/tibuild/internal/storage"
	"mvdan.cc/sh/v3/syntax"
)

// ErrNoRecent is returned by Replay when nothing was recorded yet.
var ErrNoRecent = errors.New("no recent build configuration")

// ErrSecretUnavailable is returned by Replay when a redacted value cannot be
// supplied again.
var ErrSecretUnavailable = errors.New("secret not available for replay")

// secretFlags take a value that must not be echoed.
var secretFlags = []string{"--password", "--store-password"}

// Command is a fully assembled toolchain invocation.
type Command struct {
	Path string
	Args []string
	Dir  string
}

// Display renders the command as a shell line with secret values masked.
func (c Command) Display() string {
	parts := make([]string, 0, len(c.Args)+1)
	parts = append(parts, quote(c.Path))
	for i, a := range c.Args {
		if i > 0 && slices.Contains(secretFlags, c.Args[i-1]) {
			parts = append(parts, quote("********"))
			continue
		}
		parts = append(parts, quote(a))
	}
	return strings.Join(parts, " ")
}

func quote(s string) string {
	q, err := syntax.Quote(s, syntax.LangBash)
	if err != nil {
		return s
	}
	return q
}

func fromRecord(r *storage.LastCommand) *Command {
	return &Command{Path: r.Path, Args: slices.Clone(r.Args), Dir: r.Dir}
}

// redact blanks the value after every secret flag. Builders never emit empty
// values, so a blank there always means "ask again".
func redact(args []string) []string {
	out := slices.Clone(args)
	for i := 1; i < len(out); i++ {
		if slices.Contains(secretFlags, out[i-1]) {
			out[i] = ""
		}
	}
	return out
}

// SecretFunc supplies the value for a redacted secret flag on replay.
type SecretFunc func(ctx context.Context, flag string) (string, error)

// StartFunc executes a command attached to the given streams.
type StartFunc func(ctx context.Context, c Command, stdin io.Reader, stdout, stderr io.Writer) error

func execStart(ctx context.Context, c Command, stdin io.Reader, stdout, stderr io.Writer) error {
	cmd := exec.CommandContext(ctx, c.Path, c.Args...)
	cmd.Dir = c.Dir
	cmd.Stdin = stdin
	cmd.Stdout = stdout
	cmd.Stderr = stderr
	return cmd.Run()
}

// Runner executes commands and owns the most-recent slot.
type Runner struct {
	store  storage.LastCommandStore
	start  StartFunc
	stdin  io.Reader
	stdout io.Writer
	stderr io.Writer
	logger *log.Logger
	secret SecretFunc
	now    func() time.Time
}

// Option configures a Runner.
type Option func(*Runner)

// WithStart replaces process execution.
func WithStart(fn StartFunc) Option {
	return func(r *Runner) { r.start = fn }
}

// WithOutput redirects the child's stdout and stderr.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(r *Runner) {
		r.stdout = stdout
		r.stderr = stderr
	}
}

// WithInput sets the child's stdin. nil means no input.
func WithInput(stdin io.Reader) Option {
	return func(r *Runner) { r.stdin = stdin }
}

// WithSecrets sets how redacted values are filled in on replay. Without it a
// replay that needs a secret fails with ErrSecretUnavailable.
func WithSecrets(fn SecretFunc) Option {
	return func(r *Runner) { r.secret = fn }
}

// WithLogger sets the logger.
func WithLogger(l *log.Logger) Option {
	return func(r *Runner) { r.logger = l }
}

// New creates a Runner recording into store.
func New(store storage.LastCommandStore, opts ...Option) *Runner {
	r := &Runner{
		store:  store,
		start:  execStart,
		stdin:  os.Stdin,
		stdout: os.Stdout,
		stderr: os.Stderr,
		logger: log.Default(),
		now:    time.Now,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Last returns the most recent command, or nil if none was recorded. Secret
// values come back blank.
func (r *Runner) Last() (*Command, error) {
	rec, err := r.store.Load()
	if err != nil {
		return nil, err
	}
	if rec == nil {
		return nil, nil
	}
	return fromRecord(rec), nil
}

// Run records c as the most recent command and then executes it. The
// child's output goes straight to the terminal. Secret values are not
// recorded.
func (r *Runner) Run(ctx context.Context, c Command) error {
	rec := &storage.LastCommand{
		Path:       c.Path,
		Args:       redact(c.Args),
		Dir:        c.Dir,
		RecordedAt: r.now(),
	}
	if err := r.store.Save(rec); err != nil {
		// Losing the replay slot must not block the build.
		r.logger.Warn("could not record command", "err", err)
	}
	return r.dispatch(ctx, c)
}

// Exec executes c without touching the most recent command.
func (r *Runner) Exec(ctx context.Context, c Command) error {
	return r.dispatch(ctx, c)
}

// Replay re-executes the most recent command, asking for its secret values
// again.
func (r *Runner) Replay(ctx context.Context) error {
	c, err := r.Last()
	if err != nil {
		return err
	}
	if c == nil {
		return ErrNoRecent
	}
	for i := 1; i < len(c.Args); i++ {
		flag := c.Args[i-1]
		if c.Args[i] != "" || !slices.Contains(secretFlags, flag) {
			continue
		}
		if r.secret == nil {
			return fmt.Errorf("%s: %w", flag, ErrSecretUnavailable)
		}
		v, err := r.secret(ctx, flag)
		if err != nil {
			return fmt.Errorf("%s: %w", flag, err)
		}
		if v == "" {
			return fmt.Errorf("%s: %w", flag, ErrSecretUnavailable)
		}
		c.Args[i] = v
	}
	return r.dispatch(ctx, *c)
}

func (r *Runner) dispatch(ctx context.Context, c Command) error {
	r.logger.Debug("dispatching", "cmd", c.Display(), "dir", c.Dir)
	if err := r.start(ctx, c, r.stdin, r.stdout, r.stderr); err != nil {
		return fmt.Errorf("%s: %w", c.Path, err)
	}
	return nil
}
