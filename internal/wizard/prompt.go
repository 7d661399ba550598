package wizard

import (
	"context"
	"errors"

	"github.com/moasq/tibuild/internal/toolchain"
)

// Step names a prompt in the flow.
type Step string

const (
	StepNotice           Step = "notice"
	StepUsername         Step = "username"
	StepPassword         Step = "password"
	StepProject          Step = "project"
	StepPlatform         Step = "platform"
	StepTarget           Step = "target"
	StepEmulator         Step = "emulator"
	StepAndroidDevice    Step = "android-device"
	StepKeystore         Step = "keystore"
	StepKeystorePassword Step = "keystore-password"
	StepKeyAlias         Step = "key-alias"
	StepSimulator        Step = "simulator"
	StepFamily           Step = "family"
	StepIOSDevice        Step = "ios-device"
	StepCertificate      Step = "certificate"
	StepProfile          Step = "profile"
)

var (
	// ErrAborted means the user dismissed a prompt or a step had nothing to
	// choose from. Nothing was executed.
	ErrAborted = errors.New("wizard aborted")
	// ErrNoProject means there was no project folder to build.
	ErrNoProject = errors.New("must have a project open")
)

// Option is one row of a choice prompt.
type Option struct {
	Label  string
	Detail string
}

// Prompter asks the user for input. ok is false when the prompt was
// dismissed.
type Prompter interface {
	Choose(step Step, title string, options []Option) (index int, ok bool)
	Input(step Step, caption, initial string, secret bool) (value string, ok bool)
}

// Host is the surface a session runs against.
type Host interface {
	Prompter
	// Status shows a transient message until done is called.
	Status(msg string) (done func())
}

// Toolchain is the subset of the appc client the flow queries.
type Toolchain interface {
	Info(ctx context.Context, creds toolchain.Credentials) (*toolchain.EnvironmentInfo, error)
	SDKVersion(ctx context.Context, creds toolchain.Credentials, projectDir string) (string, error)
	ProjectVersion(ctx context.Context, creds toolchain.Credentials, projectDir string) (string, error)
}

// PromptCredentials fills in whatever part of creds is empty. An empty
// answer aborts.
func PromptCredentials(p Prompter, creds toolchain.Credentials) (toolchain.Credentials, error) {
	if creds.Username == "" {
		v, ok := p.Input(StepUsername, "Appcelerator Username", "", false)
		if !ok || v == "" {
			return creds, ErrAborted
		}
		creds.Username = v
	}
	if creds.Password == "" {
		v, ok := p.Input(StepPassword, "Appcelerator Password", "", true)
		if !ok || v == "" {
			return creds, ErrAborted
		}
		creds.Password = v
	}
	return creds, nil
}
