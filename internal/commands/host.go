package commands

import (
	"os"

	"github.com/moasq/tibuild/internal/terminal"
	"github.com/moasq/tibuild/internal/wizard"
	"golang.org/x/term"
)

// terminalHost runs wizard prompts on the controlling terminal.
type terminalHost struct{}

func (terminalHost) Choose(_ wizard.Step, title string, options []wizard.Option) (int, bool) {
	opts := make([]terminal.PickerOption, len(options))
	for i, o := range options {
		opts[i] = terminal.PickerOption{Label: o.Label, Desc: o.Detail}
	}
	idx := terminal.Pick(title, opts, 0)
	return idx, idx >= 0
}

func (terminalHost) Input(_ wizard.Step, caption, initial string, secret bool) (string, bool) {
	if secret {
		return terminal.ReadSecret(caption)
	}
	return terminal.ReadLine(caption, initial)
}

// Status shows a spinner while stderr is a terminal.
func (terminalHost) Status(msg string) func() {
	if !term.IsTerminal(int(os.Stderr.Fd())) {
		return func() {}
	}
	sp := terminal.NewSpinner(msg)
	sp.Start()
	return sp.Stop
}
