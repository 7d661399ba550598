package commands

import (
	"errors"
	"fmt"
	"os"

	"github.com/moasq/tibuild/internal/project"
	"github.com/moasq/tibuild/internal/terminal"
	"github.com/moasq/tibuild/internal/wizard"
	"github.com/spf13/cobra"
)

func runWizard(cmd *cobra.Command, args []string) error {
	env, err := loadEnv()
	if err != nil {
		return err
	}
	cwd, err := os.Getwd()
	if err != nil {
		return fmt.Errorf("failed to get working directory: %w", err)
	}
	folders, err := project.Discover(args, env.cfg.Projects, cwd)
	if err != nil {
		return err
	}

	r := env.newRunner()
	last, err := r.Last()
	if err != nil {
		env.logger.Warn("could not load most recent command", "err", err)
		last = nil
	}

	session := wizard.NewSession(wizard.SessionConfig{
		Settings:      env.settings(),
		Host:          terminalHost{},
		Toolchain:     env.client,
		Folders:       folders,
		Credentials:   env.credentials(),
		Last:          last,
		Logger:        env.logger,
		OnCredentials: env.rememberCredentials,
	})
	env.logger.Debug("wizard started", "session", session.ID, "folders", len(folders), "recent", last != nil)

	res, err := session.Run(cmd.Context())
	switch {
	case errors.Is(err, wizard.ErrNoProject):
		terminal.Info("Open a Titanium project folder, pass one as an argument, or list projects in the config file.")
		return nil
	case errors.Is(err, wizard.ErrAborted):
		return nil
	case err != nil:
		return err
	}

	switch {
	case res.Replay:
		err = r.Replay(cmd.Context())
	case res.Record:
		err = r.Run(cmd.Context(), res.Command)
	default:
		err = r.Exec(cmd.Context(), res.Command)
	}
	if errors.Is(err, wizard.ErrAborted) {
		return nil
	}
	return err
}
