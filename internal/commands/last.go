package commands

import (
	"errors"

	"github.com/moasq/tibuild/internal/runner"
	"github.com/moasq/tibuild/internal/terminal"
	"github.com/moasq/tibuild/internal/wizard"
	"github.com/spf13/cobra"
)

var lastShow bool

var lastCmd = &cobra.Command{
	Use:   "last",
	Short: "Run the most recent build again",
	Long:  "Replays the most recent build without going through the wizard. Passwords are never stored with it; they come from the config or keychain, or are asked for again.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}
		r := env.newRunner()

		if lastShow {
			c, err := r.Last()
			if err != nil {
				return err
			}
			if c == nil {
				terminal.Info("No recent build configuration.")
				return nil
			}
			terminal.Detail("dir", c.Dir)
			terminal.Detail("command", c.Display())
			return nil
		}

		err = r.Replay(cmd.Context())
		switch {
		case errors.Is(err, runner.ErrNoRecent):
			terminal.Info("No recent build configuration. Run `tibuild` first.")
			return nil
		case errors.Is(err, wizard.ErrAborted):
			return nil
		}
		return err
	},
}

func init() {
	lastCmd.Flags().BoolVar(&lastShow, "show", false, "print the command instead of running it")
}
