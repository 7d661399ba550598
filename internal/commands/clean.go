package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"github.com/moasq/tibuild/internal/project"
	"github.com/moasq/tibuild/internal/runner"
	"github.com/moasq/tibuild/internal/wizard"
	"github.com/spf13/cobra"
)

var cleanCmd = &cobra.Command{
	Use:   "clean [project-dir]",
	Short: "Clean a project's build output",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "."
		if len(args) == 1 {
			dir = args[0]
		}
		abs, err := filepath.Abs(dir)
		if err != nil {
			return err
		}
		if _, err := os.Stat(filepath.Join(abs, project.ManifestFile)); err != nil {
			return fmt.Errorf("%s is not a Titanium project (no %s)", abs, project.ManifestFile)
		}

		env, err := loadEnv()
		if err != nil {
			return err
		}
		creds, err := env.promptedCredentials(terminalHost{})
		if errors.Is(err, wizard.ErrAborted) {
			return nil
		}
		if err != nil {
			return err
		}

		c := runner.Command{Path: env.cfg.AppcPath, Args: wizard.CleanArgs(creds, abs), Dir: abs}
		return env.newRunner().Exec(cmd.Context(), c)
	},
}
