package commands

import (
	"github.com/moasq/tibuild/internal/config"
	"github.com/moasq/tibuild/internal/secrets"
	"github.com/moasq/tibuild/internal/storage"
	"github.com/moasq/tibuild/internal/terminal"
	"github.com/spf13/cobra"
)

var logoutCmd = &cobra.Command{
	Use:   "logout",
	Short: "Forget stored appc credentials and the most recent build",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := config.Dir()
		if err != nil {
			return err
		}
		return logout(secrets.New(dir), storage.NewFileLastStore(dir))
	},
}

// logout drops the account and the most recent build, which names it.
func logout(s secrets.Store, last storage.LastCommandStore) error {
	if err := s.Forget(); err != nil {
		return err
	}
	if err := last.Clear(); err != nil {
		return err
	}
	terminal.Success("Stored credentials and most recent build removed.")
	return nil
}
