package commands

import (
	"context"
	"errors"
	"os"

	"github.com/moasq/tibuild/internal/mcpserver"
	"github.com/moasq/tibuild/internal/runner"
	"github.com/moasq/tibuild/internal/toolchain"
	"github.com/spf13/cobra"
)

var mcpAllowExecute bool

var errNoCredentials = errors.New("appc credentials are not configured: set username and password in the config file, or use credential_storage: keychain and run tibuild once interactively")

var mcpCmd = &cobra.Command{
	Use:   "mcp",
	Short: "Run the MCP server",
	Long: `Serves the environment probe and the build command builder as MCP tools
over stdio. Commands are only executed with --allow-execute; their output
goes to stderr.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := loadEnv()
		if err != nil {
			return err
		}

		credentials := func() (toolchain.Credentials, error) {
			creds := env.credentials()
			if !creds.Complete() {
				return creds, errNoCredentials
			}
			return creds, nil
		}
		cfg := mcpserver.Config{
			Toolchain:   env.client,
			Recent:      env.newRunner(),
			Credentials: credentials,
			Settings:    env.settings(),
			Logger:      env.logger,
			Version:     Version,
		}
		if mcpAllowExecute {
			// stdin and stdout carry the protocol, so nothing can be asked for.
			cfg.Dispatcher = env.newRunner(
				runner.WithInput(nil),
				runner.WithOutput(os.Stderr, os.Stderr),
				runner.WithSecrets(func(_ context.Context, flag string) (string, error) {
					if flag != "--password" {
						return "", runner.ErrSecretUnavailable
					}
					creds, err := credentials()
					return creds.Password, err
				}),
			)
		}
		return mcpserver.New(cfg).Run(cmd.Context())
	},
}

func init() {
	mcpCmd.Flags().BoolVar(&mcpAllowExecute, "allow-execute", false, "allow tools to run the commands they build")
}
