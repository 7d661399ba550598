package commands

import (
	"fmt"
	"os"

	"github.com/moasq/tibuild/internal/config"
	"github.com/moasq/tibuild/internal/terminal"
	"github.com/spf13/cobra"
)

var configFormat string

var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Manage configuration",
}

var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long:  "Prints the configuration after defaults, the config file and TIBUILD_* environment overrides are applied. The password is masked.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, path, err := config.Load(cfgFile)
		if err != nil {
			return err
		}
		var out []byte
		switch configFormat {
		case "yaml":
			out, err = cfg.YAML()
		case "toml":
			out, err = cfg.TOML()
		default:
			return fmt.Errorf("unknown format %q (want yaml or toml)", configFormat)
		}
		if err != nil {
			return err
		}
		if path != "" {
			fmt.Fprintf(os.Stdout, "# %s\n", path)
		}
		_, err = os.Stdout.Write(out)
		return err
	},
}

var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write a default config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path := cfgFile
		if path == "" {
			p, err := config.DefaultPath()
			if err != nil {
				return err
			}
			path = p
		}
		if err := config.DefaultConfig().WriteFile(path); err != nil {
			return err
		}
		terminal.Success("Wrote " + path)
		return nil
	},
}

func init() {
	configShowCmd.Flags().StringVar(&configFormat, "format", "yaml", "output format: yaml or toml")

	configCmd.AddCommand(configShowCmd)
	configCmd.AddCommand(configInitCmd)
}
