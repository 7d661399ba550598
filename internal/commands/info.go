package commands

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"

	"github.com/moasq/tibuild/internal/terminal"
	"github.com/moasq/tibuild/internal/toolchain"
	"github.com/moasq/tibuild/internal/wizard"
	"github.com/spf13/cobra"
)

var infoJSON bool

var infoCmd = &cobra.Command{
	Use:   "info",
	Short: "Show the build environment",
	Long:  "Lists the emulators, devices, simulators, certificates and provisioning profiles the toolchain reports. Expired certificates and profiles are omitted.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
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

		done := terminalHost{}.Status("Loading Build Environment Information...")
		info, err := env.client.Info(cmd.Context(), creds)
		done()
		if err != nil {
			return err
		}

		if infoJSON {
			enc := json.NewEncoder(os.Stdout)
			enc.SetIndent("", "  ")
			return enc.Encode(info)
		}
		printInfo(info)
		return nil
	},
}

func init() {
	infoCmd.Flags().BoolVar(&infoJSON, "json", false, "print JSON")
}

func printInfo(info *toolchain.EnvironmentInfo) {
	section := func(title string, n int) bool {
		terminal.Header(fmt.Sprintf("%s (%d)", title, n))
		return n > 0
	}

	if section("Android emulators", len(info.AndroidEmulators)) {
		for _, e := range info.AndroidEmulators {
			terminal.Detail(e.Name, fmt.Sprintf("Android %s (%s)", e.SDKVersion, e.Type))
		}
	}
	if section("Android devices", len(info.AndroidDevices)) {
		for _, d := range info.AndroidDevices {
			terminal.Detail(d.ID, fmt.Sprintf("%s %s (%s) Android %s", d.Brand, d.Manufacturer, d.Model, d.Release))
		}
	}
	if section("iOS simulators", len(info.IOSSimulators)) {
		for _, s := range info.IOSSimulators {
			terminal.Detail(s.UDID, s.DeviceType+" - iOS "+s.IOS)
		}
	}
	if section("iOS devices", len(info.IOSDevices)) {
		for _, d := range info.IOSDevices {
			terminal.Detail(d.UDID, d.Name)
		}
	}
	certs := func(title string, list []toolchain.Certificate) {
		if section(title, len(list)) {
			for _, c := range list {
				terminal.Detail(c.Name, c.FullName)
			}
		}
	}
	certs("Developer certificates", info.DeveloperCertificates)
	certs("Distribution certificates", info.DistributionCertificates)

	profiles := func(title string, list []toolchain.ProvisioningProfile) {
		if section(title, len(list)) {
			for _, p := range list {
				terminal.Detail(p.UUID, fmt.Sprintf("%s (%s)", p.Name, p.AppID))
			}
		}
	}
	profiles("Development profiles", info.DevelopmentProfiles)
	profiles("App Store profiles", info.DistributionProfiles)
	profiles("Ad hoc profiles", info.AdhocProfiles)
}
