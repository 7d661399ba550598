package wizard

import (
	"errors"
	"fmt"
	"slices"

	"github.com/moasq/tibuild/internal/toolchain"
)

// Platforms.
const (
	PlatformAndroid   = "android"
	PlatformIOS       = "ios"
	PlatformMobileWeb = "mobileweb"
)

// Targets. TargetDistribution is what the user picks for android; the build
// itself runs with TargetPlayStore.
const (
	TargetEmulator     = "emulator"
	TargetDevice       = "device"
	TargetDistribution = "distribution"
	TargetPlayStore    = "dist-playstore"
	TargetSimulator    = "simulator"
	TargetAppStore     = "dist-appstore"
	TargetAdhoc        = "dist-adhoc"
	TargetWeb          = "web"
)

// iOS device families.
const (
	FamilyUniversal = "universal"
	FamilyIPhone    = "iphone"
	FamilyIPad      = "ipad"
)

// Families lists the iOS device families in picker order.
var Families = []string{FamilyUniversal, FamilyIPhone, FamilyIPad}

// BuildContext accumulates the answers of one wizard session.
type BuildContext struct {
	ProjectDir string
	SDKVersion string
	Platform   string
	Target     string
	LogLevel   string

	DeviceID     string
	DeviceFamily string
	// CertificateName is the developer certificate for device builds and the
	// distribution certificate for store and adhoc builds.
	CertificateName string
	ProfileUUID     string

	Keystore         string
	KeystorePassword string
	KeyAlias         string

	OutputDir  string
	DeployType string
}

// IsDistribution reports whether the target produces a signed package.
func (b BuildContext) IsDistribution() bool {
	switch b.Target {
	case TargetPlayStore, TargetAppStore, TargetAdhoc:
		return true
	}
	return false
}

// Validate checks that every field the platform/target combination needs
// is set.
func (b BuildContext) Validate() error {
	var missing []string
	need := func(name, v string) {
		if v == "" {
			missing = append(missing, name)
		}
	}

	need("project dir", b.ProjectDir)
	need("platform", b.Platform)
	need("target", b.Target)

	switch b.Platform {
	case PlatformAndroid:
		switch b.Target {
		case TargetEmulator, TargetDevice:
			need("device id", b.DeviceID)
		case TargetPlayStore:
			need("keystore", b.Keystore)
			need("keystore password", b.KeystorePassword)
			need("key alias", b.KeyAlias)
			need("output dir", b.OutputDir)
		default:
			return fmt.Errorf("unknown android target %q", b.Target)
		}
	case PlatformIOS:
		switch b.Target {
		case TargetSimulator:
			need("device id", b.DeviceID)
		case TargetDevice:
			need("device id", b.DeviceID)
			need("device family", b.DeviceFamily)
			need("certificate", b.CertificateName)
			need("provisioning profile", b.ProfileUUID)
		case TargetAppStore, TargetAdhoc:
			need("device family", b.DeviceFamily)
			need("certificate", b.CertificateName)
			need("provisioning profile", b.ProfileUUID)
			need("output dir", b.OutputDir)
		default:
			return fmt.Errorf("unknown ios target %q", b.Target)
		}
	case PlatformMobileWeb:
		need("deploy type", b.DeployType)
	case "":
	default:
		return fmt.Errorf("unknown platform %q", b.Platform)
	}

	if b.DeviceFamily != "" && !slices.Contains(Families, b.DeviceFamily) {
		return fmt.Errorf("unknown device family %q", b.DeviceFamily)
	}
	if len(missing) > 0 {
		return fmt.Errorf("incomplete build configuration: missing %v", missing)
	}
	return nil
}

// ErrIncomplete wraps Validate failures returned by BuildRunArgs.
var ErrIncomplete = errors.New("build configuration incomplete")

// BuildRunArgs assembles the `appc run` arguments. Flags with an empty
// value are omitted.
func BuildRunArgs(creds toolchain.Credentials, b BuildContext) ([]string, error) {
	if err := b.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrIncomplete, err)
	}

	var args []string
	flag := func(name, value string) {
		if value == "" {
			return
		}
		args = append(args, name, value)
	}

	args = append(args, "run")
	flag("--username", creds.Username)
	flag("--password", creds.Password)
	flag("--sdk", b.SDKVersion)
	flag("--project-dir", b.ProjectDir)
	args = append(args, "--no-colors", "--no-banner")
	flag("--platform", b.Platform)
	flag("--log-level", b.LogLevel)
	flag("--target", b.Target)

	flag("--device-id", b.DeviceID)
	flag("--device-family", b.DeviceFamily)
	if b.Target == TargetDevice {
		flag("--developer-name", b.CertificateName)
	} else {
		flag("--distribution-name", b.CertificateName)
	}
	flag("--pp-uuid", b.ProfileUUID)
	flag("--keystore", b.Keystore)
	flag("--store-password", b.KeystorePassword)
	flag("--alias", b.KeyAlias)
	flag("--output-dir", b.OutputDir)
	flag("--deploy-type", b.DeployType)
	return args, nil
}

// CleanArgs assembles the `appc ti clean` arguments.
func CleanArgs(creds toolchain.Credentials, projectDir string) []string {
	var args []string
	flag := func(name, value string) {
		if value != "" {
			args = append(args, name, value)
		}
	}
	args = append(args, "ti", "clean")
	flag("--username", creds.Username)
	flag("--password", creds.Password)
	args = append(args, "--no-banner", "--no-colors")
	flag("--project-dir", projectDir)
	return args
}
