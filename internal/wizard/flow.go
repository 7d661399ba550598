// Package wizard drives the build configuration flow: project, platform,
// target, device and signing identity, ending in a toolchain command.
//
// The flow is a chain of state functions. Each state asks at most one
// question through the Host and returns the state that follows from the
// answer. A dismissed prompt, or a step with no candidates, ends the session
// with ErrAborted and nothing is executed.
package wizard

import (
	"context"
	"path/filepath"
	"slices"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"
	"github.com/moasq/tibuild/internal/project"
	"github.com/moasq/tibuild/internal/runner"
	"github.com/moasq/tibuild/internal/toolchain"
)

const (
	choiceMostRecent = "most recent configuration"
	choiceClean      = "clean"
)

var (
	androidTargets = []string{TargetEmulator, TargetDevice, TargetDistribution}
	webTargets     = []string{"development", "production"}
)

// Settings are the configuration values a session reads once.
type Settings struct {
	AppcPath        string
	LogLevel        string
	AndroidKeystore string
	UseProjectNames bool
	IOSBuildFamily  string
}

// Result is the command a finished session wants dispatched.
type Result struct {
	Command runner.Command
	// Replay is set when Command is the stored most recent command.
	Replay bool
	// Record is set for run builds, which replace the most recent command.
	// Clean and replay leave the slot alone.
	Record bool
	// Build is the final context for run builds; nil for clean and replay.
	Build *BuildContext
}

// SessionConfig wires a Session.
type SessionConfig struct {
	Settings    Settings
	Host        Host
	Toolchain   Toolchain
	Folders     []project.Folder
	Credentials toolchain.Credentials
	// Last is the most recent command, if any.
	Last   *runner.Command
	Logger *log.Logger
	// OnCredentials is called after credentials were prompted for.
	OnCredentials func(toolchain.Credentials)
}

// Session is one run of the wizard. It is not reusable.
type Session struct {
	ID string

	settings      Settings
	host          Host
	tools         Toolchain
	folders       []project.Folder
	last          *runner.Command
	logger        *log.Logger
	onCredentials func(toolchain.Credentials)

	creds           toolchain.Credentials
	build           BuildContext
	env             *toolchain.EnvironmentInfo
	multipleFolders bool
	result          *Result
}

// NewSession creates a session.
func NewSession(cfg SessionConfig) *Session {
	id := uuid.NewString()
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Settings.LogLevel == "" {
		cfg.Settings.LogLevel = "info"
	}
	if cfg.Settings.AppcPath == "" {
		cfg.Settings.AppcPath = toolchain.DefaultPath
	}
	return &Session{
		ID:            id,
		settings:      cfg.Settings,
		host:          cfg.Host,
		tools:         cfg.Toolchain,
		folders:       cfg.Folders,
		last:          cfg.Last,
		logger:        logger.With("session", id[:8]),
		onCredentials: cfg.OnCredentials,
		creds:         cfg.Credentials,
		env:           &toolchain.EnvironmentInfo{},
	}
}

type stateFn func(ctx context.Context, s *Session) (stateFn, error)

// Run walks the flow to completion. It returns ErrAborted when the user
// backed out or a step had nothing to offer, and ErrNoProject when no
// folder was open.
func (s *Session) Run(ctx context.Context) (*Result, error) {
	state := stateFn(credentialsStep)
	for state != nil {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		next, err := state(ctx, s)
		if err != nil {
			s.logger.Debug("session ended", "err", err)
			return nil, err
		}
		state = next
	}
	if s.result == nil {
		return nil, ErrAborted
	}
	return s.result, nil
}

// choose always shows the prompt.
func (s *Session) choose(step Step, title string, opts []Option) (int, error) {
	idx, ok := s.host.Choose(step, title, opts)
	if !ok || idx < 0 || idx >= len(opts) {
		return -1, ErrAborted
	}
	return idx, nil
}

// pick skips the prompt when there is exactly one candidate and aborts when
// there are none.
func (s *Session) pick(step Step, title string, opts []Option) (int, error) {
	switch len(opts) {
	case 0:
		s.logger.Debug("no candidates", "step", step)
		return -1, ErrAborted
	case 1:
		s.logger.Debug("auto-selected", "step", step, "choice", opts[0].Label)
		return 0, nil
	}
	return s.choose(step, title, opts)
}

func (s *Session) input(step Step, caption, initial string, secret bool) (string, error) {
	v, ok := s.host.Input(step, caption, initial, secret)
	if !ok || v == "" {
		return "", ErrAborted
	}
	return v, nil
}

func credentialsStep(_ context.Context, s *Session) (stateFn, error) {
	prompted := !s.creds.Complete()
	creds, err := PromptCredentials(s.host, s.creds)
	if err != nil {
		return nil, err
	}
	s.creds = creds
	if prompted && s.onCredentials != nil {
		s.onCredentials(creds)
	}
	return locateProjectStep, nil
}

func locateProjectStep(_ context.Context, s *Session) (stateFn, error) {
	switch len(s.folders) {
	case 0:
		s.host.Choose(StepNotice, "Configuration error", []Option{{Label: "ERROR: Must have a project open"}})
		return nil, ErrNoProject
	case 1:
		s.build.ProjectDir = s.folders[0].Path
		return loadProjectStep, nil
	}

	s.multipleFolders = true
	var opts []Option
	if s.last != nil {
		opts = append(opts, Option{Label: choiceMostRecent, Detail: s.last.Display()})
	}
	for _, f := range s.folders {
		opts = append(opts, Option{Label: f.Label(s.settings.UseProjectNames), Detail: f.Path})
	}

	idx, err := s.choose(StepProject, "Select project", opts)
	if err != nil {
		return nil, err
	}
	if s.last != nil {
		if idx == 0 {
			return replayStep, nil
		}
		idx--
	}
	s.build.ProjectDir = s.folders[idx].Path
	return loadProjectStep, nil
}

func loadProjectStep(ctx context.Context, s *Session) (stateFn, error) {
	done := s.host.Status("Getting SDK version...")
	sdk, err := s.tools.SDKVersion(ctx, s.creds, s.build.ProjectDir)
	done()
	if err != nil {
		s.logger.Warn("could not determine project SDK", "err", err)
	}
	s.build.SDKVersion = sdk
	s.build.LogLevel = s.settings.LogLevel

	done = s.host.Status("Loading Build Environment Information...")
	env, err := s.tools.Info(ctx, s.creds)
	done()
	if err != nil {
		s.logger.Warn("environment probe failed", "err", err)
	}
	if env != nil {
		s.env = env
	}
	return platformStep, nil
}

func platformStep(_ context.Context, s *Session) (stateFn, error) {
	choices := []string{PlatformAndroid, PlatformIOS, PlatformMobileWeb, choiceClean}
	if !s.multipleFolders && s.last != nil {
		choices = append([]string{choiceMostRecent}, choices...)
	}

	idx, err := s.choose(StepPlatform, "Select platform", plainOptions(choices))
	if err != nil {
		return nil, err
	}

	switch choice := choices[idx]; choice {
	case choiceMostRecent:
		return replayStep, nil
	case choiceClean:
		return cleanStep, nil
	default:
		s.build.Platform = choice
	}

	switch s.build.Platform {
	case PlatformAndroid:
		return androidTargetStep, nil
	case PlatformIOS:
		return iosTargetStep, nil
	default:
		return webTargetStep, nil
	}
}

func replayStep(_ context.Context, s *Session) (stateFn, error) {
	s.result = &Result{Command: *s.last, Replay: true}
	return nil, nil
}

func cleanStep(_ context.Context, s *Session) (stateFn, error) {
	s.result = &Result{Command: runner.Command{
		Path: s.settings.AppcPath,
		Args: CleanArgs(s.creds, s.build.ProjectDir),
		Dir:  s.build.ProjectDir,
	}}
	return nil, nil
}

func finishStep(ctx context.Context, s *Session) (stateFn, error) {
	if s.build.IsDistribution() {
		done := s.host.Status("Getting project version...")
		version, err := s.tools.ProjectVersion(ctx, s.creds, s.build.ProjectDir)
		done()
		if err != nil {
			s.logger.Warn("could not determine project version", "err", err)
		}
		s.build.OutputDir = filepath.Join(s.build.ProjectDir, "dist", version)
	}

	args, err := BuildRunArgs(s.creds, s.build)
	if err != nil {
		return nil, err
	}
	final := s.build
	s.result = &Result{
		Command: runner.Command{Path: s.settings.AppcPath, Args: args, Dir: s.build.ProjectDir},
		Record:  true,
		Build:   &final,
	}
	return nil, nil
}

// Android

func androidTargetStep(_ context.Context, s *Session) (stateFn, error) {
	idx, err := s.choose(StepTarget, "Select android target", plainOptions(androidTargets))
	if err != nil {
		return nil, err
	}
	s.build.Target = androidTargets[idx]
	s.build.DeviceID = ""

	switch s.build.Target {
	case TargetEmulator:
		return androidEmulatorStep, nil
	case TargetDistribution:
		s.build.Target = TargetPlayStore
		return keystoreStep, nil
	default:
		return androidDeviceStep, nil
	}
}

func androidEmulatorStep(_ context.Context, s *Session) (stateFn, error) {
	emulators := s.env.AndroidEmulators
	idx, err := s.pick(StepEmulator, "Select emulator", optionsOf(emulators, emulatorOption))
	if err != nil {
		return nil, err
	}
	s.build.DeviceID = emulators[idx].Name
	return finishStep, nil
}

func androidDeviceStep(_ context.Context, s *Session) (stateFn, error) {
	devices := s.env.AndroidDevices
	idx, err := s.pick(StepAndroidDevice, "Select device", optionsOf(devices, androidDeviceOption))
	if err != nil {
		return nil, err
	}
	s.build.DeviceID = devices[idx].ID
	return finishStep, nil
}

func keystoreStep(_ context.Context, s *Session) (stateFn, error) {
	keystore := s.settings.AndroidKeystore
	if keystore == "" {
		v, err := s.input(StepKeystore, "Path to your keystore", "", false)
		if err != nil {
			return nil, err
		}
		keystore = v
	}
	s.build.Keystore = keystore
	return keystorePasswordStep, nil
}

func keystorePasswordStep(_ context.Context, s *Session) (stateFn, error) {
	v, err := s.input(StepKeystorePassword, "Keystore password", "", true)
	if err != nil {
		return nil, err
	}
	s.build.KeystorePassword = v
	return keyAliasStep, nil
}

func keyAliasStep(_ context.Context, s *Session) (stateFn, error) {
	v, err := s.input(StepKeyAlias, "Key Alias", "", false)
	if err != nil {
		return nil, err
	}
	s.build.KeyAlias = v
	return finishStep, nil
}

// iOS

// iosTargets hides store and adhoc builds when no matching provisioning
// profile is installed.
func (s *Session) iosTargets() []string {
	targets := []string{TargetSimulator, TargetDevice}
	if len(s.env.DistributionProfiles) > 0 {
		targets = append(targets, TargetAppStore)
	}
	if len(s.env.AdhocProfiles) > 0 {
		targets = append(targets, TargetAdhoc)
	}
	return targets
}

func iosTargetStep(_ context.Context, s *Session) (stateFn, error) {
	targets := s.iosTargets()
	idx, err := s.choose(StepTarget, "Select ios target", plainOptions(targets))
	if err != nil {
		return nil, err
	}
	s.build.Target = targets[idx]
	if s.build.Target == TargetSimulator {
		return iosSimulatorStep, nil
	}
	return familyStep, nil
}

func iosSimulatorStep(_ context.Context, s *Session) (stateFn, error) {
	sims := s.env.IOSSimulators
	idx, err := s.pick(StepSimulator, "Select simulator", optionsOf(sims, simulatorOption))
	if err != nil {
		return nil, err
	}
	s.build.DeviceID = sims[idx].UDID
	return finishStep, nil
}

func familyStep(_ context.Context, s *Session) (stateFn, error) {
	if slices.Contains(Families, s.settings.IOSBuildFamily) {
		s.build.DeviceFamily = s.settings.IOSBuildFamily
	} else {
		idx, err := s.choose(StepFamily, "Select device family", plainOptions(Families))
		if err != nil {
			return nil, err
		}
		s.build.DeviceFamily = Families[idx]
	}

	if s.build.Target == TargetDevice {
		return iosDeviceStep, nil
	}
	return certificateStep, nil
}

func iosDeviceStep(_ context.Context, s *Session) (stateFn, error) {
	devices := filterIOSDevices(s.env.IOSDevices, s.build.DeviceFamily)
	idx, err := s.pick(StepIOSDevice, "Select device", optionsOf(devices, iosDeviceOption))
	if err != nil {
		return nil, err
	}
	s.build.DeviceID = devices[idx].UDID
	return certificateStep, nil
}

func certificateStep(_ context.Context, s *Session) (stateFn, error) {
	certs := s.env.DistributionCertificates
	if s.build.Target == TargetDevice {
		certs = s.env.DeveloperCertificates
	}
	idx, err := s.pick(StepCertificate, "Select certificate", optionsOf(certs, certificateOption))
	if err != nil {
		return nil, err
	}
	s.build.CertificateName = certs[idx].Name
	return profileStep, nil
}

func profileStep(_ context.Context, s *Session) (stateFn, error) {
	var profiles []toolchain.ProvisioningProfile
	switch s.build.Target {
	case TargetDevice:
		profiles = s.env.DevelopmentProfiles
	case TargetAppStore:
		profiles = s.env.DistributionProfiles
	default:
		profiles = s.env.AdhocProfiles
	}
	idx, err := s.pick(StepProfile, "Select provisioning profile", optionsOf(profiles, profileOption))
	if err != nil {
		return nil, err
	}
	s.build.ProfileUUID = profiles[idx].UUID
	return finishStep, nil
}

// Mobile web

func webTargetStep(_ context.Context, s *Session) (stateFn, error) {
	idx, err := s.choose(StepTarget, "Select deploy type", plainOptions(webTargets))
	if err != nil {
		return nil, err
	}
	s.build.Target = TargetWeb
	s.build.DeployType = webTargets[idx]
	return finishStep, nil
}
