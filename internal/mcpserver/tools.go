package mcpserver

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/moasq/tibuild/internal/project"
	"github.com/moasq/tibuild/internal/runner"
	"github.com/moasq/tibuild/internal/toolchain"
	"github.com/moasq/tibuild/internal/wizard"
)

var errExecutionDisabled = errors.New("command execution is disabled for this server")

type emptyInput struct{}

type environmentOutput struct {
	Environment *toolchain.EnvironmentInfo `json:"environment"`
	Warning     string                     `json:"warning,omitempty"`
}

func (s *Server) handleEnvironmentInfo(ctx context.Context, req *mcp.CallToolRequest, _ emptyInput) (*mcp.CallToolResult, environmentOutput, error) {
	creds, err := s.creds()
	if err != nil {
		return nil, environmentOutput{}, err
	}
	info, err := s.tools.Info(ctx, creds)
	out := environmentOutput{Environment: info}
	if err != nil {
		s.logger.Warn("environment probe failed", "err", err)
		out.Warning = err.Error()
	}
	if out.Environment == nil {
		out.Environment = &toolchain.EnvironmentInfo{}
	}
	return nil, out, nil
}

type projectInput struct {
	ProjectDir string `json:"project_dir" jsonschema:"Absolute path of the Titanium project folder holding tiapp.xml"`
}

type projectOutput struct {
	Name       string `json:"name,omitempty"`
	SDKVersion string `json:"sdk_version"`
	Version    string `json:"version"`
}

func (s *Server) handleProjectInfo(ctx context.Context, req *mcp.CallToolRequest, input projectInput) (*mcp.CallToolResult, projectOutput, error) {
	dir, err := projectDir(input.ProjectDir)
	if err != nil {
		return nil, projectOutput{}, err
	}
	creds, err := s.creds()
	if err != nil {
		return nil, projectOutput{}, err
	}

	out := projectOutput{Name: project.ManifestName(dir)}
	if out.SDKVersion, err = s.tools.SDKVersion(ctx, creds, dir); err != nil {
		return nil, projectOutput{}, fmt.Errorf("sdk version: %w", err)
	}
	if out.Version, err = s.tools.ProjectVersion(ctx, creds, dir); err != nil {
		return nil, projectOutput{}, fmt.Errorf("project version: %w", err)
	}
	return nil, out, nil
}

// buildInput mirrors the wizard answers. Fields that do not apply to the
// platform and target are dropped.
type buildInput struct {
	ProjectDir       string `json:"project_dir" jsonschema:"Absolute path of the Titanium project folder holding tiapp.xml"`
	Platform         string `json:"platform" jsonschema:"One of android ios mobileweb"`
	Target           string `json:"target" jsonschema:"android: emulator device distribution. ios: simulator device dist-appstore dist-adhoc. mobileweb: development production"`
	DeviceID         string `json:"device_id,omitempty" jsonschema:"Emulator name or device id for android. Simulator or device UDID for ios"`
	DeviceFamily     string `json:"device_family,omitempty" jsonschema:"ios only: universal iphone or ipad"`
	Certificate      string `json:"certificate,omitempty" jsonschema:"ios only: certificate short name as listed by environment_info"`
	ProfileUUID      string `json:"profile_uuid,omitempty" jsonschema:"ios only: provisioning profile UUID"`
	Keystore         string `json:"keystore,omitempty" jsonschema:"android distribution: keystore path. Defaults to the configured keystore"`
	KeystorePassword string `json:"keystore_password,omitempty" jsonschema:"android distribution: keystore password"`
	KeyAlias         string `json:"key_alias,omitempty" jsonschema:"android distribution: key alias"`
	Execute          bool   `json:"execute,omitempty" jsonschema:"Run the command after building it"`
}

type commandOutput struct {
	Command  string `json:"command"`
	Dir      string `json:"dir"`
	Executed bool   `json:"executed"`
}

func (s *Server) handleBuildCommand(ctx context.Context, req *mcp.CallToolRequest, input buildInput) (*mcp.CallToolResult, commandOutput, error) {
	dir, err := projectDir(input.ProjectDir)
	if err != nil {
		return nil, commandOutput{}, err
	}
	creds, err := s.creds()
	if err != nil {
		return nil, commandOutput{}, err
	}

	b, err := s.buildContext(dir, input)
	if err != nil {
		return nil, commandOutput{}, err
	}

	sdk, err := s.tools.SDKVersion(ctx, creds, dir)
	if err != nil {
		s.logger.Warn("could not determine project SDK", "err", err)
	}
	b.SDKVersion = sdk
	if b.IsDistribution() {
		version, err := s.tools.ProjectVersion(ctx, creds, dir)
		if err != nil {
			s.logger.Warn("could not determine project version", "err", err)
		}
		b.OutputDir = filepath.Join(dir, "dist", version)
	}

	args, err := wizard.BuildRunArgs(creds, b)
	if err != nil {
		return nil, commandOutput{}, err
	}
	return s.finish(ctx, runner.Command{Path: s.settings.AppcPath, Args: args, Dir: dir}, input.Execute, true)
}

// buildContext maps tool input onto a BuildContext, filling configured
// defaults the interactive flow would have used.
func (s *Server) buildContext(dir string, in buildInput) (wizard.BuildContext, error) {
	b := wizard.BuildContext{
		ProjectDir: dir,
		Platform:   in.Platform,
		Target:     in.Target,
		LogLevel:   s.settings.LogLevel,
	}

	switch in.Platform {
	case wizard.PlatformAndroid:
		switch in.Target {
		case wizard.TargetDistribution, wizard.TargetPlayStore:
			b.Target = wizard.TargetPlayStore
			b.Keystore = in.Keystore
			if b.Keystore == "" {
				b.Keystore = s.settings.AndroidKeystore
			}
			b.KeystorePassword = in.KeystorePassword
			b.KeyAlias = in.KeyAlias
		default:
			b.DeviceID = in.DeviceID
		}
	case wizard.PlatformIOS:
		if in.Target == wizard.TargetSimulator {
			b.DeviceID = in.DeviceID
			break
		}
		if in.Target == wizard.TargetDevice {
			b.DeviceID = in.DeviceID
		}
		b.DeviceFamily = in.DeviceFamily
		if b.DeviceFamily == "" && slices.Contains(wizard.Families, s.settings.IOSBuildFamily) {
			b.DeviceFamily = s.settings.IOSBuildFamily
		}
		b.CertificateName = in.Certificate
		b.ProfileUUID = in.ProfileUUID
	case wizard.PlatformMobileWeb:
		if in.Target != "development" && in.Target != "production" {
			return b, fmt.Errorf("mobileweb target must be development or production, got %q", in.Target)
		}
		b.Target = wizard.TargetWeb
		b.DeployType = in.Target
	default:
		return b, fmt.Errorf("unknown platform %q", in.Platform)
	}
	return b, nil
}

type cleanInput struct {
	ProjectDir string `json:"project_dir" jsonschema:"Absolute path of the Titanium project folder holding tiapp.xml"`
	Execute    bool   `json:"execute,omitempty" jsonschema:"Run the command after building it"`
}

func (s *Server) handleCleanCommand(ctx context.Context, req *mcp.CallToolRequest, input cleanInput) (*mcp.CallToolResult, commandOutput, error) {
	dir, err := projectDir(input.ProjectDir)
	if err != nil {
		return nil, commandOutput{}, err
	}
	creds, err := s.creds()
	if err != nil {
		return nil, commandOutput{}, err
	}
	c := runner.Command{Path: s.settings.AppcPath, Args: wizard.CleanArgs(creds, dir), Dir: dir}
	return s.finish(ctx, c, input.Execute, false)
}

type lastInput struct {
	Execute bool `json:"execute,omitempty" jsonschema:"Run the most recent command again"`
}

func (s *Server) handleLastCommand(ctx context.Context, req *mcp.CallToolRequest, input lastInput) (*mcp.CallToolResult, commandOutput, error) {
	if s.recent == nil {
		return nil, commandOutput{}, runner.ErrNoRecent
	}
	last, err := s.recent.Last()
	if err != nil {
		return nil, commandOutput{}, err
	}
	if last == nil {
		return nil, commandOutput{}, runner.ErrNoRecent
	}
	out := commandOutput{Command: last.Display(), Dir: last.Dir}
	if input.Execute {
		if s.dispatch == nil {
			return nil, out, errExecutionDisabled
		}
		if err := s.dispatch.Replay(ctx); err != nil {
			return nil, out, err
		}
		out.Executed = true
	}
	return nil, out, nil
}

// finish returns c's masked command line and runs it when asked. Recorded
// commands become the most recent command.
func (s *Server) finish(ctx context.Context, c runner.Command, execute, record bool) (*mcp.CallToolResult, commandOutput, error) {
	out := commandOutput{Command: c.Display(), Dir: c.Dir}
	if !execute {
		return nil, out, nil
	}
	if s.dispatch == nil {
		return nil, out, errExecutionDisabled
	}
	run := s.dispatch.Exec
	if record {
		run = s.dispatch.Run
	}
	if err := run(ctx, c); err != nil {
		return nil, out, err
	}
	out.Executed = true
	return nil, out, nil
}

func projectDir(dir string) (string, error) {
	if dir == "" {
		return "", errors.New("project_dir is required")
	}
	abs, err := filepath.Abs(dir)
	if err != nil {
		return "", err
	}
	if _, err := os.Stat(filepath.Join(abs, project.ManifestFile)); err != nil {
		return "", fmt.Errorf("%s is not a Titanium project: %w", abs, err)
	}
	return abs, nil
}
