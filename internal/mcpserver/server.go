// Package mcpserver exposes the environment probe and the build command
// builder as MCP tools so an agent can configure builds without the
// interactive picker.
package mcpserver

import (
	"context"

	"github.com/charmbracelet/log"
	"github.com/modelcontextprotocol/go-sdk/mcp"
	"github.com/moasq/tibuild/internal/runner"
	"github.com/moasq/tibuild/internal/toolchain"
	"github.com/moasq/tibuild/internal/wizard"
)

// Dispatcher runs commands. Run records a build as the most recent command,
// Exec does not.
type Dispatcher interface {
	Run(ctx context.Context, c runner.Command) error
	Exec(ctx context.Context, c runner.Command) error
	Replay(ctx context.Context) error
}

// Recent reads the most recent command.
type Recent interface {
	Last() (*runner.Command, error)
}

// Server serves the build tools.
type Server struct {
	tools    wizard.Toolchain
	dispatch Dispatcher
	recent   Recent
	creds    func() (toolchain.Credentials, error)
	settings wizard.Settings
	logger   *log.Logger
	version  string
}

// Config wires a Server.
type Config struct {
	Toolchain wizard.Toolchain
	// Dispatcher is nil when execution is disabled.
	Dispatcher Dispatcher
	// Recent may be nil, in which case there is never a most recent command.
	Recent Recent
	// Credentials resolves the appc account. It must not prompt.
	Credentials func() (toolchain.Credentials, error)
	Settings    wizard.Settings
	Logger      *log.Logger
	Version     string
}

// New creates a Server.
func New(cfg Config) *Server {
	logger := cfg.Logger
	if logger == nil {
		logger = log.Default()
	}
	if cfg.Settings.AppcPath == "" {
		cfg.Settings.AppcPath = toolchain.DefaultPath
	}
	if cfg.Settings.LogLevel == "" {
		cfg.Settings.LogLevel = "info"
	}
	return &Server{
		tools:    cfg.Toolchain,
		dispatch: cfg.Dispatcher,
		recent:   cfg.Recent,
		creds:    cfg.Credentials,
		settings: cfg.Settings,
		logger:   logger.WithPrefix("mcp"),
		version:  cfg.Version,
	}
}

func (s *Server) server() *mcp.Server {
	server := mcp.NewServer(
		&mcp.Implementation{
			Name:    "tibuild",
			Version: s.version,
		},
		nil,
	)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "environment_info",
		Description: "List the Android emulators and devices, iOS simulators and devices, signing certificates and provisioning profiles the toolchain can see. Expired certificates and profiles are omitted.",
	}, s.handleEnvironmentInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "project_info",
		Description: "Report the Titanium SDK version and app version of a project directory.",
	}, s.handleProjectInfo)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "build_command",
		Description: "Assemble the appc run command for a platform and target. Passwords are masked in the returned command line. Set execute to run it; build output goes to the server's stderr.",
	}, s.handleBuildCommand)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "clean_command",
		Description: "Assemble the appc ti clean command for a project directory. Set execute to run it.",
	}, s.handleCleanCommand)

	mcp.AddTool(server, &mcp.Tool{
		Name:        "last_command",
		Description: "Show the most recent build command with passwords masked. Set execute to run it again; the account password is filled in from the configured credentials.",
	}, s.handleLastCommand)

	return server
}

// Run serves over stdio until the client disconnects or ctx is cancelled.
func (s *Server) Run(ctx context.Context) error {
	s.logger.Debug("serving", "version", s.version)
	return s.server().Run(ctx, &mcp.StdioTransport{})
}
