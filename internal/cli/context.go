package cli

import (
	"time"

	"github.com/spf13/cobra"

	"github.com/emberwallet/ember/internal/config"
	"github.com/emberwallet/ember/internal/engine"
	"github.com/emberwallet/ember/internal/output"
	"github.com/emberwallet/ember/internal/receive"
	"github.com/emberwallet/ember/internal/secret"
	"github.com/emberwallet/ember/internal/session"
)

// CommandContext holds dependencies for CLI commands.
type CommandContext struct {
	Cfg         *config.Config
	Log         *config.Logger
	Fmt         *output.Formatter
	Store       secret.Store
	Engine      engine.Engine
	Session     *session.Manager
	Provisioner *receive.Provisioner
}

// testCmdContext, when set, is returned by GetCmdContext instead of a context
// built from globals. Tests use it to inject mocks.
//
//nolint:gochecknoglobals // test seam for command wiring
var testCmdContext *CommandContext

// GetCmdContext assembles the dependencies for a command invocation from the
// global state initialized in PersistentPreRunE.
func GetCmdContext(_ *cobra.Command) *CommandContext {
	if testCmdContext != nil {
		return testCmdContext
	}

	eng := engine.NewClient(&engine.ClientOptions{
		BaseURL:      cfg.Engine.URL,
		APIKey:       cfg.Engine.APIKey,
		Timeout:      time.Duration(cfg.Engine.TimeoutSeconds) * time.Second,
		RateLimitRPS: cfg.Engine.RateLimitRPS,
		Logger:       logger,
	})
	mgr := session.NewManager(eng, logger)

	return &CommandContext{
		Cfg:         cfg,
		Log:         logger,
		Fmt:         formatter,
		Store:       secret.NewFileStore(cfg.GetHome()),
		Engine:      eng,
		Session:     mgr,
		Provisioner: receive.NewProvisioner(mgr),
	}
}
