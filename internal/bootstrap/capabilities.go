package bootstrap

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/GriffinCanCode/AgentOS/studio/internal/host"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/studio/internal/platform"
	"github.com/GriffinCanCode/AgentOS/studio/internal/plugins/dialog"
	"github.com/GriffinCanCode/AgentOS/studio/internal/plugins/fs"
	httpplugin "github.com/GriffinCanCode/AgentOS/studio/internal/plugins/http"
	"github.com/GriffinCanCode/AgentOS/studio/internal/plugins/osinfo"
	"github.com/GriffinCanCode/AgentOS/studio/internal/plugins/process"
	"github.com/GriffinCanCode/AgentOS/studio/internal/plugins/shell"
	siplugin "github.com/GriffinCanCode/AgentOS/studio/internal/plugins/singleinstance"
	"github.com/GriffinCanCode/AgentOS/studio/internal/plugins/updater"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
	"github.com/GriffinCanCode/AgentOS/studio/internal/singleinstance"
)

// Deps carries what the capability constructors need
type Deps struct {
	Config   *config.Config
	Manifest *config.Manifest
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics
	// DataDir overrides the configured app data dir
	DataDir string
	// Dialogs overrides the OS dialog backend
	Dialogs dialog.Backend
	// Opener overrides the desktop opener of the shell capability
	Opener shell.Opener
	// Launch describes this process to the single-instance coordinator
	Launch func() types.RelaunchEvent
	// DisableIPC skips the renderer bridge
	DisableIPC bool

	coord *singleinstance.Coordinator
}

func (d Deps) withDefaults() Deps {
	if d.Config == nil {
		d.Config = config.Default()
	}
	if d.Logger == nil {
		d.Logger = logging.NewNop()
	}
	return d
}

func (d Deps) dataDir() (string, error) {
	if d.DataDir != "" {
		return d.DataDir, nil
	}
	return d.Config.App.ResolveDataDir()
}

func (d Deps) launch() types.RelaunchEvent {
	if d.Launch != nil {
		return d.Launch()
	}
	return singleinstance.CurrentLaunch()
}

func newCoordinator(deps Deps) (*singleinstance.Coordinator, error) {
	return singleinstance.New(singleinstance.Options{
		Identifier: deps.Config.App.Identifier,
		Dir:        deps.Config.SingleInstance.ResolveDir(),
		Timeout:    3 * time.Second,
	}, deps.Logger.Named("single-instance"))
}

// BaseCapabilities returns the plugins every build registers, in order:
// shell, dialog, fs, process, os, http
func BaseCapabilities(deps Deps) ([]host.Plugin, error) {
	deps = deps.withDefaults()
	cfg := deps.Config

	dataDir, err := deps.dataDir()
	if err != nil {
		return nil, err
	}

	title := cfg.App.Identifier
	if deps.Manifest != nil && deps.Manifest.ProductName != "" {
		title = deps.Manifest.ProductName
	}

	scope, err := fs.NewScope(cfg.FS.Scope, fs.Variables(dataDir), dataDir)
	if err != nil {
		return nil, fmt.Errorf("invalid fs scope: %w", err)
	}

	fetch, err := httpplugin.New(httpplugin.Options{
		Allow:             cfg.HTTP.Allow,
		RequestsPerSecond: cfg.HTTP.RequestsPerSecond,
		Retries:           3,
		Logger:            deps.Logger.Named("http"),
	})
	if err != nil {
		return nil, fmt.Errorf("invalid http scope: %w", err)
	}

	return []host.Plugin{
		shell.New(shell.Options{
			Allow:  cfg.Shell.Allow,
			Opener: deps.Opener,
			Logger: deps.Logger.Named("shell"),
		}),
		dialog.New(deps.Dialogs, title),
		fs.New(scope),
		process.New(),
		osinfo.New(),
		fetch,
	}, nil
}

// DesktopCapabilities returns the desktop-only plugins, in order:
// single-instance, updater
func DesktopCapabilities(deps Deps) ([]host.Plugin, error) {
	deps = deps.withDefaults()
	cfg := deps.Config

	dataDir, err := deps.dataDir()
	if err != nil {
		return nil, err
	}

	coord := deps.coord
	if coord == nil {
		if coord, err = newCoordinator(deps); err != nil {
			return nil, err
		}
	}

	return []host.Plugin{
		siplugin.New(coord, deps.Launch, deps.Logger.Named("single-instance")),
		updater.New(updater.Options{
			Endpoints:      cfg.Updater.Endpoints,
			PublicKey:      cfg.Updater.PublicKey,
			CurrentVersion: cfg.App.Version,
			StageDir:       filepath.Join(dataDir, "updates"),
			Timeout:        cfg.Updater.Timeout,
			Logger:         deps.Logger.Named("updater"),
		}),
	}, nil
}

// Compose starts a builder holding the base capabilities
func Compose(mode platform.BuildMode, deps Deps) (*Builder, error) {
	deps = deps.withDefaults()

	base, err := BaseCapabilities(deps)
	if err != nil {
		return nil, err
	}

	b := NewBuilder(host.Options{
		Mode:       mode,
		Config:     deps.Config,
		Manifest:   deps.Manifest,
		Logger:     deps.Logger,
		Metrics:    deps.Metrics,
		DisableIPC: deps.DisableIPC,
	})
	return b.Plugins(base...), nil
}

// ApplyPlatformGate adds single-instance then updater on desktop builds.
// Mobile builds are left untouched.
func ApplyPlatformGate(b *Builder, mode platform.BuildMode, deps Deps) error {
	if !mode.IsDesktop() {
		return nil
	}
	desktop, err := DesktopCapabilities(deps)
	if err != nil {
		return err
	}
	b.Plugins(desktop...)
	return nil
}

// EnableDevtoolsIfDebug is the setup hook opening devtools on the main
// window in debug builds
func EnableDevtoolsIfDebug(mode platform.BuildMode) host.SetupFunc {
	return func(app *host.App) error {
		app.Windows().EnableDevtoolsIfDebug(mode)
		return nil
	}
}

func ensureDir(dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("failed to create data dir: %w", err)
	}
	return nil
}
