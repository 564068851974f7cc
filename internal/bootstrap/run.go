package bootstrap

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/host"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/platform"
)

// ExitError reports a non-zero exit code requested through process.exit
type ExitError struct {
	Code int
}

func (e *ExitError) Error() string {
	return fmt.Sprintf("application exited with code %d", e.Code)
}

// Launch claims the primary instance role on desktop builds, then composes
// the capabilities for mode, applies the platform gate, installs the
// devtools setup hook and starts the application. A secondary instance
// relays its launch and fails with singleinstance.ErrSecondaryInstance
// before any directory is created or any capability is built.
func Launch(ctx context.Context, mode platform.BuildMode, deps Deps) (app *host.App, err error) {
	deps = deps.withDefaults()

	if mode.IsDesktop() {
		coord, cerr := newCoordinator(deps)
		if cerr != nil {
			return nil, cerr
		}
		if cerr := coord.Acquire(ctx, deps.launch()); cerr != nil {
			return nil, cerr
		}
		deps.coord = coord
		defer func() {
			if err != nil {
				_ = coord.Close()
			}
		}()
	}

	dataDir, err := deps.dataDir()
	if err != nil {
		return nil, err
	}
	if err := ensureDir(dataDir); err != nil {
		return nil, err
	}

	b, err := Compose(mode, deps)
	if err != nil {
		return nil, fmt.Errorf("failed to compose capabilities: %w", err)
	}
	if err := ApplyPlatformGate(b, mode, deps); err != nil {
		return nil, fmt.Errorf("failed to apply platform gate: %w", err)
	}
	b.Setup(EnableDevtoolsIfDebug(mode))

	deps.Logger.Debug("Capabilities composed",
		zap.String("mode", mode.String()),
		zap.Strings("capabilities", b.IDs()),
	)
	return b.Build(ctx)
}

// Run starts the application for the compiled build mode and blocks until
// it exits. Restarts requested by the app are handled by the host before
// Run returns.
func Run(ctx context.Context, cfg *config.Config, logger *logging.Logger) error {
	return RunMode(ctx, platform.Current(), cfg, logger)
}

// RunMode is Run with an explicit build mode
func RunMode(ctx context.Context, mode platform.BuildMode, cfg *config.Config, logger *logging.Logger) error {
	manifest, err := config.LoadManifest(cfg.App.Manifest)
	if err != nil {
		return fmt.Errorf("failed to load manifest: %w", err)
	}

	app, err := Launch(ctx, mode, Deps{
		Config:   cfg,
		Manifest: manifest,
		Logger:   logger,
	})
	if err != nil {
		return err
	}

	if addr := app.IPCAddr(); addr != "" {
		logger.Info("Renderer bridge listening", zap.String("addr", addr))
	}

	if err := app.Run(ctx); err != nil {
		return err
	}
	if code := app.ExitCode(); code != 0 {
		return &ExitError{Code: code}
	}
	return nil
}
