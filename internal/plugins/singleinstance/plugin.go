package singleinstance

import (
	"context"
	"fmt"
	"sync/atomic"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/host"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
	instance "github.com/GriffinCanCode/AgentOS/studio/internal/singleinstance"
)

// ID is the capability ID
const ID = "single-instance"

// Plugin makes the first process the only running instance. Later launches
// are relayed to it and the primary brings its main window to the front.
type Plugin struct {
	coord  *instance.Coordinator
	launch func() types.RelaunchEvent
	logger *logging.Logger

	relaunches atomic.Int64
}

// New creates the plugin around a coordinator. launch describes this
// process and defaults to instance.CurrentLaunch.
func New(coord *instance.Coordinator, launch func() types.RelaunchEvent, logger *logging.Logger) *Plugin {
	if launch == nil {
		launch = instance.CurrentLaunch
	}
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Plugin{coord: coord, launch: launch, logger: logger}
}

// Preflight claims the primary role or relays this launch and fails with
// instance.ErrSecondaryInstance
func (p *Plugin) Preflight(ctx context.Context) error {
	return p.coord.Acquire(ctx, p.launch())
}

// Initialize forwards relaunch events into the application event loop
func (p *Plugin) Initialize(app *host.App) error {
	events := p.coord.Events()
	go func() {
		for ev := range events {
			ev := ev
			if !app.Dispatch(func() { p.onRelaunch(app, ev) }) {
				return
			}
		}
	}()
	return nil
}

func (p *Plugin) onRelaunch(app *host.App, ev types.RelaunchEvent) {
	p.relaunches.Add(1)
	app.Metrics().IncRelaunch()
	p.logger.Debug("Secondary instance launched",
		zap.Strings("args", ev.Args),
		zap.String("cwd", ev.WorkingDirectory),
	)
	app.Windows().FocusMain()
}

// Relaunches returns how many secondary launches were handled
func (p *Plugin) Relaunches() int64 {
	return p.relaunches.Load()
}

// Close releases the primary role. The forwarding goroutine ends once the
// event channel is closed or the application stops accepting work.
func (p *Plugin) Close() error {
	return p.coord.Close()
}

// Definition returns capability metadata
func (p *Plugin) Definition() types.Capability {
	return types.Capability{
		ID:          ID,
		Name:        "Single Instance",
		Description: "Keeps one running instance and focuses it on relaunch",
		Category:    types.CategoryLifecycle,
		Desktop:     true,
		Commands: []types.Command{
			{
				ID:          ID + ".status",
				Name:        "Status",
				Description: "Coordinator state, lock and socket paths, handled relaunches",
				Returns:     "object",
			},
		},
	}
}

// Execute runs a single-instance command
func (p *Plugin) Execute(ctx context.Context, command string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch command {
	case ID + ".status":
		return types.Success(map[string]interface{}{
			"state":       p.coord.State().String(),
			"lock_path":   p.coord.LockPath(),
			"socket_path": p.coord.SocketPath(),
			"relaunches":  p.Relaunches(),
		})
	default:
		return nil, fmt.Errorf("%w: %s", capability.ErrUnknownCommand, command)
	}
}
