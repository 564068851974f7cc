package process

import (
	"context"
	"fmt"
	"os"
	"runtime"
	"sync"
	"time"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/host"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

// ID is the capability ID
const ID = "process"

// Lifecycle is the part of the application the plugin controls
type Lifecycle interface {
	Exit(code int)
	Restart()
}

// Plugin controls the application process
type Plugin struct {
	mu        sync.RWMutex
	lifecycle Lifecycle
	startTime time.Time
}

// New creates the process plugin
func New() *Plugin {
	return &Plugin{startTime: time.Now()}
}

// Initialize binds the plugin to the running application
func (p *Plugin) Initialize(app *host.App) error {
	p.Bind(app)
	return nil
}

// Bind sets the lifecycle the plugin controls
func (p *Plugin) Bind(l Lifecycle) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.lifecycle = l
}

// Definition returns capability metadata
func (p *Plugin) Definition() types.Capability {
	return types.Capability{
		ID:          ID,
		Name:        "Process",
		Description: "Exit or restart the application and inspect its process",
		Category:    types.CategoryProcess,
		Commands: []types.Command{
			{
				ID:          ID + ".exit",
				Name:        "Exit",
				Description: "Stop the event loop and exit with the given code",
				Parameters: []types.Parameter{
					{Name: "code", Type: "number", Description: "Exit code, defaults to 0", Required: false},
				},
				Returns: "boolean",
			},
			{
				ID:          ID + ".restart",
				Name:        "Restart",
				Description: "Stop the event loop and start a fresh copy of the application",
				Returns:     "boolean",
			},
			{
				ID:          ID + ".info",
				Name:        "Info",
				Description: "Process id, executable, arguments and uptime",
				Returns:     "object",
			},
		},
	}
}

// Execute runs a process command
func (p *Plugin) Execute(ctx context.Context, command string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch command {
	case ID + ".exit":
		return p.exit(params)
	case ID + ".restart":
		return p.restart()
	case ID + ".info":
		return p.info()
	default:
		return nil, fmt.Errorf("%w: %s", capability.ErrUnknownCommand, command)
	}
}

func (p *Plugin) bound() (Lifecycle, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()
	return p.lifecycle, p.lifecycle != nil
}

func (p *Plugin) exit(params map[string]interface{}) (*types.Result, error) {
	l, ok := p.bound()
	if !ok {
		return types.Failure("process control not available")
	}

	code := 0
	if c, ok := params["code"].(float64); ok {
		code = int(c)
	}
	l.Exit(code)
	return types.Success(map[string]interface{}{"exiting": true, "code": code})
}

func (p *Plugin) restart() (*types.Result, error) {
	l, ok := p.bound()
	if !ok {
		return types.Failure("process control not available")
	}
	l.Restart()
	return types.Success(map[string]interface{}{"restarting": true})
}

func (p *Plugin) info() (*types.Result, error) {
	exe, _ := os.Executable()
	cwd, _ := os.Getwd()

	return types.Success(map[string]interface{}{
		"pid":            os.Getpid(),
		"ppid":           os.Getppid(),
		"executable":     exe,
		"args":           os.Args,
		"cwd":            cwd,
		"go_version":     runtime.Version(),
		"uptime_seconds": time.Since(p.startTime).Seconds(),
	})
}
