package shell

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"path/filepath"
	"runtime"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/host"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

// ID is the capability ID
const ID = "shell"

// Events emitted for spawned children
const (
	EventOutput = "shell://output"
	EventExit   = "shell://exit"
)

var ErrProgramNotAllowed = errors.New("program not allowed")

// Emitter publishes host events
type Emitter interface {
	Emit(name, window string, payload interface{}) types.Event
}

// Opener opens a path or URL with the desktop's default handler
type Opener func(ctx context.Context, target string) error

// Options configures the shell plugin
type Options struct {
	// Allow lists permitted programs by base name or absolute path; empty allows all
	Allow  []string
	Opener Opener
	Logger *logging.Logger
}

// Plugin runs child processes
type Plugin struct {
	allow  map[string]struct{}
	opener Opener
	logger *logging.Logger

	mu       sync.RWMutex
	emitter  Emitter
	children map[string]*child // Protected by mu
}

// New creates the shell plugin
func New(opts Options) *Plugin {
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Opener == nil {
		opts.Opener = SystemOpener
	}
	var allow map[string]struct{}
	if len(opts.Allow) > 0 {
		allow = make(map[string]struct{}, len(opts.Allow))
		for _, a := range opts.Allow {
			allow[a] = struct{}{}
		}
	}
	return &Plugin{
		allow:    allow,
		opener:   opts.Opener,
		logger:   opts.Logger,
		children: make(map[string]*child),
	}
}

// Initialize routes child output to the application's event bus
func (p *Plugin) Initialize(app *host.App) error {
	p.SetEmitter(app)
	return nil
}

// SetEmitter sets where child output events go
func (p *Plugin) SetEmitter(e Emitter) {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.emitter = e
}

// Close kills every running child
func (p *Plugin) Close() error {
	p.mu.Lock()
	children := make([]*child, 0, len(p.children))
	for _, c := range p.children {
		children = append(children, c)
	}
	p.mu.Unlock()

	for _, c := range children {
		c.kill()
	}
	return nil
}

// Definition returns capability metadata
func (p *Plugin) Definition() types.Capability {
	program := []types.Parameter{
		{Name: "program", Type: "string", Description: "Program name or path", Required: true},
		{Name: "args", Type: "array", Description: "Arguments", Required: false},
		{Name: "cwd", Type: "string", Description: "Working directory", Required: false},
		{Name: "env", Type: "object", Description: "Extra environment variables", Required: false},
	}
	pid := types.Parameter{Name: "pid", Type: "string", Description: "Child id returned by spawn", Required: true}

	return types.Capability{
		ID:          ID,
		Name:        "Shell",
		Description: "Run programs and open files or URLs with the default handler",
		Category:    types.CategoryProcess,
		Commands: []types.Command{
			{
				ID:          ID + ".execute",
				Name:        "Execute",
				Description: "Run a program to completion and collect its output",
				Parameters: append(program, types.Parameter{
					Name: "stdin", Type: "string", Description: "Data written to standard input", Required: false,
				}),
				Returns: "object",
			},
			{
				ID:          ID + ".spawn",
				Name:        "Spawn",
				Description: "Start a program and stream its output as shell://output events",
				Parameters: append(program,
					types.Parameter{Name: "pty", Type: "boolean", Description: "Attach a pseudo terminal", Required: false},
					types.Parameter{Name: "cols", Type: "number", Description: "PTY columns, defaults to 80", Required: false},
					types.Parameter{Name: "rows", Type: "number", Description: "PTY rows, defaults to 24", Required: false},
				),
				Returns: "object",
			},
			{
				ID:          ID + ".write",
				Name:        "Write",
				Description: "Write to a spawned child's input",
				Parameters: []types.Parameter{
					pid,
					{Name: "data", Type: "string", Description: "Input", Required: true},
				},
				Returns: "object",
			},
			{
				ID:          ID + ".kill",
				Name:        "Kill",
				Description: "Kill a spawned child",
				Parameters:  []types.Parameter{pid},
				Returns:     "object",
			},
			{
				ID:          ID + ".open",
				Name:        "Open",
				Description: "Open a path or URL with the default handler",
				Parameters: []types.Parameter{
					{Name: "path", Type: "string", Description: "Path or URL", Required: true},
				},
				Returns: "object",
			},
		},
	}
}

// Execute runs a shell command
func (p *Plugin) Execute(ctx context.Context, command string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch command {
	case ID + ".execute":
		return p.execute(ctx, params)
	case ID + ".spawn":
		return p.spawn(params, appCtx)
	case ID + ".write":
		return p.write(params)
	case ID + ".kill":
		return p.kill(params)
	case ID + ".open":
		return p.open(ctx, params)
	default:
		return nil, fmt.Errorf("%w: %s", capability.ErrUnknownCommand, command)
	}
}

// Allowed reports whether program may be run
func (p *Plugin) Allowed(program string) bool {
	if p.allow == nil {
		return true
	}
	if _, ok := p.allow[program]; ok {
		return true
	}
	_, ok := p.allow[filepath.Base(program)]
	return ok
}

type commandSpec struct {
	program string
	args    []string
	cwd     string
	env     []string
}

func parseSpec(params map[string]interface{}) (commandSpec, error) {
	var spec commandSpec
	program, ok := params["program"].(string)
	if !ok || program == "" {
		return spec, errors.New("program is required")
	}
	spec.program = program

	if raw, ok := params["args"].([]interface{}); ok {
		for _, a := range raw {
			s, ok := a.(string)
			if !ok {
				return spec, errors.New("args must be strings")
			}
			spec.args = append(spec.args, s)
		}
	}
	spec.cwd, _ = params["cwd"].(string)
	if raw, ok := params["env"].(map[string]interface{}); ok {
		for k, v := range raw {
			if s, ok := v.(string); ok {
				spec.env = append(spec.env, k+"="+s)
			}
		}
	}
	return spec, nil
}

func (p *Plugin) command(ctx context.Context, spec commandSpec) *exec.Cmd {
	cmd := exec.CommandContext(ctx, spec.program, spec.args...)
	cmd.Dir = spec.cwd
	if len(spec.env) > 0 {
		cmd.Env = append(cmd.Environ(), spec.env...)
	}
	return cmd
}

func (p *Plugin) execute(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	spec, err := parseSpec(params)
	if err != nil {
		return types.Failure(err.Error())
	}
	if !p.Allowed(spec.program) {
		return types.Failure(fmt.Sprintf("%v: %s", ErrProgramNotAllowed, spec.program))
	}

	cmd := p.command(ctx, spec)
	var stdout, stderr bytes.Buffer
	cmd.Stdout = &stdout
	cmd.Stderr = &stderr
	if stdin, ok := params["stdin"].(string); ok {
		cmd.Stdin = bytes.NewBufferString(stdin)
	}

	err = cmd.Run()
	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if !errors.As(err, &exitErr) {
			return types.Failure(fmt.Sprintf("failed to run %s: %v", spec.program, err))
		}
		code = exitErr.ExitCode()
	}

	p.logger.Debug("Command finished",
		zap.String("program", spec.program),
		zap.Int("code", code),
	)

	return types.Success(map[string]interface{}{
		"code":   code,
		"stdout": stdout.String(),
		"stderr": stderr.String(),
	})
}

func (p *Plugin) open(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	target, ok := params["path"].(string)
	if !ok || target == "" {
		return types.Failure("path is required")
	}
	if err := p.opener(ctx, target); err != nil {
		return types.Failure(fmt.Sprintf("failed to open %s: %v", target, err))
	}
	return types.Success(map[string]interface{}{"opened": target})
}

// SystemOpener opens target with xdg-open, open or start
func SystemOpener(ctx context.Context, target string) error {
	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "darwin":
		cmd = exec.CommandContext(ctx, "open", target)
	case "windows":
		cmd = exec.CommandContext(ctx, "rundll32", "url.dll,FileProtocolHandler", target)
	default:
		cmd = exec.CommandContext(ctx, "xdg-open", target)
	}
	return cmd.Start()
}
