package host

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"os/signal"
	"sync"
	"sync/atomic"
	"syscall"
	"time"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/window"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/config"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/studio/internal/platform"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

var (
	ErrAlreadyStarted = errors.New("application already started")
	ErrNotStarted     = errors.New("application not started")
)

// Plugin is a capability registered with the application
type Plugin interface {
	capability.Provider
}

// Preflighter runs before any plugin is initialized or any window is
// created. An error aborts startup with nothing initialized.
type Preflighter interface {
	Preflight(ctx context.Context) error
}

// Initializer is called once, in registration order, after every preflight
// passed
type Initializer interface {
	Initialize(app *App) error
}

// SetupFunc runs once after windows are created and before the event loop
type SetupFunc func(app *App) error

// Options configures an App
type Options struct {
	Mode     platform.BuildMode
	Config   *config.Config
	Manifest *config.Manifest
	Plugins  []Plugin
	Setup    SetupFunc
	Logger   *logging.Logger
	Metrics  *monitoring.Metrics
	// DisableIPC skips the renderer bridge
	DisableIPC bool
	// Relaunch starts a fresh copy of the process after a restart request
	Relaunch func() error
}

// App is a running application: capabilities, windows, events and the
// main event loop
type App struct {
	mode     platform.BuildMode
	cfg      *config.Config
	manifest *config.Manifest
	logger   *logging.Logger
	metrics  *monitoring.Metrics

	registry *capability.Registry
	windows  *window.Manager
	bus      *Bus
	ipc      *ipcServer

	plugins    []Plugin
	prepared   []Plugin // passed preflight, closed on shutdown
	setup      SetupFunc
	relaunch   func() error
	disableIPC bool

	winMu sync.RWMutex
	wins  map[string]*Window // Protected by winMu

	queue     chan func()
	exitCh    chan int
	done      chan struct{}
	started   atomic.Bool
	running   atomic.Bool
	restart   atomic.Bool
	exitCode  atomic.Int32
	closeOnce sync.Once
	startTime time.Time
}

// New creates an application and registers its plugins in order. Nothing
// is initialized until Start.
func New(opts Options) (*App, error) {
	if opts.Config == nil {
		opts.Config = config.Default()
	}
	if opts.Manifest == nil {
		opts.Manifest = config.DefaultManifest()
	}
	if opts.Logger == nil {
		opts.Logger = logging.NewNop()
	}
	if opts.Metrics == nil {
		opts.Metrics = monitoring.NewMetrics()
	}
	if opts.Relaunch == nil {
		opts.Relaunch = relaunchSelf
	}

	a := &App{
		mode:       opts.Mode,
		cfg:        opts.Config,
		manifest:   opts.Manifest,
		logger:     opts.Logger,
		metrics:    opts.Metrics,
		registry:   capability.NewRegistry().WithMetrics(opts.Metrics),
		windows:    window.NewManager(opts.Logger.Named("windows")).WithMetrics(opts.Metrics),
		bus:        NewBus(opts.Logger.Named("events"), opts.Metrics),
		setup:      opts.Setup,
		relaunch:   opts.Relaunch,
		disableIPC: opts.DisableIPC,
		wins:       make(map[string]*Window),
		queue:      make(chan func(), 64),
		exitCh:     make(chan int, 1),
		done:       make(chan struct{}),
	}

	for _, p := range opts.Plugins {
		if err := a.registry.Register(p); err != nil {
			return nil, err
		}
		a.plugins = append(a.plugins, p)
	}
	return a, nil
}

// Start runs preflights, initializes plugins, creates the manifest windows,
// runs the setup hook and opens the renderer bridge.
func (a *App) Start(ctx context.Context) (err error) {
	if !a.started.CompareAndSwap(false, true) {
		return ErrAlreadyStarted
	}
	a.startTime = time.Now()

	defer func() {
		if err != nil {
			a.shutdown()
		}
	}()

	for _, p := range a.plugins {
		if pf, ok := p.(Preflighter); ok {
			if err := pf.Preflight(ctx); err != nil {
				return fmt.Errorf("preflight %s: %w", p.Definition().ID, err)
			}
		}
		a.prepared = append(a.prepared, p)
	}

	for _, p := range a.plugins {
		if in, ok := p.(Initializer); ok {
			if err := in.Initialize(a); err != nil {
				return fmt.Errorf("failed to initialize %s: %w", p.Definition().ID, err)
			}
		}
	}

	for _, wc := range a.manifest.Windows {
		if _, err := a.CreateWindow(wc); err != nil {
			return fmt.Errorf("failed to create window %q: %w", wc.Label, err)
		}
	}

	if a.setup != nil {
		if err := a.setup(a); err != nil {
			return fmt.Errorf("setup failed: %w", err)
		}
	}

	if !a.disableIPC {
		srv, err := startIPC(a)
		if err != nil {
			return fmt.Errorf("failed to start renderer bridge: %w", err)
		}
		a.ipc = srv
	}

	a.logger.Info("Application started",
		zap.String("mode", a.mode.String()),
		zap.Strings("capabilities", a.registry.IDs()),
		zap.Strings("windows", a.windows.Labels()),
	)
	return nil
}

// Run blocks on the event loop until an exit request, SIGINT/SIGTERM or ctx
// cancellation, then shuts down.
func (a *App) Run(ctx context.Context) error {
	if !a.started.Load() {
		return ErrNotStarted
	}
	if !a.running.CompareAndSwap(false, true) {
		return errors.New("event loop already running")
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()

	a.logger.Info("Entering event loop")

loop:
	for {
		select {
		case fn := <-a.queue:
			a.call(fn)
		case code := <-a.exitCh:
			a.exitCode.Store(int32(code))
			a.logger.Info("Exit requested", zap.Int("code", code))
			break loop
		case <-ctx.Done():
			a.logger.Info("Event loop interrupted", zap.Error(ctx.Err()))
			break loop
		}
	}

	a.shutdown()

	if a.restart.Load() {
		a.logger.Info("Relaunching application")
		if err := a.relaunch(); err != nil {
			return fmt.Errorf("failed to relaunch: %w", err)
		}
	}
	return nil
}

func (a *App) call(fn func()) {
	defer func() {
		if r := recover(); r != nil {
			a.logger.Error("Dispatched task panicked", zap.Any("panic", r))
		}
	}()
	fn()
}

// Dispatch hands fn to the event loop. It returns false once the
// application has shut down.
func (a *App) Dispatch(fn func()) bool {
	select {
	case <-a.done:
		return false
	default:
	}
	select {
	case a.queue <- fn:
		return true
	case <-a.done:
		return false
	}
}

// Exit asks the event loop to stop with the given exit code
func (a *App) Exit(code int) {
	select {
	case a.exitCh <- code:
	default:
	}
}

// Restart asks the event loop to stop and start a fresh process
func (a *App) Restart() {
	a.restart.Store(true)
	a.Exit(0)
}

// ExitCode is the code passed to Exit
func (a *App) ExitCode() int {
	return int(a.exitCode.Load())
}

// RestartRequested reports whether Restart was called
func (a *App) RestartRequested() bool {
	return a.restart.Load()
}

// Done is closed after shutdown
func (a *App) Done() <-chan struct{} {
	return a.done
}

// Close shuts the application down without running the event loop
func (a *App) Close() error {
	a.shutdown()
	return nil
}

func (a *App) shutdown() {
	a.closeOnce.Do(func() {
		if a.ipc != nil {
			ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			if err := a.ipc.Shutdown(ctx); err != nil {
				a.logger.Warn("Renderer bridge shutdown failed", zap.Error(err))
			}
			cancel()
		}

		a.windows.CloseAll()

		for i := len(a.prepared) - 1; i >= 0; i-- {
			p := a.prepared[i]
			if c, ok := p.(io.Closer); ok {
				if err := c.Close(); err != nil {
					a.logger.Warn("Failed to close plugin",
						zap.String("capability", p.Definition().ID),
						zap.Error(err),
					)
				}
			}
		}

		a.bus.Close()
		close(a.done)
		a.logger.Info("Application stopped")
	})
}

// CreateWindow creates and registers a window
func (a *App) CreateWindow(cfg config.WindowConfig) (*Window, error) {
	w := newWindow(cfg, a.bus)
	if err := a.windows.Register(w); err != nil {
		return nil, err
	}

	a.winMu.Lock()
	a.wins[w.Label()] = w
	a.winMu.Unlock()

	a.bus.Emit(EventWindowCreated, w.Label(), w.Info())
	return w, nil
}

// Window returns a window created by this application
func (a *App) Window(label string) (*Window, bool) {
	a.winMu.RLock()
	defer a.winMu.RUnlock()
	w, ok := a.wins[label]
	return w, ok
}

// CloseWindow closes and unregisters a window
func (a *App) CloseWindow(label string) bool {
	a.winMu.Lock()
	w, ok := a.wins[label]
	delete(a.wins, label)
	a.winMu.Unlock()

	if !ok {
		return false
	}
	a.windows.Remove(label)
	_ = w.Close()
	return true
}

// Emit broadcasts a host event
func (a *App) Emit(name, window string, payload interface{}) types.Event {
	return a.bus.Emit(name, window, payload)
}

// Invoke executes a capability command
func (a *App) Invoke(ctx context.Context, command string, params map[string]interface{}) (*types.Result, error) {
	return a.registry.Execute(ctx, command, params, nil)
}

// Mode returns the build mode
func (a *App) Mode() platform.BuildMode { return a.mode }

// Config returns the process configuration
func (a *App) Config() *config.Config { return a.cfg }

// Manifest returns the application manifest
func (a *App) Manifest() *config.Manifest { return a.manifest }

// Logger returns the application logger
func (a *App) Logger() *logging.Logger { return a.logger }

// Metrics returns the application metrics
func (a *App) Metrics() *monitoring.Metrics { return a.metrics }

// Registry returns the capability registry
func (a *App) Registry() *capability.Registry { return a.registry }

// Windows returns the window manager
func (a *App) Windows() *window.Manager { return a.windows }

// Bus returns the event bus
func (a *App) Bus() *Bus { return a.bus }

// Uptime returns time since Start
func (a *App) Uptime() time.Duration {
	if a.startTime.IsZero() {
		return 0
	}
	return time.Since(a.startTime)
}

// IPCAddr returns the bridge address, empty when disabled
func (a *App) IPCAddr() string {
	if a.ipc == nil {
		return ""
	}
	return a.ipc.Addr()
}

func relaunchSelf() error {
	exe, err := os.Executable()
	if err != nil {
		return err
	}
	cmd := exec.Command(exe, os.Args[1:]...)
	cmd.Stdin = os.Stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	cmd.Env = os.Environ()
	return cmd.Start()
}
