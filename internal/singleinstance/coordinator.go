package singleinstance

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"net"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/bytedance/sonic"
	"github.com/gofrs/flock"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

var (
	// ErrSecondaryInstance is returned by Acquire when another process holds
	// the primary role. The caller must exit without starting up.
	ErrSecondaryInstance = errors.New("another instance is already running")
	ErrInvalidIdentifier = errors.New("invalid instance identifier")
	ErrRelayRejected     = errors.New("primary instance rejected relaunch")
)

const ack = "ok"

// State of the coordinator
type State int32

const (
	StateUnregistered State = iota
	StateListening
)

// String returns the string representation of the state
func (s State) String() string {
	switch s {
	case StateUnregistered:
		return "unregistered"
	case StateListening:
		return "listening"
	default:
		return "unknown"
	}
}

// Options configures a Coordinator
type Options struct {
	// Identifier names the lock and socket files; typically the app identifier
	Identifier string
	// Dir holds the lock and socket files
	Dir string
	// Timeout bounds relaying a relaunch to the primary
	Timeout time.Duration
	// Buffer is the capacity of the relaunch event queue
	Buffer int
}

// Coordinator decides which process is primary and relays relaunches to it
type Coordinator struct {
	opts   Options
	lock   *flock.Flock
	logger *logging.Logger

	mu       sync.Mutex
	listener net.Listener
	state    atomic.Int32

	events    chan types.RelaunchEvent
	done      chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// New creates a coordinator. Nothing is locked until Acquire.
func New(opts Options, logger *logging.Logger) (*Coordinator, error) {
	if opts.Identifier == "" || strings.ContainsAny(opts.Identifier, `/\`) {
		return nil, fmt.Errorf("%w: %q", ErrInvalidIdentifier, opts.Identifier)
	}
	if opts.Dir == "" {
		opts.Dir = os.TempDir()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = 3 * time.Second
	}
	if opts.Buffer <= 0 {
		opts.Buffer = 16
	}
	if logger == nil {
		logger = logging.NewNop()
	}

	c := &Coordinator{
		opts:   opts,
		logger: logger,
		events: make(chan types.RelaunchEvent, opts.Buffer),
		done:   make(chan struct{}),
	}
	c.lock = flock.New(c.LockPath())
	return c, nil
}

// LockPath returns the path of the instance lock file
func (c *Coordinator) LockPath() string {
	return filepath.Join(c.opts.Dir, c.opts.Identifier+".lock")
}

// SocketPath returns the path of the relay socket
func (c *Coordinator) SocketPath() string {
	return filepath.Join(c.opts.Dir, c.opts.Identifier+".sock")
}

// State returns the coordinator state
func (c *Coordinator) State() State {
	return State(c.state.Load())
}

// Events delivers relaunch events received by the primary. The channel is
// closed by Close.
func (c *Coordinator) Events() <-chan types.RelaunchEvent {
	return c.events
}

// Acquire claims the primary role. If another process already holds it,
// self is relayed to that process and ErrSecondaryInstance is returned.
func (c *Coordinator) Acquire(ctx context.Context, self types.RelaunchEvent) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.State() == StateListening {
		return nil
	}

	if err := os.MkdirAll(c.opts.Dir, 0o700); err != nil {
		return fmt.Errorf("failed to create instance dir: %w", err)
	}

	locked, err := c.lock.TryLock()
	if err != nil {
		return fmt.Errorf("failed to acquire instance lock: %w", err)
	}
	if !locked {
		if err := Notify(ctx, c.SocketPath(), self, c.opts.Timeout); err != nil {
			c.logger.Warn("Failed to relay relaunch to primary instance", zap.Error(err))
		}
		return ErrSecondaryInstance
	}

	// A socket left behind by a crashed primary would block Listen
	if err := os.Remove(c.SocketPath()); err != nil && !errors.Is(err, os.ErrNotExist) {
		_ = c.lock.Unlock()
		return fmt.Errorf("failed to remove stale relay socket: %w", err)
	}

	ln, err := net.Listen("unix", c.SocketPath())
	if err != nil {
		_ = c.lock.Unlock()
		return fmt.Errorf("failed to listen on relay socket: %w", err)
	}

	c.listener = ln
	c.state.Store(int32(StateListening))
	c.logger.Info("Holding primary instance role",
		zap.String("lock", c.LockPath()),
		zap.String("socket", c.SocketPath()),
	)

	c.wg.Add(1)
	go c.serve(ln)
	return nil
}

func (c *Coordinator) serve(ln net.Listener) {
	defer c.wg.Done()

	for {
		conn, err := ln.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			select {
			case <-c.done:
				return
			default:
			}
			c.logger.Warn("Relay accept failed", zap.Error(err))
			continue
		}

		c.wg.Add(1)
		go c.handle(conn)
	}
}

func (c *Coordinator) handle(conn net.Conn) {
	defer c.wg.Done()
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(c.opts.Timeout))

	line, err := bufio.NewReader(conn).ReadBytes('\n')
	if err != nil {
		c.logger.Warn("Failed to read relaunch message", zap.Error(err))
		return
	}

	var ev types.RelaunchEvent
	if err := sonic.Unmarshal(line, &ev); err != nil {
		c.logger.Warn("Malformed relaunch message", zap.Error(err))
		return
	}

	select {
	case c.events <- ev:
	case <-c.done:
		return
	}

	if _, err := conn.Write([]byte(ack + "\n")); err != nil {
		c.logger.Debug("Failed to acknowledge relaunch", zap.Error(err))
	}
}

// Close releases the primary role and closes the event channel
func (c *Coordinator) Close() error {
	var err error
	c.closeOnce.Do(func() {
		close(c.done)

		c.mu.Lock()
		ln := c.listener
		c.mu.Unlock()

		if ln != nil {
			if cerr := ln.Close(); cerr != nil && !errors.Is(cerr, net.ErrClosed) {
				err = cerr
			}
		}
		c.wg.Wait()
		close(c.events)

		if c.State() == StateListening {
			_ = os.Remove(c.SocketPath())
			if uerr := c.lock.Unlock(); uerr != nil && err == nil {
				err = uerr
			}
		}
		c.state.Store(int32(StateUnregistered))
	})
	return err
}

// dialRetryInterval spaces dial attempts while the primary holds the lock
// but is not listening yet
const dialRetryInterval = 25 * time.Millisecond

// Notify relays a relaunch to the primary listening on socketPath and waits
// for its acknowledgement. Dialing is retried until timeout so a primary
// that has just taken the lock has time to open its socket.
func Notify(ctx context.Context, socketPath string, ev types.RelaunchEvent, timeout time.Duration) error {
	conn, err := dialPrimary(ctx, socketPath, timeout)
	if err != nil {
		return fmt.Errorf("failed to reach primary instance: %w", err)
	}
	defer conn.Close()

	_ = conn.SetDeadline(time.Now().Add(timeout))

	payload, err := sonic.Marshal(ev)
	if err != nil {
		return fmt.Errorf("failed to encode relaunch: %w", err)
	}
	if _, err := conn.Write(append(payload, '\n')); err != nil {
		return fmt.Errorf("failed to send relaunch: %w", err)
	}

	reply, err := bufio.NewReader(conn).ReadString('\n')
	if err != nil {
		return fmt.Errorf("failed to read acknowledgement: %w", err)
	}
	if strings.TrimSpace(reply) != ack {
		return fmt.Errorf("%w: %q", ErrRelayRejected, reply)
	}
	return nil
}

func dialPrimary(ctx context.Context, socketPath string, timeout time.Duration) (net.Conn, error) {
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	var dialer net.Dialer
	for {
		conn, err := dialer.DialContext(ctx, "unix", socketPath)
		if err == nil {
			return conn, nil
		}
		select {
		case <-ctx.Done():
			return nil, err
		case <-time.After(dialRetryInterval):
		}
	}
}

// CurrentLaunch describes this process as a RelaunchEvent
func CurrentLaunch() types.RelaunchEvent {
	cwd, err := os.Getwd()
	if err != nil {
		cwd = ""
	}
	args := make([]string, len(os.Args))
	copy(args, os.Args)
	return types.RelaunchEvent{Args: args, WorkingDirectory: cwd}
}
