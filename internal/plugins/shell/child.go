package shell

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"os/exec"
	"sync"

	"github.com/creack/pty"
	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/id"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

// child is a spawned process whose output is streamed as events
type child struct {
	id      string
	program string
	cmd     *exec.Cmd
	stdin   io.WriteCloser
	ptmx    *os.File

	mu     sync.Mutex
	exited bool
}

func (c *child) write(data []byte) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exited {
		return errors.New("process has exited")
	}
	if c.ptmx != nil {
		_, err := c.ptmx.Write(data)
		return err
	}
	_, err := c.stdin.Write(data)
	return err
}

func (c *child) kill() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exited || c.cmd.Process == nil {
		return
	}
	_ = c.cmd.Process.Kill()
}

func (p *Plugin) spawn(params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	spec, err := parseSpec(params)
	if err != nil {
		return types.Failure(err.Error())
	}
	if !p.Allowed(spec.program) {
		return types.Failure(fmt.Sprintf("%v: %s", ErrProgramNotAllowed, spec.program))
	}

	window := ""
	if appCtx != nil && appCtx.Window != nil {
		window = *appCtx.Window
	}

	// Children outlive the invoking request
	cmd := p.command(context.Background(), spec)
	c := &child{
		id:      id.NewProcessID().String(),
		program: spec.program,
		cmd:     cmd,
	}

	usePty, _ := params["pty"].(bool)
	var readers []namedReader
	if usePty {
		cols, rows := 80, 24
		if v, ok := params["cols"].(float64); ok && v > 0 {
			cols = int(v)
		}
		if v, ok := params["rows"].(float64); ok && v > 0 {
			rows = int(v)
		}
		cmd.Env = append(cmd.Environ(), "TERM=xterm-256color")
		ptmx, err := pty.StartWithSize(cmd, &pty.Winsize{Rows: uint16(rows), Cols: uint16(cols)})
		if err != nil {
			return types.Failure(fmt.Sprintf("failed to start PTY: %v", err))
		}
		c.ptmx = ptmx
		readers = append(readers, namedReader{"pty", ptmx})
	} else {
		stdin, err := cmd.StdinPipe()
		if err != nil {
			return types.Failure(err.Error())
		}
		stdout, err := cmd.StdoutPipe()
		if err != nil {
			return types.Failure(err.Error())
		}
		stderr, err := cmd.StderrPipe()
		if err != nil {
			return types.Failure(err.Error())
		}
		if err := cmd.Start(); err != nil {
			return types.Failure(fmt.Sprintf("failed to start %s: %v", spec.program, err))
		}
		c.stdin = stdin
		readers = append(readers, namedReader{"stdout", stdout}, namedReader{"stderr", stderr})
	}

	p.mu.Lock()
	p.children[c.id] = c
	p.mu.Unlock()

	var wg sync.WaitGroup
	for _, r := range readers {
		wg.Add(1)
		go func(r namedReader) {
			defer wg.Done()
			p.pump(c, window, r)
		}(r)
	}
	go p.wait(c, window, &wg)

	p.logger.Debug("Spawned child", zap.String("pid", c.id), zap.String("program", spec.program))
	return types.Success(map[string]interface{}{
		"pid":     c.id,
		"os_pid":  cmd.Process.Pid,
		"program": spec.program,
		"pty":     usePty,
	})
}

type namedReader struct {
	stream string
	r      io.Reader
}

func (p *Plugin) pump(c *child, window string, r namedReader) {
	buf := make([]byte, 4096)
	for {
		n, err := r.r.Read(buf)
		if n > 0 {
			p.emit(EventOutput, window, map[string]interface{}{
				"pid":    c.id,
				"stream": r.stream,
				"data":   string(buf[:n]),
			})
		}
		if err != nil {
			return
		}
	}
}

// wait reaps the child after its output drained
func (p *Plugin) wait(c *child, window string, readers *sync.WaitGroup) {
	var err error
	if c.ptmx != nil {
		// The PTY read side only ends once the child exits
		err = c.cmd.Wait()
		readers.Wait()
		_ = c.ptmx.Close()
	} else {
		readers.Wait()
		err = c.cmd.Wait()
	}

	code := 0
	if err != nil {
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			code = exitErr.ExitCode()
		} else {
			code = -1
		}
	}

	c.mu.Lock()
	c.exited = true
	c.mu.Unlock()

	p.mu.Lock()
	delete(p.children, c.id)
	p.mu.Unlock()

	p.emit(EventExit, window, map[string]interface{}{"pid": c.id, "code": code})
}

func (p *Plugin) emit(name, window string, payload interface{}) {
	p.mu.RLock()
	e := p.emitter
	p.mu.RUnlock()
	if e != nil {
		e.Emit(name, window, payload)
	}
}

func (p *Plugin) lookup(params map[string]interface{}) (*child, string, bool) {
	pid, _ := params["pid"].(string)
	p.mu.RLock()
	defer p.mu.RUnlock()
	c, ok := p.children[pid]
	return c, pid, ok
}

func (p *Plugin) write(params map[string]interface{}) (*types.Result, error) {
	c, pid, ok := p.lookup(params)
	if !ok {
		return types.Failure(fmt.Sprintf("process not found: %s", pid))
	}
	data, ok := params["data"].(string)
	if !ok {
		return types.Failure("data is required")
	}
	if err := c.write([]byte(data)); err != nil {
		return types.Failure(err.Error())
	}
	return types.Success(map[string]interface{}{"written": len(data)})
}

func (p *Plugin) kill(params map[string]interface{}) (*types.Result, error) {
	c, pid, ok := p.lookup(params)
	if !ok {
		return types.Failure(fmt.Sprintf("process not found: %s", pid))
	}
	c.kill()
	return types.Success(map[string]interface{}{"killed": pid})
}
