package host

import (
	"errors"
	"sync"

	"github.com/google/uuid"

	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/config"
)

var ErrWindowClosed = errors.New("window is closed")

// Window events
const (
	EventWindowCreated  = "window://created"
	EventWindowFocus    = "window://focus"
	EventWindowDevtools = "window://devtools"
	EventWindowClosed   = "window://closed"
)

// Window is the host side of a renderer window. Its state is mirrored to the
// renderer through window events.
type Window struct {
	id     uuid.UUID
	label  string
	title  string
	url    string
	width  int
	height int
	bus    *Bus

	mu            sync.Mutex
	focused       bool
	devtools      bool
	devtoolsOpens int
	closed        bool
}

func newWindow(cfg config.WindowConfig, bus *Bus) *Window {
	return &Window{
		id:     uuid.New(),
		label:  cfg.Label,
		title:  cfg.Title,
		url:    cfg.URL,
		width:  cfg.Width,
		height: cfg.Height,
		bus:    bus,
	}
}

// ID returns the unique window id
func (w *Window) ID() string {
	return w.id.String()
}

// Label returns the window label
func (w *Window) Label() string {
	return w.label
}

// SetFocus requests input focus
func (w *Window) SetFocus() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWindowClosed
	}
	w.focused = true
	w.mu.Unlock()

	w.bus.Emit(EventWindowFocus, w.label, map[string]interface{}{"focused": true})
	return nil
}

// IsFocused reports whether focus was requested since creation
func (w *Window) IsFocused() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.focused
}

// OpenDevtools opens the developer tools panel
func (w *Window) OpenDevtools() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWindowClosed
	}
	w.devtools = true
	w.devtoolsOpens++
	w.mu.Unlock()

	w.bus.Emit(EventWindowDevtools, w.label, map[string]interface{}{"open": true})
	return nil
}

// CloseDevtools closes the developer tools panel
func (w *Window) CloseDevtools() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return ErrWindowClosed
	}
	w.devtools = false
	w.mu.Unlock()

	w.bus.Emit(EventWindowDevtools, w.label, map[string]interface{}{"open": false})
	return nil
}

// IsDevtoolsOpen reports whether devtools are open
func (w *Window) IsDevtoolsOpen() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.devtools
}

// DevtoolsOpens returns how many times devtools were opened
func (w *Window) DevtoolsOpens() int {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.devtoolsOpens
}

// Close closes the window. Closing twice is a no-op.
func (w *Window) Close() error {
	w.mu.Lock()
	if w.closed {
		w.mu.Unlock()
		return nil
	}
	w.closed = true
	w.focused = false
	w.devtools = false
	w.mu.Unlock()

	w.bus.Emit(EventWindowClosed, w.label, nil)
	return nil
}

// Info describes the window for the renderer
func (w *Window) Info() map[string]interface{} {
	w.mu.Lock()
	defer w.mu.Unlock()
	return map[string]interface{}{
		"id":       w.id.String(),
		"label":    w.label,
		"title":    w.title,
		"url":      w.url,
		"width":    w.width,
		"height":   w.height,
		"focused":  w.focused,
		"devtools": w.devtools,
	}
}
