package window

import (
	"errors"
	"fmt"
	"sort"
	"sync"

	"go.uber.org/zap"

	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/logging"
	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/studio/internal/platform"
)

// MainLabel is the label of the primary window. The application's window
// configuration creates a window with this exact label.
const MainLabel = "main"

var (
	ErrWindowExists   = errors.New("window label already in use")
	ErrWindowNotFound = errors.New("window not found")
	ErrEmptyLabel     = errors.New("window label cannot be empty")
)

// Handle is a non-owning reference to a live window
type Handle interface {
	Label() string
	SetFocus() error
	OpenDevtools() error
	CloseDevtools() error
	IsDevtoolsOpen() bool
	Close() error
}

// Manager resolves windows by label and performs best-effort actions on them
type Manager struct {
	mu      sync.RWMutex
	windows map[string]Handle // Protected by mu
	focused string            // Protected by mu
	logger  *logging.Logger
	metrics *monitoring.Metrics
}

// NewManager creates an empty window manager
func NewManager(logger *logging.Logger) *Manager {
	if logger == nil {
		logger = logging.NewNop()
	}
	return &Manager{
		windows: make(map[string]Handle),
		logger:  logger,
	}
}

// WithMetrics adds window action metrics
func (m *Manager) WithMetrics(metrics *monitoring.Metrics) *Manager {
	m.metrics = metrics
	return m
}

// Register tracks a newly created window
func (m *Manager) Register(h Handle) error {
	label := h.Label()
	if label == "" {
		return ErrEmptyLabel
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.windows[label]; exists {
		return fmt.Errorf("%w: %s", ErrWindowExists, label)
	}
	m.windows[label] = h
	m.metrics.SetWindowsOpen(len(m.windows))
	return nil
}

// Remove forgets a window, typically after it closed
func (m *Manager) Remove(label string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.windows[label]; !ok {
		return false
	}
	delete(m.windows, label)
	if m.focused == label {
		m.focused = ""
	}
	m.metrics.SetWindowsOpen(len(m.windows))
	return true
}

// Get resolves a window by label; absence is a normal outcome
func (m *Manager) Get(label string) (Handle, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	h, ok := m.windows[label]
	return h, ok
}

// Labels returns the labels of all open windows, sorted
func (m *Manager) Labels() []string {
	m.mu.RLock()
	defer m.mu.RUnlock()

	labels := make([]string, 0, len(m.windows))
	for label := range m.windows {
		labels = append(labels, label)
	}
	sort.Strings(labels)
	return labels
}

// Focused returns the label of the last focused window
func (m *Manager) Focused() (string, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.focused, m.focused != ""
}

// Focus requests OS focus for a window. It reports whether focus was requested.
func (m *Manager) Focus(label string) bool {
	h, ok := m.Get(label)
	if !ok {
		m.logger.Debug("Focus skipped, window absent", zap.String("window", label))
		m.metrics.RecordWindowAction("focus", "absent")
		return false
	}

	if err := h.SetFocus(); err != nil {
		m.logger.Debug("Focus request failed", zap.String("window", label), zap.Error(err))
		m.metrics.RecordWindowAction("focus", "error")
		return false
	}

	m.mu.Lock()
	// The window may have been removed while focus was requested
	if _, still := m.windows[label]; still {
		m.focused = label
	}
	m.mu.Unlock()

	m.metrics.RecordWindowAction("focus", "ok")
	return true
}

// FocusMain brings the main window to the foreground if it exists.
// A missing window is not an error.
func (m *Manager) FocusMain() bool {
	return m.Focus(MainLabel)
}

// OpenDevtools opens developer tooling for a window if it exists
func (m *Manager) OpenDevtools(label string) bool {
	h, ok := m.Get(label)
	if !ok {
		m.logger.Debug("Devtools skipped, window absent", zap.String("window", label))
		m.metrics.RecordWindowAction("devtools", "absent")
		return false
	}

	if err := h.OpenDevtools(); err != nil {
		m.logger.Debug("Devtools request failed", zap.String("window", label), zap.Error(err))
		m.metrics.RecordWindowAction("devtools", "error")
		return false
	}

	m.metrics.RecordWindowAction("devtools", "ok")
	return true
}

// EnableDevtoolsIfDebug opens devtools on the main window in debug builds.
// Release builds never touch the window.
func (m *Manager) EnableDevtoolsIfDebug(mode platform.BuildMode) bool {
	if !mode.IsDebug() {
		return false
	}
	return m.OpenDevtools(MainLabel)
}

// CloseAll closes every window; errors are logged and skipped
func (m *Manager) CloseAll() {
	m.mu.Lock()
	handles := make([]Handle, 0, len(m.windows))
	for _, h := range m.windows {
		handles = append(handles, h)
	}
	m.windows = make(map[string]Handle)
	m.focused = ""
	m.mu.Unlock()

	for _, h := range handles {
		if err := h.Close(); err != nil {
			m.logger.Warn("Failed to close window", zap.String("window", h.Label()), zap.Error(err))
		}
	}
	m.metrics.SetWindowsOpen(0)
}
