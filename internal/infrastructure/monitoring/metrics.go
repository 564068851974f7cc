package monitoring

import (
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds all Prometheus metrics of the shell
type Metrics struct {
	registry *prometheus.Registry

	// IPC metrics
	RequestsTotal   *prometheus.CounterVec
	RequestDuration *prometheus.HistogramVec

	// Capability metrics
	CapabilitiesRegistered prometheus.Gauge
	CommandCalls           *prometheus.CounterVec
	CommandDuration        *prometheus.HistogramVec

	// Lifecycle metrics
	RelaunchEvents prometheus.Counter
	WindowActions  *prometheus.CounterVec
	WindowsOpen    prometheus.Gauge

	// Event stream metrics
	EventsEmitted    *prometheus.CounterVec
	EventSubscribers prometheus.Gauge

	Uptime    prometheus.GaugeFunc
	startTime time.Time
}

// NewMetrics creates a metrics collector backed by its own registry
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector())
	factory := promauto.With(reg)

	m := &Metrics{
		registry:  reg,
		startTime: time.Now(),

		RequestsTotal: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studio_ipc_requests_total",
				Help: "Total number of IPC requests",
			},
			[]string{"method", "path", "status"},
		),
		RequestDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studio_ipc_request_duration_seconds",
				Help:    "IPC request duration in seconds",
				Buckets: []float64{.0005, .001, .005, .01, .05, .1, .5, 1, 5},
			},
			[]string{"method", "path"},
		),

		CapabilitiesRegistered: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "studio_capabilities_registered",
				Help: "Number of registered capability plugins",
			},
		),
		CommandCalls: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studio_command_calls_total",
				Help: "Total number of capability command invocations",
			},
			[]string{"capability", "command", "status"},
		),
		CommandDuration: factory.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "studio_command_duration_seconds",
				Help:    "Capability command duration in seconds",
				Buckets: prometheus.DefBuckets,
			},
			[]string{"capability", "command"},
		),

		RelaunchEvents: factory.NewCounter(
			prometheus.CounterOpts{
				Name: "studio_relaunch_events_total",
				Help: "Secondary launches forwarded to this instance",
			},
		),
		WindowActions: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studio_window_actions_total",
				Help: "Window actions by outcome",
			},
			[]string{"action", "outcome"},
		),
		WindowsOpen: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "studio_windows_open",
				Help: "Number of open windows",
			},
		),

		EventsEmitted: factory.NewCounterVec(
			prometheus.CounterOpts{
				Name: "studio_events_emitted_total",
				Help: "Host events emitted to renderers",
			},
			[]string{"event"},
		),
		EventSubscribers: factory.NewGauge(
			prometheus.GaugeOpts{
				Name: "studio_event_subscribers",
				Help: "Connected event stream subscribers",
			},
		),
	}

	m.Uptime = factory.NewGaugeFunc(
		prometheus.GaugeOpts{
			Name: "studio_uptime_seconds",
			Help: "Shell uptime in seconds",
		},
		func() float64 { return time.Since(m.startTime).Seconds() },
	)

	return m
}

// Registry returns the underlying Prometheus registry
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler returns the Prometheus exposition handler
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest records an IPC request
func (m *Metrics) RecordRequest(method, path, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(method, path, status).Inc()
	m.RequestDuration.WithLabelValues(method, path).Observe(duration.Seconds())
}

// RecordCommand records a capability command call
func (m *Metrics) RecordCommand(capability, command, status string, duration time.Duration) {
	if m == nil {
		return
	}
	m.CommandCalls.WithLabelValues(capability, command, status).Inc()
	m.CommandDuration.WithLabelValues(capability, command).Observe(duration.Seconds())
}

// SetCapabilities records the number of registered capabilities
func (m *Metrics) SetCapabilities(count int) {
	if m == nil {
		return
	}
	m.CapabilitiesRegistered.Set(float64(count))
}

// IncRelaunch records a forwarded secondary launch
func (m *Metrics) IncRelaunch() {
	if m == nil {
		return
	}
	m.RelaunchEvents.Inc()
}

// RecordWindowAction records a window action; outcome is "ok", "absent" or "error"
func (m *Metrics) RecordWindowAction(action, outcome string) {
	if m == nil {
		return
	}
	m.WindowActions.WithLabelValues(action, outcome).Inc()
}

// SetWindowsOpen records the number of open windows
func (m *Metrics) SetWindowsOpen(count int) {
	if m == nil {
		return
	}
	m.WindowsOpen.Set(float64(count))
}

// RecordEvent records an emitted host event
func (m *Metrics) RecordEvent(name string) {
	if m == nil {
		return
	}
	m.EventsEmitted.WithLabelValues(name).Inc()
}

// SetSubscribers records the number of event stream subscribers
func (m *Metrics) SetSubscribers(count int) {
	if m == nil {
		return
	}
	m.EventSubscribers.Set(float64(count))
}
