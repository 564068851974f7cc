// Package monitoring provides Prometheus metrics for the studio shell.
//
// Each Metrics value owns its registry so several hosts (or tests) can
// coexist in one process. The IPC bridge exposes it on GET /metrics.
//
// Metric Families:
//   - studio_ipc_*: renderer bridge requests
//   - studio_command_*: capability command calls
//   - studio_relaunch_events_total: forwarded secondary launches
//   - studio_window_*: window actions and open windows
//   - studio_events_*: host event stream
package monitoring
