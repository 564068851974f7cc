package types

import "time"

// RelaunchEvent is produced once per secondary launch attempt and
// consumed by the primary's relaunch callback. It is never persisted.
type RelaunchEvent struct {
	Args             []string `json:"args"`
	WorkingDirectory string   `json:"cwd"`
}

// Event is a host event broadcast to connected renderers
type Event struct {
	ID        string      `json:"id"`
	Name      string      `json:"event"`
	Window    string      `json:"window,omitempty"`
	Payload   interface{} `json:"payload,omitempty"`
	Timestamp time.Time   `json:"timestamp"`
}

// InvokeRequest is the IPC body for a capability command
type InvokeRequest struct {
	Command string                 `json:"command" binding:"required"`
	Params  map[string]interface{} `json:"params"`
	Window  *string                `json:"window,omitempty"`
}
