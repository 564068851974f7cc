package types

// Category groups capabilities by the host service they expose
type Category string

const (
	CategoryProcess    Category = "process"
	CategoryDialog     Category = "dialog"
	CategoryFilesystem Category = "filesystem"
	CategorySystem     Category = "system"
	CategoryNetwork    Category = "network"
	CategoryLifecycle  Category = "lifecycle"
)

// Capability describes a registered capability plugin
type Capability struct {
	ID          string    `json:"id"`
	Name        string    `json:"name"`
	Description string    `json:"description"`
	Category    Category  `json:"category"`
	Desktop     bool      `json:"desktop_only,omitempty"`
	Commands    []Command `json:"commands"`
}

// Command describes an invocable capability command
type Command struct {
	ID          string      `json:"id"`
	Name        string      `json:"name"`
	Description string      `json:"description"`
	Parameters  []Parameter `json:"parameters"`
	Returns     string      `json:"returns"`
}

// Parameter describes a command parameter
type Parameter struct {
	Name        string `json:"name"`
	Type        string `json:"type"`
	Description string `json:"description"`
	Required    bool   `json:"required"`
}

// Context carries the caller of a command
type Context struct {
	Window *string `json:"window,omitempty"`
	Origin *string `json:"origin,omitempty"`
}

// Result represents a command execution result
type Result struct {
	Success bool                   `json:"success"`
	Data    map[string]interface{} `json:"data,omitempty"`
	Error   *string                `json:"error,omitempty"`
}

// Success builds a successful result
func Success(data map[string]interface{}) (*Result, error) {
	return &Result{Success: true, Data: data}, nil
}

// Failure builds a failed result; the error is reported to the caller, not to Go
func Failure(message string) (*Result, error) {
	msg := message
	return &Result{Success: false, Error: &msg}, nil
}
