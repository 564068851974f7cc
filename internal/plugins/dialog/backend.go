package dialog

import (
	"context"
	"errors"
)

var ErrNoBackend = errors.New("no dialog backend available on this system")

// Kind is the severity of a message dialog
type Kind string

const (
	KindInfo    Kind = "info"
	KindWarning Kind = "warning"
	KindError   Kind = "error"
)

// MessageOptions configures message, ask and confirm dialogs
type MessageOptions struct {
	Title   string
	Message string
	Kind    Kind
}

// Filter restricts selectable files by extension
type Filter struct {
	Name       string   `json:"name"`
	Extensions []string `json:"extensions"`
}

// FileOptions configures open and save dialogs
type FileOptions struct {
	Title       string
	DefaultPath string
	Filters     []Filter
	Multiple    bool
	Directory   bool
}

// Backend shows native dialogs. Cancelled file dialogs return no paths and
// no error.
type Backend interface {
	Message(ctx context.Context, opts MessageOptions) error
	Ask(ctx context.Context, opts MessageOptions) (bool, error)
	Confirm(ctx context.Context, opts MessageOptions) (bool, error)
	Open(ctx context.Context, opts FileOptions) ([]string, error)
	Save(ctx context.Context, opts FileOptions) (string, bool, error)
}
