package dialog

import (
	"context"
	"fmt"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

// ID is the capability ID
const ID = "dialog"

// Plugin shows native message and file dialogs
type Plugin struct {
	backend      Backend
	defaultTitle string
}

// New creates the dialog plugin. A nil backend selects the system backend.
func New(backend Backend, defaultTitle string) *Plugin {
	if backend == nil {
		backend = NewSystemBackend()
	}
	return &Plugin{backend: backend, defaultTitle: defaultTitle}
}

// Definition returns capability metadata
func (p *Plugin) Definition() types.Capability {
	message := []types.Parameter{
		{Name: "message", Type: "string", Description: "Dialog text", Required: true},
		{Name: "title", Type: "string", Description: "Window title", Required: false},
		{Name: "kind", Type: "string", Description: "info, warning or error", Required: false},
	}
	file := []types.Parameter{
		{Name: "title", Type: "string", Description: "Window title", Required: false},
		{Name: "default_path", Type: "string", Description: "Initial path", Required: false},
		{Name: "filters", Type: "array", Description: "[{name, extensions}]", Required: false},
	}

	return types.Capability{
		ID:          ID,
		Name:        "Dialog",
		Description: "Native message and file dialogs",
		Category:    types.CategoryDialog,
		Commands: []types.Command{
			{ID: ID + ".message", Name: "Message", Description: "Show a message", Parameters: message, Returns: "object"},
			{ID: ID + ".ask", Name: "Ask", Description: "Yes/No question", Parameters: message, Returns: "boolean"},
			{ID: ID + ".confirm", Name: "Confirm", Description: "Ok/Cancel question", Parameters: message, Returns: "boolean"},
			{
				ID:          ID + ".open",
				Name:        "Open",
				Description: "Pick files or a directory",
				Parameters: append(file,
					types.Parameter{Name: "multiple", Type: "boolean", Description: "Allow several files", Required: false},
					types.Parameter{Name: "directory", Type: "boolean", Description: "Pick a directory", Required: false},
				),
				Returns: "array",
			},
			{ID: ID + ".save", Name: "Save", Description: "Pick a save location", Parameters: file, Returns: "string"},
		},
	}
}

// Execute runs a dialog command
func (p *Plugin) Execute(ctx context.Context, command string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	switch command {
	case ID + ".message":
		return p.message(ctx, params)
	case ID + ".ask":
		return p.question(ctx, params, p.backend.Ask)
	case ID + ".confirm":
		return p.question(ctx, params, p.backend.Confirm)
	case ID + ".open":
		return p.open(ctx, params)
	case ID + ".save":
		return p.save(ctx, params)
	default:
		return nil, fmt.Errorf("%w: %s", capability.ErrUnknownCommand, command)
	}
}

func (p *Plugin) messageOptions(params map[string]interface{}) (MessageOptions, bool) {
	msg, ok := params["message"].(string)
	if !ok || msg == "" {
		return MessageOptions{}, false
	}
	opts := MessageOptions{Message: msg, Title: p.defaultTitle, Kind: KindInfo}
	if t, ok := params["title"].(string); ok && t != "" {
		opts.Title = t
	}
	if k, ok := params["kind"].(string); ok {
		switch Kind(k) {
		case KindWarning, KindError:
			opts.Kind = Kind(k)
		}
	}
	return opts, true
}

func (p *Plugin) fileOptions(params map[string]interface{}) FileOptions {
	opts := FileOptions{Title: p.defaultTitle}
	if t, ok := params["title"].(string); ok && t != "" {
		opts.Title = t
	}
	opts.DefaultPath, _ = params["default_path"].(string)
	opts.Multiple, _ = params["multiple"].(bool)
	opts.Directory, _ = params["directory"].(bool)

	if raw, ok := params["filters"].([]interface{}); ok {
		for _, item := range raw {
			m, ok := item.(map[string]interface{})
			if !ok {
				continue
			}
			f := Filter{}
			f.Name, _ = m["name"].(string)
			if exts, ok := m["extensions"].([]interface{}); ok {
				for _, e := range exts {
					if s, ok := e.(string); ok && s != "" {
						f.Extensions = append(f.Extensions, s)
					}
				}
			}
			if len(f.Extensions) > 0 {
				opts.Filters = append(opts.Filters, f)
			}
		}
	}
	return opts
}

func (p *Plugin) message(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	opts, ok := p.messageOptions(params)
	if !ok {
		return types.Failure("message parameter required")
	}
	if err := p.backend.Message(ctx, opts); err != nil {
		return types.Failure(err.Error())
	}
	return types.Success(map[string]interface{}{"shown": true})
}

func (p *Plugin) question(ctx context.Context, params map[string]interface{}, ask func(context.Context, MessageOptions) (bool, error)) (*types.Result, error) {
	opts, ok := p.messageOptions(params)
	if !ok {
		return types.Failure("message parameter required")
	}
	answer, err := ask(ctx, opts)
	if err != nil {
		return types.Failure(err.Error())
	}
	return types.Success(map[string]interface{}{"answer": answer})
}

func (p *Plugin) open(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	paths, err := p.backend.Open(ctx, p.fileOptions(params))
	if err != nil {
		return types.Failure(err.Error())
	}
	if paths == nil {
		return types.Success(map[string]interface{}{"paths": nil, "cancelled": true})
	}
	return types.Success(map[string]interface{}{"paths": paths, "cancelled": false})
}

func (p *Plugin) save(ctx context.Context, params map[string]interface{}) (*types.Result, error) {
	path, chosen, err := p.backend.Save(ctx, p.fileOptions(params))
	if err != nil {
		return types.Failure(err.Error())
	}
	if !chosen {
		return types.Success(map[string]interface{}{"path": nil, "cancelled": true})
	}
	return types.Success(map[string]interface{}{"path": path, "cancelled": false})
}
