package bootstrap

import (
	"context"
	"errors"
	"fmt"

	"github.com/GriffinCanCode/AgentOS/studio/internal/domain/capability"
	"github.com/GriffinCanCode/AgentOS/studio/internal/host"
)

var (
	ErrDuplicateCapability = capability.ErrDuplicateCapability
	ErrSetupAlreadySet     = errors.New("setup hook already set")
	ErrBuilderConsumed     = errors.New("builder already built")
)

// Builder collects plugins and the setup hook of an application. Errors
// are kept and reported by Build, so registration calls can be chained.
type Builder struct {
	opts     host.Options
	plugins  []host.Plugin
	ids      map[string]struct{}
	setup    host.SetupFunc
	errs     []error
	consumed bool
}

// NewBuilder starts an application description. Plugins and Setup in opts
// are ignored; use Plugin and Setup.
func NewBuilder(opts host.Options) *Builder {
	opts.Plugins = nil
	opts.Setup = nil
	return &Builder{opts: opts, ids: make(map[string]struct{})}
}

// Plugin appends a plugin. Registration order is preserved.
func (b *Builder) Plugin(p host.Plugin) *Builder {
	id := p.Definition().ID
	if _, dup := b.ids[id]; dup {
		b.errs = append(b.errs, fmt.Errorf("%w: %s", ErrDuplicateCapability, id))
		return b
	}
	b.ids[id] = struct{}{}
	b.plugins = append(b.plugins, p)
	return b
}

// Plugins appends plugins in order
func (b *Builder) Plugins(ps ...host.Plugin) *Builder {
	for _, p := range ps {
		b.Plugin(p)
	}
	return b
}

// Setup sets the hook run once after windows exist and before the event
// loop. Only one hook may be set.
func (b *Builder) Setup(fn host.SetupFunc) *Builder {
	if b.setup != nil {
		b.errs = append(b.errs, ErrSetupAlreadySet)
		return b
	}
	b.setup = fn
	return b
}

// IDs returns the registered capability IDs in order
func (b *Builder) IDs() []string {
	ids := make([]string, len(b.plugins))
	for i, p := range b.plugins {
		ids[i] = p.Definition().ID
	}
	return ids
}

// Build creates and starts the application. The builder cannot be reused.
func (b *Builder) Build(ctx context.Context) (*host.App, error) {
	if b.consumed {
		return nil, ErrBuilderConsumed
	}
	b.consumed = true

	if err := errors.Join(b.errs...); err != nil {
		return nil, err
	}

	opts := b.opts
	opts.Plugins = b.plugins
	opts.Setup = b.setup

	app, err := host.New(opts)
	if err != nil {
		return nil, err
	}
	if err := app.Start(ctx); err != nil {
		return nil, err
	}
	return app, nil
}

// Run builds the application and blocks on its event loop
func (b *Builder) Run(ctx context.Context) (*host.App, error) {
	app, err := b.Build(ctx)
	if err != nil {
		return nil, err
	}
	return app, app.Run(ctx)
}
