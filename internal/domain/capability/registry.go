package capability

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/GriffinCanCode/AgentOS/studio/internal/infrastructure/monitoring"
	"github.com/GriffinCanCode/AgentOS/studio/internal/shared/types"
)

var (
	ErrEmptyID             = errors.New("capability ID cannot be empty")
	ErrDuplicateCapability = errors.New("capability already registered")
	ErrUnknownCapability   = errors.New("capability not found")
	ErrUnknownCommand      = errors.New("unknown command")
	ErrInvalidCommand      = errors.New("invalid command format")
)

// Provider is implemented by every capability plugin
type Provider interface {
	Definition() types.Capability
	Execute(ctx context.Context, command string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error)
}

// Registry holds capability providers in registration order
type Registry struct {
	mu        sync.RWMutex
	order     []string
	providers map[string]Provider
	metrics   *monitoring.Metrics
}

// NewRegistry creates an empty registry
func NewRegistry() *Registry {
	return &Registry{providers: make(map[string]Provider)}
}

// WithMetrics adds command metrics to the registry
func (r *Registry) WithMetrics(metrics *monitoring.Metrics) *Registry {
	r.metrics = metrics
	return r
}

// Register adds a provider. A second provider with the same ID is rejected.
func (r *Registry) Register(provider Provider) error {
	def := provider.Definition()
	if def.ID == "" {
		return ErrEmptyID
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.providers[def.ID]; exists {
		return fmt.Errorf("%w: %s", ErrDuplicateCapability, def.ID)
	}
	r.providers[def.ID] = provider
	r.order = append(r.order, def.ID)
	r.metrics.SetCapabilities(len(r.order))
	return nil
}

// Get retrieves a provider by ID
func (r *Registry) Get(id string) (Provider, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	p, ok := r.providers[id]
	return p, ok
}

// IDs returns capability IDs in registration order
func (r *Registry) IDs() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, len(r.order))
	copy(ids, r.order)
	return ids
}

// Len returns the number of registered capabilities
func (r *Registry) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.order)
}

// List returns definitions in registration order, optionally filtered by category
func (r *Registry) List(category *types.Category) []types.Capability {
	r.mu.RLock()
	defer r.mu.RUnlock()

	defs := make([]types.Capability, 0, len(r.order))
	for _, id := range r.order {
		def := r.providers[id].Definition()
		if category == nil || def.Category == *category {
			defs = append(defs, def)
		}
	}
	return defs
}

// Execute routes "capability.command" to its provider
func (r *Registry) Execute(ctx context.Context, command string, params map[string]interface{}, appCtx *types.Context) (*types.Result, error) {
	capID, ok := splitCommand(command)
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrInvalidCommand, command)
	}

	provider, found := r.Get(capID)
	if !found {
		return nil, fmt.Errorf("%w: %s", ErrUnknownCapability, capID)
	}

	timer := monitoring.NewTimer(r.metrics, capID, command)
	result, err := provider.Execute(ctx, command, params, appCtx)
	switch {
	case err != nil:
		timer.Stop("error")
	case result != nil && !result.Success:
		timer.Stop("failure")
	default:
		timer.Stop("success")
	}
	return result, err
}

// Stats returns registry statistics
func (r *Registry) Stats() map[string]interface{} {
	r.mu.RLock()
	defer r.mu.RUnlock()

	totalCommands := 0
	categories := make(map[string]int)
	for _, id := range r.order {
		def := r.providers[id].Definition()
		totalCommands += len(def.Commands)
		categories[string(def.Category)]++
	}

	return map[string]interface{}{
		"total_capabilities": len(r.order),
		"total_commands":     totalCommands,
		"categories":         categories,
	}
}

// splitCommand extracts the capability ID from "capability.command".
// Capability IDs may contain dashes but not dots.
func splitCommand(command string) (string, bool) {
	i := strings.IndexByte(command, '.')
	if i <= 0 || i == len(command)-1 {
		return "", false
	}
	return command[:i], true
}
