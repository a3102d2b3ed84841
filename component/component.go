// Package component defines the lifecycle interface for the core's
// long-lived services (redis client, rate-limiter cleanup, session sweep)
// and a registry that starts them in order and stops them in reverse.
package component

import (
	"context"
	"fmt"
	"sync"

	"github.com/loomworks/authcore/logger"
)

// Component represents a lifecycle-managed service.
type Component interface {
	// Name returns the unique name of the component for registration.
	Name() string

	// Start initializes and starts the component.
	Start(ctx context.Context) error

	// Stop gracefully shuts down the component and releases resources.
	Stop(ctx context.Context) error
}

// Registry manages component lifecycle with deterministic ordering.
// Components are started in registration order and stopped in reverse.
type Registry struct {
	mu      sync.Mutex
	entries []registryEntry
	lookup  map[string]bool
	log     *logger.Logger
}

type registryEntry struct {
	component Component
	started   bool
}

// NewRegistry creates a new component registry.
func NewRegistry(log *logger.Logger) *Registry {
	return &Registry{
		lookup: make(map[string]bool),
		log:    log.WithComponent("registry"),
	}
}

// Register adds a component. Register dependencies first; they start first
// and stop last.
func (r *Registry) Register(c Component) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	name := c.Name()
	if r.lookup[name] {
		return fmt.Errorf("component %s already registered", name)
	}
	r.entries = append(r.entries, registryEntry{component: c})
	r.lookup[name] = true
	return nil
}

// StartAll starts all components in registration order. On the first
// failure it stops the already-started components and returns the error.
func (r *Registry) StartAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i := range r.entries {
		name := r.entries[i].component.Name()
		if err := r.entries[i].component.Start(ctx); err != nil {
			r.log.Error("component start failed", logger.Fields("component", name, "error", err.Error()))
			r.stopStarted(ctx)
			return fmt.Errorf("start %s: %w", name, err)
		}
		r.entries[i].started = true
		r.log.Debug("component started", logger.Fields("component", name))
	}
	return nil
}

// StopAll stops all started components in reverse registration order,
// collecting errors rather than aborting on the first.
func (r *Registry) StopAll(ctx context.Context) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.stopStarted(ctx)
}

func (r *Registry) stopStarted(ctx context.Context) error {
	var firstErr error
	for i := len(r.entries) - 1; i >= 0; i-- {
		if !r.entries[i].started {
			continue
		}
		name := r.entries[i].component.Name()
		if err := r.entries[i].component.Stop(ctx); err != nil {
			r.log.Error("component stop failed", logger.Fields("component", name, "error", err.Error()))
			if firstErr == nil {
				firstErr = fmt.Errorf("stop %s: %w", name, err)
			}
			continue
		}
		r.entries[i].started = false
	}
	return firstErr
}
