package console

import (
	"fmt"
	"sync"
)

// Source is an alert source feeding the console: the queue poller, the push
// socket listener, or anything else that can be started and stopped as a
// unit.
type Source interface {
	// Start begins producing alerts. Returns an error if the source cannot
	// be started.
	Start() error

	// Stop shuts the source down and releases its resources.
	Stop() error

	// Name returns the source's stable name, used for registration and logs.
	Name() string
}

// Registry tracks the active alert sources.
// It provides thread-safe operations for registering, listing, and stopping sources.
type Registry struct {
	mu      sync.RWMutex
	sources map[string]Source
}

// NewRegistry creates an empty source registry.
func NewRegistry() *Registry {
	return &Registry{
		sources: make(map[string]Source),
	}
}

// Register adds a source to the registry.
// Returns an error if a source with the same name already exists.
func (r *Registry) Register(source Source) error {
	if source == nil {
		return fmt.Errorf("cannot register nil source")
	}

	name := source.Name()
	if name == "" {
		return fmt.Errorf("source name cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.sources[name]; exists {
		return fmt.Errorf("source %s already registered", name)
	}

	r.sources[name] = source
	return nil
}

// List returns all registered sources.
// Returns a copy of the source slice to avoid race conditions.
func (r *Registry) List() []Source {
	r.mu.RLock()
	defer r.mu.RUnlock()

	sources := make([]Source, 0, len(r.sources))
	for _, source := range r.sources {
		sources = append(sources, source)
	}

	return sources
}

// Count returns the number of registered sources.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()

	return len(r.sources)
}

// StartAll starts every registered source, stopping the ones already started
// if any of them fails so a partial start never leaks running sources.
func (r *Registry) StartAll() error {
	started := make([]Source, 0, r.Count())

	for _, source := range r.List() {
		if err := source.Start(); err != nil {
			for _, s := range started {
				_ = s.Stop()
			}
			return fmt.Errorf("failed to start source %s: %w", source.Name(), err)
		}
		started = append(started, source)
	}

	return nil
}

// StopAll stops all registered sources.
// Returns the first error encountered, but continues stopping the rest.
func (r *Registry) StopAll() error {
	var firstErr error
	for _, source := range r.List() {
		if err := source.Stop(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("failed to stop source %s: %w", source.Name(), err)
		}
	}

	return firstErr
}
