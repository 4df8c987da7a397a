package registry

import (
	"sync"

	"github.com/turtacn/CameraShell/pkg/ability"
)

// Registry holds the application context published at creation so that
// asynchronous collaborators can retrieve it later. It is written by the
// lifecycle callbacks and read from permission goroutines.
type Registry struct {
	mu  sync.RWMutex
	app ability.ApplicationContext
}

// New creates an empty Registry.
func New() *Registry {
	return &Registry{}
}

// Set publishes app, replacing any previous context.
func (r *Registry) Set(app ability.ApplicationContext) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.app = app
}

// Get returns the published context, if any.
func (r *Registry) Get() (ability.ApplicationContext, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.app, r.app != nil
}

// Clear drops the published context. Clearing an empty registry is a no-op.
func (r *Registry) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.app = nil
}

var _ ability.ContextRegistry = (*Registry)(nil)

// Personal.AI order the ending
