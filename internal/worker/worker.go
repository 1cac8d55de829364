// Package worker defines the unit-of-work executor abstraction and the
// registry used to route tasks to workers by capability.
package worker

import (
	"context"
	"sync"

	"github.com/ShayCichocki/maestro/pkg/models"
)

// Worker executes a single task and produces a result. Implementations may
// suspend on external calls; the scheduler never blocks outside of waiting
// on workers.
type Worker interface {
	// Name identifies the worker in traces and events.
	Name() string
	// Capability is the label tasks are matched against.
	Capability() models.Capability
	// Execute runs one task. A returned error is converted by the
	// dispatcher into a failed TaskResult; it never aborts sibling tasks.
	Execute(ctx context.Context, task *models.Task) (*models.TaskResult, error)
}

// Registry holds workers in registration order and routes tasks to them.
type Registry struct {
	mu      sync.RWMutex
	workers []Worker
	byName  map[string]Worker
}

// NewRegistry creates an empty registry.
func NewRegistry() *Registry {
	return &Registry{byName: make(map[string]Worker)}
}

// Register adds a worker. Registration order is significant: it determines
// the fallback worker and consensus tie-breaking.
func (r *Registry) Register(w Worker) {
	r.mu.Lock()
	defer r.mu.Unlock()
	if _, exists := r.byName[w.Name()]; exists {
		return
	}
	r.workers = append(r.workers, w)
	r.byName[w.Name()] = w
}

// PickFor returns the worker whose capability label exactly matches the
// task type. If none matches, the first-registered worker is returned and
// fallback is true; this signals a capability-routing gap the caller must
// surface.
func (r *Registry) PickFor(task *models.Task) (w Worker, fallback bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	for _, candidate := range r.workers {
		if string(candidate.Capability()) == task.Type {
			return candidate, false
		}
	}
	if len(r.workers) == 0 {
		return nil, false
	}
	return r.workers[0], true
}

// All returns the workers in registration order.
func (r *Registry) All() []Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Worker, len(r.workers))
	copy(out, r.workers)
	return out
}

// Get returns the worker with the given name, or nil.
func (r *Registry) Get(name string) Worker {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.byName[name]
}

// Count returns the number of registered workers.
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.workers)
}
