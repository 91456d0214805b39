package operations

import (
	"fmt"
	"sync"
)

// Registry manages the steps of a pipeline.
type Registry struct {
	steps map[string]Step
	order []string // registration order
	mu    sync.RWMutex
}

// NewRegistry creates a new step registry
func NewRegistry() *Registry {
	return &Registry{steps: make(map[string]Step)}
}

// Register adds a step to the registry
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("cannot register nil step")
	}
	id := step.ID()
	if id == "" {
		return fmt.Errorf("step ID cannot be empty")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.steps[id]; exists {
		return fmt.Errorf("step %s already registered", id)
	}
	r.steps[id] = step
	r.order = append(r.order, id)
	return nil
}

// Get retrieves a step by ID
func (r *Registry) Get(id string) (Step, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	step, ok := r.steps[id]
	return step, ok
}

// Has checks if a step is registered
func (r *Registry) Has(id string) bool {
	_, ok := r.Get(id)
	return ok
}

// List returns the steps in registration order.
func (r *Registry) List() []Step {
	r.mu.RLock()
	defer r.mu.RUnlock()
	steps := make([]Step, len(r.order))
	for i, id := range r.order {
		steps[i] = r.steps[id]
	}
	return steps
}

// Count returns the number of registered steps
func (r *Registry) Count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.steps)
}

// ValidateDependencies checks that every dependency is registered.
func (r *Registry) ValidateDependencies() error {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.validateLocked()
}

func (r *Registry) validateLocked() error {
	for _, id := range r.order {
		for _, dep := range r.steps[id].Dependencies() {
			if _, ok := r.steps[dep]; !ok {
				return NewDependencyError(id, fmt.Sprintf("depends on unregistered step %s", dep))
			}
		}
	}
	return nil
}

// DependencyOrder returns the steps sorted so that every step follows its
// dependencies. Independent steps keep registration order.
func (r *Registry) DependencyOrder() ([]Step, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if err := r.validateLocked(); err != nil {
		return nil, err
	}

	inDegree := make(map[string]int, len(r.steps))
	dependents := make(map[string][]string, len(r.steps))
	for _, id := range r.order {
		deps := r.steps[id].Dependencies()
		inDegree[id] = len(deps)
		for _, dep := range deps {
			dependents[dep] = append(dependents[dep], id)
		}
	}

	// Kahn's algorithm; the queue is scanned in registration order.
	done := make(map[string]bool, len(r.steps))
	result := make([]Step, 0, len(r.steps))
	for len(result) < len(r.order) {
		progressed := false
		for _, id := range r.order {
			if done[id] || inDegree[id] > 0 {
				continue
			}
			done[id] = true
			result = append(result, r.steps[id])
			for _, d := range dependents[id] {
				inDegree[d]--
			}
			progressed = true
			break
		}
		if !progressed {
			return nil, NewDependencyError("", "circular dependency between steps")
		}
	}
	return result, nil
}
