package operations

import "fmt"

// Registry holds the steps of one run in execution order. It is built once
// by BuildRegistry before the run starts and is not modified afterwards.
type Registry struct {
	steps []Step
	index map[string]int
}

func NewRegistry() *Registry {
	return &Registry{index: map[string]int{}}
}

// Register appends step. IDs must be non-empty and unique because run state,
// spans and the manifest are keyed by them.
func (r *Registry) Register(step Step) error {
	if step == nil {
		return fmt.Errorf("register: nil step")
	}
	id := step.ID()
	if id == "" {
		return fmt.Errorf("register %q: empty step ID", step.Name())
	}
	if _, dup := r.index[id]; dup {
		return fmt.Errorf("register: step %s already registered", id)
	}
	r.index[id] = len(r.steps)
	r.steps = append(r.steps, step)
	return nil
}

// Lookup returns the step registered under id
func (r *Registry) Lookup(id string) (Step, bool) {
	i, ok := r.index[id]
	if !ok {
		return nil, false
	}
	return r.steps[i], true
}

// Steps returns the steps in execution order
func (r *Registry) Steps() []Step {
	return append([]Step(nil), r.steps...)
}

// IDs returns the step IDs in execution order
func (r *Registry) IDs() []string {
	ids := make([]string, len(r.steps))
	for i, s := range r.steps {
		ids[i] = s.ID()
	}
	return ids
}
