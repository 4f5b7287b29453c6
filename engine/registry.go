package engine

import (
	"fmt"

	"github.com/recallhq/recall-go-sdk/core"
)

// Registry is an immutable snapshot of the capabilities exposed to the
// model, assembled at startup. Lookups are by name; unknown names are
// rejected with a typed error result by the dispatcher, never resolved
// dynamically.
type Registry struct {
	caps  map[string]core.Capability
	order []string
}

// NewRegistry builds a registry from capabilities. Duplicate or empty
// names and nil handlers are rejected.
func NewRegistry(caps ...core.Capability) (*Registry, error) {
	r := &Registry{
		caps:  make(map[string]core.Capability, len(caps)),
		order: make([]string, 0, len(caps)),
	}
	for _, c := range caps {
		if c.Name == "" {
			return nil, fmt.Errorf("capability with empty name")
		}
		if c.Handler == nil {
			return nil, fmt.Errorf("capability %q has no handler", c.Name)
		}
		if _, exists := r.caps[c.Name]; exists {
			return nil, fmt.Errorf("duplicate capability %q", c.Name)
		}
		r.caps[c.Name] = c
		r.order = append(r.order, c.Name)
	}
	return r, nil
}

// Get looks up a capability by name.
func (r *Registry) Get(name string) (core.Capability, bool) {
	c, ok := r.caps[name]
	return c, ok
}

// Capabilities returns all capabilities in registration order.
func (r *Registry) Capabilities() []core.Capability {
	out := make([]core.Capability, len(r.order))
	for i, name := range r.order {
		out[i] = r.caps[name]
	}
	return out
}

// Len reports the number of registered capabilities.
func (r *Registry) Len() int {
	return len(r.order)
}
