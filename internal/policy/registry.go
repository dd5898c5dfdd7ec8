package policy

import "fmt"

// Registry maps actor keys to policies and remembers declaration order.
// It is immutable after construction.
type Registry struct {
	order    []string
	policies map[string]Policy
}

func NewRegistry(policies ...Policy) (*Registry, error) {
	r := &Registry{policies: make(map[string]Policy, len(policies))}
	for _, p := range policies {
		if err := p.Validate(); err != nil {
			return nil, err
		}
		if _, dup := r.policies[p.Key]; dup {
			return nil, fmt.Errorf("duplicate policy key %q", p.Key)
		}
		r.order = append(r.order, p.Key)
		r.policies[p.Key] = p
	}
	return r, nil
}

func (r *Registry) Get(key string) (Policy, bool) {
	p, ok := r.policies[key]
	return p, ok
}

// Keys returns actor keys in declaration order.
func (r *Registry) Keys() []string {
	out := make([]string, len(r.order))
	copy(out, r.order)
	return out
}

// Policies returns policies in declaration order.
func (r *Registry) Policies() []Policy {
	out := make([]Policy, 0, len(r.order))
	for _, k := range r.order {
		out = append(out, r.policies[k])
	}
	return out
}

// ByHandle finds a policy by its public handle.
func (r *Registry) ByHandle(handle string) (Policy, bool) {
	for _, k := range r.order {
		if p := r.policies[k]; p.ActorHandle == handle {
			return p, true
		}
	}
	return Policy{}, false
}

func (r *Registry) Len() int {
	return len(r.order)
}
