package grant

import (
	"fmt"
	"sort"
	"sync"
)

// Registry maps grant_type identifiers to grants
type Registry struct {
	mu     sync.RWMutex
	grants map[string]Grant
}

// NewRegistry creates a registry holding grants
func NewRegistry(grants ...Grant) (*Registry, error) {
	r := &Registry{grants: make(map[string]Grant)}
	for _, g := range grants {
		if err := r.Register(g); err != nil {
			return nil, err
		}
	}
	return r, nil
}

// Register adds g. Registering the same identifier twice is an error.
func (r *Registry) Register(g Grant) error {
	if g == nil || g.Identifier() == "" {
		return fmt.Errorf("grant must have an identifier")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.grants[g.Identifier()]; exists {
		return fmt.Errorf("grant %q is already registered", g.Identifier())
	}
	r.grants[g.Identifier()] = g
	return nil
}

// Get returns the grant registered for identifier
func (r *Registry) Get(identifier string) (Grant, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	g, ok := r.grants[identifier]
	return g, ok
}

// Identifiers returns the registered identifiers in sorted order
func (r *Registry) Identifiers() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.grants))
	for id := range r.grants {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
