package keyvalue

import (
	"context"
	"fmt"

	"github.com/giantswarm/oauth-core/storage"
)

type scopeStore Adapter

var _ storage.ScopeStore = (*scopeStore)(nil)

// Get returns the scope with the given id
func (s *scopeStore) Get(ctx context.Context, id string) (*storage.Scope, error) {
	a := (*Adapter)(s)
	if scope, ok := a.cache.scopes[id]; ok {
		return scope, nil
	}

	var record scopeRecord
	found, err := a.getJSON(ctx, key(a.backend.scopes, id), &record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: scope %q", storage.ErrNotFound, id)
	}

	scope := record.toScope()
	a.cache.scopes[id] = scope
	return scope, nil
}

// Create adds or replaces a scope
func (s *scopeStore) Create(ctx context.Context, scope *storage.Scope) error {
	if scope == nil || scope.Scope == "" {
		return fmt.Errorf("invalid scope")
	}
	a := (*Adapter)(s)
	if err := a.putJSON(ctx, a.backend.scopes, scope.Scope, toScopeRecord(scope)); err != nil {
		return err
	}
	a.cache.scopes[scope.Scope] = scope
	return nil
}
