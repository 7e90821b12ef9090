// Package scope parses requested scopes and resolves them against the scope store.
package scope

import (
	"context"
	"fmt"
	"strings"

	oauth "github.com/giantswarm/oauth-core"
	"github.com/giantswarm/oauth-core/storage"
)

// DefaultDelimiter separates scopes in the "scope" request field
const DefaultDelimiter = " "

// Validator validates the scope field of token requests
type Validator struct {
	// Delimiter separates requested scopes (default: " ")
	Delimiter string

	// Defaults are granted when a request names no scope
	Defaults []string

	// Required rejects requests without scope when no default or original scope applies
	Required bool
}

// NewValidator creates a validator. An empty delimiter selects DefaultDelimiter.
func NewValidator(delimiter string, defaults []string, required bool) *Validator {
	if delimiter == "" {
		delimiter = DefaultDelimiter
	}
	return &Validator{
		Delimiter: delimiter,
		Defaults:  defaults,
		Required:  required,
	}
}

// Parse splits raw on the delimiter, trims each entry and drops empties
func (v *Validator) Parse(raw string) []string {
	delim := v.Delimiter
	if delim == "" {
		delim = DefaultDelimiter
	}

	parts := strings.Split(raw, delim)
	scopes := make([]string, 0, len(parts))
	for _, p := range parts {
		if p = strings.TrimSpace(p); p != "" {
			scopes = append(scopes, p)
		}
	}
	return scopes
}

// Validate resolves the requested scopes of req.
//
// original is the scope set of a previous grant (for example the token a
// refresh is based on); when non-empty, requests may only narrow it.
func (v *Validator) Validate(ctx context.Context, req oauth.Request, store storage.ScopeStore, original storage.ScopeSet) (storage.ScopeSet, error) {
	raw, _ := req.Get(oauth.FieldScope)
	requested := v.Parse(raw)

	if len(requested) == 0 {
		switch {
		case len(v.Defaults) > 0:
			requested = append(requested, v.Defaults...)
		case len(original) > 0:
			requested = original.IDs()
		case v.Required:
			return nil, oauth.ErrMissingParameter(oauth.FieldScope)
		}
	}

	if len(original) > 0 {
		for _, id := range requested {
			if !original.Has(id) {
				return nil, oauth.ErrSuspiciousScope(id)
			}
		}
	}

	scopes := make(storage.ScopeSet, len(requested))
	for _, id := range requested {
		if scopes.Has(id) {
			continue
		}
		s, err := store.Get(ctx, id)
		if err != nil {
			if storage.IsNotFound(err) {
				return nil, oauth.ErrUnknownScope(id)
			}
			return nil, fmt.Errorf("failed to get scope %s: %w", id, err)
		}
		scopes.Add(s)
	}

	return scopes, nil
}
