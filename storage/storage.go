package storage

import (
	"context"
	"errors"
)

// Sentinel errors returned (wrapped) by storage implementations
var (
	// ErrNotFound is returned when an entity does not exist
	ErrNotFound = errors.New("not found")

	// ErrInvalidCredentials is returned when a client exists but the
	// supplied secret or redirect URI does not match its registration
	ErrInvalidCredentials = errors.New("invalid client credentials")
)

// ClientStore defines the interface for looking up and registering clients.
// All methods accept context.Context for tracing and cancellation.
type ClientStore interface {
	// Get returns the client with the given id. When secret is non-empty it
	// must match the stored hash. When redirectURI is non-empty it must
	// match a registered endpoint; otherwise the default endpoint (if any)
	// is resolved into Client.RedirectURI.
	Get(ctx context.Context, id, secret, redirectURI string) (*Client, error)

	// Create registers a client. secret is the plain secret; it is stored hashed.
	Create(ctx context.Context, id, secret, name string, endpoints []ClientEndpoint, trusted bool) (*Client, error)

	// Delete removes a client and its endpoints
	Delete(ctx context.Context, id string) error
}

// TokenStore defines the interface for persisting access and refresh tokens
type TokenStore interface {
	// Create persists a token without scopes
	Create(ctx context.Context, token, tokenType, clientID, userID string, expires int64) (*Token, error)

	// AssociateScopes links scopes to an existing token
	AssociateScopes(ctx context.Context, token string, scopes ScopeSet) error

	// Get returns a token without its scopes
	Get(ctx context.Context, token string) (*Token, error)

	// GetWithScopes returns a token with its scope set attached
	GetWithScopes(ctx context.Context, token string) (*Token, error)

	// Delete removes a token and its scope associations
	Delete(ctx context.Context, token string) error
}

// AuthorizationCodeStore defines the interface for persisting authorization codes
type AuthorizationCodeStore interface {
	// Create persists an authorization code without scopes
	Create(ctx context.Context, code, clientID, userID, redirectURI string, expires int64) (*AuthorizationCode, error)

	// AssociateScopes links scopes to an existing code
	AssociateScopes(ctx context.Context, code string, scopes ScopeSet) error

	// Get returns a code with its scope set attached
	Get(ctx context.Context, code string) (*AuthorizationCode, error)

	// Delete removes a code and its scope associations
	Delete(ctx context.Context, code string) error
}

// ScopeStore defines the interface for the scope catalogue
type ScopeStore interface {
	// Get returns the scope with the given id
	Get(ctx context.Context, id string) (*Scope, error)

	// Create adds or replaces a scope
	Create(ctx context.Context, scope *Scope) error
}

// Adapter bundles the four stores of one backend.
// An Adapter holds a memo cache and must not outlive the request it was opened for.
type Adapter interface {
	Clients() ClientStore
	Tokens() TokenStore
	AuthorizationCodes() AuthorizationCodeStore
	Scopes() ScopeStore
}

// Backend opens request-scoped adapters over a shared connection
type Backend interface {
	Open() Adapter
}

// BackendFunc adapts a function to Backend
type BackendFunc func() Adapter

// Open implements Backend
func (f BackendFunc) Open() Adapter {
	return f()
}

// IsNotFound reports whether err is (or wraps) ErrNotFound
func IsNotFound(err error) bool {
	return errors.Is(err, ErrNotFound)
}
