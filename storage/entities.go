package storage

import (
	"sort"
	"strings"
	"time"
)

// Token types
const (
	TokenTypeAccess  = "access"
	TokenTypeRefresh = "refresh"
)

// Client is a registered client application.
// RedirectURI holds the URI resolved for the lookup that produced this
// value; it is empty when the client has no matching or default endpoint.
type Client struct {
	ID          string
	Secret      string // bcrypt hash
	Name        string
	Trusted     bool
	RedirectURI string
}

// ClientEndpoint is one registered redirect URI of a client
type ClientEndpoint struct {
	URI       string `json:"uri"`
	IsDefault bool   `json:"is_default"`
}

// ResolveRedirectURI picks the redirect URI for a client lookup.
// A requested URI must match a registered endpoint exactly; ok is false
// otherwise. Without a requested URI the default endpoint is returned, or ""
// when none is flagged. Several defaults resolve to the lexicographically
// first one.
func ResolveRedirectURI(endpoints []ClientEndpoint, requested string) (uri string, ok bool) {
	if requested != "" {
		for _, e := range endpoints {
			if e.URI == requested {
				return e.URI, true
			}
		}
		return "", false
	}

	for _, e := range endpoints {
		if e.IsDefault && (uri == "" || e.URI < uri) {
			uri = e.URI
		}
	}
	return uri, true
}

// Scope is a named permission
type Scope struct {
	Scope       string // id
	Name        string
	Description string
}

// ScopeSet is a set of scopes keyed by scope id
type ScopeSet map[string]*Scope

// NewScopeSet builds a ScopeSet; duplicate ids collapse
func NewScopeSet(scopes ...*Scope) ScopeSet {
	set := make(ScopeSet, len(scopes))
	for _, s := range scopes {
		set.Add(s)
	}
	return set
}

// Add inserts s, replacing any scope with the same id
func (s ScopeSet) Add(scope *Scope) {
	if scope == nil {
		return
	}
	s[scope.Scope] = scope
}

// Has reports whether the set contains id
func (s ScopeSet) Has(id string) bool {
	_, ok := s[id]
	return ok
}

// IDs returns the scope ids in sorted order
func (s ScopeSet) IDs() []string {
	ids := make([]string, 0, len(s))
	for id := range s {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// String joins the sorted scope ids with delim
func (s ScopeSet) String(delim string) string {
	return strings.Join(s.IDs(), delim)
}

// Scopeable is implemented by entities that carry a scope set
type Scopeable interface {
	AttachScopes(scopes ScopeSet)
	HasScope(id string) bool
	Scope(id string) (*Scope, bool)
	Scopes() ScopeSet
}

// scoped implements Scopeable for embedding
type scoped struct {
	scopes ScopeSet
}

// AttachScopes merges scopes into the entity's scope set
func (s *scoped) AttachScopes(scopes ScopeSet) {
	if s.scopes == nil {
		s.scopes = make(ScopeSet, len(scopes))
	}
	for _, scope := range scopes {
		s.scopes.Add(scope)
	}
}

// HasScope reports whether the entity carries the scope id
func (s *scoped) HasScope(id string) bool {
	return s.scopes.Has(id)
}

// Scope returns the scope with the given id
func (s *scoped) Scope(id string) (*Scope, bool) {
	scope, ok := s.scopes[id]
	return scope, ok
}

// Scopes returns the entity's scope set (never nil)
func (s *scoped) Scopes() ScopeSet {
	if s.scopes == nil {
		return ScopeSet{}
	}
	return s.scopes
}

// Token is an access or refresh token
type Token struct {
	scoped

	Token    string
	Type     string // TokenTypeAccess or TokenTypeRefresh
	ClientID string
	UserID   string // empty for client credential tokens
	Expires  int64  // unix seconds
}

// ExpiresAt returns the expiry as a time.Time
func (t *Token) ExpiresAt() time.Time {
	return time.Unix(t.Expires, 0)
}

// IsExpired reports whether the token is expired at now (expires <= now)
func (t *Token) IsExpired(now time.Time) bool {
	return t.Expires <= now.Unix()
}

// AuthorizationCode is a short-lived code bound to a redirect URI
type AuthorizationCode struct {
	scoped

	Code        string
	ClientID    string
	UserID      string
	RedirectURI string
	Expires     int64 // unix seconds
}

// ExpiresAt returns the expiry as a time.Time
func (c *AuthorizationCode) ExpiresAt() time.Time {
	return time.Unix(c.Expires, 0)
}

// IsExpired reports whether the code is expired at now (expires <= now)
func (c *AuthorizationCode) IsExpired(now time.Time) bool {
	return c.Expires <= now.Unix()
}

var (
	_ Scopeable = (*Token)(nil)
	_ Scopeable = (*AuthorizationCode)(nil)
)
