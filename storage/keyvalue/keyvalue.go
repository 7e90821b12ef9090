package keyvalue

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/giantswarm/oauth-core/internal/util"
	"github.com/giantswarm/oauth-core/storage"
)

// tokenIDLogLength is the number of characters to include when logging token IDs
const tokenIDLogLength = 8

// Option configures a Backend
type Option func(*Backend)

// WithLogger sets the logger (default: slog.Default())
func WithLogger(logger *slog.Logger) Option {
	return func(b *Backend) {
		if logger != nil {
			b.logger = logger
		}
	}
}

// Backend opens key-value adapters over a shared Client
type Backend struct {
	client Client
	logger *slog.Logger

	clients     string
	endpoints   string
	tokens      string
	tokenScopes string
	codes       string
	codeScopes  string
	scopes      string
}

var _ storage.Backend = (*Backend)(nil)

// New creates a key-value backend. tables maps logical table names to key
// prefixes; missing entries fall back to the defaults.
func New(client Client, tables storage.Tables, opts ...Option) *Backend {
	if tables == nil {
		tables = storage.DefaultTables()
	}

	b := &Backend{
		client:      client,
		logger:      slog.Default(),
		clients:     util.KeyPrefix(tables.Name(storage.TableClients)),
		endpoints:   util.KeyPrefix(tables.Name(storage.TableClientEndpoints)),
		tokens:      util.KeyPrefix(tables.Name(storage.TableTokens)),
		tokenScopes: util.KeyPrefix(tables.Name(storage.TableTokenScopes)),
		codes:       util.KeyPrefix(tables.Name(storage.TableAuthorizationCodes)),
		codeScopes:  util.KeyPrefix(tables.Name(storage.TableAuthorizationCodeScopes)),
		scopes:      util.KeyPrefix(tables.Name(storage.TableScopes)),
	}
	for _, opt := range opts {
		if opt != nil {
			opt(b)
		}
	}
	return b
}

// Open returns a new adapter with an empty memo cache.
// The adapter is meant to live for a single request.
func (b *Backend) Open() storage.Adapter {
	return b.OpenAdapter()
}

// OpenAdapter is Open with the concrete return type
func (b *Backend) OpenAdapter() *Adapter {
	return &Adapter{backend: b, cache: newCache()}
}

// Adapter implements storage.Adapter over a key-value Client.
// It is not safe for concurrent use.
type Adapter struct {
	backend *Backend
	cache   *cache
}

var _ storage.Adapter = (*Adapter)(nil)

// Clients returns the client store
func (a *Adapter) Clients() storage.ClientStore { return (*clientStore)(a) }

// Tokens returns the token store
func (a *Adapter) Tokens() storage.TokenStore { return (*tokenStore)(a) }

// AuthorizationCodes returns the authorization code store
func (a *Adapter) AuthorizationCodes() storage.AuthorizationCodeStore { return (*codeStore)(a) }

// Scopes returns the scope store
func (a *Adapter) Scopes() storage.ScopeStore { return (*scopeStore)(a) }

// ListTokens returns the ids of all stored tokens in sorted order
func (a *Adapter) ListTokens(ctx context.Context) ([]string, error) {
	return a.members(ctx, a.backend.tokens)
}

// ListClients returns the ids of all registered clients in sorted order
func (a *Adapter) ListClients(ctx context.Context) ([]string, error) {
	return a.members(ctx, a.backend.clients)
}

func (a *Adapter) members(ctx context.Context, key string) ([]string, error) {
	ids, err := a.backend.client.SMembers(ctx, key)
	if err != nil {
		return nil, fmt.Errorf("failed to list %s: %w", key, err)
	}
	sort.Strings(ids)
	return ids, nil
}

func key(prefix, id string) string {
	return prefix + ":" + id
}

// getJSON loads the blob at k into v. found is false when the key is missing.
func (a *Adapter) getJSON(ctx context.Context, k string, v any) (found bool, err error) {
	data, err := a.backend.client.Get(ctx, k)
	if err != nil {
		if errors.Is(err, ErrNil) {
			return false, nil
		}
		return false, fmt.Errorf("failed to get %s: %w", k, err)
	}
	if err := json.Unmarshal([]byte(data), v); err != nil {
		return false, fmt.Errorf("failed to unmarshal %s: %w", k, err)
	}
	return true, nil
}

// putJSON stores v at "<prefix>:<id>" and records id in the membership set
func (a *Adapter) putJSON(ctx context.Context, prefix, id string, v any) error {
	data, err := json.Marshal(v)
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", prefix, err)
	}
	if err := a.backend.client.Set(ctx, key(prefix, id), string(data)); err != nil {
		return fmt.Errorf("failed to save %s: %w", key(prefix, id), err)
	}
	if err := a.backend.client.SAdd(ctx, prefix, id); err != nil {
		return fmt.Errorf("failed to index %s: %w", key(prefix, id), err)
	}
	return nil
}

// remove deletes the entity blob, its dependent keys and its membership
func (a *Adapter) remove(ctx context.Context, prefix, id string, dependents ...string) error {
	keys := append([]string{key(prefix, id)}, dependents...)
	if err := a.backend.client.Del(ctx, keys...); err != nil {
		return fmt.Errorf("failed to delete %s: %w", key(prefix, id), err)
	}
	if err := a.backend.client.SRem(ctx, prefix, id); err != nil {
		return fmt.Errorf("failed to unindex %s: %w", key(prefix, id), err)
	}
	return nil
}

// addScopes stores scopes as JSON members of the set at k
func (a *Adapter) addScopes(ctx context.Context, k string, scopes storage.ScopeSet) error {
	if len(scopes) == 0 {
		return nil
	}
	members := make([]string, 0, len(scopes))
	for _, id := range scopes.IDs() {
		data, err := json.Marshal(toScopeRecord(scopes[id]))
		if err != nil {
			return fmt.Errorf("failed to marshal scope: %w", err)
		}
		members = append(members, string(data))
	}
	if err := a.backend.client.SAdd(ctx, k, members...); err != nil {
		return fmt.Errorf("failed to associate scopes with %s: %w", k, err)
	}
	return nil
}

// loadScopes reads the set of JSON scope members at k
func (a *Adapter) loadScopes(ctx context.Context, k string) (storage.ScopeSet, error) {
	members, err := a.backend.client.SMembers(ctx, k)
	if err != nil {
		return nil, fmt.Errorf("failed to load scopes %s: %w", k, err)
	}
	set := make(storage.ScopeSet, len(members))
	for _, m := range members {
		var r scopeRecord
		if err := json.Unmarshal([]byte(m), &r); err != nil {
			return nil, fmt.Errorf("failed to unmarshal scope in %s: %w", k, err)
		}
		set.Add(r.toScope())
	}
	return set, nil
}

// cache is the request-lifetime memo of one adapter
type cache struct {
	clients     map[string]*clientRecord
	endpoints   map[string][]storage.ClientEndpoint
	tokens      map[string]*tokenRecord
	tokenScopes map[string]storage.ScopeSet
	codes       map[string]*codeRecord
	codeScopes  map[string]storage.ScopeSet
	scopes      map[string]*storage.Scope
}

func newCache() *cache {
	return &cache{
		clients:     make(map[string]*clientRecord),
		endpoints:   make(map[string][]storage.ClientEndpoint),
		tokens:      make(map[string]*tokenRecord),
		tokenScopes: make(map[string]storage.ScopeSet),
		codes:       make(map[string]*codeRecord),
		codeScopes:  make(map[string]storage.ScopeSet),
		scopes:      make(map[string]*storage.Scope),
	}
}

// mergeScopes copies scopes into dst, allocating when needed
func mergeScopes(dst storage.ScopeSet, scopes storage.ScopeSet) storage.ScopeSet {
	if dst == nil {
		dst = make(storage.ScopeSet, len(scopes))
	}
	for _, s := range scopes {
		dst.Add(s)
	}
	return dst
}

func logID(id string) string {
	return util.SafeTruncate(id, tokenIDLogLength)
}
