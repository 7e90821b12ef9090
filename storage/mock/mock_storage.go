// Package mock provides mock implementations of storage interfaces for testing.
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/giantswarm/oauth-core/storage"
)

// MockClientStore is a mock implementation of ClientStore for testing
type MockClientStore struct {
	mu         sync.RWMutex
	clients    map[string]*storage.Client
	endpoints  map[string][]storage.ClientEndpoint
	GetFunc    func(id, secret, redirectURI string) (*storage.Client, error)
	CreateFunc func(id, secret, name string, endpoints []storage.ClientEndpoint, trusted bool) (*storage.Client, error)
	DeleteFunc func(id string) error
	CallCounts map[string]int
}

// NewMockClientStore creates a new mock client store
func NewMockClientStore() *MockClientStore {
	m := &MockClientStore{
		clients:    make(map[string]*storage.Client),
		endpoints:  make(map[string][]storage.ClientEndpoint),
		CallCounts: make(map[string]int),
	}

	// Set default implementations
	m.GetFunc = func(id, secret, redirectURI string) (*storage.Client, error) {
		m.mu.RLock()
		defer m.mu.RUnlock()
		return storage.VerifyClient(m.clients[id], m.endpoints[id], secret, redirectURI)
	}

	m.CreateFunc = func(id, secret, name string, endpoints []storage.ClientEndpoint, trusted bool) (*storage.Client, error) {
		hash, err := storage.HashSecret(secret)
		if err != nil {
			return nil, err
		}
		m.mu.Lock()
		defer m.mu.Unlock()
		client := &storage.Client{ID: id, Secret: hash, Name: name, Trusted: trusted}
		m.clients[id] = client
		m.endpoints[id] = append([]storage.ClientEndpoint(nil), endpoints...)
		uri, _ := storage.ResolveRedirectURI(endpoints, "")
		created := *client
		created.RedirectURI = uri
		return &created, nil
	}

	m.DeleteFunc = func(id string) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.clients, id)
		delete(m.endpoints, id)
		return nil
	}

	return m
}

func (m *MockClientStore) count(name string) {
	m.mu.Lock()
	m.CallCounts[name]++
	m.mu.Unlock()
}

// Get implements ClientStore
func (m *MockClientStore) Get(_ context.Context, id, secret, redirectURI string) (*storage.Client, error) {
	m.count("Get")
	return m.GetFunc(id, secret, redirectURI)
}

// Create implements ClientStore
func (m *MockClientStore) Create(_ context.Context, id, secret, name string, endpoints []storage.ClientEndpoint, trusted bool) (*storage.Client, error) {
	m.count("Create")
	return m.CreateFunc(id, secret, name, endpoints, trusted)
}

// Delete implements ClientStore
func (m *MockClientStore) Delete(_ context.Context, id string) error {
	m.count("Delete")
	return m.DeleteFunc(id)
}

// MockTokenStore is a mock implementation of TokenStore for testing
type MockTokenStore struct {
	mu                  sync.RWMutex
	tokens              map[string]*storage.Token
	scopes              map[string]storage.ScopeSet
	CreateFunc          func(token, tokenType, clientID, userID string, expires int64) (*storage.Token, error)
	AssociateScopesFunc func(token string, scopes storage.ScopeSet) error
	GetFunc             func(token string) (*storage.Token, error)
	GetWithScopesFunc   func(token string) (*storage.Token, error)
	DeleteFunc          func(token string) error
	CallCounts          map[string]int
}

// NewMockTokenStore creates a new mock token store
func NewMockTokenStore() *MockTokenStore {
	m := &MockTokenStore{
		tokens:     make(map[string]*storage.Token),
		scopes:     make(map[string]storage.ScopeSet),
		CallCounts: make(map[string]int),
	}

	m.CreateFunc = func(token, tokenType, clientID, userID string, expires int64) (*storage.Token, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, exists := m.tokens[token]; exists {
			return nil, fmt.Errorf("token already exists")
		}
		m.tokens[token] = &storage.Token{
			Token:    token,
			Type:     tokenType,
			ClientID: clientID,
			UserID:   userID,
			Expires:  expires,
		}
		return &storage.Token{Token: token, Type: tokenType, ClientID: clientID, UserID: userID, Expires: expires}, nil
	}

	m.AssociateScopesFunc = func(token string, scopes storage.ScopeSet) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		if _, ok := m.tokens[token]; !ok {
			return fmt.Errorf("%w: token", storage.ErrNotFound)
		}
		if m.scopes[token] == nil {
			m.scopes[token] = make(storage.ScopeSet)
		}
		for _, s := range scopes {
			m.scopes[token].Add(s)
		}
		return nil
	}

	m.GetFunc = func(token string) (*storage.Token, error) {
		m.mu.RLock()
		defer m.mu.RUnlock()
		t, ok := m.tokens[token]
		if !ok {
			return nil, fmt.Errorf("%w: token", storage.ErrNotFound)
		}
		return &storage.Token{Token: t.Token, Type: t.Type, ClientID: t.ClientID, UserID: t.UserID, Expires: t.Expires}, nil
	}

	m.GetWithScopesFunc = func(token string) (*storage.Token, error) {
		t, err := m.GetFunc(token)
		if err != nil {
			return nil, err
		}
		m.mu.RLock()
		defer m.mu.RUnlock()
		t.AttachScopes(m.scopes[token])
		return t, nil
	}

	m.DeleteFunc = func(token string) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.tokens, token)
		delete(m.scopes, token)
		return nil
	}

	return m
}

func (m *MockTokenStore) count(name string) {
	m.mu.Lock()
	m.CallCounts[name]++
	m.mu.Unlock()
}

// Create implements TokenStore
func (m *MockTokenStore) Create(_ context.Context, token, tokenType, clientID, userID string, expires int64) (*storage.Token, error) {
	m.count("Create")
	return m.CreateFunc(token, tokenType, clientID, userID, expires)
}

// AssociateScopes implements TokenStore
func (m *MockTokenStore) AssociateScopes(_ context.Context, token string, scopes storage.ScopeSet) error {
	m.count("AssociateScopes")
	return m.AssociateScopesFunc(token, scopes)
}

// Get implements TokenStore
func (m *MockTokenStore) Get(_ context.Context, token string) (*storage.Token, error) {
	m.count("Get")
	return m.GetFunc(token)
}

// GetWithScopes implements TokenStore
func (m *MockTokenStore) GetWithScopes(_ context.Context, token string) (*storage.Token, error) {
	m.count("GetWithScopes")
	return m.GetWithScopesFunc(token)
}

// Delete implements TokenStore
func (m *MockTokenStore) Delete(_ context.Context, token string) error {
	m.count("Delete")
	return m.DeleteFunc(token)
}

// Len returns the number of stored tokens
func (m *MockTokenStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.tokens)
}

// MockAuthorizationCodeStore is a mock implementation of AuthorizationCodeStore for testing
type MockAuthorizationCodeStore struct {
	mu                  sync.RWMutex
	codes               map[string]*storage.AuthorizationCode
	CreateFunc          func(code, clientID, userID, redirectURI string, expires int64) (*storage.AuthorizationCode, error)
	AssociateScopesFunc func(code string, scopes storage.ScopeSet) error
	GetFunc             func(code string) (*storage.AuthorizationCode, error)
	DeleteFunc          func(code string) error
	CallCounts          map[string]int
}

// NewMockAuthorizationCodeStore creates a new mock authorization code store
func NewMockAuthorizationCodeStore() *MockAuthorizationCodeStore {
	m := &MockAuthorizationCodeStore{
		codes:      make(map[string]*storage.AuthorizationCode),
		CallCounts: make(map[string]int),
	}

	m.CreateFunc = func(code, clientID, userID, redirectURI string, expires int64) (*storage.AuthorizationCode, error) {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.codes[code] = &storage.AuthorizationCode{
			Code:        code,
			ClientID:    clientID,
			UserID:      userID,
			RedirectURI: redirectURI,
			Expires:     expires,
		}
		return &storage.AuthorizationCode{Code: code, ClientID: clientID, UserID: userID, RedirectURI: redirectURI, Expires: expires}, nil
	}

	m.AssociateScopesFunc = func(code string, scopes storage.ScopeSet) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		c, ok := m.codes[code]
		if !ok {
			return fmt.Errorf("%w: authorization code", storage.ErrNotFound)
		}
		c.AttachScopes(scopes)
		return nil
	}

	m.GetFunc = func(code string) (*storage.AuthorizationCode, error) {
		m.mu.RLock()
		defer m.mu.RUnlock()
		c, ok := m.codes[code]
		if !ok {
			return nil, fmt.Errorf("%w: authorization code", storage.ErrNotFound)
		}
		out := &storage.AuthorizationCode{Code: c.Code, ClientID: c.ClientID, UserID: c.UserID, RedirectURI: c.RedirectURI, Expires: c.Expires}
		out.AttachScopes(c.Scopes())
		return out, nil
	}

	m.DeleteFunc = func(code string) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		delete(m.codes, code)
		return nil
	}

	return m
}

func (m *MockAuthorizationCodeStore) count(name string) {
	m.mu.Lock()
	m.CallCounts[name]++
	m.mu.Unlock()
}

// Create implements AuthorizationCodeStore
func (m *MockAuthorizationCodeStore) Create(_ context.Context, code, clientID, userID, redirectURI string, expires int64) (*storage.AuthorizationCode, error) {
	m.count("Create")
	return m.CreateFunc(code, clientID, userID, redirectURI, expires)
}

// AssociateScopes implements AuthorizationCodeStore
func (m *MockAuthorizationCodeStore) AssociateScopes(_ context.Context, code string, scopes storage.ScopeSet) error {
	m.count("AssociateScopes")
	return m.AssociateScopesFunc(code, scopes)
}

// Get implements AuthorizationCodeStore
func (m *MockAuthorizationCodeStore) Get(_ context.Context, code string) (*storage.AuthorizationCode, error) {
	m.count("Get")
	return m.GetFunc(code)
}

// Delete implements AuthorizationCodeStore
func (m *MockAuthorizationCodeStore) Delete(_ context.Context, code string) error {
	m.count("Delete")
	return m.DeleteFunc(code)
}

// MockScopeStore is a mock implementation of ScopeStore for testing
type MockScopeStore struct {
	mu         sync.RWMutex
	scopes     map[string]*storage.Scope
	GetFunc    func(id string) (*storage.Scope, error)
	CreateFunc func(scope *storage.Scope) error
	CallCounts map[string]int
}

// NewMockScopeStore creates a new mock scope store seeded with scopes
func NewMockScopeStore(scopes ...*storage.Scope) *MockScopeStore {
	m := &MockScopeStore{
		scopes:     make(map[string]*storage.Scope),
		CallCounts: make(map[string]int),
	}
	for _, s := range scopes {
		m.scopes[s.Scope] = s
	}

	m.GetFunc = func(id string) (*storage.Scope, error) {
		m.mu.RLock()
		defer m.mu.RUnlock()
		s, ok := m.scopes[id]
		if !ok {
			return nil, fmt.Errorf("%w: scope %s", storage.ErrNotFound, id)
		}
		return s, nil
	}

	m.CreateFunc = func(scope *storage.Scope) error {
		m.mu.Lock()
		defer m.mu.Unlock()
		m.scopes[scope.Scope] = scope
		return nil
	}

	return m
}

// Get implements ScopeStore
func (m *MockScopeStore) Get(_ context.Context, id string) (*storage.Scope, error) {
	m.mu.Lock()
	m.CallCounts["Get"]++
	m.mu.Unlock()
	return m.GetFunc(id)
}

// Create implements ScopeStore
func (m *MockScopeStore) Create(_ context.Context, scope *storage.Scope) error {
	m.mu.Lock()
	m.CallCounts["Create"]++
	m.mu.Unlock()
	return m.CreateFunc(scope)
}

// MockAdapter bundles the four mock stores.
// The same stores are shared by every adapter a MockBackend opens.
type MockAdapter struct {
	ClientStore            *MockClientStore
	TokenStore             *MockTokenStore
	AuthorizationCodeStore *MockAuthorizationCodeStore
	ScopeStore             *MockScopeStore
}

// NewMockAdapter creates an adapter with empty stores
func NewMockAdapter(scopes ...*storage.Scope) *MockAdapter {
	return &MockAdapter{
		ClientStore:            NewMockClientStore(),
		TokenStore:             NewMockTokenStore(),
		AuthorizationCodeStore: NewMockAuthorizationCodeStore(),
		ScopeStore:             NewMockScopeStore(scopes...),
	}
}

// Clients implements storage.Adapter
func (a *MockAdapter) Clients() storage.ClientStore { return a.ClientStore }

// Tokens implements storage.Adapter
func (a *MockAdapter) Tokens() storage.TokenStore { return a.TokenStore }

// AuthorizationCodes implements storage.Adapter
func (a *MockAdapter) AuthorizationCodes() storage.AuthorizationCodeStore {
	return a.AuthorizationCodeStore
}

// Scopes implements storage.Adapter
func (a *MockAdapter) Scopes() storage.ScopeStore { return a.ScopeStore }

// Open implements storage.Backend by returning the adapter itself
func (a *MockAdapter) Open() storage.Adapter { return a }

// Compile-time interface checks
var (
	_ storage.ClientStore            = (*MockClientStore)(nil)
	_ storage.TokenStore             = (*MockTokenStore)(nil)
	_ storage.AuthorizationCodeStore = (*MockAuthorizationCodeStore)(nil)
	_ storage.ScopeStore             = (*MockScopeStore)(nil)
	_ storage.Adapter                = (*MockAdapter)(nil)
	_ storage.Backend                = (*MockAdapter)(nil)
)
