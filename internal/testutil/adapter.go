package testutil

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/oauth-core/storage"
)

// RunAdapterSuite runs the behaviour every storage backend must share.
// open must return a fresh adapter over the same, initially empty, storage.
func RunAdapterSuite(t *testing.T, open func() storage.Adapter) {
	t.Helper()

	t.Run("Clients", func(t *testing.T) { testClients(t, open) })
	t.Run("Tokens", func(t *testing.T) { testTokens(t, open) })
	t.Run("AuthorizationCodes", func(t *testing.T) { testAuthorizationCodes(t, open) })
	t.Run("Scopes", func(t *testing.T) { testScopes(t, open) })
	t.Run("MemoCacheIsPerAdapter", func(t *testing.T) { testMemoCache(t, open) })
}

func testClients(t *testing.T, open func() storage.Adapter) {
	ctx := context.Background()
	adapter := open()

	created, err := adapter.Clients().Create(ctx, "client-1", "s3cret", "Client One", []storage.ClientEndpoint{
		{URI: "https://one.example/cb", IsDefault: true},
		{URI: "https://one.example/alt"},
	}, true)
	require.NoError(t, err)
	assert.Equal(t, "client-1", created.ID)
	assert.Equal(t, "Client One", created.Name)
	assert.True(t, created.Trusted)
	assert.Equal(t, "https://one.example/cb", created.RedirectURI)
	assert.NotEqual(t, "s3cret", created.Secret, "secret must be stored hashed")

	tests := []struct {
		name        string
		id          string
		secret      string
		redirectURI string
		wantErr     error
		wantURI     string
	}{
		{name: "secret only resolves default", id: "client-1", secret: "s3cret", wantURI: "https://one.example/cb"},
		{name: "matching uri", id: "client-1", secret: "s3cret", redirectURI: "https://one.example/alt", wantURI: "https://one.example/alt"},
		{name: "uri only", id: "client-1", redirectURI: "https://one.example/cb", wantURI: "https://one.example/cb"},
		{name: "id only", id: "client-1", wantURI: "https://one.example/cb"},
		{name: "wrong secret", id: "client-1", secret: "nope", wantErr: storage.ErrInvalidCredentials},
		{name: "unregistered uri", id: "client-1", secret: "s3cret", redirectURI: "https://evil.example/cb", wantErr: storage.ErrInvalidCredentials},
		{name: "unknown client", id: "client-2", secret: "s3cret", wantErr: storage.ErrNotFound},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			client, err := open().Clients().Get(ctx, tt.id, tt.secret, tt.redirectURI)
			if tt.wantErr != nil {
				require.Error(t, err)
				assert.True(t, errors.Is(err, tt.wantErr), "error = %v, want %v", err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantURI, client.RedirectURI)
			assert.Equal(t, "Client One", client.Name)
			assert.True(t, client.Trusted)
		})
	}

	t.Run("no default endpoint", func(t *testing.T) {
		a := open()
		_, err := a.Clients().Create(ctx, "client-3", "s", "Three", []storage.ClientEndpoint{{URI: "https://three.example/cb"}}, false)
		require.NoError(t, err)

		client, err := open().Clients().Get(ctx, "client-3", "s", "")
		require.NoError(t, err)
		assert.Empty(t, client.RedirectURI)
	})

	t.Run("delete", func(t *testing.T) {
		a := open()
		require.NoError(t, a.Clients().Delete(ctx, "client-1"))

		_, err := open().Clients().Get(ctx, "client-1", "s3cret", "")
		assert.True(t, storage.IsNotFound(err), "error = %v, want not found", err)

		// Deleting again is not an error
		assert.NoError(t, open().Clients().Delete(ctx, "client-1"))
	})
}

func testTokens(t *testing.T, open func() storage.Adapter) {
	ctx := context.Background()
	adapter := open()
	seedScopes(t, adapter)

	expires := time.Now().Add(time.Hour).Unix()

	tok, err := adapter.Tokens().Create(ctx, "tok-1", storage.TokenTypeAccess, "client-1", "", expires)
	require.NoError(t, err)
	assert.Equal(t, "tok-1", tok.Token)
	assert.Equal(t, storage.TokenTypeAccess, tok.Type)
	assert.Empty(t, tok.UserID)
	assert.Equal(t, expires, tok.Expires)
	assert.Empty(t, tok.Scopes())

	read, err := adapter.Scopes().Get(ctx, "read")
	require.NoError(t, err)
	write, err := adapter.Scopes().Get(ctx, "write")
	require.NoError(t, err)
	require.NoError(t, adapter.Tokens().AssociateScopes(ctx, "tok-1", storage.NewScopeSet(read, write)))

	_, err = adapter.Tokens().Create(ctx, "tok-2", storage.TokenTypeRefresh, "client-1", "user-1", expires)
	require.NoError(t, err)

	fresh := open()

	plain, err := fresh.Tokens().Get(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, "client-1", plain.ClientID)
	assert.Empty(t, plain.Scopes(), "Get must not load scopes")

	scoped, err := fresh.Tokens().GetWithScopes(ctx, "tok-1")
	require.NoError(t, err)
	assert.Equal(t, []string{"read", "write"}, scoped.Scopes().IDs())
	assert.Equal(t, "Read", scoped.Scopes()["read"].Name)
	assert.Equal(t, expires, scoped.Expires)

	refresh, err := fresh.Tokens().GetWithScopes(ctx, "tok-2")
	require.NoError(t, err)
	assert.Equal(t, storage.TokenTypeRefresh, refresh.Type)
	assert.Equal(t, "user-1", refresh.UserID)
	assert.Empty(t, refresh.Scopes())

	_, err = fresh.Tokens().Get(ctx, "missing")
	assert.True(t, storage.IsNotFound(err), "error = %v, want not found", err)
	_, err = fresh.Tokens().GetWithScopes(ctx, "missing")
	assert.True(t, storage.IsNotFound(err), "error = %v, want not found", err)

	require.NoError(t, fresh.Tokens().Delete(ctx, "tok-1"))
	_, err = fresh.Tokens().GetWithScopes(ctx, "tok-1")
	assert.True(t, storage.IsNotFound(err), "deleted token must not be served from cache, error = %v", err)
	_, err = open().Tokens().GetWithScopes(ctx, "tok-1")
	assert.True(t, storage.IsNotFound(err), "error = %v, want not found", err)

	// Deleting again is not an error
	assert.NoError(t, open().Tokens().Delete(ctx, "tok-1"))
}

func testAuthorizationCodes(t *testing.T, open func() storage.Adapter) {
	ctx := context.Background()
	adapter := open()
	seedScopes(t, adapter)

	expires := time.Now().Add(10 * time.Minute).Unix()

	code, err := adapter.AuthorizationCodes().Create(ctx, "code-1", "client-1", "user-1", "https://one.example/cb", expires)
	require.NoError(t, err)
	assert.Equal(t, "code-1", code.Code)
	assert.Equal(t, "https://one.example/cb", code.RedirectURI)

	read, err := adapter.Scopes().Get(ctx, "read")
	require.NoError(t, err)
	require.NoError(t, adapter.AuthorizationCodes().AssociateScopes(ctx, "code-1", storage.NewScopeSet(read)))

	got, err := open().AuthorizationCodes().Get(ctx, "code-1")
	require.NoError(t, err)
	assert.Equal(t, "client-1", got.ClientID)
	assert.Equal(t, "user-1", got.UserID)
	assert.Equal(t, expires, got.Expires)
	assert.Equal(t, []string{"read"}, got.Scopes().IDs())

	require.NoError(t, open().AuthorizationCodes().Delete(ctx, "code-1"))
	_, err = open().AuthorizationCodes().Get(ctx, "code-1")
	assert.True(t, storage.IsNotFound(err), "error = %v, want not found", err)
}

func testScopes(t *testing.T, open func() storage.Adapter) {
	ctx := context.Background()
	adapter := open()
	seedScopes(t, adapter)

	s, err := open().Scopes().Get(ctx, "admin")
	require.NoError(t, err)
	assert.Equal(t, "Admin", s.Name)
	assert.Equal(t, "Administrative access", s.Description)

	_, err = open().Scopes().Get(ctx, "unknown")
	assert.True(t, storage.IsNotFound(err), "error = %v, want not found", err)
}

func testMemoCache(t *testing.T, open func() storage.Adapter) {
	ctx := context.Background()
	first := open()
	seedScopes(t, first)

	expires := time.Now().Add(time.Hour).Unix()
	_, err := first.Tokens().Create(ctx, "memo-1", storage.TokenTypeAccess, "client-1", "", expires)
	require.NoError(t, err)
	_, err = first.Tokens().GetWithScopes(ctx, "memo-1")
	require.NoError(t, err)

	// A deletion through another adapter is visible to a fresh adapter
	require.NoError(t, open().Tokens().Delete(ctx, "memo-1"))
	_, err = open().Tokens().GetWithScopes(ctx, "memo-1")
	assert.True(t, storage.IsNotFound(err), "error = %v, want not found", err)
}

func seedScopes(t *testing.T, adapter storage.Adapter) {
	t.Helper()
	for _, s := range TestScopes() {
		require.NoError(t, adapter.Scopes().Create(context.Background(), s))
	}
}
