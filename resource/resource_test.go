package resource

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oauth "github.com/giantswarm/oauth-core"
	"github.com/giantswarm/oauth-core/internal/testutil"
	"github.com/giantswarm/oauth-core/security"
	"github.com/giantswarm/oauth-core/storage"
	"github.com/giantswarm/oauth-core/storage/keyvalue"
	"github.com/giantswarm/oauth-core/storage/memory"
	"github.com/giantswarm/oauth-core/storage/mock"
)

// fixture holds a seeded backend with one token "valid" scoped read+write
// that expires an hour after clock's start
type fixture struct {
	backend storage.Backend
	clock   *testutil.MockTime
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	clock := testutil.NewMockTime(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC))
	backend := keyvalue.New(memory.New(), nil)

	adapter := backend.Open()
	testutil.Seed(t, adapter)
	ctx := context.Background()

	_, err := adapter.Tokens().Create(ctx, "valid", storage.TokenTypeAccess, testutil.TestClientID, "user-1", clock.Now().Add(time.Hour).Unix())
	require.NoError(t, err)
	read, err := adapter.Scopes().Get(ctx, "read")
	require.NoError(t, err)
	write, err := adapter.Scopes().Get(ctx, "write")
	require.NoError(t, err)
	require.NoError(t, adapter.Tokens().AssociateScopes(ctx, "valid", storage.NewScopeSet(read, write)))

	return &fixture{backend: backend, clock: clock}
}

func (f *fixture) validator(t *testing.T, mutate ...func(*Config)) *Validator {
	t.Helper()
	cfg := Config{Backend: f.backend, Now: f.clock.Now}
	for _, m := range mutate {
		m(&cfg)
	}
	v, err := NewValidator(cfg)
	require.NoError(t, err)
	return v
}

func codeOf(t *testing.T, err error) string {
	t.Helper()
	var oauthErr *oauth.OAuthError
	require.True(t, errors.As(err, &oauthErr), "error %v is not an OAuth error", err)
	return oauthErr.Code
}

func TestFindAccessToken(t *testing.T) {
	tests := []struct {
		name    string
		req     oauth.Values
		want    string
		wantErr bool
	}{
		{name: "bearer header", req: oauth.Values{"header:Authorization": "Bearer abc"}, want: "abc"},
		{name: "lowercase scheme", req: oauth.Values{"header:Authorization": "bearer abc"}, want: "abc"},
		{name: "lowercase header name", req: oauth.Values{"header:authorization": "BEARER abc"}, want: "abc"},
		{name: "field", req: oauth.Values{oauth.FieldAccessToken: "def"}, want: "def"},
		{
			name: "header wins over field",
			req:  oauth.Values{"header:Authorization": "Bearer abc", oauth.FieldAccessToken: "def"},
			want: "abc",
		},
		{
			name: "basic header falls back to field",
			req:  oauth.Values{"header:Authorization": "Basic WDpZ", oauth.FieldAccessToken: "def"},
			want: "def",
		},
		{name: "empty bearer", req: oauth.Values{"header:Authorization": "Bearer "}, wantErr: true},
		{name: "nothing", req: oauth.Values{}, wantErr: true},
		{name: "empty field", req: oauth.Values{oauth.FieldAccessToken: ""}, wantErr: true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := FindAccessToken(tt.req)
			if tt.wantErr {
				assert.Equal(t, oauth.ErrorCodeMissingToken, codeOf(t, err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestValidateRequest(t *testing.T) {
	f := newFixture(t)
	v := f.validator(t)

	tests := []struct {
		name     string
		req      oauth.Values
		required []string
		wantCode string
	}{
		{name: "valid", req: oauth.Values{oauth.FieldAccessToken: "valid"}},
		{name: "valid with scopes", req: oauth.Values{oauth.FieldAccessToken: "valid"}, required: []string{"read", "write"}},
		{name: "missing token", req: oauth.Values{}, wantCode: oauth.ErrorCodeMissingToken},
		{name: "unknown token", req: oauth.Values{oauth.FieldAccessToken: "nope"}, wantCode: oauth.ErrorCodeUnknownToken},
		{
			name:     "missing scope",
			req:      oauth.Values{oauth.FieldAccessToken: "valid"},
			required: []string{"read", "admin"},
			wantCode: oauth.ErrorCodeMismatchedScope,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tok, err := v.ValidateRequest(context.Background(), tt.req, tt.required...)
			if tt.wantCode != "" {
				assert.Equal(t, tt.wantCode, codeOf(t, err))
				assert.True(t, IsTokenError(err))
				return
			}
			require.NoError(t, err)
			assert.Equal(t, "user-1", tok.UserID)
			assert.Equal(t, []string{"read", "write"}, tok.Scopes().IDs())
		})
	}
}

func TestValidateRequest_DefaultScopes(t *testing.T) {
	f := newFixture(t)

	v := f.validator(t, func(c *Config) { c.DefaultScopes = []string{"admin"} })
	_, err := v.ValidateRequest(context.Background(), oauth.Values{oauth.FieldAccessToken: "valid"})
	assert.Equal(t, oauth.ErrorCodeMismatchedScope, codeOf(t, err))
	assert.Contains(t, err.Error(), "admin")

	v = f.validator(t, func(c *Config) { c.DefaultScopes = []string{"read"} })
	_, err = v.ValidateRequest(context.Background(), oauth.Values{oauth.FieldAccessToken: "valid"}, "read", "write")
	assert.NoError(t, err)
}

func TestValidateRequest_ExpiredTokenIsDeleted(t *testing.T) {
	f := newFixture(t)

	var buf bytes.Buffer
	v := f.validator(t, func(c *Config) {
		c.Auditor = security.NewAuditor(slog.New(slog.NewJSONHandler(&buf, nil)), true)
	})
	req := oauth.Values{"header:Authorization": "Bearer valid"}

	// expires <= now counts as expired
	f.clock.Advance(time.Hour)

	_, err := v.ValidateRequest(context.Background(), req)
	assert.Equal(t, oauth.ErrorCodeExpiredToken, codeOf(t, err))
	assert.Contains(t, buf.String(), security.EventTokenExpired)

	_, err = v.ValidateRequest(context.Background(), req)
	assert.Equal(t, oauth.ErrorCodeUnknownToken, codeOf(t, err), "the expired token was removed")

	_, err = f.backend.Open().Tokens().Get(context.Background(), "valid")
	assert.True(t, storage.IsNotFound(err))
}

func TestValidateRequest_StorageFailure(t *testing.T) {
	adapter := mock.NewMockAdapter()
	adapter.TokenStore.GetWithScopesFunc = func(string) (*storage.Token, error) {
		return nil, fmt.Errorf("connection reset")
	}

	v, err := NewValidator(Config{Backend: adapter})
	require.NoError(t, err)

	_, err = v.ValidateRequest(context.Background(), oauth.Values{oauth.FieldAccessToken: "x"})
	require.Error(t, err)
	assert.False(t, IsTokenError(err))
	assert.Equal(t, oauth.ErrorCodeServerError, oauth.AsOAuthError(err).Code)
}

func TestNewValidator_RequiresBackend(t *testing.T) {
	_, err := NewValidator(Config{})
	assert.Error(t, err)
}

func TestContextWithToken(t *testing.T) {
	_, ok := TokenFromContext(context.Background())
	assert.False(t, ok)

	tok := &storage.Token{Token: "abc"}
	got, ok := TokenFromContext(ContextWithToken(context.Background(), tok))
	require.True(t, ok)
	assert.Same(t, tok, got)

	_, ok = TokenFromContext(ContextWithToken(context.Background(), nil))
	assert.False(t, ok)
}
