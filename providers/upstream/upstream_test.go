package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/giantswarm/oauth-core/providers"
)

// newUpstream serves a token endpoint accepting alice/wonderland and a
// userinfo endpoint returning sub "user-1"
func newUpstream(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/token", func(w http.ResponseWriter, r *http.Request) {
		if err := r.ParseForm(); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		if id, secret, ok := r.BasicAuth(); !ok || id != "client" || secret != "secret" {
			w.WriteHeader(http.StatusUnauthorized)
			_, _ = w.Write([]byte(`{"error":"invalid_client"}`))
			return
		}
		if r.PostForm.Get("grant_type") != "password" {
			t.Errorf("grant_type = %q, want password", r.PostForm.Get("grant_type"))
		}
		w.Header().Set("Content-Type", "application/json")
		if r.PostForm.Get("username") != "alice" || r.PostForm.Get("password") != "wonderland" {
			w.WriteHeader(http.StatusBadRequest)
			_, _ = w.Write([]byte(`{"error":"invalid_grant"}`))
			return
		}
		_, _ = w.Write([]byte(`{"access_token":"upstream-token","token_type":"Bearer","expires_in":3600}`))
	})

	mux.HandleFunc("/userinfo", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer upstream-token" {
			w.WriteHeader(http.StatusUnauthorized)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		_, _ = w.Write([]byte(`{"sub":"user-1","email":"alice@example.com"}`))
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestAuthenticate(t *testing.T) {
	srv := newUpstream(t)
	ctx := context.Background()

	auth, err := New(ctx, Config{
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)

	tests := []struct {
		name     string
		username string
		password string
		wantID   string
		wantErr  error
	}{
		{name: "valid", username: "alice", password: "wonderland", wantID: "user-1"},
		{name: "wrong password", username: "alice", password: "nope", wantErr: providers.ErrInvalidCredentials},
		{name: "unknown user", username: "bob", password: "wonderland", wantErr: providers.ErrInvalidCredentials},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			id, err := auth.Authenticate(ctx, tt.username, tt.password)
			if tt.wantErr != nil {
				assert.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantID, id)
		})
	}
}

func TestAuthenticate_WithoutUserInfo(t *testing.T) {
	srv := newUpstream(t)

	auth, err := New(context.Background(), Config{
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/token",
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)

	id, err := auth.Authenticate(context.Background(), "alice", "wonderland")
	require.NoError(t, err)
	assert.Equal(t, "alice", id, "username is the user id without userinfo")
}

func TestAuthenticate_UpstreamFailure(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
	}))
	defer srv.Close()

	auth, err := New(context.Background(), Config{ClientID: "client", TokenURL: srv.URL, HTTPClient: srv.Client()})
	require.NoError(t, err)

	_, err = auth.Authenticate(context.Background(), "alice", "wonderland")
	require.Error(t, err)
	assert.False(t, errors.Is(err, providers.ErrInvalidCredentials), "server failures are not credential rejections")
}

func TestAuthenticate_MissingClaim(t *testing.T) {
	srv := newUpstream(t)

	auth, err := New(context.Background(), Config{
		ClientID:     "client",
		ClientSecret: "secret",
		TokenURL:     srv.URL + "/token",
		UserInfoURL:  srv.URL + "/userinfo",
		UserIDClaim:  "employee_id",
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)

	_, err = auth.Authenticate(context.Background(), "alice", "wonderland")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "employee_id")
}

func TestNew_Validation(t *testing.T) {
	_, err := New(context.Background(), Config{TokenURL: "https://idp.example.com/token"})
	assert.Error(t, err, "client id is required")

	_, err = New(context.Background(), Config{ClientID: "client"})
	assert.Error(t, err, "token URL or issuer is required")
}

func TestNew_Discovery(t *testing.T) {
	upstream := newUpstream(t)

	var fetches atomic.Int32
	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/.well-known/openid-configuration" {
			http.NotFound(w, r)
			return
		}
		fetches.Add(1)
		_ = json.NewEncoder(w).Encode(Endpoints{
			Issuer:           "http://" + r.Host,
			TokenEndpoint:    upstream.URL + "/token",
			UserInfoEndpoint: upstream.URL + "/userinfo",
		})
	}))
	defer issuer.Close()

	discovery := NewDiscovery(issuer.Client(), time.Hour, nil)
	discovery.allowInsecure = true

	auth, err := New(context.Background(), Config{
		ClientID:     "client",
		ClientSecret: "secret",
		Issuer:       issuer.URL,
		HTTPClient:   upstream.Client(),
		Discovery:    discovery,
	})
	require.NoError(t, err)

	id, err := auth.Authenticate(context.Background(), "alice", "wonderland")
	require.NoError(t, err)
	assert.Equal(t, "user-1", id)

	_, err = discovery.Discover(context.Background(), issuer.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(1), fetches.Load(), "second discovery should be served from cache")
}

func TestDiscovery_Expiry(t *testing.T) {
	var fetches atomic.Int32
	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		fetches.Add(1)
		_, _ = w.Write([]byte(`{"token_endpoint":"http://idp.example.com/token"}`))
	}))
	defer issuer.Close()

	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	d := NewDiscovery(issuer.Client(), time.Minute, nil)
	d.allowInsecure = true
	d.now = func() time.Time { return now }

	_, err := d.Discover(context.Background(), issuer.URL)
	require.NoError(t, err)

	now = now.Add(2 * time.Minute)
	_, err = d.Discover(context.Background(), issuer.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(2), fetches.Load())

	d.ClearCache()
	_, err = d.Discover(context.Background(), issuer.URL)
	require.NoError(t, err)
	assert.Equal(t, int32(3), fetches.Load())
}

func TestDiscovery_ValidateURL(t *testing.T) {
	d := NewDiscovery(nil, 0, nil)

	tests := []struct {
		name    string
		issuer  string
		wantErr string
	}{
		{name: "http", issuer: "http://idp.example.com", wantErr: "HTTPS"},
		{name: "loopback", issuer: "https://127.0.0.1", wantErr: "internal"},
		{name: "private", issuer: "https://10.0.0.1", wantErr: "internal"},
		{name: "link-local", issuer: "https://169.254.169.254", wantErr: "internal"},
		{name: "no host", issuer: "https://", wantErr: "hostname"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := d.Discover(context.Background(), tt.issuer)
			require.Error(t, err)
			if !strings.Contains(err.Error(), tt.wantErr) {
				t.Errorf("Discover() error = %v, want it to mention %q", err, tt.wantErr)
			}
		})
	}
}

func TestDiscovery_RejectsMissingTokenEndpoint(t *testing.T) {
	issuer := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		_, _ = w.Write([]byte(`{"issuer":"http://idp.example.com"}`))
	}))
	defer issuer.Close()

	d := NewDiscovery(issuer.Client(), 0, nil)
	d.allowInsecure = true

	_, err := d.Discover(context.Background(), issuer.URL)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "token_endpoint")
}

func TestAuthenticate_InvalidClientIsNotRejection(t *testing.T) {
	srv := newUpstream(t)

	auth, err := New(context.Background(), Config{
		ClientID:     "client",
		ClientSecret: "wrong",
		TokenURL:     srv.URL + "/token",
		HTTPClient:   srv.Client(),
	})
	require.NoError(t, err)

	_, err = auth.Authenticate(context.Background(), "alice", "wonderland")
	require.Error(t, err)
	assert.False(t, providers.IsInvalidCredentials(err), "misconfigured upstream client must not look like bad user credentials")
}
