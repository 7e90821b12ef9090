package server

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oauth "github.com/giantswarm/oauth-core"
	"github.com/giantswarm/oauth-core/resource"
)

func postForm(h http.HandlerFunc, form url.Values, basic ...string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodPost, "/oauth/token", strings.NewReader(form.Encode()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	if len(basic) == 2 {
		req.SetBasicAuth(basic[0], basic[1])
	}
	rec := httptest.NewRecorder()
	h(rec, req)
	return rec
}

func TestHandler_ServeToken(t *testing.T) {
	srv, _ := newTestServer(t, backends(t)["keyvalue"], &oauth.Config{TokenDefaultScopes: []string{"read"}})
	h := NewHandler(srv)

	t.Run("form credentials", func(t *testing.T) {
		rec := postForm(h.ServeToken, url.Values{"grant_type": {"client_credentials"}, "client_id": {"X"}, "client_secret": {"Y"}})
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())

		var body TokenResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Len(t, body.AccessToken, 40)
		assert.Equal(t, "Bearer", body.TokenType)
		assert.Equal(t, int64(3600), body.ExpiresIn)
		assert.Equal(t, "read", body.Scope)
		assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
	})

	t.Run("basic credentials", func(t *testing.T) {
		rec := postForm(h.ServeToken, url.Values{"grant_type": {"client_credentials"}}, "X", "Y")
		assert.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	})

	t.Run("bad secret", func(t *testing.T) {
		rec := postForm(h.ServeToken, url.Values{"grant_type": {"client_credentials"}}, "X", "nope")
		assert.Equal(t, http.StatusUnauthorized, rec.Code)

		var body oauth.ErrorResponse
		require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
		assert.Equal(t, oauth.ErrorCodeClientAuthenticationFailed, body.Error)
	})

	t.Run("unsupported grant", func(t *testing.T) {
		rec := postForm(h.ServeToken, url.Values{"grant_type": {"authorization_code"}})
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Contains(t, rec.Body.String(), oauth.ErrorCodeUnsupportedGrantType)
	})

	t.Run("wrong method", func(t *testing.T) {
		rec := httptest.NewRecorder()
		h.ServeToken(rec, httptest.NewRequest(http.MethodGet, "/oauth/token", nil))
		assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	})
}

func TestHandler_RoundTrip(t *testing.T) {
	srv, _ := newTestServer(t, backends(t)["relational"], &oauth.Config{TokenDefaultScopes: []string{"read"}})
	h := NewHandler(srv)

	mux := http.NewServeMux()
	h.RegisterRoutes(mux, "")
	mux.Handle("/api/data", h.ValidateToken("read")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		tok, ok := resource.TokenFromContext(r.Context())
		if !ok {
			t.Error("token missing from context")
		}
		_, _ = w.Write([]byte(tok.ClientID))
	})))

	ts := httptest.NewServer(mux)
	defer ts.Close()

	resp, err := http.PostForm(ts.URL+"/oauth/token", url.Values{
		"grant_type": {"client_credentials"}, "client_id": {"X"}, "client_secret": {"Y"},
	})
	require.NoError(t, err)
	defer func() { _ = resp.Body.Close() }()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var body TokenResponse
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&body))

	req, err := http.NewRequest(http.MethodGet, ts.URL+"/api/data", nil)
	require.NoError(t, err)
	req.Header.Set("Authorization", "Bearer "+body.AccessToken)

	apiResp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer func() { _ = apiResp.Body.Close() }()
	assert.Equal(t, http.StatusOK, apiResp.StatusCode)

	unauth, err := http.Get(ts.URL + "/api/data")
	require.NoError(t, err)
	defer func() { _ = unauth.Body.Close() }()
	assert.Equal(t, http.StatusUnauthorized, unauth.StatusCode)
	assert.Contains(t, unauth.Header.Get("WWW-Authenticate"), oauth.ErrorCodeMissingToken)
}
