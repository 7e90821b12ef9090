package resource

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	oauth "github.com/giantswarm/oauth-core"
	"github.com/giantswarm/oauth-core/storage"
)

func TestMiddleware(t *testing.T) {
	f := newFixture(t)
	v := f.validator(t)

	var seen *storage.Token
	handler := v.Middleware("read")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		seen, _ = TokenFromContext(r.Context())
		w.WriteHeader(http.StatusNoContent)
	}))

	tests := []struct {
		name       string
		header     string
		wantStatus int
		wantError  string
	}{
		{name: "valid", header: "Bearer valid", wantStatus: http.StatusNoContent},
		{name: "missing", wantStatus: http.StatusUnauthorized, wantError: oauth.ErrorCodeMissingToken},
		{name: "unknown", header: "Bearer nope", wantStatus: http.StatusUnauthorized, wantError: oauth.ErrorCodeUnknownToken},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			seen = nil
			req := httptest.NewRequest(http.MethodGet, "/resource", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			if tt.wantError == "" {
				require.NotNil(t, seen)
				assert.Equal(t, "valid", seen.Token)
				return
			}

			assert.Nil(t, seen)
			var body oauth.ErrorResponse
			require.NoError(t, json.NewDecoder(rec.Body).Decode(&body))
			assert.Equal(t, tt.wantError, body.Error)
			assert.True(t, strings.HasPrefix(rec.Header().Get("WWW-Authenticate"), `Bearer error="`+tt.wantError+`"`))
			assert.Equal(t, "application/json", rec.Header().Get("Content-Type"))
		})
	}
}

func TestMiddleware_ReusesValidatedToken(t *testing.T) {
	f := newFixture(t)
	v := f.validator(t)

	calls := 0
	handler := v.Middleware("read")(v.Middleware("write")(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls++
	})))

	req := httptest.NewRequest(http.MethodGet, "/", nil)
	req.Header.Set("Authorization", "Bearer valid")
	rec := httptest.NewRecorder()
	handler.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 1, calls)

	// a token from the context lacking a scope is validated again
	ctx := ContextWithToken(context.Background(), &storage.Token{Token: "valid"})
	rec = httptest.NewRecorder()
	v.Middleware("admin")(http.NotFoundHandler()).ServeHTTP(rec, req.WithContext(ctx))
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestWriteError_ServerError(t *testing.T) {
	rec := httptest.NewRecorder()
	WriteError(rec, assert.AnError)

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))
	assert.NotContains(t, rec.Body.String(), assert.AnError.Error(), "internal details must not leak")
}

func TestFormatChallenge_Escapes(t *testing.T) {
	got := formatChallenge(oauth.NewOAuthError("mismatched_scope", `needs "admin" \ root`, http.StatusUnauthorized))
	assert.Equal(t, `Bearer error="mismatched_scope", error_description="needs \"admin\" \\ root"`, got)
}
