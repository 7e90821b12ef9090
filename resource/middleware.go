package resource

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	oauth "github.com/giantswarm/oauth-core"
)

// Middleware validates the bearer token of every request against the
// default scopes and required. The validated token is available to next
// through TokenFromContext.
func (v *Validator) Middleware(required ...string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if tok, ok := TokenFromContext(r.Context()); ok && hasScopes(tok.HasScope, v.requiredScopes(required)) {
				next.ServeHTTP(w, r)
				return
			}

			tok, err := v.ValidateRequest(r.Context(), oauth.NewHTTPRequest(r), required...)
			if err != nil {
				WriteError(w, err)
				return
			}

			next.ServeHTTP(w, r.WithContext(ContextWithToken(r.Context(), tok)))
		})
	}
}

func hasScopes(has func(string) bool, scopes []string) bool {
	for _, s := range scopes {
		if !has(s) {
			return false
		}
	}
	return true
}

// WriteError renders err as a JSON error body. Unauthorized responses carry
// a Bearer WWW-Authenticate challenge.
func WriteError(w http.ResponseWriter, err error) {
	oauthErr := oauth.AsOAuthError(err)

	if oauthErr.Status == http.StatusUnauthorized {
		w.Header().Set("WWW-Authenticate", formatChallenge(oauthErr))
	}
	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(oauthErr.Status)
	_ = json.NewEncoder(w).Encode(oauthErr.Response())
}

// formatChallenge builds the WWW-Authenticate value per RFC 6750
func formatChallenge(e *oauth.OAuthError) string {
	params := []string{fmt.Sprintf(`error="%s"`, quote(e.Code))}
	if e.Description != "" {
		params = append(params, fmt.Sprintf(`error_description="%s"`, quote(e.Description)))
	}
	return bearerScheme + " " + strings.Join(params, ", ")
}

// quote escapes backslashes, then quotes, for an HTTP quoted-string
func quote(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return strings.ReplaceAll(s, `"`, `\"`)
}
