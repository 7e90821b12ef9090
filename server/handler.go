package server

import (
	"encoding/json"
	"net/http"

	oauth "github.com/giantswarm/oauth-core"
	"github.com/giantswarm/oauth-core/resource"
)

// Handler exposes a Server over net/http
type Handler struct {
	server *Server
}

// NewHandler creates a handler for srv
func NewHandler(srv *Server) *Handler {
	return &Handler{server: srv}
}

// ServeToken is the token endpoint. It accepts form-encoded POST requests
// and client credentials in the body or through HTTP Basic authentication.
func (h *Handler) ServeToken(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		http.Error(w, "Method not allowed", http.StatusMethodNotAllowed)
		return
	}

	tok, err := h.server.IssueToken(r.Context(), oauth.NewHTTPRequest(r))
	if err != nil {
		oauthErr := oauth.AsOAuthError(err)
		if oauthErr.Code == oauth.ErrorCodeServerError {
			h.server.logger.Error("Token request failed", "error", err)
		}
		resource.WriteError(w, oauthErr)
		return
	}

	w.Header().Set("Cache-Control", "no-store")
	w.Header().Set("Pragma", "no-cache")
	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(h.server.NewTokenResponse(tok))
}

// ValidateToken is middleware that requires a bearer token carrying scopes
func (h *Handler) ValidateToken(scopes ...string) func(http.Handler) http.Handler {
	return h.server.resources.Middleware(scopes...)
}

// RegisterRoutes mounts the token endpoint at path
func (h *Handler) RegisterRoutes(mux *http.ServeMux, path string) {
	if path == "" {
		path = "/oauth/token"
	}
	mux.HandleFunc(path, h.ServeToken)
}
