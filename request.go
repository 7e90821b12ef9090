package oauth

import (
	"net/http"
	"strings"
)

// Request field names read by grants and validators
const (
	FieldGrantType    = "grant_type"
	FieldClientID     = "client_id"
	FieldClientSecret = "client_secret"
	FieldRedirectURI  = "redirect_uri"
	FieldScope        = "scope"
	FieldUsername     = "username"
	FieldPassword     = "password"
	FieldAccessToken  = "access_token"

	HeaderAuthorization = "Authorization"
)

// Request is the read-only view of an incoming request that the core needs.
// Hosts adapt their transport to it; NewHTTPRequest covers net/http.
type Request interface {
	// Get returns a request field (form body or query string).
	// The boolean is false when the field is absent.
	Get(name string) (string, bool)

	// Header returns a request header, or "" when absent.
	// Header names are matched case-insensitively.
	Header(name string) string
}

// Values is a map-backed Request. Keys starting with "header:" are
// served by Header, everything else by Get.
type Values map[string]string

// Get implements Request
func (v Values) Get(name string) (string, bool) {
	val, ok := v[name]
	return val, ok
}

// Header implements Request
func (v Values) Header(name string) string {
	for k, val := range v {
		if strings.HasPrefix(k, "header:") && strings.EqualFold(strings.TrimPrefix(k, "header:"), name) {
			return val
		}
	}
	return ""
}

// HTTPRequest adapts an *http.Request to Request
type HTTPRequest struct {
	r *http.Request
}

// NewHTTPRequest wraps r. The form is parsed eagerly so that a malformed
// body does not surface halfway through a grant.
func NewHTTPRequest(r *http.Request) *HTTPRequest {
	_ = r.ParseForm()
	return &HTTPRequest{r: r}
}

// Get implements Request. Form values take precedence over the query string.
// HTTP Basic credentials are used for client_id and client_secret when the
// form does not carry them.
func (h *HTTPRequest) Get(name string) (string, bool) {
	if vals, ok := h.r.Form[name]; ok && len(vals) > 0 {
		return vals[0], true
	}

	switch name {
	case FieldClientID, FieldClientSecret:
		user, pass, ok := h.r.BasicAuth()
		if !ok {
			return "", false
		}
		if name == FieldClientID {
			return user, true
		}
		return pass, true
	}

	return "", false
}

// Header implements Request
func (h *HTTPRequest) Header(name string) string {
	return h.r.Header.Get(name)
}

// Underlying returns the wrapped *http.Request
func (h *HTTPRequest) Underlying() *http.Request {
	return h.r
}
