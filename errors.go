package oauth

import (
	"errors"
	"fmt"
	"net/http"
)

// OAuth error codes as constants
const (
	ErrorCodeClientAuthenticationFailed = "client_authentication_failed"
	ErrorCodeMissingParameter           = "missing_parameter"
	ErrorCodeUserAuthenticationFailed   = "user_authentication_failed"
	ErrorCodeSuspiciousScope            = "suspicious_scope"
	ErrorCodeUnknownScope               = "unknown_scope"
	ErrorCodeUnsupportedGrantType       = "unsupported_grant_type"
	ErrorCodeMissingToken               = "missing_token"
	ErrorCodeUnknownToken               = "unknown_token"
	ErrorCodeExpiredToken               = "expired_token"
	ErrorCodeMismatchedScope            = "mismatched_scope"
	ErrorCodeServerError                = "server_error"
)

// OAuthError represents an OAuth 2.0 error response
type OAuthError struct {
	Code        string // OAuth error code (e.g., "missing_parameter", "unknown_token")
	Description string // Human-readable error description
	Status      int    // HTTP status code
}

// Error implements the error interface
func (e *OAuthError) Error() string {
	return fmt.Sprintf("%s: %s", e.Code, e.Description)
}

// Is reports whether target is an OAuthError with the same code.
// This lets callers write errors.Is(err, oauth.ErrUnknownToken("")).
func (e *OAuthError) Is(target error) bool {
	var t *OAuthError
	if !errors.As(target, &t) {
		return false
	}
	return t.Code == e.Code
}

// NewOAuthError creates a new OAuth error
func NewOAuthError(code, description string, status int) *OAuthError {
	return &OAuthError{
		Code:        code,
		Description: description,
		Status:      status,
	}
}

// Token request errors
var (
	// ErrClientAuthenticationFailed indicates the client could not be authenticated
	ErrClientAuthenticationFailed = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeClientAuthenticationFailed, desc, http.StatusUnauthorized)
	}

	// ErrMissingParameter indicates a required request parameter is absent or empty
	ErrMissingParameter = func(param string) *OAuthError {
		return NewOAuthError(ErrorCodeMissingParameter,
			fmt.Sprintf("the request is missing the %q parameter", param), http.StatusBadRequest)
	}

	// ErrUserAuthenticationFailed indicates the resource owner credentials were rejected
	ErrUserAuthenticationFailed = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeUserAuthenticationFailed, desc, http.StatusBadRequest)
	}

	// ErrSuspiciousScope indicates a scope outside the originally granted set was requested
	ErrSuspiciousScope = func(scope string) *OAuthError {
		return NewOAuthError(ErrorCodeSuspiciousScope,
			fmt.Sprintf("scope %q was not part of the original grant", scope), http.StatusBadRequest)
	}

	// ErrUnknownScope indicates a requested scope does not exist in the scope store
	ErrUnknownScope = func(scope string) *OAuthError {
		return NewOAuthError(ErrorCodeUnknownScope,
			fmt.Sprintf("scope %q is not known", scope), http.StatusBadRequest)
	}

	// ErrUnsupportedGrantType indicates no grant is registered for the requested grant_type
	ErrUnsupportedGrantType = func(grantType string) *OAuthError {
		return NewOAuthError(ErrorCodeUnsupportedGrantType,
			fmt.Sprintf("grant type %q is not supported", grantType), http.StatusBadRequest)
	}
)

// Resource request errors
var (
	// ErrMissingToken indicates the request carried no access token
	ErrMissingToken = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeMissingToken, desc, http.StatusUnauthorized)
	}

	// ErrUnknownToken indicates the access token does not exist
	ErrUnknownToken = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeUnknownToken, desc, http.StatusUnauthorized)
	}

	// ErrExpiredToken indicates the access token has expired and was removed
	ErrExpiredToken = func(desc string) *OAuthError {
		return NewOAuthError(ErrorCodeExpiredToken, desc, http.StatusUnauthorized)
	}

	// ErrMismatchedScope indicates the access token lacks a required scope
	ErrMismatchedScope = func(scope string) *OAuthError {
		return NewOAuthError(ErrorCodeMismatchedScope,
			fmt.Sprintf("the access token is missing the %q scope", scope), http.StatusUnauthorized)
	}
)

// ErrServerError indicates an internal server error occurred
var ErrServerError = func(desc string) *OAuthError {
	return NewOAuthError(ErrorCodeServerError, desc, http.StatusInternalServerError)
}

// AsOAuthError converts any error into an *OAuthError.
// Errors that already are (or wrap) an *OAuthError are returned as such;
// everything else becomes a server_error so internal details never reach clients.
func AsOAuthError(err error) *OAuthError {
	if err == nil {
		return nil
	}
	var oauthErr *OAuthError
	if errors.As(err, &oauthErr) {
		return oauthErr
	}
	return ErrServerError("internal server error")
}

// ErrorResponse is the JSON body written for a failed request
type ErrorResponse struct {
	Error            string `json:"error"`
	ErrorDescription string `json:"error_description,omitempty"`
}

// Response returns the JSON error body for e
func (e *OAuthError) Response() ErrorResponse {
	return ErrorResponse{
		Error:            e.Code,
		ErrorDescription: e.Description,
	}
}
