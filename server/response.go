package server

import (
	"time"

	"github.com/giantswarm/oauth-core/storage"
)

// TokenTypeBearer is the token_type of every issued access token
const TokenTypeBearer = "Bearer"

// TokenResponse is the JSON body of a successful token request
type TokenResponse struct {
	AccessToken string `json:"access_token"`
	TokenType   string `json:"token_type"`
	ExpiresIn   int64  `json:"expires_in"`
	Scope       string `json:"scope,omitempty"`
}

// NewTokenResponse renders tok with expires_in relative to now. Scopes are
// joined with delim in sorted order.
func NewTokenResponse(tok *storage.Token, now time.Time, delim string) TokenResponse {
	expiresIn := tok.Expires - now.Unix()
	if expiresIn < 0 {
		expiresIn = 0
	}
	return TokenResponse{
		AccessToken: tok.Token,
		TokenType:   TokenTypeBearer,
		ExpiresIn:   expiresIn,
		Scope:       tok.Scopes().String(delim),
	}
}
