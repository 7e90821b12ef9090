package providers

import (
	"context"
	"errors"
)

// ErrInvalidCredentials is returned by an Authenticator that rejects the
// supplied resource owner credentials
var ErrInvalidCredentials = errors.New("invalid resource owner credentials")

// Authenticator verifies resource owner credentials for the password grant.
// It returns the stable user id of the authenticated owner.
type Authenticator interface {
	Authenticate(ctx context.Context, username, password string) (userID string, err error)
}

// AuthenticatorFunc adapts a function to Authenticator
type AuthenticatorFunc func(ctx context.Context, username, password string) (string, error)

// Authenticate implements Authenticator
func (f AuthenticatorFunc) Authenticate(ctx context.Context, username, password string) (string, error) {
	return f(ctx, username, password)
}

// IsInvalidCredentials reports whether err rejects the credentials
func IsInvalidCredentials(err error) bool {
	return errors.Is(err, ErrInvalidCredentials)
}
