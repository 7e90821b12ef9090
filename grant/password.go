package grant

import (
	"context"
	"errors"
	"fmt"

	oauth "github.com/giantswarm/oauth-core"
	"github.com/giantswarm/oauth-core/providers"
	"github.com/giantswarm/oauth-core/storage"
)

// IdentifierPassword is the grant_type of the resource owner password grant
const IdentifierPassword = "password"

// AuthenticationCallback resolves resource owner credentials to a user id.
// It returns providers.ErrInvalidCredentials or an empty id to reject them.
type AuthenticationCallback func(ctx context.Context, username, password string) (userID string, err error)

// Password issues access tokens bound to a resource owner
type Password struct {
	*Base
	authenticate AuthenticationCallback
}

// NewPassword creates the grant. The callback is required.
func NewPassword(base *Base, authenticate AuthenticationCallback) (*Password, error) {
	if authenticate == nil {
		return nil, fmt.Errorf("password grant requires an authentication callback")
	}
	return &Password{Base: base, authenticate: authenticate}, nil
}

// NewPasswordWithAuthenticator creates the grant around a providers.Authenticator
func NewPasswordWithAuthenticator(base *Base, auth providers.Authenticator) (*Password, error) {
	if auth == nil {
		return nil, fmt.Errorf("password grant requires an authenticator")
	}
	return NewPassword(base, auth.Authenticate)
}

// Identifier implements Grant
func (g *Password) Identifier() string { return IdentifierPassword }

// ResponseType implements ResponseTyper
func (g *Password) ResponseType() string { return "" }

// Execute implements Grant
func (g *Password) Execute(ctx context.Context, req oauth.Request) (*storage.Token, error) {
	return g.run(ctx, IdentifierPassword, req, func(ctx context.Context, store storage.Adapter, exec *execution) (*storage.Token, error) {
		params, err := g.ValidateRequestParameters(req, oauth.FieldUsername, oauth.FieldPassword)
		if err != nil {
			return nil, err
		}

		userID, err := g.authenticate(ctx, params[0], params[1])
		switch {
		case errors.Is(err, providers.ErrInvalidCredentials):
			return nil, oauth.ErrUserAuthenticationFailed("invalid resource owner credentials")
		case err != nil:
			return nil, fmt.Errorf("failed to authenticate resource owner: %w", err)
		case userID == "":
			return nil, oauth.ErrUserAuthenticationFailed("invalid resource owner credentials")
		}
		exec.userID = userID

		client, err := g.StrictlyValidateClient(ctx, store, req)
		if err != nil {
			return nil, err
		}

		scopes, err := g.ValidateScopes(ctx, store, req, nil)
		if err != nil {
			return nil, err
		}

		return g.CreateToken(ctx, store, storage.TokenTypeAccess, client.ID, userID, scopes)
	})
}
