package grant

import (
	"context"

	oauth "github.com/giantswarm/oauth-core"
	"github.com/giantswarm/oauth-core/storage"
)

// IdentifierClientCredentials is the grant_type of the client credentials grant
const IdentifierClientCredentials = "client_credentials"

// ClientCredentials issues access tokens to authenticated clients acting on
// their own behalf. Issued tokens carry no user id.
type ClientCredentials struct {
	*Base
}

// NewClientCredentials creates the grant
func NewClientCredentials(base *Base) *ClientCredentials {
	return &ClientCredentials{Base: base}
}

// Identifier implements Grant
func (g *ClientCredentials) Identifier() string { return IdentifierClientCredentials }

// ResponseType implements ResponseTyper. The grant has no authorization endpoint form.
func (g *ClientCredentials) ResponseType() string { return "" }

// Execute implements Grant
func (g *ClientCredentials) Execute(ctx context.Context, req oauth.Request) (*storage.Token, error) {
	return g.run(ctx, IdentifierClientCredentials, req, func(ctx context.Context, store storage.Adapter, _ *execution) (*storage.Token, error) {
		client, err := g.StrictlyValidateClient(ctx, store, req)
		if err != nil {
			return nil, err
		}

		scopes, err := g.ValidateScopes(ctx, store, req, nil)
		if err != nil {
			return nil, err
		}

		return g.CreateToken(ctx, store, storage.TokenTypeAccess, client.ID, "", scopes)
	})
}
