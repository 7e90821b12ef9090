package resource

import (
	"context"

	"github.com/giantswarm/oauth-core/storage"
)

type contextKey string

const tokenKey contextKey = "access_token"

// ContextWithToken stores a validated token for the rest of the request.
// Only code that has validated tok should call it.
func ContextWithToken(ctx context.Context, tok *storage.Token) context.Context {
	return context.WithValue(ctx, tokenKey, tok)
}

// TokenFromContext returns the token stored by ContextWithToken or Middleware
func TokenFromContext(ctx context.Context) (*storage.Token, bool) {
	tok, ok := ctx.Value(tokenKey).(*storage.Token)
	return tok, ok && tok != nil
}
