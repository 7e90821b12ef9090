// Package grant implements the token-issuing grant strategies.
//
// Every strategy embeds Base, which carries the shared pipeline: client
// authentication, scope validation, request parameter checks and token
// minting. New grant types are added by implementing Grant and registering
// it with a Registry.
package grant

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	oauth "github.com/giantswarm/oauth-core"
	"github.com/giantswarm/oauth-core/instrumentation"
	"github.com/giantswarm/oauth-core/internal/util"
	"github.com/giantswarm/oauth-core/scope"
	"github.com/giantswarm/oauth-core/security"
	"github.com/giantswarm/oauth-core/storage"
	"github.com/giantswarm/oauth-core/token"
)

// tokenIDLogLength is the number of characters to include when logging token IDs
const tokenIDLogLength = 8

// Grant issues a token for one grant_type
type Grant interface {
	// Identifier is the grant_type value this grant answers to
	Identifier() string

	// Execute authenticates the request and returns the issued token
	Execute(ctx context.Context, req oauth.Request) (*storage.Token, error)
}

// ResponseTyper is implemented by grants that are also reachable through
// the authorization endpoint's response_type parameter
type ResponseTyper interface {
	ResponseType() string
}

// Config holds the dependencies shared by all grants
type Config struct {
	// Backend opens one storage adapter per execution (required)
	Backend storage.Backend

	// Scopes validates requested scopes (default: space delimited, no defaults)
	Scopes *scope.Validator

	// Generator produces token strings (default: crypto/rand)
	Generator *token.Generator

	// TokenLength is the length of token strings (default: token.DefaultLength)
	TokenLength int

	// AccessTokenTTL and RefreshTokenTTL are lifetimes in seconds
	AccessTokenTTL  int64 // default: oauth.DefaultAccessTokenTTL
	RefreshTokenTTL int64 // default: oauth.DefaultRefreshTokenTTL

	// Now is the clock (default: time.Now)
	Now func() time.Time

	// Logger for structured logging (default: slog.Default())
	Logger *slog.Logger

	// Auditor receives security events (optional)
	Auditor *security.Auditor

	// Instrumentation records spans and metrics (optional)
	Instrumentation *instrumentation.Instrumentation
}

// Base is the shared grant pipeline. It is safe for concurrent use; all
// per-request state lives in the adapter passed to each method.
type Base struct {
	backend         storage.Backend
	scopes          *scope.Validator
	generator       *token.Generator
	tokenLength     int
	accessTokenTTL  int64
	refreshTokenTTL int64
	now             func() time.Time
	logger          *slog.Logger
	auditor         *security.Auditor
	instrumentation *instrumentation.Instrumentation
	tracer          trace.Tracer
}

// NewBase validates cfg and fills in defaults
func NewBase(cfg Config) (*Base, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("storage backend is required")
	}

	b := &Base{
		backend:         cfg.Backend,
		scopes:          cfg.Scopes,
		generator:       cfg.Generator,
		tokenLength:     cfg.TokenLength,
		accessTokenTTL:  cfg.AccessTokenTTL,
		refreshTokenTTL: cfg.RefreshTokenTTL,
		now:             cfg.Now,
		logger:          cfg.Logger,
		auditor:         cfg.Auditor,
		instrumentation: cfg.Instrumentation,
	}

	if b.scopes == nil {
		b.scopes = scope.NewValidator(scope.DefaultDelimiter, nil, false)
	}
	if b.generator == nil {
		b.generator = token.NewGenerator()
	}
	if b.tokenLength <= 0 {
		b.tokenLength = token.DefaultLength
	}
	if b.accessTokenTTL <= 0 {
		b.accessTokenTTL = oauth.DefaultAccessTokenTTL
	}
	if b.refreshTokenTTL <= 0 {
		b.refreshTokenTTL = oauth.DefaultRefreshTokenTTL
	}
	if b.now == nil {
		b.now = time.Now
	}
	if b.logger == nil {
		b.logger = slog.Default()
	}
	if b.instrumentation != nil {
		b.tracer = b.instrumentation.Tracer("grant")
	}

	return b, nil
}

// Open returns a fresh request-scoped adapter
func (b *Base) Open() storage.Adapter {
	return b.backend.Open()
}

// ValidateClient authenticates the client named by the request.
// In strict mode both client_id and client_secret are mandatory.
func (b *Base) ValidateClient(ctx context.Context, store storage.Adapter, req oauth.Request, strict bool) (*storage.Client, error) {
	id, _ := req.Get(oauth.FieldClientID)
	secret, _ := req.Get(oauth.FieldClientSecret)
	redirectURI, _ := req.Get(oauth.FieldRedirectURI)

	if id == "" || (strict && secret == "") {
		return nil, oauth.ErrClientAuthenticationFailed("client credentials are required")
	}

	client, err := store.Clients().Get(ctx, id, secret, redirectURI)
	if err != nil {
		if storage.IsNotFound(err) || errors.Is(err, storage.ErrInvalidCredentials) {
			return nil, oauth.ErrClientAuthenticationFailed("invalid client credentials")
		}
		return nil, fmt.Errorf("failed to look up client: %w", err)
	}
	return client, nil
}

// StrictlyValidateClient is ValidateClient with id and secret required
func (b *Base) StrictlyValidateClient(ctx context.Context, store storage.Adapter, req oauth.Request) (*storage.Client, error) {
	return b.ValidateClient(ctx, store, req, true)
}

// ValidateScopes resolves the requested scopes. original narrows what may be requested.
func (b *Base) ValidateScopes(ctx context.Context, store storage.Adapter, req oauth.Request, original storage.ScopeSet) (storage.ScopeSet, error) {
	return b.scopes.Validate(ctx, req, store.Scopes(), original)
}

// ValidateRequestParameters returns the values of names in order.
// The first absent or empty field fails with missing_parameter.
func (b *Base) ValidateRequestParameters(req oauth.Request, names ...string) ([]string, error) {
	values := make([]string, len(names))
	for i, name := range names {
		v, ok := req.Get(name)
		if !ok || v == "" {
			return nil, oauth.ErrMissingParameter(name)
		}
		values[i] = v
	}
	return values, nil
}

// TTL returns the lifetime in seconds for a token type
func (b *Base) TTL(tokenType string) (int64, error) {
	switch tokenType {
	case storage.TokenTypeAccess:
		return b.accessTokenTTL, nil
	case storage.TokenTypeRefresh:
		return b.refreshTokenTTL, nil
	default:
		return 0, fmt.Errorf("unknown token type %q", tokenType)
	}
}

// GenerateToken returns a new token string
func (b *Base) GenerateToken() (string, error) {
	return b.generator.Make(b.tokenLength)
}

// CreateToken mints, persists and scopes a token. If the scopes cannot be
// associated the token is deleted again before the error is returned.
func (b *Base) CreateToken(ctx context.Context, store storage.Adapter, tokenType, clientID, userID string, scopes storage.ScopeSet) (*storage.Token, error) {
	ttl, err := b.TTL(tokenType)
	if err != nil {
		return nil, err
	}

	id, err := b.GenerateToken()
	if err != nil {
		return nil, err
	}

	expires := b.now().Unix() + ttl
	tok, err := store.Tokens().Create(ctx, id, tokenType, clientID, userID, expires)
	if err != nil {
		return nil, fmt.Errorf("failed to persist token: %w", err)
	}

	if len(scopes) > 0 {
		if err := store.Tokens().AssociateScopes(ctx, id, scopes); err != nil {
			if delErr := store.Tokens().Delete(ctx, id); delErr != nil {
				b.logger.Error("Failed to remove token after scope association failure",
					"token_id", util.SafeTruncate(id, tokenIDLogLength),
					"error", delErr)
			}
			return nil, fmt.Errorf("failed to associate scopes: %w", err)
		}
	}

	tok.AttachScopes(scopes)
	return tok, nil
}

// execution carries what run learns about a request for auditing
type execution struct {
	clientID string
	userID   string
}

// run executes fn with a fresh adapter inside a grant span and records
// the outcome in logs, audit events and metrics
func (b *Base) run(ctx context.Context, grantType string, req oauth.Request, fn func(ctx context.Context, store storage.Adapter, exec *execution) (*storage.Token, error)) (*storage.Token, error) {
	var span trace.Span = noop.Span{}
	if b.tracer != nil {
		ctx, span = b.tracer.Start(ctx, "grant.execute",
			trace.WithAttributes(attribute.String(instrumentation.AttrGrantType, grantType)))
	}
	defer span.End()

	exec := &execution{}
	exec.clientID, _ = req.Get(oauth.FieldClientID)

	tok, err := fn(ctx, b.Open(), exec)
	if err != nil {
		b.fail(ctx, span, grantType, exec, err)
		return nil, err
	}

	scopeString := tok.Scopes().String(b.scopes.Delimiter)
	instrumentation.AddOAuthFlowAttributes(span, tok.ClientID, tok.UserID, scopeString)
	instrumentation.SetSpanAttributes(span, attribute.String(instrumentation.AttrTokenType, tok.Type))
	instrumentation.SetSpanSuccess(span)

	if b.instrumentation != nil {
		b.instrumentation.Metrics().RecordGrantExecution(ctx, grantType, "success")
		b.instrumentation.Metrics().RecordTokenIssued(ctx, grantType, tok.Type)
	}
	b.auditor.LogTokenIssued(tok.UserID, tok.ClientID, grantType, scopeString)

	b.logger.Info("Issued token",
		"grant_type", grantType,
		"client_id", tok.ClientID,
		"token_id", util.SafeTruncate(tok.Token, tokenIDLogLength),
		"scope", scopeString)
	return tok, nil
}

func (b *Base) fail(ctx context.Context, span trace.Span, grantType string, exec *execution, err error) {
	instrumentation.RecordError(span, err)

	var oauthErr *oauth.OAuthError
	if !errors.As(err, &oauthErr) {
		if errors.Is(err, token.ErrGenerationFailure) {
			b.logger.Error("Token generation failed", "grant_type", grantType, "error", err)
		} else {
			b.logger.Error("Grant execution failed", "grant_type", grantType, "error", err)
		}
		if b.instrumentation != nil {
			b.instrumentation.Metrics().RecordGrantExecution(ctx, grantType, oauth.ErrorCodeServerError)
		}
		return
	}

	instrumentation.AddErrorAttributes(span, oauthErr.Code, oauthErr.Description)
	if b.instrumentation != nil {
		b.instrumentation.Metrics().RecordGrantExecution(ctx, grantType, oauthErr.Code)
	}

	switch oauthErr.Code {
	case oauth.ErrorCodeClientAuthenticationFailed, oauth.ErrorCodeUserAuthenticationFailed:
		b.auditor.LogAuthFailure(exec.userID, exec.clientID, oauthErr.Code)
	case oauth.ErrorCodeSuspiciousScope:
		b.auditor.LogScopeEscalation(exec.userID, exec.clientID, oauthErr.Description)
		if b.instrumentation != nil {
			b.instrumentation.Metrics().RecordScopeEscalation(ctx, exec.clientID)
		}
	}

	b.logger.Debug("Grant rejected",
		"grant_type", grantType,
		"client_id", exec.clientID,
		"error", oauthErr.Code)
}
