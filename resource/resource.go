// Package resource validates bearer access tokens presented to protected resources.
package resource

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	oauth "github.com/giantswarm/oauth-core"
	"github.com/giantswarm/oauth-core/instrumentation"
	"github.com/giantswarm/oauth-core/internal/util"
	"github.com/giantswarm/oauth-core/security"
	"github.com/giantswarm/oauth-core/storage"
)

const (
	bearerScheme     = "Bearer"
	tokenIDLogLength = 8
)

// Config configures a Validator
type Config struct {
	// Backend opens one storage adapter per validation (required)
	Backend storage.Backend

	// DefaultScopes are required on every token in addition to per-call scopes
	DefaultScopes []string

	// Now is the clock (default: time.Now)
	Now func() time.Time

	// Logger for structured logging (default: slog.Default())
	Logger *slog.Logger

	// Auditor receives token_expired and scope_mismatch events (optional)
	Auditor *security.Auditor

	// Instrumentation records spans and metrics (optional)
	Instrumentation *instrumentation.Instrumentation
}

// Validator checks bearer tokens on resource requests
type Validator struct {
	backend         storage.Backend
	defaultScopes   []string
	now             func() time.Time
	logger          *slog.Logger
	auditor         *security.Auditor
	instrumentation *instrumentation.Instrumentation
	tracer          trace.Tracer
}

// NewValidator creates a validator from cfg
func NewValidator(cfg Config) (*Validator, error) {
	if cfg.Backend == nil {
		return nil, fmt.Errorf("storage backend is required")
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}

	v := &Validator{
		backend:         cfg.Backend,
		defaultScopes:   cfg.DefaultScopes,
		now:             cfg.Now,
		logger:          cfg.Logger,
		auditor:         cfg.Auditor,
		instrumentation: cfg.Instrumentation,
	}
	if cfg.Instrumentation != nil {
		v.tracer = cfg.Instrumentation.Tracer("resource")
	}
	return v, nil
}

// FindAccessToken extracts the access token from req. A bearer
// Authorization header wins over the access_token field.
func FindAccessToken(req oauth.Request) (string, error) {
	if header := strings.TrimSpace(req.Header(oauth.HeaderAuthorization)); header != "" {
		scheme, value, ok := strings.Cut(header, " ")
		if ok && strings.EqualFold(scheme, bearerScheme) {
			if value = strings.TrimSpace(value); value != "" {
				return value, nil
			}
		}
	}

	if value, ok := req.Get(oauth.FieldAccessToken); ok && value != "" {
		return value, nil
	}

	return "", oauth.ErrMissingToken("the request carries no access token")
}

// ValidateRequest authenticates req and checks that its token carries the
// default scopes and every scope in required.
//
// An expired token is deleted before ExpiredToken is returned, so presenting
// it again yields UnknownToken.
func (v *Validator) ValidateRequest(ctx context.Context, req oauth.Request, required ...string) (*storage.Token, error) {
	var span trace.Span = noop.Span{}
	if v.tracer != nil {
		ctx, span = v.tracer.Start(ctx, "resource.validate")
	}
	defer span.End()

	tok, err := v.validate(ctx, req, required)
	if err != nil {
		oauthErr := oauth.AsOAuthError(err)
		instrumentation.RecordError(span, err)
		instrumentation.AddErrorAttributes(span, oauthErr.Code, oauthErr.Description)
		if oauthErr.Code == oauth.ErrorCodeServerError {
			v.logger.Error("Resource request validation failed", "error", err)
		}
		v.record(ctx, oauthErr.Code)
		return nil, err
	}

	instrumentation.AddOAuthFlowAttributes(span, tok.ClientID, tok.UserID, tok.Scopes().String(" "))
	instrumentation.SetSpanSuccess(span)
	v.record(ctx, "success")
	return tok, nil
}

func (v *Validator) validate(ctx context.Context, req oauth.Request, required []string) (*storage.Token, error) {
	id, err := FindAccessToken(req)
	if err != nil {
		return nil, err
	}

	store := v.backend.Open()
	tok, err := store.Tokens().GetWithScopes(ctx, id)
	if err != nil {
		if storage.IsNotFound(err) {
			return nil, oauth.ErrUnknownToken("the access token is not known")
		}
		return nil, fmt.Errorf("failed to look up access token: %w", err)
	}

	if tok.IsExpired(v.now()) {
		if err := store.Tokens().Delete(ctx, tok.Token); err != nil {
			return nil, fmt.Errorf("failed to delete expired token: %w", err)
		}
		v.auditor.LogTokenExpired(tok.UserID, tok.ClientID, tok.ExpiresAt())
		if v.instrumentation != nil {
			v.instrumentation.Metrics().RecordTokenExpired(ctx, tok.ClientID)
		}
		v.logger.Debug("Deleted expired access token",
			"token_id", util.SafeTruncate(tok.Token, tokenIDLogLength),
			"client_id", tok.ClientID)
		return nil, oauth.ErrExpiredToken("the access token has expired")
	}

	for _, scope := range v.requiredScopes(required) {
		if !tok.HasScope(scope) {
			v.auditor.LogScopeMismatch(tok.UserID, tok.ClientID, scope)
			return nil, oauth.ErrMismatchedScope(scope)
		}
	}

	return tok, nil
}

// requiredScopes merges the default scopes with required, without duplicates
func (v *Validator) requiredScopes(required []string) []string {
	if len(v.defaultScopes) == 0 {
		return required
	}

	seen := make(map[string]struct{}, len(v.defaultScopes)+len(required))
	merged := make([]string, 0, len(v.defaultScopes)+len(required))
	for _, list := range [][]string{v.defaultScopes, required} {
		for _, s := range list {
			if _, ok := seen[s]; ok {
				continue
			}
			seen[s] = struct{}{}
			merged = append(merged, s)
		}
	}
	return merged
}

func (v *Validator) record(ctx context.Context, result string) {
	if v.instrumentation != nil {
		v.instrumentation.Metrics().RecordResourceValidation(ctx, result)
	}
}

// IsTokenError reports whether err is one of the resource request errors
func IsTokenError(err error) bool {
	for _, target := range []error{
		oauth.ErrMissingToken(""),
		oauth.ErrUnknownToken(""),
		oauth.ErrExpiredToken(""),
		oauth.ErrMismatchedScope(""),
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}
