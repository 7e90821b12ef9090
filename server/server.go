package server

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	oauth "github.com/giantswarm/oauth-core"
	"github.com/giantswarm/oauth-core/grant"
	"github.com/giantswarm/oauth-core/instrumentation"
	"github.com/giantswarm/oauth-core/providers"
	"github.com/giantswarm/oauth-core/resource"
	"github.com/giantswarm/oauth-core/scope"
	"github.com/giantswarm/oauth-core/security"
	"github.com/giantswarm/oauth-core/storage"
	"github.com/giantswarm/oauth-core/token"
)

const (
	// auditEventsPerSecond and auditBurst throttle auth_failure events per client
	auditEventsPerSecond = 1
	auditBurst           = 10
)

// Server is the authorization server facade
type Server struct {
	backend   storage.Backend
	config    *oauth.Config
	base      *grant.Base
	registry  *grant.Registry
	resources *resource.Validator

	authenticate    grant.AuthenticationCallback
	generator       *token.Generator
	auditor         *security.Auditor
	instrumentation *instrumentation.Instrumentation
	now             func() time.Time
	logger          *slog.Logger
}

// Option configures a Server
type Option func(*Server)

// WithAuthenticationCallback enables the password grant with cb
func WithAuthenticationCallback(cb grant.AuthenticationCallback) Option {
	return func(s *Server) {
		s.authenticate = cb
	}
}

// WithAuthenticator enables the password grant backed by auth
func WithAuthenticator(auth providers.Authenticator) Option {
	return func(s *Server) {
		if auth != nil {
			s.authenticate = auth.Authenticate
		}
	}
}

// WithAuditor replaces the auditor built from Config.AuditLogging
func WithAuditor(a *security.Auditor) Option {
	return func(s *Server) {
		s.auditor = a
	}
}

// WithInstrumentation enables tracing and metrics
func WithInstrumentation(inst *instrumentation.Instrumentation) Option {
	return func(s *Server) {
		s.instrumentation = inst
	}
}

// WithClock replaces time.Now
func WithClock(now func() time.Time) Option {
	return func(s *Server) {
		s.now = now
	}
}

// WithTokenGenerator replaces the crypto/rand token generator
func WithTokenGenerator(g *token.Generator) Option {
	return func(s *Server) {
		s.generator = g
	}
}

// New creates a server over backend. A nil cfg uses defaults.
func New(backend storage.Backend, cfg *oauth.Config, opts ...Option) (*Server, error) {
	if backend == nil {
		return nil, fmt.Errorf("storage backend is required")
	}
	if cfg == nil {
		cfg = &oauth.Config{}
	}
	cfg.ApplyDefaults()

	s := &Server{
		backend: backend,
		config:  cfg,
		now:     time.Now,
		logger:  cfg.Logger,
	}
	for _, opt := range opts {
		opt(s)
	}

	if s.auditor == nil {
		s.auditor = security.NewAuditor(s.logger, cfg.AuditLogging)
		s.auditor.SetRateLimiter(security.NewRateLimiter(auditEventsPerSecond, auditBurst, s.logger))
	}
	if s.generator == nil {
		s.generator = token.NewGenerator()
	}

	base, err := grant.NewBase(grant.Config{
		Backend:         backend,
		Scopes:          scope.NewValidator(cfg.ScopeDelimiter, cfg.TokenDefaultScopes, cfg.ScopeRequired),
		Generator:       s.generator,
		TokenLength:     cfg.TokenLength,
		AccessTokenTTL:  cfg.AccessTokenTTL,
		RefreshTokenTTL: cfg.RefreshTokenTTL,
		Now:             s.now,
		Logger:          s.logger,
		Auditor:         s.auditor,
		Instrumentation: s.instrumentation,
	})
	if err != nil {
		return nil, err
	}
	s.base = base

	grants := []grant.Grant{grant.NewClientCredentials(base)}
	if s.authenticate != nil {
		password, err := grant.NewPassword(base, s.authenticate)
		if err != nil {
			return nil, err
		}
		grants = append(grants, password)
	}

	s.registry, err = grant.NewRegistry(grants...)
	if err != nil {
		return nil, err
	}

	s.resources, err = resource.NewValidator(resource.Config{
		Backend:         backend,
		DefaultScopes:   cfg.DefaultScopes,
		Now:             s.now,
		Logger:          s.logger,
		Auditor:         s.auditor,
		Instrumentation: s.instrumentation,
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("Authorization server initialized",
		"grant_types", s.registry.Identifiers(),
		"access_token_ttl", cfg.AccessTokenTTL,
		"audit_logging", s.auditor.Enabled())

	return s, nil
}

// IssueToken runs the grant named by the request's grant_type
func (s *Server) IssueToken(ctx context.Context, req oauth.Request) (*storage.Token, error) {
	grantType, _ := req.Get(oauth.FieldGrantType)
	if grantType == "" {
		return nil, oauth.ErrMissingParameter(oauth.FieldGrantType)
	}

	g, ok := s.registry.Get(grantType)
	if !ok {
		return nil, oauth.ErrUnsupportedGrantType(grantType)
	}
	return g.Execute(ctx, req)
}

// ValidateRequest checks the access token of a resource request
func (s *Server) ValidateRequest(ctx context.Context, req oauth.Request, scopes ...string) (*storage.Token, error) {
	return s.resources.ValidateRequest(ctx, req, scopes...)
}

// RegisterGrant adds an extension grant
func (s *Server) RegisterGrant(g grant.Grant) error {
	return s.registry.Register(g)
}

// GrantTypes returns the supported grant_type values
func (s *Server) GrantTypes() []string {
	return s.registry.Identifiers()
}

// Base returns the shared grant pipeline for building extension grants
func (s *Server) Base() *grant.Base {
	return s.base
}

// Resources returns the resource validator
func (s *Server) Resources() *resource.Validator {
	return s.resources
}

// Config returns the effective configuration
func (s *Server) Config() *oauth.Config {
	return s.config
}

// NewTokenResponse renders tok for the token endpoint
func (s *Server) NewTokenResponse(tok *storage.Token) TokenResponse {
	return NewTokenResponse(tok, s.now(), s.config.ScopeDelimiter)
}
