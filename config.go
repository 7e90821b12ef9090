package oauth

import (
	"fmt"
	"log/slog"
	"os"
	"strings"

	"github.com/caarlos0/env/v11"
	toml "github.com/pelletier/go-toml/v2"
)

const (
	// DefaultAccessTokenTTL is the default access token lifetime in seconds (1 hour)
	DefaultAccessTokenTTL int64 = 3600

	// DefaultRefreshTokenTTL is the default refresh token lifetime in seconds (14 days)
	DefaultRefreshTokenTTL int64 = 1209600

	// DefaultScopeDelimiter separates scopes in the "scope" request field
	DefaultScopeDelimiter = " "

	// DefaultTokenLength is the length of generated token strings
	DefaultTokenLength = 40
)

// Config holds the authorization server configuration.
// Zero values are replaced by defaults in ApplyDefaults.
type Config struct {
	// AccessTokenTTL is how long access tokens are valid
	AccessTokenTTL int64 `toml:"access_token_ttl" env:"OAUTH_ACCESS_TOKEN_TTL"` // seconds, default: 3600 (1 hour)

	// RefreshTokenTTL is how long refresh tokens are valid
	RefreshTokenTTL int64 `toml:"refresh_token_ttl" env:"OAUTH_REFRESH_TOKEN_TTL"` // seconds, default: 1209600 (14 days)

	// DefaultScopes are required on every access token presented to a resource,
	// in addition to the scopes a resource asks for.
	DefaultScopes []string `toml:"default_scopes" env:"OAUTH_DEFAULT_SCOPES" envSeparator:","`

	// TokenDefaultScopes are granted when a token request names no scope
	TokenDefaultScopes []string `toml:"token_default_scopes" env:"OAUTH_TOKEN_DEFAULT_SCOPES" envSeparator:","`

	// ScopeRequired rejects token requests without a scope when no default applies
	ScopeRequired bool `toml:"scope_required" env:"OAUTH_SCOPE_REQUIRED"`

	// ScopeDelimiter separates scopes in the request (default: " ")
	ScopeDelimiter string `toml:"scope_delimiter" env:"OAUTH_SCOPE_DELIMITER"`

	// TokenLength is the length of generated token strings (default: 40)
	TokenLength int `toml:"token_length" env:"OAUTH_TOKEN_LENGTH"`

	// AuditLogging enables security audit events
	AuditLogging bool `toml:"audit_logging" env:"OAUTH_AUDIT_LOGGING"`

	// Logger for structured logging (optional, uses default if not provided)
	Logger *slog.Logger `toml:"-" env:"-"`
}

// ApplyDefaults fills zero values with their defaults and returns cfg
func (c *Config) ApplyDefaults() *Config {
	if c.AccessTokenTTL <= 0 {
		c.AccessTokenTTL = DefaultAccessTokenTTL
	}
	if c.RefreshTokenTTL <= 0 {
		c.RefreshTokenTTL = DefaultRefreshTokenTTL
	}
	if c.ScopeDelimiter == "" {
		c.ScopeDelimiter = DefaultScopeDelimiter
	}
	if c.TokenLength <= 0 {
		c.TokenLength = DefaultTokenLength
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
	c.DefaultScopes = trimList(c.DefaultScopes)
	c.TokenDefaultScopes = trimList(c.TokenDefaultScopes)
	return c
}

// LoadConfigFromEnv loads configuration from OAUTH_* environment variables
func LoadConfigFromEnv() (*Config, error) {
	cfg := &Config{}
	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	return cfg.ApplyDefaults(), nil
}

// LoadConfigFile loads configuration from a TOML file, then applies
// environment overrides. A missing file is not an error.
func LoadConfigFile(path string) (*Config, error) {
	cfg := &Config{}

	if path != "" {
		data, err := os.ReadFile(path)
		switch {
		case os.IsNotExist(err):
		case err != nil:
			return nil, fmt.Errorf("failed to read config file %s: %w", path, err)
		default:
			if err := toml.Unmarshal(data, cfg); err != nil {
				return nil, fmt.Errorf("failed to parse config file %s: %w", path, err)
			}
		}
	}

	if err := env.Parse(cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}

	return cfg.ApplyDefaults(), nil
}

// trimList removes empty entries from a string slice
func trimList(values []string) []string {
	if len(values) == 0 {
		return nil
	}
	result := make([]string, 0, len(values))
	for _, v := range values {
		v = strings.TrimSpace(v)
		if v != "" {
			result = append(result, v)
		}
	}
	if len(result) == 0 {
		return nil
	}
	return result
}
