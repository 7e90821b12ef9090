// Package upstream authenticates resource owners by exchanging their
// credentials with an upstream OAuth2 server.
//
// The exchange uses the resource owner password credentials grant of
// golang.org/x/oauth2. When a userinfo endpoint is known the returned access
// token is used to look up the user id claim; otherwise the username is
// taken as the user id.
package upstream

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"

	"golang.org/x/oauth2"

	"github.com/giantswarm/oauth-core/providers"
)

// DefaultUserIDClaim is the userinfo claim used as user id
const DefaultUserIDClaim = "sub"

// Config configures the upstream authenticator
type Config struct {
	ClientID     string
	ClientSecret string

	// Issuer is used for OIDC discovery when TokenURL is empty
	Issuer string

	// TokenURL is the upstream token endpoint
	TokenURL string

	// UserInfoURL is the upstream userinfo endpoint (optional)
	UserInfoURL string

	// Scopes requested upstream
	Scopes []string

	// UserIDClaim names the userinfo claim holding the user id (default: "sub")
	UserIDClaim string

	// HTTPClient is used for all upstream requests (default: 10s timeout)
	HTTPClient *http.Client

	// Discovery resolves Issuer (default: NewDiscovery(HTTPClient, 0, Logger))
	Discovery *Discovery

	Logger *slog.Logger
}

// Authenticator exchanges resource owner credentials upstream
type Authenticator struct {
	oauth2      *oauth2.Config
	userInfoURL string
	claim       string
	httpClient  *http.Client
	logger      *slog.Logger
}

var _ providers.Authenticator = (*Authenticator)(nil)

// New creates an authenticator, running discovery when only an issuer is given
func New(ctx context.Context, cfg Config) (*Authenticator, error) {
	if cfg.ClientID == "" {
		return nil, fmt.Errorf("upstream client id is required")
	}
	if cfg.HTTPClient == nil {
		cfg.HTTPClient = &http.Client{Timeout: defaultTimeout}
	}
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	if cfg.UserIDClaim == "" {
		cfg.UserIDClaim = DefaultUserIDClaim
	}

	if cfg.TokenURL == "" {
		if cfg.Issuer == "" {
			return nil, fmt.Errorf("either token URL or issuer is required")
		}
		if cfg.Discovery == nil {
			cfg.Discovery = NewDiscovery(cfg.HTTPClient, 0, cfg.Logger)
		}
		endpoints, err := cfg.Discovery.Discover(ctx, cfg.Issuer)
		if err != nil {
			return nil, fmt.Errorf("upstream discovery failed: %w", err)
		}
		cfg.TokenURL = endpoints.TokenEndpoint
		if cfg.UserInfoURL == "" {
			cfg.UserInfoURL = endpoints.UserInfoEndpoint
		}
	}

	return &Authenticator{
		oauth2: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			Endpoint:     oauth2.Endpoint{TokenURL: cfg.TokenURL, AuthStyle: oauth2.AuthStyleInHeader},
			Scopes:       cfg.Scopes,
		},
		userInfoURL: cfg.UserInfoURL,
		claim:       cfg.UserIDClaim,
		httpClient:  cfg.HTTPClient,
		logger:      cfg.Logger,
	}, nil
}

// Authenticate implements providers.Authenticator
func (a *Authenticator) Authenticate(ctx context.Context, username, password string) (string, error) {
	ctx = context.WithValue(ctx, oauth2.HTTPClient, a.httpClient)

	tok, err := a.oauth2.PasswordCredentialsToken(ctx, username, password)
	if err != nil {
		var retrieveErr *oauth2.RetrieveError
		if errors.As(err, &retrieveErr) && isRejection(retrieveErr) {
			a.logger.Debug("Upstream rejected resource owner credentials",
				"error_code", retrieveErr.ErrorCode)
			return "", providers.ErrInvalidCredentials
		}
		return "", fmt.Errorf("upstream token exchange failed: %w", err)
	}

	if a.userInfoURL == "" {
		return username, nil
	}
	return a.userID(ctx, tok)
}

func (a *Authenticator) userID(ctx context.Context, tok *oauth2.Token) (string, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, a.userInfoURL, nil)
	if err != nil {
		return "", fmt.Errorf("failed to create userinfo request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := a.oauth2.Client(ctx, tok).Do(req)
	if err != nil {
		return "", fmt.Errorf("failed to fetch userinfo: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return "", fmt.Errorf("userinfo request failed with status %d", resp.StatusCode)
	}

	var claims map[string]any
	if err := json.NewDecoder(io.LimitReader(resp.Body, maxUserInfoSize)).Decode(&claims); err != nil {
		return "", fmt.Errorf("failed to decode userinfo: %w", err)
	}

	switch v := claims[a.claim].(type) {
	case string:
		if v != "" {
			return v, nil
		}
	case float64:
		return fmt.Sprintf("%.0f", v), nil
	}
	return "", fmt.Errorf("userinfo has no %q claim", a.claim)
}

// isRejection reports whether the upstream refused the credentials rather
// than failing
func isRejection(err *oauth2.RetrieveError) bool {
	switch {
	case err.ErrorCode == "invalid_grant":
		return true
	case err.ErrorCode != "", err.Response == nil:
		return false
	}
	return err.Response.StatusCode == http.StatusBadRequest || err.Response.StatusCode == http.StatusUnauthorized
}
