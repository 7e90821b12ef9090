package upstream

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"net"
	"net/http"
	"net/url"
	"strings"
	"sync"
	"time"
)

// Endpoints are the upstream URLs the authenticator talks to
type Endpoints struct {
	Issuer           string `json:"issuer"`
	TokenEndpoint    string `json:"token_endpoint"`
	UserInfoEndpoint string `json:"userinfo_endpoint"`
}

type cachedEndpoints struct {
	endpoints *Endpoints
	fetchedAt time.Time
}

// Discovery fetches and caches OIDC discovery documents.
// It is safe for concurrent use.
type Discovery struct {
	httpClient *http.Client
	cache      sync.Map // issuer -> *cachedEndpoints
	cacheTTL   time.Duration
	logger     *slog.Logger
	now        func() time.Time

	// allowInsecure permits http and loopback issuers (tests only)
	allowInsecure bool
}

// NewDiscovery creates a discovery client. A nil httpClient uses a 10s
// timeout client and a zero cacheTTL caches for one hour.
func NewDiscovery(httpClient *http.Client, cacheTTL time.Duration, logger *slog.Logger) *Discovery {
	if httpClient == nil {
		httpClient = &http.Client{Timeout: defaultTimeout}
	}
	if cacheTTL == 0 {
		cacheTTL = time.Hour
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &Discovery{
		httpClient: httpClient,
		cacheTTL:   cacheTTL,
		logger:     logger,
		now:        time.Now,
	}
}

// Discover returns the token and userinfo endpoints of issuer
func (d *Discovery) Discover(ctx context.Context, issuer string) (*Endpoints, error) {
	if err := d.validateURL("issuer", issuer); err != nil {
		return nil, err
	}

	if cached, ok := d.cache.Load(issuer); ok {
		entry := cached.(*cachedEndpoints)
		if d.now().Sub(entry.fetchedAt) < d.cacheTTL {
			return entry.endpoints, nil
		}
	}

	discoveryURL := strings.TrimSuffix(issuer, "/") + "/.well-known/openid-configuration"
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, discoveryURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create discovery request: %w", err)
	}
	req.Header.Set("Accept", "application/json")

	resp, err := d.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("failed to fetch discovery document: %w", err)
	}
	defer func() { _ = resp.Body.Close() }()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("discovery failed with status %d", resp.StatusCode)
	}

	var endpoints Endpoints
	if err := json.NewDecoder(resp.Body).Decode(&endpoints); err != nil {
		return nil, fmt.Errorf("failed to decode discovery document: %w", err)
	}

	if endpoints.TokenEndpoint == "" {
		return nil, fmt.Errorf("token_endpoint is required but missing")
	}
	if err := d.validateURL("token_endpoint", endpoints.TokenEndpoint); err != nil {
		return nil, err
	}
	if endpoints.UserInfoEndpoint != "" {
		if err := d.validateURL("userinfo_endpoint", endpoints.UserInfoEndpoint); err != nil {
			return nil, err
		}
	}

	d.cache.Store(issuer, &cachedEndpoints{endpoints: &endpoints, fetchedAt: d.now()})

	d.logger.Info("Upstream discovery successful",
		"issuer", issuer,
		"token_endpoint", endpoints.TokenEndpoint)

	return &endpoints, nil
}

// ClearCache drops all cached documents
func (d *Discovery) ClearCache() {
	d.cache.Range(func(key, _ any) bool {
		d.cache.Delete(key)
		return true
	})
}

// validateURL enforces https and rejects loopback, private and link-local
// hosts to prevent requests against internal services
func (d *Discovery) validateURL(name, raw string) error {
	u, err := url.Parse(raw)
	if err != nil {
		return fmt.Errorf("invalid %s: %w", name, err)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("%s must have a hostname", name)
	}
	if d.allowInsecure {
		return nil
	}

	if u.Scheme != "https" {
		return fmt.Errorf("%s must use HTTPS, got %q", name, u.Scheme)
	}
	if ip := net.ParseIP(u.Hostname()); ip != nil {
		if ip.IsLoopback() || ip.IsPrivate() || ip.IsLinkLocalUnicast() {
			return fmt.Errorf("%s must not point to an internal address", name)
		}
	}
	return nil
}

const (
	defaultTimeout = 10 * time.Second

	// maxUserInfoSize bounds the userinfo response body
	maxUserInfoSize = 1 << 20
)
