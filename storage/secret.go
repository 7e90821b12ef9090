package storage

import (
	"fmt"

	"golang.org/x/crypto/bcrypt"
)

// dummySecretHash is compared against when a client does not exist so that
// lookups for unknown and known clients cost the same (bcrypt hash of "test").
const dummySecretHash = "$2a$10$N9qo8uLOickgx2ZMRZoMyeIjZAgcfl7p92ldGxad68LJZdL17lhWy"

// HashSecret hashes a client secret for storage
func HashSecret(secret string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(secret), bcrypt.DefaultCost)
	if err != nil {
		return "", fmt.Errorf("failed to hash client secret: %w", err)
	}
	return string(hash), nil
}

// CompareSecret checks secret against hash. An empty hash is compared
// against a dummy hash and always fails.
func CompareSecret(hash, secret string) bool {
	if hash == "" {
		_ = bcrypt.CompareHashAndPassword([]byte(dummySecretHash), []byte(secret))
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(hash), []byte(secret)) == nil
}

// VerifyClient applies the lookup rules shared by all backends. client is
// the stored record (nil when it does not exist). The secret is checked
// whenever one is supplied, and the returned copy carries the resolved
// redirect URI.
func VerifyClient(client *Client, endpoints []ClientEndpoint, secret, redirectURI string) (*Client, error) {
	if client == nil {
		if secret != "" {
			CompareSecret("", secret)
		}
		return nil, fmt.Errorf("%w: client", ErrNotFound)
	}

	if secret != "" && !CompareSecret(client.Secret, secret) {
		return nil, ErrInvalidCredentials
	}

	uri, ok := ResolveRedirectURI(endpoints, redirectURI)
	if !ok {
		return nil, ErrInvalidCredentials
	}

	resolved := *client
	resolved.RedirectURI = uri
	return &resolved, nil
}
