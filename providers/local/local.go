// Package local authenticates resource owners against an in-process user table.
package local

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"golang.org/x/crypto/bcrypt"

	"github.com/giantswarm/oauth-core/providers"
)

// dummyHash is compared against when the user does not exist so that
// unknown and known users take the same time to reject
var dummyHash, _ = bcrypt.GenerateFromPassword([]byte("unused-password"), bcrypt.DefaultCost)

type user struct {
	id   string
	hash []byte
}

// Authenticator holds users keyed by username
type Authenticator struct {
	mu     sync.RWMutex
	users  map[string]user
	logger *slog.Logger
}

var _ providers.Authenticator = (*Authenticator)(nil)

// New creates an empty authenticator
func New(logger *slog.Logger) *Authenticator {
	if logger == nil {
		logger = slog.Default()
	}
	return &Authenticator{
		users:  make(map[string]user),
		logger: logger,
	}
}

// AddUser hashes password and stores it for username.
// An existing user with the same name is replaced.
func (a *Authenticator) AddUser(username, userID, password string) error {
	if username == "" || userID == "" {
		return fmt.Errorf("username and user id are required")
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.DefaultCost)
	if err != nil {
		return fmt.Errorf("failed to hash password: %w", err)
	}
	return a.AddHashedUser(username, userID, hash)
}

// AddHashedUser stores a precomputed bcrypt hash for username
func (a *Authenticator) AddHashedUser(username, userID string, hash []byte) error {
	if _, err := bcrypt.Cost(hash); err != nil {
		return fmt.Errorf("invalid bcrypt hash for %q: %w", username, err)
	}
	a.mu.Lock()
	a.users[username] = user{id: userID, hash: hash}
	a.mu.Unlock()
	return nil
}

// RemoveUser deletes username
func (a *Authenticator) RemoveUser(username string) {
	a.mu.Lock()
	delete(a.users, username)
	a.mu.Unlock()
}

// Authenticate implements providers.Authenticator
func (a *Authenticator) Authenticate(_ context.Context, username, password string) (string, error) {
	a.mu.RLock()
	u, ok := a.users[username]
	a.mu.RUnlock()

	hash := u.hash
	if !ok {
		hash = dummyHash
	}

	err := bcrypt.CompareHashAndPassword(hash, []byte(password))
	switch {
	case !ok, errors.Is(err, bcrypt.ErrMismatchedHashAndPassword):
		a.logger.Debug("Rejected resource owner credentials", "known_user", ok)
		return "", providers.ErrInvalidCredentials
	case err != nil:
		return "", fmt.Errorf("failed to compare password: %w", err)
	}
	return u.id, nil
}
