package keyvalue

import (
	"context"
	"fmt"

	"github.com/giantswarm/oauth-core/storage"
)

type codeStore Adapter

var _ storage.AuthorizationCodeStore = (*codeStore)(nil)

// Create persists an authorization code without scopes
func (s *codeStore) Create(ctx context.Context, code, clientID, userID, redirectURI string, expires int64) (*storage.AuthorizationCode, error) {
	if code == "" {
		return nil, fmt.Errorf("authorization code is required")
	}
	a := (*Adapter)(s)

	record := &codeRecord{
		Code:        code,
		ClientID:    clientID,
		UserID:      userID,
		RedirectURI: redirectURI,
		Expires:     expires,
	}
	if err := a.putJSON(ctx, a.backend.codes, code, record); err != nil {
		return nil, err
	}

	a.cache.codes[code] = record
	a.cache.codeScopes[code] = storage.ScopeSet{}
	a.backend.logger.Debug("Saved authorization code", "code_id", logID(code), "client_id", clientID)
	return record.toCode(), nil
}

// AssociateScopes links scopes to an existing code
func (s *codeStore) AssociateScopes(ctx context.Context, code string, scopes storage.ScopeSet) error {
	a := (*Adapter)(s)
	if err := a.addScopes(ctx, key(a.backend.codeScopes, code), scopes); err != nil {
		return err
	}
	if cached, ok := a.cache.codeScopes[code]; ok {
		a.cache.codeScopes[code] = mergeScopes(cached, scopes)
	}
	return nil
}

// Get returns a code with its scope set attached
func (s *codeStore) Get(ctx context.Context, code string) (*storage.AuthorizationCode, error) {
	a := (*Adapter)(s)

	record, ok := a.cache.codes[code]
	if !ok {
		record = &codeRecord{}
		found, err := a.getJSON(ctx, key(a.backend.codes, code), record)
		if err != nil {
			return nil, err
		}
		if !found {
			return nil, fmt.Errorf("%w: authorization code", storage.ErrNotFound)
		}
		a.cache.codes[code] = record
	}

	scopes, ok := a.cache.codeScopes[code]
	if !ok {
		var err error
		scopes, err = a.loadScopes(ctx, key(a.backend.codeScopes, code))
		if err != nil {
			return nil, err
		}
		a.cache.codeScopes[code] = scopes
	}

	c := record.toCode()
	c.AttachScopes(scopes)
	return c, nil
}

// Delete removes a code and its scope associations
func (s *codeStore) Delete(ctx context.Context, code string) error {
	a := (*Adapter)(s)
	if err := a.remove(ctx, a.backend.codes, code, key(a.backend.codeScopes, code)); err != nil {
		return err
	}
	delete(a.cache.codes, code)
	delete(a.cache.codeScopes, code)
	return nil
}
