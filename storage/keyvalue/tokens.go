package keyvalue

import (
	"context"
	"fmt"

	"github.com/giantswarm/oauth-core/storage"
)

type tokenStore Adapter

var _ storage.TokenStore = (*tokenStore)(nil)

// Create persists a token without scopes
func (s *tokenStore) Create(ctx context.Context, token, tokenType, clientID, userID string, expires int64) (*storage.Token, error) {
	if token == "" {
		return nil, fmt.Errorf("token id is required")
	}
	a := (*Adapter)(s)

	record := &tokenRecord{
		Token:    token,
		Type:     tokenType,
		ClientID: clientID,
		UserID:   userID,
		Expires:  expires,
	}
	if err := a.putJSON(ctx, a.backend.tokens, token, record); err != nil {
		return nil, err
	}

	a.cache.tokens[token] = record
	a.cache.tokenScopes[token] = storage.ScopeSet{}
	a.backend.logger.Debug("Saved token", "token_id", logID(token), "type", tokenType, "client_id", clientID)
	return record.toToken(), nil
}

// AssociateScopes links scopes to an existing token
func (s *tokenStore) AssociateScopes(ctx context.Context, token string, scopes storage.ScopeSet) error {
	a := (*Adapter)(s)
	if err := a.addScopes(ctx, key(a.backend.tokenScopes, token), scopes); err != nil {
		return err
	}
	if cached, ok := a.cache.tokenScopes[token]; ok {
		a.cache.tokenScopes[token] = mergeScopes(cached, scopes)
	}
	return nil
}

// Get returns a token without its scopes
func (s *tokenStore) Get(ctx context.Context, token string) (*storage.Token, error) {
	record, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	return record.toToken(), nil
}

// GetWithScopes returns a token with its scope set attached
func (s *tokenStore) GetWithScopes(ctx context.Context, token string) (*storage.Token, error) {
	a := (*Adapter)(s)
	record, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}

	scopes, ok := a.cache.tokenScopes[token]
	if !ok {
		scopes, err = a.loadScopes(ctx, key(a.backend.tokenScopes, token))
		if err != nil {
			return nil, err
		}
		a.cache.tokenScopes[token] = scopes
	}

	t := record.toToken()
	t.AttachScopes(scopes)
	return t, nil
}

func (s *tokenStore) load(ctx context.Context, token string) (*tokenRecord, error) {
	a := (*Adapter)(s)
	if record, ok := a.cache.tokens[token]; ok {
		return record, nil
	}

	var record tokenRecord
	found, err := a.getJSON(ctx, key(a.backend.tokens, token), &record)
	if err != nil {
		return nil, err
	}
	if !found {
		return nil, fmt.Errorf("%w: token", storage.ErrNotFound)
	}
	a.cache.tokens[token] = &record
	return &record, nil
}

// Delete removes a token and its scope associations
func (s *tokenStore) Delete(ctx context.Context, token string) error {
	a := (*Adapter)(s)
	if err := a.remove(ctx, a.backend.tokens, token, key(a.backend.tokenScopes, token)); err != nil {
		return err
	}
	delete(a.cache.tokens, token)
	delete(a.cache.tokenScopes, token)
	a.backend.logger.Debug("Deleted token", "token_id", logID(token))
	return nil
}
