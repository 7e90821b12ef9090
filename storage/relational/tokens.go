package relational

import (
	"context"
	"database/sql"
	"errors"
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

	err := a.observe(ctx, "create_token", func(ctx context.Context) error {
		_, err := a.backend.db.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (token, type, client_id, user_id, expires) VALUES (?, ?, ?, ?, ?)",
				a.backend.table(storage.TableTokens)),
			token, tokenType, clientID, nullString(userID), expires)
		if err != nil {
			return fmt.Errorf("insert token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	t := &storage.Token{Token: token, Type: tokenType, ClientID: clientID, UserID: userID, Expires: expires}
	a.cache.tokens[token] = t
	a.cache.tokenScopes[token] = storage.ScopeSet{}

	created := *t
	return &created, nil
}

// AssociateScopes links scopes to an existing token
func (s *tokenStore) AssociateScopes(ctx context.Context, token string, scopes storage.ScopeSet) error {
	a := (*Adapter)(s)
	err := a.observe(ctx, "associate_token_scopes", func(ctx context.Context) error {
		return a.insertScopes(ctx, a.backend.table(storage.TableTokenScopes), "token", token, scopes)
	})
	if err != nil {
		return err
	}

	if cached, ok := a.cache.tokenScopes[token]; ok {
		for _, scope := range scopes {
			cached.Add(scope)
		}
	}
	return nil
}

// Get returns a token without its scopes
func (s *tokenStore) Get(ctx context.Context, token string) (*storage.Token, error) {
	t, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}
	plain := storage.Token{Token: t.Token, Type: t.Type, ClientID: t.ClientID, UserID: t.UserID, Expires: t.Expires}
	return &plain, nil
}

// GetWithScopes returns a token with its scope set attached
func (s *tokenStore) GetWithScopes(ctx context.Context, token string) (*storage.Token, error) {
	a := (*Adapter)(s)
	t, err := s.load(ctx, token)
	if err != nil {
		return nil, err
	}

	scopes, ok := a.cache.tokenScopes[token]
	if !ok {
		err := a.observe(ctx, "get_token_scopes", func(ctx context.Context) error {
			var err error
			scopes, err = a.loadScopes(ctx, fmt.Sprintf(
				"SELECT s.scope, s.name, s.description FROM %s ts JOIN %s s ON s.scope = ts.scope WHERE ts.token = ?",
				a.backend.table(storage.TableTokenScopes), a.backend.table(storage.TableScopes)), token)
			return err
		})
		if err != nil {
			return nil, err
		}
		a.cache.tokenScopes[token] = scopes
	}

	scoped := storage.Token{Token: t.Token, Type: t.Type, ClientID: t.ClientID, UserID: t.UserID, Expires: t.Expires}
	scoped.AttachScopes(copyScopes(scopes))
	return &scoped, nil
}

func (s *tokenStore) load(ctx context.Context, token string) (*storage.Token, error) {
	a := (*Adapter)(s)
	if t, ok := a.cache.tokens[token]; ok {
		return t, nil
	}

	var (
		t      storage.Token
		userID sql.NullString
	)
	err := a.observe(ctx, "get_token", func(ctx context.Context) error {
		err := a.backend.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT token, type, client_id, user_id, expires FROM %s WHERE token = ?",
				a.backend.table(storage.TableTokens)),
			token,
		).Scan(&t.Token, &t.Type, &t.ClientID, &userID, &t.Expires)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: token", storage.ErrNotFound)
		}
		if err != nil {
			return fmt.Errorf("query token: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	t.UserID = userID.String
	a.cache.tokens[token] = &t
	return &t, nil
}

// Delete removes a token and its scope associations
func (s *tokenStore) Delete(ctx context.Context, token string) error {
	a := (*Adapter)(s)
	err := a.observe(ctx, "delete_token", func(ctx context.Context) error {
		db := a.backend.db
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE token = ?", a.backend.table(storage.TableTokenScopes)), token); err != nil {
			return fmt.Errorf("delete token scopes: %w", err)
		}
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE token = ?", a.backend.table(storage.TableTokens)), token); err != nil {
			return fmt.Errorf("delete token: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	delete(a.cache.tokens, token)
	delete(a.cache.tokenScopes, token)
	return nil
}
