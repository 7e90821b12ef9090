package relational

import (
	"context"
	"database/sql"
	"errors"
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

	err := a.observe(ctx, "create_authorization_code", func(ctx context.Context) error {
		_, err := a.backend.db.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (code, client_id, user_id, redirect_uri, expires) VALUES (?, ?, ?, ?, ?)",
				a.backend.table(storage.TableAuthorizationCodes)),
			code, clientID, nullString(userID), redirectURI, expires)
		if err != nil {
			return fmt.Errorf("insert authorization code: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	c := &storage.AuthorizationCode{Code: code, ClientID: clientID, UserID: userID, RedirectURI: redirectURI, Expires: expires}
	a.cache.codes[code] = c
	return &storage.AuthorizationCode{Code: code, ClientID: clientID, UserID: userID, RedirectURI: redirectURI, Expires: expires}, nil
}

// AssociateScopes links scopes to an existing code
func (s *codeStore) AssociateScopes(ctx context.Context, code string, scopes storage.ScopeSet) error {
	a := (*Adapter)(s)
	err := a.observe(ctx, "associate_code_scopes", func(ctx context.Context) error {
		return a.insertScopes(ctx, a.backend.table(storage.TableAuthorizationCodeScopes), "code", code, scopes)
	})
	if err != nil {
		return err
	}
	if cached, ok := a.cache.codes[code]; ok {
		cached.AttachScopes(scopes)
	}
	return nil
}

// Get returns a code with its scope set attached
func (s *codeStore) Get(ctx context.Context, code string) (*storage.AuthorizationCode, error) {
	a := (*Adapter)(s)

	c, ok := a.cache.codes[code]
	if !ok {
		err := a.observe(ctx, "get_authorization_code", func(ctx context.Context) error {
			var err error
			c, err = s.load(ctx, code)
			return err
		})
		if err != nil {
			return nil, err
		}
		a.cache.codes[code] = c
	}

	out := &storage.AuthorizationCode{
		Code:        c.Code,
		ClientID:    c.ClientID,
		UserID:      c.UserID,
		RedirectURI: c.RedirectURI,
		Expires:     c.Expires,
	}
	out.AttachScopes(copyScopes(c.Scopes()))
	return out, nil
}

func (s *codeStore) load(ctx context.Context, code string) (*storage.AuthorizationCode, error) {
	a := (*Adapter)(s)

	var (
		c      storage.AuthorizationCode
		userID sql.NullString
	)
	err := a.backend.db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT code, client_id, user_id, redirect_uri, expires FROM %s WHERE code = ?",
			a.backend.table(storage.TableAuthorizationCodes)),
		code,
	).Scan(&c.Code, &c.ClientID, &userID, &c.RedirectURI, &c.Expires)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: authorization code", storage.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("query authorization code: %w", err)
	}
	c.UserID = userID.String

	scopes, err := a.loadScopes(ctx, fmt.Sprintf(
		"SELECT s.scope, s.name, s.description FROM %s cs JOIN %s s ON s.scope = cs.scope WHERE cs.code = ?",
		a.backend.table(storage.TableAuthorizationCodeScopes), a.backend.table(storage.TableScopes)), code)
	if err != nil {
		return nil, err
	}
	c.AttachScopes(scopes)
	return &c, nil
}

// Delete removes a code and its scope associations
func (s *codeStore) Delete(ctx context.Context, code string) error {
	a := (*Adapter)(s)
	err := a.observe(ctx, "delete_authorization_code", func(ctx context.Context) error {
		db := a.backend.db
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE code = ?", a.backend.table(storage.TableAuthorizationCodeScopes)), code); err != nil {
			return fmt.Errorf("delete authorization code scopes: %w", err)
		}
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE code = ?", a.backend.table(storage.TableAuthorizationCodes)), code); err != nil {
			return fmt.Errorf("delete authorization code: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}
	delete(a.cache.codes, code)
	return nil
}
