package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/giantswarm/oauth-core/storage"
)

type scopeStore Adapter

var _ storage.ScopeStore = (*scopeStore)(nil)

// Get returns the scope with the given id
func (s *scopeStore) Get(ctx context.Context, id string) (*storage.Scope, error) {
	a := (*Adapter)(s)
	if scope, ok := a.cache.scopes[id]; ok {
		return scope, nil
	}

	var scope storage.Scope
	err := a.observe(ctx, "get_scope", func(ctx context.Context) error {
		err := a.backend.db.QueryRowContext(ctx,
			fmt.Sprintf("SELECT scope, name, description FROM %s WHERE scope = ?", a.backend.table(storage.TableScopes)),
			id,
		).Scan(&scope.Scope, &scope.Name, &scope.Description)
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("%w: scope %q", storage.ErrNotFound, id)
		}
		if err != nil {
			return fmt.Errorf("query scope: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	a.cache.scopes[id] = &scope
	return &scope, nil
}

// Create adds or replaces a scope
func (s *scopeStore) Create(ctx context.Context, scope *storage.Scope) error {
	if scope == nil || scope.Scope == "" {
		return fmt.Errorf("invalid scope")
	}
	a := (*Adapter)(s)
	table := a.backend.table(storage.TableScopes)

	err := a.observe(ctx, "create_scope", func(ctx context.Context) error {
		tx, err := a.backend.db.BeginTx(ctx, nil)
		if err != nil {
			return fmt.Errorf("begin scope save: %w", err)
		}
		defer func() { _ = tx.Rollback() }()

		var exists int
		if err := tx.QueryRowContext(ctx,
			fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE scope = ?", table), scope.Scope).Scan(&exists); err != nil {
			return fmt.Errorf("query scope: %w", err)
		}
		if exists > 0 {
			_, err = tx.ExecContext(ctx,
				fmt.Sprintf("UPDATE %s SET name = ?, description = ? WHERE scope = ?", table),
				scope.Name, scope.Description, scope.Scope)
		} else {
			_, err = tx.ExecContext(ctx,
				fmt.Sprintf("INSERT INTO %s (scope, name, description) VALUES (?, ?, ?)", table),
				scope.Scope, scope.Name, scope.Description)
		}
		if err != nil {
			return fmt.Errorf("save scope: %w", err)
		}
		return tx.Commit()
	})
	if err != nil {
		return err
	}

	stored := *scope
	a.cache.scopes[scope.Scope] = &stored
	return nil
}
