package relational

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/giantswarm/oauth-core/storage"
)

type clientStore Adapter

var _ storage.ClientStore = (*clientStore)(nil)

// Get looks up a client and resolves its redirect URI
func (s *clientStore) Get(ctx context.Context, id, secret, redirectURI string) (*storage.Client, error) {
	a := (*Adapter)(s)

	client, ok := a.cache.clients[id]
	endpoints := a.cache.endpoints[id]
	if !ok {
		err := a.observe(ctx, "get_client", func(ctx context.Context) error {
			var err error
			client, endpoints, err = s.load(ctx, id)
			return err
		})
		if err != nil {
			return nil, err
		}
		if client != nil {
			a.cache.clients[id] = client
			a.cache.endpoints[id] = endpoints
		}
	}

	return storage.VerifyClient(client, endpoints, secret, redirectURI)
}

func (s *clientStore) load(ctx context.Context, id string) (*storage.Client, []storage.ClientEndpoint, error) {
	a := (*Adapter)(s)
	db := a.backend.db

	var c storage.Client
	err := db.QueryRowContext(ctx,
		fmt.Sprintf("SELECT id, secret, name, trusted FROM %s WHERE id = ?", a.backend.table(storage.TableClients)),
		id,
	).Scan(&c.ID, &c.Secret, &c.Name, &c.Trusted)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, fmt.Errorf("query client: %w", err)
	}

	rows, err := db.QueryContext(ctx,
		fmt.Sprintf("SELECT redirect_uri, is_default FROM %s WHERE client_id = ? ORDER BY redirect_uri",
			a.backend.table(storage.TableClientEndpoints)),
		id,
	)
	if err != nil {
		return nil, nil, fmt.Errorf("query client endpoints: %w", err)
	}
	defer rows.Close()

	var endpoints []storage.ClientEndpoint
	for rows.Next() {
		var e storage.ClientEndpoint
		if err := rows.Scan(&e.URI, &e.IsDefault); err != nil {
			return nil, nil, fmt.Errorf("scan client endpoint: %w", err)
		}
		endpoints = append(endpoints, e)
	}
	if err := rows.Err(); err != nil {
		return nil, nil, fmt.Errorf("iterate client endpoints: %w", err)
	}

	return &c, endpoints, nil
}

// Create registers a client, replacing any previous registration with the same id
func (s *clientStore) Create(ctx context.Context, id, secret, name string, endpoints []storage.ClientEndpoint, trusted bool) (*storage.Client, error) {
	if id == "" {
		return nil, fmt.Errorf("client id is required")
	}
	a := (*Adapter)(s)

	hash, err := storage.HashSecret(secret)
	if err != nil {
		return nil, err
	}
	client := &storage.Client{ID: id, Secret: hash, Name: name, Trusted: trusted}

	err = a.observe(ctx, "create_client", func(ctx context.Context) error {
		return s.save(ctx, client, endpoints)
	})
	if err != nil {
		return nil, err
	}

	a.cache.clients[id] = client
	a.cache.endpoints[id] = append([]storage.ClientEndpoint(nil), endpoints...)
	a.backend.logger.Debug("Saved client", "client_id", id, "endpoints", len(endpoints))

	created := *client
	created.RedirectURI, _ = storage.ResolveRedirectURI(endpoints, "")
	return &created, nil
}

func (s *clientStore) save(ctx context.Context, c *storage.Client, endpoints []storage.ClientEndpoint) error {
	a := (*Adapter)(s)
	clients := a.backend.table(storage.TableClients)
	endpointTable := a.backend.table(storage.TableClientEndpoints)

	tx, err := a.backend.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin client save: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	var exists int
	err = tx.QueryRowContext(ctx, fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE id = ?", clients), c.ID).Scan(&exists)
	if err != nil {
		return fmt.Errorf("query client: %w", err)
	}

	if exists > 0 {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("UPDATE %s SET secret = ?, name = ?, trusted = ? WHERE id = ?", clients),
			c.Secret, c.Name, c.Trusted, c.ID)
	} else {
		_, err = tx.ExecContext(ctx,
			fmt.Sprintf("INSERT INTO %s (id, secret, name, trusted) VALUES (?, ?, ?, ?)", clients),
			c.ID, c.Secret, c.Name, c.Trusted)
	}
	if err != nil {
		return fmt.Errorf("save client: %w", err)
	}

	if _, err := tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE client_id = ?", endpointTable), c.ID); err != nil {
		return fmt.Errorf("reset client endpoints: %w", err)
	}
	insert := fmt.Sprintf("INSERT INTO %s (client_id, redirect_uri, is_default) VALUES (?, ?, ?)", endpointTable)
	for _, e := range endpoints {
		if _, err := tx.ExecContext(ctx, insert, c.ID, e.URI, e.IsDefault); err != nil {
			return fmt.Errorf("save client endpoint: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit client save: %w", err)
	}
	return nil
}

// Delete removes a client and its endpoints
func (s *clientStore) Delete(ctx context.Context, id string) error {
	a := (*Adapter)(s)
	err := a.observe(ctx, "delete_client", func(ctx context.Context) error {
		db := a.backend.db
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE client_id = ?", a.backend.table(storage.TableClientEndpoints)), id); err != nil {
			return fmt.Errorf("delete client endpoints: %w", err)
		}
		if _, err := db.ExecContext(ctx,
			fmt.Sprintf("DELETE FROM %s WHERE id = ?", a.backend.table(storage.TableClients)), id); err != nil {
			return fmt.Errorf("delete client: %w", err)
		}
		return nil
	})
	if err != nil {
		return err
	}

	delete(a.cache.clients, id)
	delete(a.cache.endpoints, id)
	return nil
}
