package keyvalue

import (
	"context"
	"encoding/json"
	"fmt"
	"sort"

	"github.com/giantswarm/oauth-core/storage"
)

type clientStore Adapter

var _ storage.ClientStore = (*clientStore)(nil)

// Get looks up a client and resolves its redirect URI
func (s *clientStore) Get(ctx context.Context, id, secret, redirectURI string) (*storage.Client, error) {
	record, endpoints, err := s.load(ctx, id)
	if err != nil {
		return nil, err
	}

	var stored *storage.Client
	if record != nil {
		stored = record.toClient()
	}
	return storage.VerifyClient(stored, endpoints, secret, redirectURI)
}

func (s *clientStore) load(ctx context.Context, id string) (*clientRecord, []storage.ClientEndpoint, error) {
	a := (*Adapter)(s)
	if record, ok := a.cache.clients[id]; ok {
		return record, a.cache.endpoints[id], nil
	}

	var record clientRecord
	found, err := a.getJSON(ctx, key(a.backend.clients, id), &record)
	if err != nil {
		return nil, nil, err
	}
	if !found {
		return nil, nil, nil
	}

	endpoints, err := s.loadEndpoints(ctx, id)
	if err != nil {
		return nil, nil, err
	}

	a.cache.clients[id] = &record
	a.cache.endpoints[id] = endpoints
	return &record, endpoints, nil
}

func (s *clientStore) loadEndpoints(ctx context.Context, id string) ([]storage.ClientEndpoint, error) {
	a := (*Adapter)(s)
	members, err := a.backend.client.SMembers(ctx, key(a.backend.endpoints, id))
	if err != nil {
		return nil, fmt.Errorf("failed to load endpoints of client %s: %w", id, err)
	}

	endpoints := make([]storage.ClientEndpoint, 0, len(members))
	for _, m := range members {
		var e storage.ClientEndpoint
		if err := json.Unmarshal([]byte(m), &e); err != nil {
			return nil, fmt.Errorf("failed to unmarshal endpoint of client %s: %w", id, err)
		}
		endpoints = append(endpoints, e)
	}
	sort.Slice(endpoints, func(i, j int) bool { return endpoints[i].URI < endpoints[j].URI })
	return endpoints, nil
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

	record := &clientRecord{ID: id, Secret: hash, Name: name, Trusted: trusted}
	if err := a.putJSON(ctx, a.backend.clients, id, record); err != nil {
		return nil, err
	}

	endpointKey := key(a.backend.endpoints, id)
	if err := a.backend.client.Del(ctx, endpointKey); err != nil {
		return nil, fmt.Errorf("failed to reset endpoints of client %s: %w", id, err)
	}
	if len(endpoints) > 0 {
		members := make([]string, 0, len(endpoints))
		for _, e := range endpoints {
			data, err := json.Marshal(e)
			if err != nil {
				return nil, fmt.Errorf("failed to marshal endpoint: %w", err)
			}
			members = append(members, string(data))
		}
		if err := a.backend.client.SAdd(ctx, endpointKey, members...); err != nil {
			return nil, fmt.Errorf("failed to save endpoints of client %s: %w", id, err)
		}
	}

	a.cache.clients[id] = record
	a.cache.endpoints[id] = append([]storage.ClientEndpoint(nil), endpoints...)
	a.backend.logger.Debug("Saved client", "client_id", id, "endpoints", len(endpoints))

	created := record.toClient()
	created.RedirectURI, _ = storage.ResolveRedirectURI(endpoints, "")
	return created, nil
}

// Delete removes a client and its endpoints
func (s *clientStore) Delete(ctx context.Context, id string) error {
	a := (*Adapter)(s)
	if err := a.remove(ctx, a.backend.clients, id, key(a.backend.endpoints, id)); err != nil {
		return err
	}
	delete(a.cache.clients, id)
	delete(a.cache.endpoints, id)
	a.backend.logger.Debug("Deleted client", "client_id", id)
	return nil
}
