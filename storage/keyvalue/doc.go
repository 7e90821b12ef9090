// Package keyvalue provides a storage backend on top of a minimal key-value
// client with string and set commands.
//
// Entities are stored as JSON blobs under "<prefix>:<id>", where the prefix
// is the configured table name with underscores turned into colons. Every
// entity type keeps a membership set under "<prefix>" listing the ids that
// are alive. Scope associations and client endpoints are sets of JSON
// members under "<prefix>:<parent id>".
//
// Clients for Valkey (storage/valkey) and for in-process use
// (storage/memory) implement the Client interface.
//
// Usage:
//
//	backend := keyvalue.New(memory.New(), storage.DefaultTables())
//	adapter := backend.Open() // one adapter per request
//	tok, err := adapter.Tokens().GetWithScopes(ctx, id)
package keyvalue
