// Package storage defines the entity model and the persistence contract of the
// authorization server.
//
// The contract is split into four narrow interfaces:
//   - ClientStore: registered client applications and their redirect URIs
//   - TokenStore: access and refresh tokens and their scopes
//   - AuthorizationCodeStore: authorization codes and their scopes
//   - ScopeStore: the catalogue of known scopes
//
// An Adapter bundles one of each and carries a request-scoped memo cache.
// A Backend hands out a fresh Adapter per request via Open.
//
// Implementations are provided in subpackages:
//   - storage/relational: database/sql backend (MySQL, SQLite)
//   - storage/keyvalue: key-value backend over a small set/get client
//   - storage/valkey: Valkey/Redis-compatible client for storage/keyvalue
//   - storage/memory: in-process client for storage/keyvalue
//   - storage/mock: function-hook mocks for unit testing
package storage
