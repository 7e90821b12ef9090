// Package security provides audit logging and rate limiting for the
// authorization server.
//
// # Audit Logging
//
// The Auditor writes security events (token issuance, authentication
// failures, expired tokens, scope escalation attempts) through slog. User
// identifiers are hashed before they reach the log; every event carries a
// random event id for correlation.
//
// # Rate Limiting
//
// The RateLimiter provides per-identifier rate limiting using a token bucket
// algorithm with LRU eviction. It is used by the Auditor to keep a client
// that hammers the token endpoint with bad credentials from flooding the
// audit log.
//
// Default configuration:
//   - MaxEntries: 10,000 unique identifiers
//   - CleanupInterval: 5 minutes (pruning happens inside Allow)
//   - IdleTimeout: 30 minutes
//
// ## Example Usage
//
//	auditor := security.NewAuditor(logger, true)
//	auditor.SetRateLimiter(security.NewRateLimiter(1, 10, logger))
//
//	auditor.LogAuthFailure("", clientID, "invalid client secret")
package security
