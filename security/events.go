package security

// Event type constants for security audit logging.
// These constants ensure consistency across the codebase and prevent typos
// when logging security-relevant events.
const (
	// Token lifecycle events

	// EventTokenIssued is logged when a grant issues a new token
	EventTokenIssued = "token_issued"

	// EventTokenExpired is logged when an expired token is presented and deleted
	EventTokenExpired = "token_expired"

	// Security violation events

	// EventAuthFailure is logged when client or resource owner authentication fails
	EventAuthFailure = "auth_failure"

	// EventRateLimitExceeded is logged once when an identifier exceeds its event budget
	EventRateLimitExceeded = "rate_limit_exceeded"

	// EventScopeEscalationAttempt is logged when a request asks for scopes beyond the original grant
	EventScopeEscalationAttempt = "scope_escalation_attempt"

	// EventScopeMismatch is logged when a token lacks a scope required by the resource
	EventScopeMismatch = "scope_mismatch"
)
