package security

import (
	"crypto/sha256"
	"encoding/hex"
	"log/slog"
	"time"

	"github.com/google/uuid"
)

// Auditor handles security event logging with PII protection.
type Auditor struct {
	logger  *slog.Logger
	enabled bool

	// limiter throttles auth failure events per client (optional)
	limiter *RateLimiter
	now     func() time.Time
}

// NewAuditor creates a new security auditor
func NewAuditor(logger *slog.Logger, enabled bool) *Auditor {
	if logger == nil {
		logger = slog.Default()
	}
	return &Auditor{
		logger:  logger,
		enabled: enabled,
		now:     time.Now,
	}
}

// SetRateLimiter throttles LogAuthFailure per client id.
// Failures beyond the limit are collapsed into a single rate_limit_exceeded event.
func (a *Auditor) SetRateLimiter(rl *RateLimiter) {
	a.limiter = rl
}

// Enabled reports whether events are logged
func (a *Auditor) Enabled() bool {
	return a != nil && a.enabled
}

// Event represents a security audit event
type Event struct {
	ID        string
	Type      string
	UserID    string
	ClientID  string
	Details   map[string]any
	Timestamp time.Time
}

// LogEvent logs a security event with hashed PII
func (a *Auditor) LogEvent(event Event) {
	if !a.Enabled() {
		return
	}

	if event.ID == "" {
		event.ID = uuid.NewString()
	}
	event.Timestamp = a.now()

	a.logger.Info("security_audit",
		"event_id", event.ID,
		"event_type", event.Type,
		"user_id_hash", hashForLogging(event.UserID),
		"client_id", event.ClientID,
		"details", event.Details,
		"timestamp", event.Timestamp,
	)
}

// LogTokenIssued logs when a token is issued
func (a *Auditor) LogTokenIssued(userID, clientID, grantType, scope string) {
	a.LogEvent(Event{
		Type:     EventTokenIssued,
		UserID:   userID,
		ClientID: clientID,
		Details: map[string]any{
			"grant_type": grantType,
			"scope":      scope,
		},
	})
}

// LogAuthFailure logs an authentication failure.
// With a rate limiter set, repeated failures for the same client are dropped
// after the first rate_limit_exceeded event.
func (a *Auditor) LogAuthFailure(userID, clientID, reason string) {
	if !a.Enabled() {
		return
	}

	if a.limiter != nil && !a.limiter.Allow(clientID) {
		if a.limiter.MarkLimited(clientID) {
			a.LogEvent(Event{
				Type:     EventRateLimitExceeded,
				ClientID: clientID,
				Details: map[string]any{
					"suppressed_event": EventAuthFailure,
				},
			})
		}
		return
	}

	a.LogEvent(Event{
		Type:     EventAuthFailure,
		UserID:   userID,
		ClientID: clientID,
		Details: map[string]any{
			"reason": reason,
		},
	})
}

// LogTokenExpired logs when an expired token is presented and removed
func (a *Auditor) LogTokenExpired(userID, clientID string, expiredAt time.Time) {
	a.LogEvent(Event{
		Type:     EventTokenExpired,
		UserID:   userID,
		ClientID: clientID,
		Details: map[string]any{
			"expired_at": expiredAt,
		},
	})
}

// LogScopeEscalation logs a request for scopes outside the original grant
func (a *Auditor) LogScopeEscalation(userID, clientID, scope string) {
	a.LogEvent(Event{
		Type:     EventScopeEscalationAttempt,
		UserID:   userID,
		ClientID: clientID,
		Details: map[string]any{
			"scope": scope,
		},
	})
}

// LogScopeMismatch logs a token presented without a scope the resource requires
func (a *Auditor) LogScopeMismatch(userID, clientID, scope string) {
	a.LogEvent(Event{
		Type:     EventScopeMismatch,
		UserID:   userID,
		ClientID: clientID,
		Details: map[string]any{
			"scope": scope,
		},
	})
}

// hashForLogging creates a SHA256 hash of sensitive data for logging
func hashForLogging(sensitive string) string {
	if sensitive == "" {
		return "<empty>"
	}
	hash := sha256.Sum256([]byte(sensitive))
	return hex.EncodeToString(hash[:])[:16]
}
