package util

import "strings"

// SafeTruncate safely truncates a string to maxLen characters without panicking.
// Returns the original string if it's shorter than maxLen, otherwise returns
// the first maxLen characters. Used when logging tokens, where only a prefix
// should be shown.
//
// If maxLen is negative, it's treated as 0 and returns an empty string.
//
// Example:
//
//	SafeTruncate("very-long-token-abc123", 8) // Returns: "very-lon"
//	SafeTruncate("short", 10)                  // Returns: "short"
//	SafeTruncate("test", -1)                   // Returns: ""
func SafeTruncate(s string, maxLen int) string {
	if maxLen < 0 {
		return ""
	}
	if len(s) <= maxLen {
		return s
	}
	return s[:maxLen]
}

// KeyPrefix turns a table name into a key namespace by replacing
// underscores with colons and trimming stray colons.
//
// Example:
//
//	KeyPrefix("oauth_token_scopes") // Returns: "oauth:token:scopes"
//	KeyPrefix("_clients_")          // Returns: "clients"
func KeyPrefix(table string) string {
	return strings.Trim(strings.ReplaceAll(table, "_", ":"), ":")
}
