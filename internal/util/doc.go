// Package util provides small helpers shared across the module.
//
// Key utilities:
//   - SafeTruncate: Safely truncates strings for logging sensitive data
//   - KeyPrefix: Turns a table name into a key-value namespace
package util
