package keyvalue

import (
	"context"
	"errors"
)

// ErrNil is returned by Client.Get when the key does not exist
var ErrNil = errors.New("keyvalue: nil")

// Client is the subset of key-value commands the backend needs.
// Implementations must be safe for concurrent use.
type Client interface {
	// Get returns the value stored at key, or ErrNil
	Get(ctx context.Context, key string) (string, error)

	// Set stores value at key, replacing any previous value
	Set(ctx context.Context, key, value string) error

	// Del removes keys. Missing keys are ignored.
	Del(ctx context.Context, keys ...string) error

	// SAdd adds members to the set at key
	SAdd(ctx context.Context, key string, members ...string) error

	// SRem removes members from the set at key
	SRem(ctx context.Context, key string, members ...string) error

	// SMembers returns all members of the set at key (empty when missing)
	SMembers(ctx context.Context, key string) ([]string, error)
}
