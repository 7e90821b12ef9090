package valkey

import (
	"context"
	"crypto/tls"
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	valkeygo "github.com/valkey-io/valkey-go"

	"github.com/giantswarm/oauth-core/storage/keyvalue"
)

const (
	// connectionVerifyTimeout is the timeout for initial connection verification
	connectionVerifyTimeout = 5 * time.Second
)

// Config holds configuration for the Valkey client.
// Fields carry env tags so hosts can load them with caarlos0/env.
type Config struct {
	// Address is the Valkey server address (required), e.g., "localhost:6379"
	Address string `env:"VALKEY_ADDR"`

	// Password is the optional password for Valkey authentication
	Password string `env:"VALKEY_PASSWORD"`

	// DB is the optional database number (default 0)
	DB int `env:"VALKEY_DB" envDefault:"0"`

	// KeyPrefix is prepended verbatim to every key (default none).
	// Table names already namespace keys; this separates tenants or test runs.
	KeyPrefix string `env:"VALKEY_KEY_PREFIX"`

	// TLS is the optional TLS configuration for encrypted connections
	TLS *tls.Config `env:"-"`

	// Logger is the optional structured logger (default: slog.Default())
	Logger *slog.Logger `env:"-"`
}

// LoadConfigFromEnv reads a Config from VALKEY_* environment variables
func LoadConfigFromEnv() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to parse valkey config: %w", err)
	}
	return cfg, nil
}

// Store is a Valkey-backed implementation of keyvalue.Client
type Store struct {
	client valkeygo.Client
	prefix string
	logger *slog.Logger
}

// Compile-time interface check
var _ keyvalue.Client = (*Store)(nil)

// New creates a new Valkey client.
// Returns an error if the connection cannot be established.
func New(cfg Config) (*Store, error) {
	if cfg.Address == "" {
		return nil, fmt.Errorf("valkey address is required")
	}

	logger := cfg.Logger
	if logger == nil {
		logger = slog.Default()
	}

	opts := valkeygo.ClientOption{
		InitAddress: []string{cfg.Address},
		SelectDB:    cfg.DB,
	}
	if cfg.Password != "" {
		opts.Password = cfg.Password
	}
	if cfg.TLS != nil {
		opts.TLSConfig = cfg.TLS
	}

	client, err := valkeygo.NewClient(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to create valkey client: %w", err)
	}

	// Verify connection
	ctx, cancel := context.WithTimeout(context.Background(), connectionVerifyTimeout)
	defer cancel()

	if err := client.Do(ctx, client.B().Ping().Build()).Error(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to valkey: %w", err)
	}

	logger.Info("Connected to Valkey storage",
		"address", cfg.Address,
		"db", cfg.DB,
		"prefix", cfg.KeyPrefix)

	return &Store{
		client: client,
		prefix: cfg.KeyPrefix,
		logger: logger,
	}, nil
}

// Close closes the Valkey client connection.
func (s *Store) Close() {
	s.client.Close()
	s.logger.Info("Valkey storage connection closed")
}

func (s *Store) key(k string) string {
	return s.prefix + k
}

func (s *Store) keys(ks []string) []string {
	out := make([]string, len(ks))
	for i, k := range ks {
		out[i] = s.key(k)
	}
	return out
}

// Get implements keyvalue.Client
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	data, err := s.client.Do(ctx, s.client.B().Get().Key(s.key(key)).Build()).ToString()
	if err != nil {
		if isNilError(err) {
			return "", keyvalue.ErrNil
		}
		return "", fmt.Errorf("failed to get %s: %w", key, err)
	}
	return data, nil
}

// Set implements keyvalue.Client
func (s *Store) Set(ctx context.Context, key, value string) error {
	if err := s.client.Do(ctx, s.client.B().Set().Key(s.key(key)).Value(value).Build()).Error(); err != nil {
		return fmt.Errorf("failed to set %s: %w", key, err)
	}
	return nil
}

// Del implements keyvalue.Client
func (s *Store) Del(ctx context.Context, keys ...string) error {
	if len(keys) == 0 {
		return nil
	}
	if err := s.client.Do(ctx, s.client.B().Del().Key(s.keys(keys)...).Build()).Error(); err != nil {
		return fmt.Errorf("failed to delete keys: %w", err)
	}
	return nil
}

// SAdd implements keyvalue.Client
func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := s.client.Do(ctx, s.client.B().Sadd().Key(s.key(key)).Member(members...).Build()).Error(); err != nil {
		return fmt.Errorf("failed to add to set %s: %w", key, err)
	}
	return nil
}

// SRem implements keyvalue.Client
func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	if len(members) == 0 {
		return nil
	}
	if err := s.client.Do(ctx, s.client.B().Srem().Key(s.key(key)).Member(members...).Build()).Error(); err != nil {
		return fmt.Errorf("failed to remove from set %s: %w", key, err)
	}
	return nil
}

// SMembers implements keyvalue.Client
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	members, err := s.client.Do(ctx, s.client.B().Smembers().Key(s.key(key)).Build()).AsStrSlice()
	if err != nil {
		if isNilError(err) {
			return []string{}, nil
		}
		return nil, fmt.Errorf("failed to read set %s: %w", key, err)
	}
	return members, nil
}

// isNilError checks if the error is a Valkey nil response
func isNilError(err error) bool {
	return valkeygo.IsValkeyNil(err)
}
