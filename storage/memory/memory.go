package memory

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"sync/atomic"
	"time"

	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"

	"github.com/giantswarm/oauth-core/instrumentation"
	"github.com/giantswarm/oauth-core/storage/keyvalue"
)

// Store is an in-memory implementation of keyvalue.Client
type Store struct {
	mu sync.RWMutex

	strings map[string]string
	sets    map[string]map[string]struct{}

	// Instrumentation
	instrumentation *instrumentation.Instrumentation
	tracer          trace.Tracer

	// Atomic counters for metrics (lock-free access during metric collection)
	keysCountAtomic atomic.Int64
	setsCountAtomic atomic.Int64

	logger *slog.Logger
}

// Compile-time interface check
var _ keyvalue.Client = (*Store)(nil)

// New creates a new empty in-memory store
func New() *Store {
	return &Store{
		strings: make(map[string]string),
		sets:    make(map[string]map[string]struct{}),
		logger:  slog.Default(),
	}
}

// SetLogger sets a custom logger
func (s *Store) SetLogger(logger *slog.Logger) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if logger != nil {
		s.logger = logger
	}
}

// SetInstrumentation sets OpenTelemetry instrumentation for the store
func (s *Store) SetInstrumentation(inst *instrumentation.Instrumentation) {
	s.mu.Lock()
	s.instrumentation = inst
	if inst != nil {
		s.tracer = inst.Tracer("storage")
	}
	s.keysCountAtomic.Store(int64(len(s.strings)))
	s.setsCountAtomic.Store(int64(len(s.sets)))
	logger := s.logger
	s.mu.Unlock()

	if inst != nil {
		err := inst.RegisterStorageSizeCallbacks(
			func() int64 { return s.keysCountAtomic.Load() },
			func() int64 { return s.setsCountAtomic.Load() },
		)
		if err != nil {
			logger.Warn("Failed to register storage size callbacks", "error", err)
		}
	}
}

// Get implements keyvalue.Client
func (s *Store) Get(ctx context.Context, key string) (string, error) {
	ctx, span := s.startStorageSpan(ctx, "get")
	defer span.End()
	startTime := time.Now()

	s.mu.RLock()
	value, ok := s.strings[key]
	s.mu.RUnlock()

	var err error
	if !ok {
		err = keyvalue.ErrNil
	}
	s.recordStorageOperation(ctx, span, "get", nil, startTime)
	return value, err
}

// Set implements keyvalue.Client
func (s *Store) Set(ctx context.Context, key, value string) error {
	ctx, span := s.startStorageSpan(ctx, "set")
	defer span.End()
	startTime := time.Now()

	s.mu.Lock()
	delete(s.sets, key)
	s.strings[key] = value
	s.updateCounters()
	s.mu.Unlock()

	s.recordStorageOperation(ctx, span, "set", nil, startTime)
	return nil
}

// Del implements keyvalue.Client
func (s *Store) Del(ctx context.Context, keys ...string) error {
	ctx, span := s.startStorageSpan(ctx, "del")
	defer span.End()
	startTime := time.Now()

	s.mu.Lock()
	for _, k := range keys {
		delete(s.strings, k)
		delete(s.sets, k)
	}
	s.updateCounters()
	s.mu.Unlock()

	s.recordStorageOperation(ctx, span, "del", nil, startTime)
	return nil
}

// SAdd implements keyvalue.Client
func (s *Store) SAdd(ctx context.Context, key string, members ...string) error {
	ctx, span := s.startStorageSpan(ctx, "sadd")
	defer span.End()
	startTime := time.Now()

	var err error
	s.mu.Lock()
	if _, clash := s.strings[key]; clash {
		err = fmt.Errorf("key %s holds a string value", key)
	} else {
		set, ok := s.sets[key]
		if !ok {
			set = make(map[string]struct{}, len(members))
			s.sets[key] = set
		}
		for _, m := range members {
			set[m] = struct{}{}
		}
		s.updateCounters()
	}
	s.mu.Unlock()

	s.recordStorageOperation(ctx, span, "sadd", err, startTime)
	return err
}

// SRem implements keyvalue.Client
func (s *Store) SRem(ctx context.Context, key string, members ...string) error {
	ctx, span := s.startStorageSpan(ctx, "srem")
	defer span.End()
	startTime := time.Now()

	s.mu.Lock()
	if set, ok := s.sets[key]; ok {
		for _, m := range members {
			delete(set, m)
		}
		// Empty sets do not exist, as in Valkey
		if len(set) == 0 {
			delete(s.sets, key)
		}
	}
	s.updateCounters()
	s.mu.Unlock()

	s.recordStorageOperation(ctx, span, "srem", nil, startTime)
	return nil
}

// SMembers implements keyvalue.Client
func (s *Store) SMembers(ctx context.Context, key string) ([]string, error) {
	ctx, span := s.startStorageSpan(ctx, "smembers")
	defer span.End()
	startTime := time.Now()

	s.mu.RLock()
	set := s.sets[key]
	members := make([]string, 0, len(set))
	for m := range set {
		members = append(members, m)
	}
	s.mu.RUnlock()

	s.recordStorageOperation(ctx, span, "smembers", nil, startTime)
	return members, nil
}

// Len returns the number of string keys and sets held
func (s *Store) Len() (keys, sets int) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.strings), len(s.sets)
}

// updateCounters must be called with s.mu held
func (s *Store) updateCounters() {
	s.keysCountAtomic.Store(int64(len(s.strings)))
	s.setsCountAtomic.Store(int64(len(s.sets)))
}

// startStorageSpan starts a new span for a storage operation
func (s *Store) startStorageSpan(ctx context.Context, operation string) (context.Context, trace.Span) {
	if s.tracer == nil {
		return ctx, noop.Span{}
	}

	ctx, span := s.tracer.Start(ctx, fmt.Sprintf("storage.%s", operation))
	instrumentation.AddStorageAttributes(span, operation, "memory")
	return ctx, span
}

// recordStorageOperation records metrics for a storage operation
func (s *Store) recordStorageOperation(ctx context.Context, span trace.Span, operation string, err error, startTime time.Time) {
	if s.instrumentation == nil {
		return
	}

	durationMs := float64(time.Since(startTime).Microseconds()) / 1000
	result := "success"
	if err != nil {
		result = "error"
		instrumentation.RecordError(span, err)
	} else {
		instrumentation.SetSpanSuccess(span)
	}

	s.instrumentation.Metrics().RecordStorageOperation(ctx, operation, result, durationMs)
}
