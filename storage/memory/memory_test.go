package memory

import (
	"context"
	"errors"
	"sort"
	"sync"
	"testing"

	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/giantswarm/oauth-core/instrumentation"
	"github.com/giantswarm/oauth-core/internal/testutil"
	"github.com/giantswarm/oauth-core/storage"
	"github.com/giantswarm/oauth-core/storage/keyvalue"
)

func TestStore_GetSet(t *testing.T) {
	ctx := context.Background()
	store := New()

	if _, err := store.Get(ctx, "missing"); !errors.Is(err, keyvalue.ErrNil) {
		t.Fatalf("Get() error = %v, want ErrNil", err)
	}

	if err := store.Set(ctx, "k", "v1"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.Set(ctx, "k", "v2"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}

	got, err := store.Get(ctx, "k")
	if err != nil {
		t.Fatalf("Get() error = %v", err)
	}
	if got != "v2" {
		t.Errorf("Get() = %q, want %q", got, "v2")
	}

	if err := store.Del(ctx, "k", "missing"); err != nil {
		t.Fatalf("Del() error = %v", err)
	}
	if _, err := store.Get(ctx, "k"); !errors.Is(err, keyvalue.ErrNil) {
		t.Errorf("Get() after Del error = %v, want ErrNil", err)
	}
}

func TestStore_Sets(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.SAdd(ctx, "s", "a", "b", "a"); err != nil {
		t.Fatalf("SAdd() error = %v", err)
	}
	if err := store.SAdd(ctx, "s", "c"); err != nil {
		t.Fatalf("SAdd() error = %v", err)
	}

	members, err := store.SMembers(ctx, "s")
	if err != nil {
		t.Fatalf("SMembers() error = %v", err)
	}
	sort.Strings(members)
	if len(members) != 3 || members[0] != "a" || members[2] != "c" {
		t.Errorf("SMembers() = %v, want [a b c]", members)
	}

	if err := store.SRem(ctx, "s", "a", "b", "c"); err != nil {
		t.Fatalf("SRem() error = %v", err)
	}
	members, err = store.SMembers(ctx, "s")
	if err != nil {
		t.Fatalf("SMembers() error = %v", err)
	}
	if len(members) != 0 {
		t.Errorf("SMembers() = %v, want empty", members)
	}

	if _, sets := store.Len(); sets != 0 {
		t.Errorf("sets = %d, want 0 after removing every member", sets)
	}
}

func TestStore_SAddOnStringKey(t *testing.T) {
	ctx := context.Background()
	store := New()

	if err := store.Set(ctx, "k", "v"); err != nil {
		t.Fatalf("Set() error = %v", err)
	}
	if err := store.SAdd(ctx, "k", "m"); err == nil {
		t.Error("SAdd() on a string key should return error")
	}
}

func TestStore_Concurrent(t *testing.T) {
	ctx := context.Background()
	store := New()

	var wg sync.WaitGroup
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_ = store.SAdd(ctx, "members", testutil.GenerateRandomString(12))
			_ = store.Set(ctx, testutil.GenerateRandomString(12), "v")
		}(i)
	}
	wg.Wait()

	keys, sets := store.Len()
	if keys != 50 {
		t.Errorf("keys = %d, want 50", keys)
	}
	if sets != 1 {
		t.Errorf("sets = %d, want 1", sets)
	}
}

func TestStore_Instrumentation(t *testing.T) {
	exporter := tracetest.NewInMemoryExporter()
	inst, err := instrumentation.New(instrumentation.Config{Enabled: true, SpanExporter: exporter})
	if err != nil {
		t.Fatalf("instrumentation.New() error = %v", err)
	}
	defer func() { _ = inst.Shutdown(context.Background()) }()

	store := New()
	store.SetInstrumentation(inst)

	ctx := context.Background()
	_ = store.Set(ctx, "k", "v")
	_, _ = store.Get(ctx, "k")

	spans := exporter.GetSpans()
	if len(spans) != 2 {
		t.Fatalf("exported spans = %d, want 2", len(spans))
	}
	if spans[0].Name != "storage.set" {
		t.Errorf("span name = %q, want %q", spans[0].Name, "storage.set")
	}
	if spans[1].Name != "storage.get" {
		t.Errorf("span name = %q, want %q", spans[1].Name, "storage.get")
	}
}

// TestAdapterSuite runs the shared storage behaviour against the key-value
// backend on top of the in-memory client.
func TestAdapterSuite(t *testing.T) {
	backend := keyvalue.New(New(), storage.DefaultTables())
	testutil.RunAdapterSuite(t, backend.Open)
}
