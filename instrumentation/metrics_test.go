package instrumentation

import (
	"context"
	"testing"
)

func TestMetrics_RecordGrantExecution(t *testing.T) {
	ctx := context.Background()
	inst, err := New(Config{
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = inst.Shutdown(context.Background()) }()

	metrics := inst.Metrics()

	tests := []struct {
		name      string
		grantType string
		result    string
	}{
		{"client credentials success", "client_credentials", "success"},
		{"password rejected", "password", "user_authentication_failed"},
		{"unknown scope", "client_credentials", "unknown_scope"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			// Should not panic
			metrics.RecordGrantExecution(ctx, tt.grantType, tt.result)
			metrics.RecordTokenIssued(ctx, tt.grantType, "access")
		})
	}
}

func TestMetrics_RecordResourceValidation(t *testing.T) {
	ctx := context.Background()
	inst, err := New(Config{
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = inst.Shutdown(context.Background()) }()

	metrics := inst.Metrics()

	metrics.RecordResourceValidation(ctx, "success")
	metrics.RecordResourceValidation(ctx, "mismatched_scope")
	metrics.RecordTokenExpired(ctx, "client-1")
	metrics.RecordScopeEscalation(ctx, "client-1")
}

func TestMetrics_RecordStorageOperation(t *testing.T) {
	ctx := context.Background()
	inst, err := New(Config{
		Enabled: true,
	})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = inst.Shutdown(context.Background()) }()

	metrics := inst.Metrics()

	metrics.RecordStorageOperation(ctx, "get", "success", 0.4)
	metrics.RecordStorageOperation(ctx, "sadd", "error", 12.5)
}
