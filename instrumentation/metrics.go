package instrumentation

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

// Metrics holds all metric instruments of the authorization server
type Metrics struct {
	// Grant Metrics
	GrantExecutions metric.Int64Counter
	TokensIssued    metric.Int64Counter

	// Resource Metrics
	ResourceValidations metric.Int64Counter
	TokensExpired       metric.Int64Counter

	// Security Metrics
	ScopeEscalations metric.Int64Counter

	// Storage Metrics
	StorageOperationTotal    metric.Int64Counter
	StorageOperationDuration metric.Float64Histogram
	StorageKeysCount         metric.Int64ObservableGauge
	StorageSetsCount         metric.Int64ObservableGauge
}

// newMetrics creates and registers all metric instruments
func newMetrics(inst *Instrumentation) (*Metrics, error) {
	m := &Metrics{}
	grantMeter := inst.Meter("grant")
	resourceMeter := inst.Meter("resource")
	storageMeter := inst.Meter("storage")

	var err error
	m.GrantExecutions, err = grantMeter.Int64Counter(
		"oauth.grant.executions",
		metric.WithDescription("Number of grant executions by grant type and result"),
		metric.WithUnit("{execution}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create grant.executions counter: %w", err)
	}

	m.TokensIssued, err = grantMeter.Int64Counter(
		"oauth.tokens.issued",
		metric.WithDescription("Number of tokens issued"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokens.issued counter: %w", err)
	}

	m.ResourceValidations, err = resourceMeter.Int64Counter(
		"oauth.resource.validations",
		metric.WithDescription("Number of resource request validations by result"),
		metric.WithUnit("{validation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource.validations counter: %w", err)
	}

	m.TokensExpired, err = resourceMeter.Int64Counter(
		"oauth.tokens.expired",
		metric.WithDescription("Number of expired tokens deleted on presentation"),
		metric.WithUnit("{token}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create tokens.expired counter: %w", err)
	}

	m.ScopeEscalations, err = grantMeter.Int64Counter(
		"oauth.scope.escalation_attempts",
		metric.WithDescription("Number of requests for scopes outside the original grant"),
		metric.WithUnit("{attempt}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create scope.escalation_attempts counter: %w", err)
	}

	m.StorageOperationTotal, err = storageMeter.Int64Counter(
		"storage.operation.total",
		metric.WithDescription("Total number of storage operations"),
		metric.WithUnit("{operation}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.operation.total counter: %w", err)
	}

	m.StorageOperationDuration, err = storageMeter.Float64Histogram(
		"storage.operation.duration",
		metric.WithDescription("Storage operation duration in milliseconds"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.operation.duration histogram: %w", err)
	}

	m.StorageKeysCount, err = storageMeter.Int64ObservableGauge(
		"storage.keys.count",
		metric.WithDescription("Number of plain keys held by the storage client"),
		metric.WithUnit("{key}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.keys.count gauge: %w", err)
	}

	m.StorageSetsCount, err = storageMeter.Int64ObservableGauge(
		"storage.sets.count",
		metric.WithDescription("Number of sets held by the storage client"),
		metric.WithUnit("{set}"),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create storage.sets.count gauge: %w", err)
	}

	return m, nil
}

// Helper methods for common metric recording patterns

// RecordGrantExecution records one grant execution. result is "success" or an error code.
func (m *Metrics) RecordGrantExecution(ctx context.Context, grantType, result string) {
	m.GrantExecutions.Add(ctx, 1, metric.WithAttributes(
		attribute.String("grant_type", grantType),
		attribute.String("result", result),
	))
}

// RecordTokenIssued records a token being issued
func (m *Metrics) RecordTokenIssued(ctx context.Context, grantType, tokenType string) {
	m.TokensIssued.Add(ctx, 1, metric.WithAttributes(
		attribute.String("grant_type", grantType),
		attribute.String("token_type", tokenType),
	))
}

// RecordResourceValidation records a resource request validation. result is "success" or an error code.
func (m *Metrics) RecordResourceValidation(ctx context.Context, result string) {
	m.ResourceValidations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("result", result),
	))
}

// RecordTokenExpired records an expired token being deleted
func (m *Metrics) RecordTokenExpired(ctx context.Context, clientID string) {
	m.TokensExpired.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client_id", clientID),
	))
}

// RecordScopeEscalation records a scope escalation attempt
func (m *Metrics) RecordScopeEscalation(ctx context.Context, clientID string) {
	m.ScopeEscalations.Add(ctx, 1, metric.WithAttributes(
		attribute.String("client_id", clientID),
	))
}

// RecordStorageOperation records a storage operation
func (m *Metrics) RecordStorageOperation(ctx context.Context, operation, result string, durationMs float64) {
	attrs := []attribute.KeyValue{
		attribute.String("operation", operation),
		attribute.String("result", result),
	}

	m.StorageOperationTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	m.StorageOperationDuration.Record(ctx, durationMs, metric.WithAttributes(
		attribute.String("operation", operation),
	))
}
