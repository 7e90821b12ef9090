package instrumentation

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingInstrumentation(t *testing.T) (*Instrumentation, *tracetest.InMemoryExporter) {
	t.Helper()
	exporter := tracetest.NewInMemoryExporter()
	inst, err := New(Config{Enabled: true, SpanExporter: exporter})
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	t.Cleanup(func() { _ = inst.Shutdown(context.Background()) })
	return inst, exporter
}

func TestRecordError(t *testing.T) {
	inst, exporter := newRecordingInstrumentation(t)

	_, span := inst.Tracer("grant").Start(context.Background(), "test-span")
	RecordError(span, errors.New("test error"))
	span.End()

	spans := exporter.GetSpans()
	if len(spans) != 1 {
		t.Fatalf("exported spans = %d, want 1", len(spans))
	}
	if spans[0].Status.Code != codes.Error {
		t.Errorf("status = %v, want Error", spans[0].Status.Code)
	}
}

func TestRecordError_Nil(t *testing.T) {
	// Should not panic
	RecordError(nil, errors.New("test error"))
	SetSpanSuccess(nil)
	SetSpanAttributes(nil)
	AddOAuthFlowAttributes(nil, "client", "user", "read")
}

func TestSetSpanSuccess(t *testing.T) {
	inst, exporter := newRecordingInstrumentation(t)

	_, span := inst.Tracer("grant").Start(context.Background(), "test-span")
	SetSpanSuccess(span)
	span.End()

	if got := exporter.GetSpans()[0].Status.Code; got != codes.Ok {
		t.Errorf("status = %v, want Ok", got)
	}
}

func TestAddAttributes(t *testing.T) {
	inst, exporter := newRecordingInstrumentation(t)

	_, span := inst.Tracer("grant").Start(context.Background(), "test-span")
	AddOAuthFlowAttributes(span, "client-1", "", "read")
	AddErrorAttributes(span, "unknown_scope", "scope \"x\" is not known")
	AddStorageAttributes(span, "get", "memory")
	span.End()

	attrs := map[string]string{}
	for _, kv := range exporter.GetSpans()[0].Attributes {
		attrs[string(kv.Key)] = kv.Value.Emit()
	}

	want := map[string]string{
		AttrClientID:         "client-1",
		AttrScope:            "read",
		AttrError:            "unknown_scope",
		AttrStorageOperation: "get",
		AttrStorageType:      "memory",
	}
	for k, v := range want {
		if attrs[k] != v {
			t.Errorf("attribute %s = %q, want %q", k, attrs[k], v)
		}
	}
	if _, ok := attrs[AttrUserID]; ok {
		t.Error("empty user id should not be recorded")
	}
}
