// Package instrumentation provides OpenTelemetry (OTEL) instrumentation for the
// authorization server.
//
// It exposes:
//   - Metrics: counters for grant executions, issued tokens, resource
//     validations, expired tokens and scope escalation attempts, plus storage
//     operation counters, durations and size gauges
//   - Traces: spans around grant execution, resource validation and storage
//     operations
//
// # Quick Start
//
//	inst, err := instrumentation.New(instrumentation.Config{
//		ServiceName:    "my-auth-server",
//		ServiceVersion: "1.0.0",
//		Enabled:        true,
//		SpanExporter:   exporter,
//	})
//	if err != nil {
//		log.Fatal(err)
//	}
//	defer inst.Shutdown(context.Background())
//
// When Enabled is false every provider is a no-op and recording costs nothing.
package instrumentation
