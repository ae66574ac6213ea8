// Package observability wires OpenTelemetry tracing and metrics for resource
// lifecycles.
//
// Setup installs OTLP HTTP exporters as the global providers when enabled and
// returns a shutdown function:
//
//	shutdown, err := observability.Setup(ctx, cfg, "scopekit")
//	defer shutdown(ctx)
//
// Metrics records resource starts, stops and failures together with unit
// outcomes and skipped scopes. It satisfies resource.Observer, so it can be
// handed straight to a resource store.
package observability
