package core

import (
	"context"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/propagation"
	sdkresource "go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	oteltrace "go.opentelemetry.io/otel/trace"
)

// tracerName identifies spans this package starts manually (as opposed to
// the ones otelhttp.NewMiddleware starts automatically per request).
const tracerName = "pdp-sidecar"

// Tracer returns the named tracer handlers use to add a manual span around
// a unit of work the otelhttp middleware's request span doesn't already
// cover (e.g. a cache lookup or a watchdog restart), such as
// `ctx, span := core.Tracer().Start(ctx, "cache.get"); defer span.End()`.
func Tracer() oteltrace.Tracer {
	return otel.Tracer(tracerName)
}

// InitTracing installs a global TracerProvider tagged with serviceName, the
// provider otelhttp.NewMiddleware (wired in httpapi.NewServer) reads spans
// from. Grounded on the teacher's telemetry.NewOTelProvider (telemetry/
// otel.go), trimmed to the SDK's own always-sample default and no exporter:
// this sidecar has no OTLP collector dependency of its own, so spans are
// recorded but not shipped anywhere until an operator wires a real exporter
// in front of the returned *sdktrace.TracerProvider.
func InitTracing(serviceName string) *sdktrace.TracerProvider {
	res := sdkresource.NewSchemaless(
		attribute.String("service.name", serviceName),
	)

	tp := sdktrace.NewTracerProvider(sdktrace.WithResource(res))
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})
	return tp
}

// ShutdownTracing flushes and releases the TracerProvider installed by
// InitTracing.
func ShutdownTracing(ctx context.Context, tp *sdktrace.TracerProvider) error {
	if tp == nil {
		return nil
	}
	return tp.Shutdown(ctx)
}
