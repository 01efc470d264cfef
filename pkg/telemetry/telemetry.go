// Package telemetry configures OpenTelemetry tracing for gumshoe.
//
// Tracing is opt-in: spans are only exported when an OTLP endpoint is
// configured through the standard OTEL_EXPORTER_OTLP_ENDPOINT or
// OTEL_EXPORTER_OTLP_TRACES_ENDPOINT environment variables. Otherwise the
// global no-op tracer provider is left in place.
package telemetry

import (
	"context"
	"fmt"
	"os"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"

	sdktrace "go.opentelemetry.io/otel/sdk/trace"

	"github.com/macropower/gumshoe/api"
	"github.com/macropower/gumshoe/pkg/version"
)

// ShutdownFunc flushes and stops the tracer provider.
type ShutdownFunc func(ctx context.Context) error

// EndpointEnvVars are checked, in order, to decide whether tracing is enabled.
var EndpointEnvVars = []string{
	"OTEL_EXPORTER_OTLP_TRACES_ENDPOINT",
	"OTEL_EXPORTER_OTLP_ENDPOINT",
}

// Enabled reports whether an OTLP endpoint is configured.
func Enabled() bool {
	for _, name := range EndpointEnvVars {
		if os.Getenv(name) != "" {
			return true
		}
	}

	return false
}

// Setup installs a global tracer provider that exports spans over OTLP/gRPC.
// If tracing is not [Enabled], Setup does nothing and returns a no-op
// [ShutdownFunc].
func Setup(ctx context.Context) (ShutdownFunc, error) {
	if !Enabled() {
		return func(context.Context) error { return nil }, nil
	}

	exporter, err := otlptracegrpc.New(ctx)
	if err != nil {
		return nil, fmt.Errorf("create trace exporter: %w", err)
	}

	res, err := resource.Merge(resource.Default(), NewResource())
	if err != nil {
		return nil, fmt.Errorf("create resource: %w", err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
	)
	otel.SetTracerProvider(tp)

	return tp.Shutdown, nil
}

// NewResource describes the gumshoe service.
func NewResource() *resource.Resource {
	return resource.NewSchemaless(
		semconv.ServiceName(api.AppName),
		semconv.ServiceVersion(version.GetVersion()),
	)
}
