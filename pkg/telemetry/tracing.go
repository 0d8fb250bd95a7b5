// Package telemetry traces the calls the client makes to a light node and
// carries the trace context across the RPC hop.
package telemetry

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.27.0"

	"github.com/evstack/celestia-rpc-client/pkg/config"
)

// Shutdown flushes buffered spans and stops the exporter.
type Shutdown func(context.Context) error

func noopShutdown(context.Context) error { return nil }

// InitTracing installs an OTLP/HTTP tracer provider as the global one when
// cfg enables tracing, along with the W3C trace context propagator used by
// RPCHTTPClient and ContinueTrace.
func InitTracing(ctx context.Context, cfg config.InstrumentationConfig, logger zerolog.Logger) (Shutdown, error) {
	if !cfg.IsTracingEnabled() {
		return noopShutdown, nil
	}

	exporter, err := otlptracehttp.New(ctx, otlptracehttp.WithEndpointURL(collectorURL(cfg.TracingEndpoint)))
	if err != nil {
		return nil, fmt.Errorf("failed to create otlp exporter for %s: %w", cfg.TracingEndpoint, err)
	}

	tp := sdktrace.NewTracerProvider(
		sdktrace.WithSampler(sampler(cfg.TracingSampleRate)),
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(resource.NewSchemaless(semconv.ServiceName(cfg.TracingServiceName))),
	)
	otel.SetTracerProvider(tp)
	otel.SetTextMapPropagator(propagation.TraceContext{})

	logger.Info().
		Str("endpoint", cfg.TracingEndpoint).
		Str("service", cfg.TracingServiceName).
		Float64("sample_rate", cfg.TracingSampleRate).
		Msg("tracing node calls")
	return tp.Shutdown, nil
}

// sampler keeps the parent's decision and samples root spans at rate,
// clamped to [0, 1].
func sampler(rate float64) sdktrace.Sampler {
	rate = math.Max(0, math.Min(1, rate))
	return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
}

// collectorURL accepts the host:port form of the endpoint flag.
func collectorURL(endpoint string) string {
	if strings.Contains(endpoint, "://") {
		return endpoint
	}
	return "http://" + endpoint
}
