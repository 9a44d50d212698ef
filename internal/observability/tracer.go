// Package observability provides build metrics and tracing.
package observability

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.24.0"
	"go.opentelemetry.io/otel/trace"
	"go.opentelemetry.io/otel/trace/noop"
	"google.golang.org/grpc"
	"google.golang.org/grpc/credentials/insecure"
)

const instrumentationName = "reactbundle"

// TracerConfig holds configuration for OpenTelemetry tracing
type TracerConfig struct {
	Enabled     bool    `mapstructure:"enabled"`
	Endpoint    string  `mapstructure:"endpoint"`     // OTLP endpoint (e.g., "localhost:4317")
	ServiceName string  `mapstructure:"service_name"` // Service name for traces
	Environment string  `mapstructure:"environment"`  // Environment (development, ci, production)
	SampleRate  float64 `mapstructure:"sample_rate"`  // Sample rate 0.0-1.0 (1.0 = 100%)
	Insecure    bool    `mapstructure:"insecure"`     // Use insecure connection (for local dev)
}

// DefaultTracerConfig returns sensible defaults for tracing
func DefaultTracerConfig() TracerConfig {
	return TracerConfig{
		Enabled:     false,
		Endpoint:    "localhost:4317",
		ServiceName: "reactbundle",
		Environment: "development",
		SampleRate:  1.0,
		Insecure:    true,
	}
}

// Tracer wraps OpenTelemetry tracer functionality
type Tracer struct {
	provider *sdktrace.TracerProvider
	tracer   trace.Tracer
	enabled  bool
}

// NewNoopTracer returns a tracer whose spans are never recorded
func NewNoopTracer() *Tracer {
	return &Tracer{
		tracer:  noop.NewTracerProvider().Tracer(instrumentationName),
		enabled: false,
	}
}

// NewTracerWithProvider wraps an existing SDK provider
func NewTracerWithProvider(provider *sdktrace.TracerProvider) *Tracer {
	return &Tracer{
		provider: provider,
		tracer:   provider.Tracer(instrumentationName),
		enabled:  true,
	}
}

// NewTracer creates a tracer exporting spans over OTLP/gRPC
func NewTracer(ctx context.Context, cfg TracerConfig, version string) (*Tracer, error) {
	if !cfg.Enabled {
		log.Debug().Msg("OpenTelemetry tracing is disabled")
		return NewNoopTracer(), nil
	}

	if cfg.ServiceName == "" {
		cfg.ServiceName = "reactbundle"
	}
	if cfg.Environment == "" {
		cfg.Environment = "development"
	}
	if cfg.SampleRate <= 0 {
		cfg.SampleRate = 1.0
	}
	if cfg.Endpoint == "" {
		cfg.Endpoint = "localhost:4317"
	}

	opts := []otlptracegrpc.Option{otlptracegrpc.WithEndpoint(cfg.Endpoint)}
	if cfg.Insecure {
		opts = append(opts,
			otlptracegrpc.WithDialOption(grpc.WithTransportCredentials(insecure.NewCredentials())),
			otlptracegrpc.WithInsecure(),
		)
	}

	exporter, err := otlptracegrpc.New(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP trace exporter: %w", err)
	}

	res, err := resource.Merge(
		resource.Default(),
		resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to create resource: %w", err)
	}

	var sampler sdktrace.Sampler
	if cfg.SampleRate >= 1.0 {
		sampler = sdktrace.AlwaysSample()
	} else {
		sampler = sdktrace.TraceIDRatioBased(cfg.SampleRate)
	}

	provider := sdktrace.NewTracerProvider(
		sdktrace.WithBatcher(exporter),
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sampler),
	)
	otel.SetTracerProvider(provider)

	log.Debug().
		Str("endpoint", cfg.Endpoint).
		Str("service_name", cfg.ServiceName).
		Float64("sample_rate", cfg.SampleRate).
		Msg("OpenTelemetry tracing initialized")

	return NewTracerWithProvider(provider), nil
}

// Shutdown flushes pending spans
func (t *Tracer) Shutdown(ctx context.Context) error {
	if t.provider != nil {
		return t.provider.Shutdown(ctx)
	}
	return nil
}

// IsEnabled returns whether tracing is enabled
func (t *Tracer) IsEnabled() bool {
	return t.enabled
}

// StartBuildSpan starts the root span of a build run
func (t *Tracer) StartBuildSpan(ctx context.Context, buildID string, roots []string, outputRoot string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "build.run",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("build.id", buildID),
			attribute.StringSlice("build.source_roots", roots),
			attribute.String("build.output_root", outputRoot),
		),
	)
}

// StartBundleSpan starts a span for one entry point
func (t *Tracer) StartBundleSpan(ctx context.Context, entry, output, kind string) (context.Context, trace.Span) {
	return t.tracer.Start(ctx, "build.bundle",
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("bundle.entry", entry),
			attribute.String("bundle.output", output),
			attribute.String("bundle.kind", kind),
		),
	)
}

// EndSpan ends a span and records any error
func EndSpan(span trace.Span, err error) {
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// AddSpanEvent adds an event to the current span
func AddSpanEvent(ctx context.Context, name string, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.AddEvent(name, trace.WithAttributes(attrs...))
	}
}
