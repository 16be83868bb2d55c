// Package telemetry wires the OpenTelemetry SDK for the storefront API:
// OTLP trace and metric export, span helpers for the checkout pipeline,
// and a slog logger that stamps records with the active trace.
package telemetry

import (
	"context"
	"errors"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetricgrpc"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracegrpc"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
)

var ErrInvalidConfig = errors.New("invalid telemetry configuration")

// Config selects which signals are exported and where. Tracing and
// metrics are independent switches so local runs can keep one on
// without standing up the full collector pipeline.
type Config struct {
	ServiceName    string
	ServiceVersion string
	Environment    string
	OTLPEndpoint   string
	EnableTracing  bool
	EnableMetrics  bool
	SampleRate     float64
}

func (c *Config) Validate() error {
	switch {
	case c.ServiceName == "":
		return fmt.Errorf("%w: service name is required", ErrInvalidConfig)
	case c.ServiceVersion == "":
		return fmt.Errorf("%w: service version is required", ErrInvalidConfig)
	case c.SampleRate < 0.0 || c.SampleRate > 1.0:
		return fmt.Errorf("%w: sample rate %v is outside [0.0, 1.0]", ErrInvalidConfig, c.SampleRate)
	}

	return nil
}

// Telemetry owns the SDK components built by Initialize and tears them
// down again on Shutdown.
type Telemetry struct {
	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	closers        []func(context.Context) error
}

type Option func(*buildOptions)

type buildOptions struct {
	traceExporter  sdktrace.SpanExporter
	metricExporter sdkmetric.Exporter
}

// WithTraceExporter substitutes the OTLP trace exporter, mainly so
// tests can run Initialize without a collector listening.
func WithTraceExporter(exporter sdktrace.SpanExporter) Option {
	return func(o *buildOptions) {
		o.traceExporter = exporter
	}
}

// WithMetricExporter substitutes the OTLP metric exporter.
func WithMetricExporter(exporter sdkmetric.Exporter) Option {
	return func(o *buildOptions) {
		o.metricExporter = exporter
	}
}

// Initialize builds the enabled providers, registers them as the
// process-wide defaults and installs W3C trace-context propagation.
func Initialize(ctx context.Context, cfg Config, opts ...Option) (*Telemetry, error) {
	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	var build buildOptions
	for _, opt := range opts {
		opt(&build)
	}

	res, err := newResource(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("build resource: %w", err)
	}

	tel := &Telemetry{}

	if cfg.EnableTracing {
		if err := tel.startTracing(ctx, cfg, res, build.traceExporter); err != nil {
			return nil, err
		}
	}

	if cfg.EnableMetrics {
		if err := tel.startMetrics(ctx, cfg, res, build.metricExporter); err != nil {
			_ = tel.Shutdown(ctx)
			return nil, err
		}
	}

	otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
		propagation.TraceContext{},
		propagation.Baggage{},
	))

	return tel, nil
}

func (t *Telemetry) startTracing(ctx context.Context, cfg Config, res *resource.Resource, exporter sdktrace.SpanExporter) error {
	if exporter == nil {
		var err error
		// Plaintext gRPC: the collector is assumed local and non-TLS.
		// Drop WithInsecure when pointing at a TLS endpoint.
		exporter, err = otlptracegrpc.New(ctx,
			otlptracegrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlptracegrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("build trace exporter: %w", err)
		}
	}

	t.tracerProvider = sdktrace.NewTracerProvider(
		sdktrace.WithResource(res),
		sdktrace.WithSampler(samplerFor(cfg.SampleRate)),
		sdktrace.WithBatcher(exporter),
	)
	t.closers = append(t.closers, exporter.Shutdown, t.tracerProvider.Shutdown)

	otel.SetTracerProvider(t.tracerProvider)

	return nil
}

func (t *Telemetry) startMetrics(ctx context.Context, cfg Config, res *resource.Resource, exporter sdkmetric.Exporter) error {
	if exporter == nil {
		var err error
		exporter, err = otlpmetricgrpc.New(ctx,
			otlpmetricgrpc.WithEndpoint(cfg.OTLPEndpoint),
			otlpmetricgrpc.WithInsecure(),
		)
		if err != nil {
			return fmt.Errorf("build metric exporter: %w", err)
		}
	}

	t.meterProvider = sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(sdkmetric.NewPeriodicReader(exporter)),
	)
	t.closers = append(t.closers, exporter.Shutdown, t.meterProvider.Shutdown)

	otel.SetMeterProvider(t.meterProvider)

	return nil
}

func newResource(ctx context.Context, cfg Config) (*resource.Resource, error) {
	return resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(cfg.ServiceVersion),
			semconv.DeploymentEnvironment(cfg.Environment),
		),
		resource.WithFromEnv(),
		resource.WithProcess(),
		resource.WithOS(),
		resource.WithContainer(),
		resource.WithHost(),
	)
}

// samplerFor treats the boundary rates as hard switches and samples
// ratios in between with parent-based inheritance, so a sampled
// checkout request keeps all of its child spans together.
func samplerFor(rate float64) sdktrace.Sampler {
	switch {
	case rate <= 0.0:
		return sdktrace.NeverSample()
	case rate >= 1.0:
		return sdktrace.AlwaysSample()
	default:
		return sdktrace.ParentBased(sdktrace.TraceIDRatioBased(rate))
	}
}

// Shutdown flushes and stops every component Initialize started,
// newest first, and reports all failures rather than the first one.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error
	for i := len(t.closers) - 1; i >= 0; i-- {
		if err := t.closers[i](ctx); err != nil {
			errs = append(errs, err)
		}
	}

	return errors.Join(errs...)
}

func (t *Telemetry) TracerProvider() *sdktrace.TracerProvider {
	return t.tracerProvider
}

func (t *Telemetry) MeterProvider() *sdkmetric.MeterProvider {
	return t.meterProvider
}
