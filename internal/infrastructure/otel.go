package infrastructure

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"time"

	promclient "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	otelprom "go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
	"go.opentelemetry.io/otel/propagation"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.28.0"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"

	"pricecube/internal/config"
)

const (
	// InstrumentationName names the tracer and meter of every pricecube component.
	InstrumentationName = "pricecube"
	// ServiceVersion is reported as service.version.
	ServiceVersion = "1.0.0"
)

// Telemetry holds the tracing and metrics providers of the process.
type Telemetry struct {
	TracerProvider *sdktrace.TracerProvider
	MeterProvider  *sdkmetric.MeterProvider
	Tracer         trace.Tracer
	Meter          metric.Meter
	Metrics        *PricingMetrics

	// MetricsHandler serves the Prometheus exposition of Meter.
	MetricsHandler http.Handler

	logger *slog.Logger
}

// InitializeTelemetry sets up OpenTelemetry tracing and a Prometheus backed
// meter. With telemetry disabled, no-op providers are returned so callers
// never need nil checks.
func InitializeTelemetry(ctx context.Context, cfg config.TelemetryConfig, logger *slog.Logger) (*Telemetry, error) {
	if logger == nil {
		logger = GetLogger()
	}

	t := &Telemetry{logger: logger}

	if !cfg.Enabled {
		t.Tracer = tracenoop.NewTracerProvider().Tracer(InstrumentationName)
		t.Meter = metricnoop.NewMeterProvider().Meter(InstrumentationName)
		t.MetricsHandler = promhttp.HandlerFor(promclient.NewRegistry(), promhttp.HandlerOpts{})
	} else {
		res := resource.NewWithAttributes(
			semconv.SchemaURL,
			semconv.ServiceName(cfg.ServiceName),
			semconv.ServiceVersion(ServiceVersion),
			attribute.String("service.instance.id", instanceID()),
		)

		if err := t.initTracing(cfg, res); err != nil {
			return nil, fmt.Errorf("failed to initialize tracing: %w", err)
		}
		if err := t.initMetrics(res); err != nil {
			return nil, fmt.Errorf("failed to initialize metrics: %w", err)
		}

		otel.SetTextMapPropagator(propagation.NewCompositeTextMapPropagator(
			propagation.TraceContext{},
			propagation.Baggage{},
		))
	}

	metrics, err := NewPricingMetrics(t.Meter)
	if err != nil {
		return nil, fmt.Errorf("failed to create metrics: %w", err)
	}
	t.Metrics = metrics

	logger.InfoContext(ctx, "telemetry initialized",
		slog.Bool("enabled", cfg.Enabled),
		slog.String("service", cfg.ServiceName),
		slog.Bool("stdout_traces", cfg.StdoutTraces))

	return t, nil
}

func (t *Telemetry) initTracing(cfg config.TelemetryConfig, res *resource.Resource) error {
	opts := []sdktrace.TracerProviderOption{
		sdktrace.WithResource(res),
		sdktrace.WithSampler(sdktrace.AlwaysSample()),
	}

	if cfg.StdoutTraces {
		exporter, err := stdouttrace.New(stdouttrace.WithPrettyPrint())
		if err != nil {
			return fmt.Errorf("failed to create trace exporter: %w", err)
		}
		opts = append(opts, sdktrace.WithBatcher(exporter))
	}

	tp := sdktrace.NewTracerProvider(opts...)
	t.TracerProvider = tp
	t.Tracer = tp.Tracer(InstrumentationName, trace.WithInstrumentationVersion(ServiceVersion))
	otel.SetTracerProvider(tp)
	return nil
}

func (t *Telemetry) initMetrics(res *resource.Resource) error {
	registry := promclient.NewRegistry()
	exporter, err := otelprom.New(otelprom.WithRegisterer(registry))
	if err != nil {
		return fmt.Errorf("failed to create prometheus exporter: %w", err)
	}

	mp := sdkmetric.NewMeterProvider(
		sdkmetric.WithResource(res),
		sdkmetric.WithReader(exporter),
	)

	t.MeterProvider = mp
	t.Meter = mp.Meter(InstrumentationName, metric.WithInstrumentationVersion(ServiceVersion))
	t.MetricsHandler = promhttp.HandlerFor(registry, promhttp.HandlerOpts{})
	otel.SetMeterProvider(mp)
	return nil
}

// Shutdown flushes and stops the providers.
func (t *Telemetry) Shutdown(ctx context.Context) error {
	var errs []error

	if t.TracerProvider != nil {
		if err := t.TracerProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("tracer provider shutdown: %w", err))
		}
	}
	if t.MeterProvider != nil {
		if err := t.MeterProvider.Shutdown(ctx); err != nil {
			errs = append(errs, fmt.Errorf("meter provider shutdown: %w", err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return err
	}
	t.logger.InfoContext(ctx, "telemetry shutdown complete")
	return nil
}

// PricingMetrics holds the application instruments.
type PricingMetrics struct {
	HTTPRequestsTotal   metric.Int64Counter
	HTTPRequestDuration metric.Float64Histogram

	RunsTotal    metric.Int64Counter
	RunDuration  metric.Float64Histogram
	ActiveRuns   metric.Int64UpDownCounter
	StepDuration metric.Float64Histogram

	CohortsProcessed  metric.Int64Counter
	OptimizerFailures metric.Int64Counter
	RowsDerived       metric.Int64Counter
	RowsExported      metric.Int64Counter
}

// NewPricingMetrics registers the application instruments on meter.
func NewPricingMetrics(meter metric.Meter) (*PricingMetrics, error) {
	m := &PricingMetrics{}
	var err error

	counters := []struct {
		dst  *metric.Int64Counter
		name string
		desc string
	}{
		{&m.HTTPRequestsTotal, "http_requests_total", "Total number of HTTP requests"},
		{&m.RunsTotal, "pricing_runs_total", "Total number of pricing runs"},
		{&m.CohortsProcessed, "pricing_cohorts_processed_total", "Total number of SKU cohorts evaluated"},
		{&m.OptimizerFailures, "pricing_optimizer_failures_total", "Total number of price searches that did not converge"},
		{&m.RowsDerived, "pricing_rows_derived_total", "Total number of observation rows enriched"},
		{&m.RowsExported, "pricing_rows_exported_total", "Total number of rows written by exporters"},
	}
	for _, c := range counters {
		if *c.dst, err = meter.Int64Counter(c.name, metric.WithDescription(c.desc)); err != nil {
			return nil, err
		}
	}

	histograms := []struct {
		dst  *metric.Float64Histogram
		name string
		desc string
	}{
		{&m.HTTPRequestDuration, "http_request_duration_seconds", "HTTP request duration in seconds"},
		{&m.RunDuration, "pricing_run_duration_seconds", "Pricing run duration in seconds"},
		{&m.StepDuration, "pricing_step_duration_seconds", "Pricing run step duration in seconds"},
	}
	for _, h := range histograms {
		if *h.dst, err = meter.Float64Histogram(h.name, metric.WithDescription(h.desc), metric.WithUnit("s")); err != nil {
			return nil, err
		}
	}

	if m.ActiveRuns, err = meter.Int64UpDownCounter("pricing_active_runs",
		metric.WithDescription("Number of pricing runs in progress")); err != nil {
		return nil, err
	}

	return m, nil
}

// RecordHTTPRequest records one served request.
func (m *PricingMetrics) RecordHTTPRequest(ctx context.Context, method, route string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	attrs := metric.WithAttributes(
		attribute.String("http.method", method),
		attribute.String("http.route", route),
		attribute.Int("http.status_code", status),
	)
	m.HTTPRequestsTotal.Add(ctx, 1, attrs)
	m.HTTPRequestDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordRun records a finished pricing run.
func (m *PricingMetrics) RecordRun(ctx context.Context, source string, duration time.Duration, err error) {
	if m == nil {
		return
	}
	status := "success"
	if err != nil {
		status = "failure"
	}
	attrs := metric.WithAttributes(
		attribute.String("run.source", source),
		attribute.String("status", status),
	)
	m.RunsTotal.Add(ctx, 1, attrs)
	m.RunDuration.Record(ctx, duration.Seconds(), attrs)
}

// RecordStep records one step of a pricing run.
func (m *PricingMetrics) RecordStep(ctx context.Context, step string, duration time.Duration, success bool) {
	if m == nil {
		return
	}
	status := "success"
	if !success {
		status = "failure"
	}
	m.StepDuration.Record(ctx, duration.Seconds(), metric.WithAttributes(
		attribute.String("step.id", step),
		attribute.String("status", status),
	))
}

// RecordDerivation records the size and outcome of one derivation.
func (m *PricingMetrics) RecordDerivation(ctx context.Context, rows, cohorts, failedCohorts int) {
	if m == nil {
		return
	}
	m.RowsDerived.Add(ctx, int64(rows))
	m.CohortsProcessed.Add(ctx, int64(cohorts))
	if failedCohorts > 0 {
		m.OptimizerFailures.Add(ctx, int64(failedCohorts))
	}
}

// RecordExport records rows written in one format.
func (m *PricingMetrics) RecordExport(ctx context.Context, format string, rows int) {
	if m == nil {
		return
	}
	m.RowsExported.Add(ctx, int64(rows), metric.WithAttributes(attribute.String("format", format)))
}

// RunStarted and RunFinished track in-flight runs.
func (m *PricingMetrics) RunStarted(ctx context.Context) {
	if m != nil {
		m.ActiveRuns.Add(ctx, 1)
	}
}

func (m *PricingMetrics) RunFinished(ctx context.Context) {
	if m != nil {
		m.ActiveRuns.Add(ctx, -1)
	}
}

func instanceID() string {
	hostname, _ := os.Hostname()
	return fmt.Sprintf("%s-%d", hostname, time.Now().Unix())
}

// TraceIDFromContext returns the OpenTelemetry trace ID of the active span.
func TraceIDFromContext(ctx context.Context) string {
	spanCtx := trace.SpanContextFromContext(ctx)
	if spanCtx.IsValid() {
		return spanCtx.TraceID().String()
	}
	return ""
}

// RecordError marks the active span as failed.
func RecordError(ctx context.Context, err error) {
	span := trace.SpanFromContext(ctx)
	if !span.IsRecording() || err == nil {
		return
	}
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
}

// SetSpanAttributes sets attributes on the active span.
func SetSpanAttributes(ctx context.Context, attrs ...attribute.KeyValue) {
	span := trace.SpanFromContext(ctx)
	if span.IsRecording() {
		span.SetAttributes(attrs...)
	}
}
