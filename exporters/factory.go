// Package exporters builds the three OTLP/HTTP exporters (traces,
// metrics, logs) the fan-out engine binds its providers to when a
// collector endpoint is configured, plus the stdout/Prometheus dev-mode
// fallbacks used when it is not.
package exporters

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlpmetric/otlpmetrichttp"
	"go.opentelemetry.io/otel/exporters/otlp/otlptrace/otlptracehttp"
	"go.opentelemetry.io/otel/exporters/prometheus"
	"go.opentelemetry.io/otel/exporters/stdout/stdoutmetric"
	"go.opentelemetry.io/otel/exporters/stdout/stdouttrace"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
)

// ErrEndpointNotConfigured indicates NewTraceExporter/NewMetricExporter/
// NewLogExporter was called with an empty endpoint.
var ErrEndpointNotConfigured = errors.New("exporters: endpoint not configured")

// ErrInvalidExporter indicates an unrecognized dev-mode exporter name.
var ErrInvalidExporter = errors.New("exporters: invalid dev exporter")

// Options carries the resolved OTLP/HTTP target for one signal.
type Options struct {
	Endpoint string
	Headers  map[string]string
}

// cumulativeTemporality pins every instrument kind to cumulative
// temporality for Prometheus-compatible scraping; the OTel default for
// some instrument kinds is delta.
func cumulativeTemporality(sdkmetric.InstrumentKind) metricdata.Temporality {
	return metricdata.CumulativeTemporality
}

// NewTraceExporter builds an OTLP/HTTP span exporter. Returns
// ErrEndpointNotConfigured when opts.Endpoint is empty; callers treat
// that as "trace emitter absent" rather than a hard failure.
func NewTraceExporter(ctx context.Context, opts Options) (sdktrace.SpanExporter, error) {
	if opts.Endpoint == "" {
		return nil, ErrEndpointNotConfigured
	}
	exporterOpts := []otlptracehttp.Option{otlptracehttp.WithEndpointURL(opts.Endpoint)}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlptracehttp.WithHeaders(opts.Headers))
	}
	exp, err := otlptracehttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("exporters: create trace exporter: %w", err)
	}
	return exp, nil
}

// NewMetricExporter builds an OTLP/HTTP metric exporter pinned to
// cumulative temporality for every instrument kind.
func NewMetricExporter(ctx context.Context, opts Options) (sdkmetric.Exporter, error) {
	if opts.Endpoint == "" {
		return nil, ErrEndpointNotConfigured
	}
	exporterOpts := []otlpmetrichttp.Option{
		otlpmetrichttp.WithEndpointURL(opts.Endpoint),
		otlpmetrichttp.WithTemporalitySelector(cumulativeTemporality),
	}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlpmetrichttp.WithHeaders(opts.Headers))
	}
	exp, err := otlpmetrichttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("exporters: create metric exporter: %w", err)
	}
	return exp, nil
}

// NewLogExporter builds an OTLP/HTTP log record exporter.
func NewLogExporter(ctx context.Context, opts Options) (sdklog.Exporter, error) {
	if opts.Endpoint == "" {
		return nil, ErrEndpointNotConfigured
	}
	exporterOpts := []otlploghttp.Option{otlploghttp.WithEndpointURL(opts.Endpoint)}
	if len(opts.Headers) > 0 {
		exporterOpts = append(exporterOpts, otlploghttp.WithHeaders(opts.Headers))
	}
	exp, err := otlploghttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("exporters: create log exporter: %w", err)
	}
	return exp, nil
}

// NewDevTraceExporter builds the span exporter used when no OTLP
// traces endpoint is configured.
//
//   - "stdout": pretty-prints spans to stdout, for local development.
//   - "none" or "": discards every span; the provider still creates and
//     ends them, they simply never leave the process.
func NewDevTraceExporter(name string) (sdktrace.SpanExporter, error) {
	switch name {
	case "stdout":
		return stdouttrace.New(stdouttrace.WithWriter(os.Stdout))
	case "none", "", "prometheus":
		// prometheus is metrics-only; traces fall back to discard.
		return stdouttrace.New(stdouttrace.WithWriter(io.Discard))
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidExporter, name)
	}
}

// NewDevMetricReader builds the metric reader used when no OTLP
// metrics endpoint is configured.
//
//   - "stdout": periodically prints metrics to stdout.
//   - "prometheus": exposes a pull-based /metrics scrape endpoint
//     through the default Prometheus registry.
//   - "none" or "": discards every measurement.
func NewDevMetricReader(name string) (sdkmetric.Reader, error) {
	switch name {
	case "stdout":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(os.Stdout))
		if err != nil {
			return nil, fmt.Errorf("exporters: create stdout metric exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	case "prometheus":
		exp, err := prometheus.New()
		if err != nil {
			return nil, fmt.Errorf("exporters: create prometheus exporter: %w", err)
		}
		return exp, nil
	case "none", "":
		exp, err := stdoutmetric.New(stdoutmetric.WithWriter(io.Discard))
		if err != nil {
			return nil, fmt.Errorf("exporters: create discard metric exporter: %w", err)
		}
		return sdkmetric.NewPeriodicReader(exp), nil
	default:
		return nil, fmt.Errorf("%w: %q", ErrInvalidExporter, name)
	}
}
