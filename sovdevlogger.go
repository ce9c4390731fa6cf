// Package sovdevlogger is documented in doc.go.
package sovdevlogger

import (
	"context"
	"errors"
	"fmt"
	"math"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/attribute"
	otellog "go.opentelemetry.io/otel/log"
	"go.opentelemetry.io/otel/metric"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/resource"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	semconv "go.opentelemetry.io/otel/semconv/v1.26.0"
	"go.opentelemetry.io/otel/trace"

	"github.com/norwegianredcross/sovdevlogger/resilience"

	"github.com/norwegianredcross/sovdevlogger/exporters"
	"github.com/norwegianredcross/sovdevlogger/filerotate"
)

const defaultFlushTimeout = 30 * time.Second

// session holds everything produced by a successful Initialize: the
// resolved registry, the three OTel providers (always built; a
// disabled signal gets a provider with no OTLP exporter), the sinks
// (nil when disabled) and the span/metric emitters. A new
// Initialize call replaces the package-level pointer wholesale;
// callers holding a reference to a prior session see no further
// effect from it.
type session struct {
	serviceName    string
	serviceVersion string
	id             string

	peers *peerRegistry

	tracerProvider *sdktrace.TracerProvider
	meterProvider  *sdkmetric.MeterProvider
	loggerProvider *sdklog.LoggerProvider

	tracer  trace.Tracer
	spans   *spanEmitter
	metrics *metricEmitter
	console *consoleSink
	file    *fileSink
	otlpLog *otlpLogSink
}

var (
	mu      sync.RWMutex
	current *session
)

// Initialize binds the module to a service identity and prepares
// every configured sink. serviceVersion, when
// empty, falls back to SERVICE_VERSION and then "1.0.0". peers may be
// nil.
//
// Initialize is not safe to call concurrently with itself or with any
// other exported function; call it once, early, from a single
// goroutine.
func Initialize(serviceName, serviceVersion string, peers *PeerServices) error {
	trimmed := strings.TrimSpace(serviceName)
	if trimmed == "" {
		return ErrInvalidConfiguration
	}

	cfg := resolveConfig()

	version := strings.TrimSpace(serviceVersion)
	if version == "" {
		version = cfg.fallbackServiceVer
	}

	sessionID := uuid.NewString()
	registry := newPeerRegistry(peers, trimmed)

	ctx := context.Background()
	res, err := resource.New(ctx,
		resource.WithAttributes(
			semconv.ServiceName(trimmed),
			semconv.ServiceVersion(version),
			semconv.DeploymentEnvironment(cfg.deploymentEnvironment),
			attribute.String("session.id", sessionID),
		),
	)
	if err != nil {
		return fmt.Errorf("sovdevlogger: build resource: %w", err)
	}

	s := &session{
		serviceName:    trimmed,
		serviceVersion: version,
		id:             sessionID,
		peers:          registry,
	}

	meterProvider, meter := buildMeterProvider(ctx, cfg, res, trimmed)
	s.meterProvider = meterProvider
	metricsEmitter, err := newMetricEmitter(meter)
	if err != nil {
		return fmt.Errorf("sovdevlogger: build metrics: %w", err)
	}
	s.metrics = metricsEmitter

	tracerProvider, tracer := buildTracerProvider(ctx, cfg, res, trimmed)
	s.tracerProvider = tracerProvider
	s.tracer = tracer
	s.spans = newSpanEmitter(tracer)

	loggerProvider, logger := buildLoggerProvider(ctx, cfg, res, trimmed)
	s.loggerProvider = loggerProvider
	if logger != nil {
		s.otlpLog = newOTLPLogSink(logger)
	}

	if cfg.consoleEnabled {
		s.console = newConsoleSink()
	}
	if cfg.fileEnabled {
		dev := filerotate.New(filepath.Join(cfg.fileDir, "dev.log"), cfg.fileMaxBytes, cfg.fileBackups)
		errLog := filerotate.New(filepath.Join(cfg.fileDir, "error.log"), cfg.fileMaxBytes, cfg.fileBackups)
		s.file = newFileSink(dev, errLog)
	}

	mu.Lock()
	current = s
	mu.Unlock()

	return nil
}

// buildMeterProvider constructs a MeterProvider with a 10-second
// periodic reader over an OTLP/HTTP metric exporter pinned to
// cumulative temporality. When no metrics endpoint is configured, it
// falls back to the SOVDEV_DEV_EXPORTER reader (stdout, prometheus, or
// none) so local development still has a way to see emitted metrics.
func buildMeterProvider(ctx context.Context, cfg runConfig, res *resource.Resource, serviceName string) (*sdkmetric.MeterProvider, metric.Meter) {
	opts := []sdkmetric.Option{sdkmetric.WithResource(res)}

	if cfg.hasOTLP && cfg.otlpMetricsEndpoint != "" {
		exp, err := exporters.NewMetricExporter(ctx, exporters.Options{
			Endpoint: cfg.otlpMetricsEndpoint,
			Headers:  cfg.otlpHeaders,
		})
		if err != nil {
			warn(fmt.Sprintf("failed to build metric exporter: %v", err))
		} else {
			opts = append(opts, sdkmetric.WithReader(
				sdkmetric.NewPeriodicReader(exp, sdkmetric.WithInterval(10*time.Second)),
			))
		}
	} else {
		reader, err := exporters.NewDevMetricReader(cfg.devExporter)
		if err != nil {
			warn(fmt.Sprintf("failed to build dev metric reader: %v", err))
		} else {
			opts = append(opts, sdkmetric.WithReader(reader))
		}
	}

	mp := sdkmetric.NewMeterProvider(opts...)
	return mp, mp.Meter(serviceName)
}

// buildTracerProvider constructs a TracerProvider with a batched OTLP
// span exporter. When no traces endpoint is configured, it falls back
// to the SOVDEV_DEV_EXPORTER span exporter (stdout or none); spans are
// always created and ended regardless.
func buildTracerProvider(ctx context.Context, cfg runConfig, res *resource.Resource, serviceName string) (*sdktrace.TracerProvider, trace.Tracer) {
	opts := []sdktrace.TracerProviderOption{sdktrace.WithResource(res)}

	if cfg.hasOTLP && cfg.otlpTracesEndpoint != "" {
		exp, err := exporters.NewTraceExporter(ctx, exporters.Options{
			Endpoint: cfg.otlpTracesEndpoint,
			Headers:  cfg.otlpHeaders,
		})
		if err != nil {
			warn(fmt.Sprintf("failed to build trace exporter: %v", err))
		} else {
			opts = append(opts, sdktrace.WithBatcher(exp))
		}
	} else {
		exp, err := exporters.NewDevTraceExporter(cfg.devExporter)
		if err != nil {
			warn(fmt.Sprintf("failed to build dev trace exporter: %v", err))
		} else {
			opts = append(opts, sdktrace.WithBatcher(exp))
		}
	}

	tp := sdktrace.NewTracerProvider(opts...)
	return tp, tp.Tracer(serviceName)
}

// buildLoggerProvider constructs a LoggerProvider with a batched OTLP
// log exporter. Returns a nil logger (not an empty one) when no logs
// endpoint is configured, so the caller can tell "absent" from
// "configured but empty".
func buildLoggerProvider(ctx context.Context, cfg runConfig, res *resource.Resource, serviceName string) (*sdklog.LoggerProvider, otellog.Logger) {
	if !cfg.hasOTLP || cfg.otlpLogsEndpoint == "" {
		return sdklog.NewLoggerProvider(sdklog.WithResource(res)), nil
	}

	exp, err := exporters.NewLogExporter(ctx, exporters.Options{
		Endpoint: cfg.otlpLogsEndpoint,
		Headers:  cfg.otlpHeaders,
	})
	if err != nil {
		warn(fmt.Sprintf("failed to build log exporter: %v", err))
		return sdklog.NewLoggerProvider(sdklog.WithResource(res)), nil
	}

	lp := sdklog.NewLoggerProvider(
		sdklog.WithResource(res),
		sdklog.WithProcessor(sdklog.NewBatchProcessor(exp)),
	)
	return lp, lp.Logger(serviceName, otellog.WithInstrumentationVersion("1.0.0"))
}

// Log records a transaction log record (log_type = "transaction").
// peer is a friendly name registered with CreatePeerServices, or
// Internal/"" for the service's own identity. details is the optional
// bundle of input/response/error/trace-id; its zero value means "none
// supplied".
func Log(level Level, functionName, message, peer string, details CallDetails) error {
	return emit(level, logTypeTransaction, functionName, message, peer, details)
}

// LogJobStatus records a batch job lifecycle event (log_type =
// "job.status"). The message is the literal "Job <status>: <jobName>";
// input is {job_name, job_status} merged with extraInput.
func LogJobStatus(level Level, functionName, jobName, status, peer string, extraInput map[string]any) error {
	input := mergeInput(map[string]any{
		"job_name":   jobName,
		"job_status": status,
	}, extraInput)
	message := fmt.Sprintf("Job %s: %s", status, jobName)
	return emit(level, logTypeJobStatus, functionName, message, peer, CallDetails{Input: input})
}

// LogJobProgress records a batch progress update (log_type =
// "job.progress"). The message is the literal "Processing <itemID>
// (<current>/<total>)"; input is {item_id, current_item, total_items,
// progress_percentage} merged with extraInput. total == 0 reports 0%
// rather than dividing by zero.
func LogJobProgress(level Level, functionName, itemID string, current, total int, peer string, extraInput map[string]any) error {
	percentage := 0
	if total != 0 {
		percentage = int(math.Round(100 * float64(current) / float64(total)))
	}
	input := mergeInput(map[string]any{
		"item_id":             itemID,
		"current_item":        current,
		"total_items":         total,
		"progress_percentage": percentage,
	}, extraInput)
	message := fmt.Sprintf("Processing %s (%d/%d)", itemID, current, total)
	return emit(level, logTypeJobProgress, functionName, message, peer, CallDetails{Input: input})
}

func mergeInput(base map[string]any, extra map[string]any) map[string]any {
	out := make(map[string]any, len(base)+len(extra))
	for k, v := range base {
		out[k] = v
	}
	for k, v := range extra {
		out[k] = v
	}
	return out
}

// emit is the single call-site orchestration shared by Log,
// LogJobStatus and LogJobProgress: start span, raise
// operations_active, build record, count the call (operations_total,
// errors_total), fan out to sinks, end span, record the duration, and
// finally lower operations_active via the deferred release.
func emit(level Level, lt logType, functionName, message, peer string, details CallDetails) error {
	mu.RLock()
	s := current
	mu.RUnlock()
	if s == nil {
		return ErrUninitialized
	}

	resolvedPeer := s.peers.resolve(peer)

	ctx, span := s.spans.start(context.Background(), functionName, lt, resolvedPeer, level)

	attrs := commonAttrs(s.serviceName, s.serviceVersion, resolvedPeer, level, lt)
	release := s.metrics.acquire(ctx, attrs)
	defer release()

	start := time.Now()

	r := buildRecord(span.SpanContext(), start, s.id, s.serviceName, s.serviceVersion, level, lt, functionName, message, resolvedPeer, details)

	exceptionType := ""
	if r.Exception != nil {
		exceptionType = r.Exception.Type
	}
	s.metrics.begin(ctx, attrs, r.isErrorClass(), exceptionType)

	if s.console != nil {
		s.console.write(r)
	}
	if s.file != nil {
		s.file.write(r)
	}
	if s.otlpLog != nil {
		s.otlpLog.write(ctx, r)
	}

	s.spans.end(span, r.Exception)
	s.metrics.finish(ctx, attrs, time.Since(start))

	return nil
}

// GenerateTraceID returns a fresh 32-hex-lowercase id, suitable for
// correlating log calls across function boundaries without opening a
// span.
func GenerateTraceID() string {
	return strings.ReplaceAll(uuid.NewString(), "-", "")
}

// Flush force-flushes and then shuts down, in order, the tracer,
// meter and logger providers. timeout <= 0 uses the 30-second default.
// Each step's failure is reported to the error stream and does not
// block the others; Flush itself never returns an error, so that
// logging can never break application flow.
//
// Flush on an uninitialized module is a no-op with a single
// diagnostic. Flush may be called more than once.
func Flush(ctx context.Context, timeout time.Duration) {
	if timeout <= 0 {
		timeout = defaultFlushTimeout
	}

	mu.RLock()
	s := current
	mu.RUnlock()
	if s == nil {
		warn("Flush called before Initialize")
		return
	}

	err := resilience.ExecuteWithTimeout(ctx, timeout, func(ctx context.Context) error {
		flushStep(s.tracerProvider.ForceFlush, ctx, "tracer flush")
		flushStep(s.meterProvider.ForceFlush, ctx, "meter flush")
		flushStep(s.loggerProvider.ForceFlush, ctx, "logger flush")

		flushStep(s.tracerProvider.Shutdown, ctx, "tracer shutdown")
		flushStep(s.meterProvider.Shutdown, ctx, "meter shutdown")
		flushStep(s.loggerProvider.Shutdown, ctx, "logger shutdown")
		return nil
	})
	if errors.Is(err, resilience.ErrTimeout) {
		warn("Flush exceeded its deadline; some providers may not have finished flushing")
	}
}

// flushStep runs one force-flush/shutdown step, reporting its own
// failure without affecting the steps around it.
func flushStep(step func(context.Context) error, ctx context.Context, label string) {
	if step == nil {
		return
	}
	if err := step(ctx); err != nil {
		warn(fmt.Sprintf("Sovdev Logger failed to %s: %v", label, err))
	}
}

// resetForTest clears the package-level session so tests can exercise
// ErrUninitialized and re-Initialize without cross-test bleed. It is
// unexported: callers outside the package reach the same end state
// only through a fresh Initialize, never by bypassing Flush.
func resetForTest() {
	mu.Lock()
	current = nil
	mu.Unlock()
}
