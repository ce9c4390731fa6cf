package sovdevlogger

import (
	"context"
	"time"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
	metricnoop "go.opentelemetry.io/otel/metric/noop"
)

// metricEmitter owns the four fixed instruments used by every call
// and the scoped acquire/release pattern for operations_active.
type metricEmitter struct {
	operationsTotal  metric.Int64Counter
	errorsTotal      metric.Int64Counter
	operationDur     metric.Float64Histogram
	operationsActive metric.Int64UpDownCounter
}

// newMetricEmitter creates the four instruments on meter. A nil meter
// falls back to the global no-op meter.
func newMetricEmitter(meter metric.Meter) (*metricEmitter, error) {
	if meter == nil {
		meter = metricnoop.NewMeterProvider().Meter("sovdevlogger")
	}

	operationsTotal, err := meter.Int64Counter(
		"sovdev_operations_total",
		metric.WithDescription("Total number of logged operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	errorsTotal, err := meter.Int64Counter(
		"sovdev_errors_total",
		metric.WithDescription("Total number of error-class logged operations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	operationDur, err := meter.Float64Histogram(
		"sovdev_operation_duration",
		metric.WithDescription("Duration of a logged operation"),
		metric.WithUnit("ms"),
	)
	if err != nil {
		return nil, err
	}

	operationsActive, err := meter.Int64UpDownCounter(
		"sovdev_operations_active",
		metric.WithDescription("Number of logged operations currently in flight"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, err
	}

	return &metricEmitter{
		operationsTotal:  operationsTotal,
		errorsTotal:      errorsTotal,
		operationDur:     operationDur,
		operationsActive: operationsActive,
	}, nil
}

func commonAttrs(serviceName, serviceVersion, peerService string, level Level, lt logType) []attribute.KeyValue {
	return []attribute.KeyValue{
		attribute.String("service_name", serviceName),
		attribute.String("service_version", serviceVersion),
		attribute.String("peer_service", peerService),
		attribute.String("log_level", level.String()),
		attribute.String("log_type", string(lt)),
	}
}

// acquire increments operations_active and returns a release function
// that decrements it exactly once. Call release via defer immediately
// so operations_active is balanced under every exit path, including a
// panic unwinding through the caller.
func (m *metricEmitter) acquire(ctx context.Context, attrs []attribute.KeyValue) (release func()) {
	m.operationsActive.Add(ctx, 1, metric.WithAttributes(attrs...))
	var released bool
	return func() {
		if released {
			return
		}
		released = true
		m.operationsActive.Add(ctx, -1, metric.WithAttributes(attrs...))
	}
}

// begin increments operations_total unconditionally and errors_total
// exactly once for every error-class record (ERROR/FATAL level, or an
// attached exception, independently or together). exceptionType tags
// the errors_total data point when an exception was attached; it is
// "" for a record that is error-class by level alone, in which case
// the data point carries no exception_type attribute at all.
func (m *metricEmitter) begin(ctx context.Context, attrs []attribute.KeyValue, isErrorClass bool, exceptionType string) {
	m.operationsTotal.Add(ctx, 1, metric.WithAttributes(attrs...))
	if !isErrorClass {
		return
	}
	errAttrs := attrs
	if exceptionType != "" {
		errAttrs = append(append([]attribute.KeyValue{}, attrs...), attribute.String("exception_type", exceptionType))
	}
	m.errorsTotal.Add(ctx, 1, metric.WithAttributes(errAttrs...))
}

// finish records the duration histogram once the sinks have run,
// separately from begin so the two calls straddle the sink fan-out.
func (m *metricEmitter) finish(ctx context.Context, attrs []attribute.KeyValue, elapsed time.Duration) {
	m.operationDur.Record(ctx, float64(elapsed.Milliseconds()), metric.WithAttributes(attrs...))
}
