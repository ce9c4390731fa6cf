package sovdevlogger

import (
	"context"
	"testing"
	"time"

	"go.opentelemetry.io/otel/sdk/metric"
	"go.opentelemetry.io/otel/sdk/metric/metricdata"
)

func newRecordingMetricEmitter(t *testing.T) (*metricEmitter, *metric.ManualReader) {
	t.Helper()
	reader := metric.NewManualReader()
	mp := metric.NewMeterProvider(metric.WithReader(reader))
	emitter, err := newMetricEmitter(mp.Meter("test"))
	if err != nil {
		t.Fatalf("newMetricEmitter() error = %v", err)
	}
	return emitter, reader
}

func collectSum(t *testing.T, reader *metric.ManualReader, name string) float64 {
	t.Helper()
	var rm metricdata.ResourceMetrics
	if err := reader.Collect(context.Background(), &rm); err != nil {
		t.Fatalf("Collect() error = %v", err)
	}
	for _, sm := range rm.ScopeMetrics {
		for _, m := range sm.Metrics {
			if m.Name != name {
				continue
			}
			switch data := m.Data.(type) {
			case metricdata.Sum[int64]:
				var total float64
				for _, dp := range data.DataPoints {
					total += float64(dp.Value)
				}
				return total
			case metricdata.Histogram[float64]:
				var total float64
				for _, dp := range data.DataPoints {
					total += float64(dp.Count)
				}
				return total
			}
		}
	}
	return 0
}

func TestMetricEmitter_BeginIncrementsOperationsTotal(t *testing.T) {
	emitter, reader := newRecordingMetricEmitter(t)
	attrs := commonAttrs("svc", "1.0.0", "BRREG", LevelInfo, logTypeTransaction)

	emitter.begin(context.Background(), attrs, false, "")

	if got := collectSum(t, reader, "sovdev_operations_total"); got != 1 {
		t.Errorf("sovdev_operations_total = %v, want 1", got)
	}
	if got := collectSum(t, reader, "sovdev_errors_total"); got != 0 {
		t.Errorf("sovdev_errors_total = %v, want 0 for a non-error call", got)
	}
}

func TestMetricEmitter_BeginWithExceptionIncrementsErrorsTotal(t *testing.T) {
	emitter, reader := newRecordingMetricEmitter(t)
	attrs := commonAttrs("svc", "1.0.0", "BRREG", LevelError, logTypeTransaction)

	emitter.begin(context.Background(), attrs, true, "Error")

	if got := collectSum(t, reader, "sovdev_errors_total"); got != 1 {
		t.Errorf("sovdev_errors_total = %v, want 1", got)
	}
}

func TestMetricEmitter_BeginErrorClassByLevelAloneIncrementsErrorsTotal(t *testing.T) {
	emitter, reader := newRecordingMetricEmitter(t)
	attrs := commonAttrs("svc", "1.0.0", "BRREG", LevelError, logTypeTransaction)

	emitter.begin(context.Background(), attrs, true, "")

	if got := collectSum(t, reader, "sovdev_errors_total"); got != 1 {
		t.Errorf("sovdev_errors_total = %v, want 1 for an ERROR-level call with no attached exception", got)
	}
}

func TestMetricEmitter_FinishRecordsDuration(t *testing.T) {
	emitter, reader := newRecordingMetricEmitter(t)
	attrs := commonAttrs("svc", "1.0.0", "BRREG", LevelInfo, logTypeTransaction)

	emitter.finish(context.Background(), attrs, 5*time.Millisecond)

	if got := collectSum(t, reader, "sovdev_operation_duration"); got != 1 {
		t.Errorf("sovdev_operation_duration count = %v, want 1 recorded point", got)
	}
}

func TestMetricEmitter_AcquireReleaseBalances(t *testing.T) {
	emitter, reader := newRecordingMetricEmitter(t)
	attrs := commonAttrs("svc", "1.0.0", "BRREG", LevelInfo, logTypeTransaction)

	release := emitter.acquire(context.Background(), attrs)
	if got := collectSum(t, reader, "sovdev_operations_active"); got != 1 {
		t.Errorf("sovdev_operations_active after acquire = %v, want 1", got)
	}

	release()
	if got := collectSum(t, reader, "sovdev_operations_active"); got != 0 {
		t.Errorf("sovdev_operations_active after release = %v, want 0", got)
	}
}

func TestMetricEmitter_ReleaseIsIdempotent(t *testing.T) {
	emitter, reader := newRecordingMetricEmitter(t)
	attrs := commonAttrs("svc", "1.0.0", "BRREG", LevelInfo, logTypeTransaction)

	release := emitter.acquire(context.Background(), attrs)
	release()
	release()

	if got := collectSum(t, reader, "sovdev_operations_active"); got != 0 {
		t.Errorf("sovdev_operations_active after double release = %v, want 0 (not -1)", got)
	}
}

func TestNewMetricEmitter_NilMeterFallsBackToNoop(t *testing.T) {
	emitter, err := newMetricEmitter(nil)
	if err != nil {
		t.Fatalf("newMetricEmitter(nil) error = %v", err)
	}
	release := emitter.acquire(context.Background(), nil)
	release()
}

func TestCommonAttrs(t *testing.T) {
	attrs := commonAttrs("svc", "1.0.0", "BRREG", LevelWarn, logTypeJobStatus)
	want := map[string]string{
		"service_name":    "svc",
		"service_version": "1.0.0",
		"peer_service":    "BRREG",
		"log_level":       "WARN",
		"log_type":        string(logTypeJobStatus),
	}
	got := map[string]string{}
	for _, kv := range attrs {
		got[string(kv.Key)] = kv.Value.AsString()
	}
	for k, v := range want {
		if got[k] != v {
			t.Errorf("attrs[%q] = %q, want %q", k, got[k], v)
		}
	}
}
