package sovdevlogger

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"strconv"
	"sync"

	otellog "go.opentelemetry.io/otel/log"
)

// consoleSink writes the canonical record to the process error stream,
// one JSON line per call. stdout is never used. Guarded by its own
// mutex so concurrent calls don't interleave partial lines.
type consoleSink struct {
	mu  sync.Mutex
	out io.Writer
}

func newConsoleSink() *consoleSink {
	return &consoleSink{out: os.Stderr}
}

func (s *consoleSink) write(r *record) {
	line, err := r.marshalJSONLine()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to marshal log record: %v\n", err)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	s.out.Write(line)
}

// fileWriter is the minimal surface logging.go needs from
// filerotate.Writer; letting fileSink depend on an interface keeps it
// testable without touching disk.
type fileWriter interface {
	Write(p []byte) (int, error)
}

// fileSink owns the two rotating writers: dev.log receives every
// record, error.log only error-class records (ERROR/FATAL level, or
// any record carrying an exception; see record.isErrorClass).
type fileSink struct {
	mu  sync.Mutex
	dev fileWriter
	err fileWriter
}

func newFileSink(dev, err fileWriter) *fileSink {
	return &fileSink{dev: dev, err: err}
}

func (s *fileSink) write(r *record) {
	line, marshalErr := r.marshalJSONLine()
	if marshalErr != nil {
		fmt.Fprintf(os.Stderr, "Warning: failed to marshal log record: %v\n", marshalErr)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.dev.Write(line)
	if r.isErrorClass() {
		s.err.Write(line)
	}
}

// otlpLogSink emits the canonical record as an OTel log record. It is
// bound to a scope named after the service, version pinned to "1.0.0".
type otlpLogSink struct {
	logger otellog.Logger
}

func newOTLPLogSink(logger otellog.Logger) *otlpLogSink {
	return &otlpLogSink{logger: logger}
}

func (s *otlpLogSink) write(ctx context.Context, r *record) {
	rec := otellog.Record{}
	rec.SetTimestamp(r.Timestamp)
	rec.SetObservedTimestamp(r.Timestamp)
	rec.SetBody(otellog.StringValue(r.Message))
	rec.SetSeverity(otellog.Severity(r.Level.severityNumber()))
	rec.SetSeverityText(r.Level.String())

	attrs := []otellog.KeyValue{
		otellog.String("service_name", r.ServiceName),
		otellog.String("service_version", r.ServiceVersion),
		otellog.String("session_id", r.SessionID),
		otellog.String("trace_id", r.TraceID),
		otellog.String("event_id", r.EventID),
		otellog.String("function_name", r.FunctionName),
		otellog.String("peer_service", r.PeerService),
		otellog.String("log_type", string(r.LogType)),
		otellog.Int("severity_number", r.Level.severityNumber()),
		otellog.String("observed_timestamp", strconv.FormatInt(r.Timestamp.UnixNano(), 10)),
		otellog.String("input_json", jsonStringOrNull(r.Input)),
		otellog.String("response_json", jsonStringOrNull(r.Response)),
	}
	if r.SpanID != "" {
		attrs = append(attrs, otellog.String("span_id", r.SpanID))
	}
	if r.Exception != nil {
		attrs = append(attrs,
			otellog.String("exception_type", r.Exception.Type),
			otellog.String("exception_message", r.Exception.Message),
			otellog.String("exception_stacktrace", r.Exception.Stack),
		)
	}
	rec.AddAttributes(attrs...)

	s.logger.Emit(ctx, rec)
}

// jsonStringOrNull JSON-encodes v, returning the literal string "null"
// for a nil or unmarshalable value, matching the OTLP attribute
// contract shared with the console/file sinks.
func jsonStringOrNull(v any) string {
	if v == nil {
		return "null"
	}
	b, err := json.Marshal(v)
	if err != nil {
		return "null"
	}
	return string(b)
}
