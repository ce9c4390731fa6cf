package sovdevlogger

import (
	"encoding/json"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

// logType enumerates the three façade operations, each of which
// projects into a distinct log_type on the wire.
type logType string

const (
	logTypeTransaction logType = "transaction"
	logTypeJobStatus   logType = "job.status"
	logTypeJobProgress logType = "job.progress"
)

// record is the canonical structured log record, built once per call
// by buildRecord and then fanned out, unchanged, to every enabled
// sink. toWire (below) and the OTLP attribute mapping in logging.go
// each independently flatten it to the snake_case wire names.
type record struct {
	Timestamp time.Time
	Level     Level

	ServiceName    string
	ServiceVersion string
	SessionID      string

	TraceID string
	SpanID  string
	EventID string

	FunctionName string
	Message      string
	PeerService  string
	LogType      logType

	Input    any
	Response any

	Exception *sanitizedException
}

// CallDetails groups the optional, order-insensitive arguments to Log:
// input/response payloads, an error to sanitize and attach, and an
// externally supplied trace id for cross-call correlation. The zero
// value means "none of these were supplied".
type CallDetails struct {
	Input    any
	Response any
	Err      error
	TraceID  string
}

// isErrorClass reports whether the record counts as error-class for
// metrics and file-sink routing purposes: an ERROR/FATAL level, or the
// presence of an exception, independently makes it so.
func (r *record) isErrorClass() bool {
	return r.Level.isErrorClass() || r.Exception != nil
}

// buildRecord is the pure, deterministic projection of one call into a
// record. spanCtx (if it carries a trace id) supplies trace/span ids;
// otherwise details.TraceID is used as-is, falling back to a fresh
// UUIDv4. resolvedPeer is the already-resolved system id (see
// peerRegistry.resolve) — resolution happens once per call, in emit,
// not here, so a single unknown-peer warning is emitted per call
// rather than once per consumer of the peer name.
func buildRecord(
	spanCtx trace.SpanContext,
	now time.Time,
	session string,
	serviceName, serviceVersion string,
	level Level,
	lt logType,
	functionName, message, resolvedPeer string,
	details CallDetails,
) *record {
	r := &record{
		Timestamp:      now,
		Level:          level,
		ServiceName:    serviceName,
		ServiceVersion: serviceVersion,
		SessionID:      session,
		EventID:        uuid.NewString(),
		FunctionName:   functionName,
		Message:        message,
		PeerService:    resolvedPeer,
		LogType:        lt,
		Input:          details.Input,
		Response:       details.Response,
	}

	if spanCtx.HasTraceID() {
		r.TraceID = spanCtx.TraceID().String()
	} else if strings.TrimSpace(details.TraceID) != "" {
		r.TraceID = details.TraceID
	} else {
		r.TraceID = strings.ReplaceAll(uuid.NewString(), "-", "")
	}
	if spanCtx.HasSpanID() {
		r.SpanID = spanCtx.SpanID().String()
	}

	if details.Err != nil {
		r.Exception = sanitizeException(details.Err, nil)
	}

	return r
}

// wireRecord is the flat snake_case projection shared, byte-for-byte,
// by the console and file sinks. The OTLP log emitter builds its own
// attribute set in logging.go since it carries extra fields
// (severity_number, observed_timestamp) that the file/console shape
// does not.
type wireRecord struct {
	Timestamp      string `json:"timestamp"`
	Level          string `json:"level"`
	ServiceName    string `json:"service_name"`
	ServiceVersion string `json:"service_version"`
	SessionID      string `json:"session_id"`
	TraceID        string `json:"trace_id"`
	SpanID         string `json:"span_id,omitempty"`
	EventID        string `json:"event_id"`
	FunctionName   string `json:"function_name"`
	Message        string `json:"message"`
	PeerService    string `json:"peer_service"`
	LogType        string `json:"log_type"`

	Input    any `json:"input_json,omitempty"`
	Response any `json:"response_json"`

	ExceptionType       string `json:"exception_type,omitempty"`
	ExceptionMessage    string `json:"exception_message,omitempty"`
	ExceptionStacktrace string `json:"exception_stacktrace,omitempty"`
}

// toWire flattens r into the shared console/file wire shape.
func (r *record) toWire() wireRecord {
	w := wireRecord{
		Timestamp:      r.Timestamp.Format("2006-01-02T15:04:05.000Z07:00"),
		Level:          r.Level.String(),
		ServiceName:    r.ServiceName,
		ServiceVersion: r.ServiceVersion,
		SessionID:      r.SessionID,
		TraceID:        r.TraceID,
		SpanID:         r.SpanID,
		EventID:        r.EventID,
		FunctionName:   r.FunctionName,
		Message:        r.Message,
		PeerService:    r.PeerService,
		LogType:        string(r.LogType),
		Input:          r.Input,
		Response:       r.Response,
	}
	if r.Exception != nil {
		w.ExceptionType = r.Exception.Type
		w.ExceptionMessage = r.Exception.Message
		w.ExceptionStacktrace = r.Exception.Stack
	}
	return w
}

// marshalJSONLine renders r as a single JSON line, newline-terminated,
// ready to be written to a sink as-is.
func (r *record) marshalJSONLine() ([]byte, error) {
	b, err := json.Marshal(r.toWire())
	if err != nil {
		return nil, err
	}
	return append(b, '\n'), nil
}
