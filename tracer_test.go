package sovdevlogger

import (
	"context"
	"errors"
	"testing"

	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"
)

func newRecordingSpanEmitter() (*spanEmitter, *tracetest.SpanRecorder) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	return newSpanEmitter(tp.Tracer("test")), sr
}

func TestSpanEmitter_StartSetsAttributes(t *testing.T) {
	emitter, sr := newRecordingSpanEmitter()

	_, span := emitter.start(context.Background(), "lookup", logTypeTransaction, "BRREG", LevelInfo)
	span.End()

	spans := sr.Ended()
	if len(spans) != 1 {
		t.Fatalf("got %d ended spans, want 1", len(spans))
	}
	got := spans[0]
	if got.Name() != "lookup" {
		t.Errorf("span name = %q, want lookup", got.Name())
	}

	attrs := map[string]string{}
	for _, kv := range got.Attributes() {
		attrs[string(kv.Key)] = kv.Value.AsString()
	}
	if attrs["log_type"] != string(logTypeTransaction) {
		t.Errorf("log_type attribute = %q, want %q", attrs["log_type"], logTypeTransaction)
	}
	if attrs["peer_service"] != "BRREG" {
		t.Errorf("peer_service attribute = %q, want BRREG", attrs["peer_service"])
	}
	if attrs["log_level"] != LevelInfo.String() {
		t.Errorf("log_level attribute = %q, want %q", attrs["log_level"], LevelInfo.String())
	}
}

func TestSpanEmitter_EndWithoutException(t *testing.T) {
	emitter, sr := newRecordingSpanEmitter()

	_, span := emitter.start(context.Background(), "lookup", logTypeTransaction, "BRREG", LevelInfo)
	emitter.end(span, nil)

	got := sr.Ended()[0]
	if got.Status().Code != codes.Ok {
		t.Errorf("status code = %v, want Ok", got.Status().Code)
	}
}

func TestSpanEmitter_EndWithException(t *testing.T) {
	emitter, sr := newRecordingSpanEmitter()

	exc := sanitizeException(errors.New("boom"), []byte("stack"))
	_, span := emitter.start(context.Background(), "lookup", logTypeTransaction, "BRREG", LevelError)
	emitter.end(span, exc)

	got := sr.Ended()[0]
	if got.Status().Code != codes.Error {
		t.Errorf("status code = %v, want Error", got.Status().Code)
	}
	if got.Status().Description != exc.Message {
		t.Errorf("status description = %q, want %q", got.Status().Description, exc.Message)
	}

	events := got.Events()
	if len(events) != 1 {
		t.Fatalf("got %d events, want 1 recorded error", len(events))
	}
	if events[0].Name != "exception" {
		t.Errorf("event name = %q, want exception", events[0].Name)
	}
}

func TestNewSpanEmitter_NilTracerFallsBackToNoop(t *testing.T) {
	emitter := newSpanEmitter(nil)
	_, span := emitter.start(context.Background(), "lookup", logTypeTransaction, "BRREG", LevelInfo)
	if span.SpanContext().IsValid() {
		t.Error("no-op tracer produced a valid span context")
	}
	emitter.end(span, nil)
}

func TestSanitizedError_Error(t *testing.T) {
	exc := sanitizeException(errors.New("boom"), nil)
	wrapped := &sanitizedError{exc: exc}
	if wrapped.Error() != "boom" {
		t.Errorf("Error() = %q, want boom", wrapped.Error())
	}
}
