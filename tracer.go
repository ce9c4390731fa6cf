package sovdevlogger

import (
	"context"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
	tracenoop "go.opentelemetry.io/otel/trace/noop"
)

// spanEmitter starts and ends the short-lived internal span that
// wraps every log* call. Callers of log* never see a span directly;
// the record builder only consults the span context it leaves active
// on ctx.
type spanEmitter struct {
	tracer trace.Tracer
}

// newSpanEmitter wraps t. A nil t falls back to the global no-op
// tracer, matching the "no traces configured" run mode.
func newSpanEmitter(t trace.Tracer) *spanEmitter {
	if t == nil {
		t = tracenoop.NewTracerProvider().Tracer("sovdevlogger")
	}
	return &spanEmitter{tracer: t}
}

// start opens a span named after the function name, tagged with
// the standard log_type/peer_service/log_level attributes. Span kind
// is always INTERNAL.
func (s *spanEmitter) start(ctx context.Context, functionName string, lt logType, peerService string, level Level) (context.Context, trace.Span) {
	return s.tracer.Start(ctx, functionName,
		trace.WithSpanKind(trace.SpanKindInternal),
		trace.WithAttributes(
			attribute.String("log_type", string(lt)),
			attribute.String("peer_service", peerService),
			attribute.String("log_level", level.String()),
		),
	)
}

// end closes span, recording the exception (status ERROR) when
// present; otherwise the span ends with status OK. A span that
// reaches shutdown without being ended is handled by the
// TracerProvider itself (ended implicitly with status OK), not here.
func (s *spanEmitter) end(span trace.Span, exc *sanitizedException) {
	if exc != nil {
		span.SetStatus(codes.Error, exc.Message)
		span.SetAttributes(attribute.String("exception_type", exc.Type))
		span.RecordError(&sanitizedError{exc})
	} else {
		span.SetStatus(codes.Ok, "")
	}
	span.End()
}

// sanitizedError adapts a sanitizedException to the error interface
// so span.RecordError has something to attach as exception.message.
type sanitizedError struct {
	exc *sanitizedException
}

func (e *sanitizedError) Error() string { return e.exc.Message }
