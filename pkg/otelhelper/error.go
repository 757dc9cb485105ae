package otelhelper

import (
	"fmt"

	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	// FailureEvent is the span event added when a node or a run fails.
	FailureEvent = "scriptorium.failure"
	// ErrorTypeKey carries the Go type of the failure.
	ErrorTypeKey = "error.type"
)

// SetError marks span as failed. A non-empty nodeUUID is attached to the span
// itself and to the failure event so the failing node can be found from either.
// A nil err leaves the span untouched.
func SetError(span trace.Span, err error, nodeUUID string, attrs ...attribute.KeyValue) {
	if err == nil {
		return
	}

	if nodeUUID != "" {
		node := attribute.String(NodeUUIDKey, nodeUUID)
		span.SetAttributes(node)
		attrs = append(attrs, node)
	}

	attrs = append(attrs, attribute.String(ErrorTypeKey, fmt.Sprintf("%T", err)))

	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	span.AddEvent(FailureEvent, trace.WithAttributes(attrs...))
}
