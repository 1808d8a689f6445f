package observability

import (
	"context"
	"strings"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"
)

const (
	upstreamTracerName = "trustguard/upstream"
	dbTracerName       = "trustguard/db"
)

type contextKey string

const (
	requestIDKey contextKey = "observability.request_id"
	routeKey     contextKey = "observability.route"
	toolKey      contextKey = "observability.tool"
)

// Span is the application-level tracing span contract.
type Span interface {
	End()
	RecordError(error)
	SetStatusCode(int)
}

type otelSpan struct {
	inner trace.Span
}

// StartUpstreamSpan starts a client span for one call to an external data source.
func StartUpstreamSpan(ctx context.Context, gateway, operation string) (context.Context, Span) {
	gateway = strings.TrimSpace(gateway)
	if gateway == "" {
		gateway = "unknown"
	}
	operation = strings.TrimSpace(operation)
	if operation == "" {
		operation = "call"
	}
	attrs := []attribute.KeyValue{
		attribute.String("trustguard.upstream", gateway),
		attribute.String("trustguard.operation", operation),
	}
	if tool, ok := ToolFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("trustguard.tool", tool))
	}

	ctx, span := otel.Tracer(upstreamTracerName).Start(ctx, "upstream."+gateway+"."+operation,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, otelSpan{inner: span}
}

// StartDBSpan starts a client span for one SQLite query.
func StartDBSpan(ctx context.Context, queryName, operation string) (context.Context, Span) {
	queryName = strings.TrimSpace(queryName)
	if queryName == "" {
		queryName = "unknown"
	}
	attrs := []attribute.KeyValue{
		attribute.String("db.system.name", "sqlite"),
		attribute.String("db.query_name", queryName),
		attribute.String("db.operation", strings.TrimSpace(operation)),
	}
	if tool, ok := ToolFromContext(ctx); ok {
		attrs = append(attrs, attribute.String("trustguard.tool", tool))
	}

	ctx, span := otel.Tracer(dbTracerName).Start(ctx, "db."+queryName,
		trace.WithSpanKind(trace.SpanKindClient),
		trace.WithAttributes(attrs...),
	)
	return ctx, otelSpan{inner: span}
}

// WithRequestMetadata enriches context and current span with request metadata.
func WithRequestMetadata(ctx context.Context, requestID, route string) context.Context {
	requestID = strings.TrimSpace(requestID)
	route = strings.TrimSpace(route)
	if requestID != "" {
		ctx = context.WithValue(ctx, requestIDKey, requestID)
	}
	if route != "" {
		ctx = context.WithValue(ctx, routeKey, route)
	}
	setSpanRequestAttributes(ctx, requestID, route)
	return ctx
}

// WithTool tags the context with the tool (endpoint) name being served.
func WithTool(ctx context.Context, tool string) context.Context {
	tool = strings.TrimSpace(tool)
	if tool == "" {
		return ctx
	}
	if span := trace.SpanFromContext(ctx); span != nil {
		span.SetAttributes(attribute.String("trustguard.tool", tool))
	}
	return context.WithValue(ctx, toolKey, tool)
}

// RequestIDFromContext extracts request id.
func RequestIDFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(requestIDKey).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

// RouteFromContext extracts normalized route path.
func RouteFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(routeKey).(string)
	value = strings.TrimSpace(value)
	return value, ok && value != ""
}

// ToolFromContext extracts the tool name.
func ToolFromContext(ctx context.Context) (string, bool) {
	value, ok := ctx.Value(toolKey).(string)
	return value, ok && value != ""
}

func setSpanRequestAttributes(ctx context.Context, requestID, route string) {
	span := trace.SpanFromContext(ctx)
	if span == nil {
		return
	}
	attrs := make([]attribute.KeyValue, 0, 2)
	if requestID != "" {
		attrs = append(attrs, attribute.String("request.id", requestID))
	}
	if route != "" {
		attrs = append(attrs, attribute.String("http.route", route))
	}
	if len(attrs) > 0 {
		span.SetAttributes(attrs...)
	}
}

func (s otelSpan) End() {
	if s.inner == nil {
		return
	}
	s.inner.End()
}

func (s otelSpan) RecordError(err error) {
	if s.inner == nil || err == nil {
		return
	}
	s.inner.RecordError(err)
	s.inner.SetStatus(codes.Error, err.Error())
}

func (s otelSpan) SetStatusCode(code int) {
	if s.inner == nil || code == 0 {
		return
	}
	s.inner.SetAttributes(attribute.Int("http.response.status_code", code))
}
