package trace

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	oteltrace "go.opentelemetry.io/otel/trace"

	"github.com/hupe1980/agentkernel/core"
)

// DefaultTracerName is the instrumentation scope used by NewOtelTracer.
const DefaultTracerName = "github.com/hupe1980/agentkernel"

// OtelOptions configures an OtelTracer.
type OtelOptions struct {
	// TracerProvider supplies the tracer. Defaults to the global provider.
	TracerProvider oteltrace.TracerProvider
	// TracerName is the instrumentation scope name.
	TracerName string
	// SpanNamePrefix is prepended to every span name.
	SpanNamePrefix string
	// Attributes are added to every span.
	Attributes []attribute.KeyValue
}

// OtelTracer is a core.Tracer backed by OpenTelemetry. Span nesting follows
// the otel span carried by ctx, so kernel spans join any trace the caller
// has already started.
type OtelTracer struct {
	tracer oteltrace.Tracer
	opts   OtelOptions
}

var _ core.Tracer = (*OtelTracer)(nil)

// NewOtelTracer creates a tracer on the configured provider.
func NewOtelTracer(optFns ...func(o *OtelOptions)) *OtelTracer {
	opts := OtelOptions{
		TracerName: DefaultTracerName,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.TracerProvider == nil {
		opts.TracerProvider = otel.GetTracerProvider()
	}

	if opts.TracerName == "" {
		opts.TracerName = DefaultTracerName
	}

	return &OtelTracer{
		tracer: opts.TracerProvider.Tracer(opts.TracerName),
		opts:   opts,
	}
}

// Begin starts an internal span named after action with info as attributes.
func (t *OtelTracer) Begin(ctx context.Context, action string, info map[string]any) (context.Context, core.Span) {
	attrs := append(append([]attribute.KeyValue(nil), t.opts.Attributes...), convertAttributes(info)...)

	ctx, span := t.tracer.Start(ctx, t.opts.SpanNamePrefix+action,
		oteltrace.WithSpanKind(oteltrace.SpanKindInternal),
		oteltrace.WithAttributes(attrs...),
	)

	return ctx, &otelSpan{span: span}
}

type otelSpan struct {
	span oteltrace.Span
}

// End attaches info and ends the span. An error or abort control marks the
// span status as failed.
func (s *otelSpan) End(info map[string]any) {
	if len(info) > 0 {
		s.span.SetAttributes(convertAttributes(info)...)
	}

	switch control, _ := info["control"].(string); control {
	case core.KindError.String(), core.KindAbort.String():
		s.span.SetStatus(codes.Error, control)
	case "":
	default:
		s.span.SetStatus(codes.Ok, "")
	}

	s.span.End()
}

// convertAttributes maps evidence info to otel attributes in key order.
// Values without a native attribute type are formatted with fmt.
func convertAttributes(info map[string]any) []attribute.KeyValue {
	keys := make([]string, 0, len(info))
	for k := range info {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	attrs := make([]attribute.KeyValue, 0, len(info))
	for _, k := range keys {
		switch v := info[k].(type) {
		case string:
			attrs = append(attrs, attribute.String(k, v))
		case int:
			attrs = append(attrs, attribute.Int(k, v))
		case int64:
			attrs = append(attrs, attribute.Int64(k, v))
		case float64:
			attrs = append(attrs, attribute.Float64(k, v))
		case bool:
			attrs = append(attrs, attribute.Bool(k, v))
		case []string:
			attrs = append(attrs, attribute.StringSlice(k, v))
		case time.Duration:
			attrs = append(attrs, attribute.Int64(k, v.Milliseconds()))
		case error:
			attrs = append(attrs, attribute.String(k, v.Error()))
		case nil:
		default:
			attrs = append(attrs, attribute.String(k, fmt.Sprint(v)))
		}
	}

	return attrs
}
