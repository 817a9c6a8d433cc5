package trace

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/agentkernel/agent"
	"github.com/hupe1980/agentkernel/core"
)

func newOtelTracer(t *testing.T, optFns ...func(o *OtelOptions)) (*OtelTracer, *tracetest.SpanRecorder) {
	t.Helper()

	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	t.Cleanup(func() { _ = tp.Shutdown(context.Background()) })

	return NewOtelTracer(append([]func(o *OtelOptions){func(o *OtelOptions) {
		o.TracerProvider = tp
	}}, optFns...)...), sr
}

func attrMap(kvs []attribute.KeyValue) map[string]attribute.Value {
	m := make(map[string]attribute.Value, len(kvs))
	for _, kv := range kvs {
		m[string(kv.Key)] = kv.Value
	}
	return m
}

func TestOtelTracer_Nesting(t *testing.T) {
	tracer, sr := newOtelTracer(t)

	ctx, outer := tracer.Begin(context.Background(), "step", map[string]any{"agent": "root"})
	_, inner := tracer.Begin(ctx, "handoff", map[string]any{"from": "root", "to": "writer"})
	inner.End(map[string]any{"control": "continue"})
	outer.End(map[string]any{"control": "halt", "duration_ms": int64(3)})

	spans := sr.Ended()
	require.Len(t, spans, 2)

	handoff, step := spans[0], spans[1]
	assert.Equal(t, "handoff", handoff.Name())
	assert.Equal(t, "step", step.Name())
	assert.Equal(t, step.SpanContext().SpanID(), handoff.Parent().SpanID())
	assert.Equal(t, step.SpanContext().TraceID(), handoff.SpanContext().TraceID())

	attrs := attrMap(step.Attributes())
	assert.Equal(t, "root", attrs["agent"].AsString())
	assert.Equal(t, "halt", attrs["control"].AsString())
	assert.Equal(t, int64(3), attrs["duration_ms"].AsInt64())
	assert.Equal(t, codes.Ok, step.Status().Code)

	assert.Equal(t, "writer", attrMap(handoff.Attributes())["to"].AsString())
}

func TestOtelTracer_FailureStatus(t *testing.T) {
	tracer, sr := newOtelTracer(t)

	for _, kind := range []core.Kind{core.KindError, core.KindAbort} {
		_, span := tracer.Begin(context.Background(), "step", nil)
		span.End(map[string]any{"control": kind.String()})
	}

	spans := sr.Ended()
	require.Len(t, spans, 2)
	for _, s := range spans {
		assert.Equal(t, codes.Error, s.Status().Code)
	}
}

func TestOtelTracer_Options(t *testing.T) {
	tracer, sr := newOtelTracer(t, func(o *OtelOptions) {
		o.TracerName = "kernel-test"
		o.SpanNamePrefix = "agentkernel."
		o.Attributes = []attribute.KeyValue{attribute.String("service", "docs")}
	})

	_, span := tracer.Begin(context.Background(), "parallel", map[string]any{"branches": 2})
	span.End(nil)

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "agentkernel.parallel", spans[0].Name())
	assert.Equal(t, "kernel-test", spans[0].InstrumentationScope().Name)
	assert.Equal(t, codes.Unset, spans[0].Status().Code)

	attrs := attrMap(spans[0].Attributes())
	assert.Equal(t, "docs", attrs["service"].AsString())
	assert.Equal(t, int64(2), attrs["branches"].AsInt64())
}

func TestOtelTracer_NamedAgents(t *testing.T) {
	tracer, sr := newOtelTracer(t)

	inner := agent.Pure[int]("done").Named("inner")
	outer := agent.Then(agent.Identity[int](), inner).Named("outer")

	env := core.NewEnv(0, func(o *core.EnvOptions) { o.Tracer = tracer })
	res := outer.Run(context.Background(), env)
	require.True(t, res.Control.IsContinue())

	spans := sr.Ended()
	require.Len(t, spans, 2)
	assert.Equal(t, "inner", attrMap(spans[0].Attributes())["agent"].AsString())
	assert.Equal(t, "outer", attrMap(spans[1].Attributes())["agent"].AsString())
	assert.Equal(t, spans[1].SpanContext().SpanID(), spans[0].Parent().SpanID())
}

func TestConvertAttributes(t *testing.T) {
	attrs := convertAttributes(map[string]any{
		"b":    true,
		"err":  assert.AnError,
		"f":    1.5,
		"list": []string{"x", "y"},
		"nil":  nil,
		"obj":  struct{ N int }{N: 1},
	})

	keys := make([]string, 0, len(attrs))
	for _, kv := range attrs {
		keys = append(keys, string(kv.Key))
	}
	assert.Equal(t, []string{"b", "err", "f", "list", "obj"}, keys)

	m := attrMap(attrs)
	assert.True(t, m["b"].AsBool())
	assert.Equal(t, assert.AnError.Error(), m["err"].AsString())
	assert.Equal(t, []string{"x", "y"}, m["list"].AsStringSlice())
	assert.Equal(t, "{1}", m["obj"].AsString())
}
