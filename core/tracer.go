package core

import "context"

// Span is an open unit of evidence. End closes it and attaches final info.
type Span interface {
	End(info map[string]any)
}

// Tracer records evidence of agent execution. Begin opens a span as a child
// of the span carried by ctx (if any) and returns a context carrying the new
// span, so nested steps form a tree.
type Tracer interface {
	Begin(ctx context.Context, action string, info map[string]any) (context.Context, Span)
}

// NoopTracer discards all evidence.
type NoopTracer struct{}

type noopSpan struct{}

func (noopSpan) End(map[string]any) {}

// Begin returns ctx unchanged and a span that does nothing.
func (NoopTracer) Begin(ctx context.Context, _ string, _ map[string]any) (context.Context, Span) {
	return ctx, noopSpan{}
}
