package resilience

import (
	"context"

	"github.com/hupe1980/agentkernel/core"
)

// Model decorates a core.ModelPort.
type Model struct {
	next  core.ModelPort
	guard *guard[core.ModelResponse]
}

var _ core.ModelPort = (*Model)(nil)

// NewModel wraps next with the configured resilience mechanisms.
func NewModel(next core.ModelPort, optFns ...func(o *Options)) *Model {
	return &Model{
		next:  next,
		guard: newGuard[core.ModelResponse]("model", buildOptions(optFns)),
	}
}

// Complete implements core.ModelPort.
func (m *Model) Complete(ctx context.Context, req core.ModelRequest) (core.ModelResponse, error) {
	return m.guard.do(ctx, "complete", func(ctx context.Context) (core.ModelResponse, error) {
		return m.next.Complete(ctx, req)
	})
}

// BreakerState reports the circuit breaker state.
func (m *Model) BreakerState() string { return m.guard.breakerState() }

// Tools decorates a core.ToolPort. Only transport errors are retried; a
// ToolResult with Failed set is a successful call.
type Tools struct {
	next  core.ToolPort
	guard *guard[core.ToolResult]
}

var _ core.ToolPort = (*Tools)(nil)

// NewTools wraps next with the configured resilience mechanisms.
func NewTools(next core.ToolPort, optFns ...func(o *Options)) *Tools {
	return &Tools{
		next:  next,
		guard: newGuard[core.ToolResult]("tools", buildOptions(optFns)),
	}
}

// Call implements core.ToolPort.
func (t *Tools) Call(ctx context.Context, call core.ToolCall) (core.ToolResult, error) {
	return t.guard.do(ctx, call.Name, func(ctx context.Context) (core.ToolResult, error) {
		return t.next.Call(ctx, call)
	})
}

// BreakerState reports the circuit breaker state.
func (t *Tools) BreakerState() string { return t.guard.breakerState() }
