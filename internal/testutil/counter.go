package testutil

import (
	"context"
	"sync"
	"sync/atomic"

	"github.com/hupe1980/agentkernel/core"
)

// Counter counts invocations of the step functions it builds and remembers the
// states they were invoked with. It is safe for concurrent use.
type Counter struct {
	calls  atomic.Int64
	mu     sync.Mutex
	inputs []any
}

// Calls returns how often a step built from this counter ran.
func (p *Counter) Calls() int { return int(p.calls.Load()) }

// Inputs returns the states seen by the counter, in invocation order.
func (p *Counter) Inputs() []any {
	p.mu.Lock()
	defer p.mu.Unlock()
	return append([]any(nil), p.inputs...)
}

func (p *Counter) observe(state any) {
	p.calls.Add(1)
	p.mu.Lock()
	p.inputs = append(p.inputs, state)
	p.mu.Unlock()
}

// Step wraps fn as a step function that is counted by the counter.
func Step[S, V any](p *Counter, fn func(state S) core.Result[S, V]) func(context.Context, core.Env[S]) core.Result[S, V] {
	return func(_ context.Context, env core.Env[S]) core.Result[S, V] {
		p.observe(env.State())
		return fn(env.State())
	}
}

// Returning builds a counted step that keeps the state and yields value with
// the given control.
func Returning[S, V any](p *Counter, value V, control core.Control) func(context.Context, core.Env[S]) core.Result[S, V] {
	return Step(p, func(state S) core.Result[S, V] {
		return core.ResultOf(state, value, control)
	})
}

// Sequence builds a counted step that returns the given controls one per
// call and repeats the last one once exhausted. The value is the 1-based call
// number.
func Sequence[S any](p *Counter, controls ...core.Control) func(context.Context, core.Env[S]) core.Result[S, int] {
	return func(_ context.Context, env core.Env[S]) core.Result[S, int] {
		p.observe(env.State())
		n := p.Calls()
		i := n - 1
		if i >= len(controls) {
			i = len(controls) - 1
		}
		return core.ResultOf(env.State(), n, controls[i])
	}
}
