package agent

import (
	"context"

	"github.com/hupe1980/agentkernel/core"
)

// RecoverFunc builds a replacement result from a failure. failure is the
// Error or Abort control that was raised and state is the last known state.
type RecoverFunc[S, V any] func(ctx context.Context, failure core.Control, state S) core.Result[S, V]

// Recover runs a and hands Error and Abort outcomes to handler, whose result
// replaces a's. Every other control is returned untouched. Recover is the only
// combinator that may turn a failure into Continue.
func (a Agent[S, V]) Recover(handler RecoverFunc[S, V]) Agent[S, V] {
	if handler == nil {
		panic("agent: nil recover handler")
	}

	return New("", func(ctx context.Context, env core.Env[S]) core.Result[S, V] {
		res := a.Run(ctx, env)
		if !res.Control.IsFailure() {
			return res
		}

		env.LogDebug("agent.recover", "agent", a.name, "failure", res.Control.String())

		return handler(ctx, res.Control, res.State)
	})
}

// RecoverValue recovers Error outcomes (not Abort) with a value computed from
// the failure, continuing with the last known state.
func (a Agent[S, V]) RecoverValue(fn func(reason error) V) Agent[S, V] {
	return a.Recover(func(_ context.Context, failure core.Control, state S) core.Result[S, V] {
		if failure.Kind() == core.KindAbort {
			var zero V
			return core.ResultOf(state, zero, failure)
		}
		return core.Ok(state, fn(failure.Reason()))
	})
}
