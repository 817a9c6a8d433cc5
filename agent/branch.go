package agent

import (
	"context"

	"github.com/hupe1980/agentkernel/core"
)

// Branch runs a and routes its Continue result to exactly one of ifTrue or
// ifFalse depending on pred. The branch not taken is never invoked. A
// non-Continue result of a short-circuits before pred is evaluated.
func Branch[S, V, R any](a Agent[S, V], pred func(state S, value V) bool, ifTrue, ifFalse Agent[S, R]) Agent[S, R] {
	return New("", func(ctx context.Context, env core.Env[S]) core.Result[S, R] {
		res := a.Run(ctx, env)
		if !res.Control.IsContinue() {
			return core.Recast[R](res)
		}

		next := env.WithState(res.State)
		if pred(res.State, res.Value) {
			return ifTrue.Run(ctx, next)
		}
		return ifFalse.Run(ctx, next)
	})
}

// Guard runs a only when pred holds for the current state. Otherwise onFail
// runs on the unchanged environment and a is never invoked.
func (a Agent[S, V]) Guard(pred func(state S) bool, onFail Agent[S, V]) Agent[S, V] {
	return New("", func(ctx context.Context, env core.Env[S]) core.Result[S, V] {
		if !pred(env.State()) {
			return onFail.Run(ctx, env)
		}
		return a.Run(ctx, env)
	})
}
