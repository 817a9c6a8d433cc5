package agent

import (
	"context"

	"github.com/hupe1980/agentkernel/core"
)

// Then runs a and, if its control is Continue, runs next on the resulting
// state. Any other control short-circuits: next is never invoked and a's
// state and control are returned unchanged. Since V and R may differ, a's
// value cannot be carried across and the short-circuited result holds the
// zero R. Use the method form when both agents share a value type to keep
// the stopping result intact.
func Then[S, V, R any](a Agent[S, V], next Agent[S, R]) Agent[S, R] {
	return New("", func(ctx context.Context, env core.Env[S]) core.Result[S, R] {
		res := a.Run(ctx, env)
		if !res.Control.IsContinue() {
			return core.Recast[R](res)
		}
		return next.Run(ctx, env.WithState(res.State))
	})
}

// Bind is Then with a continuation that depends on a's value. Like Then, a
// short-circuited result holds the zero R.
func Bind[S, V, R any](a Agent[S, V], f func(V) Agent[S, R]) Agent[S, R] {
	return New("", func(ctx context.Context, env core.Env[S]) core.Result[S, R] {
		res := a.Run(ctx, env)
		if !res.Control.IsContinue() {
			return core.Recast[R](res)
		}
		return f(res.Value).Run(ctx, env.WithState(res.State))
	})
}

// Then is the same-type form of the package-level Then. A non-Continue
// result of a is returned exactly as produced, value included.
func (a Agent[S, V]) Then(next Agent[S, V]) Agent[S, V] {
	return New("", func(ctx context.Context, env core.Env[S]) core.Result[S, V] {
		res := a.Run(ctx, env)
		if !res.Control.IsContinue() {
			return res
		}
		return next.Run(ctx, env.WithState(res.State))
	})
}

// Chain composes agents left to right with the Then method. The result of the
// chain is the result of the last agent that ran. An empty chain yields the
// zero value.
func Chain[S, V any](agents ...Agent[S, V]) Agent[S, V] {
	if len(agents) == 0 {
		return Pure[S, V](*new(V))
	}

	chained := agents[0]
	for _, next := range agents[1:] {
		chained = chained.Then(next)
	}

	return chained
}

// Map transforms the value of a Continue result. Other controls pass through
// with their state and control unchanged.
func Map[S, V, R any](a Agent[S, V], f func(V) R) Agent[S, R] {
	return New("", func(ctx context.Context, env core.Env[S]) core.Result[S, R] {
		res := a.Run(ctx, env)
		if !res.Control.IsContinue() {
			return core.Recast[R](res)
		}
		return core.MapValue(res, f)
	})
}

// MapValue is the same-type form of Map. Non-Continue results, including their
// value, are returned exactly as produced.
func (a Agent[S, V]) MapValue(f func(V) V) Agent[S, V] {
	return New("", func(ctx context.Context, env core.Env[S]) core.Result[S, V] {
		res := a.Run(ctx, env)
		if !res.Control.IsContinue() {
			return res
		}
		return core.MapValue(res, f)
	})
}
