package agent

import (
	"context"
	"fmt"

	"github.com/hupe1980/agentkernel/core"
)

// RetryPolicy bounds a retry boundary. There is no default: MaxAttempts must
// be chosen by the caller.
type RetryPolicy struct {
	// MaxAttempts is the total number of runs, including the first. Required.
	MaxAttempts int
	// ShouldRetry, if set, may veto a retry. attempt is 1-based and counts the
	// run that produced signal.
	ShouldRetry func(attempt int, signal core.Control) bool
	// FailOnExhaustion converts a Retry that is still pending after the last
	// attempt into Error(core.ErrRetryExhausted). By default the last result is
	// returned unchanged.
	FailOnExhaustion bool
}

// Retry wraps a in a retry boundary. When a reports Retry the boundary runs it
// again: with the boundary's input state for core.RetryClean, or with the
// state carried by the retrying result for core.RetryDirty. Every other
// control ends the boundary. Re-entry is bounded recursion, not a loop, and
// the kernel applies no backoff.
func Retry[S, V any](a Agent[S, V], policy RetryPolicy) Agent[S, V] {
	if policy.MaxAttempts <= 0 {
		panic("agent: RetryPolicy.MaxAttempts must be positive")
	}

	return New("", func(ctx context.Context, env core.Env[S]) core.Result[S, V] {
		return attempt(ctx, a, policy, env, env.State(), 1)
	})
}

func attempt[S, V any](ctx context.Context, a Agent[S, V], policy RetryPolicy, env core.Env[S], input S, n int) core.Result[S, V] {
	res := a.Run(ctx, env)
	if res.Control.Kind() != core.KindRetry {
		return res
	}

	if n >= policy.MaxAttempts {
		if policy.FailOnExhaustion {
			err := fmt.Errorf("%w after %d attempts: %v", core.ErrRetryExhausted, n, res.Control.Reason())
			return core.Fail[S, V](res.State, err)
		}
		return res
	}

	if policy.ShouldRetry != nil && !policy.ShouldRetry(n, res.Control) {
		return res
	}

	if err := ctx.Err(); err != nil {
		return core.Fail[S, V](res.State, err)
	}

	env.LogDebug("agent.retry", "agent", a.name, "attempt", n+1, "reason", res.Control.String())

	if res.Control.Mode() == core.RetryDirty {
		return attempt(ctx, a, policy, env.WithState(res.State), input, n+1)
	}
	return attempt(ctx, a, policy, env.WithState(input), input, n+1)
}

// Repeat runs a up to maxSteps times, threading the state of each Continue
// result into the next run. It stops early on any other control and otherwise
// returns the result of the last run.
func Repeat[S, V any](a Agent[S, V], maxSteps int) Agent[S, V] {
	if maxSteps <= 0 {
		panic("agent: Repeat maxSteps must be positive")
	}

	return New("", func(ctx context.Context, env core.Env[S]) core.Result[S, V] {
		return repeatStep(ctx, a, env, maxSteps)
	})
}

func repeatStep[S, V any](ctx context.Context, a Agent[S, V], env core.Env[S], remaining int) core.Result[S, V] {
	res := a.Run(ctx, env)
	if remaining <= 1 || !res.Control.IsContinue() {
		return res
	}
	return repeatStep(ctx, a, env.WithState(res.State), remaining-1)
}
