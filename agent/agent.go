package agent

import (
	"context"
	"fmt"
	"time"

	"github.com/hupe1980/agentkernel/core"
)

// StepFunc is the state transformation wrapped by an Agent. It receives the
// environment of the current invocation and must report every expected
// failure through the returned Result's Control, never by panicking.
type StepFunc[S, V any] func(ctx context.Context, env core.Env[S]) core.Result[S, V]

// Agent is an immutable, optionally named handle around a StepFunc. Agents
// own no mutable data and can be invoked any number of times, including
// concurrently. Combinators derive new agents and never modify their inputs.
type Agent[S, V any] struct {
	name string
	step StepFunc[S, V]
}

var _ core.Runnable = Agent[any, any]{}

// New creates an agent from a step function. An empty name makes the agent
// anonymous; anonymous agents cannot be registered.
func New[S, V any](name string, step StepFunc[S, V]) Agent[S, V] {
	if step == nil {
		panic("agent: nil step function")
	}
	return Agent[S, V]{name: name, step: step}
}

// Name returns the agent name, or "" for anonymous agents.
func (a Agent[S, V]) Name() string { return a.name }

// Named returns a copy of the agent carrying name.
func (a Agent[S, V]) Named(name string) Agent[S, V] {
	a.name = name
	return a
}

// Run invokes the wrapped step exactly once. Named agents additionally record
// a "step" span on the environment tracer and a debug log line.
func (a Agent[S, V]) Run(ctx context.Context, env core.Env[S]) core.Result[S, V] {
	if a.step == nil {
		panic("agent: Run called on zero Agent")
	}

	if a.name == "" {
		return a.step(ctx, env)
	}

	ctx, span := env.Tracer().Begin(ctx, "step", map[string]any{"agent": a.name})
	start := time.Now()

	res := a.step(ctx, env)

	dur := time.Since(start)
	span.End(map[string]any{
		"control":     res.Control.Kind().String(),
		"duration_ms": dur.Milliseconds(),
	})
	env.LogDebug("agent.step", "agent", a.name, "control", res.Control.String(), "duration", dur)

	return res
}

// Invoke implements core.Runnable. A nil state is replaced by the zero value
// of S; a state of any other type yields Error(core.ErrStateType).
func (a Agent[S, V]) Invoke(ctx context.Context, env core.Env[any]) core.Result[any, any] {
	var state S
	if raw := env.State(); raw != nil {
		s, ok := raw.(S)
		if !ok {
			err := fmt.Errorf("%w: agent %q expects %T, got %T", core.ErrStateType, a.name, state, raw)
			return core.Fail[any, any](raw, err)
		}
		state = s
	}

	res := a.Run(ctx, core.Rebind(env, state))

	return core.ResultOf[any, any](res.State, res.Value, res.Control)
}

// Pure returns an agent that leaves the state untouched and yields value.
func Pure[S, V any](value V) Agent[S, V] {
	return New("", func(_ context.Context, env core.Env[S]) core.Result[S, V] {
		return core.Ok(env.State(), value)
	})
}

// Identity returns an agent that yields the current state as its value. It is
// the neutral element of Then.
func Identity[S any]() Agent[S, S] {
	return New("", func(_ context.Context, env core.Env[S]) core.Result[S, S] {
		return core.Ok(env.State(), env.State())
	})
}

// Lift adapts a plain function. A non-nil error becomes an Error control and
// the input state is kept.
func Lift[S, V any](name string, fn func(ctx context.Context, state S) (S, V, error)) Agent[S, V] {
	return New(name, func(ctx context.Context, env core.Env[S]) core.Result[S, V] {
		next, value, err := fn(ctx, env.State())
		if err != nil {
			return core.Fail[S, V](env.State(), err)
		}
		return core.Ok(next, value)
	})
}

// Halt returns an agent that terminates the composition with value.
func Halt[S, V any](value V) Agent[S, V] {
	return New("", func(_ context.Context, env core.Env[S]) core.Result[S, V] {
		return core.ResultOf(env.State(), value, core.Halt(value))
	})
}

// Fail returns an agent that always reports Error(err).
func Fail[S, V any](err error) Agent[S, V] {
	return New("", func(_ context.Context, env core.Env[S]) core.Result[S, V] {
		return core.Fail[S, V](env.State(), err)
	})
}

// Abort returns an agent that always reports Abort(err).
func Abort[S, V any](err error) Agent[S, V] {
	return New("", func(_ context.Context, env core.Env[S]) core.Result[S, V] {
		var zero V
		return core.ResultOf(env.State(), zero, core.Abort(err))
	})
}
