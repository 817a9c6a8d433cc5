package multi

import (
	"context"

	"github.com/hupe1980/agentkernel/agent"
	"github.com/hupe1980/agentkernel/core"
)

// Agent is an agent over multi-agent State with an untyped value, the shape
// of every primitive in this package.
type Agent = agent.Agent[State, any]

// Handoff transfers control to the registered agent named target. The
// target runs on its own sub-state (its zero value if it has none yet); the
// resulting sub-state is written back under target and current becomes
// target. The target's control is returned unchanged. An unknown target is
// reported as Error wrapping core.ErrAgentNotFound.
func Handoff(target string) Agent {
	return agent.New("", func(ctx context.Context, env core.Env[State]) core.Result[State, any] {
		return handoff(ctx, env, target)
	})
}

func handoff(ctx context.Context, env core.Env[State], target string) core.Result[State, any] {
	s := env.State()

	r, err := env.Registry().Lookup(target)
	if err != nil {
		return core.Fail[State, any](s, err)
	}

	sub, _ := s.Local(target)

	ctx, span := env.Tracer().Begin(ctx, "handoff", map[string]any{"from": s.current, "to": target})
	res := r.Invoke(ctx, core.Rebind[any](env, sub))
	span.End(map[string]any{"control": res.Control.Kind().String()})

	env.LogDebug("multi.handoff", "from", s.current, "to", target, "control", res.Control.String())

	return core.ResultOf(s.withLocal(target, res.State).handedTo(target), res.Value, res.Control)
}

// Route hands off to the agent named by selector. selector must be a pure
// function of the state; an unknown name surfaces as Error from the handoff.
func Route(selector func(State) string) Agent {
	return agent.New("", func(ctx context.Context, env core.Env[State]) core.Result[State, any] {
		return handoff(ctx, env, selector(env.State()))
	})
}

// Sequential hands off to each name in order and collects the values. It
// stops at the first non-Continue control and returns the values gathered so
// far, including the one of the stopping agent.
func Sequential(names ...string) agent.Agent[State, []any] {
	return agent.New("", func(ctx context.Context, env core.Env[State]) core.Result[State, []any] {
		return sequential(ctx, env, names, make([]any, 0, len(names)))
	})
}

func sequential(ctx context.Context, env core.Env[State], names []string, values []any) core.Result[State, []any] {
	if len(names) == 0 {
		return core.Ok(env.State(), values)
	}

	res := handoff(ctx, env, names[0])
	values = append(values, res.Value)
	if !res.Control.IsContinue() {
		return core.ResultOf(res.State, values, res.Control)
	}

	return sequential(ctx, env.WithState(res.State), names[1:], values)
}

// Bounded runs a only while the state has been through fewer than maxSteps
// handoffs, and otherwise reports Error wrapping core.ErrMaxSteps. It bounds
// pipelines that hand control back to earlier agents.
func Bounded[V any](a agent.Agent[State, V], maxSteps int) agent.Agent[State, V] {
	return a.Guard(func(s State) bool { return s.steps < maxSteps }, agent.Fail[State, V](core.ErrMaxSteps))
}
