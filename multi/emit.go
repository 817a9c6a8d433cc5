package multi

import (
	"context"

	"github.com/hupe1980/agentkernel/agent"
	"github.com/hupe1980/agentkernel/core"
)

// Emit appends msg to the shared channel. It changes neither current nor
// locals and always continues.
func Emit(msg any) Agent {
	return agent.New("", func(_ context.Context, env core.Env[State]) core.Result[State, any] {
		return core.Ok[State, any](env.State().Append(msg), nil)
	})
}

// Broadcast emits one Envelope per target, in target order, addressed from
// the current agent.
func Broadcast(msg any, targets ...string) Agent {
	return agent.New("", func(ctx context.Context, env core.Env[State]) core.Result[State, any] {
		from := env.State().current

		emits := make([]Agent, 0, len(targets))
		for _, to := range targets {
			emits = append(emits, Emit(Envelope{From: from, To: to, Payload: msg}))
		}

		return agent.Chain(emits...).Run(ctx, env)
	})
}
