package multi

import (
	"context"
	"sync"
	"time"

	"github.com/hupe1980/agentkernel/agent"
	"github.com/hupe1980/agentkernel/core"
)

// MergeFunc reconciles the states produced by concurrent branches, given in
// submission order. It must be deterministic and associative over the sets
// it is used with.
type MergeFunc func(states []State) State

// Concurrent runs every agent against the same input environment, each in
// its own goroutine, and waits for all of them. No branch is cancelled
// because a sibling failed. The result carries merge applied to the branch
// states, the branch values in submission order, and core.Merge of the
// branch controls (submission order breaks ties). A branch that panics is
// reported as Error(*core.PanicError).
func Concurrent[V any](merge MergeFunc, agents ...agent.Agent[State, V]) agent.Agent[State, []V] {
	if merge == nil {
		panic("multi: nil merge function")
	}

	return agent.New("", func(ctx context.Context, env core.Env[State]) core.Result[State, []V] {
		input := env.State()
		if len(agents) == 0 {
			return core.Ok(input, []V{})
		}

		base := input.forked()
		branchEnv := env.WithState(base)

		ctx, span := env.Tracer().Begin(ctx, "parallel", map[string]any{"branches": len(agents)})
		start := time.Now()

		results := make([]core.Result[State, V], len(agents))

		var wg sync.WaitGroup

		for i, a := range agents {
			wg.Add(1)

			go func(i int, a agent.Agent[State, V]) {
				defer wg.Done()
				results[i] = runBranch(ctx, branchEnv, a, i)
			}(i, a)
		}

		wg.Wait()

		states := make([]State, len(results))
		values := make([]V, len(results))
		controls := make([]core.Control, len(results))

		for i, r := range results {
			states[i] = r.State
			values[i] = r.Value
			controls[i] = r.Control
		}

		merged := merge(states)
		merged.fork = input.fork
		control := core.Merge(controls...)

		span.End(map[string]any{"control": control.Kind().String()})
		env.LogDebug("multi.concurrent", "branches", len(agents), "control", control.String(), "duration", time.Since(start))

		return core.ResultOf(merged, values, control)
	})
}

func runBranch[V any](ctx context.Context, env core.Env[State], a agent.Agent[State, V], index int) (res core.Result[State, V]) {
	ctx, span := env.Tracer().Begin(ctx, "branch", map[string]any{"index": index, "agent": a.Name()})

	defer func() {
		if r := recover(); r != nil {
			res = core.Fail[State, V](env.State(), &core.PanicError{Agent: a.Name(), Value: r})
			env.LogError("multi.branch.panic", "index", index, "agent", a.Name(), "panic", r)
		}
		span.End(map[string]any{"control": res.Control.Kind().String()})
	}()

	return a.Run(ctx, env)
}
