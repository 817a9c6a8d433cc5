package multi

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentkernel/agent"
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/internal/testutil"
)

// counter is a registered agent whose private state counts its invocations.
func counter(name string) agent.Agent[int, string] {
	return agent.Lift(name, func(_ context.Context, n int) (int, string, error) {
		return n + 1, fmt.Sprintf("%s#%d", name, n+1), nil
	})
}

func runMulti[V any](t *testing.T, a agent.Agent[State, V], reg *core.Registry, s State) core.Result[State, V] {
	t.Helper()
	env := testutil.NewEnvBuilder(s).Registry(reg).Build()
	return a.Run(context.Background(), env)
}

func TestHandoff_UpdatesLocalsAndCurrent(t *testing.T) {
	reg := core.MustRegistry(counter("A"))

	res := runMulti(t, agent.Chain(Handoff("A"), Handoff("A")), reg, NewState())

	require.True(t, res.Control.IsContinue())
	assert.Equal(t, "A#2", res.Value)
	assert.Equal(t, "A", res.State.Current())
	local, _ := res.State.Local("A")
	assert.Equal(t, 2, local)
	assert.Equal(t, 2, res.State.Steps())
}

func TestHandoff_Isolation(t *testing.T) {
	reg := core.MustRegistry(counter("A"), counter("B"))

	afterB := runMulti(t, Handoff("B"), reg, NewState())
	require.True(t, afterB.Control.IsContinue())
	bBefore, _ := afterB.State.Local("B")

	afterA := runMulti(t, Handoff("A"), reg, afterB.State)
	bAfter, _ := afterA.State.Local("B")

	assert.Equal(t, bBefore, bAfter)
	assert.Equal(t, "A", afterA.State.Current())
}

func TestHandoff_PropagatesControlUnchanged(t *testing.T) {
	for _, c := range []core.Control{core.Retry(nil), core.Halt("h"), core.Error(assert.AnError), core.Abort(nil)} {
		p := &testutil.Counter{}
		target := agent.New[int, string]("T", testutil.Returning[int](p, "out", c))
		reg := core.MustRegistry(target)

		res := runMulti(t, Handoff("T"), reg, NewState())

		assert.Equal(t, c, res.Control)
		assert.Equal(t, "T", res.State.Current())
	}
}

func TestHandoff_UnknownTarget(t *testing.T) {
	res := runMulti(t, Handoff("ghost"), core.MustRegistry(), NewState("keep"))

	assert.Equal(t, core.KindError, res.Control.Kind())
	assert.ErrorIs(t, res.Err(), core.ErrAgentNotFound)
	assert.Equal(t, []any{"keep"}, res.State.Shared())
	assert.Empty(t, res.State.Current())
}

func TestHandoff_WrongSubStateType(t *testing.T) {
	reg := core.MustRegistry(counter("A"))
	s := NewState().withLocal("A", "not an int")

	res := runMulti(t, Handoff("A"), reg, s)

	assert.ErrorIs(t, res.Err(), core.ErrStateType)
}

func TestRoute(t *testing.T) {
	reg := core.MustRegistry(counter("short"), counter("long"))
	selector := func(s State) string {
		if s.SharedLen() > 1 {
			return "long"
		}
		return "short"
	}

	res := runMulti(t, Route(selector), reg, NewState("a", "b"))
	assert.Equal(t, "long", res.State.Current())

	res = runMulti(t, Route(func(State) string { return "nowhere" }), reg, NewState())
	assert.ErrorIs(t, res.Err(), core.ErrAgentNotFound)
}

func TestEmit_AppendOnly(t *testing.T) {
	start := NewState("m0").withLocal("A", 1).handedTo("A")

	res := runMulti(t, agent.Chain(Emit("m1"), Emit("m2")), nil, start)

	require.True(t, res.Control.IsContinue())
	assert.Equal(t, []any{"m0", "m1", "m2"}, res.State.Shared())
	assert.Equal(t, "A", res.State.Current())
	assert.Equal(t, start.Locals(), res.State.Locals())
	assert.Equal(t, []any{"m0"}, start.Shared())
}

func TestBroadcast(t *testing.T) {
	start := NewState().handedTo("planner")

	res := runMulti(t, Broadcast("go", "A", "B", "C"), nil, start)

	require.True(t, res.Control.IsContinue())
	assert.Equal(t, []any{
		Envelope{From: "planner", To: "A", Payload: "go"},
		Envelope{From: "planner", To: "B", Payload: "go"},
		Envelope{From: "planner", To: "C", Payload: "go"},
	}, res.State.Shared())
}

func TestSequential_AllContinue(t *testing.T) {
	reg := core.MustRegistry(counter("A"), counter("B"), counter("C"))

	res := runMulti(t, Sequential("A", "B", "C"), reg, NewState())

	require.True(t, res.Control.IsContinue())
	assert.Equal(t, []any{"A#1", "B#1", "C#1"}, res.Value)
	assert.Equal(t, "C", res.State.Current())
}

func TestSequential_AbortStopsPipeline(t *testing.T) {
	pa, pb, pc := &testutil.Counter{}, &testutil.Counter{}, &testutil.Counter{}
	reg := core.MustRegistry(
		agent.New[int, string]("A", testutil.Returning[int](pa, "a", core.Continue())),
		agent.New[int, string]("B", testutil.Returning[int](pb, "b", core.Abort(nil))),
		agent.New[int, string]("C", testutil.Returning[int](pc, "c", core.Continue())),
	)

	res := runMulti(t, Sequential("A", "B", "C"), reg, NewState())

	assert.Equal(t, core.KindAbort, res.Control.Kind())
	assert.Equal(t, []any{"a", "b"}, res.Value)
	assert.Zero(t, pc.Calls())
	assert.Equal(t, "B", res.State.Current())
}

func TestSequential_Empty(t *testing.T) {
	res := runMulti(t, Sequential(), nil, NewState())

	assert.True(t, res.Control.IsContinue())
	assert.Empty(t, res.Value)
}

func TestBounded(t *testing.T) {
	reg := core.MustRegistry(counter("A"), counter("B"))

	// A and B hand control back and forth; the bound stops the cycle.
	pingPong := agent.Repeat(Bounded(agent.Chain(Handoff("A"), Handoff("B")), 4), 100)

	res := runMulti(t, pingPong, reg, NewState())

	assert.Equal(t, core.KindError, res.Control.Kind())
	assert.ErrorIs(t, res.Err(), core.ErrMaxSteps)
	assert.Equal(t, 4, res.State.Steps())
}
