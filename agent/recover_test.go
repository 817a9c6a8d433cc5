package agent

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/internal/testutil"
)

func TestRecover_ConvertsErrorToContinue(t *testing.T) {
	boom := errors.New("boom")
	var seen core.Control

	a := Fail[int, string](boom).Recover(func(_ context.Context, failure core.Control, state int) core.Result[int, string] {
		seen = failure
		return core.Ok(state+1, "recovered")
	})

	res := run(a, 1)
	require.True(t, res.Control.IsContinue())
	assert.Equal(t, "recovered", res.Value)
	assert.Equal(t, 2, res.State)
	assert.Equal(t, core.KindError, seen.Kind())
	assert.Same(t, boom, seen.Reason())
}

func TestRecover_HandlesAbort(t *testing.T) {
	a := Abort[int, string](nil).Recover(func(_ context.Context, failure core.Control, state int) core.Result[int, string] {
		return core.Ok(state, failure.Kind().String())
	})

	assert.Equal(t, "abort", run(a, 0).Value)
}

func TestRecover_IgnoresNonFailures(t *testing.T) {
	for _, c := range []core.Control{core.Continue(), core.Retry(nil), core.Halt("h")} {
		p := &testutil.Counter{}
		handled := false

		a := New[int, string]("step", testutil.Returning[int](p, "v", c)).
			Recover(func(_ context.Context, _ core.Control, state int) core.Result[int, string] {
				handled = true
				return core.Ok(state, "handler")
			})

		res := run(a, 0)
		assert.False(t, handled, "handler must not run for %s", c)
		assert.Equal(t, c.Kind(), res.Control.Kind())
		assert.Equal(t, "v", res.Value)
	}
}

func TestRecover_KeepsLastKnownState(t *testing.T) {
	failAfterWrite := New[int, string]("write-then-fail", func(_ context.Context, env core.Env[int]) core.Result[int, string] {
		return core.Fail[int, string](env.State()+10, assert.AnError)
	})

	var got int
	a := failAfterWrite.Recover(func(_ context.Context, _ core.Control, state int) core.Result[int, string] {
		got = state
		return core.Ok(state, "")
	})

	run(a, 1)
	assert.Equal(t, 11, got)
}

func TestRecover_NilHandlerPanics(t *testing.T) {
	assert.Panics(t, func() { Pure[int](1).Recover(nil) })
}

func TestRecoverValue(t *testing.T) {
	a := Fail[int, string](errors.New("x")).RecoverValue(func(reason error) string {
		return "fallback for " + reason.Error()
	})

	res := run(a, 0)
	assert.True(t, res.Control.IsContinue())
	assert.Equal(t, "fallback for x", res.Value)

	aborted := Abort[int, string](nil).RecoverValue(func(error) string { return "nope" })
	assert.Equal(t, core.KindAbort, run(aborted, 0).Control.Kind())
}
