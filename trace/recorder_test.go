package trace

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func fixedClock(step time.Duration) func() time.Time {
	var mu sync.Mutex
	now := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	return func() time.Time {
		mu.Lock()
		defer mu.Unlock()
		now = now.Add(step)
		return now
	}
}

func TestRecorder_Nesting(t *testing.T) {
	r := NewRecorder(func(o *Options) { o.Clock = fixedClock(time.Millisecond) })
	ctx := context.Background()

	ctx1, outer := r.Begin(ctx, "pipeline", map[string]any{"agent": "root"})
	ctx2, inner := r.Begin(ctx1, "step", nil)
	r.Record(ctx2, "note", map[string]any{"k": "v"})
	inner.End(map[string]any{"control": "continue"})
	outer.End(nil)

	events := r.Events()
	require.Len(t, events, 3)

	assert.Equal(t, 0, events[0].ParentID)
	assert.Equal(t, events[0].ID, events[1].ParentID)
	assert.Equal(t, events[1].ID, events[2].ParentID)
	assert.Equal(t, "continue", events[1].Info["control"])
	assert.Equal(t, 2*time.Millisecond, events[1].Duration)
	assert.Equal(t, 4*time.Millisecond, events[0].Duration)
	assert.Zero(t, events[2].Duration)

	assert.Equal(t, map[int][]int{0: {1}, 1: {2}, 2: {3}}, r.Tree())
}

func TestRecorder_ConcurrentBranches(t *testing.T) {
	r := NewRecorder()
	ctx, parallel := r.Begin(context.Background(), "parallel", nil)

	var wg sync.WaitGroup
	for i := 0; i < 10; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			_, s := r.Begin(ctx, "branch", map[string]any{"index": i})
			s.End(nil)
		}(i)
	}
	wg.Wait()
	parallel.End(nil)

	assert.Len(t, r.Children(1), 10)
	assert.Len(t, r.FindAll("branch"), 10)
	assert.Equal(t, 11, r.Len())
}

func TestRecorder_Disabled(t *testing.T) {
	r := NewRecorder(func(o *Options) { o.Enabled = false })

	ctx, s := r.Begin(context.Background(), "step", nil)
	s.End(nil)

	assert.Zero(t, r.Len())
	assert.Zero(t, ParentID(ctx))
	assert.Zero(t, r.Record(ctx, "x", nil))
}

func TestRecorder_EventsAreCopies(t *testing.T) {
	r := NewRecorder()
	info := map[string]any{"k": "v"}
	r.Record(context.Background(), "x", info)

	info["k"] = "changed"
	events := r.Events()
	events[0].Info["k"] = "mutated"

	assert.Equal(t, "v", r.Events()[0].Info["k"])
}

func TestRecorder_Clear(t *testing.T) {
	r := NewRecorder()
	r.Record(context.Background(), "x", nil)
	r.Clear()

	assert.Zero(t, r.Len())
	assert.Equal(t, 1, r.Record(context.Background(), "y", nil))
}

func TestRecorder_ClearDetachesOpenSpans(t *testing.T) {
	r := NewRecorder(func(o *Options) { o.Clock = fixedClock(time.Millisecond) })
	ctx := context.Background()

	_, stale := r.Begin(ctx, "before", nil)
	r.Clear()
	id := r.Record(ctx, "after", map[string]any{"k": "v"})

	stale.End(map[string]any{"control": "halt"})

	events := r.Events()
	require.Len(t, events, 1)
	assert.Equal(t, id, events[0].ID)
	assert.Equal(t, "after", events[0].Action)
	assert.Equal(t, map[string]any{"k": "v"}, events[0].Info)
	assert.Zero(t, events[0].Duration)
}
