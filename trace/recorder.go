package trace

import (
	"context"
	"maps"
	"sync"
	"time"

	"github.com/hupe1980/agentkernel/core"
)

// Evidence is one recorded execution event. IDs start at 1; a ParentID of 0
// marks a root event.
type Evidence struct {
	ID        int            `json:"id"`
	ParentID  int            `json:"parent_id,omitempty"`
	Action    string         `json:"action"`
	Info      map[string]any `json:"info,omitempty"`
	Timestamp time.Time      `json:"timestamp"`
	Duration  time.Duration  `json:"duration,omitempty"`
}

// Options configures a Recorder.
type Options struct {
	// Enabled turns recording on. Defaults to true.
	Enabled bool
	// Clock supplies timestamps. Defaults to time.Now.
	Clock func() time.Time
}

// Recorder is an in-memory core.Tracer. Parent/child relations follow the
// context passed to Begin, so concurrent branches of a run each nest under
// their own span. Recorder is safe for concurrent use.
type Recorder struct {
	opts   Options
	mu     sync.Mutex
	events []Evidence
	// gen is bumped by Clear; spans from an earlier generation end silently.
	gen uint64
}

var _ core.Tracer = (*Recorder)(nil)

// NewRecorder creates a recorder.
func NewRecorder(optFns ...func(o *Options)) *Recorder {
	opts := Options{
		Enabled: true,
		Clock:   time.Now,
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Clock == nil {
		opts.Clock = time.Now
	}

	return &Recorder{opts: opts}
}

type spanKey struct{}

// ParentID returns the ID of the span carried by ctx, or 0.
func ParentID(ctx context.Context) int {
	if id, ok := ctx.Value(spanKey{}).(int); ok {
		return id
	}
	return 0
}

type span struct {
	r     *Recorder
	id    int
	gen   uint64
	start time.Time
}

// End records the duration and merges info into the evidence.
func (s *span) End(info map[string]any) {
	if s == nil {
		return
	}
	s.r.end(s.id, s.gen, s.start, info)
}

type noopSpan struct{}

func (noopSpan) End(map[string]any) {}

// Begin records a new evidence entry as a child of the span in ctx.
func (r *Recorder) Begin(ctx context.Context, action string, info map[string]any) (context.Context, core.Span) {
	if !r.opts.Enabled {
		return ctx, noopSpan{}
	}

	now := r.opts.Clock()

	r.mu.Lock()
	id, gen := len(r.events)+1, r.gen
	r.events = append(r.events, Evidence{
		ID:        id,
		ParentID:  ParentID(ctx),
		Action:    action,
		Info:      maps.Clone(info),
		Timestamp: now,
	})
	r.mu.Unlock()

	return context.WithValue(ctx, spanKey{}, id), &span{r: r, id: id, gen: gen, start: now}
}

// Record adds a point event (no duration) under the span in ctx and returns
// its ID, or 0 when recording is disabled.
func (r *Recorder) Record(ctx context.Context, action string, info map[string]any) int {
	_, s := r.Begin(ctx, action, info)
	if sp, ok := s.(*span); ok {
		return sp.id
	}
	return 0
}

func (r *Recorder) end(id int, gen uint64, start time.Time, info map[string]any) {
	dur := r.opts.Clock().Sub(start)

	r.mu.Lock()
	defer r.mu.Unlock()

	if gen != r.gen || id < 1 || id > len(r.events) {
		return
	}

	ev := &r.events[id-1]
	ev.Duration = dur
	if len(info) > 0 {
		if ev.Info == nil {
			ev.Info = make(map[string]any, len(info))
		}
		maps.Copy(ev.Info, info)
	}
}

// Events returns a copy of all recorded evidence in recording order.
func (r *Recorder) Events() []Evidence {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]Evidence, len(r.events))
	for i, ev := range r.events {
		ev.Info = maps.Clone(ev.Info)
		out[i] = ev
	}

	return out
}

// Len returns the number of recorded events.
func (r *Recorder) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Tree maps each parent ID (0 for roots) to its children in recording order.
func (r *Recorder) Tree() map[int][]int {
	r.mu.Lock()
	defer r.mu.Unlock()

	tree := make(map[int][]int)
	for _, ev := range r.events {
		tree[ev.ParentID] = append(tree[ev.ParentID], ev.ID)
	}

	return tree
}

// FindAll returns the evidence whose action equals action.
func (r *Recorder) FindAll(action string) []Evidence {
	var found []Evidence
	for _, ev := range r.Events() {
		if ev.Action == action {
			found = append(found, ev)
		}
	}
	return found
}

// Children returns the direct children of id.
func (r *Recorder) Children(id int) []Evidence {
	var found []Evidence
	for _, ev := range r.Events() {
		if ev.ParentID == id {
			found = append(found, ev)
		}
	}
	return found
}

// Clear drops all events. Spans still open at that point are detached and
// their End is a no-op.
func (r *Recorder) Clear() {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = nil
	r.gen++
}
