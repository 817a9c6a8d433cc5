package runner

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/hupe1980/agentkernel/agent"
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/resilience"
)

// ErrRunNotFound is returned by Cancel for unknown or finished runs.
var ErrRunNotFound = errors.New("run not found")

// Options holds dependency and configuration overrides passed to New.
type Options struct {
	// Ports are injected into every run's environment.
	Ports core.Ports
	// Tracer records evidence for every run. Defaults to core.NoopTracer.
	Tracer core.Tracer
	// Logger receives run diagnostics. A *logging.KernelLogger is scoped to
	// the run ID and reports each run through LogPipeline.
	Logger logging.Logger
	// MaxModelCalls caps model calls per run; zero is unlimited.
	MaxModelCalls int
	// MaxConcurrentRuns limits runs executing at once; zero is unlimited.
	MaxConcurrentRuns int
	// RunTimeout bounds each run; zero means no deadline.
	RunTimeout time.Duration
}

// RunInfo describes a finished run.
type RunInfo struct {
	ID        string
	Agent     string
	StartedAt time.Time
	Duration  time.Duration
	Control   core.Kind
}

// Runner executes agents against a shared registry and port set. Every run
// gets its own environment and run ID. Methods are safe for concurrent use.
type Runner struct {
	registry      *core.Registry
	ports         core.Ports
	tracer        core.Tracer
	logger        logging.Logger
	maxModelCalls int
	runTimeout    time.Duration
	slots         chan struct{}

	activeRuns map[string]context.CancelFunc
	mu         sync.RWMutex
}

// New constructs a Runner. A nil registry is treated as empty.
func New(registry *core.Registry, optFns ...func(o *Options)) *Runner {
	opts := Options{
		Tracer: core.NoopTracer{},
		Logger: logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if registry == nil {
		registry = core.MustRegistry()
	}

	if opts.Tracer == nil {
		opts.Tracer = core.NoopTracer{}
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	var slots chan struct{}
	if opts.MaxConcurrentRuns > 0 {
		slots = make(chan struct{}, opts.MaxConcurrentRuns)
	}

	return &Runner{
		registry:      registry,
		ports:         opts.Ports,
		tracer:        opts.Tracer,
		logger:        opts.Logger,
		maxModelCalls: opts.MaxModelCalls,
		runTimeout:    opts.RunTimeout,
		slots:         slots,
		activeRuns:    make(map[string]context.CancelFunc),
	}
}

// Registry returns the registry shared by all runs.
func (r *Runner) Registry() *core.Registry { return r.registry }

// Ports returns the ports injected into every run.
func (r *Runner) Ports() core.Ports { return r.ports }

// Tracer returns the tracer shared by all runs.
func (r *Runner) Tracer() core.Tracer { return r.tracer }

// Logger returns the runner's logger.
func (r *Runner) Logger() logging.Logger { return r.logger }

// Run executes a against state in a fresh environment and returns its result
// together with run metadata. A context that is already done, or that ends
// while waiting for a run slot, yields an Error result carrying the context
// error without running the agent.
func Run[S, V any](ctx context.Context, r *Runner, a agent.Agent[S, V], state S) (core.Result[S, V], RunInfo) {
	return execute[S, V](ctx, r, a.Name(), a.Run, state)
}

// RunNamed looks up a registered agent and runs it over an untyped state.
func (r *Runner) RunNamed(ctx context.Context, name string, state any) (core.Result[any, any], RunInfo, error) {
	target, err := r.registry.Lookup(name)
	if err != nil {
		return core.Fail[any, any](state, err), RunInfo{Agent: name}, err
	}

	res, info := execute[any, any](ctx, r, name, target.Invoke, state)

	return res, info, nil
}

func execute[S, V any](ctx context.Context, r *Runner, name string, step agent.StepFunc[S, V], state S) (core.Result[S, V], RunInfo) {
	id := uuid.NewString()
	info := RunInfo{ID: id, Agent: name, StartedAt: time.Now()}

	ctx, release, err := r.begin(ctx, id)
	if err != nil {
		res := core.Fail[S, V](state, err)
		info.Control = res.Control.Kind()
		r.report(id, info, res.Control)
		return res, info
	}
	defer release()

	env := core.NewEnv(state, func(o *core.EnvOptions) {
		o.Registry = r.registry
		o.Ports = r.runPorts()
		o.Logger = r.runLogger(id)
		o.Tracer = r.tracer
		o.RunID = id
	})

	res := step(ctx, env)

	info.Duration = time.Since(info.StartedAt)
	info.Control = res.Control.Kind()
	r.report(id, info, res.Control)

	return res, info
}

// Cancel cancels an active run by ID.
func (r *Runner) Cancel(runID string) error {
	r.mu.RLock()
	cancel, exists := r.activeRuns[runID]
	r.mu.RUnlock()

	if !exists {
		return fmt.Errorf("%w: %s", ErrRunNotFound, runID)
	}

	cancel()

	return nil
}

// Active returns the IDs of runs in progress, sorted.
func (r *Runner) Active() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	ids := make([]string, 0, len(r.activeRuns))
	for id := range r.activeRuns {
		ids = append(ids, id)
	}

	sort.Strings(ids)

	return ids
}

// begin registers the run, applies the timeout and takes a concurrency slot.
func (r *Runner) begin(ctx context.Context, id string) (context.Context, func(), error) {
	if err := ctx.Err(); err != nil {
		return ctx, nil, err
	}

	var cancel context.CancelFunc
	if r.runTimeout > 0 {
		ctx, cancel = context.WithTimeout(ctx, r.runTimeout)
	} else {
		ctx, cancel = context.WithCancel(ctx)
	}

	if r.slots != nil {
		select {
		case r.slots <- struct{}{}:
		case <-ctx.Done():
			cancel()
			return ctx, nil, ctx.Err()
		}
	}

	r.mu.Lock()
	r.activeRuns[id] = cancel
	r.mu.Unlock()

	release := func() {
		r.mu.Lock()
		delete(r.activeRuns, id)
		r.mu.Unlock()

		if r.slots != nil {
			<-r.slots
		}

		cancel()
	}

	return ctx, release, nil
}

// runPorts applies the per-run model call budget.
func (r *Runner) runPorts() core.Ports {
	ports := r.ports
	if r.maxModelCalls > 0 && ports.Model != nil {
		budget := resilience.NewBudget(r.maxModelCalls)
		ports.Model = resilience.NewModel(ports.Model, func(o *resilience.Options) {
			o.RetryMaxAttempts = 1
			o.BreakerThreshold = 0
			o.Budget = budget
			o.Logger = r.logger
		})
	}
	return ports
}

func (r *Runner) runLogger(id string) logging.Logger {
	if kl, ok := r.logger.(*logging.KernelLogger); ok {
		return kl.WithRun(id)
	}
	return r.logger
}

func (r *Runner) report(id string, info RunInfo, control core.Control) {
	if kl, ok := r.logger.(*logging.KernelLogger); ok {
		kl.WithRun(id).LogPipeline(info.Agent, control.String(), info.Duration, control.IsFailure(), control.Err())
		return
	}

	args := []any{"run_id", id, "agent", info.Agent, "control", control.String(), "duration", info.Duration}
	if control.IsFailure() {
		r.logger.Error("runner.run.failed", append(args, "error", control.Err())...)
		return
	}
	r.logger.Info("runner.run.completed", args...)
}
