package core

import "github.com/hupe1980/agentkernel/logging"

// EnvOptions configures a new environment.
type EnvOptions struct {
	// Registry resolves agent names for handoff and routing.
	Registry *Registry
	// Ports are the capability ports available to leaf agents.
	Ports Ports
	// Logger receives kernel diagnostics. Defaults to logging.NoOpLogger.
	Logger logging.Logger
	// Tracer records execution evidence. Defaults to NoopTracer.
	Tracer Tracer
	// RunID correlates log lines and evidence of one top-level run.
	RunID string
}

// Env is the per-invocation context handed to every agent: the current state
// plus the registry, ports, logger and tracer of the run. Env is a value and
// is never mutated; WithState and Rebind derive new environments that share
// everything except the state.
type Env[S any] struct {
	*loggerAdapter
	state    S
	registry *Registry
	ports    Ports
	tracer   Tracer
	runID    string
}

// NewEnv creates an environment for state.
func NewEnv[S any](state S, optFns ...func(o *EnvOptions)) Env[S] {
	opts := EnvOptions{
		Logger: logging.NoOpLogger{},
		Tracer: NoopTracer{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Tracer == nil {
		opts.Tracer = NoopTracer{}
	}

	return Env[S]{
		loggerAdapter: newLoggerAdapter(opts.Logger),
		state:         state,
		registry:      opts.Registry,
		ports:         opts.Ports,
		tracer:        opts.Tracer,
		runID:         opts.RunID,
	}
}

// State returns the current state.
func (e Env[S]) State() S { return e.state }

// Registry returns the agent registry; it may be nil (empty).
func (e Env[S]) Registry() *Registry { return e.registry }

// Ports returns the injected capability ports.
func (e Env[S]) Ports() Ports { return e.ports }

// Tracer returns the evidence tracer, never nil.
func (e Env[S]) Tracer() Tracer {
	if e.tracer == nil {
		return NoopTracer{}
	}
	return e.tracer
}

// RunID returns the identifier of the enclosing run.
func (e Env[S]) RunID() string { return e.runID }

// WithState returns a copy of the environment carrying state.
func (e Env[S]) WithState(state S) Env[S] {
	e.state = state
	return e
}

// Rebind returns an environment of a different state type that shares the
// registry, ports, logger, tracer and run ID of env.
func Rebind[T, S any](env Env[S], state T) Env[T] {
	return Env[T]{
		loggerAdapter: env.loggerAdapter,
		state:         state,
		registry:      env.registry,
		ports:         env.ports,
		tracer:        env.tracer,
		runID:         env.runID,
	}
}

// Erase is Rebind to the type-erased state used by registered runnables.
func Erase[S any](env Env[S]) Env[any] {
	return Rebind[any](env, any(env.state))
}
