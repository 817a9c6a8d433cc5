package testutil

import (
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/logging"
)

// EnvBuilder helps construct environments with fluent chaining for tests.
// Example:
//
//	env := NewEnvBuilder(state).Registry(reg).Model(port).Build()
type EnvBuilder[S any] struct {
	state S
	opts  core.EnvOptions
}

// NewEnvBuilder creates a new builder for an environment holding state.
func NewEnvBuilder[S any](state S) *EnvBuilder[S] {
	return &EnvBuilder[S]{state: state, opts: core.EnvOptions{Logger: logging.NoOpLogger{}}}
}

// Registry sets the agent registry (chainable).
func (b *EnvBuilder[S]) Registry(r *core.Registry) *EnvBuilder[S] {
	b.opts.Registry = r
	return b
}

// Model sets the model port (chainable).
func (b *EnvBuilder[S]) Model(p core.ModelPort) *EnvBuilder[S] {
	b.opts.Ports.Model = p
	return b
}

// Tools sets the tool port (chainable).
func (b *EnvBuilder[S]) Tools(p core.ToolPort) *EnvBuilder[S] {
	b.opts.Ports.Tools = p
	return b
}

// Memory sets the memory port (chainable).
func (b *EnvBuilder[S]) Memory(p core.MemoryPort) *EnvBuilder[S] {
	b.opts.Ports.Memory = p
	return b
}

// Tracer sets the evidence tracer (chainable).
func (b *EnvBuilder[S]) Tracer(t core.Tracer) *EnvBuilder[S] {
	b.opts.Tracer = t
	return b
}

// Logger sets the logger (chainable).
func (b *EnvBuilder[S]) Logger(l logging.Logger) *EnvBuilder[S] {
	b.opts.Logger = l
	return b
}

// Build materializes the environment.
func (b *EnvBuilder[S]) Build() core.Env[S] {
	opts := b.opts
	return core.NewEnv(b.state, func(o *core.EnvOptions) { *o = opts })
}
