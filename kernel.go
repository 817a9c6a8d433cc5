// Package agentkernel wires the kernel's building blocks into a ready-to-use
// runner. Most applications interact with this package by:
//  1. Building agents with the agent and multi packages
//  2. Registering the ones that handoffs may target in a core.Registry
//  3. Creating a runner via New (explicit ports) or FromConfig (config file)
//  4. Executing agents with runner.Run
//
// Model and tool ports are wrapped with the resilience decorators unless
// resilience is disabled. All defaults are safe for local development; no
// port is created that the caller did not ask for.
package agentkernel

import (
	"fmt"
	"os"
	"time"

	anthropicsdk "github.com/anthropics/anthropic-sdk-go"

	"github.com/hupe1980/agentkernel/config"
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/memory"
	"github.com/hupe1980/agentkernel/model"
	"github.com/hupe1980/agentkernel/model/anthropic"
	"github.com/hupe1980/agentkernel/model/openai"
	"github.com/hupe1980/agentkernel/resilience"
	"github.com/hupe1980/agentkernel/runner"
	"github.com/hupe1980/agentkernel/tool"
	"github.com/hupe1980/agentkernel/trace"
)

// Options configures the runner built by New.
type Options struct {
	// Registry holds the agents handoffs and routes may target.
	Registry *core.Registry

	// Model is the model port. Nil leaves Ask agents without a model.
	Model core.ModelPort
	// Tools are registered in a tool registry that becomes the tool port.
	Tools []tool.Tool
	// Memory is the memory port. Nil leaves memory agents without a store.
	Memory core.MemoryPort

	// Resilience configures the decorators around the model and tool ports.
	// Nil disables them.
	Resilience *resilience.Options

	// MaxModelCalls caps model calls per run; zero is unlimited.
	MaxModelCalls int
	// MaxConcurrentRuns limits runs executing at once; zero is unlimited.
	MaxConcurrentRuns int
	// RunTimeout bounds each run; zero means no deadline.
	RunTimeout time.Duration

	// Tracer records evidence. Defaults to core.NoopTracer.
	Tracer core.Tracer
	// Logger (defaults to NoOp logger if nil)
	Logger logging.Logger
}

// New creates a runner from explicit ports. Registering Tools fails on
// duplicate tool names and invalid parameter schemas.
func New(optFns ...func(o *Options)) (*runner.Runner, error) {
	defaults := resilience.DefaultOptions()
	opts := Options{
		Resilience: &defaults,
		Tracer:     core.NoopTracer{},
		Logger:     logging.NoOpLogger{},
	}

	for _, fn := range optFns {
		fn(&opts)
	}

	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}

	ports := core.Ports{Model: opts.Model, Memory: opts.Memory}

	if len(opts.Tools) > 0 {
		registry := tool.NewRegistry(func(o *tool.RegistryOptions) { o.Logger = opts.Logger })
		if err := registry.Register(opts.Tools...); err != nil {
			return nil, err
		}
		ports.Tools = registry
	}

	if opts.Resilience != nil {
		ports = decorate(ports, *opts.Resilience, opts.Logger)
	}

	return runner.New(opts.Registry, func(o *runner.Options) {
		o.Ports = ports
		o.Tracer = opts.Tracer
		o.Logger = opts.Logger
		o.MaxModelCalls = opts.MaxModelCalls
		o.MaxConcurrentRuns = opts.MaxConcurrentRuns
		o.RunTimeout = opts.RunTimeout
	}), nil
}

// FromConfig creates a runner from a loaded configuration. optFns run after
// the configuration has been applied and may add tools or replace ports.
func FromConfig(cfg *config.Config, registry *core.Registry, optFns ...func(o *Options)) (*runner.Runner, error) {
	if cfg == nil {
		cfg = config.Default()
	}

	if err := cfg.Validate(); err != nil {
		return nil, err
	}

	logger := NewLogger(cfg.Logging)

	m, err := NewModel(cfg.Model)
	if err != nil {
		return nil, err
	}

	r := cfg.Resilience
	resOpts := resilience.Options{
		RetryMaxAttempts:  r.RetryMaxAttempts,
		RetryInitialDelay: r.RetryInitialDelay,
		RetryMultiplier:   r.RetryMultiplier,
		BreakerThreshold:  r.BreakerThreshold,
		BreakerTimeout:    r.BreakerTimeout,
		RateLimit:         r.RateLimit,
		RateBurst:         r.RateBurst,
		Logger:            logger,
	}

	var mem core.MemoryPort
	if cfg.Memory.Enabled {
		mem = memory.NewInMemoryStore(func(o *memory.Options) {
			o.CaseInsensitive = cfg.Memory.CaseInsensitive
		})
	}

	tracer := NewTracer(cfg.Trace)

	return New(append([]func(o *Options){func(o *Options) {
		o.Registry = registry
		o.Model = m
		o.Memory = mem
		o.Resilience = &resOpts
		o.MaxModelCalls = r.MaxModelCalls
		o.Tracer = tracer
		o.Logger = logger
	}}, optFns...)...)
}

// Load reads the configuration file at path and creates a runner from it.
func Load(path string, registry *core.Registry, optFns ...func(o *Options)) (*runner.Runner, error) {
	cfg, err := config.Load(path)
	if err != nil {
		return nil, err
	}
	return FromConfig(cfg, registry, optFns...)
}

// NewLogger builds the logger selected by cfg. The slog backend yields a
// *logging.KernelLogger so runs are reported through LogPipeline.
func NewLogger(cfg config.LoggingConfig) logging.Logger {
	level := logging.ParseLevel(cfg.Level)
	if cfg.Backend == "bolt" {
		return logging.NewBoltLogger(os.Stdout, cfg.Format, level)
	}
	return logging.NewSlogLogger(level, cfg.Format, cfg.AddSource).WithComponent("runner")
}

// NewTracer builds the tracer selected by cfg. The otel backend uses the
// global otel TracerProvider, so install one (otel.SetTracerProvider) before
// calling FromConfig.
func NewTracer(cfg config.TraceConfig) core.Tracer {
	if !cfg.Enabled {
		return core.NoopTracer{}
	}

	if cfg.Backend == config.TraceBackendOtel {
		return trace.NewOtelTracer(func(o *trace.OtelOptions) {
			o.TracerName = cfg.ServiceName
		})
	}

	return trace.NewRecorder()
}

// NewModel builds the model port selected by cfg. The empty provider yields
// a nil port.
func NewModel(cfg config.ModelConfig) (core.ModelPort, error) {
	switch cfg.Provider {
	case "":
		return nil, nil
	case "anthropic":
		return anthropic.NewModel(func(o *anthropic.Options) {
			if cfg.Name != "" {
				o.Model = anthropicsdk.Model(cfg.Name)
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case "openai":
		return openai.NewModel(func(o *openai.Options) {
			if cfg.Name != "" {
				o.Model = cfg.Name
			}
			o.Temperature = cfg.Temperature
			if cfg.MaxTokens > 0 {
				o.MaxCompletionTokens = cfg.MaxTokens
			}
			o.APIKey = cfg.APIKey
			o.BaseURL = cfg.BaseURL
		}), nil
	case "scripted":
		name := cfg.Name
		if name == "" {
			name = "scripted"
		}
		return model.NewScripted(name), nil
	default:
		return nil, fmt.Errorf("%w: unknown provider %q", config.ErrInvalidConfig, cfg.Provider)
	}
}

func decorate(ports core.Ports, opts resilience.Options, logger logging.Logger) core.Ports {
	apply := func(o *resilience.Options) {
		*o = opts
		if o.Logger == nil {
			o.Logger = logger
		}
	}

	if ports.Model != nil {
		ports.Model = resilience.NewModel(ports.Model, apply)
	}
	if ports.Tools != nil {
		ports.Tools = resilience.NewTools(ports.Tools, apply)
	}

	return ports
}
