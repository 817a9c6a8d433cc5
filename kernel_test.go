package agentkernel

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel"
	sdktrace "go.opentelemetry.io/otel/sdk/trace"
	"go.opentelemetry.io/otel/sdk/trace/tracetest"

	"github.com/hupe1980/agentkernel/agent"
	"github.com/hupe1980/agentkernel/config"
	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/logging"
	"github.com/hupe1980/agentkernel/model"
	"github.com/hupe1980/agentkernel/model/anthropic"
	"github.com/hupe1980/agentkernel/model/openai"
	"github.com/hupe1980/agentkernel/multi"
	"github.com/hupe1980/agentkernel/resilience"
	"github.com/hupe1980/agentkernel/runner"
	"github.com/hupe1980/agentkernel/tool"
	"github.com/hupe1980/agentkernel/trace"
)

func askHi() agent.Agent[string, core.ModelResponse] {
	return agent.Ask("ask", func(string) []core.Message {
		return []core.Message{core.UserMessage("hi")}
	})
}

func scriptedConfig() *config.Config {
	cfg := config.Default()
	cfg.Logging.Level = "error"
	cfg.Model.Provider = "scripted"
	return cfg
}

func TestNew_WithoutPorts(t *testing.T) {
	r, err := New()
	require.NoError(t, err)

	res, _ := runner.Run(context.Background(), r, askHi(), "")
	assert.ErrorIs(t, res.Err(), core.ErrPortUnavailable)
}

func TestNew_DecoratesModel(t *testing.T) {
	r, err := New(func(o *Options) { o.Model = model.NewScripted("m") })
	require.NoError(t, err)
	assert.IsType(t, &resilience.Model{}, r.Ports().Model)

	r, err = New(func(o *Options) {
		o.Model = model.NewScripted("m")
		o.Resilience = nil
	})
	require.NoError(t, err)
	assert.IsType(t, &model.Scripted{}, r.Ports().Model)
}

func TestNew_Tools(t *testing.T) {
	add := tool.NewFunctionTool("add", "adds a and b", map[string]any{
		"type": "object",
		"properties": map[string]any{
			"a": map[string]any{"type": "number"},
			"b": map[string]any{"type": "number"},
		},
		"required": []any{"a", "b"},
	}, func(_ context.Context, args map[string]any) (any, error) {
		return args["a"].(float64) + args["b"].(float64), nil
	})

	r, err := New(func(o *Options) { o.Tools = []tool.Tool{add} })
	require.NoError(t, err)

	call := agent.CallTool("call", func(int) (core.ToolCall, error) {
		return core.ToolCall{Name: "add", Arguments: map[string]any{"a": 1.0, "b": 2.0}}, nil
	})

	res, _ := runner.Run(context.Background(), r, call, 0)
	require.True(t, res.Control.IsContinue(), res.Control.String())
	assert.False(t, res.Value.Failed)
	assert.InDelta(t, 3.0, res.Value.Content, 1e-9)
	assert.NotEmpty(t, res.Value.ID)

	_, err = New(func(o *Options) { o.Tools = []tool.Tool{add, add} })
	assert.ErrorIs(t, err, tool.ErrDuplicateTool)
}

func TestFromConfig_Scripted(t *testing.T) {
	cfg := scriptedConfig()
	cfg.Trace.Enabled = true

	r, err := FromConfig(cfg, nil)
	require.NoError(t, err)

	assert.IsType(t, &trace.Recorder{}, r.Tracer())
	assert.NotNil(t, r.Ports().Memory)
	assert.Nil(t, r.Ports().Tools)

	res, info := runner.Run(context.Background(), r, askHi(), "")
	require.True(t, res.Control.IsContinue(), res.Control.String())
	assert.Equal(t, "Mock response to: hi", res.Value.Message.Content)
	assert.NotEmpty(t, info.ID)

	rec := r.Tracer().(*trace.Recorder)
	assert.Len(t, rec.FindAll("step"), 1)
}

func TestFromConfig_MaxModelCalls(t *testing.T) {
	cfg := scriptedConfig()
	cfg.Resilience.MaxModelCalls = 1

	r, err := FromConfig(cfg, nil)
	require.NoError(t, err)

	res, _ := runner.Run(context.Background(), r, agent.Then(askHi(), askHi()), "")
	assert.ErrorIs(t, res.Err(), resilience.ErrBudgetExceeded)
}

func TestFromConfig_RateBurst(t *testing.T) {
	cfg := scriptedConfig()
	cfg.Resilience.RateLimit = 1
	cfg.Resilience.RateBurst = 3

	r, err := FromConfig(cfg, nil)
	require.NoError(t, err)

	res, _ := runner.Run(context.Background(), r, agent.Chain(askHi(), askHi(), askHi()), "")
	require.True(t, res.Control.IsContinue(), res.Control.String())

	res, _ = runner.Run(context.Background(), r, askHi(), "")
	assert.ErrorIs(t, res.Err(), resilience.ErrRateLimited)
}

func TestFromConfig_RateBurstDefaultsToLimit(t *testing.T) {
	cfg := scriptedConfig()
	cfg.Resilience.RateLimit = 1

	r, err := FromConfig(cfg, nil)
	require.NoError(t, err)

	res, _ := runner.Run(context.Background(), r, agent.Then(askHi(), askHi()), "")
	assert.ErrorIs(t, res.Err(), resilience.ErrRateLimited)
}

func TestFromConfig_OtelTracer(t *testing.T) {
	sr := tracetest.NewSpanRecorder()
	tp := sdktrace.NewTracerProvider(sdktrace.WithSpanProcessor(sr))
	prev := otel.GetTracerProvider()
	otel.SetTracerProvider(tp)
	t.Cleanup(func() {
		otel.SetTracerProvider(prev)
		_ = tp.Shutdown(context.Background())
	})

	cfg := scriptedConfig()
	cfg.Trace.Enabled = true
	cfg.Trace.Backend = config.TraceBackendOtel
	cfg.Trace.ServiceName = "kernel-test"

	r, err := FromConfig(cfg, nil)
	require.NoError(t, err)
	assert.IsType(t, &trace.OtelTracer{}, r.Tracer())

	res, _ := runner.Run(context.Background(), r, askHi(), "")
	require.True(t, res.Control.IsContinue(), res.Control.String())

	spans := sr.Ended()
	require.Len(t, spans, 1)
	assert.Equal(t, "step", spans[0].Name())
	assert.Equal(t, "kernel-test", spans[0].InstrumentationScope().Name)
}

func TestNewTracer(t *testing.T) {
	assert.Equal(t, core.NoopTracer{}, NewTracer(config.TraceConfig{Backend: config.TraceBackendOtel}))
	assert.IsType(t, &trace.Recorder{}, NewTracer(config.TraceConfig{Enabled: true}))
	assert.IsType(t, &trace.Recorder{}, NewTracer(config.TraceConfig{Enabled: true, Backend: config.TraceBackendRecorder}))
	assert.IsType(t, &trace.OtelTracer{}, NewTracer(config.TraceConfig{Enabled: true, Backend: config.TraceBackendOtel}))
}

func TestFromConfig_MemoryDisabled(t *testing.T) {
	cfg := scriptedConfig()
	cfg.Memory.Enabled = false

	r, err := FromConfig(cfg, nil)
	require.NoError(t, err)
	assert.Nil(t, r.Ports().Memory)
}

func TestFromConfig_Invalid(t *testing.T) {
	cfg := scriptedConfig()
	cfg.Model.Provider = "acme"

	_, err := FromConfig(cfg, nil)
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestFromConfig_Handoff(t *testing.T) {
	writer := agent.Lift("writer", func(_ context.Context, drafts int) (int, any, error) {
		return drafts + 1, "draft", nil
	})

	r, err := FromConfig(scriptedConfig(), core.MustRegistry(writer))
	require.NoError(t, err)

	res, _ := runner.Run(context.Background(), r, multi.Handoff("writer"), multi.NewState())
	require.True(t, res.Control.IsContinue(), res.Control.String())
	assert.Equal(t, "writer", res.State.Current())
	local, ok := res.State.Local("writer")
	require.True(t, ok)
	assert.Equal(t, 1, local)
}

func TestLoad(t *testing.T) {
	path := filepath.Join(t.TempDir(), "kernel.toml")
	require.NoError(t, os.WriteFile(path, []byte(strings.TrimSpace(`
[logging]
level = "error"

[model]
provider = "scripted"
`)), 0o600))

	r, err := Load(path, nil)
	require.NoError(t, err)
	assert.NotNil(t, r.Ports().Model)

	_, err = Load(filepath.Join(t.TempDir(), "kernel.ini"), nil)
	assert.ErrorIs(t, err, config.ErrUnsupportedFormat)
}

func TestNewModel(t *testing.T) {
	m, err := NewModel(config.ModelConfig{})
	require.NoError(t, err)
	assert.Nil(t, m)

	m, err = NewModel(config.ModelConfig{Provider: "anthropic", Name: "claude-3-5-haiku-latest", APIKey: "k"})
	require.NoError(t, err)
	require.IsType(t, &anthropic.Model{}, m)
	assert.Equal(t, "claude-3-5-haiku-latest", m.(model.Describer).Info().Name)

	m, err = NewModel(config.ModelConfig{Provider: "openai", Name: "gpt-4o", APIKey: "k"})
	require.NoError(t, err)
	require.IsType(t, &openai.Model{}, m)
	assert.Equal(t, "gpt-4o", m.(model.Describer).Info().Name)

	m, err = NewModel(config.ModelConfig{Provider: "scripted"})
	require.NoError(t, err)
	assert.Equal(t, "scripted", m.(model.Describer).Info().Name)

	_, err = NewModel(config.ModelConfig{Provider: "acme"})
	assert.ErrorIs(t, err, config.ErrInvalidConfig)
}

func TestNewLogger(t *testing.T) {
	assert.IsType(t, &logging.KernelLogger{}, NewLogger(config.LoggingConfig{Level: "info", Format: "json", Backend: "slog"}))
	assert.IsType(t, &logging.BoltAdapter{}, NewLogger(config.LoggingConfig{Level: "info", Format: "json", Backend: "bolt"}))
}
