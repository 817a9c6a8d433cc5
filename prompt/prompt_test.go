package prompt

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentkernel/core"
)

func TestTemplate_Render(t *testing.T) {
	tmpl := Must(New("summary", "v2", "Summarize {{.topic}} for {{.audience | upper}}.", "topic", "audience"))

	r, err := tmpl.Render(map[string]any{"topic": "Go", "audience": "ops"})
	require.NoError(t, err)

	sum := sha256.Sum256([]byte("Summarize Go for OPS."))
	assert.Equal(t, "Summarize Go for OPS.", r.Text)
	assert.Equal(t, "summary", r.TemplateName)
	assert.Equal(t, "v2", r.TemplateVersion)
	assert.Equal(t, hex.EncodeToString(sum[:]), r.Hash)
	assert.Equal(t, []string{"audience", "topic"}, tmpl.Variables())
}

func TestTemplate_RenderIsDeterministic(t *testing.T) {
	tmpl := Must(New("t", "v1", "{{.a}}-{{.b}}", "a", "b"))
	vars := map[string]any{"a": 1, "b": 2}

	first, err := tmpl.Render(vars)
	require.NoError(t, err)
	second, err := tmpl.Render(vars)
	require.NoError(t, err)

	assert.Equal(t, first, second)

	vars["a"] = 100
	assert.Equal(t, 1, first.Variables["a"], "rendered prompt must not alias the input map")
}

func TestTemplate_StrictVariables(t *testing.T) {
	tmpl := Must(New("t", "v1", "{{.a}}", "a"))

	_, err := tmpl.Render(map[string]any{})
	assert.ErrorIs(t, err, ErrMissingVariables)

	_, err = tmpl.Render(map[string]any{"a": 1, "z": 2})
	assert.ErrorIs(t, err, ErrExtraVariables)
	assert.Contains(t, err.Error(), "z")
}

func TestTemplate_UndeclaredReferenceFails(t *testing.T) {
	tmpl := Must(New("t", "v1", "{{.a}} {{.hidden}}", "a"))

	_, err := tmpl.Render(map[string]any{"a": 1})
	assert.Error(t, err)
}

func TestNew_Errors(t *testing.T) {
	_, err := New("", "v1", "x")
	assert.Error(t, err)

	_, err = New("t", "v1", "{{.broken")
	assert.Error(t, err)
}

func TestRegistry(t *testing.T) {
	reg := NewRegistry()
	v1 := Must(New("greet", "v1", "hi"))
	v2 := Must(New("greet", "v2", "hello"))

	require.NoError(t, reg.Register(v1))
	require.NoError(t, reg.Register(v2))
	assert.ErrorIs(t, reg.Register(v1), ErrDuplicateTemplate)

	got, err := reg.Get("greet", "v2")
	require.NoError(t, err)
	assert.Same(t, v2, got)

	_, err = reg.Get("greet", "v3")
	assert.ErrorIs(t, err, ErrTemplateNotFound)
}

type captureTracer struct {
	action string
	info   map[string]any
}

type nopSpan struct{}

func (nopSpan) End(map[string]any) {}

func (c *captureTracer) Begin(ctx context.Context, action string, info map[string]any) (context.Context, core.Span) {
	c.action, c.info = action, info
	return ctx, nopSpan{}
}

func TestRecord_OnlyMetadata(t *testing.T) {
	tmpl := Must(New("t", "v1", "{{.secret}}", "secret"))
	r, err := tmpl.Render(map[string]any{"secret": "s3cr3t"})
	require.NoError(t, err)

	tracer := &captureTracer{}
	Record(context.Background(), tracer, r)

	assert.Equal(t, "prompt_rendered", tracer.action)
	assert.Equal(t, []string{"secret"}, tracer.info["variable_keys"])
	assert.Equal(t, r.Hash, tracer.info["hash"])
	for _, v := range tracer.info {
		assert.NotEqual(t, "s3cr3t", v)
	}
}
