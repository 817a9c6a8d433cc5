package openai

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/hupe1980/agentkernel/core"
)

func TestBuildMessages(t *testing.T) {
	req := core.ModelRequest{
		Instructions: "be brief",
		Messages: []core.Message{
			core.UserMessage("weather?"),
			{Role: core.RoleAssistant, ToolCalls: []core.ToolCall{{ID: "c1", Name: "weather", Arguments: map[string]any{"city": "Berlin"}}}},
			{Role: core.RoleTool, ToolCallID: "c1", Content: "sunny"},
			{Role: core.RoleAssistant, Content: "It is sunny."},
		},
	}

	messages, err := buildMessages(req)
	require.NoError(t, err)

	b, err := json.Marshal(messages)
	require.NoError(t, err)

	var out []map[string]any
	require.NoError(t, json.Unmarshal(b, &out))
	require.Len(t, out, 5)

	assert.Equal(t, "system", out[0]["role"])
	assert.Equal(t, "user", out[1]["role"])
	assert.Equal(t, "assistant", out[2]["role"])

	calls := out[2]["tool_calls"].([]any)
	require.Len(t, calls, 1)
	fn := calls[0].(map[string]any)["function"].(map[string]any)
	assert.Equal(t, "weather", fn["name"])
	assert.JSONEq(t, `{"city":"Berlin"}`, fn["arguments"].(string))

	assert.Equal(t, "tool", out[3]["role"])
	assert.Equal(t, "c1", out[3]["tool_call_id"])
	assert.Equal(t, "assistant", out[4]["role"])
}

func TestModel_CompleteAgainstServer(t *testing.T) {
	var captured map[string]any

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		_ = json.Unmarshal(body, &captured)

		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{
			"id": "chatcmpl-1",
			"object": "chat.completion",
			"created": 1700000000,
			"model": "gpt-4o-mini",
			"choices": [{
				"index": 0,
				"finish_reason": "tool_calls",
				"message": {
					"role": "assistant",
					"content": "",
					"tool_calls": [{
						"id": "call_1",
						"type": "function",
						"function": {"name": "weather", "arguments": "{\"city\":\"Berlin\"}"}
					}]
				}
			}],
			"usage": {"prompt_tokens": 9, "completion_tokens": 4, "total_tokens": 13}
		}`)
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL
		o.MaxRetries = 0
	})

	resp, err := m.Complete(context.Background(), core.ModelRequest{
		Messages: []core.Message{core.UserMessage("weather in Berlin?")},
		Tools: []core.ToolSpec{{
			Name:        "weather",
			Description: "current weather",
			Parameters:  map[string]any{"type": "object"},
		}},
	})
	require.NoError(t, err)

	require.Len(t, resp.Message.ToolCalls, 1)
	assert.Equal(t, core.ToolCall{ID: "call_1", Name: "weather", Arguments: map[string]any{"city": "Berlin"}}, resp.Message.ToolCalls[0])
	assert.Equal(t, "tool_calls", resp.FinishReason)
	assert.Equal(t, core.Usage{InputTokens: 9, OutputTokens: 4}, resp.Usage)

	require.NotNil(t, captured)
	assert.Equal(t, "gpt-4o-mini", captured["model"])
	assert.Len(t, captured["tools"], 1)
}

func TestModel_CompleteNoChoices(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		_, _ = io.WriteString(w, `{"id":"x","object":"chat.completion","created":1,"model":"m","choices":[]}`)
	}))
	defer srv.Close()

	m := NewModel(func(o *Options) {
		o.APIKey = "test-key"
		o.BaseURL = srv.URL
		o.MaxRetries = 0
	})

	_, err := m.Complete(context.Background(), core.ModelRequest{Messages: []core.Message{core.UserMessage("x")}})
	assert.ErrorContains(t, err, "no choices")
}

func TestModel_Info(t *testing.T) {
	m := NewModel(func(o *Options) {
		o.APIKey = "k"
		o.Model = "gpt-test"
	})

	assert.Equal(t, "gpt-test", m.Info().Name)
	assert.Equal(t, "openai", m.Info().Provider)
}
