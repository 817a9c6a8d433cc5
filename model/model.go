package model

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"sync"

	"github.com/hupe1980/agentkernel/core"
)

// Info contains metadata about a model port implementation.
type Info struct {
	Name          string `json:"name"`
	Provider      string `json:"provider"` // "openai", "anthropic", "scripted", ...
	SupportsTools bool   `json:"supports_tools"`
}

// Describer is implemented by model ports that can report their Info.
type Describer interface {
	Info() Info
}

// EncodeArguments renders tool call arguments as the JSON object string most
// providers expect. Nil arguments encode as "{}".
func EncodeArguments(args map[string]any) (string, error) {
	if args == nil {
		return "{}", nil
	}
	b, err := json.Marshal(args)
	if err != nil {
		return "", fmt.Errorf("encode tool arguments: %w", err)
	}
	return string(b), nil
}

// DecodeArguments parses a provider's JSON argument payload. An empty payload
// yields an empty map.
func DecodeArguments(raw []byte) (map[string]any, error) {
	args := map[string]any{}
	if len(strings.TrimSpace(string(raw))) == 0 {
		return args, nil
	}
	if err := json.Unmarshal(raw, &args); err != nil {
		return nil, fmt.Errorf("decode tool arguments: %w", err)
	}
	return args, nil
}

// ToolResultText renders a tool message body as plain text for providers that
// only accept strings.
func ToolResultText(content any) string {
	switch v := content.(type) {
	case nil:
		return ""
	case string:
		return v
	case []byte:
		return string(v)
	default:
		if b, err := json.Marshal(v); err == nil {
			return string(b)
		}
		return fmt.Sprintf("%v", v)
	}
}

// LastUserText returns the content of the last user message in req, or "".
func LastUserText(req core.ModelRequest) string {
	for i := len(req.Messages) - 1; i >= 0; i-- {
		if req.Messages[i].Role == core.RoleUser {
			return req.Messages[i].Content
		}
	}
	return ""
}

// Scripted is a deterministic in-memory core.ModelPort for tests and
// examples. Queued responses are returned first, in order; after that the
// reply is the canned answer registered for the last user message, or an
// echo of it.
type Scripted struct {
	mu        sync.Mutex
	info      Info
	responses map[string]string
	queue     []scriptedReply
	requests  []core.ModelRequest
}

type scriptedReply struct {
	resp core.ModelResponse
	err  error
}

var (
	_ core.ModelPort = (*Scripted)(nil)
	_ Describer      = (*Scripted)(nil)
)

// NewScripted constructs a Scripted port with tool support enabled.
func NewScripted(name string) *Scripted {
	return &Scripted{
		info: Info{
			Name:          name,
			Provider:      "scripted",
			SupportsTools: true,
		},
		responses: make(map[string]string),
	}
}

// AddResponse registers a canned completion for an input prompt.
func (m *Scripted) AddResponse(prompt, response string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.responses[prompt] = response
}

// Enqueue appends a full response to be returned by a future call.
func (m *Scripted) Enqueue(resp core.ModelResponse) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, scriptedReply{resp: resp})
}

// EnqueueError makes a future call fail with err.
func (m *Scripted) EnqueueError(err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.queue = append(m.queue, scriptedReply{err: err})
}

// Requests returns the requests received so far.
func (m *Scripted) Requests() []core.ModelRequest {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]core.ModelRequest(nil), m.requests...)
}

// Complete implements core.ModelPort.
func (m *Scripted) Complete(ctx context.Context, req core.ModelRequest) (core.ModelResponse, error) {
	if err := ctx.Err(); err != nil {
		return core.ModelResponse{}, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	m.requests = append(m.requests, req)

	if len(m.queue) > 0 {
		next := m.queue[0]
		m.queue = m.queue[1:]
		return next.resp, next.err
	}

	if len(req.Messages) == 0 {
		return core.ModelResponse{}, fmt.Errorf("no messages provided")
	}

	input := LastUserText(req)
	full := m.responses[input]
	if full == "" {
		full = fmt.Sprintf("Mock response to: %s", input)
	}

	return core.ModelResponse{
		Message:      core.Message{Role: core.RoleAssistant, Content: full},
		FinishReason: "stop",
	}, nil
}

// Info implements Describer.
func (m *Scripted) Info() Info { return m.info }
