package core

import (
	"context"
	"time"
)

// Role identifies the author of a conversation message.
type Role string

const (
	RoleSystem    Role = "system"
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	RoleTool      Role = "tool"
)

// Message is one entry of a model conversation.
type Message struct {
	Role       Role       `json:"role"`
	Content    string     `json:"content,omitempty"`
	ToolCalls  []ToolCall `json:"tool_calls,omitempty"`
	ToolCallID string     `json:"tool_call_id,omitempty"`
}

// UserMessage is shorthand for a user-authored text message.
func UserMessage(content string) Message { return Message{Role: RoleUser, Content: content} }

// ToolSpec describes a tool offered to the model.
type ToolSpec struct {
	Name        string         `json:"name"`
	Description string         `json:"description,omitempty"`
	Parameters  map[string]any `json:"parameters,omitempty"`
}

// ModelRequest is the structured description of one model call.
type ModelRequest struct {
	Instructions string     `json:"instructions,omitempty"`
	Messages     []Message  `json:"messages"`
	Tools        []ToolSpec `json:"tools,omitempty"`
}

// Usage reports token accounting for a model call, when the provider has it.
type Usage struct {
	InputTokens  int64 `json:"input_tokens"`
	OutputTokens int64 `json:"output_tokens"`
}

// ModelResponse is the reply to a ModelRequest.
type ModelResponse struct {
	Message      Message `json:"message"`
	FinishReason string  `json:"finish_reason,omitempty"`
	Usage        Usage   `json:"usage"`
}

// ModelPort performs model calls. Implementations own timeouts, cancellation
// and transport failures and report them as errors.
type ModelPort interface {
	Complete(ctx context.Context, req ModelRequest) (ModelResponse, error)
}

// ModelPortFunc adapts a function to ModelPort.
type ModelPortFunc func(ctx context.Context, req ModelRequest) (ModelResponse, error)

// Complete calls f(ctx, req).
func (f ModelPortFunc) Complete(ctx context.Context, req ModelRequest) (ModelResponse, error) {
	return f(ctx, req)
}

// ToolCall is the structured description of one tool invocation.
type ToolCall struct {
	ID        string         `json:"id"`
	Name      string         `json:"name"`
	Arguments map[string]any `json:"arguments,omitempty"`
}

// ToolResult is the outcome of a ToolCall. Failed marks a tool-level failure
// that the tool reported as content rather than as a transport error.
type ToolResult struct {
	ID      string `json:"id"`
	Content any    `json:"content,omitempty"`
	Failed  bool   `json:"failed,omitempty"`
}

// ToolPort executes tool calls.
type ToolPort interface {
	Call(ctx context.Context, call ToolCall) (ToolResult, error)
}

// ToolPortFunc adapts a function to ToolPort.
type ToolPortFunc func(ctx context.Context, call ToolCall) (ToolResult, error)

// Call calls f(ctx, call).
func (f ToolPortFunc) Call(ctx context.Context, call ToolCall) (ToolResult, error) {
	return f(ctx, call)
}

// MemoryRecord is one entry in external memory.
type MemoryRecord struct {
	ID        string         `json:"id"`
	Content   string         `json:"content"`
	Metadata  map[string]any `json:"metadata,omitempty"`
	CreatedAt time.Time      `json:"created_at"`
}

// MemoryPort gives agents access to persistent-style memory that lives
// outside the pipeline State.
type MemoryPort interface {
	Append(ctx context.Context, record MemoryRecord) (MemoryRecord, error)
	Query(ctx context.Context, query string, limit int) ([]MemoryRecord, error)
	Clear(ctx context.Context) error
}

// Ports bundles the capability ports injected into an environment. Any of
// them may be nil; leaf agents report ErrPortUnavailable in that case.
type Ports struct {
	Model  ModelPort
	Tools  ToolPort
	Memory MemoryPort
}
