// Package openai implements core.ModelPort on top of the OpenAI Chat
// Completions API, including function/tool calling.
package openai

import (
	"context"
	"fmt"

	"github.com/openai/openai-go"
	"github.com/openai/openai-go/option"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/model"
)

// Options configure the OpenAI model adapter.
type Options struct {
	Model               string
	Temperature         float64
	MaxCompletionTokens int64
	APIKey              string
	// BaseURL points the client at an OpenAI-compatible endpoint.
	BaseURL string
	// MaxRetries is handed to the SDK client; negative keeps the SDK default.
	MaxRetries int
}

// Model wraps the OpenAI Chat Completions API behind core.ModelPort.
type Model struct {
	client *openai.Client
	opts   Options
}

var (
	_ core.ModelPort  = (*Model)(nil)
	_ model.Describer = (*Model)(nil)
)

func defaultOptions() Options {
	return Options{
		Model:               openai.ChatModelGPT4oMini,
		Temperature:         0.7,
		MaxCompletionTokens: 4096,
		MaxRetries:          -1,
	}
}

// NewModel creates a new OpenAI model using the official client.
func NewModel(optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}

	var clientOpts []option.RequestOption
	if opts.APIKey != "" {
		clientOpts = append(clientOpts, option.WithAPIKey(opts.APIKey))
	}
	if opts.BaseURL != "" {
		clientOpts = append(clientOpts, option.WithBaseURL(opts.BaseURL))
	}
	if opts.MaxRetries >= 0 {
		clientOpts = append(clientOpts, option.WithMaxRetries(opts.MaxRetries))
	}

	client := openai.NewClient(clientOpts...)

	return &Model{client: &client, opts: opts}
}

// NewModelFromClient creates a new OpenAI model from an existing client.
func NewModelFromClient(client *openai.Client, optFns ...func(o *Options)) *Model {
	opts := defaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	return &Model{client: client, opts: opts}
}

// Complete implements core.ModelPort.
func (m *Model) Complete(ctx context.Context, req core.ModelRequest) (core.ModelResponse, error) {
	messages, err := buildMessages(req)
	if err != nil {
		return core.ModelResponse{}, err
	}

	resp, err := m.client.Chat.Completions.New(ctx, m.buildParams(req, messages))
	if err != nil {
		return core.ModelResponse{}, fmt.Errorf("openai api error: %w", err)
	}

	if len(resp.Choices) == 0 {
		return core.ModelResponse{}, fmt.Errorf("openai: no choices returned")
	}

	ch0 := resp.Choices[0]

	msg := core.Message{Role: core.RoleAssistant, Content: ch0.Message.Content}
	for _, tc := range ch0.Message.ToolCalls {
		args, err := model.DecodeArguments([]byte(tc.Function.Arguments))
		if err != nil {
			return core.ModelResponse{}, fmt.Errorf("openai tool call %q: %w", tc.Function.Name, err)
		}
		msg.ToolCalls = append(msg.ToolCalls, core.ToolCall{
			ID:        tc.ID,
			Name:      tc.Function.Name,
			Arguments: args,
		})
	}

	return core.ModelResponse{
		Message:      msg,
		FinishReason: ch0.FinishReason,
		Usage: core.Usage{
			InputTokens:  resp.Usage.PromptTokens,
			OutputTokens: resp.Usage.CompletionTokens,
		},
	}, nil
}

// buildMessages converts the request into chat messages. Instructions
// become the leading system message.
func buildMessages(req core.ModelRequest) ([]openai.ChatCompletionMessageParamUnion, error) {
	messages := make([]openai.ChatCompletionMessageParamUnion, 0, len(req.Messages)+1)

	if req.Instructions != "" {
		messages = append(messages, openai.SystemMessage(req.Instructions))
	}

	for _, msg := range req.Messages {
		switch msg.Role {
		case core.RoleSystem:
			messages = append(messages, openai.SystemMessage(msg.Content))
		case core.RoleAssistant:
			if len(msg.ToolCalls) == 0 {
				messages = append(messages, openai.AssistantMessage(msg.Content))
				continue
			}

			toolCalls, err := buildToolCalls(msg.ToolCalls)
			if err != nil {
				return nil, err
			}

			messages = append(messages, openai.ChatCompletionMessageParamUnion{
				OfAssistant: &openai.ChatCompletionAssistantMessageParam{
					Role:      "assistant",
					ToolCalls: toolCalls,
				},
			})
		case core.RoleTool:
			messages = append(messages, openai.ToolMessage(msg.Content, msg.ToolCallID))
		default:
			if msg.Content != "" {
				messages = append(messages, openai.UserMessage(msg.Content))
			}
		}
	}

	return messages, nil
}

func buildToolCalls(calls []core.ToolCall) ([]openai.ChatCompletionMessageToolCallParam, error) {
	toolCalls := make([]openai.ChatCompletionMessageToolCallParam, 0, len(calls))

	for _, call := range calls {
		args, err := model.EncodeArguments(call.Arguments)
		if err != nil {
			return nil, fmt.Errorf("openai tool call %q: %w", call.Name, err)
		}

		toolCalls = append(toolCalls, openai.ChatCompletionMessageToolCallParam{
			ID:   call.ID,
			Type: "function",
			Function: openai.ChatCompletionMessageToolCallFunctionParam{
				Name:      call.Name,
				Arguments: args,
			},
		})
	}

	return toolCalls, nil
}

// buildParams assembles the request parameters including tool definitions.
func (m *Model) buildParams(
	req core.ModelRequest,
	messages []openai.ChatCompletionMessageParamUnion,
) openai.ChatCompletionNewParams {
	params := openai.ChatCompletionNewParams{
		Messages:            messages,
		Model:               m.opts.Model,
		Temperature:         openai.Float(m.opts.Temperature),
		MaxCompletionTokens: openai.Int(m.opts.MaxCompletionTokens),
	}
	if len(req.Tools) == 0 {
		return params
	}

	tools := make([]openai.ChatCompletionToolParam, len(req.Tools))
	for i, spec := range req.Tools {
		tools[i] = openai.ChatCompletionToolParam{
			Type: "function",
			Function: openai.FunctionDefinitionParam{
				Name:        spec.Name,
				Description: openai.String(spec.Description),
				Parameters:  spec.Parameters,
			},
		}
	}
	params.Tools = tools

	return params
}

// Info returns metadata describing this OpenAI model implementation.
func (m *Model) Info() model.Info {
	return model.Info{
		Name:          m.opts.Model,
		Provider:      "openai",
		SupportsTools: true,
	}
}
