package agent

import (
	"context"
	"fmt"

	"github.com/google/uuid"

	"github.com/hupe1980/agentkernel/core"
)

// AskOptions configures a model-calling leaf agent.
type AskOptions[S any] struct {
	// Instruction becomes the system instruction of the request.
	Instruction Instruction[S]
	// Tools are offered to the model.
	Tools []core.ToolSpec
}

// Ask returns a leaf agent that sends the messages built from the state to the
// environment's model port. The state is left unchanged and the model
// response becomes the value. A missing port or a failed call is reported as
// Error.
func Ask[S any](name string, messages func(state S) []core.Message, optFns ...func(o *AskOptions[S])) Agent[S, core.ModelResponse] {
	opts := AskOptions[S]{}

	for _, fn := range optFns {
		fn(&opts)
	}

	return New(name, func(ctx context.Context, env core.Env[S]) core.Result[S, core.ModelResponse] {
		port := env.Ports().Model
		if port == nil {
			return core.Fail[S, core.ModelResponse](env.State(), fmt.Errorf("%w: model", core.ErrPortUnavailable))
		}

		instructions, err := opts.Instruction.Resolve(ctx, env.State())
		if err != nil {
			return core.Fail[S, core.ModelResponse](env.State(), fmt.Errorf("resolve instruction: %w", err))
		}

		req := core.ModelRequest{
			Instructions: instructions,
			Messages:     messages(env.State()),
			Tools:        opts.Tools,
		}

		resp, err := port.Complete(ctx, req)
		if err != nil {
			return core.Fail[S, core.ModelResponse](env.State(), &core.PortError{Port: "model", Op: "complete", Err: err})
		}

		return core.Ok(env.State(), resp)
	})
}

// CallTool returns a leaf agent that executes the tool call built from the
// state through the environment's tool port. Calls without an ID get a fresh
// one. A tool that reports Failed still yields Continue so the caller can
// inspect the result; transport failures are reported as Error.
func CallTool[S any](name string, build func(state S) (core.ToolCall, error)) Agent[S, core.ToolResult] {
	return New(name, func(ctx context.Context, env core.Env[S]) core.Result[S, core.ToolResult] {
		port := env.Ports().Tools
		if port == nil {
			return core.Fail[S, core.ToolResult](env.State(), fmt.Errorf("%w: tools", core.ErrPortUnavailable))
		}

		call, err := build(env.State())
		if err != nil {
			return core.Fail[S, core.ToolResult](env.State(), err)
		}

		if call.ID == "" {
			call.ID = uuid.NewString()
		}

		res, err := port.Call(ctx, call)
		if err != nil {
			return core.Fail[S, core.ToolResult](env.State(), &core.PortError{Port: "tools", Op: call.Name, Err: err})
		}

		return core.Ok(env.State(), res)
	})
}

// Remember returns a leaf agent that appends the record built from the state
// to the environment's memory port.
func Remember[S any](name string, build func(state S) core.MemoryRecord) Agent[S, core.MemoryRecord] {
	return New(name, func(ctx context.Context, env core.Env[S]) core.Result[S, core.MemoryRecord] {
		port := env.Ports().Memory
		if port == nil {
			return core.Fail[S, core.MemoryRecord](env.State(), fmt.Errorf("%w: memory", core.ErrPortUnavailable))
		}

		stored, err := port.Append(ctx, build(env.State()))
		if err != nil {
			return core.Fail[S, core.MemoryRecord](env.State(), &core.PortError{Port: "memory", Op: "append", Err: err})
		}

		return core.Ok(env.State(), stored)
	})
}

// Recall returns a leaf agent that queries the environment's memory port with
// the query derived from the state.
func Recall[S any](name string, query func(state S) string, limit int) Agent[S, []core.MemoryRecord] {
	return New(name, func(ctx context.Context, env core.Env[S]) core.Result[S, []core.MemoryRecord] {
		port := env.Ports().Memory
		if port == nil {
			return core.Fail[S, []core.MemoryRecord](env.State(), fmt.Errorf("%w: memory", core.ErrPortUnavailable))
		}

		records, err := port.Query(ctx, query(env.State()), limit)
		if err != nil {
			return core.Fail[S, []core.MemoryRecord](env.State(), &core.PortError{Port: "memory", Op: "query", Err: err})
		}

		return core.Ok(env.State(), records)
	})
}
