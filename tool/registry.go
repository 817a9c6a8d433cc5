package tool

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"github.com/hupe1980/agentkernel/core"
	"github.com/hupe1980/agentkernel/logging"
)

// RegistryOptions configures a Registry.
type RegistryOptions struct {
	Logger logging.Logger
}

// Registry holds named tools and executes model-issued tool calls against
// them. It implements core.ToolPort.
//
// Tool-level failures (unknown tool, invalid arguments, the tool returning
// an error) are reported as a ToolResult with Failed set and the error text
// as content, so the model can see and react to them. Call only returns an
// error when the context is done.
type Registry struct {
	mu     sync.RWMutex
	tools  map[string]Tool
	logger logging.Logger
}

var _ core.ToolPort = (*Registry)(nil)

// NewRegistry creates an empty registry.
func NewRegistry(optFns ...func(o *RegistryOptions)) *Registry {
	opts := RegistryOptions{Logger: logging.NoOpLogger{}}
	for _, fn := range optFns {
		fn(&opts)
	}

	return &Registry{
		tools:  make(map[string]Tool),
		logger: opts.Logger,
	}
}

// Register adds tools. A name that is already present, or a parameter schema
// rejected by CheckSchema, is an error and no tool of the batch is added.
func (r *Registry) Register(tools ...Tool) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]struct{}, len(tools))
	for _, t := range tools {
		name := t.Name()
		if _, ok := r.tools[name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
		}
		if _, ok := seen[name]; ok {
			return fmt.Errorf("%w: %q", ErrDuplicateTool, name)
		}
		if err := CheckSchema(t.Parameters()); err != nil {
			return fmt.Errorf("tool %q: %w", name, err)
		}
		seen[name] = struct{}{}
	}

	for _, t := range tools {
		r.tools[t.Name()] = t
	}

	return nil
}

// MustRegister is like Register but panics on error.
func (r *Registry) MustRegister(tools ...Tool) *Registry {
	if err := r.Register(tools...); err != nil {
		panic(err)
	}
	return r
}

// Get returns the tool registered under name.
func (r *Registry) Get(name string) (Tool, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	t, ok := r.tools[name]
	return t, ok
}

// Names returns the registered tool names in sorted order.
func (r *Registry) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()

	names := make([]string, 0, len(r.tools))
	for name := range r.tools {
		names = append(names, name)
	}
	sort.Strings(names)

	return names
}

// Specs describes the registered tools for a model request, sorted by name.
func (r *Registry) Specs() []core.ToolSpec {
	names := r.Names()

	r.mu.RLock()
	defer r.mu.RUnlock()

	specs := make([]core.ToolSpec, 0, len(names))
	for _, name := range names {
		t := r.tools[name]
		specs = append(specs, core.ToolSpec{
			Name:        t.Name(),
			Description: t.Description(),
			Parameters:  t.Parameters(),
		})
	}

	return specs
}

// Call implements core.ToolPort.
func (r *Registry) Call(ctx context.Context, call core.ToolCall) (core.ToolResult, error) {
	if err := ctx.Err(); err != nil {
		return core.ToolResult{}, err
	}

	t, ok := r.Get(call.Name)
	if !ok {
		r.logger.Warn("tool.not_found", "tool", call.Name, "call_id", call.ID)
		return core.ToolResult{
			ID:      call.ID,
			Content: NewToolError(call.Name, "tool not found", CodeNotFound).Error(),
			Failed:  true,
		}, nil
	}

	args := call.Arguments
	if args == nil {
		args = map[string]any{}
	}

	out, err := t.Call(ctx, args)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return core.ToolResult{}, ctxErr
		}
		return core.ToolResult{ID: call.ID, Content: err.Error(), Failed: true}, nil
	}

	return core.ToolResult{ID: call.ID, Content: out}, nil
}
