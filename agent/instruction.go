package agent

import (
	"context"

	"github.com/hupe1980/agentkernel/prompt"
)

// Provider supplies dynamic instruction text at runtime, derived from the
// current state.
type Provider[S any] interface {
	Instruction(ctx context.Context, state S) (string, error)
}

// Func is a functional adapter to allow ordinary functions to be used as Providers.
type Func[S any] func(ctx context.Context, state S) (string, error)

// Instruction implements Provider.
func (f Func[S]) Instruction(ctx context.Context, state S) (string, error) { return f(ctx, state) }

// Instruction represents either a static instruction string or a dynamic provider.
type Instruction[S any] struct {
	text     string
	provider Provider[S]
}

// NewInstructionFromText creates an Instruction from a static string.
func NewInstructionFromText[S any](text string) Instruction[S] { return Instruction[S]{text: text} }

// NewInstructionFromProvider creates an Instruction from a dynamic provider.
func NewInstructionFromProvider[S any](p Provider[S]) Instruction[S] {
	return Instruction[S]{provider: p}
}

// NewInstructionFromFunc creates an Instruction from a function.
func NewInstructionFromFunc[S any](f func(ctx context.Context, state S) (string, error)) Instruction[S] {
	return Instruction[S]{provider: Func[S](f)}
}

// NewInstructionFromTemplate renders tmpl with the variables vars extracts
// from the state. Rendering is strict: missing or unexpected variables fail.
func NewInstructionFromTemplate[S any](tmpl *prompt.Template, vars func(state S) map[string]any) Instruction[S] {
	return NewInstructionFromFunc(func(_ context.Context, state S) (string, error) {
		rendered, err := tmpl.Render(vars(state))
		if err != nil {
			return "", err
		}
		return rendered.Text, nil
	})
}

// IsStatic returns true if the instruction is backed by a static string.
func (i Instruction[S]) IsStatic() bool { return i.provider == nil }

// IsZero reports whether the instruction carries neither text nor a provider.
func (i Instruction[S]) IsZero() bool { return i.provider == nil && i.text == "" }

// Resolve returns the instruction text, invoking the provider if needed.
func (i Instruction[S]) Resolve(ctx context.Context, state S) (string, error) {
	if i.provider != nil {
		return i.provider.Instruction(ctx, state)
	}
	return i.text, nil
}
