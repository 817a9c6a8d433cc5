package core

import (
	"context"
	"fmt"
	"sort"
)

// Runnable is the type-erased form of an agent, as stored in a Registry.
// Invoke must report a State of the wrong dynamic type as Error(ErrStateType)
// rather than panicking.
type Runnable interface {
	Name() string
	Invoke(ctx context.Context, env Env[any]) Result[any, any]
}

// Registry is a read-only lookup from agent name to Runnable. It is built once
// and has no mutation methods, so it can be shared by concurrent branches of
// a run without synchronization. A nil *Registry is empty.
type Registry struct {
	agents map[string]Runnable
	names  []string
}

// NewRegistry builds a registry from named runnables.
func NewRegistry(agents ...Runnable) (*Registry, error) {
	r := &Registry{agents: make(map[string]Runnable, len(agents))}
	for _, a := range agents {
		if a == nil || a.Name() == "" {
			return nil, ErrUnnamedAgent
		}
		name := a.Name()
		if _, exists := r.agents[name]; exists {
			return nil, fmt.Errorf("%w: %q", ErrDuplicateAgent, name)
		}
		r.agents[name] = a
		r.names = append(r.names, name)
	}
	sort.Strings(r.names)
	return r, nil
}

// MustRegistry is like NewRegistry but panics on error. Intended for
// assembly code and tests where a bad registry is a programming error.
func MustRegistry(agents ...Runnable) *Registry {
	r, err := NewRegistry(agents...)
	if err != nil {
		panic(err)
	}
	return r
}

// Lookup returns the runnable registered under name.
func (r *Registry) Lookup(name string) (Runnable, error) {
	if r != nil {
		if a, ok := r.agents[name]; ok {
			return a, nil
		}
	}
	return nil, fmt.Errorf("%w: %q", ErrAgentNotFound, name)
}

// Has reports whether name is registered.
func (r *Registry) Has(name string) bool {
	_, err := r.Lookup(name)
	return err == nil
}

// Names returns the registered names in sorted order.
func (r *Registry) Names() []string {
	if r == nil {
		return nil
	}
	return append([]string(nil), r.names...)
}

// Len returns the number of registered agents.
func (r *Registry) Len() int {
	if r == nil {
		return 0
	}
	return len(r.names)
}
