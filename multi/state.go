package multi

import (
	"encoding/json"
	"maps"
	"slices"
)

// State is the state shape of multi-agent pipelines: the name of the agent
// that ran last, an append-only shared channel visible to every agent, and
// the private sub-state of each agent keyed by name.
//
// State is immutable. Every change yields a new State and existing shared
// entries are never modified, removed or reordered.
type State struct {
	current string
	shared  []any
	locals  map[string]any
	steps   int

	// fork is the length of shared when the enclosing Concurrent forked,
	// plus one; zero means the state is not inside a fork.
	fork int
}

// NewState returns a state whose shared channel starts with the given entries.
func NewState(shared ...any) State {
	return State{shared: slices.Clone(shared)}
}

// Current returns the name of the last agent handed control, or "".
func (s State) Current() string { return s.current }

// Shared returns a copy of the shared channel.
func (s State) Shared() []any { return slices.Clone(s.shared) }

// SharedLen returns the number of shared entries.
func (s State) SharedLen() int { return len(s.shared) }

// Locals returns a copy of the per-agent sub-states.
func (s State) Locals() map[string]any { return maps.Clone(s.locals) }

// Local returns the sub-state of name.
func (s State) Local(name string) (any, bool) {
	v, ok := s.locals[name]
	return v, ok
}

// Steps returns how many handoffs this state has been through.
func (s State) Steps() int { return s.steps }

// Append returns a copy of s with msg added to the shared channel.
func (s State) Append(msg any) State {
	s.shared = append(slices.Clip(s.shared), msg)
	return s
}

func (s State) withLocal(name string, sub any) State {
	locals := make(map[string]any, len(s.locals)+1)
	maps.Copy(locals, s.locals)
	locals[name] = sub
	s.locals = locals
	return s
}

func (s State) handedTo(name string) State {
	s.current = name
	s.steps++
	return s
}

func (s State) forked() State {
	s.fork = len(s.shared) + 1
	return s
}

// forkBase returns the shared length at fork time, or 0 outside a fork.
func (s State) forkBase() int {
	if s.fork == 0 {
		return 0
	}
	return s.fork - 1
}

type stateJSON struct {
	Current string         `json:"current,omitempty"`
	Shared  []any          `json:"shared"`
	Locals  map[string]any `json:"locals,omitempty"`
	Steps   int            `json:"steps,omitempty"`
}

// MarshalJSON encodes the state. The registry is not part of the state and
// is never serialized.
func (s State) MarshalJSON() ([]byte, error) {
	shared := s.shared
	if shared == nil {
		shared = []any{}
	}
	return json.Marshal(stateJSON{Current: s.current, Shared: shared, Locals: s.locals, Steps: s.steps})
}

// UnmarshalJSON decodes a state. Sub-states come back as generic JSON values.
func (s *State) UnmarshalJSON(data []byte) error {
	var raw stateJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*s = State{current: raw.Current, shared: raw.Shared, locals: raw.Locals, steps: raw.Steps}
	return nil
}

// Envelope is the shared-channel entry written by Broadcast.
type Envelope struct {
	From    string `json:"from,omitempty"`
	To      string `json:"to"`
	Payload any    `json:"payload"`
}
