package multi

import "maps"

// MergedCurrent is the current marker set by ConcatShared.
const MergedCurrent = "merged"

// LastWins keeps the state of the last submitted branch.
func LastWins(states []State) State {
	if len(states) == 0 {
		return State{}
	}
	return states[len(states)-1]
}

// FirstWins keeps the state of the first submitted branch.
func FirstWins(states []State) State {
	if len(states) == 0 {
		return State{}
	}
	return states[0]
}

// ConcatShared keeps the shared entries that existed before the fork once and
// then appends the entries each branch added, branch by branch in submission
// order. Locals are combined with later branches winning on conflicts, steps
// is the maximum over the branches and current becomes MergedCurrent.
func ConcatShared(states []State) State {
	if len(states) == 0 {
		return State{}
	}

	base := min(states[0].forkBase(), len(states[0].shared))

	merged := State{
		current: MergedCurrent,
		shared:  append([]any(nil), states[0].shared[:base]...),
		locals:  map[string]any{},
	}

	for _, s := range states {
		from := min(s.forkBase(), len(s.shared))
		merged.shared = append(merged.shared, s.shared[from:]...)
		maps.Copy(merged.locals, s.locals)
		merged.steps = max(merged.steps, s.steps)
	}

	return merged
}
