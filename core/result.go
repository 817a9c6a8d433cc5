package core

import "fmt"

// Result is the outcome of one agent step: the (possibly updated) state, an
// optional value, and the control signal telling the composition what to do
// next. Value is meaningful only when Control is Continue or Halt.
type Result[S, V any] struct {
	State   S
	Value   V
	Control Control
}

// Ok builds a Continue result.
func Ok[S, V any](state S, value V) Result[S, V] {
	return Result[S, V]{State: state, Value: value, Control: Continue()}
}

// Fail builds an Error result carrying err.
func Fail[S, V any](state S, err error) Result[S, V] {
	return Result[S, V]{State: state, Control: Error(err)}
}

// ResultOf builds a result with an explicit control signal.
func ResultOf[S, V any](state S, value V, control Control) Result[S, V] {
	return Result[S, V]{State: state, Value: value, Control: control}
}

// Err returns the failure carried by the result, or nil.
func (r Result[S, V]) Err() error { return r.Control.Err() }

// Unwrap returns the value and the failure, if any.
func (r Result[S, V]) Unwrap() (V, error) { return r.Value, r.Control.Err() }

func (r Result[S, V]) String() string {
	return fmt.Sprintf("Result{control=%s value=%v}", r.Control, r.Value)
}

// Recast keeps State and Control but discards the value, producing a result of
// a different value type. It is how non-Continue outcomes short-circuit
// through type-changing compositions.
func Recast[R, S, V any](r Result[S, V]) Result[S, R] {
	return Result[S, R]{State: r.State, Control: r.Control}
}

// MapState applies f to the state only; value and control are untouched.
func (r Result[S, V]) MapState(f func(S) S) Result[S, V] {
	return Result[S, V]{State: f(r.State), Value: r.Value, Control: r.Control}
}

// MapValue applies f to the value only, changing the value type. State and
// control are untouched whatever the control kind.
func MapValue[S, V, R any](r Result[S, V], f func(V) R) Result[S, R] {
	return Result[S, R]{State: r.State, Value: f(r.Value), Control: r.Control}
}
