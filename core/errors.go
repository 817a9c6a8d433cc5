package core

import (
	"errors"
	"fmt"
)

var (
	// ErrUnspecified is attached to Error signals created without a cause.
	ErrUnspecified = errors.New("unspecified failure")
	// ErrAgentNotFound is returned when a registry lookup misses.
	ErrAgentNotFound = errors.New("agent not found")
	// ErrDuplicateAgent is returned when registering a name twice.
	ErrDuplicateAgent = errors.New("agent already registered")
	// ErrUnnamedAgent is returned when registering an agent without a name.
	ErrUnnamedAgent = errors.New("agent has no name")
	// ErrStateType is reported when a registered agent receives a State of
	// the wrong concrete type.
	ErrStateType = errors.New("state type mismatch")
	// ErrPortUnavailable is reported when a leaf agent needs a port the
	// environment does not provide.
	ErrPortUnavailable = errors.New("port unavailable")
	// ErrRetryExhausted marks a retry boundary that ran out of attempts.
	ErrRetryExhausted = errors.New("retry attempts exhausted")
	// ErrMaxSteps marks a repeat loop that reached its step cap.
	ErrMaxSteps = errors.New("max steps reached")
)

// ControlError exposes an Error or Abort signal through the error interface
// so callers outside the algebra can use errors.Is / errors.As.
type ControlError struct {
	Kind   Kind
	Reason error
}

func (e *ControlError) Error() string {
	if e.Reason == nil {
		return e.Kind.String()
	}
	return fmt.Sprintf("%s: %v", e.Kind, e.Reason)
}

func (e *ControlError) Unwrap() error { return e.Reason }

// PanicError carries a recovered panic value out of an agent step.
type PanicError struct {
	Agent string
	Value any
}

func (e *PanicError) Error() string {
	if e.Agent == "" {
		return fmt.Sprintf("agent panicked: %v", e.Value)
	}
	return fmt.Sprintf("agent %q panicked: %v", e.Agent, e.Value)
}

// Unwrap returns the panic value when it is itself an error.
func (e *PanicError) Unwrap() error {
	if err, ok := e.Value.(error); ok {
		return err
	}
	return nil
}

// PortError records a failed call to an external port.
type PortError struct {
	Port string
	Op   string
	Err  error
}

func (e *PortError) Error() string {
	return fmt.Sprintf("%s port %s: %v", e.Port, e.Op, e.Err)
}

func (e *PortError) Unwrap() error { return e.Err }
