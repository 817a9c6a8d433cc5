package core

import "fmt"

// Kind enumerates the closed set of control signals. The numeric order is the
// severity order used by Merge: Continue < Retry < Halt < Error < Abort.
type Kind uint8

const (
	// KindContinue proceeds to the next composed step.
	KindContinue Kind = iota
	// KindRetry asks an enclosing retry boundary to re-execute.
	KindRetry
	// KindHalt terminates cooperatively with a final value.
	KindHalt
	// KindError stops with a diagnosable, recoverable cause.
	KindError
	// KindAbort stops unconditionally.
	KindAbort
)

// String returns the lower-case name of the kind.
func (k Kind) String() string {
	switch k {
	case KindContinue:
		return "continue"
	case KindRetry:
		return "retry"
	case KindHalt:
		return "halt"
	case KindError:
		return "error"
	case KindAbort:
		return "abort"
	default:
		return fmt.Sprintf("kind(%d)", uint8(k))
	}
}

// RetryMode selects which State a retry boundary re-enters with.
type RetryMode uint8

const (
	// RetryClean re-runs with the boundary's original input State (rollback).
	RetryClean RetryMode = iota
	// RetryDirty re-runs with the State carried by the retrying Result (adapt).
	RetryDirty
)

// Control is the outcome signal attached to every Result. The zero value is
// Continue. Controls are immutable values and safe to share.
type Control struct {
	kind   Kind
	mode   RetryMode
	value  any
	reason error
}

// Continue proceeds to the next composed step.
func Continue() Control { return Control{kind: KindContinue} }

// Retry requests a clean re-execution by an enclosing retry boundary.
func Retry(reason error) Control { return Control{kind: KindRetry, mode: RetryClean, reason: reason} }

// RetryWithState requests a re-execution that keeps the latest State.
func RetryWithState(reason error) Control {
	return Control{kind: KindRetry, mode: RetryDirty, reason: reason}
}

// Halt terminates the composition successfully with a final value.
func Halt(value any) Control { return Control{kind: KindHalt, value: value} }

// Error stops the composition with a structured cause. A nil reason is
// replaced by ErrUnspecified so the failure detail is never empty.
func Error(reason error) Control {
	if reason == nil {
		reason = ErrUnspecified
	}
	return Control{kind: KindError, reason: reason}
}

// Abort stops the composition unconditionally. The reason is optional.
func Abort(reason error) Control { return Control{kind: KindAbort, reason: reason} }

// Kind returns the signal kind.
func (c Control) Kind() Kind { return c.kind }

// Mode returns the retry mode; meaningful only for KindRetry.
func (c Control) Mode() RetryMode { return c.mode }

// Value returns the halt value; nil for every other kind.
func (c Control) Value() any { return c.value }

// Reason returns the attached cause, if any.
func (c Control) Reason() error { return c.reason }

// IsContinue reports whether composition may proceed.
func (c Control) IsContinue() bool { return c.kind == KindContinue }

// IsFailure reports whether the signal is Error or Abort.
func (c Control) IsFailure() bool { return c.kind == KindError || c.kind == KindAbort }

// IsTerminal reports whether the signal ends the enclosing composition
// without a failure being involved (Halt) or with one (Error/Abort).
func (c Control) IsTerminal() bool { return c.kind >= KindHalt }

// Severity returns the position of the signal in the merge lattice.
func (c Control) Severity() int { return int(c.kind) }

// Err returns a *ControlError for Error and Abort signals and nil otherwise.
func (c Control) Err() error {
	if !c.IsFailure() {
		return nil
	}
	return &ControlError{Kind: c.kind, Reason: c.reason}
}

// String renders the signal for logs and test failures.
func (c Control) String() string {
	switch c.kind {
	case KindHalt:
		return fmt.Sprintf("halt(%v)", c.value)
	case KindRetry, KindError, KindAbort:
		if c.reason != nil {
			return fmt.Sprintf("%s(%v)", c.kind, c.reason)
		}
	}
	return c.kind.String()
}

// Merge folds signals into the single dominant one. The most severe signal
// wins; among equally severe signals the first in argument order wins. The
// empty merge is Continue, which makes Continue the identity element.
func Merge(controls ...Control) Control {
	merged := Continue()
	for i, c := range controls {
		if i == 0 || c.kind > merged.kind {
			merged = c
		}
	}
	return merged
}
