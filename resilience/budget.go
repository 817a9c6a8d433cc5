package resilience

import (
	"fmt"
	"sync"
)

// Budget enforces a maximum number of port calls, typically per run.
// A Budget with max 0 allows unlimited calls.
type Budget struct {
	max   int
	count int
	mu    sync.Mutex
}

// NewBudget creates a budget allowing max calls.
func NewBudget(max int) *Budget {
	return &Budget{max: max}
}

// Take consumes one call and returns an error wrapping ErrBudgetExceeded
// once the limit is exceeded.
func (b *Budget) Take() error {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max > 0 && b.count >= b.max {
		return fmt.Errorf("%w: exceeded max calls: %d", ErrBudgetExceeded, b.max)
	}

	b.count++

	return nil
}

// Count returns the number of calls made.
func (b *Budget) Count() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	return b.count
}

// Remaining returns how many calls are left, or -1 when unlimited.
func (b *Budget) Remaining() int {
	b.mu.Lock()
	defer b.mu.Unlock()

	if b.max == 0 {
		return -1
	}

	return b.max - b.count
}

// Reset sets the call count back to zero.
func (b *Budget) Reset() {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.count = 0
}
