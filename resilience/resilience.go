// Package resilience decorates capability ports with retry, circuit breaking,
// rate limiting and call budgets, using fortify.
//
// Transport-level resilience belongs to the ports, not to the agent algebra:
// agent.Retry re-runs a pipeline on a Retry control, while these decorators
// retry a single failing model or tool call before the agent ever sees it.
package resilience

import (
	"context"
	"errors"
	"time"

	"github.com/felixgeelhaar/fortify/circuitbreaker"
	"github.com/felixgeelhaar/fortify/ratelimit"
	"github.com/felixgeelhaar/fortify/retry"

	"github.com/hupe1980/agentkernel/logging"
)

var (
	// ErrBudgetExceeded is returned once a Budget has no calls left.
	ErrBudgetExceeded = errors.New("call budget exceeded")
	// ErrRateLimited is returned when the rate limiter rejects a call.
	ErrRateLimited = errors.New("rate limit exceeded")
)

// Options configures the port decorators. Zero values disable the
// corresponding mechanism.
type Options struct {
	// RetryMaxAttempts is the total number of attempts per call; values
	// below 2 disable retries.
	RetryMaxAttempts int
	// RetryInitialDelay is the delay before the first retry.
	RetryInitialDelay time.Duration
	// RetryMultiplier is the exponential backoff multiplier.
	RetryMultiplier float64

	// BreakerThreshold is the number of consecutive failures that opens the
	// circuit; zero disables the breaker.
	BreakerThreshold int
	// BreakerTimeout is how long the circuit stays open.
	BreakerTimeout time.Duration

	// RateLimit is the number of calls allowed per second; zero disables
	// rate limiting.
	RateLimit int
	// RateBurst is the bucket size; it defaults to RateLimit.
	RateBurst int

	// Budget caps the number of calls made through the decorator.
	Budget *Budget

	Logger logging.Logger
}

// DefaultOptions returns the defaults used by NewModel and NewTools.
func DefaultOptions() Options {
	return Options{
		RetryMaxAttempts:  3,
		RetryInitialDelay: 100 * time.Millisecond,
		RetryMultiplier:   2.0,
		BreakerThreshold:  5,
		BreakerTimeout:    30 * time.Second,
		Logger:            logging.NoOpLogger{},
	}
}

func buildOptions(optFns []func(o *Options)) Options {
	opts := DefaultOptions()
	for _, fn := range optFns {
		fn(&opts)
	}
	if opts.Logger == nil {
		opts.Logger = logging.NoOpLogger{}
	}
	return opts
}

// guard holds the fortify primitives shared by the decorators for one
// result type.
type guard[T any] struct {
	port    string
	retry   retry.Retry[T]
	breaker circuitbreaker.CircuitBreaker[T]
	limiter ratelimit.RateLimiter
	budget  *Budget
	logger  logging.Logger
}

func newGuard[T any](port string, opts Options) *guard[T] {
	g := &guard[T]{port: port, budget: opts.Budget, logger: opts.Logger}

	if opts.RetryMaxAttempts > 1 {
		multiplier := opts.RetryMultiplier
		if multiplier < 1 {
			multiplier = 1
		}
		g.retry = retry.New[T](retry.Config{
			MaxAttempts:        opts.RetryMaxAttempts,
			InitialDelay:       opts.RetryInitialDelay,
			BackoffPolicy:      retry.BackoffExponential,
			Multiplier:         multiplier,
			NonRetryableErrors: []error{context.Canceled, context.DeadlineExceeded, ErrBudgetExceeded},
		})
	}

	if opts.BreakerThreshold > 0 {
		threshold := uint32(opts.BreakerThreshold) // #nosec G115 -- checked positive above
		g.breaker = circuitbreaker.New[T](circuitbreaker.Config{
			MaxRequests: 1,
			Interval:    opts.BreakerTimeout,
			Timeout:     opts.BreakerTimeout,
			ReadyToTrip: func(counts circuitbreaker.Counts) bool {
				return counts.ConsecutiveFailures >= threshold
			},
		})
	}

	if opts.RateLimit > 0 {
		burst := opts.RateBurst
		if burst <= 0 {
			burst = opts.RateLimit
		}
		g.limiter = ratelimit.New(&ratelimit.Config{
			Rate:  opts.RateLimit,
			Burst: burst,
		})
	}

	return g
}

// do runs fn through rate limiter, budget, circuit breaker and retry, in
// that order. The budget is charged once per call, not per attempt.
func (g *guard[T]) do(ctx context.Context, op string, fn func(ctx context.Context) (T, error)) (T, error) {
	var zero T

	if g.limiter != nil && !g.limiter.Allow(ctx, g.port) {
		g.logger.Warn("resilience.rate_limited", "port", g.port, "op", op)
		return zero, ErrRateLimited
	}

	if g.budget != nil {
		if err := g.budget.Take(); err != nil {
			g.logger.Warn("resilience.budget_exceeded", "port", g.port, "op", op, "error", err)
			return zero, err
		}
	}

	call := fn
	if g.retry != nil {
		call = func(ctx context.Context) (T, error) {
			return g.retry.Do(ctx, fn)
		}
	}

	start := time.Now()

	var (
		out T
		err error
	)

	if g.breaker != nil {
		out, err = g.breaker.Execute(ctx, call)
	} else {
		out, err = call(ctx)
	}

	if err != nil {
		g.logger.Warn("resilience.call_failed", "port", g.port, "op", op, "duration", time.Since(start), "error", err)
		return zero, err
	}

	return out, nil
}

// breakerState reports the circuit state, or "disabled".
func (g *guard[T]) breakerState() string {
	if g.breaker == nil {
		return "disabled"
	}
	return g.breaker.State().String()
}
