// Package retry provides attempt-bounded backoff loops for connection
// establishment.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// ErrExhausted is matched by the error Do returns once the attempt
// budget is used up.
var ErrExhausted = errors.New("retry budget exhausted")

// ── Permanent errors ─────────────────────────────────────────────────

// PermanentError wraps an error to signal that retrying will not help.
// Return [Permanent](err) from the operation function to stop retrying
// immediately.
type PermanentError struct {
	Err error
}

func (e *PermanentError) Error() string { return e.Err.Error() }
func (e *PermanentError) Unwrap() error { return e.Err }

// Permanent marks err as non-retryable.  The backoff loop will return
// the inner error immediately without further attempts.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &PermanentError{Err: err}
}

// IsPermanent reports whether err has been marked as permanent.
func IsPermanent(err error) bool {
	var pe *PermanentError
	return errors.As(err, &pe)
}

// ── Strategy ─────────────────────────────────────────────────────────

// Strategy selects how the wait grows between attempts.
type Strategy int

const (
	// StrategyConstant waits Delay between every pair of attempts.
	StrategyConstant Strategy = iota
	// StrategyLinear waits Delay × n after the n-th failed attempt.
	StrategyLinear
)

func (s Strategy) String() string {
	switch s {
	case StrategyConstant:
		return "constant"
	case StrategyLinear:
		return "linear"
	default:
		return "unknown"
	}
}

// ── Backoff ──────────────────────────────────────────────────────────

// Backoff bounds an operation to MaxAttempts tries with a wait between
// consecutive tries.  No wait happens before the first attempt or after
// the last one.
type Backoff struct {
	Strategy Strategy
	// Delay is the base wait.  Zero means retry immediately.
	Delay time.Duration
	// MaxAttempts is the total number of tries including the first.
	// Set to 0 for unlimited retries (until context cancelled).
	MaxAttempts int
	// OnRetry, when set, is called after a failed attempt and before
	// the wait that precedes the next one.
	OnRetry func(attempt int, err error, wait time.Duration)
}

// Linear returns a backoff that waits unit × attempt between tries.
func Linear(unit time.Duration, attempts int) *Backoff {
	return &Backoff{Strategy: StrategyLinear, Delay: unit, MaxAttempts: attempts}
}

// Constant returns a backoff that waits delay between tries.
func Constant(delay time.Duration, attempts int) *Backoff {
	return &Backoff{Strategy: StrategyConstant, Delay: delay, MaxAttempts: attempts}
}

// Wait returns the pause that follows the given failed attempt
// (1-based).
func (b *Backoff) Wait(attempt int) time.Duration {
	if b.Delay <= 0 || attempt < 1 {
		return 0
	}
	if b.Strategy == StrategyLinear {
		return b.Delay * time.Duration(attempt)
	}
	return b.Delay
}

// Do executes fn repeatedly until it succeeds, returns a permanent
// error, or the retry budget (attempts / context) is exhausted.
//
// The attempt parameter passed to fn is 1-based.  On success fn should
// return nil.  To abort retrying, wrap the error with [Permanent].
func (b *Backoff) Do(ctx context.Context, fn func(attempt int) error) error {
	for attempt := 1; ; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}

		// Permanent errors are never retried.
		var pe *PermanentError
		if errors.As(err, &pe) {
			return pe.Err
		}

		// Check attempt budget.
		if b.MaxAttempts > 0 && attempt >= b.MaxAttempts {
			return fmt.Errorf("%w after %d attempt(s): %w", ErrExhausted, attempt, err)
		}

		wait := b.Wait(attempt)
		if b.OnRetry != nil {
			b.OnRetry(attempt, err, wait)
		}

		if err := sleep(ctx, wait); err != nil {
			return fmt.Errorf("retry cancelled: %w", err)
		}
	}
}

func sleep(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	timer := time.NewTimer(d)
	defer timer.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-timer.C:
		return nil
	}
}
