// Package budget splits a generation run's latency budget between sections
// and provider attempts.
package budget

import (
	"context"
	"errors"
	"time"
)

// ErrBudgetExceeded is returned when too little time remains to start a provider attempt.
var ErrBudgetExceeded = errors.New("time budget exceeded")

const (
	// FirstAttemptShare is the fraction of the remaining budget given to an attempt
	// that may still be retried.
	FirstAttemptShare = 0.7
	// MinAttempt is the shortest slice worth starting a provider call with.
	MinAttempt = 50 * time.Millisecond
	// DefaultSectionShare leaves headroom for validation and assembly.
	DefaultSectionShare = 0.9
)

// Allocator derives per-section budgets from an overall run timeout.
type Allocator struct {
	overall time.Duration
	share   float64
}

// New creates an Allocator. A share outside (0, 1] uses DefaultSectionShare.
func New(overall time.Duration, share float64) *Allocator {
	if share <= 0 || share > 1 {
		share = DefaultSectionShare
	}
	return &Allocator{overall: overall, share: share}
}

// Overall returns the run timeout.
func (a *Allocator) Overall() time.Duration {
	return a.overall
}

// Section returns the flat budget each section fetcher receives.
// Sections run concurrently, so every section gets the same share.
func (a *Allocator) Section() time.Duration {
	return time.Duration(float64(a.overall) * a.share)
}

// Attempt returns the slice of remaining given to the 1-based attempt out of maxAttempts.
// Every attempt but the last gets FirstAttemptShare; the last gets all of it.
func Attempt(remaining time.Duration, attempt, maxAttempts int) time.Duration {
	if remaining <= 0 {
		return 0
	}
	if attempt >= maxAttempts {
		return remaining
	}
	return time.Duration(float64(remaining) * FirstAttemptShare)
}

// Remaining returns how much of budget is left at now, given start, capped by
// the context deadline.
func Remaining(ctx context.Context, start time.Time, budget time.Duration, now time.Time) time.Duration {
	left := budget - now.Sub(start)
	if dl, ok := ctx.Deadline(); ok {
		if untilDeadline := dl.Sub(now); untilDeadline < left {
			left = untilDeadline
		}
	}
	if left < 0 {
		return 0
	}
	return left
}

// Check returns ErrBudgetExceeded if remaining is below MinAttempt.
func Check(remaining time.Duration) error {
	if remaining < MinAttempt {
		return ErrBudgetExceeded
	}
	return nil
}
