// Package provider wraps external content, weather, and places backends
// with classified errors, bounded retries, and rate limiting.
package provider

import (
	"context"
	"log/slog"
	"time"

	"golang.org/x/sync/semaphore"
	"golang.org/x/time/rate"

	"github.com/wayfarer-ai/wayfarer/pkg/budget"
)

// DefaultMaxAttempts bounds provider calls per Fetch.
const DefaultMaxAttempts = 2

// Backend performs a single call against an external provider.
type Backend[Q, R any] interface {
	Call(ctx context.Context, q Q) (R, error)
}

// BackendFunc adapts a function to Backend.
type BackendFunc[Q, R any] func(ctx context.Context, q Q) (R, error)

// Call implements Backend.
func (f BackendFunc[Q, R]) Call(ctx context.Context, q Q) (R, error) { return f(ctx, q) }

// Observer receives one outcome per provider attempt. Outcome is "success" or a Kind.
type Observer interface {
	ObserveAttempt(provider, outcome string)
}

// Options configure a Client.
type Options[Q, R any] struct {
	Name        string
	RPS         float64
	Burst       int
	MaxInFlight int64
	MaxAttempts int
	Logger      *slog.Logger
	Observer    Observer
	Now         func() time.Time

	// Accept, if set, inspects a successful response; an error marks the
	// attempt KindMalformed so it is retried like any other bad response.
	Accept func(q Q, r R) error
}

// Client calls a Backend with a time budget, retry, and concurrency bounds.
type Client[Q, R any] struct {
	name        string
	backend     Backend[Q, R]
	limiter     *rate.Limiter
	sem         *semaphore.Weighted
	maxAttempts int
	accept      func(Q, R) error
	log         *slog.Logger
	observer    Observer
	now         func() time.Time
}

// NewClient creates a Client. Zero RPS or MaxInFlight disables that bound.
func NewClient[Q, R any](backend Backend[Q, R], opts Options[Q, R]) *Client[Q, R] {
	c := &Client[Q, R]{
		name:        opts.Name,
		backend:     backend,
		maxAttempts: opts.MaxAttempts,
		accept:      opts.Accept,
		log:         opts.Logger,
		observer:    opts.Observer,
		now:         opts.Now,
	}
	if c.maxAttempts <= 0 {
		c.maxAttempts = DefaultMaxAttempts
	}
	if c.log == nil {
		c.log = slog.Default()
	}
	if c.now == nil {
		c.now = time.Now
	}
	if opts.RPS > 0 {
		burst := opts.Burst
		if burst <= 0 {
			burst = 1
		}
		c.limiter = rate.NewLimiter(rate.Limit(opts.RPS), burst)
	}
	if opts.MaxInFlight > 0 {
		c.sem = semaphore.NewWeighted(opts.MaxInFlight)
	}
	return c
}

// Name returns the provider name used in errors and metrics.
func (c *Client[Q, R]) Name() string { return c.name }

// Fetch calls the backend within total. The first attempt gets 70% of the
// remaining budget and a retry gets the rest. Auth failures are not retried.
// Every returned error is an *Error.
func (c *Client[Q, R]) Fetch(ctx context.Context, q Q, total time.Duration) (R, error) {
	var zero R
	start := c.now()
	var last *Error

	for attempt := 1; attempt <= c.maxAttempts; attempt++ {
		remaining := budget.Remaining(ctx, start, total, c.now())
		if err := budget.Check(remaining); err != nil {
			if last == nil {
				last = &Error{Kind: KindTimeout, Provider: c.name, Err: err}
			}
			break
		}

		r, err := c.attempt(ctx, q, budget.Attempt(remaining, attempt, c.maxAttempts))
		if err == nil {
			c.observe("success")
			return r, nil
		}
		last = err
		c.observe(string(err.Kind))

		if !err.Kind.Retryable() || ctx.Err() != nil {
			break
		}
		if attempt < c.maxAttempts {
			c.log.Warn("provider attempt failed, retrying",
				"provider", c.name, "attempt", attempt, "kind", err.Kind, "err", err.Err)
		}
	}
	return zero, last
}

func (c *Client[Q, R]) attempt(ctx context.Context, q Q, slice time.Duration) (R, *Error) {
	var zero R
	actx, cancel := context.WithTimeout(ctx, slice)
	defer cancel()

	if c.limiter != nil {
		if err := c.limiter.Wait(actx); err != nil {
			return zero, c.waitError(ctx, err)
		}
	}
	if c.sem != nil {
		if err := c.sem.Acquire(actx, 1); err != nil {
			return zero, c.waitError(ctx, err)
		}
		defer c.sem.Release(1)
	}

	r, err := c.backend.Call(actx, q)
	if err != nil {
		return zero, Classify(c.name, err)
	}
	if c.accept != nil {
		if err := c.accept(q, r); err != nil {
			return zero, &Error{Kind: KindMalformed, Provider: c.name, Err: err}
		}
	}
	return r, nil
}

// waitError distinguishes a run that ended from a pool that stayed saturated.
func (c *Client[Q, R]) waitError(ctx context.Context, err error) *Error {
	if ctx.Err() != nil {
		return &Error{Kind: KindTimeout, Provider: c.name, Err: ctx.Err()}
	}
	return &Error{Kind: KindRateLimited, Provider: c.name, Err: err}
}

func (c *Client[Q, R]) observe(outcome string) {
	if c.observer != nil {
		c.observer.ObserveAttempt(c.name, outcome)
	}
}
