package provider

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"

	"github.com/wayfarer-ai/wayfarer/pkg/budget"
)

// Kind classifies a provider failure.
type Kind string

const (
	KindTimeout     Kind = "timeout"
	KindAuthMissing Kind = "auth_missing"
	KindAuthInvalid Kind = "auth_invalid"
	KindRateLimited Kind = "rate_limited"
	KindMalformed   Kind = "malformed"
	KindUnavailable Kind = "unavailable"
	KindUnknown     Kind = "unknown"
)

// Retryable reports whether another attempt could succeed.
// Credentials do not fix themselves between attempts, and a provider that
// has no data for the request will not have it a moment later.
func (k Kind) Retryable() bool {
	return k != KindAuthMissing && k != KindAuthInvalid && k != KindUnavailable
}

// Reason is the short human-readable explanation used in validation issues.
func (k Kind) Reason() string {
	switch k {
	case KindTimeout:
		return "provider timed out"
	case KindAuthMissing, KindAuthInvalid:
		return "provider auth error"
	case KindRateLimited:
		return "provider rate limited"
	case KindMalformed:
		return "provider returned malformed content"
	case KindUnavailable:
		return "provider has no data for the requested dates"
	default:
		return "provider error"
	}
}

// Error is the only error type a Client returns.
type Error struct {
	Kind     Kind
	Provider string
	Status   int
	Err      error
}

func (e *Error) Error() string {
	msg := fmt.Sprintf("%s: %s", e.Provider, e.Kind)
	if e.Status != 0 {
		msg += fmt.Sprintf(" (status %d)", e.Status)
	}
	if e.Err != nil {
		msg += ": " + e.Err.Error()
	}
	return msg
}

func (e *Error) Unwrap() error { return e.Err }

// Errorf builds an Error of kind with a formatted cause.
func Errorf(kind Kind, provider, format string, args ...any) *Error {
	return &Error{Kind: kind, Provider: provider, Err: fmt.Errorf(format, args...)}
}

// KindOf returns the kind of err, or KindUnknown if err is not an *Error.
func KindOf(err error) Kind {
	var pe *Error
	if errors.As(err, &pe) {
		return pe.Kind
	}
	return KindUnknown
}

// Classify converts any error returned by a backend into an *Error.
func Classify(provider string, err error) *Error {
	if err == nil {
		return nil
	}
	var pe *Error
	if errors.As(err, &pe) {
		if pe.Provider != "" {
			return pe
		}
		// pe may be shared by runs waiting on the same call; label a copy.
		cp := *pe
		cp.Provider = provider
		return &cp
	}
	kind := KindUnknown
	var netErr net.Error
	switch {
	case errors.Is(err, context.DeadlineExceeded), errors.Is(err, context.Canceled),
		errors.Is(err, budget.ErrBudgetExceeded):
		kind = KindTimeout
	case errors.As(err, &netErr) && netErr.Timeout():
		kind = KindTimeout
	}
	return &Error{Kind: kind, Provider: provider, Err: err}
}

// FromStatus classifies a non-2xx HTTP response.
func FromStatus(provider string, status int, body []byte) *Error {
	kind := KindUnknown
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = KindAuthInvalid
	case status == http.StatusTooManyRequests:
		kind = KindRateLimited
	case status == http.StatusRequestTimeout || status == http.StatusGatewayTimeout:
		kind = KindTimeout
	}
	if len(body) > 256 {
		body = body[:256]
	}
	return &Error{Kind: kind, Provider: provider, Status: status, Err: fmt.Errorf("upstream returned %d: %s", status, body)}
}
