package errors

import "errors"

var (
	// ErrNotFound is a generic sentinel for missing resources.
	ErrNotFound = errors.New("not found")
	// ErrValidation marks malformed caller-supplied input. The offending
	// record is rejected; batch processing continues.
	ErrValidation = errors.New("invalid input")
	// ErrDataInsufficient marks too few or too low-quality signals to score
	// with confidence. Callers resolve it with a low-confidence default
	// rather than surfacing a failure.
	ErrDataInsufficient = errors.New("insufficient data")
	// ErrUpstreamUnavailable marks an unreachable cache tier or store.
	// Callers fall back to recomputation before escalating.
	ErrUpstreamUnavailable = errors.New("upstream unavailable")
	// ErrConcurrencyConflict marks an exhausted optimistic-write retry on a
	// plan. Retryable by the caller.
	ErrConcurrencyConflict = errors.New("concurrent update conflict")
	// ErrPlanClosed marks a mutation attempted on a closed plan.
	ErrPlanClosed = errors.New("plan is closed")
)
