// Package retry provides the backoff policy applied around content-generator
// calls, the only step in the pipeline that talks to a remote service.
package retry

import (
	"context"
	"time"

	"github.com/neural-chilli/codesworth/internal/cerrors"
)

// BackoffMode selects how delays grow between attempts.
type BackoffMode string

const (
	BackoffFixed       BackoffMode = "fixed"
	BackoffLinear      BackoffMode = "linear"
	BackoffExponential BackoffMode = "exponential"
)

// Policy encapsulates retry/backoff settings for transient failures.
// It is immutable after construction.
type Policy struct {
	Mode       BackoffMode   // fixed|linear|exponential
	Initial    time.Duration // base delay
	Max        time.Duration // cap for growth
	MaxRetries int           // maximum retry attempts after the first failure
}

// DefaultPolicy returns a sensible default policy (linear, 1s initial, 30s cap, 2 retries).
func DefaultPolicy() Policy {
	return Policy{Mode: BackoffLinear, Initial: time.Second, Max: 30 * time.Second, MaxRetries: 2}
}

// NewPolicy builds a policy from raw config fields. Zero or invalid values
// fall back to defaults, so the result is always usable.
func NewPolicy(mode string, initial, maxDuration time.Duration, maxRetries int) Policy {
	p := DefaultPolicy()
	if maxRetries >= 0 {
		p.MaxRetries = maxRetries
	}
	if initial > 0 {
		p.Initial = initial
	}
	if maxDuration > 0 {
		p.Max = maxDuration
	}
	switch BackoffMode(mode) {
	case BackoffFixed, BackoffLinear, BackoffExponential:
		p.Mode = BackoffMode(mode)
	}
	if p.Initial > p.Max {
		p.Initial = p.Max
	}
	return p
}

// Delay returns the backoff delay before the given retry (1-based: the first
// retry is 1). Growth is accumulated step by step and stops at the cap, so an
// exponential policy cannot overflow on large attempt numbers.
func (p Policy) Delay(retryCount int) time.Duration {
	if retryCount <= 0 {
		return 0
	}
	d := p.Initial
	for i := 1; i < retryCount; i++ {
		switch p.Mode {
		case BackoffFixed:
			// constant
		case BackoffExponential:
			d *= 2
		default:
			d += p.Initial
		}
		if d >= p.Max {
			return p.Max
		}
	}
	if d > p.Max {
		return p.Max
	}
	return d
}

// Do runs fn, retrying per the policy on error. A classified error marked
// non-retryable returns immediately; context cancellation stops both waiting
// and further attempts.
func (p Policy) Do(ctx context.Context, fn func() error) error {
	var lastErr error
	for attempt := 0; ; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}
		lastErr = fn()
		if lastErr == nil {
			return nil
		}
		if classified, ok := cerrors.AsClassified(lastErr); ok && !classified.CanRetry() {
			return lastErr
		}
		if attempt >= p.MaxRetries {
			return lastErr
		}
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(p.Delay(attempt + 1)):
		}
	}
}
