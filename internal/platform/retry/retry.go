// Package retry runs an operation until it succeeds, fails permanently or
// runs out of attempts, doubling the wait between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/jonboulle/clockwork"
)

type Policy struct {
	Attempts   int
	Backoff    time.Duration
	MaxBackoff time.Duration // zero means uncapped
	Clock      clockwork.Clock
	// Retryable reports whether err is worth another attempt. Nil retries
	// everything except context cancellation and Permanent errors.
	Retryable func(err error) bool
	OnRetry   func(attempt int, err error, wait time.Duration)
}

// Startup is the policy for reaching backing services while the process
// boots: a container orchestrator often starts us before the database.
func Startup(dependency string) Policy {
	return Policy{
		Attempts:   8,
		Backoff:    500 * time.Millisecond,
		MaxBackoff: 10 * time.Second,
		Clock:      clockwork.NewRealClock(),
		OnRetry: func(attempt int, err error, wait time.Duration) {
			slog.Warn("Dependency not reachable, retrying", "dependency", dependency, "attempt", attempt, "wait", wait, "error", err)
		},
	}
}

type permanentError struct{ err error }

func (e *permanentError) Error() string { return e.err.Error() }
func (e *permanentError) Unwrap() error { return e.err }

// Permanent marks err so Do returns it without retrying.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanentError{err: err}
}

func IsPermanent(err error) bool {
	var p *permanentError
	return errors.As(err, &p)
}

func (p Policy) retryable(err error) bool {
	if IsPermanent(err) || errors.Is(err, context.Canceled) {
		return false
	}
	if p.Retryable != nil {
		return p.Retryable(err)
	}
	return true
}

// Do calls op until it succeeds. The last error is returned wrapped with the
// attempt count.
func Do[T any](ctx context.Context, p Policy, op func(ctx context.Context) (T, error)) (T, error) {
	var zero T
	if p.Attempts < 1 {
		return zero, errors.New("retry policy needs at least one attempt")
	}
	clock := p.Clock
	if clock == nil {
		clock = clockwork.NewRealClock()
	}

	wait := p.Backoff
	for attempt := 1; ; attempt++ {
		val, err := op(ctx)
		if err == nil {
			return val, nil
		}
		if !p.retryable(err) {
			return zero, err
		}
		if attempt == p.Attempts {
			return zero, fmt.Errorf("giving up after %d attempts: %w", attempt, err)
		}

		if p.OnRetry != nil {
			p.OnRetry(attempt, err, wait)
		}

		timer := clock.NewTimer(wait)
		select {
		case <-timer.Chan():
		case <-ctx.Done():
			timer.Stop()
			return zero, fmt.Errorf("retry interrupted: %w", ctx.Err())
		}

		wait *= 2
		if p.MaxBackoff > 0 && wait > p.MaxBackoff {
			wait = p.MaxBackoff
		}
	}
}
