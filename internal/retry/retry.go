// Package retry runs bus operations a bounded number of times with a pause
// between attempts.
package retry

import (
	"context"
	"errors"
	"fmt"
	"time"
)

// permanent marks an error that must not be retried.
type permanent struct {
	err error
}

func (p *permanent) Error() string { return p.err.Error() }
func (p *permanent) Unwrap() error { return p.err }

// Permanent stops Do after the current attempt.
func Permanent(err error) error {
	if err == nil {
		return nil
	}
	return &permanent{err: err}
}

func IsPermanent(err error) bool {
	var p *permanent
	return errors.As(err, &p)
}

// Config bounds a retry loop.
type Config struct {
	MaxAttempts int           // at least one attempt is always made
	Delay       time.Duration // pause between attempts
}

// ErrExhausted wraps the last failure once every attempt is used up.
var ErrExhausted = errors.New("retries exhausted")

// Do calls fn until it succeeds, returns a permanent error, ctx ends or the
// attempts are used up. The returned error wraps both ErrExhausted and the
// last failure in the exhausted case.
func Do(ctx context.Context, cfg Config, fn func(attempt int) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	var last error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		err := fn(attempt)
		if err == nil {
			return nil
		}
		if IsPermanent(err) {
			return errors.Unwrap(err)
		}
		last = err
		if attempt == cfg.MaxAttempts {
			break
		}
		if err := sleep(ctx, cfg.Delay); err != nil {
			return fmt.Errorf("retry cancelled after attempt %d: %w", attempt, err)
		}
	}
	return fmt.Errorf("%w after %d attempts: %w", ErrExhausted, cfg.MaxAttempts, last)
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
