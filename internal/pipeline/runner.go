package pipeline

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"time"

	"github.com/vietddude/legisync/internal/core/errs"
	"github.com/vietddude/legisync/internal/metrics"
)

// Runner defines retry behavior for one unit of work.
type Runner struct {
	// MaxAttempts is the total number of attempts, first call included.
	MaxAttempts int
	// InitialWait is the wait after the first failure; it doubles per attempt.
	InitialWait time.Duration
	// MaxWait caps a single wait. Zero means no cap.
	MaxWait time.Duration
	// IsTransient decides whether a failure is worth another attempt.
	IsTransient func(error) bool
	// Sleep blocks between attempts. Tests replace it to skip real delays.
	Sleep func(ctx context.Context, d time.Duration) error
	Log   *slog.Logger
}

// DefaultRunner provides sensible defaults.
var DefaultRunner = Runner{
	MaxAttempts: 3,
	InitialWait: 2 * time.Second,
	MaxWait:     time.Minute,
}

// SleepContext waits for d or until ctx is done.
func SleepContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

func (r Runner) withDefaults() Runner {
	if r.MaxAttempts < 1 {
		r.MaxAttempts = 1
	}
	if r.IsTransient == nil {
		r.IsTransient = errs.IsTransient
	}
	if r.Sleep == nil {
		r.Sleep = SleepContext
	}
	if r.Log == nil {
		r.Log = slog.Default()
	}
	return r
}

// Wait returns the delay after the given failed attempt (1-based):
// InitialWait * 2^(attempt-1), capped by MaxWait.
func (r Runner) Wait(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	d := r.InitialWait
	for i := 1; i < attempt; i++ {
		d *= 2
		if r.MaxWait > 0 && d >= r.MaxWait {
			return r.MaxWait
		}
	}
	if r.MaxWait > 0 && d > r.MaxWait {
		return r.MaxWait
	}
	return d
}

// Retry runs fn until it succeeds, fails permanently, or runs out of attempts.
// Attempts are strictly serial. A permanent failure returns at once without
// waiting; after the last attempt the final transient failure is returned.
func Retry[T any](ctx context.Context, r Runner, name string, fn func(ctx context.Context) (T, error)) (T, error) {
	r = r.withDefaults()

	var zero T
	var lastErr error
	for attempt := 1; attempt <= r.MaxAttempts; attempt++ {
		v, err := fn(ctx)
		if err == nil {
			return v, nil
		}
		lastErr = err

		if !r.IsTransient(err) {
			return zero, err
		}
		if attempt == r.MaxAttempts {
			break
		}

		wait := r.Wait(attempt)
		metrics.StageRetries.WithLabelValues(name).Inc()
		r.Log.Warn("Transient failure, retrying",
			"stage", name,
			"attempt", attempt,
			"max_attempts", r.MaxAttempts,
			"wait", wait,
			"error", errs.Loggable(err),
		)

		if err := r.Sleep(ctx, wait); err != nil {
			return zero, fmt.Errorf("%s: retry wait interrupted: %w", name, errors.Join(err, lastErr))
		}
	}

	return zero, fmt.Errorf("failed after %d attempts: %w", r.MaxAttempts, lastErr)
}
