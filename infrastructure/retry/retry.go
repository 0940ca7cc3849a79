// Package retry runs an operation with bounded attempts and doubling backoff.
package retry

import (
	"context"
	"errors"
	"math"
	"time"

	"ncs-birthday-mailer/domain/failure"

	"github.com/sirupsen/logrus"
)

// ErrExhausted wraps the last error once every attempt has failed.
var ErrExhausted = errors.New("retries exhausted")

// Config defines retry behavior.
type Config struct {
	MaxAttempts    int           // Total attempts including the first
	InitialBackoff time.Duration // Wait after the first failure
	MaxBackoff     time.Duration // Upper bound on a single wait (0 = none)
	BackoffFactor  float64       // Multiplier applied after every failure
}

// DefaultConfig is three attempts waiting 2s then 4s.
func DefaultConfig() Config {
	return Config{
		MaxAttempts:    3,
		InitialBackoff: 2 * time.Second,
		BackoffFactor:  2.0,
	}
}

// SleepFunc waits for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Sleep is the real SleepFunc.
func Sleep(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Retrier executes operations under a Config.
type Retrier struct {
	cfg    Config
	sleep  SleepFunc
	logger logrus.FieldLogger
}

// Option configures a Retrier.
type Option func(*Retrier)

// WithSleep replaces the wait between attempts (for tests).
func WithSleep(sleep SleepFunc) Option {
	return func(r *Retrier) {
		r.sleep = sleep
	}
}

// WithLogger sets the logger for attempt warnings.
func WithLogger(logger logrus.FieldLogger) Option {
	return func(r *Retrier) {
		r.logger = logger
	}
}

// New creates a Retrier. A non-positive MaxAttempts means a single attempt.
func New(cfg Config, opts ...Option) *Retrier {
	if cfg.MaxAttempts < 1 {
		cfg.MaxAttempts = 1
	}
	if cfg.BackoffFactor <= 0 {
		cfg.BackoffFactor = 1
	}
	r := &Retrier{cfg: cfg, sleep: Sleep, logger: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Do runs fn until it succeeds, returns a fatal error, or the attempts run
// out. Fatal errors are returned unwrapped and immediately.
func (r *Retrier) Do(ctx context.Context, operation string, fn func(ctx context.Context) error) error {
	var lastErr error

	for attempt := 0; attempt < r.cfg.MaxAttempts; attempt++ {
		err := fn(ctx)
		if err == nil {
			if attempt > 0 {
				r.logger.WithFields(logrus.Fields{
					"operation": operation,
					"attempt":   attempt + 1,
				}).Info("Operation succeeded after retry")
			}
			return nil
		}
		lastErr = err

		if failure.IsFatal(err) {
			return err
		}

		if attempt == r.cfg.MaxAttempts-1 {
			break
		}

		backoff := r.Backoff(attempt)
		r.logger.WithFields(logrus.Fields{
			"operation":    operation,
			"attempt":      attempt + 1,
			"max_attempts": r.cfg.MaxAttempts,
			"backoff":      backoff,
		}).WithError(err).Warn("Operation failed, retrying")

		if err := r.sleep(ctx, backoff); err != nil {
			return err
		}
	}

	r.logger.WithFields(logrus.Fields{
		"operation": operation,
		"attempts":  r.cfg.MaxAttempts,
	}).WithError(lastErr).Warn("Max attempts exceeded")

	return errors.Join(ErrExhausted, lastErr)
}

// Backoff returns the wait after the given zero-based failed attempt.
func (r *Retrier) Backoff(attempt int) time.Duration {
	backoff := float64(r.cfg.InitialBackoff) * math.Pow(r.cfg.BackoffFactor, float64(attempt))
	if r.cfg.MaxBackoff > 0 && backoff > float64(r.cfg.MaxBackoff) {
		backoff = float64(r.cfg.MaxBackoff)
	}
	return time.Duration(backoff)
}
