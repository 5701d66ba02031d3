package retry

import (
	"context"
	"fmt"
	"time"

	"github.com/gaborage/httpretry/logger"
)

// Outcome is the result of one attempt: a completed exchange or a timeout.
type Outcome[R any] struct {
	Response   R
	StatusCode int
	OK         bool
	TimedOut   bool
}

// Completed builds the outcome of an attempt that produced a response.
func Completed[R any](resp R, statusCode int, ok bool) Outcome[R] {
	return Outcome[R]{Response: resp, StatusCode: statusCode, OK: ok}
}

// TimedOut builds the outcome of an attempt that produced no response in time.
func TimedOut[R any]() Outcome[R] {
	return Outcome[R]{TimedOut: true}
}

// AttemptFunc performs one attempt. A non-nil error is a failure that is neither a
// response nor a timeout; it stops the loop and is returned unchanged.
type AttemptFunc[R any] func(ctx context.Context) (Outcome[R], error)

// SleepFunc blocks for d or until ctx is done.
type SleepFunc func(ctx context.Context, d time.Duration) error

// Observer receives the same events the executor logs.
type Observer interface {
	AttemptFinished(ctx context.Context, info AttemptInfo)
	WaitStarted(ctx context.Context, target string, retry int, delay time.Duration)
	Exhausted(ctx context.Context, target string, retries int)
}

// AttemptInfo describes a finished attempt. Attempt is 0 for the initial call and n for
// the nth retry.
type AttemptInfo struct {
	Target     string
	Attempt    int
	Class      Class
	StatusCode int
	Duration   time.Duration
}

// Executor runs the retry loop for a fixed Policy. It holds no per-request state and can
// be shared by any number of concurrent requests.
type Executor struct {
	policy   Policy
	log      logger.Logger
	sleep    SleepFunc
	observer Observer
}

// Option configures an Executor.
type Option func(*Executor)

// WithLogger sets the logger used for per-attempt and per-wait lines.
func WithLogger(log logger.Logger) Option {
	return func(e *Executor) {
		if log != nil {
			e.log = log
		}
	}
}

// WithSleep replaces the wait implementation.
func WithSleep(sleep SleepFunc) Option {
	return func(e *Executor) {
		if sleep != nil {
			e.sleep = sleep
		}
	}
}

// WithObserver registers an observer for attempts and waits.
func WithObserver(o Observer) Option {
	return func(e *Executor) {
		e.observer = o
	}
}

// NewExecutor creates an executor for policy.
func NewExecutor(policy Policy, opts ...Option) *Executor {
	e := &Executor{
		policy: policy,
		log:    logger.Nop(),
		sleep:  SleepWithContext,
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

// Policy returns the executor's policy.
func (e *Executor) Policy() Policy {
	return e.policy
}

// Execute runs attempt until it yields a terminal outcome or the retry budget is spent.
// target identifies the request in logs and errors, normally the full URL.
func Execute[R any](ctx context.Context, e *Executor, target string, attempt AttemptFunc[R]) (R, error) {
	var zero R
	attemptsMade := 0

	outcome, class, err := runAttempt(ctx, e, target, attemptsMade, attempt)
	if err != nil {
		return zero, err
	}

	for !class.Terminal() && attemptsMade < e.policy.MaxRetries {
		if delay, wait := e.policy.WaitBefore(attemptsMade); wait {
			e.log.Info().
				Str("url", target).
				Dur("delay", delay).
				Msgf("Waiting %s before next attempt", delay)
			if e.observer != nil {
				e.observer.WaitStarted(ctx, target, attemptsMade+1, delay)
			}
			if err := e.sleep(ctx, delay); err != nil {
				return zero, fmt.Errorf("retry backoff interrupted: %w", err)
			}
		}

		attemptsMade++
		e.log.Info().
			Str("url", target).
			Int("retry", attemptsMade).
			Int("max_retries", e.policy.MaxRetries).
			Msgf("Retry attempt: %d", attemptsMade)

		outcome, class, err = runAttempt(ctx, e, target, attemptsMade, attempt)
		if err != nil {
			return zero, err
		}
	}

	if outcome.TimedOut {
		if e.observer != nil {
			e.observer.Exhausted(ctx, target, attemptsMade)
		}
		return zero, &MaxRetriesExceededError{URL: target, Retries: attemptsMade}
	}
	return outcome.Response, nil
}

// runAttempt performs one attempt, classifies it and emits the per-attempt log line.
func runAttempt[R any](ctx context.Context, e *Executor, target string, n int, attempt AttemptFunc[R]) (Outcome[R], Class, error) {
	start := time.Now()
	outcome, err := attempt(ctx)
	elapsed := time.Since(start)
	if err != nil {
		e.log.Warn().
			Str("url", target).
			Int("attempt", n).
			Err(err).
			Msg("Request failed without a response")
		return outcome, ClassRetriable, err
	}

	class := e.policy.Classify(outcome.TimedOut, outcome.OK, outcome.StatusCode)
	switch class {
	case ClassTimeout:
		e.log.Warn().
			Str("url", target).
			Int("attempt", n).
			Bool("timeout", true).
			Msgf("Request for URL: %s timed out", target)
	case ClassSuccess:
		e.log.Debug().
			Str("url", target).
			Int("attempt", n).
			Int("status_code", outcome.StatusCode).
			Dur("elapsed", elapsed).
			Msgf("Request processed for URL: %s; HTTP response status code: %d", target, outcome.StatusCode)
	default:
		e.log.Warn().
			Str("url", target).
			Int("attempt", n).
			Int("status_code", outcome.StatusCode).
			Str("class", class.String()).
			Dur("elapsed", elapsed).
			Msgf("Request processed for URL: %s; HTTP response status code: %d", target, outcome.StatusCode)
	}

	if e.observer != nil {
		e.observer.AttemptFinished(ctx, AttemptInfo{
			Target:     target,
			Attempt:    n,
			Class:      class,
			StatusCode: outcome.StatusCode,
			Duration:   elapsed,
		})
	}
	return outcome, class, nil
}

// SleepWithContext waits for d, returning early with ctx.Err() when ctx is done.
func SleepWithContext(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return ctx.Err()
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-t.C:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}
