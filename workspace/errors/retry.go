package errors

import (
	"context"
	"fmt"
	"math"
	"slices"
	"time"
)

// RetryConfig controls how a RetryOperation repeats a failing call.
type RetryConfig struct {
	MaxAttempts  int
	InitialDelay time.Duration
	MaxDelay     time.Duration
	Multiplier   float64
	// RetryableErrors lists codes retried in addition to errors that report
	// themselves as retryable.
	RetryableErrors []ErrorCode
}

// DefaultRetryConfig retries timeouts and journal errors three times.
func DefaultRetryConfig() *RetryConfig {
	return &RetryConfig{
		MaxAttempts:  3,
		InitialDelay: 100 * time.Millisecond,
		MaxDelay:     5 * time.Second,
		Multiplier:   2.0,
		RetryableErrors: []ErrorCode{
			ErrCodeTimeout,
			ErrCodeDatabase,
		},
	}
}

// Backoff returns the wait after the given failed attempt, counting from 1.
func (c *RetryConfig) Backoff(attempt int) time.Duration {
	if attempt < 1 {
		attempt = 1
	}
	multiplier := c.Multiplier
	if multiplier < 1 {
		multiplier = 1
	}

	delay := float64(c.InitialDelay) * math.Pow(multiplier, float64(attempt-1))
	if c.MaxDelay > 0 && delay > float64(c.MaxDelay) {
		return c.MaxDelay
	}
	return time.Duration(delay)
}

// ShouldRetry reports whether err may succeed on another attempt. Encoding and
// lookup errors never do.
func (c *RetryConfig) ShouldRetry(err error) bool {
	if IsCode(err, ErrCodeEncoding) || IsCode(err, ErrCodeLookup) {
		return false
	}
	var wsErr *WorkspaceError
	if As(err, &wsErr) && slices.Contains(c.RetryableErrors, wsErr.Code) {
		return true
	}
	return IsRetryable(err)
}

// RetryOperation runs Fn until it succeeds, fails with a terminal error, runs
// out of attempts or ctx is done.
type RetryOperation struct {
	Name    string
	Fn      func() error
	Config  *RetryConfig
	OnRetry func(attempt int, err error)
}

// Execute runs the operation. Terminal errors and context errors are returned
// unchanged; exhausting the attempts wraps the last error.
func (op *RetryOperation) Execute(ctx context.Context) error {
	cfg := op.Config
	if cfg == nil {
		cfg = DefaultRetryConfig()
	}
	attempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	for attempt := 1; attempt <= attempts; attempt++ {
		if err := ctx.Err(); err != nil {
			return err
		}

		lastErr = op.Fn()
		if lastErr == nil {
			return nil
		}
		if !cfg.ShouldRetry(lastErr) {
			return lastErr
		}
		if attempt == attempts {
			break
		}
		if op.OnRetry != nil {
			op.OnRetry(attempt, lastErr)
		}

		timer := time.NewTimer(cfg.Backoff(attempt))
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}

	name := op.Name
	if name == "" {
		name = "operation"
	}
	return NewWorkspaceError(ErrCodeInternal, "", fmt.Sprintf("%s failed after %d attempts", name, attempts), lastErr).
		WithContext("attempts", attempts)
}
