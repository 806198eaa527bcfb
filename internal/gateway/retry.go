package gateway

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"
)

// RetryConfig defines retry behavior for API requests.
type RetryConfig struct {
	MaxAttempts     int
	InitialDelay    time.Duration
	MaxDelay        time.Duration
	BackoffMultiple float64
}

// ErrorAction determines how to handle a failed request.
type ErrorAction int

const (
	ActionRetry ErrorAction = iota
	ActionFatal
)

// decodeError is a response that arrived but could not be parsed.
type decodeError struct {
	err error
}

func (e *decodeError) Error() string {
	return "parse response: " + e.err.Error()
}

func (e *decodeError) Unwrap() error {
	return ErrUnavailable
}

// ClassifyError determines the action for a failed request. Client errors
// other than 429 and malformed bodies are not retried.
func ClassifyError(err error) ErrorAction {
	if err == nil {
		return ActionFatal
	}

	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return ActionFatal
	}

	var de *decodeError
	if errors.As(err, &de) {
		return ActionFatal
	}

	var se *StatusError
	if errors.As(err, &se) {
		if se.Code == http.StatusTooManyRequests || se.Code >= 500 {
			return ActionRetry
		}
		return ActionFatal
	}

	// Network errors
	return ActionRetry
}

// withRetry runs fn with exponential backoff until it succeeds, fails
// fatally or runs out of attempts.
func withRetry(ctx context.Context, cfg RetryConfig, fn func() error) error {
	attempts := max(cfg.MaxAttempts, 1)

	var lastErr error
	for attempt := 0; attempt < attempts; attempt++ {
		err := fn()
		if err == nil {
			return nil
		}
		lastErr = err

		if ClassifyError(err) == ActionFatal || ctx.Err() != nil {
			return err
		}
		if attempt == attempts-1 {
			break
		}

		select {
		case <-ctx.Done():
			return err
		case <-time.After(calculateBackoff(attempt, cfg)):
		}
	}

	if attempts == 1 {
		return lastErr
	}
	return fmt.Errorf("failed after %d attempts: %w", attempts, lastErr)
}

func calculateBackoff(attempt int, cfg RetryConfig) time.Duration {
	mult := cfg.BackoffMultiple
	if mult <= 0 {
		mult = 2
	}
	delay := float64(cfg.InitialDelay) * math.Pow(mult, float64(attempt))
	if cfg.MaxDelay > 0 && delay > float64(cfg.MaxDelay) {
		delay = float64(cfg.MaxDelay)
	}
	return time.Duration(delay)
}
