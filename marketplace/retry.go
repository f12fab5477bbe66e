package marketplace

import (
	"context"
	"fmt"
	"math"
	"math/rand"
	"net/http"
	"time"

	"github.com/sirupsen/logrus"
)

const (
	maxRetries   = 5
	baseDelay    = time.Second
	maxDelay     = 5 * time.Minute
	jitterFactor = 0.1
)

// retryable reports whether the marketplace response deserves another try:
// throttling (429) and server-side failures (5xx).
func retryable(status int) bool {
	return status == http.StatusTooManyRequests || (status >= 500 && status < 600)
}

// retryWithBackoff runs op until it succeeds, fails with a non-retryable
// error, or exhausts the retry budget. op returns the HTTP status so the
// helper can decide; an op error with status 0 is treated as a network
// failure and retried.
func retryWithBackoff(ctx context.Context, logger *logrus.Logger, name string, op func() (int, error)) error {
	var lastErr error
	for attempt := 1; attempt <= maxRetries; attempt++ {
		status, err := op()
		if err == nil {
			return nil
		}
		lastErr = err
		if status != 0 && !retryable(status) {
			return err
		}
		if attempt == maxRetries {
			break
		}

		delay := time.Duration(math.Min(
			float64(baseDelay)*math.Pow(2, float64(attempt-1))+
				rand.Float64()*float64(baseDelay)*jitterFactor,
			float64(maxDelay),
		))
		logger.WithFields(logrus.Fields{
			"operation": name,
			"attempt":   attempt,
			"status":    status,
			"delay":     delay.String(),
		}).Warn("marketplace.retry")

		timer := time.NewTimer(delay)
		select {
		case <-ctx.Done():
			timer.Stop()
			return ctx.Err()
		case <-timer.C:
		}
	}
	return fmt.Errorf("%s failed after %d attempts: %w", name, maxRetries, lastErr)
}
