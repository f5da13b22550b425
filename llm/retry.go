package llm

import (
	"context"
	"fmt"
	"time"

	"github.com/smallnest/deepresearch/log"
)

// RetryConfig configures WithRetry.
type RetryConfig struct {
	// Retries is the number of additional attempts after the first failure.
	Retries int
	// Delay is multiplied by the attempt number to get the wait before a retry.
	Delay time.Duration
	// Logger receives a warning per retry. Nil means no logging.
	Logger log.Logger
}

// WithRetry wraps client so failed calls are retried with linear backoff.
// With zero retries the client is returned unchanged. Context cancellation
// is never retried.
func WithRetry(client Client, cfg RetryConfig) Client {
	if cfg.Retries <= 0 {
		return client
	}
	logger := cfg.Logger
	if logger == nil {
		logger = &log.NoOpLogger{}
	}
	return ClientFunc(func(ctx context.Context, messages []Message) (string, error) {
		var lastErr error
		for attempt := 0; attempt <= cfg.Retries; attempt++ {
			if attempt > 0 {
				logger.Warn("retrying model call (attempt %d/%d): %v", attempt+1, cfg.Retries+1, lastErr)
				select {
				case <-ctx.Done():
					return "", ctx.Err()
				case <-time.After(cfg.Delay * time.Duration(attempt)):
				}
			}
			out, err := client.Invoke(ctx, messages)
			if err == nil {
				return out, nil
			}
			if ctx.Err() != nil {
				return "", err
			}
			lastErr = err
		}
		return "", fmt.Errorf("model call failed after %d attempts: %w", cfg.Retries+1, lastErr)
	})
}
