// Package resilience guards calls to the external stores (PostgreSQL, Redis,
// Kafka): retry with backoff when connecting, a circuit breaker around the
// optional rank cache and deadlines on report publishing. Indexing and
// scoring are never retried: a failed document is skipped and a full reindex
// is the recovery.
package resilience

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"math/rand/v2"
	"time"

	"github.com/Adithya-Monish-Kumar-K/relevance-eval/pkg/config"
)

const (
	backoffMultiplier = 2.0
	jitterFraction    = 0.1
)

// Retry calls fn until it succeeds, cfg.MaxAttempts is reached or ctx is
// done, sleeping with exponential backoff and jitter between attempts.
func Retry(ctx context.Context, name string, cfg config.RetryConfig, fn func(ctx context.Context) error) error {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 1
	}
	if cfg.InitialDelay <= 0 {
		cfg.InitialDelay = 100 * time.Millisecond
	}
	if cfg.MaxDelay < cfg.InitialDelay {
		cfg.MaxDelay = cfg.InitialDelay
	}
	logger := slog.Default().With("component", "retry", "operation", name)

	var lastErr error
	for attempt := 1; attempt <= cfg.MaxAttempts; attempt++ {
		if lastErr = fn(ctx); lastErr == nil {
			if attempt > 1 {
				logger.Info("succeeded after retry", "attempt", attempt)
			}
			return nil
		}
		if attempt == cfg.MaxAttempts {
			break
		}
		delay := Backoff(attempt, cfg)
		logger.Warn("attempt failed, retrying",
			"attempt", attempt,
			"max_attempts", cfg.MaxAttempts,
			"error", lastErr,
			"next_delay", delay,
		)
		timer := time.NewTimer(delay)
		select {
		case <-timer.C:
		case <-ctx.Done():
			timer.Stop()
			return fmt.Errorf("%s: retry aborted: %w", name, ctx.Err())
		}
	}
	return fmt.Errorf("%s: all %d attempts failed: %w", name, cfg.MaxAttempts, lastErr)
}

// Backoff returns the delay before attempt+1, capped at cfg.MaxDelay.
func Backoff(attempt int, cfg config.RetryConfig) time.Duration {
	base := float64(cfg.InitialDelay) * math.Pow(backoffMultiplier, float64(attempt-1))
	base += base * jitterFraction * (2*rand.Float64() - 1)
	if base > float64(cfg.MaxDelay) {
		base = float64(cfg.MaxDelay)
	}
	if base <= 0 {
		base = float64(cfg.InitialDelay)
	}
	return time.Duration(base)
}
