package store

import (
	"context"
	"errors"
	"fmt"
	"math/rand"
	"time"
)

// RetryConfig bounds optimistic-conflict retries.
type RetryConfig struct {
	// MaxAttempts is the total number of attempts, including the first.
	// Default: 3
	MaxAttempts int

	// BaseBackoff is the backoff unit between attempts; the actual wait is
	// jittered in [BaseBackoff, 2*BaseBackoff) and doubles per attempt.
	// Default: 5ms
	BaseBackoff time.Duration
}

func (c RetryConfig) withDefaults() RetryConfig {
	if c.MaxAttempts <= 0 {
		c.MaxAttempts = 3
	}
	if c.BaseBackoff <= 0 {
		c.BaseBackoff = 5 * time.Millisecond
	}
	return c
}

// retryConflicts runs attempt, retrying only conflict errors up to the
// configured bound. Exhaustion is an infrastructure fault, not a decision.
func retryConflicts(ctx context.Context, cfg RetryConfig, attempt func() error) error {
	cfg = cfg.withDefaults()

	backoff := cfg.BaseBackoff
	var err error
	for i := 0; i < cfg.MaxAttempts; i++ {
		err = attempt()
		if err == nil || !errors.Is(err, errConflict) {
			return err
		}

		wait := backoff + time.Duration(rand.Int63n(int64(backoff)))
		select {
		case <-ctx.Done():
			return fmt.Errorf("%w: %v", ErrStoreUnavailable, ctx.Err())
		case <-time.After(wait):
		}
		backoff *= 2
	}
	return fmt.Errorf("%w: retries exhausted after %d attempts: %v",
		ErrStoreUnavailable, cfg.MaxAttempts, err)
}
