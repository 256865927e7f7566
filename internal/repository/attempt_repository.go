package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"
)

const attemptKeyPrefix = "otp:attempts:"

// AttemptRepository counts failed one-time-code verifications in Redis.
// A nil client turns every call into a no-op.
type AttemptRepository struct {
	client *redis.Client
	window time.Duration
}

// NewAttemptRepository constructs an attempt counter with the given window.
func NewAttemptRepository(client *redis.Client, window time.Duration) *AttemptRepository {
	return &AttemptRepository{client: client, window: window}
}

// Count returns the failures recorded for the registration number.
func (r *AttemptRepository) Count(ctx context.Context, registrationNumber string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	n, err := r.client.Get(ctx, attemptKey(registrationNumber)).Int64()
	if err != nil {
		if err == redis.Nil {
			return 0, nil
		}
		return 0, fmt.Errorf("redis get attempts: %w", err)
	}
	return n, nil
}

// Increment records a failure and returns the new count. The window starts
// with the first failure.
func (r *AttemptRepository) Increment(ctx context.Context, registrationNumber string) (int64, error) {
	if r.client == nil {
		return 0, nil
	}
	key := attemptKey(registrationNumber)
	pipe := r.client.TxPipeline()
	incr := pipe.Incr(ctx, key)
	pipe.ExpireNX(ctx, key, r.window)
	if _, err := pipe.Exec(ctx); err != nil {
		return 0, fmt.Errorf("redis incr attempts: %w", err)
	}
	return incr.Val(), nil
}

// Reset forgets the failures for the registration number.
func (r *AttemptRepository) Reset(ctx context.Context, registrationNumber string) error {
	if r.client == nil {
		return nil
	}
	if err := r.client.Del(ctx, attemptKey(registrationNumber)).Err(); err != nil {
		return fmt.Errorf("redis delete attempts: %w", err)
	}
	return nil
}

// Close releases the underlying Redis connection if present.
func (r *AttemptRepository) Close() error {
	if r.client == nil {
		return nil
	}
	return r.client.Close()
}

func attemptKey(registrationNumber string) string {
	return attemptKeyPrefix + registrationNumber
}
