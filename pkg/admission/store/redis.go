package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/redis/go-redis/v9"

	"mercator-hq/ganymede/pkg/admission/bucket"
)

const redisKeyPrefix = "ganymede:quota:"

// RedisStore persists quota state in Redis using the optimistic strategy:
// the state key is WATCHed, the update closure computes the candidate,
// and the write commits only if no concurrent writer touched the key.
// Conflicts are retried with jittered backoff up to the configured bound.
type RedisStore struct {
	client *redis.Client
	retry  RetryConfig
}

// RedisConfig configures the Redis store.
type RedisConfig struct {
	// Addr is the Redis server address, e.g. "localhost:6379".
	Addr string

	// Password authenticates against the server. Optional.
	Password string

	// DB selects the logical database. Default 0.
	DB int

	// Retry bounds optimistic-conflict retries.
	Retry RetryConfig
}

type redisState struct {
	Tokens     int64 `json:"tokens"`
	LastRefill int64 `json:"last_refill"`
	UpdatedAt  int64 `json:"updated_at"`
}

// NewRedisStore connects to Redis and verifies the connection.
func NewRedisStore(ctx context.Context, cfg RedisConfig) (*RedisStore, error) {
	if cfg.Addr == "" {
		return nil, fmt.Errorf("redis addr cannot be empty")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     cfg.Addr,
		Password: cfg.Password,
		DB:       cfg.DB,
	})
	if err := client.Ping(ctx).Err(); err != nil {
		client.Close()
		return nil, fmt.Errorf("failed to connect to redis: %w", err)
	}
	return &RedisStore{client: client, retry: cfg.Retry}, nil
}

// AtomicUpdate applies fn under a WATCH on the user's key. fn may run
// once per attempt when a concurrent writer forces a retry.
func (s *RedisStore) AtomicUpdate(ctx context.Context, userID string, fn UpdateFunc) (bucket.State, error) {
	if userID == "" {
		return bucket.State{}, ErrEmptyUserID
	}
	key := redisKeyPrefix + userID

	var applied bucket.State
	err := retryConflicts(ctx, s.retry, func() error {
		err := s.client.Watch(ctx, func(tx *redis.Tx) error {
			var prev *bucket.State
			data, err := tx.Get(ctx, key).Bytes()
			switch {
			case errors.Is(err, redis.Nil):
				prev = nil
			case err != nil:
				return fmt.Errorf("%w: read: %v", ErrStoreUnavailable, err)
			default:
				var rs redisState
				if err := json.Unmarshal(data, &rs); err != nil {
					return fmt.Errorf("%w: corrupt state for %q: %v", ErrStoreUnavailable, userID, err)
				}
				prev = &bucket.State{
					Tokens:     rs.Tokens,
					LastRefill: time.Unix(rs.LastRefill, 0).UTC(),
				}
			}

			next, err := fn(prev)
			if err != nil {
				return err
			}

			payload, err := json.Marshal(redisState{
				Tokens:     next.Tokens,
				LastRefill: next.LastRefill.Unix(),
				UpdatedAt:  time.Now().Unix(),
			})
			if err != nil {
				return fmt.Errorf("failed to marshal state: %w", err)
			}

			_, err = tx.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
				pipe.Set(ctx, key, payload, 0)
				return nil
			})
			if err != nil {
				return err
			}
			applied = next
			return nil
		}, key)

		if errors.Is(err, redis.TxFailedErr) {
			return errConflict
		}
		return err
	})
	if err != nil {
		return bucket.State{}, err
	}
	return applied, nil
}

// Cleanup scans the quota keyspace and removes entries not updated since
// olderThan. SCAN keeps the pass incremental; this is maintenance, not
// request-path work.
func (s *RedisStore) Cleanup(ctx context.Context, olderThan time.Time) (int, error) {
	deleted := 0
	iter := s.client.Scan(ctx, 0, redisKeyPrefix+"*", 100).Iterator()
	for iter.Next(ctx) {
		key := iter.Val()
		data, err := s.client.Get(ctx, key).Bytes()
		if errors.Is(err, redis.Nil) {
			continue
		}
		if err != nil {
			return deleted, fmt.Errorf("%w: cleanup read: %v", ErrStoreUnavailable, err)
		}
		var rs redisState
		if err := json.Unmarshal(data, &rs); err != nil {
			continue
		}
		if time.Unix(rs.UpdatedAt, 0).Before(olderThan) {
			if err := s.client.Del(ctx, key).Err(); err != nil {
				return deleted, fmt.Errorf("%w: cleanup delete: %v", ErrStoreUnavailable, err)
			}
			deleted++
		}
	}
	if err := iter.Err(); err != nil {
		return deleted, fmt.Errorf("%w: cleanup scan: %v", ErrStoreUnavailable, err)
	}
	return deleted, nil
}

// Close closes the Redis client.
func (s *RedisStore) Close() error {
	return s.client.Close()
}
