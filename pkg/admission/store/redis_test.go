package store

import (
	"context"
	"os"
	"testing"

	"github.com/google/uuid"
)

// Redis tests need a live server. Set GANYMEDE_TEST_REDIS_ADDR to run
// them, e.g. "localhost:6379".

func openRedis(t *testing.T) *RedisStore {
	t.Helper()
	addr := os.Getenv("GANYMEDE_TEST_REDIS_ADDR")
	if addr == "" {
		t.Skip("GANYMEDE_TEST_REDIS_ADDR not set")
	}
	s, err := NewRedisStore(context.Background(), RedisConfig{Addr: addr})
	if err != nil {
		t.Fatalf("failed to open redis store: %v", err)
	}
	return s
}

func TestRedisStore_Conformance(t *testing.T) {
	conformance(t, "redis", func(t *testing.T) Store {
		s := openRedis(t)
		// Shared keyspace: scope every user id to this test run.
		return &prefixedStore{Store: s, prefix: uuid.NewString() + ":"}
	})
}
