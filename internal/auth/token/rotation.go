package token

import (
	"context"
	"fmt"
	"sync"

	goredis "github.com/redis/go-redis/v9"
)

// RotationStore tracks a monotonically increasing rotation identifier
// per user. The issuer consults it to reject superseded refresh tokens
// when rotation is enabled.
type RotationStore interface {
	// Next advances and returns the user's rotation identifier.
	Next(ctx context.Context, userID string) (int64, error)
	// Current returns the user's latest rotation identifier, or zero
	// if none was ever issued.
	Current(ctx context.Context, userID string) (int64, error)
}

// MemoryRotationStore is a process-local RotationStore for tests and
// single-instance deployments.
type MemoryRotationStore struct {
	mu       sync.Mutex
	counters map[string]int64
}

func NewMemoryRotationStore() *MemoryRotationStore {
	return &MemoryRotationStore{counters: make(map[string]int64)}
}

func (m *MemoryRotationStore) Next(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.counters[userID]++
	return m.counters[userID], nil
}

func (m *MemoryRotationStore) Current(_ context.Context, userID string) (int64, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.counters[userID], nil
}

// RedisRotationStore shares rotation identifiers across instances.
type RedisRotationStore struct {
	client *goredis.Client
	prefix string
}

func NewRedisRotationStore(client *goredis.Client) *RedisRotationStore {
	return &RedisRotationStore{
		client: client,
		prefix: "rotation:",
	}
}

func (r *RedisRotationStore) key(userID string) string {
	return r.prefix + userID
}

func (r *RedisRotationStore) Next(ctx context.Context, userID string) (int64, error) {
	n, err := r.client.Incr(ctx, r.key(userID)).Result()
	if err != nil {
		return 0, fmt.Errorf("rotation: incr: %w", err)
	}
	return n, nil
}

func (r *RedisRotationStore) Current(ctx context.Context, userID string) (int64, error) {
	n, err := r.client.Get(ctx, r.key(userID)).Int64()
	if err == goredis.Nil {
		return 0, nil
	}
	if err != nil {
		return 0, fmt.Errorf("rotation: get: %w", err)
	}
	return n, nil
}
