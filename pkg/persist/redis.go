package persist

import (
	"context"
	"time"

	"github.com/pharmalink/pharmalink-backend/pkg/redis"
)

// RedisBackend stores snapshots at pl:state:<session>:<slice> with a sliding TTL.
type RedisBackend struct {
	store redis.StateStore
	ttl   time.Duration
}

func NewRedisBackend(store redis.StateStore, ttl time.Duration) *RedisBackend {
	return &RedisBackend{store: store, ttl: ttl}
}

func (r *RedisBackend) Read(ctx context.Context, sessionID, slice string) ([]byte, error) {
	value, err := r.store.Get(ctx, r.store.StateKey(sessionID, slice))
	if redis.IsMiss(err) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, err
	}
	return []byte(value), nil
}

func (r *RedisBackend) Write(ctx context.Context, sessionID, slice string, data []byte) error {
	return r.store.Set(ctx, r.store.StateKey(sessionID, slice), string(data), r.ttl)
}

func (r *RedisBackend) Delete(ctx context.Context, sessionID, slice string) error {
	return r.store.Del(ctx, r.store.StateKey(sessionID, slice))
}
