package orders

import (
	"context"
	"fmt"
	"sync/atomic"
	"time"
)

const numberDateLayout = "20060102"

// Sequencer hands out the counter part of order numbers.
type Sequencer interface {
	Next(ctx context.Context, day time.Time) (int64, error)
}

// CounterSequencer is a process-lifetime counter. It restarts at 1 with the
// process, so numbers can repeat across restarts.
type CounterSequencer struct {
	n atomic.Int64
}

func (c *CounterSequencer) Next(context.Context, time.Time) (int64, error) {
	return c.n.Add(1), nil
}

type counterStore interface {
	IncrWithTTL(ctx context.Context, key string, ttl time.Duration) (int64, error)
	CounterKey(parts ...string) string
}

// RedisSequencer keeps one counter per calendar day in redis, which survives restarts.
type RedisSequencer struct {
	store counterStore
}

func NewRedisSequencer(store counterStore) *RedisSequencer {
	return &RedisSequencer{store: store}
}

func (r *RedisSequencer) Next(ctx context.Context, day time.Time) (int64, error) {
	key := r.store.CounterKey("order_number", day.Format(numberDateLayout))
	return r.store.IncrWithTTL(ctx, key, 48*time.Hour)
}

// Numberer formats order numbers as <prefix><YYYYMMDD><4-digit sequence>.
type Numberer struct {
	prefix string
	seq    Sequencer
}

func NewNumberer(prefix string, seq Sequencer) *Numberer {
	if seq == nil {
		seq = &CounterSequencer{}
	}
	return &Numberer{prefix: prefix, seq: seq}
}

func (n *Numberer) Next(ctx context.Context, at time.Time) (string, error) {
	seq, err := n.seq.Next(ctx, at)
	if err != nil {
		return "", fmt.Errorf("next order sequence: %w", err)
	}
	return fmt.Sprintf("%s%s%04d", n.prefix, at.Format(numberDateLayout), seq), nil
}
