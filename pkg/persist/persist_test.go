package persist

import (
	"context"
	"errors"
	"testing"
	"time"

	goredis "github.com/redis/go-redis/v9"
	"github.com/stretchr/testify/require"
)

type snapshot struct {
	Items      []string `json:"items"`
	IsCartOpen bool     `json:"isCartOpen"`
}

func TestSliceRoundTripMemory(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	slice := NewSlice[snapshot](backend, "sess-1", CartSlice)

	_, ok, err := slice.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, slice.Save(ctx, snapshot{Items: []string{"p1"}, IsCartOpen: true}))

	loaded, ok, err := slice.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, snapshot{Items: []string{"p1"}, IsCartOpen: true}, loaded)

	other := NewSlice[snapshot](backend, "sess-2", CartSlice)
	_, ok, err = other.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok, "sessions must not share slices")

	require.NoError(t, slice.Clear(ctx))
	_, ok, err = slice.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)
}

func TestSliceRejectsCorruptSnapshot(t *testing.T) {
	ctx := context.Background()
	backend := NewMemoryBackend()
	require.NoError(t, backend.Write(ctx, "sess", AuthSlice, []byte("{not json")))

	_, ok, err := NewSlice[snapshot](backend, "sess", AuthSlice).Load(ctx)
	require.Error(t, err)
	require.False(t, ok)
}

func TestSliceRoundTripRedis(t *testing.T) {
	ctx := context.Background()
	store := newFakeStateStore()
	slice := NewSlice[snapshot](NewRedisBackend(store, time.Hour), "sess-1", CartSlice)

	_, ok, err := slice.Load(ctx)
	require.NoError(t, err)
	require.False(t, ok)

	require.NoError(t, slice.Save(ctx, snapshot{Items: []string{"p1", "p2"}}))
	require.Equal(t, `{"items":["p1","p2"],"isCartOpen":false}`, store.values["pl:state:sess-1:cart-storage"])
	require.Equal(t, time.Hour, store.ttls["pl:state:sess-1:cart-storage"])

	loaded, ok, err := slice.Load(ctx)
	require.NoError(t, err)
	require.True(t, ok)
	require.Equal(t, []string{"p1", "p2"}, loaded.Items)

	require.NoError(t, slice.Clear(ctx))
	require.Empty(t, store.values)
}

func TestRedisBackendPropagatesErrors(t *testing.T) {
	store := newFakeStateStore()
	store.err = errors.New("connection refused")
	_, _, err := NewSlice[snapshot](NewRedisBackend(store, 0), "s", LocationSlice).Load(context.Background())
	require.ErrorContains(t, err, "connection refused")
}

func TestNop(t *testing.T) {
	var p Persister[snapshot] = Nop[snapshot]{}
	require.NoError(t, p.Save(context.Background(), snapshot{}))
	_, ok, err := p.Load(context.Background())
	require.NoError(t, err)
	require.False(t, ok)
}

type fakeStateStore struct {
	values map[string]string
	ttls   map[string]time.Duration
	err    error
}

func newFakeStateStore() *fakeStateStore {
	return &fakeStateStore{values: map[string]string{}, ttls: map[string]time.Duration{}}
}

func (f *fakeStateStore) Get(_ context.Context, key string) (string, error) {
	if f.err != nil {
		return "", f.err
	}
	value, ok := f.values[key]
	if !ok {
		return "", goredis.Nil
	}
	return value, nil
}

func (f *fakeStateStore) Set(_ context.Context, key string, value any, ttl time.Duration) error {
	if f.err != nil {
		return f.err
	}
	f.values[key] = value.(string)
	f.ttls[key] = ttl
	return nil
}

func (f *fakeStateStore) Del(_ context.Context, keys ...string) error {
	for _, key := range keys {
		delete(f.values, key)
	}
	return nil
}

func (f *fakeStateStore) StateKey(sessionID, slice string) string {
	return "pl:state:" + sessionID + ":" + slice
}
