package cache

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStoreExpiry(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "k", []byte("v"), time.Minute))

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("v"), got)

	now = now.Add(time.Minute)
	_, err = store.Get(ctx, "k")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestMemoryStoreCopiesValues(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	value := []byte("abc")
	require.NoError(t, store.Set(ctx, "k", value, time.Minute))
	value[0] = 'z'

	got, err := store.Get(ctx, "k")
	require.NoError(t, err)
	assert.Equal(t, []byte("abc"), got)
}

func TestTakeIsSingleUse(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()
	require.NoError(t, store.Set(ctx, "state", []byte("payload"), time.Minute))

	got, err := Take(ctx, store, "state")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	_, err = Take(ctx, store, "state")
	assert.ErrorIs(t, err, ErrMiss)
}

func TestTakeConcurrentCallersGetOneValue(t *testing.T) {
	ctx := context.Background()
	store := NewMemoryStore()

	for round := 0; round < 20; round++ {
		require.NoError(t, store.Set(ctx, "state", []byte("payload"), time.Minute))

		var (
			wg     sync.WaitGroup
			mu     sync.Mutex
			winner int
			misses int
		)
		for i := 0; i < 16; i++ {
			wg.Add(1)
			go func() {
				defer wg.Done()
				_, err := Take(ctx, store, "state")
				mu.Lock()
				defer mu.Unlock()
				if err == nil {
					winner++
				} else if assert.ErrorIs(t, err, ErrMiss) {
					misses++
				}
			}()
		}
		wg.Wait()

		assert.Equal(t, 1, winner)
		assert.Equal(t, 15, misses)
	}
}

func TestTakeExpiredEntryIsMiss(t *testing.T) {
	ctx := context.Background()
	now := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	store := NewMemoryStore()
	store.now = func() time.Time { return now }

	require.NoError(t, store.Set(ctx, "state", []byte("payload"), time.Minute))
	now = now.Add(2 * time.Minute)

	_, err := store.Take(ctx, "state")
	assert.ErrorIs(t, err, ErrMiss)
	assert.Empty(t, store.entries)
}

// getDeleteStore hides Take so the fallback path is used
type getDeleteStore struct{ Store }

func TestTakeFallsBackToGetAndDelete(t *testing.T) {
	ctx := context.Background()
	store := getDeleteStore{NewMemoryStore()}
	_, ok := Store(store).(Taker)
	require.False(t, ok)

	require.NoError(t, store.Set(ctx, "state", []byte("payload"), time.Minute))

	got, err := Take(ctx, store, "state")
	require.NoError(t, err)
	assert.Equal(t, []byte("payload"), got)

	_, err = Take(ctx, store, "state")
	assert.ErrorIs(t, err, ErrMiss)
}
