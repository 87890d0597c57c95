package ratelimit

import (
	"context"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestMemoryStore_CheckAndAdd(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	t0 := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	allowed, count, oldest, err := s.CheckAndAdd(ctx, "k", t0, t0.Add(-time.Minute), 2)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 1, count)
	assert.Equal(t, t0, oldest)

	allowed, count, _, err = s.CheckAndAdd(ctx, "k", t0.Add(time.Second), t0.Add(-time.Minute), 2)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2, count)

	allowed, count, oldest, err = s.CheckAndAdd(ctx, "k", t0.Add(2*time.Second), t0.Add(-time.Minute), 2)
	require.NoError(t, err)
	assert.False(t, allowed)
	assert.Equal(t, 2, count)
	assert.Equal(t, t0, oldest)

	// A cutoff past the first request frees one slot.
	allowed, count, oldest, err = s.CheckAndAdd(ctx, "k", t0.Add(61*time.Second), t0.Add(time.Second/2), 2)
	require.NoError(t, err)
	assert.True(t, allowed)
	assert.Equal(t, 2, count)
	assert.Equal(t, t0.Add(time.Second), oldest)
}

func TestMemoryStore_EvictsLeastRecentlyUsed(t *testing.T) {
	s := NewMemoryStore(10)
	evicted := 0
	s.OnEvict = func(n int) { evicted += n }
	ctx := context.Background()
	now := time.Now()

	for i := 0; i < 10; i++ {
		_, _, _, err := s.CheckAndAdd(ctx, fmt.Sprintf("k%d", i), now, now.Add(-time.Minute), 5)
		require.NoError(t, err)
	}
	// Touch k0 so k1 becomes the oldest.
	_, _, _, err := s.CheckAndAdd(ctx, "k0", now, now.Add(-time.Minute), 5)
	require.NoError(t, err)

	_, _, _, err = s.CheckAndAdd(ctx, "new", now, now.Add(-time.Minute), 5)
	require.NoError(t, err)

	n, err := s.KeyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 10, n)
	assert.Equal(t, 1, evicted)
	assert.Contains(t, s.entries, "k0")
	assert.NotContains(t, s.entries, "k1")
}

func TestMemoryStore_Cleanup(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	t0 := time.Now()

	_, _, _, _ = s.CheckAndAdd(ctx, "old", t0, t0.Add(-time.Minute), 5)
	_, _, _, _ = s.CheckAndAdd(ctx, "fresh", t0.Add(time.Minute), t0, 5)

	removed, err := s.Cleanup(ctx, t0.Add(time.Second))
	require.NoError(t, err)
	assert.Equal(t, 1, removed)

	n, err := s.KeyCount(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
}

func TestMemoryStore_Concurrent(t *testing.T) {
	s := NewMemoryStore(0)
	ctx := context.Background()
	now := time.Now()

	var (
		wg      sync.WaitGroup
		mu      sync.Mutex
		allowed int
	)
	for i := 0; i < 50; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			ok, _, _, err := s.CheckAndAdd(ctx, "shared", now, now.Add(-time.Minute), 20)
			assert.NoError(t, err)
			if ok {
				mu.Lock()
				allowed++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()
	assert.Equal(t, 20, allowed)
}

func TestDecision_RetryAfterSeconds(t *testing.T) {
	tests := []struct {
		in   time.Duration
		want int64
	}{
		{in: 0, want: 0},
		{in: -time.Second, want: 0},
		{in: 1500 * time.Millisecond, want: 2},
		{in: 3 * time.Second, want: 3},
	}
	for _, tt := range tests {
		d := &Decision{RetryAfter: tt.in}
		assert.Equal(t, tt.want, d.RetryAfterSeconds(), tt.in.String())
	}
}
