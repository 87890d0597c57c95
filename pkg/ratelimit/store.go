package ratelimit

import (
	"container/list"
	"context"
	"sync"
	"time"
)

// DefaultMaxKeys bounds the number of clients tracked by a MemoryStore.
const DefaultMaxKeys = 10000

// Store records request timestamps per key.
type Store interface {
	// CheckAndAdd counts requests after cutoff and, if fewer than limit,
	// records now. It returns whether now was recorded, the count including
	// it, and the oldest timestamp still in the window.
	CheckAndAdd(ctx context.Context, key string, now, cutoff time.Time, limit int) (allowed bool, count int, oldest time.Time, err error)
	// Cleanup drops timestamps at or before cutoff and forgets empty keys.
	Cleanup(ctx context.Context, cutoff time.Time) (removed int, err error)
	// KeyCount returns the number of tracked keys.
	KeyCount(ctx context.Context) (int, error)
}

// MemoryStore is a Store held in process memory. When MaxKeys is reached the
// least recently used tenth of the keys is evicted.
//
// Thread safety: MemoryStore is safe for concurrent use.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]*list.Element
	lru     *list.List
	maxKeys int

	// OnEvict, when set, is called with the number of keys evicted.
	OnEvict func(n int)
}

type storeEntry struct {
	key        string
	timestamps []time.Time
}

// NewMemoryStore creates a MemoryStore. maxKeys <= 0 means DefaultMaxKeys.
func NewMemoryStore(maxKeys int) *MemoryStore {
	if maxKeys <= 0 {
		maxKeys = DefaultMaxKeys
	}
	return &MemoryStore{
		entries: make(map[string]*list.Element),
		lru:     list.New(),
		maxKeys: maxKeys,
	}
}

// CheckAndAdd implements Store.
func (s *MemoryStore) CheckAndAdd(_ context.Context, key string, now, cutoff time.Time, limit int) (bool, int, time.Time, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	el, ok := s.entries[key]
	if !ok {
		if len(s.entries) >= s.maxKeys {
			s.evict()
		}
		el = s.lru.PushFront(&storeEntry{key: key})
		s.entries[key] = el
	} else {
		s.lru.MoveToFront(el)
	}

	e := el.Value.(*storeEntry)
	e.timestamps = prune(e.timestamps, cutoff)

	if len(e.timestamps) >= limit {
		return false, len(e.timestamps), e.timestamps[0], nil
	}
	e.timestamps = append(e.timestamps, now)
	return true, len(e.timestamps), e.timestamps[0], nil
}

// Cleanup implements Store.
func (s *MemoryStore) Cleanup(_ context.Context, cutoff time.Time) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for key, el := range s.entries {
		e := el.Value.(*storeEntry)
		e.timestamps = prune(e.timestamps, cutoff)
		if len(e.timestamps) == 0 {
			s.lru.Remove(el)
			delete(s.entries, key)
			removed++
		}
	}
	return removed, nil
}

// KeyCount implements Store.
func (s *MemoryStore) KeyCount(_ context.Context) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries), nil
}

// evict removes the least recently used keys. Caller holds s.mu.
func (s *MemoryStore) evict() {
	n := max(s.maxKeys/10, 1)
	evicted := 0
	for ; evicted < n; evicted++ {
		el := s.lru.Back()
		if el == nil {
			break
		}
		s.lru.Remove(el)
		delete(s.entries, el.Value.(*storeEntry).key)
	}
	if s.OnEvict != nil && evicted > 0 {
		s.OnEvict(evicted)
	}
}

// prune drops timestamps at or before cutoff. Timestamps are kept in
// ascending order so the expired ones form a prefix.
func prune(ts []time.Time, cutoff time.Time) []time.Time {
	i := 0
	for i < len(ts) && !ts[i].After(cutoff) {
		i++
	}
	if i == 0 {
		return ts
	}
	return append(ts[:0], ts[i:]...)
}
