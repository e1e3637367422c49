package store

import (
	"context"
	"sync"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/weather"
)

// MemoryHistoryCache is a concurrency-safe single-slot cache keyed by
// calendar day. Any day other than the stored one is a miss.
type MemoryHistoryCache struct {
	mu sync.RWMutex

	day     string
	reading *weather.HistoricalReading
	filled  bool
}

// NewMemoryHistoryCache creates an empty cache.
func NewMemoryHistoryCache() *MemoryHistoryCache {
	return &MemoryHistoryCache{}
}

// Get returns the reading stored for day. hit is false when the slot is
// empty or belongs to another day.
func (c *MemoryHistoryCache) Get(day string) (*weather.HistoricalReading, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	if !c.filled || c.day != day {
		return nil, false
	}
	return c.reading, true
}

// Put replaces the slot. A nil reading caches the absence for the day.
func (c *MemoryHistoryCache) Put(day string, reading *weather.HistoricalReading) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.day = day
	c.reading = reading
	c.filled = true
}

// MemoryShownSet holds the identifiers already shown today. The set resets
// itself lazily the first time it is touched on a new day.
type MemoryShownSet struct {
	mu sync.Mutex

	resetDay string
	ids      map[string]struct{}
}

// NewMemoryShownSet creates an empty set.
func NewMemoryShownSet() *MemoryShownSet {
	return &MemoryShownSet{ids: make(map[string]struct{})}
}

// rollover must be called with mu held. Days are ISO dates, so string order
// is calendar order.
func (s *MemoryShownSet) rollover(day string) bool {
	switch {
	case day == s.resetDay:
		return true
	case day > s.resetDay:
		s.resetDay = day
		s.ids = make(map[string]struct{})
		return true
	default:
		return false
	}
}

// Snapshot rolls the set over if needed and returns a copy of today's ids.
func (s *MemoryShownSet) Snapshot(_ context.Context, day string) (map[string]struct{}, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	out := make(map[string]struct{}, len(s.ids))
	if !s.rollover(day) {
		return out, nil
	}
	for id := range s.ids {
		out[id] = struct{}{}
	}
	return out, nil
}

// Add marks id as shown on day. It reports false when id was already shown
// or when day is older than the current reset day; such adds are dropped so
// a stale cycle cannot leak an identifier into the new day.
func (s *MemoryShownSet) Add(_ context.Context, day, id string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.rollover(day) {
		return false, nil
	}
	if _, ok := s.ids[id]; ok {
		return false, nil
	}
	s.ids[id] = struct{}{}
	return true, nil
}

// Len reports the size of the set for day, rolling over first.
func (s *MemoryShownSet) Len(day string) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !s.rollover(day) {
		return 0
	}
	return len(s.ids)
}
