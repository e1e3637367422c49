package store

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/ShrimantaGarain/NSG-Weather-Bot/internal/weather"
)

func TestMemoryHistoryCache_DayScoped(t *testing.T) {
	c := NewMemoryHistoryCache()

	_, hit := c.Get("2026-10-18")
	require.False(t, hit)

	temp := 27.0
	c.Put("2026-10-18", &weather.HistoricalReading{Date: "2025-10-18", Temp: &temp})

	r, hit := c.Get("2026-10-18")
	require.True(t, hit)
	require.Equal(t, "2025-10-18", r.Date)

	_, hit = c.Get("2026-10-19")
	require.False(t, hit, "a new day must miss")
}

func TestMemoryHistoryCache_CachesAbsence(t *testing.T) {
	c := NewMemoryHistoryCache()
	c.Put("2026-10-18", nil)

	r, hit := c.Get("2026-10-18")
	require.True(t, hit)
	require.Nil(t, r)
}

func TestMemoryShownSet_EmptyAfterRollover(t *testing.T) {
	ctx := context.Background()

	for _, n := range []int{0, 1, 5, 100} {
		s := NewMemoryShownSet()
		for i := 0; i < n; i++ {
			added, err := s.Add(ctx, "2026-10-18", fmt.Sprintf("t3_%d", i))
			require.NoError(t, err)
			require.True(t, added)
		}
		require.Equal(t, n, s.Len("2026-10-18"))

		snap, err := s.Snapshot(ctx, "2026-10-19")
		require.NoError(t, err)
		require.Empty(t, snap)
		require.Zero(t, s.Len("2026-10-19"))
	}
}

func TestMemoryShownSet_AddReportsDuplicates(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryShownSet()

	added, err := s.Add(ctx, "2026-10-18", "t3_a")
	require.NoError(t, err)
	require.True(t, added)

	added, err = s.Add(ctx, "2026-10-18", "t3_a")
	require.NoError(t, err)
	require.False(t, added)

	snap, err := s.Snapshot(ctx, "2026-10-18")
	require.NoError(t, err)
	require.Contains(t, snap, "t3_a")
}

func TestMemoryShownSet_StaleDayDoesNotLeak(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryShownSet()

	_, err := s.Snapshot(ctx, "2026-10-19")
	require.NoError(t, err)

	for i := 0; i < 2; i++ {
		added, err := s.Add(ctx, "2026-10-18", "t3_old")
		require.NoError(t, err)
		require.False(t, added, "a stale day never reports the id as newly shown")
	}

	snap, err := s.Snapshot(ctx, "2026-10-19")
	require.NoError(t, err)
	require.NotContains(t, snap, "t3_old")
}

func TestMemoryShownSet_ConcurrentAdds(t *testing.T) {
	ctx := context.Background()
	s := NewMemoryShownSet()

	var (
		wg     sync.WaitGroup
		mu     sync.Mutex
		winner int
	)
	for i := 0; i < 32; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if added, _ := s.Add(ctx, "2026-10-18", "t3_same"); added {
				mu.Lock()
				winner++
				mu.Unlock()
			}
		}()
	}
	wg.Wait()

	require.Equal(t, 1, winner)
	require.Equal(t, 1, s.Len("2026-10-18"))
}
