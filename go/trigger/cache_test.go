package trigger

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func TestCompletionCacheDedup(t *testing.T) {
	var cache, err = NewCompletionCache(0)
	require.NoError(t, err)

	require.False(t, cache.Seen("2025-01-01", "extractor_completed"))
	require.True(t, cache.Seen("2025-01-01", "extractor_completed"))

	// Distinct dates and events are distinct keys.
	require.False(t, cache.Seen("2025-01-02", "extractor_completed"))
	require.False(t, cache.Seen("2025-01-01", "cleaner_completed"))
	require.Equal(t, 3, cache.Len())
}

func TestCompletionCachePurge(t *testing.T) {
	var cache, err = NewCompletionCache(16)
	require.NoError(t, err)

	require.False(t, cache.Seen("2025-01-01", "extractor_completed"))
	cache.Purge()
	require.Equal(t, 0, cache.Len())
	require.False(t, cache.Seen("2025-01-01", "extractor_completed"))
}

func TestCompletionCacheFirstSeen(t *testing.T) {
	var cache, err = NewCompletionCache(16)
	require.NoError(t, err)

	var before = time.Now()
	cache.Seen("2025-01-01", "extractor_started")
	cache.Seen("2025-01-01", "extractor_started") // Doesn't reset the clock.

	var seen, ok = cache.FirstSeen("2025-01-01", "extractor_started")
	require.True(t, ok)
	require.False(t, seen.Before(before))

	_, ok = cache.FirstSeen("2025-01-02", "extractor_started")
	require.False(t, ok)
}
