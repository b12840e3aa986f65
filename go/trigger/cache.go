package trigger

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"
)

// DefaultCacheSize bounds the completion cache. At five events per
// date this comfortably covers years of daily runs.
const DefaultCacheSize = 4096

type eventKey struct {
	date  string
	event string
}

// CompletionCache remembers which (date, event) pairs have already been
// routed, so duplicate completion events are never forwarded twice. It
// is process-local by design: it's lost on restart, and purgeable via
// the /purge control.
type CompletionCache struct {
	cache *lru.Cache[eventKey, time.Time]
}

// NewCompletionCache returns a CompletionCache holding up to |size| entries.
func NewCompletionCache(size int) (*CompletionCache, error) {
	if size <= 0 {
		size = DefaultCacheSize
	}
	var cache, err = lru.New[eventKey, time.Time](size)
	if err != nil {
		return nil, err
	}
	return &CompletionCache{cache: cache}, nil
}

// Seen atomically records (date, event) and reports whether it had
// already been recorded. The check-and-insert is a single operation
// under the cache's lock.
func (c *CompletionCache) Seen(date, event string) bool {
	var seen, _ = c.cache.ContainsOrAdd(eventKey{date, event}, time.Now())
	return seen
}

// FirstSeen returns when (date, event) was first recorded, if it still is.
func (c *CompletionCache) FirstSeen(date, event string) (time.Time, bool) {
	return c.cache.Peek(eventKey{date, event})
}

// Purge empties the cache.
func (c *CompletionCache) Purge() { c.cache.Purge() }

// Len returns the number of cached (date, event) pairs.
func (c *CompletionCache) Len() int { return c.cache.Len() }
