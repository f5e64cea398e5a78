package forecast

import (
	"context"
	"sync"
	"time"

	"github.com/jonboulle/clockwork"
	"golang.org/x/sync/singleflight"

	"github.com/benchcutlogic/local-weather/internal/domain"
	"github.com/benchcutlogic/local-weather/internal/observability"
)

// CachedSource wraps a Source with an in-memory LRU+TTL cache and
// single-flight de-duplication, so a burst of page loads for one city costs
// one upstream fetch. Refresh notifications invalidate entries early; the
// TTL bounds staleness when no notification arrives.
type CachedSource struct {
	inner   Source
	ttl     time.Duration
	clock   clockwork.Clock
	metrics *observability.Metrics
	group   singleflight.Group
	cache   *lruCache
}

// NewCachedSource creates a cache decorator around a summary source. A nil
// clock means real time.
func NewCachedSource(inner Source, maxEntries int, ttl time.Duration, metrics *observability.Metrics, clock clockwork.Clock) *CachedSource {
	if clock == nil {
		clock = clockwork.NewRealClock()
	}
	return &CachedSource{
		inner:   inner,
		ttl:     ttl,
		clock:   clock,
		metrics: metrics,
		cache:   newLRUCache(maxEntries),
	}
}

func (c *CachedSource) FetchSummary(ctx context.Context, citySlug string) (*domain.ZoneSummaryResponse, error) {
	if summary, ok := c.cache.get(citySlug, c.clock.Now()); ok {
		c.metrics.SummaryCache.WithLabelValues("hit").Inc()
		return summary, nil
	}
	c.metrics.SummaryCache.WithLabelValues("miss").Inc()

	v, err, _ := c.group.Do(citySlug, func() (any, error) {
		summary, err := c.inner.FetchSummary(ctx, citySlug)
		if err != nil {
			return nil, err
		}
		c.cache.put(citySlug, summary, c.clock.Now().Add(c.ttl))
		return summary, nil
	})
	if err != nil {
		return nil, err
	}
	return v.(*domain.ZoneSummaryResponse), nil
}

// Invalidate drops a city's cached summary so the next request refetches.
// Unknown cities are a no-op. Implements refresh.Invalidator.
func (c *CachedSource) Invalidate(citySlug string) {
	c.cache.remove(citySlug)
}

// lruCache is a simple thread-safe LRU with per-entry expiry.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	entries    map[string]*entry
	head       *entry // most recently used
	tail       *entry // least recently used
}

type entry struct {
	key       string
	value     *domain.ZoneSummaryResponse
	expiresAt time.Time
	prev      *entry
	next      *entry
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: maxEntries,
		entries:    make(map[string]*entry),
	}
}

func (c *lruCache) get(key string, now time.Time) (*domain.ZoneSummaryResponse, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	e, ok := c.entries[key]
	if !ok {
		return nil, false
	}
	if now.After(e.expiresAt) {
		delete(c.entries, key)
		c.unlink(e)
		return nil, false
	}
	c.moveToFront(e)
	return e.value, true
}

func (c *lruCache) put(key string, value *domain.ZoneSummaryResponse, expiresAt time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		e.value = value
		e.expiresAt = expiresAt
		c.moveToFront(e)
		return
	}

	e := &entry{key: key, value: value, expiresAt: expiresAt}
	c.entries[key] = e
	c.addToFront(e)

	if len(c.entries) > c.maxEntries {
		c.evictTail()
	}
}

func (c *lruCache) remove(key string) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if e, ok := c.entries[key]; ok {
		delete(c.entries, key)
		c.unlink(e)
	}
}

func (c *lruCache) moveToFront(e *entry) {
	if e == c.head {
		return
	}
	c.unlink(e)
	c.addToFront(e)
}

func (c *lruCache) addToFront(e *entry) {
	e.next = c.head
	e.prev = nil
	if c.head != nil {
		c.head.prev = e
	}
	c.head = e
	if c.tail == nil {
		c.tail = e
	}
}

func (c *lruCache) unlink(e *entry) {
	if e.prev != nil {
		e.prev.next = e.next
	} else {
		c.head = e.next
	}
	if e.next != nil {
		e.next.prev = e.prev
	} else {
		c.tail = e.prev
	}
}

func (c *lruCache) evictTail() {
	if c.tail == nil {
		return
	}
	delete(c.entries, c.tail.key)
	c.unlink(c.tail)
}
