package countries

import (
	"container/list"
	"sync"

	"github.com/couchcryptid/forest-climate-dashboard/internal/domain"
	"github.com/couchcryptid/forest-climate-dashboard/internal/observability"
)

// CachedResolver wraps a CountryResolver with an in-memory LRU cache.
// The offline table lookup is cheap; the cache is kept for its hit/miss
// metrics and so a remote resolver can sit behind the same decorator.
// Lookups are deterministic, so unresolved results are cached as well.
type CachedResolver struct {
	inner   domain.CountryResolver
	cache   *lruCache
	metrics *observability.Metrics
}

// NewCachedResolver creates a cache decorator around a resolver. metrics may
// be nil.
func NewCachedResolver(inner domain.CountryResolver, maxEntries int, metrics *observability.Metrics) *CachedResolver {
	return &CachedResolver{
		inner:   inner,
		cache:   newLRUCache(maxEntries),
		metrics: metrics,
	}
}

func (c *CachedResolver) Resolve(code string) domain.Resolution {
	if res, ok := c.cache.get(code); ok {
		c.observe("hit")
		return res
	}
	c.observe("miss")
	res := c.inner.Resolve(code)
	c.cache.put(code, res)
	return res
}

func (c *CachedResolver) observe(result string) {
	if c.metrics == nil {
		return
	}
	c.metrics.CountryCache.WithLabelValues(result).Inc()
}

// lruCache is a bounded, mutex-guarded map of resolutions ordered by use.
// The front of order is the most recently used code.
type lruCache struct {
	maxEntries int
	mu         sync.Mutex
	byCode     map[string]*list.Element
	order      *list.List
}

type cached struct {
	code string
	res  domain.Resolution
}

func newLRUCache(maxEntries int) *lruCache {
	return &lruCache{
		maxEntries: max(maxEntries, 1),
		byCode:     make(map[string]*list.Element),
		order:      list.New(),
	}
}

func (c *lruCache) get(code string) (domain.Resolution, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	el, ok := c.byCode[code]
	if !ok {
		return domain.Resolution{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*cached).res, true
}

func (c *lruCache) put(code string, res domain.Resolution) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if el, ok := c.byCode[code]; ok {
		el.Value.(*cached).res = res
		c.order.MoveToFront(el)
		return
	}

	c.byCode[code] = c.order.PushFront(&cached{code: code, res: res})
	for c.order.Len() > c.maxEntries {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.byCode, oldest.Value.(*cached).code)
	}
}

func (c *lruCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
