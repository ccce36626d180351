package layout

import "sync"

// Cache memoizes rendered display strings keyed by item index. It is
// bounded and evicted in insertion order: the engine renders in viewport
// order, so the oldest entries are the ones that scrolled away. Entries
// stored under an older renderer generation miss on lookup.
type Cache struct {
	mutex   sync.Mutex
	cap     int
	entries map[uint32]cacheEntry
	order   []uint32
}

type cacheEntry struct {
	display string
	gen     uint64
}

// DefaultCacheSize bounds the cache when NewCache is given zero.
const DefaultCacheSize = 1024

// NewCache creates a Cache holding at most capacity entries.
func NewCache(capacity int) *Cache {
	if capacity <= 0 {
		capacity = DefaultCacheSize
	}
	return &Cache{
		cap:     capacity,
		entries: make(map[uint32]cacheEntry, capacity),
	}
}

// Get returns the cached rendering of the item under the given renderer
// generation.
func (c *Cache) Get(item uint32, gen uint64) (string, bool) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	e, ok := c.entries[item]
	if !ok || e.gen != gen {
		return "", false
	}
	return e.display, true
}

// Put stores a rendering, evicting the oldest insertion when full.
func (c *Cache) Put(item uint32, gen uint64, display string) {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	if _, ok := c.entries[item]; !ok {
		for len(c.entries) >= c.cap && len(c.order) > 0 {
			oldest := c.order[0]
			c.order = c.order[1:]
			delete(c.entries, oldest)
		}
		c.order = append(c.order, item)
	}
	c.entries[item] = cacheEntry{display: display, gen: gen}
}

// Purge empties the cache.
func (c *Cache) Purge() {
	c.mutex.Lock()
	defer c.mutex.Unlock()
	c.entries = make(map[uint32]cacheEntry, c.cap)
	c.order = nil
}
