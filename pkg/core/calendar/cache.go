package calendar

import (
	"fmt"
	"sync"
)

// holidayCache memoizes (year, region) holiday sets process-wide. Sets
// are immutable once computed, so sharing across runs is safe. The cache
// is bounded: once full, the oldest entry is evicted.
type holidayCache struct {
	mu      sync.Mutex
	entries map[string]map[string]string
	order   []string
	max     int
}

var cache = &holidayCache{
	entries: make(map[string]map[string]string),
	max:     64,
}

func cacheKey(year int, region string) string {
	return fmt.Sprintf("%d|%s", year, region)
}

func (c *holidayCache) get(year int, region string) (map[string]string, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	set, ok := c.entries[cacheKey(year, region)]
	return set, ok
}

func (c *holidayCache) put(year int, region string, set map[string]string) {
	c.mu.Lock()
	defer c.mu.Unlock()
	key := cacheKey(year, region)
	if _, exists := c.entries[key]; exists {
		return
	}
	if len(c.order) >= c.max {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = set
	c.order = append(c.order, key)
}
