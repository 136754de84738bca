package embedding

import "sync"

// fifoCache is a bounded map with insertion-order eviction. Unlike an LRU,
// reads never refresh an entry: once the cache is full the oldest inserted
// key is evicted regardless of how recently it was hit. Query traffic is
// heavily repetitive over a short window, so plain FIFO captures most of
// the benefit without the bookkeeping.
type fifoCache struct {
	mu       sync.Mutex
	capacity int
	entries  map[string][]float32
	order    []string
}

func newFIFOCache(capacity int) *fifoCache {
	if capacity < 1 {
		capacity = 1
	}
	return &fifoCache{
		capacity: capacity,
		entries:  make(map[string][]float32, capacity),
	}
}

func (c *fifoCache) get(key string) ([]float32, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	v, ok := c.entries[key]
	return v, ok
}

func (c *fifoCache) put(key string, v []float32) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if _, ok := c.entries[key]; ok {
		// Overwrite keeps the original queue position.
		c.entries[key] = v
		return
	}
	if len(c.entries) >= c.capacity {
		oldest := c.order[0]
		c.order = c.order[1:]
		delete(c.entries, oldest)
	}
	c.entries[key] = v
	c.order = append(c.order, key)
}

func (c *fifoCache) len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}
