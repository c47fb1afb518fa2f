package retriever

import (
	"container/list"
	"sync"
)

// handleCache is a bounded LRU cache mapping canonical filter keys to
// retrieval handles. It is safe under concurrent lookups and concurrent
// insert-on-miss: two racing misses for the same key may both construct a
// handle, but the cache keeps exactly one and future lookups agree on it.
type handleCache struct {
	mu       sync.RWMutex
	entries  map[string]*list.Element
	lruList  *list.List
	capacity int
}

// cacheEntry pairs a key with its handle inside the LRU list.
type cacheEntry struct {
	key    string
	handle *handle
}

// newHandleCache creates a cache holding at most capacity handles.
func newHandleCache(capacity int) *handleCache {
	return &handleCache{
		entries:  make(map[string]*list.Element),
		lruList:  list.New(),
		capacity: capacity,
	}
}

// get returns the handle for key and marks it most recently used.
func (c *handleCache) get(key string) (*handle, bool) {
	c.mu.RLock()
	elem, ok := c.entries[key]
	c.mu.RUnlock()
	if !ok {
		return nil, false
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	// Re-check: the entry may have been evicted between the locks.
	elem, ok = c.entries[key]
	if !ok {
		return nil, false
	}
	c.lruList.MoveToFront(elem)
	return elem.Value.(*cacheEntry).handle, true
}

// put stores the handle under key, evicting the least recently used entry
// once full. If another goroutine already stored a handle for the same
// key, the existing handle wins and is returned, keeping lookups stable.
func (c *handleCache) put(key string, h *handle) *handle {
	c.mu.Lock()
	defer c.mu.Unlock()

	if elem, ok := c.entries[key]; ok {
		c.lruList.MoveToFront(elem)
		return elem.Value.(*cacheEntry).handle
	}

	elem := c.lruList.PushFront(&cacheEntry{key: key, handle: h})
	c.entries[key] = elem

	if c.lruList.Len() > c.capacity {
		oldest := c.lruList.Back()
		if oldest != nil {
			c.lruList.Remove(oldest)
			delete(c.entries, oldest.Value.(*cacheEntry).key)
		}
	}
	return h
}

// len returns the number of cached handles.
func (c *handleCache) len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.lruList.Len()
}
