package cache

import (
	"container/list"
	"fmt"
	"sync"
)

// TitleLRUCache is a Least Recently Used (LRU) cache of pull request titles
// keyed by commit hash, implemented with a doubly-linked-list and hashmap.
//
// A commit with no pull request is cached too, as an empty title, so that
// repeated digests of the same month do not query the API again.
//
// It has the following additional properties:
//   - A locking mutex to support parallel lookups from concurrent requests
//   - When the cache holds maxEntries elements, "Put()" evicts the least
//     recently used element before adding a new one
type TitleLRUCache struct {
	// The locking mutex for operations on the cache itself
	lock sync.Mutex

	// maxEntries is the number of elements kept before evicting
	maxEntries int

	// dll is the doubly linked list to support the LRU cache behavior
	dll *list.List

	// hm is the hashmap to support the LRU cache behavior
	hm map[string]*list.Element
}

type titleEntry struct {
	key   string
	title string
}

// NewTitleLRUCache returns a new TitleLRUCache holding at most maxEntries
// titles.
func NewTitleLRUCache(maxEntries int) (*TitleLRUCache, error) {
	if maxEntries < 1 {
		return nil, fmt.Errorf("cache must hold at least 1 entry, got: %d", maxEntries)
	}

	return &TitleLRUCache{
		maxEntries: maxEntries,
		dll:        list.New(),
		hm:         make(map[string]*list.Element),
	}, nil
}

// Get checks the TitleLRUCache for the provided key and returns the
// associated title if present, bumping it to the front of the cache.
func (c *TitleLRUCache) Get(key string) (string, bool) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.hm[key]; ok {
		// Cache hit
		c.dll.MoveToFront(element)
		return element.Value.(*titleEntry).title, true
	}

	// Cache miss
	return "", false
}

// Put adds a title to the TitleLRUCache. If the key is already in the cache,
// its title is replaced and the element moved to the front of the cache.
func (c *TitleLRUCache) Put(key, title string) {
	c.lock.Lock()
	defer c.lock.Unlock()

	if element, ok := c.hm[key]; ok {
		element.Value.(*titleEntry).title = title
		c.dll.MoveToFront(element)
		return
	}

	for c.dll.Len() >= c.maxEntries {
		c.evict()
	}

	c.hm[key] = c.dll.PushFront(&titleEntry{key: key, title: title})
}

// Len returns the number of cached titles.
func (c *TitleLRUCache) Len() int {
	c.lock.Lock()
	defer c.lock.Unlock()

	return c.dll.Len()
}

// evict removes the least recently used element. Callers must hold the lock.
func (c *TitleLRUCache) evict() {
	lruNode := c.dll.Back()
	if lruNode == nil {
		return
	}

	delete(c.hm, lruNode.Value.(*titleEntry).key)
	c.dll.Remove(lruNode)
}
