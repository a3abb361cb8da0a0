// Package cache holds people-search resolution caches: a bounded in-process
// LRU and a Redis-backed cache shared between service instances.
package cache

import (
	"container/list"
	"context"
	"sync"

	"ProspectPilot/internal/domain"
	"ProspectPilot/internal/ports"
)

const defaultLRUSize = 512

type entry struct {
	key  string
	peer domain.Peer
}

// LRU is a fixed-size least-recently-used cache.
type LRU struct {
	mu    sync.Mutex
	size  int
	order *list.List
	items map[string]*list.Element
}

var _ ports.ResolutionCache = (*LRU)(nil)

// NewLRU returns a cache holding at most size entries.
func NewLRU(size int) *LRU {
	if size <= 0 {
		size = defaultLRUSize
	}
	return &LRU{size: size, order: list.New(), items: make(map[string]*list.Element, size)}
}

// Get returns the peer cached under key and marks it recently used.
func (c *LRU) Get(_ context.Context, key string) (domain.Peer, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	el, ok := c.items[key]
	if !ok {
		return domain.Peer{}, false
	}
	c.order.MoveToFront(el)
	return el.Value.(*entry).peer, true
}

// Set stores peer under key, evicting the least recently used entry when full.
func (c *LRU) Set(_ context.Context, key string, peer domain.Peer) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if el, ok := c.items[key]; ok {
		el.Value.(*entry).peer = peer
		c.order.MoveToFront(el)
		return
	}
	c.items[key] = c.order.PushFront(&entry{key: key, peer: peer})
	if c.order.Len() > c.size {
		oldest := c.order.Back()
		c.order.Remove(oldest)
		delete(c.items, oldest.Value.(*entry).key)
	}
}

// Len reports the number of cached entries.
func (c *LRU) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.order.Len()
}
