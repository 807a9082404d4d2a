/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	lru "github.com/hashicorp/golang-lru"
	"github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/storagemodels"
)

// LRUCache is a bounded ModelCache which evicts the least recently used entry
// once it holds Size entries. Locking is provided by the underlying lru.Cache.
type LRUCache[T any] struct {
	entityType storagemodels.EntityType
	size       int
	cache      *lru.Cache
}

// NewLRUCache returns an LRUCache of the given size, which must be > 0.
func NewLRUCache[T any](entityType storagemodels.EntityType, size int) *LRUCache[T] {
	var c, err = lru.New(size)
	if err != nil {
		panic(err.Error()) // Only errors on size <= 0.
	}
	return &LRUCache[T]{entityType: entityType, size: size, cache: c}
}

// Size is the maximum number of entries.
func (c *LRUCache[T]) Size() int { return c.size }

func (c *LRUCache[T]) Get(key any) (T, bool) {
	var zero T
	v, ok := c.cache.Get(key)
	observe(c.entityType, ok)
	if !ok {
		return zero, false
	}
	return v.(T), true
}

func (c *LRUCache[T]) Add(key any, model T) {
	c.cache.Add(key, model)
}

func (c *LRUCache[T]) Remove(key any) (T, bool) {
	var zero T
	v, ok := c.cache.Peek(key)
	if !ok {
		return zero, false
	}
	c.cache.Remove(key)
	return v.(T), true
}

func (c *LRUCache[T]) Clear() { c.cache.Purge() }

func (c *LRUCache[T]) Len() int { return c.cache.Len() }

// Snapshot copies current entries without touching recency. Each lookup takes
// the cache lock separately, so an entry evicted or removed mid-copy fails the
// snapshot with a ConcurrentModificationError; the cache itself is unaffected.
func (c *LRUCache[T]) Snapshot() (map[any]T, error) {
	var keys = c.cache.Keys()
	var out = make(map[any]T, len(keys))

	for _, k := range keys {
		v, ok := c.cache.Peek(k)
		if !ok {
			return nil, errors.NewConcurrentModificationError("model cache "+string(c.entityType), len(keys), c.cache.Len())
		}
		out[k] = v.(T)
	}
	return out, nil
}
