/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"github.com/suparena/entityflow/metrics"
	"github.com/suparena/entityflow/storagemodels"
)

// ModelCache maps cache keys to the materialized records of one entity type.
// The cache owns the instances it stores: Get returns the stored reference, and
// mutations of that reference are only durable once the record is saved again.
type ModelCache[T any] interface {
	// Get returns the cached record for key. A miss is (zero, false).
	Get(key any) (T, bool)
	// Add stores model under key, replacing any previous entry.
	Add(key any, model T)
	// Remove deletes and returns the entry for key.
	Remove(key any) (T, bool)
	Clear()
	Len() int
	// Snapshot copies the current entries.
	Snapshot() (map[any]T, error)
}

// New returns an unbounded cache if size <= 0, and otherwise an LRU cache
// which enforces size.
func New[T any](entityType storagemodels.EntityType, size int) ModelCache[T] {
	if size <= 0 {
		return NewSimpleMapCache[T](entityType)
	}
	return NewLRUCache[T](entityType, size)
}

func observe(entityType storagemodels.EntityType, hit bool) {
	var result = metrics.Miss
	if hit {
		result = metrics.Hit
	}
	metrics.CacheLookupsTotal.WithLabelValues(string(entityType), result).Inc()
}
