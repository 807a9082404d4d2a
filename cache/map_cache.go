/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package cache

import (
	"sync"

	"github.com/suparena/entityflow/storagemodels"
)

// SimpleMapCache is an unbounded ModelCache guarded by a single RWMutex.
type SimpleMapCache[T any] struct {
	mu         sync.RWMutex
	entityType storagemodels.EntityType
	models     map[any]T
}

// NewSimpleMapCache creates an empty SimpleMapCache.
func NewSimpleMapCache[T any](entityType storagemodels.EntityType) *SimpleMapCache[T] {
	return &SimpleMapCache[T]{
		entityType: entityType,
		models:     make(map[any]T),
	}
}

func (c *SimpleMapCache[T]) Get(key any) (T, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	model, ok := c.models[key]
	observe(c.entityType, ok)
	return model, ok
}

func (c *SimpleMapCache[T]) Add(key any, model T) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models[key] = model
}

func (c *SimpleMapCache[T]) Remove(key any) (T, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()

	model, ok := c.models[key]
	if ok {
		delete(c.models, key)
	}
	return model, ok
}

func (c *SimpleMapCache[T]) Clear() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.models = make(map[any]T)
}

func (c *SimpleMapCache[T]) Len() int {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return len(c.models)
}

func (c *SimpleMapCache[T]) Snapshot() (map[any]T, error) {
	c.mu.RLock()
	defer c.mu.RUnlock()

	var out = make(map[any]T, len(c.models))
	for k, v := range c.models {
		out[k] = v
	}
	return out, nil
}
