/*
Package cache provides the model cache: a per-entity-type store of materialized
records keyed by primary-key identity.

Two policies are provided behind ModelCache:

  - SimpleMapCache: unbounded, a map guarded by one RWMutex.
  - LRUCache: bounded by github.com/hashicorp/golang-lru, evicting the least
    recently used entry.

New(entityType, size) picks LRUCache whenever a size is requested, so a
configured bound is always enforced. Size 0 is the documented unbounded cache.

Cache keys come from KeyOf: a single primary key is used as-is, composite keys
are folded by a KeyCombiner.
*/
package cache
