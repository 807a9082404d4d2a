/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"
	"sort"
	"sync"

	"github.com/pkg/errors"
	sterrors "github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/storagemodels"
)

// Registry holds one entry per entity type.
type Registry struct {
	mu      sync.RWMutex
	byType  map[storagemodels.EntityType]any
	byGo    map[reflect.Type]any
	goTypes map[storagemodels.EntityType]reflect.Type
}

// New returns an empty Registry.
func New() *Registry {
	return &Registry{
		byType:  make(map[storagemodels.EntityType]any),
		byGo:    make(map[reflect.Type]any),
		goTypes: make(map[storagemodels.EntityType]reflect.Type),
	}
}

// Register associates entry with entityType and the Go record type typ. Each
// entity type and each Go type may be registered once.
func (r *Registry) Register(entityType storagemodels.EntityType, typ reflect.Type, entry any) error {
	if entityType == "" || typ == nil {
		return errors.WithMessage(sterrors.ErrInvalidInput, "registry: entity type and Go type are required")
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	if _, ok := r.byType[entityType]; ok {
		return errors.WithMessagef(sterrors.ErrInvalidInput, "registry: entity type %q already registered", entityType)
	} else if _, ok := r.byGo[typ]; ok {
		return errors.WithMessagef(sterrors.ErrInvalidInput, "registry: Go type %s already registered", typ)
	}
	r.byType[entityType] = entry
	r.byGo[typ] = entry
	r.goTypes[entityType] = typ
	return nil
}

// Lookup returns the entry registered for entityType.
func (r *Registry) Lookup(entityType storagemodels.EntityType) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byType[entityType]
	if !ok {
		return nil, errors.WithMessagef(sterrors.ErrNotRegistered, "registry: %q", entityType)
	}
	return entry, nil
}

// LookupType returns the entry registered for the Go record type typ.
func (r *Registry) LookupType(typ reflect.Type) (any, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	entry, ok := r.byGo[typ]
	if !ok {
		return nil, errors.WithMessagef(sterrors.ErrNotRegistered, "registry: Go type %s", typ)
	}
	return entry, nil
}

// Unregister removes entityType, and reports whether it was registered.
func (r *Registry) Unregister(entityType storagemodels.EntityType) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	typ, ok := r.goTypes[entityType]
	if !ok {
		return false
	}
	delete(r.byType, entityType)
	delete(r.byGo, typ)
	delete(r.goTypes, entityType)
	return true
}

// EntityTypes returns the registered entity types in sorted order.
func (r *Registry) EntityTypes() []storagemodels.EntityType {
	r.mu.RLock()
	defer r.mu.RUnlock()

	var out = make([]storagemodels.EntityType, 0, len(r.byType))
	for t := range r.byType {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
