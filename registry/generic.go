/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package registry

import (
	"reflect"

	"github.com/pkg/errors"
	sterrors "github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/storagemodels"
)

// TypeOf returns the reflect.Type of the record type T.
func TypeOf[T any]() reflect.Type {
	return reflect.TypeOf((*T)(nil)).Elem()
}

// Put registers entry for the record type T under entityType.
func Put[T any](r *Registry, entityType storagemodels.EntityType, entry any) error {
	return r.Register(entityType, TypeOf[T](), entry)
}

// Get returns the entry registered for the record type T, asserted to E.
func Get[T, E any](r *Registry) (E, error) {
	var zero E

	entry, err := r.LookupType(TypeOf[T]())
	if err != nil {
		return zero, err
	}
	e, ok := entry.(E)
	if !ok {
		return zero, errors.WithMessagef(sterrors.ErrInvalidInput, "registry: entry for %s is %T", TypeOf[T](), entry)
	}
	return e, nil
}
