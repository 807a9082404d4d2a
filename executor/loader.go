/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package executor

import (
	"context"

	"github.com/pkg/errors"
	"github.com/suparena/entityflow/adapter"
	"github.com/suparena/entityflow/storage"
)

// Load materializes the current row of cursor. If a record with the same
// cache key is already cached, the cached instance is returned instead of the
// freshly loaded one, after its relationships are reloaded, so that each key
// maps to a single live instance.
func (s *ModelSaver[T]) Load(ctx context.Context, conn storage.Connection, cursor storage.Cursor) (T, error) {
	var model = s.adapter.NewInstance()
	if err := s.adapter.LoadFromCursor(cursor, model); err != nil {
		var zero T
		return zero, errors.WithMessagef(err, "loading %s", s.adapter.EntityType())
	}
	if s.cache == nil {
		return model, nil
	}

	var key = s.CacheKeyOf(model)
	if cached, ok := s.cache.Get(key); ok {
		if loader, ok := s.adapter.(adapter.RelationshipLoader[T]); ok {
			if err := loader.LoadRelationships(ctx, conn, cached); err != nil {
				var zero T
				return zero, errors.WithMessage(err, "reloading relationships")
			}
		}
		return cached, nil
	}
	s.cache.Add(key, model)
	return model, nil
}

// LoadAll materializes every remaining row of cursor. The cursor is not
// closed.
func (s *ModelSaver[T]) LoadAll(ctx context.Context, conn storage.Connection, cursor storage.Cursor) ([]T, error) {
	var out []T
	for cursor.Next() {
		model, err := s.Load(ctx, conn, cursor)
		if err != nil {
			return out, err
		}
		out = append(out, model)
	}
	return out, cursor.Err()
}

// Query runs query and loads its rows through the cache.
func (s *ModelSaver[T]) Query(ctx context.Context, conn storage.Connection, query string, args ...any) ([]T, error) {
	cursor, err := conn.RawQuery(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer cursor.Close()

	return s.LoadAll(ctx, conn, cursor)
}
