/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package entityflow

import (
	"context"

	"github.com/suparena/entityflow/adapter"
	"github.com/suparena/entityflow/batch"
	"github.com/suparena/entityflow/cache"
	sterrors "github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/executor"
	"github.com/suparena/entityflow/registry"
	"github.com/suparena/entityflow/storage"
	"github.com/suparena/entityflow/storagemodels"
	"github.com/suparena/entityflow/transaction"
)

// Table persists records of type T through its Database. It embeds the
// ModelSaver for synchronous use inside units of work.
type Table[T any] struct {
	*executor.ModelSaver[T]
	db *Database
}

// TableOption configures a Table.
type TableOption func(*tableSettings)

type tableSettings struct {
	cacheSize *int
	combiner  cache.KeyCombiner
}

// WithTableCacheSize overrides the Database's cache size for one table.
func WithTableCacheSize(n int) TableOption {
	return func(s *tableSettings) { s.cacheSize = &n }
}

// WithKeyCombiner sets the combiner of composite cache keys.
func WithKeyCombiner(kc cache.KeyCombiner) TableOption {
	return func(s *tableSettings) { s.combiner = kc }
}

// Register creates the Table of T described by a. Each entity type and record
// type may be registered once per Database.
func Register[T any](db *Database, a adapter.ModelAdapter[T], opts ...TableOption) (*Table[T], error) {
	var s tableSettings
	for _, opt := range opts {
		opt(&s)
	}
	var size = db.cacheSize
	if s.cacheSize != nil {
		size = *s.cacheSize
	}

	var saver = executor.New[T](a, cache.New[T](a.EntityType(), size), db.notifier)
	if s.combiner != nil {
		saver.WithKeyCombiner(s.combiner)
	}
	var t = &Table[T]{ModelSaver: saver, db: db}

	if err := registry.Put[T](db.registry, a.EntityType(), t); err != nil {
		return nil, err
	}
	return t, nil
}

// TableOf returns the Table registered for T.
func TableOf[T any](db *Database) (*Table[T], error) {
	return registry.Get[T, *Table[T]](db.registry)
}

// TableFor returns the Table registered for entityType. Callers assert it to
// its *Table[T].
func TableFor(db *Database, entityType storagemodels.EntityType) (any, error) {
	return db.registry.Lookup(entityType)
}

// Cached returns the cached record for key.
func (t *Table[T]) Cached(key any) (T, bool) {
	return t.Cache().Get(key)
}

// SaveAsync enqueues a unit saving model.
func (t *Table[T]) SaveAsync(model T, opts ...transaction.Option) (*transaction.Transaction, error) {
	return t.db.Execute(func(ctx context.Context, conn storage.Connection) error {
		_, err := t.Save(ctx, conn, model)
		return err
	}, opts...)
}

// DeleteAsync enqueues a unit deleting model. The unit fails with a
// SaveFailedError if no row was deleted.
func (t *Table[T]) DeleteAsync(model T, opts ...transaction.Option) (*transaction.Transaction, error) {
	return t.db.Execute(func(ctx context.Context, conn storage.Connection) error {
		ok, err := t.Delete(ctx, conn, model)
		if err == nil && !ok {
			err = sterrors.NewSaveFailedError(t.Adapter().EntityType(), storagemodels.ActionDelete)
		}
		return err
	}, opts...)
}

// SaveAllAsync enqueues a unit saving models in order. The first failure fails
// the unit and rolls back every record it saved. progress may be nil.
func (t *Table[T]) SaveAllAsync(models []T, progress transaction.ProcessListener[T], opts ...transaction.Option) (*transaction.Transaction, error) {
	var op = transaction.ProcessModels(models, func(ctx context.Context, conn storage.Connection, model T) error {
		_, err := t.Save(ctx, conn, model)
		return err
	}, progress)
	return t.db.Execute(op, opts...)
}

// NewAccumulator returns a batch accumulator saving into t through the
// Database's default queue, with the Database's batch defaults.
func NewAccumulator[T comparable](t *Table[T], opts ...batch.Option) *batch.Accumulator[T] {
	var all = make([]batch.Option, 0, len(t.db.batching)+len(opts))
	all = append(all, t.db.batching...)
	return batch.New[T](t.ModelSaver, t.db.queue, append(all, opts...)...)
}
