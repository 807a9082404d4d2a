/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package executor

import (
	"context"

	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	"github.com/suparena/entityflow/adapter"
	"github.com/suparena/entityflow/cache"
	sterrors "github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/notify"
	"github.com/suparena/entityflow/storage"
	"github.com/suparena/entityflow/storagemodels"
)

// ModelSaver performs insert, update, delete and save operations for records
// of type T, keeping a ModelCache consistent with every successful write and
// notifying observers after each one.
type ModelSaver[T any] struct {
	adapter  adapter.ModelAdapter[T]
	cache    cache.ModelCache[T]
	notifier notify.Notifier
	combiner cache.KeyCombiner
}

// New returns a ModelSaver. Either of c and n may be nil, in which case
// caching or notification is skipped.
func New[T any](a adapter.ModelAdapter[T], c cache.ModelCache[T], n notify.Notifier) *ModelSaver[T] {
	return &ModelSaver[T]{adapter: a, cache: c, notifier: n}
}

// WithKeyCombiner sets the combiner used for composite primary keys.
func (s *ModelSaver[T]) WithKeyCombiner(kc cache.KeyCombiner) *ModelSaver[T] {
	s.combiner = kc
	return s
}

// Adapter returns the adapter records are mapped through.
func (s *ModelSaver[T]) Adapter() adapter.ModelAdapter[T] { return s.adapter }

// Cache returns the cache kept consistent by s, which may be nil.
func (s *ModelSaver[T]) Cache() cache.ModelCache[T] { return s.cache }

// CacheKeyOf returns the cache key of model.
func (s *ModelSaver[T]) CacheKeyOf(model T) any {
	if keyer, ok := s.adapter.(adapter.CachingKeyer[T]); ok {
		return keyer.CachingKeyOf(model)
	}
	return cache.KeyOf(s.adapter.PrimaryKeyConditions(model), s.combiner)
}

// Exists reports whether model is already stored.
func (s *ModelSaver[T]) Exists(ctx context.Context, conn storage.Connection, model T) (bool, error) {
	return s.adapter.Exists(ctx, conn, model)
}

// Insert stores model and returns its row id, or -1 with an error. A
// generated id is written back into model.
func (s *ModelSaver[T]) Insert(ctx context.Context, conn storage.Connection, model T) (int64, error) {
	var strategy = s.strategyOf(model)
	stmt, err := conn.CompileStatement(ctx, s.insertQuery(strategy))
	if err != nil {
		return -1, err
	}
	defer stmt.Close()

	return s.insert(ctx, conn, stmt, strategy, model)
}

// Update rewrites the stored row of model. It returns false without an error
// if no row matched.
func (s *ModelSaver[T]) Update(ctx context.Context, conn storage.Connection, model T) (bool, error) {
	stmt, err := conn.CompileStatement(ctx, s.adapter.UpdateQuery())
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	return s.update(ctx, conn, stmt, model)
}

// UpdateOrFail is like Update, but a missing row is a SaveFailedError.
func (s *ModelSaver[T]) UpdateOrFail(ctx context.Context, conn storage.Connection, model T) error {
	ok, err := s.Update(ctx, conn, model)
	if err == nil && !ok {
		err = sterrors.NewSaveFailedError(s.adapter.EntityType(), storagemodels.ActionUpdate)
	}
	return err
}

// Delete removes the stored row of model, after deleting the children it
// owns. It returns false without an error if no row matched.
func (s *ModelSaver[T]) Delete(ctx context.Context, conn storage.Connection, model T) (bool, error) {
	stmt, err := conn.CompileStatement(ctx, s.adapter.DeleteQuery())
	if err != nil {
		return false, err
	}
	defer stmt.Close()

	return s.delete(ctx, conn, stmt, model)
}

// Save updates model if it exists, and inserts it otherwise.
func (s *ModelSaver[T]) Save(ctx context.Context, conn storage.Connection, model T) (storagemodels.SaveOutcome, error) {
	var stmts = newStatements(conn)
	defer stmts.close()

	var outcome, err = s.save(ctx, conn, stmts, model)
	if ce, ok := err.(*compileError); ok {
		err = ce.err
	}
	return outcome, err
}

func (s *ModelSaver[T]) save(ctx context.Context, conn storage.Connection, stmts *statements, model T) (storagemodels.SaveOutcome, error) {
	exists, err := s.adapter.Exists(ctx, conn, model)
	if err != nil {
		return storagemodels.SaveFailed, err
	}

	var outcome = storagemodels.SaveFailed
	if exists {
		update, err := stmts.get(ctx, s.adapter.UpdateQuery())
		if err != nil {
			return storagemodels.SaveFailed, err
		}
		ok, err := s.update(ctx, conn, update, model)
		if err != nil {
			return storagemodels.SaveFailed, err
		} else if ok {
			outcome = storagemodels.SaveUpdated
		}
	}
	if outcome == storagemodels.SaveFailed {
		var strategy = s.strategyOf(model)
		insert, err := stmts.get(ctx, s.insertQuery(strategy))
		if err != nil {
			return storagemodels.SaveFailed, err
		}
		if _, err = s.insert(ctx, conn, insert, strategy, model); err != nil {
			return storagemodels.SaveFailed, err
		}
		outcome = storagemodels.SaveInserted
	}

	if s.notifier != nil {
		var conditions = s.adapter.PrimaryKeyConditions(model)
		storage.AfterCommit(ctx, func() {
			s.notifier.NotifyModelChanged(ctx, model, s.adapter.EntityType(), conditions, storagemodels.ActionChange)
		})
	}
	return outcome, nil
}

func (s *ModelSaver[T]) insert(ctx context.Context, conn storage.Connection, stmt storage.Statement, strategy storagemodels.AutoIncrementStrategy, model T) (int64, error) {
	if err := s.saveForeignKeys(ctx, conn, model); err != nil {
		return -1, err
	}

	stmt.ClearBindings()
	if err := s.adapter.BindToInsertStatement(stmt, model, strategy); err != nil {
		return -1, errors.WithMessage(err, "binding insert")
	}
	id, err := stmt.ExecuteInsert(ctx)
	if err != nil {
		return -1, err
	} else if id <= 0 {
		return -1, sterrors.NewSaveFailedError(s.adapter.EntityType(), storagemodels.ActionInsert)
	}

	if strategy == storagemodels.AutoIncrementGenerated {
		s.adapter.SetAutoIncrementID(model, id)
	}
	s.published(ctx, model, storagemodels.ActionInsert)
	return id, nil
}

func (s *ModelSaver[T]) update(ctx context.Context, conn storage.Connection, stmt storage.Statement, model T) (bool, error) {
	if err := s.saveForeignKeys(ctx, conn, model); err != nil {
		return false, err
	}

	stmt.ClearBindings()
	if err := s.adapter.BindToUpdateStatement(stmt, model); err != nil {
		return false, errors.WithMessage(err, "binding update")
	}
	n, err := stmt.ExecuteUpdateDelete(ctx)
	if err != nil || n == 0 {
		return false, err
	}

	s.published(ctx, model, storagemodels.ActionUpdate)
	return true, nil
}

func (s *ModelSaver[T]) delete(ctx context.Context, conn storage.Connection, stmt storage.Statement, model T) (bool, error) {
	if deleter, ok := s.adapter.(adapter.ChildDeleter[T]); ok {
		if err := deleter.DeleteChildren(ctx, conn, model); err != nil {
			return false, errors.WithMessage(err, "deleting children")
		}
	}

	stmt.ClearBindings()
	if err := s.adapter.BindToDeleteStatement(stmt, model); err != nil {
		return false, errors.WithMessage(err, "binding delete")
	}
	n, err := stmt.ExecuteUpdateDelete(ctx)
	if err != nil || n == 0 {
		return false, err
	}

	// Capture the identity the record was stored under before the id is reset.
	var key = s.CacheKeyOf(model)
	var conditions = s.adapter.PrimaryKeyConditions(model)

	storage.AfterCommit(ctx, func() {
		if s.cache != nil {
			s.cache.Remove(key)
		}
		if s.notifier != nil {
			s.notifier.NotifyModelChanged(ctx, model, s.adapter.EntityType(), conditions, storagemodels.ActionDelete)
		}
		s.adapter.SetAutoIncrementID(model, 0)
	})
	return true, nil
}

func (s *ModelSaver[T]) saveForeignKeys(ctx context.Context, conn storage.Connection, model T) error {
	if saver, ok := s.adapter.(adapter.ForeignKeySaver[T]); ok {
		if err := saver.SaveForeignKeys(ctx, conn, model); err != nil {
			return errors.WithMessage(err, "saving foreign keys")
		}
	}
	return nil
}

func (s *ModelSaver[T]) strategyOf(model T) storagemodels.AutoIncrementStrategy {
	if s.adapter.HasAutoIncrement(model) {
		return storagemodels.AutoIncrementGenerated
	}
	return storagemodels.AutoIncrementExplicit
}

func (s *ModelSaver[T]) insertQuery(strategy storagemodels.AutoIncrementStrategy) string {
	if strategy == storagemodels.AutoIncrementGenerated {
		return s.adapter.AutoIncrementInsertQuery()
	}
	return s.adapter.InsertQuery()
}

// published makes a successful insert or update visible: the record is cached
// and observers are notified once the surrounding transaction commits.
func (s *ModelSaver[T]) published(ctx context.Context, model T, action storagemodels.Action) {
	var key = s.CacheKeyOf(model)
	var conditions = s.adapter.PrimaryKeyConditions(model)

	storage.AfterCommit(ctx, func() {
		if s.cache != nil {
			s.cache.Add(key, model)
		}
		if s.notifier != nil {
			s.notifier.NotifyModelChanged(ctx, model, s.adapter.EntityType(), conditions, action)
		}
	})
}

func (s *ModelSaver[T]) logFailure(action storagemodels.Action, index int, err error) {
	log.WithFields(log.Fields{
		"entity": s.adapter.EntityType(),
		"action": action,
		"index":  index,
		"err":    err,
	}).Warn("record failed in batch")
}
