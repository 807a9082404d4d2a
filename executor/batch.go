/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package executor

import (
	"context"

	"github.com/suparena/entityflow/storage"
	"github.com/suparena/entityflow/storagemodels"
)

// statements compiles each distinct query at most once and closes all of
// them together.
type statements struct {
	conn     storage.Connection
	compiled map[string]storage.Statement
}

func newStatements(conn storage.Connection) *statements {
	return &statements{conn: conn, compiled: make(map[string]storage.Statement)}
}

func (s *statements) get(ctx context.Context, query string) (storage.Statement, error) {
	if stmt, ok := s.compiled[query]; ok {
		return stmt, nil
	}
	stmt, err := s.conn.CompileStatement(ctx, query)
	if err != nil {
		return nil, &compileError{err}
	}
	s.compiled[query] = stmt
	return stmt, nil
}

func (s *statements) close() {
	for _, stmt := range s.compiled {
		_ = stmt.Close()
	}
}

// InsertAll inserts each of models, reusing one compiled statement per insert
// variant. Records which fail are logged and skipped. It returns the number of
// records inserted, and an error only if a statement could not be compiled.
func (s *ModelSaver[T]) InsertAll(ctx context.Context, conn storage.Connection, models []T) (int, error) {
	return s.each(ctx, conn, models, storagemodels.ActionInsert, func(stmts *statements, model T) (bool, error) {
		var strategy = s.strategyOf(model)
		stmt, err := stmts.get(ctx, s.insertQuery(strategy))
		if err != nil {
			return false, err
		}
		_, err = s.insert(ctx, conn, stmt, strategy, model)
		return err == nil, err
	})
}

// UpdateAll updates each of models. A record whose row is missing counts as
// failed.
func (s *ModelSaver[T]) UpdateAll(ctx context.Context, conn storage.Connection, models []T) (int, error) {
	return s.each(ctx, conn, models, storagemodels.ActionUpdate, func(stmts *statements, model T) (bool, error) {
		stmt, err := stmts.get(ctx, s.adapter.UpdateQuery())
		if err != nil {
			return false, err
		}
		return s.update(ctx, conn, stmt, model)
	})
}

// DeleteAll deletes each of models. A record whose row is missing counts as
// failed.
func (s *ModelSaver[T]) DeleteAll(ctx context.Context, conn storage.Connection, models []T) (int, error) {
	return s.each(ctx, conn, models, storagemodels.ActionDelete, func(stmts *statements, model T) (bool, error) {
		stmt, err := stmts.get(ctx, s.adapter.DeleteQuery())
		if err != nil {
			return false, err
		}
		return s.delete(ctx, conn, stmt, model)
	})
}

// SaveAll saves each of models.
func (s *ModelSaver[T]) SaveAll(ctx context.Context, conn storage.Connection, models []T) (int, error) {
	return s.each(ctx, conn, models, storagemodels.ActionChange, func(stmts *statements, model T) (bool, error) {
		var outcome, err = s.save(ctx, conn, stmts, model)
		return outcome != storagemodels.SaveFailed, err
	})
}

// compileError marks a failure to compile, which aborts a batch.
type compileError struct{ err error }

func (e *compileError) Error() string { return e.err.Error() }
func (e *compileError) Unwrap() error { return e.err }

func (s *ModelSaver[T]) each(ctx context.Context, conn storage.Connection, models []T, action storagemodels.Action,
	fn func(*statements, T) (bool, error)) (int, error) {

	if len(models) == 0 {
		return 0, nil
	}
	var stmts = newStatements(conn)
	defer stmts.close()

	var count int
	for i, model := range models {
		ok, err := fn(stmts, model)
		if ce, isCompile := err.(*compileError); isCompile {
			return count, ce.err
		} else if err != nil || !ok {
			s.logFailure(action, i, err)
			continue
		}
		count++
	}
	return count, nil
}
