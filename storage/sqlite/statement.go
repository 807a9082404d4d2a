/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"database/sql"

	sterrors "github.com/suparena/entityflow/errors"
)

// Statement implements storage.Statement over a prepared *sql.Stmt.
type Statement struct {
	stmt  *sql.Stmt
	query string
	args  []any
}

func (s *Statement) bind(index int, v any) {
	if index < 1 {
		panic("bind index is 1-based")
	}
	for len(s.args) < index {
		s.args = append(s.args, nil)
	}
	s.args[index-1] = v
}

func (s *Statement) BindString(index int, value string) { s.bind(index, value) }
func (s *Statement) BindLong(index int, value int64) { s.bind(index, value) }
func (s *Statement) BindDouble(index int, value float64) { s.bind(index, value) }
func (s *Statement) BindBlob(index int, value []byte) { s.bind(index, value) }
func (s *Statement) BindNull(index int) { s.bind(index, nil) }
func (s *Statement) ClearBindings() { s.args = s.args[:0] }

// ExecuteInsert executes the statement and returns the last inserted row id.
// A statement which inserted nothing (eg, INSERT OR IGNORE) returns -1.
func (s *Statement) ExecuteInsert(ctx context.Context) (int64, error) {
	res, err := s.stmt.ExecContext(ctx, s.args...)
	if err != nil {
		return -1, sterrors.NewStorageError("insert", s.query, err)
	}
	if n, err := res.RowsAffected(); err != nil {
		return -1, sterrors.NewStorageError("insert", s.query, err)
	} else if n == 0 {
		return -1, nil
	}
	id, err := res.LastInsertId()
	if err != nil {
		return -1, sterrors.NewStorageError("insert", s.query, err)
	}
	return id, nil
}

// ExecuteUpdateDelete executes the statement and returns the affected row count.
func (s *Statement) ExecuteUpdateDelete(ctx context.Context) (int64, error) {
	res, err := s.stmt.ExecContext(ctx, s.args...)
	if err != nil {
		return 0, sterrors.NewStorageError("update", s.query, err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, sterrors.NewStorageError("update", s.query, err)
	}
	return n, nil
}

// Close releases the prepared statement.
func (s *Statement) Close() error {
	return s.stmt.Close()
}
