/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package storage

import (
	"context"
)

// Connection is the narrow surface of a storage engine that persistence
// operations run against. It is either the Database itself (autocommit) or an
// open Tx.
type Connection interface {
	ExecSQL(ctx context.Context, query string, args ...any) error

	CompileStatement(ctx context.Context, query string) (Statement, error)

	RawQuery(ctx context.Context, query string, args ...any) (Cursor, error)
}

// Database is a Connection which can open transaction boundaries.
type Database interface {
	Connection

	BeginTransaction(ctx context.Context) (Tx, error)

	Close() error
}

// Tx is a Connection scoped to one storage transaction. A Tx must not be
// shared by two units of work.
type Tx interface {
	Connection

	Commit() error

	Rollback() error
}

// Statement is a compiled statement. Bind indexes are 1-based. Bindings
// persist across executions until replaced or cleared.
type Statement interface {
	BindString(index int, value string)
	BindLong(index int, value int64)
	BindDouble(index int, value float64)
	BindBlob(index int, value []byte)
	BindNull(index int)
	ClearBindings()

	// ExecuteInsert returns the generated row id, or -1 with an error.
	ExecuteInsert(ctx context.Context) (int64, error)

	// ExecuteUpdateDelete returns the number of affected rows.
	ExecuteUpdateDelete(ctx context.Context) (int64, error)

	Close() error
}

// Cursor iterates the rows of a RawQuery.
type Cursor interface {
	Next() bool
	Columns() ([]string, error)
	Scan(dest ...any) error
	Err() error
	Close() error
}
