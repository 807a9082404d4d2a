/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package sqlite

import (
	"context"
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
	"github.com/pkg/errors"
	log "github.com/sirupsen/logrus"
	sterrors "github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/storage"
)

// MemoryDSN opens a private in-memory database.
const MemoryDSN = "file::memory:"

// conn is the subset of *sql.DB and *sql.Tx that a Connection needs.
type conn interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	PrepareContext(ctx context.Context, query string) (*sql.Stmt, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
}

// Database implements storage.Database on top of a SQLite database opened
// through github.com/mattn/go-sqlite3.
type Database struct {
	// DB is the opened database. Callers may use it for read-only queries
	// outside of units of work; mutations should go through a transaction.
	DB  *sql.DB
	dsn string
}

// Open opens the SQLite database named by dsn and executes bootstrapSQL
// against it (a good opportunity to set PRAGMAs and create tables).
func Open(ctx context.Context, dsn string, bootstrapSQL ...string) (*Database, error) {
	db, err := sql.Open("sqlite3", dsn)
	if err != nil {
		return nil, errors.WithMessagef(err, "opening SQLite DB %q", dsn)
	}
	// SQLite serializes writers, and an in-memory DB exists only on the
	// connection which created it. Allow exactly one connection.
	db.SetMaxOpenConns(1)

	if err = db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, errors.WithMessage(err, "connecting to SQLite DB")
	}
	for _, stmt := range bootstrapSQL {
		if _, err = db.ExecContext(ctx, stmt); err != nil {
			_ = db.Close()
			return nil, errors.WithMessage(err, "executing bootstrap SQL")
		}
	}

	log.WithField("dsn", dsn).Debug("opened SQLite database")
	return &Database{DB: db, dsn: dsn}, nil
}

// ExecSQL executes query outside of any explicit transaction.
func (d *Database) ExecSQL(ctx context.Context, query string, args ...any) error {
	return execSQL(ctx, d.DB, query, args...)
}

// CompileStatement prepares query against the database.
func (d *Database) CompileStatement(ctx context.Context, query string) (storage.Statement, error) {
	return compile(ctx, d.DB, query)
}

// RawQuery runs query and returns a Cursor over its rows.
func (d *Database) RawQuery(ctx context.Context, query string, args ...any) (storage.Cursor, error) {
	return rawQuery(ctx, d.DB, query, args...)
}

// BeginTransaction opens a transaction boundary.
func (d *Database) BeginTransaction(ctx context.Context) (storage.Tx, error) {
	tx, err := d.DB.BeginTx(ctx, nil)
	if err != nil {
		return nil, sterrors.NewStorageError("begin", "", err)
	}
	return &Tx{tx: tx}, nil
}

// Close closes the database.
func (d *Database) Close() error {
	return d.DB.Close()
}

// Tx implements storage.Tx.
type Tx struct {
	tx *sql.Tx
}

func (t *Tx) ExecSQL(ctx context.Context, query string, args ...any) error {
	return execSQL(ctx, t.tx, query, args...)
}

func (t *Tx) CompileStatement(ctx context.Context, query string) (storage.Statement, error) {
	return compile(ctx, t.tx, query)
}

func (t *Tx) RawQuery(ctx context.Context, query string, args ...any) (storage.Cursor, error) {
	return rawQuery(ctx, t.tx, query, args...)
}

func (t *Tx) Commit() error {
	return sterrors.NewStorageError("commit", "", t.tx.Commit())
}

func (t *Tx) Rollback() error {
	if err := t.tx.Rollback(); err != nil && err != sql.ErrTxDone {
		return sterrors.NewStorageError("rollback", "", err)
	}
	return nil
}

func execSQL(ctx context.Context, c conn, query string, args ...any) error {
	_, err := c.ExecContext(ctx, query, args...)
	return sterrors.NewStorageError("exec", query, err)
}

func compile(ctx context.Context, c conn, query string) (storage.Statement, error) {
	stmt, err := c.PrepareContext(ctx, query)
	if err != nil {
		return nil, sterrors.NewStorageError("compile", query, err)
	}
	return &Statement{stmt: stmt, query: query}, nil
}

func rawQuery(ctx context.Context, c conn, query string, args ...any) (storage.Cursor, error) {
	rows, err := c.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, sterrors.NewStorageError("query", query, err)
	}
	return rows, nil
}
