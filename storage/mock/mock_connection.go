/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package mock provides a scriptable implementation of storage.Database for testing
package mock

import (
	"context"
	"fmt"
	"sync"

	"github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/storage"
)

// ExecFunc decides the outcome of executing query with the bound args.
type ExecFunc func(query string, args []any) (int64, error)

// Connection is a mock implementation of storage.Database for testing.
// By default inserts return increasing ids and updates/deletes affect one row.
type Connection struct {
	mu           sync.Mutex
	nextID       int64
	insertFunc   ExecFunc
	updateFunc   ExecFunc
	execFunc     func(query string, args []any) error
	compileError error
	beginError   error
	rows         map[string]*Rows

	compiled   map[string]int
	executions []Execution
	open       int
	commits    int
	rollbacks  int
}

// Execution records a single statement execution.
type Execution struct {
	Query string
	Args  []any
}

// Rows are canned results returned by RawQuery.
type Rows struct {
	Columns []string
	Values  [][]any
}

// New creates a new mock Connection
func New() *Connection {
	return &Connection{
		compiled: make(map[string]int),
		rows:     make(map[string]*Rows),
	}
}

// WithInsertFunc sets a custom outcome for ExecuteInsert
func (m *Connection) WithInsertFunc(f ExecFunc) *Connection {
	m.insertFunc = f
	return m
}

// WithUpdateFunc sets a custom outcome for ExecuteUpdateDelete
func (m *Connection) WithUpdateFunc(f ExecFunc) *Connection {
	m.updateFunc = f
	return m
}

// WithExecFunc sets a custom outcome for ExecSQL
func (m *Connection) WithExecFunc(f func(query string, args []any) error) *Connection {
	m.execFunc = f
	return m
}

// WithCompileError makes CompileStatement return an error
func (m *Connection) WithCompileError(err error) *Connection {
	m.compileError = err
	return m
}

// WithBeginError makes BeginTransaction return an error
func (m *Connection) WithBeginError(err error) *Connection {
	m.beginError = err
	return m
}

// WithRows sets canned rows returned by RawQuery for query
func (m *Connection) WithRows(query string, rows Rows) *Connection {
	m.rows[query] = &rows
	return m
}

func (m *Connection) ExecSQL(ctx context.Context, query string, args ...any) error {
	m.record(query, args)
	if m.execFunc != nil {
		return m.execFunc(query, args)
	}
	return nil
}

func (m *Connection) CompileStatement(ctx context.Context, query string) (storage.Statement, error) {
	if m.compileError != nil {
		return nil, errors.NewStorageError("compile", query, m.compileError)
	}
	m.mu.Lock()
	defer m.mu.Unlock()

	m.compiled[query]++
	m.open++
	return &Statement{conn: m, query: query}, nil
}

func (m *Connection) RawQuery(ctx context.Context, query string, args ...any) (storage.Cursor, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	rows, ok := m.rows[query]
	if !ok {
		return nil, errors.NewStorageError("query", query, fmt.Errorf("no canned rows"))
	}
	return &Cursor{rows: rows, pos: -1}, nil
}

func (m *Connection) BeginTransaction(ctx context.Context) (storage.Tx, error) {
	if m.beginError != nil {
		return nil, errors.NewStorageError("begin", "", m.beginError)
	}
	return &Tx{Connection: m}, nil
}

func (m *Connection) Close() error { return nil }

// Helper methods for testing

// CompileCount returns how many times query was compiled
func (m *Connection) CompileCount(query string) int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.compiled[query]
}

// OpenStatements returns the number of compiled statements not yet closed
func (m *Connection) OpenStatements() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.open
}

// Executions returns a copy of all recorded executions
func (m *Connection) Executions() []Execution {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]Execution(nil), m.executions...)
}

// Commits returns the number of committed transactions
func (m *Connection) Commits() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.commits
}

// Rollbacks returns the number of rolled back transactions
func (m *Connection) Rollbacks() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.rollbacks
}

func (m *Connection) record(query string, args []any) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.executions = append(m.executions, Execution{Query: query, Args: append([]any(nil), args...)})
}

// Tx is a mock storage.Tx sharing its Connection's script.
type Tx struct {
	*Connection
	done bool
}

func (t *Tx) Commit() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.done {
		t.done = true
		t.commits++
	}
	return nil
}

func (t *Tx) Rollback() error {
	t.mu.Lock()
	defer t.mu.Unlock()
	if !t.done {
		t.done = true
		t.rollbacks++
	}
	return nil
}

// Statement is a mock storage.Statement.
type Statement struct {
	conn   *Connection
	query  string
	args   []any
	closed bool
}

func (s *Statement) bind(index int, v any) {
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

func (s *Statement) ExecuteInsert(ctx context.Context) (int64, error) {
	var args = append([]any(nil), s.args...)
	s.conn.record(s.query, args)

	if s.conn.insertFunc != nil {
		return s.conn.insertFunc(s.query, args)
	}
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	s.conn.nextID++
	return s.conn.nextID, nil
}

func (s *Statement) ExecuteUpdateDelete(ctx context.Context) (int64, error) {
	var args = append([]any(nil), s.args...)
	s.conn.record(s.query, args)

	if s.conn.updateFunc != nil {
		return s.conn.updateFunc(s.query, args)
	}
	return 1, nil
}

func (s *Statement) Close() error {
	s.conn.mu.Lock()
	defer s.conn.mu.Unlock()
	if !s.closed {
		s.closed = true
		s.conn.open--
	}
	return nil
}

// Cursor iterates canned Rows.
type Cursor struct {
	rows *Rows
	pos  int
}

func (c *Cursor) Next() bool {
	c.pos++
	return c.pos < len(c.rows.Values)
}

func (c *Cursor) Columns() ([]string, error) { return c.rows.Columns, nil }

func (c *Cursor) Scan(dest ...any) error {
	var row = c.rows.Values[c.pos]
	if len(dest) != len(row) {
		return fmt.Errorf("expected %d destinations, got %d", len(row), len(dest))
	}
	for i, d := range dest {
		switch p := d.(type) {
		case *any:
			*p = row[i]
		case *string:
			s, ok := row[i].(string)
			if !ok {
				return fmt.Errorf("column %d: cannot scan %T into string", i, row[i])
			}
			*p = s
		case *int64:
			n, ok := row[i].(int64)
			if !ok {
				return fmt.Errorf("column %d: cannot scan %T into int64", i, row[i])
			}
			*p = n
		case *float64:
			f, ok := row[i].(float64)
			if !ok {
				return fmt.Errorf("column %d: cannot scan %T into float64", i, row[i])
			}
			*p = f
		default:
			return fmt.Errorf("column %d: unsupported destination %T", i, d)
		}
	}
	return nil
}

func (c *Cursor) Err() error { return nil }
func (c *Cursor) Close() error { return nil }
