/*
Package storage defines the interfaces entityflow consumes from a storage engine.

The engine itself is an external collaborator. The write pipeline only needs to
execute SQL text, compile statements, bind values and iterate rows:

	type Connection interface {
	    ExecSQL(ctx context.Context, query string, args ...any) error
	    CompileStatement(ctx context.Context, query string) (Statement, error)
	    RawQuery(ctx context.Context, query string, args ...any) (Cursor, error)
	}

Implementations:
  - sqlite: database/sql over github.com/mattn/go-sqlite3
  - mock: scriptable in-memory connection for failure injection in tests
*/
package storage
