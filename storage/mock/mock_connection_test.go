/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package mock_test

import (
	"context"
	"errors"
	"testing"

	sterrors "github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/storage/mock"
)

func TestMockConnection(t *testing.T) {
	ctx := context.Background()

	t.Run("DefaultOutcomes", func(t *testing.T) {
		conn := mock.New()

		stmt, err := conn.CompileStatement(ctx, "INSERT")
		if err != nil {
			t.Fatalf("CompileStatement failed: %v", err)
		}
		stmt.BindString(1, "a")
		id, err := stmt.ExecuteInsert(ctx)
		if err != nil || id != 1 {
			t.Fatalf("Expected id 1, got %d (%v)", id, err)
		}
		id, _ = stmt.ExecuteInsert(ctx)
		if id != 2 {
			t.Fatalf("Expected id 2, got %d", id)
		}
		if n, _ := stmt.ExecuteUpdateDelete(ctx); n != 1 {
			t.Fatalf("Expected one affected row, got %d", n)
		}

		if conn.OpenStatements() != 1 {
			t.Fatalf("Expected one open statement, got %d", conn.OpenStatements())
		}
		_ = stmt.Close()
		_ = stmt.Close()
		if conn.OpenStatements() != 0 {
			t.Fatalf("Expected no open statements, got %d", conn.OpenStatements())
		}
		if got := len(conn.Executions()); got != 3 {
			t.Fatalf("Expected 3 executions, got %d", got)
		}
	})

	t.Run("ScriptedFailures", func(t *testing.T) {
		boom := errors.New("boom")
		conn := mock.New().
			WithInsertFunc(func(query string, args []any) (int64, error) {
				if args[0] == "bad" {
					return -1, sterrors.NewStorageError("insert", query, boom)
				}
				return 7, nil
			}).
			WithCompileError(nil)

		stmt, _ := conn.CompileStatement(ctx, "INSERT")
		stmt.BindString(1, "bad")
		if _, err := stmt.ExecuteInsert(ctx); !errors.Is(err, boom) {
			t.Fatalf("Expected scripted error, got %v", err)
		}
		stmt.BindString(1, "good")
		if id, err := stmt.ExecuteInsert(ctx); err != nil || id != 7 {
			t.Fatalf("Expected id 7, got %d (%v)", id, err)
		}
	})

	t.Run("Transactions", func(t *testing.T) {
		conn := mock.New()

		tx, _ := conn.BeginTransaction(ctx)
		_ = tx.Commit()
		_ = tx.Rollback()

		tx, _ = conn.BeginTransaction(ctx)
		_ = tx.Rollback()

		if conn.Commits() != 1 || conn.Rollbacks() != 1 {
			t.Fatalf("Expected 1 commit and 1 rollback, got %d and %d", conn.Commits(), conn.Rollbacks())
		}
	})

	t.Run("CannedRows", func(t *testing.T) {
		conn := mock.New().WithRows("SELECT", mock.Rows{
			Columns: []string{"id", "name"},
			Values:  [][]any{{int64(1), "a"}, {int64(2), "b"}},
		})

		cur, err := conn.RawQuery(ctx, "SELECT")
		if err != nil {
			t.Fatalf("RawQuery failed: %v", err)
		}
		var ids []int64
		for cur.Next() {
			var id int64
			var name string
			if err := cur.Scan(&id, &name); err != nil {
				t.Fatalf("Scan failed: %v", err)
			}
			ids = append(ids, id)
		}
		if len(ids) != 2 || ids[1] != 2 {
			t.Fatalf("Unexpected ids %v", ids)
		}

		if _, err := conn.RawQuery(ctx, "OTHER"); !sterrors.IsStorageError(err) {
			t.Fatalf("Expected StorageError for unknown query, got %v", err)
		}
	})
}
