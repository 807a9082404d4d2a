/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package adapter

import (
	"context"
	"fmt"
	"strings"

	"github.com/suparena/entityflow/storage"
	"github.com/suparena/entityflow/storagemodels"
)

// ModelAdapter maps records of type T onto storage. Adapters are generated
// alongside each entity; entityflow consumes them but never builds SQL itself.
// T is expected to be a pointer type so generated ids can be written back.
type ModelAdapter[T any] interface {
	EntityType() storagemodels.EntityType
	TableName() string
	NewInstance() T

	// InsertQuery binds every column including the primary key.
	InsertQuery() string
	// AutoIncrementInsertQuery omits the autoincrement column.
	AutoIncrementInsertQuery() string
	UpdateQuery() string
	DeleteQuery() string

	BindToInsertStatement(stmt storage.Statement, model T, strategy storagemodels.AutoIncrementStrategy) error
	BindToUpdateStatement(stmt storage.Statement, model T) error
	BindToDeleteStatement(stmt storage.Statement, model T) error
	LoadFromCursor(cursor storage.Cursor, model T) error

	Exists(ctx context.Context, conn storage.Connection, model T) (bool, error)
	// PrimaryKeyConditions returns the primary-key columns and values of model,
	// in a stable column order.
	PrimaryKeyConditions(model T) []storagemodels.Condition

	// HasAutoIncrement reports whether model should let storage generate its key.
	HasAutoIncrement(model T) bool
	AutoIncrementID(model T) int64
	SetAutoIncrementID(model T, id int64)
}

// CachingKeyer overrides the cache key derived from primary-key conditions.
type CachingKeyer[T any] interface {
	CachingKeyOf(model T) any
}

// ForeignKeySaver persists records referenced by model before model itself.
type ForeignKeySaver[T any] interface {
	SaveForeignKeys(ctx context.Context, conn storage.Connection, model T) error
}

// ChildDeleter deletes records owned by model before model itself.
type ChildDeleter[T any] interface {
	DeleteChildren(ctx context.Context, conn storage.Connection, model T) error
}

// RelationshipLoader reloads the relationships of a cached instance which was
// hit while loading from a cursor.
type RelationshipLoader[T any] interface {
	LoadRelationships(ctx context.Context, conn storage.Connection, model T) error
}

// PrimaryKeyClause renders conditions as a WHERE clause and its arguments:
//
//	"id" = ? AND "region" = ?
func PrimaryKeyClause(conditions []storagemodels.Condition) (string, []any) {
	var parts = make([]string, 0, len(conditions))
	var args = make([]any, 0, len(conditions))
	for _, c := range conditions {
		parts = append(parts, fmt.Sprintf("%q = ?", c.Column))
		args = append(args, c.Value)
	}
	return strings.Join(parts, " AND "), args
}

// ExistsByPrimaryKey is the usual Exists implementation: it selects a single
// row of table matching the primary-key conditions.
func ExistsByPrimaryKey(ctx context.Context, conn storage.Connection, table string, conditions []storagemodels.Condition) (bool, error) {
	if len(conditions) == 0 {
		return false, nil
	}
	clause, args := PrimaryKeyClause(conditions)
	cur, err := conn.RawQuery(ctx, fmt.Sprintf("SELECT 1 FROM %q WHERE %s LIMIT 1", table, clause), args...)
	if err != nil {
		return false, err
	}
	defer cur.Close()

	var found = cur.Next()
	return found, cur.Err()
}
