/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

// Package testmodels contains hand-written entity adapters of the shape the
// adapter generator emits, used by tests and the demo command.
package testmodels

import (
	"context"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/entityflow/adapter"
	"github.com/suparena/entityflow/errors"
	"github.com/suparena/entityflow/storage"
	"github.com/suparena/entityflow/storagemodels"
)

// Schema creates the tables of every model in this package.
const Schema = `
CREATE TABLE players (
	id         INTEGER PRIMARY KEY AUTOINCREMENT,
	name       TEXT NOT NULL UNIQUE,
	rating     REAL NOT NULL DEFAULT 0,
	updated_at TEXT
);
CREATE TABLE rating_systems (
	id          TEXT PRIMARY KEY,
	name        TEXT NOT NULL,
	description TEXT,
	site_url    TEXT,
	created_at  TEXT
);
CREATE TABLE rating_records (
	system_id TEXT NOT NULL,
	player_id INTEGER NOT NULL,
	score     REAL NOT NULL,
	PRIMARY KEY (system_id, player_id)
);`

const (
	RatingSystemType storagemodels.EntityType = "RatingSystem"
	RatingRecordType storagemodels.EntityType = "RatingRecord"
)

type RatingSystem struct {

	// Unique identifier for the rating system.
	// Required: true
	ID string `json:"Id"`

	// Name of the rating system.
	// Required: true
	Name string `json:"Name"`

	// A description of the rating system.
	Description *string `json:"Description"`

	// site Url
	SiteURL string `json:"SiteUrl,omitempty"`

	// Timestamp when the rating system was created.
	// Format: date-time
	CreatedAt strfmt.DateTime `json:"CreatedAt"`
}

// RecordDeleter loads and deletes RatingRecords, keeping their cache and
// observers in step. executor.ModelSaver implements it.
type RecordDeleter interface {
	Query(ctx context.Context, conn storage.Connection, query string, args ...any) ([]*RatingRecord, error)
	DeleteAll(ctx context.Context, conn storage.Connection, models []*RatingRecord) (int, error)
}

// RatingSystemAdapter maps RatingSystem onto the rating_systems table. Its
// key is supplied by the caller. Deleting a system deletes its records.
type RatingSystemAdapter struct {
	// Records deletes the records of a deleted system. Without it, records
	// are deleted with a single statement, bypassing their cache.
	Records RecordDeleter
}

var (
	_ adapter.ModelAdapter[*RatingSystem] = RatingSystemAdapter{}
	_ adapter.ChildDeleter[*RatingSystem] = RatingSystemAdapter{}
)

func (RatingSystemAdapter) EntityType() storagemodels.EntityType { return RatingSystemType }
func (RatingSystemAdapter) TableName() string { return "rating_systems" }
func (RatingSystemAdapter) NewInstance() *RatingSystem { return new(RatingSystem) }

func (RatingSystemAdapter) InsertQuery() string {
	return `INSERT INTO rating_systems (id, name, description, site_url, created_at) VALUES (?, ?, ?, ?, ?)`
}

func (a RatingSystemAdapter) AutoIncrementInsertQuery() string { return a.InsertQuery() }

func (RatingSystemAdapter) UpdateQuery() string {
	return `UPDATE rating_systems SET name = ?, description = ?, site_url = ?, created_at = ? WHERE id = ?`
}

func (RatingSystemAdapter) DeleteQuery() string { return `DELETE FROM rating_systems WHERE id = ?` }

// RatingSystemSelect selects columns in the order LoadFromCursor expects.
const RatingSystemSelect = `SELECT id, name, description, site_url, created_at FROM rating_systems`

func (RatingSystemAdapter) BindToInsertStatement(stmt storage.Statement, m *RatingSystem, _ storagemodels.AutoIncrementStrategy) error {
	return storage.BindAll(stmt, m.ID, m.Name, m.Description, m.SiteURL, m.CreatedAt)
}

func (RatingSystemAdapter) BindToUpdateStatement(stmt storage.Statement, m *RatingSystem) error {
	return storage.BindAll(stmt, m.Name, m.Description, m.SiteURL, m.CreatedAt, m.ID)
}

func (RatingSystemAdapter) BindToDeleteStatement(stmt storage.Statement, m *RatingSystem) error {
	return storage.BindAll(stmt, m.ID)
}

func (RatingSystemAdapter) LoadFromCursor(cursor storage.Cursor, m *RatingSystem) error {
	return cursor.Scan(&m.ID, &m.Name, &m.Description, &m.SiteURL, &m.CreatedAt)
}

func (a RatingSystemAdapter) Exists(ctx context.Context, conn storage.Connection, m *RatingSystem) (bool, error) {
	return adapter.ExistsByPrimaryKey(ctx, conn, a.TableName(), a.PrimaryKeyConditions(m))
}

func (RatingSystemAdapter) PrimaryKeyConditions(m *RatingSystem) []storagemodels.Condition {
	return []storagemodels.Condition{{Column: "id", Value: m.ID}}
}

func (RatingSystemAdapter) HasAutoIncrement(*RatingSystem) bool { return false }
func (RatingSystemAdapter) AutoIncrementID(*RatingSystem) int64 { return 0 }
func (RatingSystemAdapter) SetAutoIncrementID(*RatingSystem, int64) {}

func (a RatingSystemAdapter) DeleteChildren(ctx context.Context, conn storage.Connection, m *RatingSystem) error {
	if a.Records == nil {
		return conn.ExecSQL(ctx, `DELETE FROM rating_records WHERE system_id = ?`, m.ID)
	}

	children, err := a.Records.Query(ctx, conn, RatingRecordSelect+` WHERE system_id = ?`, m.ID)
	if err != nil {
		return err
	}
	n, err := a.Records.DeleteAll(ctx, conn, children)
	if err != nil {
		return err
	} else if n != len(children) {
		return errors.NewSaveFailedError(RatingRecordType, storagemodels.ActionDelete)
	}
	return nil
}
