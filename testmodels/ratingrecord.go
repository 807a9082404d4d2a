/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import (
	"context"

	"github.com/suparena/entityflow/adapter"
	"github.com/suparena/entityflow/storage"
	"github.com/suparena/entityflow/storagemodels"
)

// RatingRecord is keyed by (SystemID, PlayerID) and references a Player.
type RatingRecord struct {
	SystemID string  `json:"SystemId"`
	PlayerID int64   `json:"PlayerId"`
	Score    float64 `json:"Score"`

	// Player, if set, is saved before the record and supplies PlayerID.
	Player *Player `json:"-"`
}

// RatingRecordSelect selects columns in the order LoadFromCursor expects.
const RatingRecordSelect = `SELECT system_id, player_id, score FROM rating_records`

// PlayerSaver persists a referenced Player.
type PlayerSaver interface {
	Save(ctx context.Context, conn storage.Connection, model *Player) (storagemodels.SaveOutcome, error)
}

// RatingRecordAdapter maps RatingRecord onto the rating_records table.
type RatingRecordAdapter struct {
	// Players saves referenced players. Without it, references are ignored.
	Players PlayerSaver
	// Relationships counts LoadRelationships calls.
	Relationships int
}

var (
	_ adapter.ModelAdapter[*RatingRecord]       = (*RatingRecordAdapter)(nil)
	_ adapter.ForeignKeySaver[*RatingRecord]    = (*RatingRecordAdapter)(nil)
	_ adapter.RelationshipLoader[*RatingRecord] = (*RatingRecordAdapter)(nil)
)

func (*RatingRecordAdapter) EntityType() storagemodels.EntityType { return RatingRecordType }
func (*RatingRecordAdapter) TableName() string { return "rating_records" }
func (*RatingRecordAdapter) NewInstance() *RatingRecord { return new(RatingRecord) }

func (*RatingRecordAdapter) InsertQuery() string {
	return `INSERT INTO rating_records (system_id, player_id, score) VALUES (?, ?, ?)`
}

func (a *RatingRecordAdapter) AutoIncrementInsertQuery() string { return a.InsertQuery() }

func (*RatingRecordAdapter) UpdateQuery() string {
	return `UPDATE rating_records SET score = ? WHERE system_id = ? AND player_id = ?`
}

func (*RatingRecordAdapter) DeleteQuery() string {
	return `DELETE FROM rating_records WHERE system_id = ? AND player_id = ?`
}

func (*RatingRecordAdapter) BindToInsertStatement(stmt storage.Statement, m *RatingRecord, _ storagemodels.AutoIncrementStrategy) error {
	return storage.BindAll(stmt, m.SystemID, m.PlayerID, m.Score)
}

func (*RatingRecordAdapter) BindToUpdateStatement(stmt storage.Statement, m *RatingRecord) error {
	return storage.BindAll(stmt, m.Score, m.SystemID, m.PlayerID)
}

func (*RatingRecordAdapter) BindToDeleteStatement(stmt storage.Statement, m *RatingRecord) error {
	return storage.BindAll(stmt, m.SystemID, m.PlayerID)
}

func (*RatingRecordAdapter) LoadFromCursor(cursor storage.Cursor, m *RatingRecord) error {
	return cursor.Scan(&m.SystemID, &m.PlayerID, &m.Score)
}

func (a *RatingRecordAdapter) Exists(ctx context.Context, conn storage.Connection, m *RatingRecord) (bool, error) {
	return adapter.ExistsByPrimaryKey(ctx, conn, a.TableName(), a.PrimaryKeyConditions(m))
}

func (*RatingRecordAdapter) PrimaryKeyConditions(m *RatingRecord) []storagemodels.Condition {
	return []storagemodels.Condition{
		{Column: "system_id", Value: m.SystemID},
		{Column: "player_id", Value: m.PlayerID},
	}
}

func (*RatingRecordAdapter) HasAutoIncrement(*RatingRecord) bool { return false }
func (*RatingRecordAdapter) AutoIncrementID(*RatingRecord) int64 { return 0 }
func (*RatingRecordAdapter) SetAutoIncrementID(*RatingRecord, int64) {}

func (a *RatingRecordAdapter) SaveForeignKeys(ctx context.Context, conn storage.Connection, m *RatingRecord) error {
	if m.Player == nil || a.Players == nil {
		return nil
	}
	if _, err := a.Players.Save(ctx, conn, m.Player); err != nil {
		return err
	}
	m.PlayerID = m.Player.ID
	return nil
}

func (a *RatingRecordAdapter) LoadRelationships(ctx context.Context, conn storage.Connection, m *RatingRecord) error {
	a.Relationships++
	return nil
}
