/*
 * Copyright © 2025 Suparena Software Inc., All rights reserved.
 */

package testmodels

import (
	"context"

	"github.com/go-openapi/strfmt"
	"github.com/suparena/entityflow/adapter"
	"github.com/suparena/entityflow/storage"
	"github.com/suparena/entityflow/storagemodels"
)

const PlayerType storagemodels.EntityType = "Player"

// Player has a storage-generated id.
type Player struct {
	ID        int64           `json:"Id"`
	Name      string          `json:"Name"`
	Rating    float64         `json:"Rating"`
	UpdatedAt strfmt.DateTime `json:"UpdatedAt"`
}

// PlayerSelect selects columns in the order LoadFromCursor expects.
const PlayerSelect = `SELECT id, name, rating, updated_at FROM players`

// PlayerAdapter maps Player onto the players table.
type PlayerAdapter struct{}

var _ adapter.ModelAdapter[*Player] = PlayerAdapter{}

func (PlayerAdapter) EntityType() storagemodels.EntityType { return PlayerType }
func (PlayerAdapter) TableName() string { return "players" }
func (PlayerAdapter) NewInstance() *Player { return new(Player) }

func (PlayerAdapter) InsertQuery() string {
	return `INSERT INTO players (id, name, rating, updated_at) VALUES (?, ?, ?, ?)`
}

func (PlayerAdapter) AutoIncrementInsertQuery() string {
	return `INSERT INTO players (name, rating, updated_at) VALUES (?, ?, ?)`
}

func (PlayerAdapter) UpdateQuery() string {
	return `UPDATE players SET name = ?, rating = ?, updated_at = ? WHERE id = ?`
}

func (PlayerAdapter) DeleteQuery() string { return `DELETE FROM players WHERE id = ?` }

func (PlayerAdapter) BindToInsertStatement(stmt storage.Statement, m *Player, strategy storagemodels.AutoIncrementStrategy) error {
	if strategy == storagemodels.AutoIncrementGenerated {
		return storage.BindAll(stmt, m.Name, m.Rating, m.UpdatedAt)
	}
	return storage.BindAll(stmt, m.ID, m.Name, m.Rating, m.UpdatedAt)
}

func (PlayerAdapter) BindToUpdateStatement(stmt storage.Statement, m *Player) error {
	return storage.BindAll(stmt, m.Name, m.Rating, m.UpdatedAt, m.ID)
}

func (PlayerAdapter) BindToDeleteStatement(stmt storage.Statement, m *Player) error {
	return storage.BindAll(stmt, m.ID)
}

func (PlayerAdapter) LoadFromCursor(cursor storage.Cursor, m *Player) error {
	return cursor.Scan(&m.ID, &m.Name, &m.Rating, &m.UpdatedAt)
}

func (a PlayerAdapter) Exists(ctx context.Context, conn storage.Connection, m *Player) (bool, error) {
	if m.ID == 0 {
		return false, nil
	}
	return adapter.ExistsByPrimaryKey(ctx, conn, a.TableName(), a.PrimaryKeyConditions(m))
}

func (PlayerAdapter) PrimaryKeyConditions(m *Player) []storagemodels.Condition {
	return []storagemodels.Condition{{Column: "id", Value: m.ID}}
}

func (PlayerAdapter) HasAutoIncrement(m *Player) bool { return m.ID == 0 }
func (PlayerAdapter) AutoIncrementID(m *Player) int64 { return m.ID }
func (PlayerAdapter) SetAutoIncrementID(m *Player, id int64) { m.ID = id }
