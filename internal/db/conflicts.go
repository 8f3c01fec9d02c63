package db

import (
	"fmt"
	"time"
)

// Conflict is one server-wins overwrite recorded by the download engine.
type Conflict struct {
	ID         int64
	Table      string
	EntityID   string
	LocalData  string
	ServerData string
	ResolvedBy string
	CreatedAt  time.Time
}

// RecordConflict appends a write-once audit row. The engine never reads
// these back; they exist for the user.
func (db *DB) RecordConflict(tbl, entityID string, localData, serverData []byte, nowMs int64) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(
			`INSERT INTO sync_conflicts (tbl, entity_id, local_data, server_data, resolved_by, created_at)
			 VALUES (?, ?, ?, ?, 'server_wins', ?)`,
			tbl, entityID, string(localData), string(serverData), nowMs)
		if err != nil {
			return fmt.Errorf("record conflict %s/%s: %w", tbl, entityID, err)
		}
		return nil
	})
}

// RecentConflicts returns the most recent conflicts, newest first.
func (db *DB) RecentConflicts(limit int) ([]Conflict, error) {
	rows, err := db.conn.Query(
		`SELECT id, tbl, entity_id, COALESCE(local_data,'null'), COALESCE(server_data,'null'), resolved_by, created_at
		 FROM sync_conflicts ORDER BY created_at DESC, id DESC LIMIT ?`, limit)
	if err != nil {
		return nil, fmt.Errorf("query conflicts: %w", err)
	}
	defer rows.Close()

	var conflicts []Conflict
	for rows.Next() {
		var c Conflict
		var createdMs int64
		if err := rows.Scan(&c.ID, &c.Table, &c.EntityID, &c.LocalData, &c.ServerData, &c.ResolvedBy, &createdMs); err != nil {
			return nil, fmt.Errorf("scan conflict: %w", err)
		}
		c.CreatedAt = time.UnixMilli(createdMs).UTC()
		conflicts = append(conflicts, c)
	}
	return conflicts, rows.Err()
}
