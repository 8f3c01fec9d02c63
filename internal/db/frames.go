package db

import (
	"fmt"
	"strings"

	"github.com/marcus/filmlog/internal/models"
)

func framesTable() models.Table {
	t, _ := models.TableByName("frames")
	return t
}

// FramesAwaitingUpload returns frames with a local thumbnail blob but no
// remote pointer, for one owner.
func (db *DB) FramesAwaitingUpload(ownerID string) ([]models.Row, error) {
	return db.queryFrames(
		`owner_id = ? AND thumbnail IS NOT NULL AND (thumbnail_url IS NULL OR thumbnail_url = '')`,
		ownerID)
}

// FramesAwaitingDownload returns frames with a remote pointer but no
// local cache copy.
func (db *DB) FramesAwaitingDownload() ([]models.Row, error) {
	return db.queryFrames(
		`thumbnail_url IS NOT NULL AND thumbnail_url != '' AND thumbnail IS NULL`)
}

func (db *DB) queryFrames(where string, args ...any) ([]models.Row, error) {
	table := framesTable()
	query := fmt.Sprintf("SELECT %s FROM frames WHERE %s ORDER BY created_at ASC",
		strings.Join(table.Columns, ", "), where)

	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query frames: %w", err)
	}
	defer rows.Close()

	var out []models.Row
	for rows.Next() {
		row, err := scanRow(rows, table)
		if err != nil {
			return nil, fmt.Errorf("scan frame: %w", err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

// SetFrameThumbnail writes the local cache blob directly, bypassing the
// gateway and the outbox. The blob column never syncs, so no outbox
// entry and no updated_at bump.
func (db *DB) SetFrameThumbnail(id string, blob []byte) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(`UPDATE frames SET thumbnail = ? WHERE id = ?`, blob, id)
		if err != nil {
			return fmt.Errorf("set frame thumbnail %s: %w", id, err)
		}
		return nil
	})
}
