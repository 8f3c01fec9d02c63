package db

import (
	"database/sql"
	"fmt"
	"strings"

	"github.com/marcus/filmlog/internal/models"
)

// Get returns one entity row by id, or nil if it does not exist.
func (db *DB) Get(table models.Table, id string) (models.Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE id = ?",
		strings.Join(table.Columns, ", "), table.Name)

	rows, err := db.conn.Query(query, id)
	if err != nil {
		return nil, fmt.Errorf("get %s/%s: %w", table.Name, id, err)
	}
	defer rows.Close()

	if !rows.Next() {
		return nil, rows.Err()
	}
	row, err := scanRow(rows, table)
	if err != nil {
		return nil, fmt.Errorf("scan %s/%s: %w", table.Name, id, err)
	}
	return row, nil
}

// Put writes one entity row as an overwrite upsert. Columns absent from
// the map are written as NULL.
func (db *DB) Put(table models.Table, row models.Row) error {
	return db.withWriteLock(func() error {
		return putRow(db.conn, table, row)
	})
}

// BulkPut writes a batch of rows in one transaction, in order.
func (db *DB) BulkPut(table models.Table, batch []models.Row) error {
	if len(batch) == 0 {
		return nil
	}
	return db.withWriteLock(func() error {
		tx, err := db.conn.Begin()
		if err != nil {
			return fmt.Errorf("begin bulk put: %w", err)
		}
		for _, row := range batch {
			if err := putRow(tx, table, row); err != nil {
				tx.Rollback()
				return err
			}
		}
		return tx.Commit()
	})
}

// DeleteRow physically removes an entity row. Normal deletion is a
// soft-delete through the gateway; this exists for local-only data and
// store compaction.
func (db *DB) DeleteRow(table models.Table, id string) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(fmt.Sprintf("DELETE FROM %s WHERE id = ?", table.Name), id)
		if err != nil {
			return fmt.Errorf("delete %s/%s: %w", table.Name, id, err)
		}
		return nil
	})
}

// ListRows returns all rows for an owner, newest first. Soft-deleted rows
// are excluded unless includeDeleted is set (frames have no tombstone and
// always return everything).
func (db *DB) ListRows(table models.Table, ownerID string, includeDeleted bool) ([]models.Row, error) {
	query := fmt.Sprintf("SELECT %s FROM %s WHERE owner_id = ?",
		strings.Join(table.Columns, ", "), table.Name)
	if table.HasDeletedAt && !includeDeleted {
		query += " AND deleted_at IS NULL"
	}
	query += " ORDER BY created_at DESC"

	rows, err := db.conn.Query(query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("list %s: %w", table.Name, err)
	}
	defer rows.Close()

	var out []models.Row
	for rows.Next() {
		row, err := scanRow(rows, table)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", table.Name, err)
		}
		out = append(out, row)
	}
	return out, rows.Err()
}

type execer interface {
	Exec(query string, args ...any) (sql.Result, error)
}

func putRow(e execer, table models.Table, row models.Row) error {
	placeholders := make([]string, len(table.Columns))
	args := make([]any, len(table.Columns))
	for i, col := range table.Columns {
		placeholders[i] = "?"
		args[i] = row[col]
	}
	query := fmt.Sprintf("INSERT OR REPLACE INTO %s (%s) VALUES (%s)",
		table.Name, strings.Join(table.Columns, ", "), strings.Join(placeholders, ", "))
	if _, err := e.Exec(query, args...); err != nil {
		return fmt.Errorf("put %s: %w", table.Name, err)
	}
	return nil
}

// scanRow reads the current result row into a field map. TEXT columns
// arrive as []byte from some drivers and are normalized to string; only
// the frame thumbnail stays raw bytes.
func scanRow(rows *sql.Rows, table models.Table) (models.Row, error) {
	values := make([]any, len(table.Columns))
	ptrs := make([]any, len(table.Columns))
	for i := range values {
		ptrs[i] = &values[i]
	}
	if err := rows.Scan(ptrs...); err != nil {
		return nil, err
	}

	row := make(models.Row, len(table.Columns))
	for i, col := range table.Columns {
		v := values[i]
		if b, ok := v.([]byte); ok && col != "thumbnail" {
			v = string(b)
		}
		row[col] = v
	}
	return row, nil
}
