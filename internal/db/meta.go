package db

import (
	"database/sql"
	"fmt"
)

// Well-known sync_meta keys. The KV space is shared with unrelated app
// settings, so engine keys are namespaced by convention only.
const (
	MetaLastUploadSync   = "lastUploadSync"
	MetaLastDownloadSync = "lastDownloadSync"
)

// GetMeta returns the value for a key, or "" if unset.
func (db *DB) GetMeta(key string) (string, error) {
	var value string
	err := db.conn.QueryRow(`SELECT value FROM sync_meta WHERE key = ?`, key).Scan(&value)
	if err == sql.ErrNoRows {
		return "", nil
	}
	if err != nil {
		return "", fmt.Errorf("get meta %q: %w", key, err)
	}
	return value, nil
}

// SetMeta creates or overwrites a key.
func (db *DB) SetMeta(key, value string) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(
			`INSERT OR REPLACE INTO sync_meta (key, value) VALUES (?, ?)`, key, value)
		if err != nil {
			return fmt.Errorf("set meta %q: %w", key, err)
		}
		return nil
	})
}
