package db

import (
	"fmt"
	"strings"

	"github.com/marcus/filmlog/internal/models"
)

// OutboxStatus is the lifecycle state of an outbox entry.
type OutboxStatus string

const (
	OutboxPending    OutboxStatus = "pending"
	OutboxInProgress OutboxStatus = "in_progress"
	OutboxFailed     OutboxStatus = "failed"
)

// MaxRetries is the attempt cap before an entry is parked as failed.
const MaxRetries = 5

// OutboxEntry is one row of the durable upload queue.
type OutboxEntry struct {
	Seq         int64
	Table       string
	EntityID    string
	Op          models.Operation
	Status      OutboxStatus
	RetryCount  int
	LastAttempt *int64 // epoch-ms, nil until first attempt
}

// AppendOutbox appends a pending entry. Entries are never updated in
// place beyond status bookkeeping; supersession is resolved at read time
// by keeping the highest sequence per (tbl, entity_id).
func (db *DB) AppendOutbox(tbl, entityID string, op models.Operation) error {
	return db.withWriteLock(func() error {
		_, err := db.conn.Exec(
			`INSERT INTO outbox (tbl, entity_id, op, status, retry_count, last_attempt)
			 VALUES (?, ?, ?, ?, 0, NULL)`,
			tbl, entityID, string(op), string(OutboxPending),
		)
		if err != nil {
			return fmt.Errorf("append outbox %s/%s: %w", tbl, entityID, err)
		}
		return nil
	})
}

// ListOutbox returns entries in the given states, ordered by sequence.
func (db *DB) ListOutbox(statuses ...OutboxStatus) ([]OutboxEntry, error) {
	if len(statuses) == 0 {
		return nil, nil
	}
	placeholders := make([]string, len(statuses))
	args := make([]any, len(statuses))
	for i, s := range statuses {
		placeholders[i] = "?"
		args[i] = string(s)
	}
	query := fmt.Sprintf(
		`SELECT seq, tbl, entity_id, op, status, retry_count, last_attempt
		 FROM outbox WHERE status IN (%s) ORDER BY seq ASC`,
		strings.Join(placeholders, ","))
	return db.queryOutbox(query, args...)
}

// OutboxEntriesFor returns every entry for one entity regardless of
// status. The download engine uses this for conflict detection, where
// pending, in_progress and failed all count as in-flight.
func (db *DB) OutboxEntriesFor(tbl, entityID string) ([]OutboxEntry, error) {
	return db.queryOutbox(
		`SELECT seq, tbl, entity_id, op, status, retry_count, last_attempt
		 FROM outbox WHERE tbl = ? AND entity_id = ? ORDER BY seq ASC`,
		tbl, entityID)
}

func (db *DB) queryOutbox(query string, args ...any) ([]OutboxEntry, error) {
	rows, err := db.conn.Query(query, args...)
	if err != nil {
		return nil, fmt.Errorf("query outbox: %w", err)
	}
	defer rows.Close()

	var entries []OutboxEntry
	for rows.Next() {
		var e OutboxEntry
		var op, status string
		var lastAttempt *int64
		if err := rows.Scan(&e.Seq, &e.Table, &e.EntityID, &op, &status, &e.RetryCount, &lastAttempt); err != nil {
			return nil, fmt.Errorf("scan outbox: %w", err)
		}
		e.Op = models.Operation(op)
		e.Status = OutboxStatus(status)
		e.LastAttempt = lastAttempt
		entries = append(entries, e)
	}
	return entries, rows.Err()
}

// ClaimEntries transitions entries to in_progress ahead of an upload
// attempt.
func (db *DB) ClaimEntries(seqs []int64) error {
	return db.updateBySeq(seqs,
		`UPDATE outbox SET status = 'in_progress' WHERE seq IN (%s)`)
}

// DeleteEntries removes entries after a successful upload (superseded
// duplicates included) or after a download conflict discards them.
func (db *DB) DeleteEntries(seqs []int64) error {
	return db.updateBySeq(seqs, `DELETE FROM outbox WHERE seq IN (%s)`)
}

// FailEntries records a failed attempt: retry_count is bumped and the
// entry either stays retryable (in_progress with a fresh last_attempt)
// or parks as failed once the cap is reached.
func (db *DB) FailEntries(seqs []int64, nowMs int64) error {
	if len(seqs) == 0 {
		return nil
	}
	placeholders, args := seqArgs(seqs)
	query := fmt.Sprintf(
		`UPDATE outbox
		 SET retry_count = retry_count + 1,
		     last_attempt = %d,
		     status = CASE WHEN retry_count + 1 >= %d THEN 'failed' ELSE 'in_progress' END
		 WHERE seq IN (%s)`,
		nowMs, MaxRetries, placeholders)
	return db.withWriteLock(func() error {
		if _, err := db.conn.Exec(query, args...); err != nil {
			return fmt.Errorf("fail outbox entries: %w", err)
		}
		return nil
	})
}

// ResetEntries returns stale in_progress entries to pending with a clean
// retry budget. Self-healing after an interrupted cycle.
func (db *DB) ResetEntries(seqs []int64) error {
	return db.updateBySeq(seqs,
		`UPDATE outbox SET status = 'pending', retry_count = 0, last_attempt = NULL WHERE seq IN (%s)`)
}

// RetryFailed resets all failed entries to pending. Manual recovery.
func (db *DB) RetryFailed() (int64, error) {
	var affected int64
	err := db.withWriteLock(func() error {
		res, err := db.conn.Exec(
			`UPDATE outbox SET status = 'pending', retry_count = 0, last_attempt = NULL WHERE status = 'failed'`)
		if err != nil {
			return fmt.Errorf("retry failed entries: %w", err)
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	return affected, err
}

// ClearFailed discards all failed entries. Manual recovery.
func (db *DB) ClearFailed() (int64, error) {
	var affected int64
	err := db.withWriteLock(func() error {
		res, err := db.conn.Exec(`DELETE FROM outbox WHERE status = 'failed'`)
		if err != nil {
			return fmt.Errorf("clear failed entries: %w", err)
		}
		affected, _ = res.RowsAffected()
		return nil
	})
	return affected, err
}

// QueueStats returns the not-yet-synced count (pending + in_progress)
// and the parked failure count.
func (db *DB) QueueStats() (pending, failed int64, err error) {
	err = db.conn.QueryRow(
		`SELECT COUNT(*) FROM outbox WHERE status IN ('pending', 'in_progress')`).Scan(&pending)
	if err != nil {
		return 0, 0, fmt.Errorf("count pending: %w", err)
	}
	err = db.conn.QueryRow(
		`SELECT COUNT(*) FROM outbox WHERE status = 'failed'`).Scan(&failed)
	if err != nil {
		return 0, 0, fmt.Errorf("count failed: %w", err)
	}
	return pending, failed, nil
}

func (db *DB) updateBySeq(seqs []int64, queryFmt string) error {
	if len(seqs) == 0 {
		return nil
	}
	placeholders, args := seqArgs(seqs)
	query := fmt.Sprintf(queryFmt, placeholders)
	return db.withWriteLock(func() error {
		if _, err := db.conn.Exec(query, args...); err != nil {
			return fmt.Errorf("update outbox: %w", err)
		}
		return nil
	})
}

func seqArgs(seqs []int64) (string, []any) {
	placeholders := make([]string, len(seqs))
	args := make([]any, len(seqs))
	for i, s := range seqs {
		placeholders[i] = "?"
		args[i] = s
	}
	return strings.Join(placeholders, ","), args
}
