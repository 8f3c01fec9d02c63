package sync

import (
	"encoding/json"
	"log/slog"

	"github.com/marcus/filmlog/internal/db"
	"github.com/marcus/filmlog/internal/models"
)

// DownloadResult summarises one download cycle.
type DownloadResult struct {
	Downloaded int
	Conflicts  int
}

// RunDownloadCycle pulls remote changes since the lastDownloadSync
// watermark, resolves conflicts against in-flight outbox entries by
// server-wins, merges preserved local-only fields, and bulk-writes the
// result. The new watermark is the maximum server updated_at across all
// rows that were actually written locally, so it is immune to client
// clock skew; it is left unchanged when nothing was downloaded.
func (e *Engine) RunDownloadCycle() (DownloadResult, error) {
	if !e.downloadMu.TryLock() {
		return DownloadResult{}, ErrCycleRunning
	}
	defer e.downloadMu.Unlock()

	var result DownloadResult

	watermark, err := e.store.GetMeta(db.MetaLastDownloadSync)
	if err != nil {
		return result, err
	}

	var maxApplied appliedMark

	for _, table := range models.Tables {
		n, c, err := e.downloadTable(table, watermark, &maxApplied)
		if err != nil {
			// Tables are isolated failure domains; report and move on.
			slog.Warn("download table failed", "table", table.Name, "err", err)
			continue
		}
		result.Downloaded += n
		result.Conflicts += c
	}

	if result.Downloaded > 0 && maxApplied.iso != "" {
		if err := e.store.SetMeta(db.MetaLastDownloadSync, maxApplied.iso); err != nil {
			return result, err
		}
	}
	return result, nil
}

// appliedMark tracks the highest server updated_at among rows that were
// actually written locally. Rows skipped by conversion failures and
// pages whose bulk write failed never reach it, so they stay above the
// watermark and get re-fetched next cycle.
type appliedMark struct {
	ms  int64
	iso string
}

func (m *appliedMark) observe(iso string) {
	if ms, err := FromISO(iso); err == nil && ms > m.ms {
		m.ms = ms
		m.iso = iso
	}
}

func (m *appliedMark) fold(other appliedMark) {
	if other.ms > m.ms {
		*m = other
	}
}

// downloadTable pages through one table's remote changes and applies
// them in ascending updated_at order.
func (e *Engine) downloadTable(table models.Table, since string, maxApplied *appliedMark) (downloaded, conflicts int, err error) {
	offset := 0
	for {
		var page []map[string]any
		err := e.callWithTimeout("select "+table.Name, func() error {
			var serr error
			page, serr = e.remote.Select(table.Name, since, offset, downloadPageSize)
			return serr
		})
		if err != nil {
			return downloaded, conflicts, err
		}
		if len(page) == 0 {
			return downloaded, conflicts, nil
		}

		merged := make([]models.Row, 0, len(page))
		var pageMark appliedMark
		for _, serverRow := range page {
			row, c, err := e.applyServerRow(table, serverRow)
			if err != nil {
				slog.Warn("download: skipping row", "table", table.Name, "err", err)
				continue
			}
			conflicts += c
			merged = append(merged, row)
			if iso, ok := serverRow["updated_at"].(string); ok {
				pageMark.observe(iso)
			}
		}

		if err := e.store.BulkPut(table, merged); err != nil {
			return downloaded, conflicts, err
		}
		downloaded += len(merged)
		// Only now, with the page on disk, may its rows move the watermark.
		maxApplied.fold(pageMark)

		if len(page) < downloadPageSize {
			return downloaded, conflicts, nil
		}
		offset += downloadPageSize
	}
}

// applyServerRow converts one server row to local shape, detects and
// records a conflict if the entity has in-flight outbox entries (any
// status counts), and merges preserved local-only fields. Returns the
// merged row ready for bulk write.
func (e *Engine) applyServerRow(table models.Table, serverRow map[string]any) (models.Row, int, error) {
	row, err := fromWire(table, serverRow)
	if err != nil {
		return nil, 0, err
	}
	id, _ := row["id"].(string)
	if id == "" {
		return nil, 0, errMissingID
	}

	local, err := e.store.Get(table, id)
	if err != nil {
		return nil, 0, err
	}

	conflicts := 0
	entries, err := e.store.OutboxEntriesFor(table.Name, id)
	if err != nil {
		return nil, 0, err
	}
	if len(entries) > 0 {
		// The local in-flight change loses: snapshot both sides for the
		// audit trail and discard the queued upload.
		localJSON, _ := json.Marshal(local)
		serverJSON, _ := json.Marshal(serverRow)
		if err := e.store.RecordConflict(table.Name, id, localJSON, serverJSON, e.now().UnixMilli()); err != nil {
			return nil, 0, err
		}
		if err := e.store.DeleteEntries(entrySeqs(entries)); err != nil {
			return nil, 0, err
		}
		conflicts = 1
		slog.Info("download conflict, server wins", "table", table.Name, "id", id)
	}

	// Fields the server does not carry survive from the local row.
	if local != nil {
		for _, f := range table.Preserve {
			if row[f] == nil && local[f] != nil {
				row[f] = local[f]
			}
		}
	}
	return row, conflicts, nil
}
