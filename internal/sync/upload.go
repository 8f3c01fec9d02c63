package sync

import (
	"log/slog"
	"sort"

	"github.com/marcus/filmlog/internal/db"
	"github.com/marcus/filmlog/internal/models"
)

// RunUploadCycle drains the outbox: eligible entries are deduplicated to
// the latest-enqueued per entity, grouped per table, batched, and
// upserted from fresh local snapshots. Returns the number of entities
// actually upserted. Batch failures are isolated; the cycle always
// finishes and reports a partial count.
func (e *Engine) RunUploadCycle() (int, error) {
	if !e.uploadMu.TryLock() {
		return 0, ErrCycleRunning
	}
	defer e.uploadMu.Unlock()

	entries, err := e.store.ListOutbox(db.OutboxPending, db.OutboxInProgress)
	if err != nil {
		return 0, err
	}
	if len(entries) == 0 {
		return 0, nil
	}

	nowMs := e.now().UnixMilli()
	eligible, stale := partitionEligible(entries, nowMs)

	if len(eligible) == 0 {
		// Nothing runnable. Entries claimed by an interrupted cycle would
		// otherwise stay stuck forever; reset them and let the next cycle
		// pick them up fresh.
		if len(stale) > 0 {
			seqs := entrySeqs(stale)
			if err := e.store.ResetEntries(seqs); err != nil {
				return 0, err
			}
			slog.Info("upload: reset stale in_progress entries", "count", len(stale))
		}
		return 0, nil
	}

	// Latest-enqueued wins per entity, regardless of its declared op.
	deduped := dedupeLatest(eligible)

	// All entries from the read set take part in bookkeeping, superseded
	// duplicates included.
	seqsByEntity := make(map[string][]int64)
	for _, en := range entries {
		key := en.Table + "/" + en.EntityID
		seqsByEntity[key] = append(seqsByEntity[key], en.Seq)
	}

	synced := 0
	for _, table := range models.Tables {
		var tableEntries []db.OutboxEntry
		for _, en := range deduped {
			if en.Table == table.Name {
				tableEntries = append(tableEntries, en)
			}
		}
		for start := 0; start < len(tableEntries); start += uploadBatchSize {
			end := start + uploadBatchSize
			if end > len(tableEntries) {
				end = len(tableEntries)
			}
			n, err := e.uploadBatch(table, tableEntries[start:end], seqsByEntity)
			if err != nil {
				// Bookkeeping failure on the local store is fatal to the cycle.
				return synced, err
			}
			synced += n
		}
	}
	return synced, nil
}

// uploadBatch pushes one batch of entities to the remote store. Returns
// the number upserted; a transport failure is absorbed into retry
// bookkeeping and returns 0 with no error.
func (e *Engine) uploadBatch(table models.Table, batch []db.OutboxEntry, seqsByEntity map[string][]int64) (int, error) {
	var claimSeqs []int64
	for _, en := range batch {
		claimSeqs = append(claimSeqs, seqsByEntity[en.Table+"/"+en.EntityID]...)
	}
	if err := e.store.ClaimEntries(claimSeqs); err != nil {
		return 0, err
	}

	// Re-read current snapshots: the outbox carries no payload, the
	// freshest local state always wins over whatever was true at enqueue.
	var wireRows []models.Row
	var liveSeqs []int64
	for _, en := range batch {
		seqs := seqsByEntity[en.Table+"/"+en.EntityID]
		row, err := e.store.Get(table, en.EntityID)
		if err != nil {
			return 0, err
		}
		if row == nil {
			// Deleted locally after enqueue: nothing to tell the remote.
			if err := e.store.DeleteEntries(seqs); err != nil {
				return 0, err
			}
			slog.Debug("upload: entity gone locally, dropped", "table", table.Name, "id", en.EntityID)
			continue
		}
		wireRows = append(wireRows, toWire(table, row))
		liveSeqs = append(liveSeqs, seqs...)
	}
	if len(wireRows) == 0 {
		return 0, nil
	}

	err := e.callWithTimeout("upsert "+table.Name, func() error {
		return e.remote.Upsert(table.Name, wireRows)
	})
	if err != nil {
		slog.Warn("upload batch failed", "table", table.Name, "count", len(wireRows), "err", err)
		if ferr := e.store.FailEntries(liveSeqs, e.now().UnixMilli()); ferr != nil {
			return 0, ferr
		}
		return 0, nil
	}

	if err := e.store.DeleteEntries(liveSeqs); err != nil {
		return 0, err
	}
	// Advisory client-clock stamp; the download watermark is the
	// authoritative one.
	if err := e.store.SetMeta(db.MetaLastUploadSync, ToISO(e.now().UnixMilli())); err != nil {
		return 0, err
	}
	slog.Info("upload batch ok", "table", table.Name, "count", len(wireRows))
	return len(wireRows), nil
}

// partitionEligible splits entries into runnable-now and stale.
// Pending entries are always runnable. In-progress entries become
// runnable once their backoff has elapsed; ones with no recorded attempt
// were claimed by an interrupted cycle and count as stale.
func partitionEligible(entries []db.OutboxEntry, nowMs int64) (eligible, stale []db.OutboxEntry) {
	for _, en := range entries {
		switch en.Status {
		case db.OutboxPending:
			eligible = append(eligible, en)
		case db.OutboxInProgress:
			if en.LastAttempt == nil {
				stale = append(stale, en)
				continue
			}
			if nowMs-*en.LastAttempt >= Backoff(en.RetryCount) {
				eligible = append(eligible, en)
			}
		}
	}
	return eligible, stale
}

// dedupeLatest collapses entries sharing (table, entity_id) down to the
// one with the highest sequence number. Input is seq-ascending, so the
// last write per key wins.
func dedupeLatest(entries []db.OutboxEntry) []db.OutboxEntry {
	latest := make(map[string]db.OutboxEntry)
	for _, en := range entries {
		latest[en.Table+"/"+en.EntityID] = en
	}
	out := make([]db.OutboxEntry, 0, len(latest))
	for _, en := range latest {
		out = append(out, en)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Seq < out[j].Seq })
	return out
}

func entrySeqs(entries []db.OutboxEntry) []int64 {
	seqs := make([]int64, len(entries))
	for i, en := range entries {
		seqs[i] = en.Seq
	}
	return seqs
}
