package db

import (
	"testing"

	"github.com/marcus/filmlog/internal/models"
)

func TestOutboxAppendAllowsDuplicates(t *testing.T) {
	store := setupDB(t)

	for _, op := range []models.Operation{models.OpCreate, models.OpUpdate, models.OpUpdate} {
		if err := store.AppendOutbox("cameras", "cam-1", op); err != nil {
			t.Fatal(err)
		}
	}

	entries, err := store.OutboxEntriesFor("cameras", "cam-1")
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 3 {
		t.Fatalf("entries = %d, want 3", len(entries))
	}
	for i := 1; i < len(entries); i++ {
		if entries[i].Seq <= entries[i-1].Seq {
			t.Fatal("sequence numbers must be strictly increasing")
		}
	}
	for _, e := range entries {
		if e.Status != OutboxPending || e.RetryCount != 0 || e.LastAttempt != nil {
			t.Errorf("fresh entry = %+v", e)
		}
	}
}

func TestOutboxClaimAndDelete(t *testing.T) {
	store := setupDB(t)
	store.AppendOutbox("rolls", "roll-1", models.OpCreate)
	store.AppendOutbox("rolls", "roll-2", models.OpCreate)

	entries, _ := store.ListOutbox(OutboxPending)
	if len(entries) != 2 {
		t.Fatalf("pending = %d", len(entries))
	}

	if err := store.ClaimEntries([]int64{entries[0].Seq}); err != nil {
		t.Fatal(err)
	}
	inProgress, _ := store.ListOutbox(OutboxInProgress)
	if len(inProgress) != 1 || inProgress[0].EntityID != "roll-1" {
		t.Fatalf("in_progress = %v", inProgress)
	}

	if err := store.DeleteEntries([]int64{entries[0].Seq, entries[1].Seq}); err != nil {
		t.Fatal(err)
	}
	left, _ := store.ListOutbox(OutboxPending, OutboxInProgress, OutboxFailed)
	if len(left) != 0 {
		t.Fatalf("left = %d", len(left))
	}
}

func TestOutboxFailEntriesCapsAtFailed(t *testing.T) {
	store := setupDB(t)
	store.AppendOutbox("films", "film-1", models.OpUpdate)
	entries, _ := store.OutboxEntriesFor("films", "film-1")
	seq := entries[0].Seq

	for attempt := 1; attempt <= MaxRetries; attempt++ {
		if err := store.FailEntries([]int64{seq}, int64(attempt*1000)); err != nil {
			t.Fatal(err)
		}
		entries, _ = store.OutboxEntriesFor("films", "film-1")
		e := entries[0]
		if e.RetryCount != attempt {
			t.Fatalf("attempt %d: retry_count = %d", attempt, e.RetryCount)
		}
		if e.LastAttempt == nil || *e.LastAttempt != int64(attempt*1000) {
			t.Fatalf("attempt %d: last_attempt = %v", attempt, e.LastAttempt)
		}
		wantStatus := OutboxInProgress
		if attempt >= MaxRetries {
			wantStatus = OutboxFailed
		}
		if e.Status != wantStatus {
			t.Fatalf("attempt %d: status = %s, want %s", attempt, e.Status, wantStatus)
		}
	}
}

func TestOutboxResetEntries(t *testing.T) {
	store := setupDB(t)
	store.AppendOutbox("lenses", "lens-1", models.OpCreate)
	entries, _ := store.OutboxEntriesFor("lenses", "lens-1")
	seq := entries[0].Seq

	store.FailEntries([]int64{seq}, 1000)
	if err := store.ResetEntries([]int64{seq}); err != nil {
		t.Fatal(err)
	}

	entries, _ = store.OutboxEntriesFor("lenses", "lens-1")
	e := entries[0]
	if e.Status != OutboxPending || e.RetryCount != 0 || e.LastAttempt != nil {
		t.Errorf("after reset: %+v", e)
	}
}

func TestOutboxRetryAndClearFailed(t *testing.T) {
	store := setupDB(t)
	store.AppendOutbox("cameras", "cam-1", models.OpUpdate)
	store.AppendOutbox("cameras", "cam-2", models.OpUpdate)
	entries, _ := store.ListOutbox(OutboxPending)

	// Park both.
	for i := 0; i < MaxRetries; i++ {
		store.FailEntries([]int64{entries[0].Seq, entries[1].Seq}, int64(i))
	}
	pending, failed, err := store.QueueStats()
	if err != nil {
		t.Fatal(err)
	}
	if pending != 0 || failed != 2 {
		t.Fatalf("stats: pending=%d failed=%d", pending, failed)
	}

	n, err := store.RetryFailed()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("retried = %d", n)
	}
	pending, failed, _ = store.QueueStats()
	if pending != 2 || failed != 0 {
		t.Fatalf("after retry: pending=%d failed=%d", pending, failed)
	}

	// Park again and discard.
	for i := 0; i < MaxRetries; i++ {
		store.FailEntries([]int64{entries[0].Seq, entries[1].Seq}, int64(i))
	}
	n, err = store.ClearFailed()
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("cleared = %d", n)
	}
	pending, failed, _ = store.QueueStats()
	if pending != 0 || failed != 0 {
		t.Fatalf("after clear: pending=%d failed=%d", pending, failed)
	}
}

func TestConflictAuditTrail(t *testing.T) {
	store := setupDB(t)

	if err := store.RecordConflict("cameras", "cam-1",
		[]byte(`{"name":"local"}`), []byte(`{"name":"server"}`), 1700000000000); err != nil {
		t.Fatal(err)
	}
	if err := store.RecordConflict("rolls", "roll-1",
		[]byte(`null`), []byte(`{"name":"new"}`), 1700000001000); err != nil {
		t.Fatal(err)
	}

	conflicts, err := store.RecentConflicts(10)
	if err != nil {
		t.Fatal(err)
	}
	if len(conflicts) != 2 {
		t.Fatalf("conflicts = %d", len(conflicts))
	}
	if conflicts[0].Table != "rolls" {
		t.Errorf("ordering: first = %s, want newest", conflicts[0].Table)
	}
	if conflicts[1].LocalData != `{"name":"local"}` || conflicts[1].ServerData != `{"name":"server"}` {
		t.Errorf("snapshots = %q / %q", conflicts[1].LocalData, conflicts[1].ServerData)
	}
	if conflicts[0].ResolvedBy != "server_wins" {
		t.Errorf("resolved_by = %q", conflicts[0].ResolvedBy)
	}
}
