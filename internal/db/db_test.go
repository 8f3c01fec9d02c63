package db

import (
	"testing"

	"github.com/marcus/filmlog/internal/models"
)

func setupDB(t *testing.T) *DB {
	t.Helper()
	store, err := Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	return store
}

func mustTable(t *testing.T, name string) models.Table {
	t.Helper()
	table, err := models.TableByName(name)
	if err != nil {
		t.Fatal(err)
	}
	return table
}

func TestOpenMissingDatabase(t *testing.T) {
	if _, err := Open(t.TempDir()); err == nil {
		t.Fatal("expected error opening a directory with no database")
	}
}

func TestPutGetRoundTrip(t *testing.T) {
	store := setupDB(t)
	cameras := mustTable(t, "cameras")

	row := models.Row{
		"id":         "cam-1",
		"owner_id":   "u1",
		"name":       "OM-1",
		"make":       "Olympus",
		"created_at": int64(1700000000000),
		"updated_at": int64(1700000000000),
	}
	if err := store.Put(cameras, row); err != nil {
		t.Fatal(err)
	}

	got, err := store.Get(cameras, "cam-1")
	if err != nil {
		t.Fatal(err)
	}
	if got == nil {
		t.Fatal("row not found")
	}
	if got["name"] != "OM-1" || got["make"] != "Olympus" {
		t.Errorf("row = %v", got)
	}
	if got["updated_at"] != int64(1700000000000) {
		t.Errorf("updated_at = %v (%T), want int64 epoch-ms", got["updated_at"], got["updated_at"])
	}
	if got["deleted_at"] != nil {
		t.Errorf("deleted_at = %v, want nil", got["deleted_at"])
	}
}

func TestGetMissing(t *testing.T) {
	store := setupDB(t)
	got, err := store.Get(mustTable(t, "cameras"), "nope")
	if err != nil {
		t.Fatal(err)
	}
	if got != nil {
		t.Fatalf("got %v, want nil", got)
	}
}

func TestPutOverwrites(t *testing.T) {
	store := setupDB(t)
	cameras := mustTable(t, "cameras")

	base := models.Row{"id": "cam-1", "owner_id": "u1", "name": "OM-1",
		"created_at": int64(1), "updated_at": int64(1)}
	if err := store.Put(cameras, base); err != nil {
		t.Fatal(err)
	}
	base["name"] = "OM-2"
	base["updated_at"] = int64(2)
	if err := store.Put(cameras, base); err != nil {
		t.Fatal(err)
	}

	got, _ := store.Get(cameras, "cam-1")
	if got["name"] != "OM-2" || got["updated_at"] != int64(2) {
		t.Errorf("row = %v", got)
	}
}

func TestBulkPutAndList(t *testing.T) {
	store := setupDB(t)
	films := mustTable(t, "films")

	batch := []models.Row{
		{"id": "film-1", "owner_id": "u1", "name": "Tri-X", "iso": 400, "created_at": int64(3), "updated_at": int64(3)},
		{"id": "film-2", "owner_id": "u1", "name": "Portra", "iso": 160, "created_at": int64(2), "updated_at": int64(2)},
		{"id": "film-3", "owner_id": "u1", "name": "HP5", "iso": 400, "created_at": int64(1), "updated_at": int64(1),
			"deleted_at": int64(5)},
	}
	if err := store.BulkPut(films, batch); err != nil {
		t.Fatal(err)
	}

	rows, err := store.ListRows(films, "u1", false)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2 (tombstoned excluded)", len(rows))
	}
	if rows[0]["id"] != "film-1" {
		t.Errorf("ordering: first = %v, want newest created_at", rows[0]["id"])
	}

	all, err := store.ListRows(films, "u1", true)
	if err != nil {
		t.Fatal(err)
	}
	if len(all) != 3 {
		t.Fatalf("all rows = %d, want 3", len(all))
	}
}

func TestFrameThumbnailBlob(t *testing.T) {
	store := setupDB(t)
	frames := mustTable(t, "frames")

	blob := []byte{0xff, 0xd8, 0x00, 0x01, 0x02}
	if err := store.Put(frames, models.Row{
		"id": "frm-1", "owner_id": "u1", "roll_id": "r1",
		"thumbnail": blob, "created_at": int64(1), "updated_at": int64(1),
	}); err != nil {
		t.Fatal(err)
	}

	got, _ := store.Get(frames, "frm-1")
	b, ok := got["thumbnail"].([]byte)
	if !ok || string(b) != string(blob) {
		t.Errorf("thumbnail = %v (%T)", got["thumbnail"], got["thumbnail"])
	}
}

func TestMetaGetSet(t *testing.T) {
	store := setupDB(t)

	if v, err := store.GetMeta("missing"); err != nil || v != "" {
		t.Fatalf("missing key: %q, %v", v, err)
	}
	if err := store.SetMeta(MetaLastDownloadSync, "2023-11-15T00:00:00.000Z"); err != nil {
		t.Fatal(err)
	}
	if err := store.SetMeta(MetaLastDownloadSync, "2023-11-16T00:00:00.000Z"); err != nil {
		t.Fatal(err)
	}
	v, err := store.GetMeta(MetaLastDownloadSync)
	if err != nil {
		t.Fatal(err)
	}
	if v != "2023-11-16T00:00:00.000Z" {
		t.Errorf("value = %q", v)
	}

	// The KV space is shared with unrelated settings.
	if err := store.SetMeta("theme", "dark"); err != nil {
		t.Fatal(err)
	}
	if v, _ := store.GetMeta("theme"); v != "dark" {
		t.Errorf("theme = %q", v)
	}
}
