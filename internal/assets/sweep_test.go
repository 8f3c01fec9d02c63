package assets

import (
	"fmt"
	"testing"

	"github.com/marcus/filmlog/internal/db"
	"github.com/marcus/filmlog/internal/gateway"
	"github.com/marcus/filmlog/internal/models"
)

type fakeBlobStore struct {
	objects     map[string][]byte
	uploadErr   error
	downloadErr error
}

func newFakeBlobStore() *fakeBlobStore {
	return &fakeBlobStore{objects: map[string][]byte{}}
}

func (f *fakeBlobStore) Upload(path string, data []byte, contentType string) error {
	if f.uploadErr != nil {
		return f.uploadErr
	}
	if contentType != "image/jpeg" {
		return fmt.Errorf("unexpected content type %q", contentType)
	}
	f.objects[path] = data
	return nil
}

func (f *fakeBlobStore) Download(path string) ([]byte, error) {
	if f.downloadErr != nil {
		return nil, f.downloadErr
	}
	data, ok := f.objects[path]
	if !ok {
		return nil, fmt.Errorf("no object at %s", path)
	}
	return data, nil
}

func setupPipeline(t *testing.T) (*db.DB, *Pipeline, *fakeBlobStore) {
	t.Helper()
	store, err := db.Initialize(t.TempDir())
	if err != nil {
		t.Fatalf("initialize: %v", err)
	}
	t.Cleanup(func() { store.Close() })
	blobs := newFakeBlobStore()
	return store, NewPipeline(store, gateway.New(store), blobs), blobs
}

func putFrame(t *testing.T, store *db.DB, row models.Row) {
	t.Helper()
	frames, err := models.TableByName("frames")
	if err != nil {
		t.Fatal(err)
	}
	if row["created_at"] == nil {
		row["created_at"] = int64(1700000000000)
	}
	if row["updated_at"] == nil {
		row["updated_at"] = int64(1700000000000)
	}
	if err := store.Put(frames, row); err != nil {
		t.Fatal(err)
	}
}

func TestUploadSweep(t *testing.T) {
	store, pipeline, blobs := setupPipeline(t)

	putFrame(t, store, models.Row{
		"id": "frm-1", "owner_id": "u1", "roll_id": "roll-1",
		"thumbnail": encodeTestImage(t, 64, 48),
	})
	// Already has a pointer, must be skipped.
	putFrame(t, store, models.Row{
		"id": "frm-2", "owner_id": "u1", "roll_id": "roll-1",
		"thumbnail": encodeTestImage(t, 64, 48), "thumbnail_url": "u1/roll-1/frm-2.jpg",
	})
	// Another owner's frame, out of scope for this sweep.
	putFrame(t, store, models.Row{
		"id": "frm-3", "owner_id": "u2", "roll_id": "roll-9",
		"thumbnail": encodeTestImage(t, 64, 48),
	})

	n, err := pipeline.RunUploadSweep("u1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("uploaded = %d, want 1", n)
	}

	wantPath := "u1/roll-1/frm-1.jpg"
	if _, ok := blobs.objects[wantPath]; !ok {
		t.Fatalf("no object at %s, have %v", wantPath, keys(blobs.objects))
	}

	frames, _ := models.TableByName("frames")
	row, _ := store.Get(frames, "frm-1")
	if row["thumbnail_url"] != wantPath {
		t.Errorf("pointer = %v, want %s", row["thumbnail_url"], wantPath)
	}

	// The pointer write-back replicates like any field change.
	entries, _ := store.OutboxEntriesFor("frames", "frm-1")
	if len(entries) != 1 || entries[0].Op != models.OpUpdate {
		t.Errorf("outbox entries = %v, want one update", entries)
	}

	// A second sweep has nothing left to do.
	n, err = pipeline.RunUploadSweep("u1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("second sweep uploaded = %d", n)
	}
}

func TestUploadSweepSkipsBadItems(t *testing.T) {
	store, pipeline, blobs := setupPipeline(t)

	putFrame(t, store, models.Row{
		"id": "frm-bad", "owner_id": "u1", "roll_id": "roll-1",
		"thumbnail": []byte("not an image"),
	})
	putFrame(t, store, models.Row{
		"id": "frm-ok", "owner_id": "u1", "roll_id": "roll-1",
		"thumbnail": encodeTestImage(t, 64, 48),
	})

	n, err := pipeline.RunUploadSweep("u1")
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("uploaded = %d, want 1 (bad item skipped)", n)
	}
	if len(blobs.objects) != 1 {
		t.Errorf("objects = %d", len(blobs.objects))
	}
}

func TestDownloadSweep(t *testing.T) {
	store, pipeline, blobs := setupPipeline(t)

	path := "u1/roll-1/frm-1.jpg"
	blobs.objects[path] = encodeTestImage(t, 64, 48)
	putFrame(t, store, models.Row{
		"id": "frm-1", "owner_id": "u1", "roll_id": "roll-1",
		"thumbnail_url": path,
	})
	// Cached already, must be skipped.
	putFrame(t, store, models.Row{
		"id": "frm-2", "owner_id": "u1", "roll_id": "roll-1",
		"thumbnail": encodeTestImage(t, 64, 48), "thumbnail_url": "u1/roll-1/frm-2.jpg",
	})

	n, err := pipeline.RunDownloadSweep()
	if err != nil {
		t.Fatal(err)
	}
	if n != 1 {
		t.Fatalf("fetched = %d, want 1", n)
	}

	frames, _ := models.TableByName("frames")
	row, _ := store.Get(frames, "frm-1")
	blob, _ := row["thumbnail"].([]byte)
	if len(blob) == 0 {
		t.Fatal("thumbnail not cached")
	}
	if _, err := Compress(blob, DownloadMaxDim, DownloadQuality); err != nil {
		t.Errorf("cached blob not a valid image: %v", err)
	}
	if row["updated_at"] != int64(1700000000000) {
		t.Errorf("cache fill must not bump updated_at, got %v", row["updated_at"])
	}

	// Local cache fills stay local.
	entries, _ := store.OutboxEntriesFor("frames", "frm-1")
	if len(entries) != 0 {
		t.Errorf("cache fill enqueued %d outbox entries", len(entries))
	}
}

func TestDownloadSweepSkipsFailures(t *testing.T) {
	store, pipeline, blobs := setupPipeline(t)

	putFrame(t, store, models.Row{
		"id": "frm-1", "owner_id": "u1", "roll_id": "roll-1",
		"thumbnail_url": "u1/roll-1/frm-1.jpg",
	})
	blobs.downloadErr = fmt.Errorf("remote unavailable")

	n, err := pipeline.RunDownloadSweep()
	if err != nil {
		t.Fatal(err)
	}
	if n != 0 {
		t.Errorf("fetched = %d, want 0", n)
	}
}

func keys(m map[string][]byte) []string {
	out := make([]string, 0, len(m))
	for k := range m {
		out = append(out, k)
	}
	return out
}
