// Package assets replicates frame thumbnails alongside the entity sync:
// two independent one-way sweeps coupled to frames only through the
// blob and pointer columns. Neither sweep touches the main outbox
// directly; the upload sweep's pointer write-back goes through the
// gateway so the pointer itself replicates.
package assets

import (
	"fmt"
	"log/slog"

	"github.com/marcus/filmlog/internal/db"
	"github.com/marcus/filmlog/internal/gateway"
	"github.com/marcus/filmlog/internal/models"
)

// BlobStore is the remote binary store the sweeps replicate against.
type BlobStore interface {
	Upload(path string, data []byte, contentType string) error
	Download(path string) ([]byte, error)
}

// Pipeline runs the thumbnail replication sweeps.
type Pipeline struct {
	store *db.DB
	gw    *gateway.Gateway
	blobs BlobStore
}

// NewPipeline creates the asset pipeline.
func NewPipeline(store *db.DB, gw *gateway.Gateway, blobs BlobStore) *Pipeline {
	return &Pipeline{store: store, gw: gw, blobs: blobs}
}

// RunUploadSweep pushes local thumbnails that have no remote pointer
// yet, then records the pointer through the gateway. Per-item failures
// are logged and skipped; only successes are counted.
func (p *Pipeline) RunUploadSweep(ownerID string) (int, error) {
	frames, err := p.store.FramesAwaitingUpload(ownerID)
	if err != nil {
		return 0, err
	}

	uploaded := 0
	for _, frame := range frames {
		if err := p.uploadOne(ownerID, frame); err != nil {
			slog.Warn("asset upload failed", "frame", frame["id"], "err", err)
			continue
		}
		uploaded++
	}
	return uploaded, nil
}

func (p *Pipeline) uploadOne(ownerID string, frame models.Row) error {
	id, _ := frame["id"].(string)
	rollID, _ := frame["roll_id"].(string)
	blob, _ := frame["thumbnail"].([]byte)
	if len(blob) == 0 {
		return fmt.Errorf("frame %s: empty thumbnail", id)
	}

	data, err := Compress(blob, UploadMaxDim, UploadQuality)
	if err != nil {
		return err
	}

	path := fmt.Sprintf("%s/%s/%s.jpg", ownerID, rollID, id)
	if err := p.blobs.Upload(path, data, "image/jpeg"); err != nil {
		return err
	}

	// Through the gateway on purpose: the pointer update must enter the
	// main outbox and replicate like any other field change.
	if _, err := p.gw.Patch("frames", id, models.Row{"thumbnail_url": path}); err != nil {
		return err
	}
	slog.Debug("asset uploaded", "frame", id, "path", path)
	return nil
}

// RunDownloadSweep fetches thumbnails for frames that point at a remote
// copy but have no local cache yet. The local copy is re-compressed
// smaller and written directly to the store, bypassing the outbox.
func (p *Pipeline) RunDownloadSweep() (int, error) {
	frames, err := p.store.FramesAwaitingDownload()
	if err != nil {
		return 0, err
	}

	fetched := 0
	for _, frame := range frames {
		if err := p.downloadOne(frame); err != nil {
			slog.Warn("asset download failed", "frame", frame["id"], "err", err)
			continue
		}
		fetched++
	}
	return fetched, nil
}

func (p *Pipeline) downloadOne(frame models.Row) error {
	id, _ := frame["id"].(string)
	path, _ := frame["thumbnail_url"].(string)
	if path == "" {
		return fmt.Errorf("frame %s: empty pointer", id)
	}

	data, err := p.blobs.Download(path)
	if err != nil {
		return err
	}

	local, err := Compress(data, DownloadMaxDim, DownloadQuality)
	if err != nil {
		return err
	}

	return p.store.SetFrameThumbnail(id, local)
}
