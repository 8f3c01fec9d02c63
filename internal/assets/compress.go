package assets

import (
	"bytes"
	"fmt"

	"github.com/disintegration/imaging"
)

// Compression targets. The canonical remote copy keeps more detail than
// the local cache copy deliberately.
const (
	UploadMaxDim    = 2048
	UploadQuality   = 80
	DownloadMaxDim  = 1024
	DownloadQuality = 60
)

// Compress re-encodes an image blob as JPEG at the given quality,
// scaling so the larger dimension equals maxDim. Images already within
// bounds keep their dimensions. Deterministic for identical input
// dimensions, target and quality.
func Compress(src []byte, maxDim, quality int) ([]byte, error) {
	img, err := imaging.Decode(bytes.NewReader(src))
	if err != nil {
		return nil, fmt.Errorf("decode image: %w", err)
	}

	bounds := img.Bounds()
	w, h := bounds.Dx(), bounds.Dy()
	if w > maxDim || h > maxDim {
		if w >= h {
			img = imaging.Resize(img, maxDim, 0, imaging.Lanczos)
		} else {
			img = imaging.Resize(img, 0, maxDim, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(quality)); err != nil {
		return nil, fmt.Errorf("encode jpeg: %w", err)
	}
	return buf.Bytes(), nil
}
