package filestore

import (
	"bytes"
	"image"
	"io"

	"github.com/disintegration/imaging"
	"github.com/gabriel-vasile/mimetype"
	"github.com/pkg/errors"
	_ "golang.org/x/image/webp" // register the webp decoder

	"github.com/trezcool/dalant/core"
	"github.com/trezcool/dalant/core/qt"
)

var acceptedPhotoTypes = []string{"image/jpeg", "image/png", "image/gif", "image/webp"}

const defaultMaxPixels = 40_000_000

// PhotoProcessor normalizes uploaded QT photos: EXIF orientation applied,
// downscaled to fit the max dimension, re-encoded as JPEG.
type PhotoProcessor struct {
	maxDimension int
	maxPixels    int64
	quality      int
}

var _ qt.PhotoProcessor = (*PhotoProcessor)(nil)

func NewPhotoProcessor(sc core.StorageConfig) *PhotoProcessor {
	p := &PhotoProcessor{maxDimension: sc.MaxImageDimension, maxPixels: int64(sc.MaxImagePixels), quality: sc.JPEGQuality}
	if p.quality <= 0 || p.quality > 100 {
		p.quality = 80
	}
	if p.maxPixels <= 0 {
		p.maxPixels = defaultMaxPixels
	}
	return p
}

func (p *PhotoProcessor) Process(r io.Reader) ([]byte, error) {
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, errors.Wrap(err, "reading photo")
	}
	if len(data) == 0 {
		return nil, qt.ErrUnsupportedPhoto
	}
	if mt := mimetype.Detect(data); !mimetype.EqualsAny(mt.String(), acceptedPhotoTypes...) {
		return nil, qt.ErrUnsupportedPhoto
	}

	// the header is enough to size the image; a small file can still decode to gigabytes
	cfg, _, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		return nil, qt.ErrUnsupportedPhoto
	}
	if int64(cfg.Width)*int64(cfg.Height) > p.maxPixels {
		return nil, qt.ErrPhotoTooLarge
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, qt.ErrUnsupportedPhoto
	}
	if p.maxDimension > 0 {
		b := img.Bounds()
		if b.Dx() > p.maxDimension || b.Dy() > p.maxDimension {
			img = imaging.Fit(img, p.maxDimension, p.maxDimension, imaging.Lanczos)
		}
	}

	var buf bytes.Buffer
	if err = imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(p.quality)); err != nil {
		return nil, errors.Wrap(err, "encoding photo")
	}
	return buf.Bytes(), nil
}
