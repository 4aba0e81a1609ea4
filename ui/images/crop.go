package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"

	"github.com/soocke/print-prep-go/domain/backend"
	"github.com/soocke/print-prep-go/domain/crop"
)

var ErrCropOutOfBounds = errors.New("crop outside image")

// Crop extracts px from img. The rectangle must lie inside the image and be
// at least 1x1; the resolver guarantees this for its own output.
func Crop(img image.Image, px crop.Pixels) (image.Image, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	b := img.Bounds()
	r := px.Rectangle().Add(b.Min)
	if px.Width < 1 || px.Height < 1 || !r.In(b) {
		return nil, fmt.Errorf("%w: %v not in %v", ErrCropOutOfBounds, r, b)
	}
	return imaging.Crop(img, r), nil
}

// Encoding selects the format of a staged crop.
type Encoding struct {
	Format  imaging.Format
	Quality int
}

// ParseEncoding maps "png", "jpg" or "jpeg" to an Encoding.
func ParseEncoding(name string, quality int) (Encoding, error) {
	f, err := imaging.FormatFromExtension(strings.TrimPrefix(strings.ToLower(name), "."))
	if err != nil {
		return Encoding{}, err
	}
	if f != imaging.PNG && f != imaging.JPEG {
		return Encoding{}, fmt.Errorf("%w: output format %q", ErrUnsupported, name)
	}
	return Encoding{Format: f, Quality: quality}, nil
}

func (e Encoding) contentType() string {
	if e.Format == imaging.JPEG {
		return "image/jpeg"
	}
	return "image/png"
}

func (e Encoding) extension() string {
	if e.Format == imaging.JPEG {
		return ".jpg"
	}
	return ".png"
}

// Encode writes img in format; quality applies to JPEG only.
func Encode(img image.Image, format imaging.Format, quality int) ([]byte, error) {
	var buf bytes.Buffer
	var opts []imaging.EncodeOption
	if format == imaging.JPEG && quality > 0 {
		opts = append(opts, imaging.JPEGQuality(quality))
	}
	if err := imaging.Encode(&buf, img, format, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// Stage turns the source and an optional resolved crop into the upload for
// the backend. A nil crop sends the original file untouched.
func Stage(src *Source, px *crop.Pixels, enc Encoding) (backend.Upload, error) {
	if src == nil {
		return backend.Upload{}, errors.New("no source")
	}
	if px == nil || src.Image == nil {
		return backend.Upload{Filename: src.Name, ContentType: src.ContentType, Data: src.Data}, nil
	}
	cropped, err := Crop(src.Image, *px)
	if err != nil {
		return backend.Upload{}, err
	}
	data, err := Encode(cropped, enc.Format, enc.Quality)
	if err != nil {
		return backend.Upload{}, fmt.Errorf("encode crop: %w", err)
	}
	base := strings.TrimSuffix(src.Name, filepath.Ext(src.Name))
	if base == "" {
		base = "image"
	}
	return backend.Upload{
		Filename:    base + "_crop" + enc.extension(),
		ContentType: enc.contentType(),
		Data:        data,
	}, nil
}
