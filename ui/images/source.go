package images

import (
	"bytes"
	"errors"
	"fmt"
	"image"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/disintegration/imaging"
	"github.com/pdfcpu/pdfcpu/pkg/api"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/tiff"
	_ "golang.org/x/image/webp"
)

var ErrUnsupported = errors.New("unsupported file")

// Source is a file opened for cropping. PDFs carry no decoded image until a
// page has been rasterised by the backend.
type Source struct {
	Name        string
	ContentType string
	Data        []byte
	Image       image.Image
	Pages       int
}

// IsPDF reports whether the source is a PDF document.
func (s *Source) IsPDF() bool { return s != nil && s.ContentType == "application/pdf" }

// Bounds returns the decoded image bounds, or an empty rectangle.
func (s *Source) Bounds() image.Rectangle {
	if s == nil || s.Image == nil {
		return image.Rectangle{}
	}
	return s.Image.Bounds()
}

// Load reads path and decodes it.
func Load(path string) (*Source, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, err
	}
	return FromBytes(filepath.Base(path), data)
}

// FromBytes sniffs data and decodes it. Images are rotated according to
// their EXIF orientation so the preview matches what the backend sees.
func FromBytes(name string, data []byte) (*Source, error) {
	if len(data) == 0 {
		return nil, fmt.Errorf("%s: %w: empty", name, ErrUnsupported)
	}
	ct := http.DetectContentType(data)
	if ct == "application/pdf" || bytes.HasPrefix(data, []byte("%PDF-")) {
		pages, err := api.PageCount(bytes.NewReader(data), nil)
		if err != nil {
			return nil, fmt.Errorf("%s: read pdf: %w", name, err)
		}
		return &Source{Name: name, ContentType: "application/pdf", Data: data, Pages: pages}, nil
	}
	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return nil, fmt.Errorf("%s: %w: %v", name, ErrUnsupported, err)
	}
	if !strings.HasPrefix(ct, "image/") {
		ct = "application/octet-stream"
	}
	return &Source{Name: name, ContentType: ct, Data: data, Image: img, Pages: 1}, nil
}

// FromImage wraps an in-memory image, e.g. a screen grab, as a PNG source.
func FromImage(name string, img image.Image) (*Source, error) {
	if img == nil {
		return nil, errors.New("nil image")
	}
	data, err := Encode(img, imaging.PNG, 0)
	if err != nil {
		return nil, err
	}
	return &Source{Name: name, ContentType: "image/png", Data: data, Image: img, Pages: 1}, nil
}
