package images

import (
	"bytes"
	"errors"
	"image"
	"image/color"
	"image/png"
	"testing"

	"github.com/disintegration/imaging"

	"github.com/soocke/print-prep-go/domain/crop"
)

func testImage(w, h int) *image.NRGBA {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0x80, A: 0xff})
		}
	}
	return img
}

func pngBytes(t *testing.T, img image.Image) []byte {
	t.Helper()
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	return buf.Bytes()
}

func TestFromBytes_DecodesPNG(t *testing.T) {
	src, err := FromBytes("photo.png", pngBytes(t, testImage(40, 30)))
	if err != nil {
		t.Fatalf("from bytes: %v", err)
	}
	if src.ContentType != "image/png" || src.IsPDF() || src.Pages != 1 {
		t.Fatalf("unexpected source %+v", src)
	}
	if b := src.Bounds(); b.Dx() != 40 || b.Dy() != 30 {
		t.Fatalf("unexpected bounds %v", b)
	}
}

func TestFromBytes_RejectsGarbage(t *testing.T) {
	if _, err := FromBytes("notes.txt", []byte("hello world")); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported got %v", err)
	}
	if _, err := FromBytes("empty.png", nil); !errors.Is(err, ErrUnsupported) {
		t.Fatalf("expected ErrUnsupported for empty data got %v", err)
	}
}

func TestCrop_ExtractsPixels(t *testing.T) {
	img := testImage(100, 50)
	out, err := Crop(img, crop.Pixels{X: 10, Y: 5, Width: 20, Height: 15})
	if err != nil {
		t.Fatalf("crop: %v", err)
	}
	if b := out.Bounds(); b.Dx() != 20 || b.Dy() != 15 {
		t.Fatalf("expected 20x15 got %v", b)
	}
	r, g, _, _ := out.At(out.Bounds().Min.X, out.Bounds().Min.Y).RGBA()
	if uint8(r>>8) != 10 || uint8(g>>8) != 5 {
		t.Fatalf("crop starts at wrong pixel: r=%d g=%d", r>>8, g>>8)
	}
}

func TestCrop_OutOfBounds(t *testing.T) {
	img := testImage(10, 10)
	for _, px := range []crop.Pixels{
		{X: 5, Y: 5, Width: 6, Height: 1},
		{X: -1, Y: 0, Width: 2, Height: 2},
		{X: 0, Y: 0, Width: 0, Height: 3},
	} {
		if _, err := Crop(img, px); !errors.Is(err, ErrCropOutOfBounds) {
			t.Fatalf("%+v: expected ErrCropOutOfBounds got %v", px, err)
		}
	}
}

func TestStage_NilCropSendsOriginal(t *testing.T) {
	data := pngBytes(t, testImage(8, 8))
	src, err := FromBytes("full.png", data)
	if err != nil {
		t.Fatalf("from bytes: %v", err)
	}
	up, err := Stage(src, nil, Encoding{Format: imaging.PNG})
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if up.Filename != "full.png" || !bytes.Equal(up.Data, data) {
		t.Fatalf("expected original upload, got %q (%d bytes)", up.Filename, len(up.Data))
	}
}

func TestStage_EncodesCrop(t *testing.T) {
	src, err := FromBytes("scan.png", pngBytes(t, testImage(64, 48)))
	if err != nil {
		t.Fatalf("from bytes: %v", err)
	}
	enc, err := ParseEncoding("jpg", 90)
	if err != nil {
		t.Fatalf("parse encoding: %v", err)
	}
	up, err := Stage(src, &crop.Pixels{X: 4, Y: 4, Width: 32, Height: 16}, enc)
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if up.Filename != "scan_crop.jpg" || up.ContentType != "image/jpeg" {
		t.Fatalf("unexpected upload %q %q", up.Filename, up.ContentType)
	}
	img, err := imaging.Decode(bytes.NewReader(up.Data))
	if err != nil {
		t.Fatalf("decode staged: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 32 || b.Dy() != 16 {
		t.Fatalf("expected 32x16 got %v", b)
	}
}

func TestParseEncoding_RejectsUnknown(t *testing.T) {
	if _, err := ParseEncoding("gif", 0); err == nil {
		t.Fatalf("gif output should be rejected")
	}
	if _, err := ParseEncoding("bogus", 0); err == nil {
		t.Fatalf("unknown format should be rejected")
	}
}

func TestEncodePNG(t *testing.T) {
	data, err := EncodePNG(testImage(4, 3))
	if err != nil {
		t.Fatalf("encode: %v", err)
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if b := img.Bounds(); b.Dx() != 4 || b.Dy() != 3 {
		t.Fatalf("unexpected bounds %v", b)
	}
	if _, err := EncodePNG(nil); err == nil {
		t.Fatalf("expected error for nil image")
	}
}

func TestScaleToFit(t *testing.T) {
	img := testImage(200, 100)
	out := ScaleToFit(img, 50, 50)
	if b := out.Bounds(); b.Dx() != 50 || b.Dy() != 25 {
		t.Fatalf("expected 50x25 got %v", b)
	}
	if ScaleToFit(img, 400, 400) != image.Image(img) {
		t.Fatalf("fitting image should be returned as is")
	}
}

func TestRenderView_PlacesImageAndOutlines(t *testing.T) {
	img := testImage(100, 50)
	vt := crop.NewViewTransform(crop.Size{Width: 100, Height: 50}, crop.Size{Width: 100, Height: 100})
	sel := crop.Rect{X: 10, Y: 40, Width: 20, Height: 20}
	out := RenderView(img, vt, &sel, nil)
	if b := out.Bounds(); b.Dx() != 100 || b.Dy() != 100 {
		t.Fatalf("canvas should match container, got %v", b)
	}
	// letterbox above the image stays background
	if out.RGBAAt(50, 5) != Background {
		t.Fatalf("expected background in letterbox, got %v", out.RGBAAt(50, 5))
	}
	if out.RGBAAt(50, 50) == Background {
		t.Fatalf("expected image pixels in the middle")
	}
	if out.RGBAAt(10, 40) != SelectionColor {
		t.Fatalf("expected selection outline at its corner, got %v", out.RGBAAt(10, 40))
	}
}

func TestRenderView_InvalidTransform(t *testing.T) {
	out := RenderView(testImage(10, 10), crop.ViewTransform{Container: crop.Size{Width: 20, Height: 20}}, nil, nil)
	if out.RGBAAt(10, 10) != Background {
		t.Fatalf("invalid transform should render background only")
	}
}

func TestRenderView_LabelsSelectionSize(t *testing.T) {
	img := testImage(200, 200)
	vt := crop.NewViewTransform(crop.Size{Width: 200, Height: 200}, crop.Size{Width: 200, Height: 200})
	sel := crop.Rect{X: 20, Y: 20, Width: 120, Height: 80}
	with := RenderView(img, vt, &sel, nil)
	without := RenderView(img, vt, nil, nil)
	changed := 0
	for y := 24; y < 36; y++ {
		for x := 23; x < 70; x++ {
			if with.RGBAAt(x, y) != without.RGBAAt(x, y) {
				changed++
			}
		}
	}
	if changed == 0 {
		t.Fatalf("expected a size label inside the selection corner")
	}
}

func TestSuggestCrop_MatchesRatio(t *testing.T) {
	img := testImage(300, 200)
	px, err := SuggestCrop(img, 1)
	if err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if px.Width != 200 || px.Height != 200 {
		t.Fatalf("expected a 200x200 square, got %+v", px)
	}
	if px.X < 0 || px.Y < 0 || px.X+px.Width > 300 || px.Y+px.Height > 200 {
		t.Fatalf("suggestion outside image: %+v", px)
	}
}

func TestSuggestCrop_Errors(t *testing.T) {
	if _, err := SuggestCrop(testImage(10, 10), 0); !errors.Is(err, ErrNoSuggestion) {
		t.Fatalf("expected ErrNoSuggestion got %v", err)
	}
	if _, err := SuggestCrop(nil, 1); err == nil {
		t.Fatalf("expected error for nil image")
	}
}

func TestFitRatio(t *testing.T) {
	cases := []struct {
		iw, ih int
		ratio  float64
		w, h   int
	}{
		{1600, 900, 0.8333, 750, 900},
		{900, 1600, 1, 900, 900},
		{1000, 500, 2, 1000, 500},
	}
	for _, c := range cases {
		if w, h := fitRatio(c.iw, c.ih, c.ratio); w != c.w || h != c.h {
			t.Fatalf("fitRatio(%d,%d,%v) = %dx%d want %dx%d", c.iw, c.ih, c.ratio, w, h, c.w, c.h)
		}
	}
}
