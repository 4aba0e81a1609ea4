package presenter

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/png"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/disintegration/imaging"

	"github.com/soocke/print-prep-go/domain/backend"
	"github.com/soocke/print-prep-go/domain/printplan"
	"github.com/soocke/print-prep-go/ui/images"
	"github.com/soocke/print-prep-go/ui/model"
)

type mockBackend struct {
	mu       sync.Mutex
	requests []backend.Request
	result   func(backend.Request) (*backend.Result, error)
	health   error
}

func (b *mockBackend) Do(ctx context.Context, req backend.Request) (*backend.Result, error) {
	b.mu.Lock()
	b.requests = append(b.requests, req)
	b.mu.Unlock()
	if b.result != nil {
		return b.result(req)
	}
	return &backend.Result{Endpoint: req.Endpoint, ContentType: "application/pdf", Body: []byte("%PDF-1.7")}, nil
}

func (b *mockBackend) Health(ctx context.Context) error { return b.health }

func (b *mockBackend) last() backend.Request {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.requests[len(b.requests)-1]
}

type mockWorkflow struct{ events []string }

func (w *mockWorkflow) EventLoaded()           { w.events = append(w.events, "loaded") }
func (w *mockWorkflow) EventCropped()          { w.events = append(w.events, "cropped") }
func (w *mockWorkflow) EventSelectionCleared() { w.events = append(w.events, "cleared") }
func (w *mockWorkflow) EventSubmit()           { w.events = append(w.events, "submit") }
func (w *mockWorkflow) EventSucceeded(string)  { w.events = append(w.events, "succeeded") }
func (w *mockWorkflow) EventFailed(err error)  { w.events = append(w.events, "failed") }
func (w *mockWorkflow) EventReset()            { w.events = append(w.events, "reset") }
func (w *mockWorkflow) lastEvent() string      { return w.events[len(w.events)-1] }

type mockCropView struct {
	previews   int
	preview    image.Image
	zoom, crop string
	message    string
	result     string
	resultImg  image.Image
	busy       bool
}

func (v *mockCropView) ShowPreview(img image.Image) { v.previews++; v.preview = img }
func (v *mockCropView) SetZoomLabel(s string)       { v.zoom = s }
func (v *mockCropView) SetCropLabel(s string)       { v.crop = s }
func (v *mockCropView) SetMessage(s string)         { v.message = s }
func (v *mockCropView) ShowResult(text string, img image.Image) {
	v.result, v.resultImg = text, img
}
func (v *mockCropView) SetBusy(b bool) { v.busy = b }

type memWriter struct{ saved []string }

func (w *memWriter) Write(source string, res *backend.Result) (string, error) {
	path := source + res.Extension()
	w.saved = append(w.saved, path)
	return path, nil
}

type presenterFixture struct {
	p      *CropPresenter
	be     *mockBackend
	fsm    *mockWorkflow
	view   *mockCropView
	writer *memWriter
}

func newFixture(t *testing.T) *presenterFixture {
	t.Helper()
	f := &presenterFixture{be: &mockBackend{}, fsm: &mockWorkflow{}, view: &mockCropView{}, writer: &memWriter{}}
	params := func() backend.Params {
		return backend.Params{Target: printplan.Target{WidthMM: 300, HeightMM: 360, DPI: 150, BleedMM: 3}, UseCase: "poster"}
	}
	f.p = NewCropPresenter(model.NewCropViewModel(0, 0), &model.BusyModel{}, model.NewStatsModel(), f.be, f.fsm, f.view, f.writer, params, images.Encoding{Format: imaging.PNG}, 4, nil)
	t.Cleanup(f.p.Close)
	f.p.SetContainer(500, 500)
	return f
}

func writePNG(t *testing.T, w, h int) string {
	t.Helper()
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x), G: uint8(y), B: 0x40, A: 0xff})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode: %v", err)
	}
	path := filepath.Join(t.TempDir(), "photo.png")
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatalf("write: %v", err)
	}
	return path
}

// drainUntil ticks Drain until the presenter is idle or the timeout passes.
func drainUntil(t *testing.T, p *CropPresenter, timeout time.Duration) {
	t.Helper()
	deadline := time.Now().Add(timeout)
	for time.Now().Before(deadline) {
		p.Drain()
		if !p.Busy.Busy() {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("timeout waiting for backend result")
}

func TestCropPresenter_OpenRendersPreview(t *testing.T) {
	f := newFixture(t)
	if err := f.p.Open(writePNG(t, 200, 100)); err != nil {
		t.Fatalf("open: %v", err)
	}
	if f.view.previews == 0 || f.view.preview.Bounds().Dx() != 500 {
		t.Fatalf("expected a container-sized preview, got %d previews", f.view.previews)
	}
	if f.view.zoom != "Zoom 100%" || f.view.crop != "Crop: full image 200x100" {
		t.Fatalf("unexpected labels %q %q", f.view.zoom, f.view.crop)
	}
	if f.fsm.lastEvent() != "loaded" {
		t.Fatalf("expected loaded event, got %v", f.fsm.events)
	}
}

func TestCropPresenter_OpenMissingFile(t *testing.T) {
	f := newFixture(t)
	if err := f.p.Open(filepath.Join(t.TempDir(), "missing.png")); err == nil {
		t.Fatalf("expected error")
	}
	if f.view.message == "" {
		t.Fatalf("error should be surfaced to the view")
	}
}

func TestCropPresenter_DragAndSubmitCrop(t *testing.T) {
	f := newFixture(t)
	if err := f.p.Open(writePNG(t, 1000, 500)); err != nil {
		t.Fatalf("open: %v", err)
	}
	f.p.Press(125, 125)
	f.p.Motion(300, 200)
	f.p.Release(375, 250)
	if f.view.crop != "Crop: 250,0 500x250" {
		t.Fatalf("unexpected crop label %q", f.view.crop)
	}
	if f.fsm.lastEvent() != "cropped" {
		t.Fatalf("expected cropped event, got %v", f.fsm.events)
	}
	if err := f.p.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	// 500x250 crop to 1771x2125 px needs the height factor 8.5
	if f.view.message != "Sending /process_for_print, upscale x8.50" {
		t.Fatalf("unexpected message %q", f.view.message)
	}
	drainUntil(t, f.p, time.Second)

	req := f.be.last()
	if req.Endpoint != backend.EndpointProcessForPrint || req.Fields["width_px"] != "1771" {
		t.Fatalf("unexpected request %s %v", req.Endpoint, req.Fields)
	}
	staged, err := imaging.Decode(bytes.NewReader(req.File.Data))
	if err != nil {
		t.Fatalf("decode staged upload: %v", err)
	}
	if b := staged.Bounds(); b.Dx() != 500 || b.Dy() != 250 {
		t.Fatalf("staged crop should be 500x250, got %v", b)
	}
	if f.fsm.lastEvent() != "succeeded" || len(f.writer.saved) != 1 {
		t.Fatalf("expected success and a saved result: %v %v", f.fsm.events, f.writer.saved)
	}
	if !strings.Contains(f.view.result, "Saved") {
		t.Fatalf("result text should mention the saved file: %q", f.view.result)
	}
	if st := f.p.Stats.Values(); st.Requests != 1 || st.Failures != 0 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestCropPresenter_SubmitWithoutSelectionSendsOriginal(t *testing.T) {
	f := newFixture(t)
	path := writePNG(t, 40, 20)
	if err := f.p.Open(path); err != nil {
		t.Fatalf("open: %v", err)
	}
	original, _ := os.ReadFile(path)
	f.p.Press(10, 10)
	f.p.Release(12, 12) // noise
	if err := f.p.SetMode("remove_background"); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if err := f.p.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	drainUntil(t, f.p, time.Second)
	req := f.be.last()
	if req.Endpoint != backend.EndpointRemoveBackground || !bytes.Equal(req.File.Data, original) {
		t.Fatalf("expected the original bytes for the full image")
	}
}

func TestCropPresenter_ModeSwitchClearsSelection(t *testing.T) {
	f := newFixture(t)
	if err := f.p.Open(writePNG(t, 100, 100)); err != nil {
		t.Fatalf("open: %v", err)
	}
	f.p.Press(100, 100)
	f.p.Release(300, 300)
	if err := f.p.SetMode("/resize"); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if f.p.Model.Selection() != nil || f.fsm.lastEvent() != "cleared" {
		t.Fatalf("mode switch should clear the selection: %v", f.fsm.events)
	}
	if err := f.p.SetMode("upscale"); !errors.Is(err, ErrInvalidMode) {
		t.Fatalf("expected ErrInvalidMode got %v", err)
	}
}

func TestCropPresenter_BackendFailure(t *testing.T) {
	f := newFixture(t)
	f.be.result = func(req backend.Request) (*backend.Result, error) {
		return nil, &backend.StatusError{Endpoint: req.Endpoint, StatusCode: 500, Detail: "model crashed"}
	}
	if err := f.p.Open(writePNG(t, 64, 64)); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.p.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	drainUntil(t, f.p, time.Second)
	if f.fsm.lastEvent() != "failed" || !strings.Contains(f.view.message, "model crashed") {
		t.Fatalf("failure should reach workflow and view: %v %q", f.fsm.events, f.view.message)
	}
	if f.view.busy {
		t.Fatalf("view should not stay busy")
	}
	if st := f.p.Stats.Values(); st.Failures != 1 {
		t.Fatalf("unexpected stats %+v", st)
	}
}

func TestCropPresenter_BusyRejectsSecondSubmit(t *testing.T) {
	f := newFixture(t)
	release := make(chan struct{})
	f.be.result = func(req backend.Request) (*backend.Result, error) {
		<-release
		return &backend.Result{Endpoint: req.Endpoint, ContentType: "application/pdf", Body: []byte("%PDF")}, nil
	}
	if err := f.p.Open(writePNG(t, 32, 32)); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.p.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	if err := f.p.Submit(); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy got %v", err)
	}
	close(release)
	drainUntil(t, f.p, time.Second)
}

func TestCropPresenter_AnalyzeShowsText(t *testing.T) {
	f := newFixture(t)
	f.be.result = func(req backend.Request) (*backend.Result, error) {
		return &backend.Result{Endpoint: req.Endpoint, ContentType: "application/json", Body: []byte(`{"result":"good contrast"}`)}, nil
	}
	if err := f.p.Open(writePNG(t, 32, 32)); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.p.SetMode("analyze"); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if err := f.p.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	drainUntil(t, f.p, time.Second)
	if f.view.result != "good contrast" || len(f.writer.saved) != 0 {
		t.Fatalf("unexpected result %q saved=%v", f.view.result, f.writer.saved)
	}
	if f.be.last().Fields["use_case"] != "poster" {
		t.Fatalf("use case not forwarded")
	}
}

func TestCropPresenter_PDFIsRasterisedFirst(t *testing.T) {
	f := newFixture(t)
	rasterPath := writePNG(t, 30, 40)
	raster, _ := os.ReadFile(rasterPath)
	f.be.result = func(req backend.Request) (*backend.Result, error) {
		if req.Endpoint == backend.EndpointPDFToImage {
			return &backend.Result{Endpoint: req.Endpoint, ContentType: "image/png", Body: raster}, nil
		}
		return &backend.Result{Endpoint: req.Endpoint, ContentType: "application/json", Body: []byte(`{"result":"ok"}`)}, nil
	}
	pdf := &images.Source{Name: "flyer.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 fake"), Pages: 2}
	if err := f.p.OpenSource(pdf); err != nil {
		t.Fatalf("open pdf: %v", err)
	}
	drainUntil(t, f.p, time.Second)
	if req := f.be.last(); req.Endpoint != backend.EndpointPDFToImage || req.Fields["dpi"] != "150" {
		t.Fatalf("unexpected rasterise request %s %v", req.Endpoint, req.Fields)
	}
	src := f.p.Source()
	if src == nil || src.Name != "flyer.png" || src.Bounds().Dy() != 40 {
		t.Fatalf("raster should become the working image, got %+v", src)
	}
	// PDF endpoints still receive the original document
	if err := f.p.SetMode("analyze_pdf"); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if err := f.p.Submit(); err != nil {
		t.Fatalf("submit: %v", err)
	}
	drainUntil(t, f.p, time.Second)
	if req := f.be.last(); !bytes.Equal(req.File.Data, pdf.Data) {
		t.Fatalf("analyze_pdf should send the pdf bytes")
	}
}

func TestCropPresenter_PDFEndpointWithoutPDF(t *testing.T) {
	f := newFixture(t)
	if err := f.p.Open(writePNG(t, 16, 16)); err != nil {
		t.Fatalf("open: %v", err)
	}
	if err := f.p.SetMode("pdf_to_image"); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if err := f.p.Submit(); !errors.Is(err, ErrNeedsPDF) {
		t.Fatalf("expected ErrNeedsPDF got %v", err)
	}
}

func TestCropPresenter_WheelZooms(t *testing.T) {
	f := newFixture(t)
	if err := f.p.Open(writePNG(t, 100, 100)); err != nil {
		t.Fatalf("open: %v", err)
	}
	f.p.Wheel(250, 250, 2)
	if f.view.zoom != "Zoom 121%" {
		t.Fatalf("unexpected zoom label %q", f.view.zoom)
	}
	f.p.ResetZoom()
	if f.view.zoom != "Zoom 100%" {
		t.Fatalf("unexpected zoom label after reset %q", f.view.zoom)
	}
}

func TestCropPresenter_CheckHealth(t *testing.T) {
	f := newFixture(t)
	f.be.health = backend.ErrUnhealthy
	f.p.CheckHealth()
	deadline := time.Now().Add(time.Second)
	for time.Now().Before(deadline) && !strings.Contains(f.view.message, "unhealthy") {
		f.p.Drain()
		time.Sleep(5 * time.Millisecond)
	}
	if !strings.Contains(f.view.message, "Backend unhealthy") {
		t.Fatalf("unexpected message %q", f.view.message)
	}
}

func TestCropPresenter_ResetClosesImage(t *testing.T) {
	f := newFixture(t)
	if err := f.p.Open(writePNG(t, 100, 100)); err != nil {
		t.Fatalf("open: %v", err)
	}
	f.p.Reset()
	if f.p.Source() != nil || f.p.Model.Loaded() {
		t.Fatalf("image should be closed")
	}
	if f.fsm.lastEvent() != "reset" || f.view.preview != nil {
		t.Fatalf("expected reset event and empty preview, got %v", f.fsm.events)
	}
	if err := f.p.Submit(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage after reset, got %v", err)
	}
}

func TestCropPresenter_SuggestCropSelectsPrintRatio(t *testing.T) {
	f := newFixture(t)
	if err := f.p.Open(writePNG(t, 400, 200)); err != nil {
		t.Fatalf("open: %v", err)
	}
	f.p.Wheel(100, 100, 3)
	if err := f.p.SuggestCrop(); err != nil {
		t.Fatalf("suggest: %v", err)
	}
	if f.p.Model.Zoom() != 1 {
		t.Fatalf("suggestion should reset zoom, got %v", f.p.Model.Zoom())
	}
	px, err := f.p.Model.Resolve()
	if err != nil || px == nil {
		t.Fatalf("expected a resolvable selection, got %v %v", px, err)
	}
	// 300x360mm target: width/height = 1771/2125
	if px.Height != 200 || px.Width < 165 || px.Width > 168 {
		t.Fatalf("unexpected suggestion %+v", *px)
	}
	if f.fsm.lastEvent() != "cropped" {
		t.Fatalf("expected cropped event, got %v", f.fsm.events)
	}
}

func TestCropPresenter_SuggestCropWithoutImage(t *testing.T) {
	f := newFixture(t)
	if err := f.p.SuggestCrop(); !errors.Is(err, ErrNoImage) {
		t.Fatalf("expected ErrNoImage got %v", err)
	}
}

func holdRaster(t *testing.T, f *presenterFixture) chan struct{} {
	t.Helper()
	raster, _ := os.ReadFile(writePNG(t, 77, 33))
	release := make(chan struct{})
	f.be.result = func(req backend.Request) (*backend.Result, error) {
		<-release
		return &backend.Result{Endpoint: req.Endpoint, ContentType: "image/png", Body: raster}, nil
	}
	pdf := &images.Source{Name: "doc.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 fake"), Pages: 1}
	if err := f.p.OpenSource(pdf); err != nil {
		t.Fatalf("open pdf: %v", err)
	}
	return release
}

func TestCropPresenter_LateRasterDoesNotReplaceNewImage(t *testing.T) {
	f := newFixture(t)
	release := holdRaster(t, f)
	if err := f.p.Open(writePNG(t, 200, 100)); err != nil {
		t.Fatalf("open png: %v", err)
	}
	close(release)
	drainUntil(t, f.p, time.Second)
	src := f.p.Source()
	if src == nil || src.Name != "photo.png" || src.Bounds().Dx() != 200 || src.Bounds().Dy() != 100 {
		t.Fatalf("raster replaced the open image: %+v", src)
	}
	if err := f.p.SetMode("analyze_pdf"); err != nil {
		t.Fatalf("set mode: %v", err)
	}
	if err := f.p.Submit(); !errors.Is(err, ErrNeedsPDF) {
		t.Fatalf("the closed pdf should be gone, got %v", err)
	}
}

func TestCropPresenter_LateRasterAfterReset(t *testing.T) {
	f := newFixture(t)
	release := holdRaster(t, f)
	f.p.Reset()
	close(release)
	drainUntil(t, f.p, time.Second)
	if src := f.p.Source(); src != nil {
		t.Fatalf("expected no image after reset, got %s", src.Name)
	}
	if f.p.Model.Loaded() {
		t.Fatalf("model should stay unloaded")
	}
}

func TestCropPresenter_PDFOpenWhileBusy(t *testing.T) {
	f := newFixture(t)
	release := holdRaster(t, f)
	second := &images.Source{Name: "other.pdf", ContentType: "application/pdf", Data: []byte("%PDF-1.4 other")}
	if err := f.p.OpenSource(second); !errors.Is(err, ErrBusy) {
		t.Fatalf("expected ErrBusy got %v", err)
	}
	close(release)
	drainUntil(t, f.p, time.Second)
	if src := f.p.Source(); src == nil || src.Name != "doc.png" {
		t.Fatalf("first pdf raster should load, got %+v", src)
	}
}
