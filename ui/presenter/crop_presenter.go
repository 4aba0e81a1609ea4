package presenter

import (
	"context"
	"errors"
	"fmt"
	"image"
	"log/slog"
	"path/filepath"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/soocke/print-prep-go/domain/backend"
	"github.com/soocke/print-prep-go/domain/crop"
	"github.com/soocke/print-prep-go/ui/images"
	"github.com/soocke/print-prep-go/ui/model"
)

// Backend is the part of the backend client the presenter calls.
type Backend interface {
	Do(ctx context.Context, req backend.Request) (*backend.Result, error)
	Health(ctx context.Context) error
}

// CropWorkflow receives the workflow events triggered by user actions.
type CropWorkflow interface {
	EventLoaded()
	EventCropped()
	EventSelectionCleared()
	EventSubmit()
	EventSucceeded(summary string)
	EventFailed(err error)
	EventReset()
}

// CropView describes the UI surface updated by the presenter.
type CropView interface {
	ShowPreview(img image.Image)
	SetZoomLabel(string)
	SetCropLabel(string)
	SetMessage(string)
	ShowResult(text string, img image.Image)
	SetBusy(bool)
}

// ParamsFunc returns the current request parameters; it is read on each
// submission so config edits apply without a restart.
type ParamsFunc func() backend.Params

var (
	ErrNoImage     = errors.New("no image loaded")
	ErrBusy        = errors.New("a request is already running")
	ErrNeedsPDF    = errors.New("endpoint expects a PDF")
	ErrInvalidMode = errors.New("unknown endpoint")
)

type jobKind int

const (
	jobSubmit jobKind = iota + 1
	jobRasterize
	jobHealth
)

type jobResult struct {
	kind     jobKind
	endpoint backend.Endpoint
	source   string
	gen      uint64
	result   *backend.Result
	err      error
	elapsed  time.Duration
}

// CropPresenter coordinates the crop preview, staging and backend calls.
// All methods except the worker goroutines run on the UI thread.
type CropPresenter struct {
	Model   *model.CropViewModel
	Busy    *model.BusyModel
	Stats   *model.StatsModel
	Backend Backend
	FSM     CropWorkflow
	View    CropView
	Writer  ResultWriter
	Params  ParamsFunc
	logger  *slog.Logger

	enc    images.Encoding
	src    *images.Source
	pdf    *images.Source
	staged *crop.Pixels
	cache  *lru.Cache[crop.Pixels, backend.Upload]
	// gen changes whenever the working image is replaced or closed; late
	// rasterise results from an older generation are dropped.
	gen uint64

	ctx     context.Context
	cancel  context.CancelFunc
	results chan jobResult
	now     func() time.Time
}

// NewCropPresenter constructs a crop presenter. cacheSize bounds the number
// of staged crops kept per image.
func NewCropPresenter(m *model.CropViewModel, busy *model.BusyModel, stats *model.StatsModel, be Backend, fsm CropWorkflow, view CropView, writer ResultWriter, params ParamsFunc, enc images.Encoding, cacheSize int, logger *slog.Logger) *CropPresenter {
	if cacheSize <= 0 {
		cacheSize = 16
	}
	cache, _ := lru.New[crop.Pixels, backend.Upload](cacheSize)
	ctx, cancel := context.WithCancel(context.Background())
	return &CropPresenter{
		Model:   m,
		Busy:    busy,
		Stats:   stats,
		Backend: be,
		FSM:     fsm,
		View:    view,
		Writer:  writer,
		Params:  params,
		logger:  logger,
		enc:     enc,
		cache:   cache,
		ctx:     ctx,
		cancel:  cancel,
		results: make(chan jobResult, 8),
		now:     time.Now,
	}
}

// Source returns the working image, or nil.
func (p *CropPresenter) Source() *images.Source {
	if p == nil {
		return nil
	}
	return p.src
}

// Open loads path from disk.
func (p *CropPresenter) Open(path string) error {
	if p == nil {
		return nil
	}
	src, err := images.Load(strings.TrimSpace(path))
	if err != nil {
		p.fail("open", err)
		return err
	}
	return p.OpenSource(src)
}

// OpenSource makes src the working image. A PDF is kept for the PDF
// endpoints and sent to /pdf_to_image; the returned raster becomes the
// working image when it arrives.
func (p *CropPresenter) OpenSource(src *images.Source) error {
	if p == nil || src == nil {
		return nil
	}
	if src.IsPDF() {
		if p.Busy.Busy() {
			p.message(ErrBusy.Error())
			return ErrBusy
		}
		p.gen++
		p.pdf = src
		if p.logger != nil {
			p.logger.Info("pdf opened", "name", src.Name, "pages", src.Pages, "size", humanize.Bytes(uint64(len(src.Data))))
		}
		params := p.params()
		req := backend.PDFToImage(backend.Upload{Filename: src.Name, ContentType: src.ContentType, Data: src.Data}, params.Page, params.Target.DPI)
		return p.dispatch(jobRasterize, req, src.Name)
	}
	p.gen++
	p.pdf = nil
	p.setSource(src)
	return nil
}

func (p *CropPresenter) setSource(src *images.Source) {
	p.src = src
	p.staged = nil
	p.cache.Purge()
	p.Model.LoadImage(crop.SizeOf(src.Bounds()))
	if p.FSM != nil {
		p.FSM.EventLoaded()
	}
	if p.logger != nil {
		b := src.Bounds()
		p.logger.Info("image loaded", "name", src.Name, "width", b.Dx(), "height", b.Dy(), "size", humanize.Bytes(uint64(len(src.Data))))
	}
	p.message(fmt.Sprintf("Loaded %s", src.Name))
	p.Render()
}

// SetContainer records the measured preview size.
func (p *CropPresenter) SetContainer(w, h float64) {
	if p == nil {
		return
	}
	p.Model.SetContainer(crop.Size{Width: w, Height: h})
	p.Render()
}

// Wheel zooms about the pointer by steps notches.
func (p *CropPresenter) Wheel(x, y float64, steps int) {
	if p == nil || !p.Model.Wheel(crop.Point{X: x, Y: y}, steps) {
		return
	}
	p.Render()
}

// ResetZoom returns the preview to zoom 1.
func (p *CropPresenter) ResetZoom() {
	if p == nil {
		return
	}
	p.Model.ResetZoom()
	p.Render()
}

// Press starts a selection drag.
func (p *CropPresenter) Press(x, y float64) {
	if p == nil || p.src == nil {
		return
	}
	had := p.Model.Selection() != nil
	p.Model.BeginDrag(crop.Point{X: x, Y: y})
	if had && p.FSM != nil {
		p.FSM.EventSelectionCleared()
	}
	p.Render()
}

// Motion extends the drag.
func (p *CropPresenter) Motion(x, y float64) {
	if p == nil || !p.Model.Dragging() {
		return
	}
	p.Model.DragTo(crop.Point{X: x, Y: y})
	p.Render()
}

// Release ends the drag; tiny drags are discarded.
func (p *CropPresenter) Release(x, y float64) {
	if p == nil || !p.Model.Dragging() {
		return
	}
	if p.Model.EndDrag(crop.Point{X: x, Y: y}) && p.FSM != nil {
		p.FSM.EventCropped()
	}
	p.Render()
}

// ClearSelection drops the selection; the next submission sends the full image.
func (p *CropPresenter) ClearSelection() {
	if p == nil {
		return
	}
	had := p.Model.Selection() != nil
	p.Model.ClearSelection()
	if had && p.FSM != nil {
		p.FSM.EventSelectionCleared()
	}
	p.Render()
}

// SetMode selects the target endpoint by name. Switching clears the selection.
func (p *CropPresenter) SetMode(name string) error {
	if p == nil {
		return nil
	}
	ep, ok := backend.ParseEndpoint(name)
	if !ok || ep == backend.EndpointHealth {
		return fmt.Errorf("%w: %q", ErrInvalidMode, name)
	}
	had := p.Model.Selection() != nil
	p.Model.SetMode(ep)
	if had && p.Model.Selection() == nil && p.FSM != nil {
		p.FSM.EventSelectionCleared()
	}
	p.Render()
	return nil
}

// SuggestCrop resets the zoom and selects the most salient region of the
// image at the print aspect ratio.
func (p *CropPresenter) SuggestCrop() error {
	if p == nil {
		return nil
	}
	if p.src == nil || p.src.Image == nil {
		p.message(ErrNoImage.Error())
		return ErrNoImage
	}
	p.Model.ResetZoom()
	vt, ok := p.Model.Transform()
	if !ok {
		return ErrNoImage
	}
	px, err := images.SuggestCrop(p.src.Image, p.params().Target.Ratio())
	if err != nil {
		p.fail("suggest crop", err)
		return err
	}
	sel, err := crop.Project(vt, px)
	if err != nil {
		p.fail("suggest crop", err)
		return err
	}
	p.Model.SetSelection(sel)
	if p.FSM != nil {
		p.FSM.EventCropped()
	}
	p.message(fmt.Sprintf("Suggested %dx%d at %d,%d", px.Width, px.Height, px.X, px.Y))
	p.Render()
	return nil
}

// Render pushes the current preview and labels to the view.
func (p *CropPresenter) Render() {
	if p == nil || p.View == nil {
		return
	}
	vt, ok := p.Model.Transform()
	if !ok {
		return
	}
	var img image.Image
	if p.src != nil {
		img = p.src.Image
	}
	p.View.ShowPreview(images.RenderView(img, vt, p.Model.Selection(), p.staged))
	p.View.SetZoomLabel(fmt.Sprintf("Zoom %d%%", int(vt.Zoom*100+0.5)))
	px, err := p.Model.Resolve()
	switch {
	case err != nil:
		p.View.SetCropLabel("Crop: invalid geometry")
	case px == nil:
		p.View.SetCropLabel(fmt.Sprintf("Crop: full image %dx%d", int(vt.Natural.Width), int(vt.Natural.Height)))
	default:
		p.View.SetCropLabel(fmt.Sprintf("Crop: %d,%d %dx%d", px.X, px.Y, px.Width, px.Height))
	}
}

// Submit resolves the selection, stages the upload and sends it to the
// current mode's endpoint on a worker goroutine.
func (p *CropPresenter) Submit() error {
	if p == nil {
		return nil
	}
	mode := p.Model.Mode()
	upload, size, err := p.stage(mode)
	if err != nil {
		p.fail("stage", err)
		return err
	}
	params := p.params()
	params.ImageWidth, params.ImageHeight = size.X, size.Y
	req, err := backend.Build(mode, upload, params)
	if err != nil {
		p.fail("build request", err)
		return err
	}
	name := ""
	if p.src != nil {
		name = p.src.Name
	} else if p.pdf != nil {
		name = p.pdf.Name
	}
	if err := p.dispatch(jobSubmit, req, name); err != nil {
		return err
	}
	if mode == backend.EndpointResize || mode == backend.EndpointProcessForPrint {
		if f := params.Upscale(); f > 0 {
			if p.logger != nil {
				p.logger.Info("print upscale", "endpoint", mode.Path(), "factor", f)
			}
			p.message(fmt.Sprintf("Sending %s, upscale x%.2f", mode.Path(), f))
		}
	}
	return nil
}

// stage returns the upload for mode and the pixel size it carries.
func (p *CropPresenter) stage(mode backend.Endpoint) (backend.Upload, image.Point, error) {
	if mode.AcceptsPDF() {
		if p.pdf == nil {
			return backend.Upload{}, image.Point{}, fmt.Errorf("%s: %w", mode.Path(), ErrNeedsPDF)
		}
		return backend.Upload{Filename: p.pdf.Name, ContentType: p.pdf.ContentType, Data: p.pdf.Data}, image.Point{}, nil
	}
	if p.src == nil {
		return backend.Upload{}, image.Point{}, ErrNoImage
	}
	px, err := p.Model.Resolve()
	if err != nil {
		return backend.Upload{}, image.Point{}, err
	}
	if px == nil {
		p.staged = nil
		b := p.src.Bounds()
		up, err := images.Stage(p.src, nil, p.enc)
		return up, image.Pt(b.Dx(), b.Dy()), err
	}
	size := image.Pt(px.Width, px.Height)
	if up, ok := p.cache.Get(*px); ok {
		p.staged = px
		return up, size, nil
	}
	up, err := images.Stage(p.src, px, p.enc)
	if err != nil {
		return backend.Upload{}, image.Point{}, err
	}
	p.cache.Add(*px, up)
	p.staged = px
	if p.logger != nil {
		p.logger.Debug("crop staged", "x", px.X, "y", px.Y, "width", px.Width, "height", px.Height, "size", humanize.Bytes(uint64(len(up.Data))))
	}
	return up, size, nil
}

func (p *CropPresenter) dispatch(kind jobKind, req backend.Request, source string) error {
	if p.Backend == nil {
		return errors.New("no backend")
	}
	if !p.Busy.TryAcquire() {
		p.message(ErrBusy.Error())
		return ErrBusy
	}
	if p.FSM != nil && kind == jobSubmit {
		p.FSM.EventSubmit()
	}
	if p.View != nil {
		p.View.SetBusy(true)
		p.View.SetMessage(fmt.Sprintf("Sending %s to %s", humanize.Bytes(uint64(len(req.File.Data))), req.Endpoint.Path()))
	}
	be, gen := p.Backend, p.gen
	go func() {
		defer recoverLog(p.logger, "backend worker panic")
		start := p.now()
		res, err := be.Do(p.ctx, req)
		p.deliver(jobResult{kind: kind, endpoint: req.Endpoint, source: source, gen: gen, result: res, err: err, elapsed: time.Since(start)})
	}()
	return nil
}

// CheckHealth pings the backend in the background.
func (p *CropPresenter) CheckHealth() {
	if p == nil || p.Backend == nil {
		return
	}
	be := p.Backend
	go func() {
		defer recoverLog(p.logger, "health worker panic")
		start := p.now()
		err := be.Health(p.ctx)
		p.deliver(jobResult{kind: jobHealth, endpoint: backend.EndpointHealth, err: err, elapsed: time.Since(start)})
	}()
}

func (p *CropPresenter) deliver(res jobResult) {
	select {
	case p.results <- res:
	case <-p.ctx.Done():
	}
}

// Drain applies finished backend results; call it from the UI tick.
func (p *CropPresenter) Drain() {
	if p == nil {
		return
	}
	for {
		select {
		case res := <-p.results:
			p.handleResult(res)
		default:
			return
		}
	}
}

func (p *CropPresenter) handleResult(res jobResult) {
	if res.kind == jobHealth {
		if res.err != nil {
			p.message("Backend unhealthy: " + res.err.Error())
		} else {
			p.message("Backend healthy")
		}
		return
	}
	p.Busy.Release()
	if p.View != nil {
		p.View.SetBusy(false)
	}
	p.Stats.Record(res.elapsed, res.err != nil, p.now())
	if res.err != nil {
		if p.logger != nil {
			p.logger.Error("backend request failed", "endpoint", res.endpoint.Path(), "error", res.err)
		}
		if p.FSM != nil && res.kind == jobSubmit {
			p.FSM.EventFailed(res.err)
		}
		p.message(res.err.Error())
		return
	}
	switch res.kind {
	case jobRasterize:
		p.applyRaster(res)
	case jobSubmit:
		p.applySubmit(res)
	}
}

func (p *CropPresenter) applyRaster(res jobResult) {
	if res.gen != p.gen || p.pdf == nil {
		if p.logger != nil {
			p.logger.Info("stale raster dropped", "source", res.source)
		}
		return
	}
	base := strings.TrimSuffix(res.source, filepath.Ext(res.source))
	src, err := images.FromBytes(base+res.result.Extension(), res.result.Body)
	if err != nil {
		p.fail("rasterize", err)
		return
	}
	pdf := p.pdf
	p.setSource(src)
	p.pdf = pdf
}

func (p *CropPresenter) applySubmit(res jobResult) {
	r := res.result
	summary := fmt.Sprintf("%s %s in %s", r.Endpoint.Path(), humanize.Bytes(uint64(len(r.Body))), r.Elapsed.Round(time.Millisecond))
	text := summary
	var preview image.Image
	switch {
	case r.IsJSON():
		if analysis, err := backend.DecodeAnalysis(r); err == nil && analysis != "" {
			text = analysis
		} else {
			text = string(r.Body)
		}
	case r.IsImage():
		if out, err := images.FromBytes("result"+r.Extension(), r.Body); err == nil {
			preview = out.Image
		}
	}
	if p.Writer != nil && !r.IsJSON() {
		path, err := p.Writer.Write(res.source, r)
		if err != nil {
			if p.logger != nil {
				p.logger.Error("save result", "error", err)
			}
		} else {
			text = summary + "\nSaved " + path
		}
	}
	if p.logger != nil {
		p.logger.Info("backend request done", "endpoint", r.Endpoint.Path(), "request_id", r.RequestID, "content_type", r.ContentType, "size", humanize.Bytes(uint64(len(r.Body))), "elapsed", r.Elapsed)
	}
	if p.FSM != nil {
		p.FSM.EventSucceeded(summary)
	}
	if p.View != nil {
		p.View.ShowResult(text, preview)
	}
	p.Render()
}

// SetEncoding changes the format of staged crops and drops cached blobs.
func (p *CropPresenter) SetEncoding(enc images.Encoding) {
	if p == nil {
		return
	}
	p.enc = enc
	p.staged = nil
	p.cache.Purge()
}

// Reset closes the working image and returns the workflow to empty.
func (p *CropPresenter) Reset() {
	if p == nil {
		return
	}
	p.gen++
	p.src, p.pdf, p.staged = nil, nil, nil
	p.cache.Purge()
	p.Model.Unload()
	if p.FSM != nil {
		p.FSM.EventReset()
	}
	if p.View != nil {
		p.View.ShowPreview(nil)
		p.View.SetZoomLabel("Zoom -")
		p.View.SetCropLabel("Crop: -")
		p.View.ShowResult("", nil)
	}
	p.message("No image")
}

// Close cancels in-flight requests.
func (p *CropPresenter) Close() {
	if p == nil || p.cancel == nil {
		return
	}
	p.cancel()
}

func (p *CropPresenter) params() backend.Params {
	if p.Params == nil {
		return backend.Params{}
	}
	return p.Params()
}

func (p *CropPresenter) fail(op string, err error) {
	if p.logger != nil {
		p.logger.Error(op, "error", err)
	}
	p.message(err.Error())
}

func (p *CropPresenter) message(s string) {
	if p.View != nil {
		p.View.SetMessage(s)
	}
}

func recoverLog(logger *slog.Logger, msg string) {
	if r := recover(); r != nil {
		if logger != nil {
			logger.Error(msg, "error", r)
		}
	}
}
