package app

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"

	"github.com/dustin/go-humanize"

	"github.com/soocke/print-prep-go/config"
	"github.com/soocke/print-prep-go/domain/backend"
	"github.com/soocke/print-prep-go/domain/crop"
	"github.com/soocke/print-prep-go/ui/images"
	"github.com/soocke/print-prep-go/ui/presenter"
)

// HeadlessOptions describe one crop-and-submit run without a window.
// Zero values mean: container of the image's natural size, zoom 1, origin at
// the container center, no selection (full image). Suggest picks the crop
// automatically when no selection is given.
type HeadlessOptions struct {
	In        string
	Out       string
	Endpoint  string
	Container crop.Size
	Zoom      float64
	Origin    *crop.Point
	Selection *crop.Rect
	Suggest   bool
}

// HeadlessResult reports what a headless run produced.
type HeadlessResult struct {
	Pixels *crop.Pixels
	Path   string
	Text   string
	Result *backend.Result
}

// RunHeadless loads opts.In, resolves the selection through the view
// transform described by opts, stages the crop and submits it. Binary
// responses are written to opts.Out (or next to each other in the configured
// output directory); analysis text is returned.
func RunHeadless(ctx context.Context, cfg *config.Config, be presenter.Backend, opts HeadlessOptions, logger *slog.Logger) (*HeadlessResult, error) {
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if be == nil {
		return nil, errors.New("headless: no backend")
	}
	name := opts.Endpoint
	if name == "" {
		name = cfg.DefaultEndpoint
	}
	ep, ok := backend.ParseEndpoint(name)
	if !ok || ep == backend.EndpointHealth {
		return nil, fmt.Errorf("headless: %w: %q", presenter.ErrInvalidMode, name)
	}
	enc, err := images.ParseEncoding(cfg.OutputFormat, cfg.JPEGQuality)
	if err != nil {
		return nil, fmt.Errorf("headless: %w", err)
	}
	src, err := images.Load(opts.In)
	if err != nil {
		return nil, fmt.Errorf("headless: %w", err)
	}
	params := ParamsFromConfig(cfg)

	var upload backend.Upload
	var px *crop.Pixels
	switch {
	case ep.AcceptsPDF():
		if !src.IsPDF() {
			return nil, fmt.Errorf("headless: %w: %s", presenter.ErrNeedsPDF, ep.Path())
		}
		upload = backend.Upload{Filename: src.Name, ContentType: src.ContentType, Data: src.Data}
	default:
		if src.IsPDF() {
			if src, err = rasterize(ctx, be, src, params, logger); err != nil {
				return nil, err
			}
		}
		vt := transformFor(src, opts)
		if err := vt.Validate(); err != nil {
			return nil, fmt.Errorf("headless: %w", err)
		}
		switch {
		case opts.Selection != nil:
			if px, err = crop.Resolve(vt, *opts.Selection); err != nil {
				return nil, fmt.Errorf("headless: %w", err)
			}
		case opts.Suggest:
			s, err := images.SuggestCrop(src.Image, params.Target.Ratio())
			if err != nil {
				return nil, fmt.Errorf("headless: %w", err)
			}
			px = &s
		}
		if upload, err = images.Stage(src, px, enc); err != nil {
			return nil, fmt.Errorf("headless: %w", err)
		}
		b := src.Bounds()
		params.ImageWidth, params.ImageHeight = b.Dx(), b.Dy()
		if px != nil {
			params.ImageWidth, params.ImageHeight = px.Width, px.Height
		}
	}
	if px != nil {
		logger.Info("crop resolved", "x", px.X, "y", px.Y, "width", px.Width, "height", px.Height)
	} else {
		logger.Info("crop resolved", "full_image", true)
	}

	if ep == backend.EndpointResize || ep == backend.EndpointProcessForPrint {
		logger.Info("print upscale", "factor", params.Upscale())
	}
	req, err := backend.Build(ep, upload, params)
	if err != nil {
		return nil, fmt.Errorf("headless: %w", err)
	}
	res, err := be.Do(ctx, req)
	if err != nil {
		return nil, fmt.Errorf("headless: %w", err)
	}
	out := &HeadlessResult{Pixels: px, Result: res}
	if res.IsJSON() {
		text, err := backend.DecodeAnalysis(res)
		if err != nil {
			return nil, fmt.Errorf("headless: %w", err)
		}
		out.Text = text
		if opts.Out == "" {
			return out, nil
		}
	}
	if out.Path, err = writeResult(opts.Out, cfg.OutputDir, src.Name, res); err != nil {
		return nil, fmt.Errorf("headless: save result: %w", err)
	}
	logger.Info("result saved", "path", out.Path, "size", humanize.Bytes(uint64(len(res.Body))), "request_id", res.RequestID)
	return out, nil
}

func transformFor(src *images.Source, opts HeadlessOptions) crop.ViewTransform {
	natural := crop.SizeOf(src.Bounds())
	container := opts.Container
	if !container.Valid() {
		container = natural
	}
	vt := crop.NewViewTransform(natural, container)
	if opts.Zoom != 0 {
		vt.Zoom = opts.Zoom
	}
	if opts.Origin != nil {
		vt.Origin = *opts.Origin
	}
	return vt
}

// rasterize turns a PDF page into the working image.
func rasterize(ctx context.Context, be presenter.Backend, src *images.Source, params backend.Params, logger *slog.Logger) (*images.Source, error) {
	logger.Info("rasterizing pdf", "name", src.Name, "pages", src.Pages, "page", params.Page)
	res, err := be.Do(ctx, backend.PDFToImage(backend.Upload{Filename: src.Name, ContentType: src.ContentType, Data: src.Data}, params.Page, params.Target.DPI))
	if err != nil {
		return nil, fmt.Errorf("headless: rasterize: %w", err)
	}
	base := strings.TrimSuffix(src.Name, filepath.Ext(src.Name))
	img, err := images.FromBytes(base+res.Extension(), res.Body)
	if err != nil {
		return nil, fmt.Errorf("headless: rasterize: %w", err)
	}
	return img, nil
}

func writeResult(out, dir, source string, res *backend.Result) (string, error) {
	if out == "" {
		return presenter.DirWriter{Dir: dir}.Write(source, res)
	}
	if d := filepath.Dir(out); d != "" {
		if err := os.MkdirAll(d, 0o755); err != nil {
			return "", err
		}
	}
	if err := os.WriteFile(out, res.Body, 0o644); err != nil {
		return "", err
	}
	return out, nil
}
