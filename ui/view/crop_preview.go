package view

import (
	"image"
	"log/slog"

	"github.com/soocke/print-prep-go/domain/crop"
	"github.com/soocke/print-prep-go/ui/images"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// CropPreview owns the label showing the rendered crop view and the label
// showing the last image result of the backend.
type CropPreview interface {
	UpdatePreview(img image.Image)
	UpdateResult(img image.Image)
	Reset()
	Label() *LabelWidget
	// Point maps pointer coordinates reported by the preview label to
	// container coordinates.
	Point(x, y int) crop.Point
}

// previewBorder is the only inset of the preview label; its padding is zero.
const previewBorder = 1

type cropPreview struct {
	previewLabel *LabelWidget
	resultLabel  *LabelWidget
	width        int
	height       int
	resultW      int
	resultH      int
	prevPreview  *Img // last Tk photo of the preview
	prevResult   *Img // last Tk photo of the result
	logger       *slog.Logger
}

// Photos are deleted before replacement so off-screen pixel data does not
// accumulate inside Tk.

// NewCropPreview creates both labels and grids them at row. The preview
// spans columns 0-3 and shows a w×h image inside a previewBorder frame; Point
// removes that frame so pointer coordinates match the view transform.
func NewCropPreview(row, w, h int, logger *slog.Logger) CropPreview {
	v := &cropPreview{width: w, height: h, resultW: w / 3, resultH: h / 2, logger: logger}
	v.prevPreview = placeholder(w, h)
	v.prevResult = placeholder(v.resultW, v.resultH)
	v.previewLabel = Label(Image(v.prevPreview), Borderwidth(previewBorder), Relief("solid"), Padx(0), Pady(0), Highlightthickness(0), Anchor("nw"))
	v.resultLabel = Label(Image(v.prevResult), Borderwidth(1), Relief("sunken"))
	Grid(v.previewLabel, Row(row), Column(0), Columnspan(4), Sticky("nw"), Padx("0.4m"), Pady("0.4m"))
	Grid(v.resultLabel, Row(row), Column(4), Sticky("n"), Padx("0.4m"), Pady("0.4m"))
	return v
}

func placeholder(w, h int) *Img {
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	return NewPhoto(Width(w), Height(h))
}

// photo encodes img for Tk. It returns nil, after logging, when encoding
// fails; callers keep the current photo then.
func (v *cropPreview) photo(img image.Image) *Img {
	data, err := images.EncodePNG(img)
	if err != nil {
		if v.logger != nil {
			v.logger.Error("preview encode failed", "error", err)
		}
		return nil
	}
	return NewPhoto(Data(data))
}

func (v *cropPreview) Label() *LabelWidget { return v.previewLabel }

func (v *cropPreview) Point(x, y int) crop.Point {
	return crop.FromWidget(float64(x), float64(y), previewBorder, crop.Size{Width: float64(v.width), Height: float64(v.height)})
}

func (v *cropPreview) UpdatePreview(img image.Image) {
	if v.previewLabel == nil {
		return
	}
	if img == nil {
		v.resetPreview()
		return
	}
	// The presenter renders at container size already.
	photo := v.photo(img)
	if photo == nil {
		return
	}
	if v.prevPreview != nil {
		v.prevPreview.Delete()
	}
	v.prevPreview = photo
	v.previewLabel.Configure(Image(photo))
}

func (v *cropPreview) UpdateResult(img image.Image) {
	if v.resultLabel == nil {
		return
	}
	if img == nil {
		v.resetResult()
		return
	}
	scaled := images.ScaleToFit(img, v.resultW, v.resultH)
	photo := v.photo(scaled)
	if photo == nil {
		return
	}
	if v.prevResult != nil {
		v.prevResult.Delete()
	}
	v.prevResult = photo
	v.resultLabel.Configure(Image(photo))
}

func (v *cropPreview) Reset() {
	v.resetPreview()
	v.resetResult()
}

func (v *cropPreview) resetPreview() {
	if v.previewLabel == nil {
		return
	}
	if v.prevPreview != nil {
		v.prevPreview.Delete()
	}
	v.prevPreview = placeholder(v.width, v.height)
	v.previewLabel.Configure(Image(v.prevPreview))
}

func (v *cropPreview) resetResult() {
	if v.resultLabel == nil {
		return
	}
	if v.prevResult != nil {
		v.prevResult.Delete()
	}
	v.prevResult = placeholder(v.resultW, v.resultH)
	v.resultLabel.Configure(Image(v.prevResult))
}
