package images

import (
	"fmt"
	"image"
	"image/color"

	"golang.org/x/image/draw"
	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"github.com/soocke/print-prep-go/domain/crop"
)

// Overlay colors of the preview.
var (
	Background     = color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff}
	SelectionColor = color.RGBA{R: 0xff, G: 0x40, B: 0x40, A: 0xff}
	StagedColor    = color.RGBA{R: 0x40, G: 0xc0, B: 0x40, A: 0xff}
)

// RenderView draws src into a container-sized canvas the way the transform
// places it: contain-scaled, centered, zoomed about the origin and clipped to
// the container. The drag selection and the last staged crop are outlined;
// the selection is labelled with the source pixel size it resolves to.
func RenderView(src image.Image, vt crop.ViewTransform, selection *crop.Rect, staged *crop.Pixels) *image.RGBA {
	w := int(vt.Container.Width)
	h := int(vt.Container.Height)
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.Draw(dst, dst.Bounds(), image.NewUniform(Background), image.Point{}, draw.Src)
	if src == nil || vt.Validate() != nil {
		return dst
	}
	dr := vt.ImageRect().Image()
	if !dr.Overlaps(dst.Bounds()) {
		return dst
	}
	draw.ApproxBiLinear.Scale(dst, dr, src, src.Bounds(), draw.Over, nil)
	if staged != nil {
		if r, err := crop.Project(vt, *staged); err == nil {
			outline(dst, r.Image(), StagedColor)
		}
	}
	if selection != nil && !selection.Empty() {
		r := selection.Image()
		outline(dst, r, SelectionColor)
		if px, err := crop.Resolve(vt, *selection); err == nil && px != nil {
			label(dst, r.Min, fmt.Sprintf("%dx%d", px.Width, px.Height), SelectionColor)
		}
	}
	return dst
}

// label writes text just inside the top-left corner at p, moved back into
// dst when the corner is off screen.
func label(dst *image.RGBA, p image.Point, text string, c color.Color) {
	face := basicfont.Face7x13
	b := dst.Bounds()
	x := max(p.X+3, b.Min.X+2)
	y := max(p.Y+face.Ascent+2, b.Min.Y+face.Ascent+2)
	d := &font.Drawer{Dst: dst, Src: image.NewUniform(c), Face: face, Dot: fixed.P(x, y)}
	d.DrawString(text)
}

// outline draws a one pixel border of r clipped to dst.
func outline(dst *image.RGBA, r image.Rectangle, c color.Color) {
	b := dst.Bounds()
	if r.Dx() > 0 {
		r.Max.X--
	}
	if r.Dy() > 0 {
		r.Max.Y--
	}
	for x := r.Min.X; x <= r.Max.X; x++ {
		if x < b.Min.X || x >= b.Max.X {
			continue
		}
		setIn(dst, x, r.Min.Y, c)
		setIn(dst, x, r.Max.Y, c)
	}
	for y := r.Min.Y; y <= r.Max.Y; y++ {
		if y < b.Min.Y || y >= b.Max.Y {
			continue
		}
		setIn(dst, r.Min.X, y, c)
		setIn(dst, r.Max.X, y, c)
	}
}

func setIn(dst *image.RGBA, x, y int, c color.Color) {
	if (image.Point{X: x, Y: y}).In(dst.Bounds()) {
		dst.Set(x, y, c)
	}
}
