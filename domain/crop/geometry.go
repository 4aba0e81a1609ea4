package crop

import (
	"fmt"
	"math"
)

// pixelEpsilon absorbs float error when a normalized edge lands exactly on a
// pixel boundary (0.3*1000 must floor to 300, not 299).
const pixelEpsilon = 1e-9

// Validate checks the resolver preconditions.
func (vt ViewTransform) Validate() error {
	if !vt.Natural.Valid() {
		return fmt.Errorf("%w: natural size %gx%g", ErrInvalidGeometry, vt.Natural.Width, vt.Natural.Height)
	}
	if !vt.Container.Valid() {
		return fmt.Errorf("%w: container size %gx%g", ErrInvalidGeometry, vt.Container.Width, vt.Container.Height)
	}
	if math.IsNaN(vt.Zoom) || vt.Zoom < MinZoom || vt.Zoom > MaxZoom {
		return fmt.Errorf("%w: zoom %g outside [%g, %g]", ErrInvalidGeometry, vt.Zoom, MinZoom, MaxZoom)
	}
	if !finite(vt.Origin.X, vt.Origin.Y) {
		return fmt.Errorf("%w: origin %g,%g", ErrInvalidGeometry, vt.Origin.X, vt.Origin.Y)
	}
	return nil
}

// BaseScale is the "contain" factor fitting the whole image in the container.
func (vt ViewTransform) BaseScale() float64 {
	return math.Min(vt.Container.Width/vt.Natural.Width, vt.Container.Height/vt.Natural.Height)
}

// ImageRect returns the box the image occupies on screen after contain
// scaling, centering and the zoom transform about Origin. A scale about o
// maps every point p to o + (p-o)*zoom, so the unzoomed top-left corner
// (offsetX, offsetY) lands at o*(1-zoom) + offset*zoom.
func (vt ViewTransform) ImageRect() Rect {
	scale := vt.BaseScale()
	baseW := vt.Natural.Width * scale
	baseH := vt.Natural.Height * scale
	offsetX := (vt.Container.Width - baseW) / 2
	offsetY := (vt.Container.Height - baseH) / 2
	return Rect{
		X:      vt.Origin.X*(1-vt.Zoom) + offsetX*vt.Zoom,
		Y:      vt.Origin.Y*(1-vt.Zoom) + offsetY*vt.Zoom,
		Width:  baseW * vt.Zoom,
		Height: baseH * vt.Zoom,
	}
}

// Resolve maps a selection drawn in container coordinates to the matching
// rectangle of the source image. It returns nil pixels when the selection
// does not cover at least one display pixel of the image on both axes; the
// caller should then use the full image. Invalid sizes or zoom are an error.
func Resolve(vt ViewTransform, sel Rect) (*Pixels, error) {
	if err := vt.Validate(); err != nil {
		return nil, err
	}
	if sel.Empty() || !finite(sel.X, sel.Y, sel.Width, sel.Height) {
		return nil, nil
	}
	img := vt.ImageRect()

	left := math.Max(sel.X, img.X)
	top := math.Max(sel.Y, img.Y)
	right := math.Min(sel.Right(), img.Right())
	bottom := math.Min(sel.Bottom(), img.Bottom())
	if right-left < 1 || bottom-top < 1 {
		return nil, nil
	}

	normX := (left - img.X) / img.Width
	normY := (top - img.Y) / img.Height
	normW := (right - left) / img.Width
	normH := (bottom - top) / img.Height

	nw := int(vt.Natural.Width)
	nh := int(vt.Natural.Height)
	px := Pixels{
		X:      floor(normX*vt.Natural.Width + pixelEpsilon),
		Y:      floor(normY*vt.Natural.Height + pixelEpsilon),
		Width:  floor(normW*vt.Natural.Width + pixelEpsilon),
		Height: floor(normH*vt.Natural.Height + pixelEpsilon),
	}
	px.X, px.Width = clampSpan(px.X, px.Width, nw)
	px.Y, px.Height = clampSpan(px.Y, px.Height, nh)
	return &px, nil
}

// Project is the inverse of Resolve: it returns the container rectangle in
// which the given source pixels are currently displayed.
func Project(vt ViewTransform, px Pixels) (Rect, error) {
	if err := vt.Validate(); err != nil {
		return Rect{}, err
	}
	img := vt.ImageRect()
	sx := img.Width / vt.Natural.Width
	sy := img.Height / vt.Natural.Height
	return Rect{
		X:      img.X + float64(px.X)*sx,
		Y:      img.Y + float64(px.Y)*sy,
		Width:  float64(px.Width) * sx,
		Height: float64(px.Height) * sy,
	}, nil
}

// clampSpan keeps [pos, pos+length) inside [0, limit) with length >= 1.
func clampSpan(pos, length, limit int) (int, int) {
	if limit < 1 {
		limit = 1
	}
	if pos < 0 {
		pos = 0
	}
	if pos > limit-1 {
		pos = limit - 1
	}
	if length < 1 {
		length = 1
	}
	if pos+length > limit {
		length = limit - pos
	}
	return pos, length
}

func finite(vs ...float64) bool {
	for _, v := range vs {
		if math.IsNaN(v) || math.IsInf(v, 0) {
			return false
		}
	}
	return true
}

func floor(v float64) int { return int(math.Floor(v)) }
func ceil(v float64) int  { return int(math.Ceil(v)) }
