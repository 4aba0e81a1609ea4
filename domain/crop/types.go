package crop

import (
	"errors"
	"image"
)

// Zoom limits for the preview transform.
const (
	MinZoom     = 0.2
	MaxZoom     = 5.0
	DefaultZoom = 1.0
)

// ErrInvalidGeometry reports a resolver call made without valid sizes or zoom.
var ErrInvalidGeometry = errors.New("invalid crop geometry")

// Size is a width/height pair. Natural sizes are integral pixel counts but
// container sizes may be fractional on scaled displays.
type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Valid reports whether both dimensions are strictly positive.
func (s Size) Valid() bool { return s.Width > 0 && s.Height > 0 }

// Center returns the midpoint of a box of this size anchored at 0,0.
func (s Size) Center() Point { return Point{X: s.Width / 2, Y: s.Height / 2} }

// SizeOf returns the size of an image rectangle.
func SizeOf(r image.Rectangle) Size {
	return Size{Width: float64(r.Dx()), Height: float64(r.Dy())}
}

// Point is a position in container coordinates.
type Point struct {
	X float64 `json:"x"`
	Y float64 `json:"y"`
}

// Rect is an axis-aligned rectangle in container coordinates.
type Rect struct {
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Right returns the x coordinate of the right edge.
func (r Rect) Right() float64 { return r.X + r.Width }

// Bottom returns the y coordinate of the bottom edge.
func (r Rect) Bottom() float64 { return r.Y + r.Height }

// Empty reports whether the rectangle has no area.
func (r Rect) Empty() bool { return r.Width <= 0 || r.Height <= 0 }

// Image converts the rectangle to integer container pixels, rounding outward.
func (r Rect) Image() image.Rectangle {
	return image.Rect(floor(r.X), floor(r.Y), ceil(r.Right()), ceil(r.Bottom()))
}

// Pixels is a rectangle in the source image's native pixel space.
type Pixels struct {
	X      int `json:"x"`
	Y      int `json:"y"`
	Width  int `json:"width"`
	Height int `json:"height"`
}

// Rectangle returns the pixel rectangle as an image.Rectangle.
func (p Pixels) Rectangle() image.Rectangle {
	return image.Rect(p.X, p.Y, p.X+p.Width, p.Y+p.Height)
}

// ViewTransform is a snapshot of everything that determines where the image
// is drawn inside its container. It is a value; callers pass copies.
type ViewTransform struct {
	Natural   Size    `json:"natural"`
	Container Size    `json:"container"`
	Zoom      float64 `json:"zoom"`
	Origin    Point   `json:"origin"`
}

// NewViewTransform returns the transform of a freshly loaded image: zoom 1,
// origin at the container center.
func NewViewTransform(natural, container Size) ViewTransform {
	return ViewTransform{
		Natural:   natural,
		Container: container,
		Zoom:      DefaultZoom,
		Origin:    container.Center(),
	}
}
