package crop

import "math"

// Gesture defaults.
const (
	DefaultZoomStep       = 1.1
	DefaultMinSelectionPx = 8.0
)

// ClampZoom limits z to [MinZoom, MaxZoom]. NaN maps to DefaultZoom.
func ClampZoom(z float64) float64 {
	if math.IsNaN(z) {
		return DefaultZoom
	}
	return math.Max(MinZoom, math.Min(MaxZoom, z))
}

// ZoomAt applies a wheel gesture of the given number of steps (positive zooms
// in) at pointer. The pointer becomes the new transform origin.
func ZoomAt(zoom float64, pointer Point, steps int, stepFactor float64) (float64, Point) {
	if stepFactor <= 1 {
		stepFactor = DefaultZoomStep
	}
	return ClampZoom(zoom * math.Pow(stepFactor, float64(steps))), pointer
}

// SelectionFromDrag builds a rectangle from two drag corners in any order.
func SelectionFromDrag(start, end Point) Rect {
	x0, x1 := math.Min(start.X, end.X), math.Max(start.X, end.X)
	y0, y1 := math.Min(start.Y, end.Y), math.Max(start.Y, end.Y)
	return Rect{X: x0, Y: y0, Width: x1 - x0, Height: y1 - y0}
}

// Noise reports whether a finished drag is too small to be a deliberate
// selection.
func Noise(sel Rect, minPx float64) bool {
	if minPx <= 0 {
		minPx = DefaultMinSelectionPx
	}
	return sel.Width < minPx || sel.Height < minPx
}

// FromWidget converts widget-relative pointer coordinates to container
// coordinates. inset is the widget's border plus padding around the
// container; the result is clamped into the container.
func FromWidget(x, y, inset float64, container Size) Point {
	return Point{
		X: math.Max(0, math.Min(container.Width, x-inset)),
		Y: math.Max(0, math.Min(container.Height, y-inset)),
	}
}
