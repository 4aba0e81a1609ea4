package capture

import (
	"errors"
	"fmt"
	"image"

	"github.com/vova616/screenshot"
)

// Grab returns a screen capture of the current active monitor.
func Grab() (*image.RGBA, error) {
	return screenshot.CaptureScreen()
}

// ScreenBounds returns the rectangle of the active monitor.
func ScreenBounds() (image.Rectangle, error) {
	return screenshot.ScreenRect()
}

// GrabRect captures r clipped to the screen bounds.
func GrabRect(r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() {
		return nil, errors.New("capture: empty selection")
	}
	screen, err := screenshot.ScreenRect()
	if err != nil {
		return nil, fmt.Errorf("capture: screen rect: %w", err)
	}
	clipped := r.Intersect(screen)
	if clipped.Empty() {
		return nil, fmt.Errorf("capture: selection out of bounds sel=%v screen=%v", r, screen)
	}
	return screenshot.CaptureRect(clipped)
}

func grabScreen(r image.Rectangle) (*image.RGBA, error) {
	if r.Empty() {
		return Grab()
	}
	return GrabRect(r)
}
