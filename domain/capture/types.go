package capture

import (
	"image"
	"time"
)

// FrameSnapshot carries a captured frame and metadata.
type FrameSnapshot struct {
	Image      *image.RGBA
	CapturedAt time.Time
	Sequence   uint64
}

// CaptureStats summarises grabs for instrumentation.
type CaptureStats struct {
	Captures    uint64
	Failures    uint64
	AvgCapture  time.Duration
	LastCapture time.Time
	Sequence    uint64
}

// Source grabs screen frames on demand.
type Source interface {
	Capture(region *image.Rectangle) (FrameSnapshot, error)
	Latest() FrameSnapshot
	Stats() CaptureStats
}

// GrabFunc captures a rectangle of the screen; an empty rectangle means the
// whole screen.
type GrabFunc func(r image.Rectangle) (*image.RGBA, error)
