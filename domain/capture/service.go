package capture

import (
	"errors"
	"image"
	"log/slog"
	"sync/atomic"
	"time"

	"github.com/dustin/go-humanize"
)

type captureService struct {
	grab         GrabFunc
	latest       atomic.Pointer[FrameSnapshot]
	logger       *slog.Logger
	captures     atomic.Uint64
	failures     atomic.Uint64
	captureNanos atomic.Uint64
	sequence     atomic.Uint64
}

// NewService returns a Source backed by the screenshot library.
func NewService(logger *slog.Logger) Source {
	return NewServiceWith(logger, grabScreen)
}

// NewServiceWith returns a Source using grab for the actual capture.
func NewServiceWith(logger *slog.Logger, grab GrabFunc) Source {
	return &captureService{grab: grab, logger: logger}
}

// Capture grabs region, or the whole screen when region is nil or empty.
func (s *captureService) Capture(region *image.Rectangle) (FrameSnapshot, error) {
	var r image.Rectangle
	if region != nil {
		r = *region
	}
	start := time.Now()
	img, err := s.grab(r)
	if err == nil && img == nil {
		err = errors.New("capture: no image")
	}
	if err != nil {
		s.failures.Add(1)
		if s.logger != nil {
			s.logger.Error("capture", "region", r, "error", err)
		}
		return FrameSnapshot{}, err
	}
	elapsed := time.Since(start)
	s.captureNanos.Add(uint64(elapsed.Nanoseconds()))
	s.captures.Add(1)
	snap := FrameSnapshot{Image: img, CapturedAt: time.Now(), Sequence: s.sequence.Add(1)}
	s.latest.Store(&snap)
	if s.logger != nil {
		b := img.Bounds()
		s.logger.Debug("capture",
			"width", b.Dx(),
			"height", b.Dy(),
			"size", humanize.Bytes(uint64(len(img.Pix))),
			"elapsed", elapsed,
			"sequence", snap.Sequence,
		)
	}
	return snap, nil
}

func (s *captureService) Latest() FrameSnapshot {
	snap := s.latest.Load()
	if snap == nil {
		return FrameSnapshot{}
	}
	return *snap
}

func (s *captureService) Stats() CaptureStats {
	captures := s.captures.Load()
	total := s.captureNanos.Load()
	var avg time.Duration
	if captures > 0 && total > 0 {
		avg = time.Duration(total / captures)
	}
	snapshot := s.Latest()
	return CaptureStats{
		Captures:    captures,
		Failures:    s.failures.Load(),
		AvgCapture:  avg,
		LastCapture: snapshot.CapturedAt,
		Sequence:    snapshot.Sequence,
	}
}
