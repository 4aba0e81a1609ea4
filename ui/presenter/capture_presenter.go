package presenter

import (
	"fmt"
	"image"
	"log/slog"

	"github.com/soocke/print-prep-go/domain/capture"
	"github.com/soocke/print-prep-go/ui/images"
)

// ScreenSource narrows what the presenter needs from the capture layer.
type ScreenSource interface {
	Capture(region *image.Rectangle) (capture.FrameSnapshot, error)
}

// SourceOpener accepts a new working image.
type SourceOpener interface {
	OpenSource(*images.Source) error
}

// CaptureView hides the main window around a grab so it is not captured itself.
type CaptureView interface {
	Withdraw()
	Restore()
}

// CapturePresenter turns screen grabs into crop sources.
type CapturePresenter struct {
	source ScreenSource
	opener SourceOpener
	view   CaptureView
	logger *slog.Logger
}

func NewCapturePresenter(source ScreenSource, opener SourceOpener, view CaptureView, logger *slog.Logger) *CapturePresenter {
	return &CapturePresenter{source: source, opener: opener, view: view, logger: logger}
}

// Grab captures region (nil for the whole screen) and opens it for cropping.
func (c *CapturePresenter) Grab(region *image.Rectangle) error {
	if c == nil || c.source == nil || c.opener == nil {
		return nil
	}
	if c.view != nil {
		c.view.Withdraw()
	}
	snap, err := c.source.Capture(region)
	if c.view != nil {
		c.view.Restore()
	}
	if err != nil {
		return fmt.Errorf("grab screen: %w", err)
	}
	src, err := images.FromImage(fmt.Sprintf("screen-%03d.png", snap.Sequence), snap.Image)
	if err != nil {
		return fmt.Errorf("grab screen: %w", err)
	}
	if c.logger != nil {
		c.logger.Info("screen grabbed", "name", src.Name, "sequence", snap.Sequence)
	}
	return c.opener.OpenSource(src)
}
