package app

import (
	"fmt"
	"image"
	"time"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"

	"github.com/soocke/print-prep-go/domain/capture"
	"github.com/soocke/print-prep-go/ui/theme"
	"github.com/soocke/print-prep-go/ui/view"
)

const (
	tick = 100 * time.Millisecond
	// grabDelay gives the window manager time to hide the main window.
	grabDelay = 250 * time.Millisecond
)

type app struct {
	c       *AppContainer
	afterID string
	overlay view.SelectionOverlay
}

// NewApp prepares the Tk root window for the container.
func NewApp(title string, c *AppContainer) *app {
	a := &app{c: c}
	App.WmTitle(title)
	WmProtocol(App, "WM_DELETE_WINDOW", a.exitHandler)
	WmGeometry(App, fmt.Sprintf("%dx%d+100+100", c.Config.WindowW, c.Config.WindowH))
	return a
}

// Start builds the widgets, starts the update loop and blocks until the
// window is closed.
func (a *app) Start() {
	c := a.c
	theme.SetDark(c.Config.DarkMode)
	a.overlay = view.NewSelectionOverlay(capture.ScreenBounds, a.grabRegion, c.Logger)
	c.RootView.Build(view.Handlers{
		Open: func(path string) {
			_ = c.CropPresenter.Open(path)
		},
		GrabScreen:  func() { a.grab(nil) },
		GrabRegion:  a.overlay.OpenOrFocus,
		Submit:      func() { _ = c.CropPresenter.Submit() },
		Suggest:     func() { _ = c.CropPresenter.SuggestCrop() },
		Health:      c.CropPresenter.CheckHealth,
		Clear:       c.CropPresenter.ClearSelection,
		ResetZoom:   c.CropPresenter.ResetZoom,
		Close:       c.CropPresenter.Reset,
		Exit:        a.exitHandler,
		ModeChanged: func(name string) { _ = c.CropPresenter.SetMode(name) },
		Press:       c.CropPresenter.Press,
		Motion:      c.CropPresenter.Motion,
		Release:     c.CropPresenter.Release,
		Wheel:       c.CropPresenter.Wheel,
	})
	c.CropPresenter.SetContainer(float64(c.Config.PreviewW), float64(c.Config.PreviewH))
	c.CropPresenter.CheckHealth()

	c.Loop.Schedule = a.scheduleUpdate
	a.scheduleUpdate()

	App.Wait()
}

func (a *app) grabRegion(r image.Rectangle) { a.grab(&r) }

// grab hides the window and captures once it is gone.
func (a *app) grab(region *image.Rectangle) {
	a.c.RootView.Withdraw()
	TclAfter(grabDelay, func() {
		if err := a.c.CapturePresenter.Grab(region); err != nil {
			a.c.Logger.Error("grab failed", "error", err)
			a.c.RootView.SetMessage(err.Error())
		}
	})
}

func (a *app) exitHandler() {
	// Cancel scheduled after event if any.
	if a.afterID != "" {
		TclAfterCancel(a.afterID)
	}
	a.c.Close()
	Destroy(App)
}

func (a *app) scheduleUpdate() {
	// Schedule the next update using TclAfter to stay on Tk's event loop thread.
	a.afterID = TclAfter(tick, func() { a.c.Loop.Tick() })
}
