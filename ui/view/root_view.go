package view

import (
	"image"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/print-prep-go/config"
	"github.com/soocke/print-prep-go/domain/backend"
	"github.com/soocke/print-prep-go/ui/model"
	"github.com/soocke/print-prep-go/ui/theme"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// Handlers are the callbacks invoked on user actions. Nil entries are
// skipped. Pointer coordinates are relative to the preview label.
type Handlers struct {
	Open        func(path string)
	GrabScreen  func()
	GrabRegion  func()
	Submit      func()
	Suggest     func()
	Health      func()
	Clear       func()
	ResetZoom   func()
	Close       func()
	Exit        func()
	ModeChanged func(name string)
	Press       func(x, y float64)
	Motion      func(x, y float64)
	Release     func(x, y float64)
	Wheel       func(x, y float64, steps int)
}

// RootView composes the top-level application layout and wires UI callbacks.
// It owns high-level subviews but exposes minimal exported fields for presenters.
type RootView struct {
	cfg     *config.Config
	cfgPath string
	logger  *slog.Logger
	onApply func(*config.Config)

	// Subviews
	Stats       RequestStats
	ConfigPanel ConfigPanel
	Preview     CropPreview

	// Widgets
	StateLabel   *TLabelWidget
	ZoomLabel    *TLabelWidget
	CropLabel    *TLabelWidget
	MessageLabel *TLabelWidget
	ResultText   *TLabelWidget
	PathEntry    *TextWidget
	ModeSelect   *TComboboxWidget
	submitBtn    *TButtonWidget

	// last pointer position over the preview, used by keyboard zoom
	pointerX, pointerY float64
}

// UI abstracts the subset of view operations needed by presenters, enabling decoupling
// from the concrete RootView implementation.
type UI interface {
	ShowPreview(img image.Image)
	SetZoomLabel(string)
	SetCropLabel(string)
	SetMessage(string)
	ShowResult(text string, img image.Image)
	SetBusy(bool)
	SetStateLabel(text string)
	SetStats(model.Stats)
	Withdraw()
	Restore()
}

// NewRootView creates the view. onApply is forwarded to the config panel.
func NewRootView(cfg *config.Config, cfgPath string, logger *slog.Logger, onApply func(*config.Config)) *RootView {
	return &RootView{cfg: cfg, cfgPath: cfgPath, logger: logger, onApply: onApply}
}

// Build constructs the layout.
func (rv *RootView) Build(h Handlers) {
	if rv == nil {
		return
	}
	// Row 0: state, request stats, message
	rv.StateLabel = TLabel(Txt("State: empty"), Style(theme.StyleStateLabel))
	Grid(rv.StateLabel, Row(0), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	statsFrame := Frame()
	Grid(statsFrame, Row(0), Column(1), Columnspan(2), Sticky("w"), Padx("0.3m"), Pady("0.3m"))
	rv.Stats = NewRequestStats(statsFrame, 0, 0)
	rv.MessageLabel = TLabel(Txt("Open an image or grab the screen"), Anchor("w"), Style(theme.StyleMutedLabel))
	Grid(rv.MessageLabel, Row(0), Column(3), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))

	// Row 1: path entry and source buttons
	rv.PathEntry = Text(Height(1), Width(60))
	Grid(rv.PathEntry, Row(1), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	srcFrame := Frame()
	Grid(srcFrame, Row(1), Column(2), Columnspan(2), Sticky("w"), Padx("0.3m"), Pady("0.3m"))
	openBtn := TButton(Txt("Open"), Style(theme.StylePrimaryButton), Command(func() {
		if h.Open != nil {
			h.Open(rv.Path())
		}
	}))
	Grid(openBtn, In(srcFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"))
	Grid(Button(Txt("Grab Screen"), Command(call(h.GrabScreen))), In(srcFrame), Row(0), Column(1), Sticky("we"), Padx("0.2m"))
	Grid(Button(Txt("Grab Region"), Command(call(h.GrabRegion))), In(srcFrame), Row(0), Column(2), Sticky("we"), Padx("0.2m"))
	Grid(Button(Txt("Close Image"), Command(call(h.Close))), In(srcFrame), Row(0), Column(3), Sticky("we"), Padx("0.2m"))

	// Row 2: endpoint, view labels and actions
	names := endpointNames()
	rv.ModeSelect = TCombobox(Values(names), Width(22))
	Grid(rv.ModeSelect, Row(2), Column(0), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	rv.ModeSelect.Current(modeIndex(names, rv.defaultMode()))
	Bind(rv.ModeSelect, "<<ComboboxSelected>>", Command(func() {
		if rv.ModeSelect == nil || h.ModeChanged == nil {
			return
		}
		idx, err := strconv.Atoi(rv.ModeSelect.Current(nil))
		if err != nil || idx < 0 || idx >= len(names) {
			if rv.logger != nil {
				rv.logger.Error("endpoint selection parse error", "error", err)
			}
			return
		}
		h.ModeChanged(names[idx])
	}))
	rv.ZoomLabel = TLabel(Txt("Zoom -"), Width(10), Style(theme.StyleAccentLabel))
	Grid(rv.ZoomLabel, Row(2), Column(1), Sticky("w"), Padx("0.4m"))
	rv.CropLabel = TLabel(Txt("Crop: -"), Width(30), Anchor("w"), Style(theme.StyleAccentLabel))
	Grid(rv.CropLabel, Row(2), Column(2), Sticky("w"), Padx("0.4m"))
	actFrame := Frame()
	Grid(actFrame, Row(2), Column(3), Columnspan(2), Sticky("e"), Padx("0.3m"), Pady("0.3m"))
	rv.submitBtn = TButton(Txt("Submit"), Style(theme.StylePrimaryButton), Command(call(h.Submit)))
	Grid(rv.submitBtn, In(actFrame), Row(0), Column(0), Sticky("we"), Padx("0.2m"))
	Grid(Button(Txt("Suggest Crop"), Command(call(h.Suggest))), In(actFrame), Row(0), Column(1), Sticky("we"), Padx("0.2m"))
	Grid(Button(Txt("Clear"), Command(call(h.Clear))), In(actFrame), Row(0), Column(2), Sticky("we"), Padx("0.2m"))
	Grid(Button(Txt("Reset Zoom"), Command(call(h.ResetZoom))), In(actFrame), Row(0), Column(3), Sticky("we"), Padx("0.2m"))
	Grid(Button(Txt("Health"), Command(call(h.Health))), In(actFrame), Row(0), Column(4), Sticky("we"), Padx("0.2m"))
	Grid(Button(Txt("Theme"), Command(rv.toggleTheme)), In(actFrame), Row(0), Column(5), Sticky("we"), Padx("0.2m"))
	Grid(TButton(Txt("Exit"), Style(theme.StyleDangerButton), Command(call(h.Exit))), In(actFrame), Row(0), Column(6), Sticky("we"), Padx("0.2m"))

	// Row 3: preview and result image; row 4: result text
	w, ht := 800, 600
	if rv.cfg != nil {
		w, ht = rv.cfg.PreviewW, rv.cfg.PreviewH
	}
	rv.Preview = NewCropPreview(3, w, ht, rv.logger)
	rv.bindPointer(rv.Preview.Label(), h)
	rv.ResultText = TLabel(Txt(""), Anchor("nw"), Justify("left"), Wraplength(w/3))
	Grid(rv.ResultText, Row(4), Column(4), Sticky("nwe"), Padx("0.4m"), Pady("0.3m"))

	// Config panel below the result column
	cfgFrame := Frame()
	Grid(cfgFrame, Row(5), Column(0), Columnspan(5), Sticky("w"), Padx("0.4m"), Pady("0.3m"))
	rv.ConfigPanel = NewConfigPanel(rv.cfg, rv.cfgPath, rv.logger, rv.onApply)
	rv.ConfigPanel.Build(cfgFrame, 0)
}

// bindPointer routes mouse and zoom keys on the preview to the handlers.
func (rv *RootView) bindPointer(lbl *LabelWidget, h Handlers) {
	if lbl == nil {
		return
	}
	Bind(lbl, "<ButtonPress-1>", Command(func(e *Event) {
		rv.track(e)
		if h.Press != nil {
			h.Press(rv.pointerX, rv.pointerY)
		}
	}))
	Bind(lbl, "<B1-Motion>", Command(func(e *Event) {
		rv.track(e)
		if h.Motion != nil {
			h.Motion(rv.pointerX, rv.pointerY)
		}
	}))
	Bind(lbl, "<ButtonRelease-1>", Command(func(e *Event) {
		rv.track(e)
		if h.Release != nil {
			h.Release(rv.pointerX, rv.pointerY)
		}
	}))
	Bind(lbl, "<Motion>", Command(func(e *Event) { rv.track(e) }))
	wheel := func(steps int) func(*Event) {
		return func(e *Event) {
			rv.track(e)
			if h.Wheel != nil {
				h.Wheel(rv.pointerX, rv.pointerY, steps)
			}
		}
	}
	Bind(lbl, "<Button-4>", Command(wheel(1)))
	Bind(lbl, "<Button-5>", Command(wheel(-1)))
	key := func(steps int) func() {
		return func() {
			if h.Wheel != nil {
				h.Wheel(rv.pointerX, rv.pointerY, steps)
			}
		}
	}
	// Control modifier keeps typing in the entries from zooming.
	Bind(App, "<Control-plus>", Command(key(1)))
	Bind(App, "<Control-equal>", Command(key(1)))
	Bind(App, "<Control-minus>", Command(key(-1)))
	Bind(App, "<Control-Key-0>", Command(call(h.ResetZoom)))
}

func (rv *RootView) track(e *Event) {
	if e == nil {
		return
	}
	p := rv.Preview.Point(e.X, e.Y)
	rv.pointerX, rv.pointerY = p.X, p.Y
}

func (rv *RootView) toggleTheme() {
	dark := theme.ToggleDark()
	if rv.cfg == nil {
		return
	}
	rv.cfg.DarkMode = dark
	if err := rv.cfg.Save(rv.cfgPath); err != nil && rv.logger != nil {
		rv.logger.Error("config save failed", "error", err)
	}
}

func (rv *RootView) defaultMode() string {
	if rv.cfg == nil {
		return string(backend.EndpointProcessForPrint)
	}
	return rv.cfg.DefaultEndpoint
}

// Path returns the trimmed content of the path entry.
func (rv *RootView) Path() string {
	if rv == nil || rv.PathEntry == nil {
		return ""
	}
	return strings.TrimSpace(strings.Join(rv.PathEntry.Get("1.0", END), ""))
}

// SetPath replaces the content of the path entry.
func (rv *RootView) SetPath(p string) {
	if rv == nil || rv.PathEntry == nil {
		return
	}
	rv.PathEntry.Delete("1.0", END)
	rv.PathEntry.Insert("1.0", p)
}

// SetStateLabel updates the state label text.
func (rv *RootView) SetStateLabel(text string) {
	if rv != nil && rv.StateLabel != nil {
		rv.StateLabel.Configure(Txt(text))
	}
}

// ShowPreview replaces the rendered crop view.
func (rv *RootView) ShowPreview(img image.Image) {
	if rv != nil && rv.Preview != nil {
		rv.Preview.UpdatePreview(img)
	}
}

func (rv *RootView) SetZoomLabel(s string) {
	if rv != nil && rv.ZoomLabel != nil {
		rv.ZoomLabel.Configure(Txt(s))
	}
}

func (rv *RootView) SetCropLabel(s string) {
	if rv != nil && rv.CropLabel != nil {
		rv.CropLabel.Configure(Txt(s))
	}
}

func (rv *RootView) SetMessage(s string) {
	if rv != nil && rv.MessageLabel != nil {
		rv.MessageLabel.Configure(Txt(s))
	}
}

// ShowResult shows the text and image (either may be empty) of the last
// backend response.
func (rv *RootView) ShowResult(text string, img image.Image) {
	if rv == nil {
		return
	}
	if rv.ResultText != nil {
		rv.ResultText.Configure(Txt(text))
	}
	if rv.Preview != nil {
		rv.Preview.UpdateResult(img)
	}
}

// SetBusy disables submission and config edits while a request runs.
func (rv *RootView) SetBusy(busy bool) {
	if rv == nil {
		return
	}
	state := "normal"
	if busy {
		state = "disabled"
	}
	if rv.submitBtn != nil {
		rv.submitBtn.Configure(State(state))
	}
	if rv.ConfigPanel != nil {
		rv.ConfigPanel.SetEditable(!busy)
	}
}

// SetStats updates the request counters.
func (rv *RootView) SetStats(s model.Stats) {
	if rv != nil && rv.Stats != nil {
		rv.Stats.Set(s)
	}
}

// Withdraw hides the main window for a screen grab.
func (rv *RootView) Withdraw() { WmWithdraw(App) }

// Restore shows the main window again after a grab.
func (rv *RootView) Restore() { WmDeiconify(App) }

func call(f func()) func() {
	return func() {
		if f != nil {
			f()
		}
	}
}

func endpointNames() []string {
	names := make([]string, 0, len(backend.UploadEndpoints))
	for _, e := range backend.UploadEndpoints {
		names = append(names, string(e))
	}
	return names
}

func modeIndex(names []string, mode string) int {
	for i, n := range names {
		if n == mode {
			return i
		}
	}
	return 0
}
