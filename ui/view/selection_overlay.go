package view

import (
	"fmt"
	"image"
	"log/slog"
	"regexp"
	"strconv"
	"strings"
	"sync/atomic"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders
	. "modernc.org/tk9.0"
)

// SelectionOverlay manages a see-through window the user moves and resizes
// over the screen area to grab.
type SelectionOverlay interface {
	OpenOrFocus()
	Clear()
	ActiveRect() *image.Rectangle
}

type selectionOverlay struct {
	logger    *slog.Logger
	screen    func() (image.Rectangle, error)
	onConfirm func(image.Rectangle)
	selection atomic.Value // stores image.Rectangle
	win       *ToplevelWidget
}

// NewSelectionOverlay creates a new overlay manager. screen reports the
// monitor bounds used to place the window; onConfirm receives the chosen
// region.
func NewSelectionOverlay(screen func() (image.Rectangle, error), onConfirm func(image.Rectangle), logger *slog.Logger) SelectionOverlay {
	return &selectionOverlay{logger: logger, screen: screen, onConfirm: onConfirm}
}

func (v *selectionOverlay) OpenOrFocus() {
	if v.win != nil {
		WmGeometry(v.win.Window)
		return
	}
	win := App.Toplevel(Borderwidth(2), Background("#008080"))
	win.WmTitle("Grab Region")
	v.win = win
	WmGeometry(win.Window, initialGeometry(v.screenRect(), v.ActiveRect()))
	WmAttributes(win.Window, "-topmost", 1)
	WmAttributes(win.Window, "-alpha", 0.35)
	GridRowConfigure(win.Window, 0, Weight(1))
	GridColumnConfigure(win.Window, 0, Weight(0))
	GridColumnConfigure(win.Window, 1, Weight(1))
	GridColumnConfigure(win.Window, 2, Weight(0))
	left := win.Frame(Width(4), Background("#FFFFFF"))
	Grid(left, Row(0), Column(0), Sticky("ns"))
	center := win.Frame(Background("#008080"))
	Grid(center, Row(0), Column(1), Sticky("nsew"))
	right := win.Frame(Width(4), Background("#FFFFFF"))
	Grid(right, Row(0), Column(2), Sticky("ns"))
	controls := win.Frame()
	Grid(controls, Row(1), Column(0), Columnspan(3), Sticky("we"))
	confirm := win.Button(Txt("Grab [Enter]"), Command(v.confirm))
	Grid(confirm, In(controls), Row(0), Column(0), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	cancel := win.Button(Txt("Cancel [Esc]"), Command(v.cancel))
	Grid(cancel, In(controls), Row(0), Column(1), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	clear := win.Button(Txt("Forget Region"), Command(v.Clear))
	Grid(clear, In(controls), Row(0), Column(2), Sticky("we"), Padx("0.2m"), Pady("0.2m"))
	Bind(win, "<Return>", Command(v.confirm))
	Bind(win, "<Escape>", Command(v.cancel))
}

func (v *selectionOverlay) Clear() {
	v.selection.Store(image.Rectangle{})
}

func (v *selectionOverlay) confirm() {
	if v.win == nil {
		return
	}
	geom := WmGeometry(v.win.Window)
	rect, ok := parseGeometrySel(geom)
	v.destroy()
	if !ok {
		if v.logger != nil {
			v.logger.Warn("unparsable overlay geometry", "geometry", geom)
		}
		return
	}
	v.selection.Store(rect)
	if v.onConfirm != nil {
		v.onConfirm(rect)
	}
}

func (v *selectionOverlay) cancel() { v.destroy() }

func (v *selectionOverlay) destroy() {
	if v.win != nil {
		Destroy(v.win)
		v.win = nil
	}
}

func (v *selectionOverlay) ActiveRect() *image.Rectangle {
	rv := v.selection.Load()
	if rv == nil {
		return nil
	}
	r, ok := rv.(image.Rectangle)
	if !ok || r == (image.Rectangle{}) {
		return nil
	}
	return &r
}

func (v *selectionOverlay) screenRect() image.Rectangle {
	if v.screen != nil {
		if r, err := v.screen(); err == nil && !r.Empty() {
			return r
		} else if err != nil && v.logger != nil {
			v.logger.Warn("screen bounds unavailable", "error", err)
		}
	}
	return image.Rect(0, 0, 1920, 1080)
}

// initialGeometry reopens at the last region, or centers a window covering
// two thirds of the screen.
func initialGeometry(screen image.Rectangle, last *image.Rectangle) string {
	if last != nil && !last.Empty() {
		return formatGeometry(*last)
	}
	w, h := screen.Dx()*2/3, screen.Dy()*5/9
	if w < 1 {
		w = 1
	}
	if h < 1 {
		h = 1
	}
	x := screen.Min.X + (screen.Dx()-w)/2
	y := screen.Min.Y + (screen.Dy()-h)/2
	return formatGeometry(image.Rect(x, y, x+w, y+h))
}

func formatGeometry(r image.Rectangle) string {
	return fmt.Sprintf("%dx%d+%d+%d", r.Dx(), r.Dy(), r.Min.X, r.Min.Y)
}

// geomReSel matches window geometry strings in the format "WIDTHxHEIGHT+X+Y"
var geomReSel = regexp.MustCompile(`^(\d+)x(\d+)\+(-?\d+)\+(-?\d+)$`)

// parseGeometrySel parses a Tk geometry string and returns the corresponding rectangle.
func parseGeometrySel(g string) (image.Rectangle, bool) {
	g = strings.TrimSpace(g)
	m := geomReSel.FindStringSubmatch(g)
	if len(m) != 5 {
		return image.Rectangle{}, false
	}
	w, _ := strconv.Atoi(m[1])
	h, _ := strconv.Atoi(m[2])
	x, _ := strconv.Atoi(m[3])
	y, _ := strconv.Atoi(m[4])
	if w <= 0 || h <= 0 {
		return image.Rectangle{}, false
	}
	return image.Rect(x, y, x+w, y+h), true
}
