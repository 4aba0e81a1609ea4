package theme

// Theming for the print-prep window. Two palettes (light, dark) drive the
// Tk styles and the overlay colors painted into the crop preview.

import (
	"image/color"

	"github.com/soocke/print-prep-go/ui/images"

	tk "modernc.org/tk9.0"
)

// Palette holds the resolved colors of one mode.
type Palette struct {
	AppBg     string
	Surface   string
	Border    string
	Primary   string
	Danger    string
	Accent    string
	Text      string
	TextMuted string

	// Preview overlay.
	Canvas    color.RGBA
	Selection color.RGBA
	Staged    color.RGBA
}

var (
	lightPalette = Palette{
		AppBg:     "#f7f9fb",
		Surface:   "#ffffff",
		Border:    "#d0d7de",
		Primary:   "#2563eb",
		Danger:    "#dc2626",
		Accent:    "#10b981",
		Text:      "#1e293b",
		TextMuted: "#64748b",
		Canvas:    color.RGBA{R: 0xe2, G: 0xe8, B: 0xf0, A: 0xff},
		Selection: color.RGBA{R: 0xdc, G: 0x26, B: 0x26, A: 0xff},
		Staged:    color.RGBA{R: 0x05, G: 0x96, B: 0x69, A: 0xff},
	}
	darkPalette = Palette{
		AppBg:     "#0f172a",
		Surface:   "#1e293b",
		Border:    "#334155",
		Primary:   "#3b82f6",
		Danger:    "#ef4444",
		Accent:    "#10b981",
		Text:      "#f1f5f9",
		TextMuted: "#94a3b8",
		Canvas:    color.RGBA{R: 0x20, G: 0x20, B: 0x20, A: 0xff},
		Selection: color.RGBA{R: 0xff, G: 0x40, B: 0x40, A: 0xff},
		Staged:    color.RGBA{R: 0x40, G: 0xc0, B: 0x40, A: 0xff},
	}
)

// style names used with Style("primary.TButton") etc.
const (
	StylePrimaryButton = "primary.TButton"
	StyleDangerButton  = "danger.TButton"
	StyleAccentLabel   = "accent.TLabel"
	StyleStateLabel    = "state.TLabel"
	StyleMutedLabel    = "muted.TLabel"
)

var darkMode bool

// Current returns the palette of the active mode.
func Current() Palette { return PaletteFor(darkMode) }

// PaletteFor returns the light or dark palette.
func PaletteFor(dark bool) Palette {
	if dark {
		return darkPalette
	}
	return lightPalette
}

// InitStyles (re)applies styles for the current mode.
func InitStyles() { applyStyles(Current()) }

// SetDark switches mode and reapplies styles. Returns the new mode.
func SetDark(on bool) bool {
	darkMode = on
	applyStyles(Current())
	return darkMode
}

// ToggleDark flips the mode. Returns the new mode.
func ToggleDark() bool { return SetDark(!darkMode) }

// IsDark reports the current mode.
func IsDark() bool { return darkMode }

// applyPreview copies the overlay colors into the preview renderer.
// Previews rendered afterwards pick them up.
func applyPreview(p Palette) {
	images.Background = p.Canvas
	images.SelectionColor = p.Selection
	images.StagedColor = p.Staged
}

func applyStyles(p Palette) {
	applyPreview(p)
	_ = tk.ActivateTheme("azure light") // baseline metrics
	tk.App.Configure(tk.Background(p.AppBg))

	tk.StyleConfigure(StylePrimaryButton,
		tk.Background(p.Primary),
		tk.Foreground("white"),
		tk.Padding("4p 3p"),
		tk.Borderwidth(1),
		tk.Relief("ridge"),
	)
	tk.StyleConfigure(StyleDangerButton,
		tk.Background(p.Danger),
		tk.Foreground("white"),
		tk.Padding("4p 3p"),
		tk.Borderwidth(1),
		tk.Relief("ridge"),
	)
	tk.StyleConfigure(StyleAccentLabel,
		tk.Foreground(p.Primary),
		tk.Background(p.Surface),
		tk.Padding("2p 1p"),
	)
	tk.StyleConfigure(StyleStateLabel,
		tk.Foreground("white"),
		tk.Background(p.Accent),
		tk.Padding("4p 2p"),
		tk.Borderwidth(1),
		tk.Relief("groove"),
	)
	tk.StyleConfigure(StyleMutedLabel,
		tk.Foreground(p.TextMuted),
		tk.Background(p.Surface),
		tk.Padding("2p 1p"),
	)
}
