package view

import (
	"fmt"
	"log/slog"
	"strconv"
	"strings"

	"github.com/soocke/print-prep-go/config"

	//lint:ignore ST1001 Dot import is intentional for concise Tk widget DSL builders.
	. "modernc.org/tk9.0"
)

// ConfigPanel encapsulates the configuration form widgets and apply logic.
// It owns its widgets and writes back into *config.Config on ApplyChanges.
type ConfigPanel interface {
	Build(parent *FrameWidget, startRow int) (endRow int) // constructs widgets starting at startRow, returns next free row
	SetEditable(enabled bool)
	ApplyChanges() // parses widget text into underlying config and persists
}

type configPanel struct {
	cfg      *config.Config
	cfgPath  string
	logger   *slog.Logger
	onApply  func(*config.Config)
	applyBtn *ButtonWidget
	widgets  map[string]*TextWidget // keyed by config field id
}

// NewConfigPanel creates the view bound to cfg. onApply runs after a valid
// edit was stored so dependents (backend client, encoding) can be rebuilt.
func NewConfigPanel(cfg *config.Config, cfgPath string, logger *slog.Logger, onApply func(*config.Config)) ConfigPanel {
	return &configPanel{cfg: cfg, cfgPath: cfgPath, logger: logger, onApply: onApply, widgets: make(map[string]*TextWidget)}
}

func (v *configPanel) Build(parent *FrameWidget, startRow int) (row int) {
	c := v.cfg
	row = startRow
	makeRow := func(id, label, value string) {
		lbl := Label(Txt(label), Anchor("w"))
		Grid(lbl, In(parent), Row(row), Column(0), Sticky("w"), Padx("0.4m"), Pady("0.15m"))
		w := Text(Height(1), Width(22))
		Grid(w, In(parent), Row(row), Column(1), Sticky("we"), Padx("0.4m"), Pady("0.15m"))
		w.Delete("1.0", END)
		w.Insert("1.0", value)
		v.widgets[id] = w
		row++
	}
	makeRow("backendURL", "Backend URL", c.BackendURL)
	makeRow("timeout", "Request Timeout (s)", fmt.Sprintf("%d", c.RequestTimeoutSeconds))
	makeRow("retries", "Retries (0-5)", fmt.Sprintf("%d", c.RequestRetries))
	makeRow("widthMM", "Print Width (mm)", formatFloat(c.PrintWidthMM))
	makeRow("heightMM", "Print Height (mm)", formatFloat(c.PrintHeightMM))
	makeRow("dpi", "DPI", formatFloat(c.DPI))
	makeRow("bleedMM", "Bleed (mm)", formatFloat(c.BleedMM))
	makeRow("spotColor", "Spot Color", c.SpotColor)
	makeRow("useCase", "Analysis Use Case", c.UseCase)
	makeRow("pdfPage", "PDF Page (0-based)", fmt.Sprintf("%d", c.PDFPage))
	makeRow("zoomStep", "Zoom Step (1-2)", formatFloat(c.ZoomStep))
	makeRow("outputFormat", "Crop Format (png/jpeg)", c.OutputFormat)
	makeRow("jpegQuality", "JPEG Quality", fmt.Sprintf("%d", c.JPEGQuality))
	makeRow("outputDir", "Output Dir", c.OutputDir)
	v.applyBtn = Button(Txt("Apply Changes"), Command(func() { v.ApplyChanges() }))
	Grid(v.applyBtn, In(parent), Row(row), Column(0), Columnspan(2), Sticky("we"), Padx("0.4m"), Pady("0.3m"))
	row++
	return row
}

func (v *configPanel) SetEditable(enabled bool) {
	state := "disabled"
	if enabled {
		state = "normal"
	}
	for _, w := range v.widgets {
		if w != nil {
			w.Configure(State(state))
		}
	}
	if v.applyBtn != nil {
		v.applyBtn.Configure(State(state))
	}
}

func (v *configPanel) text(id string) (string, bool) {
	w := v.widgets[id]
	if w == nil {
		return "", false
	}
	return strings.TrimSpace(strings.Join(w.Get("1.0", END), "")), true
}

func (v *configPanel) ApplyChanges() {
	if v.cfg == nil {
		return
	}
	cfg := *v.cfg // copy
	assignFloat := func(id string, dst *float64) {
		if s, ok := v.text(id); ok {
			if f, ok := parseFloatField(s); ok {
				*dst = f
			}
		}
	}
	assignInt := func(id string, dst *int) {
		if s, ok := v.text(id); ok {
			if i, ok := parseIntField(s); ok {
				*dst = i
			}
		}
	}
	assignString := func(id string, dst *string) {
		if s, ok := v.text(id); ok && s != "" {
			*dst = s
		}
	}
	assignString("backendURL", &cfg.BackendURL)
	assignInt("timeout", &cfg.RequestTimeoutSeconds)
	assignInt("retries", &cfg.RequestRetries)
	assignFloat("widthMM", &cfg.PrintWidthMM)
	assignFloat("heightMM", &cfg.PrintHeightMM)
	assignFloat("dpi", &cfg.DPI)
	assignFloat("bleedMM", &cfg.BleedMM)
	assignString("spotColor", &cfg.SpotColor)
	assignString("useCase", &cfg.UseCase)
	assignInt("pdfPage", &cfg.PDFPage)
	assignFloat("zoomStep", &cfg.ZoomStep)
	assignString("outputFormat", &cfg.OutputFormat)
	assignInt("jpegQuality", &cfg.JPEGQuality)
	assignString("outputDir", &cfg.OutputDir)
	if err := cfg.Validate(); err != nil {
		if v.logger != nil {
			v.logger.Warn("config rejected", "error", err)
		}
		return
	}
	*v.cfg = cfg
	if v.onApply != nil {
		v.onApply(v.cfg)
	}
	if err := v.cfg.Save(v.cfgPath); err != nil {
		if v.logger != nil {
			v.logger.Error("config save failed", "error", err)
		}
	} else {
		if v.logger != nil {
			v.logger.Info("config saved", "path", v.cfgPath)
		}
	}
}

func formatFloat(f float64) string { return strconv.FormatFloat(f, 'f', -1, 64) }

// parsing helpers (unexported)
func parseFloatField(s string) (float64, bool) {
	f, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil {
		return 0, false
	}
	return f, true
}
func parseIntField(s string) (int, bool) {
	i, err := strconv.Atoi(strings.TrimSpace(s))
	if err != nil {
		return 0, false
	}
	return i, true
}
