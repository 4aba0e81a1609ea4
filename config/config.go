package config

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/adrg/xdg"
	"github.com/mitchellh/mapstructure"
)

const appDir = "print-prep"

// Config holds runtime configuration for the crop client and its backend.
// Fields may be loaded from a JSON file and overridden by command-line flags.
type Config struct {
	Debug    bool `json:"debug"`
	DarkMode bool `json:"dark_mode"`

	// Backend
	BackendURL            string `json:"backend_url"`
	RequestTimeoutSeconds int    `json:"request_timeout_seconds"`
	RequestRetries        int    `json:"request_retries"`
	DefaultEndpoint       string `json:"default_endpoint"`

	// Preview interaction
	ZoomStep       float64 `json:"zoom_step"`
	MinSelectionPx float64 `json:"min_selection_px"`
	PreviewW       int     `json:"preview_w"`
	PreviewH       int     `json:"preview_h"`
	WindowW        int     `json:"window_w"`
	WindowH        int     `json:"window_h"`

	// Staged crop encoding
	OutputFormat string `json:"output_format"`
	JPEGQuality  int    `json:"jpeg_quality"`
	OutputDir    string `json:"output_dir"`
	CacheEntries int    `json:"cache_entries"`

	// Print target
	PrintWidthMM  float64 `json:"print_width_mm"`
	PrintHeightMM float64 `json:"print_height_mm"`
	DPI           float64 `json:"dpi"`
	BleedMM       float64 `json:"bleed_mm"`
	SpotColor     string  `json:"spot_color"`
	UseCase       string  `json:"use_case"`
	PDFPage       int     `json:"pdf_page"`
}

// DefaultConfig returns a Config populated with standard defaults.
func DefaultConfig() *Config {
	return &Config{
		Debug:                 false,
		DarkMode:              true,
		BackendURL:            "http://localhost:8000",
		RequestTimeoutSeconds: 120,
		RequestRetries:        2,
		DefaultEndpoint:       "process_for_print",
		ZoomStep:              1.1,
		MinSelectionPx:        8,
		PreviewW:              800,
		PreviewH:              600,
		WindowW:               1180,
		WindowH:               760,
		OutputFormat:          "png",
		JPEGQuality:           95,
		OutputDir:             ".",
		CacheEntries:          16,
		PrintWidthMM:          300,
		PrintHeightMM:         360,
		DPI:                   150,
		BleedMM:               3,
		SpotColor:             "CutContour",
		UseCase:               "general print",
		PDFPage:               0,
	}
}

// Validate clamps/normalizes values to safe ranges.
func (c *Config) Validate() error {
	d := DefaultConfig()
	c.BackendURL = strings.TrimRight(strings.TrimSpace(c.BackendURL), "/")
	if c.BackendURL == "" {
		c.BackendURL = d.BackendURL
	}
	if c.RequestTimeoutSeconds <= 0 {
		c.RequestTimeoutSeconds = d.RequestTimeoutSeconds
	}
	if c.RequestRetries < 0 {
		c.RequestRetries = 0
	}
	if c.RequestRetries > 5 {
		c.RequestRetries = 5
	}
	if c.DefaultEndpoint == "" {
		c.DefaultEndpoint = d.DefaultEndpoint
	}
	if c.ZoomStep <= 1 || c.ZoomStep > 2 {
		c.ZoomStep = d.ZoomStep
	}
	if c.MinSelectionPx <= 0 {
		c.MinSelectionPx = d.MinSelectionPx
	}
	if c.PreviewW < 100 {
		c.PreviewW = d.PreviewW
	}
	if c.PreviewH < 100 {
		c.PreviewH = d.PreviewH
	}
	if c.WindowW < c.PreviewW {
		c.WindowW = c.PreviewW
	}
	if c.WindowH < c.PreviewH {
		c.WindowH = c.PreviewH
	}
	switch strings.ToLower(c.OutputFormat) {
	case "png", "jpg", "jpeg":
		c.OutputFormat = strings.ToLower(c.OutputFormat)
	default:
		c.OutputFormat = d.OutputFormat
	}
	if c.JPEGQuality <= 0 || c.JPEGQuality > 100 {
		c.JPEGQuality = d.JPEGQuality
	}
	if c.OutputDir == "" {
		c.OutputDir = d.OutputDir
	}
	if c.CacheEntries <= 0 {
		c.CacheEntries = d.CacheEntries
	}
	if c.PrintWidthMM <= 0 {
		c.PrintWidthMM = d.PrintWidthMM
	}
	if c.PrintHeightMM <= 0 {
		c.PrintHeightMM = d.PrintHeightMM
	}
	if c.DPI <= 0 {
		c.DPI = d.DPI
	}
	if c.BleedMM < 0 {
		c.BleedMM = 0
	}
	if c.SpotColor == "" {
		c.SpotColor = d.SpotColor
	}
	if c.PDFPage < 0 {
		c.PDFPage = 0
	}
	return nil
}

// DefaultPath returns the config file location under the XDG config home,
// creating the parent directory if needed.
func DefaultPath() (string, error) {
	return xdg.ConfigFile(filepath.Join(appDir, "config.json"))
}

// Load attempts to read configuration from the given JSON file path. If the file does not
// exist it returns DefaultConfig(). On JSON error it returns defaults with the error.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()
	f, err := os.Open(path)
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return cfg, err
	}
	defer f.Close()
	dec := json.NewDecoder(f)
	if err := dec.Decode(cfg); err != nil {
		return DefaultConfig(), err
	}
	_ = cfg.Validate()
	return cfg, nil
}

// Save writes the configuration to the given path in JSON format.
func (c *Config) Save(path string) error {
	_ = c.Validate()
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return err
		}
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()
	enc := json.NewEncoder(f)
	enc.SetIndent("", "  ")
	return enc.Encode(c)
}

// Override applies key=value pairs onto c. Keys are the JSON field names;
// values are converted to the field type. Unknown keys are an error.
func (c *Config) Override(pairs []string) error {
	if len(pairs) == 0 {
		return nil
	}
	raw := make(map[string]any, len(pairs))
	for _, p := range pairs {
		k, v, ok := strings.Cut(p, "=")
		k = strings.TrimSpace(k)
		if !ok || k == "" {
			return fmt.Errorf("override %q: want key=value", p)
		}
		raw[k] = strings.TrimSpace(v)
	}
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		TagName:          "json",
		WeaklyTypedInput: true,
		ErrorUnused:      true,
		Result:           c,
	})
	if err != nil {
		return err
	}
	if err := dec.Decode(raw); err != nil {
		return fmt.Errorf("override: %w", err)
	}
	return c.Validate()
}
