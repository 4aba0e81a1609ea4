package main

import (
	"context"
	"fmt"
	"log/slog"
	"math"
	"os"
	"time"

	"github.com/lithammer/shortuuid/v4"
	"github.com/spf13/cobra"

	"github.com/soocke/print-prep-go/app"
	"github.com/soocke/print-prep-go/config"
	"github.com/soocke/print-prep-go/debug"
	"github.com/soocke/print-prep-go/domain/crop"
)

const version = "0.4.0"

// Options holds the command-line flags.
type Options struct {
	ConfigPath string
	Debug      bool
	Backend    string
	Set        []string

	Headless  bool
	In        string
	Out       string
	Endpoint  string
	Container string
	Zoom      float64
	Origin    string
	Select    string
	Suggest   bool
}

var opts = &Options{}

var rootCmd = &cobra.Command{
	Use:          "print-prep",
	Short:        "Crop images and send them to the print preparation backend",
	SilenceUsage: true,
	RunE: func(cmd *cobra.Command, args []string) error {
		return run(cmd.Context(), opts)
	},
}

var versionCmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number",
	Run: func(cmd *cobra.Command, args []string) {
		fmt.Printf("print-prep v%s\n", version)
	},
}

func init() {
	rootCmd.AddCommand(versionCmd)
	pf := rootCmd.PersistentFlags()
	pf.StringVarP(&opts.ConfigPath, "config", "c", "", "config file (default $XDG_CONFIG_HOME/print-prep/config.json)")
	pf.BoolVarP(&opts.Debug, "debug", "d", false, "debug logging and runtime stats")
	pf.StringVar(&opts.Backend, "backend", "", "backend base URL")
	pf.StringArrayVar(&opts.Set, "set", nil, "override a config field, e.g. --set dpi=300 (repeatable)")

	f := rootCmd.Flags()
	f.BoolVar(&opts.Headless, "headless", false, "crop and submit once without a window")
	f.StringVarP(&opts.In, "in", "i", "", "input image or PDF (headless)")
	f.StringVarP(&opts.Out, "out", "o", "", "output file (headless)")
	f.StringVarP(&opts.Endpoint, "endpoint", "e", "", "backend endpoint, e.g. resize")
	f.StringVar(&opts.Container, "container", "", "preview container WxH (headless)")
	f.Float64Var(&opts.Zoom, "zoom", 1, "zoom factor (headless)")
	f.StringVar(&opts.Origin, "origin", "", "zoom origin X,Y in container pixels (headless)")
	f.StringVar(&opts.Select, "select", "", "selection X,Y,W,H in container pixels (headless)")
	f.BoolVar(&opts.Suggest, "suggest", false, "pick the crop automatically when no selection is given (headless)")
}

func run(ctx context.Context, o *Options) error {
	level := slog.LevelInfo
	if o.Debug {
		level = slog.LevelDebug
	}
	logger := NewLogger(level, os.Stderr).With("session", shortuuid.New())

	cfgPath, cfg, err := loadConfig(o, logger)
	if err != nil {
		return err
	}
	if cfg.Debug {
		debug.StartGoroutineLogger(ctx, 10*time.Second, logger)
		debug.StartMemLogger(ctx, 10*time.Second, logger)
	}

	if o.Headless {
		return runHeadless(ctx, cfg, o, logger)
	}
	c, err := app.BuildContainer(cfg, logger, cfgPath)
	if err != nil {
		return err
	}
	defer c.Close()
	app.NewApp("Print Prep", c).Start()
	return nil
}

// loadConfig reads the config file and applies flag overrides on top.
// A broken file is logged and replaced by defaults.
func loadConfig(o *Options, logger *slog.Logger) (string, *config.Config, error) {
	path := o.ConfigPath
	if path == "" {
		p, err := config.DefaultPath()
		if err != nil {
			logger.Warn("no config directory, using working directory", "error", err)
			p = "config.json"
		}
		path = p
	}
	cfg, err := config.Load(path)
	if err != nil {
		logger.Warn("config load failed, using defaults", "path", path, "error", err)
	}
	if err := cfg.Override(o.Set); err != nil {
		return "", nil, err
	}
	if o.Backend != "" {
		cfg.BackendURL = o.Backend
	}
	if o.Debug {
		cfg.Debug = true
	}
	_ = cfg.Validate()
	logger.Debug("config loaded", "path", path, "backend", cfg.BackendURL)
	return path, cfg, nil
}

func runHeadless(ctx context.Context, cfg *config.Config, o *Options, logger *slog.Logger) error {
	if o.In == "" {
		return fmt.Errorf("--in is required with --headless")
	}
	ho, err := headlessOptions(o)
	if err != nil {
		return err
	}
	be, err := app.NewBackend(cfg, logger)
	if err != nil {
		return err
	}
	res, err := app.RunHeadless(ctx, cfg, be, ho, logger)
	if err != nil {
		return err
	}
	if res.Text != "" {
		fmt.Println(res.Text)
	}
	if res.Path != "" {
		fmt.Println(res.Path)
	}
	return nil
}

// headlessOptions parses the geometry flags.
func headlessOptions(o *Options) (app.HeadlessOptions, error) {
	ho := app.HeadlessOptions{
		In:       o.In,
		Out:      o.Out,
		Endpoint: o.Endpoint,
		Zoom:     o.Zoom,
		Suggest:  o.Suggest,
	}
	if math.IsNaN(o.Zoom) || o.Zoom < crop.MinZoom || o.Zoom > crop.MaxZoom {
		return ho, fmt.Errorf("--zoom %g: want a value in [%g, %g]", o.Zoom, crop.MinZoom, crop.MaxZoom)
	}
	if o.Container != "" {
		s, err := app.ParseSize(o.Container)
		if err != nil {
			return ho, fmt.Errorf("--container: %w", err)
		}
		ho.Container = s
	}
	if o.Origin != "" {
		p, err := app.ParsePoint(o.Origin)
		if err != nil {
			return ho, fmt.Errorf("--origin: %w", err)
		}
		ho.Origin = &p
	}
	if o.Select != "" {
		r, err := app.ParseRect(o.Select)
		if err != nil {
			return ho, fmt.Errorf("--select: %w", err)
		}
		ho.Selection = &r
	}
	return ho, nil
}
