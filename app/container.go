package app

import (
	"log/slog"
	"time"

	"github.com/soocke/print-prep-go/config"
	"github.com/soocke/print-prep-go/domain/backend"
	"github.com/soocke/print-prep-go/domain/capture"
	"github.com/soocke/print-prep-go/domain/printplan"
	"github.com/soocke/print-prep-go/domain/workflow"
	"github.com/soocke/print-prep-go/ui/images"
	"github.com/soocke/print-prep-go/ui/model"
	"github.com/soocke/print-prep-go/ui/presenter"
	"github.com/soocke/print-prep-go/ui/view"
)

// Container assembles models, services, presenters and the root view.
type AppContainer struct {
	Config     *config.Config
	ConfigPath string
	Logger     *slog.Logger
	CropModel  *model.CropViewModel
	Busy       *model.BusyModel
	Stats      *model.StatsModel
	Backend    *backend.Client
	CaptureSvc capture.Source
	Workflow   *workflow.Machine
	RootView   *view.RootView
	UI         view.UI

	// Presenters
	CropPresenter    *presenter.CropPresenter
	CapturePresenter *presenter.CapturePresenter
	FSMPresenter     *presenter.FSMPresenter
	StatsPresenter   *presenter.StatsPresenter
	Loop             *presenter.Loop
}

// BuildContainer constructs all components. No Tk widget is created here;
// the root view builds its widgets when the app starts.
func BuildContainer(cfg *config.Config, logger *slog.Logger, cfgPath string) (*AppContainer, error) {
	c := &AppContainer{Config: cfg, ConfigPath: cfgPath, Logger: logger}
	client, err := NewBackend(cfg, logger)
	if err != nil {
		return nil, err
	}
	enc, err := images.ParseEncoding(cfg.OutputFormat, cfg.JPEGQuality)
	if err != nil {
		return nil, err
	}
	c.Backend = client
	c.CropModel = model.NewCropViewModel(cfg.ZoomStep, cfg.MinSelectionPx)
	if ep, ok := backend.ParseEndpoint(cfg.DefaultEndpoint); ok && ep != backend.EndpointHealth {
		c.CropModel.SetMode(ep)
	}
	c.Busy = &model.BusyModel{}
	c.Stats = model.NewStatsModel()
	c.CaptureSvc = capture.NewService(logger)
	c.Workflow = workflow.New(logger, time.Duration(cfg.RequestTimeoutSeconds*(cfg.RequestRetries+1))*time.Second)
	// View
	c.RootView = view.NewRootView(cfg, cfgPath, logger, c.applyConfig)
	c.UI = c.RootView
	// Presenters
	c.CropPresenter = presenter.NewCropPresenter(c.CropModel, c.Busy, c.Stats, client, c.Workflow, c.UI,
		presenter.DirWriter{Dir: cfg.OutputDir}, func() backend.Params { return ParamsFromConfig(c.Config) },
		enc, cfg.CacheEntries, logger)
	c.CapturePresenter = presenter.NewCapturePresenter(c.CaptureSvc, c.CropPresenter, c.UI, logger)
	c.FSMPresenter = presenter.NewFSMPresenter(c.Workflow, c.UI)
	c.StatsPresenter = presenter.NewStatsPresenter(c.Stats, c.UI)
	c.Workflow.AddListener(c.FSMPresenter.OnTransition)
	// Scheduler is attached by the Tk app.
	c.Loop = presenter.NewLoop(c.CropPresenter, c.FSMPresenter, c.StatsPresenter, c.Workflow, nil)
	return c, nil
}

// NewBackend builds a backend client from cfg.
func NewBackend(cfg *config.Config, logger *slog.Logger) (*backend.Client, error) {
	return backend.New(backend.Options{
		BaseURL: cfg.BackendURL,
		Timeout: time.Duration(cfg.RequestTimeoutSeconds) * time.Second,
		Retries: cfg.RequestRetries,
		Logger:  logger,
	})
}

// ParamsFromConfig maps the print settings of cfg onto request parameters.
func ParamsFromConfig(cfg *config.Config) backend.Params {
	if cfg == nil {
		return backend.Params{}
	}
	return backend.Params{
		Target: printplan.Target{
			WidthMM:  cfg.PrintWidthMM,
			HeightMM: cfg.PrintHeightMM,
			DPI:      cfg.DPI,
			BleedMM:  cfg.BleedMM,
		},
		SpotColor: cfg.SpotColor,
		UseCase:   cfg.UseCase,
		Page:      cfg.PDFPage,
	}
}

// applyConfig rebuilds the components that captured config values at
// construction time. It runs on the UI thread after the config panel stored
// a valid edit.
func (c *AppContainer) applyConfig(cfg *config.Config) {
	if c == nil || cfg == nil {
		return
	}
	if client, err := NewBackend(cfg, c.Logger); err != nil {
		c.Logger.Error("backend client rebuild failed", "error", err)
	} else {
		c.Backend = client
		c.CropPresenter.Backend = client
	}
	if enc, err := images.ParseEncoding(cfg.OutputFormat, cfg.JPEGQuality); err != nil {
		c.Logger.Error("encoding rejected", "error", err)
	} else {
		c.CropPresenter.SetEncoding(enc)
	}
	c.CropPresenter.Writer = presenter.DirWriter{Dir: cfg.OutputDir}
	c.CropModel.SetZoomStep(cfg.ZoomStep)
}

// Close stops background work.
func (c *AppContainer) Close() {
	if c == nil {
		return
	}
	c.CropPresenter.Close()
	c.Workflow.Close()
}
