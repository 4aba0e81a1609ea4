package main

import (
	"log/slog"
	"path/filepath"
	"testing"
)

func TestLoadConfig_FlagsOverrideFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "config.json")
	o := &Options{
		ConfigPath: path,
		Backend:    "http://print.local:8000/",
		Set:        []string{"dpi=300", "pdf_page=2"},
		Debug:      true,
	}
	got, cfg, err := loadConfig(o, slog.New(slog.DiscardHandler))
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if got != path {
		t.Fatalf("path %q", got)
	}
	if cfg.DPI != 300 || cfg.PDFPage != 2 || !cfg.Debug || cfg.BackendURL != "http://print.local:8000" {
		t.Fatalf("unexpected config %+v", cfg)
	}
}

func TestLoadConfig_BadOverride(t *testing.T) {
	o := &Options{ConfigPath: filepath.Join(t.TempDir(), "c.json"), Set: []string{"bogus=1"}}
	if _, _, err := loadConfig(o, slog.New(slog.DiscardHandler)); err == nil {
		t.Fatalf("expected error for unknown key")
	}
}

func TestHeadlessOptions(t *testing.T) {
	o := &Options{In: "a.png", Container: "500x400", Origin: "10,20", Select: "1,2,30,40", Zoom: 2, Suggest: true}
	ho, err := headlessOptions(o)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if ho.Container.Width != 500 || ho.Container.Height != 400 || ho.Zoom != 2 || !ho.Suggest {
		t.Fatalf("unexpected options %+v", ho)
	}
	if ho.Origin == nil || ho.Origin.X != 10 || ho.Origin.Y != 20 {
		t.Fatalf("origin %+v", ho.Origin)
	}
	if ho.Selection == nil || ho.Selection.Width != 30 || ho.Selection.Height != 40 {
		t.Fatalf("selection %+v", ho.Selection)
	}
	for _, bad := range []*Options{{Zoom: 1, Container: "big"}, {Zoom: 1, Origin: "1"}, {Zoom: 1, Select: "1,2,3"}, {Zoom: 10}, {Zoom: -3}, {Zoom: 0}} {
		if _, err := headlessOptions(bad); err == nil {
			t.Fatalf("expected error for %+v", bad)
		}
	}
}
