package config

import (
	"os"
	"path/filepath"
	"testing"

	"tradeassist/internal/backtest"
)

func TestLoadAppMissingFileUsesDefaults(t *testing.T) {
	app, err := LoadApp(filepath.Join(t.TempDir(), "nope.toml"))
	if err != nil {
		t.Fatal(err)
	}
	if app.Server.Addr != ":9991" || app.Logging.Level != "info" {
		t.Errorf("defaults = %+v", app)
	}
}

func TestAppRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")
	want := DefaultApp()
	want.Server.Addr = ":8080"
	want.Data.StorePath = "results.db"
	if err := SaveApp(path, want); err != nil {
		t.Fatal(err)
	}
	got, err := LoadApp(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Server.Addr != ":8080" || got.Data.StorePath != "results.db" {
		t.Errorf("loaded = %+v", got)
	}
}

func TestLoadAppPartialFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "app.toml")
	if err := os.WriteFile(path, []byte("[data]\nstore_path = \"x.db\"\n"), 0o644); err != nil {
		t.Fatal(err)
	}
	got, err := LoadApp(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.Data.StorePath != "x.db" {
		t.Errorf("store path = %s", got.Data.StorePath)
	}
	if got.Server.Addr != ":9991" {
		t.Errorf("addr fell back to %s, want default", got.Server.Addr)
	}
}

func TestEnvApply(t *testing.T) {
	app := DefaultApp()
	env := Env{Addr: ":7777", LogLevel: "debug"}
	got := env.Apply(app)
	if got.Server.Addr != ":7777" || got.Logging.Level != "debug" {
		t.Errorf("applied = %+v", got)
	}
	if got.Data.DatasetPath != app.Data.DatasetPath {
		t.Error("unset env fields must not override the file")
	}
}

func TestPresetWriterRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "presets.yaml")
	w := NewPresetWriter(path)

	pf, err := w.Read()
	if err != nil {
		t.Fatal(err)
	}
	if len(pf.Presets) != 0 {
		t.Fatalf("fresh file presets = %d", len(pf.Presets))
	}

	cfg := backtest.Config{
		Symbol:              "AAA",
		Timeframe:           "5",
		TargetProfitPercent: 1.4,
		StopLossPercent:     0.7,
		AdditionalIndicators: map[string]bool{
			"cci": true,
		},
	}
	if err := w.Put("scalp", cfg); err != nil {
		t.Fatal(err)
	}

	got, err := w.Get("scalp")
	if err != nil {
		t.Fatal(err)
	}
	if got.Symbol != "AAA" || got.TargetProfitPercent != 1.4 || !got.AdditionalIndicators["cci"] {
		t.Errorf("loaded preset = %+v", got)
	}

	if _, err := w.Get("missing"); err == nil {
		t.Error("unknown preset must fail")
	}

	names, err := w.Names()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 1 || names[0] != "scalp" {
		t.Errorf("names = %v", names)
	}
}

func TestPresetWriterBacksUpOnRewrite(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "presets.yaml")
	w := NewPresetWriter(path)

	if err := w.Put("a", backtest.Config{Symbol: "AAA"}); err != nil {
		t.Fatal(err)
	}
	if err := w.Put("b", backtest.Config{Symbol: "BBB"}); err != nil {
		t.Fatal(err)
	}

	entries, err := os.ReadDir(filepath.Join(dir, "backups"))
	if err != nil {
		t.Fatalf("backup dir: %v", err)
	}
	if len(entries) == 0 {
		t.Error("second write must leave a backup of the first")
	}

	// Both presets survive the rewrite.
	names, err := w.Names()
	if err != nil {
		t.Fatal(err)
	}
	if len(names) != 2 {
		t.Errorf("names = %v", names)
	}
}
