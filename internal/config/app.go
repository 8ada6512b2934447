// Package config loads the application's TOML file, environment overrides
// and the named simulation presets.
package config

import (
	"fmt"
	"os"

	"github.com/pelletier/go-toml/v2"
)

// App is the file-backed application configuration.
type App struct {
	Server  ServerConfig  `toml:"server"`
	Data    DataConfig    `toml:"data"`
	Logging LoggingConfig `toml:"logging"`
	Report  ReportConfig  `toml:"report"`
}

type ServerConfig struct {
	Addr string `toml:"addr"`
}

type DataConfig struct {
	// DatasetPath points at the JSON candle dataset to replay.
	DatasetPath string `toml:"dataset_path"`
	// StorePath is the sqlite file holding finished results. Empty keeps
	// results in memory only.
	StorePath string `toml:"store_path"`
	// PresetsPath is the YAML file of named simulation presets.
	PresetsPath string `toml:"presets_path"`
}

type LoggingConfig struct {
	Level string `toml:"level"`
	Env   string `toml:"env"`
}

type ReportConfig struct {
	OutputDir string `toml:"output_dir"`
}

// DefaultApp returns the configuration used when no file exists.
func DefaultApp() App {
	return App{
		Server:  ServerConfig{Addr: ":9991"},
		Data:    DataConfig{DatasetPath: "data/candles.json", PresetsPath: "presets.yaml"},
		Logging: LoggingConfig{Level: "info", Env: "development"},
		Report:  ReportConfig{OutputDir: "reports"},
	}
}

// LoadApp reads the TOML file at path, filling missing fields from the
// defaults. A missing file yields the defaults.
func LoadApp(path string) (App, error) {
	app := DefaultApp()
	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return app, nil
	}
	if err != nil {
		return app, fmt.Errorf("read config %s: %w", path, err)
	}
	if err := toml.Unmarshal(data, &app); err != nil {
		return app, fmt.Errorf("parse config %s: %w", path, err)
	}
	if app.Server.Addr == "" {
		app.Server.Addr = DefaultApp().Server.Addr
	}
	if app.Logging.Level == "" {
		app.Logging.Level = DefaultApp().Logging.Level
	}
	return app, nil
}

// SaveApp writes the configuration back as TOML.
func SaveApp(path string, app App) error {
	data, err := toml.Marshal(app)
	if err != nil {
		return fmt.Errorf("encode config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
