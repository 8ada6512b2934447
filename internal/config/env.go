package config

import (
	"fmt"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Env carries process-level overrides read from the environment. Every field
// is optional; set values win over the TOML file.
type Env struct {
	Addr        string `envconfig:"TRADEASSIST_ADDR"`
	DatasetPath string `envconfig:"TRADEASSIST_DATASET"`
	StorePath   string `envconfig:"TRADEASSIST_STORE"`
	PresetsPath string `envconfig:"TRADEASSIST_PRESETS"`
	LogLevel    string `envconfig:"LOG_LEVEL"`
	AppEnv      string `envconfig:"APP_ENV"`
}

// LoadEnv reads a .env file when present, then the process environment.
func LoadEnv() (Env, error) {
	_ = godotenv.Load()
	var e Env
	if err := envconfig.Process("", &e); err != nil {
		return e, fmt.Errorf("process environment: %w", err)
	}
	return e, nil
}

// Apply overlays the set environment values onto the file configuration.
func (e Env) Apply(app App) App {
	if e.Addr != "" {
		app.Server.Addr = e.Addr
	}
	if e.DatasetPath != "" {
		app.Data.DatasetPath = e.DatasetPath
	}
	if e.StorePath != "" {
		app.Data.StorePath = e.StorePath
	}
	if e.PresetsPath != "" {
		app.Data.PresetsPath = e.PresetsPath
	}
	if e.LogLevel != "" {
		app.Logging.Level = e.LogLevel
	}
	if e.AppEnv != "" {
		app.Logging.Env = e.AppEnv
	}
	return app
}
