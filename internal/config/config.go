// Package config reads the CLI configuration from NEXIA_* environment
// variables and an optional .env file.
package config

import (
	"log/slog"
	"time"
)

type Config struct {
	Notebook   string        `env:"NEXIA_NOTEBOOK"`
	Adapter    string        `env:"NEXIA_ADAPTER" validate:"omitempty,oneof=json yaml badger sqlite"`
	LogLevel   string        `env:"NEXIA_LOG_LEVEL" env-default:"warn" validate:"oneof=debug info warn error"`
	Pretty     bool          `env:"NEXIA_PRETTY" env-default:"true"`
	Versioning bool          `env:"NEXIA_VERSIONING" env-default:"false"`
	Acyclic    bool          `env:"NEXIA_ACYCLIC" env-default:"false"`
	Debounce   time.Duration `env:"NEXIA_DEBOUNCE" env-default:"50ms" validate:"gte=0"`
}

// Level converts LogLevel into a slog.Level, defaulting to warn.
func (c Config) Level() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelWarn
	}
	return l
}
