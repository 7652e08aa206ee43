package app

import (
	"fmt"

	"github.com/vk/shaderbuild/internal/config"
)

// Command selects what the App does.
type Command string

const (
	BuildCommand Command = "build"
	StatsCommand Command = "stats"
)

// Config holds all the necessary configuration for an App instance to run.
type Config struct {
	Command Command

	// Build settings, resolved into a config.BuildConfig at run time.
	Build config.Inputs

	// Directories counted by the stats command. Empty means the project's
	// src and shaders directories.
	StatsDirs []string

	LogFormat string
	LogLevel  string
	Pause     bool // wait for Enter before returning, on a terminal only
}

// NewConfig validates cfg and fills in defaults.
func NewConfig(cfg Config) (*Config, error) {
	switch cfg.Command {
	case "":
		cfg.Command = BuildCommand
	case BuildCommand, StatsCommand:
	default:
		return nil, fmt.Errorf("unknown command %q", cfg.Command)
	}
	if cfg.LogFormat == "" {
		cfg.LogFormat = "text"
	}
	if cfg.LogLevel == "" {
		cfg.LogLevel = "info"
	}
	return &cfg, nil
}
