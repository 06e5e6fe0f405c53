package config

import "rimworks/internal/logging"

// LoggingConfig configures logging.
type LoggingConfig struct {
	Level  string `yaml:"level"`  // debug, info, warn, error
	Format string `yaml:"format"` // console, json
	File   string `yaml:"file"`   // empty logs to stderr only
}

// Options converts the config into logging options. quiet suppresses stderr
// output, which the TUI needs while it owns the terminal.
func (c LoggingConfig) Options(quiet bool) logging.Options {
	return logging.Options{
		Level:  c.Level,
		Format: c.Format,
		File:   c.File,
		Quiet:  quiet,
	}
}
