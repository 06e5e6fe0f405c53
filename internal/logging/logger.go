// Package logging provides categorized structured logging for rimworks.
// Every category is a named child of one zap logger built from the logging
// section of the config. Until Initialize is called, Get returns no-op loggers
// so packages can log unconditionally from tests.
package logging

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Category represents a log category/system
type Category string

const (
	CategoryBoot      Category = "boot"      // Startup and config
	CategoryStore     Category = "store"     // Entity file reads and writes
	CategoryWizard    Category = "wizard"    // Job wizard transitions
	CategoryDashboard Category = "dashboard" // Job status aggregation and watch
	CategoryUI        Category = "ui"        // Terminal UI navigation
	CategoryAuth      Category = "auth"      // Engineer and operator login
)

// Options mirrors config.LoggingConfig to avoid circular imports.
type Options struct {
	Level  string // debug, info, warn, error
	Format string // console or json
	File   string // empty writes to stderr
	// Quiet drops stderr output entirely; used by the TUI so log lines never
	// land on the alternate screen. File output still happens.
	Quiet bool
}

var (
	mu      sync.RWMutex
	root    = zap.NewNop()
	loggers = make(map[Category]*zap.Logger)
	closer  func()
)

// ParseLevel maps a config level string to a zap level. Unknown values are info.
func ParseLevel(level string) zapcore.Level {
	switch strings.ToLower(strings.TrimSpace(level)) {
	case "debug":
		return zapcore.DebugLevel
	case "warn", "warning":
		return zapcore.WarnLevel
	case "error":
		return zapcore.ErrorLevel
	default:
		return zapcore.InfoLevel
	}
}

// Initialize builds the root logger. Calling it again replaces the previous
// logger and closes its file.
func Initialize(opts Options) error {
	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(ParseLevel(opts.Level))
	cfg.Sampling = nil
	cfg.EncoderConfig.EncodeTime = zapcore.ISO8601TimeEncoder
	if opts.Format != "json" {
		cfg.Encoding = "console"
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	}

	var outputs []string
	if !opts.Quiet {
		outputs = append(outputs, "stderr")
	}
	if opts.File != "" {
		if err := os.MkdirAll(filepath.Dir(opts.File), 0755); err != nil {
			return fmt.Errorf("failed to create log directory: %w", err)
		}
		outputs = append(outputs, opts.File)
	}
	if len(outputs) == 0 {
		replace(zap.NewNop(), nil)
		return nil
	}
	cfg.OutputPaths = outputs
	cfg.ErrorOutputPaths = outputs

	logger, err := cfg.Build()
	if err != nil {
		return fmt.Errorf("failed to initialize logger: %w", err)
	}
	replace(logger, func() { _ = logger.Sync() })

	Get(CategoryBoot).Debug("logging initialized",
		zap.String("level", cfg.Level.String()),
		zap.String("encoding", cfg.Encoding),
		zap.Strings("outputs", outputs))
	return nil
}

// Use installs an existing logger as root. Tests use it with zaptest or
// observer cores.
func Use(logger *zap.Logger) {
	replace(logger, nil)
}

func replace(logger *zap.Logger, c func()) {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer()
	}
	root = logger
	closer = c
	loggers = make(map[Category]*zap.Logger)
}

// Get returns (or creates) the logger for the given category.
func Get(category Category) *zap.Logger {
	mu.RLock()
	if l, ok := loggers[category]; ok {
		mu.RUnlock()
		return l
	}
	mu.RUnlock()

	mu.Lock()
	defer mu.Unlock()
	if l, ok := loggers[category]; ok {
		return l
	}
	l := root.Named(string(category))
	loggers[category] = l
	return l
}

// Root returns the root logger, for handing to libraries.
func Root() *zap.Logger {
	mu.RLock()
	defer mu.RUnlock()
	return root
}

// CloseAll flushes buffered entries (call at shutdown).
func CloseAll() {
	mu.Lock()
	defer mu.Unlock()
	if closer != nil {
		closer()
		closer = nil
	}
}

// =============================================================================
// TIMING HELPERS
// =============================================================================

// Timer helps measure operation duration
type Timer struct {
	category Category
	op       string
	start    time.Time
}

// StartTimer begins timing an operation
func StartTimer(category Category, operation string) *Timer {
	return &Timer{category: category, op: operation, start: time.Now()}
}

// Stop ends the timer and logs the duration at debug level.
func (t *Timer) Stop() time.Duration {
	elapsed := time.Since(t.start)
	Get(t.category).Debug(t.op+" completed", zap.Duration("elapsed", elapsed))
	return elapsed
}

// StopWithThreshold logs a warning if duration exceeds threshold
func (t *Timer) StopWithThreshold(threshold time.Duration) time.Duration {
	elapsed := time.Since(t.start)
	if elapsed > threshold {
		Get(t.category).Warn(t.op+" was slow",
			zap.Duration("elapsed", elapsed),
			zap.Duration("threshold", threshold))
	} else {
		Get(t.category).Debug(t.op+" completed", zap.Duration("elapsed", elapsed))
	}
	return elapsed
}
