package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file looked up in the working directory.
const DefaultPath = "rimworks.yaml"

// Config holds all rimworks configuration.
type Config struct {
	// Core settings
	Name    string `yaml:"name"`
	Version string `yaml:"version"`

	// Where entity files live
	Data DataConfig `yaml:"data"`

	// Engineer login credentials
	Engineer EngineerConfig `yaml:"engineer"`

	// Logging
	Logging LoggingConfig `yaml:"logging"`

	// Terminal UI
	UI UIConfig `yaml:"ui"`

	// Job status screen and dashboard command
	Dashboard DashboardConfig `yaml:"dashboard"`
}

// DataConfig configures the entity store.
type DataConfig struct {
	Root string `yaml:"root"`
}

// EngineerConfig holds the single engineer account. The password is compared
// as given; it is not an operator account and is never written to the store.
type EngineerConfig struct {
	Username string `yaml:"username"`
	Password string `yaml:"password"`
}

// UIConfig configures the terminal UI.
type UIConfig struct {
	Theme string `yaml:"theme"` // auto, dark, light
}

// DashboardConfig configures job status refresh.
type DashboardConfig struct {
	WatchDebounce string `yaml:"watch_debounce"`
}

// DefaultConfig returns the default configuration.
func DefaultConfig() *Config {
	return &Config{
		Name:    "RIMWorks",
		Version: "1.0.0",

		Data: DataConfig{
			Root: "data",
		},

		Engineer: EngineerConfig{
			Username: "admin",
			Password: "admin123",
		},

		Logging: LoggingConfig{
			Level:  "info",
			Format: "console",
			File:   filepath.Join("logs", "rimworks.log"),
		},

		UI: UIConfig{
			Theme: "auto",
		},

		Dashboard: DashboardConfig{
			WatchDebounce: "250ms",
		},
	}
}

// Load loads configuration from a YAML file. A missing file yields the
// defaults. Environment overrides are applied in both cases.
func Load(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, fmt.Errorf("failed to read config: %w", err)
	}
	if err == nil {
		if err := yaml.Unmarshal(data, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse config: %w", err)
		}
	}

	// Override with environment variables
	cfg.applyEnvOverrides()

	return cfg, nil
}

// Save saves configuration to a YAML file.
func (c *Config) Save(path string) error {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create config directory: %w", err)
	}

	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("failed to marshal config: %w", err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return fmt.Errorf("failed to write config: %w", err)
	}

	return nil
}

// applyEnvOverrides applies environment variable overrides.
func (c *Config) applyEnvOverrides() {
	if dir := os.Getenv("RIMWORKS_DATA_DIR"); dir != "" {
		c.Data.Root = dir
	}

	// Engineer credentials
	if user := os.Getenv("RIMWORKS_ENGINEER_USER"); user != "" {
		c.Engineer.Username = user
	}
	if pass := os.Getenv("RIMWORKS_ENGINEER_PASSWORD"); pass != "" {
		c.Engineer.Password = pass
	}

	if level := os.Getenv("RIMWORKS_LOG_LEVEL"); level != "" {
		c.Logging.Level = level
	}

	// Theme forcing, same switch the UI reads
	if dark := os.Getenv("RIMWORKS_DARK_MODE"); dark != "" {
		if on, err := strconv.ParseBool(dark); err == nil {
			if on {
				c.UI.Theme = "dark"
			} else {
				c.UI.Theme = "light"
			}
		}
	}
}

// GetWatchDebounce returns the dashboard watch debounce as a duration.
func (c *Config) GetWatchDebounce() time.Duration {
	d, err := time.ParseDuration(c.Dashboard.WatchDebounce)
	if err != nil || d <= 0 {
		return 250 * time.Millisecond
	}
	return d
}

// ValidThemes lists the accepted ui.theme values.
var ValidThemes = []string{"auto", "dark", "light"}

// ValidLevels lists the accepted logging.level values.
var ValidLevels = []string{"debug", "info", "warn", "warning", "error"}

// Validate validates the configuration.
func (c *Config) Validate() error {
	if strings.TrimSpace(c.Data.Root) == "" {
		return fmt.Errorf("data.root must not be empty")
	}
	if c.Engineer.Username == "" || c.Engineer.Password == "" {
		return fmt.Errorf("engineer username and password must be set (or set RIMWORKS_ENGINEER_USER and RIMWORKS_ENGINEER_PASSWORD)")
	}
	if !oneOf(c.UI.Theme, ValidThemes) {
		return fmt.Errorf("invalid ui.theme: %s (valid: %v)", c.UI.Theme, ValidThemes)
	}
	if !oneOf(strings.ToLower(c.Logging.Level), ValidLevels) {
		return fmt.Errorf("invalid logging.level: %s (valid: %v)", c.Logging.Level, ValidLevels)
	}
	if c.Logging.Format != "console" && c.Logging.Format != "json" {
		return fmt.Errorf("invalid logging.format: %s (valid: console, json)", c.Logging.Format)
	}
	if c.Dashboard.WatchDebounce != "" {
		if _, err := time.ParseDuration(c.Dashboard.WatchDebounce); err != nil {
			return fmt.Errorf("invalid dashboard.watch_debounce: %w", err)
		}
	}
	return nil
}

func oneOf(v string, set []string) bool {
	for _, s := range set {
		if v == s {
			return true
		}
	}
	return false
}

// DarkMode reports whether the theme forces dark (true) or light (false)
// styling. ok is false for "auto", which leaves detection to the UI.
func (c *Config) DarkMode() (dark bool, ok bool) {
	switch c.UI.Theme {
	case "dark":
		return true, true
	case "light":
		return false, true
	}
	return false, false
}
