// Package config loads the persistent screenstate configuration.
package config

import (
	"encoding/json"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/theme"
	"github.com/abelbrown/screenstate/internal/wallpaper"
)

// Environment overrides.
const (
	EnvWallpaperScheme = "SCREENSTATE_WALLPAPER_SCHEME"
	EnvTestMode        = "SCREENSTATE_TEST_MODE"
	EnvLogLevel        = "SCREENSTATE_LOG_LEVEL"
	EnvConfigPath      = "SCREENSTATE_CONFIG"
)

// Config is the persistent application configuration
type Config struct {
	Theme     ThemeConfig     `json:"theme"`
	Wallpaper WallpaperConfig `json:"wallpaper"`
	Log       LogConfig       `json:"log"`

	// DataDir holds the database, image cache and logs. Empty means
	// ~/.screenstate.
	DataDir string `json:"data_dir,omitempty"`
}

// ThemeConfig holds the defaults used before the user changes anything
type ThemeConfig struct {
	UseSystemAppearance     bool    `json:"use_system_appearance"`
	AutomaticBrightness     bool    `json:"automatic_brightness"`
	ManualTheme             string  `json:"manual_theme"` // "light" or "dark"
	UserBrightnessThreshold float64 `json:"user_brightness_threshold"`
}

// WallpaperConfig configures the wallpaper endpoints and fetcher
type WallpaperConfig struct {
	TestMode          bool    `json:"test_mode"`
	SchemeToken       string  `json:"scheme_token,omitempty"`
	Locale            string  `json:"locale"`
	RequestsPerSecond float64 `json:"requests_per_second"`
	TimeoutMs         int     `json:"timeout_ms"`
	Concurrency       int     `json:"concurrency"`
}

// LogConfig holds logging preferences
type LogConfig struct {
	Level      string `json:"level"`                 // debug, info, warning, fatal
	EventsFile string `json:"events_file,omitempty"` // JSONL events; empty disables
}

// DefaultConfig returns sensible defaults
func DefaultConfig() *Config {
	d := theme.DefaultValues()
	return &Config{
		Theme: ThemeConfig{
			UseSystemAppearance:     d.UseSystemAppearance,
			AutomaticBrightness:     d.AutomaticBrightness,
			ManualTheme:             string(d.ManualTheme),
			UserBrightnessThreshold: d.UserBrightnessThreshold,
		},
		Wallpaper: WallpaperConfig{
			Locale:            "en-US",
			RequestsPerSecond: 4,
			TimeoutMs:         15000,
			Concurrency:       4,
		},
		Log: LogConfig{
			Level:      "info",
			EventsFile: "events.jsonl",
		},
	}
}

// ConfigPath returns the path to the config file
func ConfigPath() string {
	if p := os.Getenv(EnvConfigPath); p != "" {
		return p
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".screenstate", "config.json")
}

// Load reads config from ConfigPath, or returns defaults
func Load() (*Config, error) {
	return LoadFrom(ConfigPath())
}

// LoadFrom reads config from path. A missing file yields defaults; a corrupt
// one yields defaults too, so a bad edit never blocks startup. Environment
// overrides apply in both cases.
func LoadFrom(path string) (*Config, error) {
	cfg := DefaultConfig()

	data, err := os.ReadFile(path)
	if err != nil && !os.IsNotExist(err) {
		return nil, err
	}
	if err == nil {
		if jerr := json.Unmarshal(data, cfg); jerr != nil {
			cfg = DefaultConfig()
		}
	}

	cfg.AutoPopulateFromEnv()
	return cfg, nil
}

// Save writes config to ConfigPath
func (c *Config) Save() error {
	return c.SaveTo(ConfigPath())
}

// SaveTo writes config to path
func (c *Config) SaveTo(path string) error {
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return err
	}

	data, err := json.MarshalIndent(c, "", "  ")
	if err != nil {
		return err
	}

	return os.WriteFile(path, data, 0600)
}

// AutoPopulateFromEnv applies environment overrides
func (c *Config) AutoPopulateFromEnv() {
	if v := os.Getenv(EnvWallpaperScheme); v != "" {
		c.Wallpaper.SchemeToken = v
	}
	if v := os.Getenv(EnvTestMode); v != "" {
		if b, err := strconv.ParseBool(v); err == nil {
			c.Wallpaper.TestMode = b
		}
	}
	if v := os.Getenv(EnvLogLevel); v != "" {
		c.Log.Level = v
	}
}

// LoadKeysFromFile loads overrides from a shell script of export lines
// (like keys.sh). Unknown keys are ignored.
func (c *Config) LoadKeysFromFile(path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}

	for _, line := range strings.Split(string(data), "\n") {
		line = strings.TrimSpace(line)
		line = strings.TrimPrefix(line, "export ")
		key, value, ok := strings.Cut(line, "=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)

		switch key {
		case EnvWallpaperScheme:
			c.Wallpaper.SchemeToken = value
		case EnvTestMode:
			if b, err := strconv.ParseBool(value); err == nil {
				c.Wallpaper.TestMode = b
			}
		case EnvLogLevel:
			c.Log.Level = value
		}
	}

	return nil
}

// Dir returns the data directory, creating nothing.
func (c *Config) Dir() string {
	if c.DataDir != "" {
		return c.DataDir
	}
	home, _ := os.UserHomeDir()
	return filepath.Join(home, ".screenstate")
}

// DBPath is the SQLite database location.
func (c *Config) DBPath() string { return filepath.Join(c.Dir(), "screenstate.db") }

// ImageDir is the site image cache directory.
func (c *Config) ImageDir() string { return filepath.Join(c.Dir(), "images") }

// EventsPath is the JSONL events file, or "" when disabled.
func (c *Config) EventsPath() string {
	if c.Log.EventsFile == "" {
		return ""
	}
	if filepath.IsAbs(c.Log.EventsFile) {
		return c.Log.EventsFile
	}
	return filepath.Join(c.Dir(), c.Log.EventsFile)
}

// URLProvider builds the wallpaper URL provider.
func (c *Config) URLProvider() wallpaper.URLProvider {
	return wallpaper.URLProvider{TestMode: c.Wallpaper.TestMode, SchemeToken: c.Wallpaper.SchemeToken}
}

// FetcherOptions converts the wallpaper section.
func (c *Config) FetcherOptions() wallpaper.FetcherOptions {
	return wallpaper.FetcherOptions{
		RequestsPerSecond: c.Wallpaper.RequestsPerSecond,
		Timeout:           time.Duration(c.Wallpaper.TimeoutMs) * time.Millisecond,
		Concurrency:       c.Wallpaper.Concurrency,
	}
}

// ThemeDefaults converts the theme section. An unknown manual theme falls
// back to light and the threshold is clamped to [0, 1].
func (c *Config) ThemeDefaults() theme.Values {
	manual, err := theme.ParseType(c.Theme.ManualTheme)
	if err != nil {
		manual = theme.Light
	}
	v := theme.DefaultValues()
	v.UseSystemAppearance = c.Theme.UseSystemAppearance
	v.AutomaticBrightness = c.Theme.AutomaticBrightness
	v.ManualTheme = manual
	v.UserBrightnessThreshold = theme.ClampBrightness(c.Theme.UserBrightnessThreshold)
	return v
}

// LogLevel parses the configured level.
func (c *Config) LogLevel() logging.Level {
	return logging.ParseLevel(c.Log.Level)
}
