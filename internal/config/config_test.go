package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/theme"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, k := range []string{EnvWallpaperScheme, EnvTestMode, EnvLogLevel, EnvConfigPath} {
		t.Setenv(k, "")
	}
}

func TestLoadMissingReturnsDefaults(t *testing.T) {
	clearEnv(t)
	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "nope.json"))
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Wallpaper.RequestsPerSecond != 4 || cfg.Log.Level != "info" {
		t.Errorf("cfg = %+v", cfg)
	}
	if cfg.ThemeDefaults() != theme.DefaultValues() {
		t.Errorf("theme defaults = %+v", cfg.ThemeDefaults())
	}
}

func TestSaveLoadRoundTrip(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "sub", "config.json")

	cfg := DefaultConfig()
	cfg.Theme.ManualTheme = "dark"
	cfg.Wallpaper.SchemeToken = "https://cdn.example.com"
	cfg.DataDir = "/var/lib/screenstate"
	if err := cfg.SaveTo(path); err != nil {
		t.Fatal(err)
	}

	info, err := os.Stat(path)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0600 {
		t.Errorf("mode = %v", info.Mode().Perm())
	}

	got, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if got.ThemeDefaults().ManualTheme != theme.Dark {
		t.Errorf("manual theme = %s", got.ThemeDefaults().ManualTheme)
	}
	if got.DBPath() != "/var/lib/screenstate/screenstate.db" {
		t.Errorf("DBPath = %s", got.DBPath())
	}
	u, err := got.URLProvider().MetadataURL()
	if err != nil || u != "https://cdn.example.com/metadata/v1/wallpapers.json" {
		t.Errorf("metadata url = %q, %v", u, err)
	}
}

func TestCorruptFileFallsBack(t *testing.T) {
	clearEnv(t)
	path := filepath.Join(t.TempDir(), "config.json")
	if err := os.WriteFile(path, []byte("{not json"), 0600); err != nil {
		t.Fatal(err)
	}
	cfg, err := LoadFrom(path)
	if err != nil {
		t.Fatal(err)
	}
	if cfg.Wallpaper.Locale != "en-US" {
		t.Errorf("expected defaults, got %+v", cfg.Wallpaper)
	}
}

func TestEnvOverrides(t *testing.T) {
	clearEnv(t)
	t.Setenv(EnvWallpaperScheme, "https://env.example.com")
	t.Setenv(EnvTestMode, "true")
	t.Setenv(EnvLogLevel, "debug")

	cfg, err := LoadFrom(filepath.Join(t.TempDir(), "missing.json"))
	if err != nil {
		t.Fatal(err)
	}
	if !cfg.Wallpaper.TestMode || cfg.Wallpaper.SchemeToken != "https://env.example.com" {
		t.Errorf("wallpaper = %+v", cfg.Wallpaper)
	}
	if cfg.LogLevel() != logging.Debug {
		t.Errorf("level = %v", cfg.LogLevel())
	}
	// Test mode wins over the configured token.
	if u, _ := cfg.URLProvider().MetadataURL(); u != "https://my.test.url/metadata/v1/wallpapers.json" {
		t.Errorf("url = %s", u)
	}
}

func TestLoadKeysFromFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "keys.sh")
	script := "#!/bin/sh\nexport SCREENSTATE_WALLPAPER_SCHEME=\"https://keys.example.com\"\nexport SCREENSTATE_LOG_LEVEL=warning\nexport OTHER=1\n"
	if err := os.WriteFile(path, []byte(script), 0600); err != nil {
		t.Fatal(err)
	}
	cfg := DefaultConfig()
	if err := cfg.LoadKeysFromFile(path); err != nil {
		t.Fatal(err)
	}
	if cfg.Wallpaper.SchemeToken != "https://keys.example.com" || cfg.LogLevel() != logging.Warning {
		t.Errorf("cfg = %+v %+v", cfg.Wallpaper, cfg.Log)
	}
}

func TestPaths(t *testing.T) {
	cfg := DefaultConfig()
	cfg.DataDir = "/data"
	if cfg.EventsPath() != "/data/events.jsonl" || cfg.ImageDir() != "/data/images" {
		t.Errorf("paths: %s %s", cfg.EventsPath(), cfg.ImageDir())
	}
	cfg.Log.EventsFile = ""
	if cfg.EventsPath() != "" {
		t.Error("disabled events path not empty")
	}
	if cfg.FetcherOptions().Timeout != 15*time.Second {
		t.Errorf("timeout = %v", cfg.FetcherOptions().Timeout)
	}
}

func TestThemeDefaultsClampThreshold(t *testing.T) {
	tests := []struct {
		in   float64
		want float64
	}{
		{0.35, 0.35},
		{-0.5, 0},
		{4, 1},
	}
	for _, tt := range tests {
		cfg := DefaultConfig()
		cfg.Theme.UserBrightnessThreshold = tt.in
		cfg.Theme.ManualTheme = "sepia"
		got := cfg.ThemeDefaults()
		if got.UserBrightnessThreshold != tt.want {
			t.Errorf("threshold %v -> %v, want %v", tt.in, got.UserBrightnessThreshold, tt.want)
		}
		if got.ManualTheme != theme.Light {
			t.Errorf("unknown manual theme -> %s, want light", got.ManualTheme)
		}
	}
}
