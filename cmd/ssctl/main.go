// Command ssctl inspects and maintains screenstate data.
//
// Usage:
//
//	ssctl urls                 Wallpaper endpoint URLs for the configured scheme
//	ssctl prefs                Persisted preferences
//	ssctl survey <id>          Recorded microsurvey interactions
//	ssctl events               JSONL event log viewer
//	ssctl cache get|rm <url>   Site image cache lookup and removal
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/abelbrown/screenstate/internal/config"
	"github.com/abelbrown/screenstate/internal/store"
)

var (
	// configPath overrides the config file location.
	configPath string
	// testMode forces the wallpaper test scheme.
	testMode bool
	// envFile is a keys.sh style file of SCREENSTATE_* exports.
	envFile string
)

// rootCmd represents the base command
var rootCmd = &cobra.Command{
	Use:   "ssctl",
	Short: "screenstate debug & maintenance CLI",
	Long: `Inspect the data a screenstate session leaves behind: persisted
preferences, microsurvey telemetry, the site image cache and the JSONL
event log.

Environment:
  SCREENSTATE_CONFIG            Config file (default: ~/.screenstate/config.json)
  SCREENSTATE_WALLPAPER_SCHEME  Wallpaper endpoint scheme
  SCREENSTATE_TEST_MODE         Use the wallpaper test scheme`,
	SilenceUsage: true,
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "", "Config file (default: $SCREENSTATE_CONFIG or ~/.screenstate/config.json)")
	rootCmd.PersistentFlags().BoolVar(&testMode, "test-mode", false, "Use the wallpaper test scheme")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", "", "File of SCREENSTATE_* export lines applied over the config")

	rootCmd.AddCommand(urlsCmd)
	rootCmd.AddCommand(prefsCmd)
	rootCmd.AddCommand(surveyCmd)
	rootCmd.AddCommand(eventsCmd)
	cacheCmd.AddCommand(cacheGetCmd)
	cacheCmd.AddCommand(cacheRmCmd)
	cacheCmd.AddCommand(cacheLsCmd)
	rootCmd.AddCommand(cacheCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

// loadConfig reads the config selected by the global flags.
func loadConfig() (*config.Config, error) {
	path := configPath
	if path == "" {
		path = config.ConfigPath()
	}
	cfg, err := config.LoadFrom(path)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if envFile != "" {
		if err := cfg.LoadKeysFromFile(envFile); err != nil {
			return nil, fmt.Errorf("load env file: %w", err)
		}
	}
	if testMode {
		cfg.Wallpaper.TestMode = true
	}
	return cfg, nil
}

// openDB opens the configured database. The caller closes it.
func openDB(cfg *config.Config) (*store.Store, error) {
	if _, err := os.Stat(cfg.DBPath()); err != nil {
		return nil, fmt.Errorf("no database at %s (run screenstate first): %w", cfg.DBPath(), err)
	}
	st, err := store.Open(cfg.DBPath())
	if err != nil {
		return nil, fmt.Errorf("open database: %w", err)
	}
	return st, nil
}

// truncate shortens a string to max runes, appending "..." if truncated.
// Widths too small for the marker are cut without it.
func truncate(s string, max int) string {
	if max <= 0 {
		return ""
	}
	runes := []rune(s)
	if len(runes) <= max {
		return s
	}
	if max <= 3 {
		return string(runes[:max])
	}
	return string(runes[:max-3]) + "..."
}
