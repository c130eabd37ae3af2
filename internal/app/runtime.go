package app

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/abelbrown/screenstate/internal/config"
	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/otel"
	"github.com/abelbrown/screenstate/internal/session"
	"github.com/abelbrown/screenstate/internal/siteimage"
	"github.com/abelbrown/screenstate/internal/store"
	"github.com/abelbrown/screenstate/internal/theme"
	"github.com/abelbrown/screenstate/internal/wallpaper"
)

// ringSize is how many recent events the debug overlay can show.
const ringSize = 1024

// Options overrides parts of the runtime, mainly for tests.
type Options struct {
	LogWriter  io.Writer               // text log; nil opens a dated file under the data dir
	Brightness theme.BrightnessSource  // nil reads the platform backlight
	Fetcher    wallpaper.FetcherOptions // merged over the config's fetcher options
}

// Runtime owns the process-wide collaborators shared by every window.
type Runtime struct {
	Config     *config.Config
	Store      *store.Store
	Images     *siteimage.FileCache
	Events     *otel.Logger
	Ring       *otel.Ring
	Log        logging.Logger
	Theme      *theme.PreferenceManager
	Wallpapers *wallpaper.HTTPFetcher
	Sessions   *session.Manager
	Brightness theme.BrightnessSource

	closers []io.Closer
}

// Open builds the runtime from cfg. On error everything opened so far is
// closed again.
func Open(cfg *config.Config, opts Options) (*Runtime, error) {
	rt := &Runtime{Config: cfg}
	if err := rt.open(opts); err != nil {
		rt.Close()
		return nil, err
	}
	rt.Events.Info(otel.KindStartup, "main", "runtime ready")
	return rt, nil
}

func (rt *Runtime) open(opts Options) error {
	cfg := rt.Config

	if err := os.MkdirAll(cfg.Dir(), 0755); err != nil {
		return fmt.Errorf("create data directory: %w", err)
	}

	var eventsOut io.Writer = io.Discard
	if path := cfg.EventsPath(); path != "" {
		f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
		if err != nil {
			return fmt.Errorf("open events file: %w", err)
		}
		rt.closers = append(rt.closers, f)
		eventsOut = f
	}
	rt.Events = otel.NewLogger(eventsOut)
	rt.Ring = otel.NewRing(ringSize)
	rt.Events.Attach(rt.Ring)

	logOut := opts.LogWriter
	if logOut == nil {
		f, err := logging.OpenFile(filepath.Join(cfg.Dir(), "logs"))
		if err != nil {
			return err
		}
		rt.closers = append(rt.closers, f)
		logOut = f
	}
	rt.Log = logging.New(logOut, rt.Events, cfg.LogLevel())

	var err error
	if rt.Store, err = store.Open(cfg.DBPath()); err != nil {
		return fmt.Errorf("open database: %w", err)
	}

	if rt.Images, err = siteimage.NewFileCache(cfg.ImageDir(), rt.Store, rt.Log); err != nil {
		return err
	}

	fo := cfg.FetcherOptions()
	if opts.Fetcher.Client != nil {
		fo.Client = opts.Fetcher.Client
	}
	if opts.Fetcher.RequestsPerSecond > 0 {
		fo.RequestsPerSecond = opts.Fetcher.RequestsPerSecond
	}
	fo.Events = rt.Events
	rt.Wallpapers = wallpaper.NewHTTPFetcher(cfg.URLProvider(), rt.Images, fo)

	rt.Brightness = opts.Brightness
	if rt.Brightness == nil {
		rt.Brightness = Backlight(DefaultBacklightDir)
	}
	rt.Theme = theme.NewPreferenceManager(rt.Store, rt.Brightness, cfg.ThemeDefaults())
	rt.Sessions = session.NewManager(rt.Events)

	return nil
}

// Deps are the window collaborators backed by this runtime.
func (rt *Runtime) Deps() session.Deps {
	return session.Deps{
		Theme:      rt.Theme,
		Survey:     rt.Store,
		Wallpapers: rt.Wallpapers,
		Prefs:      rt.Store,
		Locale:     rt.Config.Wallpaper.Locale,
		Log:        rt.Log,
		Events:     rt.Events,
	}
}

// OpenWindow opens a window wired to the runtime.
func (rt *Runtime) OpenWindow() *session.Window {
	return rt.Sessions.Open(rt.Deps())
}

// Close closes every window, then the database and log sinks.
func (rt *Runtime) Close() error {
	var errs []error
	if rt.Sessions != nil {
		rt.Sessions.CloseAll()
	}
	if rt.Store != nil {
		if err := rt.Store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close database: %w", err))
		}
	}
	if rt.Events != nil {
		rt.Events.Info(otel.KindShutdown, "main", "runtime closed")
		rt.Events.Close()
	}
	for i := len(rt.closers) - 1; i >= 0; i-- {
		if err := rt.closers[i].Close(); err != nil {
			errs = append(errs, err)
		}
	}
	rt.closers = nil
	return errors.Join(errs...)
}
