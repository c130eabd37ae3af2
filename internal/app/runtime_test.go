package app

import (
	"bytes"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/abelbrown/screenstate/internal/config"
	"github.com/abelbrown/screenstate/internal/microsurvey"
	"github.com/abelbrown/screenstate/internal/redux"
	"github.com/abelbrown/screenstate/internal/store"
	"github.com/abelbrown/screenstate/internal/theme"
	"github.com/abelbrown/screenstate/internal/wallpaper"
)

const wallpapersJSON = `{
  "last-updated-date": "2026-03-01",
  "collections": [
    {"id": "classic-firefox", "wallpapers": [{"id": "fxAmethyst", "text-color": "FFFFFF"}]}
  ]
}`

func wallpaperServer(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/metadata/v1/wallpapers.json", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(wallpapersJSON))
	})
	mux.HandleFunc("/ios/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("png"))
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func testConfig(t *testing.T) *config.Config {
	t.Helper()
	cfg := config.DefaultConfig()
	cfg.DataDir = t.TempDir()
	return cfg
}

func TestRuntimeOpenAndClose(t *testing.T) {
	cfg := testConfig(t)
	var logs bytes.Buffer

	rt, err := Open(cfg, Options{LogWriter: &logs, Brightness: func() float64 { return 0.3 }})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if _, err := os.Stat(cfg.DBPath()); err != nil {
		t.Errorf("database not created: %v", err)
	}
	if _, err := os.Stat(cfg.ImageDir()); err != nil {
		t.Errorf("image dir not created: %v", err)
	}
	if err := rt.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}

	data, err := os.ReadFile(cfg.EventsPath())
	if err != nil {
		t.Fatalf("read events: %v", err)
	}
	if !strings.Contains(string(data), `"sys.startup"`) || !strings.Contains(string(data), `"sys.shutdown"`) {
		t.Errorf("events file missing lifecycle events:\n%s", data)
	}
}

func TestRuntimeOpenFailsOnBadDataDir(t *testing.T) {
	cfg := testConfig(t)
	file := filepath.Join(cfg.DataDir, "not-a-dir")
	if err := os.WriteFile(file, nil, 0644); err != nil {
		t.Fatal(err)
	}
	cfg.DataDir = file

	if _, err := Open(cfg, Options{LogWriter: io.Discard}); err == nil {
		t.Fatal("expected error for a data dir that is a file")
	}
}

func TestRuntimeWindowEndToEnd(t *testing.T) {
	srv := wallpaperServer(t)
	cfg := testConfig(t)
	cfg.Wallpaper.SchemeToken = srv.URL
	cfg.Log.EventsFile = ""

	rt, err := Open(cfg, Options{LogWriter: io.Discard, Brightness: func() float64 { return 0.2 }})
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer rt.Close()

	w := rt.OpenWindow()
	m := redux.Meta(w.ID)

	w.Dispatch(theme.ViewDidLoad{ActionMeta: m})
	w.Dispatch(wallpaper.ViewDidLoad{ActionMeta: m})
	w.Flush()
	w.Dispatch(theme.ToggleUseSystemAppearance{ActionMeta: m, Enabled: false})
	w.Dispatch(theme.EnableAutomaticBrightness{ActionMeta: m, Enabled: true})
	w.Dispatch(wallpaper.SelectWallpaper{ActionMeta: m, ID: "fxAmethyst"})
	w.Dispatch(microsurvey.SurveyDidAppear{ActionMeta: m, SurveyID: "s1"})
	w.Dispatch(microsurvey.SubmitSurvey{ActionMeta: m, SurveyID: "s1", Option: "Neutral"})
	w.Flush()

	th := w.Theme.State()
	if th.Effective(false) != theme.Dark {
		t.Errorf("brightness 0.2 under default threshold should resolve dark, state %+v", th.Values)
	}

	wp := w.Wallpaper.State()
	if !wp.Has("fxAmethyst") || wp.Selected != "fxAmethyst" {
		t.Errorf("wallpaper state = %+v", wp)
	}
	if _, ok := wp.Thumbnails["fxAmethyst"]; !ok {
		t.Errorf("thumbnail not cached: %v", wp.Thumbnails)
	}

	if !w.Microsurvey.State().Submitted {
		t.Error("survey response was not confirmed")
	}
	events, err := rt.Store.SurveyEvents("s1")
	if err != nil {
		t.Fatalf("SurveyEvents: %v", err)
	}
	if len(events) != 2 {
		t.Errorf("survey events = %+v, want impression and response", events)
	}

	if raw, err := rt.Store.Pref(wallpaper.PrefSelected); err != nil || raw != "fxAmethyst" {
		t.Errorf("persisted wallpaper = %q, %v", raw, err)
	}
	if _, err := rt.Store.Pref("missing"); !errors.Is(err, store.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}
