package wallpaper

import (
	"context"
	"errors"
	"time"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/redux"
	"github.com/abelbrown/screenstate/internal/store"
)

// PrefSelected is the preference key of the chosen wallpaper.
const PrefSelected = "wallpaper.selected"

// State is the wallpaper selection screen.
type State struct {
	Window      redux.WindowUUID
	Collections []Collection
	Thumbnails  map[string]string // wallpaper ID -> local file
	Selected    string
	Loading     bool
	Err         string
}

func NewState(w redux.WindowUUID) State { return State{Window: w} }

// Has reports whether id is one of the loaded wallpapers.
func (s State) Has(id string) bool {
	for _, w := range Wallpapers(s.Collections) {
		if w.ID == id {
			return true
		}
	}
	return false
}

type ViewDidLoad struct{ redux.ActionMeta }

type MetadataReceived struct {
	redux.ActionMeta
	Metadata Metadata
}

type MetadataFailed struct {
	redux.ActionMeta
	Err string
}

type ThumbnailsCached struct {
	redux.ActionMeta
	Paths map[string]string
}

// SelectWallpaper is the user's choice; WallpaperSelected confirms it was
// persisted.
type SelectWallpaper struct {
	redux.ActionMeta
	ID string
}

type WallpaperSelected struct {
	redux.ActionMeta
	ID string
}

// Reduce is the wallpaper reducer.
func Reduce(state State, action redux.Action) State {
	if !redux.Reaches(action, state.Window) {
		return state
	}

	next := state
	switch a := action.(type) {
	case ViewDidLoad:
		next.Loading = true
		next.Err = ""
	case MetadataReceived:
		next.Loading = false
		next.Err = ""
		next.Collections = a.Metadata.Collections
	case MetadataFailed:
		next.Loading = false
		next.Err = a.Err
	case ThumbnailsCached:
		thumbs := make(map[string]string, len(state.Thumbnails)+len(a.Paths))
		for k, v := range state.Thumbnails {
			thumbs[k] = v
		}
		for k, v := range a.Paths {
			thumbs[k] = v
		}
		next.Thumbnails = thumbs
	case WallpaperSelected:
		next.Selected = a.ID
	default:
		return state
	}
	return next
}

// Source provides metadata and thumbnails. *HTTPFetcher implements it.
type Source interface {
	Metadata(ctx context.Context) (Metadata, error)
	Thumbnails(ctx context.Context, ws []Wallpaper) (map[string]string, error)
}

// Prefs persists the selection. *store.Store implements it.
type Prefs interface {
	Pref(key string) (string, error)
	SetPref(key, value string) error
}

// MiddlewareOptions configures NewMiddleware.
type MiddlewareOptions struct {
	Locale string
	Now    func() time.Time
	Log    logging.Logger
}

// NewMiddleware loads metadata on ViewDidLoad and persists selections.
func NewMiddleware(src Source, prefs Prefs, opts MiddlewareOptions) redux.Middleware[State] {
	if opts.Log == nil {
		opts.Log = logging.Nop()
	}
	if opts.Now == nil {
		opts.Now = time.Now
	}
	log := opts.Log

	return func(state State, action redux.Action, d redux.Dispatcher) {
		if !redux.Reaches(action, state.Window) {
			return
		}
		meta := redux.Meta(action.Window())

		switch a := action.(type) {
		case ViewDidLoad:
			d.Go(func(ctx context.Context) {
				if id, err := prefs.Pref(PrefSelected); err == nil {
					d.Dispatch(WallpaperSelected{ActionMeta: meta, ID: id})
				} else if !errors.Is(err, store.ErrNotFound) {
					log.Log("read wallpaper preference failed", logging.Warning, logging.CategoryWallpaper,
						logging.WithDescription(err.Error()))
				}

				md, err := src.Metadata(ctx)
				if err != nil {
					log.Log("wallpaper metadata fetch failed", logging.Warning, logging.CategoryWallpaper,
						logging.WithDescription(err.Error()))
					d.Dispatch(MetadataFailed{ActionMeta: meta, Err: err.Error()})
					return
				}
				md.Collections = md.Available(opts.Locale, opts.Now())
				d.Dispatch(MetadataReceived{ActionMeta: meta, Metadata: md})

				paths, err := src.Thumbnails(ctx, Wallpapers(md.Collections))
				if err != nil {
					log.Log("wallpaper thumbnails incomplete", logging.Info, logging.CategoryWallpaper,
						logging.WithDescription(err.Error()))
				}
				if len(paths) > 0 {
					d.Dispatch(ThumbnailsCached{ActionMeta: meta, Paths: paths})
				}
			})

		case SelectWallpaper:
			if a.ID == state.Selected {
				return
			}
			d.Go(func(context.Context) {
				if err := prefs.SetPref(PrefSelected, a.ID); err != nil {
					log.Log("persist wallpaper selection failed", logging.Warning, logging.CategoryWallpaper,
						logging.WithDescription(err.Error()),
						logging.WithExtra(map[string]string{"wallpaper": a.ID}))
					return
				}
				d.Dispatch(WallpaperSelected{ActionMeta: meta, ID: a.ID})
			})
		}
	}
}
