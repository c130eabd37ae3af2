// Package session scopes feature stores to windows. Each open window gets
// its own theme, microsurvey, wallpaper and QR code stores, built from
// collaborators passed in by the caller.
package session

import (
	"sort"
	"sync"

	"golang.org/x/sync/errgroup"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/microsurvey"
	"github.com/abelbrown/screenstate/internal/otel"
	"github.com/abelbrown/screenstate/internal/qrcode"
	"github.com/abelbrown/screenstate/internal/redux"
	"github.com/abelbrown/screenstate/internal/theme"
	"github.com/abelbrown/screenstate/internal/wallpaper"
)

// Deps are the collaborators a window's middleware talks to. Nil
// collaborators leave the matching middleware out; the reducer still runs.
type Deps struct {
	Theme      theme.Manager
	Survey     microsurvey.Recorder
	Wallpapers wallpaper.Source
	Prefs      wallpaper.Prefs
	Locale     string
	Log        logging.Logger
	Events     *otel.Logger
	QueueLimit int
}

// Window is the set of stores owned by one window.
type Window struct {
	ID          redux.WindowUUID
	Theme       *redux.Store[theme.State]
	Microsurvey *redux.Store[microsurvey.State]
	Wallpaper   *redux.Store[wallpaper.State]
	QRCode      *redux.Store[qrcode.State]
}

func newWindow(id redux.WindowUUID, deps Deps) *Window {
	opts := func(name string) redux.Options {
		return redux.Options{Name: name, Events: deps.Events, Log: deps.Log, QueueLimit: deps.QueueLimit}
	}

	var themeMW []redux.Middleware[theme.State]
	if deps.Theme != nil {
		themeMW = append(themeMW, theme.NewMiddleware(deps.Theme, deps.Log))
	}
	var surveyMW []redux.Middleware[microsurvey.State]
	if deps.Survey != nil {
		surveyMW = append(surveyMW, microsurvey.NewMiddleware(deps.Survey, deps.Log))
	}
	var wallMW []redux.Middleware[wallpaper.State]
	if deps.Wallpapers != nil && deps.Prefs != nil {
		wallMW = append(wallMW, wallpaper.NewMiddleware(deps.Wallpapers, deps.Prefs,
			wallpaper.MiddlewareOptions{Locale: deps.Locale, Log: deps.Log}))
	}

	return &Window{
		ID:          id,
		Theme:       redux.NewStore(theme.NewState(id), theme.Reduce, themeMW, opts("theme")),
		Microsurvey: redux.NewStore(microsurvey.NewState(id), microsurvey.Reduce, surveyMW, opts("microsurvey")),
		Wallpaper:   redux.NewStore(wallpaper.NewState(id), wallpaper.Reduce, wallMW, opts("wallpaper")),
		QRCode: redux.NewStore(qrcode.NewState(id), qrcode.Reduce,
			[]redux.Middleware[qrcode.State]{qrcode.NewMiddleware(deps.Log)}, opts("qrcode")),
	}
}

// Dispatch hands a to every store of the window. Stores whose reducer does
// not know the action leave their state unchanged.
func (w *Window) Dispatch(a redux.Action) {
	w.Theme.Dispatch(a)
	w.Microsurvey.Dispatch(a)
	w.Wallpaper.Dispatch(a)
	w.QRCode.Dispatch(a)
}

// Flush waits until every store of the window is idle.
func (w *Window) Flush() {
	w.Theme.Flush()
	w.Microsurvey.Flush()
	w.Wallpaper.Flush()
	w.QRCode.Flush()
}

// Close stops every store concurrently.
func (w *Window) Close() {
	var g errgroup.Group
	g.Go(func() error { w.Theme.Close(); return nil })
	g.Go(func() error { w.Microsurvey.Close(); return nil })
	g.Go(func() error { w.Wallpaper.Close(); return nil })
	g.Go(func() error { w.QRCode.Close(); return nil })
	_ = g.Wait()
}

// Manager tracks open windows.
type Manager struct {
	events *otel.Logger

	mu      sync.RWMutex
	windows map[redux.WindowUUID]*Window
}

// NewManager creates an empty manager. events may be nil.
func NewManager(events *otel.Logger) *Manager {
	return &Manager{events: events, windows: make(map[redux.WindowUUID]*Window)}
}

// Open creates a window with a fresh ID.
func (m *Manager) Open(deps Deps) *Window {
	w := newWindow(redux.NewWindowUUID(), deps)

	m.mu.Lock()
	m.windows[w.ID] = w
	n := len(m.windows)
	m.mu.Unlock()

	m.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindWindowOpen, Comp: "session", Window: w.ID.String(), Count: n})
	return w
}

// Get returns the open window id.
func (m *Manager) Get(id redux.WindowUUID) (*Window, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	w, ok := m.windows[id]
	return w, ok
}

// Windows returns the open window IDs in a stable order.
func (m *Manager) Windows() []redux.WindowUUID {
	m.mu.RLock()
	ids := make([]redux.WindowUUID, 0, len(m.windows))
	for id := range m.windows {
		ids = append(ids, id)
	}
	m.mu.RUnlock()

	sort.Slice(ids, func(i, j int) bool { return ids[i].String() < ids[j].String() })
	return ids
}

// Dispatch routes a to its window. Actions for windows that are not open
// are dropped and reported as stale.
func (m *Manager) Dispatch(a redux.Action) bool {
	if a == nil {
		return false
	}
	w, ok := m.Get(a.Window())
	if !ok {
		m.events.Emit(otel.Event{
			Level: otel.LevelDebug, Kind: otel.KindStaleAction, Comp: "session",
			Window: a.Window().String(), Action: redux.ActionName(a),
		})
		return false
	}
	w.Dispatch(a)
	return true
}

// Close closes window id. It reports whether the window was open.
func (m *Manager) Close(id redux.WindowUUID) bool {
	m.mu.Lock()
	w, ok := m.windows[id]
	delete(m.windows, id)
	m.mu.Unlock()

	if !ok {
		return false
	}
	w.Close()
	m.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindWindowClose, Comp: "session", Window: id.String()})
	return true
}

// CloseAll closes every open window concurrently.
func (m *Manager) CloseAll() {
	m.mu.Lock()
	windows := m.windows
	m.windows = make(map[redux.WindowUUID]*Window)
	m.mu.Unlock()

	var g errgroup.Group
	for id, w := range windows {
		g.Go(func() error {
			w.Close()
			m.events.Emit(otel.Event{Level: otel.LevelInfo, Kind: otel.KindWindowClose, Comp: "session", Window: id.String()})
			return nil
		})
	}
	_ = g.Wait()
}
