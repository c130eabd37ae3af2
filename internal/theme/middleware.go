package theme

import (
	"context"
	"fmt"
	"sync"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/redux"
)

// Manager is the external theme service. Setters persist and apply a
// setting; Values reports what is actually in effect afterwards, which may
// differ from what was requested.
type Manager interface {
	Values() (Values, error)
	SetSystemTheme(enabled bool) error
	SetAutomaticBrightness(enabled bool) error
	SetManualTheme(t Type) error
	SetUserBrightness(v float64) error
}

// NewMiddleware returns the theme settings middleware. Every manager call
// runs as a store effect; a failed call is logged and produces no action, so
// the screen keeps its last confirmed state.
//
// Effects hold the handler lock from the manager call through the dispatch
// of its result, so results enter the store queue in the order the manager
// applied them and the last reduced value is the manager's current one.
func NewMiddleware(mgr Manager, log logging.Logger) redux.Middleware[State] {
	if log == nil {
		log = logging.Nop()
	}
	h := &handler{mgr: mgr, log: log}
	return h.handle
}

type handler struct {
	mgr Manager
	log logging.Logger

	mu sync.Mutex // serializes manager round trips
}

func (h *handler) handle(state State, action redux.Action, d redux.Dispatcher) {
	if !redux.Reaches(action, state.Window) {
		return
	}
	meta := redux.Meta(action.Window())

	switch a := action.(type) {
	case ViewDidLoad:
		d.Go(func(ctx context.Context) {
			h.mu.Lock()
			defer h.mu.Unlock()
			vals, ok := h.values(ctx, "load theme values", meta)
			if !ok {
				return
			}
			d.Dispatch(ReceivedThemeManagerValues{ActionMeta: meta, Values: vals})
		})

	case ToggleUseSystemAppearance:
		h.apply(d, meta, "set system theme", func() error { return h.mgr.SetSystemTheme(a.Enabled) },
			func(v Values) redux.Action { return SystemThemeChanged{ActionMeta: meta, Enabled: v.UseSystemAppearance} })

	case EnableAutomaticBrightness:
		h.apply(d, meta, "set automatic brightness", func() error { return h.mgr.SetAutomaticBrightness(a.Enabled) },
			func(v Values) redux.Action { return AutomaticBrightnessChanged{ActionMeta: meta, Enabled: v.AutomaticBrightness} })

	case SwitchManualTheme:
		h.apply(d, meta, "set manual theme", func() error { return h.mgr.SetManualTheme(a.Theme) },
			func(v Values) redux.Action { return ManualThemeChanged{ActionMeta: meta, Theme: v.ManualTheme} })

	case UpdateUserBrightness:
		h.apply(d, meta, "set brightness threshold", func() error { return h.mgr.SetUserBrightness(a.Value) },
			func(v Values) redux.Action { return UserBrightnessChanged{ActionMeta: meta, Value: v.UserBrightnessThreshold} })
	}
}

// apply runs set, re-reads the manager and dispatches confirm(values).
func (h *handler) apply(d redux.Dispatcher, meta redux.ActionMeta, what string, set func() error, confirm func(Values) redux.Action) {
	d.Go(func(ctx context.Context) {
		h.mu.Lock()
		defer h.mu.Unlock()
		if ctx.Err() != nil {
			return
		}
		if err := set(); err != nil {
			h.fail(what, meta, err)
			return
		}
		vals, ok := h.values(ctx, what, meta)
		if !ok {
			return
		}
		d.Dispatch(confirm(vals))
	})
}

func (h *handler) values(ctx context.Context, what string, meta redux.ActionMeta) (Values, bool) {
	if ctx.Err() != nil {
		return Values{}, false
	}
	vals, err := h.mgr.Values()
	if err != nil {
		h.fail(what, meta, fmt.Errorf("read values: %w", err))
		return Values{}, false
	}
	return vals, true
}

func (h *handler) fail(what string, meta redux.ActionMeta, err error) {
	h.log.Log("theme manager call failed: "+what, logging.Warning, logging.CategoryTheme,
		logging.WithDescription(err.Error()),
		logging.WithExtra(map[string]string{"window": meta.WindowUUID.String()}))
}
