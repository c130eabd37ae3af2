package coord

import (
	"context"
	"math"
	"sync"
	"time"

	"github.com/abelbrown/screenstate/internal/redux"
	"github.com/abelbrown/screenstate/internal/theme"
)

// brightnessInterval is the default time between brightness samples.
const brightnessInterval = 2 * time.Second

// brightnessEpsilon is the smallest change worth dispatching.
const brightnessEpsilon = 0.01

// dispatcher is satisfied by *redux.Store and *session.Window.
type dispatcher interface {
	Dispatch(redux.Action)
}

// BrightnessWatcher samples the system brightness and dispatches
// SystemBrightnessChanged when it moves.
// Uses context cancellation as the ONLY stop mechanism.
type BrightnessWatcher struct {
	window   redux.WindowUUID
	source   theme.BrightnessSource
	target   dispatcher
	interval time.Duration
	wg       sync.WaitGroup
}

// NewBrightnessWatcher creates a watcher. interval <= 0 uses the default.
func NewBrightnessWatcher(window redux.WindowUUID, source theme.BrightnessSource, target dispatcher, interval time.Duration) *BrightnessWatcher {
	if interval <= 0 {
		interval = brightnessInterval
	}
	return &BrightnessWatcher{window: window, source: source, target: target, interval: interval}
}

// Start samples immediately, then every interval until ctx is cancelled.
func (w *BrightnessWatcher) Start(ctx context.Context) {
	if w.source == nil {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()

		last := math.NaN()
		last = w.sample(last)

		ticker := time.NewTicker(w.interval)
		defer ticker.Stop()

		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				last = w.sample(last)
			}
		}
	}()
}

// Wait blocks until the background goroutine exits.
// Call after canceling the context passed to Start.
func (w *BrightnessWatcher) Wait() {
	w.wg.Wait()
}

func (w *BrightnessWatcher) sample(last float64) float64 {
	v := w.source()
	if !math.IsNaN(last) && math.Abs(v-last) < brightnessEpsilon {
		return last
	}
	w.target.Dispatch(theme.SystemBrightnessChanged{ActionMeta: redux.Meta(w.window), Value: v})
	return v
}
