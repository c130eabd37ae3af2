package ui

import (
	"sync"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/abelbrown/screenstate/internal/coord"
	"github.com/abelbrown/screenstate/internal/microsurvey"
	"github.com/abelbrown/screenstate/internal/qrcode"
	"github.com/abelbrown/screenstate/internal/redux"
	"github.com/abelbrown/screenstate/internal/session"
	"github.com/abelbrown/screenstate/internal/theme"
	"github.com/abelbrown/screenstate/internal/wallpaper"
)

// Forward subscribes send to every store of w and sends the current states
// once. The returned function unsubscribes. send is usually
// (*tea.Program).Send, which is safe from store goroutines.
func Forward(w *session.Window, send func(tea.Msg)) (stop func()) {
	stops := []func(){
		forward(w.Theme, send, func(s theme.State) tea.Msg { return ThemeUpdated{s} }),
		forward(w.Microsurvey, send, func(s microsurvey.State) tea.Msg { return SurveyUpdated{s} }),
		forward(w.Wallpaper, send, func(s wallpaper.State) tea.Msg { return WallpaperUpdated{s} }),
		forward(w.QRCode, send, func(s qrcode.State) tea.Msg { return QRCodeUpdated{s} }),
	}
	return func() {
		for _, stop := range stops {
			stop()
		}
	}
}

// forward relays st's states through send. The snapshot is read and sent
// under the same lock as notifications, and the store commits a state
// before notifying, so the last message sent carries the newest state.
func forward[S any](st *redux.Store[S], send func(tea.Msg), wrap func(S) tea.Msg) func() {
	var mu sync.Mutex
	id := st.Subscribe(func(s S) {
		mu.Lock()
		defer mu.Unlock()
		send(wrap(s))
	})

	mu.Lock()
	send(wrap(st.State()))
	mu.Unlock()

	return func() { st.Unsubscribe(id) }
}

// Presenter turns coordinator calls into program messages.
type Presenter struct {
	Send func(tea.Msg)
}

func (p Presenter) Present(r coord.Route) { p.Send(RoutePresented{r}) }

func (p Presenter) Dismiss(r coord.Route) { p.Send(RouteDismissed{r}) }
