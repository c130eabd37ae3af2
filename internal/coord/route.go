// Package coord presents and dismisses screens in response to store state.
//
// Coordinators form a tree. A parent owns its children; a child refers to
// its parent only by ID. The view layer is reached through a Presenter.
package coord

// Route names a screen.
type Route string

const (
	RouteBrowser       Route = "browser"
	RouteThemeSettings Route = "theme-settings"
	RouteMicrosurvey   Route = "microsurvey"
	RoutePrivacyNotice Route = "privacy-notice"
	RouteWallpaper     Route = "wallpaper"
	RouteQRCode        Route = "qrcode"
)

// Presenter shows and hides screens. Calls arrive on store goroutines.
type Presenter interface {
	Present(Route)
	Dismiss(Route)
}

// PresenterFunc adapts two functions to Presenter.
type PresenterFunc struct {
	OnPresent func(Route)
	OnDismiss func(Route)
}

func (p PresenterFunc) Present(r Route) {
	if p.OnPresent != nil {
		p.OnPresent(r)
	}
}

func (p PresenterFunc) Dismiss(r Route) {
	if p.OnDismiss != nil {
		p.OnDismiss(r)
	}
}
