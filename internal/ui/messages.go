// Package ui provides the Bubble Tea TUI for screenstate.
package ui

import (
	"github.com/abelbrown/screenstate/internal/coord"
	"github.com/abelbrown/screenstate/internal/microsurvey"
	"github.com/abelbrown/screenstate/internal/qrcode"
	"github.com/abelbrown/screenstate/internal/theme"
	"github.com/abelbrown/screenstate/internal/wallpaper"
)

// ThemeUpdated carries a new theme store state.
type ThemeUpdated struct{ State theme.State }

// SurveyUpdated carries a new microsurvey store state.
type SurveyUpdated struct{ State microsurvey.State }

// WallpaperUpdated carries a new wallpaper store state.
type WallpaperUpdated struct{ State wallpaper.State }

// QRCodeUpdated carries a new QR scanner store state.
type QRCodeUpdated struct{ State qrcode.State }

// RoutePresented is sent when a coordinator presents a screen.
type RoutePresented struct{ Route coord.Route }

// RouteDismissed is sent when a coordinator dismisses a screen.
type RouteDismissed struct{ Route coord.Route }

// URLOpened is sent when a scanned URL is handed to the browser.
type URLOpened struct{ URL string }

// NavigationFailed is sent when the navigator could not open or close a screen.
type NavigationFailed struct{ Err error }

// DebugTick refreshes the debug overlay.
type DebugTick struct{}
