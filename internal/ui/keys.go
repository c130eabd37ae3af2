package ui

import (
	"github.com/charmbracelet/bubbles/key"

	"github.com/abelbrown/screenstate/internal/coord"
)

type keyMap struct {
	Quit  key.Binding
	Back  key.Binding
	Help  key.Binding
	Debug key.Binding
	Up    key.Binding
	Down  key.Binding
	Enter key.Binding

	Theme     key.Binding
	Survey    key.Binding
	Wallpaper key.Binding
	Scan      key.Binding

	SystemAppearance key.Binding
	AutoBrightness   key.Binding
	ManualTheme      key.Binding
	Brighter         key.Binding
	Dimmer           key.Binding

	Privacy key.Binding
}

func defaultKeyMap() keyMap {
	return keyMap{
		Quit:  key.NewBinding(key.WithKeys("q", "ctrl+c"), key.WithHelp("q", "quit")),
		Back:  key.NewBinding(key.WithKeys("esc"), key.WithHelp("esc", "back")),
		Help:  key.NewBinding(key.WithKeys("?"), key.WithHelp("?", "help")),
		Debug: key.NewBinding(key.WithKeys("D"), key.WithHelp("D", "debug")),
		Up:    key.NewBinding(key.WithKeys("k", "up"), key.WithHelp("↑/k", "up")),
		Down:  key.NewBinding(key.WithKeys("j", "down"), key.WithHelp("↓/j", "down")),
		Enter: key.NewBinding(key.WithKeys("enter"), key.WithHelp("enter", "choose")),

		Theme:     key.NewBinding(key.WithKeys("t"), key.WithHelp("t", "theme")),
		Survey:    key.NewBinding(key.WithKeys("s"), key.WithHelp("s", "survey")),
		Wallpaper: key.NewBinding(key.WithKeys("w"), key.WithHelp("w", "wallpaper")),
		Scan:      key.NewBinding(key.WithKeys("c"), key.WithHelp("c", "scan code")),

		SystemAppearance: key.NewBinding(key.WithKeys("1"), key.WithHelp("1", "system")),
		AutoBrightness:   key.NewBinding(key.WithKeys("2"), key.WithHelp("2", "auto")),
		ManualTheme:      key.NewBinding(key.WithKeys("3"), key.WithHelp("3", "light/dark")),
		Brighter:         key.NewBinding(key.WithKeys("+", "="), key.WithHelp("+", "threshold up")),
		Dimmer:           key.NewBinding(key.WithKeys("-"), key.WithHelp("-", "threshold down")),

		Privacy: key.NewBinding(key.WithKeys("p"), key.WithHelp("p", "privacy")),
	}
}

// forRoute returns the bindings shown in the help line for r.
func (k keyMap) forRoute(r coord.Route) []key.Binding {
	switch r {
	case coord.RouteThemeSettings:
		return []key.Binding{k.SystemAppearance, k.AutoBrightness, k.ManualTheme, k.Brighter, k.Dimmer, k.Back}
	case coord.RouteMicrosurvey:
		return []key.Binding{k.Up, k.Down, k.Enter, k.Privacy, k.Back}
	case coord.RoutePrivacyNotice:
		return []key.Binding{k.Back}
	case coord.RouteWallpaper:
		return []key.Binding{k.Up, k.Down, k.Enter, k.Back}
	case coord.RouteQRCode:
		return []key.Binding{k.Enter, k.Back}
	}
	return []key.Binding{k.Theme, k.Survey, k.Wallpaper, k.Scan, k.Debug, k.Quit}
}
