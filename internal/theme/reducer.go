package theme

import "github.com/abelbrown/screenstate/internal/redux"

// Reduce applies confirmations to the theme settings state. Intents are left
// to the middleware; the screen only changes once the manager confirms.
func Reduce(state State, action redux.Action) State {
	if !redux.Reaches(action, state.Window) {
		return state
	}

	next := state
	switch a := action.(type) {
	case ReceivedThemeManagerValues:
		next.Values = a.Values
	case SystemThemeChanged:
		next.UseSystemAppearance = a.Enabled
	case AutomaticBrightnessChanged:
		next.AutomaticBrightness = a.Enabled
	case ManualThemeChanged:
		next.ManualTheme = a.Theme
	case UserBrightnessChanged:
		next.UserBrightnessThreshold = clamp01(a.Value)
	case SystemBrightnessChanged:
		next.SystemBrightness = clamp01(a.Value)
	default:
		return state
	}
	return next
}
