package theme

import "github.com/abelbrown/screenstate/internal/redux"

// Intents, dispatched by the view.

// ViewDidLoad asks the middleware to load the manager's current values.
type ViewDidLoad struct{ redux.ActionMeta }

type ToggleUseSystemAppearance struct {
	redux.ActionMeta
	Enabled bool
}

type EnableAutomaticBrightness struct {
	redux.ActionMeta
	Enabled bool
}

type SwitchManualTheme struct {
	redux.ActionMeta
	Theme Type
}

type UpdateUserBrightness struct {
	redux.ActionMeta
	Value float64
}

// Confirmations, dispatched by the middleware with what the manager reports.

type ReceivedThemeManagerValues struct {
	redux.ActionMeta
	Values Values
}

type SystemThemeChanged struct {
	redux.ActionMeta
	Enabled bool
}

type AutomaticBrightnessChanged struct {
	redux.ActionMeta
	Enabled bool
}

type ManualThemeChanged struct {
	redux.ActionMeta
	Theme Type
}

type UserBrightnessChanged struct {
	redux.ActionMeta
	Value float64
}

// SystemBrightnessChanged is dispatched by whoever watches the screen
// brightness; it has no intent counterpart.
type SystemBrightnessChanged struct {
	redux.ActionMeta
	Value float64
}
