// Package theme implements the theme settings screen: its state, actions,
// reducer and the middleware that talks to the theme manager.
package theme

import (
	"errors"
	"fmt"
	"math"
	"strings"

	"github.com/abelbrown/screenstate/internal/redux"
)

// ErrUnknownTheme is returned when parsing an unrecognized theme name.
var ErrUnknownTheme = errors.New("theme: unknown theme")

// Type is a concrete theme.
type Type string

const (
	Light Type = "light"
	Dark  Type = "dark"
)

// ParseType parses "light" or "dark" (case-insensitive).
func ParseType(s string) (Type, error) {
	switch Type(strings.ToLower(strings.TrimSpace(s))) {
	case Light:
		return Light, nil
	case Dark:
		return Dark, nil
	}
	return "", fmt.Errorf("%w: %q", ErrUnknownTheme, s)
}

// Values is the theme manager's view of the user's settings.
type Values struct {
	UseSystemAppearance     bool
	AutomaticBrightness     bool
	ManualTheme             Type
	UserBrightnessThreshold float64 // [0,1]; below it automatic brightness picks Dark
	SystemBrightness        float64 // [0,1]; current screen brightness
}

// DefaultValues are used before anything has been persisted.
func DefaultValues() Values {
	return Values{
		UseSystemAppearance:     true,
		ManualTheme:             Light,
		UserBrightnessThreshold: 0.4,
		SystemBrightness:        1,
	}
}

// Effective resolves which theme should be on screen. systemDark is the
// platform appearance, consulted only when UseSystemAppearance is set.
func (v Values) Effective(systemDark bool) Type {
	switch {
	case v.UseSystemAppearance:
		if systemDark {
			return Dark
		}
		return Light
	case v.AutomaticBrightness:
		if v.SystemBrightness < v.UserBrightnessThreshold {
			return Dark
		}
		return Light
	case v.ManualTheme == "":
		return Light
	default:
		return v.ManualTheme
	}
}

// State is the theme settings screen state for one window.
type State struct {
	Window redux.WindowUUID
	Values
}

// NewState returns the initial state for window.
func NewState(window redux.WindowUUID) State {
	return State{Window: window, Values: DefaultValues()}
}

// ClampBrightness limits a brightness level to [0, 1]. NaN becomes 0.
func ClampBrightness(v float64) float64 {
	return clamp01(v)
}

func clamp01(v float64) float64 {
	switch {
	case math.IsNaN(v), v < 0:
		return 0
	case v > 1:
		return 1
	}
	return v
}
