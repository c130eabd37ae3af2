package theme

import (
	"errors"
	"fmt"
	"strconv"
	"sync"

	"github.com/abelbrown/screenstate/internal/store"
)

// Preference keys.
const (
	PrefUseSystemAppearance = "theme.use_system_appearance"
	PrefAutomaticBrightness = "theme.automatic_brightness"
	PrefManualTheme         = "theme.manual"
	PrefBrightnessThreshold = "theme.brightness_threshold"
)

// PrefStore is the subset of *store.Store the manager needs.
type PrefStore interface {
	Pref(key string) (string, error)
	SetPref(key, value string) error
}

// BrightnessSource reports the current screen brightness in [0,1].
type BrightnessSource func() float64

// PreferenceManager is the Manager backed by persisted preferences.
type PreferenceManager struct {
	mu         sync.Mutex // serializes read-modify-write of prefs
	prefs      PrefStore
	brightness BrightnessSource
	defaults   Values
}

// NewPreferenceManager creates a manager. brightness may be nil, in which
// case the default SystemBrightness is reported.
func NewPreferenceManager(prefs PrefStore, brightness BrightnessSource, defaults Values) *PreferenceManager {
	return &PreferenceManager{prefs: prefs, brightness: brightness, defaults: defaults}
}

// Values implements Manager.
func (m *PreferenceManager) Values() (Values, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	v := m.defaults
	var err error
	if v.UseSystemAppearance, err = m.boolPref(PrefUseSystemAppearance, v.UseSystemAppearance); err != nil {
		return Values{}, err
	}
	if v.AutomaticBrightness, err = m.boolPref(PrefAutomaticBrightness, v.AutomaticBrightness); err != nil {
		return Values{}, err
	}
	if v.UserBrightnessThreshold, err = m.floatPref(PrefBrightnessThreshold, v.UserBrightnessThreshold); err != nil {
		return Values{}, err
	}

	raw, err := m.prefs.Pref(PrefManualTheme)
	switch {
	case errors.Is(err, store.ErrNotFound):
	case err != nil:
		return Values{}, err
	default:
		if v.ManualTheme, err = ParseType(raw); err != nil {
			return Values{}, err
		}
	}

	if m.brightness != nil {
		v.SystemBrightness = clamp01(m.brightness())
	}
	return v, nil
}

// SetSystemTheme implements Manager.
func (m *PreferenceManager) SetSystemTheme(enabled bool) error {
	return m.set(PrefUseSystemAppearance, strconv.FormatBool(enabled))
}

// SetAutomaticBrightness implements Manager.
func (m *PreferenceManager) SetAutomaticBrightness(enabled bool) error {
	return m.set(PrefAutomaticBrightness, strconv.FormatBool(enabled))
}

// SetManualTheme implements Manager.
func (m *PreferenceManager) SetManualTheme(t Type) error {
	parsed, err := ParseType(string(t))
	if err != nil {
		return err
	}
	return m.set(PrefManualTheme, string(parsed))
}

// SetUserBrightness implements Manager. The value is clamped to [0,1].
func (m *PreferenceManager) SetUserBrightness(v float64) error {
	return m.set(PrefBrightnessThreshold, strconv.FormatFloat(clamp01(v), 'f', -1, 64))
}

func (m *PreferenceManager) set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.prefs.SetPref(key, value)
}

func (m *PreferenceManager) boolPref(key string, def bool) (bool, error) {
	raw, err := m.prefs.Pref(key)
	if errors.Is(err, store.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	b, err := strconv.ParseBool(raw)
	if err != nil {
		return def, fmt.Errorf("pref %s: %w", key, err)
	}
	return b, nil
}

func (m *PreferenceManager) floatPref(key string, def float64) (float64, error) {
	raw, err := m.prefs.Pref(key)
	if errors.Is(err, store.ErrNotFound) {
		return def, nil
	}
	if err != nil {
		return def, err
	}
	f, err := strconv.ParseFloat(raw, 64)
	if err != nil {
		return def, fmt.Errorf("pref %s: %w", key, err)
	}
	return clamp01(f), nil
}
