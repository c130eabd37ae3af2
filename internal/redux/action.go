package redux

import (
	"fmt"

	"github.com/google/uuid"
)

// WindowUUID identifies one window (browser session) and routes actions to
// that window's stores. The zero value is an unrouted id.
type WindowUUID uuid.UUID

// NewWindowUUID returns a random window id.
func NewWindowUUID() WindowUUID {
	return WindowUUID(uuid.New())
}

// ParseWindowUUID parses the canonical string form.
func ParseWindowUUID(s string) (WindowUUID, error) {
	id, err := uuid.Parse(s)
	if err != nil {
		return WindowUUID{}, fmt.Errorf("parse window uuid: %w", err)
	}
	return WindowUUID(id), nil
}

func (w WindowUUID) String() string {
	return uuid.UUID(w).String()
}

// IsZero reports whether w is the unrouted id.
func (w WindowUUID) IsZero() bool {
	return uuid.UUID(w) == uuid.Nil
}

// Action is an immutable description of an event or intent. Concrete actions
// are value structs; reducers and middleware type-switch on them.
type Action interface {
	Window() WindowUUID
}

// ActionMeta carries the owning window. Embed it in action structs.
type ActionMeta struct {
	WindowUUID WindowUUID
}

// Window implements Action.
func (m ActionMeta) Window() WindowUUID { return m.WindowUUID }

// Meta is shorthand for building the embedded ActionMeta.
func Meta(w WindowUUID) ActionMeta { return ActionMeta{WindowUUID: w} }

// ActionName returns the package-qualified type name of a, e.g.
// "theme.ToggleUseSystemAppearance". Used for traces and logs.
func ActionName(a Action) string {
	if a == nil {
		return "<nil>"
	}
	return fmt.Sprintf("%T", a)
}

// Reaches reports whether a is addressed to the window that owns state.
// Reducers return their input unchanged for actions routed elsewhere.
func Reaches(a Action, window WindowUUID) bool {
	return a != nil && a.Window() == window
}
