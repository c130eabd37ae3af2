// Package microsurvey holds the state of the survey prompt and the survey
// screen it opens.
package microsurvey

import "github.com/abelbrown/screenstate/internal/redux"

// State is the survey screen for one window.
type State struct {
	Window        redux.WindowUUID
	SurveyID      string
	ShouldDismiss bool
	ShowPrivacy   bool
	Selected      string
	Submitted     bool
}

// NewState returns the initial state for a window.
func NewState(w redux.WindowUUID) State {
	return State{Window: w}
}

// SurveyDidAppear is dispatched when the survey is shown.
type SurveyDidAppear struct {
	redux.ActionMeta
	SurveyID string
}

type DismissSurvey struct{ redux.ActionMeta }

type NavigateToPrivacyNotice struct{ redux.ActionMeta }

type SelectOption struct {
	redux.ActionMeta
	Option string
}

type SubmitSurvey struct {
	redux.ActionMeta
	SurveyID string
	Option   string
}

// ConfirmationViewed is dispatched once the thank-you view was seen.
type ConfirmationViewed struct{ redux.ActionMeta }

// SurveyResponseRecorded confirms that a response was persisted.
type SurveyResponseRecorded struct {
	redux.ActionMeta
	SurveyID string
}

// Reduce is the microsurvey reducer.
func Reduce(state State, action redux.Action) State {
	if !redux.Reaches(action, state.Window) {
		return state
	}

	next := state
	switch a := action.(type) {
	case SurveyDidAppear:
		next = NewState(state.Window)
		next.SurveyID = a.SurveyID
	case DismissSurvey:
		next.ShouldDismiss = true
		next.ShowPrivacy = false
	case NavigateToPrivacyNotice:
		next.ShowPrivacy = true
		next.ShouldDismiss = false
	case SelectOption:
		if state.Submitted {
			return state
		}
		next.Selected = a.Option
	case SurveyResponseRecorded:
		if a.SurveyID != state.SurveyID {
			return state
		}
		next.Submitted = true
	case ConfirmationViewed:
		if !state.Submitted {
			return state
		}
		next.ShouldDismiss = true
	default:
		return state
	}
	return next
}
