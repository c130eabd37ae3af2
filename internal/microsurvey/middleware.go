package microsurvey

import (
	"context"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/redux"
)

// Recorder persists survey telemetry. *store.Store implements it.
type Recorder interface {
	RecordImpression(surveyID string) error
	RecordResponse(surveyID, option string) error
	RecordDismissal(surveyID string) error
}

// NewMiddleware records impressions, responses and dismissals. Only a
// recorded response produces a follow-up action.
func NewMiddleware(rec Recorder, log logging.Logger) redux.Middleware[State] {
	if log == nil {
		log = logging.Nop()
	}

	fail := func(what, surveyID string, err error) {
		log.Log("survey telemetry failed: "+what, logging.Warning, logging.CategoryMicrosurvey,
			logging.WithDescription(err.Error()),
			logging.WithExtra(map[string]string{"survey": surveyID}))
	}

	return func(state State, action redux.Action, d redux.Dispatcher) {
		if !redux.Reaches(action, state.Window) {
			return
		}
		meta := redux.Meta(action.Window())

		switch a := action.(type) {
		case SurveyDidAppear:
			d.Go(func(context.Context) {
				if err := rec.RecordImpression(a.SurveyID); err != nil {
					fail("impression", a.SurveyID, err)
				}
			})

		case SubmitSurvey:
			option := a.Option
			if option == "" {
				option = state.Selected
			}
			d.Go(func(ctx context.Context) {
				if err := rec.RecordResponse(a.SurveyID, option); err != nil {
					fail("response", a.SurveyID, err)
					return
				}
				if ctx.Err() != nil {
					return
				}
				d.Dispatch(SurveyResponseRecorded{ActionMeta: meta, SurveyID: a.SurveyID})
			})

		case DismissSurvey:
			// Dismissing the thank-you view is not a survey dismissal.
			if state.SurveyID == "" || state.Submitted {
				return
			}
			id := state.SurveyID
			d.Go(func(context.Context) {
				if err := rec.RecordDismissal(id); err != nil {
					fail("dismissal", id, err)
				}
			})
		}
	}
}
