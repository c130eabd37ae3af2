package microsurvey

import (
	"errors"
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/redux"
	"github.com/abelbrown/screenstate/internal/store"
)

type unrelated struct{ redux.ActionMeta }

func TestDismissSurvey(t *testing.T) {
	w := redux.NewWindowUUID()
	got := Reduce(NewState(w), DismissSurvey{redux.Meta(w)})
	if !got.ShouldDismiss || got.ShowPrivacy {
		t.Errorf("got ShouldDismiss=%v ShowPrivacy=%v, want true/false", got.ShouldDismiss, got.ShowPrivacy)
	}
}

func TestNavigateToPrivacyNotice(t *testing.T) {
	w := redux.NewWindowUUID()
	got := Reduce(NewState(w), NavigateToPrivacyNotice{redux.Meta(w)})
	if !got.ShowPrivacy || got.ShouldDismiss {
		t.Errorf("got ShowPrivacy=%v ShouldDismiss=%v, want true/false", got.ShowPrivacy, got.ShouldDismiss)
	}
}

func TestReduceIdentity(t *testing.T) {
	w := redux.NewWindowUUID()
	s := NewState(w)
	s.SurveyID = "s1"
	s.Selected = "yes"

	for _, a := range []redux.Action{
		unrelated{redux.Meta(w)},
		SubmitSurvey{ActionMeta: redux.Meta(w), SurveyID: "s1", Option: "yes"},
		SurveyResponseRecorded{ActionMeta: redux.Meta(w), SurveyID: "other"},
		ConfirmationViewed{redux.Meta(w)},
		DismissSurvey{redux.Meta(redux.NewWindowUUID())},
	} {
		if diff := cmp.Diff(s, Reduce(s, a)); diff != "" {
			t.Errorf("%s changed state:\n%s", redux.ActionName(a), diff)
		}
	}
}

func TestReduceFlow(t *testing.T) {
	w := redux.NewWindowUUID()
	m := redux.Meta(w)
	seq := []redux.Action{
		SurveyDidAppear{ActionMeta: m, SurveyID: "s1"},
		NavigateToPrivacyNotice{m},
		SelectOption{ActionMeta: m, Option: "satisfied"},
		SurveyResponseRecorded{ActionMeta: m, SurveyID: "s1"},
		SelectOption{ActionMeta: m, Option: "ignored after submit"},
		ConfirmationViewed{m},
	}
	replay := func() State {
		s := NewState(w)
		for _, a := range seq {
			s = Reduce(s, a)
		}
		return s
	}

	want := State{Window: w, SurveyID: "s1", ShouldDismiss: true, Selected: "satisfied", Submitted: true, ShowPrivacy: true}
	first := replay()
	// ConfirmationViewed dismisses without touching ShowPrivacy.
	if diff := cmp.Diff(want, first); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if diff := cmp.Diff(first, replay()); diff != "" {
		t.Errorf("replay differs:\n%s", diff)
	}
}

type fakeRecorder struct {
	mu    sync.Mutex
	calls []string
	err   error
}

func (f *fakeRecorder) add(c string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls = append(f.calls, c)
	return f.err
}

func (f *fakeRecorder) RecordImpression(id string) error { return f.add("impression:" + id) }
func (f *fakeRecorder) RecordResponse(id, opt string) error { return f.add("response:" + id + ":" + opt) }
func (f *fakeRecorder) RecordDismissal(id string) error { return f.add("dismissal:" + id) }

func TestMiddlewareRecordsAndConfirms(t *testing.T) {
	w := redux.NewWindowUUID()
	m := redux.Meta(w)
	fr := &fakeRecorder{}
	mw := NewMiddleware(fr, nil)

	var rec redux.Recorder
	s := NewState(w)
	mw(s, SurveyDidAppear{ActionMeta: m, SurveyID: "s1"}, &rec)
	s = Reduce(s, SurveyDidAppear{ActionMeta: m, SurveyID: "s1"})
	s = Reduce(s, SelectOption{ActionMeta: m, Option: "neutral"})
	mw(s, SubmitSurvey{ActionMeta: m, SurveyID: "s1"}, &rec)

	want := []string{"impression:s1", "response:s1:neutral"}
	if diff := cmp.Diff(want, fr.calls); diff != "" {
		t.Errorf("recorder calls (-want +got):\n%s", diff)
	}
	got := rec.Actions()
	if len(got) != 1 {
		t.Fatalf("dispatched %d actions, want 1", len(got))
	}
	if r, ok := got[0].(SurveyResponseRecorded); !ok || r.SurveyID != "s1" || r.Window() != w {
		t.Errorf("got %#v", got[0])
	}
}

func TestMiddlewareDismissal(t *testing.T) {
	w := redux.NewWindowUUID()
	m := redux.Meta(w)
	fr := &fakeRecorder{}
	mw := NewMiddleware(fr, nil)
	var rec redux.Recorder

	// Nothing shown yet.
	mw(NewState(w), DismissSurvey{m}, &rec)

	s := Reduce(NewState(w), SurveyDidAppear{ActionMeta: m, SurveyID: "s2"})
	mw(s, DismissSurvey{m}, &rec)

	// Closing the confirmation after a response is not a dismissal.
	s.Submitted = true
	mw(s, DismissSurvey{m}, &rec)

	if diff := cmp.Diff([]string{"dismissal:s2"}, fr.calls); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
	if len(rec.Actions()) != 0 {
		t.Error("dismissal must not dispatch")
	}
}

func TestMiddlewareFailureLogsOnly(t *testing.T) {
	w := redux.NewWindowUUID()
	fr := &fakeRecorder{err: errors.New("disk full")}
	var log logging.Buffer
	var rec redux.Recorder

	NewMiddleware(fr, &log)(NewState(w), SubmitSurvey{ActionMeta: redux.Meta(w), SurveyID: "s1", Option: "x"}, &rec)

	if len(rec.Actions()) != 0 {
		t.Error("failed response must not be confirmed")
	}
	if log.Count(logging.Warning) != 1 {
		t.Errorf("warnings = %d, want 1", log.Count(logging.Warning))
	}
}

func TestStoreWithSQLiteRecorder(t *testing.T) {
	st, err := store.Open(":memory:")
	if err != nil {
		t.Fatal(err)
	}
	defer st.Close()

	w := redux.NewWindowUUID()
	m := redux.Meta(w)
	s := redux.NewStore(NewState(w), Reduce, []redux.Middleware[State]{NewMiddleware(st, nil)}, redux.Options{Name: "microsurvey"})
	defer s.Close()

	s.Dispatch(SurveyDidAppear{ActionMeta: m, SurveyID: "print"})
	s.Dispatch(SelectOption{ActionMeta: m, Option: "very satisfied"})
	s.Dispatch(SubmitSurvey{ActionMeta: m, SurveyID: "print"})
	s.Flush()

	if !s.State().Submitted {
		t.Fatal("response not confirmed")
	}
	events, err := st.SurveyEvents("print")
	if err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[1].Kind != store.SurveyResponse || events[1].Option != "very satisfied" {
		t.Errorf("events = %+v", events)
	}
}
