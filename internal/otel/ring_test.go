package otel

import (
	"sync"
	"testing"

	"github.com/google/go-cmp/cmp"
)

func counts(events []Event) []int {
	out := make([]int, len(events))
	for i, e := range events {
		out[i] = e.Count
	}
	return out
}

func TestRingKeepsNewestEvents(t *testing.T) {
	tests := []struct {
		name   string
		size   int
		pushed int
		want   []int
	}{
		{"empty", 4, 0, nil},
		{"partial", 4, 3, []int{0, 1, 2}},
		{"exactly full", 4, 4, []int{0, 1, 2, 3}},
		{"wrapped", 4, 6, []int{2, 3, 4, 5}},
		{"wrapped twice", 3, 7, []int{4, 5, 6}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r := NewRing(tt.size)
			for i := 0; i < tt.pushed; i++ {
				r.Push(Event{Kind: KindDispatch, Count: i})
			}
			var got []int
			if evs := r.Events(); evs != nil {
				got = counts(evs)
			}
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("(-want +got):\n%s", diff)
			}
		})
	}
}

func TestRingRecent(t *testing.T) {
	r := NewRing(4)
	for i := 0; i < 6; i++ {
		r.Push(Event{Kind: KindReduce, Count: i})
	}
	if diff := cmp.Diff([]int{4, 5}, counts(r.Recent(2))); diff != "" {
		t.Errorf("Recent(2):\n%s", diff)
	}
	if got := r.Recent(100); len(got) != 4 {
		t.Errorf("Recent(100) = %d events, want 4", len(got))
	}
	if r.Recent(0) != nil || r.Recent(-1) != nil {
		t.Error("non-positive n should return nil")
	}
}

func TestRingTrailPerWindow(t *testing.T) {
	r := NewRing(8)
	r.Push(Event{Kind: KindDispatch, Window: "a", Action: "theme.ViewDidLoad", Count: 1})
	r.Push(Event{Kind: KindDispatch, Window: "b", Action: "microsurvey.CloseSurvey", Count: 2})
	r.Push(Event{Kind: KindReduce, Window: "a", Action: "theme.ViewDidLoad", Count: 3})
	r.Push(Event{Kind: KindStaleAction, Window: "a", Count: 4})

	if diff := cmp.Diff([]int{1, 3, 4}, counts(r.Trail("a", 0))); diff != "" {
		t.Errorf("full trail:\n%s", diff)
	}
	if diff := cmp.Diff([]int{3, 4}, counts(r.Trail("a", 2))); diff != "" {
		t.Errorf("trail of 2:\n%s", diff)
	}
	if r.Trail("closed-window", 5) != nil {
		t.Error("unknown window should have no trail")
	}
}

func TestRingCountersSurviveEviction(t *testing.T) {
	r := NewRing(2)
	r.Push(Event{Kind: KindWindowOpen, Window: "a"})
	r.Push(Event{Kind: KindStaleAction, Window: "a"})
	r.Push(Event{Kind: KindStaleAction, Window: "b"})
	r.Push(Event{Kind: KindStaleAction})

	want := map[EventKind]int{KindWindowOpen: 1, KindStaleAction: 3}
	if diff := cmp.Diff(want, r.Counts()); diff != "" {
		t.Errorf("counts (-want +got):\n%s", diff)
	}
	if r.WindowCount("a") != 2 || r.WindowCount("b") != 1 {
		t.Errorf("window counts a=%d b=%d", r.WindowCount("a"), r.WindowCount("b"))
	}
	if r.Len() != 2 || r.Cap() != 2 {
		t.Errorf("len/cap = %d/%d", r.Len(), r.Cap())
	}
	if r.Trail("a", 0) != nil {
		t.Error("evicted events should not appear in the trail")
	}
}

func TestRingCopiesExtra(t *testing.T) {
	r := NewRing(2)
	extra := map[string]any{"route": "theme-settings"}
	r.Push(Event{Kind: KindPresent, Extra: extra})
	extra["route"] = "wallpaper-selector"

	if got := r.Events()[0].Extra["route"]; got != "theme-settings" {
		t.Errorf("extra aliased: %v", got)
	}
}

func TestNewRingDefaultSize(t *testing.T) {
	if got := NewRing(0).Cap(); got != DefaultRingSize {
		t.Errorf("Cap = %d, want %d", got, DefaultRingSize)
	}
}

func TestRingConcurrentUse(t *testing.T) {
	r := NewRing(64)
	var wg sync.WaitGroup
	for i := 0; i < 4; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			for j := 0; j < 100; j++ {
				r.Push(Event{Kind: KindDispatch, Window: "w"})
			}
		}()
		go func() {
			defer wg.Done()
			for j := 0; j < 50; j++ {
				_ = r.Recent(10)
				_ = r.Trail("w", 5)
				_ = r.Counts()
			}
		}()
	}
	wg.Wait()
	if got := r.Counts()[KindDispatch]; got != 400 {
		t.Errorf("dispatch count = %d, want 400", got)
	}
}
