package coord

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"github.com/google/go-cmp/cmp"
	"go.uber.org/goleak"

	"github.com/abelbrown/screenstate/internal/microsurvey"
	"github.com/abelbrown/screenstate/internal/qrcode"
	"github.com/abelbrown/screenstate/internal/redux"
	"github.com/abelbrown/screenstate/internal/theme"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// mockPresenter records calls as "+route" / "-route".
type mockPresenter struct {
	mu    sync.Mutex
	calls []string
}

func (m *mockPresenter) Present(r Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "+"+string(r))
}

func (m *mockPresenter) Dismiss(r Route) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.calls = append(m.calls, "-"+string(r))
}

func (m *mockPresenter) get() []string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]string(nil), m.calls...)
}

func TestStack(t *testing.T) {
	s := NewStack()
	if _, ok := s.Pop(); ok {
		t.Fatal("pop on empty stack")
	}
	s.Push(RouteMicrosurvey)
	s.Push(RoutePrivacyNotice)
	if top, _ := s.Peek(); top != RoutePrivacyNotice || s.Len() != 2 {
		t.Errorf("peek = %s len = %d", top, s.Len())
	}
	if r, _ := s.Pop(); r != RoutePrivacyNotice {
		t.Errorf("pop = %s", r)
	}
	s.Clear()
	if !s.IsEmpty() {
		t.Error("Clear left entries")
	}
}

func TestTreeOwnership(t *testing.T) {
	p := &mockPresenter{}
	tree := NewTree(p, TreeOptions{})

	root := tree.Start(RouteBrowser)
	settings, err := tree.Child(root, RouteThemeSettings)
	if err != nil {
		t.Fatal(err)
	}
	wall, err := tree.Child(settings, RouteWallpaper)
	if err != nil {
		t.Fatal(err)
	}
	if err := tree.Push(wall, RoutePrivacyNotice); err != nil {
		t.Fatal(err)
	}

	if parent, ok := tree.Parent(wall); !ok || parent != settings {
		t.Errorf("Parent(wall) = %d, %v", parent, ok)
	}
	if _, ok := tree.Parent(root); ok {
		t.Error("root has a parent")
	}
	if id, ok := tree.Find(RouteWallpaper); !ok || id != wall {
		t.Errorf("Find = %d, %v", id, ok)
	}

	if err := tree.Remove(settings); err != nil {
		t.Fatal(err)
	}
	want := []string{
		"+browser", "+theme-settings", "+wallpaper", "+privacy-notice",
		"-privacy-notice", "-wallpaper", "-theme-settings",
	}
	if diff := cmp.Diff(want, p.get()); diff != "" {
		t.Errorf("presenter calls (-want +got):\n%s", diff)
	}
	if tree.Len() != 1 {
		t.Errorf("Len = %d, want 1", tree.Len())
	}
	c, _ := tree.Get(root)
	if len(c.Children) != 0 {
		t.Errorf("root still lists children %v", c.Children)
	}

	if _, err := tree.Child(wall, RouteQRCode); !errors.Is(err, ErrUnknownCoordinator) {
		t.Errorf("Child of removed: %v", err)
	}
	if err := tree.Remove(wall); !errors.Is(err, ErrUnknownCoordinator) {
		t.Errorf("Remove removed: %v", err)
	}
}

func TestTreePop(t *testing.T) {
	p := &mockPresenter{}
	tree := NewTree(p, TreeOptions{})
	root := tree.Start(RouteBrowser)
	_ = tree.Push(root, RouteQRCode)

	if r, ok := tree.Pop(root); !ok || r != RouteQRCode {
		t.Errorf("Pop = %s, %v", r, ok)
	}
	if _, ok := tree.Pop(root); ok {
		t.Error("Pop on empty stack")
	}
	if diff := cmp.Diff([]string{"+browser", "+qrcode", "-qrcode"}, p.get()); diff != "" {
		t.Errorf("(-want +got):\n%s", diff)
	}
}

func TestMicrosurveyBinding(t *testing.T) {
	w := redux.NewWindowUUID()
	m := redux.Meta(w)
	s := redux.NewStore(microsurvey.NewState(w), microsurvey.Reduce, nil, redux.Options{})
	defer s.Close()

	p := &mockPresenter{}
	tree := NewTree(p, TreeOptions{})
	root := tree.Start(RouteBrowser)

	b, err := BindMicrosurvey(tree, root, s)
	if err != nil {
		t.Fatal(err)
	}
	defer b.Stop()

	s.Dispatch(microsurvey.SelectOption{ActionMeta: m, Option: "a"})
	s.Dispatch(microsurvey.NavigateToPrivacyNotice{m})
	s.Dispatch(microsurvey.SelectOption{ActionMeta: m, Option: "b"})
	s.Dispatch(microsurvey.DismissSurvey{m})
	s.Dispatch(microsurvey.NavigateToPrivacyNotice{m})
	s.Flush()

	want := []string{"+browser", "+microsurvey", "+privacy-notice", "-privacy-notice", "-microsurvey"}
	if diff := cmp.Diff(want, p.get()); diff != "" {
		t.Errorf("presenter calls (-want +got):\n%s", diff)
	}
	if _, ok := tree.Get(b.Child()); ok {
		t.Error("survey coordinator not removed")
	}
}

func TestQRCodeBinding(t *testing.T) {
	w := redux.NewWindowUUID()
	m := redux.Meta(w)
	s := redux.NewStore(qrcode.NewState(w), qrcode.Reduce, nil, redux.Options{})
	defer s.Close()

	p := &mockPresenter{}
	tree := NewTree(p, TreeOptions{})
	root := tree.Start(RouteBrowser)

	var opened []string
	b, err := BindQRCode(tree, root, s, func(u string) { opened = append(opened, u) })
	if err != nil {
		t.Fatal(err)
	}
	defer b.Stop()

	s.Dispatch(qrcode.CodeScanned{ActionMeta: m, Text: "not a url"})
	s.Dispatch(qrcode.CodeScanned{ActionMeta: m, Text: "https://example.com"})
	s.Dispatch(qrcode.CodeScanned{ActionMeta: m, Text: "https://example.org"})
	s.Flush()

	if diff := cmp.Diff([]string{"https://example.com"}, opened); diff != "" {
		t.Errorf("opened (-want +got):\n%s", diff)
	}
	if diff := cmp.Diff([]string{"+browser", "+qrcode", "-qrcode"}, p.get()); diff != "" {
		t.Errorf("presenter calls (-want +got):\n%s", diff)
	}
}

func TestBindUnknownParent(t *testing.T) {
	w := redux.NewWindowUUID()
	s := redux.NewStore(qrcode.NewState(w), qrcode.Reduce, nil, redux.Options{})
	defer s.Close()

	if _, err := BindQRCode(NewTree(nil, TreeOptions{}), 42, s, nil); !errors.Is(err, ErrUnknownCoordinator) {
		t.Errorf("got %v", err)
	}
}

type actionSink struct {
	mu      sync.Mutex
	actions []redux.Action
}

func (a *actionSink) Dispatch(x redux.Action) {
	a.mu.Lock()
	defer a.mu.Unlock()
	a.actions = append(a.actions, x)
}

func (a *actionSink) values() []float64 {
	a.mu.Lock()
	defer a.mu.Unlock()
	var out []float64
	for _, x := range a.actions {
		out = append(out, x.(theme.SystemBrightnessChanged).Value)
	}
	return out
}

func TestBrightnessWatcher(t *testing.T) {
	var step atomic.Int32
	samples := []float64{0.5, 0.505, 0.8, 0.8}
	source := func() float64 {
		i := int(step.Add(1)) - 1
		if i >= len(samples) {
			i = len(samples) - 1
		}
		return samples[i]
	}

	sink := &actionSink{}
	w := NewBrightnessWatcher(redux.NewWindowUUID(), source, sink, time.Millisecond)

	ctx, cancel := context.WithCancel(context.Background())
	w.Start(ctx)

	deadline := time.Now().Add(2 * time.Second)
	for step.Load() < int32(len(samples)) && time.Now().Before(deadline) {
		time.Sleep(time.Millisecond)
	}
	cancel()
	w.Wait()

	if diff := cmp.Diff([]float64{0.5, 0.8}, sink.values()); diff != "" {
		t.Errorf("dispatched (-want +got):\n%s", diff)
	}
}

func TestBrightnessWatcherWithoutSource(t *testing.T) {
	w := NewBrightnessWatcher(redux.NewWindowUUID(), nil, &actionSink{}, 0)
	w.Start(context.Background())
	w.Wait()
}
