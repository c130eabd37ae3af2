package redux

import (
	"context"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"go.uber.org/goleak"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/otel"
)

func TestMain(m *testing.M) {
	goleak.VerifyTestMain(m)
}

// counter is a minimal feature state used across these tests.
type counter struct {
	N   int
	Log []string
}

type inc struct {
	ActionMeta
	By int
}

type tag struct {
	ActionMeta
	Name string
}

type unknown struct{ ActionMeta }

func reduceCounter(s counter, a Action) counter {
	switch a := a.(type) {
	case inc:
		return counter{N: s.N + a.By, Log: append(append([]string(nil), s.Log...), "inc")}
	case tag:
		return counter{N: s.N, Log: append(append([]string(nil), s.Log...), a.Name)}
	}
	return s
}

func newCounterStore(t *testing.T, mws ...Middleware[counter]) *Store[counter] {
	t.Helper()
	s := NewStore(counter{}, reduceCounter, mws, Options{Name: "counter"})
	t.Cleanup(s.Close)
	return s
}

func TestDispatchAppliesReducer(t *testing.T) {
	s := newCounterStore(t)

	s.Dispatch(inc{By: 2})
	s.Dispatch(inc{By: 3})
	s.Flush()

	if got := s.State().N; got != 5 {
		t.Errorf("N = %d, want 5", got)
	}
	if st := s.Stats(); st.Dispatched != 2 || st.Processed != 2 {
		t.Errorf("stats = %+v", st)
	}
}

func TestUnknownActionIsIdentity(t *testing.T) {
	s := newCounterStore(t)
	s.Dispatch(inc{By: 1})
	s.Flush()
	before := s.State()

	s.Dispatch(unknown{})
	s.Flush()

	after := s.State()
	if after.N != before.N || len(after.Log) != len(before.Log) {
		t.Errorf("unknown action changed state: %+v -> %+v", before, after)
	}
}

func TestReentrantDispatchIsQueuedFIFO(t *testing.T) {
	var inReducer atomic.Bool
	var reentered atomic.Bool

	reducer := func(s counter, a Action) counter {
		if !inReducer.CompareAndSwap(false, true) {
			reentered.Store(true)
		}
		defer inReducer.Store(false)
		return reduceCounter(s, a)
	}

	// A fans out to B and C; B fans out to D. Recursive dispatch would give
	// B, D, C, A; the queue must give A, B, C, D.
	mw := func(_ counter, a Action, d Dispatcher) {
		tg, ok := a.(tag)
		if !ok {
			return
		}
		switch tg.Name {
		case "A":
			d.Dispatch(tag{Name: "B"})
			d.Dispatch(tag{Name: "C"})
		case "B":
			d.Dispatch(tag{Name: "D"})
		}
	}

	s := NewStore(counter{}, reducer, []Middleware[counter]{mw}, Options{})
	defer s.Close()

	s.Dispatch(tag{Name: "A"})
	s.Flush()

	got := s.State().Log
	want := []string{"A", "B", "C", "D"}
	if len(got) != len(want) {
		t.Fatalf("log = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("log = %v, want %v", got, want)
		}
	}
	if reentered.Load() {
		t.Error("reducer was re-entered")
	}
}

func TestMiddlewareRunsInOrderBeforeReducer(t *testing.T) {
	var mu sync.Mutex
	var calls []string
	record := func(name string) Middleware[counter] {
		return func(s counter, a Action, _ Dispatcher) {
			mu.Lock()
			defer mu.Unlock()
			// Middleware sees the state before this action is reduced.
			if s.N != 0 {
				calls = append(calls, name+":late")
				return
			}
			calls = append(calls, name)
		}
	}

	s := newCounterStore(t, record("first"), record("second"), record("third"))
	s.Dispatch(inc{By: 1})
	s.Flush()

	mu.Lock()
	defer mu.Unlock()
	want := []string{"first", "second", "third"}
	if len(calls) != len(want) {
		t.Fatalf("calls = %v, want %v", calls, want)
	}
	for i := range want {
		if calls[i] != want[i] {
			t.Errorf("calls[%d] = %q, want %q", i, calls[i], want[i])
		}
	}
}

func TestSubscribersObserveOrderedStates(t *testing.T) {
	s := newCounterStore(t)

	var mu sync.Mutex
	var seen []int
	s.Subscribe(func(c counter) {
		mu.Lock()
		seen = append(seen, c.N)
		mu.Unlock()
	})

	const n = 50
	for i := 0; i < n; i++ {
		s.Dispatch(inc{By: 1})
	}
	s.Flush()

	mu.Lock()
	defer mu.Unlock()
	if len(seen) != n {
		t.Fatalf("saw %d states, want %d", len(seen), n)
	}
	for i, v := range seen {
		if v != i+1 {
			t.Fatalf("seen[%d] = %d, want %d", i, v, i+1)
		}
	}
}

func TestConcurrentDispatchIsSerialized(t *testing.T) {
	s := newCounterStore(t)

	var mu sync.Mutex
	last := 0
	monotonic := true
	s.Subscribe(func(c counter) {
		mu.Lock()
		if c.N != last+1 {
			monotonic = false
		}
		last = c.N
		mu.Unlock()
	})

	var wg sync.WaitGroup
	const workers, each = 8, 100
	for w := 0; w < workers; w++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for i := 0; i < each; i++ {
				s.Dispatch(inc{By: 1})
			}
		}()
	}
	wg.Wait()
	s.Flush()

	if got := s.State().N; got != workers*each {
		t.Errorf("N = %d, want %d", got, workers*each)
	}
	mu.Lock()
	defer mu.Unlock()
	if !monotonic {
		t.Error("subscriber observed a skipped or repeated state")
	}
}

func TestUnsubscribe(t *testing.T) {
	s := newCounterStore(t)

	var calls atomic.Int32
	id := s.Subscribe(func(counter) { calls.Add(1) })

	s.Dispatch(inc{By: 1})
	s.Flush()
	s.Unsubscribe(id)
	s.Dispatch(inc{By: 1})
	s.Flush()

	if got := calls.Load(); got != 1 {
		t.Errorf("calls = %d, want 1", got)
	}
}

func TestEffectDispatchesFollowUp(t *testing.T) {
	mw := func(_ counter, a Action, d Dispatcher) {
		if tg, ok := a.(tag); ok && tg.Name == "load" {
			d.Go(func(ctx context.Context) {
				select {
				case <-ctx.Done():
					return
				case <-time.After(20 * time.Millisecond):
				}
				d.Dispatch(tag{Name: "loaded"})
			})
		}
	}
	s := newCounterStore(t, mw)

	s.Dispatch(tag{Name: "load"})
	s.Flush()

	log := s.State().Log
	if len(log) != 2 || log[1] != "loaded" {
		t.Errorf("log = %v, want [load loaded]", log)
	}
}

func TestCloseCancelsEffectsAndDropsLateDispatch(t *testing.T) {
	started := make(chan struct{})
	cancelled := make(chan struct{})

	mw := func(_ counter, a Action, d Dispatcher) {
		if _, ok := a.(tag); !ok {
			return
		}
		d.Go(func(ctx context.Context) {
			close(started)
			<-ctx.Done()
			close(cancelled)
			d.Dispatch(inc{By: 100}) // stale; store is gone
		})
	}
	store := NewStore(counter{}, reduceCounter, []Middleware[counter]{mw}, Options{})

	store.Dispatch(tag{Name: "slow"})
	<-started
	store.Close()

	select {
	case <-cancelled:
	default:
		t.Fatal("Close returned before the effect observed cancellation")
	}
	if got := store.State().N; got != 0 {
		t.Errorf("stale dispatch applied: N = %d", got)
	}
	if store.Stats().Dropped != 1 {
		t.Errorf("dropped = %d, want 1", store.Stats().Dropped)
	}

	store.Dispatch(inc{By: 1})
	store.Flush() // returns immediately after Close
	store.Close() // idempotent
	if store.State().N != 0 {
		t.Error("dispatch after Close should be ignored")
	}
}

func TestQueueLimitDropsOverflow(t *testing.T) {
	entered := make(chan struct{})
	release := make(chan struct{})
	mw := func(_ counter, a Action, _ Dispatcher) {
		if tg, ok := a.(tag); ok && tg.Name == "block" {
			close(entered)
			<-release
		}
	}
	s := NewStore(counter{}, reduceCounter, []Middleware[counter]{mw}, Options{QueueLimit: 2})
	defer s.Close()

	s.Dispatch(tag{Name: "block"})
	<-entered
	s.Dispatch(inc{By: 1})
	s.Dispatch(inc{By: 1})
	s.Dispatch(inc{By: 1}) // over the limit
	close(release)
	s.Flush()

	if got := s.State().N; got != 2 {
		t.Errorf("N = %d, want 2", got)
	}
	if got := s.Stats().Dropped; got != 1 {
		t.Errorf("dropped = %d, want 1", got)
	}
}

func TestPanicsAreContained(t *testing.T) {
	var buf logging.Buffer
	ring := otel.NewRing(16)
	events := otel.Discard()
	events.Attach(ring)
	defer events.Close()

	boom := func(_ counter, a Action, _ Dispatcher) {
		if _, ok := a.(inc); ok {
			panic("middleware boom")
		}
	}
	reducer := func(s counter, a Action) counter {
		if tg, ok := a.(tag); ok && tg.Name == "explode" {
			panic("reducer boom")
		}
		return reduceCounter(s, a)
	}
	s := NewStore(counter{}, reducer, []Middleware[counter]{boom}, Options{Name: "counter", Log: &buf, Events: events})
	s.Subscribe(func(c counter) {
		if c.N == 1 {
			panic("subscriber boom")
		}
	})

	s.Dispatch(inc{By: 1})           // middleware + subscriber panic, reducer still runs
	s.Dispatch(tag{Name: "explode"}) // reducer panic, state unchanged
	s.Dispatch(inc{By: 1})
	s.Flush()
	s.Close()

	if got := s.State(); got.N != 2 || len(got.Log) != 2 {
		t.Errorf("state = %+v, want N=2 with two log entries", got)
	}
	if n := buf.Count(logging.Fatal); n != 4 {
		t.Errorf("fatal records = %d, want 4", n)
	}
}

func TestTraceEventsCarryWindowAndAction(t *testing.T) {
	otel.SetTraceEnabled(true)
	defer otel.SetTraceEnabled(false)

	ring := otel.NewRing(16)
	events := otel.Discard()
	events.Attach(ring)

	w := NewWindowUUID()
	s := NewStore(counter{}, reduceCounter, nil, Options{Name: "counter", Events: events})
	s.Dispatch(inc{ActionMeta: Meta(w), By: 1})
	s.Flush()
	s.Close()
	events.Close()

	trail := ring.Trail(w.String(), 0)
	if len(trail) != 2 {
		t.Fatalf("trail = %d events, want dispatch+reduce", len(trail))
	}
	if trail[0].Kind != otel.KindDispatch || trail[1].Kind != otel.KindReduce {
		t.Errorf("kinds = %v, %v", trail[0].Kind, trail[1].Kind)
	}
	if trail[0].Action != "redux.inc" {
		t.Errorf("action = %q, want redux.inc", trail[0].Action)
	}
}

func TestDeterministicReplay(t *testing.T) {
	actions := []Action{inc{By: 1}, tag{Name: "x"}, unknown{}, inc{By: 4}, tag{Name: "y"}}

	run := func() counter {
		s := NewStore(counter{}, reduceCounter, nil, Options{})
		defer s.Close()
		for _, a := range actions {
			s.Dispatch(a)
		}
		s.Flush()
		return s.State()
	}

	a, b := run(), run()
	if a.N != b.N || len(a.Log) != len(b.Log) {
		t.Fatalf("replays differ: %+v vs %+v", a, b)
	}
	for i := range a.Log {
		if a.Log[i] != b.Log[i] {
			t.Fatalf("replays differ at %d: %v vs %v", i, a.Log, b.Log)
		}
	}
}
