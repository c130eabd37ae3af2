// Package redux implements the unidirectional state pipeline shared by every
// screen: an Action is dispatched to a Store, the Store runs its middleware,
// then its reducer, replaces its state and notifies subscribers.
//
// # Ordering
//
// Each Store owns one loop goroutine and one FIFO queue. Dispatch only
// appends to the queue, so it is safe from any goroutine, including
// middleware and subscribers running on the loop itself. Re-entrant
// dispatches therefore land behind the action being processed instead of
// recursing into the reducer.
//
// # Effects
//
// Middleware that needs I/O calls Dispatcher.Go and dispatches the result
// when done. Effects are tracked so Flush can wait for them and Close can
// cancel them. Anything an effect dispatches after Close is dropped.
package redux

import (
	"context"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/abelbrown/screenstate/internal/logging"
	"github.com/abelbrown/screenstate/internal/otel"
)

// SubscriptionID identifies a subscriber for Unsubscribe.
type SubscriptionID uint64

// Options configures a Store. The zero value is usable.
type Options struct {
	Name       string         // component name on traces, e.g. "theme"
	Events     *otel.Logger   // optional trace sink
	Log        logging.Logger // optional; defaults to logging.Nop()
	QueueLimit int            // 0 = unbounded
}

// Stats reports action counters since creation.
type Stats struct {
	Dispatched uint64
	Processed  uint64
	Dropped    uint64
}

type subscriber[S any] struct {
	id SubscriptionID
	fn func(S)
}

// queued is either an action or a Flush barrier.
type queued struct {
	action  Action
	barrier chan struct{}
}

// Store owns the canonical state of one feature in one window.
type Store[S any] struct {
	name        string
	events      *otel.Logger
	log         logging.Logger
	limit       int
	reducer     Reducer[S]
	middlewares []Middleware[S]

	mu       sync.Mutex
	settled  *sync.Cond // signalled when inflight drops to zero
	state    S
	queue    []queued
	subs     []subscriber[S]
	nextSub  SubscriptionID
	closed   bool // no new actions or effects
	stopping bool // loop exits once the queue is empty
	inflight int
	started  uint64 // effects ever started

	wake     chan struct{}
	loopDone chan struct{}

	ctx    context.Context
	cancel context.CancelFunc

	closeOnce  sync.Once
	dispatched atomic.Uint64
	processed  atomic.Uint64
	dropped    atomic.Uint64
}

// NewStore creates a Store and starts its loop goroutine. Call Close when
// the owning window goes away.
func NewStore[S any](initial S, reducer Reducer[S], middlewares []Middleware[S], opts Options) *Store[S] {
	if reducer == nil {
		reducer = Identity[S]
	}
	lg := opts.Log
	if lg == nil {
		lg = logging.Nop()
	}
	mws := make([]Middleware[S], 0, len(middlewares))
	for _, mw := range middlewares {
		if mw != nil {
			mws = append(mws, mw)
		}
	}

	ctx, cancel := context.WithCancel(context.Background())
	s := &Store[S]{
		name:        opts.Name,
		events:      opts.Events,
		log:         lg,
		limit:       opts.QueueLimit,
		reducer:     reducer,
		middlewares: mws,
		state:       initial,
		wake:        make(chan struct{}, 1),
		loopDone:    make(chan struct{}),
		ctx:         ctx,
		cancel:      cancel,
	}
	s.settled = sync.NewCond(&s.mu)
	go s.loop()
	return s
}

// Dispatch queues a for processing and returns immediately.
func (s *Store[S]) Dispatch(a Action) {
	if a == nil {
		return
	}

	s.mu.Lock()
	if s.closed || (s.limit > 0 && len(s.queue) >= s.limit) {
		closed := s.closed
		s.mu.Unlock()
		s.drop(a, closed)
		return
	}
	s.queue = append(s.queue, queued{action: a})
	// Emitted under mu so the dispatch event always precedes the reduce event.
	if otel.TraceEnabled() {
		s.events.Emit(otel.Event{
			Level:  otel.LevelDebug,
			Kind:   otel.KindDispatch,
			Comp:   s.name,
			Window: windowString(a),
			Action: ActionName(a),
		})
	}
	s.mu.Unlock()

	s.dispatched.Add(1)
	s.signal()
}

func (s *Store[S]) drop(a Action, closed bool) {
	s.dropped.Add(1)
	reason := "queue full"
	if closed {
		reason = "store closed"
	}
	s.events.Emit(otel.Event{
		Level:  otel.LevelDebug,
		Kind:   otel.KindDispatchDrop,
		Comp:   s.name,
		Window: windowString(a),
		Action: ActionName(a),
		Msg:    reason,
	})
}

// Go runs fn as a tracked side effect. It is a no-op after Close.
func (s *Store[S]) Go(fn func(ctx context.Context)) {
	s.mu.Lock()
	if s.closed {
		s.mu.Unlock()
		return
	}
	s.inflight++
	s.started++
	s.mu.Unlock()

	go func() {
		defer s.effectDone()
		defer s.recoverPanic("effect", nil)
		fn(s.ctx)
	}()
}

func (s *Store[S]) effectDone() {
	s.mu.Lock()
	s.inflight--
	if s.inflight == 0 {
		s.settled.Broadcast()
	}
	s.mu.Unlock()
}

// waitEffects blocks until no effect is running and returns how many
// effects have been started in total.
func (s *Store[S]) waitEffects() uint64 {
	s.mu.Lock()
	defer s.mu.Unlock()
	for s.inflight > 0 {
		s.settled.Wait()
	}
	return s.started
}

// State returns the current state snapshot.
func (s *Store[S]) State() S {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.state
}

// Subscribe registers fn to receive every new state. fn runs on the store
// loop, so it must not call Flush or Close. It is not called with the
// current state; read State() for the initial render.
func (s *Store[S]) Subscribe(fn func(S)) SubscriptionID {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextSub++
	s.subs = append(s.subs, subscriber[S]{id: s.nextSub, fn: fn})
	return s.nextSub
}

// Unsubscribe removes a subscriber. A notification already in flight on the
// loop may still be delivered once.
func (s *Store[S]) Unsubscribe(id SubscriptionID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for i, sub := range s.subs {
		if sub.id == id {
			s.subs = append(s.subs[:i:i], s.subs[i+1:]...)
			return
		}
	}
}

// Flush blocks until every queued action, every running effect and every
// action those effects dispatch has been processed. Returns at once after
// Close. Must not be called from a middleware, reducer or subscriber.
func (s *Store[S]) Flush() {
	for {
		started := s.waitEffects()

		barrier := make(chan struct{})
		s.mu.Lock()
		if s.closed {
			s.mu.Unlock()
			return
		}
		s.queue = append(s.queue, queued{barrier: barrier})
		s.mu.Unlock()
		s.signal()
		<-barrier

		s.mu.Lock()
		quiet := s.inflight == 0 && s.started == started
		s.mu.Unlock()
		if quiet {
			return
		}
	}
}

// Close stops accepting actions, cancels and waits for effects, processes
// whatever is still queued and stops the loop. Idempotent.
func (s *Store[S]) Close() {
	s.closeOnce.Do(func() {
		s.mu.Lock()
		s.closed = true
		s.mu.Unlock()

		s.cancel()
		s.waitEffects()

		s.mu.Lock()
		s.stopping = true
		s.mu.Unlock()
		s.signal()
		<-s.loopDone

		s.events.Emit(otel.Event{
			Level: otel.LevelDebug,
			Kind:  otel.KindStoreClosed,
			Comp:  s.name,
			Count: int(s.processed.Load()),
		})
	})
}

// Stats returns the action counters.
func (s *Store[S]) Stats() Stats {
	return Stats{
		Dispatched: s.dispatched.Load(),
		Processed:  s.processed.Load(),
		Dropped:    s.dropped.Load(),
	}
}

func (s *Store[S]) signal() {
	select {
	case s.wake <- struct{}{}:
	default:
	}
}

func (s *Store[S]) loop() {
	defer close(s.loopDone)
	for {
		item, ok := s.next()
		if !ok {
			return
		}
		if item.barrier != nil {
			close(item.barrier)
			continue
		}
		s.process(item.action)
	}
}

// next pops the queue head, sleeping until work arrives. Returns false once
// stopping is set and the queue is empty.
func (s *Store[S]) next() (queued, bool) {
	for {
		s.mu.Lock()
		if len(s.queue) > 0 {
			item := s.queue[0]
			s.queue[0] = queued{}
			s.queue = s.queue[1:]
			s.mu.Unlock()
			return item, true
		}
		if s.stopping {
			s.mu.Unlock()
			return queued{}, false
		}
		s.mu.Unlock()
		<-s.wake
	}
}

func (s *Store[S]) process(a Action) {
	start := time.Now()
	current := s.State()

	for _, mw := range s.middlewares {
		s.runMiddleware(mw, current, a)
	}

	next, ok := s.reduce(current, a)
	s.processed.Add(1)
	if !ok {
		return
	}

	s.mu.Lock()
	s.state = next
	subs := make([]subscriber[S], len(s.subs))
	copy(subs, s.subs)
	s.mu.Unlock()

	for _, sub := range subs {
		s.notify(sub, next, a)
	}

	if otel.TraceEnabled() {
		s.events.Emit(otel.Event{
			Level:  otel.LevelDebug,
			Kind:   otel.KindReduce,
			Comp:   s.name,
			Window: windowString(a),
			Action: ActionName(a),
			Dur:    time.Since(start),
			Count:  len(subs),
		})
	}
}

func (s *Store[S]) runMiddleware(mw Middleware[S], state S, a Action) {
	defer s.recoverPanic("middleware", a)
	mw(state, a, s)
}

// reduce applies the reducer. A panicking reducer leaves state unchanged.
func (s *Store[S]) reduce(state S, a Action) (next S, ok bool) {
	defer func() {
		if r := recover(); r != nil {
			s.reportPanic("reducer", a, r)
			ok = false
		}
	}()
	return s.reducer(state, a), true
}

func (s *Store[S]) notify(sub subscriber[S], state S, a Action) {
	defer s.recoverPanic("subscriber", a)
	sub.fn(state)
}

func (s *Store[S]) recoverPanic(where string, a Action) {
	if r := recover(); r != nil {
		s.reportPanic(where, a, r)
	}
}

func (s *Store[S]) reportPanic(where string, a Action, r any) {
	action := ""
	if a != nil {
		action = ActionName(a)
	}
	s.events.Emit(otel.Event{
		Level:  otel.LevelError,
		Kind:   otel.KindStorePanic,
		Comp:   s.name,
		Window: windowString(a),
		Action: action,
		Msg:    where,
		Err:    fmt.Sprint(r),
	})
	s.log.Log(fmt.Sprintf("%s panicked in %s store", where, s.name), logging.Fatal, logging.CategoryRedux,
		logging.WithDescription(fmt.Sprint(r)),
		logging.WithExtra(map[string]string{"action": action}),
		logging.SendToCrashReporter())
}

func windowString(a Action) string {
	if a == nil || a.Window().IsZero() {
		return ""
	}
	return a.Window().String()
}
