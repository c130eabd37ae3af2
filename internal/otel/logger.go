package otel

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
)

// queueSize bounds the events waiting for the writer goroutine.
const queueSize = 4096

// Logger writes events as JSONL from a single writer goroutine. Emit never
// blocks a store loop: when the queue is full the event is dropped and
// charged to its component.
//
// The writer goroutine owns the encoder. gate guards the queue against a
// send after Close; drops has its own lock.
type Logger struct {
	session string
	queue   chan Event
	enc     *json.Encoder
	ring    atomic.Pointer[Ring]

	gate   sync.RWMutex
	closed bool
	done   chan struct{}

	dropMu sync.Mutex
	drops  map[string]uint64
}

// NewLogger starts a Logger writing to w. Close flushes it.
func NewLogger(w io.Writer) *Logger {
	l := &Logger{
		session: uuid.NewString(),
		queue:   make(chan Event, queueSize),
		enc:     json.NewEncoder(w),
		done:    make(chan struct{}),
		drops:   make(map[string]uint64),
	}
	go l.write()
	return l
}

// Discard returns a Logger that keeps events only in an attached Ring.
func Discard() *Logger {
	return NewLogger(io.Discard)
}

func (l *Logger) write() {
	defer close(l.done)
	for e := range l.queue {
		if err := l.enc.Encode(e); err != nil {
			l.drop(e.Comp)
			continue
		}
		if r := l.ring.Load(); r != nil {
			r.Push(e)
		}
	}
}

// Attach mirrors every written event into r. Pass nil to detach.
func (l *Logger) Attach(r *Ring) {
	l.ring.Store(r)
}

// Emit queues e, stamping Time when zero and the run's session id. A nil
// Logger discards events.
func (l *Logger) Emit(e Event) {
	if l == nil {
		return
	}
	if e.Time.IsZero() {
		e.Time = time.Now()
	}
	e.SessionID = l.session

	l.gate.RLock()
	defer l.gate.RUnlock()
	if l.closed {
		l.drop(e.Comp)
		return
	}
	select {
	case l.queue <- e:
	default:
		l.drop(e.Comp)
	}
}

// Info emits an info event for comp.
func (l *Logger) Info(kind EventKind, comp, msg string) {
	l.Emit(Event{Level: LevelInfo, Kind: kind, Comp: comp, Msg: msg})
}

// Error emits an error event for comp. A nil err leaves Err empty.
func (l *Logger) Error(kind EventKind, comp string, err error) {
	e := Event{Level: LevelError, Kind: kind, Comp: comp}
	if err != nil {
		e.Err = err.Error()
	}
	l.Emit(e)
}

func (l *Logger) drop(comp string) {
	if comp == "" {
		comp = "-"
	}
	l.dropMu.Lock()
	l.drops[comp]++
	l.dropMu.Unlock()
}

// Session returns the id stamped on every event of this run.
func (l *Logger) Session() string {
	if l == nil {
		return ""
	}
	return l.session
}

// Drops returns the number of dropped events per component.
func (l *Logger) Drops() map[string]uint64 {
	l.dropMu.Lock()
	defer l.dropMu.Unlock()
	out := make(map[string]uint64, len(l.drops))
	for k, v := range l.drops {
		out[k] = v
	}
	return out
}

// Dropped returns the total number of dropped events.
func (l *Logger) Dropped() uint64 {
	var n uint64
	for _, v := range l.Drops() {
		n += v
	}
	return n
}

// Close writes everything still queued and stops the writer. Events emitted
// afterwards are dropped. Idempotent; a nil Logger is a no-op.
func (l *Logger) Close() {
	if l == nil {
		return
	}
	l.gate.Lock()
	if l.closed {
		l.gate.Unlock()
		return
	}
	l.closed = true
	close(l.queue)
	l.gate.Unlock()
	<-l.done

	if drops := l.Drops(); len(drops) > 0 {
		fmt.Fprintf(os.Stderr, "screenstate: session %s dropped events: %s\n", l.session, formatDrops(drops))
	}
}

func formatDrops(drops map[string]uint64) string {
	comps := make([]string, 0, len(drops))
	for c := range drops {
		comps = append(comps, c)
	}
	sort.Strings(comps)
	parts := make([]string, len(comps))
	for i, c := range comps {
		parts[i] = fmt.Sprintf("%s=%d", c, drops[c])
	}
	return strings.Join(parts, " ")
}
