package otel

import "sync"

// DefaultRingSize is the capacity used when NewRing gets a non-positive size.
const DefaultRingSize = 1024

// Ring keeps the newest events of a session for the debug overlay. Besides
// the window of retained events it keeps running totals per kind and per
// window, so counters stay right after old events are overwritten.
type Ring struct {
	mu      sync.Mutex
	events  []Event // grows to size, then overwritten at next
	next    int
	size    int
	kinds   map[EventKind]int
	windows map[string]int
}

// NewRing returns an empty Ring holding up to size events.
func NewRing(size int) *Ring {
	if size <= 0 {
		size = DefaultRingSize
	}
	return &Ring{
		events:  make([]Event, 0, size),
		size:    size,
		kinds:   make(map[EventKind]int),
		windows: make(map[string]int),
	}
}

// Push records e, replacing the oldest retained event when full. Extra is
// copied so later writes by the emitter are not seen here.
func (r *Ring) Push(e Event) {
	if e.Extra != nil {
		extra := make(map[string]any, len(e.Extra))
		for k, v := range e.Extra {
			extra[k] = v
		}
		e.Extra = extra
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) < r.size {
		r.events = append(r.events, e)
	} else {
		r.events[r.next] = e
		r.next = (r.next + 1) % r.size
	}
	r.kinds[e.Kind]++
	if e.Window != "" {
		r.windows[e.Window]++
	}
}

// ordered returns the retained events oldest first. Caller holds mu.
func (r *Ring) ordered() []Event {
	out := make([]Event, 0, len(r.events))
	out = append(out, r.events[r.next:]...)
	return append(out, r.events[:r.next]...)
}

// Events returns every retained event, oldest first.
func (r *Ring) Events() []Event {
	r.mu.Lock()
	defer r.mu.Unlock()
	if len(r.events) == 0 {
		return nil
	}
	return r.ordered()
}

// Recent returns up to n of the newest events, oldest first.
func (r *Ring) Recent(n int) []Event {
	if n <= 0 {
		return nil
	}
	all := r.Events()
	if n < len(all) {
		all = all[len(all)-n:]
	}
	return all
}

// Trail returns up to n of the newest retained events stamped with window,
// oldest first. n <= 0 returns all of them.
func (r *Ring) Trail(window string, n int) []Event {
	var out []Event
	for _, e := range r.Events() {
		if e.Window == window {
			out = append(out, e)
		}
	}
	if n > 0 && n < len(out) {
		out = out[len(out)-n:]
	}
	return out
}

// Counts returns how many events of each kind were pushed since creation.
func (r *Ring) Counts() map[EventKind]int {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make(map[EventKind]int, len(r.kinds))
	for k, v := range r.kinds {
		out[k] = v
	}
	return out
}

// WindowCount returns how many events stamped with window were pushed.
func (r *Ring) WindowCount(window string) int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.windows[window]
}

// Len returns the number of retained events.
func (r *Ring) Len() int {
	r.mu.Lock()
	defer r.mu.Unlock()
	return len(r.events)
}

// Cap returns the maximum number of retained events.
func (r *Ring) Cap() int {
	return r.size
}
