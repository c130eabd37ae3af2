// Package otel provides structured observability for screenstate.
//
// Events are typed structs serialized as JSONL lines. The Logger writes
// events asynchronously via a buffered channel and background drain goroutine.
// An optional Ring keeps the most recent events in memory, with per-kind and
// per-window totals, so the debug overlay can inspect a live session.
package otel

import (
	"encoding/json"
	"time"
)

// Level defines event severity for filtering.
type Level string

const (
	LevelDebug Level = "debug"
	LevelInfo  Level = "info"
	LevelWarn  Level = "warn"
	LevelError Level = "error"
	LevelFatal Level = "fatal"
)

// EventKind identifies the category of an observability event.
// Dot-delimited: "<subsystem>.<action>".
type EventKind string

const (
	// Store events
	KindDispatch     EventKind = "store.dispatch"
	KindReduce       EventKind = "store.reduce"
	KindDispatchDrop EventKind = "store.drop"
	KindStorePanic   EventKind = "store.panic"
	KindStoreClosed  EventKind = "store.closed"

	// Session events
	KindWindowOpen  EventKind = "session.window_open"
	KindWindowClose EventKind = "session.window_close"
	KindStaleAction EventKind = "session.stale_action"

	// Navigation events
	KindPresent EventKind = "coord.present"
	KindDismiss EventKind = "coord.dismiss"

	// Wallpaper events
	KindMetadataFetch EventKind = "wallpaper.metadata"
	KindThumbnail     EventKind = "wallpaper.thumbnail"

	// Facade log records (internal/logging)
	KindLog EventKind = "log.record"

	// System events
	KindStartup  EventKind = "sys.startup"
	KindShutdown EventKind = "sys.shutdown"
	KindError    EventKind = "sys.error"
)

// Event is the universal observability record. Every field except Kind and
// Time is optional. Serialized as a single JSONL line.
type Event struct {
	Time      time.Time      `json:"t"`
	Level     Level          `json:"level,omitempty"`
	Kind      EventKind      `json:"kind"`
	Comp      string         `json:"comp,omitempty"`   // component: "theme", "coord", "session", "main"
	SessionID string         `json:"session_id,omitempty"`
	Window    string         `json:"window,omitempty"` // owning window UUID
	Action    string         `json:"action,omitempty"` // Go type name of the dispatched action
	Category  string         `json:"category,omitempty"`
	Origin    string         `json:"origin,omitempty"` // file:line of the log call
	Report    bool           `json:"report,omitempty"` // forward to crash reporting
	Dur       time.Duration  `json:"-"`
	DurMs     float64        `json:"dur_ms,omitempty"`
	Count     int            `json:"count,omitempty"`
	Err       string         `json:"err,omitempty"`
	Msg       string         `json:"msg,omitempty"`
	Extra     map[string]any `json:"extra,omitempty"`
}

// MarshalJSON implements json.Marshaler, converting Dur to DurMs.
func (e Event) MarshalJSON() ([]byte, error) {
	type Alias Event
	a := struct {
		Alias
	}{Alias: Alias(e)}
	if e.Dur > 0 {
		a.DurMs = float64(e.Dur) / float64(time.Millisecond)
	}
	return json.Marshal(a)
}
