package otel

import (
	"os"
	"sync/atomic"
)

// traceEnabled is set once at package init. Atomic because stores read it
// from their loop goroutines while tests flip it.
var traceEnabled atomic.Bool

func init() {
	traceEnabled.Store(os.Getenv("SCREENSTATE_TRACE") != "")
}

// TraceEnabled reports whether SCREENSTATE_TRACE is set. When true, every
// store emits a dispatch and a reduce event per action.
func TraceEnabled() bool {
	return traceEnabled.Load()
}

// SetTraceEnabled overrides the trace flag. cmd/screenstate wires it to the
// --trace flag; tests use it to exercise the traced path.
func SetTraceEnabled(v bool) {
	traceEnabled.Store(v)
}
