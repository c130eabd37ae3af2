// Package logging is the write-only logging facade used by every screen,
// store and coordinator. Records go to a human readable charmbracelet/log sink
// and, when attached, to the otel JSONL event stream. Logging never fails from
// the caller's point of view: sink errors and panics are swallowed.
package logging

import (
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"sync"
	"time"

	"github.com/charmbracelet/log"

	"github.com/abelbrown/screenstate/internal/otel"
)

// Level is the severity of a record.
type Level int

const (
	Debug Level = iota
	Info
	Warning
	Fatal
)

func (l Level) String() string {
	switch l {
	case Debug:
		return "debug"
	case Info:
		return "info"
	case Warning:
		return "warning"
	case Fatal:
		return "fatal"
	}
	return fmt.Sprintf("level(%d)", int(l))
}

// ParseLevel maps a config string to a Level. Unknown values map to Info.
func ParseLevel(s string) Level {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "debug":
		return Debug
	case "warn", "warning":
		return Warning
	case "fatal", "error":
		return Fatal
	default:
		return Info
	}
}

// Category groups records by subsystem.
type Category string

const (
	CategoryLifecycle   Category = "lifecycle"
	CategoryRedux       Category = "redux"
	CategoryTheme       Category = "theme"
	CategoryCoordinator Category = "coordinator"
	CategoryMicrosurvey Category = "microsurvey"
	CategoryWallpaper   Category = "wallpaper"
	CategoryImages      Category = "images"
	CategoryStorage     Category = "storage"
	CategoryQRCode      Category = "qrcode"
)

// Logger is the facade consumed throughout the module.
type Logger interface {
	Log(message string, level Level, category Category, opts ...Option)
}

// Record is one facade call after options are applied.
type Record struct {
	Message     string
	Level       Level
	Category    Category
	Extra       map[string]string
	Description string
	Report      bool   // forward to crash reporting
	Origin      string // file:line of the caller
}

// Option decorates a Record.
type Option func(*Record)

// WithExtra attaches key/value context.
func WithExtra(extra map[string]string) Option {
	return func(r *Record) {
		if len(extra) == 0 {
			return
		}
		if r.Extra == nil {
			r.Extra = make(map[string]string, len(extra))
		}
		for k, v := range extra {
			r.Extra[k] = v
		}
	}
}

// WithDescription attaches a longer free-text description, usually an error.
func WithDescription(desc string) Option {
	return func(r *Record) { r.Description = desc }
}

// SendToCrashReporter flags the record for the crash reporting transport.
// The transport itself reads flagged events from the otel stream.
func SendToCrashReporter() Option {
	return func(r *Record) { r.Report = true }
}

// newRecord applies opts and resolves the caller skip frames above Log.
func newRecord(message string, level Level, category Category, skip int, opts []Option) Record {
	r := Record{Message: message, Level: level, Category: category}
	for _, opt := range opts {
		opt(&r)
	}
	if _, file, line, ok := runtime.Caller(skip); ok {
		r.Origin = fmt.Sprintf("%s:%d", filepath.Base(file), line)
	}
	return r
}

// Facade is the production Logger.
type Facade struct {
	text   *log.Logger
	events *otel.Logger
	min    Level
}

// New creates a Facade writing text records to w. events may be nil.
func New(w io.Writer, events *otel.Logger, min Level) *Facade {
	text := log.NewWithOptions(w, log.Options{
		ReportTimestamp: true,
		TimeFormat:      time.RFC3339,
		Level:           log.DebugLevel,
	})
	return &Facade{text: text, events: events, min: min}
}

// Log implements Logger.
func (f *Facade) Log(message string, level Level, category Category, opts ...Option) {
	if level < f.min {
		return
	}
	defer func() { _ = recover() }()

	r := newRecord(message, level, category, 2, opts)
	f.writeText(r)
	f.events.Emit(toEvent(r))
}

func (f *Facade) writeText(r Record) {
	keyvals := []any{"category", string(r.Category), "origin", r.Origin}
	if r.Description != "" {
		keyvals = append(keyvals, "description", r.Description)
	}
	for k, v := range r.Extra {
		keyvals = append(keyvals, k, v)
	}
	if r.Report {
		keyvals = append(keyvals, "report", true)
	}

	switch r.Level {
	case Debug:
		f.text.Debug(r.Message, keyvals...)
	case Info:
		f.text.Info(r.Message, keyvals...)
	case Warning:
		f.text.Warn(r.Message, keyvals...)
	default:
		// Fatal records are logged at error level; the facade never exits.
		f.text.Error(r.Message, keyvals...)
	}
}

func toEvent(r Record) otel.Event {
	ev := otel.Event{
		Kind:     otel.KindLog,
		Level:    otelLevel(r.Level),
		Category: string(r.Category),
		Msg:      r.Message,
		Err:      r.Description,
		Origin:   r.Origin,
		Report:   r.Report,
	}
	if len(r.Extra) > 0 {
		ev.Extra = make(map[string]any, len(r.Extra))
		for k, v := range r.Extra {
			ev.Extra[k] = v
		}
	}
	return ev
}

func otelLevel(l Level) otel.Level {
	switch l {
	case Debug:
		return otel.LevelDebug
	case Info:
		return otel.LevelInfo
	case Warning:
		return otel.LevelWarn
	default:
		return otel.LevelFatal
	}
}

// OpenFile opens (creating as needed) today's log file under dir.
func OpenFile(dir string) (*os.File, error) {
	if err := os.MkdirAll(dir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create log directory: %w", err)
	}
	name := fmt.Sprintf("screenstate-%s.log", time.Now().Format("2006-01-02"))
	f, err := os.OpenFile(filepath.Join(dir, name), os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0644)
	if err != nil {
		return nil, fmt.Errorf("failed to open log file: %w", err)
	}
	return f, nil
}

type nop struct{}

func (nop) Log(string, Level, Category, ...Option) {}

// Nop returns a Logger that discards everything.
func Nop() Logger { return nop{} }

// Buffer is an in-memory Logger for tests and the debug overlay.
type Buffer struct {
	mu      sync.Mutex
	records []Record
}

// Log implements Logger.
func (b *Buffer) Log(message string, level Level, category Category, opts ...Option) {
	r := newRecord(message, level, category, 2, opts)
	b.mu.Lock()
	b.records = append(b.records, r)
	b.mu.Unlock()
}

// Records returns a copy of everything logged so far.
func (b *Buffer) Records() []Record {
	b.mu.Lock()
	defer b.mu.Unlock()
	out := make([]Record, len(b.records))
	copy(out, b.records)
	return out
}

// Count returns how many records were logged at level or above.
func (b *Buffer) Count(level Level) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	n := 0
	for _, r := range b.records {
		if r.Level >= level {
			n++
		}
	}
	return n
}
