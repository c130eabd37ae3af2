package main

import (
	"bufio"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/spf13/cobra"
)

// eventRecord mirrors otel.Event for JSON decoding.
// We decode from JSONL rather than importing otel to keep this
// subcommand usable even if the event schema evolves.
type eventRecord struct {
	Time     time.Time `json:"t"`
	Level    string    `json:"level"`
	Kind     string    `json:"kind"`
	Comp     string    `json:"comp"`
	Window   string    `json:"window"`
	Action   string    `json:"action"`
	Category string    `json:"category"`
	DurMs    float64   `json:"dur_ms"`
	Count    int       `json:"count"`
	Err      string    `json:"err"`
	Msg      string    `json:"msg"`
}

type eventFilter struct {
	kind   string
	level  string
	comp   string
	window string
}

var (
	eventsTail   int
	eventsFollow bool
	eventsJSON   bool
	eventsFilter eventFilter
)

var eventsCmd = &cobra.Command{
	Use:   "events",
	Short: "JSONL event log viewer",
	Args:  cobra.NoArgs,
	RunE:  runEvents,
}

func init() {
	f := eventsCmd.Flags()
	f.IntVarP(&eventsTail, "tail", "n", 50, "Number of recent lines to show")
	f.BoolVarP(&eventsFollow, "follow", "f", false, "Follow mode (like tail -f)")
	f.BoolVar(&eventsJSON, "json", false, "Output raw JSON lines")
	f.StringVar(&eventsFilter.kind, "kind", "", "Filter by event kind prefix (e.g. 'store')")
	f.StringVar(&eventsFilter.level, "level", "", "Minimum level: debug, info, warn, error, fatal")
	f.StringVar(&eventsFilter.comp, "comp", "", "Filter by component name")
	f.StringVar(&eventsFilter.window, "window", "", "Filter by window UUID prefix")
}

// levelRank returns a numeric rank for filtering (higher = more severe).
func levelRank(level string) int {
	switch level {
	case "info":
		return 1
	case "warn":
		return 2
	case "error":
		return 3
	case "fatal":
		return 4
	default:
		return 0
	}
}

func (f eventFilter) match(ev eventRecord) bool {
	if f.kind != "" && !strings.HasPrefix(ev.Kind, f.kind) {
		return false
	}
	if f.level != "" && levelRank(ev.Level) < levelRank(f.level) {
		return false
	}
	if f.comp != "" && ev.Comp != f.comp {
		return false
	}
	if f.window != "" && !strings.HasPrefix(ev.Window, f.window) {
		return false
	}
	return true
}

func formatEvent(ev eventRecord, raw []byte, asJSON bool) string {
	if asJSON {
		return string(raw)
	}
	ts := ev.Time.Format("15:04:05.000")
	lvl := strings.ToUpper(ev.Level)
	if lvl == "" {
		lvl = "?"
	}

	parts := []string{fmt.Sprintf("%s %-5s [%-11s] %-22s", ts, lvl, ev.Comp, ev.Kind)}

	if ev.Action != "" {
		parts = append(parts, ev.Action)
	}
	if ev.Msg != "" {
		parts = append(parts, "- "+ev.Msg)
	}
	if ev.Window != "" {
		parts = append(parts, "win="+truncate(ev.Window, 8))
	}
	if ev.DurMs > 0 {
		parts = append(parts, fmt.Sprintf("(%.*fms)", durPrecision(ev.DurMs), ev.DurMs))
	}
	if ev.Count > 0 {
		parts = append(parts, fmt.Sprintf("n=%d", ev.Count))
	}
	if ev.Err != "" {
		parts = append(parts, "err="+ev.Err)
	}
	return strings.Join(parts, " ")
}

func runEvents(cmd *cobra.Command, args []string) error {
	cfg, err := loadConfig()
	if err != nil {
		return err
	}
	logPath := cfg.EventsPath()
	if logPath == "" {
		return errors.New("event log disabled (log.events_file is empty)")
	}

	f, err := os.Open(logPath)
	if err != nil {
		return fmt.Errorf("event log not found at %s (run screenstate first): %w", logPath, err)
	}
	defer f.Close()

	out := cmd.OutOrStdout()
	for _, l := range readTailLines(f, eventsTail, eventsFilter.match) {
		fmt.Fprintln(out, formatEvent(l.ev, l.raw, eventsJSON))
	}
	if !eventsFollow {
		return nil
	}
	return follow(cmd.Context(), f, out)
}

// follow prints lines appended to f until ctx is done.
func follow(ctx context.Context, f *os.File, out io.Writer) error {
	if ctx == nil {
		ctx = context.Background()
	}
	reader := bufio.NewReader(f)
	for {
		line, err := reader.ReadBytes('\n')
		if err != nil {
			if err != io.EOF {
				return err
			}
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(100 * time.Millisecond):
			}
			continue
		}
		line = trimLine(line)
		if len(line) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(line, &ev) != nil {
			continue
		}
		if eventsFilter.match(ev) {
			fmt.Fprintln(out, formatEvent(ev, line, eventsJSON))
		}
	}
}

type parsedLine struct {
	ev  eventRecord
	raw []byte
}

// readTailLines reads r and returns the last n lines matching the filter.
func readTailLines(r io.Reader, n int, match func(eventRecord) bool) []parsedLine {
	scanner := bufio.NewScanner(r)
	// Allow large lines (some events may have big Extra maps)
	scanner.Buffer(make([]byte, 0, 64*1024), 256*1024)

	var ring []parsedLine
	if n > 0 {
		ring = make([]parsedLine, 0, n)
	}

	for scanner.Scan() {
		raw := scanner.Bytes()
		if len(raw) == 0 {
			continue
		}
		var ev eventRecord
		if json.Unmarshal(raw, &ev) != nil {
			continue
		}
		if !match(ev) {
			continue
		}
		// Make a copy of raw since scanner reuses the buffer
		rawCopy := make([]byte, len(raw))
		copy(rawCopy, raw)

		if len(ring) < n {
			ring = append(ring, parsedLine{ev: ev, raw: rawCopy})
		} else if n > 0 {
			// Shift left
			copy(ring, ring[1:])
			ring[n-1] = parsedLine{ev: ev, raw: rawCopy}
		}
	}

	return ring
}

func trimLine(b []byte) []byte {
	for len(b) > 0 && (b[len(b)-1] == '\n' || b[len(b)-1] == '\r') {
		b = b[:len(b)-1]
	}
	return b
}

func durPrecision(ms float64) int {
	if ms >= 100 {
		return 0
	}
	if ms >= 1 {
		return 1
	}
	return 2
}
