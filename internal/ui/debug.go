package ui

import (
	"fmt"
	"strings"
	"time"

	"github.com/abelbrown/screenstate/internal/otel"
)

// debugPanelChrome is the number of terminal lines consumed by DebugPanel's
// border (top + bottom = 2) and vertical padding (top + bottom = 2).
// Must be updated if DebugPanel style changes.
const debugPanelChrome = 4

// debugOverlay renders the debug panel showing store stats and recent events.
// Pure function with no side effects. Returns empty string if ring is nil.
func debugOverlay(ring *otel.Ring, width, height int) string {
	if ring == nil {
		return ""
	}

	stats := ring.Stats()
	recent := ring.Last(20)

	// --- Stats section (keyed lookups, not map iteration) ---
	var lines []string
	lines = append(lines, DebugHeaderStyle.Render("Store Stats"))
	lines = append(lines, fmt.Sprintf("  Actions:    %d dispatched, %d reduced, %d dropped",
		stats[otel.KindDispatch], stats[otel.KindReduce], stats[otel.KindDispatchDrop]))
	lines = append(lines, fmt.Sprintf("  Failures:   %d panics, %d warnings",
		stats[otel.KindStorePanic], countWarnings(ring.Events())))
	lines = append(lines, fmt.Sprintf("  Windows:    %d opened, %d closed, %d stale actions",
		stats[otel.KindWindowOpen], stats[otel.KindWindowClose], stats[otel.KindStaleAction]))
	lines = append(lines, fmt.Sprintf("  Screens:    %d presented, %d dismissed",
		stats[otel.KindPresent], stats[otel.KindDismiss]))
	lines = append(lines, fmt.Sprintf("  Wallpaper:  %d metadata, %d thumbnail batches",
		stats[otel.KindMetadataFetch], stats[otel.KindThumbnail]))
	lines = append(lines, fmt.Sprintf("  Buffer:     %d / %d events", ring.Len(), ring.Cap()))
	lines = append(lines, "")

	if window != "" {
		lines = append(lines, DebugHeaderStyle.Render(fmt.Sprintf("Window %s (%d events)",
			truncateRunes(window, 8), ring.WindowCount(window))))
		for _, e := range ring.Trail(window, trailLen) {
			lines = append(lines, eventLine(e))
		}
		lines = append(lines, "")
	}

	// --- Recent events section ---
	lines = append(lines, DebugHeaderStyle.Render("Recent Events"))
	for _, e := range recent {
		lines = append(lines, eventLine(e))
	}

	// Truncate to fit terminal height (subtract chrome added by DebugPanel border/padding)
	maxHeight := height - debugPanelChrome
	if maxHeight < 1 {
		maxHeight = 1
	}
	if len(lines) > maxHeight {
		lines = lines[:maxHeight]
	}

	panelWidth := 76
	if panelWidth > width-4 {
		panelWidth = width - 4
	}
	if panelWidth < 20 {
		panelWidth = 20
	}

	content := strings.Join(lines, "\n")
	return DebugPanel.Width(panelWidth).Render(content)
}

func eventLine(e otel.Event) string {
	line := fmt.Sprintf("  %6s  %-22s", formatAge(time.Since(e.Time)), string(e.Kind))
	if e.Msg != "" {
		line += "  " + truncateRunes(e.Msg, 40)
	}
	if e.Err != "" {
		line += "  ERR:" + truncateRunes(e.Err, 30)
	}
	if e.Action != "" {
		line += "  " + truncateRunes(e.Action, 36)
	}
	return line
}

// formatAge formats a duration as a compact human string.
// Handles negative durations from clock skew by clamping to "0ms".
func formatAge(d time.Duration) string {
	if d < 0 {
		return "0ms"
	}
	switch {
	case d < time.Second:
		return fmt.Sprintf("%dms", d.Milliseconds())
	case d < time.Minute:
		return fmt.Sprintf("%.1fs", d.Seconds())
	default:
		return fmt.Sprintf("%.0fm", d.Minutes())
	}
}

// debugStatusBar renders the status bar for the debug overlay.
func debugStatusBar(width int) string {
	keys := StatusBarKey.Render("D") + StatusBarText.Render(":close")
	return StatusBar.Width(width).Render("  [DEBUG]  " + keys)
}

// truncateRunes shortens s to at most n runes, marking the cut with "…".
func truncateRunes(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	if n <= 1 {
		return string(r[:n])
	}
	return string(r[:n-1]) + "…"
}

// countWarnings counts log records at warn level or above.
func countWarnings(events []otel.Event) int {
	n := 0
	for _, e := range events {
		if e.Kind != otel.KindLog {
			continue
		}
		switch e.Level {
		case otel.LevelWarn, otel.LevelError, otel.LevelFatal:
			n++
		}
	}
	return n
}
