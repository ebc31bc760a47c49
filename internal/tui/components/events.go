package components

import (
	"fmt"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/stemdeck/internal/tui/styles"
)

// maxEvents bounds the event log.
const maxEvents = 50

// EventEntry is one formatted line in the event log.
type EventEntry struct {
	Text string
	At   time.Time
}

// Events displays recent group events, newest first.
type Events struct {
	entries []EventEntry
}

// NewEvents creates a new Events component
func NewEvents() *Events {
	return &Events{}
}

// Add prepends an entry, dropping the oldest past the limit.
func (e *Events) Add(entry EventEntry) {
	e.entries = append([]EventEntry{entry}, e.entries...)
	if len(e.entries) > maxEvents {
		e.entries = e.entries[:maxEvents]
	}
}

// Len returns the number of entries.
func (e *Events) Len() int {
	return len(e.entries)
}

// Render renders the events panel
func (e *Events) Render(width, height int, focused bool) string {
	title := styles.PanelTitle("Events", focused)

	var content string
	if len(e.entries) == 0 {
		content = styles.Muted.Render("Nothing yet")
	} else {
		content = e.renderEntries(width-4, height-4)
	}

	panel := styles.Panel(focused).
		Width(width).
		Height(height)

	return panel.Render(lipgloss.JoinVertical(lipgloss.Left,
		title,
		"",
		content,
	))
}

func (e *Events) renderEntries(width, maxLines int) string {
	lines := make([]string, 0, maxLines)
	for i, entry := range e.entries {
		if i >= maxLines {
			break
		}
		ago := formatTimeAgo(entry.At)
		text := truncate(entry.Text, width-len(ago)-1)
		padding := width - lipgloss.Width(text) - len(ago)
		if padding < 1 {
			padding = 1
		}
		lines = append(lines, fmt.Sprintf("%s%*s%s", text, padding, "", styles.Dim.Render(ago)))
	}
	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func formatTimeAgo(t time.Time) string {
	d := time.Since(t)

	if d < time.Minute {
		return "now"
	}
	if d < time.Hour {
		return fmt.Sprintf("%dm", int(d.Minutes()))
	}
	return t.Format("15:04")
}
