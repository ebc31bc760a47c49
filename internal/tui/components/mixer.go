package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/stemdeck/internal/core"
	"github.com/tessro/stemdeck/internal/tui/styles"
)

// Mixer lists the streams of a group with their transport and mix state.
type Mixer struct {
	selected int
}

// NewMixer creates a new Mixer component
func NewMixer() *Mixer {
	return &Mixer{}
}

// Selected returns the index of the selected stream.
func (m *Mixer) Selected() int {
	return m.selected
}

// SelectNext moves the selection down, stopping at the last of n streams.
func (m *Mixer) SelectNext(n int) {
	if m.selected < n-1 {
		m.selected++
	}
}

// SelectPrev moves the selection up.
func (m *Mixer) SelectPrev() {
	if m.selected > 0 {
		m.selected--
	}
}

// Render renders the mixer panel
func (m *Mixer) Render(state *core.GroupState, width, height int, focused bool) string {
	title := styles.PanelTitle("Streams", focused)

	var content string
	if state == nil || len(state.Streams) == 0 {
		content = styles.Muted.Render("No streams loaded")
	} else {
		content = m.renderStreams(state.Streams, width-4)
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

func (m *Mixer) renderStreams(streams []core.StreamState, width int) string {
	lines := make([]string, 0, len(streams))

	// cursor (2) + icon (2) + mix marker (2) + name (16) + times (12)
	const overhead = 34
	barWidth := width - overhead
	if barWidth < 8 {
		barWidth = 8
	}

	for i, s := range streams {
		cursor := "  "
		if i == m.selected {
			cursor = styles.Highlight.Render("> ")
		}

		name := truncate(s.Name, 14)
		if s.Role == core.RoleFullTrack {
			name = styles.Title.Render(fmt.Sprintf("%-14s", name))
		} else {
			name = fmt.Sprintf("%-14s", name)
		}
		if !s.Attached {
			lines = append(lines, cursor+styles.Failure.Render("✕ ")+"  "+name+styles.Dim.Render("  detached"))
			continue
		}

		bar := styles.ProgressBar(s.ProgressPercent(), barWidth)
		lines = append(lines, fmt.Sprintf("%s%s %s %s  %s %s",
			cursor,
			styles.StatusIcon(s.Playing),
			styles.MixIcon(s.Muted, s.Soloed),
			name,
			bar,
			styles.Dim.Render(FormatClock(s.Position)+"/"+FormatClock(s.Duration))))
	}

	return lipgloss.JoinVertical(lipgloss.Left, lines...)
}

func truncate(s string, maxLen int) string {
	r := []rune(s)
	if len(r) <= maxLen {
		return s
	}
	if maxLen <= 1 {
		return string(r[:max(maxLen, 0)])
	}
	return string(r[:maxLen-1]) + "…"
}
