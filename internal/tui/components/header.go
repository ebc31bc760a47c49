package components

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/stemdeck/internal/core"
	"github.com/tessro/stemdeck/internal/tui/styles"
)

// Header displays the loaded track and the group clock.
type Header struct{}

// NewHeader creates a new Header component
func NewHeader() *Header {
	return &Header{}
}

// Render renders the header panel
func (h *Header) Render(track *core.Track, state *core.GroupState, width int) string {
	title := "No track"
	artist := ""
	if track != nil {
		title = track.Title
		artist = track.Artist
	}

	icon := styles.StatusIcon(state != nil && state.AnyPlaying)
	line := icon + " " + styles.Title.Render(title)
	if artist != "" {
		line += "  " + styles.Subtitle.Render(artist)
	}

	var clock, group string
	if state != nil {
		duration := longest(state)
		progressWidth := width - 20
		if progressWidth < 10 {
			progressWidth = 10
		}
		percent := 0.0
		if duration > 0 {
			percent = state.GlobalTime / duration * 100
		}
		clock = fmt.Sprintf("%s %s %s",
			FormatClock(state.GlobalTime),
			styles.ProgressBar(percent, progressWidth),
			FormatClock(duration))
		group = styles.Dim.Render(fmt.Sprintf("%s · %d playing", state.State, state.Playing()))
	}

	return styles.Panel(false).
		Width(width).
		Render(lipgloss.JoinVertical(lipgloss.Left, line, clock, group))
}

func longest(state *core.GroupState) float64 {
	var d float64
	for _, s := range state.Streams {
		if s.Duration > d {
			d = s.Duration
		}
	}
	return d
}

// FormatClock formats seconds as m:ss.
func FormatClock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}
