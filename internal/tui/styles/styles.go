package styles

import (
	"strings"

	catppuccin "github.com/catppuccin/go"
	"github.com/charmbracelet/lipgloss"
)

// Colors, assigned by SetTheme.
var (
	// Primary colors
	Primary   lipgloss.TerminalColor
	Secondary lipgloss.TerminalColor
	Accent    lipgloss.TerminalColor

	// Status colors
	Success lipgloss.TerminalColor
	Warning lipgloss.TerminalColor
	Error   lipgloss.TerminalColor

	// Neutral colors
	Border    lipgloss.TerminalColor
	Text      lipgloss.TerminalColor
	TextMuted lipgloss.TerminalColor
	TextDim   lipgloss.TerminalColor
)

// Text styles
var (
	Title     lipgloss.Style
	Subtitle  lipgloss.Style
	Label     lipgloss.Style
	Highlight lipgloss.Style
	Muted     lipgloss.Style
	Dim       lipgloss.Style
	Playing   lipgloss.Style
	Paused    lipgloss.Style
	Soloed    lipgloss.Style
	Failure   lipgloss.Style
)

// Border styles
var (
	BorderStyle   lipgloss.Style
	FocusedBorder lipgloss.Style
)

func init() {
	SetTheme("auto")
}

// SetTheme switches the palette. "auto" follows the terminal background;
// "dark"/"mocha" and "light"/"latte" pin a catppuccin flavor.
func SetTheme(name string) {
	var light, dark catppuccin.Flavor = catppuccin.Latte, catppuccin.Mocha
	switch strings.ToLower(name) {
	case "dark", "mocha":
		light = catppuccin.Mocha
	case "light", "latte":
		dark = catppuccin.Latte
	}
	pick := func(c func(catppuccin.Flavor) catppuccin.Color) lipgloss.AdaptiveColor {
		return lipgloss.AdaptiveColor{Light: c(light).Hex, Dark: c(dark).Hex}
	}

	Primary = pick(catppuccin.Flavor.Mauve)
	Secondary = pick(catppuccin.Flavor.Teal)
	Accent = pick(catppuccin.Flavor.Peach)
	Success = pick(catppuccin.Flavor.Green)
	Warning = pick(catppuccin.Flavor.Yellow)
	Error = pick(catppuccin.Flavor.Red)
	Border = pick(catppuccin.Flavor.Surface2)
	Text = pick(catppuccin.Flavor.Text)
	TextMuted = pick(catppuccin.Flavor.Subtext0)
	TextDim = pick(catppuccin.Flavor.Overlay0)

	Title = lipgloss.NewStyle().Bold(true).Foreground(Text)
	Subtitle = lipgloss.NewStyle().Foreground(TextMuted)
	Label = lipgloss.NewStyle().Foreground(TextDim)
	Highlight = lipgloss.NewStyle().Bold(true).Foreground(Primary)
	Muted = lipgloss.NewStyle().Foreground(TextMuted)
	Dim = lipgloss.NewStyle().Foreground(TextDim)
	Playing = lipgloss.NewStyle().Foreground(Success)
	Paused = lipgloss.NewStyle().Foreground(Warning)
	Soloed = lipgloss.NewStyle().Bold(true).Foreground(Accent)
	Failure = lipgloss.NewStyle().Foreground(Error)

	BorderStyle = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Border)
	FocusedBorder = lipgloss.NewStyle().
		Border(lipgloss.RoundedBorder()).
		BorderForeground(Primary)
}

// Panel creates a styled panel with optional focus
func Panel(focused bool) lipgloss.Style {
	if focused {
		return FocusedBorder.Padding(0, 1)
	}
	return BorderStyle.Padding(0, 1)
}

// PanelTitle creates a styled panel title
func PanelTitle(title string, focused bool) string {
	style := Label
	if focused {
		style = Highlight
	}
	return style.Render(" " + title + " ")
}

// ProgressBar creates a progress bar string
func ProgressBar(percent float64, width int) string {
	filled := int(percent / 100 * float64(width))
	if filled > width {
		filled = width
	}
	if filled < 0 {
		filled = 0
	}

	filledStyle := lipgloss.NewStyle().Foreground(Primary)
	emptyStyle := lipgloss.NewStyle().Foreground(Border)

	return filledStyle.Render(strings.Repeat("━", filled)) +
		emptyStyle.Render(strings.Repeat("─", width-filled))
}

// StatusIcon returns an icon for playback status
func StatusIcon(playing bool) string {
	if playing {
		return Playing.Render("▶")
	}
	return Dim.Render("■")
}

// MixIcon returns the mute/solo marker for a stream.
func MixIcon(muted, soloed bool) string {
	switch {
	case soloed:
		return Soloed.Render("S")
	case muted:
		return Dim.Render("M")
	default:
		return " "
	}
}
