package wizard

import (
	"fmt"
	"strings"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
)

// TrackChoice is one manifest offered by the picker.
type TrackChoice struct {
	Path    string
	Title   string
	Artist  string
	Streams int
}

// PickerModel is the bubbletea model for the track picker.
type PickerModel struct {
	choices  []TrackChoice
	cursor   int
	selected *TrackChoice
	width    int
	height   int
}

// Styles for track picker
var (
	pickerTitleStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("205"))

	pickerItemStyle = lipgloss.NewStyle().
			PaddingLeft(2)

	pickerSelectedStyle = lipgloss.NewStyle().
				PaddingLeft(2).
				Background(lipgloss.Color("237"))

	pickerInfoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// NewPickerModel creates a new track picker model.
func NewPickerModel(choices []TrackChoice) PickerModel {
	return PickerModel{
		choices: choices,
		width:   80,
		height:  20,
	}
}

// Init initializes the model.
func (m PickerModel) Init() tea.Cmd {
	return nil
}

// Update handles messages.
func (m PickerModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "ctrl+c", "esc", "q":
			return m, tea.Quit

		case "enter", " ":
			if len(m.choices) > 0 && m.cursor < len(m.choices) {
				m.selected = &m.choices[m.cursor]
				return m, tea.Quit
			}

		case "up", "k", "ctrl+p":
			if m.cursor > 0 {
				m.cursor--
			}

		case "down", "j", "ctrl+n":
			if m.cursor < len(m.choices)-1 {
				m.cursor++
			}

		case "home", "g":
			m.cursor = 0

		case "end", "G":
			m.cursor = len(m.choices) - 1
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
	}

	return m, nil
}

// View renders the model.
func (m PickerModel) View() string {
	var b strings.Builder

	b.WriteString(pickerTitleStyle.Render("🎚️ Select Track"))
	b.WriteString("\n\n")

	if len(m.choices) == 0 {
		b.WriteString(pickerInfoStyle.Render("No manifests found"))
		b.WriteString("\n\n")
		b.WriteString(pickerInfoStyle.Render("Create one with 'stemdeck init'."))
	} else {
		for i, c := range m.choices {
			line := c.Title
			if c.Artist != "" {
				line += " - " + c.Artist
			}
			line += " " + pickerInfoStyle.Render(fmt.Sprintf("(%d streams, %s)", c.Streams, c.Path))

			if i == m.cursor {
				b.WriteString(pickerSelectedStyle.Render("▸ " + line))
			} else {
				b.WriteString(pickerItemStyle.Render("  " + line))
			}
			b.WriteString("\n")
		}
	}

	b.WriteString("\n")
	b.WriteString(pickerInfoStyle.Render("↑/↓ navigate • enter select • esc quit"))

	return b.String()
}

// Selected returns the selected track, or nil if none.
func (m PickerModel) Selected() *TrackChoice {
	return m.selected
}

// RunPicker runs the track picker and returns the selected track.
func RunPicker(choices []TrackChoice) (*TrackChoice, error) {
	model := NewPickerModel(choices)
	p := tea.NewProgram(model, tea.WithAltScreen())
	finalModel, err := p.Run()
	if err != nil {
		return nil, err
	}
	return finalModel.(PickerModel).Selected(), nil
}
