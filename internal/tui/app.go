package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tessro/stemdeck/internal/core"
	"github.com/tessro/stemdeck/internal/group"
	"github.com/tessro/stemdeck/internal/session"
	"github.com/tessro/stemdeck/internal/tail"
	"github.com/tessro/stemdeck/internal/tui/components"
	"github.com/tessro/stemdeck/internal/tui/styles"
)

// seekStep is how far h/l move the selected stream.
const seekStep = 5.0

// Model is the main TUI model
type Model struct {
	session     *session.Session
	refreshRate time.Duration
	width       int
	height      int

	// State
	state   *core.GroupState
	notices <-chan group.Notice
	changes <-chan tail.Event
	stop    func()

	// Components
	header    *components.Header
	mixer     *components.Mixer
	eventsLog *components.Events
	formatter *tail.Formatter
	keys      keyMap
	help      help.Model

	// Overlays
	showHelp bool

	// Error handling
	lastError   error
	errorExpiry time.Time

	// Quit flag
	quitting bool
}

// NewModel creates a new TUI model over s. The model subscribes to the
// session's group until it quits.
func NewModel(s *session.Session, refreshRate time.Duration) Model {
	if refreshRate <= 0 {
		refreshRate = 250 * time.Millisecond
	}
	g := s.Group()
	notices, cancel := g.Subscribe()

	ctx, stopWatch := context.WithCancel(context.Background())
	watcher := tail.NewWatcher(g, refreshRate)
	go func() { _ = watcher.Start(ctx) }()

	return Model{
		session:     s,
		refreshRate: refreshRate,
		state:       g.Snapshot(),
		notices:     notices,
		changes:     watcher.Events(),
		stop: func() {
			stopWatch()
			cancel()
		},
		header:    components.NewHeader(),
		mixer:     components.NewMixer(),
		eventsLog: components.NewEvents(),
		formatter: tail.NewFormatter(),
		keys:      defaultKeys(),
		help:      help.New(),
	}
}

// Run shows the TUI until the user quits.
func Run(s *session.Session, refreshRate time.Duration) error {
	m := NewModel(s, refreshRate)
	defer m.stop()
	_, err := tea.NewProgram(m, tea.WithAltScreen()).Run()
	return err
}

// Messages
type tickMsg time.Time
type stateMsg *core.GroupState
type eventMsg tail.Event
type errMsg error

// Commands
func (m Model) tick() tea.Cmd {
	return tea.Tick(m.refreshRate, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func (m Model) fetchState() tea.Cmd {
	return func() tea.Msg {
		return stateMsg(m.session.Group().Snapshot())
	}
}

func (m Model) waitForNotice() tea.Cmd {
	ch := m.notices
	return func() tea.Msg {
		for n := range ch {
			if e, ok := tail.FromNotice(n); ok {
				return eventMsg(e)
			}
		}
		return nil
	}
}

func (m Model) waitForChange() tea.Cmd {
	ch := m.changes
	return func() tea.Msg {
		e, ok := <-ch
		if !ok {
			return nil
		}
		return eventMsg(e)
	}
}

// Init initializes the model
func (m Model) Init() tea.Cmd {
	return tea.Batch(
		m.tick(),
		m.fetchState(),
		m.waitForNotice(),
		m.waitForChange(),
	)
}

// Update handles messages
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		return m.handleKeyPress(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.help.Width = msg.Width
		return m, nil

	case tickMsg:
		return m, tea.Batch(m.tick(), m.fetchState())

	case stateMsg:
		if time.Now().After(m.errorExpiry) {
			m.lastError = nil
		}
		m.state = msg
		return m, nil

	case eventMsg:
		e := tail.Event(msg)
		m.eventsLog.Add(components.EventEntry{Text: m.formatter.Format(e), At: e.Timestamp})
		if e.Type == tail.EventStateChange || e.Type == tail.EventSeek || e.Type == tail.EventError {
			return m, tea.Batch(m.waitForNotice(), m.fetchState())
		}
		return m, m.waitForChange()

	case errMsg:
		m.lastError = msg
		m.errorExpiry = time.Now().Add(5 * time.Second) // Show error for 5 seconds
		return m, nil
	}

	return m, nil
}

func (m Model) handleKeyPress(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	// Help overlay
	if m.showHelp {
		switch msg.String() {
		case "?", "esc":
			m.showHelp = false
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}
		return m, nil
	}

	switch {
	case key.Matches(msg, m.keys.Quit):
		m.quitting = true
		return m, tea.Quit

	case key.Matches(msg, m.keys.Help):
		m.showHelp = true
		return m, nil

	case key.Matches(msg, m.keys.Up):
		m.mixer.SelectPrev()
		return m, nil

	case key.Matches(msg, m.keys.Down):
		m.mixer.SelectNext(len(m.session.Members()))
		return m, nil

	case key.Matches(msg, m.keys.Toggle):
		return m, m.toggle()

	case key.Matches(msg, m.keys.Solo):
		return m, m.withSelected(func(g *group.Group, p core.Player) error {
			g.Solo(p)
			return nil
		})

	case key.Matches(msg, m.keys.StopAll):
		return m, func() tea.Msg {
			m.session.Group().StopAll()
			return stateMsg(m.session.Group().Snapshot())
		}

	case key.Matches(msg, m.keys.Back):
		return m, m.seekBy(-seekStep)

	case key.Matches(msg, m.keys.Forward):
		return m, m.seekBy(seekStep)
	}

	return m, nil
}

func (m Model) selected() (session.Member, bool) {
	members := m.session.Members()
	i := m.mixer.Selected()
	if i < 0 || i >= len(members) {
		return session.Member{}, false
	}
	return members[i], true
}

func (m Model) withSelected(fn func(*group.Group, core.Player) error) tea.Cmd {
	member, ok := m.selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		g := m.session.Group()
		if err := fn(g, member.Handle); err != nil {
			return errMsg(err)
		}
		return stateMsg(g.Snapshot())
	}
}

func (m Model) toggle() tea.Cmd {
	return m.withSelected(func(g *group.Group, p core.Player) error {
		if g.IsPlaying(p) {
			g.Stop(p)
		} else {
			g.Start(p)
		}
		return nil
	})
}

func (m Model) seekBy(delta float64) tea.Cmd {
	member, ok := m.selected()
	if !ok {
		return nil
	}
	return func() tea.Msg {
		t := member.Handle.CurrentTime() + delta
		if t < 0 {
			t = 0
		}
		if err := m.session.Seek(member.ID, t); err != nil {
			return errMsg(err)
		}
		return stateMsg(m.session.Group().Snapshot())
	}
}

// View renders the UI
func (m Model) View() string {
	if m.quitting {
		return ""
	}

	if m.width == 0 {
		return "Loading..."
	}

	if m.showHelp {
		return m.renderHelp()
	}

	header := m.header.Render(m.session.Track, m.state, m.width-2)
	headerHeight := lipgloss.Height(header)
	bodyHeight := m.height - headerHeight - 3
	if bodyHeight < 6 {
		bodyHeight = 6
	}

	leftWidth := m.width * 65 / 100
	rightWidth := m.width - leftWidth - 2

	mixer := m.mixer.Render(m.state, leftWidth-2, bodyHeight, true)
	events := m.eventsLog.Render(rightWidth-2, bodyHeight, false)
	body := lipgloss.JoinHorizontal(lipgloss.Top, mixer, events)

	return lipgloss.JoinVertical(lipgloss.Left, header, body, m.renderStatusBar())
}

func (m Model) renderStatusBar() string {
	status := m.help.ShortHelpView(m.keys.ShortHelp())
	if m.lastError != nil {
		status = styles.Failure.Render("Error: " + m.lastError.Error())
	}

	return lipgloss.NewStyle().
		Width(m.width).
		Padding(0, 1).
		Render(status)
}

func (m Model) renderHelp() string {
	title := styles.Highlight.Render("Stemdeck - Keyboard Shortcuts")
	m.help.ShowAll = true
	body := m.help.View(m.keys)

	return lipgloss.NewStyle().
		Padding(1, 2).
		Render(lipgloss.JoinVertical(lipgloss.Left,
			title,
			"",
			body,
			"",
			styles.Dim.Render("Press ? or Esc to close"),
		))
}
