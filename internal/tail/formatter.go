package tail

import (
	"bytes"
	"fmt"
	"strings"
	"text/template"
	"time"
)

// Formatter formats events for output.
type Formatter struct {
	showEmoji     bool
	showTimestamp bool
	template      *template.Template
}

// FormatterOption configures a Formatter.
type FormatterOption func(*Formatter)

// WithEmoji enables emoji output.
func WithEmoji(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showEmoji = enabled
	}
}

// WithTimestamp enables timestamp output.
func WithTimestamp(enabled bool) FormatterOption {
	return func(f *Formatter) {
		f.showTimestamp = enabled
	}
}

// WithTemplate sets a custom format template.
func WithTemplate(tmpl string) FormatterOption {
	return func(f *Formatter) {
		if tmpl != "" {
			t, err := template.New("format").Parse(tmpl)
			if err == nil {
				f.template = t
			}
		}
	}
}

// NewFormatter creates a new formatter with the given options.
func NewFormatter(opts ...FormatterOption) *Formatter {
	f := &Formatter{
		showEmoji:     true,
		showTimestamp: false,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// Format formats an event as a string.
func (f *Formatter) Format(e Event) string {
	if f.template != nil {
		return f.formatTemplate(e)
	}
	return f.formatLine(e)
}

// formatLine formats an event as a simple line.
func (f *Formatter) formatLine(e Event) string {
	var parts []string

	// Timestamp
	if f.showTimestamp {
		parts = append(parts, e.Timestamp.Format("15:04:05"))
	}

	// Emoji
	if f.showEmoji {
		parts = append(parts, eventEmoji(e.Type))
	}

	// Event description
	parts = append(parts, f.eventDescription(e))

	return strings.Join(parts, " ")
}

// formatTemplate formats an event using a custom template.
func (f *Formatter) formatTemplate(e Event) string {
	data := templateData{
		Type:      eventTypeName(e.Type),
		Emoji:     eventEmoji(e.Type),
		Timestamp: e.Timestamp,
		Time:      e.Timestamp.Format("15:04:05"),
		Position:  clock(e.Time),
		From:      e.From,
		To:        e.To,
	}

	if e.Stream != nil {
		data.Stream = e.Stream.Name
		data.Role = e.Stream.Role.String()
	}
	if e.Group != nil {
		data.State = e.Group.State
	}
	if e.Err != nil {
		data.Error = e.Err.Error()
	}

	var buf bytes.Buffer
	if err := f.template.Execute(&buf, data); err != nil {
		return f.formatLine(e)
	}
	return buf.String()
}

type templateData struct {
	Type      string
	Emoji     string
	Timestamp time.Time
	Time      string
	Position  string
	Stream    string
	Role      string
	State     string
	From      string
	To        string
	Error     string
}

// eventDescription returns a human-readable description of the event.
func (f *Formatter) eventDescription(e Event) string {
	name := "stream"
	if e.Stream != nil && e.Stream.Name != "" {
		name = e.Stream.Name
	}

	switch e.Type {
	case EventStreamStart:
		return fmt.Sprintf("Playing: %s at %s", name, clock(e.Time))

	case EventStreamStop:
		return fmt.Sprintf("Stopped: %s at %s", name, clock(e.Time))

	case EventMute:
		return fmt.Sprintf("Muted: %s", name)

	case EventUnmute:
		return fmt.Sprintf("Unmuted: %s", name)

	case EventSolo:
		return fmt.Sprintf("Solo: %s", name)

	case EventUnsolo:
		return fmt.Sprintf("Solo off: %s", name)

	case EventDetach:
		return fmt.Sprintf("Detached: %s", name)

	case EventStateChange:
		return fmt.Sprintf("Group: %s -> %s", e.From, e.To)

	case EventSeek:
		return fmt.Sprintf("Position: %s", clock(e.Time))

	case EventError:
		if e.Err != nil {
			return fmt.Sprintf("Error: %s: %v", name, e.Err)
		}
		return fmt.Sprintf("Error: %s", name)

	default:
		return "Unknown event"
	}
}

// clock formats seconds as m:ss.
func clock(seconds float64) string {
	if seconds < 0 {
		seconds = 0
	}
	s := int(seconds)
	return fmt.Sprintf("%d:%02d", s/60, s%60)
}

// eventEmoji returns an emoji for the event type.
func eventEmoji(t EventType) string {
	switch t {
	case EventStreamStart:
		return "▶️"
	case EventStreamStop:
		return "⏹️"
	case EventMute:
		return "🔇"
	case EventUnmute:
		return "🔊"
	case EventSolo:
		return "🎧"
	case EventUnsolo:
		return "🎚️"
	case EventDetach:
		return "🔌"
	case EventStateChange:
		return "🎛️"
	case EventSeek:
		return "⏩"
	case EventError:
		return "⚠️"
	default:
		return "❓"
	}
}

func (t EventType) String() string { return eventTypeName(t) }

// eventTypeName returns the name of the event type.
func eventTypeName(t EventType) string {
	switch t {
	case EventStreamStart:
		return "stream_start"
	case EventStreamStop:
		return "stream_stop"
	case EventMute:
		return "mute"
	case EventUnmute:
		return "unmute"
	case EventSolo:
		return "solo"
	case EventUnsolo:
		return "unsolo"
	case EventDetach:
		return "detach"
	case EventStateChange:
		return "state_change"
	case EventSeek:
		return "seek"
	case EventError:
		return "error"
	default:
		return "unknown"
	}
}
