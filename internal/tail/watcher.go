package tail

import (
	"context"
	"time"

	"github.com/tessro/stemdeck/internal/core"
	"github.com/tessro/stemdeck/internal/group"
)

// EventType represents the type of playback event.
type EventType int

const (
	EventStreamStart EventType = iota
	EventStreamStop
	EventMute
	EventUnmute
	EventSolo
	EventUnsolo
	EventDetach
	EventStateChange
	EventSeek
	EventError
)

// Event represents a change in a group.
type Event struct {
	Type      EventType
	Timestamp time.Time
	Stream    *core.StreamState
	Group     *core.GroupState
	From, To  string
	Time      float64
	Err       error
}

// Source is anything that can report a group snapshot.
type Source interface {
	Snapshot() *core.GroupState
}

// Watcher polls a group for stream changes and emits events.
type Watcher struct {
	source   Source
	interval time.Duration
	events   chan Event
	done     chan struct{}
	now      func() time.Time
}

// NewWatcher creates a new state watcher.
func NewWatcher(source Source, interval time.Duration) *Watcher {
	if interval == 0 {
		interval = 250 * time.Millisecond
	}
	return &Watcher{
		source:   source,
		interval: interval,
		events:   make(chan Event, 16),
		done:     make(chan struct{}),
		now:      time.Now,
	}
}

// Events returns the channel of playback events.
func (w *Watcher) Events() <-chan Event {
	return w.events
}

// Start begins polling for state changes. It returns when ctx is done or
// Stop is called, closing the events channel.
func (w *Watcher) Start(ctx context.Context) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()
	defer close(w.events)

	prev := w.source.Snapshot()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-w.done:
			return nil
		case <-ticker.C:
			curr := w.source.Snapshot()
			for _, e := range diffStates(prev, curr, w.now()) {
				select {
				case w.events <- e:
				default:
					// Drop event if channel is full
				}
			}
			prev = curr
		}
	}
}

// Stop stops the watcher.
func (w *Watcher) Stop() {
	close(w.done)
}

// diffStates compares two snapshots and returns detected events, in stream
// order.
func diffStates(prev, curr *core.GroupState, now time.Time) []Event {
	if prev == nil || curr == nil {
		return nil
	}

	before := make(map[string]core.StreamState, len(prev.Streams))
	for _, s := range prev.Streams {
		before[s.Name] = s
	}

	var events []Event
	add := func(t EventType, s core.StreamState) {
		events = append(events, Event{Type: t, Timestamp: now, Stream: &s, Group: curr, Time: s.Position})
	}

	for _, s := range curr.Streams {
		p, ok := before[s.Name]
		if !ok {
			continue
		}
		if p.Attached && !s.Attached {
			add(EventDetach, s)
			continue
		}
		switch {
		case !p.Playing && s.Playing:
			add(EventStreamStart, s)
		case p.Playing && !s.Playing:
			add(EventStreamStop, s)
		}
		switch {
		case !p.Soloed && s.Soloed:
			add(EventSolo, s)
		case p.Soloed && !s.Soloed:
			add(EventUnsolo, s)
		}
		switch {
		case !p.Muted && s.Muted:
			add(EventMute, s)
		case p.Muted && !s.Muted:
			add(EventUnmute, s)
		}
	}

	return events
}

// FromNotice converts a group notice to an event. Drift corrections of the
// clock are not reported.
func FromNotice(n group.Notice) (Event, bool) {
	e := Event{Timestamp: n.Timestamp, Time: n.Time}
	switch n.Kind {
	case group.NoticeState:
		e.Type = EventStateChange
		e.From, e.To = n.From.String(), n.To.String()
	case group.NoticeClock:
		if n.Op == "drift" {
			return Event{}, false
		}
		e.Type = EventSeek
	case group.NoticeError:
		e.Type = EventError
		e.Err = n.Err
		if n.Player != nil {
			e.Stream = &core.StreamState{Name: playerName(n.Player)}
		}
	default:
		return Event{}, false
	}
	return e, true
}

func playerName(p core.Player) string {
	if s, ok := p.(interface{ String() string }); ok {
		return s.String()
	}
	return "stream"
}
