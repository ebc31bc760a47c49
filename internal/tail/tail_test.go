package tail

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/tessro/stemdeck/internal/core"
	"github.com/tessro/stemdeck/internal/group"
)

func snapshot(streams ...core.StreamState) *core.GroupState {
	return &core.GroupState{State: "one-playing", Streams: streams}
}

func TestDiffStates(t *testing.T) {
	now := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	prev := snapshot(
		core.StreamState{Name: "Full mix", Role: core.RoleFullTrack, Attached: true, Muted: true},
		core.StreamState{Name: "Drums", Attached: true, Playing: true},
		core.StreamState{Name: "Bass", Attached: true},
	)
	curr := snapshot(
		core.StreamState{Name: "Full mix", Role: core.RoleFullTrack, Attached: true, Muted: true},
		core.StreamState{Name: "Drums", Attached: true, Muted: true},
		core.StreamState{Name: "Bass", Attached: true, Playing: true, Soloed: true, Position: 12},
		core.StreamState{Name: "Keys", Attached: true, Playing: true},
	)

	events := diffStates(prev, curr, now)

	want := []struct {
		typ  EventType
		name string
	}{
		{EventStreamStop, "Drums"},
		{EventMute, "Drums"},
		{EventStreamStart, "Bass"},
		{EventSolo, "Bass"},
	}
	if len(events) != len(want) {
		t.Fatalf("got %d events, want %d: %+v", len(events), len(want), events)
	}
	for i, w := range want {
		if events[i].Type != w.typ || events[i].Stream.Name != w.name {
			t.Errorf("event %d = %s %s, want %s %s", i,
				eventTypeName(events[i].Type), events[i].Stream.Name, eventTypeName(w.typ), w.name)
		}
		if !events[i].Timestamp.Equal(now) {
			t.Errorf("event %d timestamp = %v", i, events[i].Timestamp)
		}
	}
	if events[2].Time != 12 {
		t.Errorf("start event time = %v, want 12", events[2].Time)
	}
}

func TestDiffStatesDetach(t *testing.T) {
	prev := snapshot(core.StreamState{Name: "Drums", Attached: true, Playing: true})
	curr := snapshot(core.StreamState{Name: "Drums"})

	events := diffStates(prev, curr, time.Now())
	if len(events) != 1 || events[0].Type != EventDetach {
		t.Fatalf("events = %+v, want a single detach", events)
	}
}

func TestFromNotice(t *testing.T) {
	tests := []struct {
		name   string
		notice group.Notice
		want   EventType
		ok     bool
	}{
		{"state", group.Notice{Kind: group.NoticeState, From: group.Idle, To: group.OnePlaying}, EventStateChange, true},
		{"seek", group.Notice{Kind: group.NoticeClock, Op: "seek", Time: 42}, EventSeek, true},
		{"reset", group.Notice{Kind: group.NoticeClock, Op: "reset"}, EventSeek, true},
		{"drift", group.Notice{Kind: group.NoticeClock, Op: "drift", Time: 1}, 0, false},
		{"error", group.Notice{Kind: group.NoticeError, Err: errors.New("decode failed")}, EventError, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			e, ok := FromNotice(tt.notice)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && e.Type != tt.want {
				t.Errorf("type = %s, want %s", eventTypeName(e.Type), eventTypeName(tt.want))
			}
		})
	}

	e, _ := FromNotice(group.Notice{Kind: group.NoticeState, From: group.Idle, To: group.Soloed})
	if e.From != "idle" || e.To != "soloed" {
		t.Errorf("state names = %q -> %q", e.From, e.To)
	}
}

func TestFormatter(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)
	drums := &core.StreamState{Name: "Drums"}

	tests := []struct {
		name  string
		opts  []FormatterOption
		event Event
		want  string
	}{
		{
			name:  "start with emoji",
			event: Event{Type: EventStreamStart, Stream: drums, Time: 75},
			want:  "▶️ Playing: Drums at 1:15",
		},
		{
			name:  "plain with timestamp",
			opts:  []FormatterOption{WithEmoji(false), WithTimestamp(true)},
			event: Event{Type: EventSolo, Stream: drums, Timestamp: ts},
			want:  "15:04:05 Solo: Drums",
		},
		{
			name:  "state change",
			opts:  []FormatterOption{WithEmoji(false)},
			event: Event{Type: EventStateChange, From: "idle", To: "one-playing"},
			want:  "Group: idle -> one-playing",
		},
		{
			name:  "template",
			opts:  []FormatterOption{WithTemplate("{{.Type}} {{.Stream}} {{.Position}}")},
			event: Event{Type: EventStreamStop, Stream: drums, Time: 3.9},
			want:  "stream_stop Drums 0:03",
		},
		{
			name:  "invalid template falls back",
			opts:  []FormatterOption{WithEmoji(false), WithTemplate("{{.Nope")},
			event: Event{Type: EventMute, Stream: drums},
			want:  "Muted: Drums",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := NewFormatter(tt.opts...).Format(tt.event)
			if got != tt.want {
				t.Errorf("Format() = %q, want %q", got, tt.want)
			}
		})
	}
}

type scriptedSource struct {
	mu    sync.Mutex
	snaps []*core.GroupState
}

func (s *scriptedSource) Snapshot() *core.GroupState {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := s.snaps[0]
	if len(s.snaps) > 1 {
		s.snaps = s.snaps[1:]
	}
	return snap
}

func TestWatcherEmitsChanges(t *testing.T) {
	src := &scriptedSource{snaps: []*core.GroupState{
		snapshot(core.StreamState{Name: "Drums", Attached: true}),
		snapshot(core.StreamState{Name: "Drums", Attached: true, Playing: true}),
	}}
	w := NewWatcher(src, time.Millisecond)

	ctx, cancel := context.WithTimeout(context.Background(), 2*time.Second)
	defer cancel()
	go func() { _ = w.Start(ctx) }()

	select {
	case e := <-w.Events():
		if e.Type != EventStreamStart {
			t.Errorf("first event = %s, want stream_start", eventTypeName(e.Type))
		}
	case <-ctx.Done():
		t.Fatal("no event before timeout")
	}

	w.Stop()
	for range w.Events() {
	}
	if !strings.Contains(NewFormatter().Format(Event{Type: EventDetach}), "Detached") {
		t.Error("detach description missing")
	}
}
