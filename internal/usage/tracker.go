package usage

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/tessro/stemdeck/internal/core"
)

// Source identifies what a watched player is playing.
type Source struct {
	TrackID string
	StemID  string
	Kind    core.SourceKind
}

type segment struct {
	source      Source
	started     time.Time
	active      bool
	unsubscribe func()
}

// Tracker watches player events and reports segments of continuous play
// that last longer than the minimum duration. It only observes players; it
// never calls them and never blocks their callers.
type Tracker struct {
	reporter    Reporter
	minDuration time.Duration
	timeout     time.Duration
	now         func() time.Time
	log         *slog.Logger

	mu      sync.Mutex
	streams map[core.Player]*segment
	wg      sync.WaitGroup
}

// TrackerOption configures a Tracker.
type TrackerOption func(*Tracker)

// WithMinDuration sets the length a segment must exceed to count as a
// listen.
func WithMinDuration(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.minDuration = d
		}
	}
}

// WithReportTimeout bounds each call to the reporter.
func WithReportTimeout(d time.Duration) TrackerOption {
	return func(t *Tracker) {
		if d > 0 {
			t.timeout = d
		}
	}
}

// WithNow replaces time.Now.
func WithNow(now func() time.Time) TrackerOption {
	return func(t *Tracker) {
		if now != nil {
			t.now = now
		}
	}
}

// WithTrackerLogger sets the logger for swallowed report failures.
func WithTrackerLogger(l *slog.Logger) TrackerOption {
	return func(t *Tracker) {
		if l != nil {
			t.log = l
		}
	}
}

// NewTracker creates a tracker reporting to r.
func NewTracker(r Reporter, opts ...TrackerOption) *Tracker {
	t := &Tracker{
		reporter:    r,
		minDuration: DefaultMinDuration,
		timeout:     10 * time.Second,
		now:         time.Now,
		log:         slog.Default(),
		streams:     make(map[core.Player]*segment),
	}
	for _, opt := range opts {
		opt(t)
	}
	return t
}

// Watch starts observing p. Watching a player twice replaces its source.
func (t *Tracker) Watch(p core.Player, src Source) {
	t.mu.Lock()
	if seg, ok := t.streams[p]; ok {
		seg.source = src
		t.mu.Unlock()
		return
	}
	seg := &segment{source: src}
	t.streams[p] = seg
	t.mu.Unlock()

	unsubscribe := p.Subscribe(func(ev core.Event) { t.observe(p, ev) })

	t.mu.Lock()
	seg.unsubscribe = unsubscribe
	t.mu.Unlock()
}

// Unwatch stops observing p, closing any open segment.
func (t *Tracker) Unwatch(p core.Player) {
	t.mu.Lock()
	seg, ok := t.streams[p]
	if !ok {
		t.mu.Unlock()
		return
	}
	delete(t.streams, p)
	l, report := t.end(seg)
	unsubscribe := seg.unsubscribe
	t.mu.Unlock()

	if unsubscribe != nil {
		unsubscribe()
	}
	if report {
		t.send(l)
	}
}

// Close closes every open segment, stops watching and waits for pending
// reports.
func (t *Tracker) Close() {
	t.mu.Lock()
	players := make([]core.Player, 0, len(t.streams))
	for p := range t.streams {
		players = append(players, p)
	}
	t.mu.Unlock()

	for _, p := range players {
		t.Unwatch(p)
	}
	t.wg.Wait()
}

// Wait blocks until in-flight reports have finished.
func (t *Tracker) Wait() {
	t.wg.Wait()
}

func (t *Tracker) observe(p core.Player, ev core.Event) {
	t.mu.Lock()
	seg, ok := t.streams[p]
	if !ok {
		t.mu.Unlock()
		return
	}

	var (
		l      Listen
		report bool
	)
	switch ev.Type {
	case core.EventPlay:
		if !seg.active {
			seg.active = true
			seg.started = t.now()
		}
	case core.EventPause, core.EventFinished, core.EventError:
		l, report = t.end(seg)
	}
	t.mu.Unlock()

	if report {
		t.send(l)
	}
}

// end closes seg and reports whether it qualifies as a listen. Callers
// hold t.mu.
func (t *Tracker) end(seg *segment) (Listen, bool) {
	if !seg.active {
		return Listen{}, false
	}
	seg.active = false
	now := t.now()
	played := now.Sub(seg.started)
	if played <= t.minDuration {
		return Listen{}, false
	}
	return Listen{
		ID:                    newListenID(),
		TrackID:               seg.source.TrackID,
		StemID:                seg.source.StemID,
		DurationPlayedSeconds: played.Seconds(),
		SourceKind:            seg.source.Kind,
		At:                    now,
	}, true
}

// send reports l on its own goroutine. Failures are logged and dropped.
func (t *Tracker) send(l Listen) {
	if t.reporter == nil {
		return
	}
	t.wg.Add(1)
	go func() {
		defer t.wg.Done()
		ctx, cancel := context.WithTimeout(context.Background(), t.timeout)
		defer cancel()
		if err := t.reporter.Report(ctx, l); err != nil {
			t.log.Warn("usage report failed", "track", l.TrackID, "stem", l.StemID, "error", err)
		}
	}()
}
