// Package group keeps a track's full mix and its stems playing as one
// synchronized unit: transport, solo/mute and drift correction.
//
// A Group is not a singleton. Create one per synchronized player group and
// hand it to everything that plays in that group.
package group

import (
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tessro/stemdeck/internal/core"
)

const (
	DefaultTickInterval   = 100 * time.Millisecond
	DefaultDriftThreshold = 20 * time.Millisecond
	DefaultThrottle       = 50 * time.Millisecond
)

// Group coordinates every player of one synchronized group.
//
// All mutations run as tasks on a serial executor, so operations, timer
// ticks and player events never interleave. Player events raised while a
// task is running are queued behind it.
type Group struct {
	mu         sync.RWMutex
	reg        *registry
	playing    *playingSet
	clock      float64
	anyPlaying bool
	state      State
	lastPass   time.Time
	corrector  *corrector
	closed     bool

	exec executor

	subsMu sync.Mutex
	subs   map[chan Notice]struct{}

	tickInterval time.Duration
	threshold    float64
	throttle     time.Duration
	now          func() time.Time
	newTicker    func(time.Duration) Ticker
	log          *slog.Logger
}

// Option configures a Group.
type Option func(*Group)

// WithLogger sets the logger used for diagnostics.
func WithLogger(l *slog.Logger) Option {
	return func(g *Group) {
		if l != nil {
			g.log = l
		}
	}
}

// WithTickInterval sets the drift corrector period.
func WithTickInterval(d time.Duration) Option {
	return func(g *Group) {
		if d > 0 {
			g.tickInterval = d
		}
	}
}

// WithDriftThreshold sets how far apart two streams may be before a
// corrective seek is issued.
func WithDriftThreshold(d time.Duration) Option {
	return func(g *Group) {
		if d > 0 {
			g.threshold = d.Seconds()
		}
	}
}

// WithThrottle sets the minimum spacing between two correction passes.
func WithThrottle(d time.Duration) Option {
	return func(g *Group) {
		if d >= 0 {
			g.throttle = d
		}
	}
}

// WithClock replaces time.Now for throttling.
func WithClock(now func() time.Time) Option {
	return func(g *Group) {
		if now != nil {
			g.now = now
		}
	}
}

// WithTicker replaces the ticker driving the drift corrector.
func WithTicker(fn func(time.Duration) Ticker) Option {
	return func(g *Group) {
		if fn != nil {
			g.newTicker = fn
		}
	}
}

// New creates an empty group.
func New(opts ...Option) *Group {
	g := &Group{
		reg:          newRegistry(),
		playing:      newPlayingSet(),
		subs:         make(map[chan Notice]struct{}),
		tickInterval: DefaultTickInterval,
		threshold:    DefaultDriftThreshold.Seconds(),
		throttle:     DefaultThrottle,
		now:          time.Now,
		newTicker:    newTimeTicker,
		log:          slog.Default(),
	}
	for _, opt := range opts {
		opt(g)
	}
	return g
}

// Register adds p to the group. Registering a player twice keeps a single
// entry and updates its role.
func (g *Group) Register(p core.Player, role core.Role) {
	if p == nil {
		return
	}
	g.exec.do(func() {
		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			return
		}
		e, created := g.reg.add(p, role)
		if created {
			e.unsubscribe = p.Subscribe(func(ev core.Event) {
				g.exec.do(func() { g.handleEvent(p, ev) })
			})
		}
		g.log.Debug("player registered", "player", playerName(p), "role", role, "new", created)
		g.transition("register")
		g.mu.Unlock()
	})
}

// Unregister removes p from the registry and the playing set in one step.
// The drift corrector stops if nothing is left playing.
func (g *Group) Unregister(p core.Player) {
	g.exec.do(func() {
		g.mu.Lock()
		e, ok := g.reg.remove(p)
		if !ok {
			g.mu.Unlock()
			return
		}
		wasPlaying := g.removePlaying(p)
		g.transition("unregister")
		g.mu.Unlock()

		if e.unsubscribe != nil {
			e.unsubscribe()
		}
		if wasPlaying {
			g.apply([]command{{p: p, op: opPause}})
		}
		g.log.Debug("player unregistered", "player", playerName(p))
	})
}

// Entry returns a copy of p's registry entry.
func (g *Group) Entry(p core.Player) (Entry, bool) {
	g.mu.RLock()
	defer g.mu.RUnlock()
	e, ok := g.reg.get(p)
	if !ok {
		return Entry{}, false
	}
	out := *e
	out.unsubscribe = nil
	return out, true
}

// Players returns the registered players in registration order.
func (g *Group) Players() []core.Player {
	g.mu.RLock()
	defer g.mu.RUnlock()
	out := make([]core.Player, 0, g.reg.len())
	g.reg.each(func(e *Entry) { out = append(out, e.Player) })
	return out
}

// IsMuted reports whether p is muted. Unknown players are not muted.
func (g *Group) IsMuted(p core.Player) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if e, ok := g.reg.get(p); ok {
		return e.Muted
	}
	return false
}

// IsSoloed reports whether p is soloed. Unknown players are not soloed.
func (g *Group) IsSoloed(p core.Player) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	if e, ok := g.reg.get(p); ok {
		return e.Soloed
	}
	return false
}

// IsPlaying reports whether p is in the playing set.
func (g *Group) IsPlaying(p core.Player) bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.playing.has(p)
}

// IsAnyPlaying reports whether the playing set is non-empty.
func (g *Group) IsAnyPlaying() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.anyPlaying
}

// GlobalTime returns the shared playback position in seconds.
func (g *Group) GlobalTime() float64 {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.clock
}

// State returns the current state of the group.
func (g *Group) State() State {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.state
}

// Snapshot returns a view of the group for display.
func (g *Group) Snapshot() *core.GroupState {
	g.mu.RLock()
	defer g.mu.RUnlock()

	s := &core.GroupState{
		State:      g.state.String(),
		AnyPlaying: g.anyPlaying,
		GlobalTime: g.clock,
		Streams:    make([]core.StreamState, 0, g.reg.len()),
	}
	g.reg.each(func(e *Entry) {
		st := core.StreamState{
			Name:     playerName(e.Player),
			Role:     e.Role,
			Muted:    e.Muted,
			Soloed:   e.Soloed,
			Playing:  g.playing.has(e.Player),
			Attached: e.Player.Attached(),
		}
		if st.Attached {
			st.Position = e.Player.CurrentTime()
			st.Duration = e.Player.Duration()
		}
		s.Streams = append(s.Streams, st)
	})
	return s
}

// Close stops the group: the corrector is cancelled, playing players are
// paused and every player is unregistered. A closed group ignores all
// further operations.
func (g *Group) Close() {
	g.exec.do(func() {
		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			return
		}
		var cmds []command
		for _, p := range g.playing.snapshot() {
			cmds = append(cmds, command{p: p, op: opPause})
		}
		g.clearPlaying()
		var unsubs []func()
		g.reg.each(func(e *Entry) {
			if e.unsubscribe != nil {
				unsubs = append(unsubs, e.unsubscribe)
			}
		})
		g.reg = newRegistry()
		g.transition("close")
		g.closed = true
		g.mu.Unlock()

		for _, u := range unsubs {
			u()
		}
		g.apply(cmds)

		g.subsMu.Lock()
		for ch := range g.subs {
			close(ch)
		}
		g.subs = make(map[chan Notice]struct{})
		g.subsMu.Unlock()
	})
}

// addPlaying is the only place the playing set can become non-empty, and
// therefore the only place the corrector starts. Callers hold g.mu.
func (g *Group) addPlaying(p core.Player) bool {
	wasEmpty := g.playing.len() == 0
	if !g.playing.add(p) {
		return false
	}
	g.anyPlaying = true
	if wasEmpty {
		g.startCorrector()
	}
	return true
}

// removePlaying drops p from the playing set and stops the corrector when
// the set empties. Callers hold g.mu.
func (g *Group) removePlaying(p core.Player) bool {
	if !g.playing.remove(p) {
		return false
	}
	if g.playing.len() == 0 {
		g.stopCorrector()
		g.anyPlaying = false
	}
	return true
}

// clearPlaying empties the playing set. Callers hold g.mu.
func (g *Group) clearPlaying() {
	g.playing.clear()
	g.stopCorrector()
	g.anyPlaying = false
}

func (g *Group) setClock(t float64, reason string) {
	if t == g.clock {
		return
	}
	g.clock = t
	g.publish(Notice{Kind: NoticeClock, Op: reason, Time: t})
}

type opKind int

const (
	opPlay opKind = iota
	opPause
	opSeek
	opVolume
)

func (o opKind) String() string {
	switch o {
	case opPlay:
		return "play"
	case opPause:
		return "pause"
	case opSeek:
		return "seek"
	case opVolume:
		return "volume"
	}
	return "unknown"
}

// command is a player call planned while g.mu is held and issued after it
// is released, so player callbacks never see a half-applied transition.
type command struct {
	p   core.Player
	op  opKind
	arg float64
}

// apply issues commands in order. It runs inside an executor task.
func (g *Group) apply(cmds []command) {
	for _, c := range cmds {
		if !c.p.Attached() {
			continue
		}
		var err error
		switch c.op {
		case opPlay:
			err = c.p.Play()
		case opPause:
			err = c.p.Pause()
		case opSeek:
			err = c.p.SeekTo(c.arg)
		case opVolume:
			err = c.p.SetVolume(c.arg)
		}
		if err == nil {
			continue
		}
		g.log.Warn("player command failed", "player", playerName(c.p), "op", c.op, "error", err)
		if c.op == opPlay || c.op == opSeek {
			g.fail(c.p, err)
		}
	}
}

// fail drops a misbehaving player from the playing set. Its entry stays so
// it can be started again.
func (g *Group) fail(p core.Player, err error) {
	g.mu.Lock()
	defer g.mu.Unlock()
	g.removePlaying(p)
	g.publish(Notice{Kind: NoticeError, Op: "error", Player: p, Err: err})
	g.transition("error")
}

// volumeCommands mutes losers before unmuting winners.
func (g *Group) volumeCommands() []command {
	var muted, audible []command
	g.reg.each(func(e *Entry) {
		if e.Muted {
			muted = append(muted, command{p: e.Player, op: opVolume, arg: 0})
		} else {
			audible = append(audible, command{p: e.Player, op: opVolume, arg: 1})
		}
	})
	return append(muted, audible...)
}

func playerName(p core.Player) string {
	if s, ok := p.(fmt.Stringer); ok {
		return s.String()
	}
	return fmt.Sprintf("%p", p)
}

// executor runs tasks one at a time. The goroutine that finds it idle
// drains the queue, including tasks queued by the tasks it runs.
type executor struct {
	mu      sync.Mutex
	queue   []func()
	running bool
}

func (e *executor) do(task func()) {
	e.mu.Lock()
	e.queue = append(e.queue, task)
	if e.running {
		e.mu.Unlock()
		return
	}
	e.running = true
	for len(e.queue) > 0 {
		next := e.queue[0]
		e.queue[0] = nil
		e.queue = e.queue[1:]
		e.mu.Unlock()
		next()
		e.mu.Lock()
	}
	e.running = false
	e.mu.Unlock()
}
