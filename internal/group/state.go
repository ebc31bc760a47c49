package group

import (
	"time"

	"github.com/tessro/stemdeck/internal/core"
)

// State is the coarse state of a group.
type State int

const (
	Idle State = iota
	OnePlaying
	MultiPlayingSynced
	Soloed
)

func (s State) String() string {
	switch s {
	case Idle:
		return "idle"
	case OnePlaying:
		return "one-playing"
	case MultiPlayingSynced:
		return "multi-playing"
	case Soloed:
		return "soloed"
	}
	return "unknown"
}

// next derives the state from the registry and playing set. Callers hold
// g.mu.
func (g *Group) next() State {
	if g.playing.len() == 0 {
		return Idle
	}
	soloed := false
	g.reg.each(func(e *Entry) {
		if e.Soloed {
			soloed = true
		}
	})
	switch {
	case soloed:
		return Soloed
	case g.playing.len() == 1:
		return OnePlaying
	default:
		return MultiPlayingSynced
	}
}

// transition moves the group to the state implied by the operation that
// just ran and announces the change. Callers hold g.mu.
func (g *Group) transition(op string) {
	to := g.next()
	if to == g.state {
		return
	}
	from := g.state
	g.state = to
	g.log.Debug("group state changed", "op", op, "from", from, "to", to)
	g.publish(Notice{Kind: NoticeState, Op: op, From: from, To: to})
}

// NoticeKind identifies a group notice.
type NoticeKind int

const (
	NoticeState NoticeKind = iota
	NoticeClock
	NoticeError
)

// Notice reports a change in a group to subscribers.
type Notice struct {
	Kind      NoticeKind
	Op        string
	From, To  State
	Time      float64
	Player    core.Player
	Err       error
	Timestamp time.Time
}

// Subscribe returns a channel of notices and a function that cancels the
// subscription. Slow subscribers miss notices rather than stall the group.
func (g *Group) Subscribe() (<-chan Notice, func()) {
	ch := make(chan Notice, 32)
	g.subsMu.Lock()
	g.subs[ch] = struct{}{}
	g.subsMu.Unlock()

	cancel := func() {
		g.subsMu.Lock()
		defer g.subsMu.Unlock()
		if _, ok := g.subs[ch]; ok {
			delete(g.subs, ch)
			close(ch)
		}
	}
	return ch, cancel
}

func (g *Group) publish(n Notice) {
	n.Timestamp = g.now()
	g.subsMu.Lock()
	defer g.subsMu.Unlock()
	for ch := range g.subs {
		select {
		case ch <- n:
		default:
			// subscriber too slow, drop
		}
	}
}
