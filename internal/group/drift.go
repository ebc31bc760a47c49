package group

import (
	"math"
	"time"

	"github.com/tessro/stemdeck/internal/core"
)

// Ticker delivers correction ticks. *time.Ticker satisfies it through
// newTimeTicker.
type Ticker interface {
	C() <-chan time.Time
	Stop()
}

type timeTicker struct{ t *time.Ticker }

func newTimeTicker(d time.Duration) Ticker { return timeTicker{time.NewTicker(d)} }

func (t timeTicker) C() <-chan time.Time { return t.t.C }
func (t timeTicker) Stop()               { t.t.Stop() }

// corrector is the repeating drift-correction task. It exists exactly while
// the playing set is non-empty.
type corrector struct {
	ticker Ticker
	done   chan struct{}
}

// startCorrector is called by addPlaying only. Callers hold g.mu.
func (g *Group) startCorrector() {
	if g.corrector != nil {
		return
	}
	c := &corrector{
		ticker: g.newTicker(g.tickInterval),
		done:   make(chan struct{}),
	}
	g.corrector = c
	g.lastPass = time.Time{}

	go func() {
		for {
			select {
			case <-c.done:
				return
			case <-c.ticker.C():
				g.exec.do(g.correct)
			}
		}
	}()
	g.log.Debug("drift corrector started", "interval", g.tickInterval)
}

// stopCorrector is called where the playing set becomes empty. Callers
// hold g.mu.
func (g *Group) stopCorrector() {
	c := g.corrector
	if c == nil {
		return
	}
	g.corrector = nil
	c.ticker.Stop()
	close(c.done)
	g.log.Debug("drift corrector stopped")
}

// correcting reports whether the corrector task is live.
func (g *Group) correcting() bool {
	g.mu.RLock()
	defer g.mu.RUnlock()
	return g.corrector != nil
}

// correct runs one correction pass: every playing stream further than the
// drift threshold from the leader is seeked to the leader's position.
// Passes closer together than the throttle are skipped, whichever path
// triggered them.
func (g *Group) correct() {
	g.mu.Lock()
	if g.playing.len() == 0 {
		g.mu.Unlock()
		return
	}
	now := g.now()
	if !g.lastPass.IsZero() && now.Sub(g.lastPass) < g.throttle {
		g.mu.Unlock()
		return
	}
	g.lastPass = now

	// Detached players leave the set first so the leader is always live.
	var members []core.Player
	for _, p := range g.playing.snapshot() {
		if p.Attached() {
			members = append(members, p)
			continue
		}
		g.removePlaying(p)
	}
	if len(members) == 0 {
		g.transition("detached")
		g.mu.Unlock()
		return
	}
	leader := members[0]

	t := leader.CurrentTime()
	if math.Abs(t-g.clock) > g.threshold {
		g.setClock(t, "drift")
	}

	var cmds []command
	for _, p := range members[1:] {
		if math.Abs(p.CurrentTime()-t) <= g.threshold {
			continue
		}
		if f, ok := fraction(t, p.Duration()); ok {
			cmds = append(cmds, command{p: p, op: opSeek, arg: f})
		}
	}
	g.transition("correct")
	g.mu.Unlock()

	if len(cmds) > 0 {
		g.log.Debug("correcting drift", "leader", playerName(leader), "time", t, "seeks", len(cmds))
	}
	g.apply(cmds)
}
