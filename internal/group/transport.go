package group

import (
	"math"

	"github.com/tessro/stemdeck/internal/core"
)

// Start plays p and makes its side of the group audible: starting the full
// track mutes every stem, starting a stem mutes the full track. Any solo is
// cleared. Unknown players are ignored.
func (g *Group) Start(p core.Player) {
	g.exec.do(func() {
		g.mu.Lock()
		e, ok := g.reg.get(p)
		if !ok || g.closed || !p.Attached() {
			g.mu.Unlock()
			return
		}

		g.reg.each(func(x *Entry) { x.Soloed = false })
		full := e.Role == core.RoleFullTrack
		g.reg.each(func(x *Entry) {
			x.Muted = (x.Role == core.RoleFullTrack) != full
		})

		cmds := g.volumeCommands()
		g.addPlaying(p)
		cmds = append(cmds, command{p: p, op: opPlay})
		g.transition("start")
		g.mu.Unlock()

		g.apply(cmds)
	})
}

// Stop pauses p if it is playing. Stopping a paused player rewinds the
// whole group to zero; stopping a player that is already at zero stops
// everything.
func (g *Group) Stop(p core.Player) {
	g.exec.do(func() {
		g.mu.Lock()
		if _, ok := g.reg.get(p); !ok || g.closed {
			g.mu.Unlock()
			return
		}

		g.removePlaying(p)

		var cmds []command
		switch {
		case !p.Attached():
		case p.IsPlaying():
			cmds = append(cmds, command{p: p, op: opPause})
		case p.CurrentTime() == 0:
			cmds = g.stopAll()
		default:
			g.reg.each(func(x *Entry) {
				cmds = append(cmds, command{p: x.Player, op: opSeek, arg: 0})
			})
			g.setClock(0, "stop")
		}
		g.transition("stop")
		g.mu.Unlock()

		g.apply(cmds)
	})
}

// StopAll pauses every playing player. When nothing was actually playing
// the call is a reset: every player is rewound and the clock goes to zero.
func (g *Group) StopAll() {
	g.exec.do(func() {
		g.mu.Lock()
		if g.closed {
			g.mu.Unlock()
			return
		}
		cmds := g.stopAll()
		g.transition("stop-all")
		g.mu.Unlock()

		g.apply(cmds)
	})
}

// stopAll plans a stop of the whole group. Callers hold g.mu.
func (g *Group) stopAll() []command {
	var cmds []command
	interrupted := false
	for _, p := range g.playing.snapshot() {
		if !p.Attached() {
			continue
		}
		if p.IsPlaying() {
			interrupted = true
		}
		cmds = append(cmds, command{p: p, op: opPause})
	}
	g.clearPlaying()

	if !interrupted {
		g.reg.each(func(x *Entry) {
			cmds = append(cmds, command{p: x.Player, op: opSeek, arg: 0})
		})
		g.setClock(0, "reset")
	}
	return cmds
}

// propagateSeek moves every other player to where the user seeked p.
// Seeks always propagate, whatever the drift.
func (g *Group) propagateSeek(p core.Player, t float64) {
	g.mu.Lock()
	if _, ok := g.reg.get(p); !ok {
		g.mu.Unlock()
		return
	}
	g.setClock(t, "seek")
	var cmds []command
	g.reg.each(func(x *Entry) {
		if x.Player == p || !x.Player.Attached() {
			return
		}
		if f, ok := fraction(t, x.Player.Duration()); ok {
			cmds = append(cmds, command{p: x.Player, op: opSeek, arg: f})
		}
	})
	g.mu.Unlock()

	g.apply(cmds)
}

// fraction converts a position in seconds to a 0..1 seek target.
func fraction(t, duration float64) (float64, bool) {
	if duration <= 0 || math.IsNaN(duration) || math.IsInf(duration, 0) {
		return 0, false
	}
	return math.Min(math.Max(t/duration, 0), 1), true
}
