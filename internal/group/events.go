package group

import (
	"github.com/tessro/stemdeck/internal/core"
)

// handleEvent reacts to an event raised by a registered player. It runs as
// an executor task, after whatever task caused the event has finished.
func (g *Group) handleEvent(p core.Player, ev core.Event) {
	g.mu.RLock()
	_, known := g.reg.get(p)
	closed := g.closed
	g.mu.RUnlock()
	if !known || closed {
		return
	}

	switch ev.Type {
	case core.EventReady:
		g.log.Debug("player ready", "player", playerName(p))

	case core.EventSeek:
		g.propagateSeek(p, ev.Time)

	case core.EventTimeUpdate:
		if g.IsPlaying(p) {
			g.correct()
		}

	case core.EventPause:
		// A pause the group issued itself already left the playing set, so
		// only pauses from outside the group land here.
		g.mu.Lock()
		if g.playing.has(p) && p.Attached() && !p.IsPlaying() {
			g.removePlaying(p)
			g.transition("paused")
		}
		g.mu.Unlock()

	case core.EventFinished:
		g.mu.Lock()
		if g.removePlaying(p) {
			g.transition("finished")
		}
		g.mu.Unlock()

	case core.EventError:
		g.log.Warn("player error", "player", playerName(p), "error", ev.Err)
		g.fail(p, ev.Err)

	case core.EventPlay:
		g.log.Debug("player playing", "player", playerName(p))
	}
}
