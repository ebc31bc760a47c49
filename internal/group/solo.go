package group

import "github.com/tessro/stemdeck/internal/core"

// Solo makes stem p the only audible stream while every other stream keeps
// running silently. Soloing an already soloed stem un-solos it: all stems
// become audible again and the full track stays muted. Solo on a full-track
// player or an unknown player does nothing.
func (g *Group) Solo(p core.Player) {
	g.exec.do(func() {
		g.mu.Lock()
		e, ok := g.reg.get(p)
		if !ok || g.closed || e.Role != core.RoleStem || !p.Attached() {
			g.mu.Unlock()
			return
		}

		if e.Soloed {
			g.reg.each(func(x *Entry) {
				x.Soloed = false
				x.Muted = x.Role == core.RoleFullTrack
			})
		} else {
			g.reg.each(func(x *Entry) {
				x.Soloed = false
				x.Muted = x != e
			})
			e.Soloed = true
		}

		cmds := g.volumeCommands()
		if g.addPlaying(p) {
			cmds = append(cmds, command{p: p, op: opPlay})
		}
		g.transition("solo")
		g.mu.Unlock()

		g.apply(cmds)
	})
}
