package group

import "github.com/tessro/stemdeck/internal/core"

// Entry is the group's bookkeeping for one registered player.
type Entry struct {
	Player core.Player
	Role   core.Role
	Muted  bool
	Soloed bool

	unsubscribe func()
}

// registry tracks registered players in registration order.
type registry struct {
	entries []*Entry
	index   map[core.Player]*Entry
}

func newRegistry() *registry {
	return &registry{index: make(map[core.Player]*Entry)}
}

// add inserts p, or updates its role if it is already present. It reports
// whether a new entry was created.
func (r *registry) add(p core.Player, role core.Role) (*Entry, bool) {
	if e, ok := r.index[p]; ok {
		e.Role = role
		return e, false
	}
	e := &Entry{Player: p, Role: role}
	r.entries = append(r.entries, e)
	r.index[p] = e
	return e, true
}

func (r *registry) remove(p core.Player) (*Entry, bool) {
	e, ok := r.index[p]
	if !ok {
		return nil, false
	}
	delete(r.index, p)
	for i, x := range r.entries {
		if x == e {
			r.entries = append(r.entries[:i], r.entries[i+1:]...)
			break
		}
	}
	return e, true
}

func (r *registry) get(p core.Player) (*Entry, bool) {
	e, ok := r.index[p]
	return e, ok
}

// each visits entries in registration order.
func (r *registry) each(visit func(*Entry)) {
	for _, e := range r.entries {
		visit(e)
	}
}

func (r *registry) len() int {
	return len(r.entries)
}

// playingSet is an insertion-ordered set. The first member is the drift
// leader and only changes when membership changes.
type playingSet struct {
	members []core.Player
	index   map[core.Player]struct{}
}

func newPlayingSet() *playingSet {
	return &playingSet{index: make(map[core.Player]struct{})}
}

func (s *playingSet) add(p core.Player) bool {
	if _, ok := s.index[p]; ok {
		return false
	}
	s.index[p] = struct{}{}
	s.members = append(s.members, p)
	return true
}

func (s *playingSet) remove(p core.Player) bool {
	if _, ok := s.index[p]; !ok {
		return false
	}
	delete(s.index, p)
	for i, x := range s.members {
		if x == p {
			s.members = append(s.members[:i], s.members[i+1:]...)
			break
		}
	}
	return true
}

func (s *playingSet) has(p core.Player) bool {
	_, ok := s.index[p]
	return ok
}

func (s *playingSet) leader() core.Player {
	if len(s.members) == 0 {
		return nil
	}
	return s.members[0]
}

// snapshot returns a copy safe to range over while the set changes.
func (s *playingSet) snapshot() []core.Player {
	return append([]core.Player(nil), s.members...)
}

func (s *playingSet) clear() {
	s.members = nil
	s.index = make(map[core.Player]struct{})
}

func (s *playingSet) len() int {
	return len(s.members)
}
