package core

// StreamState is a point-in-time view of one registered player.
type StreamState struct {
	Name     string  `json:"name"`
	Role     Role    `json:"role"`
	Muted    bool    `json:"muted"`
	Soloed   bool    `json:"soloed"`
	Playing  bool    `json:"playing"`
	Position float64 `json:"position"`
	Duration float64 `json:"duration"`
	Attached bool    `json:"attached"`
}

// ProgressPercent returns playback progress as a percentage (0-100).
func (s *StreamState) ProgressPercent() float64 {
	if s == nil || s.Duration <= 0 {
		return 0
	}
	p := s.Position / s.Duration * 100
	if p > 100 {
		return 100
	}
	return p
}

// GroupState is a point-in-time view of a synchronized group.
type GroupState struct {
	State      string        `json:"state"`
	AnyPlaying bool          `json:"any_playing"`
	GlobalTime float64       `json:"global_time"`
	Streams    []StreamState `json:"streams"`
}

// Playing returns the number of streams in the playing set.
func (g *GroupState) Playing() int {
	if g == nil {
		return 0
	}
	n := 0
	for _, s := range g.Streams {
		if s.Playing {
			n++
		}
	}
	return n
}
