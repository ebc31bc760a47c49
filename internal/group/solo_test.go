package group

import (
	"testing"

	"github.com/tessro/stemdeck/internal/core"
)

type muteConfig struct {
	full, s1, s2 bool
}

func (h *harness) mutes(f, s1, s2 *fakePlayer) muteConfig {
	return muteConfig{h.g.IsMuted(f), h.g.IsMuted(s1), h.g.IsMuted(s2)}
}

func TestSoloScenario(t *testing.T) {
	h := newHarness(t)
	f, s1, s2 := h.trio()

	h.g.Start(s1)
	if !h.g.IsMuted(f) || h.g.IsMuted(s1) {
		t.Fatalf("after Start(drums): %+v", h.mutes(f, s1, s2))
	}
	// Starting a stem only mutes the full track. The bass stem stays
	// unmuted but silent because it is not in the playing set.
	if h.g.IsMuted(s2) {
		t.Error("bass muted by Start(drums)")
	}
	if h.g.IsPlaying(s2) {
		t.Error("bass playing before it was started or soloed")
	}

	h.g.Solo(s2)
	if got, want := h.mutes(f, s1, s2), (muteConfig{true, true, false}); got != want {
		t.Errorf("after Solo(bass) mutes = %+v, want %+v", got, want)
	}
	if !h.g.IsSoloed(s2) || h.g.IsSoloed(s1) {
		t.Error("solo flags wrong after Solo(bass)")
	}
	if !h.g.IsPlaying(s1) || !h.g.IsPlaying(s2) {
		t.Error("playing set should hold both stems")
	}
	if h.g.State() != Soloed {
		t.Errorf("State = %v, want soloed", h.g.State())
	}

	h.g.Solo(s2)
	if got, want := h.mutes(f, s1, s2), (muteConfig{true, false, false}); got != want {
		t.Errorf("after un-solo mutes = %+v, want %+v", got, want)
	}
	if h.g.IsSoloed(s2) {
		t.Error("bass still soloed after un-solo")
	}
	if h.g.State() != MultiPlayingSynced {
		t.Errorf("State = %v, want multi-playing", h.g.State())
	}
	if s2.count("play") != 1 {
		t.Errorf("bass play calls = %d, want 1", s2.count("play"))
	}
}

func TestSoloTwiceRestoresStemMix(t *testing.T) {
	for _, target := range []string{"drums", "bass"} {
		t.Run(target, func(t *testing.T) {
			h := newHarness(t)
			f, s1, s2 := h.trio()
			s := s1
			if target == "bass" {
				s = s2
			}

			h.g.Start(s1)
			before := h.mutes(f, s1, s2)

			h.g.Solo(s)
			h.g.Solo(s)

			if got := h.mutes(f, s1, s2); got != before {
				t.Errorf("mutes after double solo = %+v, want %+v", got, before)
			}
		})
	}
}

func TestSoloKeepsSoloedOutStemsRunning(t *testing.T) {
	h := newHarness(t)
	_, s1, s2 := h.trio()

	h.g.Start(s1)
	h.g.Solo(s2)

	if !s1.IsPlaying() {
		t.Error("soloed-out stem was paused")
	}
	if s1.count("pause") != 0 {
		t.Error("solo issued a pause")
	}
	if s1.vol() != 0 || s2.vol() != 1 {
		t.Errorf("volumes drums=%v bass=%v, want 0 and 1", s1.vol(), s2.vol())
	}
}

func TestSoloFullTrackIsNoop(t *testing.T) {
	h := newHarness(t)
	f, s1, s2 := h.trio()

	h.g.Start(f)
	before := h.mutes(f, s1, s2)
	h.g.Solo(f)

	if h.g.IsSoloed(f) {
		t.Error("full track soloed")
	}
	if got := h.mutes(f, s1, s2); got != before {
		t.Errorf("mutes = %+v, want %+v", got, before)
	}
}

func TestUnsoloLeavesFullTrackMuted(t *testing.T) {
	h := newHarness(t)
	f, s1, _ := h.trio()

	h.g.Start(f)
	h.g.Solo(s1)
	h.g.Solo(s1)

	if !h.g.IsMuted(f) {
		t.Error("un-solo restored the full track")
	}
	if h.g.IsMuted(s1) {
		t.Error("stem muted after un-solo")
	}
}

func TestSoloStartsCorrector(t *testing.T) {
	h := newHarness(t)
	_, s1, _ := h.trio()

	h.g.Solo(s1)

	if !h.g.correcting() {
		t.Error("corrector not running after Solo")
	}
	if !h.g.IsAnyPlaying() {
		t.Error("IsAnyPlaying = false after Solo")
	}
}

func TestSoloMovesBetweenStems(t *testing.T) {
	h := newHarness(t)
	f, s1, s2 := h.trio()

	h.g.Solo(s1)
	h.g.Solo(s2)

	if h.g.IsSoloed(s1) || !h.g.IsSoloed(s2) {
		t.Error("solo did not move to bass")
	}
	if got, want := h.mutes(f, s1, s2), (muteConfig{true, true, false}); got != want {
		t.Errorf("mutes = %+v, want %+v", got, want)
	}
	e, _ := h.g.Entry(f)
	if e.Role != core.RoleFullTrack || e.Soloed {
		t.Errorf("full entry = %+v", e)
	}
}
