package group

import (
	"errors"
	"math"
	"math/rand"
	"testing"

	"github.com/tessro/stemdeck/internal/core"
)

func TestStartFullTrackMutesStems(t *testing.T) {
	h := newHarness(t)
	f, s1, s2 := h.trio()

	h.g.Start(f)

	if h.g.IsMuted(f) {
		t.Error("full track muted after Start(full)")
	}
	for _, s := range []*fakePlayer{s1, s2} {
		if !h.g.IsMuted(s) {
			t.Errorf("%s not muted after Start(full)", s.name)
		}
		if s.vol() != 0 {
			t.Errorf("%s volume = %v, want 0", s.name, s.vol())
		}
	}
	if f.vol() != 1 {
		t.Errorf("full volume = %v, want 1", f.vol())
	}
	if !f.IsPlaying() || !h.g.IsPlaying(f) {
		t.Error("full track not playing")
	}
	if !h.g.IsAnyPlaying() {
		t.Error("IsAnyPlaying = false")
	}
	if len(h.tickers) != 1 {
		t.Errorf("tickers = %d, want 1", len(h.tickers))
	}
}

func TestStartStemMutesFullTrack(t *testing.T) {
	h := newHarness(t)
	f, s1, s2 := h.trio()

	h.g.Start(f)
	h.g.Start(s1)

	if !h.g.IsMuted(f) {
		t.Error("full track audible after Start(stem)")
	}
	if h.g.IsMuted(s1) || h.g.IsMuted(s2) {
		t.Error("stem muted after Start(stem)")
	}
	if len(h.tickers) != 1 {
		t.Errorf("corrector started %d times, want 1", len(h.tickers))
	}
}

func TestStartClearsSolo(t *testing.T) {
	h := newHarness(t)
	_, s1, s2 := h.trio()

	h.g.Solo(s2)
	h.g.Start(s1)

	if h.g.IsSoloed(s2) {
		t.Error("solo survived Start")
	}
	if h.g.IsMuted(s2) {
		t.Error("previously soloed-out stem still muted")
	}
}

func TestMutualExclusion(t *testing.T) {
	h := newHarness(t)
	f, s1, s2 := h.trio()
	players := []*fakePlayer{f, s1, s2}
	rng := rand.New(rand.NewSource(7))

	for i := 0; i < 200; i++ {
		p := players[rng.Intn(len(players))]
		switch rng.Intn(3) {
		case 0, 1:
			h.g.Start(p)
		case 2:
			h.g.Stop(p)
		}

		if !h.g.IsAnyPlaying() {
			continue
		}
		stemsAudible := !h.g.IsMuted(s1) && !h.g.IsMuted(s2)
		fullAudible := !h.g.IsMuted(f)
		if stemsAudible && fullAudible {
			t.Fatalf("step %d: full track and all stems audible at once", i)
		}
	}
}

func TestStopRoundTrip(t *testing.T) {
	h := newHarness(t)
	_, s1, s2 := h.trio()

	h.g.Start(s1)
	s1.setPosition(42)

	// First stop pauses in place.
	h.g.Stop(s1)
	if s1.IsPlaying() {
		t.Fatal("player still playing after first Stop")
	}
	if got := s1.CurrentTime(); got != 42 {
		t.Errorf("position after first Stop = %v, want 42", got)
	}
	if h.g.IsAnyPlaying() {
		t.Error("IsAnyPlaying = true after last player stopped")
	}
	if !h.tickers[0].isStopped() {
		t.Error("corrector still running with empty playing set")
	}

	// Second stop rewinds the group.
	s2.setPosition(42)
	h.g.Stop(s1)
	if got := s1.CurrentTime(); got != 0 {
		t.Errorf("position after second Stop = %v, want 0", got)
	}
	if got := s2.CurrentTime(); got != 0 {
		t.Errorf("sibling position after second Stop = %v, want 0", got)
	}
	if s2.count("play") != 0 {
		t.Error("rewind started a sibling")
	}
	if h.g.GlobalTime() != 0 {
		t.Errorf("GlobalTime = %v, want 0", h.g.GlobalTime())
	}

	// Third stop, already at zero, is a full reset.
	h.g.mu.Lock()
	h.g.clock = 7
	h.g.mu.Unlock()
	seeks := s2.count("seek")
	h.g.Stop(s1)
	if h.g.GlobalTime() != 0 {
		t.Errorf("GlobalTime after reset = %v, want 0", h.g.GlobalTime())
	}
	if s2.count("seek") != seeks+1 {
		t.Errorf("sibling seeks = %d, want %d", s2.count("seek"), seeks+1)
	}
}

func TestStopAllInterruptKeepsPosition(t *testing.T) {
	h := newHarness(t)
	f, s1, _ := h.trio()

	h.g.Start(f)
	h.g.Start(s1)
	f.setPosition(30)
	s1.setPosition(30)
	h.g.mu.Lock()
	h.g.clock = 30
	h.g.mu.Unlock()

	h.g.StopAll()

	if f.IsPlaying() || s1.IsPlaying() {
		t.Error("players still playing after StopAll")
	}
	if f.count("seek") != 0 || s1.count("seek") != 0 {
		t.Error("interrupting StopAll rewound players")
	}
	if h.g.GlobalTime() != 30 {
		t.Errorf("GlobalTime = %v, want 30", h.g.GlobalTime())
	}
	if h.g.IsAnyPlaying() {
		t.Error("IsAnyPlaying = true after StopAll")
	}
	if !h.tickers[0].isStopped() {
		t.Error("corrector not stopped by StopAll")
	}

	h.g.StopAll()

	if f.CurrentTime() != 0 || s1.CurrentTime() != 0 {
		t.Error("resetting StopAll did not rewind players")
	}
	if h.g.GlobalTime() != 0 {
		t.Errorf("GlobalTime after reset = %v, want 0", h.g.GlobalTime())
	}
}

func TestUserSeekPropagates(t *testing.T) {
	h := newHarness(t)
	f, s1, s2 := h.trio()
	s2.duration = 90

	h.g.Start(s1)
	s1.setPosition(45)
	s1.emit(core.Event{Type: core.EventSeek, Time: 45})

	if h.g.GlobalTime() != 45 {
		t.Errorf("GlobalTime = %v, want 45", h.g.GlobalTime())
	}
	if f.CurrentTime() != 45 {
		t.Errorf("full position = %v, want 45", f.CurrentTime())
	}
	if math.Abs(s2.CurrentTime()-45) > 1e-9 {
		t.Errorf("bass position = %v, want 45", s2.CurrentTime())
	}
	if s1.count("seek") != 0 {
		t.Error("seek echoed back to its source")
	}
}

func TestUserSeekSkipsDetachedPlayers(t *testing.T) {
	h := newHarness(t)
	f, s1, s2 := h.trio()

	h.g.Start(s1)
	s2.mu.Lock()
	s2.detached = true
	s2.durationReads = 0
	s2.calls = nil
	s2.mu.Unlock()

	s1.setPosition(30)
	s1.emit(core.Event{Type: core.EventSeek, Time: 30})

	s2.mu.Lock()
	reads, calls := s2.durationReads, len(s2.calls)
	s2.mu.Unlock()
	if reads != 0 || calls != 0 {
		t.Errorf("detached player touched: %d duration reads, calls %d", reads, calls)
	}
	if f.CurrentTime() != 30 {
		t.Errorf("full position = %v, want 30", f.CurrentTime())
	}
}

func TestPlayErrorDropsPlayerButKeepsEntry(t *testing.T) {
	h := newHarness(t)
	_, s1, _ := h.trio()
	s1.playErr = errors.New("decode failed")
	notices, cancel := h.g.Subscribe()
	defer cancel()

	h.g.Start(s1)

	if h.g.IsPlaying(s1) {
		t.Error("failed player left in playing set")
	}
	if _, ok := h.g.Entry(s1); !ok {
		t.Error("failed player lost its registry entry")
	}
	if h.g.IsAnyPlaying() {
		t.Error("IsAnyPlaying = true")
	}
	if !h.tickers[0].isStopped() {
		t.Error("corrector still running")
	}

	found := false
	for len(notices) > 0 {
		if n := <-notices; n.Kind == NoticeError && n.Player == s1 {
			found = true
		}
	}
	if !found {
		t.Error("no error notice published")
	}

	s1.playErr = nil
	h.g.Start(s1)
	if !h.g.IsPlaying(s1) {
		t.Error("player could not be restarted after error")
	}
}

func TestErrorEventDropsPlayer(t *testing.T) {
	h := newHarness(t)
	_, s1, s2 := h.trio()

	h.g.Start(s1)
	h.g.Solo(s2)
	s1.emit(core.Event{Type: core.EventError, Err: errors.New("network")})

	if h.g.IsPlaying(s1) {
		t.Error("erroring player left in playing set")
	}
	if !h.g.IsPlaying(s2) {
		t.Error("healthy player dropped")
	}
	if _, ok := h.g.Entry(s1); !ok {
		t.Error("erroring player lost its entry")
	}
}

func TestStopDoesNotReenter(t *testing.T) {
	h := newHarness(t)
	_, s1, _ := h.trio()
	s1.emitPause = true

	h.g.Start(s1)
	s1.setPosition(10)
	h.g.Stop(s1)

	if n := s1.count("pause"); n != 1 {
		t.Errorf("pause calls = %d, want 1", n)
	}
	if s1.count("seek") != 0 {
		t.Error("pause event re-triggered Stop")
	}
	if h.g.State() != Idle {
		t.Errorf("State = %v, want idle", h.g.State())
	}
}

func TestExternalPauseLeavesPlayingSet(t *testing.T) {
	h := newHarness(t)
	_, s1, s2 := h.trio()

	h.g.Start(s1)
	h.g.Solo(s2)

	s2.mu.Lock()
	s2.playing = false
	s2.mu.Unlock()
	s2.emit(core.Event{Type: core.EventPause})

	if h.g.IsPlaying(s2) {
		t.Error("externally paused player still in playing set")
	}
	if !h.g.IsPlaying(s1) {
		t.Error("other player dropped")
	}
}

func TestFinishedLeavesPlayingSet(t *testing.T) {
	h := newHarness(t)
	_, s1, _ := h.trio()

	h.g.Start(s1)
	s1.emit(core.Event{Type: core.EventFinished})

	if h.g.IsPlaying(s1) || h.g.IsAnyPlaying() {
		t.Error("finished player still playing")
	}
	if !h.tickers[0].isStopped() {
		t.Error("corrector still running after last player finished")
	}
}

func TestFraction(t *testing.T) {
	tests := []struct {
		t, duration float64
		want        float64
		ok          bool
	}{
		{30, 120, 0.25, true},
		{0, 120, 0, true},
		{200, 120, 1, true},
		{-5, 120, 0, true},
		{10, 0, 0, false},
		{10, math.Inf(1), 0, false},
		{10, math.NaN(), 0, false},
	}
	for _, tt := range tests {
		got, ok := fraction(tt.t, tt.duration)
		if ok != tt.ok || got != tt.want {
			t.Errorf("fraction(%v, %v) = %v, %v; want %v, %v", tt.t, tt.duration, got, ok, tt.want, tt.ok)
		}
	}
}
