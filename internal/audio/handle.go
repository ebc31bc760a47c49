package audio

import (
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/effects"
	"github.com/faiface/beep/speaker"

	"github.com/tessro/stemdeck/internal/core"
	apperrors "github.com/tessro/stemdeck/internal/errors"
)

// DefaultTimeUpdateInterval is how often a playing handle reports its
// position.
const DefaultTimeUpdateInterval = 250 * time.Millisecond

// Handle is one decoded source mixed into the speaker. It implements
// core.Player.
//
// The streamer chain is decoder -> resampler -> volume -> ctrl. Everything
// the speaker goroutine reads is guarded by speaker.Lock.
type Handle struct {
	name        string
	format      string
	updateEvery time.Duration

	stream beep.StreamSeekCloser
	source beep.Format
	ctrl   *beep.Ctrl
	volume *effects.Volume

	mu         sync.Mutex
	subs       map[int]func(core.Event)
	nextSub    int
	closed     bool
	mixing     bool
	generation int
	stopTicker chan struct{}
}

var _ core.Player = (*Handle)(nil)

func newHandle() *Handle {
	return &Handle{
		updateEvery: DefaultTimeUpdateInterval,
		subs:        make(map[int]func(core.Event)),
	}
}

func (h *Handle) String() string {
	return h.name
}

// Format returns the decoded source format name.
func (h *Handle) Format() string {
	return h.format
}

// Play starts or resumes the handle. A finished handle restarts from the
// beginning.
func (h *Handle) Play() error {
	rate := currentRate()
	if rate == 0 {
		return fmt.Errorf("%w: speaker not initialised", apperrors.ErrAudioDevice)
	}

	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return fmt.Errorf("play %s: handle closed", h.name)
	}
	if h.ctrl == nil {
		h.build(rate)
	}

	speaker.Lock()
	wasPaused := h.ctrl.Paused
	if !h.mixing && h.stream.Position() >= h.stream.Len() {
		if err := h.stream.Seek(0); err != nil {
			speaker.Unlock()
			h.mu.Unlock()
			return fmt.Errorf("rewind %s: %w", h.name, err)
		}
	}
	h.ctrl.Paused = false
	speaker.Unlock()

	started := !h.mixing || wasPaused
	if !h.mixing {
		h.mixing = true
		h.generation++
		gen := h.generation
		speaker.Play(beep.Seq(h.ctrl, beep.Callback(func() {
			// The speaker goroutine holds its lock here.
			go h.finished(gen)
		})))
	}
	if started {
		h.startTicker()
	}
	h.mu.Unlock()

	if started {
		h.emit(core.Event{Type: core.EventPlay, Time: h.CurrentTime()})
	}
	return nil
}

// Pause pauses the handle in place.
func (h *Handle) Pause() error {
	h.mu.Lock()
	if h.closed || h.ctrl == nil {
		h.mu.Unlock()
		return nil
	}
	speaker.Lock()
	wasPlaying := h.mixing && !h.ctrl.Paused
	h.ctrl.Paused = true
	speaker.Unlock()
	if wasPlaying {
		h.stopTickerLocked()
	}
	h.mu.Unlock()

	if wasPlaying {
		h.emit(core.Event{Type: core.EventPause, Time: h.CurrentTime()})
	}
	return nil
}

// SeekTo moves to fraction (0..1) of the duration without emitting a seek
// event.
func (h *Handle) SeekTo(fraction float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return fmt.Errorf("seek %s: handle closed", h.name)
	}
	if math.IsNaN(fraction) {
		return fmt.Errorf("seek %s: invalid position", h.name)
	}
	fraction = math.Max(0, math.Min(1, fraction))

	speaker.Lock()
	defer speaker.Unlock()
	n := int(fraction * float64(h.stream.Len()))
	if err := h.stream.Seek(n); err != nil {
		return fmt.Errorf("seek %s: %w", h.name, err)
	}
	return nil
}

// Seek is a user seek to t seconds. Unlike SeekTo it emits a seek event.
func (h *Handle) Seek(t float64) error {
	d := h.Duration()
	if d <= 0 {
		return nil
	}
	if err := h.SeekTo(t / d); err != nil {
		return err
	}
	h.emit(core.Event{Type: core.EventSeek, Time: h.CurrentTime()})
	return nil
}

// SetVolume sets the linear gain (0..1). Zero silences the handle.
func (h *Handle) SetVolume(v float64) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed {
		return nil
	}
	if h.volume == nil {
		rate := currentRate()
		if rate == 0 {
			rate = h.source.SampleRate
		}
		h.build(rate)
	}

	speaker.Lock()
	defer speaker.Unlock()
	if v <= 0 {
		h.volume.Silent = true
		return nil
	}
	h.volume.Silent = false
	h.volume.Volume = math.Log2(math.Min(v, 1))
	return nil
}

// CurrentTime returns the position in seconds.
func (h *Handle) CurrentTime() float64 {
	speaker.Lock()
	defer speaker.Unlock()
	if h.stream == nil {
		return 0
	}
	return h.source.SampleRate.D(h.stream.Position()).Seconds()
}

// Duration returns the source length in seconds.
func (h *Handle) Duration() float64 {
	if h.stream == nil {
		return 0
	}
	return h.source.SampleRate.D(h.stream.Len()).Seconds()
}

// IsPlaying reports whether the handle is in the mixer and not paused.
func (h *Handle) IsPlaying() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	if h.closed || !h.mixing || h.ctrl == nil {
		return false
	}
	speaker.Lock()
	defer speaker.Unlock()
	return !h.ctrl.Paused
}

// Attached reports whether the handle is still open.
func (h *Handle) Attached() bool {
	h.mu.Lock()
	defer h.mu.Unlock()
	return !h.closed
}

// Subscribe registers fn for events from this handle. The source is
// decoded by the time Open returns, so fn receives a ready event before
// Subscribe returns.
func (h *Handle) Subscribe(fn func(core.Event)) func() {
	h.mu.Lock()
	id := h.nextSub
	h.nextSub++
	h.subs[id] = fn
	ready := !h.closed && h.stream != nil
	h.mu.Unlock()

	if ready {
		fn(core.Event{Type: core.EventReady})
	}

	return func() {
		h.mu.Lock()
		delete(h.subs, id)
		h.mu.Unlock()
	}
}

// Close removes the handle from the mixer and releases the source. The
// handle reports detached afterwards.
func (h *Handle) Close() error {
	h.mu.Lock()
	if h.closed {
		h.mu.Unlock()
		return nil
	}
	h.closed = true
	h.stopTickerLocked()
	if h.ctrl != nil {
		speaker.Lock()
		h.ctrl.Streamer = nil
		speaker.Unlock()
	}
	h.subs = make(map[int]func(core.Event))
	h.mu.Unlock()

	if h.stream == nil {
		return nil
	}
	return h.stream.Close()
}

// build assembles the streamer chain for the device rate. Callers hold h.mu.
func (h *Handle) build(rate beep.SampleRate) {
	if h.ctrl != nil {
		return
	}
	var s beep.Streamer = h.stream
	if rate != 0 && rate != h.source.SampleRate {
		s = beep.Resample(4, h.source.SampleRate, rate, s)
	}
	h.volume = &effects.Volume{Streamer: s, Base: 2}
	h.ctrl = &beep.Ctrl{Streamer: h.volume, Paused: true}
}

func (h *Handle) finished(gen int) {
	h.mu.Lock()
	if h.closed || gen != h.generation {
		h.mu.Unlock()
		return
	}
	h.mixing = false
	h.stopTickerLocked()
	h.mu.Unlock()

	// A decode failure also ends the stream early; report it as an error.
	speaker.Lock()
	err := h.stream.Err()
	speaker.Unlock()
	if err != nil {
		h.emit(core.Event{Type: core.EventError, Time: h.CurrentTime(), Err: fmt.Errorf("decode %s: %w", h.name, err)})
		return
	}
	h.emit(core.Event{Type: core.EventFinished, Time: h.Duration()})
}

// startTicker emits time updates until stopped. Callers hold h.mu.
func (h *Handle) startTicker() {
	if h.stopTicker != nil {
		return
	}
	stop := make(chan struct{})
	h.stopTicker = stop
	go func() {
		t := time.NewTicker(h.updateEvery)
		defer t.Stop()
		for {
			select {
			case <-stop:
				return
			case <-t.C:
				h.emit(core.Event{Type: core.EventTimeUpdate, Time: h.CurrentTime()})
			}
		}
	}()
}

// Callers hold h.mu.
func (h *Handle) stopTickerLocked() {
	if h.stopTicker != nil {
		close(h.stopTicker)
		h.stopTicker = nil
	}
}

func (h *Handle) emit(ev core.Event) {
	h.mu.Lock()
	fns := make([]func(core.Event), 0, len(h.subs))
	for _, fn := range h.subs {
		fns = append(fns, fn)
	}
	h.mu.Unlock()

	for _, fn := range fns {
		fn(ev)
	}
}
