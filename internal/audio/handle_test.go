package audio

import (
	"context"
	"errors"
	"math"
	"net/http"
	"net/http/httptest"
	"net/url"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/faiface/beep"
	"github.com/faiface/beep/wav"

	"github.com/tessro/stemdeck/internal/core"
	apperrors "github.com/tessro/stemdeck/internal/errors"
)

// writeWAV writes one second of 8 kHz mono silence and returns its path.
func writeWAV(t *testing.T, dir, name string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	f, err := os.Create(path)
	if err != nil {
		t.Fatal(err)
	}
	format := beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
	if err := wav.Encode(f, beep.Silence(8000), format); err != nil {
		t.Fatalf("encode: %v", err)
	}
	if err := f.Close(); err != nil {
		t.Fatal(err)
	}
	return path
}

func fileURL(path string) string {
	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String()
}

type events struct {
	mu  sync.Mutex
	got []core.Event
}

func (e *events) add(ev core.Event) {
	e.mu.Lock()
	e.got = append(e.got, ev)
	e.mu.Unlock()
}

func (e *events) of(typ core.EventType) []core.Event {
	e.mu.Lock()
	defer e.mu.Unlock()
	var out []core.Event
	for _, ev := range e.got {
		if ev.Type == typ {
			out = append(out, ev)
		}
	}
	return out
}

func TestOpenLocalWAV(t *testing.T) {
	path := writeWAV(t, t.TempDir(), "drums.wav")

	h, err := Open(context.Background(), fileURL(path))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = h.Close() }()

	if h.String() != "drums.wav" {
		t.Errorf("name = %q, want drums.wav", h.String())
	}
	if h.Format() != "wav" {
		t.Errorf("format = %q, want wav", h.Format())
	}
	if math.Abs(h.Duration()-1) > 1e-9 {
		t.Errorf("Duration = %v, want 1", h.Duration())
	}
	if h.CurrentTime() != 0 {
		t.Errorf("CurrentTime = %v, want 0", h.CurrentTime())
	}
	if h.IsPlaying() {
		t.Error("IsPlaying before Play")
	}
	if !h.Attached() {
		t.Error("Attached = false for open handle")
	}
}

func TestSeekToIsSilentSeekIsNot(t *testing.T) {
	h, err := Open(context.Background(), fileURL(writeWAV(t, t.TempDir(), "bass.wav")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = h.Close() }()

	var ev events
	unsubscribe := h.Subscribe(ev.add)

	if err := h.SeekTo(0.5); err != nil {
		t.Fatalf("SeekTo: %v", err)
	}
	if math.Abs(h.CurrentTime()-0.5) > 1e-3 {
		t.Errorf("CurrentTime = %v, want 0.5", h.CurrentTime())
	}
	if n := len(ev.of(core.EventSeek)); n != 0 {
		t.Errorf("SeekTo emitted %d seek events", n)
	}

	if err := h.Seek(0.25); err != nil {
		t.Fatalf("Seek: %v", err)
	}
	seeks := ev.of(core.EventSeek)
	if len(seeks) != 1 || math.Abs(seeks[0].Time-0.25) > 1e-3 {
		t.Errorf("seek events = %+v, want one at 0.25", seeks)
	}

	unsubscribe()
	_ = h.Seek(0.1)
	if n := len(ev.of(core.EventSeek)); n != 1 {
		t.Errorf("events after unsubscribe: %d seeks, want 1", n)
	}

	if err := h.SeekTo(7); err != nil {
		t.Fatalf("SeekTo beyond end: %v", err)
	}
	if math.Abs(h.CurrentTime()-1) > 1e-3 {
		t.Errorf("SeekTo(7) left position at %v, want clamped to 1", h.CurrentTime())
	}
}

func TestVolume(t *testing.T) {
	h, err := Open(context.Background(), fileURL(writeWAV(t, t.TempDir(), "keys.wav")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = h.Close() }()

	if err := h.SetVolume(0); err != nil {
		t.Fatal(err)
	}
	if !h.volume.Silent {
		t.Error("volume 0 not silent")
	}
	if err := h.SetVolume(1); err != nil {
		t.Fatal(err)
	}
	if h.volume.Silent || h.volume.Volume != 0 {
		t.Errorf("volume 1 = {Silent:%v Volume:%v}, want unity", h.volume.Silent, h.volume.Volume)
	}
}

func TestPlayWithoutDevice(t *testing.T) {
	if currentRate() != 0 {
		t.Skip("speaker already initialised")
	}
	h, err := Open(context.Background(), fileURL(writeWAV(t, t.TempDir(), "vox.wav")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = h.Close() }()

	if err := h.Play(); !errors.Is(err, apperrors.ErrAudioDevice) {
		t.Errorf("Play = %v, want ErrAudioDevice", err)
	}
	if h.IsPlaying() {
		t.Error("IsPlaying after failed Play")
	}
}

func TestCloseDetaches(t *testing.T) {
	h, err := Open(context.Background(), fileURL(writeWAV(t, t.TempDir(), "gtr.wav")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	if err := h.Close(); err != nil {
		t.Fatalf("Close: %v", err)
	}
	if h.Attached() {
		t.Error("Attached after Close")
	}
	if err := h.Close(); err != nil {
		t.Errorf("second Close = %v", err)
	}
	if err := h.SeekTo(0.5); err == nil {
		t.Error("SeekTo on closed handle succeeded")
	}
}

func TestOpenErrors(t *testing.T) {
	dir := t.TempDir()

	tests := []struct {
		name string
		url  string
		want error
	}{
		{"missing file", fileURL(filepath.Join(dir, "nope.wav")), apperrors.ErrSourceNotFound},
		{"unknown extension", fileURL(filepath.Join(dir, "song.ogg")), apperrors.ErrUnsupportedFormat},
		{"unknown scheme", "ftp://example.com/a.wav", apperrors.ErrStorageUnavailable},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Open(context.Background(), tt.url)
			if !errors.Is(err, tt.want) {
				t.Errorf("Open(%q) = %v, want %v", tt.url, err, tt.want)
			}
		})
	}
}

func TestOpenHTTP(t *testing.T) {
	path := writeWAV(t, t.TempDir(), "mix.wav")
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/mix":
			_, _ = w.Write(data)
		case "/broken.wav":
			w.WriteHeader(http.StatusBadGateway)
		default:
			http.NotFound(w, r)
		}
	}))
	defer srv.Close()

	h, err := Open(context.Background(), srv.URL+"/mix?sig=abc", WithFormat("WAV"), WithName("full mix"))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}
	defer func() { _ = h.Close() }()
	if h.String() != "full mix" {
		t.Errorf("name = %q", h.String())
	}
	if err := h.SeekTo(0.5); err != nil {
		t.Errorf("remote source not seekable: %v", err)
	}

	if _, err := Open(context.Background(), srv.URL+"/gone.wav"); !errors.Is(err, apperrors.ErrSourceNotFound) {
		t.Errorf("404 = %v, want ErrSourceNotFound", err)
	}
	if _, err := Open(context.Background(), srv.URL+"/broken.wav"); !errors.Is(err, apperrors.ErrStorageUnavailable) {
		t.Errorf("502 = %v, want ErrStorageUnavailable", err)
	}
}

// brokenStream ends early with a decode error.
type brokenStream struct {
	pos, len int
	err      error
}

func (s *brokenStream) Stream(samples [][2]float64) (int, bool) { return 0, false }
func (s *brokenStream) Err() error                              { return s.err }
func (s *brokenStream) Len() int                                { return s.len }
func (s *brokenStream) Position() int                           { return s.pos }
func (s *brokenStream) Seek(int) error                          { return nil }
func (s *brokenStream) Close() error                            { return nil }

func TestEndOfStreamReportsDecodeError(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    core.EventType
		wantErr bool
	}{
		{"clean end", nil, core.EventFinished, false},
		{"truncated source", errors.New("unexpected EOF"), core.EventError, true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := newHandle()
			h.name = "drums.wav"
			h.stream = &brokenStream{pos: 4000, len: 8000, err: tt.err}
			h.source = beep.Format{SampleRate: 8000, NumChannels: 1, Precision: 2}
			h.mixing = true
			h.generation = 1

			var ev events
			h.Subscribe(ev.add)
			h.finished(1)

			got := append(ev.of(core.EventFinished), ev.of(core.EventError)...)
			if len(got) != 1 || got[0].Type != tt.want {
				t.Fatalf("end events = %+v, want one %v", got, tt.want)
			}
			if (got[0].Err != nil) != tt.wantErr {
				t.Errorf("Err = %v, wantErr %v", got[0].Err, tt.wantErr)
			}
			if tt.wantErr && !errors.Is(got[0].Err, tt.err) {
				t.Errorf("Err = %v, want wrapping %v", got[0].Err, tt.err)
			}
			if h.IsPlaying() {
				t.Error("IsPlaying after end of stream")
			}
		})
	}
}

func TestSubscribeDeliversReady(t *testing.T) {
	h, err := Open(context.Background(), fileURL(writeWAV(t, t.TempDir(), "perc.wav")))
	if err != nil {
		t.Fatalf("Open: %v", err)
	}

	var ev events
	unsubscribe := h.Subscribe(ev.add)
	if n := len(ev.of(core.EventReady)); n != 1 {
		t.Errorf("ready events = %d, want 1", n)
	}
	unsubscribe()

	_ = h.Close()
	var late events
	h.Subscribe(late.add)
	if n := len(late.of(core.EventReady)); n != 0 {
		t.Errorf("ready events after Close = %d, want 0", n)
	}
}
