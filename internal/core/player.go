package core

// Player is one playable stream inside a synchronized group: the full mix or
// a single stem. Implementations must not block; completion of play, pause
// and seek is reported through events.
type Player interface {
	// Playback control
	Play() error
	Pause() error
	SeekTo(fraction float64) error

	// Volume control (0..1)
	SetVolume(volume float64) error

	// State queries
	CurrentTime() float64
	Duration() float64
	IsPlaying() bool

	// Attached reports whether the backing stream still exists. Nothing may
	// be called on a player after it reports false.
	Attached() bool

	// Subscribe registers fn for player events and returns a function that
	// removes it. Events for a seek are only emitted for user-initiated seeks,
	// never for SeekTo.
	Subscribe(fn func(Event)) (unsubscribe func())
}

// EventType identifies a player event.
type EventType int

const (
	EventReady EventType = iota
	EventPlay
	EventPause
	EventSeek
	EventTimeUpdate
	EventFinished
	EventError
)

var eventNames = [...]string{
	EventReady:      "ready",
	EventPlay:       "play",
	EventPause:      "pause",
	EventSeek:       "seek",
	EventTimeUpdate: "time-update",
	EventFinished:   "finished",
	EventError:      "error",
}

func (t EventType) String() string {
	if t < 0 || int(t) >= len(eventNames) {
		return "unknown"
	}
	return eventNames[t]
}

// Event is emitted by a Player. Time is the player position in seconds for
// seek and time-update events; Err is set for error events.
type Event struct {
	Type EventType
	Time float64
	Err  error
}
