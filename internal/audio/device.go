// Package audio plays decoded sources through the shared speaker mixer.
package audio

import (
	"fmt"
	"sync"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/speaker"

	apperrors "github.com/tessro/stemdeck/internal/errors"
)

var (
	deviceMu   sync.Mutex
	deviceRate beep.SampleRate
)

// Init opens the output device at sampleRate with a buffer of the given
// length. Every handle is mixed into this one device. Calling Init again
// with the same rate is a no-op.
func Init(sampleRate int, buffer time.Duration) error {
	deviceMu.Lock()
	defer deviceMu.Unlock()

	sr := beep.SampleRate(sampleRate)
	if deviceRate != 0 {
		if deviceRate == sr {
			return nil
		}
		return fmt.Errorf("%w: already open at %d Hz", apperrors.ErrAudioDevice, deviceRate)
	}
	if err := speaker.Init(sr, sr.N(buffer)); err != nil {
		return fmt.Errorf("%w: %v", apperrors.ErrAudioDevice, err)
	}
	deviceRate = sr
	return nil
}

// currentRate returns the device sample rate, or 0 before Init.
func currentRate() beep.SampleRate {
	deviceMu.Lock()
	defer deviceMu.Unlock()
	return deviceRate
}
