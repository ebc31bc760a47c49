// Package usage records listens: continuous playback segments long enough
// to count as a play of a track or stem.
package usage

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"
	"github.com/tessro/stemdeck/internal/core"
)

// DefaultMinDuration is the length a segment must exceed to count as a
// listen.
const DefaultMinDuration = 30 * time.Second

// Listen is one sustained playback segment.
type Listen struct {
	ID                    string          `json:"id"`
	TrackID               string          `json:"track_id"`
	StemID                string          `json:"stem_id,omitempty"`
	DurationPlayedSeconds float64         `json:"duration_played_seconds"`
	SourceKind            core.SourceKind `json:"source_kind"`
	At                    time.Time       `json:"at"`
}

// Reporter receives listens.
type Reporter interface {
	Report(ctx context.Context, l Listen) error
}

// ReporterFunc adapts a function to Reporter.
type ReporterFunc func(ctx context.Context, l Listen) error

// Report calls f.
func (f ReporterFunc) Report(ctx context.Context, l Listen) error {
	return f(ctx, l)
}

// Multi reports every listen to each reporter in turn.
type Multi []Reporter

// Report sends l to all reporters and joins their errors.
func (m Multi) Report(ctx context.Context, l Listen) error {
	var errs []error
	for _, r := range m {
		if err := r.Report(ctx, l); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

func newListenID() string {
	return uuid.NewString()
}
