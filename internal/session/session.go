// Package session loads a track manifest into a synchronized group: every
// source is resolved, opened and registered, and listens are tracked.
package session

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"github.com/tessro/stemdeck/internal/audio"
	"github.com/tessro/stemdeck/internal/core"
	apperrors "github.com/tessro/stemdeck/internal/errors"
	"github.com/tessro/stemdeck/internal/group"
	"github.com/tessro/stemdeck/internal/storage"
	"github.com/tessro/stemdeck/internal/usage"
)

// Handle is a player the session owns and closes.
type Handle interface {
	core.Player
	Close() error
}

// Opener opens the source at url. name labels the stream in logs.
type Opener func(ctx context.Context, url string, src core.Source, name string) (Handle, error)

// AudioOpener opens sources on the speaker, reporting positions every
// timeUpdate.
func AudioOpener(timeUpdate time.Duration) Opener {
	return func(ctx context.Context, url string, src core.Source, name string) (Handle, error) {
		return audio.Open(ctx, url,
			audio.WithName(name),
			audio.WithFormat(src.Format),
			audio.WithTimeUpdateInterval(timeUpdate))
	}
}

// Member is one loaded stream.
type Member struct {
	ID     string
	Name   string
	Role   core.Role
	Handle Handle
}

// Options configures Open.
type Options struct {
	Resolver storage.Resolver
	Opener   Opener

	// Reporter receives listens. Nil disables listen tracking.
	Reporter usage.Reporter

	GroupOptions   []group.Option
	TrackerOptions []usage.TrackerOption
	Logger         *slog.Logger
}

// Session is a loaded track.
type Session struct {
	Track *core.Track

	group   *group.Group
	tracker *usage.Tracker
	members []Member
	log     *slog.Logger

	closeOnce sync.Once
	closeErr  error
}

// Open loads every stream of track. Streams that fail to load are reported
// in the result's Errors; Open itself fails only when none load.
func Open(ctx context.Context, track *core.Track, opts Options) (*apperrors.PartialResult[*Session], error) {
	if opts.Resolver == nil {
		return nil, errors.New("session: no resolver")
	}
	if opts.Opener == nil {
		opts.Opener = AudioOpener(audio.DefaultTimeUpdateInterval)
	}
	log := opts.Logger
	if log == nil {
		log = slog.Default()
	}
	log = log.With("track", track.ID)

	plan := streams(track)
	if len(plan) == 0 {
		return nil, apperrors.ErrNoStreams
	}

	handles := make([]Handle, len(plan))
	errs := make([]error, len(plan))
	var wg sync.WaitGroup
	for i, m := range plan {
		i, m := i, m
		wg.Add(1)
		go func() {
			defer wg.Done()
			handles[i], errs[i] = load(ctx, opts, m.src, m.Name)
		}()
	}
	wg.Wait()

	result := &apperrors.PartialResult[*Session]{}
	s := &Session{
		Track: track,
		group: group.New(append([]group.Option{group.WithLogger(log)}, opts.GroupOptions...)...),
		log:   log,
	}
	if opts.Reporter != nil {
		s.tracker = usage.NewTracker(opts.Reporter,
			append([]usage.TrackerOption{usage.WithTrackerLogger(log)}, opts.TrackerOptions...)...)
	}

	for i, m := range plan {
		if errs[i] != nil {
			log.Warn("stream failed to load", "stream", m.Name, "error", errs[i])
			result.AddError(fmt.Errorf("%s: %w", m.Name, errs[i]))
			continue
		}
		member := Member{ID: m.ID, Name: m.Name, Role: m.Role, Handle: handles[i]}
		s.members = append(s.members, member)
		s.group.Register(member.Handle, member.Role)
		if s.tracker != nil {
			src := usage.Source{TrackID: track.ID, Kind: member.Role.Kind()}
			if member.Role == core.RoleStem {
				src.StemID = member.ID
			}
			s.tracker.Watch(member.Handle, src)
		}
	}

	if len(s.members) == 0 {
		s.group.Close()
		return nil, fmt.Errorf("%w: %w", apperrors.ErrNoStreams, errors.Join(result.Errors...))
	}

	log.Info("session opened", "streams", len(s.members), "failed", len(result.Errors))
	result.Data = s
	return result, nil
}

type planned struct {
	Member
	src core.Source
}

// streams lists the track's streams, full mix first.
func streams(track *core.Track) []planned {
	var out []planned
	if track.FullMix != nil {
		out = append(out, planned{
			Member: Member{ID: "full", Name: "Full mix", Role: core.RoleFullTrack},
			src:    *track.FullMix,
		})
	}
	for _, st := range track.Stems {
		name := st.Name
		if name == "" {
			name = st.ID
		}
		out = append(out, planned{
			Member: Member{ID: st.ID, Name: name, Role: core.RoleStem},
			src:    st.Source,
		})
	}
	return out
}

func load(ctx context.Context, opts Options, src core.Source, name string) (Handle, error) {
	url, err := opts.Resolver.Resolve(ctx, src.Key)
	if err != nil {
		return nil, err
	}
	return opts.Opener(ctx, url, src, name)
}

// Group returns the session's synchronized group.
func (s *Session) Group() *group.Group {
	return s.group
}

// Members returns the loaded streams, full mix first.
func (s *Session) Members() []Member {
	out := make([]Member, len(s.members))
	copy(out, s.members)
	return out
}

// Member returns the stream with the given ID. The full mix has ID "full".
func (s *Session) Member(id string) (Member, bool) {
	for _, m := range s.members {
		if m.ID == id {
			return m, true
		}
	}
	return Member{}, false
}

// Seek moves the stream with the given ID to t seconds as a user seek, so
// the rest of the group follows.
func (s *Session) Seek(id string, t float64) error {
	m, ok := s.Member(id)
	if !ok {
		return fmt.Errorf("%w: stream %q", apperrors.ErrTrackNotFound, id)
	}
	seeker, ok := m.Handle.(interface{ Seek(float64) error })
	if !ok {
		return fmt.Errorf("stream %q cannot seek", id)
	}
	return seeker.Seek(t)
}

// Close stops playback, flushes pending listens and releases every stream.
func (s *Session) Close() error {
	s.closeOnce.Do(func() {
		s.group.Close()
		if s.tracker != nil {
			s.tracker.Close()
		}
		var errs []error
		for _, m := range s.members {
			if err := m.Handle.Close(); err != nil {
				errs = append(errs, fmt.Errorf("%s: %w", m.Name, err))
			}
		}
		s.closeErr = errors.Join(errs...)
		s.log.Info("session closed")
	})
	return s.closeErr
}
