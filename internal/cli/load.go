package cli

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/tessro/stemdeck/internal/core"
	apperrors "github.com/tessro/stemdeck/internal/errors"
	"github.com/tessro/stemdeck/internal/group"
	"github.com/tessro/stemdeck/internal/manifest"
	"github.com/tessro/stemdeck/internal/session"
	"github.com/tessro/stemdeck/internal/storage"
	"github.com/tessro/stemdeck/internal/usage"
	"github.com/tessro/stemdeck/internal/wizard"
)

// loadTrack loads the manifest at path. A directory is searched for
// manifests; with more than one, the user picks.
func loadTrack(path string) (*core.Track, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrTrackNotFound, path)
		}
		return nil, err
	}
	if !info.IsDir() {
		return manifest.Load(path)
	}

	choices, err := findManifests(path)
	if err != nil {
		return nil, err
	}
	switch {
	case len(choices) == 0:
		return nil, fmt.Errorf("%w: no manifests in %s", apperrors.ErrTrackNotFound, path)
	case len(choices) == 1:
		return manifest.Load(choices[0].Path)
	case !wizard.CanInteract():
		return nil, fmt.Errorf("%d manifests in %s; name one", len(choices), path)
	}

	picked, err := wizard.RunPicker(choices)
	if err != nil {
		return nil, err
	}
	if picked == nil {
		return nil, fmt.Errorf("no track selected")
	}
	return manifest.Load(picked.Path)
}

func findManifests(dir string) ([]wizard.TrackChoice, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, err
	}
	var choices []wizard.TrackChoice
	for _, e := range entries {
		ext := strings.ToLower(filepath.Ext(e.Name()))
		if e.IsDir() || (ext != ".toml" && ext != ".yaml" && ext != ".yml") {
			continue
		}
		path := filepath.Join(dir, e.Name())
		t, err := manifest.Load(path)
		if err != nil {
			slog.Debug("skipping manifest", "path", path, "error", err)
			continue
		}
		choices = append(choices, wizard.TrackChoice{
			Path:    path,
			Title:   t.Title,
			Artist:  t.Artist,
			Streams: t.StreamCount(),
		})
	}
	sort.Slice(choices, func(i, j int) bool { return choices[i].Path < choices[j].Path })
	return choices, nil
}

// openSession resolves and opens every stream of track using the loaded
// config. The returned function closes the session and its reporters.
func openSession(ctx context.Context, track *core.Track) (*session.Session, func(), error) {
	resolver, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return nil, nil, err
	}

	var closers []io.Closer
	if c, ok := resolver.(io.Closer); ok {
		closers = append(closers, c)
	}
	cleanup := func() {
		for i := len(closers) - 1; i >= 0; i-- {
			_ = closers[i].Close()
		}
	}

	reporter, storeCloser, err := buildReporter()
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if storeCloser != nil {
		closers = append(closers, storeCloser)
	}

	res, err := session.Open(ctx, track, session.Options{
		Resolver: resolver,
		Opener:   session.AudioOpener(time.Duration(cfg.Audio.TimeUpdateMs) * time.Millisecond),
		Reporter: reporter,
		GroupOptions: []group.Option{
			group.WithTickInterval(cfg.Sync.TickIntervalDuration()),
			group.WithDriftThreshold(cfg.Sync.DriftThresholdDuration()),
			group.WithThrottle(cfg.Sync.ThrottleDuration()),
		},
		TrackerOptions: []usage.TrackerOption{
			usage.WithMinDuration(cfg.Usage.MinDurationDuration()),
		},
		Logger: slog.Default(),
	})
	if err != nil {
		cleanup()
		return nil, nil, err
	}
	if res.HasErrors() {
		fmt.Fprintf(os.Stderr, "Warning: some streams failed to load:\n%s\n", res.ErrorSummary())
	}

	s := res.Data
	return s, func() {
		if err := s.Close(); err != nil {
			slog.Warn("session close failed", "error", err)
		}
		cleanup()
	}, nil
}

// buildReporter combines the local listen store and the remote endpoint,
// whichever are configured. It returns a nil reporter when neither is.
func buildReporter() (usage.Reporter, io.Closer, error) {
	var (
		reporters usage.Multi
		closer    io.Closer
	)
	if cfg.Usage.Database != "" {
		store, err := usage.OpenStore(cfg.Usage.Database)
		if err != nil {
			return nil, nil, err
		}
		reporters = append(reporters, store)
		closer = store
	}
	if cfg.Usage.Endpoint != "" {
		reporters = append(reporters, usage.NewHTTPReporter(cfg.Usage.Endpoint, cfg.Usage.Token))
	}
	if len(reporters) == 0 {
		return nil, nil, nil
	}
	return reporters, closer, nil
}
