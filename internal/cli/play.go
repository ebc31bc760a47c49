package cli

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/stemdeck/internal/audio"
	apperrors "github.com/tessro/stemdeck/internal/errors"
	"github.com/tessro/stemdeck/internal/session"
	"github.com/tessro/stemdeck/internal/wizard"
)

var (
	playHeadless bool
	playStart    []string
	playSolo     string
	playFor      time.Duration
)

var playCmd = &cobra.Command{
	Use:   "play <manifest|dir>",
	Short: "Play a track's full mix and stems",
	Long: `Load a track manifest and play its streams in sync.

On a terminal this opens the mixer. With --headless, or when output is not
a terminal, the streams named by --start are started (the full mix is
"full"), --solo solos a stem, and group events are printed until
interrupted or nothing is left playing.

Examples:
  stemdeck play night-drive.toml
  stemdeck play tracks/                         # Pick a manifest
  stemdeck play night-drive.toml --headless --start drums,bass
  stemdeck play night-drive.toml --headless --solo vocals --for 30s`,
	Args: cobra.ExactArgs(1),
	RunE: runPlay,
}

func init() {
	playCmd.Flags().BoolVar(&playHeadless, "headless", false, "Run without the mixer UI")
	playCmd.Flags().StringSliceVar(&playStart, "start", nil, "Streams to start (headless)")
	playCmd.Flags().StringVar(&playSolo, "solo", "", "Stem to solo (headless)")
	playCmd.Flags().DurationVar(&playFor, "for", 0, "Stop after this long (headless)")
	addTailFlags(playCmd)
	rootCmd.AddCommand(playCmd)
}

func runPlay(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
	defer cancel()

	track, err := loadTrack(args[0])
	if err != nil {
		return err
	}

	if err := audio.Init(cfg.Audio.SampleRate, time.Duration(cfg.Audio.BufferMs)*time.Millisecond); err != nil {
		return err
	}

	s, closeSession, err := openSession(ctx, track)
	if err != nil {
		return err
	}
	defer closeSession()

	if playHeadless || !wizard.CanInteract() {
		return runHeadless(ctx, s)
	}
	return runInteractive(s)
}

// startRequested applies --start and --solo to s.
func startRequested(s *session.Session) error {
	g := s.Group()
	for _, id := range playStart {
		m, ok := s.Member(id)
		if !ok {
			return fmt.Errorf("%w: no stream %q", apperrors.ErrTrackNotFound, id)
		}
		g.Start(m.Handle)
	}
	if playSolo != "" {
		m, ok := s.Member(playSolo)
		if !ok {
			return fmt.Errorf("%w: no stream %q", apperrors.ErrTrackNotFound, playSolo)
		}
		g.Solo(m.Handle)
	}
	return nil
}

func withLimit(ctx context.Context) (context.Context, context.CancelFunc) {
	if playFor > 0 {
		return context.WithTimeout(ctx, playFor)
	}
	return context.WithCancel(ctx)
}
