package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/spf13/cobra"
	"github.com/tessro/stemdeck/internal/group"
	"github.com/tessro/stemdeck/internal/session"
	"github.com/tessro/stemdeck/internal/tail"
	"github.com/tessro/stemdeck/internal/wizard"
)

var (
	tailNoEmoji   bool
	tailTimestamp bool
	tailFormat    string
	tailInterval  time.Duration
)

func addTailFlags(cmd *cobra.Command) {
	cmd.Flags().BoolVar(&tailNoEmoji, "no-emoji", false, "disable emoji output (off when not a terminal)")
	cmd.Flags().BoolVarP(&tailTimestamp, "timestamp", "t", false, "show timestamps")
	cmd.Flags().StringVarP(&tailFormat, "format", "f", "", "custom format template")
	cmd.Flags().DurationVarP(&tailInterval, "interval", "i", 250*time.Millisecond, "poll interval")
}

// runHeadless starts the requested streams and prints group events until
// ctx is done or the group goes idle.
func runHeadless(ctx context.Context, s *session.Session) error {
	formatter := tail.NewFormatter(
		tail.WithEmoji(!tailNoEmoji && wizard.IsTerminal()),
		tail.WithTimestamp(tailTimestamp),
		tail.WithTemplate(tailFormat),
	)

	ctx, cancel := withLimit(ctx)
	defer cancel()

	g := s.Group()
	notices, unsubscribe := g.Subscribe()
	defer unsubscribe()

	watcher := tail.NewWatcher(g, tailInterval)
	errCh := make(chan error, 1)
	go func() {
		errCh <- watcher.Start(ctx)
	}()

	if err := startRequested(s); err != nil {
		return err
	}

	for {
		select {
		case event, ok := <-watcher.Events():
			if !ok {
				return nil
			}
			printEvent(formatter, event)

		case n, ok := <-notices:
			if !ok {
				return nil
			}
			if event, ok := tail.FromNotice(n); ok {
				printEvent(formatter, event)
			}
			if n.Kind == group.NoticeState && n.To == group.Idle {
				return nil
			}

		case err := <-errCh:
			if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
				return nil
			}
			return err
		}
	}
}

func printEvent(formatter *tail.Formatter, event tail.Event) {
	if JSONOutput() {
		_ = json.NewEncoder(os.Stdout).Encode(eventJSON(event))
		return
	}
	fmt.Println(formatter.Format(event))
}

type jsonEvent struct {
	Type      string    `json:"type"`
	Timestamp time.Time `json:"timestamp"`
	Stream    string    `json:"stream,omitempty"`
	From      string    `json:"from,omitempty"`
	To        string    `json:"to,omitempty"`
	Time      float64   `json:"time"`
	Error     string    `json:"error,omitempty"`
}

func eventJSON(e tail.Event) jsonEvent {
	out := jsonEvent{
		Type:      e.Type.String(),
		Timestamp: e.Timestamp,
		From:      e.From,
		To:        e.To,
		Time:      e.Time,
	}
	if e.Stream != nil {
		out.Stream = e.Stream.Name
	}
	if e.Err != nil {
		out.Error = e.Err.Error()
	}
	return out
}
