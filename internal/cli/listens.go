package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	apperrors "github.com/tessro/stemdeck/internal/errors"
	"github.com/tessro/stemdeck/internal/usage"
)

var listensLimit int

var listensCmd = &cobra.Command{
	Use:   "listens",
	Short: "Show recorded listens",
	Long: `Show listens recorded in the local listen database, most recent first.

A listen is a stretch of continuous play of at least usage.min_duration
seconds on one stream.`,
	Args: cobra.NoArgs,
	RunE: runListens,
}

func init() {
	listensCmd.Flags().IntVarP(&listensLimit, "limit", "n", 20, "Maximum rows to show (0 for all)")
	rootCmd.AddCommand(listensCmd)
}

func runListens(cmd *cobra.Command, args []string) error {
	if cfg.Usage.Database == "" {
		return apperrors.WithSuggestion(
			fmt.Errorf("%w: usage.database is empty", apperrors.ErrInvalidConfig),
			"Run 'stemdeck config set usage.database <path>' to record listens locally")
	}
	store, err := usage.OpenStore(cfg.Usage.Database)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	totals, err := store.Totals(cmd.Context())
	if err != nil {
		return err
	}
	if listensLimit > 0 && len(totals) > listensLimit {
		totals = totals[:listensLimit]
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(totals)
	}
	if len(totals) == 0 {
		fmt.Println("No listens recorded yet.")
		return nil
	}

	table := NewTable("TRACK", "STREAM", "LISTENS", "PLAYED", "LAST")
	for _, t := range totals {
		stream := t.StemID
		if stream == "" {
			stream = "full"
		}
		table.Row(
			TruncateString(t.TrackID, 18),
			stream,
			humanize.Comma(int64(t.Listens)),
			FormatDuration(int(t.Played/time.Second)),
			humanize.Time(t.LastPlayed),
		)
	}
	table.Flush()
	return nil
}
