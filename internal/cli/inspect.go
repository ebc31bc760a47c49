package cli

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/spf13/cobra"
	"github.com/tessro/stemdeck/internal/audio"
	"github.com/tessro/stemdeck/internal/core"
	"github.com/tessro/stemdeck/internal/storage"
)

var inspectProbe bool

var inspectCmd = &cobra.Command{
	Use:   "inspect <manifest|dir>",
	Short: "Show a track's streams and where they resolve",
	Long: `Show a track manifest's metadata and resolve each stream's storage key.

With --probe each source is also decoded to report its length.`,
	Args: cobra.ExactArgs(1),
	RunE: runInspect,
}

func init() {
	inspectCmd.Flags().BoolVar(&inspectProbe, "probe", false, "Decode sources to report their length")
	rootCmd.AddCommand(inspectCmd)
}

type streamInfo struct {
	ID       string  `json:"id"`
	Name     string  `json:"name"`
	Role     string  `json:"role"`
	Key      string  `json:"key"`
	URL      string  `json:"url,omitempty"`
	Size     int64   `json:"size,omitempty"`
	Format   string  `json:"format,omitempty"`
	Duration float64 `json:"duration,omitempty"`
	Error    string  `json:"error,omitempty"`
}

func runInspect(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	track, err := loadTrack(args[0])
	if err != nil {
		return err
	}

	resolver, err := storage.New(ctx, cfg.Storage)
	if err != nil {
		return err
	}
	if c, ok := resolver.(interface{ Close() error }); ok {
		defer func() { _ = c.Close() }()
	}

	var streams []streamInfo
	if track.FullMix != nil {
		streams = append(streams, inspectStream(ctx, resolver, "full", "Full mix", core.RoleFullTrack, *track.FullMix))
	}
	for _, st := range track.Stems {
		streams = append(streams, inspectStream(ctx, resolver, st.ID, st.Name, core.RoleStem, st.Source))
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"track":   track,
			"streams": streams,
		})
	}

	fmt.Printf("%s - %s\n", track.Artist, track.Title)
	fmt.Printf("  id:      %s\n", track.ID)
	if track.Duration > 0 {
		fmt.Printf("  length:  %s\n", FormatDuration(int(track.Duration.Seconds())))
	}
	fmt.Printf("  streams: %d\n\n", len(streams))

	table := NewTable("ID", "ROLE", "NAME", "KEY", "SIZE", "LENGTH", "STATUS")
	for _, s := range streams {
		size, length, status := "-", "-", "ok"
		if s.Size > 0 {
			size = humanize.Bytes(uint64(s.Size))
		}
		if s.Duration > 0 {
			length = FormatDuration(int(s.Duration)) + " " + s.Format
		}
		if s.Error != "" {
			status = s.Error
		}
		table.Row(s.ID, s.Role, TruncateString(s.Name, 24), TruncateString(s.Key, 40), size, length, status)
	}
	table.Flush()
	return nil
}

func inspectStream(ctx context.Context, r storage.Resolver, id, name string, role core.Role, src core.Source) streamInfo {
	info := streamInfo{ID: id, Name: name, Role: role.String(), Key: src.Key}

	u, err := r.Resolve(ctx, src.Key)
	if err != nil {
		info.Error = err.Error()
		return info
	}
	info.URL = u

	if parsed, err := url.Parse(u); err == nil && parsed.Scheme == "file" {
		if fi, err := os.Stat(parsed.Path); err == nil {
			info.Size = fi.Size()
		}
	}

	if inspectProbe {
		h, err := audio.Open(ctx, u, audio.WithName(name), audio.WithFormat(src.Format))
		if err != nil {
			info.Error = err.Error()
			return info
		}
		info.Format = h.Format()
		info.Duration = h.Duration()
		_ = h.Close()
	}
	return info
}
