package cli

import (
	"time"

	"github.com/tessro/stemdeck/internal/session"
	"github.com/tessro/stemdeck/internal/tui"
	"github.com/tessro/stemdeck/internal/tui/styles"
)

// runInteractive opens the mixer over s. --start and --solo are applied
// before the UI takes over.
func runInteractive(s *session.Session) error {
	if err := startRequested(s); err != nil {
		return err
	}
	styles.SetTheme(cfg.TUI.Theme)
	return tui.Run(s, time.Duration(cfg.TUI.RefreshInterval)*time.Millisecond)
}
