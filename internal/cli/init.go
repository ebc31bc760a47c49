package cli

import (
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"
	apperrors "github.com/tessro/stemdeck/internal/errors"
	"github.com/tessro/stemdeck/internal/manifest"
	"github.com/tessro/stemdeck/internal/wizard"
)

var (
	initTitle  string
	initArtist string
	initFull   string
	initStems  []string
	initForce  bool
)

var initCmd = &cobra.Command{
	Use:   "init [manifest]",
	Short: "Create a track manifest",
	Long: `Create a track manifest naming a full mix and its stems.

Without flags on a terminal, a form asks for each field. Stem keys are
storage keys; the stem ID defaults to the file name, or give id=key.

Examples:
  stemdeck init
  stemdeck init night-drive.toml --title "Night Drive" --full mixes/night-drive.wav \
    --stem stems/drums.wav --stem vox=stems/vocals-final.wav`,
	Args: cobra.MaximumNArgs(1),
	RunE: runInit,
}

func init() {
	initCmd.Flags().StringVar(&initTitle, "title", "", "Track title")
	initCmd.Flags().StringVar(&initArtist, "artist", "", "Track artist")
	initCmd.Flags().StringVar(&initFull, "full", "", "Storage key of the full mix")
	initCmd.Flags().StringArrayVar(&initStems, "stem", nil, "Stem as key or id=key (repeatable)")
	initCmd.Flags().BoolVar(&initForce, "force", false, "Overwrite an existing manifest")
	rootCmd.AddCommand(initCmd)
}

func runInit(cmd *cobra.Command, args []string) error {
	answers := wizard.ManifestAnswers{
		Title:   initTitle,
		Artist:  initArtist,
		FullMix: initFull,
		Stems:   strings.Join(initStems, "\n"),
	}
	if len(args) == 1 {
		answers.Path = args[0]
	}

	if initFull == "" && len(initStems) == 0 {
		if !wizard.CanInteract() {
			return apperrors.WithSuggestion(
				fmt.Errorf("%w: no streams given", apperrors.ErrInvalidManifest),
				"Pass --full and/or --stem, or run 'stemdeck init' on a terminal for the form")
		}
		var err error
		if answers, err = wizard.RunManifest(answers); err != nil {
			return err
		}
	}
	if answers.Path == "" {
		answers.Path = "track.toml"
	}

	if _, err := os.Stat(answers.Path); err == nil && !initForce {
		return fmt.Errorf("%s already exists (use --force to overwrite)", answers.Path)
	}

	track, err := answers.Track()
	if err != nil {
		return err
	}
	if err := manifest.Save(track, answers.Path); err != nil {
		return err
	}

	if JSONOutput() {
		return json.NewEncoder(os.Stdout).Encode(map[string]any{
			"status":  "created",
			"path":    answers.Path,
			"streams": track.StreamCount(),
		})
	}
	fmt.Printf("Created %s with %d streams\n", answers.Path, track.StreamCount())
	return nil
}
