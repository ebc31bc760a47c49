package wizard

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/huh"
	"github.com/tessro/stemdeck/internal/core"
)

// ManifestAnswers holds what the manifest wizard collected.
type ManifestAnswers struct {
	Path    string
	Title   string
	Artist  string
	FullMix string
	Stems   string
}

// Track builds a track from the answers. Stems are one per line, either
// "key" or "id=key"; the ID defaults to the file name without extension.
func (a ManifestAnswers) Track() (*core.Track, error) {
	t := &core.Track{
		Title:  strings.TrimSpace(a.Title),
		Artist: strings.TrimSpace(a.Artist),
	}
	if key := strings.TrimSpace(a.FullMix); key != "" {
		t.FullMix = &core.Source{Key: key}
	}

	for _, line := range strings.Split(a.Stems, "\n") {
		line = strings.TrimSpace(line)
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		id, key, ok := strings.Cut(line, "=")
		if !ok {
			key = line
			id = stemID(line)
		}
		id, key = strings.TrimSpace(id), strings.TrimSpace(key)
		if id == "" || key == "" {
			return nil, fmt.Errorf("invalid stem line %q", line)
		}
		t.Stems = append(t.Stems, core.Stem{ID: id, Name: titleCase(id), Source: core.Source{Key: key}})
	}

	if t.StreamCount() == 0 {
		return nil, errors.New("a manifest needs a full mix or at least one stem")
	}
	return t, nil
}

func stemID(key string) string {
	base := key[strings.LastIndex(key, "/")+1:]
	if i := strings.LastIndex(base, "."); i > 0 {
		base = base[:i]
	}
	return strings.ToLower(base)
}

func titleCase(s string) string {
	if s == "" {
		return s
	}
	return strings.ToUpper(s[:1]) + s[1:]
}

// RunManifest asks for a new manifest, starting from defaults.
func RunManifest(defaults ManifestAnswers) (ManifestAnswers, error) {
	a := defaults
	if a.Path == "" {
		a.Path = "track.toml"
	}

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Manifest file").
				Description("Saved as TOML or YAML by extension").
				Value(&a.Path).
				Validate(func(s string) error {
					if !strings.HasSuffix(s, ".toml") && !strings.HasSuffix(s, ".yaml") && !strings.HasSuffix(s, ".yml") {
						return errors.New("use a .toml, .yaml or .yml file")
					}
					return nil
				}),
			huh.NewInput().
				Title("Title").
				Value(&a.Title),
			huh.NewInput().
				Title("Artist").
				Value(&a.Artist),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Full mix key").
				Description("Storage key of the full mix, blank for stems only").
				Value(&a.FullMix),
			huh.NewText().
				Title("Stems").
				Description("One per line: key, or id=key").
				Value(&a.Stems),
		),
	)

	if err := form.Run(); err != nil {
		return ManifestAnswers{}, fmt.Errorf("wizard cancelled: %w", err)
	}
	return a, nil
}
