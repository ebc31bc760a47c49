// Package manifest reads and writes track manifests: a full mix plus its
// stems, each pointing at a storage key.
package manifest

import (
	"bytes"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/mitchellh/hashstructure/v2"
	"gopkg.in/yaml.v3"

	"github.com/tessro/stemdeck/internal/core"
	apperrors "github.com/tessro/stemdeck/internal/errors"
)

// Formats lists the source formats a manifest may name.
var Formats = []string{"wav", "mp3"}

// Load reads the manifest at path. TOML and YAML are chosen by extension.
// A manifest without an ID gets its content fingerprint.
func Load(path string) (*core.Track, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil, fmt.Errorf("%w: %s", apperrors.ErrTrackNotFound, path)
		}
		return nil, fmt.Errorf("failed to read manifest: %w", err)
	}

	track := &core.Track{}
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		if _, err := toml.Decode(string(data), track); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidManifest, err)
		}
	case ".yaml", ".yml":
		if err := yaml.Unmarshal(data, track); err != nil {
			return nil, fmt.Errorf("%w: %v", apperrors.ErrInvalidManifest, err)
		}
	default:
		return nil, fmt.Errorf("%w: unknown manifest extension %q", apperrors.ErrInvalidManifest, ext)
	}

	if err := Validate(track); err != nil {
		return nil, err
	}
	if track.ID == "" {
		id, err := Fingerprint(track)
		if err != nil {
			return nil, err
		}
		track.ID = id
	}
	return track, nil
}

// Save writes track to path in the format its extension names.
func Save(track *core.Track, path string) error {
	if err := Validate(track); err != nil {
		return err
	}

	var buf bytes.Buffer
	switch ext := strings.ToLower(filepath.Ext(path)); ext {
	case ".toml":
		encoder := toml.NewEncoder(&buf)
		encoder.Indent = "  "
		if err := encoder.Encode(track); err != nil {
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
	case ".yaml", ".yml":
		encoder := yaml.NewEncoder(&buf)
		encoder.SetIndent(2)
		if err := encoder.Encode(track); err != nil {
			return fmt.Errorf("failed to encode manifest: %w", err)
		}
		_ = encoder.Close()
	default:
		return fmt.Errorf("%w: unknown manifest extension %q", apperrors.ErrInvalidManifest, ext)
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("failed to create manifest directory: %w", err)
	}
	return os.WriteFile(path, buf.Bytes(), 0o644)
}

// Validate reports every problem with track, wrapped in ErrInvalidManifest.
func Validate(track *core.Track) error {
	if track == nil || track.StreamCount() == 0 {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidManifest, apperrors.ErrNoStreams)
	}

	var errs []error
	if track.FullMix != nil {
		if err := validateSource(track.FullMix); err != nil {
			errs = append(errs, fmt.Errorf("full mix: %w", err))
		}
	}

	seen := make(map[string]bool, len(track.Stems))
	for i, s := range track.Stems {
		switch {
		case s.ID == "":
			errs = append(errs, fmt.Errorf("stem %d: missing id", i))
		case seen[s.ID]:
			errs = append(errs, fmt.Errorf("stem %d: duplicate id %q", i, s.ID))
		}
		seen[s.ID] = true
		if err := validateSource(&s.Source); err != nil {
			errs = append(errs, fmt.Errorf("stem %q: %w", s.ID, err))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("%w: %w", apperrors.ErrInvalidManifest, err)
	}
	return nil
}

func validateSource(s *core.Source) error {
	if s.Key == "" {
		return errors.New("missing source key")
	}
	if s.Format == "" {
		return nil
	}
	for _, f := range Formats {
		if strings.EqualFold(s.Format, f) {
			return nil
		}
	}
	return fmt.Errorf("%w: %q", apperrors.ErrUnsupportedFormat, s.Format)
}

// Fingerprint returns a stable ID derived from the track's content. The ID
// field itself is ignored.
func Fingerprint(track *core.Track) (string, error) {
	c := *track
	c.ID = ""
	h, err := hashstructure.Hash(c, hashstructure.FormatV2, nil)
	if err != nil {
		return "", fmt.Errorf("failed to fingerprint track: %w", err)
	}
	return fmt.Sprintf("%016x", h), nil
}
