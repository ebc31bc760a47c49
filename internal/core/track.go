package core

import "time"

// Source points at one rendered audio file in storage.
type Source struct {
	Key    string `json:"key" toml:"key" yaml:"key"`
	Format string `json:"format,omitempty" toml:"format,omitempty" yaml:"format,omitempty"`
}

// Stem is one isolated rendering of a track, e.g. a single instrument.
type Stem struct {
	ID     string `json:"id" toml:"id" yaml:"id"`
	Name   string `json:"name" toml:"name" yaml:"name"`
	Source Source `json:"source" toml:"source" yaml:"source"`
}

// Track is a piece with its full mix and any number of stems.
type Track struct {
	ID       string        `json:"id" toml:"id" yaml:"id"`
	Title    string        `json:"title" toml:"title" yaml:"title"`
	Artist   string        `json:"artist" toml:"artist" yaml:"artist"`
	Duration time.Duration `json:"duration,omitempty" toml:"duration,omitempty" yaml:"duration,omitempty"`
	FullMix  *Source       `json:"full_mix,omitempty" toml:"full_mix,omitempty" yaml:"full_mix,omitempty"`
	Stems    []Stem        `json:"stems" toml:"stems" yaml:"stems"`
}

// StreamCount returns the number of playable renderings.
func (t *Track) StreamCount() int {
	if t == nil {
		return 0
	}
	n := len(t.Stems)
	if t.FullMix != nil {
		n++
	}
	return n
}

// Stem returns the stem with the given ID, or nil.
func (t *Track) Stem(id string) *Stem {
	if t == nil {
		return nil
	}
	for i := range t.Stems {
		if t.Stems[i].ID == id {
			return &t.Stems[i]
		}
	}
	return nil
}
