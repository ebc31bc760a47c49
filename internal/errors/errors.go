package errors

import (
	"errors"
	"fmt"
	"strings"
)

// Error types for common failure scenarios.
var (
	ErrTrackNotFound      = errors.New("track not found")
	ErrNoStreams          = errors.New("no playable streams")
	ErrSourceNotFound     = errors.New("source not found")
	ErrUnsupportedFormat  = errors.New("unsupported audio format")
	ErrStorageUnavailable = errors.New("storage unavailable")
	ErrKeyOutsideRoot     = errors.New("storage key outside root")
	ErrAudioDevice        = errors.New("audio device unavailable")
	ErrConfigNotFound     = errors.New("config file not found")
	ErrInvalidConfig      = errors.New("invalid configuration")
	ErrInvalidManifest    = errors.New("invalid manifest")
)

// StemdeckError wraps an error with a user-friendly suggestion.
type StemdeckError struct {
	Err        error
	Suggestion string
}

func (e *StemdeckError) Error() string {
	return e.Err.Error()
}

func (e *StemdeckError) Unwrap() error {
	return e.Err
}

// WithSuggestion wraps an error with a helpful suggestion.
func WithSuggestion(err error, suggestion string) error {
	return &StemdeckError{
		Err:        err,
		Suggestion: suggestion,
	}
}

// GetSuggestion returns a suggestion for the given error.
func GetSuggestion(err error) string {
	if err == nil {
		return ""
	}

	var sdErr *StemdeckError
	if errors.As(err, &sdErr) && sdErr.Suggestion != "" {
		return sdErr.Suggestion
	}

	errStr := strings.ToLower(err.Error())

	switch {
	case errors.Is(err, ErrTrackNotFound), errors.Is(err, ErrSourceNotFound):
		return "Check the keys in the manifest against the storage root or bucket"

	case errors.Is(err, ErrNoStreams):
		return "None of the track's streams could be loaded; run 'stemdeck inspect' on the manifest"

	case errors.Is(err, ErrUnsupportedFormat):
		return "Only WAV and MP3 sources are supported; convert stems with your DAW or ffmpeg"

	case errors.Is(err, ErrKeyOutsideRoot):
		return "Storage keys must be relative paths inside storage.root"

	case errors.Is(err, ErrStorageUnavailable), strings.Contains(errStr, "credentials"):
		return "Check storage.backend and credentials in your config"

	case errors.Is(err, ErrAudioDevice):
		return "Make sure an audio output device is available and not held by another program"

	case errors.Is(err, ErrInvalidManifest):
		return "Run 'stemdeck init' to generate a valid manifest"

	case errors.Is(err, ErrConfigNotFound), errors.Is(err, ErrInvalidConfig):
		return "Run 'stemdeck config init' to create a default configuration"

	case strings.Contains(errStr, "timeout") || strings.Contains(errStr, "connection refused"):
		return "Check your network connection and try again"
	}

	return ""
}

// Format returns a formatted error message with suggestion if available.
func Format(err error) string {
	if err == nil {
		return ""
	}

	suggestion := GetSuggestion(err)
	if suggestion != "" {
		return fmt.Sprintf("Error: %s\n\nSuggestion: %s", err.Error(), suggestion)
	}

	return fmt.Sprintf("Error: %s", err.Error())
}

// PartialResult represents a result that may have partial failures.
type PartialResult[T any] struct {
	Data   T
	Errors []error
}

// HasErrors returns true if there were any errors.
func (p *PartialResult[T]) HasErrors() bool {
	return len(p.Errors) > 0
}

// AddError adds an error to the partial result.
func (p *PartialResult[T]) AddError(err error) {
	if err != nil {
		p.Errors = append(p.Errors, err)
	}
}

// ErrorSummary returns a summary of all errors.
func (p *PartialResult[T]) ErrorSummary() string {
	if len(p.Errors) == 0 {
		return ""
	}
	if len(p.Errors) == 1 {
		return p.Errors[0].Error()
	}

	var sb strings.Builder
	sb.WriteString(fmt.Sprintf("%d errors occurred:\n", len(p.Errors)))
	for i, err := range p.Errors {
		sb.WriteString(fmt.Sprintf("  %d. %s\n", i+1, err.Error()))
	}
	return sb.String()
}
