package audio

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"path"
	"strings"
	"time"

	"github.com/faiface/beep"
	"github.com/faiface/beep/mp3"
	"github.com/faiface/beep/wav"

	apperrors "github.com/tessro/stemdeck/internal/errors"
)

// maxRemoteSize bounds how much of a remote source is buffered in memory.
const maxRemoteSize = 512 << 20

var httpClient = &http.Client{Timeout: 60 * time.Second}

// Option configures a Handle.
type Option func(*Handle)

// WithName sets the name used in logs and notices.
func WithName(name string) Option {
	return func(h *Handle) {
		h.name = name
	}
}

// WithFormat overrides format detection from the URL extension.
func WithFormat(format string) Option {
	return func(h *Handle) {
		h.format = strings.ToLower(strings.TrimPrefix(format, "."))
	}
}

// WithTimeUpdateInterval sets how often time-update events fire while
// playing.
func WithTimeUpdateInterval(d time.Duration) Option {
	return func(h *Handle) {
		if d > 0 {
			h.updateEvery = d
		}
	}
}

// Open fetches and decodes the source at rawURL. file:// URLs are read from
// disk; http(s) URLs are downloaded into memory so they can be seeked.
func Open(ctx context.Context, rawURL string, opts ...Option) (*Handle, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return nil, fmt.Errorf("invalid source URL: %w", err)
	}

	h := newHandle()
	for _, opt := range opts {
		opt(h)
	}
	if h.format == "" {
		h.format = strings.TrimPrefix(strings.ToLower(path.Ext(u.Path)), ".")
	}
	if h.name == "" {
		h.name = path.Base(u.Path)
	}

	decode, ok := decoders[h.format]
	if !ok {
		return nil, fmt.Errorf("%w: %q", apperrors.ErrUnsupportedFormat, h.format)
	}

	rc, err := fetch(ctx, u)
	if err != nil {
		return nil, err
	}
	stream, format, err := decode(rc)
	if err != nil {
		_ = rc.Close()
		return nil, fmt.Errorf("failed to decode %s: %w", h.name, err)
	}
	h.stream = stream
	h.source = format
	return h, nil
}

type decoder func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error)

var decoders = map[string]decoder{
	"wav": func(rc io.ReadCloser) (beep.StreamSeekCloser, beep.Format, error) {
		return wav.Decode(rc)
	},
	"mp3": mp3.Decode,
}

func fetch(ctx context.Context, u *url.URL) (io.ReadCloser, error) {
	switch u.Scheme {
	case "file", "":
		f, err := os.Open(u.Path)
		if err != nil {
			if os.IsNotExist(err) {
				return nil, fmt.Errorf("%w: %s", apperrors.ErrSourceNotFound, u.Path)
			}
			return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
		}
		return f, nil
	case "http", "https":
		return download(ctx, u.String())
	default:
		return nil, fmt.Errorf("%w: unsupported scheme %q", apperrors.ErrStorageUnavailable, u.Scheme)
	}
}

func download(ctx context.Context, rawURL string) (io.ReadCloser, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to create request: %w", err)
	}
	resp, err := httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	defer func() { _ = resp.Body.Close() }()

	switch {
	case resp.StatusCode == http.StatusNotFound || resp.StatusCode == http.StatusForbidden:
		return nil, fmt.Errorf("%w: status %d", apperrors.ErrSourceNotFound, resp.StatusCode)
	case resp.StatusCode != http.StatusOK:
		return nil, fmt.Errorf("%w: status %d", apperrors.ErrStorageUnavailable, resp.StatusCode)
	}

	data, err := io.ReadAll(io.LimitReader(resp.Body, maxRemoteSize))
	if err != nil {
		return nil, fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}
	return memFile{bytes.NewReader(data)}, nil
}

// memFile is a seekable in-memory source.
type memFile struct {
	*bytes.Reader
}

func (memFile) Close() error { return nil }
