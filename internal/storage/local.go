package storage

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"path/filepath"
	"strings"

	apperrors "github.com/tessro/stemdeck/internal/errors"
)

// LocalResolver serves keys from a directory on disk as file:// URLs.
// Local files do not expire.
type LocalResolver struct {
	root string
}

// NewLocalResolver creates a resolver rooted at root. An empty root means
// the current directory.
func NewLocalResolver(root string) (*LocalResolver, error) {
	if root == "" {
		root = "."
	}
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve storage root: %w", err)
	}
	return &LocalResolver{root: abs}, nil
}

// Root returns the absolute storage root.
func (r *LocalResolver) Root() string {
	return r.root
}

// Resolve returns a file:// URL for key. Keys may not escape the root.
func (r *LocalResolver) Resolve(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}

	path := filepath.Join(r.root, filepath.FromSlash(key))
	rel, err := filepath.Rel(r.root, path)
	if err != nil || rel == ".." || strings.HasPrefix(rel, ".."+string(filepath.Separator)) {
		return "", fmt.Errorf("%w: %s", apperrors.ErrKeyOutsideRoot, key)
	}

	if _, err := os.Stat(path); err != nil {
		if os.IsNotExist(err) {
			return "", fmt.Errorf("%w: %s", apperrors.ErrSourceNotFound, key)
		}
		return "", fmt.Errorf("%w: %v", apperrors.ErrStorageUnavailable, err)
	}

	u := url.URL{Scheme: "file", Path: filepath.ToSlash(path)}
	return u.String(), nil
}
