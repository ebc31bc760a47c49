// Package storage turns storage keys into URLs a player can fetch.
package storage

import (
	"context"
	"fmt"

	"github.com/tessro/stemdeck/internal/config"
)

// Resolver turns a storage key into a time-limited, fetchable URL.
type Resolver interface {
	Resolve(ctx context.Context, key string) (string, error)
}

// New returns the resolver configured by cfg.
func New(ctx context.Context, cfg config.StorageConfig) (Resolver, error) {
	switch cfg.Backend {
	case "", "local":
		return NewLocalResolver(cfg.Root)
	case "gcs":
		return NewGCSResolver(ctx, cfg.Bucket, cfg.Prefix, cfg.CredentialsFile, cfg.URLExpiryDuration())
	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}
}
