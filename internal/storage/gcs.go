package storage

import (
	"context"
	"fmt"
	"path"
	"time"

	"cloud.google.com/go/storage"
	"google.golang.org/api/option"

	apperrors "github.com/tessro/stemdeck/internal/errors"
)

// GCSResolver signs short-lived GET URLs for objects in a Cloud Storage
// bucket.
type GCSResolver struct {
	client *storage.Client
	bucket string
	prefix string
	expiry time.Duration
}

// NewGCSResolver creates a resolver for bucket. Keys are joined to prefix.
// Application default credentials are used when credentialsFile is empty.
func NewGCSResolver(ctx context.Context, bucket, prefix, credentialsFile string, expiry time.Duration) (*GCSResolver, error) {
	if bucket == "" {
		return nil, fmt.Errorf("%w: gcs bucket not set", apperrors.ErrInvalidConfig)
	}

	var opts []option.ClientOption
	if credentialsFile != "" {
		opts = append(opts, option.WithCredentialsFile(credentialsFile))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to create GCS client: %v", apperrors.ErrStorageUnavailable, err)
	}

	if expiry <= 0 {
		expiry = 15 * time.Minute
	}
	return &GCSResolver{
		client: client,
		bucket: bucket,
		prefix: prefix,
		expiry: expiry,
	}, nil
}

// Resolve returns a V4 signed GET URL for key.
func (r *GCSResolver) Resolve(ctx context.Context, key string) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	if key == "" {
		return "", fmt.Errorf("empty storage key")
	}

	u, err := r.client.Bucket(r.bucket).SignedURL(r.objectName(key), &storage.SignedURLOptions{
		Scheme:  storage.SigningSchemeV4,
		Method:  "GET",
		Expires: time.Now().Add(r.expiry),
	})
	if err != nil {
		return "", fmt.Errorf("%w: sign %s: %v", apperrors.ErrStorageUnavailable, key, err)
	}
	return u, nil
}

// Close releases the underlying client.
func (r *GCSResolver) Close() error {
	return r.client.Close()
}

func (r *GCSResolver) objectName(key string) string {
	if r.prefix == "" {
		return key
	}
	return path.Join(r.prefix, key)
}
