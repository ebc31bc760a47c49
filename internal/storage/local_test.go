package storage

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	apperrors "github.com/tessro/stemdeck/internal/errors"
)

func TestLocalResolverResolve(t *testing.T) {
	root := t.TempDir()
	if err := os.MkdirAll(filepath.Join(root, "stems"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(root, "stems", "drums.wav"), []byte("RIFF"), 0o644); err != nil {
		t.Fatal(err)
	}

	r, err := NewLocalResolver(root)
	if err != nil {
		t.Fatalf("NewLocalResolver() error = %v", err)
	}

	got, err := r.Resolve(context.Background(), "stems/drums.wav")
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if !strings.HasPrefix(got, "file://") || !strings.HasSuffix(got, "/stems/drums.wav") {
		t.Errorf("Resolve() = %q", got)
	}
}

func TestLocalResolverErrors(t *testing.T) {
	r, err := NewLocalResolver(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	tests := []struct {
		name string
		key  string
		want error
	}{
		{"escapes root", "../secret.wav", apperrors.ErrKeyOutsideRoot},
		{"missing", "nope.wav", apperrors.ErrSourceNotFound},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := r.Resolve(context.Background(), tt.key)
			if !errors.Is(err, tt.want) {
				t.Errorf("Resolve(%q) error = %v, want %v", tt.key, err, tt.want)
			}
		})
	}

	if _, err := r.Resolve(context.Background(), ""); err == nil {
		t.Error("empty key accepted")
	}
}

func TestLocalResolverCancelledContext(t *testing.T) {
	r, _ := NewLocalResolver(t.TempDir())
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := r.Resolve(ctx, "a.wav"); !errors.Is(err, context.Canceled) {
		t.Errorf("Resolve() error = %v, want context.Canceled", err)
	}
}

func TestGCSObjectName(t *testing.T) {
	r := &GCSResolver{prefix: "tracks"}
	if got := r.objectName("t1/drums.wav"); got != "tracks/t1/drums.wav" {
		t.Errorf("objectName() = %q", got)
	}
	r.prefix = ""
	if got := r.objectName("t1/drums.wav"); got != "t1/drums.wav" {
		t.Errorf("objectName() = %q", got)
	}
}
