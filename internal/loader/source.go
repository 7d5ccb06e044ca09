package loader

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"sample-app/internal/storage"
)

// ErrNotFound is returned by a Source when the named input does not exist.
var ErrNotFound = errors.New("source not found")

// Source opens named inputs for the loader.
type Source interface {
	Open(ctx context.Context, name string) (io.ReadCloser, error)
	Describe(name string) string
}

// DirSource reads files relative to a base directory.
type DirSource struct {
	Base string
}

func (s DirSource) Open(_ context.Context, name string) (io.ReadCloser, error) {
	f, err := os.Open(s.path(name))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.path(name))
		}
		return nil, fmt.Errorf("open %s: %w", s.path(name), err)
	}
	return f, nil
}

func (s DirSource) Describe(name string) string {
	return s.path(name)
}

func (s DirSource) path(name string) string {
	return filepath.Join(s.Base, name)
}

// ObjectSource reads objects under a key prefix of a bucket.
type ObjectSource struct {
	Store  storage.Service
	Bucket string
	Prefix string
}

func (s ObjectSource) Open(ctx context.Context, name string) (io.ReadCloser, error) {
	data, err := s.Store.GetObject(ctx, s.Bucket, storage.JoinKey(s.Prefix, name))
	if err != nil {
		if errors.Is(err, storage.ErrObjectNotFound) {
			return nil, fmt.Errorf("%w: %s", ErrNotFound, s.Describe(name))
		}
		return nil, err
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (s ObjectSource) Describe(name string) string {
	return fmt.Sprintf("s3://%s/%s", s.Bucket, storage.JoinKey(s.Prefix, name))
}
