// Package gcs implements the blob Store on Google Cloud Storage. Setting an
// emulator host points the client at a fake-gcs-server style emulator
// without authentication.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"cloud.google.com/go/storage"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	"rollupload/internal/blob/core"
)

// Config selects the bucket and, optionally, an emulator endpoint.
type Config struct {
	Bucket       string
	EmulatorHost string
}

// Store implements core.Store on a single GCS bucket.
type Store struct {
	client *storage.Client
	bucket string
}

// New creates a GCS client for cfg.
func New(ctx context.Context, cfg Config) (*Store, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("gcs bucket required")
	}
	var opts []option.ClientOption
	if host := strings.TrimRight(strings.TrimSpace(cfg.EmulatorHost), "/"); host != "" {
		// the storage client reads the emulator endpoint from the environment
		if err := os.Setenv("STORAGE_EMULATOR_HOST", host); err != nil {
			return nil, err
		}
		opts = append(opts, option.WithoutAuthentication())
	} else {
		opts = append(opts, option.WithScopes(storage.ScopeReadWrite))
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	return &Store{client: client, bucket: cfg.Bucket}, nil
}

func (s *Store) Driver() core.Driver { return core.DriverGCS }

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }

// Put uploads r in one object write; readers see either the old or the new
// object. A failed read cancels the upload instead of finalizing a partial
// object.
func (s *Store) Put(ctx context.Context, key string, r io.Reader, opts core.PutOptions) (core.Info, error) {
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()
	w := s.client.Bucket(s.bucket).Object(key).NewWriter(ctx)
	w.ContentType = opts.ContentType
	w.Metadata = opts.Metadata
	if _, err := io.Copy(w, r); err != nil {
		cancel()
		return core.Info{}, fmt.Errorf("write gs://%s/%s: %w", s.bucket, key, err)
	}
	if err := w.Close(); err != nil {
		return core.Info{}, fmt.Errorf("close gs://%s/%s: %w", s.bucket, key, err)
	}
	return fromAttrs(w.Attrs()), nil
}

func (s *Store) Get(ctx context.Context, key string) (core.Info, io.ReadCloser, error) {
	obj := s.client.Bucket(s.bucket).Object(key)
	r, err := obj.NewReader(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return core.Info{}, nil, fmt.Errorf("%w: %s", core.ErrNotFound, key)
	}
	if err != nil {
		return core.Info{}, nil, err
	}
	info := core.Info{Key: key, Size: r.Attrs.Size, ContentType: r.Attrs.ContentType, LastModified: r.Attrs.LastModified}
	return info, r, nil
}

func (s *Store) Delete(ctx context.Context, key string) (bool, error) {
	err := s.client.Bucket(s.bucket).Object(key).Delete(ctx)
	if errors.Is(err, storage.ErrObjectNotExist) {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return true, nil
}

func (s *Store) List(ctx context.Context, prefix string) ([]core.Info, error) {
	var infos []core.Info
	it := s.client.Bucket(s.bucket).Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			break
		}
		if err != nil {
			return nil, err
		}
		infos = append(infos, fromAttrs(attrs))
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].Key < infos[j].Key })
	return infos, nil
}

func fromAttrs(a *storage.ObjectAttrs) core.Info {
	if a == nil {
		return core.Info{}
	}
	return core.Info{Key: a.Name, Size: a.Size, ContentType: a.ContentType, ETag: a.Etag, Metadata: a.Metadata, LastModified: a.Updated}
}
