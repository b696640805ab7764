// Package core defines the blob storage abstraction rollup output is
// published through.
package core

import (
	"bytes"
	"context"
	"errors"
	"io"
	"time"
)

// Driver identifies a concrete blob storage backend implementation.
type Driver string

const (
	// DriverFilesystem represents the local filesystem implementation.
	DriverFilesystem Driver = "fs" // local filesystem (default, dev)
	// DriverS3 represents an S3 / MinIO compatible implementation.
	DriverS3 Driver = "s3"
	// DriverGCS represents Google Cloud Storage or its emulator.
	DriverGCS Driver = "gcs"
	// DriverMemory represents an in-memory implementation typically used in tests.
	DriverMemory Driver = "memory"
)

// PutOptions specifies optional parameters for Put.
type PutOptions struct {
	ContentType string            // MIME type, optional
	Metadata    map[string]string // user metadata; the filesystem driver ignores it
}

// Info describes a stored blob.
type Info struct {
	Key          string            `json:"key"`
	Size         int64             `json:"size_bytes"`
	ContentType  string            `json:"content_type,omitempty"`
	ETag         string            `json:"etag,omitempty"`
	Metadata     map[string]string `json:"metadata,omitempty"`
	LastModified time.Time         `json:"last_modified"`
}

// Store is a thin object-store abstraction. Put replaces any existing
// object at key so a rerun overwrites the previous output.
type Store interface {
	Put(ctx context.Context, key string, r io.Reader, opts PutOptions) (Info, error)
	Get(ctx context.Context, key string) (Info, io.ReadCloser, error)
	Delete(ctx context.Context, key string) (bool, error)
	List(ctx context.Context, prefix string) ([]Info, error)
	Driver() Driver
}

// Staged is an object written but not yet visible under its key.
type Staged interface {
	Key() string
	Commit(ctx context.Context) (Info, error)
	Abort(ctx context.Context) error
}

// Stager is implemented by stores with a native two-phase write.
type Stager interface {
	Stage(ctx context.Context, key string, r io.Reader, opts PutOptions) (Staged, error)
}

// ErrNotFound is returned by Get when no object exists at key.
var ErrNotFound = errors.New("blobstore: not found")

// Stage writes r to a staging area of s. Stores without a native stager
// buffer the content in memory and Put it on commit.
func Stage(ctx context.Context, s Store, key string, r io.Reader, opts PutOptions) (Staged, error) {
	if st, ok := s.(Stager); ok {
		return st.Stage(ctx, key, r, opts)
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return nil, err
	}
	return &buffered{store: s, key: key, data: data, opts: opts}, nil
}

type buffered struct {
	store Store
	key   string
	data  []byte
	opts  PutOptions
	done  bool
}

func (b *buffered) Key() string { return b.key }

func (b *buffered) Commit(ctx context.Context) (Info, error) {
	if b.done {
		return Info{}, errors.New("blobstore: staged object already finished")
	}
	b.done = true
	return b.store.Put(ctx, b.key, bytes.NewReader(b.data), b.opts)
}

func (b *buffered) Abort(context.Context) error {
	b.done = true
	b.data = nil
	return nil
}
