// Package blob re-exports core blob abstractions and opens the configured
// backend.
package blob

import (
	"context"
	"fmt"
	"io"

	"rollupload/internal/blob/core"
	"rollupload/internal/config"
	"rollupload/internal/infra/blob/fs"
	"rollupload/internal/infra/blob/gcs"
	memorystore "rollupload/internal/infra/blob/memory"
	infraS3 "rollupload/internal/infra/blob/s3"
)

type (
	// Driver identifies a blob backend driver.
	Driver = core.Driver
	// PutOptions configures a blob write.
	PutOptions = core.PutOptions
	// Info describes stored blob metadata.
	Info = core.Info
	// Store is the interface for blob storage backends.
	Store = core.Store
	// Staged is a written but uncommitted object.
	Staged = core.Staged
)

const (
	DriverFilesystem = core.DriverFilesystem
	DriverS3         = core.DriverS3
	DriverGCS        = core.DriverGCS
	DriverMemory     = core.DriverMemory
)

// ErrNotFound indicates a missing object.
var ErrNotFound = core.ErrNotFound

// Open selects a Store implementation from the blob configuration.
func Open(ctx context.Context, cfg config.BlobConfig) (Store, error) {
	switch Driver(cfg.Driver) {
	case DriverFilesystem, "":
		return fs.New(cfg.FSRoot)
	case DriverMemory:
		return memorystore.New(), nil
	case DriverS3:
		return infraS3.New(ctx, infraS3.Config{
			Bucket:    cfg.S3.Bucket,
			Region:    cfg.S3.Region,
			Endpoint:  cfg.S3.Endpoint,
			PathStyle: cfg.S3.PathStyle,
		})
	case DriverGCS:
		return gcs.New(ctx, gcs.Config{Bucket: cfg.GCS.Bucket, EmulatorHost: cfg.GCS.EmulatorHost})
	default:
		return nil, fmt.Errorf("unknown blob driver %s", cfg.Driver)
	}
}

// Stage writes r to key without making it visible until Commit.
func Stage(ctx context.Context, s Store, key string, r io.Reader, opts PutOptions) (Staged, error) {
	return core.Stage(ctx, s, key, r, opts)
}
