package blob

import (
	"context"
	"testing"

	"rollupload/internal/config"
)

func TestOpenSelectsDriver(t *testing.T) {
	ctx := context.Background()
	cases := []struct {
		cfg  config.BlobConfig
		want Driver
	}{
		{config.BlobConfig{Driver: "fs", FSRoot: t.TempDir()}, DriverFilesystem},
		{config.BlobConfig{Driver: "memory"}, DriverMemory},
		{config.BlobConfig{Driver: "s3", S3: config.S3Config{Bucket: "rollups", Region: "us-east-1", Endpoint: "http://127.0.0.1:9000", PathStyle: true}}, DriverS3},
	}
	for _, tc := range cases {
		s, err := Open(ctx, tc.cfg)
		if err != nil {
			t.Fatalf("open %s: %v", tc.cfg.Driver, err)
		}
		if s.Driver() != tc.want {
			t.Fatalf("driver = %s, want %s", s.Driver(), tc.want)
		}
	}
	if _, err := Open(ctx, config.BlobConfig{Driver: "ftp"}); err == nil {
		t.Fatalf("expected unknown driver error")
	}
	if _, err := Open(ctx, config.BlobConfig{Driver: "gcs"}); err == nil {
		t.Fatalf("expected missing bucket error")
	}
}
