package memory

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"rollupload/internal/blob/core"
)

func TestMemoryStore(t *testing.T) {
	ctx := context.Background()
	s := New()
	if s.Driver() != core.DriverMemory {
		t.Fatalf("driver = %s", s.Driver())
	}
	md := map[string]string{"run-id": "r1"}
	if _, err := s.Put(ctx, "p/a", strings.NewReader("one"), core.PutOptions{Metadata: md}); err != nil {
		t.Fatalf("put: %v", err)
	}
	md["run-id"] = "mutated"
	if _, err := s.Put(ctx, "p/a", strings.NewReader("two"), core.PutOptions{}); err != nil {
		t.Fatalf("replace: %v", err)
	}
	if _, err := s.Put(ctx, "q/b", strings.NewReader("three"), core.PutOptions{}); err != nil {
		t.Fatalf("put: %v", err)
	}
	if s.Puts() != 3 {
		t.Fatalf("puts = %d", s.Puts())
	}
	_, rc, err := s.Get(ctx, "p/a")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	b, _ := io.ReadAll(rc)
	if string(b) != "two" {
		t.Fatalf("got %q", b)
	}
	infos, _ := s.List(ctx, "p/")
	if len(infos) != 1 || infos[0].Key != "p/a" {
		t.Fatalf("list = %+v", infos)
	}
	if ok, _ := s.Delete(ctx, "p/a"); !ok {
		t.Fatalf("expected delete to report existing key")
	}
	if _, _, err := s.Get(ctx, "p/a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestMemoryStoreHonoursCancelledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := New().Put(ctx, "k", strings.NewReader("x"), core.PutOptions{}); !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context error, got %v", err)
	}
}

func TestMemoryStoreStaging(t *testing.T) {
	ctx := context.Background()
	s := New()
	keep, err := core.Stage(ctx, s, "keep.txt", strings.NewReader("kept"), core.PutOptions{})
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	drop, err := core.Stage(ctx, s, "drop.txt", strings.NewReader("dropped"), core.PutOptions{})
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if s.Pending() != 2 || s.Puts() != 0 {
		t.Fatalf("pending=%d puts=%d", s.Pending(), s.Puts())
	}
	if _, _, err := s.Get(ctx, "keep.txt"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("staged object visible before commit")
	}
	if _, err := keep.Commit(ctx); err != nil {
		t.Fatalf("commit: %v", err)
	}
	if err := drop.Abort(ctx); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if s.Pending() != 0 || s.Puts() != 1 {
		t.Fatalf("pending=%d puts=%d", s.Pending(), s.Puts())
	}
	if infos, _ := s.List(ctx, ""); len(infos) != 1 || infos[0].Key != "keep.txt" {
		t.Fatalf("list = %+v", infos)
	}
	if _, err := keep.Commit(ctx); err == nil {
		t.Fatalf("second commit must fail")
	}
}
