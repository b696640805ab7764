package core_test

import (
	"context"
	"errors"
	"io"
	"strings"
	"testing"

	"rollupload/internal/blob/core"
	"rollupload/internal/infra/blob/memory"
)

func TestBufferedStageCommitAndAbort(t *testing.T) {
	ctx := context.Background()
	mem := memory.New()
	// hide the native stager so the buffered fallback is exercised
	store := struct{ core.Store }{mem}

	st, err := core.Stage(ctx, store, "a.txt", strings.NewReader("A"), core.PutOptions{ContentType: "text/plain"})
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if st.Key() != "a.txt" || mem.Puts() != 0 {
		t.Fatalf("stage must not write through")
	}
	info, err := st.Commit(ctx)
	if err != nil || info.ContentType != "text/plain" {
		t.Fatalf("commit: %+v %v", info, err)
	}
	if _, err := st.Commit(ctx); err == nil {
		t.Fatalf("expected double commit to fail")
	}

	aborted, err := core.Stage(ctx, store, "b.txt", strings.NewReader("B"), core.PutOptions{})
	if err != nil {
		t.Fatalf("stage: %v", err)
	}
	if err := aborted.Abort(ctx); err != nil {
		t.Fatalf("abort: %v", err)
	}
	if _, _, err := store.Get(ctx, "b.txt"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("aborted object must not exist: %v", err)
	}
}

type brokenReader struct{}

func (brokenReader) Read([]byte) (int, error) { return 0, io.ErrUnexpectedEOF }

func TestStagePropagatesReadError(t *testing.T) {
	if _, err := core.Stage(context.Background(), struct{ core.Store }{memory.New()}, "x", brokenReader{}, core.PutOptions{}); !errors.Is(err, io.ErrUnexpectedEOF) {
		t.Fatalf("expected read error, got %v", err)
	}
}
