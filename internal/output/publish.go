package output

import (
	"bytes"
	"context"
	"errors"
	"fmt"

	"rollupload/internal/blob"
	"rollupload/internal/platform/logger"
	"rollupload/pkg/domain"
)

// StreamOutput is one stream's records and the key it publishes to.
type StreamOutput struct {
	Stream  domain.Stream
	Key     string
	Records []domain.RolledUpAnnotation
}

// Published describes a committed stream.
type Published struct {
	Stream  domain.Stream
	Key     string
	Records int
	Links   int
	Bytes   int64
}

// Publisher stages every stream of a variant and commits them together.
type Publisher struct {
	store  blob.Store
	format Format
	log    *logger.Logger
}

// NewPublisher binds a store and format.
func NewPublisher(store blob.Store, format Format, log *logger.Logger) *Publisher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Publisher{store: store, format: format, log: log}
}

// Publish renders and stages each stream in order, then commits them in the
// same order. If any stream fails to render or stage, every staged object is
// aborted and nothing becomes visible.
func (p *Publisher) Publish(ctx context.Context, params Params, streams []StreamOutput, metadata map[string]string) ([]Published, error) {
	staged := make([]blob.Staged, 0, len(streams))
	abort := func() {
		for _, st := range staged {
			if err := st.Abort(ctx); err != nil {
				p.log.Warn("abort staged output", "key", st.Key(), "error", err)
			}
		}
	}
	out := make([]Published, 0, len(streams))
	for _, s := range streams {
		var buf bytes.Buffer
		if err := p.format.Write(&buf, params, s.Records); err != nil {
			abort()
			return nil, fmt.Errorf("%w: render %s stream: %w", ErrOutput, s.Stream, err)
		}
		size := int64(buf.Len())
		st, err := blob.Stage(ctx, p.store, s.Key, &buf, blob.PutOptions{ContentType: p.format.ContentType(), Metadata: metadata})
		if err != nil {
			abort()
			return nil, fmt.Errorf("%w: stage %s: %w", ErrOutput, s.Key, err)
		}
		staged = append(staged, st)
		links := 0
		for _, r := range s.Records {
			links += len(r.Links)
		}
		out = append(out, Published{Stream: s.Stream, Key: s.Key, Records: len(s.Records), Links: links, Bytes: size})
	}
	for i, st := range staged {
		if _, err := st.Commit(ctx); err != nil {
			var errs []error
			for _, rest := range staged[i+1:] {
				errs = append(errs, rest.Abort(ctx))
			}
			if i > 0 {
				p.log.Error("partial publish", "committed", out[:i], "failed", st.Key())
			}
			return nil, fmt.Errorf("%w: commit %s: %w", ErrOutput, st.Key(), errors.Join(append([]error{err}, errs...)...))
		}
		p.log.Debug("stream published", "stream", string(out[i].Stream), "key", out[i].Key, "records", out[i].Records)
	}
	return out, nil
}
