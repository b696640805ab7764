// Package rollup wires fetch, filter, merge and publish into one run per
// pipeline variant.
package rollup

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"rollupload/internal/blob"
	"rollupload/internal/config"
	"rollupload/internal/eligibility"
	"rollupload/internal/merge"
	"rollupload/internal/metrics"
	"rollupload/internal/output"
	"rollupload/internal/platform/logger"
	"rollupload/internal/source"
	"rollupload/pkg/domain"
)

// Stage names used in reports, logs and metrics.
const (
	StageFetch   = "fetch"
	StageFilter  = "filter"
	StagePublish = "publish"
)

// Source yields the candidates of one query.
type Source interface {
	Fetch(ctx context.Context, q source.Query) (*source.Cursor, error)
}

// Options configures one engine. Source, Store and Pipeline are required.
type Options struct {
	Variant     domain.Variant
	Pipeline    config.Pipeline
	Source      Source
	Store       blob.Store
	Log         *logger.Logger
	Diagnostics *logger.Logger
	Metrics     metrics.Recorder
}

// Engine runs one pipeline variant. Each engine owns its state; engines for
// different variants share only the source, store, loggers and metrics.
type Engine struct {
	variant  domain.Variant
	pipeline config.Pipeline
	source   Source
	filter   *eligibility.Filter
	pub      *output.Publisher
	log      *logger.Logger
	metrics  metrics.Recorder
}

// New validates options and builds the engine.
func New(opts Options) (*Engine, error) {
	if opts.Source == nil || opts.Store == nil {
		return nil, fmt.Errorf("%w: engine for %s needs a source and a store", config.ErrConfig, opts.Variant)
	}
	format, err := output.Lookup(opts.Pipeline.Format)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", config.ErrConfig, err)
	}
	log := opts.Log
	if log == nil {
		log = logger.NewNop()
	}
	log = log.With("variant", string(opts.Variant))
	diag := opts.Diagnostics
	if diag == nil {
		diag = log
	}
	rec := opts.Metrics
	if rec == nil {
		rec = metrics.Nop{}
	}
	return &Engine{
		variant:  opts.Variant,
		pipeline: opts.Pipeline,
		source:   opts.Source,
		filter:   eligibility.NewFilter(eligibility.SettingsFor(opts.Variant, opts.Pipeline), diag),
		pub:      output.NewPublisher(opts.Store, format, log),
		log:      log,
		metrics:  rec,
	}, nil
}

// Variant returns the variant the engine runs.
func (e *Engine) Variant() domain.Variant { return e.variant }

// Filter exposes the eligibility filter so callers can register extra rules.
func (e *Engine) Filter() *eligibility.Filter { return e.filter }

// Run executes the variant end to end. On error nothing new is published
// and the report carries the failure.
func (e *Engine) Run(ctx context.Context) (Report, error) {
	rep := newReport(uuid.NewString(), e.variant)
	log := e.log.With("run_id", rep.RunID)
	log.Info("rollup started", "format", e.pipeline.Format)

	err := e.run(ctx, &rep, log)
	if err != nil {
		rep.Error = err.Error()
		log.Error("rollup failed", "error", err)
		return rep, err
	}
	log.Info("rollup complete",
		"candidates", rep.Candidates,
		"accepted", rep.Accepted,
		"rejected", rep.Rejected(),
		"skipped", rep.Skipped,
		"published", rep.PublishedKeys(),
	)
	return rep, nil
}

func (e *Engine) run(ctx context.Context, rep *Report, log *logger.Logger) error {
	variant := string(e.variant)

	start := time.Now()
	cur, err := e.source.Fetch(ctx, source.Query{
		Type:         e.variant.AnnotationType(),
		AnnotTypeKey: e.pipeline.AnnotTypeKey,
		VocabKey:     e.pipeline.VocabKey,
		LogicalDBKey: e.pipeline.LogicalDBKey,
		PropertyTerm: e.pipeline.PropertyTerm,
	})
	e.stage(ctx, rep, StageFetch, start, err)
	if err != nil {
		return err
	}
	defer func() { _ = cur.Close() }()

	start = time.Now()
	merger := merge.New()
	for cur.Next() {
		c := cur.Candidate()
		rep.Candidates++
		d, err := e.filter.Evaluate(ctx, c)
		if err != nil {
			e.stage(ctx, rep, StageFilter, start, err)
			return err
		}
		if d.Malformed != nil {
			rep.Skipped++
			log.Warn("skipping malformed annotation", "annotation", d.Malformed.AnnotationKey, "reason", d.Malformed.Reason)
			continue
		}
		for _, r := range d.Rejected {
			if v, ok := (domain.Result{Violations: r.Violations}).Primary(); ok {
				rep.Rejections[v.Rule]++
			}
		}
		for _, acc := range d.Accepted {
			rep.Accepted++
			merger.Add(acc)
		}
	}
	e.stage(ctx, rep, StageFilter, start, nil)
	e.metrics.AddCandidates(variant, rep.Candidates)
	e.metrics.AddAccepted(variant, rep.Accepted)
	e.metrics.AddSkipped(variant, rep.Skipped)
	for rule, n := range rep.Rejections {
		e.metrics.AddRejected(variant, rule, n)
	}

	merged := merger.Streams()
	var streams []output.StreamOutput
	for _, s := range domain.Streams() {
		key := e.pipeline.StreamKey(s)
		if key == "" {
			if n := len(merged[s]); n > 0 {
				return fmt.Errorf("%w: %d %s records have no output key", output.ErrOutput, n, s)
			}
			continue
		}
		streams = append(streams, output.StreamOutput{Stream: s, Key: key, Records: merged[s]})
	}

	start = time.Now()
	published, err := e.pub.Publish(ctx, output.Params{
		Variant:      e.variant,
		PropertyTerm: e.pipeline.PropertyTerm,
		LoaderUser:   e.pipeline.LoaderUser,
	}, streams, map[string]string{"rollup-run-id": rep.RunID, "rollup-variant": variant})
	e.stage(ctx, rep, StagePublish, start, err)
	if err != nil {
		return err
	}
	rep.Streams = published
	for _, p := range published {
		e.metrics.AddPublished(variant, string(p.Stream), p.Records, p.Links)
	}
	return nil
}

func (e *Engine) stage(ctx context.Context, rep *Report, name string, start time.Time, err error) {
	d := time.Since(start)
	rep.Durations[name] = d
	e.metrics.ObserveStage(ctx, string(e.variant), name, err == nil, d)
}

// IsFatal reports whether err is one of the classified fatal errors.
func IsFatal(err error) bool {
	return errors.Is(err, config.ErrConfig) || errors.Is(err, source.ErrSource) || errors.Is(err, output.ErrOutput)
}
