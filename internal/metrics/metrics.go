// Package metrics records per-variant run counters and stage timings in a
// process-local Prometheus registry.
package metrics

import (
	"context"
	"time"

	"github.com/prometheus/client_golang/prometheus"
)

// Recorder receives run observations. Implementations must be safe for
// concurrent use by several variant runs.
type Recorder interface {
	ObserveStage(ctx context.Context, variant, stage string, success bool, duration time.Duration)
	AddCandidates(variant string, n int)
	AddAccepted(variant string, n int)
	AddRejected(variant, rule string, n int)
	AddSkipped(variant string, n int)
	AddPublished(variant, stream string, records, links int)
}

// Prometheus is a Recorder backed by its own registry.
type Prometheus struct {
	registry   *prometheus.Registry
	stages     *prometheus.HistogramVec
	candidates *prometheus.CounterVec
	accepted   *prometheus.CounterVec
	rejected   *prometheus.CounterVec
	skipped    *prometheus.CounterVec
	records    *prometheus.CounterVec
	links      *prometheus.CounterVec
}

// NewPrometheus registers the rollup collectors on a fresh registry.
func NewPrometheus() *Prometheus {
	p := &Prometheus{
		registry: prometheus.NewRegistry(),
		stages: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "rollup",
			Name:      "stage_duration_seconds",
			Help:      "Duration of pipeline stages.",
			Buckets:   prometheus.ExponentialBuckets(0.005, 4, 8),
		}, []string{"variant", "stage", "status"}),
		candidates: counter("candidates_total", "Source annotations fetched.", "variant"),
		accepted:   counter("accepted_total", "Tuples accepted by the eligibility filter.", "variant"),
		rejected:   counter("rejected_total", "Tuples rejected, by primary rule.", "variant", "rule"),
		skipped:    counter("skipped_total", "Malformed source annotations skipped.", "variant"),
		records:    counter("published_records_total", "Rolled-up annotations published.", "variant", "stream"),
		links:      counter("published_links_total", "Provenance links published.", "variant", "stream"),
	}
	p.registry.MustRegister(p.stages, p.candidates, p.accepted, p.rejected, p.skipped, p.records, p.links)
	return p
}

func counter(name, help string, labels ...string) *prometheus.CounterVec {
	return prometheus.NewCounterVec(prometheus.CounterOpts{Namespace: "rollup", Name: name, Help: help}, labels)
}

// Registry exposes the underlying registry for gathering.
func (p *Prometheus) Registry() *prometheus.Registry { return p.registry }

func (p *Prometheus) ObserveStage(_ context.Context, variant, stage string, success bool, duration time.Duration) {
	status := "error"
	if success {
		status = "success"
	}
	p.stages.WithLabelValues(variant, stage, status).Observe(duration.Seconds())
}

func (p *Prometheus) AddCandidates(variant string, n int) {
	p.candidates.WithLabelValues(variant).Add(float64(n))
}

func (p *Prometheus) AddAccepted(variant string, n int) {
	p.accepted.WithLabelValues(variant).Add(float64(n))
}

func (p *Prometheus) AddRejected(variant, rule string, n int) {
	p.rejected.WithLabelValues(variant, rule).Add(float64(n))
}

func (p *Prometheus) AddSkipped(variant string, n int) {
	p.skipped.WithLabelValues(variant).Add(float64(n))
}

func (p *Prometheus) AddPublished(variant, stream string, records, links int) {
	p.records.WithLabelValues(variant, stream).Add(float64(records))
	p.links.WithLabelValues(variant, stream).Add(float64(links))
}

// WriteTextfile writes the registry in the node exporter textfile format.
// An empty path is a no-op.
func (p *Prometheus) WriteTextfile(path string) error {
	if path == "" {
		return nil
	}
	return prometheus.WriteToTextfile(path, p.registry)
}

// Nop discards every observation.
type Nop struct{}

func (Nop) ObserveStage(context.Context, string, string, bool, time.Duration) {}
func (Nop) AddCandidates(string, int)                                          {}
func (Nop) AddAccepted(string, int)                                            {}
func (Nop) AddRejected(string, string, int)                                    {}
func (Nop) AddSkipped(string, int)                                             {}
func (Nop) AddPublished(string, string, int, int)                              {}
