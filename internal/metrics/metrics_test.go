package metrics

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
)

func TestPrometheusCounters(t *testing.T) {
	p := NewPrometheus()
	p.AddCandidates("disease-marker", 4)
	p.AddAccepted("disease-marker", 2)
	p.AddRejected("disease-marker", "genotype-complexity", 1)
	p.AddRejected("disease-marker", "genotype-complexity", 1)
	p.AddSkipped("disease-marker", 1)
	p.AddPublished("disease-marker", "standard", 1, 2)
	p.ObserveStage(context.Background(), "disease-marker", "fetch", true, 20*time.Millisecond)

	if got := testutil.ToFloat64(p.candidates.WithLabelValues("disease-marker")); got != 4 {
		t.Fatalf("candidates = %v", got)
	}
	if got := testutil.ToFloat64(p.rejected.WithLabelValues("disease-marker", "genotype-complexity")); got != 2 {
		t.Fatalf("rejected = %v", got)
	}
	if got := testutil.ToFloat64(p.links.WithLabelValues("disease-marker", "standard")); got != 2 {
		t.Fatalf("links = %v", got)
	}
	if n := testutil.CollectAndCount(p.stages); n != 1 {
		t.Fatalf("expected one stage series, got %d", n)
	}
}

func TestWriteTextfile(t *testing.T) {
	p := NewPrometheus()
	p.AddSkipped("phenotype-allele", 3)
	path := filepath.Join(t.TempDir(), "rollup.prom")
	if err := p.WriteTextfile(path); err != nil {
		t.Fatalf("write: %v", err)
	}
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if !strings.Contains(string(b), `rollup_skipped_total{variant="phenotype-allele"} 3`) {
		t.Fatalf("textfile missing counter:\n%s", b)
	}
	if err := p.WriteTextfile(""); err != nil {
		t.Fatalf("empty path should be a no-op: %v", err)
	}
}

func TestNopSatisfiesRecorder(t *testing.T) {
	var r Recorder = Nop{}
	r.AddPublished("v", "s", 1, 1)
}
