package config

import (
	"errors"
	"os"
	"path/filepath"
	"slices"
	"testing"

	"rollupload/pkg/domain"
)

func writeConfig(t *testing.T, body string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "rollup.yaml")
	if err := os.WriteFile(path, []byte(body), 0o644); err != nil {
		t.Fatalf("write config: %v", err)
	}
	return path
}

func TestLoadFillsVariantDefaults(t *testing.T) {
	path := writeConfig(t, `
source:
  driver: sqlite
  dsn: file:test.db
pipelines:
  phenotype->marker:
    output: mp/marker.tsv
  disease-allele:
    output: do/allele.tsv
    format: annotload
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	mp, err := cfg.Pipeline(domain.VariantPhenotypeMarker)
	if err != nil {
		t.Fatalf("pipeline: %v", err)
	}
	if mp.AnnotTypeKey != 1002 || mp.PropertyTerm != DefaultPropertyTerm || mp.Format != FormatRollup {
		t.Fatalf("unexpected phenotype defaults %+v", mp)
	}
	if !slices.Contains(mp.ExcludedTerms, NoPhenotypicAnalysis) {
		t.Fatalf("expected no phenotypic analysis excluded, got %v", mp.ExcludedTerms)
	}
	do, _ := cfg.Pipeline(domain.VariantDiseaseAllele)
	if do.AnnotTypeKey != 1020 || !slices.Contains(do.ExcludedCategories, "marker-less") || do.Format != FormatAnnotload {
		t.Fatalf("unexpected disease-allele settings %+v", do)
	}
	if got := cfg.Configured(); len(got) != 2 || got[0] != domain.VariantPhenotypeMarker {
		t.Fatalf("unexpected configured variants %v", got)
	}
	if _, err := cfg.Pipeline(domain.VariantDiseaseMarker); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for unconfigured variant, got %v", err)
	}
}

func TestLoadEnvironmentOverrides(t *testing.T) {
	path := writeConfig(t, `
source: {driver: sqlite, dsn: a.db}
pipelines:
  disease-marker: {output: out.tsv}
`)
	t.Setenv("ROLLUP_SOURCE_DSN", "b.db")
	t.Setenv("ROLLUP_BLOB_DRIVER", "memory")
	t.Setenv("ROLLUP_BLOB_S3_PATH_STYLE", "TRUE")
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Source.DSN != "b.db" || cfg.Blob.Driver != "memory" || !cfg.Blob.S3.PathStyle {
		t.Fatalf("env overrides not applied: %+v", cfg)
	}
}

func TestLoadRejectsInvalidConfiguration(t *testing.T) {
	cases := map[string]string{
		"unknown variant": `
source: {driver: sqlite, dsn: a.db}
pipelines:
  go-marker: {output: x}`,
		"missing output": `
source: {driver: sqlite, dsn: a.db}
pipelines:
  disease-marker: {}`,
		"non-mouse without key": `
source: {driver: sqlite, dsn: a.db}
pipelines:
  disease-marker: {output: x, include_non_mouse: true}`,
		"shared stream key": `
source: {driver: sqlite, dsn: a.db}
pipelines:
  disease-marker: {output: x, negated_output: x}`,
		"bad format": `
source: {driver: sqlite, dsn: a.db}
pipelines:
  disease-marker: {output: x, format: csv}`,
		"missing dsn": `
source: {driver: sqlite}`,
		"s3 without bucket": `
source: {driver: postgres, dsn: postgres://x}
blob: {driver: s3}`,
		"bad yaml": `pipelines: [`,
	}
	for name, body := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := Load(writeConfig(t, body))
			if !errors.Is(err, ErrConfig) {
				t.Fatalf("expected ErrConfig, got %v", err)
			}
		})
	}
	if _, err := Load(filepath.Join(t.TempDir(), "missing.yaml")); !errors.Is(err, ErrConfig) {
		t.Fatalf("expected ErrConfig for missing file, got %v", err)
	}
}

func TestStreamKey(t *testing.T) {
	p := Pipeline{Output: "std", NonMouseOutput: "nm", NegatedOutput: "neg"}
	if p.StreamKey(domain.StreamNonMouse) != "" {
		t.Fatalf("non-mouse stream must be suppressed unless enabled")
	}
	p.IncludeNonMouse = true
	if p.StreamKey(domain.StreamNonMouse) != "nm" || p.StreamKey(domain.StreamNegated) != "neg" || p.StreamKey(domain.StreamStandard) != "std" {
		t.Fatalf("unexpected stream keys")
	}
}

func TestExplicitEmptyListOverridesDefault(t *testing.T) {
	path := writeConfig(t, `
source: {driver: sqlite, dsn: a.db}
pipelines:
  phenotype-marker: {output: x, excluded_terms: []}`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	p, _ := cfg.Pipeline(domain.VariantPhenotypeMarker)
	if len(p.ExcludedTerms) != 0 {
		t.Fatalf("expected explicit empty list to win, got %v", p.ExcludedTerms)
	}
}
