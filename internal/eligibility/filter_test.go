package eligibility

import (
	"context"
	"errors"
	"slices"
	"strings"
	"testing"

	"go.uber.org/zap"
	"go.uber.org/zap/zaptest/observer"

	"rollupload/internal/config"
	"rollupload/internal/platform/logger"
	"rollupload/pkg/domain"
)

func observedLogger() (*logger.Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zap.InfoLevel)
	return &logger.Logger{SugaredLogger: zap.New(core).Sugar()}, logs
}

func TestFilterRuleOrder(t *testing.T) {
	f := NewFilter(settings(domain.VariantDiseaseMarker), nil)
	want := []string{RuleGenotypeComplexity, RuleAlleleCategory, RuleOrganism, RuleQualifier, RuleExcludedTerm, RuleExcludedTarget}
	if got := f.Rules(); !slices.Equal(got, want) {
		t.Fatalf("rules = %v, want %v", got, want)
	}
}

func TestFilterAcceptsOneMarkerGenotype(t *testing.T) {
	f := NewFilter(settings(domain.VariantDiseaseMarker), nil)
	sey := allele(200, pax6, "Spontaneous")
	d, err := f.Evaluate(context.Background(), candidate(genotypeOf(false, het(sey, wildType(201, pax6))), "DOID:12271", ""))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if d.Malformed != nil || len(d.Rejected) != 0 || len(d.Accepted) != 1 {
		t.Fatalf("unexpected decision %+v", d)
	}
	acc := d.Accepted[0]
	if acc.Stream != domain.StreamStandard || acc.Tuple.Target.Accession != pax6.Accession {
		t.Fatalf("unexpected acceptance %+v", acc)
	}
}

func TestFilterLogsEveryViolation(t *testing.T) {
	diag, logs := observedLogger()
	f := NewFilter(settings(domain.VariantPhenotypeMarker), diag)
	cre := allele(205, rosa, "Targeted", domain.AttributeRecombinase)
	d, err := f.Evaluate(context.Background(), candidate(genotypeOf(false, hom(cre)), config.NoPhenotypicAnalysis, ""))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(d.Accepted) != 0 || len(d.Rejected) != 1 {
		t.Fatalf("unexpected decision %+v", d)
	}
	var rules []string
	for _, v := range d.Rejected[0].Violations {
		rules = append(rules, v.Rule)
	}
	if !slices.Equal(rules, []string{RuleExcludedTerm, RuleExcludedTarget}) {
		t.Fatalf("violations %v", rules)
	}
	entries := logs.FilterMessage("annotation rejected").All()
	if len(entries) != 1 {
		t.Fatalf("expected one diagnostics record, got %d", len(entries))
	}
	fields := entries[0].ContextMap()
	if fields["rule"] != RuleExcludedTerm || fields["target"] != rosa.Accession {
		t.Fatalf("unexpected diagnostics fields %v", fields)
	}
}

func TestFilterGenotypeLevelRejection(t *testing.T) {
	f := NewFilter(settings(domain.VariantDiseaseMarker), nil)
	g := genotypeOf(false, hom(allele(202, shh, "Targeted")), hom(allele(203, fgf8, "Targeted")))
	d, err := f.Evaluate(context.Background(), candidate(g, "DOID:10652", ""))
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(d.Rejected) != 1 || !d.Rejected[0].Tuple.Target.IsZero() {
		t.Fatalf("expected one genotype-level rejection, got %+v", d)
	}
	if v := d.Rejected[0].Violations[0]; v.Rule != RuleGenotypeComplexity {
		t.Fatalf("unexpected primary violation %+v", v)
	}
	if len(d.Rejected[0].Tuple.Via) != 2 {
		t.Fatalf("genotype-level tuple should carry every allele")
	}

	wt := candidate(genotypeOf(false, hom(wildType(201, pax6))), "DOID:10652", "")
	d, err = f.Evaluate(context.Background(), wt)
	if err != nil {
		t.Fatalf("evaluate: %v", err)
	}
	if len(d.Rejected) != 1 || d.Rejected[0].Violations[0].Rule != RuleAlleleCategory {
		t.Fatalf("expected allele-category rejection for wild-type genotype, got %+v", d.Rejected)
	}
}

func TestFilterRoutesStreams(t *testing.T) {
	s := settings(domain.VariantPhenotypeMarker)
	s.IncludeNonMouse = true
	s.NegatedStream = true
	f := NewFilter(s, nil)

	sey := allele(200, pax6, "Spontaneous")
	d, err := f.Evaluate(context.Background(), candidate(genotypeOf(false, hom(sey)), "MP:0002092", "NOT"))
	if err != nil || len(d.Accepted) != 1 || d.Accepted[0].Stream != domain.StreamNegated {
		t.Fatalf("expected negated acceptance, got %+v err=%v", d, err)
	}

	tg := allele(204, app, "Transgenic")
	d, err = f.Evaluate(context.Background(), candidate(genotypeOf(false, pair(app, tg, nil)), "MP:0002092", ""))
	if err != nil || len(d.Accepted) != 1 || d.Accepted[0].Stream != domain.StreamNonMouse {
		t.Fatalf("expected non-mouse acceptance, got %+v err=%v", d, err)
	}
}

func TestFilterMalformed(t *testing.T) {
	f := NewFilter(settings(domain.VariantDiseaseMarker), nil)
	sey := allele(200, pax6, "Spontaneous")
	good := func() *domain.Candidate { return candidate(genotypeOf(false, hom(sey)), "DOID:12271", "") }
	cases := map[string]func(*domain.Candidate){
		"problems":      func(c *domain.Candidate) { c.Problems = []string{"term has 2 preferred accessions"} },
		"term":          func(c *domain.Candidate) { c.Annotation.TermAccession = "" },
		"genotype":      func(c *domain.Candidate) { c.Genotype.Accession = "" },
		"no evidence":   func(c *domain.Candidate) { c.Evidence = nil },
		"evidence code": func(c *domain.Candidate) { c.Evidence[0].Code = " " },
		"target accession": func(c *domain.Candidate) {
			c.Genotype.Pairs[0].Marker = &domain.Marker{Key: 77, Symbol: "Anon", Organism: mouse}
			c.Genotype.Pairs[0].Allele1.Marker = nil
			c.Genotype.Pairs[0].Allele2 = nil
		},
	}
	for name, mutate := range cases {
		t.Run(name, func(t *testing.T) {
			c := good()
			mutate(c)
			d, err := f.Evaluate(context.Background(), c)
			if err != nil {
				t.Fatalf("evaluate: %v", err)
			}
			if d.Malformed == nil || len(d.Accepted)+len(d.Rejected) != 0 {
				t.Fatalf("expected malformed decision, got %+v", d)
			}
			if !errors.Is(d.Malformed, ErrMalformed) || !strings.HasPrefix(d.Malformed.Error(), "annotation 900:") {
				t.Fatalf("unexpected malformed error %v", d.Malformed)
			}
		})
	}
}

func TestFilterCustomRuleAndError(t *testing.T) {
	f := NewFilter(settings(domain.VariantDiseaseMarker), nil)
	f.Register(failingRule{})
	sey := allele(200, pax6, "Spontaneous")
	if _, err := f.Evaluate(context.Background(), candidate(genotypeOf(false, hom(sey)), "DOID:12271", "")); err == nil {
		t.Fatalf("expected rule error to propagate")
	}
}

type failingRule struct{}

func (failingRule) Name() string { return "failing" }

func (failingRule) Evaluate(context.Context, domain.Tuple) (domain.Result, error) {
	return domain.Result{}, errors.New("rule exploded")
}
