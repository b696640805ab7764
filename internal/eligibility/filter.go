package eligibility

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"rollupload/internal/config"
	"rollupload/internal/platform/logger"
	"rollupload/pkg/domain"
)

// ErrMalformed marks candidates that cannot be evaluated at all.
var ErrMalformed = errors.New("malformed candidate")

// MalformedError explains why a candidate was skipped.
type MalformedError struct {
	AnnotationKey int64
	Reason        string
}

func (e *MalformedError) Error() string {
	return fmt.Sprintf("annotation %d: %s", e.AnnotationKey, e.Reason)
}

func (e *MalformedError) Unwrap() error { return ErrMalformed }

// Accepted is a tuple that passed every rule, with its output stream.
type Accepted struct {
	Tuple  domain.Tuple
	Stream domain.Stream
}

// Rejection is a tuple that failed at least one rule.
type Rejection struct {
	Tuple      domain.Tuple
	Violations []domain.Violation
}

// Decision is the filter outcome for one candidate. A malformed candidate has
// neither accepted nor rejected tuples.
type Decision struct {
	Candidate *domain.Candidate
	Malformed *MalformedError
	Accepted  []Accepted
	Rejected  []Rejection
}

// SettingsFor builds filter settings from a resolved pipeline record.
func SettingsFor(v domain.Variant, p config.Pipeline) Settings {
	return Settings{
		Variant:            v,
		ExcludedCategories: p.ExcludedCategories,
		ExcludedTerms:      p.ExcludedTerms,
		ExcludedTargets:    p.ExcludedTargets,
		DockingSites:       p.DockingSites,
		RegulatoryFeatures: p.RegulatoryFeatures,
		NegationQualifiers: p.NegationQualifiers,
		AllowMultiMarker:   p.AllowMultiMarker,
		IncludeNonMouse:    p.IncludeNonMouse,
		NegatedStream:      p.StreamKey(domain.StreamNegated) != "",
	}
}

// Filter applies target implication and the rule list to candidates.
type Filter struct {
	settings   Settings
	implicator *implicator
	engine     *domain.RulesEngine
	diag       *logger.Logger
}

// NewFilter registers the default rules for the settings. diag receives one
// record per rejected tuple; nil discards them.
func NewFilter(s Settings, diag *logger.Logger) *Filter {
	if diag == nil {
		diag = logger.NewNop()
	}
	f := &Filter{settings: s, implicator: newImplicator(s), engine: domain.NewRulesEngine(), diag: diag}
	f.engine.Register(GenotypeComplexityRule())
	f.engine.Register(AlleleCategoryRule(s.ExcludedCategories))
	f.engine.Register(OrganismRule(s.Variant, s.IncludeNonMouse))
	f.engine.Register(QualifierRule(s.Variant, s.NegationQualifiers, s.NegatedStream))
	f.engine.Register(ExcludedTermRule(s.ExcludedTerms))
	f.engine.Register(ExcludedTargetRule(s.ExcludedTargets))
	return f
}

// Register appends an extra rule after the defaults.
func (f *Filter) Register(rule domain.Rule) { f.engine.Register(rule) }

// Rules returns the rule names in evaluation order.
func (f *Filter) Rules() []string { return f.engine.Rules() }

// Evaluate decides the fate of one candidate. Errors are returned only when a
// rule itself fails; malformed input is reported on the decision.
func (f *Filter) Evaluate(ctx context.Context, c *domain.Candidate) (Decision, error) {
	d := Decision{Candidate: c}
	if reason := malformed(c); reason != "" {
		d.Malformed = &MalformedError{AnnotationKey: c.Annotation.Key, Reason: reason}
		return d, nil
	}
	assessment := f.implicator.assess(c.Genotype)
	for _, imp := range assessment.Implicated {
		if strings.TrimSpace(imp.Target.Accession) == "" {
			d.Malformed = &MalformedError{AnnotationKey: c.Annotation.Key, Reason: fmt.Sprintf("implicated %s %q has no accession", imp.Target.Kind, imp.Target.Symbol)}
			return d, nil
		}
	}
	for _, t := range f.tuples(c, assessment) {
		if err := ctx.Err(); err != nil {
			return Decision{}, err
		}
		res, err := f.engine.Evaluate(ctx, t)
		if err != nil {
			return Decision{}, fmt.Errorf("evaluate annotation %d: %w", c.Annotation.Key, err)
		}
		if res.Passed() {
			d.Accepted = append(d.Accepted, Accepted{Tuple: t, Stream: Route(f.settings.Variant, t, f.settings.NegationQualifiers)})
			continue
		}
		d.Rejected = append(d.Rejected, Rejection{Tuple: t, Violations: res.Violations})
		f.logRejection(t, res)
	}
	return d, nil
}

func (f *Filter) tuples(c *domain.Candidate, a *domain.Assessment) []domain.Tuple {
	base := domain.Tuple{Variant: f.settings.Variant, Candidate: c, Assessment: a}
	if len(a.Implicated) == 0 {
		base.Via = c.Genotype.Alleles()
		return []domain.Tuple{base}
	}
	out := make([]domain.Tuple, 0, len(a.Implicated))
	for _, imp := range a.Implicated {
		t := base
		t.Target, t.Basis, t.Via = imp.Target, imp.Basis, imp.Via
		out = append(out, t)
	}
	return out
}

func (f *Filter) logRejection(t domain.Tuple, res domain.Result) {
	primary, _ := res.Primary()
	reasons := make([]string, 0, len(res.Violations))
	for _, v := range res.Violations {
		reasons = append(reasons, v.Rule+": "+v.Reason)
	}
	f.diag.Info("annotation rejected",
		"variant", string(t.Variant),
		"annotation", t.Candidate.Annotation.Key,
		"genotype", t.Candidate.Genotype.Accession,
		"term", t.Candidate.Annotation.TermAccession,
		"target", t.Target.Accession,
		"rule", primary.Rule,
		"reason", primary.Reason,
		"violations", reasons,
	)
}

func malformed(c *domain.Candidate) string {
	switch {
	case len(c.Problems) > 0:
		return strings.Join(c.Problems, "; ")
	case strings.TrimSpace(c.Annotation.TermAccession) == "":
		return "term has no accession"
	case strings.TrimSpace(c.Genotype.Accession) == "":
		return "genotype has no accession"
	case len(c.Evidence) == 0:
		return "annotation has no evidence"
	}
	for _, e := range c.Evidence {
		if strings.TrimSpace(e.Code) == "" {
			return fmt.Sprintf("evidence %d has no evidence code", e.Key)
		}
	}
	return ""
}
