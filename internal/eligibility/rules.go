package eligibility

import (
	"context"
	"fmt"
	"slices"
	"strings"

	"rollupload/pkg/domain"
)

// Rule names in evaluation order.
const (
	RuleGenotypeComplexity = "genotype-complexity"
	RuleAlleleCategory     = "allele-category"
	RuleOrganism           = "organism"
	RuleQualifier          = "qualifier"
	RuleExcludedTerm       = "excluded-term"
	RuleExcludedTarget     = "excluded-target"
)

// GenotypeComplexityRule rejects genotypes whose target cannot be pinned down.
func GenotypeComplexityRule() domain.Rule { return genotypeComplexityRule{} }

type genotypeComplexityRule struct{}

func (genotypeComplexityRule) Name() string { return RuleGenotypeComplexity }

func (genotypeComplexityRule) Evaluate(_ context.Context, t domain.Tuple) (domain.Result, error) {
	a := t.Assessment
	if a == nil {
		return domain.Fail(RuleGenotypeComplexity, "genotype was not assessed"), nil
	}
	if t.Target.IsZero() {
		if a.Exhausted {
			return domain.Result{}, nil
		}
		reason := a.Ambiguous
		if reason == "" {
			reason = "genotype implicates no target"
		}
		return domain.Fail(RuleGenotypeComplexity, reason), nil
	}
	if !a.Implicates(t.Target) {
		return domain.Fail(RuleGenotypeComplexity, fmt.Sprintf("%s is not implicated by genotype", t.Target.Accession)), nil
	}
	return domain.Result{}, nil
}

// AlleleCategoryRule requires at least one allele on the path outside the
// excluded categories. A one-marker genotype implicates its marker before
// categories are dropped, so that path only needs a mutant allele.
func AlleleCategoryRule(excluded []string) domain.Rule {
	return alleleCategoryRule{excluded: newSet(excluded)}
}

type alleleCategoryRule struct {
	excluded categorySet
}

func (alleleCategoryRule) Name() string { return RuleAlleleCategory }

func (r alleleCategoryRule) Evaluate(_ context.Context, t domain.Tuple) (domain.Result, error) {
	var g domain.Genotype
	if t.Candidate != nil {
		g = t.Candidate.Genotype
	}
	if t.Basis == BasisOneMarker {
		for _, a := range t.Via {
			if !a.WildType {
				return domain.Result{}, nil
			}
		}
		return domain.Fail(RuleAlleleCategory, "all alleles excluded: "+CategoryWildType), nil
	}
	hit := map[string]bool{}
	for _, a := range t.Via {
		cats := r.excluded.excludedBy(a, g)
		if len(cats) == 0 {
			return domain.Result{}, nil
		}
		for _, c := range cats {
			hit[c] = true
		}
	}
	if len(t.Via) == 0 {
		return domain.Fail(RuleAlleleCategory, "genotype has no alleles"), nil
	}
	names := make([]string, 0, len(hit))
	for c := range hit {
		names = append(names, c)
	}
	slices.Sort(names)
	return domain.Fail(RuleAlleleCategory, "all alleles excluded: "+strings.Join(names, ", ")), nil
}

// OrganismRule rejects non-mouse marker targets unless they are requested.
func OrganismRule(variant domain.Variant, includeNonMouse bool) domain.Rule {
	return organismRule{variant: variant, include: includeNonMouse}
}

type organismRule struct {
	variant domain.Variant
	include bool
}

func (organismRule) Name() string { return RuleOrganism }

func (r organismRule) Evaluate(_ context.Context, t domain.Tuple) (domain.Result, error) {
	if r.include || r.variant.Target() != domain.TargetMarker || t.Target.IsZero() || t.Target.Organism.IsMouse() {
		return domain.Result{}, nil
	}
	return domain.Fail(RuleOrganism, fmt.Sprintf("target %s is %s", t.Target.Accession, organismName(t.Target.Organism))), nil
}

func organismName(o domain.Organism) string {
	if o.CommonName == "" {
		return "of unknown organism"
	}
	return "from " + o.CommonName
}

// QualifierRule admits negated annotations only when a negated stream exists
// and never for non-mouse marker targets.
func QualifierRule(variant domain.Variant, negations []string, negatedStream bool) domain.Rule {
	return qualifierRule{variant: variant, negations: negations, stream: negatedStream}
}

type qualifierRule struct {
	variant   domain.Variant
	negations []string
	stream    bool
}

func (qualifierRule) Name() string { return RuleQualifier }

func (r qualifierRule) Evaluate(_ context.Context, t domain.Tuple) (domain.Result, error) {
	if t.Candidate == nil || !isNegation(t.Candidate.Annotation.Qualifier, r.negations) {
		return domain.Result{}, nil
	}
	if nonMouseMarker(r.variant, t.Target) {
		return domain.Fail(RuleQualifier, "negated qualifier on non-mouse target"), nil
	}
	if !r.stream {
		return domain.Fail(RuleQualifier, fmt.Sprintf("qualifier %q has no negated output", t.Candidate.Annotation.Qualifier)), nil
	}
	return domain.Result{}, nil
}

// ExcludedTermRule rejects annotations to excluded vocabulary terms.
func ExcludedTermRule(terms []string) domain.Rule {
	return excludedTermRule{terms: newSet(terms)}
}

type excludedTermRule struct {
	terms categorySet
}

func (excludedTermRule) Name() string { return RuleExcludedTerm }

func (r excludedTermRule) Evaluate(_ context.Context, t domain.Tuple) (domain.Result, error) {
	if t.Candidate == nil {
		return domain.Result{}, nil
	}
	if term := t.Candidate.Annotation.TermAccession; r.terms[term] {
		return domain.Fail(RuleExcludedTerm, fmt.Sprintf("term %s is excluded", term)), nil
	}
	return domain.Result{}, nil
}

// ExcludedTargetRule rejects rollups to excluded markers or alleles.
func ExcludedTargetRule(targets []string) domain.Rule {
	return excludedTargetRule{targets: newSet(targets)}
}

type excludedTargetRule struct {
	targets categorySet
}

func (excludedTargetRule) Name() string { return RuleExcludedTarget }

func (r excludedTargetRule) Evaluate(_ context.Context, t domain.Tuple) (domain.Result, error) {
	if !t.Target.IsZero() && r.targets[t.Target.Accession] {
		return domain.Fail(RuleExcludedTarget, fmt.Sprintf("target %s (%s) is excluded", t.Target.Accession, t.Target.Symbol)), nil
	}
	return domain.Result{}, nil
}

// Route picks the output stream for an accepted tuple.
func Route(variant domain.Variant, t domain.Tuple, negations []string) domain.Stream {
	if nonMouseMarker(variant, t.Target) {
		return domain.StreamNonMouse
	}
	if t.Candidate != nil && isNegation(t.Candidate.Annotation.Qualifier, negations) {
		return domain.StreamNegated
	}
	return domain.StreamStandard
}

func nonMouseMarker(variant domain.Variant, target domain.Target) bool {
	return variant.Target() == domain.TargetMarker && !target.IsZero() && !target.Organism.IsMouse()
}

func isNegation(qualifier string, negations []string) bool {
	q := strings.TrimSpace(qualifier)
	if q == "" {
		return false
	}
	for _, n := range negations {
		if strings.EqualFold(q, strings.TrimSpace(n)) {
			return true
		}
	}
	return false
}
