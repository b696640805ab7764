// Package eligibility decides which genotype annotations roll up and to
// which marker or allele. It expands each candidate into paths from the
// genotype to implicated targets and evaluates an ordered, conjunctive list
// of named rules over every path.
package eligibility

import "rollupload/pkg/domain"

// Settings carries the per-variant thresholds and lists the rules consult.
type Settings struct {
	Variant            domain.Variant
	ExcludedCategories []string
	ExcludedTerms      []string
	ExcludedTargets    []string
	DockingSites       []string
	RegulatoryFeatures []string
	NegationQualifiers []string
	AllowMultiMarker   bool
	IncludeNonMouse    bool
	NegatedStream      bool
}
