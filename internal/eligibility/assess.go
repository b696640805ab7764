package eligibility

import (
	"fmt"

	"rollupload/pkg/domain"
)

// Implication bases, reported on accepted paths.
const (
	BasisOneMarker          = "one-marker genotype"
	BasisTransgenePartner   = "transgene expressing partner gene"
	BasisMultiMarker        = "multi-marker attribution"
	BasisMutationRegion     = "mutation involves region"
	BasisTransgeneInvolves  = "transgene mutation involves"
	BasisDockingInvolves    = "docking site mutation involves"
	BasisTransgene          = "transgene"
	BasisTransgeneComponent = "transgene expressed component"
	BasisDockingComponent   = "docking site expressed component"
	BasisDockingSite        = "docking site without inserted sequence"
	BasisSingleMarker       = "single marker"
	BasisSelfExpressing     = "self-expressing marker"
	BasisSingleAllele       = "single causative allele"
	BasisMultiAllele        = "multi-allele attribution"
)

type implicator struct {
	settings        Settings
	excluded        categorySet
	docking         categorySet
	excludedTargets categorySet
	regulatory      categorySet
}

func newImplicator(s Settings) *implicator {
	return &implicator{
		settings:        s,
		excluded:        newSet(s.ExcludedCategories),
		docking:         newSet(s.DockingSites),
		excludedTargets: newSet(s.ExcludedTargets),
		regulatory:      newSet(s.RegulatoryFeatures),
	}
}

func (im *implicator) assess(g domain.Genotype) *domain.Assessment {
	if im.settings.Variant.Target() == domain.TargetAllele {
		return im.assessAlleles(g)
	}
	return im.assessMarkers(g)
}

func implicated(imps ...domain.Implication) *domain.Assessment {
	return &domain.Assessment{Implicated: imps}
}

func ambiguous(format string, args ...any) *domain.Assessment {
	return &domain.Assessment{Ambiguous: fmt.Sprintf(format, args...)}
}

func markerPath(m domain.Marker, basis string, via []domain.Allele) domain.Implication {
	return domain.Implication{Target: domain.MarkerTarget(m), Basis: basis, Via: via}
}

func (im *implicator) eligible(all []domain.Allele, g domain.Genotype) []domain.Allele {
	var out []domain.Allele
	for _, a := range all {
		if len(im.excluded.excludedBy(a, g)) == 0 {
			out = append(out, a)
		}
	}
	return out
}

func (im *implicator) assessAlleles(g domain.Genotype) *domain.Assessment {
	eligible := im.eligible(g.Alleles(), g)
	switch {
	case len(eligible) == 0:
		return &domain.Assessment{Exhausted: true}
	case len(eligible) == 1:
		a := eligible[0]
		return implicated(domain.Implication{Target: domain.AlleleTarget(a), Basis: BasisSingleAllele, Via: eligible})
	case im.settings.AllowMultiMarker:
		imps := make([]domain.Implication, 0, len(eligible))
		for _, a := range eligible {
			imps = append(imps, domain.Implication{Target: domain.AlleleTarget(a), Basis: BasisMultiAllele, Via: []domain.Allele{a}})
		}
		return implicated(imps...)
	default:
		return ambiguous("genotype carries %d causative alleles", len(eligible))
	}
}

func (im *implicator) assessMarkers(g domain.Genotype) *domain.Assessment {
	all := g.Alleles()
	if len(all) == 0 {
		return &domain.Assessment{Exhausted: true}
	}
	if ms := markersOf(all); len(ms) == 1 && !g.Conditional && !anyMutationInvolves(all) && !anyInsertedSequence(all) && anyMutant(all) {
		return implicated(markerPath(ms[0], BasisOneMarker, all))
	}
	eligible := im.eligible(all, g)
	if len(eligible) == 0 {
		return &domain.Assessment{Exhausted: true}
	}
	trad := markersOf(eligible)
	involved := involvedMarkers(eligible)
	switch {
	case len(trad) == 0:
		return ambiguous("no causative allele has a marker")
	case len(trad) > 1:
		return im.multiMarker(eligible, trad, involved)
	case len(involved) > 0:
		return im.mutationInvolves(eligible, trad[0], involved)
	}
	m := trad[0]
	ec := expressedComponents(eligible)
	if m.IsTransgene() {
		imps := []domain.Implication{markerPath(m, BasisTransgene, eligible)}
		if len(ec) == 1 && expressesGene(ec[0]) && ec[0].Marker.Key != m.Key {
			imps = append(imps, markerPath(ec[0].Marker, BasisTransgeneComponent, expressing(eligible, ec[0].Marker.Key)))
		}
		return implicated(imps...)
	}
	if im.docking[m.Accession] {
		if len(ec) == 1 && expressesGene(ec[0]) {
			return implicated(markerPath(ec[0].Marker, BasisDockingComponent, expressing(eligible, ec[0].Marker.Key)))
		}
		if !im.excludedTargets[m.Accession] && !anyInsertedSequence(eligible) {
			return implicated(markerPath(m, BasisDockingSite, eligible))
		}
		return ambiguous("docking site %s without a single expressed component", m.Symbol)
	}
	switch {
	case len(ec) == 0:
		return implicated(markerPath(m, BasisSingleMarker, eligible))
	case len(ec) == 1 && ec[0].Marker.Key == m.Key && ec[0].Relationship == domain.ExpressesMouseGene:
		return implicated(markerPath(m, BasisSelfExpressing, eligible))
	default:
		return ambiguous("marker %s expresses %d other components", m.Symbol, len(ec))
	}
}

// multiMarker resolves genotypes whose causative alleles sit on several markers.
func (im *implicator) multiMarker(eligible []domain.Allele, trad, involved []domain.Marker) *domain.Assessment {
	if len(involved) == 0 && len(trad) == 2 {
		tg, gene := trad[0], trad[1]
		if gene.IsTransgene() {
			tg, gene = gene, tg
		}
		if tg.IsTransgene() && !gene.IsTransgene() && gene.Organism.IsMouse() {
			ec := expressedComponents(allelesOn(eligible, tg.Key))
			if len(ec) == 1 && ec[0].Marker.Key == gene.Key && ec[0].Relationship == domain.ExpressesMouseGene {
				return implicated(
					markerPath(tg, BasisTransgenePartner, allelesOn(eligible, tg.Key)),
					markerPath(gene, BasisTransgenePartner, allelesOn(eligible, gene.Key)),
				)
			}
		}
	}
	if im.settings.AllowMultiMarker {
		imps := make([]domain.Implication, 0, len(trad))
		for _, m := range trad {
			imps = append(imps, markerPath(m, BasisMultiMarker, allelesOn(eligible, m.Key)))
		}
		return implicated(imps...)
	}
	return ambiguous("genotype implicates %d markers", len(trad))
}

func (im *implicator) mutationInvolves(eligible []domain.Allele, m domain.Marker, involved []domain.Marker) *domain.Assessment {
	region := m.Type == domain.MarkerTypeComplex || m.Type == domain.MarkerTypeCytogenetic
	for _, ft := range m.FeatureTypes {
		if im.regulatory[ft] {
			region = true
		}
	}
	switch {
	case region && len(eligible) == 1:
		return implicated(markerPath(m, BasisMutationRegion, eligible))
	case len(involved) == 1 && m.IsTransgene():
		return implicated(
			markerPath(m, BasisTransgeneInvolves, eligible),
			markerPath(involved[0], BasisTransgeneInvolves, eligible),
		)
	case len(involved) == 1 && im.docking[m.Accession]:
		return implicated(markerPath(involved[0], BasisDockingInvolves, eligible))
	default:
		return ambiguous("mutation of %s involves %d other markers", m.Symbol, len(involved))
	}
}

// markersOf returns the distinct allele markers in first-seen order.
func markersOf(alleles []domain.Allele) []domain.Marker {
	seen := map[int64]bool{}
	var out []domain.Marker
	for _, a := range alleles {
		if a.Marker == nil || seen[a.Marker.Key] {
			continue
		}
		seen[a.Marker.Key] = true
		out = append(out, *a.Marker)
	}
	return out
}

func involvedMarkers(alleles []domain.Allele) []domain.Marker {
	seen := map[int64]bool{}
	var out []domain.Marker
	for _, a := range alleles {
		for _, m := range a.MutationInvolves {
			if !seen[m.Key] {
				seen[m.Key] = true
				out = append(out, m)
			}
		}
	}
	return out
}

func expressedComponents(alleles []domain.Allele) []domain.ExpressedComponent {
	seen := map[int64]bool{}
	var out []domain.ExpressedComponent
	for _, a := range alleles {
		for _, ec := range a.Expresses {
			if !seen[ec.Marker.Key] {
				seen[ec.Marker.Key] = true
				out = append(out, ec)
			}
		}
	}
	return out
}

func expressesGene(ec domain.ExpressedComponent) bool {
	return ec.Relationship == domain.ExpressesMouseGene || ec.Relationship == domain.ExpressesOrthologousGene
}

func expressing(alleles []domain.Allele, markerKey int64) []domain.Allele {
	var out []domain.Allele
	for _, a := range alleles {
		for _, ec := range a.Expresses {
			if ec.Marker.Key == markerKey {
				out = append(out, a)
				break
			}
		}
	}
	return out
}

func allelesOn(alleles []domain.Allele, markerKey int64) []domain.Allele {
	var out []domain.Allele
	for _, a := range alleles {
		if a.Marker != nil && a.Marker.Key == markerKey {
			out = append(out, a)
		}
	}
	return out
}

func anyMutationInvolves(alleles []domain.Allele) bool {
	for _, a := range alleles {
		if len(a.MutationInvolves) > 0 {
			return true
		}
	}
	return false
}

func anyInsertedSequence(alleles []domain.Allele) bool {
	for _, a := range alleles {
		if a.InsertsExpressedSequence() {
			return true
		}
	}
	return false
}

func anyMutant(alleles []domain.Allele) bool {
	for _, a := range alleles {
		if !a.WildType {
			return true
		}
	}
	return false
}
