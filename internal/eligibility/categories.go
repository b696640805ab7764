package eligibility

import (
	"sort"
	"strings"

	"rollupload/pkg/domain"
)

// Allele categories derived from an allele in the context of its genotype.
const (
	CategoryWildType               = "wild-type"
	CategoryReporterTransgene      = "reporter-transgene"
	CategoryTransactivator         = "transactivator"
	CategoryConditionalRecombinase = "conditional-recombinase"
	CategoryMarkerLess             = "marker-less"
)

// Categories returns every category the allele falls into, sorted.
func Categories(a domain.Allele, g domain.Genotype) []string {
	var out []string
	if a.WildType {
		out = append(out, CategoryWildType)
	}
	transgenic := strings.EqualFold(a.GenerationType, domain.GenerationTransgenic)
	if transgenic && len(a.Attributes) == 1 && a.Attributes[0] == domain.AttributeReporter {
		out = append(out, CategoryReporterTransgene)
	}
	if transgenic && a.HasAttribute(domain.AttributeTransactivator) && !a.InsertsExpressedSequence() {
		out = append(out, CategoryTransactivator)
	}
	if g.Conditional && a.HasAttribute(domain.AttributeRecombinase) && !a.InsertsExpressedSequence() {
		out = append(out, CategoryConditionalRecombinase)
	}
	if a.Marker == nil {
		out = append(out, CategoryMarkerLess)
	}
	if slug := generationSlug(a.GenerationType); slug != "" {
		out = append(out, slug)
	}
	sort.Strings(out)
	return out
}

// generationSlug turns "Chemically induced (ENU)" into "chemically-induced-enu".
func generationSlug(gen string) string {
	var b strings.Builder
	dash := false
	for _, r := range strings.ToLower(strings.TrimSpace(gen)) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			dash = false
		default:
			if b.Len() > 0 && !dash {
				b.WriteByte('-')
				dash = true
			}
		}
	}
	return strings.TrimSuffix(b.String(), "-")
}

type categorySet map[string]bool

func newSet(values []string) categorySet {
	s := make(categorySet, len(values))
	for _, v := range values {
		if v = strings.TrimSpace(v); v != "" {
			s[v] = true
		}
	}
	return s
}

// excludedBy returns the allele's categories that appear in the set.
func (s categorySet) excludedBy(a domain.Allele, g domain.Genotype) []string {
	var hit []string
	for _, c := range Categories(a, g) {
		if s[c] {
			hit = append(hit, c)
		}
	}
	return hit
}
