package eligibility

import (
	"fmt"

	"rollupload/internal/config"
	"rollupload/pkg/domain"
)

var (
	mouse = domain.Organism{Key: 1, CommonName: domain.MouseOrganism}
	human = domain.Organism{Key: 2, CommonName: "human"}
)

func marker(key int64, acc, symbol, markerType string, org domain.Organism) *domain.Marker {
	return &domain.Marker{Key: key, Accession: acc, Symbol: symbol, Type: markerType, Organism: org}
}

func gene(key int64, acc, symbol string) *domain.Marker {
	return marker(key, acc, symbol, domain.MarkerTypeGene, mouse)
}

func allele(key int64, m *domain.Marker, generation string, attrs ...string) domain.Allele {
	return domain.Allele{Key: key, Accession: accession(key), Symbol: symbolOf(m, key), Marker: m, GenerationType: generation, Attributes: attrs}
}

func wildType(key int64, m *domain.Marker) domain.Allele {
	a := allele(key, m, "Not Applicable")
	a.WildType = true
	return a
}

func accession(key int64) string {
	return fmt.Sprintf("MGI:%d", 5000000+key)
}

func symbolOf(m *domain.Marker, key int64) string {
	if m == nil {
		return "allele"
	}
	return m.Symbol + "<" + accession(key) + ">"
}

func pair(m *domain.Marker, a1 domain.Allele, a2 *domain.Allele) domain.AllelePair {
	return domain.AllelePair{Marker: m, Allele1: a1, Allele2: a2}
}

func hom(a domain.Allele) domain.AllelePair { return pair(a.Marker, a, &a) }

func het(a, b domain.Allele) domain.AllelePair { return pair(a.Marker, a, &b) }

func genotypeOf(conditional bool, pairs ...domain.AllelePair) domain.Genotype {
	for i := range pairs {
		pairs[i].Sequence = i + 1
	}
	return domain.Genotype{Key: 1, Accession: "MGI:3000001", Conditional: conditional, Pairs: pairs}
}

func candidate(g domain.Genotype, term, qualifier string) *domain.Candidate {
	return &domain.Candidate{
		Annotation: domain.SourceAnnotation{Key: 900, TermAccession: term, Qualifier: qualifier},
		Genotype:   g,
		Evidence:   []domain.Evidence{{Key: 9000, Code: "TAS", Reference: "J:1"}},
	}
}

func settings(v domain.Variant) Settings {
	return SettingsFor(v, config.PipelineDefaults(v))
}

var (
	pax6 = gene(100, "MGI:97490", "Pax6")
	shh  = gene(101, "MGI:98297", "Shh")
	fgf8 = gene(102, "MGI:99604", "Fgf8")
	rosa = gene(104, config.GtROSA26Sor, "Gt(ROSA)26Sor")
	hprt = gene(105, config.Hprt, "Hprt")
	app  = marker(103, "HGNC:620", "APP", domain.MarkerTypeGene, human)
)
