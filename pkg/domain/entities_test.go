package domain

import "testing"

func TestParseVariant(t *testing.T) {
	cases := map[string]Variant{
		"disease-marker":    VariantDiseaseMarker,
		"Phenotype->Allele": VariantPhenotypeAllele,
		"disease_allele":    VariantDiseaseAllele,
		" phenotype-marker": VariantPhenotypeMarker,
	}
	for in, want := range cases {
		got, err := ParseVariant(in)
		if err != nil || got != want {
			t.Fatalf("ParseVariant(%q) = %q, %v", in, got, err)
		}
	}
	if _, err := ParseVariant("go-term"); err == nil {
		t.Fatalf("expected error for unknown variant")
	}
}

func TestVariantAxes(t *testing.T) {
	if VariantDiseaseAllele.AnnotationType() != AnnotationDisease || VariantDiseaseAllele.Target() != TargetAllele {
		t.Fatalf("disease-allele axes wrong")
	}
	if VariantPhenotypeMarker.AnnotationType() != AnnotationPhenotype || VariantPhenotypeMarker.Target() != TargetMarker {
		t.Fatalf("phenotype-marker axes wrong")
	}
}

func TestGenotypeAllelesDistinctAndInheritMarker(t *testing.T) {
	pax6 := &Marker{Key: 1, Accession: "MGI:97490", Symbol: "Pax6"}
	sey := Allele{Key: 10, Symbol: "Pax6<Sey>"}
	g := Genotype{Pairs: []AllelePair{{Sequence: 1, Marker: pax6, Allele1: sey, Allele2: &sey}}}
	alleles := g.Alleles()
	if len(alleles) != 1 {
		t.Fatalf("expected homozygous pair to yield one allele, got %d", len(alleles))
	}
	if alleles[0].Marker == nil || alleles[0].Marker.Key != 1 {
		t.Fatalf("expected allele to inherit pair marker")
	}
}

func TestOrganismAndTargets(t *testing.T) {
	if !(Organism{CommonName: "Mouse, Laboratory"}).IsMouse() {
		t.Fatalf("expected mouse")
	}
	human := Marker{Key: 2, Accession: "HGNC:1", Organism: Organism{CommonName: "human"}}
	a := Allele{Key: 3, Accession: "MGI:3", Marker: &human}
	if AlleleTarget(a).Organism.IsMouse() {
		t.Fatalf("allele target should follow marker organism")
	}
	if !AlleleTarget(Allele{Key: 4}).Organism.IsMouse() {
		t.Fatalf("marker-less allele defaults to mouse")
	}
	if (Target{}).IsZero() == false || MarkerTarget(human).IsZero() {
		t.Fatalf("IsZero mismatch")
	}
}
