package testutil

import "rollupload/pkg/domain"

// Accessions seeded by SeedScenarios.
const (
	Pax6         = "MGI:97490"
	Shh          = "MGI:98297"
	Fgf8         = "MGI:99604"
	HumanAPP     = "HGNC:620"
	GtROSA       = "MGI:104735"
	Pax6Sey      = "MGI:1856155"
	Pax6WildType = "MGI:1856156"
	Aniridia     = "DOID:12271"
	Alzheimer    = "DOID:10652"
	AbnormalEye  = "MP:0002092"
	NoPhenotype  = "MP:0003012"

	GenotypeHomSey   = "MGI:3000001"
	GenotypeHetSey   = "MGI:3000002"
	GenotypeWildType = "MGI:3000003"
	GenotypeCompound = "MGI:3000004"
	GenotypeHumanAPP = "MGI:3000005"
	GenotypeROSA     = "MGI:3000006"
)

// Annotation keys seeded by SeedScenarios.
const (
	AnnotHomSeyAniridia   int64 = 900
	AnnotHetSeyAniridia   int64 = 901
	AnnotWildTypeAlz      int64 = 902
	AnnotCompoundAlz      int64 = 903
	AnnotHumanAPPEye      int64 = 904
	AnnotHomSeyEye        int64 = 905
	AnnotHomSeyNoPhenType int64 = 906
	AnnotHomSeyNotEye     int64 = 907
	AnnotROSAEye          int64 = 908
)

// SeedScenarios loads the shared rollup fixture:
//
//   - two Pax6 genotypes (Sey/Sey and Sey/+) annotated to aniridia with different evidence codes
//   - a wild-type only Pax6 genotype annotated to Alzheimer's disease
//   - a compound Shh/Fgf8 genotype annotated to Alzheimer's disease
//   - a genotype on a human APP marker annotated to abnormal eye
//   - Sey/Sey phenotype annotations: abnormal eye, no phenotypic analysis, NOT abnormal eye
//   - a Gt(ROSA)26Sor recombinase genotype annotated to abnormal eye
func SeedScenarios(s *Source) {
	s.t.Helper()
	s.Marker(100, Pax6, "Pax6", domain.MarkerTypeGene, OrganismMouse)
	s.Marker(101, Shh, "Shh", domain.MarkerTypeGene, OrganismMouse)
	s.Marker(102, Fgf8, "Fgf8", domain.MarkerTypeGene, OrganismMouse)
	s.Marker(103, HumanAPP, "APP", domain.MarkerTypeGene, OrganismHuman)
	s.Marker(104, GtROSA, "Gt(ROSA)26Sor", domain.MarkerTypeGene, OrganismMouse)

	s.Allele(AlleleRow{Key: 200, Accession: Pax6Sey, Symbol: "Pax6<Sey>", Marker: 100, Generation: "Spontaneous"})
	s.Allele(AlleleRow{Key: 201, Accession: Pax6WildType, Symbol: "Pax6<+>", Marker: 100, Generation: "Not Applicable", WildType: true})
	s.Allele(AlleleRow{Key: 202, Accession: "MGI:1857797", Symbol: "Shh<tm1Amc>", Marker: 101})
	s.Allele(AlleleRow{Key: 203, Accession: "MGI:1857798", Symbol: "Fgf8<tm1Mrt>", Marker: 102})
	s.Allele(AlleleRow{Key: 204, Accession: "MGI:5000204", Symbol: "APP<Tg>", Marker: 103, Generation: "Transgenic"})
	s.Allele(AlleleRow{Key: 205, Accession: "MGI:5000205", Symbol: "Gt(ROSA)26Sor<tm1(cre)>", Marker: 104, Attributes: []string{domain.AttributeRecombinase}})

	s.Term(500, DOVocab, "aniridia", Aniridia, DOLogicalDB)
	s.Term(501, MPVocab, "abnormal eye morphology", AbnormalEye, MPLogicalDB)
	s.Term(502, MPVocab, "no phenotypic analysis", NoPhenotype, MPLogicalDB)
	s.Term(503, DOVocab, "Alzheimer's disease", Alzheimer, DOLogicalDB)
	// a non-preferred secondary id must never be joined
	s.TermAccession(500, DOLogicalDB, "DOID:0000001", false, false)

	s.Genotype(300, GenotypeHomSey, false)
	s.Pair(300, 1, 100, 200, 200)
	s.Genotype(301, GenotypeHetSey, false)
	s.Pair(301, 1, 100, 200, 201)
	s.Genotype(302, GenotypeWildType, false)
	s.Pair(302, 1, 100, 201, 201)
	s.Genotype(303, GenotypeCompound, false)
	s.Pair(303, 1, 101, 202, 202)
	s.Pair(303, 2, 102, 203, 203)
	s.Genotype(304, GenotypeHumanAPP, false)
	s.Pair(304, 1, 103, 204, 0)
	s.Genotype(305, GenotypeROSA, false)
	s.Pair(305, 1, 104, 205, 205)

	annot := func(key, annotType, genotype, term int64, qualifier string, evidenceKey int64, code, ref string) {
		s.Annotation(key, annotType, genotype, term, qualifier)
		s.Evidence(EvidenceRow{Key: evidenceKey, Annotation: key, Code: code, Reference: ref, User: "curator", Notes: "note\tfor " + code})
	}
	annot(AnnotHomSeyAniridia, DiseaseAnnotType, 300, 500, "", 9000, "TAS", "J:1001")
	annot(AnnotHetSeyAniridia, DiseaseAnnotType, 301, 500, "", 9010, "IC", "J:1002")
	annot(AnnotWildTypeAlz, DiseaseAnnotType, 302, 503, "", 9020, "TAS", "J:1003")
	annot(AnnotCompoundAlz, DiseaseAnnotType, 303, 503, "", 9030, "TAS", "J:1004")
	annot(AnnotHumanAPPEye, PhenotypeAnnotType, 304, 501, "", 9040, "EXP", "J:1005")
	annot(AnnotHomSeyEye, PhenotypeAnnotType, 300, 501, "", 9050, "EXP", "J:1006")
	annot(AnnotHomSeyNoPhenType, PhenotypeAnnotType, 300, 502, "", 9060, "EXP", "J:1007")
	annot(AnnotHomSeyNotEye, PhenotypeAnnotType, 300, 501, "NOT", 9070, "EXP", "J:1008")
	annot(AnnotROSAEye, PhenotypeAnnotType, 305, 501, "", 9080, "EXP", "J:1009")
	s.Property(9050, "MP-Sex-Specificity", 1, 1, "M")
	s.Property(9050, "MP-Sex-Specificity", 2, 1, "F")
}
