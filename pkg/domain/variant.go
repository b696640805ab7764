package domain

import (
	"fmt"
	"strings"
)

// AnnotationType enumerates the genotype-level annotation types that roll up.
type AnnotationType string

const (
	// AnnotationDisease covers disease ontology (DO) genotype annotations.
	AnnotationDisease AnnotationType = "disease"
	// AnnotationPhenotype covers mammalian phenotype (MP) genotype annotations.
	AnnotationPhenotype AnnotationType = "phenotype"
)

// TargetKind identifies the entity a genotype annotation is rolled up to.
type TargetKind string

const (
	// TargetMarker rolls annotations up to genes.
	TargetMarker TargetKind = "marker"
	// TargetAllele rolls annotations up to alleles.
	TargetAllele TargetKind = "allele"
)

// Variant names one (annotation type x target kind) pipeline.
type Variant string

// Supported pipeline variants.
const (
	VariantDiseaseMarker   Variant = "disease-marker"
	VariantPhenotypeMarker Variant = "phenotype-marker"
	VariantDiseaseAllele   Variant = "disease-allele"
	VariantPhenotypeAllele Variant = "phenotype-allele"
)

// Variants returns every supported variant in a stable order.
func Variants() []Variant {
	return []Variant{VariantDiseaseMarker, VariantPhenotypeMarker, VariantDiseaseAllele, VariantPhenotypeAllele}
}

// ParseVariant resolves a variant name, accepting the arrow spelling used by operators.
func ParseVariant(s string) (Variant, error) {
	norm := strings.ToLower(strings.TrimSpace(s))
	norm = strings.ReplaceAll(norm, "->", "-")
	norm = strings.ReplaceAll(norm, "_", "-")
	for _, v := range Variants() {
		if string(v) == norm {
			return v, nil
		}
	}
	return "", fmt.Errorf("unknown pipeline variant %q", s)
}

// AnnotationType returns the source annotation type the variant reads.
func (v Variant) AnnotationType() AnnotationType {
	if strings.HasPrefix(string(v), string(AnnotationDisease)) {
		return AnnotationDisease
	}
	return AnnotationPhenotype
}

// Target returns the kind of entity the variant rolls up to.
func (v Variant) Target() TargetKind {
	if strings.HasSuffix(string(v), string(TargetAllele)) {
		return TargetAllele
	}
	return TargetMarker
}

// Stream segregates rolled-up annotations into separately published outputs.
type Stream string

const (
	// StreamStandard carries positive mouse rollups.
	StreamStandard Stream = "standard"
	// StreamNonMouse carries rollups whose target is not a mouse entity.
	StreamNonMouse Stream = "non-mouse"
	// StreamNegated carries rollups of negated (NOT) annotations.
	StreamNegated Stream = "negated"
)

// Streams lists streams in publish order; the standard stream is committed last.
func Streams() []Stream {
	return []Stream{StreamNonMouse, StreamNegated, StreamStandard}
}
