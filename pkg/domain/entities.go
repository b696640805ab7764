package domain

import (
	"slices"
	"strings"
)

// MouseOrganism is the common name the source store uses for laboratory mouse.
const MouseOrganism = "mouse, laboratory"

// Marker types and feature types referenced by the implication rules.
const (
	MarkerTypeGene             = "Gene"
	MarkerTypeTransgene        = "Transgene"
	MarkerTypeComplex          = "Complex/Cluster/Region"
	MarkerTypeCytogenetic      = "Cytogenetic Marker"
	GenerationTransgenic       = "Transgenic"
	AttributeReporter          = "Reporter"
	AttributeRecombinase       = "Recombinase"
	AttributeTransactivator    = "Transactivator"
	AttributeInsertedExpressed = "Inserted expressed sequence"
)

// Expressed-component relationship terms.
const (
	ExpressesMouseGene       = "expresses_mouse_gene"
	ExpressesOrthologousGene = "expresses_an_orthologous_gene"
)

// Organism identifies the species a marker belongs to.
type Organism struct {
	Key        int64
	CommonName string
}

// IsMouse reports whether the organism is laboratory mouse.
func (o Organism) IsMouse() bool {
	return strings.EqualFold(strings.TrimSpace(o.CommonName), MouseOrganism)
}

// Marker is a gene or genome feature.
type Marker struct {
	Key          int64
	Accession    string
	Symbol       string
	Type         string
	FeatureTypes []string
	Organism     Organism
}

// IsTransgene reports whether the marker is a transgene.
func (m *Marker) IsTransgene() bool { return m != nil && m.Type == MarkerTypeTransgene }

// HasFeatureType reports whether the marker carries the named feature type.
func (m *Marker) HasFeatureType(ft string) bool {
	return m != nil && slices.Contains(m.FeatureTypes, ft)
}

// ExpressedComponent links an allele to a marker it expresses.
type ExpressedComponent struct {
	Marker       Marker
	Relationship string
}

// Allele is a variant form of a marker.
type Allele struct {
	Key              int64
	Accession        string
	Symbol           string
	Marker           *Marker
	GenerationType   string
	Attributes       []string
	WildType         bool
	MutationInvolves []Marker
	Expresses        []ExpressedComponent
}

// HasAttribute reports whether the allele carries the named attribute (subtype).
func (a Allele) HasAttribute(attr string) bool {
	return slices.Contains(a.Attributes, attr)
}

// InsertsExpressedSequence reports whether the allele carries an inserted expressed sequence.
func (a Allele) InsertsExpressedSequence() bool {
	return a.HasAttribute(AttributeInsertedExpressed)
}

// AllelePair is one locus of a genotype.
type AllelePair struct {
	Sequence int
	Marker   *Marker
	Allele1  Allele
	Allele2  *Allele
}

// Alleles returns the alleles of the pair in order.
func (p AllelePair) Alleles() []Allele {
	if p.Allele2 == nil {
		return []Allele{p.Allele1}
	}
	return []Allele{p.Allele1, *p.Allele2}
}

// Genotype is a combination of allele pairs on a background.
type Genotype struct {
	Key         int64
	Accession   string
	Conditional bool
	Pairs       []AllelePair
}

// Alleles returns the distinct alleles of the genotype in pair order.
func (g Genotype) Alleles() []Allele {
	seen := make(map[int64]struct{})
	var out []Allele
	for _, p := range g.Pairs {
		for _, a := range p.Alleles() {
			if _, ok := seen[a.Key]; ok {
				continue
			}
			seen[a.Key] = struct{}{}
			if a.Marker == nil {
				a.Marker = p.Marker
			}
			out = append(out, a)
		}
	}
	return out
}

// SourceAnnotation is a read-only genotype-level annotation.
type SourceAnnotation struct {
	Key           int64
	Type          AnnotationType
	GenotypeKey   int64
	TermKey       int64
	TermAccession string
	Qualifier     string
}

// EvidenceProperty is one key/value attribute of an evidence record.
type EvidenceProperty struct {
	Name     string
	Stanza   int
	Sequence int
	Value    string
}

// Evidence supports a source annotation.
type Evidence struct {
	Key          int64
	Code         string
	Reference    string
	InferredFrom string
	User         string
	Notes        string
	Properties   []EvidenceProperty
}

// SourceRef is a resolved cross-reference from an evidence property to another
// annotation. It holds lookup keys only.
type SourceRef struct {
	EvidenceKey       int64
	AnnotationKey     int64
	GenotypeAccession string
	TermAccession     string
}

// Candidate is one fetched source annotation with everything the filter needs.
type Candidate struct {
	Annotation SourceAnnotation
	Genotype   Genotype
	Evidence   []Evidence
	Refs       []SourceRef
	Problems   []string
}

// Target is the entity a source annotation rolls up to.
type Target struct {
	Kind      TargetKind
	Key       int64
	Accession string
	Symbol    string
	Organism  Organism
}

// IsZero reports whether no target is set.
func (t Target) IsZero() bool { return t.Key == 0 && t.Accession == "" }

// MarkerTarget builds a target from a marker.
func MarkerTarget(m Marker) Target {
	return Target{Kind: TargetMarker, Key: m.Key, Accession: m.Accession, Symbol: m.Symbol, Organism: m.Organism}
}

// AlleleTarget builds a target from an allele; the organism follows the allele's marker.
func AlleleTarget(a Allele) Target {
	t := Target{Kind: TargetAllele, Key: a.Key, Accession: a.Accession, Symbol: a.Symbol, Organism: Organism{CommonName: MouseOrganism}}
	if a.Marker != nil && a.Marker.Organism.CommonName != "" {
		t.Organism = a.Marker.Organism
	}
	return t
}

// ProvenanceLink ties a rolled-up annotation to one evidence row of one source annotation.
type ProvenanceLink struct {
	AnnotationKey     int64
	GenotypeAccession string
	EvidenceKey       int64
	EvidenceCode      string
	Reference         string
	InferredFrom      string
	User              string
	Notes             string
	Properties        []EvidenceProperty
}

// RolledUpAnnotation is the engine's output entity.
type RolledUpAnnotation struct {
	Target        Target
	TermAccession string
	Qualifier     string
	Stream        Stream
	Links         []ProvenanceLink
}
