package source

import (
	"fmt"
	"slices"

	"rollupload/pkg/domain"
)

// Cursor yields fetched candidates once, in annotation key order. It cannot
// be rewound; a second pass needs a second Fetch.
type Cursor struct {
	snap    *snapshot
	pos     int
	current *domain.Candidate
	closed  bool
}

// Next advances to the next candidate.
func (c *Cursor) Next() bool {
	if c.closed || c.snap == nil || c.pos >= len(c.snap.annots) {
		c.current = nil
		return false
	}
	c.current = c.snap.candidate(c.snap.annots[c.pos])
	c.pos++
	return true
}

// Candidate returns the candidate Next advanced to.
func (c *Cursor) Candidate() *domain.Candidate { return c.current }

// Len reports how many candidates the fetch produced.
func (c *Cursor) Len() int {
	if c.snap == nil {
		return 0
	}
	return len(c.snap.annots)
}

// Close releases the snapshot.
func (c *Cursor) Close() error {
	c.closed = true
	c.snap = nil
	c.current = nil
	return nil
}

func (s *snapshot) candidate(a *annotRow) *domain.Candidate {
	c := &domain.Candidate{
		Annotation: domain.SourceAnnotation{
			Key:         a.key,
			Type:        s.query.Type,
			GenotypeKey: a.genotype,
			TermKey:     a.term,
			Qualifier:   a.qualifier,
		},
	}
	switch len(a.accessions) {
	case 0:
		c.Problems = append(c.Problems, "term has no preferred accession")
	case 1:
		c.Annotation.TermAccession = a.accessions[0]
	default:
		c.Problems = append(c.Problems, fmt.Sprintf("term has %d preferred accessions", len(a.accessions)))
	}
	c.Genotype, c.Problems = s.genotype(a.genotype, c.Problems)
	c.Evidence = cloneEvidence(s.evidence[a.key])
	for _, e := range c.Evidence {
		for _, p := range e.Properties {
			if s.query.PropertyTerm == "" || p.Name != s.query.PropertyTerm {
				continue
			}
			k, err := parseKey(p.Value)
			if err != nil {
				c.Problems = append(c.Problems, fmt.Sprintf("cross-reference %q is not an annotation key", p.Value))
				continue
			}
			ref, ok := s.refs[k]
			if !ok {
				c.Problems = append(c.Problems, fmt.Sprintf("cross-reference %d does not resolve", k))
				continue
			}
			ref.EvidenceKey = e.Key
			c.Refs = append(c.Refs, ref)
		}
	}
	return c
}

func (s *snapshot) genotype(key int64, problems []string) (domain.Genotype, []string) {
	g, ok := s.genotypes[key]
	if !ok {
		return domain.Genotype{Key: key}, append(problems, fmt.Sprintf("genotype %d not found", key))
	}
	for _, p := range s.pairs[key] {
		pair := domain.AllelePair{Sequence: p.seq}
		if p.marker != 0 {
			if m, ok := s.markers[p.marker]; ok {
				pair.Marker = &m
			}
		}
		a1, ok := s.allele(p.allele1)
		if !ok {
			problems = append(problems, fmt.Sprintf("allele %d not found", p.allele1))
			continue
		}
		pair.Allele1 = a1
		if p.allele2 != 0 {
			a2, ok := s.allele(p.allele2)
			if !ok {
				problems = append(problems, fmt.Sprintf("allele %d not found", p.allele2))
				continue
			}
			pair.Allele2 = &a2
		}
		g.Pairs = append(g.Pairs, pair)
	}
	return g, problems
}

// allele returns a fresh copy with attributes and relationships attached so
// candidates never share mutable slices.
func (s *snapshot) allele(key int64) (domain.Allele, bool) {
	a, ok := s.alleles[key]
	if !ok {
		return domain.Allele{}, false
	}
	if a.Marker != nil {
		m := *a.Marker
		a.Marker = &m
	}
	a.Attributes = slices.Clone(s.attributes[key])
	for _, r := range s.rels[key] {
		m, ok := s.markers[r.marker]
		if !ok {
			continue
		}
		switch r.category {
		case categoryMutationInvolves:
			a.MutationInvolves = append(a.MutationInvolves, m)
		case categoryExpresses:
			a.Expresses = append(a.Expresses, domain.ExpressedComponent{Marker: m, Relationship: r.term})
		}
	}
	return a, true
}

func cloneEvidence(in []domain.Evidence) []domain.Evidence {
	out := make([]domain.Evidence, len(in))
	for i, e := range in {
		e.Properties = slices.Clone(e.Properties)
		out[i] = e
	}
	return out
}
