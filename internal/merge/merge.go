// Package merge groups accepted tuples into rolled-up annotations.
package merge

import (
	"cmp"
	"slices"
	"strings"

	"rollupload/internal/eligibility"
	"rollupload/pkg/domain"
)

type groupKey struct {
	stream    domain.Stream
	kind      domain.TargetKind
	target    string
	term      string
	qualifier string
}

type linkKey struct {
	annotation int64
	evidence   int64
}

type group struct {
	record domain.RolledUpAnnotation
	seen   map[linkKey]struct{}
}

// Merger accumulates accepted tuples. It is not safe for concurrent use;
// each pipeline run owns one.
type Merger struct {
	groups map[groupKey]*group
	links  int
}

// New returns an empty merger.
func New() *Merger {
	return &Merger{groups: make(map[groupKey]*group)}
}

// Add folds one accepted tuple into its (target, term, qualifier) group,
// contributing one provenance link per evidence row.
func (m *Merger) Add(acc eligibility.Accepted) {
	c := acc.Tuple.Candidate
	if c == nil {
		return
	}
	qualifier := strings.TrimSpace(c.Annotation.Qualifier)
	key := groupKey{
		stream:    acc.Stream,
		kind:      acc.Tuple.Target.Kind,
		target:    acc.Tuple.Target.Accession,
		term:      c.Annotation.TermAccession,
		qualifier: qualifier,
	}
	g, ok := m.groups[key]
	if !ok {
		g = &group{
			record: domain.RolledUpAnnotation{
				Target:        acc.Tuple.Target,
				TermAccession: c.Annotation.TermAccession,
				Qualifier:     qualifier,
				Stream:        acc.Stream,
			},
			seen: make(map[linkKey]struct{}),
		}
		m.groups[key] = g
	}
	for _, e := range c.Evidence {
		lk := linkKey{annotation: c.Annotation.Key, evidence: e.Key}
		if _, dup := g.seen[lk]; dup {
			continue
		}
		g.seen[lk] = struct{}{}
		g.record.Links = append(g.record.Links, domain.ProvenanceLink{
			AnnotationKey:     c.Annotation.Key,
			GenotypeAccession: c.Genotype.Accession,
			EvidenceKey:       e.Key,
			EvidenceCode:      e.Code,
			Reference:         e.Reference,
			InferredFrom:      e.InferredFrom,
			User:              e.User,
			Notes:             e.Notes,
			Properties:        slices.Clone(e.Properties),
		})
		m.links++
	}
}

// Links returns the number of distinct provenance links merged so far.
func (m *Merger) Links() int { return m.links }

// Streams returns the merged records per stream in output order.
func (m *Merger) Streams() map[domain.Stream][]domain.RolledUpAnnotation {
	out := make(map[domain.Stream][]domain.RolledUpAnnotation)
	for _, g := range m.groups {
		rec := g.record
		rec.Links = slices.Clone(rec.Links)
		slices.SortFunc(rec.Links, compareLinks)
		out[rec.Stream] = append(out[rec.Stream], rec)
	}
	for s := range out {
		slices.SortFunc(out[s], compareRecords)
	}
	return out
}

func compareRecords(a, b domain.RolledUpAnnotation) int {
	return cmp.Or(
		cmp.Compare(a.Target.Accession, b.Target.Accession),
		cmp.Compare(a.Target.Kind, b.Target.Kind),
		cmp.Compare(a.TermAccession, b.TermAccession),
		cmp.Compare(a.Qualifier, b.Qualifier),
	)
}

func compareLinks(a, b domain.ProvenanceLink) int {
	return cmp.Or(
		cmp.Compare(a.AnnotationKey, b.AnnotationKey),
		cmp.Compare(a.EvidenceKey, b.EvidenceKey),
	)
}
