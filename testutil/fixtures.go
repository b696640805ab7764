package testutil

import (
	"context"
	"database/sql"
	"path/filepath"
	"testing"

	"rollupload/internal/infra/persistence"
	"rollupload/internal/infra/persistence/schema"
)

// Keys shared by fixtures and the default pipeline settings.
const (
	OrganismMouse int64 = 1
	OrganismHuman int64 = 2

	DiseaseAnnotType   int64 = 1020
	PhenotypeAnnotType int64 = 1002
	DOVocab            int64 = 125
	MPVocab            int64 = 5
	DOLogicalDB        int64 = 191
	MPLogicalDB        int64 = 34
)

// Source is a migrated SQLite source store with row builders.
type Source struct {
	t       testing.TB
	DB      *sql.DB
	Dialect persistence.Dialect
	Path    string
	nextKey int64
}

// NewSource creates an empty, migrated source database in a temp dir with
// the mouse and human organisms loaded.
func NewSource(t testing.TB) *Source {
	t.Helper()
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "source.db")
	db, dialect, err := persistence.Open(ctx, "sqlite", path)
	if err != nil {
		t.Fatalf("open fixture db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	if _, err := schema.Apply(ctx, db, dialect, nil); err != nil {
		t.Fatalf("migrate fixture db: %v", err)
	}
	s := &Source{t: t, DB: db, Dialect: dialect, Path: path, nextKey: 100000}
	s.Exec(`INSERT INTO organism (organism_key, common_name) VALUES (?, ?), (?, ?)`,
		OrganismMouse, "mouse, laboratory", OrganismHuman, "human")
	return s
}

// Exec runs a statement and fails the test on error.
func (s *Source) Exec(query string, args ...any) {
	s.t.Helper()
	if _, err := s.DB.Exec(query, args...); err != nil {
		s.t.Fatalf("fixture exec %q: %v", query, err)
	}
}

func (s *Source) key() int64 {
	s.nextKey++
	return s.nextKey
}

func nullable(k int64) any {
	if k == 0 {
		return nil
	}
	return k
}

func nullableString(v string) any {
	if v == "" {
		return nil
	}
	return v
}

func flag(b bool) int {
	if b {
		return 1
	}
	return 0
}

// Marker inserts a marker with optional feature types.
func (s *Source) Marker(key int64, accession, symbol, markerType string, organism int64, features ...string) {
	s.t.Helper()
	s.Exec(`INSERT INTO marker (marker_key, accession, symbol, marker_type, organism_key) VALUES (?, ?, ?, ?, ?)`,
		key, nullableString(accession), symbol, markerType, organism)
	for _, f := range features {
		s.Exec(`INSERT INTO marker_feature (marker_key, feature_type) VALUES (?, ?)`, key, f)
	}
}

// AlleleRow describes an allele fixture.
type AlleleRow struct {
	Key        int64
	Accession  string
	Symbol     string
	Marker     int64
	Generation string
	WildType   bool
	Attributes []string
}

// Allele inserts an allele and its attributes.
func (s *Source) Allele(a AlleleRow) {
	s.t.Helper()
	gen := a.Generation
	if gen == "" {
		gen = "Targeted"
	}
	s.Exec(`INSERT INTO allele (allele_key, accession, symbol, marker_key, generation_type, is_wild_type) VALUES (?, ?, ?, ?, ?, ?)`,
		a.Key, nullableString(a.Accession), a.Symbol, nullable(a.Marker), gen, flag(a.WildType))
	for _, attr := range a.Attributes {
		s.Exec(`INSERT INTO allele_attribute (allele_key, attribute) VALUES (?, ?)`, a.Key, attr)
	}
}

// MutationInvolves links an allele to a marker it disrupts.
func (s *Source) MutationInvolves(allele, marker int64) {
	s.t.Helper()
	s.Exec(`INSERT INTO allele_relationship (allele_key, category, marker_key, relationship_term) VALUES (?, 'mutation_involves', ?, 'mutation_involves')`, allele, marker)
}

// Expresses links an allele to a marker it expresses.
func (s *Source) Expresses(allele, marker int64, term string) {
	s.t.Helper()
	s.Exec(`INSERT INTO allele_relationship (allele_key, category, marker_key, relationship_term) VALUES (?, 'expresses_component', ?, ?)`, allele, marker, term)
}

// Genotype inserts a genotype.
func (s *Source) Genotype(key int64, accession string, conditional bool) {
	s.t.Helper()
	s.Exec(`INSERT INTO genotype (genotype_key, accession, is_conditional) VALUES (?, ?, ?)`, key, nullableString(accession), flag(conditional))
}

// Pair inserts an allele pair; allele2 may be zero for hemizygous loci.
func (s *Source) Pair(genotype int64, seq int, marker, allele1, allele2 int64) {
	s.t.Helper()
	s.Exec(`INSERT INTO allele_pair (allele_pair_key, genotype_key, sequence_num, marker_key, allele_key_1, allele_key_2) VALUES (?, ?, ?, ?, ?, ?)`,
		s.key(), genotype, seq, nullable(marker), allele1, nullable(allele2))
}

// Term inserts a vocabulary term with one preferred public accession.
func (s *Source) Term(key, vocab int64, name, accession string, logicalDB int64) {
	s.t.Helper()
	s.Exec(`INSERT INTO term (term_key, vocab_key, term) VALUES (?, ?, ?)`, key, vocab, name)
	if accession != "" {
		s.TermAccession(key, logicalDB, accession, true, false)
	}
}

// TermAccession inserts an additional accession row for a term.
func (s *Source) TermAccession(term, logicalDB int64, accession string, preferred, private bool) {
	s.t.Helper()
	s.Exec(`INSERT INTO term_accession (term_key, logical_db_key, acc_id, preferred, private) VALUES (?, ?, ?, ?, ?)`,
		term, logicalDB, accession, flag(preferred), flag(private))
}

// Annotation inserts a genotype annotation.
func (s *Source) Annotation(key, annotType, genotype, term int64, qualifier string) {
	s.t.Helper()
	s.Exec(`INSERT INTO annotation (annot_key, annot_type_key, genotype_key, term_key, qualifier) VALUES (?, ?, ?, ?, ?)`,
		key, annotType, genotype, term, nullableString(qualifier))
}

// EvidenceRow describes an evidence fixture.
type EvidenceRow struct {
	Key          int64
	Annotation   int64
	Code         string
	Reference    string
	InferredFrom string
	User         string
	Notes        string
}

// Evidence inserts an evidence row.
func (s *Source) Evidence(e EvidenceRow) {
	s.t.Helper()
	s.Exec(`INSERT INTO evidence (evidence_key, annot_key, evidence_code, jnum, inferred_from, modified_by, notes) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		e.Key, e.Annotation, nullableString(e.Code), nullableString(e.Reference), nullableString(e.InferredFrom), nullableString(e.User), nullableString(e.Notes))
}

// Property inserts an evidence property.
func (s *Source) Property(evidence int64, name string, stanza, seq int, value string) {
	s.t.Helper()
	s.Exec(`INSERT INTO evidence_property (evidence_property_key, evidence_key, property_term, stanza, sequence_num, value) VALUES (?, ?, ?, ?, ?, ?)`,
		s.key(), evidence, name, stanza, seq, value)
}
