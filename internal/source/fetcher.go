// Package source reads genotype-level annotations, their genotype
// composition and evidence from the relational store in one bulk read and
// hands them to the filter as a forward-only cursor.
package source

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"strings"
	"time"

	"rollupload/internal/infra/persistence"
	"rollupload/internal/platform/logger"
	"rollupload/pkg/domain"
)

// ErrSource marks connectivity, query and schema failures. They are fatal.
var ErrSource = errors.New("source fetch failed")

// refBatch bounds the IN list used to resolve cross-references.
const refBatch = 500

// Query selects the genotype-level annotations of interest.
type Query struct {
	Type         domain.AnnotationType
	AnnotTypeKey int64
	VocabKey     int64
	LogicalDBKey int64
	PropertyTerm string
}

// Fetcher is a read-only view over the source store.
type Fetcher struct {
	db      *sql.DB
	dialect persistence.Dialect
	log     *logger.Logger
}

// New returns a Fetcher over db.
func New(db *sql.DB, dialect persistence.Dialect, log *logger.Logger) *Fetcher {
	if log == nil {
		log = logger.NewNop()
	}
	return &Fetcher{db: db, dialect: dialect, log: log}
}

type annotRow struct {
	key        int64
	genotype   int64
	term       int64
	qualifier  string
	accessions []string
}

type pairRow struct {
	genotype int64
	seq      int
	marker   int64
	allele1  int64
	allele2  int64
}

type relRow struct {
	category string
	marker   int64
	term     string
}

type snapshot struct {
	query      Query
	annots     []*annotRow
	genotypes  map[int64]domain.Genotype
	pairs      map[int64][]pairRow
	alleles    map[int64]domain.Allele
	attributes map[int64][]string
	rels       map[int64][]relRow
	markers    map[int64]domain.Marker
	evidence   map[int64][]domain.Evidence
	refs       map[int64]domain.SourceRef
}

// Fetch performs the bulk read and returns a cursor over the candidates in
// annotation key order.
func (f *Fetcher) Fetch(ctx context.Context, q Query) (*Cursor, error) {
	start := time.Now()
	snap := &snapshot{
		query:      q,
		genotypes:  make(map[int64]domain.Genotype),
		pairs:      make(map[int64][]pairRow),
		alleles:    make(map[int64]domain.Allele),
		attributes: make(map[int64][]string),
		rels:       make(map[int64][]relRow),
		markers:    make(map[int64]domain.Marker),
		evidence:   make(map[int64][]domain.Evidence),
		refs:       make(map[int64]domain.SourceRef),
	}
	steps := []struct {
		name string
		fn   func(context.Context, *snapshot) error
	}{
		{"annotations", f.loadAnnotations},
		{"genotypes", f.loadGenotypes},
		{"allele pairs", f.loadPairs},
		{"markers", f.loadMarkers},
		{"marker features", f.loadFeatures},
		{"alleles", f.loadAlleles},
		{"allele attributes", f.loadAttributes},
		{"allele relationships", f.loadRelationships},
		{"evidence", f.loadEvidence},
		{"evidence properties", f.loadProperties},
		{"cross-references", f.loadReferences},
	}
	for _, step := range steps {
		if err := step.fn(ctx, snap); err != nil {
			return nil, fmt.Errorf("%w: %s: %w", ErrSource, step.name, err)
		}
	}
	f.log.Info("source fetched",
		"annotation_type", q.Type,
		"annotations", len(snap.annots),
		"genotypes", len(snap.genotypes),
		"evidence", countEvidence(snap.evidence),
		"duration", time.Since(start),
	)
	return &Cursor{snap: snap}, nil
}

func countEvidence(m map[int64][]domain.Evidence) int {
	n := 0
	for _, ev := range m {
		n += len(ev)
	}
	return n
}

func (f *Fetcher) query(ctx context.Context, q string, args []any, scan func(*sql.Rows) error) error {
	rows, err := f.db.QueryContext(ctx, f.dialect.Rebind(q), args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()
	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}

func (f *Fetcher) loadAnnotations(ctx context.Context, s *snapshot) error {
	var last *annotRow
	return f.query(ctx, annotationsQuery, []any{s.query.VocabKey, s.query.LogicalDBKey, s.query.AnnotTypeKey}, func(rows *sql.Rows) error {
		var (
			key, genotype, term int64
			qualifier, acc      sql.NullString
		)
		if err := rows.Scan(&key, &genotype, &term, &qualifier, &acc); err != nil {
			return err
		}
		if last == nil || last.key != key {
			last = &annotRow{key: key, genotype: genotype, term: term, qualifier: strings.TrimSpace(qualifier.String)}
			s.annots = append(s.annots, last)
		}
		if acc.Valid && acc.String != "" {
			last.accessions = append(last.accessions, acc.String)
		}
		return nil
	})
}

func (f *Fetcher) loadGenotypes(ctx context.Context, s *snapshot) error {
	return f.query(ctx, genotypesQuery, []any{s.query.AnnotTypeKey}, func(rows *sql.Rows) error {
		var (
			key         int64
			acc         sql.NullString
			conditional int64
		)
		if err := rows.Scan(&key, &acc, &conditional); err != nil {
			return err
		}
		s.genotypes[key] = domain.Genotype{Key: key, Accession: acc.String, Conditional: conditional != 0}
		return nil
	})
}

func (f *Fetcher) loadPairs(ctx context.Context, s *snapshot) error {
	return f.query(ctx, pairsQuery, []any{s.query.AnnotTypeKey}, func(rows *sql.Rows) error {
		var (
			p               pairRow
			marker, allele2 sql.NullInt64
		)
		if err := rows.Scan(&p.genotype, &p.seq, &marker, &p.allele1, &allele2); err != nil {
			return err
		}
		p.marker, p.allele2 = marker.Int64, allele2.Int64
		s.pairs[p.genotype] = append(s.pairs[p.genotype], p)
		return nil
	})
}

func (f *Fetcher) loadMarkers(ctx context.Context, s *snapshot) error {
	return f.query(ctx, markersQuery, []any{s.query.AnnotTypeKey}, func(rows *sql.Rows) error {
		var (
			m   domain.Marker
			acc sql.NullString
		)
		if err := rows.Scan(&m.Key, &acc, &m.Symbol, &m.Type, &m.Organism.Key, &m.Organism.CommonName); err != nil {
			return err
		}
		m.Accession = acc.String
		s.markers[m.Key] = m
		return nil
	})
}

func (f *Fetcher) loadFeatures(ctx context.Context, s *snapshot) error {
	return f.query(ctx, featuresQuery, []any{s.query.AnnotTypeKey}, func(rows *sql.Rows) error {
		var (
			key int64
			ft  string
		)
		if err := rows.Scan(&key, &ft); err != nil {
			return err
		}
		if m, ok := s.markers[key]; ok {
			m.FeatureTypes = append(m.FeatureTypes, ft)
			s.markers[key] = m
		}
		return nil
	})
}

func (f *Fetcher) loadAlleles(ctx context.Context, s *snapshot) error {
	return f.query(ctx, allelesQuery, []any{s.query.AnnotTypeKey}, func(rows *sql.Rows) error {
		var (
			a        domain.Allele
			acc      sql.NullString
			marker   sql.NullInt64
			wildType int64
		)
		if err := rows.Scan(&a.Key, &acc, &a.Symbol, &marker, &a.GenerationType, &wildType); err != nil {
			return err
		}
		a.Accession = acc.String
		a.WildType = wildType != 0
		if marker.Valid {
			if m, ok := s.markers[marker.Int64]; ok {
				a.Marker = &m
			}
		}
		s.alleles[a.Key] = a
		return nil
	})
}

func (f *Fetcher) loadAttributes(ctx context.Context, s *snapshot) error {
	return f.query(ctx, attributesQuery, []any{s.query.AnnotTypeKey}, func(rows *sql.Rows) error {
		var (
			key  int64
			attr string
		)
		if err := rows.Scan(&key, &attr); err != nil {
			return err
		}
		s.attributes[key] = append(s.attributes[key], attr)
		return nil
	})
}

func (f *Fetcher) loadRelationships(ctx context.Context, s *snapshot) error {
	return f.query(ctx, relationshipsQuery, []any{s.query.AnnotTypeKey}, func(rows *sql.Rows) error {
		var (
			key int64
			r   relRow
		)
		if err := rows.Scan(&key, &r.category, &r.marker, &r.term); err != nil {
			return err
		}
		s.rels[key] = append(s.rels[key], r)
		return nil
	})
}

func (f *Fetcher) loadEvidence(ctx context.Context, s *snapshot) error {
	return f.query(ctx, evidenceQuery, []any{s.query.AnnotTypeKey}, func(rows *sql.Rows) error {
		var (
			e                                 domain.Evidence
			annot                             int64
			code, ref, inferred, user, notes sql.NullString
		)
		if err := rows.Scan(&e.Key, &annot, &code, &ref, &inferred, &user, &notes); err != nil {
			return err
		}
		e.Code, e.Reference, e.InferredFrom, e.User, e.Notes = code.String, ref.String, inferred.String, user.String, notes.String
		s.evidence[annot] = append(s.evidence[annot], e)
		return nil
	})
}

func (f *Fetcher) loadProperties(ctx context.Context, s *snapshot) error {
	byEvidence := make(map[int64][]domain.EvidenceProperty)
	err := f.query(ctx, propertiesQuery, []any{s.query.AnnotTypeKey}, func(rows *sql.Rows) error {
		var (
			key int64
			p   domain.EvidenceProperty
		)
		if err := rows.Scan(&key, &p.Name, &p.Stanza, &p.Sequence, &p.Value); err != nil {
			return err
		}
		byEvidence[key] = append(byEvidence[key], p)
		return nil
	})
	if err != nil {
		return err
	}
	for annot, evs := range s.evidence {
		for i := range evs {
			evs[i].Properties = byEvidence[evs[i].Key]
		}
		s.evidence[annot] = evs
	}
	return nil
}

// loadReferences resolves every parseable cross-reference value. Dangling
// references stay unresolved and surface as candidate problems.
func (f *Fetcher) loadReferences(ctx context.Context, s *snapshot) error {
	if s.query.PropertyTerm == "" {
		return nil
	}
	wanted := make(map[int64]struct{})
	for _, evs := range s.evidence {
		for _, e := range evs {
			for _, p := range e.Properties {
				if p.Name != s.query.PropertyTerm {
					continue
				}
				if k, err := parseKey(p.Value); err == nil {
					wanted[k] = struct{}{}
				}
			}
		}
	}
	keys := make([]int64, 0, len(wanted))
	for k := range wanted {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	for start := 0; start < len(keys); start += refBatch {
		end := min(start+refBatch, len(keys))
		batch := keys[start:end]
		args := make([]any, len(batch))
		for i, k := range batch {
			args[i] = k
		}
		q := fmt.Sprintf(referencedQuery, persistence.Placeholders(len(batch)))
		err := f.query(ctx, q, args, func(rows *sql.Rows) error {
			var (
				ref          domain.SourceRef
				genotype, tm sql.NullString
			)
			if err := rows.Scan(&ref.AnnotationKey, &genotype, &tm); err != nil {
				return err
			}
			ref.GenotypeAccession, ref.TermAccession = genotype.String, tm.String
			s.refs[ref.AnnotationKey] = ref
			return nil
		})
		if err != nil {
			return err
		}
	}
	return nil
}

func parseKey(v string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(v), 10, 64)
}
