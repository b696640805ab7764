package source

import (
	"context"
	"database/sql"
	"fmt"
	"slices"
	"strings"

	"rollupload/internal/infra/persistence"
)

// AnnotationRecord is a source annotation as stored, without composition.
type AnnotationRecord struct {
	Key               int64
	AnnotTypeKey      int64
	Qualifier         string
	GenotypeAccession string
	TermAccession     string
}

// Lookup reads the annotations with the given keys. Keys that do not exist
// are absent from the result.
func (f *Fetcher) Lookup(ctx context.Context, keys []int64) (map[int64]AnnotationRecord, error) {
	sorted := slices.Clone(keys)
	slices.Sort(sorted)
	sorted = slices.Compact(sorted)
	out := make(map[int64]AnnotationRecord, len(sorted))
	for start := 0; start < len(sorted); start += refBatch {
		batch := sorted[start:min(start+refBatch, len(sorted))]
		args := make([]any, len(batch))
		for i, k := range batch {
			args[i] = k
		}
		q := fmt.Sprintf(lookupQuery, persistence.Placeholders(len(batch)))
		err := f.query(ctx, q, args, func(rows *sql.Rows) error {
			var (
				r                       AnnotationRecord
				qualifier, genotype, tm sql.NullString
			)
			if err := rows.Scan(&r.Key, &r.AnnotTypeKey, &qualifier, &genotype, &tm); err != nil {
				return err
			}
			r.Qualifier = strings.TrimSpace(qualifier.String)
			r.GenotypeAccession, r.TermAccession = genotype.String, tm.String
			out[r.Key] = r
			return nil
		})
		if err != nil {
			return nil, fmt.Errorf("%w: lookup annotations: %w", ErrSource, err)
		}
	}
	return out, nil
}
