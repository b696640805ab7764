package output

import (
	"bufio"
	"io"
	"strconv"

	"rollupload/internal/config"
	"rollupload/pkg/domain"
)

// Record types of the rollup format.
const (
	RecordAnnotation = "A"
	RecordProvenance = "P"
)

// RollupColumns is the number of columns on every rollup line.
const RollupColumns = 8

// rollupFormat writes one A line per record followed by one P line per link:
//
//	record_type target term qualifier evidence_code property_name source_annotation source_genotype
type rollupFormat struct{}

func (rollupFormat) Name() string        { return config.FormatRollup }
func (rollupFormat) ContentType() string { return "text/tab-separated-values" }

func (rollupFormat) Write(w io.Writer, p Params, records []domain.RolledUpAnnotation) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		if err := writeLine(bw, RecordAnnotation, rec.Target.Accession, rec.TermAccession, rec.Qualifier, "", "", "", ""); err != nil {
			return err
		}
		for _, l := range rec.Links {
			if err := writeLine(bw, RecordProvenance, rec.Target.Accession, rec.TermAccession, rec.Qualifier,
				l.EvidenceCode, p.PropertyTerm, strconv.FormatInt(l.AnnotationKey, 10), l.GenotypeAccession); err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}
