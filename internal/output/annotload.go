package output

import (
	"bufio"
	"io"
	"slices"
	"strconv"
	"strings"

	"rollupload/internal/config"
	"rollupload/pkg/domain"
)

// Separators of the loader's properties column.
const (
	propertyValueSep  = "&=&"
	propertyClauseSep = "&==&"
	propertyStanzaSep = "&===&"
)

// annotloadFormat writes the external annotation loader's eleven-column
// input, one line per provenance link:
//
//	term object J: evidence inferred_from qualifier user date notes object_type properties
type annotloadFormat struct{}

func (annotloadFormat) Name() string        { return config.FormatAnnotload }
func (annotloadFormat) ContentType() string { return "text/tab-separated-values" }

func (annotloadFormat) Write(w io.Writer, p Params, records []domain.RolledUpAnnotation) error {
	bw := bufio.NewWriter(w)
	for _, rec := range records {
		for _, l := range rec.Links {
			user := l.User
			if strings.TrimSpace(user) == "" {
				user = p.LoaderUser
			}
			// the loader stamps the current date and derives the object type
			err := writeLine(bw,
				rec.TermAccession,
				rec.Target.Accession,
				l.Reference,
				l.EvidenceCode,
				l.InferredFrom,
				rec.Qualifier,
				user,
				"",
				l.Notes,
				"",
				EncodeProperties(l.Properties, p.PropertyTerm, l.AnnotationKey),
			)
			if err != nil {
				return err
			}
		}
	}
	return bw.Flush()
}

// EncodeProperties renders evidence properties as loader stanzas. The clause
// naming the source annotation under propertyTerm takes the stanza of the
// first property and follows every existing clause, so it joins a lone
// stanza and opens a new one after any other.
func EncodeProperties(props []domain.EvidenceProperty, propertyTerm string, sourceKey int64) string {
	sorted := slices.Clone(props)
	slices.SortStableFunc(sorted, func(a, b domain.EvidenceProperty) int {
		if a.Stanza != b.Stanza {
			return a.Stanza - b.Stanza
		}
		return a.Sequence - b.Sequence
	})
	source := domain.EvidenceProperty{Name: propertyTerm, Stanza: 1, Value: strconv.FormatInt(sourceKey, 10)}
	if len(sorted) > 0 {
		source.Stanza = sorted[0].Stanza
	}
	sorted = append(sorted, source)

	var stanzas [][]string
	for i, prop := range sorted {
		if i == 0 || prop.Stanza != sorted[i-1].Stanza {
			stanzas = append(stanzas, nil)
		}
		stanzas[len(stanzas)-1] = append(stanzas[len(stanzas)-1], clause(prop.Name, prop.Value))
	}
	out := make([]string, 0, len(stanzas))
	for _, s := range stanzas {
		out = append(out, strings.Join(s, propertyClauseSep))
	}
	return strings.Join(out, propertyStanzaSep)
}

func clause(name, value string) string {
	return name + propertyValueSep + value
}
