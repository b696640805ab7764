// Package check verifies a published rollup file against the source store:
// every provenance link must name an annotation of the right type on the
// same term and genotype, and every record must be written once with at
// least one link.
package check

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"rollupload/internal/config"
	"rollupload/internal/output"
	"rollupload/internal/source"
)

// ErrUnsupported is returned for formats the checker cannot read back.
var ErrUnsupported = errors.New("format cannot be verified")

// Lookup reads source annotations by key.
type Lookup interface {
	Lookup(ctx context.Context, keys []int64) (map[int64]source.AnnotationRecord, error)
}

// Finding is one problem in a published file.
type Finding struct {
	Line    int    `json:"line"`
	Message string `json:"message"`
}

func (f Finding) String() string { return fmt.Sprintf("line %d: %s", f.Line, f.Message) }

// Result is the outcome of a verification.
type Result struct {
	Records  int       `json:"records"`
	Links    int       `json:"links"`
	Findings []Finding `json:"findings"`
}

// OK reports whether the file passed every check.
func (r Result) OK() bool { return len(r.Findings) == 0 }

type link struct {
	line       int
	term       string
	qualifier  string
	annotation int64
	genotype   string
}

// Verify reads a rollup-format file from r and checks it against src using
// the pipeline's annotation type and property term.
func Verify(ctx context.Context, src Lookup, p config.Pipeline, r io.Reader) (Result, error) {
	if p.Format != "" && p.Format != config.FormatRollup {
		return Result{}, fmt.Errorf("%w: %s", ErrUnsupported, p.Format)
	}
	var (
		res     Result
		links   []link
		seen    = map[string]int{}
		current string
		open    int // line of the A row still waiting for a P row
	)
	report := func(line int, format string, args ...any) {
		res.Findings = append(res.Findings, Finding{Line: line, Message: fmt.Sprintf(format, args...)})
	}
	sc := bufio.NewScanner(r)
	sc.Buffer(make([]byte, 64*1024), 4*1024*1024)
	n := 0
	for sc.Scan() {
		n++
		text := sc.Text()
		if text == "" {
			continue
		}
		cols := strings.Split(text, "\t")
		if len(cols) != output.RollupColumns {
			report(n, "expected %d columns, found %d", output.RollupColumns, len(cols))
			continue
		}
		triple := cols[1] + "\t" + cols[2] + "\t" + cols[3]
		switch cols[0] {
		case output.RecordAnnotation:
			if open > 0 {
				report(open, "record has no provenance link")
			}
			if prev, dup := seen[triple]; dup {
				report(n, "record repeats line %d", prev)
			}
			seen[triple] = n
			current, open = triple, n
			res.Records++
		case output.RecordProvenance:
			res.Links++
			if current == "" || triple != current {
				report(n, "provenance link does not follow its record")
				continue
			}
			open = 0
			if cols[5] != p.PropertyTerm {
				report(n, "property term %q, want %q", cols[5], p.PropertyTerm)
			}
			key, err := strconv.ParseInt(cols[6], 10, 64)
			if err != nil {
				report(n, "annotation key %q is not a number", cols[6])
				continue
			}
			links = append(links, link{line: n, term: cols[2], qualifier: cols[3], annotation: key, genotype: cols[7]})
		default:
			report(n, "unknown record kind %q", cols[0])
		}
	}
	if err := sc.Err(); err != nil {
		return Result{}, fmt.Errorf("read rollup: %w", err)
	}
	if open > 0 {
		report(open, "record has no provenance link")
	}
	if err := verifyLinks(ctx, src, p, links, report); err != nil {
		return Result{}, err
	}
	slices.SortStableFunc(res.Findings, func(a, b Finding) int { return a.Line - b.Line })
	return res, nil
}

func verifyLinks(ctx context.Context, src Lookup, p config.Pipeline, links []link, report func(int, string, ...any)) error {
	if len(links) == 0 {
		return nil
	}
	keys := make([]int64, len(links))
	for i, l := range links {
		keys[i] = l.annotation
	}
	found, err := src.Lookup(ctx, keys)
	if err != nil {
		return err
	}
	for _, l := range links {
		a, ok := found[l.annotation]
		switch {
		case !ok:
			report(l.line, "annotation %d does not exist", l.annotation)
		case a.AnnotTypeKey != p.AnnotTypeKey:
			report(l.line, "annotation %d has type %d, want %d", l.annotation, a.AnnotTypeKey, p.AnnotTypeKey)
		case a.TermAccession != l.term:
			report(l.line, "annotation %d is to %s, not %s", l.annotation, a.TermAccession, l.term)
		case a.GenotypeAccession != l.genotype:
			report(l.line, "annotation %d is on genotype %s, not %s", l.annotation, a.GenotypeAccession, l.genotype)
		case !strings.EqualFold(a.Qualifier, l.qualifier):
			report(l.line, "annotation %d has qualifier %q, not %q", l.annotation, a.Qualifier, l.qualifier)
		}
	}
	return nil
}

