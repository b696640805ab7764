package rollup

import (
	"sort"
	"time"

	"rollupload/internal/output"
	"rollupload/pkg/domain"
)

// Exit codes of a run.
const (
	ExitOK      = 0
	ExitFatal   = 1
	ExitSkipped = 2
)

// Report summarizes one variant run. Skipped counts malformed candidates
// only; a genotype the rules cannot attribute, such as a compound genotype,
// is a rejection under its rule name and leaves the exit code at 0.
type Report struct {
	RunID      string                   `json:"run_id"`
	Variant    domain.Variant           `json:"variant"`
	Candidates int                      `json:"candidates"`
	Accepted   int                      `json:"accepted"`
	Rejections map[string]int           `json:"rejections"`
	Skipped    int                      `json:"skipped"`
	Streams    []output.Published       `json:"streams"`
	Durations  map[string]time.Duration `json:"durations"`
	Error      string                   `json:"error,omitempty"`
}

func newReport(runID string, v domain.Variant) Report {
	return Report{RunID: runID, Variant: v, Rejections: map[string]int{}, Durations: map[string]time.Duration{}}
}

// Rejected returns the total number of rejected tuples.
func (r Report) Rejected() int {
	n := 0
	for _, c := range r.Rejections {
		n += c
	}
	return n
}

// Stream returns the published summary for s.
func (r Report) Stream(s domain.Stream) (output.Published, bool) {
	for _, p := range r.Streams {
		if p.Stream == s {
			return p, true
		}
	}
	return output.Published{}, false
}

// PublishedKeys lists the keys written, sorted.
func (r Report) PublishedKeys() []string {
	keys := make([]string, 0, len(r.Streams))
	for _, p := range r.Streams {
		keys = append(keys, p.Key)
	}
	sort.Strings(keys)
	return keys
}

// ExitCode maps the run outcome to the process exit code. Rejections are
// rollup decisions and never change it.
func (r Report) ExitCode() int {
	switch {
	case r.Error != "":
		return ExitFatal
	case r.Skipped > 0:
		return ExitSkipped
	default:
		return ExitOK
	}
}

// ExitCode aggregates several reports. A fatal variant wins over a skip, and
// a skip over success.
func ExitCode(reports []Report) int {
	code := ExitOK
	for _, r := range reports {
		switch r.ExitCode() {
		case ExitFatal:
			return ExitFatal
		case ExitSkipped:
			code = ExitSkipped
		}
	}
	return code
}
