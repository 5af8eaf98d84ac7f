package mdx

import (
	"fmt"
	"sort"
	"strings"
)

// Report accumulates batch-level summary counts: added / updated / skipped
// with a breakdown of skip reasons.
type Report struct {
	Added   int
	Updated int
	Skipped int
	// SkipReasons is a histogram keyed by stable skip tokens.
	SkipReasons map[string]int
	// ExtractionFailures counts files indexed with empty metadata because
	// the external tool failed or gave unusable output.
	ExtractionFailures int
	// Outcomes holds the per-file results in processing order.
	Outcomes []Outcome
}

// NewReport creates an empty report.
func NewReport() *Report {
	return &Report{SkipReasons: make(map[string]int)}
}

func (r *Report) add(o Outcome) {
	r.Outcomes = append(r.Outcomes, o)
	switch o.Kind {
	case OutcomeInserted:
		r.Added++
	case OutcomeUpdated:
		r.Updated++
	case OutcomeSkipped:
		r.Skipped++
		r.SkipReasons[o.SkipReason]++
	}
}

// Summary formats the end-of-batch summary line(s).
func (r *Report) Summary() string {
	var b strings.Builder
	fmt.Fprintf(&b, "added: %d, updated: %d, skipped: %d", r.Added, r.Updated, r.Skipped)
	if r.ExtractionFailures > 0 {
		fmt.Fprintf(&b, ", extraction failures: %d", r.ExtractionFailures)
	}

	if len(r.SkipReasons) > 0 {
		reasons := make([]string, 0, len(r.SkipReasons))
		for reason := range r.SkipReasons {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			fmt.Fprintf(&b, "\n  %s: %d", reason, r.SkipReasons[reason])
		}
	}
	return b.String()
}
