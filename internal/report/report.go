// Package report summarizes a completed replay run.
package report

import (
	"io"
	"sort"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"github.com/rumor-ml/commons.systems/txreplay/internal/runner"
)

// Report captures one run end to end.
type Report struct {
	RunID    string
	Files    int
	Clients  int
	Stats    *runner.Stats
	Elapsed  time.Duration
	Warnings int
}

// New creates a report with a fresh run id.
func New(files, clients, warnings int, stats *runner.Stats, elapsed time.Duration) *Report {
	return &Report{
		RunID:    uuid.New().String(),
		Files:    files,
		Clients:  clients,
		Stats:    stats,
		Elapsed:  elapsed,
		Warnings: warnings,
	}
}

// Render writes the human-readable summary. Counts are printed with locale
// separators so large replays stay readable.
func (r *Report) Render(w io.Writer) {
	p := message.NewPrinter(language.English)

	p.Fprintf(w, "Run %s\n", r.RunID)
	p.Fprintf(w, "  Files replayed:  %d\n", r.Files)
	p.Fprintf(w, "  Events decoded:  %d\n", r.Stats.Events)
	p.Fprintf(w, "  Applied:         %d\n", r.Stats.Applied)
	p.Fprintf(w, "  Rejected:        %d\n", r.Stats.Rejected)
	p.Fprintf(w, "  Skipped records: %d\n", r.Stats.SkippedRecords)
	p.Fprintf(w, "  Clients:         %d\n", r.Clients)
	if r.Warnings > 0 {
		p.Fprintf(w, "  Warnings:        %d\n", r.Warnings)
	}
	p.Fprintf(w, "  Elapsed:         %s\n", r.Elapsed.Round(time.Millisecond))

	if len(r.Stats.RejectedByReason) > 0 {
		p.Fprintf(w, "  Rejections by reason:\n")
		reasons := make([]string, 0, len(r.Stats.RejectedByReason))
		for reason := range r.Stats.RejectedByReason {
			reasons = append(reasons, reason)
		}
		sort.Strings(reasons)
		for _, reason := range reasons {
			p.Fprintf(w, "    %-30s %d\n", reason, r.Stats.RejectedByReason[reason])
		}
	}
}
