// Package runner drives a replay: it pulls events off a source, feeds them
// through the processor against snapshots fetched from the store, and writes
// the results back. The runner is the only component that touches the store,
// and it processes one event completely before reading the next.
package runner

import (
	"context"
	"errors"
	"fmt"
	"io"

	"github.com/rumor-ml/commons.systems/txreplay/internal/diag"
	"github.com/rumor-ml/commons.systems/txreplay/internal/processor"
	"github.com/rumor-ml/commons.systems/txreplay/internal/source"
	"github.com/rumor-ml/commons.systems/txreplay/internal/store"
)

// Stats aggregates what happened during a replay. Rejections and skips are
// recovered locally and only show up here and in the diagnostic sink; a
// non-nil error from Replay means the run itself failed.
type Stats struct {
	Events           int // events decoded from the stream
	Applied          int
	Rejected         int
	SkippedRecords   int // malformed records the source could not decode
	RejectedByReason map[string]int
}

// NewStats creates an empty Stats.
func NewStats() *Stats {
	return &Stats{RejectedByReason: make(map[string]int)}
}

// Merge folds other into s, for multi-file runs.
func (s *Stats) Merge(other *Stats) {
	s.Events += other.Events
	s.Applied += other.Applied
	s.Rejected += other.Rejected
	s.SkippedRecords += other.SkippedRecords
	for reason, n := range other.RejectedByReason {
		s.RejectedByReason[reason] += n
	}
}

// Runner replays event streams against one store.
type Runner struct {
	store store.Store
	sink  diag.Sink
}

// New creates a runner over the given store and diagnostic sink.
func New(st store.Store, sink diag.Sink) *Runner {
	return &Runner{store: st, sink: sink}
}

// Replay consumes the reader to exhaustion. Per-record problems (malformed
// records, rejected events) go to the sink and leave the store untouched for
// that record. Store errors are fatal and abort mid-stream; the returned
// stats cover everything processed up to that point.
func (r *Runner) Replay(ctx context.Context, events source.Reader) (*Stats, error) {
	stats := NewStats()

	for {
		ev, err := events.Next()
		if err == io.EOF {
			return stats, nil
		}
		if err != nil {
			if errors.Is(err, source.ErrBadRecord) {
				r.sink.Error(err.Error())
				stats.SkippedRecords++
				continue
			}
			return stats, fmt.Errorf("event stream failed: %w", err)
		}
		stats.Events++

		tx, err := r.store.GetTransaction(ctx, ev.Tx)
		if err != nil {
			return stats, fmt.Errorf("store read failed for transaction %d: %w", ev.Tx, err)
		}
		client, err := r.store.GetClient(ctx, ev.Client)
		if err != nil {
			return stats, fmt.Errorf("store read failed for client %d: %w", ev.Client, err)
		}

		newClient, newTx, err := processor.Process(tx, client, *ev)
		if err != nil {
			// Rejected: nothing is written back.
			r.sink.Error(fmt.Sprintf("%s tx=%d client=%d rejected: %v", ev.Type, ev.Tx, ev.Client, err))
			stats.Rejected++
			stats.RejectedByReason[processor.Reason(err)]++
			continue
		}

		// Transaction first, then client. The keys are independent, so the
		// order carries no semantics; it just mirrors the handler outputs.
		if err := r.store.SetTransaction(ctx, newTx); err != nil {
			return stats, fmt.Errorf("store write failed for transaction %d: %w", newTx.ID, err)
		}
		if err := r.store.SetClient(ctx, newClient); err != nil {
			return stats, fmt.Errorf("store write failed for client %d: %w", newClient.ID, err)
		}
		stats.Applied++
	}
}
