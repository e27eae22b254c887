// Package source decodes event streams. Each Source understands one file
// format and turns it into the domain.Event records the replay driver
// consumes, one at a time. Decoding problems that affect a single record are
// wrapped in ErrBadRecord so the driver can log and skip them; anything else
// is fatal.
package source

import (
	"context"
	"errors"
	"io"

	"github.com/rumor-ml/commons.systems/txreplay/internal/domain"
)

// ErrBadRecord marks a record-level decoding failure. The driver skips the
// record and keeps replaying; errors not wrapping ErrBadRecord abort the run.
var ErrBadRecord = errors.New("malformed event record")

// Source is the strategy interface for event stream formats.
type Source interface {
	// Name returns the source identifier (e.g., "csv", "ofx").
	Name() string

	// CanRead reports whether this source handles the file, judged from its
	// path and the first bytes of its content.
	CanRead(path string, header []byte) bool

	// Open prepares a Reader over the stream. Open failures are fatal: a
	// stream that cannot be opened yields no events at all.
	Open(ctx context.Context, r io.Reader) (Reader, error)
}

// Reader yields events in stream order. Next returns io.EOF after the last
// event. A returned error wrapping ErrBadRecord refers to the single record
// just read; the Reader remains usable.
type Reader interface {
	Next() (*domain.Event, error)
}

// sliceReader serves pre-decoded events, for formats that must be parsed
// whole (OFX).
type sliceReader struct {
	events []domain.Event
	pos    int
}

func (s *sliceReader) Next() (*domain.Event, error) {
	if s.pos >= len(s.events) {
		return nil, io.EOF
	}
	ev := s.events[s.pos]
	s.pos++
	return &ev, nil
}
