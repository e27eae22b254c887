// Package diag provides the diagnostic sink the replay driver reports
// non-fatal problems to: rejected events and skipped malformed records.
// A sink never fails and never blocks processing.
package diag

import (
	"fmt"
	"io"
	"os"
)

// Sink accepts one human-readable diagnostic message per rejected or skipped
// record.
type Sink interface {
	Error(msg string)
}

// Stderr writes each message as its own line on stderr.
type Stderr struct{}

func (Stderr) Error(msg string) {
	fmt.Fprintln(os.Stderr, msg)
}

// Writer writes messages to an arbitrary writer. Write failures are dropped;
// diagnostics must never abort a run.
type Writer struct {
	W io.Writer
}

func (w Writer) Error(msg string) {
	fmt.Fprintln(w.W, msg)
}

// Noop discards every message.
type Noop struct{}

func (Noop) Error(string) {}

// Collector retains messages in order, for tests and for the run report's
// rejection samples.
type Collector struct {
	Messages []string
}

func (c *Collector) Error(msg string) {
	c.Messages = append(c.Messages, msg)
}
