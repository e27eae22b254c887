package source

import (
	"context"
	"encoding/csv"
	"fmt"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/rumor-ml/commons.systems/txreplay/internal/domain"
)

// CSV reads the native event format: a header row naming type, client, tx,
// and optionally amount, then one event per record. Fields are
// whitespace-tolerant and the amount column may be empty or absent.
// The struct has no fields; the per-stream state lives in the Reader.
type CSV struct{}

var csvInstance = &CSV{}

// NewCSV returns the shared CSV source instance.
func NewCSV() *CSV {
	return csvInstance
}

// Name returns the source identifier.
func (s *CSV) Name() string {
	return "csv"
}

// CanRead checks the extension and that the header row names a type column.
func (s *CSV) CanRead(path string, header []byte) bool {
	if strings.ToLower(filepath.Ext(path)) != ".csv" {
		return false
	}

	r := csv.NewReader(strings.NewReader(string(header)))
	r.TrimLeadingSpace = true
	r.FieldsPerRecord = -1

	record, err := r.Read()
	if err != nil {
		return false
	}
	for _, field := range record {
		if strings.EqualFold(strings.TrimSpace(field), "type") {
			return true
		}
	}
	return false
}

// Open reads the header row and maps column positions. A stream whose header
// cannot be read or lacks the required columns yields no events.
func (s *CSV) Open(_ context.Context, r io.Reader) (Reader, error) {
	cr := csv.NewReader(r)
	cr.TrimLeadingSpace = true
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err != nil {
		return nil, fmt.Errorf("failed to read CSV header: %w", err)
	}

	cols := map[string]int{}
	for i, field := range header {
		cols[strings.ToLower(strings.TrimSpace(field))] = i
	}
	for _, required := range []string{"type", "client", "tx"} {
		if _, ok := cols[required]; !ok {
			return nil, fmt.Errorf("CSV header is missing required column %q", required)
		}
	}

	amountCol := -1
	if i, ok := cols["amount"]; ok {
		amountCol = i
	}

	return &csvReader{
		r:         cr,
		typeCol:   cols["type"],
		clientCol: cols["client"],
		txCol:     cols["tx"],
		amountCol: amountCol,
		line:      1,
	}, nil
}

type csvReader struct {
	r         *csv.Reader
	typeCol   int
	clientCol int
	txCol     int
	amountCol int // -1 when the header has no amount column
	line      int
}

// Next decodes one record. Field-level problems (wrong field count, bad
// numbers, unknown event type) are reported as ErrBadRecord so the driver
// skips just this record.
func (c *csvReader) Next() (*domain.Event, error) {
	record, err := c.r.Read()
	if err == io.EOF {
		return nil, io.EOF
	}
	c.line++
	if err != nil {
		// csv.Reader surfaces quoting and field-count problems per record
		// and stays usable afterwards.
		return nil, fmt.Errorf("%w: line %d: %v", ErrBadRecord, c.line, err)
	}

	field := func(i int) (string, bool) {
		if i < 0 || i >= len(record) {
			return "", false
		}
		return strings.TrimSpace(record[i]), true
	}

	rawType, ok := field(c.typeCol)
	if !ok {
		return nil, fmt.Errorf("%w: line %d: missing type field", ErrBadRecord, c.line)
	}
	evType, err := domain.ParseEventType(rawType)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: %v", ErrBadRecord, c.line, err)
	}

	rawClient, ok := field(c.clientCol)
	if !ok {
		return nil, fmt.Errorf("%w: line %d: missing client field", ErrBadRecord, c.line)
	}
	clientID, err := strconv.ParseUint(rawClient, 10, 16)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: invalid client id %q: %v", ErrBadRecord, c.line, rawClient, err)
	}

	rawTx, ok := field(c.txCol)
	if !ok {
		return nil, fmt.Errorf("%w: line %d: missing tx field", ErrBadRecord, c.line)
	}
	txID, err := strconv.ParseUint(rawTx, 10, 32)
	if err != nil {
		return nil, fmt.Errorf("%w: line %d: invalid tx id %q: %v", ErrBadRecord, c.line, rawTx, err)
	}

	ev := &domain.Event{
		Type:   evType,
		Client: uint16(clientID),
		Tx:     uint32(txID),
	}

	// Absent and empty amounts both mean "no amount"; the processor decides
	// whether that is acceptable for the event kind.
	if rawAmount, ok := field(c.amountCol); ok && rawAmount != "" {
		amount, err := decimal.NewFromString(rawAmount)
		if err != nil {
			return nil, fmt.Errorf("%w: line %d: invalid amount %q: %v", ErrBadRecord, c.line, rawAmount, err)
		}
		ev.Amount = &amount
	}

	return ev, nil
}
