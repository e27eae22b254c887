// Package output writes the post-replay snapshot of client accounts, and
// optionally the transaction log, as CSV or JSON.
package output

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"io"
	"os"
	"sort"

	"github.com/rumor-ml/commons.systems/txreplay/internal/domain"
)

// Format selects the snapshot encoding.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatJSON Format = "json"
)

// ParseFormat validates a format flag value.
func ParseFormat(s string) (Format, error) {
	switch Format(s) {
	case FormatCSV, FormatJSON:
		return Format(s), nil
	default:
		return "", fmt.Errorf("unknown output format %q (want csv or json)", s)
	}
}

// WriteOptions configures where and how the snapshot is written.
type WriteOptions struct {
	Format   Format
	FilePath string // Output path (empty = stdout)
}

// clientRow is the JSON shape of one client snapshot line. Total is derived
// at write time, never stored.
type clientRow struct {
	Client    uint16 `json:"client"`
	Available string `json:"available"`
	Held      string `json:"held"`
	Total     string `json:"total"`
	Locked    bool   `json:"locked"`
}

// transactionRow is the JSON shape of one transaction log line.
type transactionRow struct {
	Tx       uint32 `json:"tx"`
	Client   uint16 `json:"client"`
	Amount   string `json:"amount"`
	Disputed bool   `json:"disputed"`
}

// WriteClients writes the client snapshot to w. Rows are sorted by client id
// so output is deterministic regardless of store iteration order.
func WriteClients(clients []domain.Client, format Format, w io.Writer) error {
	sorted := make([]domain.Client, len(clients))
	copy(sorted, clients)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	switch format {
	case FormatJSON:
		rows := make([]clientRow, 0, len(sorted))
		for _, c := range sorted {
			rows = append(rows, clientRow{
				Client:    c.ID,
				Available: c.Available.String(),
				Held:      c.Held.String(),
				Total:     c.Total().String(),
				Locked:    c.Locked,
			})
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(rows); err != nil {
			return fmt.Errorf("failed to encode client snapshot as JSON: %w", err)
		}
		return nil

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"client", "available", "held", "total", "locked"}); err != nil {
			return fmt.Errorf("failed to write snapshot header: %w", err)
		}
		for _, c := range sorted {
			row := []string{
				fmt.Sprintf("%d", c.ID),
				c.Available.String(),
				c.Held.String(),
				c.Total().String(),
				fmt.Sprintf("%t", c.Locked),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write snapshot row for client %d: %w", c.ID, err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("failed to flush snapshot: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteTransactions writes the transaction log to w, sorted by transaction id.
func WriteTransactions(txs []domain.Transaction, format Format, w io.Writer) error {
	sorted := make([]domain.Transaction, len(txs))
	copy(sorted, txs)
	sort.Slice(sorted, func(i, j int) bool { return sorted[i].ID < sorted[j].ID })

	switch format {
	case FormatJSON:
		rows := make([]transactionRow, 0, len(sorted))
		for _, tx := range sorted {
			rows = append(rows, transactionRow{
				Tx:       tx.ID,
				Client:   tx.Client,
				Amount:   tx.Amount.String(),
				Disputed: tx.Disputed,
			})
		}
		encoder := json.NewEncoder(w)
		encoder.SetIndent("", "  ")
		if err := encoder.Encode(rows); err != nil {
			return fmt.Errorf("failed to encode transaction log as JSON: %w", err)
		}
		return nil

	case FormatCSV:
		cw := csv.NewWriter(w)
		if err := cw.Write([]string{"tx", "client", "amount", "disputed"}); err != nil {
			return fmt.Errorf("failed to write transaction log header: %w", err)
		}
		for _, tx := range sorted {
			row := []string{
				fmt.Sprintf("%d", tx.ID),
				fmt.Sprintf("%d", tx.Client),
				tx.Amount.String(),
				fmt.Sprintf("%t", tx.Disputed),
			}
			if err := cw.Write(row); err != nil {
				return fmt.Errorf("failed to write transaction log row for tx %d: %w", tx.ID, err)
			}
		}
		cw.Flush()
		if err := cw.Error(); err != nil {
			return fmt.Errorf("failed to flush transaction log: %w", err)
		}
		return nil

	default:
		return fmt.Errorf("unknown output format %q", format)
	}
}

// WriteClientsToFile writes the client snapshot to the configured path, or to
// stdout when no path is given.
func WriteClientsToFile(clients []domain.Client, opts WriteOptions) (err error) {
	if opts.FilePath == "" {
		return WriteClients(clients, opts.Format, os.Stdout)
	}

	f, err := os.Create(opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.FilePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", opts.FilePath, closeErr)
		}
	}()

	if err = WriteClients(clients, opts.Format, f); err != nil {
		return fmt.Errorf("failed to write snapshot to %s: %w", opts.FilePath, err)
	}
	return nil
}

// WriteTransactionsToFile writes the transaction log to the configured path,
// or to stdout when no path is given.
func WriteTransactionsToFile(txs []domain.Transaction, opts WriteOptions) (err error) {
	if opts.FilePath == "" {
		return WriteTransactions(txs, opts.Format, os.Stdout)
	}

	f, err := os.Create(opts.FilePath)
	if err != nil {
		return fmt.Errorf("failed to create output file %s: %w", opts.FilePath, err)
	}
	defer func() {
		if closeErr := f.Close(); closeErr != nil && err == nil {
			err = fmt.Errorf("failed to close output file %s: %w", opts.FilePath, closeErr)
		}
	}()

	if err = WriteTransactions(txs, opts.Format, f); err != nil {
		return fmt.Errorf("failed to write transaction log to %s: %w", opts.FilePath, err)
	}
	return nil
}
