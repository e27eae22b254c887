package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/shopspring/decimal"
	_ "modernc.org/sqlite"

	"github.com/rumor-ml/commons.systems/txreplay/internal/domain"
)

// SQLite persists the ledger in a local sqlite database. Unlike the memory
// backend its writes can fail (disk, permissions), which exercises the
// fatal store-error path of the runner. Amounts are stored as decimal
// strings so no precision is lost crossing the sql boundary.
type SQLite struct {
	db *sql.DB
}

const sqliteSchema = `
CREATE TABLE IF NOT EXISTS clients (
	id        INTEGER PRIMARY KEY,
	available TEXT    NOT NULL,
	held      TEXT    NOT NULL,
	locked    INTEGER NOT NULL
);
CREATE TABLE IF NOT EXISTS transactions (
	id       INTEGER PRIMARY KEY,
	client   INTEGER NOT NULL,
	amount   TEXT    NOT NULL,
	disputed INTEGER NOT NULL
);
`

// NewSQLite opens (creating if needed) the database at path and ensures the
// schema exists.
func NewSQLite(ctx context.Context, path string) (*SQLite, error) {
	if path == "" {
		return nil, fmt.Errorf("sqlite store path cannot be empty")
	}

	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open sqlite database %s: %w", path, err)
	}

	if _, err := db.ExecContext(ctx, sqliteSchema); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to create schema in %s: %w", path, err)
	}

	return &SQLite{db: db}, nil
}

// GetClient returns the client snapshot, or (nil, nil) if unseen.
func (s *SQLite) GetClient(ctx context.Context, id uint16) (*domain.Client, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, available, held, locked FROM clients WHERE id = ?`, int64(id))

	var (
		rowID           int64
		available, held string
		locked          bool
	)
	if err := row.Scan(&rowID, &available, &held, &locked); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read client %d: %w", id, err)
	}

	c, err := clientFromColumns(rowID, available, held, locked)
	if err != nil {
		return nil, err
	}
	return c, nil
}

// SetClient upserts the client by id.
func (s *SQLite) SetClient(ctx context.Context, client domain.Client) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO clients (id, available, held, locked) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET available = excluded.available,
		                               held      = excluded.held,
		                               locked    = excluded.locked`,
		int64(client.ID), client.Available.String(), client.Held.String(), client.Locked)
	if err != nil {
		return fmt.Errorf("failed to write client %d: %w", client.ID, err)
	}
	return nil
}

// GetTransaction returns the transaction snapshot, or (nil, nil) if unseen.
func (s *SQLite) GetTransaction(ctx context.Context, id uint32) (*domain.Transaction, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, client, amount, disputed FROM transactions WHERE id = ?`, int64(id))

	var (
		rowID, client int64
		amount        string
		disputed      bool
	)
	if err := row.Scan(&rowID, &client, &amount, &disputed); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read transaction %d: %w", id, err)
	}

	tx, err := transactionFromColumns(rowID, client, amount, disputed)
	if err != nil {
		return nil, err
	}
	return tx, nil
}

// SetTransaction upserts the transaction by id.
func (s *SQLite) SetTransaction(ctx context.Context, tx domain.Transaction) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO transactions (id, client, amount, disputed) VALUES (?, ?, ?, ?)
		 ON CONFLICT(id) DO UPDATE SET client   = excluded.client,
		                               amount   = excluded.amount,
		                               disputed = excluded.disputed`,
		int64(tx.ID), int64(tx.Client), tx.Amount.String(), tx.Disputed)
	if err != nil {
		return fmt.Errorf("failed to write transaction %d: %w", tx.ID, err)
	}
	return nil
}

// DumpClients returns all client snapshots.
func (s *SQLite) DumpClients(ctx context.Context) ([]domain.Client, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, available, held, locked FROM clients`)
	if err != nil {
		return nil, fmt.Errorf("failed to dump clients: %w", err)
	}
	defer rows.Close()

	var out []domain.Client
	for rows.Next() {
		var (
			rowID           int64
			available, held string
			locked          bool
		)
		if err := rows.Scan(&rowID, &available, &held, &locked); err != nil {
			return nil, fmt.Errorf("failed to scan client row: %w", err)
		}
		c, err := clientFromColumns(rowID, available, held, locked)
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate clients: %w", err)
	}
	return out, nil
}

// DumpTransactions returns all transaction snapshots.
func (s *SQLite) DumpTransactions(ctx context.Context) ([]domain.Transaction, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT id, client, amount, disputed FROM transactions`)
	if err != nil {
		return nil, fmt.Errorf("failed to dump transactions: %w", err)
	}
	defer rows.Close()

	var out []domain.Transaction
	for rows.Next() {
		var (
			rowID, client int64
			amount        string
			disputed      bool
		)
		if err := rows.Scan(&rowID, &client, &amount, &disputed); err != nil {
			return nil, fmt.Errorf("failed to scan transaction row: %w", err)
		}
		tx, err := transactionFromColumns(rowID, client, amount, disputed)
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate transactions: %w", err)
	}
	return out, nil
}

// Close closes the underlying database.
func (s *SQLite) Close() error {
	return s.db.Close()
}

func clientFromColumns(id int64, available, held string, locked bool) (*domain.Client, error) {
	avail, err := decimal.NewFromString(available)
	if err != nil {
		return nil, fmt.Errorf("corrupt available balance %q for client %d: %w", available, id, err)
	}
	h, err := decimal.NewFromString(held)
	if err != nil {
		return nil, fmt.Errorf("corrupt held balance %q for client %d: %w", held, id, err)
	}
	return &domain.Client{
		ID:        uint16(id),
		Available: avail,
		Held:      h,
		Locked:    locked,
	}, nil
}

func transactionFromColumns(id, client int64, amount string, disputed bool) (*domain.Transaction, error) {
	amt, err := decimal.NewFromString(amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount %q for transaction %d: %w", amount, id, err)
	}
	return &domain.Transaction{
		ID:       uint32(id),
		Client:   uint16(client),
		Amount:   amt,
		Disputed: disputed,
	}, nil
}
