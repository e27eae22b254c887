// Package store defines the ledger store contract and its backends. The
// contract is deliberately narrow: point lookups that report absence
// explicitly, wholesale upserts by id, and full dumps. There is no partial
// update and no delete, which is why the processor always works on complete
// snapshots. Any error from a backend is fatal to the run.
package store

import (
	"context"

	"github.com/rumor-ml/commons.systems/txreplay/internal/domain"
)

// Store is the boundary the replay core depends on. Gets return (nil, nil)
// for an absent record; a nil pointer is the only representation of absence,
// never a zero-valued snapshot. Sets replace the full record for the id.
// Dumps carry no ordering guarantee.
type Store interface {
	GetClient(ctx context.Context, id uint16) (*domain.Client, error)
	SetClient(ctx context.Context, client domain.Client) error

	GetTransaction(ctx context.Context, id uint32) (*domain.Transaction, error)
	SetTransaction(ctx context.Context, tx domain.Transaction) error

	DumpClients(ctx context.Context) ([]domain.Client, error)
	DumpTransactions(ctx context.Context) ([]domain.Transaction, error)

	Close() error
}
