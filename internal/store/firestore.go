package store

import (
	"context"
	"fmt"
	"strconv"

	"cloud.google.com/go/firestore"
	firebase "firebase.google.com/go/v4"
	"github.com/shopspring/decimal"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"

	"github.com/rumor-ml/commons.systems/txreplay/internal/domain"
)

// Firestore keeps the ledger in Firestore documents, one per client and one
// per transaction, keyed by their numeric ids. It exists for runs whose
// snapshot should land somewhere a dashboard can read; replay semantics are
// identical to the other backends. Amounts travel as decimal strings.
type Firestore struct {
	client       *firestore.Client
	clientsCol   string
	transactsCol string
}

// FirestoreOptions configures the firestore backend.
type FirestoreOptions struct {
	ProjectID        string
	CredentialsFile  string // optional; Application Default Credentials when empty
	CollectionPrefix string // defaults to "txreplay"
}

// clientDoc is the Firestore shape of a domain.Client.
type clientDoc struct {
	ID        int64  `firestore:"id"`
	Available string `firestore:"available"`
	Held      string `firestore:"held"`
	Locked    bool   `firestore:"locked"`
}

// transactionDoc is the Firestore shape of a domain.Transaction.
type transactionDoc struct {
	ID       int64  `firestore:"id"`
	Client   int64  `firestore:"client"`
	Amount   string `firestore:"amount"`
	Disputed bool   `firestore:"disputed"`
}

// NewFirestore creates a firestore-backed store via a Firebase app, the same
// way the rest of our tooling reaches Firestore.
func NewFirestore(ctx context.Context, opts FirestoreOptions) (*Firestore, error) {
	if opts.ProjectID == "" {
		return nil, fmt.Errorf("firestore store requires a project id")
	}

	prefix := opts.CollectionPrefix
	if prefix == "" {
		prefix = "txreplay"
	}

	conf := &firebase.Config{ProjectID: opts.ProjectID}
	var clientOpts []option.ClientOption
	if opts.CredentialsFile != "" {
		clientOpts = append(clientOpts, option.WithCredentialsFile(opts.CredentialsFile))
	}

	app, err := firebase.NewApp(ctx, conf, clientOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize Firebase app: %w", err)
	}

	fsClient, err := app.Firestore(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to create Firestore client: %w", err)
	}

	return &Firestore{
		client:       fsClient,
		clientsCol:   prefix + "-clients",
		transactsCol: prefix + "-transactions",
	}, nil
}

// GetClient returns the client snapshot, or (nil, nil) if no document exists.
func (f *Firestore) GetClient(ctx context.Context, id uint16) (*domain.Client, error) {
	doc, err := f.client.Collection(f.clientsCol).Doc(strconv.FormatUint(uint64(id), 10)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read client %d: %w", id, err)
	}

	var d clientDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode client %d: %w", id, err)
	}
	return d.toDomain()
}

// SetClient upserts the client document.
func (f *Firestore) SetClient(ctx context.Context, client domain.Client) error {
	d := clientDoc{
		ID:        int64(client.ID),
		Available: client.Available.String(),
		Held:      client.Held.String(),
		Locked:    client.Locked,
	}
	_, err := f.client.Collection(f.clientsCol).Doc(strconv.FormatUint(uint64(client.ID), 10)).Set(ctx, d)
	if err != nil {
		return fmt.Errorf("failed to write client %d: %w", client.ID, err)
	}
	return nil
}

// GetTransaction returns the transaction snapshot, or (nil, nil) if no
// document exists.
func (f *Firestore) GetTransaction(ctx context.Context, id uint32) (*domain.Transaction, error) {
	doc, err := f.client.Collection(f.transactsCol).Doc(strconv.FormatUint(uint64(id), 10)).Get(ctx)
	if err != nil {
		if status.Code(err) == codes.NotFound {
			return nil, nil
		}
		return nil, fmt.Errorf("failed to read transaction %d: %w", id, err)
	}

	var d transactionDoc
	if err := doc.DataTo(&d); err != nil {
		return nil, fmt.Errorf("failed to decode transaction %d: %w", id, err)
	}
	return d.toDomain()
}

// SetTransaction upserts the transaction document.
func (f *Firestore) SetTransaction(ctx context.Context, tx domain.Transaction) error {
	d := transactionDoc{
		ID:       int64(tx.ID),
		Client:   int64(tx.Client),
		Amount:   tx.Amount.String(),
		Disputed: tx.Disputed,
	}
	_, err := f.client.Collection(f.transactsCol).Doc(strconv.FormatUint(uint64(tx.ID), 10)).Set(ctx, d)
	if err != nil {
		return fmt.Errorf("failed to write transaction %d: %w", tx.ID, err)
	}
	return nil
}

// DumpClients returns all client snapshots in the collection.
func (f *Firestore) DumpClients(ctx context.Context) ([]domain.Client, error) {
	iter := f.client.Collection(f.clientsCol).Documents(ctx)
	defer iter.Stop()

	var out []domain.Client
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate clients: %w", err)
		}

		var d clientDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to decode client document %s: %w", doc.Ref.ID, err)
		}
		c, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *c)
	}
	return out, nil
}

// DumpTransactions returns all transaction snapshots in the collection.
func (f *Firestore) DumpTransactions(ctx context.Context) ([]domain.Transaction, error) {
	iter := f.client.Collection(f.transactsCol).Documents(ctx)
	defer iter.Stop()

	var out []domain.Transaction
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate transactions: %w", err)
		}

		var d transactionDoc
		if err := doc.DataTo(&d); err != nil {
			return nil, fmt.Errorf("failed to decode transaction document %s: %w", doc.Ref.ID, err)
		}
		tx, err := d.toDomain()
		if err != nil {
			return nil, err
		}
		out = append(out, *tx)
	}
	return out, nil
}

// Close closes the Firestore client.
func (f *Firestore) Close() error {
	return f.client.Close()
}

func (d clientDoc) toDomain() (*domain.Client, error) {
	avail, err := decimal.NewFromString(d.Available)
	if err != nil {
		return nil, fmt.Errorf("corrupt available balance %q for client %d: %w", d.Available, d.ID, err)
	}
	held, err := decimal.NewFromString(d.Held)
	if err != nil {
		return nil, fmt.Errorf("corrupt held balance %q for client %d: %w", d.Held, d.ID, err)
	}
	return &domain.Client{
		ID:        uint16(d.ID),
		Available: avail,
		Held:      held,
		Locked:    d.Locked,
	}, nil
}

func (d transactionDoc) toDomain() (*domain.Transaction, error) {
	amt, err := decimal.NewFromString(d.Amount)
	if err != nil {
		return nil, fmt.Errorf("corrupt amount %q for transaction %d: %w", d.Amount, d.ID, err)
	}
	return &domain.Transaction{
		ID:       uint32(d.ID),
		Client:   uint16(d.Client),
		Amount:   amt,
		Disputed: d.Disputed,
	}, nil
}
