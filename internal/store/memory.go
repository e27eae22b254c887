package store

import (
	"context"

	"github.com/rumor-ml/commons.systems/txreplay/internal/domain"
)

// Memory is the default map-backed store. It never fails. The replay driver
// is the sole caller, so there is no locking; a run is strictly sequential.
type Memory struct {
	clients      map[uint16]domain.Client
	transactions map[uint32]domain.Transaction
}

// NewMemory creates an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{
		clients:      make(map[uint16]domain.Client),
		transactions: make(map[uint32]domain.Transaction),
	}
}

// GetClient returns the client snapshot, or (nil, nil) if unseen.
func (m *Memory) GetClient(_ context.Context, id uint16) (*domain.Client, error) {
	c, ok := m.clients[id]
	if !ok {
		return nil, nil
	}
	return &c, nil
}

// SetClient upserts the client by id, replacing the record wholesale.
func (m *Memory) SetClient(_ context.Context, client domain.Client) error {
	m.clients[client.ID] = client
	return nil
}

// GetTransaction returns the transaction snapshot, or (nil, nil) if unseen.
func (m *Memory) GetTransaction(_ context.Context, id uint32) (*domain.Transaction, error) {
	tx, ok := m.transactions[id]
	if !ok {
		return nil, nil
	}
	return &tx, nil
}

// SetTransaction upserts the transaction by id, replacing the record wholesale.
func (m *Memory) SetTransaction(_ context.Context, tx domain.Transaction) error {
	m.transactions[tx.ID] = tx
	return nil
}

// DumpClients returns all client snapshots in map order.
func (m *Memory) DumpClients(_ context.Context) ([]domain.Client, error) {
	out := make([]domain.Client, 0, len(m.clients))
	for _, c := range m.clients {
		out = append(out, c)
	}
	return out, nil
}

// DumpTransactions returns all transaction snapshots in map order.
func (m *Memory) DumpTransactions(_ context.Context) ([]domain.Transaction, error) {
	out := make([]domain.Transaction, 0, len(m.transactions))
	for _, tx := range m.transactions {
		out = append(out, tx)
	}
	return out, nil
}

// Close is a no-op for the in-memory backend.
func (m *Memory) Close() error {
	return nil
}
