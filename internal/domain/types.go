// Package domain defines the ledger value types shared by every stage of a
// replay run: the incoming Event and the Client and Transaction snapshots the
// store holds between events.
package domain

import (
	"fmt"

	"github.com/shopspring/decimal"
)

// EventType is the closed set of event kinds a replay understands.
type EventType string

const (
	EventDeposit    EventType = "deposit"
	EventWithdrawal EventType = "withdrawal"
	EventDispute    EventType = "dispute"
	EventResolve    EventType = "resolve"
	EventChargeback EventType = "chargeback"
)

var validEventTypes = map[EventType]struct{}{
	EventDeposit: {}, EventWithdrawal: {}, EventDispute: {},
	EventResolve: {}, EventChargeback: {},
}

// ParseEventType normalizes a raw type field into an EventType.
// Unknown values are rejected; the caller treats that as a malformed record.
func ParseEventType(s string) (EventType, error) {
	t := EventType(s)
	if _, ok := validEventTypes[t]; !ok {
		return "", fmt.Errorf("unknown event type %q", s)
	}
	return t, nil
}

// Event is one input record, already decoded by a source.
// Amount is nil when the record carried no amount column; deposit and
// withdrawal require it, the dispute lifecycle events ignore it.
type Event struct {
	Type   EventType
	Client uint16
	Tx     uint32
	Amount *decimal.Decimal
}

// Transaction is the stored snapshot of a settled deposit or withdrawal.
// ID, Client, and Amount never change after creation; only Disputed does.
// Amount is signed: positive for a deposit, negative for a withdrawal.
type Transaction struct {
	ID       uint32
	Client   uint16
	Amount   decimal.Decimal
	Disputed bool
}

// Client is the stored snapshot of one client's balances.
// Locked is monotonic: once true it is never reset within a run.
type Client struct {
	ID        uint16
	Available decimal.Decimal
	Held      decimal.Decimal
	Locked    bool
}

// Total is the derived balance. It is never stored; callers compute it at
// output time so it cannot drift from Available and Held.
func (c Client) Total() decimal.Decimal {
	return c.Available.Add(c.Held)
}
