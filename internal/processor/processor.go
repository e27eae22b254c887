// Package processor implements the five event handlers of the ledger state
// machine. Every handler is a pure function over explicit snapshots: it takes
// the current transaction and client (nil when absent) plus the incoming
// event, and returns either the updated pair or a rejection. Handlers never
// touch the store; the runner owns all reads and writes.
package processor

import (
	"errors"
	"fmt"

	"github.com/rumor-ml/commons.systems/txreplay/internal/domain"
)

// Rejection taxonomy. Preconditions are checked in a fixed order per handler
// and the first violation wins, so exactly one of these surfaces per event.
var (
	ErrTransactionExists         = errors.New("attempted processing of transaction that has already been processed")
	ErrNoAmount                  = errors.New("amount not specified for transaction")
	ErrClientLocked              = errors.New("attempted to deposit or withdraw on locked client account")
	ErrWithdrawalAboveBalance    = errors.New("withdrawal exceeds client withdrawable (free) balance")
	ErrClientMissing             = errors.New("event refers to nonexistent client")
	ErrClientTransactionMismatch = errors.New("client and transaction do not match in alleged dispute")
	ErrTransactionMissing        = errors.New("dispute refers to nonexistent transaction")
	ErrTransactionDisputed       = errors.New("attempted to open duplicate dispute on transaction")
	ErrWithdrawalNotDisputable   = errors.New("attempted to open dispute on withdrawal transaction")
	ErrTransactionNotDisputed    = errors.New("attempted to close a dispute on a non-disputed transaction")
)

// Reason returns a stable short code for a rejection, used to aggregate
// rejection counts in the run report.
func Reason(err error) string {
	switch {
	case errors.Is(err, ErrTransactionExists):
		return "transaction-already-exists"
	case errors.Is(err, ErrNoAmount):
		return "missing-amount"
	case errors.Is(err, ErrClientLocked):
		return "client-locked"
	case errors.Is(err, ErrWithdrawalAboveBalance):
		return "withdrawal-exceeds-balance"
	case errors.Is(err, ErrClientMissing):
		return "client-missing"
	case errors.Is(err, ErrClientTransactionMismatch):
		return "client-transaction-mismatch"
	case errors.Is(err, ErrTransactionMissing):
		return "transaction-missing"
	case errors.Is(err, ErrTransactionDisputed):
		return "transaction-already-disputed"
	case errors.Is(err, ErrWithdrawalNotDisputable):
		return "withdrawal-not-disputable"
	case errors.Is(err, ErrTransactionNotDisputed):
		return "transaction-not-disputed"
	default:
		return "other"
	}
}

// Process dispatches the event to its handler. The mapping is closed: the
// five event kinds each have exactly one handler and sources reject anything
// else before it gets here.
func Process(tx *domain.Transaction, client *domain.Client, ev domain.Event) (domain.Client, domain.Transaction, error) {
	switch ev.Type {
	case domain.EventDeposit:
		return Deposit(tx, client, ev)
	case domain.EventWithdrawal:
		return Withdrawal(tx, client, ev)
	case domain.EventDispute:
		return Dispute(tx, client, ev)
	case domain.EventResolve:
		return Resolve(tx, client, ev)
	case domain.EventChargeback:
		return Chargeback(tx, client, ev)
	default:
		return domain.Client{}, domain.Transaction{}, fmt.Errorf("no handler for event type %q", ev.Type)
	}
}

// Deposit credits the client's available balance and records the transaction.
// The client is created here if this is the first event naming it.
func Deposit(tx *domain.Transaction, client *domain.Client, ev domain.Event) (domain.Client, domain.Transaction, error) {
	if tx != nil {
		return domain.Client{}, domain.Transaction{}, ErrTransactionExists
	}
	if client != nil && client.Locked {
		return domain.Client{}, domain.Transaction{}, ErrClientLocked
	}
	if ev.Amount == nil {
		return domain.Client{}, domain.Transaction{}, ErrNoAmount
	}

	var c domain.Client
	if client != nil {
		c = *client
	}
	c.ID = ev.Client
	c.Available = c.Available.Add(*ev.Amount)

	return c, domain.Transaction{
		ID:       ev.Tx,
		Client:   ev.Client,
		Amount:   *ev.Amount,
		Disputed: false,
	}, nil
}

// Withdrawal debits the client's available balance and records the
// transaction with a negated amount. Unlike Deposit it never creates a
// client: withdrawing from an unknown client is a rejection.
func Withdrawal(tx *domain.Transaction, client *domain.Client, ev domain.Event) (domain.Client, domain.Transaction, error) {
	if tx != nil {
		return domain.Client{}, domain.Transaction{}, ErrTransactionExists
	}
	if ev.Amount == nil {
		return domain.Client{}, domain.Transaction{}, ErrNoAmount
	}
	if client == nil {
		return domain.Client{}, domain.Transaction{}, ErrClientMissing
	}
	if client.Locked {
		return domain.Client{}, domain.Transaction{}, ErrClientLocked
	}
	if ev.Amount.GreaterThan(client.Available) {
		return domain.Client{}, domain.Transaction{}, ErrWithdrawalAboveBalance
	}

	c := *client
	c.Available = c.Available.Sub(*ev.Amount)

	return c, domain.Transaction{
		ID:       ev.Tx,
		Client:   ev.Client,
		Amount:   ev.Amount.Neg(),
		Disputed: false,
	}, nil
}

// Dispute moves the disputed deposit's amount from available to held.
// Only deposits are disputable; a stored negative amount marks a withdrawal.
// There is deliberately no floor on available here: if the disputed funds
// were already withdrawn, available goes negative and the snapshot says so.
func Dispute(tx *domain.Transaction, client *domain.Client, _ domain.Event) (domain.Client, domain.Transaction, error) {
	if tx == nil {
		return domain.Client{}, domain.Transaction{}, ErrTransactionMissing
	}
	if tx.Disputed {
		return domain.Client{}, domain.Transaction{}, ErrTransactionDisputed
	}
	if tx.Amount.IsNegative() {
		return domain.Client{}, domain.Transaction{}, ErrWithdrawalNotDisputable
	}
	if client == nil {
		return domain.Client{}, domain.Transaction{}, ErrClientMissing
	}
	if tx.Client != client.ID {
		return domain.Client{}, domain.Transaction{}, ErrClientTransactionMismatch
	}

	c := *client
	c.Available = c.Available.Sub(tx.Amount)
	c.Held = c.Held.Add(tx.Amount)

	out := *tx
	out.Disputed = true
	return c, out, nil
}

// Resolve releases a dispute: held funds return to available and the
// transaction becomes disputable again.
func Resolve(tx *domain.Transaction, client *domain.Client, _ domain.Event) (domain.Client, domain.Transaction, error) {
	if tx == nil {
		return domain.Client{}, domain.Transaction{}, ErrTransactionMissing
	}
	if !tx.Disputed {
		return domain.Client{}, domain.Transaction{}, ErrTransactionNotDisputed
	}
	if client == nil {
		return domain.Client{}, domain.Transaction{}, ErrClientMissing
	}
	if tx.Client != client.ID {
		return domain.Client{}, domain.Transaction{}, ErrClientTransactionMismatch
	}

	c := *client
	c.Available = c.Available.Add(tx.Amount)
	c.Held = c.Held.Sub(tx.Amount)

	out := *tx
	out.Disputed = false
	return c, out, nil
}

// Chargeback settles a dispute against the client: the held funds leave the
// account and the account is frozen. Locked is terminal; no later event in a
// run unfreezes it.
func Chargeback(tx *domain.Transaction, client *domain.Client, _ domain.Event) (domain.Client, domain.Transaction, error) {
	if tx == nil {
		return domain.Client{}, domain.Transaction{}, ErrTransactionMissing
	}
	if !tx.Disputed {
		return domain.Client{}, domain.Transaction{}, ErrTransactionNotDisputed
	}
	if client == nil {
		return domain.Client{}, domain.Transaction{}, ErrClientMissing
	}
	if tx.Client != client.ID {
		return domain.Client{}, domain.Transaction{}, ErrClientTransactionMismatch
	}

	c := *client
	c.Held = c.Held.Sub(tx.Amount)
	c.Locked = true

	out := *tx
	out.Disputed = false
	return c, out, nil
}
