// Package validate checks the post-replay ledger state for internal
// consistency before it is written out.
package validate

import (
	"fmt"

	"github.com/rumor-ml/commons.systems/txreplay/internal/domain"
)

// ValidationResult contains all validation errors and warnings for a ledger
// snapshot.
type ValidationResult struct {
	Errors   []ValidationError
	Warnings []ValidationWarning
}

// ValidationError represents an inconsistency the replay should never
// produce. Any error means the snapshot cannot be trusted.
type ValidationError struct {
	Entity  string // "client" or "transaction"
	ID      string
	Field   string
	Value   string
	Message string
}

// ValidationWarning represents an unusual but legitimate state.
type ValidationWarning struct {
	Entity  string
	ID      string
	Field   string
	Value   string
	Message string
}

// ValidateLedger checks clients and transactions dumped from the store.
// Duplicate ids are errors. Negative balances are warnings only: a dispute
// opened after the disputed funds were withdrawn legitimately drives
// available negative, and the snapshot reports that state faithfully.
func ValidateLedger(clients []domain.Client, txs []domain.Transaction) *ValidationResult {
	result := &ValidationResult{
		Errors:   []ValidationError{},
		Warnings: []ValidationWarning{},
	}

	clientIDs := make(map[uint16]bool)
	for _, c := range clients {
		id := fmt.Sprintf("%d", c.ID)

		if clientIDs[c.ID] {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "client",
				ID:      id,
				Field:   "ID",
				Value:   id,
				Message: "duplicate client ID",
			})
		}
		clientIDs[c.ID] = true

		if c.Available.IsNegative() {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Entity:  "client",
				ID:      id,
				Field:   "Available",
				Value:   c.Available.String(),
				Message: "available balance is negative (disputed funds were already withdrawn)",
			})
		}
		if c.Held.IsNegative() {
			result.Warnings = append(result.Warnings, ValidationWarning{
				Entity:  "client",
				ID:      id,
				Field:   "Held",
				Value:   c.Held.String(),
				Message: "held balance is negative",
			})
		}
	}

	txIDs := make(map[uint32]bool)
	for _, tx := range txs {
		id := fmt.Sprintf("%d", tx.ID)

		if txIDs[tx.ID] {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "transaction",
				ID:      id,
				Field:   "ID",
				Value:   id,
				Message: "duplicate transaction ID",
			})
		}
		txIDs[tx.ID] = true

		if !clientIDs[tx.Client] {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "transaction",
				ID:      id,
				Field:   "Client",
				Value:   fmt.Sprintf("%d", tx.Client),
				Message: "transaction refers to a client missing from the snapshot",
			})
		}

		if tx.Disputed && tx.Amount.IsNegative() {
			result.Errors = append(result.Errors, ValidationError{
				Entity:  "transaction",
				ID:      id,
				Field:   "Disputed",
				Value:   tx.Amount.String(),
				Message: "withdrawal is marked disputed but withdrawals are not disputable",
			})
		}
	}

	return result
}

// IsValid reports whether the result carries no errors. Warnings never fail
// a run.
func (r *ValidationResult) IsValid() bool {
	return len(r.Errors) == 0
}
