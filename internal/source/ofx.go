package source

import (
	"bytes"
	"context"
	"fmt"
	"hash/fnv"
	"io"
	"path/filepath"
	"strconv"
	"strings"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"

	"github.com/rumor-ml/commons.systems/txreplay/internal/domain"
)

// OFX turns a bank or credit-card statement into replayable events: a
// positive statement transaction becomes a deposit, a negative one a
// withdrawal with the absolute amount. OFX documents must be parsed whole,
// so Open decodes everything up front and the Reader serves from memory.
//
// OFX identifies accounts and transactions with strings; numeric values are
// used directly when they fit, anything else is folded through FNV-1a. The
// mapping is deterministic for a given statement.
type OFX struct{}

var ofxInstance = &OFX{}

// NewOFX returns the shared OFX source instance.
func NewOFX() *OFX {
	return ofxInstance
}

// Name returns the source identifier.
func (s *OFX) Name() string {
	return "ofx"
}

// CanRead checks the extension and the OFX header markers (both v1 SGML and
// v2 XML forms).
func (s *OFX) CanRead(path string, header []byte) bool {
	ext := strings.ToLower(filepath.Ext(path))
	if ext != ".ofx" && ext != ".qfx" {
		return false
	}

	headerUpper := strings.ToUpper(string(header))
	return strings.Contains(headerUpper, "OFXHEADER") ||
		strings.Contains(headerUpper, "<?OFX") ||
		strings.Contains(headerUpper, "<OFX>")
}

// Open parses the OFX document and converts every bank and credit-card
// statement it carries into events, in statement order.
func (s *OFX) Open(ctx context.Context, r io.Reader) (Reader, error) {
	content, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("failed to read OFX content: %w", err)
	}

	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}

	resp, err := ofxgo.ParseResponse(bytes.NewReader(content))
	if err != nil {
		return nil, fmt.Errorf("failed to parse OFX document (%d bytes): %w", len(content), err)
	}

	var events []domain.Event

	for _, msg := range resp.Bank {
		stmt, ok := msg.(*ofxgo.StatementResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected bank statement type %T", msg)
		}
		if stmt.BankTranList == nil {
			continue
		}
		clientID := FoldClientID(stmt.BankAcctFrom.AcctID.String())
		events = appendStatementEvents(events, clientID, stmt.BankTranList.Transactions)
	}

	for _, msg := range resp.CreditCard {
		stmt, ok := msg.(*ofxgo.CCStatementResponse)
		if !ok {
			return nil, fmt.Errorf("unexpected credit card statement type %T", msg)
		}
		if stmt.BankTranList == nil {
			continue
		}
		clientID := FoldClientID(stmt.CCAcctFrom.AcctID.String())
		events = appendStatementEvents(events, clientID, stmt.BankTranList.Transactions)
	}

	if len(events) == 0 {
		return nil, fmt.Errorf("no bank or credit card transactions found in OFX document")
	}

	return &sliceReader{events: events}, nil
}

func appendStatementEvents(events []domain.Event, clientID uint16, txns []ofxgo.Transaction) []domain.Event {
	for _, txn := range txns {
		events = append(events, EventFromStatementTransaction(clientID, txn))
	}
	return events
}

// EventFromStatementTransaction maps one OFX statement transaction to an
// event. The sign of TRNAMT decides the kind; TRNTYPE labels are too
// inconsistent across institutions to trust.
func EventFromStatementTransaction(clientID uint16, txn ofxgo.Transaction) domain.Event {
	amount, err := decimal.NewFromString(txn.TrnAmt.String())
	if err != nil {
		// TrnAmt is a rational; its String form is always a plain decimal.
		amount = decimal.Zero
	}

	ev := domain.Event{
		Client: clientID,
		Tx:     FoldTransactionID(txn.FiTID.String()),
	}

	if amount.IsNegative() {
		ev.Type = domain.EventWithdrawal
		abs := amount.Neg()
		ev.Amount = &abs
	} else {
		ev.Type = domain.EventDeposit
		ev.Amount = &amount
	}
	return ev
}

// FoldTransactionID maps an OFX FITID to a transaction id. Numeric FITIDs
// that fit in 32 bits pass through unchanged; everything else hashes.
func FoldTransactionID(fitID string) uint32 {
	if n, err := strconv.ParseUint(fitID, 10, 32); err == nil {
		return uint32(n)
	}
	h := fnv.New32a()
	h.Write([]byte(fitID))
	return h.Sum32()
}

// FoldClientID maps an OFX account id to a client id. Numeric ids that fit
// in 16 bits pass through unchanged; everything else hashes, with the two
// 16-bit halves xored together.
func FoldClientID(acctID string) uint16 {
	if n, err := strconv.ParseUint(acctID, 10, 16); err == nil {
		return uint16(n)
	}
	h := fnv.New32a()
	h.Write([]byte(acctID))
	sum := h.Sum32()
	return uint16(sum>>16) ^ uint16(sum&0xffff)
}
