package source

import (
	"testing"

	"github.com/aclindsa/ofxgo"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rumor-ml/commons.systems/txreplay/internal/domain"
)

func ofxAmount(t *testing.T, s string) ofxgo.Amount {
	t.Helper()
	var a ofxgo.Amount
	_, ok := a.SetString(s)
	require.True(t, ok, "bad test amount %q", s)
	return a
}

func TestOFXCanRead(t *testing.T) {
	s := NewOFX()

	tests := []struct {
		name   string
		path   string
		header string
		want   bool
	}{
		{name: "sgml header", path: "stmt.ofx", header: "OFXHEADER:100\nDATA:OFXSGML", want: true},
		{name: "qfx extension", path: "stmt.qfx", header: "OFXHEADER:100", want: true},
		{name: "xml declaration", path: "stmt.ofx", header: `<?OFX OFXHEADER="200"?>`, want: true},
		{name: "wrong extension", path: "stmt.csv", header: "OFXHEADER:100", want: false},
		{name: "no marker", path: "stmt.ofx", header: "hello", want: false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, s.CanRead(tt.path, []byte(tt.header)))
		})
	}
}

func TestEventFromStatementTransaction(t *testing.T) {
	t.Run("positive amount is a deposit", func(t *testing.T) {
		txn := ofxgo.Transaction{
			FiTID:  ofxgo.String("1001"),
			TrnAmt: ofxAmount(t, "25.50"),
		}
		ev := EventFromStatementTransaction(7, txn)
		assert.Equal(t, domain.EventDeposit, ev.Type)
		assert.Equal(t, uint16(7), ev.Client)
		assert.Equal(t, uint32(1001), ev.Tx)
		require.NotNil(t, ev.Amount)
		assert.True(t, ev.Amount.Equal(decimal.RequireFromString("25.5")))
	})

	t.Run("negative amount is a withdrawal with absolute amount", func(t *testing.T) {
		txn := ofxgo.Transaction{
			FiTID:  ofxgo.String("1002"),
			TrnAmt: ofxAmount(t, "-10.25"),
		}
		ev := EventFromStatementTransaction(7, txn)
		assert.Equal(t, domain.EventWithdrawal, ev.Type)
		require.NotNil(t, ev.Amount)
		assert.True(t, ev.Amount.Equal(decimal.RequireFromString("10.25")),
			"withdrawal events carry the positive amount; the processor negates on store")
	})

	t.Run("zero amount is a deposit of zero", func(t *testing.T) {
		txn := ofxgo.Transaction{
			FiTID:  ofxgo.String("1003"),
			TrnAmt: ofxAmount(t, "0"),
		}
		ev := EventFromStatementTransaction(7, txn)
		assert.Equal(t, domain.EventDeposit, ev.Type)
		require.NotNil(t, ev.Amount)
		assert.True(t, ev.Amount.IsZero())
	})
}

func TestFoldTransactionID(t *testing.T) {
	t.Run("numeric FITIDs pass through", func(t *testing.T) {
		assert.Equal(t, uint32(123456), FoldTransactionID("123456"))
	})

	t.Run("non-numeric FITIDs hash deterministically", func(t *testing.T) {
		a := FoldTransactionID("2024-03-01-ABC")
		b := FoldTransactionID("2024-03-01-ABC")
		c := FoldTransactionID("2024-03-01-ABD")
		assert.Equal(t, a, b)
		assert.NotEqual(t, a, c)
	})

	t.Run("oversized numerics hash instead of truncating", func(t *testing.T) {
		assert.NotEqual(t, uint32(0), FoldTransactionID("99999999999999"))
	})
}

func TestFoldClientID(t *testing.T) {
	t.Run("numeric account ids pass through", func(t *testing.T) {
		assert.Equal(t, uint16(42), FoldClientID("42"))
	})

	t.Run("string account ids hash deterministically", func(t *testing.T) {
		a := FoldClientID("XXXX-1234")
		b := FoldClientID("XXXX-1234")
		assert.Equal(t, a, b)
	})
}
