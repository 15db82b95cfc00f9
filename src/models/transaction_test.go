package models

import (
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func validTx() Transaction {
	return Transaction{
		SequenceID: 1,
		Date:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		Symbol:     "INFY",
		Kind:       KindBuy,
		Count:      10,
		Price:      decimal.NewFromInt(100),
	}
}

func TestParseTransactionKind(t *testing.T) {
	for _, raw := range []string{"Buy", "buy", "BUY", "  buy "} {
		kind, err := ParseTransactionKind(raw)
		require.NoError(t, err, "raw=%q", raw)
		assert.Equal(t, KindBuy, kind)
	}

	kind, err := ParseTransactionKind("sell")
	require.NoError(t, err)
	assert.Equal(t, KindSell, kind)

	_, err = ParseTransactionKind("short")
	assert.Error(t, err)
	_, err = ParseTransactionKind("")
	assert.Error(t, err)
}

func TestTransactionValidate(t *testing.T) {
	t.Run("accepts a well-formed record", func(t *testing.T) {
		tx := validTx()
		assert.NoError(t, tx.Validate())
	})

	t.Run("rejects broken records", func(t *testing.T) {
		cases := map[string]func(*Transaction){
			"zero sequence id": func(tx *Transaction) { tx.SequenceID = 0 },
			"missing date":     func(tx *Transaction) { tx.Date = time.Time{} },
			"blank symbol":     func(tx *Transaction) { tx.Symbol = "   " },
			"unknown kind":     func(tx *Transaction) { tx.Kind = "Short" },
			"zero count":       func(tx *Transaction) { tx.Count = 0 },
			"negative count":   func(tx *Transaction) { tx.Count = -3 },
			"negative price":   func(tx *Transaction) { tx.Price = decimal.NewFromInt(-1) },
		}
		for name, mutate := range cases {
			tx := validTx()
			mutate(&tx)
			assert.Error(t, tx.Validate(), name)
		}
	})
}

func TestTransactionNormalize(t *testing.T) {
	t.Run("derives total from count and price", func(t *testing.T) {
		tx := validTx()
		tx.Normalize()
		assert.True(t, decimal.NewFromInt(1000).Equal(tx.TotalAmount))
	})

	t.Run("keeps an explicit total untouched", func(t *testing.T) {
		tx := validTx()
		tx.TotalAmount = decimal.NewFromInt(995)
		tx.Normalize()
		assert.True(t, decimal.NewFromInt(995).Equal(tx.TotalAmount))
	})
}
