package models

import (
	"fmt"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

// TransactionKind is the normalized buy/sell discriminator. Input is
// accepted case-insensitively at the boundary; the computation core only
// ever sees these two values.
type TransactionKind string

const (
	KindBuy  TransactionKind = "Buy"
	KindSell TransactionKind = "Sell"
)

// ParseTransactionKind normalizes a raw kind string ("buy", "SELL", ...).
func ParseTransactionKind(raw string) (TransactionKind, error) {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "buy":
		return KindBuy, nil
	case "sell":
		return KindSell, nil
	default:
		return "", fmt.Errorf("unknown transaction kind %q", raw)
	}
}

// Transaction is a single immutable ledger record. SequenceID is unique
// within a ledger and is the authoritative ordering for FIFO matching,
// even when two records share a date.
type Transaction struct {
	SequenceID  int64           `json:"sequence_id"`
	Date        time.Time       `json:"date"`
	ShareName   string          `json:"share_name"`
	Symbol      string          `json:"symbol"`
	Kind        TransactionKind `json:"kind"`
	Count       int64           `json:"count"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

// Validate checks the invariants a record must satisfy before it may enter
// a computation pass. A violation is fatal for the whole ledger.
func (t *Transaction) Validate() error {
	if t.SequenceID <= 0 {
		return fmt.Errorf("transaction is missing a positive sequence id")
	}
	if t.Date.IsZero() {
		return fmt.Errorf("transaction %d: missing date", t.SequenceID)
	}
	if strings.TrimSpace(t.Symbol) == "" {
		return fmt.Errorf("transaction %d: missing symbol", t.SequenceID)
	}
	if t.Kind != KindBuy && t.Kind != KindSell {
		return fmt.Errorf("transaction %d: kind must be Buy or Sell, got %q", t.SequenceID, t.Kind)
	}
	if t.Count <= 0 {
		return fmt.Errorf("transaction %d: count must be positive, got %d", t.SequenceID, t.Count)
	}
	if t.Price.IsNegative() {
		return fmt.Errorf("transaction %d: price must not be negative, got %s", t.SequenceID, t.Price)
	}
	return nil
}

// Normalize derives TotalAmount (count x price) when the source did not
// supply it.
func (t *Transaction) Normalize() {
	if t.TotalAmount.IsZero() {
		t.TotalAmount = t.Price.Mul(decimal.NewFromInt(t.Count))
	}
}
