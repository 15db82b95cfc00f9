package services

import (
	"context"
	"errors"

	"github.com/username/foliotrack/backend/src/models"
)

// Define common service errors
var (
	// ErrMalformedLedger means at least one transaction record failed
	// validation; the whole computation pass is aborted.
	ErrMalformedLedger = errors.New("malformed transaction ledger")
)

// PortfolioService is the facade over the computation pipeline. One call
// takes the full ledger and returns a complete snapshot; no component
// keeps mutable state between calls.
type PortfolioService interface {
	// BuildSnapshot loads the stored ledger and computes a full snapshot.
	// It fails only when the ledger itself is malformed, never because a
	// price lookup came up empty.
	BuildSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error)

	// Compute runs the pipeline over an explicit ledger, bypassing storage
	// and the snapshot cache.
	Compute(ctx context.Context, txs []models.Transaction) (*models.PortfolioSnapshot, error)

	// InvalidateSnapshotCache drops the cached snapshot. Call after any
	// ledger mutation.
	InvalidateSnapshotCache()
}

// PriceService is the market-price oracle. A lookup either succeeds with
// both a current price and a previous close, or reports UNAVAILABLE for
// that symbol; it never blocks past the configured HTTP timeout and a
// failing symbol never affects its siblings.
type PriceService interface {
	GetQuotes(ctx context.Context, symbols []string) map[string]models.PriceQuote
}
