package processors

import (
	"sort"

	"github.com/username/foliotrack/backend/src/models"
)

// RealizedProcessor shapes the matched sell records into the display
// ledger of realized trades.
type RealizedProcessor struct{}

func NewRealizedProcessor() *RealizedProcessor { return &RealizedProcessor{} }

// Process returns the trades sorted chronologically by sell date (sequence
// id as tiebreak). The result is always non-nil, even for a ledger without
// sells, so consumers can iterate without a nil check. Monetary fields
// keep full precision; rounding happens in the presentation layer only.
func (p *RealizedProcessor) Process(trades []models.RealizedTrade) []models.RealizedTrade {
	out := make([]models.RealizedTrade, len(trades))
	copy(out, trades)
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].Date.Equal(out[j].Date) {
			return out[i].TransactionID < out[j].TransactionID
		}
		return out[i].Date.Before(out[j].Date)
	})
	return out
}
