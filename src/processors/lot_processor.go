package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/foliotrack/backend/src/logger"
	"github.com/username/foliotrack/backend/src/models"
)

// LotProcessor performs FIFO matching of sell transactions against prior
// buy lots. It is stateless: every Process call rebuilds all lots from the
// full ledger, so recomputing is always safe and two runs over the same
// ledger produce identical results.
type LotProcessor struct{}

func NewLotProcessor() *LotProcessor { return &LotProcessor{} }

// Process returns one RealizedTrade per Sell, the remaining open lots
// grouped by symbol, and any data-quality warnings encountered.
//
// Lots are consumed strictly in ascending SequenceID order. SequenceID is
// unique per ledger, so it is the canonical FIFO order here; the date is
// carried for display only. A Sell may only consume lots whose SequenceID
// precedes its own.
func (p *LotProcessor) Process(txs []models.Transaction) ([]models.RealizedTrade, map[string][]models.Lot, []models.LedgerWarning) {
	ordered := make([]models.Transaction, len(txs))
	copy(ordered, txs)
	// Stable: records sharing a sequence id keep their ledger order.
	sort.SliceStable(ordered, func(i, j int) bool {
		return ordered[i].SequenceID < ordered[j].SequenceID
	})

	lotsBySymbol := make(map[string][]*models.Lot)
	for _, tx := range ordered {
		if tx.Kind != models.KindBuy {
			continue
		}
		lotsBySymbol[tx.Symbol] = append(lotsBySymbol[tx.Symbol], &models.Lot{
			SequenceID: tx.SequenceID,
			Symbol:     tx.Symbol,
			Date:       tx.Date,
			Price:      tx.Price,
			Remaining:  tx.Count,
		})
	}

	trades := []models.RealizedTrade{}
	warnings := []models.LedgerWarning{}

	for _, tx := range ordered {
		if tx.Kind != models.KindSell {
			continue
		}

		outstanding := tx.Count
		totalBuyValue := decimal.Zero
		var boughtCount int64

		for _, lot := range lotsBySymbol[tx.Symbol] {
			if outstanding == 0 {
				break
			}
			if lot.SequenceID >= tx.SequenceID || lot.Remaining == 0 {
				continue
			}
			used := lot.Remaining
			if outstanding < used {
				used = outstanding
			}
			lot.Remaining -= used
			outstanding -= used
			boughtCount += used
			totalBuyValue = totalBuyValue.Add(lot.Price.Mul(decimal.NewFromInt(used)))
		}

		sellValue := tx.TotalAmount
		if sellValue.IsZero() {
			sellValue = tx.Price.Mul(decimal.NewFromInt(tx.Count))
		}

		avgBuyPrice := decimal.Zero
		if boughtCount > 0 {
			avgBuyPrice = totalBuyValue.Div(decimal.NewFromInt(boughtCount))
		}

		if outstanding > 0 {
			// Oversold: the ledger sells more than it ever bought up to
			// this point. Cost is computed from what could be matched only.
			logger.L.Warn("sell exceeds available buy history",
				"symbol", tx.Symbol, "transactionID", tx.SequenceID, "shortfall", outstanding)
			warnings = append(warnings, models.LedgerWarning{
				Kind:          models.WarningOversold,
				Symbol:        tx.Symbol,
				TransactionID: tx.SequenceID,
				Shortfall:     outstanding,
			})
		}

		// Profit is earned on the matched shares only; when the sell is
		// oversold, the unmatched remainder contributes no P&L.
		matchedRevenue := tx.Price.Mul(decimal.NewFromInt(boughtCount))

		trades = append(trades, models.RealizedTrade{
			TransactionID:  tx.SequenceID,
			Date:           tx.Date,
			Symbol:         tx.Symbol,
			SharesSold:     tx.Count,
			SharesMatched:  boughtCount,
			SellPrice:      tx.Price,
			TotalSellValue: sellValue,
			AvgBuyPrice:    avgBuyPrice,
			TotalBuyValue:  totalBuyValue,
			ProfitLoss:     matchedRevenue.Sub(totalBuyValue),
		})
	}

	remaining := make(map[string][]models.Lot, len(lotsBySymbol))
	for symbol, lots := range lotsBySymbol {
		out := make([]models.Lot, 0, len(lots))
		for _, lot := range lots {
			out = append(out, *lot)
		}
		remaining[symbol] = out
	}
	return trades, remaining, warnings
}
