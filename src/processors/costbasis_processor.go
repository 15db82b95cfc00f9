package processors

import (
	"github.com/shopspring/decimal"
	"github.com/username/foliotrack/backend/src/logger"
	"github.com/username/foliotrack/backend/src/models"
)

// CostBasisProcessor aggregates the post-matching lots into per-symbol
// cost of carry.
type CostBasisProcessor struct{}

func NewCostBasisProcessor() *CostBasisProcessor { return &CostBasisProcessor{} }

// NetShares computes each symbol's net holding (buys minus sells) straight
// from the ledger. Used to cross-check the lot ledger for internally
// contradictory data.
func NetShares(txs []models.Transaction) map[string]int64 {
	net := make(map[string]int64)
	for _, tx := range txs {
		if tx.Kind == models.KindSell {
			net[tx.Symbol] -= tx.Count
		} else {
			net[tx.Symbol] += tx.Count
		}
	}
	return net
}

// Process returns, for every symbol still holding shares, the sum of its
// remaining lot counts and the cost of those remaining shares, plus the
// grand total across symbols.
//
// A symbol whose ledger-net holding is positive while its lots are all
// exhausted is internally contradictory; it gets a warning and a zero cost
// basis instead of failing the whole computation.
func (p *CostBasisProcessor) Process(netShares map[string]int64, lotsBySymbol map[string][]models.Lot) (models.CostBasisReport, []models.LedgerWarning) {
	report := models.CostBasisReport{
		BySymbol: make(map[string]models.SymbolCost),
		Total:    decimal.Zero,
	}
	warnings := []models.LedgerWarning{}

	for symbol, lots := range lotsBySymbol {
		var shares int64
		cost := decimal.Zero
		for _, lot := range lots {
			if lot.Remaining == 0 {
				continue
			}
			shares += lot.Remaining
			cost = cost.Add(lot.Price.Mul(decimal.NewFromInt(lot.Remaining)))
		}
		if shares == 0 {
			continue
		}
		report.BySymbol[symbol] = models.SymbolCost{NetShares: shares, CostBasis: cost}
		report.Total = report.Total.Add(cost)
	}

	for symbol, net := range netShares {
		if net <= 0 {
			continue
		}
		if _, held := report.BySymbol[symbol]; !held {
			logger.L.Warn("positive net holding has no remaining buy lots",
				"symbol", symbol, "netShares", net)
			warnings = append(warnings, models.LedgerWarning{
				Kind:      models.WarningInconsistentHolding,
				Symbol:    symbol,
				Shortfall: net,
			})
			report.BySymbol[symbol] = models.SymbolCost{NetShares: net, CostBasis: decimal.Zero}
		}
	}
	return report, warnings
}
