package processors

import (
	"sort"

	"github.com/shopspring/decimal"
	"github.com/username/foliotrack/backend/src/logger"
	"github.com/username/foliotrack/backend/src/models"
)

var oneHundred = decimal.NewFromInt(100)

// ValuationProcessor marks held positions to market and aggregates the
// unrealized figures.
type ValuationProcessor struct{}

func NewValuationProcessor() *ValuationProcessor { return &ValuationProcessor{} }

// Process values every held symbol that has a usable quote. Symbols whose
// quote came back UNAVAILABLE are left out of the result and of both
// aggregate sums; a partial result is better than a poisoned one.
//
// PercentageChange stays nil when the previous close (or the exposure) is
// zero. The day-over-day percentage is undefined there and must not be
// reported as 0%.
func (p *ValuationProcessor) Process(
	report models.CostBasisReport,
	quotes map[string]models.PriceQuote,
	shareNames map[string]string,
) ([]models.HeldPosition, models.ValuationSummary) {
	positions := []models.HeldPosition{}
	summary := models.ValuationSummary{
		UnrealizedProfit: decimal.Zero,
		OneDayReturn:     decimal.Zero,
	}

	for symbol, cost := range report.BySymbol {
		quote, ok := quotes[symbol]
		if !ok || quote.Status != models.QuoteStatusOK {
			logger.L.Warn("no usable quote, excluding symbol from valuation", "symbol", symbol)
			continue
		}

		shares := decimal.NewFromInt(cost.NetShares)
		saleValue := shares.Mul(quote.CurrentPrice)
		unrealized := saleValue.Sub(cost.CostBasis)
		priceChange := shares.Mul(quote.CurrentPrice.Sub(quote.PreviousClose))

		avgBuy := decimal.Zero
		if cost.NetShares > 0 {
			avgBuy = cost.CostBasis.Div(shares)
		}

		var pctChange *decimal.Decimal
		if exposure := shares.Mul(quote.PreviousClose); !exposure.IsZero() {
			pct := oneHundred.Mul(priceChange).Div(exposure)
			pctChange = &pct
		}

		positions = append(positions, models.HeldPosition{
			Symbol:             symbol,
			ShareName:          shareNames[symbol],
			NetShares:          cost.NetShares,
			CostBasis:          cost.CostBasis,
			AvgBuyingPrice:     avgBuy,
			CurrentPrice:       quote.CurrentPrice,
			PreviousClose:      quote.PreviousClose,
			PotentialSaleValue: saleValue,
			UnrealizedPL:       unrealized,
			PriceChange:        priceChange,
			PercentageChange:   pctChange,
		})
		summary.UnrealizedProfit = summary.UnrealizedProfit.Add(unrealized)
		summary.OneDayReturn = summary.OneDayReturn.Add(priceChange)
	}

	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Symbol < positions[j].Symbol
	})
	return positions, summary
}
