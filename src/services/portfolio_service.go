package services

import (
	"context"
	"database/sql"
	"fmt"
	"sort"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"github.com/username/foliotrack/backend/src/logger"
	"github.com/username/foliotrack/backend/src/model"
	"github.com/username/foliotrack/backend/src/models"
	"github.com/username/foliotrack/backend/src/processors"
)

const snapshotCacheKey = "portfolio_snapshot"

type portfolioServiceImpl struct {
	db                 *sql.DB
	lotProcessor       *processors.LotProcessor
	costBasisProcessor *processors.CostBasisProcessor
	realizedProcessor  *processors.RealizedProcessor
	valuationProcessor *processors.ValuationProcessor
	priceService       PriceService
	snapshotCache      *cache.Cache
	snapshotTTL        time.Duration
}

// NewPortfolioService wires the four stateless processors behind one
// facade. The snapshot cache only saves repeated price lookups; every
// cache miss recomputes the whole pipeline from the stored ledger.
func NewPortfolioService(db *sql.DB, priceService PriceService, snapshotTTL time.Duration) PortfolioService {
	return &portfolioServiceImpl{
		db:                 db,
		lotProcessor:       processors.NewLotProcessor(),
		costBasisProcessor: processors.NewCostBasisProcessor(),
		realizedProcessor:  processors.NewRealizedProcessor(),
		valuationProcessor: processors.NewValuationProcessor(),
		priceService:       priceService,
		snapshotCache:      cache.New(snapshotTTL, 2*snapshotTTL),
		snapshotTTL:        snapshotTTL,
	}
}

func (s *portfolioServiceImpl) BuildSnapshot(ctx context.Context) (*models.PortfolioSnapshot, error) {
	if cached, found := s.snapshotCache.Get(snapshotCacheKey); found {
		logger.L.Debug("Returning portfolio snapshot from cache")
		return cached.(*models.PortfolioSnapshot), nil
	}

	txs, err := model.ListTransactions(s.db)
	if err != nil {
		return nil, fmt.Errorf("failed to load transaction ledger: %w", err)
	}

	snapshot, err := s.Compute(ctx, txs)
	if err != nil {
		return nil, err
	}

	s.snapshotCache.Set(snapshotCacheKey, snapshot, s.snapshotTTL)
	return snapshot, nil
}

// Compute runs one full pass of the pipeline: validate, match lots,
// aggregate cost basis, sort realized trades, then value the held
// positions against live quotes. Nothing here mutates the input slice or
// keeps state for the next call.
func (s *portfolioServiceImpl) Compute(ctx context.Context, txs []models.Transaction) (*models.PortfolioSnapshot, error) {
	ledger := make([]models.Transaction, len(txs))
	copy(ledger, txs)

	for i := range ledger {
		if err := ledger[i].Validate(); err != nil {
			return nil, fmt.Errorf("%w: %v", ErrMalformedLedger, err)
		}
		ledger[i].Normalize()
	}

	trades, lotsBySymbol, lotWarnings := s.lotProcessor.Process(ledger)
	report, costWarnings := s.costBasisProcessor.Process(processors.NetShares(ledger), lotsBySymbol)
	sortedTrades := s.realizedProcessor.Process(trades)

	heldSymbols := make([]string, 0, len(report.BySymbol))
	for symbol := range report.BySymbol {
		heldSymbols = append(heldSymbols, symbol)
	}
	sort.Strings(heldSymbols)

	shareNames := make(map[string]string)
	for _, tx := range ledger {
		if tx.ShareName != "" {
			shareNames[tx.Symbol] = tx.ShareName
		}
	}

	quotes := s.priceService.GetQuotes(ctx, heldSymbols)
	positions, summary := s.valuationProcessor.Process(report, quotes, shareNames)

	var totalBuy, totalSell, tradesTotal decimal.Decimal
	for _, tx := range ledger {
		switch tx.Kind {
		case models.KindBuy:
			totalBuy = totalBuy.Add(tx.TotalAmount)
		case models.KindSell:
			totalSell = totalSell.Add(tx.TotalAmount)
		}
	}
	for _, trade := range sortedTrades {
		tradesTotal = tradesTotal.Add(trade.ProfitLoss)
	}

	warnings := make([]models.LedgerWarning, 0, len(lotWarnings)+len(costWarnings))
	warnings = append(warnings, lotWarnings...)
	warnings = append(warnings, costWarnings...)

	snapshot := &models.PortfolioSnapshot{
		HeldPositions:  positions,
		RealizedTrades: sortedTrades,
		// Revenue from all sells minus cost of all buys, with the cost
		// still tied up in held lots added back. Matches what a
		// cash-flow view of the ledger reports.
		RealizedProfit:      totalSell.Sub(totalBuy).Add(report.Total),
		RealizedTradesTotal: tradesTotal,
		UnrealizedProfit:    summary.UnrealizedProfit,
		OneDayReturn:        summary.OneDayReturn,
		Warnings:            warnings,
	}

	logger.L.Info("Computed portfolio snapshot",
		"transactions", len(ledger),
		"held_positions", len(positions),
		"realized_trades", len(sortedTrades),
		"warnings", len(warnings))

	return snapshot, nil
}

func (s *portfolioServiceImpl) InvalidateSnapshotCache() {
	s.snapshotCache.Delete(snapshotCacheKey)
}
