package handlers

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/username/foliotrack/backend/src/logger"
	"github.com/username/foliotrack/backend/src/models"
	"github.com/username/foliotrack/backend/src/services"
	"github.com/username/foliotrack/backend/src/utils"
)

type PortfolioHandler struct {
	portfolioService services.PortfolioService
}

func NewPortfolioHandler(portfolioService services.PortfolioService) *PortfolioHandler {
	return &PortfolioHandler{
		portfolioService: portfolioService,
	}
}

func (h *PortfolioHandler) snapshot(w http.ResponseWriter, r *http.Request) (*models.PortfolioSnapshot, bool) {
	snapshot, err := h.portfolioService.BuildSnapshot(r.Context())
	if err != nil {
		if errors.Is(err, services.ErrMalformedLedger) {
			utils.SendJSONError(w, err.Error(), http.StatusUnprocessableEntity)
			return nil, false
		}
		logger.FromContext(r.Context()).Error("Failed to build portfolio snapshot", "error", err)
		utils.SendJSONError(w, "Failed to compute portfolio data", http.StatusInternalServerError)
		return nil, false
	}
	return snapshot, true
}

// HandleGetPortfolio returns the full snapshot: held positions, realized
// trades, aggregate figures and any ledger warnings.
func (h *PortfolioHandler) HandleGetPortfolio(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(snapshot)
}

func (h *PortfolioHandler) HandleGetHoldings(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	positions := snapshot.HeldPositions
	if positions == nil {
		positions = []models.HeldPosition{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(positions)
}

func (h *PortfolioHandler) HandleGetRealized(w http.ResponseWriter, r *http.Request) {
	snapshot, ok := h.snapshot(w, r)
	if !ok {
		return
	}
	trades := snapshot.RealizedTrades
	if trades == nil {
		trades = []models.RealizedTrade{}
	}
	response := map[string]interface{}{
		"realized_trades":       trades,
		"realized_profit":       snapshot.RealizedProfit,
		"realized_trades_total": snapshot.RealizedTradesTotal,
		"warnings":              snapshot.Warnings,
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(response)
}
