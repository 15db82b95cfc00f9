package handlers

import (
	"encoding/json"
	"net/http"

	"github.com/username/foliotrack/backend/src/models"
	"github.com/username/foliotrack/backend/src/services"
	"github.com/username/foliotrack/backend/src/utils"
)

type MarketHandler struct {
	priceService services.PriceService
	indexSymbols []string
}

func NewMarketHandler(priceService services.PriceService, indexSymbols []string) *MarketHandler {
	return &MarketHandler{
		priceService: priceService,
		indexSymbols: indexSymbols,
	}
}

type indexStatus struct {
	Symbol           string  `json:"symbol"`
	Status           string  `json:"status"`
	CurrentValue     float64 `json:"current_value,omitempty"`
	PreviousClose    float64 `json:"previous_close,omitempty"`
	Change           float64 `json:"change,omitempty"`
	PercentageChange float64 `json:"percentage_change,omitempty"`
}

// HandleGetMarketStatus reports the configured market indices. An index
// whose quote cannot be fetched is listed as UNAVAILABLE rather than
// failing the whole response.
func (h *MarketHandler) HandleGetMarketStatus(w http.ResponseWriter, r *http.Request) {
	quotes := h.priceService.GetQuotes(r.Context(), h.indexSymbols)

	statuses := make([]indexStatus, 0, len(h.indexSymbols))
	for _, symbol := range h.indexSymbols {
		quote := quotes[symbol]
		status := indexStatus{Symbol: symbol, Status: quote.Status}
		if quote.Status == models.QuoteStatusOK {
			current, _ := quote.CurrentPrice.Float64()
			previous, _ := quote.PreviousClose.Float64()
			status.CurrentValue = utils.RoundFloat(current, 2)
			status.PreviousClose = utils.RoundFloat(previous, 2)
			status.Change = utils.RoundFloat(current-previous, 2)
			if previous != 0 {
				status.PercentageChange = utils.RoundFloat((current-previous)/previous*100, 2)
			}
		}
		statuses = append(statuses, status)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"indices": statuses})
}
