package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/foliotrack/backend/src/models"
)

type stubPriceService struct {
	quotes map[string]models.PriceQuote
}

func (s *stubPriceService) GetQuotes(_ context.Context, symbols []string) map[string]models.PriceQuote {
	out := make(map[string]models.PriceQuote, len(symbols))
	for _, symbol := range symbols {
		if quote, ok := s.quotes[symbol]; ok {
			out[symbol] = quote
		} else {
			out[symbol] = models.PriceQuote{Symbol: symbol, Status: models.QuoteStatusUnavailable}
		}
	}
	return out
}

func TestMarketHandler(t *testing.T) {
	indices := []string{"^NSEI", "^BSESN"}

	t.Run("reports configured indices with change figures", func(t *testing.T) {
		prices := &stubPriceService{quotes: map[string]models.PriceQuote{
			"^NSEI": {
				Symbol:        "^NSEI",
				Status:        models.QuoteStatusOK,
				CurrentPrice:  decimal.RequireFromString("22150.75"),
				PreviousClose: decimal.RequireFromString("22000.00"),
			},
		}}
		h := NewMarketHandler(prices, indices)

		rec := httptest.NewRecorder()
		h.HandleGetMarketStatus(rec, httptest.NewRequest("GET", "/api/market/status", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var body struct {
			Indices []struct {
				Symbol           string  `json:"symbol"`
				Status           string  `json:"status"`
				CurrentValue     float64 `json:"current_value"`
				PreviousClose    float64 `json:"previous_close"`
				Change           float64 `json:"change"`
				PercentageChange float64 `json:"percentage_change"`
			} `json:"indices"`
		}
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
		require.Len(t, body.Indices, 2)

		nsei := body.Indices[0]
		assert.Equal(t, "^NSEI", nsei.Symbol)
		assert.Equal(t, models.QuoteStatusOK, nsei.Status)
		assert.InDelta(t, 22150.75, nsei.CurrentValue, 0.001)
		assert.InDelta(t, 150.75, nsei.Change, 0.001)
		assert.InDelta(t, 0.69, nsei.PercentageChange, 0.001)

		// The index without a quote is still listed, just unavailable.
		bsesn := body.Indices[1]
		assert.Equal(t, "^BSESN", bsesn.Symbol)
		assert.Equal(t, models.QuoteStatusUnavailable, bsesn.Status)
		assert.Zero(t, bsesn.CurrentValue)
	})

	t.Run("all indices unavailable still answers 200", func(t *testing.T) {
		h := NewMarketHandler(&stubPriceService{}, indices)

		rec := httptest.NewRecorder()
		h.HandleGetMarketStatus(rec, httptest.NewRequest("GET", "/api/market/status", nil))
		assert.Equal(t, http.StatusOK, rec.Code)
	})
}
