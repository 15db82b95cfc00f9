package handlers

import (
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/username/foliotrack/backend/src/database"
	"github.com/username/foliotrack/backend/src/model"
	"github.com/username/foliotrack/backend/src/models"
	_ "modernc.org/sqlite"
)

func mustDate(s string) time.Time {
	d, err := time.Parse("2006-01-02", s)
	if err != nil {
		panic(err)
	}
	return d
}

func decimalFromString(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func setupHandlerDB(t *testing.T) {
	t.Helper()
	db, err := sql.Open("sqlite", ":memory:")
	require.NoError(t, err)

	_, err = db.Exec(`
		CREATE TABLE transactions (
			sequence_id INTEGER PRIMARY KEY,
			date TEXT NOT NULL,
			share_name TEXT NOT NULL DEFAULT '',
			symbol TEXT NOT NULL,
			kind TEXT NOT NULL CHECK (kind IN ('Buy', 'Sell')),
			count INTEGER NOT NULL CHECK (count > 0),
			price TEXT NOT NULL,
			total_amount TEXT NOT NULL,
			created_at TIMESTAMP NOT NULL DEFAULT CURRENT_TIMESTAMP
		)`)
	require.NoError(t, err)

	prev := database.DB
	database.DB = db
	t.Cleanup(func() {
		database.DB = prev
		db.Close()
	})
}

func newTransactionRouter(stub *stubPortfolioService) http.Handler {
	h := NewTransactionHandler(stub)
	r := chi.NewRouter()
	r.Get("/api/transactions", h.HandleListTransactions)
	r.Post("/api/transactions", h.HandleAddTransaction)
	r.Put("/api/transactions", h.HandleReplaceTransactions)
	r.Delete("/api/transactions/{sequenceID}", h.HandleDeleteTransaction)
	return r
}

func TestTransactionHandler(t *testing.T) {
	t.Run("add then list", func(t *testing.T) {
		setupHandlerDB(t)
		stub := &stubPortfolioService{}
		router := newTransactionRouter(stub)

		payload := `{
			"sequence_id": 1, "date": "2024-03-01", "share_name": "Infosys",
			"symbol": "INFY", "kind": "buy", "count": 10, "price": "1520.55"
		}`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/transactions", strings.NewReader(payload)))
		require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
		assert.Equal(t, 1, stub.invalidated, "mutation must drop the snapshot cache")

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/transactions", nil))
		require.Equal(t, http.StatusOK, rec.Code)

		var txs []models.Transaction
		require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &txs))
		require.Len(t, txs, 1)
		assert.Equal(t, "INFY", txs[0].Symbol)
		assert.Equal(t, models.KindBuy, txs[0].Kind)
		// Total derived from count * price.
		assert.True(t, decimalFromString("15205.50").Equal(txs[0].TotalAmount))
	})

	t.Run("empty ledger lists as an empty array", func(t *testing.T) {
		setupHandlerDB(t)
		router := newTransactionRouter(&stubPortfolioService{})

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("GET", "/api/transactions", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.JSONEq(t, "[]", rec.Body.String())
	})

	t.Run("bad payloads are rejected with 400", func(t *testing.T) {
		setupHandlerDB(t)
		stub := &stubPortfolioService{}
		router := newTransactionRouter(stub)

		cases := map[string]string{
			"not json":     `{"sequence_id": `,
			"bad date":     `{"sequence_id": 1, "date": "01/03/2024", "symbol": "INFY", "kind": "buy", "count": 1, "price": "10"}`,
			"bad kind":     `{"sequence_id": 1, "date": "2024-03-01", "symbol": "INFY", "kind": "short", "count": 1, "price": "10"}`,
			"zero count":   `{"sequence_id": 1, "date": "2024-03-01", "symbol": "INFY", "kind": "buy", "count": 0, "price": "10"}`,
			"no symbol":    `{"sequence_id": 1, "date": "2024-03-01", "kind": "buy", "count": 1, "price": "10"}`,
			"zero seq id":  `{"sequence_id": 0, "date": "2024-03-01", "symbol": "INFY", "kind": "buy", "count": 1, "price": "10"}`,
			"neg price":    `{"sequence_id": 1, "date": "2024-03-01", "symbol": "INFY", "kind": "buy", "count": 1, "price": "-10"}`,
		}
		for name, payload := range cases {
			rec := httptest.NewRecorder()
			router.ServeHTTP(rec, httptest.NewRequest("POST", "/api/transactions", strings.NewReader(payload)))
			assert.Equal(t, http.StatusBadRequest, rec.Code, name)
		}
		assert.Equal(t, 0, stub.invalidated)
	})

	t.Run("replace swaps the whole ledger", func(t *testing.T) {
		setupHandlerDB(t)
		stub := &stubPortfolioService{}
		router := newTransactionRouter(stub)

		require.NoError(t, model.InsertTransaction(database.DB, models.Transaction{
			SequenceID: 99, Date: mustDate("2024-01-01"), Symbol: "OLD",
			Kind: models.KindBuy, Count: 1,
			Price: decimalFromString("10"), TotalAmount: decimalFromString("10"),
		}))

		payload := `[
			{"sequence_id": 1, "date": "2024-03-01", "symbol": "INFY", "kind": "buy", "count": 10, "price": "100"},
			{"sequence_id": 2, "date": "2024-03-02", "symbol": "INFY", "kind": "sell", "count": 4, "price": "110"}
		]`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("PUT", "/api/transactions", strings.NewReader(payload)))
		require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
		assert.Equal(t, 1, stub.invalidated)

		txs, err := model.ListTransactions(database.DB)
		require.NoError(t, err)
		require.Len(t, txs, 2)
		assert.Equal(t, "INFY", txs[0].Symbol)
	})

	t.Run("replace rejects duplicate sequence ids", func(t *testing.T) {
		setupHandlerDB(t)
		router := newTransactionRouter(&stubPortfolioService{})

		payload := `[
			{"sequence_id": 1, "date": "2024-03-01", "symbol": "INFY", "kind": "buy", "count": 10, "price": "100"},
			{"sequence_id": 1, "date": "2024-03-02", "symbol": "TCS", "kind": "buy", "count": 4, "price": "110"}
		]`
		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("PUT", "/api/transactions", strings.NewReader(payload)))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	t.Run("delete removes one record", func(t *testing.T) {
		setupHandlerDB(t)
		stub := &stubPortfolioService{}
		router := newTransactionRouter(stub)

		require.NoError(t, model.InsertTransaction(database.DB, models.Transaction{
			SequenceID: 7, Date: mustDate("2024-01-01"), Symbol: "INFY",
			Kind: models.KindBuy, Count: 1,
			Price: decimalFromString("10"), TotalAmount: decimalFromString("10"),
		}))

		rec := httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/transactions/7", nil))
		require.Equal(t, http.StatusOK, rec.Code)
		assert.Equal(t, 1, stub.invalidated)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/transactions/7", nil))
		assert.Equal(t, http.StatusNotFound, rec.Code)

		rec = httptest.NewRecorder()
		router.ServeHTTP(rec, httptest.NewRequest("DELETE", "/api/transactions/abc", nil))
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})
}
