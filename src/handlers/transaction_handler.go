package handlers

import (
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/shopspring/decimal"
	"github.com/username/foliotrack/backend/src/database"
	"github.com/username/foliotrack/backend/src/logger"
	"github.com/username/foliotrack/backend/src/model"
	"github.com/username/foliotrack/backend/src/models"
	"github.com/username/foliotrack/backend/src/services"
	"github.com/username/foliotrack/backend/src/utils"
)

type TransactionHandler struct {
	portfolioService services.PortfolioService
}

func NewTransactionHandler(portfolioService services.PortfolioService) *TransactionHandler {
	return &TransactionHandler{
		portfolioService: portfolioService,
	}
}

// transactionPayload is the wire form of a ledger record. Date arrives as
// YYYY-MM-DD and kind is accepted case-insensitively.
type transactionPayload struct {
	SequenceID  int64           `json:"sequence_id"`
	Date        string          `json:"date"`
	ShareName   string          `json:"share_name"`
	Symbol      string          `json:"symbol"`
	Kind        string          `json:"kind"`
	Count       int64           `json:"count"`
	Price       decimal.Decimal `json:"price"`
	TotalAmount decimal.Decimal `json:"total_amount"`
}

func (p transactionPayload) toModel() (models.Transaction, error) {
	var tx models.Transaction

	date, err := time.Parse("2006-01-02", p.Date)
	if err != nil {
		return tx, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", p.Date)
	}
	kind, err := models.ParseTransactionKind(p.Kind)
	if err != nil {
		return tx, err
	}

	tx = models.Transaction{
		SequenceID:  p.SequenceID,
		Date:        date,
		ShareName:   p.ShareName,
		Symbol:      p.Symbol,
		Kind:        kind,
		Count:       p.Count,
		Price:       p.Price,
		TotalAmount: p.TotalAmount,
	}
	if err := tx.Validate(); err != nil {
		return tx, err
	}
	tx.Normalize()
	return tx, nil
}

func (h *TransactionHandler) HandleListTransactions(w http.ResponseWriter, r *http.Request) {
	txs, err := model.ListTransactions(database.DB)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to list transactions", "error", err)
		utils.SendJSONError(w, "Failed to retrieve transactions", http.StatusInternalServerError)
		return
	}
	if txs == nil {
		txs = []models.Transaction{}
	}
	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(txs)
}

func (h *TransactionHandler) HandleAddTransaction(w http.ResponseWriter, r *http.Request) {
	var payload transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}
	tx, err := payload.toModel()
	if err != nil {
		utils.SendJSONError(w, err.Error(), http.StatusBadRequest)
		return
	}

	if err := model.InsertTransaction(database.DB, tx); err != nil {
		logger.FromContext(r.Context()).Error("Failed to insert transaction", "sequenceID", tx.SequenceID, "error", err)
		utils.SendJSONError(w, "Failed to store transaction", http.StatusInternalServerError)
		return
	}
	h.portfolioService.InvalidateSnapshotCache()

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusCreated)
	json.NewEncoder(w).Encode(tx)
}

// HandleReplaceTransactions swaps the whole ledger for the posted list in
// one database transaction. Either every record is accepted or none is.
func (h *TransactionHandler) HandleReplaceTransactions(w http.ResponseWriter, r *http.Request) {
	var payloads []transactionPayload
	if err := json.NewDecoder(r.Body).Decode(&payloads); err != nil {
		utils.SendJSONError(w, "Invalid request body", http.StatusBadRequest)
		return
	}

	txs := make([]models.Transaction, 0, len(payloads))
	seen := make(map[int64]bool, len(payloads))
	for i, payload := range payloads {
		tx, err := payload.toModel()
		if err != nil {
			utils.SendJSONError(w, fmt.Sprintf("record %d: %v", i, err), http.StatusBadRequest)
			return
		}
		if seen[tx.SequenceID] {
			utils.SendJSONError(w, fmt.Sprintf("record %d: duplicate sequence_id %d", i, tx.SequenceID), http.StatusBadRequest)
			return
		}
		seen[tx.SequenceID] = true
		txs = append(txs, tx)
	}

	if err := model.ReplaceTransactions(database.DB, txs); err != nil {
		logger.FromContext(r.Context()).Error("Failed to replace transactions", "count", len(txs), "error", err)
		utils.SendJSONError(w, "Failed to store transactions", http.StatusInternalServerError)
		return
	}
	h.portfolioService.InvalidateSnapshotCache()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]interface{}{"status": "ok", "count": len(txs)})
}

func (h *TransactionHandler) HandleDeleteTransaction(w http.ResponseWriter, r *http.Request) {
	sequenceID, err := strconv.ParseInt(chi.URLParam(r, "sequenceID"), 10, 64)
	if err != nil {
		utils.SendJSONError(w, "Invalid sequence id", http.StatusBadRequest)
		return
	}

	affected, err := model.DeleteTransaction(database.DB, sequenceID)
	if err != nil {
		logger.FromContext(r.Context()).Error("Failed to delete transaction", "sequenceID", sequenceID, "error", err)
		utils.SendJSONError(w, "Failed to delete transaction", http.StatusInternalServerError)
		return
	}
	if affected == 0 {
		utils.SendJSONError(w, "Transaction not found", http.StatusNotFound)
		return
	}
	h.portfolioService.InvalidateSnapshotCache()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
