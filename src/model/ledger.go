package model

import (
	"database/sql"
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/foliotrack/backend/src/models"
)

const ledgerDateLayout = "2006-01-02"

// ListTransactions returns the full ledger ordered by date then sequence
// id, the order every computation pass expects.
func ListTransactions(db *sql.DB) ([]models.Transaction, error) {
	rows, err := db.Query(`
		SELECT sequence_id, date, share_name, symbol, kind, count, price, total_amount
		FROM transactions
		ORDER BY date ASC, sequence_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("error querying transactions: %w", err)
	}
	defer rows.Close()

	var txs []models.Transaction
	for rows.Next() {
		tx, err := scanTransaction(rows)
		if err != nil {
			return nil, err
		}
		txs = append(txs, tx)
	}
	return txs, rows.Err()
}

// InsertTransaction adds one record to the ledger.
func InsertTransaction(db *sql.DB, tx models.Transaction) error {
	_, err := db.Exec(`
		INSERT INTO transactions (sequence_id, date, share_name, symbol, kind, count, price, total_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		tx.SequenceID, tx.Date.Format(ledgerDateLayout), tx.ShareName, tx.Symbol,
		string(tx.Kind), tx.Count, tx.Price.String(), tx.TotalAmount.String(),
	)
	if err != nil {
		return fmt.Errorf("error inserting transaction %d: %w", tx.SequenceID, err)
	}
	return nil
}

// ReplaceTransactions swaps the entire ledger for the given records in a
// single database transaction.
func ReplaceTransactions(db *sql.DB, txs []models.Transaction) error {
	dbTx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("error beginning database transaction: %w", err)
	}
	defer dbTx.Rollback()

	if _, err := dbTx.Exec(`DELETE FROM transactions`); err != nil {
		return fmt.Errorf("error clearing transactions: %w", err)
	}

	stmt, err := dbTx.Prepare(`
		INSERT INTO transactions (sequence_id, date, share_name, symbol, kind, count, price, total_amount)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`)
	if err != nil {
		return fmt.Errorf("error preparing insert statement: %w", err)
	}
	defer stmt.Close()

	for _, tx := range txs {
		_, err := stmt.Exec(
			tx.SequenceID, tx.Date.Format(ledgerDateLayout), tx.ShareName, tx.Symbol,
			string(tx.Kind), tx.Count, tx.Price.String(), tx.TotalAmount.String(),
		)
		if err != nil {
			return fmt.Errorf("error inserting transaction %d: %w", tx.SequenceID, err)
		}
	}
	return dbTx.Commit()
}

// DeleteTransaction removes one record by sequence id. Returns the number
// of rows affected so callers can report a missing id.
func DeleteTransaction(db *sql.DB, sequenceID int64) (int64, error) {
	res, err := db.Exec(`DELETE FROM transactions WHERE sequence_id = ?`, sequenceID)
	if err != nil {
		return 0, fmt.Errorf("error deleting transaction %d: %w", sequenceID, err)
	}
	return res.RowsAffected()
}

func scanTransaction(rows *sql.Rows) (models.Transaction, error) {
	var (
		tx       models.Transaction
		dateStr  string
		kindStr  string
		priceStr string
		totalStr string
	)
	if err := rows.Scan(&tx.SequenceID, &dateStr, &tx.ShareName, &tx.Symbol,
		&kindStr, &tx.Count, &priceStr, &totalStr); err != nil {
		return tx, fmt.Errorf("error scanning transaction row: %w", err)
	}

	date, err := time.Parse(ledgerDateLayout, dateStr)
	if err != nil {
		return tx, fmt.Errorf("transaction %d: invalid stored date %q: %w", tx.SequenceID, dateStr, err)
	}
	tx.Date = date

	kind, err := models.ParseTransactionKind(kindStr)
	if err != nil {
		return tx, fmt.Errorf("transaction %d: %w", tx.SequenceID, err)
	}
	tx.Kind = kind

	if tx.Price, err = decimal.NewFromString(priceStr); err != nil {
		return tx, fmt.Errorf("transaction %d: invalid stored price %q: %w", tx.SequenceID, priceStr, err)
	}
	if tx.TotalAmount, err = decimal.NewFromString(totalStr); err != nil {
		return tx, fmt.Errorf("transaction %d: invalid stored total %q: %w", tx.SequenceID, totalStr, err)
	}
	return tx, nil
}
