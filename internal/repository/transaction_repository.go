package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/imagify/imagify/internal/models"
)

type TransactionRepository struct {
	db *sql.DB
}

func NewTransactionRepository(db *sql.DB) *TransactionRepository {
	return &TransactionRepository{db: db}
}

func (r *TransactionRepository) Create(ctx context.Context, txn *models.Transaction) error {
	const query = `
INSERT INTO transactions (account_id, plan_id, credits, amount_minor_units, currency, provider, provider_order_id, receipt, settled)
VALUES (?, ?, ?, ?, ?, ?, NULLIF(?, ''), ?, 0)`
	res, err := r.db.ExecContext(ctx, query, txn.AccountID, txn.PlanID, txn.Credits, txn.AmountMinorUnits, txn.Currency, txn.Provider, txn.ProviderOrderID, txn.Receipt)
	if err != nil {
		return fmt.Errorf("insert transaction: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	txn.ID = id
	return nil
}

// SetProviderOrderID correlates the row with the payment-provider order once
// that order has been created.
func (r *TransactionRepository) SetProviderOrderID(ctx context.Context, txnID int64, providerOrderID string) error {
	const query = `UPDATE transactions SET provider_order_id = ?, updated_at = NOW() WHERE id = ?`
	if _, err := r.db.ExecContext(ctx, query, providerOrderID, txnID); err != nil {
		return fmt.Errorf("set provider order id: %w", err)
	}
	return nil
}

func (r *TransactionRepository) FindByProviderOrder(ctx context.Context, provider, providerOrderID string) (*models.Transaction, error) {
	const query = `
SELECT id, account_id, plan_id, credits, amount_minor_units, currency, provider, COALESCE(provider_order_id, ''), receipt, settled, created_at, updated_at
FROM transactions WHERE provider = ? AND provider_order_id = ? LIMIT 1`
	row := r.db.QueryRowContext(ctx, query, provider, providerOrderID)
	var t models.Transaction
	var settled int
	if err := row.Scan(&t.ID, &t.AccountID, &t.PlanID, &t.Credits, &t.AmountMinorUnits, &t.Currency, &t.Provider, &t.ProviderOrderID, &t.Receipt, &settled, &t.CreatedAt, &t.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan transaction: %w", err)
	}
	t.Settled = settled != 0
	return &t, nil
}

// Settle flips the settlement flag and credits the owning account as one
// database transaction. The conditional flag update is the idempotency guard:
// when another settlement already won, no row is affected, the whole unit is
// rolled back and ok=false is returned.
func (r *TransactionRepository) Settle(ctx context.Context, txnID, accountID int64, credits int) (int, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin settle: %w", err)
	}
	defer tx.Rollback()

	const flag = `UPDATE transactions SET settled = 1, updated_at = NOW() WHERE id = ? AND settled = 0`
	res, err := tx.ExecContext(ctx, flag, txnID)
	if err != nil {
		return 0, false, fmt.Errorf("mark settled: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("settle rows affected: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	const credit = `UPDATE accounts SET credit_balance = credit_balance + ?, updated_at = NOW() WHERE id = ?`
	if _, err := tx.ExecContext(ctx, credit, credits, accountID); err != nil {
		return 0, false, fmt.Errorf("apply credits: %w", err)
	}

	var balance int
	if err := tx.QueryRowContext(ctx, `SELECT credit_balance FROM accounts WHERE id = ?`, accountID).Scan(&balance); err != nil {
		return 0, false, fmt.Errorf("read balance after settle: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit settle: %w", err)
	}
	return balance, true, nil
}
