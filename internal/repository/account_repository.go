package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/go-sql-driver/mysql"

	"github.com/imagify/imagify/internal/models"
)

// ErrDuplicateEmail reports an insert that collided with the unique email index.
var ErrDuplicateEmail = errors.New("email already registered")

type AccountRepository struct {
	db *sql.DB
}

func NewAccountRepository(db *sql.DB) *AccountRepository {
	return &AccountRepository{db: db}
}

func (r *AccountRepository) FindByID(ctx context.Context, id int64) (*models.Account, error) {
	const query = `
SELECT id, name, email, password_hash, credit_balance, created_at, updated_at
FROM accounts WHERE id = ?`
	row := r.db.QueryRowContext(ctx, query, id)
	return scanAccount(row)
}

func (r *AccountRepository) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	const query = `
SELECT id, name, email, password_hash, credit_balance, created_at, updated_at
FROM accounts WHERE email = ?`
	row := r.db.QueryRowContext(ctx, query, email)
	return scanAccount(row)
}

func scanAccount(row *sql.Row) (*models.Account, error) {
	var a models.Account
	if err := row.Scan(&a.ID, &a.Name, &a.Email, &a.PasswordHash, &a.CreditBalance, &a.CreatedAt, &a.UpdatedAt); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, fmt.Errorf("scan account: %w", err)
	}
	return &a, nil
}

func (r *AccountRepository) Create(ctx context.Context, account *models.Account) error {
	const query = `
INSERT INTO accounts (name, email, password_hash, credit_balance)
VALUES (?, ?, ?, ?)`
	res, err := r.db.ExecContext(ctx, query, account.Name, account.Email, account.PasswordHash, account.CreditBalance)
	if err != nil {
		var mysqlErr *mysql.MySQLError
		if errors.As(err, &mysqlErr) && mysqlErr.Number == 1062 {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("insert account: %w", err)
	}
	id, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("last insert id: %w", err)
	}
	account.ID = id
	return nil
}

// Debit atomically subtracts amount from the balance, refusing to go below
// zero. The conditional UPDATE is the single authority on whether credit
// remains; returns ok=false with no mutation when balance < amount (or the
// account is absent).
func (r *AccountRepository) Debit(ctx context.Context, accountID int64, amount int) (int, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin debit: %w", err)
	}
	defer tx.Rollback()

	const update = `
UPDATE accounts SET credit_balance = credit_balance - ?, updated_at = NOW()
WHERE id = ? AND credit_balance >= ?`
	res, err := tx.ExecContext(ctx, update, amount, accountID, amount)
	if err != nil {
		return 0, false, fmt.Errorf("debit account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("debit rows affected: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	var balance int
	if err := tx.QueryRowContext(ctx, `SELECT credit_balance FROM accounts WHERE id = ?`, accountID).Scan(&balance); err != nil {
		return 0, false, fmt.Errorf("read balance after debit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit debit: %w", err)
	}
	return balance, true, nil
}

// Credit atomically adds amount to the balance. Returns ok=false when the
// account does not exist.
func (r *AccountRepository) Credit(ctx context.Context, accountID int64, amount int) (int, bool, error) {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, false, fmt.Errorf("begin credit: %w", err)
	}
	defer tx.Rollback()

	const update = `
UPDATE accounts SET credit_balance = credit_balance + ?, updated_at = NOW()
WHERE id = ?`
	res, err := tx.ExecContext(ctx, update, amount, accountID)
	if err != nil {
		return 0, false, fmt.Errorf("credit account: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return 0, false, fmt.Errorf("credit rows affected: %w", err)
	}
	if affected == 0 {
		return 0, false, nil
	}

	var balance int
	if err := tx.QueryRowContext(ctx, `SELECT credit_balance FROM accounts WHERE id = ?`, accountID).Scan(&balance); err != nil {
		return 0, false, fmt.Errorf("read balance after credit: %w", err)
	}
	if err := tx.Commit(); err != nil {
		return 0, false, fmt.Errorf("commit credit: %w", err)
	}
	return balance, true, nil
}
