package service

import (
	"context"
	"fmt"

	"github.com/imagify/imagify/internal/models"
)

// AccountStore is the persistence surface the ledger needs. Debit and Credit
// must apply their conditional update atomically at the storage layer; the
// bool result reports whether a row was mutated.
type AccountStore interface {
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	Debit(ctx context.Context, accountID int64, amount int) (int, bool, error)
	Credit(ctx context.Context, accountID int64, amount int) (int, bool, error)
}

// LedgerService is the single source of truth for credit balances. All
// balance mutations in the system go through Debit and Credit.
type LedgerService struct {
	accounts AccountStore
}

func NewLedgerService(accounts AccountStore) *LedgerService {
	return &LedgerService{accounts: accounts}
}

func (s *LedgerService) GetBalance(ctx context.Context, accountID int64) (int, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return 0, ErrAccountNotFound
	}
	return account.CreditBalance, nil
}

// Debit subtracts amount from the balance, failing with InsufficientCredit
// and no mutation when the balance is too low. The underlying conditional
// update is the sole authority: earlier balance reads are advisory only.
func (s *LedgerService) Debit(ctx context.Context, accountID int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, ok, err := s.accounts.Debit(ctx, accountID, amount)
	if err != nil {
		return 0, err
	}
	if ok {
		return balance, nil
	}
	// No row mutated: either the account is gone or it ran out of credit.
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return 0, fmt.Errorf("find account: %w", err)
	}
	if account == nil {
		return 0, ErrAccountNotFound
	}
	return 0, &InsufficientCreditError{Balance: account.CreditBalance}
}

// Credit adds amount to the balance. Only the payment settler calls this.
func (s *LedgerService) Credit(ctx context.Context, accountID int64, amount int) (int, error) {
	if amount <= 0 {
		return 0, ErrInvalidAmount
	}
	balance, ok, err := s.accounts.Credit(ctx, accountID, amount)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, ErrAccountNotFound
	}
	return balance, nil
}
