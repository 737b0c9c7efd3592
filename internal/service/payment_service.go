package service

import (
	"context"
	"log/slog"

	"github.com/imagify/imagify/internal/models"
	"github.com/imagify/imagify/internal/razorpay"
)

// OrderFetcher reads the provider-side state of a payment order.
type OrderFetcher interface {
	FetchOrder(ctx context.Context, orderID string) (*razorpay.Order, error)
}

// SettlementStore looks up transactions by provider order and applies the
// settlement. Settle must flip the flag and credit the account as one atomic
// unit, reporting ok=false when the flag was already set.
type SettlementStore interface {
	FindByProviderOrder(ctx context.Context, provider, providerOrderID string) (*models.Transaction, error)
	Settle(ctx context.Context, txnID, accountID int64, credits int) (int, bool, error)
}

// PaymentService verifies completed payments and credits the ledger exactly
// once per transaction.
type PaymentService struct {
	log      *slog.Logger
	provider OrderFetcher
	txns     SettlementStore
}

type SettlementResult struct {
	Credited bool
	Credits  int
	Balance  int
}

func NewPaymentService(log *slog.Logger, provider OrderFetcher, txns SettlementStore) *PaymentService {
	return &PaymentService{
		log:      log,
		provider: provider,
		txns:     txns,
	}
}

// VerifyAndSettle checks the order with the payment provider and, if it is
// paid and not yet settled, credits the owning account. Verifying the same
// paid order twice credits it only once: the second call fails with
// AlreadySettled and mutates nothing.
func (s *PaymentService) VerifyAndSettle(ctx context.Context, providerOrderID string) (*SettlementResult, error) {
	if providerOrderID == "" {
		return nil, ErrInvalidInput
	}

	order, err := s.provider.FetchOrder(ctx, providerOrderID)
	if err != nil {
		return nil, providerError(err)
	}
	if order.Status != razorpay.StatusPaid {
		return &SettlementResult{Credited: false}, ErrPaymentNotCompleted
	}

	txn, err := s.txns.FindByProviderOrder(ctx, paymentProvider, providerOrderID)
	if err != nil {
		return nil, err
	}
	if txn == nil {
		// A paid order we never issued: data inconsistency, not a user error.
		s.log.Error("no transaction for paid provider order", "provider_order_id", providerOrderID)
		return nil, ErrTransactionNotFound
	}
	if txn.Settled {
		return &SettlementResult{Credited: false}, ErrAlreadySettled
	}

	balance, ok, err := s.txns.Settle(ctx, txn.ID, txn.AccountID, txn.Credits)
	if err != nil {
		return nil, err
	}
	if !ok {
		// A concurrent settlement of the same order won the conditional update.
		return &SettlementResult{Credited: false}, ErrAlreadySettled
	}

	s.log.Info("payment settled", "transaction_id", txn.ID, "account_id", txn.AccountID, "credits", txn.Credits)
	return &SettlementResult{Credited: true, Credits: txn.Credits, Balance: balance}, nil
}
