package service

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/google/uuid"

	"github.com/imagify/imagify/internal/models"
	"github.com/imagify/imagify/internal/razorpay"
)

const paymentProvider = "razorpay"

// OrderCreator opens an order with the payment provider.
type OrderCreator interface {
	CreateOrder(ctx context.Context, amountMinorUnits int, currency, receipt string) (*razorpay.Order, error)
}

// TransactionStore persists pending transactions for later settlement.
type TransactionStore interface {
	Create(ctx context.Context, txn *models.Transaction) error
	SetProviderOrderID(ctx context.Context, txnID int64, providerOrderID string) error
}

// OrderService issues payment orders: it records an unsettled transaction for
// the chosen plan, then opens a provider order correlated to it. Repeated
// calls are not idempotent; an abandoned order simply stays unsettled.
type OrderService struct {
	log      *slog.Logger
	plans    map[string]models.Plan
	currency string
	ledger   *LedgerService
	txns     TransactionStore
	provider OrderCreator
}

// OrderHandle is what the client needs to run the checkout and verify it.
type OrderHandle struct {
	ProviderOrderID  string
	TransactionID    int64
	PlanID           string
	Credits          int
	AmountMinorUnits int
	Currency         string
}

func NewOrderService(log *slog.Logger, plans map[string]models.Plan, currency string, ledger *LedgerService, txns TransactionStore, provider OrderCreator) *OrderService {
	return &OrderService{
		log:      log,
		plans:    plans,
		currency: currency,
		ledger:   ledger,
		txns:     txns,
		provider: provider,
	}
}

func (s *OrderService) CreateOrder(ctx context.Context, accountID int64, planID string) (*OrderHandle, error) {
	plan, ok := s.plans[planID]
	if !ok {
		return nil, ErrUnknownPlan
	}

	if _, err := s.ledger.GetBalance(ctx, accountID); err != nil {
		return nil, err
	}

	txn := &models.Transaction{
		AccountID:        accountID,
		PlanID:           plan.ID,
		Credits:          plan.Credits,
		AmountMinorUnits: plan.AmountMinorUnits,
		Currency:         s.currency,
		Provider:         paymentProvider,
		Receipt:          uuid.NewString(),
	}
	if err := s.txns.Create(ctx, txn); err != nil {
		return nil, fmt.Errorf("record transaction: %w", err)
	}

	order, err := s.provider.CreateOrder(ctx, plan.AmountMinorUnits, s.currency, txn.Receipt)
	if err != nil {
		// The transaction stays unsettled and is never credited; a later
		// retry creates a fresh one.
		s.log.Error("provider order failed", "transaction_id", txn.ID, "err", err)
		return nil, providerError(err)
	}

	if err := s.txns.SetProviderOrderID(ctx, txn.ID, order.ID); err != nil {
		return nil, fmt.Errorf("correlate provider order: %w", err)
	}

	return &OrderHandle{
		ProviderOrderID:  order.ID,
		TransactionID:    txn.ID,
		PlanID:           plan.ID,
		Credits:          plan.Credits,
		AmountMinorUnits: plan.AmountMinorUnits,
		Currency:         s.currency,
	}, nil
}
