package models

import "time"

type Account struct {
	ID            int64
	Name          string
	Email         string
	PasswordHash  string
	CreditBalance int
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Transaction records a payment-for-credits event. Settled transitions
// false -> true at most once; credits hit the ledger iff Settled is true.
type Transaction struct {
	ID               int64
	AccountID        int64
	PlanID           string
	Credits          int
	AmountMinorUnits int
	Currency         string
	Provider         string
	ProviderOrderID  string
	Receipt          string
	Settled          bool
	CreatedAt        time.Time
	UpdatedAt        time.Time
}

// Plan maps a purchasable tier to its credits and price. Plans are static
// configuration, not stored rows.
type Plan struct {
	ID               string
	Credits          int
	AmountMinorUnits int
}

type GenerationLog struct {
	ID             int64
	AccountID      int64
	Prompt         string
	CreditsCharged int
	CreatedAt      time.Time
}
