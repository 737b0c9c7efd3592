package service

import (
	"errors"
	"fmt"
)

// Error taxonomy for the credit accounting and settlement core. Handlers map
// these onto HTTP responses; nothing below leaks internal detail to clients.
var (
	ErrAccountNotFound     = errors.New("account not found")
	ErrInsufficientCredit  = errors.New("insufficient credit balance")
	ErrInvalidAmount       = errors.New("amount must be positive")
	ErrInvalidInput        = errors.New("missing or malformed input")
	ErrMissingPrompt       = errors.New("prompt is required")
	ErrUnknownPlan         = errors.New("unknown plan")
	ErrTransactionNotFound = errors.New("transaction not found for provider order")
	ErrAlreadySettled      = errors.New("transaction already settled")
	ErrPaymentNotCompleted = errors.New("payment not completed")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid credentials")
	ErrProvider            = errors.New("upstream provider failure")
)

// InsufficientCreditError carries the remaining balance so the client can
// surface it and redirect to the purchase flow. errors.Is matches it against
// ErrInsufficientCredit.
type InsufficientCreditError struct {
	Balance int
}

func (e *InsufficientCreditError) Error() string {
	return fmt.Sprintf("insufficient credit balance: %d remaining", e.Balance)
}

func (e *InsufficientCreditError) Is(target error) bool {
	return target == ErrInsufficientCredit
}

func providerError(err error) error {
	return fmt.Errorf("%w: %v", ErrProvider, err)
}
