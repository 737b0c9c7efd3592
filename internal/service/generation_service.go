package service

import (
	"context"
	"log/slog"
	"strings"

	"github.com/imagify/imagify/internal/clipdrop"
)

// Ledger is the balance authority the generation gate bills against.
type Ledger interface {
	GetBalance(ctx context.Context, accountID int64) (int, error)
	Debit(ctx context.Context, accountID int64, amount int) (int, error)
}

// ImageGenerator is the external rendering provider.
type ImageGenerator interface {
	Generate(ctx context.Context, prompt string) (*clipdrop.Image, error)
}

// GenerationAudit records billed generations. Failures here are logged, not
// surfaced; the audit trail must never undo a completed billing.
type GenerationAudit interface {
	Log(ctx context.Context, accountID int64, prompt string, creditsCharged int) error
}

// generationCost is what one successful render charges.
const generationCost = 1

// GenerationService gates access to the image provider on the credit balance
// and bills exactly one credit per successful render.
type GenerationService struct {
	log      *slog.Logger
	ledger   Ledger
	provider ImageGenerator
	audit    GenerationAudit
}

type GenerationResult struct {
	Image   *clipdrop.Image
	Balance int
}

func NewGenerationService(log *slog.Logger, ledger Ledger, provider ImageGenerator, audit GenerationAudit) *GenerationService {
	return &GenerationService{
		log:      log,
		ledger:   ledger,
		provider: provider,
		audit:    audit,
	}
}

// Generate renders the prompt for the account. The provider is contacted only
// when credit remains, and the debit is applied only after the provider
// succeeds: a failed render never consumes a credit. The debit itself
// re-validates the balance atomically, so the earlier read is a hint only —
// a concurrent request that drains the balance loses here with
// InsufficientCredit, never with a negative balance.
func (s *GenerationService) Generate(ctx context.Context, accountID int64, prompt string) (*GenerationResult, error) {
	if strings.TrimSpace(prompt) == "" {
		return nil, ErrMissingPrompt
	}

	balance, err := s.ledger.GetBalance(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if balance < generationCost {
		return nil, &InsufficientCreditError{Balance: balance}
	}

	image, err := s.provider.Generate(ctx, prompt)
	if err != nil {
		return nil, providerError(err)
	}

	// The render is done and paid for upstream; bill it even if the request
	// context was cancelled in the meantime.
	billCtx := context.WithoutCancel(ctx)
	newBalance, err := s.ledger.Debit(billCtx, accountID, generationCost)
	if err != nil {
		return nil, err
	}

	if err := s.audit.Log(billCtx, accountID, prompt, generationCost); err != nil {
		s.log.Error("failed to log generation", "account_id", accountID, "err", err)
	}

	return &GenerationResult{Image: image, Balance: newBalance}, nil
}
