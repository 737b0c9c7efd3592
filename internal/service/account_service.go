package service

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/imagify/imagify/internal/auth"
	"github.com/imagify/imagify/internal/models"
	"github.com/imagify/imagify/internal/repository"
)

// AccountDirectory is the account lookup/creation surface used by the
// identity flow.
type AccountDirectory interface {
	FindByID(ctx context.Context, id int64) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	Create(ctx context.Context, account *models.Account) error
}

// AccountService produces stable, verified account identities: registration
// with a fixed starting balance, and login. Everything past the token is the
// ledger's business.
type AccountService struct {
	accounts        AccountDirectory
	tokens          *auth.Manager
	startingCredits int
}

func NewAccountService(accounts AccountDirectory, tokens *auth.Manager, startingCredits int) *AccountService {
	return &AccountService{
		accounts:        accounts,
		tokens:          tokens,
		startingCredits: startingCredits,
	}
}

// Register creates an account with the starting credit balance and returns a
// signed token for it.
func (s *AccountService) Register(ctx context.Context, name, email, password string) (*models.Account, string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(strings.ToLower(email))
	if name == "" || email == "" || password == "" {
		return nil, "", ErrInvalidInput
	}

	existing, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if existing != nil {
		return nil, "", ErrEmailTaken
	}

	hash, err := auth.HashPassword(password)
	if err != nil {
		return nil, "", err
	}

	account := &models.Account{
		Name:          name,
		Email:         email,
		PasswordHash:  hash,
		CreditBalance: s.startingCredits,
	}
	if err := s.accounts.Create(ctx, account); err != nil {
		if errors.Is(err, repository.ErrDuplicateEmail) {
			return nil, "", ErrEmailTaken
		}
		return nil, "", fmt.Errorf("create account: %w", err)
	}

	token, err := s.tokens.IssueToken(account.ID)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Login verifies the credentials and returns a signed token.
func (s *AccountService) Login(ctx context.Context, email, password string) (*models.Account, string, error) {
	email = strings.TrimSpace(strings.ToLower(email))
	if email == "" || password == "" {
		return nil, "", ErrInvalidInput
	}

	account, err := s.accounts.FindByEmail(ctx, email)
	if err != nil {
		return nil, "", err
	}
	if account == nil {
		return nil, "", ErrAccountNotFound
	}
	if !auth.CheckPassword(account.PasswordHash, password) {
		return nil, "", ErrInvalidCredentials
	}

	token, err := s.tokens.IssueToken(account.ID)
	if err != nil {
		return nil, "", err
	}
	return account, token, nil
}

// Get returns the account for a verified id.
func (s *AccountService) Get(ctx context.Context, accountID int64) (*models.Account, error) {
	account, err := s.accounts.FindByID(ctx, accountID)
	if err != nil {
		return nil, err
	}
	if account == nil {
		return nil, ErrAccountNotFound
	}
	return account, nil
}
