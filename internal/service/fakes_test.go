package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/imagify/imagify/internal/clipdrop"
	"github.com/imagify/imagify/internal/models"
	"github.com/imagify/imagify/internal/razorpay"
)

// fakeAccounts is an in-memory AccountStore/AccountDirectory whose Debit and
// Credit mirror the storage layer's atomic conditional updates.
type fakeAccounts struct {
	mu       sync.Mutex
	seq      int64
	accounts map[int64]*models.Account
}

func newFakeAccounts() *fakeAccounts {
	return &fakeAccounts{accounts: make(map[int64]*models.Account)}
}

func (f *fakeAccounts) add(name, email string, balance int) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	f.accounts[f.seq] = &models.Account{
		ID:            f.seq,
		Name:          name,
		Email:         email,
		CreditBalance: balance,
	}
	return f.seq
}

func (f *fakeAccounts) balance(id int64) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.accounts[id].CreditBalance
}

func (f *fakeAccounts) FindByID(_ context.Context, id int64) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[id]
	if !ok {
		return nil, nil
	}
	cp := *a
	return &cp, nil
}

func (f *fakeAccounts) FindByEmail(_ context.Context, email string) (*models.Account, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, a := range f.accounts {
		if a.Email == email {
			cp := *a
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeAccounts) Create(_ context.Context, account *models.Account) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	account.ID = f.seq
	cp := *account
	f.accounts[f.seq] = &cp
	return nil
}

func (f *fakeAccounts) Debit(_ context.Context, accountID int64, amount int) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok || a.CreditBalance < amount {
		return 0, false, nil
	}
	a.CreditBalance -= amount
	return a.CreditBalance, true, nil
}

func (f *fakeAccounts) Credit(_ context.Context, accountID int64, amount int) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	a, ok := f.accounts[accountID]
	if !ok {
		return 0, false, nil
	}
	a.CreditBalance += amount
	return a.CreditBalance, true, nil
}

// fakeTxns is an in-memory TransactionStore/SettlementStore. Settle holds the
// same lock for the flag flip and the credit, modeling the repository's
// single database transaction.
type fakeTxns struct {
	mu       sync.Mutex
	seq      int64
	txns     map[int64]*models.Transaction
	accounts *fakeAccounts
}

func newFakeTxns(accounts *fakeAccounts) *fakeTxns {
	return &fakeTxns{txns: make(map[int64]*models.Transaction), accounts: accounts}
}

func (f *fakeTxns) Create(_ context.Context, txn *models.Transaction) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.seq++
	txn.ID = f.seq
	cp := *txn
	f.txns[f.seq] = &cp
	return nil
}

func (f *fakeTxns) SetProviderOrderID(_ context.Context, txnID int64, providerOrderID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.txns[txnID]
	if !ok {
		return fmt.Errorf("transaction %d not found", txnID)
	}
	t.ProviderOrderID = providerOrderID
	return nil
}

func (f *fakeTxns) FindByProviderOrder(_ context.Context, provider, providerOrderID string) (*models.Transaction, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, t := range f.txns {
		if t.Provider == provider && t.ProviderOrderID == providerOrderID && providerOrderID != "" {
			cp := *t
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakeTxns) Settle(_ context.Context, txnID, accountID int64, credits int) (int, bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.txns[txnID]
	if !ok || t.Settled {
		return 0, false, nil
	}
	t.Settled = true
	f.accounts.mu.Lock()
	defer f.accounts.mu.Unlock()
	a, ok := f.accounts.accounts[accountID]
	if !ok {
		return 0, false, fmt.Errorf("account %d not found", accountID)
	}
	a.CreditBalance += credits
	return a.CreditBalance, true, nil
}

func (f *fakeTxns) get(txnID int64) models.Transaction {
	f.mu.Lock()
	defer f.mu.Unlock()
	return *f.txns[txnID]
}

// fakeGenerator is an ImageGenerator that counts calls and can be forced to
// fail.
type fakeGenerator struct {
	mu    sync.Mutex
	calls int
	err   error
}

func (f *fakeGenerator) Generate(_ context.Context, prompt string) (*clipdrop.Image, error) {
	f.mu.Lock()
	f.calls++
	f.mu.Unlock()
	if f.err != nil {
		return nil, f.err
	}
	return &clipdrop.Image{Bytes: []byte("fake-png-" + prompt), Mime: "image/png"}, nil
}

func (f *fakeGenerator) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls
}

type fakeAudit struct {
	mu      sync.Mutex
	entries int
	err     error
}

func (f *fakeAudit) Log(_ context.Context, _ int64, _ string, _ int) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.entries++
	return nil
}

// fakePaymentAPI is an in-memory payment provider implementing both
// OrderCreator and OrderFetcher.
type fakePaymentAPI struct {
	mu        sync.Mutex
	seq       int
	orders    map[string]*razorpay.Order
	createErr error
	fetchErr  error
}

func newFakePaymentAPI() *fakePaymentAPI {
	return &fakePaymentAPI{orders: make(map[string]*razorpay.Order)}
}

func (f *fakePaymentAPI) CreateOrder(_ context.Context, amountMinorUnits int, currency, receipt string) (*razorpay.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.seq++
	order := &razorpay.Order{
		ID:       fmt.Sprintf("order_%03d", f.seq),
		Amount:   amountMinorUnits,
		Currency: currency,
		Receipt:  receipt,
		Status:   razorpay.StatusCreated,
	}
	f.orders[order.ID] = order
	return order, nil
}

func (f *fakePaymentAPI) FetchOrder(_ context.Context, orderID string) (*razorpay.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fetchErr != nil {
		return nil, f.fetchErr
	}
	order, ok := f.orders[orderID]
	if !ok {
		return nil, fmt.Errorf("order %s not found", orderID)
	}
	cp := *order
	return &cp, nil
}

func (f *fakePaymentAPI) markPaid(orderID string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.orders[orderID].Status = razorpay.StatusPaid
}
