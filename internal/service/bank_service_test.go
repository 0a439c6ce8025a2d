package service

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talim-board/admin-api/internal/models"
	"github.com/talim-board/admin-api/internal/repository"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
	"github.com/talim-board/admin-api/pkg/money"
)

type bankAccountRepoStub struct {
	accounts    map[string]models.BankAccount
	numberTaken bool
	created     []models.BankAccount
	updated     []models.BankAccount
	deactivated []string
}

func (s *bankAccountRepoStub) List(ctx context.Context, filter models.BankAccountFilter) ([]models.BankAccount, int, error) {
	var out []models.BankAccount
	for _, account := range s.accounts {
		out = append(out, account)
	}
	return out, len(out), nil
}

func (s *bankAccountRepoStub) FindByID(ctx context.Context, id string) (*models.BankAccount, error) {
	if account, ok := s.accounts[id]; ok {
		return &account, nil
	}
	return nil, sql.ErrNoRows
}

func (s *bankAccountRepoStub) ExistsByAccountNumber(ctx context.Context, accountNumber, excludeID string) (bool, error) {
	return s.numberTaken, nil
}

func (s *bankAccountRepoStub) Create(ctx context.Context, account *models.BankAccount) error {
	account.ID = "acc-new"
	account.CurrentBalance = account.OpeningBalance
	s.created = append(s.created, *account)
	return nil
}

func (s *bankAccountRepoStub) Update(ctx context.Context, account *models.BankAccount) error {
	s.updated = append(s.updated, *account)
	return nil
}

func (s *bankAccountRepoStub) Deactivate(ctx context.Context, id string) error {
	s.deactivated = append(s.deactivated, id)
	return nil
}

type bankTransactionRepoStub struct {
	created []models.BankTransaction
	err     error
}

func (s *bankTransactionRepoStub) List(ctx context.Context, filter models.BankTransactionFilter) ([]models.BankTransaction, int, error) {
	return nil, 0, nil
}

func (s *bankTransactionRepoStub) Create(ctx context.Context, transaction *models.BankTransaction) error {
	if s.err != nil {
		return s.err
	}
	transaction.ID = "txn-new"
	s.created = append(s.created, *transaction)
	return nil
}

func activeAccounts(ids ...string) map[string]models.BankAccount {
	out := make(map[string]models.BankAccount, len(ids))
	for _, id := range ids {
		out[id] = models.BankAccount{ID: id, AccountNumber: "n-" + id, Active: true}
	}
	return out
}

func validAccountRequest() CreateBankAccountRequest {
	return CreateBankAccountRequest{
		AccountName:    "General Fund",
		AccountNumber:  "0123456789",
		BankName:       "Islami Bank",
		BranchName:     "Motijheel",
		AccountType:    models.BankAccountTypeCurrent,
		OpeningDate:    time.Now(),
		OpeningBalance: "12,345.00",
	}
}

func TestBankAccountServiceCreateParsesGroupedBalance(t *testing.T) {
	repo := &bankAccountRepoStub{}
	svc := NewBankAccountService(repo, nil, 0, nil, nil)

	account, err := svc.Create(context.Background(), validAccountRequest())
	require.NoError(t, err)
	assert.Equal(t, money.Amount(12345), account.OpeningBalance)
	assert.Equal(t, money.Amount(12345), account.CurrentBalance)
}

func TestBankAccountServiceBalancesMarshalAsGroupedStrings(t *testing.T) {
	repo := &bankAccountRepoStub{}
	svc := NewBankAccountService(repo, nil, 0, nil, nil)

	account, err := svc.Create(context.Background(), validAccountRequest())
	require.NoError(t, err)

	body, err := json.Marshal(account)
	require.NoError(t, err)
	assert.Contains(t, string(body), `"opening_balance":"12,345.00"`)
	assert.Contains(t, string(body), `"current_balance":"12,345.00"`)
}

func TestBankAccountServiceCreateRejectsDuplicateNumber(t *testing.T) {
	repo := &bankAccountRepoStub{numberTaken: true}
	svc := NewBankAccountService(repo, nil, 0, nil, nil)

	_, err := svc.Create(context.Background(), validAccountRequest())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "account_number", appErr.Field)
	assert.Empty(t, repo.created)
}

func TestBankAccountServiceCreateRejectsBadBalance(t *testing.T) {
	repo := &bankAccountRepoStub{}
	svc := NewBankAccountService(repo, nil, 0, nil, nil)

	req := validAccountRequest()
	req.OpeningBalance = "lots of money"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Empty(t, repo.created)
}

func TestBankTransactionServiceRejectsNonPositiveAmounts(t *testing.T) {
	accounts := &bankAccountRepoStub{accounts: activeAccounts("acc-1")}
	repo := &bankTransactionRepoStub{}
	svc := NewBankTransactionService(repo, accounts, nil, 0, nil, nil)

	to := "acc-1"
	for _, amount := range []string{"0", "0.00", "-5"} {
		_, err := svc.Create(context.Background(), CreateBankTransactionRequest{
			Type:        models.TransactionTypeDeposit,
			Amount:      amount,
			Date:        time.Now(),
			ToAccountID: &to,
		})
		require.Error(t, err, "amount %s", amount)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
		assert.Equal(t, "amount", appErr.Field)
	}
	assert.Empty(t, repo.created)
}

func TestBankTransactionServiceAcceptsAmountOfOne(t *testing.T) {
	accounts := &bankAccountRepoStub{accounts: activeAccounts("acc-1")}
	repo := &bankTransactionRepoStub{}
	svc := NewBankTransactionService(repo, accounts, nil, 0, nil, nil)

	to := "acc-1"
	transaction, err := svc.Create(context.Background(), CreateBankTransactionRequest{
		Type:        models.TransactionTypeDeposit,
		Amount:      "1",
		Date:        time.Now(),
		ToAccountID: &to,
	})
	require.NoError(t, err)
	assert.Equal(t, money.Amount(1), transaction.Amount)
	assert.Len(t, repo.created, 1)
}

func TestBankTransactionServiceRejectsSelfTransferBeforeRepo(t *testing.T) {
	accounts := &bankAccountRepoStub{accounts: activeAccounts("acc-1")}
	repo := &bankTransactionRepoStub{}
	svc := NewBankTransactionService(repo, accounts, nil, 0, nil, nil)

	id := "acc-1"
	_, err := svc.Create(context.Background(), CreateBankTransactionRequest{
		Type:          models.TransactionTypeTransfer,
		Amount:        "10",
		Date:          time.Now(),
		FromAccountID: &id,
		ToAccountID:   &id,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "to_account_id", appErr.Field)
	assert.Empty(t, repo.created)
}

func TestBankTransactionServiceMapsInsufficientFunds(t *testing.T) {
	accounts := &bankAccountRepoStub{accounts: activeAccounts("acc-1")}
	repo := &bankTransactionRepoStub{err: repository.ErrInsufficientFunds}
	svc := NewBankTransactionService(repo, accounts, nil, 0, nil, nil)

	from := "acc-1"
	_, err := svc.Create(context.Background(), CreateBankTransactionRequest{
		Type:          models.TransactionTypeWithdrawal,
		Amount:        "1,000.00",
		Date:          time.Now(),
		FromAccountID: &from,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "amount", appErr.Field)
}

func TestBankTransactionServiceRequiresAccountsPerType(t *testing.T) {
	accounts := &bankAccountRepoStub{accounts: activeAccounts("acc-1")}
	repo := &bankTransactionRepoStub{}
	svc := NewBankTransactionService(repo, accounts, nil, 0, nil, nil)

	_, err := svc.Create(context.Background(), CreateBankTransactionRequest{
		Type:   models.TransactionTypeDeposit,
		Amount: "10",
		Date:   time.Now(),
	})
	require.Error(t, err)

	_, err = svc.Create(context.Background(), CreateBankTransactionRequest{
		Type:   models.TransactionTypeWithdrawal,
		Amount: "10",
		Date:   time.Now(),
	})
	require.Error(t, err)
	assert.Empty(t, repo.created)
}
