package service

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talim-board/admin-api/internal/models"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
	"github.com/talim-board/admin-api/pkg/money"
)

type stubStatementTxRepo struct {
	transactions []models.BankTransaction
	lastFilter   models.BankTransactionFilter
}

func (s *stubStatementTxRepo) List(_ context.Context, filter models.BankTransactionFilter) ([]models.BankTransaction, int, error) {
	s.lastFilter = filter
	return s.transactions, len(s.transactions), nil
}

type stubStatementAccountRepo struct {
	account *models.BankAccount
	err     error
}

func (s *stubStatementAccountRepo) FindByID(context.Context, string) (*models.BankAccount, error) {
	if s.err != nil {
		return nil, s.err
	}
	return s.account, nil
}

func TestStatementServiceExportCSV(t *testing.T) {
	accountID := "acc-1"
	otherID := "acc-2"
	fromBalance := money.Amount(4500)
	toBalance := money.Amount(10500)
	desc := "office rent"

	txRepo := &stubStatementTxRepo{transactions: []models.BankTransaction{
		{
			ID:          "tx-1",
			Type:        models.TransactionTypeDeposit,
			Amount:      500,
			Date:        time.Date(2026, 3, 1, 0, 0, 0, 0, time.UTC),
			ToAccountID: &accountID,
			ToBalance:   &toBalance,
		},
		{
			ID:            "tx-2",
			Type:          models.TransactionTypeTransfer,
			Amount:        5500,
			Date:          time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC),
			FromAccountID: &accountID,
			ToAccountID:   &otherID,
			FromBalance:   &fromBalance,
			Description:   &desc,
		},
	}}
	accountRepo := &stubStatementAccountRepo{account: &models.BankAccount{
		ID:            accountID,
		AccountName:   "General Fund",
		AccountNumber: "100200300",
	}}

	svc := NewStatementService(txRepo, accountRepo, nil)
	statement, err := svc.Export(context.Background(), accountID, nil, nil, StatementFormatCSV)
	require.NoError(t, err)

	assert.Equal(t, "text/csv", statement.ContentType)
	assert.True(t, strings.HasPrefix(statement.Filename, "statement-100200300-"))

	body := string(statement.Content)
	assert.Contains(t, body, "Date,Type,Description,Check No,Amount,Balance")
	assert.Contains(t, body, "2026-03-01,deposit")
	assert.Contains(t, body, "10,500.00")
	// outgoing transfer shows a negative amount and the source snapshot
	assert.Contains(t, body, "-5,500.00")
	assert.Contains(t, body, "4,500.00")
	assert.Contains(t, body, "office rent")

	assert.Equal(t, "ASC", txRepo.lastFilter.SortOrder)
	assert.Equal(t, accountID, txRepo.lastFilter.AccountID)
}

func TestStatementServiceExportUnknownAccount(t *testing.T) {
	svc := NewStatementService(&stubStatementTxRepo{}, &stubStatementAccountRepo{err: errors.New("no rows")}, nil)

	_, err := svc.Export(context.Background(), "missing", nil, nil, StatementFormatCSV)
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestStatementServiceExportPDF(t *testing.T) {
	accountID := "acc-1"
	svc := NewStatementService(&stubStatementTxRepo{}, &stubStatementAccountRepo{account: &models.BankAccount{
		ID:            accountID,
		AccountName:   "General Fund",
		AccountNumber: "100200300",
	}}, nil)

	statement, err := svc.Export(context.Background(), accountID, nil, nil, StatementFormatPDF)
	require.NoError(t, err)
	assert.Equal(t, "application/pdf", statement.ContentType)
	assert.True(t, strings.HasSuffix(statement.Filename, ".pdf"))
	assert.NotEmpty(t, statement.Content)
}
