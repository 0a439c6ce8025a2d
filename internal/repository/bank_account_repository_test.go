package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talim-board/admin-api/internal/models"
	"github.com/talim-board/admin-api/pkg/money"
)

func newBankAccountMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBankAccountRepositoryCreateSeedsCurrentBalance(t *testing.T) {
	db, mock, cleanup := newBankAccountMock(t)
	defer cleanup()
	repo := NewBankAccountRepository(db)

	mock.ExpectExec("INSERT INTO bank_accounts").
		WillReturnResult(sqlmock.NewResult(1, 1))

	account := &models.BankAccount{
		AccountName:    "General Fund",
		AccountNumber:  "0123456789",
		BankName:       "Islami Bank",
		BranchName:     "Motijheel",
		AccountType:    models.BankAccountTypeCurrent,
		OpeningDate:    time.Now(),
		OpeningBalance: 5000,
		Active:         true,
	}
	err := repo.Create(context.Background(), account)
	require.NoError(t, err)
	assert.Equal(t, money.Amount(5000), account.CurrentBalance)
	assert.NotEmpty(t, account.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankAccountRepositoryExistsByAccountNumberExcludesSelf(t *testing.T) {
	db, mock, cleanup := newBankAccountMock(t)
	defer cleanup()
	repo := NewBankAccountRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM bank_accounts WHERE account_number = \$1 AND id <> \$2 LIMIT 1`).
		WithArgs("0123456789", "acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}))

	exists, err := repo.ExistsByAccountNumber(context.Background(), "0123456789", "acc-1")
	require.NoError(t, err)
	assert.False(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankAccountRepositoryUpdateNeverTouchesBalances(t *testing.T) {
	db, mock, cleanup := newBankAccountMock(t)
	defer cleanup()
	repo := NewBankAccountRepository(db)

	mock.ExpectExec(`UPDATE bank_accounts SET account_name = (.+) updated_at = (.+) WHERE id = `).
		WillReturnResult(sqlmock.NewResult(0, 1))

	account := &models.BankAccount{
		ID:            "acc-1",
		AccountName:   "General Fund",
		AccountNumber: "0123456789",
		BankName:      "Islami Bank",
		BranchName:    "Motijheel",
		AccountType:   models.BankAccountTypeSavings,
		Active:        true,
	}
	err := repo.Update(context.Background(), account)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankAccountRepositoryTotalBalance(t *testing.T) {
	db, mock, cleanup := newBankAccountMock(t)
	defer cleanup()
	repo := NewBankAccountRepository(db)

	mock.ExpectQuery(`SELECT COALESCE\(SUM\(current_balance\), 0\) FROM bank_accounts WHERE active = TRUE`).
		WillReturnRows(sqlmock.NewRows([]string{"total"}).AddRow(12345.5))

	total, err := repo.TotalBalance(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 12345.5, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
