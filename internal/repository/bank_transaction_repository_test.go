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

func newBankTransactionMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestBankTransactionRepositoryCreateDeposit(t *testing.T) {
	db, mock, cleanup := newBankTransactionMock(t)
	defer cleanup()
	repo := NewBankTransactionRepository(db)

	to := "acc-1"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_balance FROM bank_accounts WHERE id = .* FOR UPDATE").
		WithArgs(to).
		WillReturnRows(sqlmock.NewRows([]string{"current_balance"}).AddRow(100.0))
	mock.ExpectExec("UPDATE bank_accounts SET current_balance = ").
		WithArgs(to, 150.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bank_transactions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	transaction := &models.BankTransaction{
		Type:        models.TransactionTypeDeposit,
		Amount:      50,
		Date:        time.Now(),
		ToAccountID: &to,
	}
	err := repo.Create(context.Background(), transaction)
	require.NoError(t, err)
	require.NotNil(t, transaction.ToBalance)
	assert.Equal(t, money.Amount(150), *transaction.ToBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankTransactionRepositoryCreateTransferSnapshotsBothBalances(t *testing.T) {
	db, mock, cleanup := newBankTransactionMock(t)
	defer cleanup()
	repo := NewBankTransactionRepository(db)

	from, to := "acc-1", "acc-2"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_balance FROM bank_accounts WHERE id = .* FOR UPDATE").
		WithArgs(from).
		WillReturnRows(sqlmock.NewRows([]string{"current_balance"}).AddRow(200.0))
	mock.ExpectExec("UPDATE bank_accounts SET current_balance = ").
		WithArgs(from, 120.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT current_balance FROM bank_accounts WHERE id = .* FOR UPDATE").
		WithArgs(to).
		WillReturnRows(sqlmock.NewRows([]string{"current_balance"}).AddRow(10.0))
	mock.ExpectExec("UPDATE bank_accounts SET current_balance = ").
		WithArgs(to, 90.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bank_transactions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	transaction := &models.BankTransaction{
		Type:          models.TransactionTypeTransfer,
		Amount:        80,
		Date:          time.Now(),
		FromAccountID: &from,
		ToAccountID:   &to,
	}
	err := repo.Create(context.Background(), transaction)
	require.NoError(t, err)
	require.NotNil(t, transaction.FromBalance)
	require.NotNil(t, transaction.ToBalance)
	assert.Equal(t, money.Amount(120), *transaction.FromBalance)
	assert.Equal(t, money.Amount(90), *transaction.ToBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankTransactionRepositoryCreateTransferLocksAccountsInIDOrder(t *testing.T) {
	db, mock, cleanup := newBankTransactionMock(t)
	defer cleanup()
	repo := NewBankTransactionRepository(db)

	// The destination sorts before the source, so its lock is taken first.
	from, to := "acc-9", "acc-1"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_balance FROM bank_accounts WHERE id = .* FOR UPDATE").
		WithArgs(to).
		WillReturnRows(sqlmock.NewRows([]string{"current_balance"}).AddRow(10.0))
	mock.ExpectExec("UPDATE bank_accounts SET current_balance = ").
		WithArgs(to, 90.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectQuery("SELECT current_balance FROM bank_accounts WHERE id = .* FOR UPDATE").
		WithArgs(from).
		WillReturnRows(sqlmock.NewRows([]string{"current_balance"}).AddRow(200.0))
	mock.ExpectExec("UPDATE bank_accounts SET current_balance = ").
		WithArgs(from, 120.0, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("INSERT INTO bank_transactions").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	transaction := &models.BankTransaction{
		Type:          models.TransactionTypeTransfer,
		Amount:        80,
		Date:          time.Now(),
		FromAccountID: &from,
		ToAccountID:   &to,
	}
	err := repo.Create(context.Background(), transaction)
	require.NoError(t, err)
	require.NotNil(t, transaction.FromBalance)
	require.NotNil(t, transaction.ToBalance)
	assert.Equal(t, money.Amount(120), *transaction.FromBalance)
	assert.Equal(t, money.Amount(90), *transaction.ToBalance)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankTransactionRepositoryCreateRejectsOverdraw(t *testing.T) {
	db, mock, cleanup := newBankTransactionMock(t)
	defer cleanup()
	repo := NewBankTransactionRepository(db)

	from := "acc-1"
	mock.ExpectBegin()
	mock.ExpectQuery("SELECT current_balance FROM bank_accounts WHERE id = .* FOR UPDATE").
		WithArgs(from).
		WillReturnRows(sqlmock.NewRows([]string{"current_balance"}).AddRow(30.0))
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.BankTransaction{
		Type:          models.TransactionTypeWithdrawal,
		Amount:        50,
		Date:          time.Now(),
		FromAccountID: &from,
	})
	require.ErrorIs(t, err, ErrInsufficientFunds)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestBankTransactionRepositoryList(t *testing.T) {
	db, mock, cleanup := newBankTransactionMock(t)
	defer cleanup()
	repo := NewBankTransactionRepository(db)

	rows := sqlmock.NewRows([]string{"id", "type", "amount", "date", "from_account_id", "to_account_id", "description", "check_number", "from_balance", "to_balance", "created_at"}).
		AddRow("t1", "deposit", 50.0, time.Now(), nil, "acc-1", nil, nil, nil, 150.0, time.Now())
	mock.ExpectQuery(`FROM bank_transactions WHERE 1=1 AND \(from_account_id = \$1 OR to_account_id = \$1\)`).
		WithArgs("acc-1").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM bank_transactions`).
		WithArgs("acc-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	transactions, total, err := repo.List(context.Background(), models.BankTransactionFilter{AccountID: "acc-1"})
	require.NoError(t, err)
	assert.Len(t, transactions, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
