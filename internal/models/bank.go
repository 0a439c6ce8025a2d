package models

import (
	"time"

	"github.com/talim-board/admin-api/pkg/money"
)

// BankAccountType distinguishes the board's account kinds.
type BankAccountType string

const (
	BankAccountTypeCurrent BankAccountType = "current"
	BankAccountTypeSavings BankAccountType = "savings"
)

// BankAccount represents one of the board's bank accounts. The opening
// date and balance never change after creation; the current balance is
// mutated only through transactions.
type BankAccount struct {
	ID             string          `db:"id" json:"id"`
	AccountName    string          `db:"account_name" json:"account_name"`
	AccountNumber  string          `db:"account_number" json:"account_number"`
	BankName       string          `db:"bank_name" json:"bank_name"`
	BranchName     string          `db:"branch_name" json:"branch_name"`
	AccountType    BankAccountType `db:"account_type" json:"account_type"`
	OpeningDate    time.Time       `db:"opening_date" json:"opening_date"`
	OpeningBalance money.Amount    `db:"opening_balance" json:"opening_balance"`
	CurrentBalance money.Amount    `db:"current_balance" json:"current_balance"`
	Active         bool            `db:"active" json:"active"`
	CreatedAt      time.Time       `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time       `db:"updated_at" json:"updated_at"`
}

// TransactionType classifies bank transactions.
type TransactionType string

const (
	TransactionTypeDeposit    TransactionType = "deposit"
	TransactionTypeWithdrawal TransactionType = "withdrawal"
	TransactionTypeTransfer   TransactionType = "transfer"
)

// BankTransaction records a single movement of money. FromAccountID is set
// for withdrawals and transfers, ToAccountID for deposits and transfers.
// The balance snapshots capture the affected accounts' balances after the
// transaction applied.
type BankTransaction struct {
	ID            string          `db:"id" json:"id"`
	Type          TransactionType `db:"type" json:"type"`
	Amount        money.Amount    `db:"amount" json:"amount"`
	Date          time.Time       `db:"date" json:"date"`
	FromAccountID *string         `db:"from_account_id" json:"from_account_id,omitempty"`
	ToAccountID   *string         `db:"to_account_id" json:"to_account_id,omitempty"`
	Description   *string         `db:"description" json:"description,omitempty"`
	CheckNumber   *string         `db:"check_number" json:"check_number,omitempty"`
	FromBalance   *money.Amount   `db:"from_balance" json:"from_balance,omitempty"`
	ToBalance     *money.Amount   `db:"to_balance" json:"to_balance,omitempty"`
	CreatedAt     time.Time       `db:"created_at" json:"created_at"`
}

// BankAccountFilter captures listing options for accounts.
type BankAccountFilter struct {
	Search    string
	Active    *bool
	Page      int
	PageSize  int
	SortBy    string
	SortOrder string
}

// BankTransactionFilter captures listing options for transactions.
type BankTransactionFilter struct {
	AccountID string
	Type      *TransactionType
	DateFrom  *time.Time
	DateTo    *time.Time
	Page      int
	PageSize  int
	SortOrder string
}
