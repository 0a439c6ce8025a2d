package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/talim-board/admin-api/internal/models"
)

// BankAccountRepository manages persistence for the board's bank accounts.
type BankAccountRepository struct {
	db *sqlx.DB
}

// NewBankAccountRepository constructs a BankAccountRepository.
func NewBankAccountRepository(db *sqlx.DB) *BankAccountRepository {
	return &BankAccountRepository{db: db}
}

const bankAccountColumns = "id, account_name, account_number, bank_name, branch_name, account_type, opening_date, opening_balance, current_balance, active, created_at, updated_at"

// List returns bank accounts matching filters along with total count.
func (r *BankAccountRepository) List(ctx context.Context, filter models.BankAccountFilter) ([]models.BankAccount, int, error) {
	base := "FROM bank_accounts WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Active != nil {
		conditions = append(conditions, fmt.Sprintf("active = $%d", len(args)+1))
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("(LOWER(account_name) LIKE $%d OR LOWER(account_number) LIKE $%d OR LOWER(bank_name) LIKE $%d)", len(args)+1, len(args)+1, len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"account_name":    "account_name",
		"bank_name":       "bank_name",
		"current_balance": "current_balance",
		"opening_date":    "opening_date",
		"created_at":      "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", bankAccountColumns, base, column, order, size, offset)
	var accounts []models.BankAccount
	if err := r.db.SelectContext(ctx, &accounts, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bank accounts: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bank accounts: %w", err)
	}

	return accounts, total, nil
}

// ListActive returns every active account ordered by name.
func (r *BankAccountRepository) ListActive(ctx context.Context) ([]models.BankAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM bank_accounts WHERE active = TRUE ORDER BY account_name ASC", bankAccountColumns)
	var accounts []models.BankAccount
	if err := r.db.SelectContext(ctx, &accounts, query); err != nil {
		return nil, fmt.Errorf("list active bank accounts: %w", err)
	}
	return accounts, nil
}

// FindByID fetches a bank account by ID.
func (r *BankAccountRepository) FindByID(ctx context.Context, id string) (*models.BankAccount, error) {
	query := fmt.Sprintf("SELECT %s FROM bank_accounts WHERE id = $1", bankAccountColumns)
	var account models.BankAccount
	if err := r.db.GetContext(ctx, &account, query, id); err != nil {
		return nil, err
	}
	return &account, nil
}

// ExistsByAccountNumber checks if another account uses the same number.
func (r *BankAccountRepository) ExistsByAccountNumber(ctx context.Context, accountNumber, excludeID string) (bool, error) {
	query := "SELECT 1 FROM bank_accounts WHERE account_number = $1"
	args := []interface{}{accountNumber}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check account number: %w", err)
	}
	return true, nil
}

// Create inserts a new bank account. The current balance starts at the
// opening balance.
func (r *BankAccountRepository) Create(ctx context.Context, account *models.BankAccount) error {
	if account.ID == "" {
		account.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if account.CreatedAt.IsZero() {
		account.CreatedAt = now
	}
	account.UpdatedAt = now
	account.CurrentBalance = account.OpeningBalance

	const query = `INSERT INTO bank_accounts (id, account_name, account_number, bank_name, branch_name, account_type, opening_date, opening_balance, current_balance, active, created_at, updated_at)
		VALUES (:id, :account_name, :account_number, :bank_name, :branch_name, :account_type, :opening_date, :opening_balance, :current_balance, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("create bank account: %w", err)
	}
	return nil
}

// Update modifies the mutable fields of a bank account. Opening date,
// opening balance and current balance are never written here.
func (r *BankAccountRepository) Update(ctx context.Context, account *models.BankAccount) error {
	account.UpdatedAt = time.Now().UTC()
	const query = `UPDATE bank_accounts SET account_name = :account_name, account_number = :account_number, bank_name = :bank_name,
		branch_name = :branch_name, account_type = :account_type, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, account); err != nil {
		return fmt.Errorf("update bank account: %w", err)
	}
	return nil
}

// Deactivate sets an account's active flag to false.
func (r *BankAccountRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE bank_accounts SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate bank account: %w", err)
	}
	return nil
}

// TotalBalance sums the current balances of all active accounts.
func (r *BankAccountRepository) TotalBalance(ctx context.Context) (float64, error) {
	const query = `SELECT COALESCE(SUM(current_balance), 0) FROM bank_accounts WHERE active = TRUE`
	var total float64
	if err := r.db.GetContext(ctx, &total, query); err != nil {
		return 0, fmt.Errorf("total bank balance: %w", err)
	}
	return total, nil
}
