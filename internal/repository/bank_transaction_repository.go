package repository

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/talim-board/admin-api/internal/models"
	"github.com/talim-board/admin-api/pkg/money"
)

// ErrInsufficientFunds is returned when a withdrawal or transfer would
// overdraw the source account. Detected inside the transaction so the
// check and the balance write cannot race.
var ErrInsufficientFunds = errors.New("insufficient funds")

// BankTransactionRepository manages persistence for bank transactions.
// Inserting a transaction and updating the affected balances happen in a
// single database transaction.
type BankTransactionRepository struct {
	db *sqlx.DB
}

// NewBankTransactionRepository constructs a BankTransactionRepository.
func NewBankTransactionRepository(db *sqlx.DB) *BankTransactionRepository {
	return &BankTransactionRepository{db: db}
}

const bankTransactionColumns = "id, type, amount, date, from_account_id, to_account_id, description, check_number, from_balance, to_balance, created_at"

// List returns transactions matching filters along with total count.
func (r *BankTransactionRepository) List(ctx context.Context, filter models.BankTransactionFilter) ([]models.BankTransaction, int, error) {
	base := "FROM bank_transactions WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.AccountID != "" {
		conditions = append(conditions, fmt.Sprintf("(from_account_id = $%d OR to_account_id = $%d)", len(args)+1, len(args)+1))
		args = append(args, filter.AccountID)
	}
	if filter.Type != nil {
		conditions = append(conditions, fmt.Sprintf("type = $%d", len(args)+1))
		args = append(args, *filter.Type)
	}
	if filter.DateFrom != nil {
		conditions = append(conditions, fmt.Sprintf("date >= $%d", len(args)+1))
		args = append(args, *filter.DateFrom)
	}
	if filter.DateTo != nil {
		conditions = append(conditions, fmt.Sprintf("date <= $%d", len(args)+1))
		args = append(args, *filter.DateTo)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY date %s, created_at %s LIMIT %d OFFSET %d", bankTransactionColumns, base, order, order, size, offset)
	var transactions []models.BankTransaction
	if err := r.db.SelectContext(ctx, &transactions, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list bank transactions: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count bank transactions: %w", err)
	}

	return transactions, total, nil
}

// Recent returns the most recent transactions across all accounts.
func (r *BankTransactionRepository) Recent(ctx context.Context, limit int) ([]models.BankTransaction, error) {
	if limit <= 0 {
		limit = 10
	}
	query := fmt.Sprintf("SELECT %s FROM bank_transactions ORDER BY date DESC, created_at DESC LIMIT %d", bankTransactionColumns, limit)
	var transactions []models.BankTransaction
	if err := r.db.SelectContext(ctx, &transactions, query); err != nil {
		return nil, fmt.Errorf("recent bank transactions: %w", err)
	}
	return transactions, nil
}

// Create inserts the transaction and applies the balance changes to the
// affected accounts atomically. The resulting balances are written back
// into the transaction as snapshots.
func (r *BankTransactionRepository) Create(ctx context.Context, transaction *models.BankTransaction) (err error) {
	if transaction.ID == "" {
		transaction.ID = uuid.NewString()
	}
	if transaction.CreatedAt.IsZero() {
		transaction.CreatedAt = time.Now().UTC()
	}

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin bank transaction tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	// Row locks are taken in account-ID order so two opposite-direction
	// transfers cannot deadlock each other.
	adjustments := make([]balanceAdjustment, 0, 2)
	if transaction.FromAccountID != nil {
		adjustments = append(adjustments, balanceAdjustment{
			accountID: *transaction.FromAccountID,
			delta:     -float64(transaction.Amount),
			snapshot:  &transaction.FromBalance,
		})
	}
	if transaction.ToAccountID != nil {
		adjustments = append(adjustments, balanceAdjustment{
			accountID: *transaction.ToAccountID,
			delta:     float64(transaction.Amount),
			snapshot:  &transaction.ToBalance,
		})
	}
	sort.Slice(adjustments, func(i, j int) bool { return adjustments[i].accountID < adjustments[j].accountID })

	for _, adj := range adjustments {
		var balance float64
		if balance, err = adjustBalance(ctx, tx, adj.accountID, adj.delta); err != nil {
			return err
		}
		snapshot := money.Amount(balance)
		*adj.snapshot = &snapshot
	}

	const insert = `INSERT INTO bank_transactions (id, type, amount, date, from_account_id, to_account_id, description, check_number, from_balance, to_balance, created_at)
		VALUES (:id, :type, :amount, :date, :from_account_id, :to_account_id, :description, :check_number, :from_balance, :to_balance, :created_at)`
	if _, err = tx.NamedExecContext(ctx, insert, transaction); err != nil {
		return fmt.Errorf("create bank transaction: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit bank transaction tx: %w", err)
	}
	return nil
}

type balanceAdjustment struct {
	accountID string
	delta     float64
	snapshot  **money.Amount
}

func adjustBalance(ctx context.Context, tx *sqlx.Tx, accountID string, delta float64) (float64, error) {
	var current float64
	if err := tx.GetContext(ctx, &current, `SELECT current_balance FROM bank_accounts WHERE id = $1 FOR UPDATE`, accountID); err != nil {
		return 0, fmt.Errorf("lock bank account %s: %w", accountID, err)
	}

	next := current + delta
	if next < 0 {
		return 0, ErrInsufficientFunds
	}

	if _, err := tx.ExecContext(ctx, `UPDATE bank_accounts SET current_balance = $2, updated_at = $3 WHERE id = $1`, accountID, next, time.Now().UTC()); err != nil {
		return 0, fmt.Errorf("update bank account balance: %w", err)
	}
	return next, nil
}
