package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/talim-board/admin-api/internal/models"
	"github.com/talim-board/admin-api/internal/repository"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
	"github.com/talim-board/admin-api/pkg/money"
)

type bankTransactionRepository interface {
	List(ctx context.Context, filter models.BankTransactionFilter) ([]models.BankTransaction, int, error)
	Create(ctx context.Context, transaction *models.BankTransaction) error
}

type transactionAccountRepository interface {
	FindByID(ctx context.Context, id string) (*models.BankAccount, error)
}

// CreateBankTransactionRequest records a money movement. The amount is a
// display-formatted string; which account fields are required depends on
// the transaction type.
type CreateBankTransactionRequest struct {
	Type          models.TransactionType `json:"type" validate:"required,oneof=deposit withdrawal transfer"`
	Amount        string                 `json:"amount" validate:"required"`
	Date          time.Time              `json:"date" validate:"required"`
	FromAccountID *string                `json:"from_account_id,omitempty"`
	ToAccountID   *string                `json:"to_account_id,omitempty"`
	Description   *string                `json:"description,omitempty"`
	CheckNumber   *string                `json:"check_number,omitempty"`
}

// BankTransactionService handles transaction workflows.
type BankTransactionService struct {
	repo      bankTransactionRepository
	accounts  transactionAccountRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBankTransactionService creates a new bank transaction service.
func NewBankTransactionService(repo bankTransactionRepository, accounts transactionAccountRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *BankTransactionService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BankTransactionService{repo: repo, accounts: accounts, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type bankTransactionListPayload struct {
	Transactions []models.BankTransaction `json:"transactions"`
	Pagination   *models.Pagination       `json:"pagination"`
}

// List returns paginated transactions, cached per filter tuple.
func (s *BankTransactionService) List(ctx context.Context, filter models.BankTransactionFilter) ([]models.BankTransaction, *models.Pagination, bool, error) {
	key := ListKey("bank_transactions", filter.AccountID, typeFilter(filter.Type), timeFilter(filter.DateFrom), timeFilter(filter.DateTo), filter.Page, filter.PageSize, filter.SortOrder)

	var cached bankTransactionListPayload
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Transactions, cached.Pagination, true, nil
	}

	transactions, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bank transactions")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, bankTransactionListPayload{Transactions: transactions, Pagination: pagination}, s.cacheTTL)
	return transactions, pagination, false, nil
}

// Create validates and records a transaction, applying balance changes
// atomically. Balances never go negative.
func (s *BankTransactionService) Create(ctx context.Context, req CreateBankTransactionRequest) (*models.BankTransaction, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid transaction payload")
	}

	amount, err := money.Parse(req.Amount)
	if err != nil {
		return nil, appErrors.WithField(appErrors.ErrValidation, "amount", "amount is not a valid number")
	}
	if amount <= 0 {
		return nil, appErrors.WithField(appErrors.ErrValidation, "amount", "amount must be greater than zero")
	}

	switch req.Type {
	case models.TransactionTypeDeposit:
		if req.ToAccountID == nil {
			return nil, appErrors.WithField(appErrors.ErrValidation, "to_account_id", "deposit requires a destination account")
		}
		req.FromAccountID = nil
	case models.TransactionTypeWithdrawal:
		if req.FromAccountID == nil {
			return nil, appErrors.WithField(appErrors.ErrValidation, "from_account_id", "withdrawal requires a source account")
		}
		req.ToAccountID = nil
	case models.TransactionTypeTransfer:
		if req.FromAccountID == nil || req.ToAccountID == nil {
			return nil, appErrors.Clone(appErrors.ErrValidation, "transfer requires both source and destination accounts")
		}
		if *req.FromAccountID == *req.ToAccountID {
			return nil, appErrors.WithField(appErrors.ErrValidation, "to_account_id", "transfer source and destination must differ")
		}
	}

	for _, id := range []*string{req.FromAccountID, req.ToAccountID} {
		if id == nil {
			continue
		}
		account, err := s.accounts.FindByID(ctx, *id)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return nil, appErrors.Clone(appErrors.ErrNotFound, "bank account not found")
			}
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bank account")
		}
		if !account.Active {
			return nil, appErrors.Clone(appErrors.ErrValidation, "account "+account.AccountNumber+" is inactive")
		}
	}

	transaction := &models.BankTransaction{
		Type:          req.Type,
		Amount:        money.Amount(amount),
		Date:          req.Date,
		FromAccountID: req.FromAccountID,
		ToAccountID:   req.ToAccountID,
		Description:   req.Description,
		CheckNumber:   req.CheckNumber,
	}

	if err := s.repo.Create(ctx, transaction); err != nil {
		if errors.Is(err, repository.ErrInsufficientFunds) {
			return nil, appErrors.WithField(appErrors.ErrValidation, "amount", "insufficient funds in source account")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record transaction")
	}

	s.invalidateFinance(ctx)
	return transaction, nil
}

func (s *BankTransactionService) invalidateFinance(ctx context.Context) {
	for _, resource := range []string{"bank_transactions", "bank_accounts", "bank_dashboard"} {
		if err := s.cache.Invalidate(ctx, ResourcePattern(resource)); err != nil {
			s.logger.Warn("failed to invalidate cached lists", zap.String("resource", resource), zap.Error(err))
		}
	}
}

func typeFilter(t *models.TransactionType) string {
	if t == nil {
		return "any"
	}
	return string(*t)
}

func timeFilter(t *time.Time) string {
	if t == nil {
		return "any"
	}
	return t.UTC().Format(time.RFC3339)
}
