package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/talim-board/admin-api/internal/models"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
	"github.com/talim-board/admin-api/pkg/money"
)

type bankAccountRepository interface {
	List(ctx context.Context, filter models.BankAccountFilter) ([]models.BankAccount, int, error)
	FindByID(ctx context.Context, id string) (*models.BankAccount, error)
	ExistsByAccountNumber(ctx context.Context, accountNumber, excludeID string) (bool, error)
	Create(ctx context.Context, account *models.BankAccount) error
	Update(ctx context.Context, account *models.BankAccount) error
	Deactivate(ctx context.Context, id string) error
}

// CreateBankAccountRequest captures fields for opening an account. The
// opening balance arrives as a display-formatted amount string.
type CreateBankAccountRequest struct {
	AccountName    string                 `json:"account_name" validate:"required"`
	AccountNumber  string                 `json:"account_number" validate:"required"`
	BankName       string                 `json:"bank_name" validate:"required"`
	BranchName     string                 `json:"branch_name" validate:"required"`
	AccountType    models.BankAccountType `json:"account_type" validate:"required,oneof=current savings"`
	OpeningDate    time.Time              `json:"opening_date" validate:"required"`
	OpeningBalance string                 `json:"opening_balance" validate:"required"`
}

// UpdateBankAccountRequest modifies the mutable account fields. The
// opening date and balances are immutable after creation.
type UpdateBankAccountRequest struct {
	AccountName   string                 `json:"account_name" validate:"required"`
	AccountNumber string                 `json:"account_number" validate:"required"`
	BankName      string                 `json:"bank_name" validate:"required"`
	BranchName    string                 `json:"branch_name" validate:"required"`
	AccountType   models.BankAccountType `json:"account_type" validate:"required,oneof=current savings"`
	Active        *bool                  `json:"active,omitempty"`
}

// BankAccountService handles bank account workflows.
type BankAccountService struct {
	repo      bankAccountRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewBankAccountService creates a new bank account service.
func NewBankAccountService(repo bankAccountRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *BankAccountService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BankAccountService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type bankAccountListPayload struct {
	Accounts   []models.BankAccount `json:"accounts"`
	Pagination *models.Pagination   `json:"pagination"`
}

// List returns paginated bank accounts, cached per filter tuple.
func (s *BankAccountService) List(ctx context.Context, filter models.BankAccountFilter) ([]models.BankAccount, *models.Pagination, bool, error) {
	key := ListKey("bank_accounts", filter.Search, boolFilter(filter.Active), filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	var cached bankAccountListPayload
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Accounts, cached.Pagination, true, nil
	}

	accounts, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bank accounts")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, bankAccountListPayload{Accounts: accounts, Pagination: pagination}, s.cacheTTL)
	return accounts, pagination, false, nil
}

// Get returns a bank account by identifier.
func (s *BankAccountService) Get(ctx context.Context, id string) (*models.BankAccount, error) {
	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bank account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bank account")
	}
	return account, nil
}

// Create opens a new account ensuring the account number is unique.
func (s *BankAccountService) Create(ctx context.Context, req CreateBankAccountRequest) (*models.BankAccount, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bank account payload")
	}

	openingBalance, err := money.Parse(req.OpeningBalance)
	if err != nil {
		return nil, appErrors.WithField(appErrors.ErrValidation, "opening_balance", "opening balance is not a valid amount")
	}
	if openingBalance < 0 {
		return nil, appErrors.WithField(appErrors.ErrValidation, "opening_balance", "opening balance cannot be negative")
	}

	req.AccountNumber = strings.TrimSpace(req.AccountNumber)

	exists, err := s.repo.ExistsByAccountNumber(ctx, req.AccountNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check account number")
	}
	if exists {
		return nil, appErrors.WithField(appErrors.ErrConflict, "account_number", "an account with this number already exists")
	}

	account := &models.BankAccount{
		AccountName:    strings.TrimSpace(req.AccountName),
		AccountNumber:  req.AccountNumber,
		BankName:       strings.TrimSpace(req.BankName),
		BranchName:     strings.TrimSpace(req.BranchName),
		AccountType:    req.AccountType,
		OpeningDate:    req.OpeningDate,
		OpeningBalance: money.Amount(openingBalance),
		Active:         true,
	}

	if err := s.repo.Create(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create bank account")
	}

	s.invalidateFinance(ctx)
	return account, nil
}

// Update modifies the mutable fields of an account.
func (s *BankAccountService) Update(ctx context.Context, id string, req UpdateBankAccountRequest) (*models.BankAccount, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid bank account payload")
	}

	account, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bank account not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bank account")
	}

	req.AccountNumber = strings.TrimSpace(req.AccountNumber)

	exists, err := s.repo.ExistsByAccountNumber(ctx, req.AccountNumber, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check account number")
	}
	if exists {
		return nil, appErrors.WithField(appErrors.ErrConflict, "account_number", "an account with this number already exists")
	}

	account.AccountName = strings.TrimSpace(req.AccountName)
	account.AccountNumber = req.AccountNumber
	account.BankName = strings.TrimSpace(req.BankName)
	account.BranchName = strings.TrimSpace(req.BranchName)
	account.AccountType = req.AccountType
	if req.Active != nil {
		account.Active = *req.Active
	}

	if err := s.repo.Update(ctx, account); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update bank account")
	}

	s.invalidateFinance(ctx)
	return account, nil
}

// Deactivate retires an account. Its transaction history stays intact.
func (s *BankAccountService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate bank account")
	}

	s.invalidateFinance(ctx)
	return nil
}

func (s *BankAccountService) invalidateFinance(ctx context.Context) {
	for _, resource := range []string{"bank_accounts", "bank_dashboard"} {
		if err := s.cache.Invalidate(ctx, ResourcePattern(resource)); err != nil {
			s.logger.Warn("failed to invalidate cached lists", zap.String("resource", resource), zap.Error(err))
		}
	}
}
