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
)

type faqRepository interface {
	List(ctx context.Context, filter models.FAQFilter) ([]models.FAQ, int, error)
	FindByID(ctx context.Context, id string) (*models.FAQ, error)
	Create(ctx context.Context, faq *models.FAQ) error
	Update(ctx context.Context, faq *models.FAQ) error
	Deactivate(ctx context.Context, id string) error
}

// CreateFAQRequest captures fields for publishing a FAQ entry.
type CreateFAQRequest struct {
	Question     string `json:"question" validate:"required"`
	Answer       string `json:"answer" validate:"required"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
}

// UpdateFAQRequest modifies a FAQ entry.
type UpdateFAQRequest struct {
	Question     string `json:"question" validate:"required"`
	Answer       string `json:"answer" validate:"required"`
	DisplayOrder int    `json:"display_order" validate:"gte=0"`
	Active       *bool  `json:"active,omitempty"`
}

// FAQService handles FAQ workflows.
type FAQService struct {
	repo      faqRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewFAQService creates a new FAQ service.
func NewFAQService(repo faqRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *FAQService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &FAQService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type faqListPayload struct {
	FAQs       []models.FAQ       `json:"faqs"`
	Pagination *models.Pagination `json:"pagination"`
}

// List returns paginated FAQs, cached per filter tuple.
func (s *FAQService) List(ctx context.Context, filter models.FAQFilter) ([]models.FAQ, *models.Pagination, bool, error) {
	key := ListKey("faqs", filter.Search, boolFilter(filter.Active), filter.Page, filter.PageSize, filter.SortOrder)

	var cached faqListPayload
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.FAQs, cached.Pagination, true, nil
	}

	faqs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list faqs")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, faqListPayload{FAQs: faqs, Pagination: pagination}, s.cacheTTL)
	return faqs, pagination, false, nil
}

// Get returns a FAQ by identifier.
func (s *FAQService) Get(ctx context.Context, id string) (*models.FAQ, error) {
	faq, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "faq not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load faq")
	}
	return faq, nil
}

// Create publishes a new FAQ entry.
func (s *FAQService) Create(ctx context.Context, req CreateFAQRequest) (*models.FAQ, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faq payload")
	}

	faq := &models.FAQ{
		Question:     strings.TrimSpace(req.Question),
		Answer:       req.Answer,
		DisplayOrder: req.DisplayOrder,
		Active:       true,
	}

	if err := s.repo.Create(ctx, faq); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create faq")
	}

	s.invalidateLists(ctx)
	return faq, nil
}

// Update modifies an existing FAQ entry.
func (s *FAQService) Update(ctx context.Context, id string, req UpdateFAQRequest) (*models.FAQ, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid faq payload")
	}

	faq, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	faq.Question = strings.TrimSpace(req.Question)
	faq.Answer = req.Answer
	faq.DisplayOrder = req.DisplayOrder
	if req.Active != nil {
		faq.Active = *req.Active
	}

	if err := s.repo.Update(ctx, faq); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update faq")
	}

	s.invalidateLists(ctx)
	return faq, nil
}

// Deactivate soft-deletes a FAQ entry.
func (s *FAQService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate faq")
	}

	s.invalidateLists(ctx)
	return nil
}

func (s *FAQService) invalidateLists(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ResourcePattern("faqs")); err != nil {
		s.logger.Warn("failed to invalidate faq lists", zap.Error(err))
	}
}
