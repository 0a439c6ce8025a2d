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

type noticeRepository interface {
	List(ctx context.Context, filter models.NoticeFilter) ([]models.Notice, int, error)
	FindByID(ctx context.Context, id string) (*models.Notice, error)
	Create(ctx context.Context, notice *models.Notice) error
	Update(ctx context.Context, notice *models.Notice) error
	Delete(ctx context.Context, id string) error
}

// CreateNoticeRequest captures fields for publishing a notice.
type CreateNoticeRequest struct {
	Title          string  `json:"title" validate:"required"`
	Body           string  `json:"body" validate:"required"`
	AttachmentPath *string `json:"attachment_path,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}

// UpdateNoticeRequest modifies a notice.
type UpdateNoticeRequest struct {
	Title          string  `json:"title" validate:"required"`
	Body           string  `json:"body" validate:"required"`
	AttachmentPath *string `json:"attachment_path,omitempty"`
	Active         *bool   `json:"active,omitempty"`
}

// NoticeService handles notice workflows.
type NoticeService struct {
	repo      noticeRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewNoticeService creates a new notice service.
func NewNoticeService(repo noticeRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *NoticeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &NoticeService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type noticeListPayload struct {
	Notices    []models.Notice    `json:"notices"`
	Pagination *models.Pagination `json:"pagination"`
}

// List returns paginated notices, cached per filter tuple.
func (s *NoticeService) List(ctx context.Context, filter models.NoticeFilter) ([]models.Notice, *models.Pagination, bool, error) {
	key := ListKey("notices", filter.Search, boolFilter(filter.Active), filter.Page, filter.PageSize, filter.SortOrder)

	var cached noticeListPayload
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Notices, cached.Pagination, true, nil
	}

	notices, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list notices")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, noticeListPayload{Notices: notices, Pagination: pagination}, s.cacheTTL)
	return notices, pagination, false, nil
}

// Get returns a notice by identifier.
func (s *NoticeService) Get(ctx context.Context, id string) (*models.Notice, error) {
	notice, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "notice not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load notice")
	}
	return notice, nil
}

// Create publishes a new notice.
func (s *NoticeService) Create(ctx context.Context, req CreateNoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}

	notice := &models.Notice{
		Title:          strings.TrimSpace(req.Title),
		Body:           req.Body,
		AttachmentPath: req.AttachmentPath,
		Active:         true,
	}
	if req.Active != nil {
		notice.Active = *req.Active
	}

	if err := s.repo.Create(ctx, notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create notice")
	}

	s.invalidateLists(ctx)
	return notice, nil
}

// Update modifies an existing notice.
func (s *NoticeService) Update(ctx context.Context, id string, req UpdateNoticeRequest) (*models.Notice, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid notice payload")
	}

	notice, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	notice.Title = strings.TrimSpace(req.Title)
	notice.Body = req.Body
	if req.AttachmentPath != nil {
		notice.AttachmentPath = req.AttachmentPath
	}
	if req.Active != nil {
		notice.Active = *req.Active
	}

	if err := s.repo.Update(ctx, notice); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update notice")
	}

	s.invalidateLists(ctx)
	return notice, nil
}

// Delete removes a notice permanently.
func (s *NoticeService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete notice")
	}

	s.invalidateLists(ctx)
	return nil
}

func (s *NoticeService) invalidateLists(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ResourcePattern("notices")); err != nil {
		s.logger.Warn("failed to invalidate notice lists", zap.Error(err))
	}
}
