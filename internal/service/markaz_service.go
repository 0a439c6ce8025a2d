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

type markazRepository interface {
	List(ctx context.Context, filter models.MarkazFilter) ([]models.Markaz, int, error)
	FindByID(ctx context.Context, id string) (*models.Markaz, error)
	ExistsByHostMadrasa(ctx context.Context, madrasaID, excludeID string) (bool, error)
	MadrasaCode(ctx context.Context, madrasaID string) (int, error)
	Create(ctx context.Context, markaz *models.Markaz) error
	Update(ctx context.Context, markaz *models.Markaz) error
	Deactivate(ctx context.Context, id string) error
}

// CreateMarkazRequest captures fields for creating an exam center.
type CreateMarkazRequest struct {
	Name          string `json:"name" validate:"required"`
	HostMadrasaID string `json:"host_madrasa_id" validate:"required"`
	ZoneID        string `json:"zone_id" validate:"required"`
	ExamineeLimit int    `json:"examinee_limit" validate:"required,gt=0"`
}

// UpdateMarkazRequest modifies an exam center. The host madrasa, and with
// it the derived code, never changes after creation.
type UpdateMarkazRequest struct {
	Name          string `json:"name" validate:"required"`
	ZoneID        string `json:"zone_id" validate:"required"`
	ExamineeLimit int    `json:"examinee_limit" validate:"required,gt=0"`
	Active        *bool  `json:"active,omitempty"`
}

// MarkazService handles exam center workflows.
type MarkazService struct {
	repo      markazRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarkazService creates a new markaz service.
func NewMarkazService(repo markazRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *MarkazService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarkazService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type markazListPayload struct {
	Markazes   []models.Markaz    `json:"markazes"`
	Pagination *models.Pagination `json:"pagination"`
}

// List returns paginated markazes, cached per filter tuple.
func (s *MarkazService) List(ctx context.Context, filter models.MarkazFilter) ([]models.Markaz, *models.Pagination, bool, error) {
	key := ListKey("markazes", filter.Search, filter.ZoneID, boolFilter(filter.Active), filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	var cached markazListPayload
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Markazes, cached.Pagination, true, nil
	}

	markazes, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list markazes")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, markazListPayload{Markazes: markazes, Pagination: pagination}, s.cacheTTL)
	return markazes, pagination, false, nil
}

// Get returns a markaz by identifier.
func (s *MarkazService) Get(ctx context.Context, id string) (*models.Markaz, error) {
	markaz, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "markaz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load markaz")
	}
	return markaz, nil
}

// Create adds a new markaz. Each madrasa may host at most one markaz, and
// the markaz code is derived from the host madrasa's code.
func (s *MarkazService) Create(ctx context.Context, req CreateMarkazRequest) (*models.Markaz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid markaz payload")
	}

	exists, err := s.repo.ExistsByHostMadrasa(ctx, req.HostMadrasaID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check host madrasa")
	}
	if exists {
		return nil, appErrors.WithField(appErrors.ErrConflict, "host_madrasa_id", "this madrasa already hosts a markaz")
	}

	code, err := s.repo.MadrasaCode(ctx, req.HostMadrasaID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.WithField(appErrors.ErrValidation, "host_madrasa_id", "host madrasa not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive markaz code")
	}

	markaz := &models.Markaz{
		Name:          strings.TrimSpace(req.Name),
		Code:          code,
		HostMadrasaID: req.HostMadrasaID,
		ZoneID:        req.ZoneID,
		ExamineeLimit: req.ExamineeLimit,
		Active:        true,
	}

	if err := s.repo.Create(ctx, markaz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create markaz")
	}

	s.invalidateLists(ctx)
	return s.Get(ctx, markaz.ID)
}

// Update modifies a markaz.
func (s *MarkazService) Update(ctx context.Context, id string, req UpdateMarkazRequest) (*models.Markaz, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid markaz payload")
	}

	markaz, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "markaz not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load markaz")
	}

	markaz.Name = strings.TrimSpace(req.Name)
	markaz.ZoneID = req.ZoneID
	markaz.ExamineeLimit = req.ExamineeLimit
	if req.Active != nil {
		markaz.Active = *req.Active
	}

	if err := s.repo.Update(ctx, markaz); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update markaz")
	}

	s.invalidateLists(ctx)
	return s.Get(ctx, id)
}

// Deactivate retires a markaz without deleting its history.
func (s *MarkazService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate markaz")
	}

	s.invalidateLists(ctx)
	return nil
}

func (s *MarkazService) invalidateLists(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ResourcePattern("markazes")); err != nil {
		s.logger.Warn("failed to invalidate markaz lists", zap.Error(err))
	}
}
