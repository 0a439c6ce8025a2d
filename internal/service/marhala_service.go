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

type marhalaRepository interface {
	List(ctx context.Context, filter models.MarhalaFilter) ([]models.Marhala, int, error)
	FindByID(ctx context.Context, id string) (*models.Marhala, error)
	FindKitabs(ctx context.Context, marhalaID string) ([]models.Kitab, error)
	Create(ctx context.Context, marhala *models.Marhala, kitabIDs []string) error
	Update(ctx context.Context, marhala *models.Marhala, kitabIDs []string) error
}

// CreateMarhalaRequest captures fields for creating a marhala and its
// kitab set.
type CreateMarhalaRequest struct {
	NameBangla    string   `json:"name_bangla" validate:"required"`
	NameArabic    string   `json:"name_arabic" validate:"required"`
	SequenceOrder int      `json:"sequence_order" validate:"required,gt=0"`
	KitabIDs      []string `json:"kitab_ids" validate:"required,min=1,dive,required"`
}

// UpdateMarhalaRequest modifies a marhala. A nil kitab list keeps the
// current set; a non-nil list replaces it wholesale.
type UpdateMarhalaRequest struct {
	NameBangla    string   `json:"name_bangla" validate:"required"`
	NameArabic    string   `json:"name_arabic" validate:"required"`
	SequenceOrder int      `json:"sequence_order" validate:"required,gt=0"`
	KitabIDs      []string `json:"kitab_ids,omitempty" validate:"omitempty,min=1,dive,required"`
}

// MarhalaService handles marhala domain workflows.
type MarhalaService struct {
	repo      marhalaRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewMarhalaService creates a new marhala service.
func NewMarhalaService(repo marhalaRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *MarhalaService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &MarhalaService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type marhalaListPayload struct {
	Marhalas   []models.Marhala   `json:"marhalas"`
	Pagination *models.Pagination `json:"pagination"`
}

// List returns paginated marhalas ordered by sequence, cached per filter tuple.
func (s *MarhalaService) List(ctx context.Context, filter models.MarhalaFilter) ([]models.Marhala, *models.Pagination, bool, error) {
	key := ListKey("marhalas", filter.Search, filter.Page, filter.PageSize, filter.SortOrder)

	var cached marhalaListPayload
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Marhalas, cached.Pagination, true, nil
	}

	marhalas, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list marhalas")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, marhalaListPayload{Marhalas: marhalas, Pagination: pagination}, s.cacheTTL)
	return marhalas, pagination, false, nil
}

// Get returns a marhala with its kitab set.
func (s *MarhalaService) Get(ctx context.Context, id string) (*models.Marhala, error) {
	marhala, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "marhala not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marhala")
	}

	kitabs, err := s.repo.FindKitabs(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marhala kitabs")
	}
	marhala.Kitabs = kitabs
	return marhala, nil
}

// Create adds a new marhala with its kitab set.
func (s *MarhalaService) Create(ctx context.Context, req CreateMarhalaRequest) (*models.Marhala, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marhala payload")
	}

	if ids, ok := uniqueIDs(req.KitabIDs); ok {
		req.KitabIDs = ids
	} else {
		return nil, appErrors.WithField(appErrors.ErrValidation, "kitab_ids", "kitab list contains duplicates")
	}

	marhala := &models.Marhala{
		NameBangla:    strings.TrimSpace(req.NameBangla),
		NameArabic:    strings.TrimSpace(req.NameArabic),
		SequenceOrder: req.SequenceOrder,
	}

	if err := s.repo.Create(ctx, marhala, req.KitabIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create marhala")
	}

	s.invalidateLists(ctx)
	return s.Get(ctx, marhala.ID)
}

// Update modifies a marhala, optionally replacing its kitab set.
func (s *MarhalaService) Update(ctx context.Context, id string, req UpdateMarhalaRequest) (*models.Marhala, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid marhala payload")
	}

	marhala, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "marhala not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load marhala")
	}

	if req.KitabIDs != nil {
		ids, ok := uniqueIDs(req.KitabIDs)
		if !ok {
			return nil, appErrors.WithField(appErrors.ErrValidation, "kitab_ids", "kitab list contains duplicates")
		}
		req.KitabIDs = ids
	}

	marhala.NameBangla = strings.TrimSpace(req.NameBangla)
	marhala.NameArabic = strings.TrimSpace(req.NameArabic)
	marhala.SequenceOrder = req.SequenceOrder

	if err := s.repo.Update(ctx, marhala, req.KitabIDs); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update marhala")
	}

	s.invalidateLists(ctx)
	return s.Get(ctx, id)
}

func (s *MarhalaService) invalidateLists(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ResourcePattern("marhalas")); err != nil {
		s.logger.Warn("failed to invalidate marhala lists", zap.Error(err))
	}
}

func uniqueIDs(ids []string) ([]string, bool) {
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if _, dup := seen[id]; dup {
			return nil, false
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, true
}
