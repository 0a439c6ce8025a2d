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
	"github.com/talim-board/admin-api/internal/repository"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
)

type kitabRepository interface {
	List(ctx context.Context, filter models.KitabFilter) ([]models.Kitab, int, error)
	FindByID(ctx context.Context, id string) (*models.Kitab, error)
	ExistsByName(ctx context.Context, nameBangla, excludeID string) (bool, error)
	Create(ctx context.Context, kitab *models.Kitab) error
	Update(ctx context.Context, kitab *models.Kitab) error
	Delete(ctx context.Context, id string) error
}

// CreateKitabRequest captures fields for creating kitabs. The code is
// assigned by the system, not the caller.
type CreateKitabRequest struct {
	NameBangla string `json:"name_bangla" validate:"required"`
	NameArabic string `json:"name_arabic" validate:"required"`
	FullMarks  int    `json:"full_marks" validate:"required,gt=0"`
}

// UpdateKitabRequest modifies kitab fields.
type UpdateKitabRequest struct {
	NameBangla string `json:"name_bangla" validate:"required"`
	NameArabic string `json:"name_arabic" validate:"required"`
	FullMarks  int    `json:"full_marks" validate:"required,gt=0"`
}

// KitabService handles kitab domain workflows.
type KitabService struct {
	repo      kitabRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewKitabService creates a new kitab service.
func NewKitabService(repo kitabRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *KitabService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &KitabService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type kitabListPayload struct {
	Kitabs     []models.Kitab     `json:"kitabs"`
	Pagination *models.Pagination `json:"pagination"`
}

// List returns paginated kitabs, cached per filter tuple.
func (s *KitabService) List(ctx context.Context, filter models.KitabFilter) ([]models.Kitab, *models.Pagination, bool, error) {
	key := ListKey("kitabs", filter.Search, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	var cached kitabListPayload
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Kitabs, cached.Pagination, true, nil
	}

	kitabs, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list kitabs")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, kitabListPayload{Kitabs: kitabs, Pagination: pagination}, s.cacheTTL)
	return kitabs, pagination, false, nil
}

// Get returns a kitab by identifier.
func (s *KitabService) Get(ctx context.Context, id string) (*models.Kitab, error) {
	kitab, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "kitab not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load kitab")
	}
	return kitab, nil
}

// Create adds a new kitab ensuring the Bengali name is unique.
func (s *KitabService) Create(ctx context.Context, req CreateKitabRequest) (*models.Kitab, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid kitab payload")
	}

	req.NameBangla = strings.TrimSpace(req.NameBangla)
	req.NameArabic = strings.TrimSpace(req.NameArabic)

	exists, err := s.repo.ExistsByName(ctx, req.NameBangla, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check kitab name")
	}
	if exists {
		return nil, appErrors.WithField(appErrors.ErrConflict, "name_bangla", "a kitab with this name already exists")
	}

	kitab := &models.Kitab{
		NameBangla: req.NameBangla,
		NameArabic: req.NameArabic,
		FullMarks:  req.FullMarks,
	}

	if err := s.repo.Create(ctx, kitab); err != nil {
		if repository.IsUniqueViolation(err, "") {
			return nil, appErrors.WithField(appErrors.ErrConflict, "name_bangla", "a kitab with this name already exists")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create kitab")
	}

	s.invalidateLists(ctx)
	return kitab, nil
}

// Update modifies an existing kitab. The code never changes.
func (s *KitabService) Update(ctx context.Context, id string, req UpdateKitabRequest) (*models.Kitab, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid kitab payload")
	}

	kitab, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "kitab not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load kitab")
	}

	req.NameBangla = strings.TrimSpace(req.NameBangla)

	exists, err := s.repo.ExistsByName(ctx, req.NameBangla, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check kitab name")
	}
	if exists {
		return nil, appErrors.WithField(appErrors.ErrConflict, "name_bangla", "a kitab with this name already exists")
	}

	kitab.NameBangla = req.NameBangla
	kitab.NameArabic = strings.TrimSpace(req.NameArabic)
	kitab.FullMarks = req.FullMarks

	if err := s.repo.Update(ctx, kitab); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update kitab")
	}

	s.invalidateLists(ctx)
	return kitab, nil
}

// Delete removes a kitab. When marhalas or teacher qualifications still
// reference it, the conflict is reported instead of deleting.
func (s *KitabService) Delete(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		if repository.IsForeignKeyViolation(err) {
			msg := "kitab is still referenced and cannot be deleted"
			switch constraint := repository.ConstraintName(err); {
			case strings.Contains(constraint, "marhala"):
				msg = "kitab is assigned to a marhala syllabus and cannot be deleted"
			case strings.Contains(constraint, "teacher"):
				msg = "kitab is listed in teacher qualifications and cannot be deleted"
			}
			return appErrors.Clone(appErrors.ErrReferenceConflict, msg)
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete kitab")
	}

	s.invalidateLists(ctx)
	return nil
}

func (s *KitabService) invalidateLists(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ResourcePattern("kitabs")); err != nil {
		s.logger.Warn("failed to invalidate kitab lists", zap.Error(err))
	}
}
