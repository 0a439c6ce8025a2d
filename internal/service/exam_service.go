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

type examRepository interface {
	List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error)
	FindByID(ctx context.Context, id string) (*models.Exam, error)
	FindFeeDetails(ctx context.Context, examID string) ([]models.ExamFeeDetail, error)
	ExistsByName(ctx context.Context, name, excludeID string) (bool, error)
	Create(ctx context.Context, exam *models.Exam, details []models.ExamFeeDetail) error
	UpdateWithFees(ctx context.Context, exam *models.Exam, details []models.ExamFeeDetail) error
	UpdateStatus(ctx context.Context, id string, status models.ExamStatus) error
	Delete(ctx context.Context, id string) error
}

// ExamFeeDetailRequest carries one marhala's roll numbering and fees. Fee
// amounts accept both the grouped string form and bare numbers.
type ExamFeeDetailRequest struct {
	MarhalaID          string       `json:"marhala_id" validate:"required"`
	StartingRollNumber int          `json:"starting_roll_number" validate:"required,gt=0"`
	RegularFee         money.Amount `json:"regular_fee" validate:"gte=0"`
	RegularLateFee     money.Amount `json:"regular_late_fee" validate:"gte=0"`
	IrregularFee       money.Amount `json:"irregular_fee" validate:"gte=0"`
	IrregularLateFee   money.Amount `json:"irregular_late_fee" validate:"gte=0"`
}

// CreateExamRequest captures fields for creating an exam with its fee schedule.
type CreateExamRequest struct {
	Name                  string                 `json:"name" validate:"required"`
	RegistrationStartDate time.Time              `json:"registration_start_date" validate:"required"`
	RegistrationEndDate   time.Time              `json:"registration_end_date" validate:"required"`
	LateRegistrationDate  time.Time              `json:"late_registration_date" validate:"required"`
	FeeDetails            []ExamFeeDetailRequest `json:"fee_details" validate:"required,min=1,dive"`
}

// UpdateExamRequest modifies an exam. Nil sections are left untouched, so
// a name-only edit does not trip the locks on frozen sections.
type UpdateExamRequest struct {
	Name                  *string                `json:"name,omitempty"`
	RegistrationStartDate *time.Time             `json:"registration_start_date,omitempty"`
	RegistrationEndDate   *time.Time             `json:"registration_end_date,omitempty"`
	LateRegistrationDate  *time.Time             `json:"late_registration_date,omitempty"`
	IsActive              *bool                  `json:"is_active,omitempty"`
	FeeDetails            []ExamFeeDetailRequest `json:"fee_details,omitempty" validate:"omitempty,min=1,dive"`
}

// UpdateExamStatusRequest moves an exam through its lifecycle.
type UpdateExamStatusRequest struct {
	Status models.ExamStatus `json:"status" validate:"required"`
}

// ExamService handles exam lifecycle workflows.
type ExamService struct {
	repo      examRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewExamService creates a new exam service.
func NewExamService(repo examRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *ExamService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExamService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type examListPayload struct {
	Exams      []models.Exam      `json:"exams"`
	Pagination *models.Pagination `json:"pagination"`
}

// List returns paginated exams. Results are cached per filter tuple; the
// boolean reports whether the payload came from cache.
func (s *ExamService) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, *models.Pagination, bool, error) {
	key := ListKey("exams", filter.Search, boolFilter(filter.IsActive), statusFilter(filter.Status), filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	var cached examListPayload
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Exams, cached.Pagination, true, nil
	}

	exams, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list exams")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, examListPayload{Exams: exams, Pagination: pagination}, s.cacheTTL)
	return exams, pagination, false, nil
}

// Get returns the exam with its fee schedule.
func (s *ExamService) Get(ctx context.Context, id string) (*models.Exam, error) {
	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	details, err := s.repo.FindFeeDetails(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam fee details")
	}
	exam.FeeDetails = details
	return exam, nil
}

// Create adds a new exam in pending status along with its fee schedule.
func (s *ExamService) Create(ctx context.Context, req CreateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}

	req.Name = strings.TrimSpace(req.Name)

	exists, err := s.repo.ExistsByName(ctx, req.Name, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check exam name")
	}
	if exists {
		return nil, appErrors.WithField(appErrors.ErrConflict, "name", "an exam with this name already exists")
	}

	exam := &models.Exam{
		Name:                  req.Name,
		Status:                models.ExamStatusPending,
		RegistrationStartDate: req.RegistrationStartDate,
		RegistrationEndDate:   req.RegistrationEndDate,
		LateRegistrationDate:  req.LateRegistrationDate,
		IsActive:              true,
	}

	if err := s.repo.Create(ctx, exam, feeDetailsFromRequests(req.FeeDetails)); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create exam")
	}

	s.invalidateLists(ctx)
	return exam, nil
}

// Update modifies an exam, honoring the per-status edit locks. Sections
// missing from the request are not checked against their locks.
func (s *ExamService) Update(ctx context.Context, id string, req UpdateExamRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid exam payload")
	}

	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	if req.Name != nil {
		if !exam.Status.CanEdit(models.ExamFieldGroupName) {
			return nil, appErrors.Clone(appErrors.ErrStatusLocked, "exam name cannot be changed in status "+string(exam.Status))
		}
		name := strings.TrimSpace(*req.Name)
		exists, err := s.repo.ExistsByName(ctx, name, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check exam name")
		}
		if exists {
			return nil, appErrors.WithField(appErrors.ErrConflict, "name", "an exam with this name already exists")
		}
		exam.Name = name
	}

	if req.RegistrationStartDate != nil || req.RegistrationEndDate != nil || req.LateRegistrationDate != nil {
		if !exam.Status.CanEdit(models.ExamFieldGroupRegistrationInfo) {
			return nil, appErrors.Clone(appErrors.ErrStatusLocked, "registration info is frozen in status "+string(exam.Status))
		}
		if req.RegistrationStartDate != nil {
			exam.RegistrationStartDate = *req.RegistrationStartDate
		}
		if req.RegistrationEndDate != nil {
			exam.RegistrationEndDate = *req.RegistrationEndDate
		}
		if req.LateRegistrationDate != nil {
			exam.LateRegistrationDate = *req.LateRegistrationDate
		}
	}

	var details []models.ExamFeeDetail
	if req.FeeDetails != nil {
		if !exam.Status.CanEdit(models.ExamFieldGroupFeeSchedule) {
			return nil, appErrors.Clone(appErrors.ErrStatusLocked, "fee schedule is frozen in status "+string(exam.Status))
		}
		details = feeDetailsFromRequests(req.FeeDetails)
	}

	if req.IsActive != nil {
		exam.IsActive = *req.IsActive
	}

	if err := s.repo.UpdateWithFees(ctx, exam, details); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam")
	}

	s.invalidateLists(ctx)
	return s.Get(ctx, id)
}

// UpdateStatus transitions the exam lifecycle. Illegal transitions are
// rejected before any write.
func (s *ExamService) UpdateStatus(ctx context.Context, id string, req UpdateExamStatusRequest) (*models.Exam, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}
	if !req.Status.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown exam status "+string(req.Status))
	}

	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	if !exam.Status.CanTransition(req.Status) {
		return nil, appErrors.Clone(appErrors.ErrStatusLocked, "exam cannot move from "+string(exam.Status)+" to "+string(req.Status))
	}

	if err := s.repo.UpdateStatus(ctx, id, req.Status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update exam status")
	}

	s.invalidateLists(ctx)
	return s.Get(ctx, id)
}

// Delete removes an exam and its fee schedule. Only exams that never ran
// may be deleted.
func (s *ExamService) Delete(ctx context.Context, id string) error {
	exam, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return appErrors.Clone(appErrors.ErrNotFound, "exam not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load exam")
	}

	if exam.Status != models.ExamStatusPending && exam.Status != models.ExamStatusCancelled {
		return appErrors.Clone(appErrors.ErrStatusLocked, "only pending or cancelled exams can be deleted")
	}

	if err := s.repo.Delete(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete exam")
	}

	s.invalidateLists(ctx)
	return nil
}

func (s *ExamService) invalidateLists(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ResourcePattern("exams")); err != nil {
		s.logger.Warn("failed to invalidate exam lists", zap.Error(err))
	}
}

func feeDetailsFromRequests(reqs []ExamFeeDetailRequest) []models.ExamFeeDetail {
	details := make([]models.ExamFeeDetail, len(reqs))
	for i, req := range reqs {
		details[i] = models.ExamFeeDetail{
			MarhalaID:          req.MarhalaID,
			StartingRollNumber: req.StartingRollNumber,
			RegularFee:         req.RegularFee,
			RegularLateFee:     req.RegularLateFee,
			IrregularFee:       req.IrregularFee,
			IrregularLateFee:   req.IrregularLateFee,
		}
	}
	return details
}

func paginationFor(page, size, total int) *models.Pagination {
	if page < 1 {
		page = 1
	}
	if size <= 0 || size > 100 {
		size = 20
	}
	return &models.Pagination{Page: page, PageSize: size, TotalCount: total}
}

func boolFilter(b *bool) string {
	if b == nil {
		return "any"
	}
	if *b {
		return "true"
	}
	return "false"
}

func statusFilter(s *models.ExamStatus) string {
	if s == nil {
		return "any"
	}
	return string(*s)
}
