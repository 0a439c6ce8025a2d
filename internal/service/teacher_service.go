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

type teacherRepository interface {
	List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error)
	FindByID(ctx context.Context, id string) (*models.Teacher, error)
	ExistsByPhone(ctx context.Context, phone, excludeID string) (bool, error)
	ExistsByNID(ctx context.Context, nid, excludeID string) (bool, error)
	Create(ctx context.Context, teacher *models.Teacher) error
	Update(ctx context.Context, teacher *models.Teacher) error
	UpdatePhoto(ctx context.Context, id, photoPath string) error
	Deactivate(ctx context.Context, id string) error
	SetMumtahin(ctx context.Context, teacherID string, eligible bool) error
}

// PaymentMethodRequest is the wire form of the payout union. Exactly the
// variant matching Method must be present.
type PaymentMethodRequest struct {
	Method models.PaymentMethodType   `json:"method" validate:"required,oneof=mobile bank"`
	Mobile *models.MobileWalletPayout `json:"mobile,omitempty"`
	Bank   *models.BankPayout         `json:"bank,omitempty"`
}

// CreateTeacherRequest captures fields for registering a teacher.
type CreateTeacherRequest struct {
	NameBangla               string               `json:"name_bangla" validate:"required"`
	FatherName               string               `json:"father_name" validate:"required"`
	Phone                    string               `json:"phone" validate:"required"`
	NID                      string               `json:"nid" validate:"required"`
	DateOfBirth              time.Time            `json:"date_of_birth" validate:"required"`
	Address                  string               `json:"address" validate:"required"`
	EducationalQualification string               `json:"educational_qualification" validate:"required"`
	KitabiQualification      []string             `json:"kitabi_qualification" validate:"required,min=1,dive,required"`
	Payment                  PaymentMethodRequest `json:"payment" validate:"required"`
}

// UpdateTeacherRequest modifies a teacher's profile.
type UpdateTeacherRequest struct {
	NameBangla               string               `json:"name_bangla" validate:"required"`
	FatherName               string               `json:"father_name" validate:"required"`
	Phone                    string               `json:"phone" validate:"required"`
	NID                      string               `json:"nid" validate:"required"`
	DateOfBirth              time.Time            `json:"date_of_birth" validate:"required"`
	Address                  string               `json:"address" validate:"required"`
	EducationalQualification string               `json:"educational_qualification" validate:"required"`
	KitabiQualification      []string             `json:"kitabi_qualification,omitempty" validate:"omitempty,min=1,dive,required"`
	Payment                  PaymentMethodRequest `json:"payment" validate:"required"`
	Active                   *bool                `json:"active,omitempty"`
}

// SetMumtahinRequest toggles examiner eligibility.
type SetMumtahinRequest struct {
	Eligible bool `json:"eligible"`
}

// TeacherService handles teacher registration and examiner eligibility.
type TeacherService struct {
	repo      teacherRepository
	cache     *CacheService
	cacheTTL  time.Duration
	validator *validator.Validate
	logger    *zap.Logger
}

// NewTeacherService creates a new teacher service.
func NewTeacherService(repo teacherRepository, cache *CacheService, cacheTTL time.Duration, validate *validator.Validate, logger *zap.Logger) *TeacherService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TeacherService{repo: repo, cache: cache, cacheTTL: cacheTTL, validator: validate, logger: logger}
}

type teacherListPayload struct {
	Teachers   []models.Teacher   `json:"teachers"`
	Pagination *models.Pagination `json:"pagination"`
}

// List returns paginated teachers, cached per filter tuple.
func (s *TeacherService) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, *models.Pagination, bool, error) {
	key := ListKey("teachers", filter.Search, boolFilter(filter.Active), filter.MumtahinOnly, filter.MarhalaID, filter.Page, filter.PageSize, filter.SortBy, filter.SortOrder)

	var cached teacherListPayload
	if hit, _ := s.cache.Get(ctx, key, &cached); hit {
		return cached.Teachers, cached.Pagination, true, nil
	}

	teachers, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list teachers")
	}

	pagination := paginationFor(filter.Page, filter.PageSize, total)
	_ = s.cache.Set(ctx, key, teacherListPayload{Teachers: teachers, Pagination: pagination}, s.cacheTTL)
	return teachers, pagination, false, nil
}

// Get returns a teacher by identifier.
func (s *TeacherService) Get(ctx context.Context, id string) (*models.Teacher, error) {
	teacher, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "teacher not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load teacher")
	}
	return teacher, nil
}

// Create registers a teacher ensuring phone and NID uniqueness.
func (s *TeacherService) Create(ctx context.Context, req CreateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	payment, err := paymentFromRequest(req.Payment)
	if err != nil {
		return nil, err
	}

	req.Phone = strings.TrimSpace(req.Phone)
	req.NID = strings.TrimSpace(req.NID)

	if err := s.checkIdentity(ctx, req.Phone, req.NID, ""); err != nil {
		return nil, err
	}

	teacher := &models.Teacher{
		NameBangla:               strings.TrimSpace(req.NameBangla),
		FatherName:               strings.TrimSpace(req.FatherName),
		Phone:                    req.Phone,
		NID:                      req.NID,
		DateOfBirth:              req.DateOfBirth,
		Address:                  strings.TrimSpace(req.Address),
		EducationalQualification: req.EducationalQualification,
		KitabiQualification:      req.KitabiQualification,
		Payment:                  payment,
		Active:                   true,
	}

	if err := s.repo.Create(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create teacher")
	}

	s.invalidateLists(ctx)
	return teacher, nil
}

// Update modifies a teacher profile.
func (s *TeacherService) Update(ctx context.Context, id string, req UpdateTeacherRequest) (*models.Teacher, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid teacher payload")
	}

	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	payment, err := paymentFromRequest(req.Payment)
	if err != nil {
		return nil, err
	}

	req.Phone = strings.TrimSpace(req.Phone)
	req.NID = strings.TrimSpace(req.NID)

	if err := s.checkIdentity(ctx, req.Phone, req.NID, id); err != nil {
		return nil, err
	}

	teacher.NameBangla = strings.TrimSpace(req.NameBangla)
	teacher.FatherName = strings.TrimSpace(req.FatherName)
	teacher.Phone = req.Phone
	teacher.NID = req.NID
	teacher.DateOfBirth = req.DateOfBirth
	teacher.Address = strings.TrimSpace(req.Address)
	teacher.EducationalQualification = req.EducationalQualification
	teacher.KitabiQualification = req.KitabiQualification
	teacher.Payment = payment
	if req.Active != nil {
		teacher.Active = *req.Active
	}

	if err := s.repo.Update(ctx, teacher); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher")
	}

	s.invalidateLists(ctx)
	return s.Get(ctx, id)
}

// SetPhoto records the stored path of the teacher's photo.
func (s *TeacherService) SetPhoto(ctx context.Context, id, photoPath string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.UpdatePhoto(ctx, id, photoPath); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update teacher photo")
	}
	s.invalidateLists(ctx)
	return nil
}

// Deactivate retires a teacher without deleting their record.
func (s *TeacherService) Deactivate(ctx context.Context, id string) error {
	if _, err := s.Get(ctx, id); err != nil {
		return err
	}
	if err := s.repo.Deactivate(ctx, id); err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate teacher")
	}
	s.invalidateLists(ctx)
	return nil
}

// SetEligibility grants or revokes mumtahin status. Repeating the same
// toggle is a no-op, not an error.
func (s *TeacherService) SetEligibility(ctx context.Context, id string, req SetMumtahinRequest) (*models.Teacher, error) {
	teacher, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if req.Eligible && !teacher.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "inactive teachers cannot be designated mumtahin")
	}

	if err := s.repo.SetMumtahin(ctx, id, req.Eligible); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update mumtahin designation")
	}

	s.invalidateLists(ctx)
	return s.Get(ctx, id)
}

func (s *TeacherService) checkIdentity(ctx context.Context, phone, nid, excludeID string) error {
	exists, err := s.repo.ExistsByPhone(ctx, phone, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check phone number")
	}
	if exists {
		return appErrors.WithField(appErrors.ErrConflict, "phone", "a teacher with this phone number already exists")
	}

	exists, err = s.repo.ExistsByNID(ctx, nid, excludeID)
	if err != nil {
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check NID")
	}
	if exists {
		return appErrors.WithField(appErrors.ErrConflict, "nid", "a teacher with this NID already exists")
	}
	return nil
}

func (s *TeacherService) invalidateLists(ctx context.Context) {
	if err := s.cache.Invalidate(ctx, ResourcePattern("teachers")); err != nil {
		s.logger.Warn("failed to invalidate teacher lists", zap.Error(err))
	}
}

func paymentFromRequest(req PaymentMethodRequest) (models.PaymentMethod, error) {
	switch req.Method {
	case models.PaymentMethodMobile:
		if req.Mobile == nil || req.Bank != nil {
			return models.PaymentMethod{}, appErrors.WithField(appErrors.ErrValidation, "payment", "mobile payment requires exactly the mobile wallet details")
		}
		if strings.TrimSpace(req.Mobile.Provider) == "" || strings.TrimSpace(req.Mobile.AccountNumber) == "" {
			return models.PaymentMethod{}, appErrors.WithField(appErrors.ErrValidation, "payment", "mobile wallet provider and account number are required")
		}
		return models.PaymentMethod{Method: models.PaymentMethodMobile, Mobile: req.Mobile}, nil
	case models.PaymentMethodBank:
		if req.Bank == nil || req.Mobile != nil {
			return models.PaymentMethod{}, appErrors.WithField(appErrors.ErrValidation, "payment", "bank payment requires exactly the bank account details")
		}
		if strings.TrimSpace(req.Bank.AccountName) == "" || strings.TrimSpace(req.Bank.AccountNumber) == "" || strings.TrimSpace(req.Bank.BankName) == "" {
			return models.PaymentMethod{}, appErrors.WithField(appErrors.ErrValidation, "payment", "bank account name, number and bank name are required")
		}
		return models.PaymentMethod{Method: models.PaymentMethodBank, Bank: req.Bank}, nil
	}
	return models.PaymentMethod{}, appErrors.WithField(appErrors.ErrValidation, "payment", "unknown payment method")
}
