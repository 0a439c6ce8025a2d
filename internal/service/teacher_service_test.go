package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talim-board/admin-api/internal/models"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
)

type teacherRepoStub struct {
	teachers   map[string]models.Teacher
	phoneTaken bool
	nidTaken   bool
	mumtahin   map[string]bool
	toggles    int
}

func (s *teacherRepoStub) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	var out []models.Teacher
	for _, teacher := range s.teachers {
		out = append(out, teacher)
	}
	return out, len(out), nil
}

func (s *teacherRepoStub) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	if teacher, ok := s.teachers[id]; ok {
		teacher.Mumtahin = s.mumtahin[id]
		return &teacher, nil
	}
	return nil, sql.ErrNoRows
}

func (s *teacherRepoStub) ExistsByPhone(ctx context.Context, phone, excludeID string) (bool, error) {
	return s.phoneTaken, nil
}

func (s *teacherRepoStub) ExistsByNID(ctx context.Context, nid, excludeID string) (bool, error) {
	return s.nidTaken, nil
}

func (s *teacherRepoStub) Create(ctx context.Context, teacher *models.Teacher) error {
	if s.teachers == nil {
		s.teachers = make(map[string]models.Teacher)
	}
	teacher.ID = "t-new"
	s.teachers[teacher.ID] = *teacher
	return nil
}

func (s *teacherRepoStub) Update(ctx context.Context, teacher *models.Teacher) error {
	s.teachers[teacher.ID] = *teacher
	return nil
}

func (s *teacherRepoStub) UpdatePhoto(ctx context.Context, id, photoPath string) error {
	teacher := s.teachers[id]
	teacher.PhotoPath = &photoPath
	s.teachers[id] = teacher
	return nil
}

func (s *teacherRepoStub) Deactivate(ctx context.Context, id string) error {
	teacher := s.teachers[id]
	teacher.Active = false
	s.teachers[id] = teacher
	return nil
}

func (s *teacherRepoStub) SetMumtahin(ctx context.Context, teacherID string, eligible bool) error {
	if s.mumtahin == nil {
		s.mumtahin = make(map[string]bool)
	}
	s.toggles++
	if eligible {
		s.mumtahin[teacherID] = true
	} else {
		delete(s.mumtahin, teacherID)
	}
	return nil
}

func validTeacherRequest() CreateTeacherRequest {
	return CreateTeacherRequest{
		NameBangla:               "Abdul Karim",
		FatherName:               "Abdur Rahim",
		Phone:                    "01711111111",
		NID:                      "1234567890",
		DateOfBirth:              time.Date(1980, 1, 1, 0, 0, 0, 0, time.UTC),
		Address:                  "Dhaka",
		EducationalQualification: "m1",
		KitabiQualification:      []string{"k1"},
		Payment: PaymentMethodRequest{
			Method: models.PaymentMethodMobile,
			Mobile: &models.MobileWalletPayout{Provider: "bkash", AccountNumber: "01711111111"},
		},
	}
}

func TestTeacherServiceCreateRejectsMismatchedPaymentVariant(t *testing.T) {
	repo := &teacherRepoStub{}
	svc := NewTeacherService(repo, nil, 0, nil, nil)

	req := validTeacherRequest()
	req.Payment = PaymentMethodRequest{Method: models.PaymentMethodMobile}
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	assert.Equal(t, "payment", appErr.Field)

	req = validTeacherRequest()
	req.Payment = PaymentMethodRequest{
		Method: models.PaymentMethodBank,
		Mobile: &models.MobileWalletPayout{Provider: "bkash", AccountNumber: "1"},
		Bank:   &models.BankPayout{AccountName: "A", AccountNumber: "1", BankName: "B"},
	}
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestTeacherServiceCreateRejectsDuplicatePhoneAndNID(t *testing.T) {
	repo := &teacherRepoStub{phoneTaken: true}
	svc := NewTeacherService(repo, nil, 0, nil, nil)

	_, err := svc.Create(context.Background(), validTeacherRequest())
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "phone", appErr.Field)

	repo = &teacherRepoStub{nidTaken: true}
	svc = NewTeacherService(repo, nil, 0, nil, nil)
	_, err = svc.Create(context.Background(), validTeacherRequest())
	require.Error(t, err)
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, "nid", appErr.Field)
}

func TestTeacherServiceEligibilityToggleIsIdempotent(t *testing.T) {
	repo := &teacherRepoStub{
		teachers: map[string]models.Teacher{"t1": {ID: "t1", Active: true}},
	}
	svc := NewTeacherService(repo, nil, 0, nil, nil)

	teacher, err := svc.SetEligibility(context.Background(), "t1", SetMumtahinRequest{Eligible: true})
	require.NoError(t, err)
	assert.True(t, teacher.Mumtahin)

	teacher, err = svc.SetEligibility(context.Background(), "t1", SetMumtahinRequest{Eligible: true})
	require.NoError(t, err)
	assert.True(t, teacher.Mumtahin)

	teacher, err = svc.SetEligibility(context.Background(), "t1", SetMumtahinRequest{Eligible: false})
	require.NoError(t, err)
	assert.False(t, teacher.Mumtahin)

	teacher, err = svc.SetEligibility(context.Background(), "t1", SetMumtahinRequest{Eligible: false})
	require.NoError(t, err)
	assert.False(t, teacher.Mumtahin)
}

func TestTeacherServiceEligibilityRequiresActiveTeacher(t *testing.T) {
	repo := &teacherRepoStub{
		teachers: map[string]models.Teacher{"t1": {ID: "t1", Active: false}},
	}
	svc := NewTeacherService(repo, nil, 0, nil, nil)

	_, err := svc.SetEligibility(context.Background(), "t1", SetMumtahinRequest{Eligible: true})
	require.Error(t, err)
	assert.Zero(t, repo.toggles)
}

func TestTeacherServiceCreateMapsUnion(t *testing.T) {
	repo := &teacherRepoStub{}
	svc := NewTeacherService(repo, nil, 0, nil, nil)

	req := validTeacherRequest()
	req.Payment = PaymentMethodRequest{
		Method: models.PaymentMethodBank,
		Bank:   &models.BankPayout{AccountName: "Abdul Karim", AccountNumber: "111", BankName: "Islami Bank", BranchName: "Motijheel"},
	}
	teacher, err := svc.Create(context.Background(), req)
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodBank, teacher.Payment.Method)
	require.NotNil(t, teacher.Payment.Bank)
	assert.Nil(t, teacher.Payment.Mobile)
}
