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

type examRepoStub struct {
	exams      map[string]models.Exam
	details    map[string][]models.ExamFeeDetail
	nameTaken  bool
	statusSets []models.ExamStatus
	deleted    []string
	updated    bool
}

func (s *examRepoStub) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error) {
	var out []models.Exam
	for _, exam := range s.exams {
		out = append(out, exam)
	}
	return out, len(out), nil
}

func (s *examRepoStub) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	if exam, ok := s.exams[id]; ok {
		return &exam, nil
	}
	return nil, sql.ErrNoRows
}

func (s *examRepoStub) FindFeeDetails(ctx context.Context, examID string) ([]models.ExamFeeDetail, error) {
	return s.details[examID], nil
}

func (s *examRepoStub) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	return s.nameTaken, nil
}

func (s *examRepoStub) Create(ctx context.Context, exam *models.Exam, details []models.ExamFeeDetail) error {
	if s.exams == nil {
		s.exams = make(map[string]models.Exam)
	}
	exam.ID = "e1"
	s.exams[exam.ID] = *exam
	if s.details == nil {
		s.details = make(map[string][]models.ExamFeeDetail)
	}
	s.details[exam.ID] = details
	return nil
}

func (s *examRepoStub) UpdateWithFees(ctx context.Context, exam *models.Exam, details []models.ExamFeeDetail) error {
	s.updated = true
	s.exams[exam.ID] = *exam
	if details != nil {
		s.details[exam.ID] = details
	}
	return nil
}

func (s *examRepoStub) UpdateStatus(ctx context.Context, id string, status models.ExamStatus) error {
	s.statusSets = append(s.statusSets, status)
	exam := s.exams[id]
	exam.Status = status
	s.exams[id] = exam
	return nil
}

func (s *examRepoStub) Delete(ctx context.Context, id string) error {
	s.deleted = append(s.deleted, id)
	delete(s.exams, id)
	return nil
}

func newExamStub(status models.ExamStatus) *examRepoStub {
	return &examRepoStub{
		exams: map[string]models.Exam{
			"e1": {ID: "e1", Name: "Annual 1447", Status: status, IsActive: true},
		},
		details: map[string][]models.ExamFeeDetail{},
	}
}

func strPtr(s string) *string { return &s }

func TestExamServiceUpdateNameLockedWhileOngoing(t *testing.T) {
	repo := newExamStub(models.ExamStatusOngoing)
	svc := NewExamService(repo, nil, 0, nil, nil)

	_, err := svc.Update(context.Background(), "e1", UpdateExamRequest{Name: strPtr("Renamed")})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrStatusLocked.Code, appErr.Code)
	assert.False(t, repo.updated)
}

func TestExamServiceUpdateNameAllowedWhileCancelled(t *testing.T) {
	repo := newExamStub(models.ExamStatusCancelled)
	svc := NewExamService(repo, nil, 0, nil, nil)

	exam, err := svc.Update(context.Background(), "e1", UpdateExamRequest{Name: strPtr("Renamed")})
	require.NoError(t, err)
	assert.Equal(t, "Renamed", exam.Name)
	assert.True(t, repo.updated)
}

func TestExamServiceUpdateFeeScheduleFrozenAfterPending(t *testing.T) {
	for _, status := range []models.ExamStatus{models.ExamStatusPreparatory, models.ExamStatusOngoing, models.ExamStatusCompleted, models.ExamStatusCancelled} {
		repo := newExamStub(status)
		svc := NewExamService(repo, nil, 0, nil, nil)

		_, err := svc.Update(context.Background(), "e1", UpdateExamRequest{
			FeeDetails: []ExamFeeDetailRequest{{MarhalaID: "m1", StartingRollNumber: 100}},
		})
		require.Error(t, err, "status %s", status)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrStatusLocked.Code, appErr.Code)
		assert.False(t, repo.updated)
	}
}

func TestExamServiceUpdateRegistrationInfoOnlyWhilePending(t *testing.T) {
	now := time.Now()

	repo := newExamStub(models.ExamStatusPending)
	svc := NewExamService(repo, nil, 0, nil, nil)
	_, err := svc.Update(context.Background(), "e1", UpdateExamRequest{RegistrationStartDate: &now})
	require.NoError(t, err)

	repo = newExamStub(models.ExamStatusPreparatory)
	svc = NewExamService(repo, nil, 0, nil, nil)
	_, err = svc.Update(context.Background(), "e1", UpdateExamRequest{RegistrationStartDate: &now})
	require.Error(t, err)
}

func TestExamServiceStatusTransitionRejectedBeforeWrite(t *testing.T) {
	repo := newExamStub(models.ExamStatusCompleted)
	svc := NewExamService(repo, nil, 0, nil, nil)

	for _, target := range []models.ExamStatus{models.ExamStatusPending, models.ExamStatusPreparatory, models.ExamStatusOngoing, models.ExamStatusCancelled} {
		_, err := svc.UpdateStatus(context.Background(), "e1", UpdateExamStatusRequest{Status: target})
		require.Error(t, err, "target %s", target)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrStatusLocked.Code, appErr.Code)
	}
	assert.Empty(t, repo.statusSets)
}

func TestExamServiceStatusTransitionFollowsLifecycle(t *testing.T) {
	repo := newExamStub(models.ExamStatusPending)
	svc := NewExamService(repo, nil, 0, nil, nil)

	exam, err := svc.UpdateStatus(context.Background(), "e1", UpdateExamStatusRequest{Status: models.ExamStatusPreparatory})
	require.NoError(t, err)
	assert.Equal(t, models.ExamStatusPreparatory, exam.Status)

	exam, err = svc.UpdateStatus(context.Background(), "e1", UpdateExamStatusRequest{Status: models.ExamStatusOngoing})
	require.NoError(t, err)
	assert.Equal(t, models.ExamStatusOngoing, exam.Status)

	exam, err = svc.UpdateStatus(context.Background(), "e1", UpdateExamStatusRequest{Status: models.ExamStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.ExamStatusCompleted, exam.Status)

	// resubmitting the terminal status is a legal no-op
	exam, err = svc.UpdateStatus(context.Background(), "e1", UpdateExamStatusRequest{Status: models.ExamStatusCompleted})
	require.NoError(t, err)
	assert.Equal(t, models.ExamStatusCompleted, exam.Status)
}

func TestExamServiceCreateRejectsDuplicateName(t *testing.T) {
	repo := newExamStub(models.ExamStatusPending)
	repo.nameTaken = true
	svc := NewExamService(repo, nil, 0, nil, nil)

	_, err := svc.Create(context.Background(), CreateExamRequest{
		Name:                  "Annual 1447",
		RegistrationStartDate: time.Now(),
		RegistrationEndDate:   time.Now(),
		LateRegistrationDate:  time.Now(),
		FeeDetails:            []ExamFeeDetailRequest{{MarhalaID: "m1", StartingRollNumber: 1000}},
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "name", appErr.Field)
}

func TestExamServiceDeleteOnlyWhenNeverRan(t *testing.T) {
	repo := newExamStub(models.ExamStatusOngoing)
	svc := NewExamService(repo, nil, 0, nil, nil)
	err := svc.Delete(context.Background(), "e1")
	require.Error(t, err)
	assert.Empty(t, repo.deleted)

	repo = newExamStub(models.ExamStatusPending)
	svc = NewExamService(repo, nil, 0, nil, nil)
	require.NoError(t, svc.Delete(context.Background(), "e1"))
	assert.Equal(t, []string{"e1"}, repo.deleted)
}
