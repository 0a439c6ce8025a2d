package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talim-board/admin-api/internal/models"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
)

type stubNoticeRepo struct {
	notices map[string]*models.Notice
	deleted []string
}

func newStubNoticeRepo() *stubNoticeRepo {
	return &stubNoticeRepo{notices: map[string]*models.Notice{}}
}

func (s *stubNoticeRepo) List(context.Context, models.NoticeFilter) ([]models.Notice, int, error) {
	out := make([]models.Notice, 0, len(s.notices))
	for _, n := range s.notices {
		out = append(out, *n)
	}
	return out, len(out), nil
}

func (s *stubNoticeRepo) FindByID(_ context.Context, id string) (*models.Notice, error) {
	n, ok := s.notices[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	copied := *n
	return &copied, nil
}

func (s *stubNoticeRepo) Create(_ context.Context, notice *models.Notice) error {
	notice.ID = "notice-1"
	s.notices[notice.ID] = notice
	return nil
}

func (s *stubNoticeRepo) Update(_ context.Context, notice *models.Notice) error {
	s.notices[notice.ID] = notice
	return nil
}

func (s *stubNoticeRepo) Delete(_ context.Context, id string) error {
	delete(s.notices, id)
	s.deleted = append(s.deleted, id)
	return nil
}

func TestNoticeServiceCreateDefaultsActive(t *testing.T) {
	repo := newStubNoticeRepo()
	svc := NewNoticeService(repo, nil, 0, nil, nil)

	notice, err := svc.Create(context.Background(), CreateNoticeRequest{
		Title: "  Exam schedule published ",
		Body:  "Registration opens next week.",
	})
	require.NoError(t, err)
	assert.Equal(t, "Exam schedule published", notice.Title)
	assert.True(t, notice.Active)
}

func TestNoticeServiceCreateRequiresBody(t *testing.T) {
	svc := NewNoticeService(newStubNoticeRepo(), nil, 0, nil, nil)

	_, err := svc.Create(context.Background(), CreateNoticeRequest{Title: "No body"})
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
}

func TestNoticeServiceDeleteIsHard(t *testing.T) {
	repo := newStubNoticeRepo()
	repo.notices["n-1"] = &models.Notice{ID: "n-1", Title: "Old", Body: "Old body", Active: true}
	svc := NewNoticeService(repo, nil, 0, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "n-1"))
	assert.Empty(t, repo.notices)
	assert.Equal(t, []string{"n-1"}, repo.deleted)
}

func TestNoticeServiceDeleteMissing(t *testing.T) {
	svc := NewNoticeService(newStubNoticeRepo(), nil, 0, nil, nil)

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
