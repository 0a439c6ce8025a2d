package service

import (
	"context"
	"database/sql"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talim-board/admin-api/internal/models"
	appErrors "github.com/talim-board/admin-api/pkg/errors"
)

type kitabRepoStub struct {
	kitabs    map[string]models.Kitab
	nameTaken bool
	deleteErr error
	deleted   []string
	nextCode  int
}

func (s *kitabRepoStub) List(ctx context.Context, filter models.KitabFilter) ([]models.Kitab, int, error) {
	var out []models.Kitab
	for _, kitab := range s.kitabs {
		out = append(out, kitab)
	}
	return out, len(out), nil
}

func (s *kitabRepoStub) FindByID(ctx context.Context, id string) (*models.Kitab, error) {
	if kitab, ok := s.kitabs[id]; ok {
		return &kitab, nil
	}
	return nil, sql.ErrNoRows
}

func (s *kitabRepoStub) ExistsByName(ctx context.Context, nameBangla, excludeID string) (bool, error) {
	return s.nameTaken, nil
}

func (s *kitabRepoStub) Create(ctx context.Context, kitab *models.Kitab) error {
	if s.kitabs == nil {
		s.kitabs = make(map[string]models.Kitab)
	}
	s.nextCode++
	kitab.ID = "k-new"
	kitab.Code = s.nextCode
	s.kitabs[kitab.ID] = *kitab
	return nil
}

func (s *kitabRepoStub) Update(ctx context.Context, kitab *models.Kitab) error {
	s.kitabs[kitab.ID] = *kitab
	return nil
}

func (s *kitabRepoStub) Delete(ctx context.Context, id string) error {
	if s.deleteErr != nil {
		return s.deleteErr
	}
	s.deleted = append(s.deleted, id)
	delete(s.kitabs, id)
	return nil
}

func TestKitabServiceCreateRejectsDuplicateName(t *testing.T) {
	repo := &kitabRepoStub{nameTaken: true}
	svc := NewKitabService(repo, nil, 0, nil, nil)

	_, err := svc.Create(context.Background(), CreateKitabRequest{NameBangla: "Nahu", NameArabic: "Nahw", FullMarks: 100})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrConflict.Code, appErr.Code)
	assert.Equal(t, "name_bangla", appErr.Field)
}

func TestKitabServiceDeleteSurfacesReferenceConflictAndKeepsKitab(t *testing.T) {
	repo := &kitabRepoStub{
		kitabs:    map[string]models.Kitab{"k1": {ID: "k1", Code: 1, NameBangla: "Nahu"}},
		deleteErr: &pq.Error{Code: "23503", Constraint: "marhala_kitabs_kitab_id_fkey"},
	}
	svc := NewKitabService(repo, nil, 0, nil, nil)

	err := svc.Delete(context.Background(), "k1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrReferenceConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "marhala syllabus")

	kitabs, _, _, listErr := svc.List(context.Background(), models.KitabFilter{})
	require.NoError(t, listErr)
	assert.Len(t, kitabs, 1)
}

func TestKitabServiceDeleteNamesTeacherReference(t *testing.T) {
	repo := &kitabRepoStub{
		kitabs:    map[string]models.Kitab{"k1": {ID: "k1", Code: 1, NameBangla: "Nahu"}},
		deleteErr: &pq.Error{Code: "23503", Constraint: "teacher_kitabs_kitab_id_fkey"},
	}
	svc := NewKitabService(repo, nil, 0, nil, nil)

	err := svc.Delete(context.Background(), "k1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrReferenceConflict.Code, appErr.Code)
	assert.Contains(t, appErr.Message, "teacher qualifications")
}

func TestKitabServiceUpdateKeepsCode(t *testing.T) {
	repo := &kitabRepoStub{
		kitabs: map[string]models.Kitab{"k1": {ID: "k1", Code: 7, NameBangla: "Nahu", NameArabic: "Nahw", FullMarks: 100}},
	}
	svc := NewKitabService(repo, nil, 0, nil, nil)

	kitab, err := svc.Update(context.Background(), "k1", UpdateKitabRequest{NameBangla: "Sarf", NameArabic: "Sarf", FullMarks: 50})
	require.NoError(t, err)
	assert.Equal(t, 7, kitab.Code)
	assert.Equal(t, "Sarf", kitab.NameBangla)
}

func TestKitabServiceGetNotFound(t *testing.T) {
	svc := NewKitabService(&kitabRepoStub{}, nil, 0, nil, nil)

	_, err := svc.Get(context.Background(), "missing")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
