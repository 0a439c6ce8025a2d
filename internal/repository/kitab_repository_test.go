package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talim-board/admin-api/internal/models"
)

func newKitabMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestKitabRepositoryList(t *testing.T) {
	db, mock, cleanup := newKitabMock(t)
	defer cleanup()
	repo := NewKitabRepository(db)

	rows := sqlmock.NewRows([]string{"id", "code", "name_bangla", "name_arabic", "full_marks", "created_at", "updated_at"}).
		AddRow("k1", 1, "Kitab", "Kitab", 100, time.Now(), time.Now())
	mock.ExpectQuery("SELECT id, code, name_bangla, name_arabic, full_marks, created_at, updated_at FROM kitabs WHERE 1=1 ORDER BY code ASC LIMIT 20 OFFSET 0").
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM kitabs WHERE 1=1`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	kitabs, total, err := repo.List(context.Background(), models.KitabFilter{})
	require.NoError(t, err)
	assert.Len(t, kitabs, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKitabRepositoryListNumericSearchMatchesCode(t *testing.T) {
	db, mock, cleanup := newKitabMock(t)
	defer cleanup()
	repo := NewKitabRepository(db)

	mock.ExpectQuery("FROM kitabs WHERE 1=1 AND .*OR code = ").
		WithArgs("%12%", 12).
		WillReturnRows(sqlmock.NewRows([]string{"id", "code", "name_bangla", "name_arabic", "full_marks", "created_at", "updated_at"}))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM kitabs`).
		WithArgs("%12%", 12).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	_, total, err := repo.List(context.Background(), models.KitabFilter{Search: "12"})
	require.NoError(t, err)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKitabRepositoryCreateAssignsNextCode(t *testing.T) {
	db, mock, cleanup := newKitabMock(t)
	defer cleanup()
	repo := NewKitabRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(code\), 0\) \+ 1 FROM kitabs`).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow(7))
	mock.ExpectExec("INSERT INTO kitabs").
		WithArgs(sqlmock.AnyArg(), 7, "Nahu", "Nahw", 100, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	kitab := &models.Kitab{NameBangla: "Nahu", NameArabic: "Nahw", FullMarks: 100}
	err := repo.Create(context.Background(), kitab)
	require.NoError(t, err)
	assert.Equal(t, 7, kitab.Code)
	assert.NotEmpty(t, kitab.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKitabRepositoryCreateRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newKitabMock(t)
	defer cleanup()
	repo := NewKitabRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(`SELECT COALESCE\(MAX\(code\), 0\) \+ 1 FROM kitabs`).
		WillReturnRows(sqlmock.NewRows([]string{"code"}).AddRow(2))
	mock.ExpectExec("INSERT INTO kitabs").
		WillReturnError(&pq.Error{Code: "23505", Constraint: "kitabs_name_bangla_key"})
	mock.ExpectRollback()

	err := repo.Create(context.Background(), &models.Kitab{NameBangla: "Nahu", FullMarks: 100})
	require.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKitabRepositoryExistsByName(t *testing.T) {
	db, mock, cleanup := newKitabMock(t)
	defer cleanup()
	repo := NewKitabRepository(db)

	mock.ExpectQuery(`SELECT 1 FROM kitabs WHERE LOWER\(name_bangla\) = LOWER\(\$1\) AND id <> \$2 LIMIT 1`).
		WithArgs("Nahu", "k1").
		WillReturnRows(sqlmock.NewRows([]string{"exists"}).AddRow(1))

	exists, err := repo.ExistsByName(context.Background(), "Nahu", "k1")
	require.NoError(t, err)
	assert.True(t, exists)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestKitabRepositoryDeleteSurfacesForeignKeyViolation(t *testing.T) {
	db, mock, cleanup := newKitabMock(t)
	defer cleanup()
	repo := NewKitabRepository(db)

	mock.ExpectExec("DELETE FROM kitabs WHERE id = ").
		WithArgs("k1").
		WillReturnError(&pq.Error{Code: "23503", Constraint: "marhala_kitabs_kitab_id_fkey"})

	err := repo.Delete(context.Background(), "k1")
	require.Error(t, err)
	assert.True(t, IsForeignKeyViolation(err))
	assert.NoError(t, mock.ExpectationsWereMet())
}
