package repository

import (
	"context"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/talim-board/admin-api/internal/models"
)

func newExamMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestExamRepositoryList(t *testing.T) {
	db, mock, cleanup := newExamMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	rows := sqlmock.NewRows([]string{"id", "name", "status", "registration_start_date", "registration_end_date", "late_registration_date", "is_active", "created_at", "updated_at"}).
		AddRow("e1", "Annual 1447", "pending", time.Now(), time.Now(), time.Now(), true, time.Now(), time.Now())
	mock.ExpectQuery("FROM exams WHERE 1=1 AND is_active = ").
		WithArgs(true).
		WillReturnRows(rows)
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM exams WHERE 1=1`).
		WithArgs(true).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	active := true
	exams, total, err := repo.List(context.Background(), models.ExamFilter{IsActive: &active})
	require.NoError(t, err)
	assert.Len(t, exams, 1)
	assert.Equal(t, 1, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryCreateInsertsFeeDetails(t *testing.T) {
	db, mock, cleanup := newExamMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO exams").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO exam_fee_details").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO exam_fee_details").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	exam := &models.Exam{Name: "Annual 1447", Status: models.ExamStatusPending, IsActive: true}
	details := []models.ExamFeeDetail{
		{MarhalaID: "m1", StartingRollNumber: 1000, RegularFee: 500, RegularLateFee: 700, IrregularFee: 600, IrregularLateFee: 800},
		{MarhalaID: "m2", StartingRollNumber: 2000, RegularFee: 550, RegularLateFee: 750, IrregularFee: 650, IrregularLateFee: 850},
	}
	err := repo.Create(context.Background(), exam, details)
	require.NoError(t, err)
	assert.NotEmpty(t, exam.ID)
	require.Len(t, exam.FeeDetails, 2)
	assert.Equal(t, exam.ID, exam.FeeDetails[0].ExamID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryUpdateWithFeesReplacesRows(t *testing.T) {
	db, mock, cleanup := newExamMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE exams SET name = ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM exam_fee_details WHERE exam_id = ").
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec("INSERT INTO exam_fee_details").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	exam := &models.Exam{ID: "e1", Name: "Annual 1447", Status: models.ExamStatusPending, IsActive: true}
	details := []models.ExamFeeDetail{
		{MarhalaID: "m1", StartingRollNumber: 1000, RegularFee: 500, RegularLateFee: 700, IrregularFee: 600, IrregularLateFee: 800},
	}
	err := repo.UpdateWithFees(context.Background(), exam, details)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryUpdateWithFeesKeepsRowsWhenDetailsNil(t *testing.T) {
	db, mock, cleanup := newExamMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("UPDATE exams SET name = ").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	exam := &models.Exam{ID: "e1", Name: "Annual 1447", Status: models.ExamStatusPending, IsActive: true}
	err := repo.UpdateWithFees(context.Background(), exam, nil)
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestExamRepositoryDeleteRemovesFeeDetailsFirst(t *testing.T) {
	db, mock, cleanup := newExamMock(t)
	defer cleanup()
	repo := NewExamRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("DELETE FROM exam_fee_details WHERE exam_id = ").
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 3))
	mock.ExpectExec("DELETE FROM exams WHERE id = ").
		WithArgs("e1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectCommit()

	err := repo.Delete(context.Background(), "e1")
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}
