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

func newTeacherMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

var teacherRowColumns = []string{
	"id", "name_bangla", "father_name", "phone", "nid", "date_of_birth", "address", "marhala_id",
	"payment_method", "wallet_provider", "wallet_account_number", "bank_account_name", "bank_account_number", "bank_name", "branch_name",
	"photo_path", "mumtahin", "active", "created_at", "updated_at",
}

func TestTeacherRepositoryFindByIDMapsMobilePayout(t *testing.T) {
	db, mock, cleanup := newTeacherMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows(teacherRowColumns).
		AddRow("t1", "Abdul Karim", "Abdur Rahim", "01711111111", "1234567890", time.Now(), "Dhaka", "m1",
			"mobile", "bkash", "01711111111", nil, nil, nil, nil,
			nil, true, true, time.Now(), time.Now())
	mock.ExpectQuery("FROM teachers t WHERE t.id = ").
		WithArgs("t1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT kitab_id FROM teacher_kitabs WHERE teacher_id = ").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"kitab_id"}).AddRow("k1").AddRow("k2"))

	teacher, err := repo.FindByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodMobile, teacher.Payment.Method)
	require.NotNil(t, teacher.Payment.Mobile)
	assert.Equal(t, "bkash", teacher.Payment.Mobile.Provider)
	assert.Nil(t, teacher.Payment.Bank)
	assert.True(t, teacher.Mumtahin)
	assert.Equal(t, []string{"k1", "k2"}, teacher.KitabiQualification)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryFindByIDMapsBankPayout(t *testing.T) {
	db, mock, cleanup := newTeacherMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	rows := sqlmock.NewRows(teacherRowColumns).
		AddRow("t1", "Abdul Karim", "Abdur Rahim", "01711111111", "1234567890", time.Now(), "Dhaka", "m1",
			"bank", nil, nil, "Abdul Karim", "111222333", "Islami Bank", "Motijheel",
			nil, false, true, time.Now(), time.Now())
	mock.ExpectQuery("FROM teachers t WHERE t.id = ").
		WithArgs("t1").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT kitab_id FROM teacher_kitabs WHERE teacher_id = ").
		WithArgs("t1").
		WillReturnRows(sqlmock.NewRows([]string{"kitab_id"}))

	teacher, err := repo.FindByID(context.Background(), "t1")
	require.NoError(t, err)
	assert.Equal(t, models.PaymentMethodBank, teacher.Payment.Method)
	require.NotNil(t, teacher.Payment.Bank)
	assert.Equal(t, "Islami Bank", teacher.Payment.Bank.BankName)
	assert.Nil(t, teacher.Payment.Mobile)
	assert.False(t, teacher.Mumtahin)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryCreateInsertsQualifications(t *testing.T) {
	db, mock, cleanup := newTeacherMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectBegin()
	mock.ExpectExec("INSERT INTO teachers").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO teacher_kitabs").
		WithArgs(sqlmock.AnyArg(), "k1").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO teacher_kitabs").
		WithArgs(sqlmock.AnyArg(), "k2").
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	teacher := &models.Teacher{
		NameBangla:               "Abdul Karim",
		FatherName:               "Abdur Rahim",
		Phone:                    "01711111111",
		NID:                      "1234567890",
		DateOfBirth:              time.Now(),
		Address:                  "Dhaka",
		EducationalQualification: "m1",
		KitabiQualification:      []string{"k1", "k2"},
		Payment: models.PaymentMethod{
			Method: models.PaymentMethodMobile,
			Mobile: &models.MobileWalletPayout{Provider: "bkash", AccountNumber: "01711111111"},
		},
		Active: true,
	}
	err := repo.Create(context.Background(), teacher)
	require.NoError(t, err)
	assert.NotEmpty(t, teacher.ID)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositorySetMumtahinIsIdempotent(t *testing.T) {
	db, mock, cleanup := newTeacherMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectExec("INSERT INTO mumtahin_designations").
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec("INSERT INTO mumtahin_designations").
		WithArgs("t1", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectExec("DELETE FROM mumtahin_designations WHERE teacher_id = ").
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec("DELETE FROM mumtahin_designations WHERE teacher_id = ").
		WithArgs("t1").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.NoError(t, repo.SetMumtahin(context.Background(), "t1", true))
	require.NoError(t, repo.SetMumtahin(context.Background(), "t1", true))
	require.NoError(t, repo.SetMumtahin(context.Background(), "t1", false))
	require.NoError(t, repo.SetMumtahin(context.Background(), "t1", false))
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestTeacherRepositoryListMumtahinOnly(t *testing.T) {
	db, mock, cleanup := newTeacherMock(t)
	defer cleanup()
	repo := NewTeacherRepository(db)

	mock.ExpectQuery(`FROM teachers t WHERE 1=1 AND EXISTS\(SELECT 1 FROM mumtahin_designations d WHERE d.teacher_id = t.id\)`).
		WillReturnRows(sqlmock.NewRows(teacherRowColumns))
	mock.ExpectQuery(`SELECT COUNT\(\*\) FROM teachers t`).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(0))

	teachers, total, err := repo.List(context.Background(), models.TeacherFilter{MumtahinOnly: true})
	require.NoError(t, err)
	assert.Empty(t, teachers)
	assert.Equal(t, 0, total)
	assert.NoError(t, mock.ExpectationsWereMet())
}
