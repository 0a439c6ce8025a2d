package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/talim-board/admin-api/internal/models"
)

// TeacherRepository manages persistence for teachers, their kitab
// qualifications and mumtahin designations.
type TeacherRepository struct {
	db *sqlx.DB
}

// NewTeacherRepository constructs a TeacherRepository.
func NewTeacherRepository(db *sqlx.DB) *TeacherRepository {
	return &TeacherRepository{db: db}
}

// teacherRow mirrors the flattened teachers table. The payment variant is
// stored in nullable columns; mapping to the tagged union happens in
// toTeacher/fromTeacher so the rest of the code never sees the flat shape.
type teacherRow struct {
	ID                  string    `db:"id"`
	NameBangla          string    `db:"name_bangla"`
	FatherName          string    `db:"father_name"`
	Phone               string    `db:"phone"`
	NID                 string    `db:"nid"`
	DateOfBirth         time.Time `db:"date_of_birth"`
	Address             string    `db:"address"`
	MarhalaID           string    `db:"marhala_id"`
	PaymentMethod       string    `db:"payment_method"`
	WalletProvider      *string   `db:"wallet_provider"`
	WalletAccountNumber *string   `db:"wallet_account_number"`
	BankAccountName     *string   `db:"bank_account_name"`
	BankAccountNumber   *string   `db:"bank_account_number"`
	BankName            *string   `db:"bank_name"`
	BranchName          *string   `db:"branch_name"`
	PhotoPath           *string   `db:"photo_path"`
	Mumtahin            bool      `db:"mumtahin"`
	Active              bool      `db:"active"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}

func toTeacher(row teacherRow) models.Teacher {
	teacher := models.Teacher{
		ID:                       row.ID,
		NameBangla:               row.NameBangla,
		FatherName:               row.FatherName,
		Phone:                    row.Phone,
		NID:                      row.NID,
		DateOfBirth:              row.DateOfBirth,
		Address:                  row.Address,
		EducationalQualification: row.MarhalaID,
		PhotoPath:                row.PhotoPath,
		Mumtahin:                 row.Mumtahin,
		Active:                   row.Active,
		CreatedAt:                row.CreatedAt,
		UpdatedAt:                row.UpdatedAt,
	}

	switch models.PaymentMethodType(row.PaymentMethod) {
	case models.PaymentMethodMobile:
		teacher.Payment = models.PaymentMethod{
			Method: models.PaymentMethodMobile,
			Mobile: &models.MobileWalletPayout{
				Provider:      deref(row.WalletProvider),
				AccountNumber: deref(row.WalletAccountNumber),
			},
		}
	case models.PaymentMethodBank:
		teacher.Payment = models.PaymentMethod{
			Method: models.PaymentMethodBank,
			Bank: &models.BankPayout{
				AccountName:   deref(row.BankAccountName),
				AccountNumber: deref(row.BankAccountNumber),
				BankName:      deref(row.BankName),
				BranchName:    deref(row.BranchName),
			},
		}
	}

	return teacher
}

func fromTeacher(teacher *models.Teacher) teacherRow {
	row := teacherRow{
		ID:            teacher.ID,
		NameBangla:    teacher.NameBangla,
		FatherName:    teacher.FatherName,
		Phone:         teacher.Phone,
		NID:           teacher.NID,
		DateOfBirth:   teacher.DateOfBirth,
		Address:       teacher.Address,
		MarhalaID:     teacher.EducationalQualification,
		PaymentMethod: string(teacher.Payment.Method),
		PhotoPath:     teacher.PhotoPath,
		Active:        teacher.Active,
		CreatedAt:     teacher.CreatedAt,
		UpdatedAt:     teacher.UpdatedAt,
	}

	if teacher.Payment.Mobile != nil {
		row.WalletProvider = &teacher.Payment.Mobile.Provider
		row.WalletAccountNumber = &teacher.Payment.Mobile.AccountNumber
	}
	if teacher.Payment.Bank != nil {
		row.BankAccountName = &teacher.Payment.Bank.AccountName
		row.BankAccountNumber = &teacher.Payment.Bank.AccountNumber
		row.BankName = &teacher.Payment.Bank.BankName
		row.BranchName = &teacher.Payment.Bank.BranchName
	}

	return row
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}

const teacherSelect = `SELECT t.id, t.name_bangla, t.father_name, t.phone, t.nid, t.date_of_birth, t.address, t.marhala_id,
	t.payment_method, t.wallet_provider, t.wallet_account_number, t.bank_account_name, t.bank_account_number, t.bank_name, t.branch_name,
	t.photo_path, EXISTS(SELECT 1 FROM mumtahin_designations d WHERE d.teacher_id = t.id) AS mumtahin,
	t.active, t.created_at, t.updated_at
	FROM teachers t`

// List returns teachers matching filters along with total count.
func (r *TeacherRepository) List(ctx context.Context, filter models.TeacherFilter) ([]models.Teacher, int, error) {
	where := " WHERE 1=1"
	var args []interface{}

	if filter.Active != nil {
		where += fmt.Sprintf(" AND t.active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	if filter.MarhalaID != "" {
		where += fmt.Sprintf(" AND t.marhala_id = $%d", len(args)+1)
		args = append(args, filter.MarhalaID)
	}
	if filter.MumtahinOnly {
		where += " AND EXISTS(SELECT 1 FROM mumtahin_designations d WHERE d.teacher_id = t.id)"
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		where += fmt.Sprintf(" AND (LOWER(t.name_bangla) LIKE $%d OR t.phone LIKE $%d OR t.nid LIKE $%d)", len(args)+1, len(args)+1, len(args)+1)
		args = append(args, search)
	}

	allowedSorts := map[string]string{
		"name_bangla": "t.name_bangla",
		"created_at":  "t.created_at",
		"updated_at":  "t.updated_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "t.created_at"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}

	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT %d OFFSET %d", teacherSelect, where, column, order, size, offset)
	var rows []teacherRow
	if err := r.db.SelectContext(ctx, &rows, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list teachers: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM teachers t" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count teachers: %w", err)
	}

	teachers := make([]models.Teacher, len(rows))
	for i, row := range rows {
		teachers[i] = toTeacher(row)
	}
	return teachers, total, nil
}

// FindByID fetches a teacher with kitab qualifications.
func (r *TeacherRepository) FindByID(ctx context.Context, id string) (*models.Teacher, error) {
	query := teacherSelect + " WHERE t.id = $1"
	var row teacherRow
	if err := r.db.GetContext(ctx, &row, query, id); err != nil {
		return nil, err
	}

	teacher := toTeacher(row)
	var kitabIDs []string
	if err := r.db.SelectContext(ctx, &kitabIDs, `SELECT kitab_id FROM teacher_kitabs WHERE teacher_id = $1 ORDER BY kitab_id`, id); err != nil {
		return nil, fmt.Errorf("list teacher kitabs: %w", err)
	}
	teacher.KitabiQualification = kitabIDs
	return &teacher, nil
}

// ExistsByPhone checks if another teacher uses the same phone number.
func (r *TeacherRepository) ExistsByPhone(ctx context.Context, phone, excludeID string) (bool, error) {
	return r.existsBy(ctx, "phone", phone, excludeID)
}

// ExistsByNID checks if another teacher uses the same NID.
func (r *TeacherRepository) ExistsByNID(ctx context.Context, nid, excludeID string) (bool, error) {
	return r.existsBy(ctx, "nid", nid, excludeID)
}

func (r *TeacherRepository) existsBy(ctx context.Context, column, value, excludeID string) (bool, error) {
	query := fmt.Sprintf("SELECT 1 FROM teachers WHERE %s = $1", column)
	args := []interface{}{value}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check teacher %s: %w", column, err)
	}
	return true, nil
}

// Create inserts a teacher and their kitab qualifications atomically.
func (r *TeacherRepository) Create(ctx context.Context, teacher *models.Teacher) (err error) {
	if teacher.ID == "" {
		teacher.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if teacher.CreatedAt.IsZero() {
		teacher.CreatedAt = now
	}
	teacher.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create teacher tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := fromTeacher(teacher)
	const insert = `INSERT INTO teachers (id, name_bangla, father_name, phone, nid, date_of_birth, address, marhala_id,
		payment_method, wallet_provider, wallet_account_number, bank_account_name, bank_account_number, bank_name, branch_name,
		photo_path, active, created_at, updated_at)
		VALUES (:id, :name_bangla, :father_name, :phone, :nid, :date_of_birth, :address, :marhala_id,
		:payment_method, :wallet_provider, :wallet_account_number, :bank_account_name, :bank_account_number, :bank_name, :branch_name,
		:photo_path, :active, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insert, row); err != nil {
		return fmt.Errorf("create teacher: %w", err)
	}

	if err = replaceTeacherKitabs(ctx, tx, teacher.ID, teacher.KitabiQualification); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create teacher tx: %w", err)
	}
	return nil
}

// Update modifies a teacher and replaces their kitab qualifications.
func (r *TeacherRepository) Update(ctx context.Context, teacher *models.Teacher) (err error) {
	teacher.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update teacher tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	row := fromTeacher(teacher)
	const update = `UPDATE teachers SET name_bangla = :name_bangla, father_name = :father_name, phone = :phone, nid = :nid,
		date_of_birth = :date_of_birth, address = :address, marhala_id = :marhala_id, payment_method = :payment_method,
		wallet_provider = :wallet_provider, wallet_account_number = :wallet_account_number, bank_account_name = :bank_account_name,
		bank_account_number = :bank_account_number, bank_name = :bank_name, branch_name = :branch_name,
		photo_path = :photo_path, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, update, row); err != nil {
		return fmt.Errorf("update teacher: %w", err)
	}

	if teacher.KitabiQualification != nil {
		if _, err = tx.ExecContext(ctx, `DELETE FROM teacher_kitabs WHERE teacher_id = $1`, teacher.ID); err != nil {
			return fmt.Errorf("clear teacher kitabs: %w", err)
		}
		if err = replaceTeacherKitabs(ctx, tx, teacher.ID, teacher.KitabiQualification); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update teacher tx: %w", err)
	}
	return nil
}

// UpdatePhoto sets the stored photo path for a teacher.
func (r *TeacherRepository) UpdatePhoto(ctx context.Context, id, photoPath string) error {
	const query = `UPDATE teachers SET photo_path = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, photoPath, time.Now().UTC()); err != nil {
		return fmt.Errorf("update teacher photo: %w", err)
	}
	return nil
}

// Deactivate sets a teacher's active flag to false.
func (r *TeacherRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE teachers SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate teacher: %w", err)
	}
	return nil
}

// SetMumtahin creates or removes the mumtahin designation row. Both
// directions are idempotent.
func (r *TeacherRepository) SetMumtahin(ctx context.Context, teacherID string, eligible bool) error {
	if eligible {
		const insert = `INSERT INTO mumtahin_designations (teacher_id, designated_at) VALUES ($1, $2) ON CONFLICT (teacher_id) DO NOTHING`
		if _, err := r.db.ExecContext(ctx, insert, teacherID, time.Now().UTC()); err != nil {
			return fmt.Errorf("designate mumtahin: %w", err)
		}
		return nil
	}
	if _, err := r.db.ExecContext(ctx, `DELETE FROM mumtahin_designations WHERE teacher_id = $1`, teacherID); err != nil {
		return fmt.Errorf("revoke mumtahin: %w", err)
	}
	return nil
}

func replaceTeacherKitabs(ctx context.Context, tx *sqlx.Tx, teacherID string, kitabIDs []string) error {
	const insert = `INSERT INTO teacher_kitabs (teacher_id, kitab_id) VALUES ($1, $2)`
	for _, kitabID := range kitabIDs {
		if _, err := tx.ExecContext(ctx, insert, teacherID, kitabID); err != nil {
			return fmt.Errorf("assign kitab %s to teacher: %w", kitabID, err)
		}
	}
	return nil
}
