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

// ExamRepository manages persistence for exams and their fee details.
type ExamRepository struct {
	db *sqlx.DB
}

// NewExamRepository constructs an ExamRepository.
func NewExamRepository(db *sqlx.DB) *ExamRepository {
	return &ExamRepository{db: db}
}

const examColumns = "id, name, status, registration_start_date, registration_end_date, late_registration_date, is_active, created_at, updated_at"

// List returns exams matching filters along with total count.
func (r *ExamRepository) List(ctx context.Context, filter models.ExamFilter) ([]models.Exam, int, error) {
	base := "FROM exams WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if filter.Status != nil {
		conditions = append(conditions, fmt.Sprintf("status = $%d", len(args)+1))
		args = append(args, *filter.Status)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		conditions = append(conditions, fmt.Sprintf("LOWER(name) LIKE $%d", len(args)+1))
		args = append(args, search)
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"name":                    "name",
		"registration_start_date": "registration_start_date",
		"created_at":              "created_at",
		"updated_at":              "updated_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "created_at"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", examColumns, base, column, order, size, offset)
	var exams []models.Exam
	if err := r.db.SelectContext(ctx, &exams, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list exams: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count exams: %w", err)
	}

	return exams, total, nil
}

// FindByID fetches an exam by ID without fee details.
func (r *ExamRepository) FindByID(ctx context.Context, id string) (*models.Exam, error) {
	query := fmt.Sprintf("SELECT %s FROM exams WHERE id = $1", examColumns)
	var exam models.Exam
	if err := r.db.GetContext(ctx, &exam, query, id); err != nil {
		return nil, err
	}
	return &exam, nil
}

// FindFeeDetails loads all fee detail rows for an exam ordered by marhala.
func (r *ExamRepository) FindFeeDetails(ctx context.Context, examID string) ([]models.ExamFeeDetail, error) {
	const query = `SELECT id, exam_id, marhala_id, starting_roll_number, regular_fee, regular_late_fee, irregular_fee, irregular_late_fee, created_at, updated_at
		FROM exam_fee_details WHERE exam_id = $1 ORDER BY marhala_id`
	var details []models.ExamFeeDetail
	if err := r.db.SelectContext(ctx, &details, query, examID); err != nil {
		return nil, fmt.Errorf("list exam fee details: %w", err)
	}
	return details, nil
}

// ExistsByName checks if another exam uses the same name.
func (r *ExamRepository) ExistsByName(ctx context.Context, name, excludeID string) (bool, error) {
	query := "SELECT 1 FROM exams WHERE LOWER(name) = LOWER($1)"
	args := []interface{}{name}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check exam name: %w", err)
	}
	return true, nil
}

// Create inserts an exam and its fee detail rows in one transaction.
func (r *ExamRepository) Create(ctx context.Context, exam *models.Exam, details []models.ExamFeeDetail) (err error) {
	if exam.ID == "" {
		exam.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if exam.CreatedAt.IsZero() {
		exam.CreatedAt = now
	}
	exam.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create exam tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const insertExam = `INSERT INTO exams (id, name, status, registration_start_date, registration_end_date, late_registration_date, is_active, created_at, updated_at)
		VALUES (:id, :name, :status, :registration_start_date, :registration_end_date, :late_registration_date, :is_active, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, insertExam, exam); err != nil {
		return fmt.Errorf("create exam: %w", err)
	}

	if err = insertFeeDetails(ctx, tx, exam.ID, details, now); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create exam tx: %w", err)
	}
	exam.FeeDetails = details
	return nil
}

// UpdateWithFees updates the exam row and, when details is non-nil,
// replaces all fee detail rows atomically with the exam update.
func (r *ExamRepository) UpdateWithFees(ctx context.Context, exam *models.Exam, details []models.ExamFeeDetail) (err error) {
	now := time.Now().UTC()
	exam.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update exam tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const updateExam = `UPDATE exams SET name = :name, status = :status, registration_start_date = :registration_start_date,
		registration_end_date = :registration_end_date, late_registration_date = :late_registration_date,
		is_active = :is_active, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, updateExam, exam); err != nil {
		return fmt.Errorf("update exam: %w", err)
	}

	if details != nil {
		if _, err = tx.ExecContext(ctx, `DELETE FROM exam_fee_details WHERE exam_id = $1`, exam.ID); err != nil {
			return fmt.Errorf("clear exam fee details: %w", err)
		}
		if err = insertFeeDetails(ctx, tx, exam.ID, details, now); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update exam tx: %w", err)
	}
	return nil
}

// UpdateStatus moves the exam to a new lifecycle status.
func (r *ExamRepository) UpdateStatus(ctx context.Context, id string, status models.ExamStatus) error {
	const query = `UPDATE exams SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update exam status: %w", err)
	}
	return nil
}

// Delete removes an exam and its fee detail rows.
func (r *ExamRepository) Delete(ctx context.Context, id string) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin delete exam tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM exam_fee_details WHERE exam_id = $1`, id); err != nil {
		return fmt.Errorf("delete exam fee details: %w", err)
	}
	if _, err = tx.ExecContext(ctx, `DELETE FROM exams WHERE id = $1`, id); err != nil {
		return fmt.Errorf("delete exam: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit delete exam tx: %w", err)
	}
	return nil
}

func insertFeeDetails(ctx context.Context, tx *sqlx.Tx, examID string, details []models.ExamFeeDetail, now time.Time) error {
	const insertDetail = `INSERT INTO exam_fee_details (id, exam_id, marhala_id, starting_roll_number, regular_fee, regular_late_fee, irregular_fee, irregular_late_fee, created_at, updated_at)
		VALUES (:id, :exam_id, :marhala_id, :starting_roll_number, :regular_fee, :regular_late_fee, :irregular_fee, :irregular_late_fee, :created_at, :updated_at)`
	for i := range details {
		detail := &details[i]
		if detail.ID == "" {
			detail.ID = uuid.NewString()
		}
		detail.ExamID = examID
		if detail.CreatedAt.IsZero() {
			detail.CreatedAt = now
		}
		detail.UpdatedAt = now
		if _, err := tx.NamedExecContext(ctx, insertDetail, detail); err != nil {
			return fmt.Errorf("insert exam fee detail: %w", err)
		}
	}
	return nil
}
