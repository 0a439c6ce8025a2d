package repository

import (
	"context"
	"database/sql"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/talim-board/admin-api/internal/models"
)

// KitabRepository manages persistence for kitabs.
type KitabRepository struct {
	db *sqlx.DB
}

// NewKitabRepository constructs a KitabRepository.
func NewKitabRepository(db *sqlx.DB) *KitabRepository {
	return &KitabRepository{db: db}
}

const kitabColumns = "id, code, name_bangla, name_arabic, full_marks, created_at, updated_at"

// List returns kitabs matching filters along with total count.
func (r *KitabRepository) List(ctx context.Context, filter models.KitabFilter) ([]models.Kitab, int, error) {
	base := "FROM kitabs WHERE 1=1"
	var conditions []string
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		cond := fmt.Sprintf("(LOWER(name_bangla) LIKE $%d OR LOWER(name_arabic) LIKE $%d", len(args)+1, len(args)+1)
		args = append(args, search)
		if code, err := strconv.Atoi(strings.TrimSpace(filter.Search)); err == nil {
			cond += fmt.Sprintf(" OR code = $%d", len(args)+1)
			args = append(args, code)
		}
		conditions = append(conditions, cond+")")
	}

	if len(conditions) > 0 {
		base += " AND " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"code":        "code",
		"name_bangla": "name_bangla",
		"full_marks":  "full_marks",
		"created_at":  "created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "code"
	}

	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "ASC"
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY %s %s LIMIT %d OFFSET %d", kitabColumns, base, column, order, size, offset)
	var kitabs []models.Kitab
	if err := r.db.SelectContext(ctx, &kitabs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list kitabs: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count kitabs: %w", err)
	}

	return kitabs, total, nil
}

// FindByID fetches a kitab by ID.
func (r *KitabRepository) FindByID(ctx context.Context, id string) (*models.Kitab, error) {
	query := fmt.Sprintf("SELECT %s FROM kitabs WHERE id = $1", kitabColumns)
	var kitab models.Kitab
	if err := r.db.GetContext(ctx, &kitab, query, id); err != nil {
		return nil, err
	}
	return &kitab, nil
}

// ExistsByName checks if another kitab uses the same Bengali name.
func (r *KitabRepository) ExistsByName(ctx context.Context, nameBangla, excludeID string) (bool, error) {
	query := "SELECT 1 FROM kitabs WHERE LOWER(name_bangla) = LOWER($1)"
	args := []interface{}{nameBangla}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check kitab name: %w", err)
	}
	return true, nil
}

// Create inserts a new kitab, assigning the next sequential code.
func (r *KitabRepository) Create(ctx context.Context, kitab *models.Kitab) (err error) {
	if kitab.ID == "" {
		kitab.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if kitab.CreatedAt.IsZero() {
		kitab.CreatedAt = now
	}
	kitab.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create kitab tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if err = tx.GetContext(ctx, &kitab.Code, `SELECT COALESCE(MAX(code), 0) + 1 FROM kitabs`); err != nil {
		return fmt.Errorf("next kitab code: %w", err)
	}

	const query = `INSERT INTO kitabs (id, code, name_bangla, name_arabic, full_marks, created_at, updated_at)
		VALUES (:id, :code, :name_bangla, :name_arabic, :full_marks, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, kitab); err != nil {
		return fmt.Errorf("create kitab: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create kitab tx: %w", err)
	}
	return nil
}

// Update modifies an existing kitab. The code is never rewritten.
func (r *KitabRepository) Update(ctx context.Context, kitab *models.Kitab) error {
	kitab.UpdatedAt = time.Now().UTC()
	const query = `UPDATE kitabs SET name_bangla = :name_bangla, name_arabic = :name_arabic, full_marks = :full_marks, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, kitab); err != nil {
		return fmt.Errorf("update kitab: %w", err)
	}
	return nil
}

// Delete removes a kitab. Foreign-key violations bubble up unchanged so
// the service can classify them.
func (r *KitabRepository) Delete(ctx context.Context, id string) error {
	if _, err := r.db.ExecContext(ctx, `DELETE FROM kitabs WHERE id = $1`, id); err != nil {
		return err
	}
	return nil
}
