package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/talim-board/admin-api/internal/models"
)

// MarhalaRepository manages persistence for marhalas and their kitab sets.
type MarhalaRepository struct {
	db *sqlx.DB
}

// NewMarhalaRepository constructs a MarhalaRepository.
func NewMarhalaRepository(db *sqlx.DB) *MarhalaRepository {
	return &MarhalaRepository{db: db}
}

const marhalaColumns = "id, name_bangla, name_arabic, sequence_order, created_at, updated_at"

// List returns marhalas matching filters along with total count.
func (r *MarhalaRepository) List(ctx context.Context, filter models.MarhalaFilter) ([]models.Marhala, int, error) {
	base := "FROM marhalas WHERE 1=1"
	var args []interface{}

	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		base += fmt.Sprintf(" AND (LOWER(name_bangla) LIKE $%d OR LOWER(name_arabic) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, search)
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

	query := fmt.Sprintf("SELECT %s %s ORDER BY sequence_order %s LIMIT %d OFFSET %d", marhalaColumns, base, order, size, offset)
	var marhalas []models.Marhala
	if err := r.db.SelectContext(ctx, &marhalas, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list marhalas: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count marhalas: %w", err)
	}

	return marhalas, total, nil
}

// FindByID fetches a marhala by ID without its kitab set.
func (r *MarhalaRepository) FindByID(ctx context.Context, id string) (*models.Marhala, error) {
	query := fmt.Sprintf("SELECT %s FROM marhalas WHERE id = $1", marhalaColumns)
	var marhala models.Marhala
	if err := r.db.GetContext(ctx, &marhala, query, id); err != nil {
		return nil, err
	}
	return &marhala, nil
}

// FindKitabs loads the kitab set assigned to a marhala.
func (r *MarhalaRepository) FindKitabs(ctx context.Context, marhalaID string) ([]models.Kitab, error) {
	const query = `SELECT k.id, k.code, k.name_bangla, k.name_arabic, k.full_marks, k.created_at, k.updated_at
		FROM kitabs k
		JOIN marhala_kitabs mk ON mk.kitab_id = k.id
		WHERE mk.marhala_id = $1
		ORDER BY k.code`
	var kitabs []models.Kitab
	if err := r.db.SelectContext(ctx, &kitabs, query, marhalaID); err != nil {
		return nil, fmt.Errorf("list marhala kitabs: %w", err)
	}
	return kitabs, nil
}

// Create inserts a marhala and its kitab assignments in one transaction.
func (r *MarhalaRepository) Create(ctx context.Context, marhala *models.Marhala, kitabIDs []string) (err error) {
	if marhala.ID == "" {
		marhala.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if marhala.CreatedAt.IsZero() {
		marhala.CreatedAt = now
	}
	marhala.UpdatedAt = now

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin create marhala tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `INSERT INTO marhalas (id, name_bangla, name_arabic, sequence_order, created_at, updated_at)
		VALUES (:id, :name_bangla, :name_arabic, :sequence_order, :created_at, :updated_at)`
	if _, err = tx.NamedExecContext(ctx, query, marhala); err != nil {
		return fmt.Errorf("create marhala: %w", err)
	}

	if err = insertMarhalaKitabs(ctx, tx, marhala.ID, kitabIDs); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit create marhala tx: %w", err)
	}
	return nil
}

// Update modifies a marhala and replaces its kitab set atomically.
func (r *MarhalaRepository) Update(ctx context.Context, marhala *models.Marhala, kitabIDs []string) (err error) {
	marhala.UpdatedAt = time.Now().UTC()

	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin update marhala tx: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	const query = `UPDATE marhalas SET name_bangla = :name_bangla, name_arabic = :name_arabic, sequence_order = :sequence_order, updated_at = :updated_at WHERE id = :id`
	if _, err = tx.NamedExecContext(ctx, query, marhala); err != nil {
		return fmt.Errorf("update marhala: %w", err)
	}

	if kitabIDs != nil {
		if _, err = tx.ExecContext(ctx, `DELETE FROM marhala_kitabs WHERE marhala_id = $1`, marhala.ID); err != nil {
			return fmt.Errorf("clear marhala kitabs: %w", err)
		}
		if err = insertMarhalaKitabs(ctx, tx, marhala.ID, kitabIDs); err != nil {
			return err
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit update marhala tx: %w", err)
	}
	return nil
}

func insertMarhalaKitabs(ctx context.Context, tx *sqlx.Tx, marhalaID string, kitabIDs []string) error {
	const insert = `INSERT INTO marhala_kitabs (marhala_id, kitab_id) VALUES ($1, $2)`
	for _, kitabID := range kitabIDs {
		if _, err := tx.ExecContext(ctx, insert, marhalaID, kitabID); err != nil {
			return fmt.Errorf("assign kitab %s to marhala: %w", kitabID, err)
		}
	}
	return nil
}
