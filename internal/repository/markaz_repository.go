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

// MarkazRepository manages persistence for exam centers.
type MarkazRepository struct {
	db *sqlx.DB
}

// NewMarkazRepository constructs a MarkazRepository.
func NewMarkazRepository(db *sqlx.DB) *MarkazRepository {
	return &MarkazRepository{db: db}
}

const markazSelect = `SELECT m.id, m.name, m.code, m.host_madrasa_id, m.zone_id, m.examinee_limit, m.active, m.created_at, m.updated_at,
	COALESCE(md.name, '') AS host_madrasa_name, COALESCE(z.name, '') AS zone_name
	FROM markazes m
	LEFT JOIN madrasas md ON md.id = m.host_madrasa_id
	LEFT JOIN zones z ON z.id = m.zone_id`

// List returns markazes matching filters along with total count.
func (r *MarkazRepository) List(ctx context.Context, filter models.MarkazFilter) ([]models.Markaz, int, error) {
	where := " WHERE 1=1"
	var args []interface{}

	if filter.Active != nil {
		where += fmt.Sprintf(" AND m.active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	if filter.ZoneID != "" {
		where += fmt.Sprintf(" AND m.zone_id = $%d", len(args)+1)
		args = append(args, filter.ZoneID)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		where += fmt.Sprintf(" AND (LOWER(m.name) LIKE $%d OR CAST(m.code AS TEXT) LIKE $%d)", len(args)+1, len(args)+1)
		args = append(args, search)
	}

	allowedSorts := map[string]string{
		"name":       "m.name",
		"code":       "m.code",
		"created_at": "m.created_at",
	}
	column, ok := allowedSorts[filter.SortBy]
	if !ok {
		column = "m.created_at"
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

	query := fmt.Sprintf("%s%s ORDER BY %s %s LIMIT %d OFFSET %d", markazSelect, where, column, order, size, offset)
	var markazes []models.Markaz
	if err := r.db.SelectContext(ctx, &markazes, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list markazes: %w", err)
	}

	countQuery := "SELECT COUNT(*) FROM markazes m" + where
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count markazes: %w", err)
	}

	return markazes, total, nil
}

// FindByID fetches a markaz by ID.
func (r *MarkazRepository) FindByID(ctx context.Context, id string) (*models.Markaz, error) {
	query := markazSelect + " WHERE m.id = $1"
	var markaz models.Markaz
	if err := r.db.GetContext(ctx, &markaz, query, id); err != nil {
		return nil, err
	}
	return &markaz, nil
}

// ExistsByHostMadrasa checks if the madrasa already hosts another markaz.
func (r *MarkazRepository) ExistsByHostMadrasa(ctx context.Context, madrasaID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM markazes WHERE host_madrasa_id = $1"
	args := []interface{}{madrasaID}
	if excludeID != "" {
		query += " AND id <> $2"
		args = append(args, excludeID)
	}
	var exists int
	if err := r.db.GetContext(ctx, &exists, query+" LIMIT 1", args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check markaz host madrasa: %w", err)
	}
	return true, nil
}

// MadrasaCode returns the numeric code of a madrasa, used to derive the
// markaz code.
func (r *MarkazRepository) MadrasaCode(ctx context.Context, madrasaID string) (int, error) {
	var code int
	if err := r.db.GetContext(ctx, &code, `SELECT code FROM madrasas WHERE id = $1`, madrasaID); err != nil {
		return 0, err
	}
	return code, nil
}

// Create inserts a new markaz record.
func (r *MarkazRepository) Create(ctx context.Context, markaz *models.Markaz) error {
	if markaz.ID == "" {
		markaz.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if markaz.CreatedAt.IsZero() {
		markaz.CreatedAt = now
	}
	markaz.UpdatedAt = now

	const query = `INSERT INTO markazes (id, name, code, host_madrasa_id, zone_id, examinee_limit, active, created_at, updated_at)
		VALUES (:id, :name, :code, :host_madrasa_id, :zone_id, :examinee_limit, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, markaz); err != nil {
		return fmt.Errorf("create markaz: %w", err)
	}
	return nil
}

// Update modifies an existing markaz record.
func (r *MarkazRepository) Update(ctx context.Context, markaz *models.Markaz) error {
	markaz.UpdatedAt = time.Now().UTC()
	const query = `UPDATE markazes SET name = :name, code = :code, host_madrasa_id = :host_madrasa_id, zone_id = :zone_id,
		examinee_limit = :examinee_limit, active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, markaz); err != nil {
		return fmt.Errorf("update markaz: %w", err)
	}
	return nil
}

// Deactivate sets a markaz's active flag to false.
func (r *MarkazRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE markazes SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate markaz: %w", err)
	}
	return nil
}
