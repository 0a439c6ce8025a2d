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

// FAQRepository manages persistence for FAQs.
type FAQRepository struct {
	db *sqlx.DB
}

// NewFAQRepository constructs a FAQRepository.
func NewFAQRepository(db *sqlx.DB) *FAQRepository {
	return &FAQRepository{db: db}
}

const faqColumns = `id, question, answer, display_order, active, created_at, updated_at`

// List returns FAQs matching filters, ordered by display position.
func (r *FAQRepository) List(ctx context.Context, filter models.FAQFilter) ([]models.FAQ, int, error) {
	where := " WHERE 1=1"
	var args []interface{}

	if filter.Active != nil {
		where += fmt.Sprintf(" AND active = $%d", len(args)+1)
		args = append(args, *filter.Active)
	}
	if filter.Search != "" {
		search := "%" + strings.ToLower(filter.Search) + "%"
		where += fmt.Sprintf(" AND (LOWER(question) LIKE $%d OR LOWER(answer) LIKE $%d)", len(args)+1, len(args)+1)
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

	query := fmt.Sprintf("SELECT %s FROM faqs%s ORDER BY display_order %s, created_at ASC LIMIT %d OFFSET %d", faqColumns, where, order, size, offset)
	var faqs []models.FAQ
	if err := r.db.SelectContext(ctx, &faqs, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list faqs: %w", err)
	}

	var total int
	if err := r.db.GetContext(ctx, &total, "SELECT COUNT(*) FROM faqs"+where, args...); err != nil {
		return nil, 0, fmt.Errorf("count faqs: %w", err)
	}

	return faqs, total, nil
}

// FindByID fetches a single FAQ.
func (r *FAQRepository) FindByID(ctx context.Context, id string) (*models.FAQ, error) {
	query := fmt.Sprintf("SELECT %s FROM faqs WHERE id = $1", faqColumns)
	var faq models.FAQ
	if err := r.db.GetContext(ctx, &faq, query, id); err != nil {
		return nil, err
	}
	return &faq, nil
}

// Create inserts a FAQ. When no display order is given the entry goes to
// the end of the list.
func (r *FAQRepository) Create(ctx context.Context, faq *models.FAQ) error {
	if faq.ID == "" {
		faq.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if faq.CreatedAt.IsZero() {
		faq.CreatedAt = now
	}
	faq.UpdatedAt = now

	if faq.DisplayOrder == 0 {
		if err := r.db.GetContext(ctx, &faq.DisplayOrder, `SELECT COALESCE(MAX(display_order), 0) + 1 FROM faqs`); err != nil {
			return fmt.Errorf("next faq display order: %w", err)
		}
	}

	const query = `INSERT INTO faqs (id, question, answer, display_order, active, created_at, updated_at)
		VALUES (:id, :question, :answer, :display_order, :active, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, faq); err != nil {
		return fmt.Errorf("create faq: %w", err)
	}
	return nil
}

// Update modifies a FAQ.
func (r *FAQRepository) Update(ctx context.Context, faq *models.FAQ) error {
	faq.UpdatedAt = time.Now().UTC()

	const query = `UPDATE faqs SET question = :question, answer = :answer, display_order = :display_order,
		active = :active, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, faq); err != nil {
		return fmt.Errorf("update faq: %w", err)
	}
	return nil
}

// Deactivate soft-deletes a FAQ so it can be restored later.
func (r *FAQRepository) Deactivate(ctx context.Context, id string) error {
	const query = `UPDATE faqs SET active = FALSE, updated_at = $2 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, time.Now().UTC()); err != nil {
		return fmt.Errorf("deactivate faq: %w", err)
	}
	return nil
}
