package repository

import (
	"context"
	"fmt"
	"strings"

	"github.com/jmoiron/sqlx"

	"github.com/scolaris/scolaris-api/internal/models"
)

// TermRepository handles persistence of grading terms.
type TermRepository struct {
	db *sqlx.DB
}

// NewTermRepository constructs the repository.
func NewTermRepository(db *sqlx.DB) *TermRepository {
	return &TermRepository{db: db}
}

// FindByID returns a term by its ID.
func (r *TermRepository) FindByID(ctx context.Context, id string) (*models.Term, error) {
	const query = `SELECT id, name, sequence, academic_year, start_date, end_date, is_active, created_at
        FROM terms WHERE id = $1`
	var term models.Term
	if err := r.db.GetContext(ctx, &term, query, id); err != nil {
		return nil, err
	}
	return &term, nil
}

// List returns terms matching the filter ordered by year and sequence.
func (r *TermRepository) List(ctx context.Context, filter models.TermFilter) ([]models.Term, error) {
	query := `SELECT id, name, sequence, academic_year, start_date, end_date, is_active, created_at FROM terms`
	var conditions []string
	var args []interface{}
	if filter.AcademicYear != "" {
		conditions = append(conditions, fmt.Sprintf("academic_year = $%d", len(args)+1))
		args = append(args, filter.AcademicYear)
	}
	if filter.IsActive != nil {
		conditions = append(conditions, fmt.Sprintf("is_active = $%d", len(args)+1))
		args = append(args, *filter.IsActive)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY academic_year DESC, sequence ASC"

	var terms []models.Term
	if err := r.db.SelectContext(ctx, &terms, query, args...); err != nil {
		return nil, fmt.Errorf("list terms: %w", err)
	}
	return terms, nil
}
