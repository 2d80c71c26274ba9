package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/scolaris/scolaris-api/internal/models"
)

// ClassRepository handles persistence of classes.
type ClassRepository struct {
	db *sqlx.DB
}

// NewClassRepository constructs the repository.
func NewClassRepository(db *sqlx.DB) *ClassRepository {
	return &ClassRepository{db: db}
}

// FindByID returns a class by its ID.
func (r *ClassRepository) FindByID(ctx context.Context, id string) (*models.Class, error) {
	const query = `SELECT id, name, level, created_at, updated_at FROM classes WHERE id = $1`
	var class models.Class
	if err := r.db.GetContext(ctx, &class, query, id); err != nil {
		return nil, err
	}
	return &class, nil
}

// List returns every class ordered by level then name.
func (r *ClassRepository) List(ctx context.Context) ([]models.Class, error) {
	const query = `SELECT id, name, level, created_at, updated_at FROM classes ORDER BY level, name`
	var classes []models.Class
	if err := r.db.SelectContext(ctx, &classes, query); err != nil {
		return nil, fmt.Errorf("list classes: %w", err)
	}
	return classes, nil
}
