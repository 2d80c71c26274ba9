package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scolaris/scolaris-api/internal/models"
)

// ClassSubjectRepository manages class-subject mappings and coefficients.
type ClassSubjectRepository struct {
	db *sqlx.DB
}

// NewClassSubjectRepository creates a new repository.
func NewClassSubjectRepository(db *sqlx.DB) *ClassSubjectRepository {
	return &ClassSubjectRepository{db: db}
}

// ListByClass returns subject assignments for a class ordered by subject
// category then name, the display order bulletins use.
func (r *ClassSubjectRepository) ListByClass(ctx context.Context, classID string) ([]models.ClassSubjectDetail, error) {
	const query = `
SELECT cs.id, cs.class_id, cs.subject_id, cs.coefficient, cs.teacher_id, cs.created_at,
       s.name AS subject_name, s.category AS subject_category,
       u.full_name AS teacher_name
FROM class_subjects cs
JOIN subjects s ON s.id = cs.subject_id
LEFT JOIN users u ON u.id = cs.teacher_id
WHERE cs.class_id = $1
ORDER BY s.category ASC, s.name ASC`
	var assignments []models.ClassSubjectDetail
	if err := r.db.SelectContext(ctx, &assignments, query, classID); err != nil {
		return nil, fmt.Errorf("list class subjects: %w", err)
	}
	return assignments, nil
}

// FindByID returns a single class-subject mapping.
func (r *ClassSubjectRepository) FindByID(ctx context.Context, id string) (*models.ClassSubject, error) {
	const query = `SELECT id, class_id, subject_id, coefficient, teacher_id, created_at FROM class_subjects WHERE id = $1`
	var cs models.ClassSubject
	if err := r.db.GetContext(ctx, &cs, query, id); err != nil {
		return nil, err
	}
	return &cs, nil
}

// ReplaceForClass replaces the subject mapping of a class within a transaction.
func (r *ClassSubjectRepository) ReplaceForClass(ctx context.Context, classID string, assignments []models.ClassSubject) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin replace class subjects: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if _, err = tx.ExecContext(ctx, `DELETE FROM class_subjects WHERE class_id = $1`, classID); err != nil {
		return fmt.Errorf("clear class subjects: %w", err)
	}

	now := time.Now().UTC()
	for _, assignment := range assignments {
		payload := assignment
		payload.ClassID = classID
		if payload.ID == "" {
			payload.ID = uuid.NewString()
		}
		if payload.CreatedAt.IsZero() {
			payload.CreatedAt = now
		}
		if _, err = tx.NamedExecContext(ctx, `INSERT INTO class_subjects (id, class_id, subject_id, coefficient, teacher_id, created_at)
            VALUES (:id, :class_id, :subject_id, :coefficient, :teacher_id, :created_at)`, &payload); err != nil {
			return fmt.Errorf("insert class subject: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit replace class subjects: %w", err)
	}
	return nil
}
