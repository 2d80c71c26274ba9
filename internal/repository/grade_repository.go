package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/scolaris/scolaris-api/internal/models"
)

// GradeRepository handles grade entry persistence. Grades are append-only:
// they are created and deleted, never updated.
type GradeRepository struct {
	db *sqlx.DB
}

// NewGradeRepository creates a new grade repository.
func NewGradeRepository(db *sqlx.DB) *GradeRepository {
	return &GradeRepository{db: db}
}

// Create persists a new grade entry.
func (r *GradeRepository) Create(ctx context.Context, grade *models.Grade) error {
	if grade.ID == "" {
		grade.ID = uuid.NewString()
	}
	if grade.CreatedAt.IsZero() {
		grade.CreatedAt = time.Now().UTC()
	}
	const query = `INSERT INTO grades (id, student_id, class_subject_id, term_id, teacher_id, kind, value, label, created_at)
        VALUES (:id, :student_id, :class_subject_id, :term_id, :teacher_id, :kind, :value, :label, :created_at)`
	if _, err := r.db.NamedExecContext(ctx, query, grade); err != nil {
		return fmt.Errorf("create grade: %w", err)
	}
	return nil
}

// Delete removes a grade entry.
func (r *GradeRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx, `DELETE FROM grades WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete grade: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("delete grade: no rows")
	}
	return nil
}

// List returns grade entries matching the filter, newest first.
func (r *GradeRepository) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	query := `SELECT g.id, g.student_id, g.class_subject_id, g.term_id, g.teacher_id, g.kind, g.value, g.label, g.created_at,
        s.name AS subject_name, u.full_name AS teacher_name
        FROM grades g
        JOIN class_subjects cs ON cs.id = g.class_subject_id
        JOIN subjects s ON s.id = cs.subject_id
        LEFT JOIN users u ON u.id = g.teacher_id`
	var conditions []string
	var args []interface{}
	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("g.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassSubjectID != "" {
		conditions = append(conditions, fmt.Sprintf("g.class_subject_id = $%d", len(args)+1))
		args = append(args, filter.ClassSubjectID)
	}
	if filter.TermID != "" {
		conditions = append(conditions, fmt.Sprintf("g.term_id = $%d", len(args)+1))
		args = append(args, filter.TermID)
	}
	if filter.Kind != "" {
		conditions = append(conditions, fmt.Sprintf("g.kind = $%d", len(args)+1))
		args = append(args, filter.Kind)
	}
	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY g.created_at DESC"

	var grades []models.GradeDetail
	if err := r.db.SelectContext(ctx, &grades, query, args...); err != nil {
		return nil, fmt.Errorf("list grades: %w", err)
	}
	return grades, nil
}

// FetchByClassAndTerm returns every grade for a class and term keyed by
// student ID, with teacher names resolved. Rows are ordered by creation time
// so the last entry per subject identifies the teacher of record.
func (r *GradeRepository) FetchByClassAndTerm(ctx context.Context, classID, termID string) (map[string][]models.GradeDetail, error) {
	const query = `SELECT g.id, g.student_id, g.class_subject_id, g.term_id, g.teacher_id, g.kind, g.value, g.label, g.created_at,
        s.name AS subject_name, u.full_name AS teacher_name
        FROM grades g
        JOIN class_subjects cs ON cs.id = g.class_subject_id
        JOIN subjects s ON s.id = cs.subject_id
        LEFT JOIN users u ON u.id = g.teacher_id
        WHERE cs.class_id = $1 AND g.term_id = $2
        ORDER BY g.created_at ASC`
	rows, err := r.db.QueryxContext(ctx, query, classID, termID)
	if err != nil {
		return nil, fmt.Errorf("fetch class grades: %w", err)
	}
	defer rows.Close()

	result := make(map[string][]models.GradeDetail)
	for rows.Next() {
		var grade models.GradeDetail
		if err := rows.StructScan(&grade); err != nil {
			return nil, fmt.Errorf("scan grade: %w", err)
		}
		result[grade.StudentID] = append(result[grade.StudentID], grade)
	}
	return result, rows.Err()
}
