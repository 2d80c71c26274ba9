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

// BulletinRepository manages bulletins and their subject-result rows. A
// bulletin exclusively owns its rows: saving replaces them wholesale.
type BulletinRepository struct {
	db *sqlx.DB
}

// NewBulletinRepository constructs the repository.
func NewBulletinRepository(db *sqlx.DB) *BulletinRepository {
	return &BulletinRepository{db: db}
}

const bulletinDetailColumns = `b.id, b.student_id, b.class_id, b.term_id, b.general_average, b.rank,
        b.total_students, b.class_average, b.teacher_comment, b.principal_comment, b.decision,
        b.generated_at, b.updated_at,
        s.full_name AS student_name, s.matricule AS student_matricule,
        c.name AS class_name, t.name AS term_name, t.sequence AS term_sequence, t.academic_year AS academic_year`

const bulletinDetailJoins = `FROM bulletins b
        JOIN students s ON s.id = b.student_id
        JOIN classes c ON c.id = b.class_id
        JOIN terms t ON t.id = b.term_id`

// Save upserts the bulletin header keyed by (student_id, term_id) and
// replaces its subject-result rows inside a single transaction.
func (r *BulletinRepository) Save(ctx context.Context, bulletin *models.Bulletin, results []models.BulletinSubjectResult) error {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin save bulletin: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	if bulletin.ID == "" {
		bulletin.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if bulletin.GeneratedAt.IsZero() {
		bulletin.GeneratedAt = now
	}
	bulletin.UpdatedAt = now

	const upsert = `INSERT INTO bulletins (id, student_id, class_id, term_id, general_average, rank,
            total_students, class_average, teacher_comment, principal_comment, decision, generated_at, updated_at)
        VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
        ON CONFLICT (student_id, term_id)
        DO UPDATE SET class_id = EXCLUDED.class_id, general_average = EXCLUDED.general_average,
            rank = EXCLUDED.rank, total_students = EXCLUDED.total_students,
            class_average = EXCLUDED.class_average, generated_at = EXCLUDED.generated_at,
            updated_at = EXCLUDED.updated_at
        RETURNING id`
	var bulletinID string
	if err = tx.GetContext(ctx, &bulletinID, upsert,
		bulletin.ID, bulletin.StudentID, bulletin.ClassID, bulletin.TermID,
		bulletin.GeneralAverage, bulletin.Rank, bulletin.TotalStudents, bulletin.ClassAverage,
		bulletin.TeacherComment, bulletin.PrincipalComment, bulletin.Decision,
		bulletin.GeneratedAt, bulletin.UpdatedAt); err != nil {
		return fmt.Errorf("upsert bulletin: %w", err)
	}
	bulletin.ID = bulletinID

	if _, err = tx.ExecContext(ctx, `DELETE FROM bulletin_subject_results WHERE bulletin_id = $1`, bulletinID); err != nil {
		return fmt.Errorf("clear subject results: %w", err)
	}

	const insert = `INSERT INTO bulletin_subject_results (id, bulletin_id, class_subject_id, subject_name,
            subject_category, average, coefficient, total, class_average, class_min, class_max, appreciation, teacher_name)
        VALUES (:id, :bulletin_id, :class_subject_id, :subject_name, :subject_category, :average,
            :coefficient, :total, :class_average, :class_min, :class_max, :appreciation, :teacher_name)`
	for i := range results {
		results[i].BulletinID = bulletinID
		if results[i].ID == "" {
			results[i].ID = uuid.NewString()
		}
		if _, err = tx.NamedExecContext(ctx, insert, results[i]); err != nil {
			return fmt.Errorf("insert subject result: %w", err)
		}
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit save bulletin: %w", err)
	}
	return nil
}

// FindByID returns one bulletin with its subject rows and display context.
func (r *BulletinRepository) FindByID(ctx context.Context, id string) (*models.BulletinDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE b.id = $1", bulletinDetailColumns, bulletinDetailJoins)
	var detail models.BulletinDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	if err := r.attachSubjectResults(ctx, []*models.BulletinDetail{&detail}); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ListByClassAndTerm returns the bulletins of a class for a term ordered by
// rank ascending, each with its subject rows.
func (r *BulletinRepository) ListByClassAndTerm(ctx context.Context, classID, termID string) ([]models.BulletinDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE b.class_id = $1 AND b.term_id = $2 ORDER BY b.rank ASC", bulletinDetailColumns, bulletinDetailJoins)
	var bulletins []models.BulletinDetail
	if err := r.db.SelectContext(ctx, &bulletins, query, classID, termID); err != nil {
		return nil, fmt.Errorf("list bulletins: %w", err)
	}
	return bulletins, r.attachToSlice(ctx, bulletins)
}

// ListByStudent returns a student's bulletins ordered by academic year and
// term sequence.
func (r *BulletinRepository) ListByStudent(ctx context.Context, studentID string) ([]models.BulletinDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE b.student_id = $1 ORDER BY t.academic_year ASC, t.sequence ASC", bulletinDetailColumns, bulletinDetailJoins)
	var bulletins []models.BulletinDetail
	if err := r.db.SelectContext(ctx, &bulletins, query, studentID); err != nil {
		return nil, fmt.Errorf("list student bulletins: %w", err)
	}
	return bulletins, r.attachToSlice(ctx, bulletins)
}

// UpdateComments sets the editable comment and decision fields.
func (r *BulletinRepository) UpdateComments(ctx context.Context, id string, req models.UpdateBulletinCommentsRequest) error {
	const query = `UPDATE bulletins SET teacher_comment = $2, principal_comment = $3, decision = $4, updated_at = $5 WHERE id = $1`
	result, err := r.db.ExecContext(ctx, query, id, req.TeacherComment, req.PrincipalComment, req.Decision, time.Now().UTC())
	if err != nil {
		return fmt.Errorf("update bulletin comments: %w", err)
	}
	if affected, err := result.RowsAffected(); err == nil && affected == 0 {
		return fmt.Errorf("update bulletin comments: no rows")
	}
	return nil
}

func (r *BulletinRepository) attachToSlice(ctx context.Context, bulletins []models.BulletinDetail) error {
	refs := make([]*models.BulletinDetail, len(bulletins))
	for i := range bulletins {
		refs[i] = &bulletins[i]
	}
	return r.attachSubjectResults(ctx, refs)
}

// attachSubjectResults loads the owned rows for the given bulletins ordered
// by subject category then name for stable, grouped display.
func (r *BulletinRepository) attachSubjectResults(ctx context.Context, bulletins []*models.BulletinDetail) error {
	if len(bulletins) == 0 {
		return nil
	}
	placeholders := make([]string, len(bulletins))
	args := make([]interface{}, len(bulletins))
	index := make(map[string]*models.BulletinDetail, len(bulletins))
	for i, b := range bulletins {
		placeholders[i] = fmt.Sprintf("$%d", i+1)
		args[i] = b.ID
		index[b.ID] = b
	}
	query := fmt.Sprintf(`SELECT id, bulletin_id, class_subject_id, subject_name, subject_category, average,
        coefficient, total, class_average, class_min, class_max, appreciation, teacher_name
        FROM bulletin_subject_results WHERE bulletin_id IN (%s)
        ORDER BY subject_category ASC, subject_name ASC`, strings.Join(placeholders, ","))
	rows, err := r.db.QueryxContext(ctx, query, args...)
	if err != nil {
		return fmt.Errorf("fetch subject results: %w", err)
	}
	defer rows.Close()
	for rows.Next() {
		var result models.BulletinSubjectResult
		if err := rows.StructScan(&result); err != nil {
			return fmt.Errorf("scan subject result: %w", err)
		}
		if owner, ok := index[result.BulletinID]; ok {
			owner.Subjects = append(owner.Subjects, result)
		}
	}
	return rows.Err()
}
