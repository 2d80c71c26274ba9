package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/scolaris-api/internal/models"
)

func gradeDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "class_subject_id", "term_id", "teacher_id",
		"kind", "value", "label", "created_at", "subject_name", "teacher_name",
	})
}

func TestGradeRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGradeRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO grades")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	grade := &models.Grade{
		StudentID:      "student-1",
		ClassSubjectID: "cs-1",
		TermID:         "term-1",
		TeacherID:      "teacher-1",
		Kind:           models.GradeKindDevoir,
		Value:          14.5,
		Label:          "Devoir 1",
	}
	require.NoError(t, repo.Create(context.Background(), grade))
	require.NotEmpty(t, grade.ID)
	require.False(t, grade.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryDeleteNoRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGradeRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM grades WHERE id = $1")).
		WithArgs("missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	require.Error(t, repo.Delete(context.Background(), "missing"))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGradeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("g.student_id = $1")).
		WithArgs("student-1", "term-1").
		WillReturnRows(gradeDetailRows().
			AddRow("grade-1", "student-1", "cs-1", "term-1", "teacher-1", "DEVOIR", 14.5, "Devoir 1", time.Now(), "Mathematiques", "M. Dupont"))

	grades, err := repo.List(context.Background(), models.GradeFilter{StudentID: "student-1", TermID: "term-1"})
	require.NoError(t, err)
	require.Len(t, grades, 1)
	require.Equal(t, models.GradeKindDevoir, grades[0].Kind)
	require.Equal(t, "Mathematiques", grades[0].SubjectName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestGradeRepositoryFetchByClassAndTerm(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewGradeRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE cs.class_id = $1 AND g.term_id = $2")).
		WithArgs("class-1", "term-1").
		WillReturnRows(gradeDetailRows().
			AddRow("grade-1", "student-a", "cs-1", "term-1", "teacher-1", "DEVOIR", 14, "", time.Now(), "Mathematiques", "M. Dupont").
			AddRow("grade-2", "student-a", "cs-1", "term-1", "teacher-1", "COMPOSITION", 16, "", time.Now(), "Mathematiques", "M. Dupont").
			AddRow("grade-3", "student-b", "cs-1", "term-1", "teacher-1", "DEVOIR", 9, "", time.Now(), "Mathematiques", "M. Dupont"))

	byStudent, err := repo.FetchByClassAndTerm(context.Background(), "class-1", "term-1")
	require.NoError(t, err)
	require.Len(t, byStudent, 2)
	require.Len(t, byStudent["student-a"], 2)
	require.Len(t, byStudent["student-b"], 1)
	require.NoError(t, mock.ExpectationsWereMet())
}
