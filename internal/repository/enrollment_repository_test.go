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

func enrollmentDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "class_id", "academic_year", "joined_at", "left_at", "status",
		"student_name", "student_matricule", "class_name",
	})
}

func TestEnrollmentRepositoryListActiveByClass(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("WHERE e.class_id = $1 AND e.status = $2")).
		WithArgs("class-1", models.EnrollmentStatusActive).
		WillReturnRows(enrollmentDetailRows().
			AddRow("enr-1", "student-a", "class-1", "2025-2026", time.Now(), nil, "ACTIVE", "Alice", "MAT-001", "6eme A").
			AddRow("enr-2", "student-b", "class-1", "2025-2026", time.Now(), nil, "ACTIVE", "Bernard", "MAT-002", "6eme A"))

	enrollments, err := repo.ListActiveByClass(context.Background(), "class-1")
	require.NoError(t, err)
	require.Len(t, enrollments, 2)
	require.Equal(t, "Alice", enrollments[0].StudentName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryExistsActive(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WithArgs("student-a", "2025-2026", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}).AddRow(1))

	exists, err := repo.ExistsActive(context.Background(), "student-a", "2025-2026")
	require.NoError(t, err)
	require.True(t, exists)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT 1 FROM enrollments")).
		WithArgs("student-b", "2025-2026", models.EnrollmentStatusActive).
		WillReturnRows(sqlmock.NewRows([]string{"?column?"}))

	exists, err = repo.ExistsActive(context.Background(), "student-b", "2025-2026")
	require.NoError(t, err)
	require.False(t, exists)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO enrollments")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	enrollment := &models.Enrollment{StudentID: "student-a", ClassID: "class-1", AcademicYear: "2025-2026"}
	require.NoError(t, repo.Create(context.Background(), enrollment))
	require.NotEmpty(t, enrollment.ID)
	require.Equal(t, models.EnrollmentStatusActive, enrollment.Status)
	require.False(t, enrollment.JoinedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestEnrollmentRepositoryListPagination(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewEnrollmentRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("e.class_id = $1")).
		WithArgs("class-1").
		WillReturnRows(enrollmentDetailRows().
			AddRow("enr-1", "student-a", "class-1", "2025-2026", time.Now(), nil, "ACTIVE", "Alice", "MAT-001", "6eme A"))
	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*)")).
		WithArgs("class-1").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(7))

	enrollments, total, err := repo.List(context.Background(), models.EnrollmentFilter{ClassID: "class-1", Page: 1, PageSize: 1})
	require.NoError(t, err)
	require.Len(t, enrollments, 1)
	require.Equal(t, 7, total)
	require.NoError(t, mock.ExpectationsWereMet())
}
