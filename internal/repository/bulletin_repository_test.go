package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/scolaris-api/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func bulletinDetailRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "student_id", "class_id", "term_id", "general_average", "rank",
		"total_students", "class_average", "teacher_comment", "principal_comment", "decision",
		"generated_at", "updated_at", "student_name", "student_matricule",
		"class_name", "term_name", "term_sequence", "academic_year",
	})
}

func subjectResultRows() *sqlmock.Rows {
	return sqlmock.NewRows([]string{
		"id", "bulletin_id", "class_subject_id", "subject_name", "subject_category",
		"average", "coefficient", "total", "class_average", "class_min", "class_max",
		"appreciation", "teacher_name",
	})
}

func TestBulletinRepositorySaveReplacesRows(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBulletinRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bulletins")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("bul-1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bulletin_subject_results WHERE bulletin_id = $1")).
		WithArgs("bul-1").
		WillReturnResult(sqlmock.NewResult(0, 2))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bulletin_subject_results")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO bulletin_subject_results")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	bulletin := &models.Bulletin{
		StudentID:      "student-1",
		ClassID:        "class-1",
		TermID:         "term-1",
		GeneralAverage: 13.33,
		Rank:           1,
		TotalStudents:  2,
		ClassAverage:   10.5,
	}
	results := []models.BulletinSubjectResult{
		{ClassSubjectID: "cs-1", SubjectName: "Mathematiques", Average: 12, Coefficient: 4, Total: 48, Appreciation: "Assez Bien"},
		{ClassSubjectID: "cs-2", SubjectName: "Anglais", Average: 16, Coefficient: 2, Total: 32, Appreciation: "Tres Bien"},
	}

	require.NoError(t, repo.Save(context.Background(), bulletin, results))
	require.Equal(t, "bul-1", bulletin.ID)
	require.Equal(t, "bul-1", results[0].BulletinID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulletinRepositorySaveRollsBackOnFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBulletinRepository(db)

	mock.ExpectBegin()
	mock.ExpectQuery(regexp.QuoteMeta("INSERT INTO bulletins")).
		WillReturnRows(sqlmock.NewRows([]string{"id"}).AddRow("bul-1"))
	mock.ExpectExec(regexp.QuoteMeta("DELETE FROM bulletin_subject_results")).
		WithArgs("bul-1").
		WillReturnError(context.DeadlineExceeded)
	mock.ExpectRollback()

	bulletin := &models.Bulletin{StudentID: "student-1", ClassID: "class-1", TermID: "term-1"}
	err := repo.Save(context.Background(), bulletin, nil)
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulletinRepositoryFindByID(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBulletinRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("WHERE b.id = $1")).
		WithArgs("bul-1").
		WillReturnRows(bulletinDetailRows().
			AddRow("bul-1", "student-1", "class-1", "term-1", 15.33, 1, 2, 7.67, nil, nil, nil,
				now, now, "Alice", "MAT-001", "6eme A", "Trimestre 1", 1, "2025-2026"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM bulletin_subject_results WHERE bulletin_id IN ($1)")).
		WithArgs("bul-1").
		WillReturnRows(subjectResultRows().
			AddRow("res-1", "bul-1", "cs-1", "Mathematiques", "Sciences", 15.33, 3, 46.0, 7.67, 0.0, 15.33, "Bien", "M. Dupont"))

	detail, err := repo.FindByID(context.Background(), "bul-1")
	require.NoError(t, err)
	require.Equal(t, "Alice", detail.StudentName)
	require.Len(t, detail.Subjects, 1)
	require.Equal(t, "Mathematiques", detail.Subjects[0].SubjectName)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulletinRepositoryListByClassAndTermOrder(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBulletinRepository(db)

	now := time.Now()
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY b.rank ASC")).
		WithArgs("class-1", "term-1").
		WillReturnRows(bulletinDetailRows().
			AddRow("bul-1", "student-b", "class-1", "term-1", 18.0, 1, 2, 14.0, nil, nil, nil, now, now, "Bernard", "MAT-002", "6eme A", "Trimestre 1", 1, "2025-2026").
			AddRow("bul-2", "student-a", "class-1", "term-1", 10.0, 2, 2, 14.0, nil, nil, nil, now, now, "Alice", "MAT-001", "6eme A", "Trimestre 1", 1, "2025-2026"))
	mock.ExpectQuery(regexp.QuoteMeta("FROM bulletin_subject_results WHERE bulletin_id IN ($1,$2)")).
		WithArgs("bul-1", "bul-2").
		WillReturnRows(subjectResultRows().
			AddRow("res-1", "bul-1", "cs-1", "Mathematiques", "Sciences", 18.0, 1, 18.0, 14.0, 10.0, 18.0, "Tres Bien", nil).
			AddRow("res-2", "bul-2", "cs-1", "Mathematiques", "Sciences", 10.0, 1, 10.0, 14.0, 10.0, 18.0, "Passable", nil))

	bulletins, err := repo.ListByClassAndTerm(context.Background(), "class-1", "term-1")
	require.NoError(t, err)
	require.Len(t, bulletins, 2)
	require.Equal(t, 1, bulletins[0].Rank)
	require.Equal(t, 2, bulletins[1].Rank)
	require.Len(t, bulletins[0].Subjects, 1)
	require.Len(t, bulletins[1].Subjects, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestBulletinRepositoryUpdateComments(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewBulletinRepository(db)

	comment := "Bon travail"
	mock.ExpectExec(regexp.QuoteMeta("UPDATE bulletins SET teacher_comment")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	require.NoError(t, repo.UpdateComments(context.Background(), "bul-1", models.UpdateBulletinCommentsRequest{TeacherComment: &comment}))

	mock.ExpectExec(regexp.QuoteMeta("UPDATE bulletins SET teacher_comment")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	require.Error(t, repo.UpdateComments(context.Background(), "missing", models.UpdateBulletinCommentsRequest{}))
	require.NoError(t, mock.ExpectationsWereMet())
}
