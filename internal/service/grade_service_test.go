package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

type mockGradeStore struct {
	created   []models.Grade
	deleted   []string
	deleteErr error
	listed    []models.GradeDetail
}

func (m *mockGradeStore) Create(ctx context.Context, grade *models.Grade) error {
	grade.ID = fmt.Sprintf("grade-%d", len(m.created)+1)
	m.created = append(m.created, *grade)
	return nil
}

func (m *mockGradeStore) Delete(ctx context.Context, id string) error {
	if m.deleteErr != nil {
		return m.deleteErr
	}
	m.deleted = append(m.deleted, id)
	return nil
}

func (m *mockGradeStore) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	return m.listed, nil
}

type mockClassSubjectFinder struct {
	err error
}

func (m *mockClassSubjectFinder) FindByID(ctx context.Context, id string) (*models.ClassSubject, error) {
	if m.err != nil {
		return nil, m.err
	}
	return &models.ClassSubject{ID: id, ClassID: "class-1", Coefficient: 2}, nil
}

func TestGradeServiceCreate(t *testing.T) {
	store := &mockGradeStore{}
	svc := NewGradeService(store, &mockClassSubjectFinder{}, &mockTermReader{}, nil, nil)

	grade, err := svc.Create(context.Background(), CreateGradeRequest{
		StudentID:      "student-1",
		ClassSubjectID: "cs-1",
		TermID:         "term-1",
		Kind:           "devoir",
		Value:          14.5,
		Label:          "Devoir 1",
		TeacherID:      "teacher-1",
	})
	require.NoError(t, err)
	assert.Equal(t, models.GradeKindDevoir, grade.Kind)
	assert.Equal(t, "teacher-1", grade.TeacherID)
	require.Len(t, store.created, 1)
}

func TestGradeServiceCreateValidation(t *testing.T) {
	svc := NewGradeService(&mockGradeStore{}, &mockClassSubjectFinder{}, &mockTermReader{}, nil, nil)

	cases := []CreateGradeRequest{
		{ClassSubjectID: "cs-1", TermID: "term-1", Kind: "DEVOIR", Value: 10},
		{StudentID: "s-1", ClassSubjectID: "cs-1", TermID: "term-1", Kind: "EXAM", Value: 10},
		{StudentID: "s-1", ClassSubjectID: "cs-1", TermID: "term-1", Kind: "DEVOIR", Value: 20.5},
		{StudentID: "s-1", ClassSubjectID: "cs-1", TermID: "term-1", Kind: "DEVOIR", Value: -1},
	}
	for _, req := range cases {
		_, err := svc.Create(context.Background(), req)
		require.Error(t, err)
		var appErr *appErrors.Error
		require.True(t, errors.As(err, &appErr))
		assert.Equal(t, appErrors.ErrValidation.Code, appErr.Code)
	}
}

func TestGradeServiceCreateUnknownScope(t *testing.T) {
	svc := NewGradeService(&mockGradeStore{}, &mockClassSubjectFinder{err: sql.ErrNoRows}, &mockTermReader{}, nil, nil)
	_, err := svc.Create(context.Background(), CreateGradeRequest{
		StudentID: "s-1", ClassSubjectID: "missing", TermID: "term-1", Kind: "DEVOIR", Value: 10,
	})
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)

	svc = NewGradeService(&mockGradeStore{}, &mockClassSubjectFinder{}, &mockTermReader{err: sql.ErrNoRows}, nil, nil)
	_, err = svc.Create(context.Background(), CreateGradeRequest{
		StudentID: "s-1", ClassSubjectID: "cs-1", TermID: "missing", Kind: "DEVOIR", Value: 10,
	})
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}

func TestGradeServiceDelete(t *testing.T) {
	store := &mockGradeStore{}
	svc := NewGradeService(store, &mockClassSubjectFinder{}, &mockTermReader{}, nil, nil)

	require.NoError(t, svc.Delete(context.Background(), "grade-1"))
	assert.Equal(t, []string{"grade-1"}, store.deleted)

	store.deleteErr = fmt.Errorf("delete grade: no rows")
	err := svc.Delete(context.Background(), "missing")
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrNotFound.Code, appErr.Code)
}
