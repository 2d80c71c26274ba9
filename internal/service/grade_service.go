package service

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

type gradeStore interface {
	Create(ctx context.Context, grade *models.Grade) error
	Delete(ctx context.Context, id string) error
	List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error)
}

type classSubjectFinder interface {
	FindByID(ctx context.Context, id string) (*models.ClassSubject, error)
}

// CreateGradeRequest is the payload for recording one assessment.
type CreateGradeRequest struct {
	StudentID      string  `json:"student_id" validate:"required"`
	ClassSubjectID string  `json:"class_subject_id" validate:"required"`
	TermID         string  `json:"term_id" validate:"required"`
	Kind           string  `json:"kind" validate:"required,oneof=DEVOIR INTERROGATION COMPOSITION"`
	Value          float64 `json:"value" validate:"gte=0,lte=20"`
	Label          string  `json:"label" validate:"max=120"`
	TeacherID      string  `json:"-"`
}

// GradeService manages grade entries. Entries are append-only: mistakes are
// corrected by deleting and re-recording.
type GradeService struct {
	grades        gradeStore
	classSubjects classSubjectFinder
	terms         termReader
	validator     *validator.Validate
	logger        *zap.Logger
}

// NewGradeService constructs GradeService.
func NewGradeService(grades gradeStore, classSubjects classSubjectFinder, terms termReader, validate *validator.Validate, logger *zap.Logger) *GradeService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &GradeService{grades: grades, classSubjects: classSubjects, terms: terms, validator: validate, logger: logger}
}

// Create validates and records a grade entry.
func (s *GradeService) Create(ctx context.Context, req CreateGradeRequest) (*models.Grade, error) {
	req.Kind = strings.ToUpper(req.Kind)
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid grade payload")
	}

	if _, err := s.classSubjects.FindByID(ctx, req.ClassSubjectID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class subject not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class subject")
	}
	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	grade := &models.Grade{
		StudentID:      req.StudentID,
		ClassSubjectID: req.ClassSubjectID,
		TermID:         req.TermID,
		TeacherID:      req.TeacherID,
		Kind:           models.GradeKind(req.Kind),
		Value:          req.Value,
		Label:          req.Label,
	}
	if err := s.grades.Create(ctx, grade); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create grade")
	}

	s.logger.Info("grade recorded",
		zap.String("student_id", grade.StudentID),
		zap.String("class_subject_id", grade.ClassSubjectID),
		zap.String("kind", string(grade.Kind)))
	return grade, nil
}

// List returns grade entries matching the filter.
func (s *GradeService) List(ctx context.Context, filter models.GradeFilter) ([]models.GradeDetail, error) {
	grades, err := s.grades.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list grades")
	}
	return grades, nil
}

// Delete removes a grade entry by ID.
func (s *GradeService) Delete(ctx context.Context, id string) error {
	if id == "" {
		return appErrors.Clone(appErrors.ErrValidation, "grade id is required")
	}
	if err := s.grades.Delete(ctx, id); err != nil {
		if errors.Is(err, sql.ErrNoRows) || strings.Contains(err.Error(), "no rows") {
			return appErrors.Clone(appErrors.ErrNotFound, "grade not found")
		}
		return appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to delete grade")
	}
	return nil
}
