package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

type classSubjectStore interface {
	ListByClass(ctx context.Context, classID string) ([]models.ClassSubjectDetail, error)
	ReplaceForClass(ctx context.Context, classID string, assignments []models.ClassSubject) error
}

// ClassSubjectAssignment is one entry of a replace-set payload.
type ClassSubjectAssignment struct {
	SubjectID   string  `json:"subject_id" validate:"required"`
	Coefficient int     `json:"coefficient" validate:"required,gte=1"`
	TeacherID   *string `json:"teacher_id,omitempty"`
}

// ReplaceClassSubjectsRequest replaces a class's full subject mapping.
type ReplaceClassSubjectsRequest struct {
	Subjects []ClassSubjectAssignment `json:"subjects" validate:"required,min=1,dive"`
}

// ClassSubjectService manages subject-to-class assignments and coefficients.
type ClassSubjectService struct {
	repo      classSubjectStore
	classes   classReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewClassSubjectService constructs ClassSubjectService.
func NewClassSubjectService(repo classSubjectStore, classes classReader, validate *validator.Validate, logger *zap.Logger) *ClassSubjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassSubjectService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// ListByClass returns a class's subject assignments ordered for display.
func (s *ClassSubjectService) ListByClass(ctx context.Context, classID string) ([]models.ClassSubjectDetail, error) {
	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	assignments, err := s.repo.ListByClass(ctx, classID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class subjects")
	}
	return assignments, nil
}

// Replace swaps the class's entire subject mapping in one transaction.
// Existing bulletins keep their snapshotted subject names and coefficients.
func (s *ClassSubjectService) Replace(ctx context.Context, classID string, req ReplaceClassSubjectsRequest) ([]models.ClassSubjectDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid class subjects payload")
	}

	if _, err := s.classes.FindByID(ctx, classID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	seen := make(map[string]bool, len(req.Subjects))
	assignments := make([]models.ClassSubject, 0, len(req.Subjects))
	for _, subject := range req.Subjects {
		if seen[subject.SubjectID] {
			return nil, appErrors.Clone(appErrors.ErrValidation, "duplicate subject in payload")
		}
		seen[subject.SubjectID] = true
		assignments = append(assignments, models.ClassSubject{
			SubjectID:   subject.SubjectID,
			Coefficient: subject.Coefficient,
			TeacherID:   subject.TeacherID,
		})
	}

	if err := s.repo.ReplaceForClass(ctx, classID, assignments); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to replace class subjects")
	}

	s.logger.Info("class subjects replaced",
		zap.String("class_id", classID),
		zap.Int("count", len(assignments)))
	return s.ListByClass(ctx, classID)
}
