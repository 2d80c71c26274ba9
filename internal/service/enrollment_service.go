package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

type enrollmentStore interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	ExistsActive(ctx context.Context, studentID, academicYear string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	UpdateStatus(ctx context.Context, id string, status models.EnrollmentStatus, leftAt *time.Time) error
}

// CreateEnrollmentRequest registers a student to a class for a year.
type CreateEnrollmentRequest struct {
	StudentID    string `json:"student_id" validate:"required"`
	ClassID      string `json:"class_id" validate:"required"`
	AcademicYear string `json:"academic_year" validate:"required"`
}

// UpdateEnrollmentStatusRequest transitions an enrollment's lifecycle.
type UpdateEnrollmentStatusRequest struct {
	Status models.EnrollmentStatus `json:"status" validate:"required,oneof=ACTIVE TRANSFERRED WITHDRAWN GRADUATED"`
}

// EnrollmentService manages student registrations.
type EnrollmentService struct {
	repo      enrollmentStore
	classes   classReader
	validator *validator.Validate
	logger    *zap.Logger
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentStore, classes classReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, classes: classes, validator: validate, logger: logger}
}

// List returns enrollments matching the filter with pagination metadata.
func (s *EnrollmentService) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	enrollments, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	return enrollments, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create registers a new ACTIVE enrollment. A student can hold at most one
// active enrollment per academic year.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}

	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}

	exists, err := s.repo.ExistsActive(ctx, req.StudentID, req.AcademicYear)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing enrollment")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "student already has an active enrollment for this academic year")
	}

	enrollment := &models.Enrollment{
		StudentID:    req.StudentID,
		ClassID:      req.ClassID,
		AcademicYear: req.AcademicYear,
		Status:       models.EnrollmentStatusActive,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	s.logger.Info("enrollment created",
		zap.String("student_id", enrollment.StudentID),
		zap.String("class_id", enrollment.ClassID),
		zap.String("academic_year", enrollment.AcademicYear))
	return enrollment, nil
}

// UpdateStatus transitions an enrollment. Leaving the ACTIVE state stamps
// left_at; returning to it clears the stamp.
func (s *EnrollmentService) UpdateStatus(ctx context.Context, id string, req UpdateEnrollmentStatusRequest) (*models.Enrollment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid status payload")
	}

	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	var leftAt *time.Time
	if req.Status != models.EnrollmentStatusActive {
		now := time.Now().UTC()
		leftAt = &now
	}
	if err := s.repo.UpdateStatus(ctx, id, req.Status, leftAt); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment status")
	}

	enrollment.Status = req.Status
	enrollment.LeftAt = leftAt
	return enrollment, nil
}
