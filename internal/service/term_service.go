package service

import (
	"context"
	"database/sql"
	"errors"

	"go.uber.org/zap"

	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

type termStore interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
	List(ctx context.Context, filter models.TermFilter) ([]models.Term, error)
}

// TermService serves grading periods.
type TermService struct {
	repo   termStore
	logger *zap.Logger
}

// NewTermService constructs TermService.
func NewTermService(repo termStore, logger *zap.Logger) *TermService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &TermService{repo: repo, logger: logger}
}

// List returns terms matching the filter.
func (s *TermService) List(ctx context.Context, filter models.TermFilter) ([]models.Term, error) {
	terms, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list terms")
	}
	return terms, nil
}

// GetByID returns a single term.
func (s *TermService) GetByID(ctx context.Context, id string) (*models.Term, error) {
	term, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}
	return term, nil
}
