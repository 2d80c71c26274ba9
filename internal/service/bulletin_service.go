package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/scolaris/scolaris-api/internal/models"
	appErrors "github.com/scolaris/scolaris-api/pkg/errors"
)

type bulletinEnrollmentReader interface {
	ListActiveByClass(ctx context.Context, classID string) ([]models.EnrollmentDetail, error)
}

type bulletinSubjectReader interface {
	ListByClass(ctx context.Context, classID string) ([]models.ClassSubjectDetail, error)
}

type bulletinGradeReader interface {
	FetchByClassAndTerm(ctx context.Context, classID, termID string) (map[string][]models.GradeDetail, error)
}

type bulletinStore interface {
	Save(ctx context.Context, bulletin *models.Bulletin, results []models.BulletinSubjectResult) error
	FindByID(ctx context.Context, id string) (*models.BulletinDetail, error)
	ListByClassAndTerm(ctx context.Context, classID, termID string) ([]models.BulletinDetail, error)
	ListByStudent(ctx context.Context, studentID string) ([]models.BulletinDetail, error)
	UpdateComments(ctx context.Context, id string, req models.UpdateBulletinCommentsRequest) error
}

type classReader interface {
	FindByID(ctx context.Context, id string) (*models.Class, error)
}

type termReader interface {
	FindByID(ctx context.Context, id string) (*models.Term, error)
}

type auditRecorder interface {
	CreateAuditLog(ctx context.Context, log *models.AuditLog) error
}

// GenerateBulletinsRequest scopes one generation run.
type GenerateBulletinsRequest struct {
	ClassID string `json:"class_id" validate:"required"`
	TermID  string `json:"term_id" validate:"required"`
	ActorID string `json:"-"`
}

// GenerateBulletinsResult reports how many students were processed.
type GenerateBulletinsResult struct {
	Count int `json:"count"`
}

// BulletinService computes and serves report cards.
type BulletinService struct {
	enrollments bulletinEnrollmentReader
	subjects    bulletinSubjectReader
	grades      bulletinGradeReader
	bulletins   bulletinStore
	classes     classReader
	terms       termReader
	audit       auditRecorder
	cache       *CacheService
	metrics     *MetricsService
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewBulletinService constructs BulletinService.
func NewBulletinService(enrollments bulletinEnrollmentReader, subjects bulletinSubjectReader, grades bulletinGradeReader, bulletins bulletinStore, classes classReader, terms termReader, audit auditRecorder, cache *CacheService, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *BulletinService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &BulletinService{
		enrollments: enrollments,
		subjects:    subjects,
		grades:      grades,
		bulletins:   bulletins,
		classes:     classes,
		terms:       terms,
		audit:       audit,
		cache:       cache,
		metrics:     metrics,
		validator:   validate,
		logger:      logger,
	}
}

// round2 rounds half-up to two decimals. It is applied independently at each
// boundary: subject average, subject total and general average. Computing the
// general average from unrounded intermediates would diverge from the grading
// convention being modeled.
func round2(v float64) float64 {
	return math.Round(v*100) / 100
}

// SubjectAverage reduces a student's grades for one subject and term to a
// single average on 20. Continuous work (DEVOIR, INTERROGATION) counts for one
// third and the COMPOSITION exam for two thirds when both are present;
// otherwise the plain mean applies. No grades yields 0, a deliberate policy:
// an ungraded subject still weighs into the general average.
func SubjectAverage(grades []models.GradeDetail) float64 {
	return round2(subjectAverageRaw(grades))
}

// subjectAverageRaw is SubjectAverage before rounding. The subject total is
// derived from this value, not from the displayed (rounded) average: with a
// raw average of 46/3 and coefficient 3 the total is 46.00, not 45.99.
func subjectAverageRaw(grades []models.GradeDetail) float64 {
	if len(grades) == 0 {
		return 0
	}
	var contSum, examSum float64
	var contCount, examCount int
	for _, grade := range grades {
		if grade.Kind.IsContinuous() {
			contSum += grade.Value
			contCount++
		} else {
			examSum += grade.Value
			examCount++
		}
	}
	if contCount > 0 && examCount > 0 {
		contAvg := contSum / float64(contCount)
		examAvg := examSum / float64(examCount)
		return (contAvg + 2*examAvg) / 3
	}
	return (contSum + examSum) / float64(len(grades))
}

// subjectOutcome is the per (student, subject) computation result before
// class-wide statistics are known.
type subjectOutcome struct {
	average     float64
	total       float64
	teacherName *string
}

// studentOutcome accumulates one student's computed results.
type studentOutcome struct {
	enrollment     models.EnrollmentDetail
	generalAverage float64
	subjects       map[string]subjectOutcome
}

// Generate computes bulletins for every ACTIVE enrollment of the class for
// the given term and persists them, replacing any prior run. It returns the
// number of students processed.
func (s *BulletinService) Generate(ctx context.Context, req GenerateBulletinsRequest) (*GenerateBulletinsResult, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid generate payload")
	}
	start := time.Now()

	if _, err := s.classes.FindByID(ctx, req.ClassID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "class not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load class")
	}
	if _, err := s.terms.FindByID(ctx, req.TermID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "term not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load term")
	}

	enrollments, err := s.enrollments.ListActiveByClass(ctx, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list enrollments")
	}
	subjects, err := s.subjects.ListByClass(ctx, req.ClassID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list class subjects")
	}
	// Configuration error, not a transient failure: nothing is written.
	if len(enrollments) == 0 || len(subjects) == 0 {
		return nil, appErrors.ErrEmptyScope
	}

	gradesByStudent, err := s.grades.FetchByClassAndTerm(ctx, req.ClassID, req.TermID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to fetch grades")
	}

	outcomes := make([]*studentOutcome, 0, len(enrollments))
	for _, enrollment := range enrollments {
		bySubject := groupBySubject(gradesByStudent[enrollment.StudentID])
		outcome := &studentOutcome{enrollment: enrollment, subjects: make(map[string]subjectOutcome, len(subjects))}
		var totalWeighted float64
		var totalCoeff int
		for _, subject := range subjects {
			grades := bySubject[subject.ID]
			raw := subjectAverageRaw(grades)
			average := round2(raw)
			total := round2(raw * float64(subject.Coefficient))
			outcome.subjects[subject.ID] = subjectOutcome{
				average:     average,
				total:       total,
				teacherName: teacherOfRecord(grades),
			}
			totalWeighted += total
			totalCoeff += subject.Coefficient
		}
		if totalCoeff > 0 {
			outcome.generalAverage = round2(totalWeighted / float64(totalCoeff))
		}
		outcomes = append(outcomes, outcome)
	}

	// Descending general average; ties receive consecutive distinct ranks,
	// broken by ascending student ID so regeneration is deterministic.
	sort.SliceStable(outcomes, func(i, j int) bool {
		if outcomes[i].generalAverage != outcomes[j].generalAverage {
			return outcomes[i].generalAverage > outcomes[j].generalAverage
		}
		return outcomes[i].enrollment.StudentID < outcomes[j].enrollment.StudentID
	})

	totalStudents := len(outcomes)
	var sumGeneral float64
	for _, outcome := range outcomes {
		sumGeneral += outcome.generalAverage
	}
	classAverage := round2(sumGeneral / float64(totalStudents))

	stats := subjectStatistics(subjects, outcomes)

	for rank, outcome := range outcomes {
		bulletin := &models.Bulletin{
			StudentID:      outcome.enrollment.StudentID,
			ClassID:        req.ClassID,
			TermID:         req.TermID,
			GeneralAverage: outcome.generalAverage,
			Rank:           rank + 1,
			TotalStudents:  totalStudents,
			ClassAverage:   classAverage,
		}
		results := make([]models.BulletinSubjectResult, 0, len(subjects))
		for _, subject := range subjects {
			computed := outcome.subjects[subject.ID]
			stat := stats[subject.ID]
			results = append(results, models.BulletinSubjectResult{
				ClassSubjectID:  subject.ID,
				SubjectName:     subject.SubjectName,
				SubjectCategory: subject.SubjectCategory,
				Average:         computed.average,
				Coefficient:     subject.Coefficient,
				Total:           computed.total,
				ClassAverage:    stat.mean,
				ClassMin:        stat.min,
				ClassMax:        stat.max,
				Appreciation:    Appreciation(computed.average),
				TeacherName:     computed.teacherName,
			})
		}
		if err := s.bulletins.Save(ctx, bulletin, results); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to save bulletin")
		}
	}

	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, bulletinsCacheKey(req.ClassID, req.TermID))
	}
	if s.metrics != nil {
		s.metrics.ObserveBulletinGeneration(totalStudents, time.Since(start))
	}
	if s.audit != nil && req.ActorID != "" {
		scope := req.ClassID + ":" + req.TermID
		if err := s.audit.CreateAuditLog(ctx, &models.AuditLog{
			UserID:     &req.ActorID,
			Action:     models.AuditActionBulletinGenerate,
			Resource:   "bulletins",
			ResourceID: &scope,
			Detail:     []byte(fmt.Sprintf(`{"count":%d}`, totalStudents)),
		}); err != nil {
			s.logger.Warn("failed to record generation audit log", zap.Error(err))
		}
	}

	s.logger.Info("bulletins generated",
		zap.String("class_id", req.ClassID),
		zap.String("term_id", req.TermID),
		zap.Int("count", totalStudents),
		zap.Duration("elapsed", time.Since(start)))

	return &GenerateBulletinsResult{Count: totalStudents}, nil
}

// GetByID returns one bulletin with its subject rows.
func (s *BulletinService) GetByID(ctx context.Context, id string) (*models.BulletinDetail, error) {
	bulletin, err := s.bulletins.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "bulletin not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load bulletin")
	}
	return bulletin, nil
}

// ListByClassAndTerm returns a class's bulletins for a term ordered by rank.
func (s *BulletinService) ListByClassAndTerm(ctx context.Context, classID, termID string) ([]models.BulletinDetail, error) {
	key := bulletinsCacheKey(classID, termID)
	if s.cache != nil {
		var cached []models.BulletinDetail
		if hit, _ := s.cache.Get(ctx, key, &cached); hit {
			return cached, nil
		}
	}
	bulletins, err := s.bulletins.ListByClassAndTerm(ctx, classID, termID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list bulletins")
	}
	if s.cache != nil && len(bulletins) > 0 {
		_ = s.cache.Set(ctx, key, bulletins, 0)
	}
	return bulletins, nil
}

// ListByStudent returns every bulletin of a student ordered by term sequence.
func (s *BulletinService) ListByStudent(ctx context.Context, studentID string) ([]models.BulletinDetail, error) {
	bulletins, err := s.bulletins.ListByStudent(ctx, studentID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list student bulletins")
	}
	return bulletins, nil
}

// UpdateComments sets the free-text comments and decision on a bulletin.
func (s *BulletinService) UpdateComments(ctx context.Context, id string, req models.UpdateBulletinCommentsRequest) (*models.BulletinDetail, error) {
	existing, err := s.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if err := s.bulletins.UpdateComments(ctx, id, req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update bulletin comments")
	}
	if s.cache != nil {
		_ = s.cache.Invalidate(ctx, bulletinsCacheKey(existing.ClassID, existing.TermID))
	}
	return s.GetByID(ctx, id)
}

func bulletinsCacheKey(classID, termID string) string {
	return fmt.Sprintf("bulletins:%s:%s", classID, termID)
}

func groupBySubject(grades []models.GradeDetail) map[string][]models.GradeDetail {
	grouped := make(map[string][]models.GradeDetail)
	for _, grade := range grades {
		grouped[grade.ClassSubjectID] = append(grouped[grade.ClassSubjectID], grade)
	}
	return grouped
}

// teacherOfRecord picks the teacher of the most recently created grade.
// Grades arrive ordered by creation time ascending.
func teacherOfRecord(grades []models.GradeDetail) *string {
	var name *string
	var latest time.Time
	for _, grade := range grades {
		if grade.TeacherName == nil {
			continue
		}
		if name == nil || !grade.CreatedAt.Before(latest) {
			name = grade.TeacherName
			latest = grade.CreatedAt
		}
	}
	return name
}

type subjectStat struct {
	mean float64
	min  float64
	max  float64
}

// subjectStatistics aggregates each subject's averages across the ranked set.
// Students without grades contribute their zero average.
func subjectStatistics(subjects []models.ClassSubjectDetail, outcomes []*studentOutcome) map[string]subjectStat {
	stats := make(map[string]subjectStat, len(subjects))
	for _, subject := range subjects {
		var sum float64
		min := math.MaxFloat64
		max := -math.MaxFloat64
		for _, outcome := range outcomes {
			average := outcome.subjects[subject.ID].average
			sum += average
			if average < min {
				min = average
			}
			if average > max {
				max = average
			}
		}
		stats[subject.ID] = subjectStat{
			mean: round2(sum / float64(len(outcomes))),
			min:  min,
			max:  max,
		}
	}
	return stats
}
