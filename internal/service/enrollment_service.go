package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/machashop/students-ms/internal/models"
	"github.com/machashop/students-ms/internal/repository"
	appErrors "github.com/machashop/students-ms/pkg/errors"
	"github.com/machashop/students-ms/pkg/validation"
)

type enrollmentRepository interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
	FindByID(ctx context.Context, id string) (*models.Enrollment, error)
	FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error)
	ExistsActiveForStudent(ctx context.Context, studentID, excludeID string) (bool, error)
	Create(ctx context.Context, enrollment *models.Enrollment) error
	Update(ctx context.Context, enrollment *models.Enrollment) error
	SetStatus(ctx context.Context, id string, status models.Status) error
	ListEligibleStudents(ctx context.Context) ([]models.Student, error)
}

type enrollmentStudentReader interface {
	FindByID(ctx context.Context, id string) (*models.Student, error)
}

type enrollmentClassroomReader interface {
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
}

// CreateEnrollmentRequest describes the enrollment creation payload.
type CreateEnrollmentRequest struct {
	ClassroomID      string          `json:"classroomId" validate:"required"`
	StudentID        string          `json:"studentId" validate:"required"`
	EnrollmentDate   models.DateOnly `json:"enrollmentDate"`
	EnrollmentYear   string          `json:"enrollmentYear" validate:"required,year4"`
	EnrollmentPeriod string          `json:"enrollmentPeriod" validate:"required"`
}

// UpdateEnrollmentRequest describes the enrollment update payload.
type UpdateEnrollmentRequest struct {
	ClassroomID      string          `json:"classroomId" validate:"required"`
	StudentID        string          `json:"studentId" validate:"required"`
	EnrollmentDate   models.DateOnly `json:"enrollmentDate"`
	EnrollmentYear   string          `json:"enrollmentYear" validate:"required,year4"`
	EnrollmentPeriod string          `json:"enrollmentPeriod" validate:"required"`
	Status           models.Status   `json:"status" validate:"required,status_ai"`
}

// EnrollmentService orchestrates classroom-student workflows and carries the
// system's one real business rule: a student may hold at most one active
// enrollment. The scan here is an optimistic pre-check; the repository's
// conditional write is the source of truth.
type EnrollmentService struct {
	repo       enrollmentRepository
	students   enrollmentStudentReader
	classrooms enrollmentClassroomReader
	validator  *validator.Validate
	logger     *zap.Logger
	metrics    *MetricsService
}

// NewEnrollmentService constructs EnrollmentService.
func NewEnrollmentService(repo enrollmentRepository, students enrollmentStudentReader, classrooms enrollmentClassroomReader, validate *validator.Validate, logger *zap.Logger) *EnrollmentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EnrollmentService{repo: repo, students: students, classrooms: classrooms, validator: validate, logger: logger}
}

// BindMetrics attaches the conflict counter. Safe to skip in tests.
func (s *EnrollmentService) BindMetrics(m *MetricsService) {
	s.metrics = m
}

func (s *EnrollmentService) duplicateActive() error {
	s.metrics.RecordEnrollmentConflict()
	return appErrors.ErrDuplicateActiveEnrollment
}

// List returns enrollments with pagination metadata.
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
	if size <= 0 {
		size = 20
	}
	pagination := &models.Pagination{Page: page, PageSize: size, TotalCount: total}
	return enrollments, pagination, nil
}

// Get returns a single enrollment with context.
func (s *EnrollmentService) Get(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	return detail, nil
}

// EligibleStudents lists active students without an active enrollment, the
// candidate list for the add-enrollment screen.
func (s *EnrollmentService) EligibleStudents(ctx context.Context) ([]models.Student, error) {
	students, err := s.repo.ListEligibleStudents(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list eligible students")
	}
	return students, nil
}

// Create registers a student into a classroom. No write is issued when the
// student already holds an active enrollment.
func (s *EnrollmentService) Create(ctx context.Context, req CreateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if req.EnrollmentDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment date is required")
	}

	student, err := s.students.FindByID(ctx, req.StudentID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student is inactive")
	}

	classroom, err := s.classrooms.FindByID(ctx, req.ClassroomID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	if classroom.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "classroom is inactive")
	}

	exists, err := s.repo.ExistsActiveForStudent(ctx, req.StudentID, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
	}
	if exists {
		return nil, s.duplicateActive()
	}

	enrollment := &models.Enrollment{
		ClassroomID:      req.ClassroomID,
		StudentID:        req.StudentID,
		EnrollmentDate:   req.EnrollmentDate,
		EnrollmentYear:   req.EnrollmentYear,
		EnrollmentPeriod: req.EnrollmentPeriod,
		Status:           models.StatusActive,
	}
	if err := s.repo.Create(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrActiveExists) {
			return nil, s.duplicateActive()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create enrollment")
	}

	detail, err := s.repo.FindDetailByID(ctx, enrollment.ID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	return detail, nil
}

// Update rewrites an enrollment. Setting status to active re-runs the scan
// excluding the record's own ID; field-only updates skip the check.
func (s *EnrollmentService) Update(ctx context.Context, id string, req UpdateEnrollmentRequest) (*models.EnrollmentDetail, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid enrollment payload")
	}
	if req.EnrollmentDate.IsZero() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "enrollment date is required")
	}

	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}

	if req.Status == models.StatusActive {
		exists, err := s.repo.ExistsActiveForStudent(ctx, req.StudentID, id)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate enrollment")
		}
		if exists {
			return nil, s.duplicateActive()
		}
	}

	enrollment.ClassroomID = req.ClassroomID
	enrollment.StudentID = req.StudentID
	enrollment.EnrollmentDate = req.EnrollmentDate
	enrollment.EnrollmentYear = req.EnrollmentYear
	enrollment.EnrollmentPeriod = req.EnrollmentPeriod
	enrollment.Status = req.Status

	if err := s.repo.Update(ctx, enrollment); err != nil {
		if errors.Is(err, repository.ErrActiveExists) {
			return nil, s.duplicateActive()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update enrollment")
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	return detail, nil
}

// Deactivate soft-deletes an enrollment: status flips to inactive, the record
// is kept.
func (s *EnrollmentService) Deactivate(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status != models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment already inactive")
	}

	if err := s.repo.SetStatus(ctx, id, models.StatusInactive); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to deactivate enrollment")
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	return detail, nil
}

// Restore flips a soft-deleted enrollment back to active. The legacy client
// never re-ran the duplicate scan on this path; that behavior is preserved
// here and the database constraint is what rejects a duplicate active.
func (s *EnrollmentService) Restore(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	enrollment, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "enrollment not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment")
	}
	if enrollment.Status == models.StatusActive {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "enrollment already active")
	}

	if err := s.repo.SetStatus(ctx, id, models.StatusActive); err != nil {
		if errors.Is(err, repository.ErrActiveExists) {
			return nil, s.duplicateActive()
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to restore enrollment")
	}

	detail, err := s.repo.FindDetailByID(ctx, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load enrollment detail")
	}
	return detail, nil
}
