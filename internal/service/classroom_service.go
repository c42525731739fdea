package service

import (
	"context"
	"database/sql"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/machashop/students-ms/internal/models"
	appErrors "github.com/machashop/students-ms/pkg/errors"
	"github.com/machashop/students-ms/pkg/validation"
)

type classroomRepository interface {
	List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, int, error)
	FindByID(ctx context.Context, id string) (*models.Classroom, error)
	Create(ctx context.Context, classroom *models.Classroom) error
	Update(ctx context.Context, classroom *models.Classroom) error
	SetStatus(ctx context.Context, id string, status models.Status) error
}

type classroomEnrollmentReader interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
}

// CreateClassroomRequest holds the payload for registering classrooms.
type CreateClassroomRequest struct {
	Name     string `json:"name" validate:"required,min=2,max=120"`
	Level    string `json:"level" validate:"required,max=60"`
	Section  string `json:"section" validate:"required,max=10"`
	Capacity int    `json:"capacity" validate:"required,gte=1,lte=200"`
}

// UpdateClassroomRequest holds the payload for updating classrooms.
type UpdateClassroomRequest struct {
	Name     string        `json:"name" validate:"required,min=2,max=120"`
	Level    string        `json:"level" validate:"required,max=60"`
	Section  string        `json:"section" validate:"required,max=10"`
	Capacity int           `json:"capacity" validate:"required,gte=1,lte=200"`
	Status   models.Status `json:"status" validate:"omitempty,status_ai"`
}

// ClassroomService handles classroom use-cases.
type ClassroomService struct {
	repo        classroomRepository
	enrollments classroomEnrollmentReader
	validator   *validator.Validate
	logger      *zap.Logger
}

// NewClassroomService constructs the classroom service.
func NewClassroomService(repo classroomRepository, enrollments classroomEnrollmentReader, validate *validator.Validate, logger *zap.Logger) *ClassroomService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ClassroomService{repo: repo, enrollments: enrollments, validator: validate, logger: logger}
}

// List returns classrooms and pagination metadata.
func (s *ClassroomService) List(ctx context.Context, filter models.ClassroomFilter) ([]models.Classroom, *models.Pagination, error) {
	classrooms, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classrooms")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return classrooms, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Get returns a classroom by ID.
func (s *ClassroomService) Get(ctx context.Context, id string) (*models.Classroom, error) {
	classroom, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "classroom not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load classroom")
	}
	return classroom, nil
}

// Roster returns the enrollments of a classroom, optionally narrowed by the
// caller's filter (status, year, period).
func (s *ClassroomService) Roster(ctx context.Context, classroomID string, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, *models.Pagination, error) {
	if _, err := s.Get(ctx, classroomID); err != nil {
		return nil, nil, err
	}
	filter.ClassroomID = classroomID
	details, total, err := s.enrollments.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list classroom roster")
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 {
		size = 20
	}
	return details, &models.Pagination{Page: page, PageSize: size, TotalCount: total}, nil
}

// Create registers a new classroom, active by default.
func (s *ClassroomService) Create(ctx context.Context, req CreateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	classroom := &models.Classroom{
		Name:     req.Name,
		Level:    req.Level,
		Section:  req.Section,
		Capacity: req.Capacity,
		Status:   models.StatusActive,
	}
	if err := s.repo.Create(ctx, classroom); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create classroom")
	}
	return classroom, nil
}

// Update modifies a classroom.
func (s *ClassroomService) Update(ctx context.Context, id string, req UpdateClassroomRequest) (*models.Classroom, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid classroom payload")
	}
	classroom, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	classroom.Name = req.Name
	classroom.Level = req.Level
	classroom.Section = req.Section
	classroom.Capacity = req.Capacity
	if req.Status != "" {
		classroom.Status = req.Status
	}
	if err := s.repo.Update(ctx, classroom); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update classroom")
	}
	return classroom, nil
}

// Deactivate soft-deletes a classroom. Existing enrollments keep pointing at
// it; only new enrollments are blocked.
func (s *ClassroomService) Deactivate(ctx context.Context, id string) (*models.Classroom, error) {
	return s.setStatus(ctx, id, models.StatusInactive)
}

// Restore flips a soft-deleted classroom back to active.
func (s *ClassroomService) Restore(ctx context.Context, id string) (*models.Classroom, error) {
	return s.setStatus(ctx, id, models.StatusActive)
}

func (s *ClassroomService) setStatus(ctx context.Context, id string, status models.Status) (*models.Classroom, error) {
	classroom, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if classroom.Status == status {
		if status == models.StatusActive {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "classroom already active")
		}
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "classroom already inactive")
	}
	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update classroom status")
	}
	classroom.Status = status
	return classroom, nil
}
