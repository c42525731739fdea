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

type studentRepository interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
	FindByID(ctx context.Context, id string) (*models.Student, error)
	ExistsByDocument(ctx context.Context, docType models.DocumentType, number, excludeID string) (bool, error)
	Create(ctx context.Context, student *models.Student) error
	Update(ctx context.Context, student *models.Student) error
	SetStatus(ctx context.Context, id string, status models.Status) error
}

// CreateStudentRequest holds the payload for registering students.
type CreateStudentRequest struct {
	InstitutionID  string              `json:"institutionId" validate:"required"`
	FirstName      string              `json:"firstName" validate:"required,person_name"`
	LastName       string              `json:"lastName" validate:"required,person_name"`
	DocumentType   models.DocumentType `json:"documentType" validate:"required,doc_type"`
	DocumentNumber string              `json:"documentNumber" validate:"required"`
	Gender         models.Gender       `json:"gender" validate:"required,gender_mf"`
	BirthDate      models.DateOnly     `json:"birthDate"`
	Address        string              `json:"address" validate:"required"`
	Phone          string              `json:"phone" validate:"required,phone_pe"`
	Email          string              `json:"email" validate:"required,email"`
}

// UpdateStudentRequest holds the payload for updating students. Status is
// optional: the record keeps its current status unless changed explicitly.
type UpdateStudentRequest struct {
	InstitutionID  string              `json:"institutionId" validate:"required"`
	FirstName      string              `json:"firstName" validate:"required,person_name"`
	LastName       string              `json:"lastName" validate:"required,person_name"`
	DocumentType   models.DocumentType `json:"documentType" validate:"required,doc_type"`
	DocumentNumber string              `json:"documentNumber" validate:"required"`
	Gender         models.Gender       `json:"gender" validate:"required,gender_mf"`
	BirthDate      models.DateOnly     `json:"birthDate"`
	Address        string              `json:"address" validate:"required"`
	Phone          string              `json:"phone" validate:"required,phone_pe"`
	Email          string              `json:"email" validate:"required,email"`
	Status         models.Status       `json:"status" validate:"omitempty,status_ai"`
}

// StudentService handles student use-cases.
type StudentService struct {
	repo      studentRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewStudentService constructs the student service.
func NewStudentService(repo studentRepository, validate *validator.Validate, logger *zap.Logger) *StudentService {
	if validate == nil {
		validate = validation.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &StudentService{repo: repo, validator: validate, logger: logger}
}

// List returns students and pagination metadata.
func (s *StudentService) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, *models.Pagination, error) {
	students, total, err := s.repo.List(ctx, filter)
	if err != nil {
		return nil, nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list students")
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
	return students, pagination, nil
}

// Get returns a student by ID.
func (s *StudentService) Get(ctx context.Context, id string) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	return student, nil
}

// Create registers a new student. The QR label is derived server-side so the
// stored value can never drift from its inputs.
func (s *StudentService) Create(ctx context.Context, req CreateStudentRequest) (*models.Student, error) {
	if err := s.validateStudentFields(req.DocumentType, req.DocumentNumber, req.BirthDate); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	exists, err := s.repo.ExistsByDocument(ctx, req.DocumentType, req.DocumentNumber, "")
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate document")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "document number already registered")
	}

	student := &models.Student{
		InstitutionID:  req.InstitutionID,
		FirstName:      req.FirstName,
		LastName:       req.LastName,
		DocumentType:   req.DocumentType,
		DocumentNumber: req.DocumentNumber,
		Gender:         req.Gender,
		BirthDate:      req.BirthDate,
		Address:        req.Address,
		Phone:          req.Phone,
		Email:          req.Email,
		NameQR:         models.QRLabel(req.FirstName, req.LastName, req.DocumentNumber),
		Status:         models.StatusActive,
	}
	if err := s.repo.Create(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create student")
	}
	return student, nil
}

// Update modifies an existing student, recomputing the QR label from the
// post-edit first name, last name and document number.
func (s *StudentService) Update(ctx context.Context, id string, req UpdateStudentRequest) (*models.Student, error) {
	if err := s.validateStudentFields(req.DocumentType, req.DocumentNumber, req.BirthDate); err != nil {
		return nil, err
	}
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid student payload")
	}

	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}

	exists, err := s.repo.ExistsByDocument(ctx, req.DocumentType, req.DocumentNumber, id)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to validate document")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "document number already registered")
	}

	student.InstitutionID = req.InstitutionID
	student.FirstName = req.FirstName
	student.LastName = req.LastName
	student.DocumentType = req.DocumentType
	student.DocumentNumber = req.DocumentNumber
	student.Gender = req.Gender
	student.BirthDate = req.BirthDate
	student.Address = req.Address
	student.Phone = req.Phone
	student.Email = req.Email
	student.NameQR = models.QRLabel(req.FirstName, req.LastName, req.DocumentNumber)
	if req.Status != "" {
		student.Status = req.Status
	}

	if err := s.repo.Update(ctx, student); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student")
	}
	return student, nil
}

// Deactivate soft-deletes a student: status flips to inactive in place.
func (s *StudentService) Deactivate(ctx context.Context, id string) (*models.Student, error) {
	return s.setStatus(ctx, id, models.StatusInactive)
}

// Restore flips a soft-deleted student back to active, leaving every other
// field unchanged.
func (s *StudentService) Restore(ctx context.Context, id string) (*models.Student, error) {
	return s.setStatus(ctx, id, models.StatusActive)
}

func (s *StudentService) setStatus(ctx context.Context, id string, status models.Status) (*models.Student, error) {
	student, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "student not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load student")
	}
	if student.Status == status {
		if status == models.StatusActive {
			return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student already active")
		}
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "student already inactive")
	}

	if err := s.repo.SetStatus(ctx, id, status); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to update student status")
	}
	student.Status = status
	return student, nil
}

func (s *StudentService) validateStudentFields(docType models.DocumentType, number string, birthDate models.DateOnly) error {
	if birthDate.IsZero() {
		return appErrors.Clone(appErrors.ErrValidation, "birth date is required")
	}
	if number != "" && docType != "" && !validation.DocumentNumberValid(docType, number) {
		if docType == models.DocumentTypeDNI {
			return appErrors.Clone(appErrors.ErrValidation, "DNI must have exactly 8 digits")
		}
		return appErrors.Clone(appErrors.ErrValidation, "CE must have between 9 and 12 digits")
	}
	return nil
}
