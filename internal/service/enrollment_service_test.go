package service

import (
	"context"
	"database/sql"
	"errors"
	"sync"
	"testing"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/machashop/students-ms/internal/models"
	"github.com/machashop/students-ms/internal/repository"
	appErrors "github.com/machashop/students-ms/pkg/errors"
)

type mockEnrollmentRepo struct {
	mu          sync.Mutex
	enrollments map[string]models.Enrollment
	details     map[string]models.EnrollmentDetail
	eligible    []models.Student
	lastFilter  models.EnrollmentFilter
	listResult  []models.EnrollmentDetail
	listTotal   int
	createCalls int
	updateCalls int
	err         error
}

func (m *mockEnrollmentRepo) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	m.lastFilter = filter
	if m.err != nil {
		return nil, 0, m.err
	}
	return m.listResult, m.listTotal, nil
}

func (m *mockEnrollmentRepo) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if e, ok := m.enrollments[id]; ok {
		return &e, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if d, ok := m.details[id]; ok {
		return &d, nil
	}
	if e, ok := m.enrollments[id]; ok {
		return &models.EnrollmentDetail{Enrollment: e}, nil
	}
	return nil, sql.ErrNoRows
}

func (m *mockEnrollmentRepo) ExistsActiveForStudent(ctx context.Context, studentID, excludeID string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for id, e := range m.enrollments {
		if e.StudentID == studentID && e.Status == models.StatusActive && id != excludeID {
			return true, nil
		}
	}
	return false, nil
}

// Create mirrors the conditional insert: the row lands only when no active
// enrollment exists for the student.
func (m *mockEnrollmentRepo) Create(ctx context.Context, enrollment *models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.createCalls++
	for _, e := range m.enrollments {
		if e.StudentID == enrollment.StudentID && e.Status == models.StatusActive {
			return repository.ErrActiveExists
		}
	}
	if m.enrollments == nil {
		m.enrollments = make(map[string]models.Enrollment)
	}
	if enrollment.ID == "" {
		enrollment.ID = "generated"
	}
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) Update(ctx context.Context, enrollment *models.Enrollment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.updateCalls++
	if enrollment.Status == models.StatusActive {
		for id, e := range m.enrollments {
			if id != enrollment.ID && e.StudentID == enrollment.StudentID && e.Status == models.StatusActive {
				return repository.ErrActiveExists
			}
		}
	}
	m.enrollments[enrollment.ID] = *enrollment
	return nil
}

func (m *mockEnrollmentRepo) SetStatus(ctx context.Context, id string, status models.Status) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	e, ok := m.enrollments[id]
	if !ok {
		return sql.ErrNoRows
	}
	if status == models.StatusActive {
		for otherID, other := range m.enrollments {
			if otherID != id && other.StudentID == e.StudentID && other.Status == models.StatusActive {
				return repository.ErrActiveExists
			}
		}
	}
	e.Status = status
	m.enrollments[id] = e
	return nil
}

func (m *mockEnrollmentRepo) ListEligibleStudents(ctx context.Context) ([]models.Student, error) {
	return m.eligible, nil
}

type mockStudentReader struct {
	students map[string]models.Student
}

func (m *mockStudentReader) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

type mockClassroomReader struct {
	classrooms map[string]models.Classroom
}

func (m *mockClassroomReader) FindByID(ctx context.Context, id string) (*models.Classroom, error) {
	if c, ok := m.classrooms[id]; ok {
		return &c, nil
	}
	return nil, sql.ErrNoRows
}

func enrollmentFixtures() (*mockEnrollmentRepo, *mockStudentReader, *mockClassroomReader) {
	repo := &mockEnrollmentRepo{enrollments: map[string]models.Enrollment{}}
	students := &mockStudentReader{students: map[string]models.Student{
		"st-1": {ID: "st-1", FirstName: "Ana", LastName: "Pérez", Status: models.StatusActive},
		"st-2": {ID: "st-2", FirstName: "Luis", LastName: "Gómez", Status: models.StatusActive},
		"st-3": {ID: "st-3", FirstName: "Rosa", LastName: "Díaz", Status: models.StatusInactive},
	}}
	classrooms := &mockClassroomReader{classrooms: map[string]models.Classroom{
		"cl-1": {ID: "cl-1", Name: "3A", Status: models.StatusActive},
		"cl-2": {ID: "cl-2", Name: "3B", Status: models.StatusInactive},
	}}
	return repo, students, classrooms
}

func validCreateRequest(studentID string) CreateEnrollmentRequest {
	date, _ := models.ParseDateOnly("2025-03-01")
	return CreateEnrollmentRequest{
		ClassroomID:      "cl-1",
		StudentID:        studentID,
		EnrollmentDate:   date,
		EnrollmentYear:   "2025",
		EnrollmentPeriod: "I",
	}
}

func TestEnrollmentCreate(t *testing.T) {
	repo, students, classrooms := enrollmentFixtures()
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)

	detail, err := svc.Create(context.Background(), validCreateRequest("st-1"))
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, detail.Status)
	assert.Equal(t, "st-1", detail.StudentID)
	assert.Equal(t, "2025", detail.EnrollmentYear)
}

func TestEnrollmentCreateDuplicateActiveFailsWithoutWrite(t *testing.T) {
	repo, students, classrooms := enrollmentFixtures()
	repo.enrollments["en-1"] = models.Enrollment{ID: "en-1", StudentID: "st-1", ClassroomID: "cl-1", Status: models.StatusActive}
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)

	_, err := svc.Create(context.Background(), validCreateRequest("st-1"))
	require.Error(t, err)

	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDuplicateActiveEnrollment.Code, appErr.Code)
	assert.Equal(t, "student already has an active enrollment", appErr.Message)
	assert.Zero(t, repo.createCalls, "pre-check must reject before any write")
	assert.Len(t, repo.enrollments, 1)
}

func TestEnrollmentConflictIncrementsCounter(t *testing.T) {
	repo, students, classrooms := enrollmentFixtures()
	repo.enrollments["en-1"] = models.Enrollment{ID: "en-1", StudentID: "st-1", ClassroomID: "cl-1", Status: models.StatusActive}
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)
	metrics := NewMetricsService()
	svc.BindMetrics(metrics)

	_, err := svc.Create(context.Background(), validCreateRequest("st-1"))
	require.Error(t, err)
	assert.Equal(t, 1.0, testutil.ToFloat64(metrics.enrollConflicts))

	_, err = svc.Create(context.Background(), validCreateRequest("st-1"))
	require.Error(t, err)
	assert.Equal(t, 2.0, testutil.ToFloat64(metrics.enrollConflicts))
}

func TestEnrollmentCreateRaceHeldByConditionalWrite(t *testing.T) {
	// Two concurrent creates for the same student can both pass the scan;
	// the write itself must let only one through.
	repo, students, classrooms := enrollmentFixtures()
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)

	var wg sync.WaitGroup
	errs := make(chan error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			req := validCreateRequest("st-1")
			_, err := svc.Create(context.Background(), req)
			errs <- err
		}()
	}
	wg.Wait()
	close(errs)

	var failures int
	for err := range errs {
		if err != nil {
			failures++
			var appErr *appErrors.Error
			require.True(t, errors.As(err, &appErr))
			assert.Equal(t, appErrors.ErrDuplicateActiveEnrollment.Code, appErr.Code)
		}
	}
	active := 0
	for _, e := range repo.enrollments {
		if e.StudentID == "st-1" && e.Status == models.StatusActive {
			active++
		}
	}
	assert.Equal(t, 1, active, "at most one active enrollment may survive")
	assert.Equal(t, 1, failures)
}

func TestEnrollmentCreateInactiveStudent(t *testing.T) {
	repo, students, classrooms := enrollmentFixtures()
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)

	_, err := svc.Create(context.Background(), validCreateRequest("st-3"))
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestEnrollmentCreateInactiveClassroom(t *testing.T) {
	repo, students, classrooms := enrollmentFixtures()
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)

	req := validCreateRequest("st-1")
	req.ClassroomID = "cl-2"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErr.Code)
}

func TestEnrollmentCreateValidation(t *testing.T) {
	repo, students, classrooms := enrollmentFixtures()
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)

	req := validCreateRequest("st-1")
	req.EnrollmentYear = "25"
	_, err := svc.Create(context.Background(), req)
	require.Error(t, err)

	req = validCreateRequest("st-1")
	req.EnrollmentDate = models.DateOnly{}
	_, err = svc.Create(context.Background(), req)
	require.Error(t, err)
}

func TestEnrollmentUpdateActiveReexcludesOwnID(t *testing.T) {
	repo, students, classrooms := enrollmentFixtures()
	date, _ := models.ParseDateOnly("2025-03-01")
	repo.enrollments["en-1"] = models.Enrollment{
		ID: "en-1", StudentID: "st-1", ClassroomID: "cl-1",
		EnrollmentDate: date, EnrollmentYear: "2025", EnrollmentPeriod: "I",
		Status: models.StatusActive,
	}
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)

	// The record's own active row must not trip the duplicate check.
	detail, err := svc.Update(context.Background(), "en-1", UpdateEnrollmentRequest{
		ClassroomID:      "cl-1",
		StudentID:        "st-1",
		EnrollmentDate:   date,
		EnrollmentYear:   "2025",
		EnrollmentPeriod: "II",
		Status:           models.StatusActive,
	})
	require.NoError(t, err)
	assert.Equal(t, "II", detail.EnrollmentPeriod)
}

func TestEnrollmentUpdateReassignToBusyStudent(t *testing.T) {
	repo, students, classrooms := enrollmentFixtures()
	date, _ := models.ParseDateOnly("2025-03-01")
	repo.enrollments["en-1"] = models.Enrollment{ID: "en-1", StudentID: "st-1", ClassroomID: "cl-1", EnrollmentDate: date, EnrollmentYear: "2025", EnrollmentPeriod: "I", Status: models.StatusActive}
	repo.enrollments["en-2"] = models.Enrollment{ID: "en-2", StudentID: "st-2", ClassroomID: "cl-1", EnrollmentDate: date, EnrollmentYear: "2025", EnrollmentPeriod: "I", Status: models.StatusActive}
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)

	_, err := svc.Update(context.Background(), "en-2", UpdateEnrollmentRequest{
		ClassroomID:      "cl-1",
		StudentID:        "st-1",
		EnrollmentDate:   date,
		EnrollmentYear:   "2025",
		EnrollmentPeriod: "I",
		Status:           models.StatusActive,
	})
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDuplicateActiveEnrollment.Code, appErr.Code)
}

func TestEnrollmentDeactivateAndRestorePreservesFields(t *testing.T) {
	repo, students, classrooms := enrollmentFixtures()
	date, _ := models.ParseDateOnly("2025-03-01")
	repo.enrollments["en-1"] = models.Enrollment{
		ID: "en-1", StudentID: "st-1", ClassroomID: "cl-1",
		EnrollmentDate: date, EnrollmentYear: "2025", EnrollmentPeriod: "I",
		Status: models.StatusActive,
	}
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)

	detail, err := svc.Deactivate(context.Background(), "en-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusInactive, detail.Status)

	_, err = svc.Deactivate(context.Background(), "en-1")
	require.Error(t, err, "already inactive")

	restored, err := svc.Restore(context.Background(), "en-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusActive, restored.Status)
	assert.Equal(t, "2025", restored.EnrollmentYear)
	assert.Equal(t, "I", restored.EnrollmentPeriod)
	assert.Equal(t, "cl-1", restored.ClassroomID)
}

func TestEnrollmentRestoreBlockedByConstraint(t *testing.T) {
	// Restore has no pre-check; the conditional write is what rejects it.
	repo, students, classrooms := enrollmentFixtures()
	repo.enrollments["en-1"] = models.Enrollment{ID: "en-1", StudentID: "st-1", ClassroomID: "cl-1", Status: models.StatusInactive}
	repo.enrollments["en-2"] = models.Enrollment{ID: "en-2", StudentID: "st-1", ClassroomID: "cl-1", Status: models.StatusActive}
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)

	_, err := svc.Restore(context.Background(), "en-1")
	require.Error(t, err)
	var appErr *appErrors.Error
	require.True(t, errors.As(err, &appErr))
	assert.Equal(t, appErrors.ErrDuplicateActiveEnrollment.Code, appErr.Code)
}

func TestEnrollmentListPassesFilterAndPagination(t *testing.T) {
	repo, students, classrooms := enrollmentFixtures()
	repo.listResult = []models.EnrollmentDetail{
		{Enrollment: models.Enrollment{ID: "en-1", Status: models.StatusActive}, StudentFirstName: "Ana", StudentLastName: "Pérez"},
	}
	repo.listTotal = 7
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)

	details, pagination, err := svc.List(context.Background(), models.EnrollmentFilter{
		Status: models.StatusActive, Year: "2025", Page: 2, PageSize: 5,
	})
	require.NoError(t, err)
	require.Len(t, details, 1)
	assert.Equal(t, "Ana", details[0].StudentFirstName)
	assert.Equal(t, models.StatusActive, repo.lastFilter.Status)
	assert.Equal(t, "2025", repo.lastFilter.Year)
	assert.Equal(t, 2, pagination.Page)
	assert.Equal(t, 5, pagination.PageSize)
	assert.Equal(t, 7, pagination.TotalCount)
}

func TestEnrollmentEligibleStudents(t *testing.T) {
	repo, students, classrooms := enrollmentFixtures()
	repo.eligible = []models.Student{{ID: "st-2", FirstName: "Luis"}}
	svc := NewEnrollmentService(repo, students, classrooms, nil, nil)

	list, err := svc.EligibleStudents(context.Background())
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "st-2", list[0].ID)
}
