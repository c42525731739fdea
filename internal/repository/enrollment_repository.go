package repository

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"github.com/machashop/students-ms/internal/models"
)

// ErrActiveExists is returned when a write would leave a student with more
// than one active enrollment. It is raised by the conditional insert and by
// the partial unique index, so the invariant holds even when two writers
// race past the service-level pre-check.
var ErrActiveExists = errors.New("active enrollment already exists for student")

const uniqueViolation = "23505"

// EnrollmentRepository handles persistence of classroom-student records.
type EnrollmentRepository struct {
	db *sqlx.DB
}

// NewEnrollmentRepository constructs the repository.
func NewEnrollmentRepository(db *sqlx.DB) *EnrollmentRepository {
	return &EnrollmentRepository{db: db}
}

// List returns enrollments filtered by the provided criteria.
func (r *EnrollmentRepository) List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error) {
	base := `FROM enrollments e
LEFT JOIN students s ON s.id = e.student_id
LEFT JOIN classrooms c ON c.id = e.classroom_id`
	var conditions []string
	var args []interface{}

	if filter.StudentID != "" {
		conditions = append(conditions, fmt.Sprintf("e.student_id = $%d", len(args)+1))
		args = append(args, filter.StudentID)
	}
	if filter.ClassroomID != "" {
		conditions = append(conditions, fmt.Sprintf("e.classroom_id = $%d", len(args)+1))
		args = append(args, filter.ClassroomID)
	}
	if filter.Status != "" {
		conditions = append(conditions, fmt.Sprintf("e.status = $%d", len(args)+1))
		args = append(args, filter.Status)
	}
	if filter.Year != "" {
		conditions = append(conditions, fmt.Sprintf("e.enrollment_year = $%d", len(args)+1))
		args = append(args, filter.Year)
	}
	if filter.Period != "" {
		conditions = append(conditions, fmt.Sprintf("e.enrollment_period = $%d", len(args)+1))
		args = append(args, filter.Period)
	}
	if filter.Search != "" {
		idx := len(args) + 1
		conditions = append(conditions, fmt.Sprintf("(LOWER(s.first_name) LIKE $%d OR LOWER(s.last_name) LIKE $%d OR LOWER(s.document_number) LIKE $%d)", idx, idx, idx))
		args = append(args, "%"+strings.ToLower(filter.Search)+"%")
	}

	clause := ""
	if len(conditions) > 0 {
		clause = " WHERE " + strings.Join(conditions, " AND ")
	}

	allowedSorts := map[string]string{
		"enrollment_date": "e.enrollment_date",
		"student_name":    "s.last_name",
		"classroom_name":  "c.name",
	}
	sortBy := filter.SortBy
	if sortBy == "" {
		sortBy = "enrollment_date"
	}
	orderBy := allowedSorts[sortBy]
	if orderBy == "" {
		orderBy = "e.enrollment_date"
	}
	order := strings.ToUpper(filter.SortOrder)
	if order != "ASC" && order != "DESC" {
		order = "DESC"
	}
	page := filter.Page
	if page < 1 {
		page = 1
	}
	size := filter.PageSize
	if size <= 0 || size > 100 {
		size = 20
	}
	offset := (page - 1) * size

	query := fmt.Sprintf(`SELECT e.id, e.classroom_id, e.student_id, e.enrollment_date, e.enrollment_year, e.enrollment_period, e.status, e.created_at, e.updated_at,
        s.first_name AS student_first_name, s.last_name AS student_last_name, s.document_number AS student_document, c.name AS classroom_name
        %s ORDER BY %s %s LIMIT %d OFFSET %d`, base+clause, orderBy, order, size, offset)

	var enrollments []models.EnrollmentDetail
	if err := r.db.SelectContext(ctx, &enrollments, query, args...); err != nil {
		return nil, 0, fmt.Errorf("list enrollments: %w", err)
	}

	countQuery := fmt.Sprintf("SELECT COUNT(*) %s", base+clause)
	var total int
	if err := r.db.GetContext(ctx, &total, countQuery, args...); err != nil {
		return nil, 0, fmt.Errorf("count enrollments: %w", err)
	}
	return enrollments, total, nil
}

// FindByID returns an enrollment by its ID.
func (r *EnrollmentRepository) FindByID(ctx context.Context, id string) (*models.Enrollment, error) {
	const query = `SELECT id, classroom_id, student_id, enrollment_date, enrollment_year, enrollment_period, status, created_at, updated_at FROM enrollments WHERE id = $1`
	var enrollment models.Enrollment
	if err := r.db.GetContext(ctx, &enrollment, query, id); err != nil {
		return nil, err
	}
	return &enrollment, nil
}

// FindDetailByID returns an enrollment with student and classroom context.
func (r *EnrollmentRepository) FindDetailByID(ctx context.Context, id string) (*models.EnrollmentDetail, error) {
	const query = `SELECT e.id, e.classroom_id, e.student_id, e.enrollment_date, e.enrollment_year, e.enrollment_period, e.status, e.created_at, e.updated_at,
        s.first_name AS student_first_name, s.last_name AS student_last_name, s.document_number AS student_document, c.name AS classroom_name
        FROM enrollments e
        LEFT JOIN students s ON s.id = e.student_id
        LEFT JOIN classrooms c ON c.id = e.classroom_id
        WHERE e.id = $1`
	var detail models.EnrollmentDetail
	if err := r.db.GetContext(ctx, &detail, query, id); err != nil {
		return nil, err
	}
	return &detail, nil
}

// ExistsActiveForStudent checks whether the student already holds an active
// enrollment, optionally excluding a record by ID.
func (r *EnrollmentRepository) ExistsActiveForStudent(ctx context.Context, studentID, excludeID string) (bool, error) {
	query := "SELECT 1 FROM enrollments WHERE student_id = $1 AND status = $2"
	args := []interface{}{studentID, models.StatusActive}
	if excludeID != "" {
		query += fmt.Sprintf(" AND id <> $%d", len(args)+1)
		args = append(args, excludeID)
	}
	query += " LIMIT 1"
	var exists int
	if err := r.db.GetContext(ctx, &exists, query, args...); err != nil {
		if err == sql.ErrNoRows {
			return false, nil
		}
		return false, fmt.Errorf("check active enrollment: %w", err)
	}
	return true, nil
}

// Create persists a new enrollment. The insert re-verifies the single-active
// invariant inside the statement and the partial unique index backstops it;
// both paths surface as ErrActiveExists.
func (r *EnrollmentRepository) Create(ctx context.Context, enrollment *models.Enrollment) error {
	if enrollment.ID == "" {
		enrollment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if enrollment.CreatedAt.IsZero() {
		enrollment.CreatedAt = now
	}
	enrollment.UpdatedAt = now
	if enrollment.Status == "" {
		enrollment.Status = models.StatusActive
	}

	const query = `INSERT INTO enrollments (id, classroom_id, student_id, enrollment_date, enrollment_year, enrollment_period, status, created_at, updated_at)
        SELECT $1, $2, $3, $4, $5, $6, $7, $8, $9
        WHERE $7 <> 'A' OR NOT EXISTS (
            SELECT 1 FROM enrollments WHERE student_id = $3 AND status = 'A'
        )`
	res, err := r.db.ExecContext(ctx, query,
		enrollment.ID, enrollment.ClassroomID, enrollment.StudentID,
		enrollment.EnrollmentDate, enrollment.EnrollmentYear, enrollment.EnrollmentPeriod,
		enrollment.Status, enrollment.CreatedAt, enrollment.UpdatedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrActiveExists
		}
		return fmt.Errorf("create enrollment: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("create enrollment: %w", err)
	}
	if affected == 0 {
		return ErrActiveExists
	}
	return nil
}

// Update rewrites an enrollment's fields. Flipping status to active is
// rejected with ErrActiveExists when another active record holds the student.
func (r *EnrollmentRepository) Update(ctx context.Context, enrollment *models.Enrollment) error {
	enrollment.UpdatedAt = time.Now().UTC()
	const query = `UPDATE enrollments SET classroom_id = :classroom_id, student_id = :student_id, enrollment_date = :enrollment_date,
        enrollment_year = :enrollment_year, enrollment_period = :enrollment_period, status = :status, updated_at = :updated_at WHERE id = :id`
	if _, err := r.db.NamedExecContext(ctx, query, enrollment); err != nil {
		if isUniqueViolation(err) {
			return ErrActiveExists
		}
		return fmt.Errorf("update enrollment: %w", err)
	}
	return nil
}

// SetStatus flips the lifecycle status. Restoring to active goes straight to
// the index; the pre-check is deliberately skipped here (restore is a rare,
// manual action) and a duplicate surfaces as ErrActiveExists.
func (r *EnrollmentRepository) SetStatus(ctx context.Context, id string, status models.Status) error {
	const query = `UPDATE enrollments SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		if isUniqueViolation(err) {
			return ErrActiveExists
		}
		return fmt.Errorf("set enrollment status: %w", err)
	}
	return nil
}

// ListEligibleStudents returns active students that do not currently hold an
// active enrollment, for the add-enrollment candidate list.
func (r *EnrollmentRepository) ListEligibleStudents(ctx context.Context) ([]models.Student, error) {
	const query = `SELECT s.id, s.institution_id, s.first_name, s.last_name, s.document_type, s.document_number, s.gender, s.birth_date, s.address, s.phone, s.email, s.name_qr, s.status, s.created_at, s.updated_at
        FROM students s
        WHERE s.status = $1 AND NOT EXISTS (
            SELECT 1 FROM enrollments e WHERE e.student_id = s.id AND e.status = $1
        )
        ORDER BY s.last_name ASC`
	var students []models.Student
	if err := r.db.SelectContext(ctx, &students, query, models.StatusActive); err != nil {
		return nil, fmt.Errorf("list eligible students: %w", err)
	}
	return students, nil
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code == uniqueViolation
	}
	return false
}
