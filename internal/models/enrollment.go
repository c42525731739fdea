package models

import "time"

// Enrollment links one student to one classroom for a given year and period.
// The wire resource keeps the legacy name "classroom-students".
type Enrollment struct {
	ID               string    `db:"id" json:"id"`
	ClassroomID      string    `db:"classroom_id" json:"classroomId"`
	StudentID        string    `db:"student_id" json:"studentId"`
	EnrollmentDate   DateOnly  `db:"enrollment_date" json:"enrollmentDate"`
	EnrollmentYear   string    `db:"enrollment_year" json:"enrollmentYear"`
	EnrollmentPeriod string    `db:"enrollment_period" json:"enrollmentPeriod"`
	Status           Status    `db:"status" json:"status"`
	CreatedAt        time.Time `db:"created_at" json:"createdAt"`
	UpdatedAt        time.Time `db:"updated_at" json:"updatedAt"`
}

// EnrollmentDetail enriches Enrollment with student and classroom context
// for list screens.
type EnrollmentDetail struct {
	Enrollment
	StudentFirstName string `db:"student_first_name" json:"studentFirstName"`
	StudentLastName  string `db:"student_last_name" json:"studentLastName"`
	StudentDocument  string `db:"student_document" json:"studentDocument"`
	ClassroomName    string `db:"classroom_name" json:"classroomName"`
}

// EnrollmentFilter provides filters for listing enrollments.
type EnrollmentFilter struct {
	StudentID   string
	ClassroomID string
	Status      Status
	Year        string
	Period      string
	Search      string
	Page        int
	PageSize    int
	SortBy      string
	SortOrder   string
}
