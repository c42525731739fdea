package models

import "time"

// ExportType selects the collection being exported.
type ExportType string

const (
	ExportTypeStudents    ExportType = "STUDENTS"
	ExportTypeEnrollments ExportType = "ENROLLMENTS"
)

// ExportFormat selects the output encoding.
type ExportFormat string

const (
	ExportFormatCSV ExportFormat = "CSV"
	ExportFormatPDF ExportFormat = "PDF"
)

// ExportStatus tracks the lifecycle of an export job.
type ExportStatus string

const (
	ExportStatusPending    ExportStatus = "PENDING"
	ExportStatusProcessing ExportStatus = "PROCESSING"
	ExportStatusCompleted  ExportStatus = "COMPLETED"
	ExportStatusFailed     ExportStatus = "FAILED"
)

// ExportJob is an asynchronous roster export request.
type ExportJob struct {
	ID          string       `db:"id" json:"id"`
	Type        ExportType   `db:"type" json:"type"`
	Format      ExportFormat `db:"format" json:"format"`
	Status      ExportStatus `db:"status" json:"status"`
	RequestedBy string       `db:"requested_by" json:"requestedBy"`
	FilePath    *string      `db:"file_path" json:"-"`
	ErrorMsg    *string      `db:"error_msg" json:"errorMessage,omitempty"`
	CreatedAt   time.Time    `db:"created_at" json:"createdAt"`
	CompletedAt *time.Time   `db:"completed_at" json:"completedAt,omitempty"`
}
