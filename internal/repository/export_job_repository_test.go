package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/require"

	"github.com/machashop/students-ms/internal/models"
)

func TestExportJobRepositoryCreateDefaults(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO export_jobs")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	job := &models.ExportJob{
		Type:        models.ExportTypeStudents,
		Format:      models.ExportFormatCSV,
		RequestedBy: "u-1",
	}
	require.NoError(t, repo.Create(context.Background(), job))
	require.NotEmpty(t, job.ID)
	require.Equal(t, models.ExportStatusPending, job.Status)
	require.False(t, job.CreatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryMarkCompleted(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	completedAt := time.Now().UTC()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET status = $2, file_path = $3, completed_at = $4 WHERE id = $1")).
		WithArgs("job-1", models.ExportStatusCompleted, "students/20260829-101500-job-1.csv", completedAt).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkCompleted(context.Background(), "job-1", "students/20260829-101500-job-1.csv", completedAt))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestExportJobRepositoryMarkFailed(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewExportJobRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE export_jobs SET status = $2, error_msg = $3, completed_at = $4 WHERE id = $1")).
		WithArgs("job-1", models.ExportStatusFailed, "render failed", sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.MarkFailed(context.Background(), "job-1", "render failed"))
	require.NoError(t, mock.ExpectationsWereMet())
}
