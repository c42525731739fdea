package service

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/machashop/students-ms/internal/models"
	appErrors "github.com/machashop/students-ms/pkg/errors"
	"github.com/machashop/students-ms/pkg/export"
	"github.com/machashop/students-ms/pkg/jobs"
	"github.com/machashop/students-ms/pkg/storage"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	FindByID(ctx context.Context, id string) (*models.ExportJob, error)
	MarkProcessing(ctx context.Context, id string) error
	MarkCompleted(ctx context.Context, id, filePath string, completedAt time.Time) error
	MarkFailed(ctx context.Context, id, message string) error
}

type exportStudentLister interface {
	List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error)
}

type exportEnrollmentLister interface {
	List(ctx context.Context, filter models.EnrollmentFilter) ([]models.EnrollmentDetail, int, error)
}

type exportFileStorage interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type exportQueue interface {
	Enqueue(job jobs.Job) error
}

type tableRenderer interface {
	Render(table export.Table) ([]byte, error)
}

// ExportRequest describes a new asynchronous export.
type ExportRequest struct {
	Type   models.ExportType   `json:"type"`
	Format models.ExportFormat `json:"format"`
}

// DownloadResult is a validated, ready-to-stream export file.
type DownloadResult struct {
	File        *os.File
	Filename    string
	ContentType string
}

// ExportService accepts export requests, renders them on background workers
// and serves the results through signed download tokens.
type ExportService struct {
	store       exportJobStore
	students    exportStudentLister
	enrollments exportEnrollmentLister
	storage     exportFileStorage
	queue       exportQueue
	signer      *storage.SignedURLSigner
	csv         tableRenderer
	pdf         tableRenderer
	logger      *zap.Logger
	metrics     *MetricsService
	now         func() time.Time
}

// NewExportService constructs an ExportService. Call BindQueue before use so
// the worker pool can reach ProcessJob.
func NewExportService(store exportJobStore, students exportStudentLister, enrollments exportEnrollmentLister, fileStore exportFileStorage, signer *storage.SignedURLSigner, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		store:       store,
		students:    students,
		enrollments: enrollments,
		storage:     fileStore,
		signer:      signer,
		csv:         export.NewCSVExporter(),
		pdf:         export.NewPDFExporter(),
		logger:      logger,
		now:         time.Now,
	}
}

// BindQueue attaches the worker queue used to run jobs asynchronously.
func (s *ExportService) BindQueue(q exportQueue) {
	s.queue = q
}

// BindMetrics attaches the job outcome counter.
func (s *ExportService) BindMetrics(m *MetricsService) {
	s.metrics = m
}

// Request persists a pending job and hands it to the worker pool.
func (s *ExportService) Request(ctx context.Context, requestedBy string, req ExportRequest) (*models.ExportJob, error) {
	switch req.Type {
	case models.ExportTypeStudents, models.ExportTypeEnrollments:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export type %q", req.Type))
	}
	switch req.Format {
	case models.ExportFormatCSV, models.ExportFormatPDF:
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, fmt.Sprintf("unsupported export format %q", req.Format))
	}
	if s.queue == nil {
		return nil, appErrors.Clone(appErrors.ErrInternal, "export workers are not running")
	}

	job := &models.ExportJob{
		ID:          uuid.NewString(),
		Type:        req.Type,
		Format:      req.Format,
		Status:      models.ExportStatusPending,
		RequestedBy: requestedBy,
		CreatedAt:   s.now().UTC(),
	}
	if err := s.store.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job{ID: job.ID, Type: string(job.Type)}); err != nil {
		if markErr := s.store.MarkFailed(ctx, job.ID, "could not enqueue job"); markErr != nil {
			s.logger.Error("failed to mark unqueued export job", zap.String("job_id", job.ID), zap.Error(markErr))
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return job, nil
}

// Status returns the current state of a job, with a signed download token
// once completed.
func (s *ExportService) Status(ctx context.Context, id string) (*models.ExportJob, string, error) {
	job, err := s.store.FindByID(ctx, id)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, "", appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}

	var token string
	if job.Status == models.ExportStatusCompleted && job.FilePath != nil {
		token, _, err = s.signer.Generate(job.ID, *job.FilePath)
		if err != nil {
			return nil, "", appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to sign download token")
		}
	}
	return job, token, nil
}

// Download validates a signed token and opens the referenced file.
func (s *ExportService) Download(ctx context.Context, token string) (*DownloadResult, error) {
	jobID, relPath, _, err := s.signer.Parse(token)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrUnauthorized, "invalid or expired download token")
	}
	job, err := s.store.FindByID(ctx, jobID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusCompleted || job.FilePath == nil || *job.FilePath != relPath {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file not available")
	}

	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrNotFound, "export file not available")
	}
	contentType := "text/csv"
	if job.Format == models.ExportFormatPDF {
		contentType = "application/pdf"
	}
	return &DownloadResult{File: file, Filename: downloadName(relPath), ContentType: contentType}, nil
}

// ProcessJob renders a queued job. It runs on the worker pool.
func (s *ExportService) ProcessJob(ctx context.Context, queued jobs.Job) error {
	job, err := s.store.FindByID(ctx, queued.ID)
	if err != nil {
		return fmt.Errorf("load export job %s: %w", queued.ID, err)
	}
	if err := s.store.MarkProcessing(ctx, job.ID); err != nil {
		return fmt.Errorf("mark export job %s processing: %w", job.ID, err)
	}

	table, err := s.buildTable(ctx, job)
	if err != nil {
		s.fail(ctx, job.ID, err)
		return err
	}

	var payload []byte
	switch job.Format {
	case models.ExportFormatCSV:
		payload, err = s.csv.Render(table)
	case models.ExportFormatPDF:
		payload, err = s.pdf.Render(table)
	default:
		err = fmt.Errorf("unsupported format %s", job.Format)
	}
	if err != nil {
		s.fail(ctx, job.ID, err)
		return err
	}

	relPath, err := s.storage.Save(s.buildFilename(job), payload)
	if err != nil {
		s.fail(ctx, job.ID, err)
		return err
	}
	if err := s.store.MarkCompleted(ctx, job.ID, relPath, s.now().UTC()); err != nil {
		return fmt.Errorf("mark export job %s completed: %w", job.ID, err)
	}
	s.metrics.RecordExportJob("completed")
	s.logger.Info("export job completed",
		zap.String("job_id", job.ID),
		zap.String("type", string(job.Type)),
		zap.String("format", string(job.Format)))
	return nil
}

// Cleanup removes export files older than the TTL.
func (s *ExportService) Cleanup(ttl time.Duration) {
	deleted, err := s.storage.CleanupOlderThan(ttl)
	if err != nil {
		s.logger.Warn("export cleanup failed", zap.Error(err))
		return
	}
	if len(deleted) > 0 {
		s.logger.Info("export cleanup removed files", zap.Int("count", len(deleted)))
	}
}

// allStudents walks the student listing page by page until every row is
// collected. The repositories clamp oversized page requests, so a single
// large read would silently drop rows.
func (s *ExportService) allStudents(ctx context.Context) ([]models.Student, error) {
	var all []models.Student
	for page := 1; ; page++ {
		batch, total, err := s.students.List(ctx, models.StudentFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) == 0 || len(all) >= total {
			return all, nil
		}
	}
}

func (s *ExportService) allEnrollments(ctx context.Context) ([]models.EnrollmentDetail, error) {
	var all []models.EnrollmentDetail
	for page := 1; ; page++ {
		batch, total, err := s.enrollments.List(ctx, models.EnrollmentFilter{Page: page, PageSize: exportPageSize})
		if err != nil {
			return nil, err
		}
		all = append(all, batch...)
		if len(batch) == 0 || len(all) >= total {
			return all, nil
		}
	}
}

func (s *ExportService) buildTable(ctx context.Context, job *models.ExportJob) (export.Table, error) {
	switch job.Type {
	case models.ExportTypeStudents:
		students, err := s.allStudents(ctx)
		if err != nil {
			return export.Table{}, fmt.Errorf("load students: %w", err)
		}
		table := export.Table{
			Title:   "Students",
			Headers: []string{"Document", "First Name", "Last Name", "Gender", "Phone", "Email", "Status"},
		}
		for _, st := range students {
			table.Rows = append(table.Rows, []string{
				string(st.DocumentType) + " " + st.DocumentNumber,
				st.FirstName,
				st.LastName,
				string(st.Gender),
				st.Phone,
				st.Email,
				string(st.Status),
			})
		}
		return table, nil
	case models.ExportTypeEnrollments:
		details, err := s.allEnrollments(ctx)
		if err != nil {
			return export.Table{}, fmt.Errorf("load enrollments: %w", err)
		}
		table := export.Table{
			Title:   "Enrollments",
			Headers: []string{"Student", "Document", "Classroom", "Date", "Year", "Period", "Status"},
		}
		for _, d := range details {
			table.Rows = append(table.Rows, []string{
				d.StudentFirstName + " " + d.StudentLastName,
				d.StudentDocument,
				d.ClassroomName,
				d.EnrollmentDate.String(),
				d.EnrollmentYear,
				d.EnrollmentPeriod,
				string(d.Status),
			})
		}
		return table, nil
	default:
		return export.Table{}, fmt.Errorf("unsupported export type %s", job.Type)
	}
}

// exportPageSize stays at the repositories' page size ceiling; anything
// larger gets reset to the default and the export would come back short.
const exportPageSize = 100

func (s *ExportService) fail(ctx context.Context, jobID string, cause error) {
	s.metrics.RecordExportJob("failed")
	if err := s.store.MarkFailed(ctx, jobID, cause.Error()); err != nil {
		s.logger.Error("failed to mark export job failed", zap.String("job_id", jobID), zap.Error(err))
	}
}

func (s *ExportService) buildFilename(job *models.ExportJob) string {
	ext := "csv"
	if job.Format == models.ExportFormatPDF {
		ext = "pdf"
	}
	return fmt.Sprintf("%s/%s-%s.%s", strings.ToLower(string(job.Type)), s.now().UTC().Format("20060102-150405"), job.ID, ext)
}

func downloadName(relPath string) string {
	if idx := strings.LastIndexByte(relPath, '/'); idx >= 0 {
		return relPath[idx+1:]
	}
	return relPath
}
