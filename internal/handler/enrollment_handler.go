package handler

import (
	"net/http"
	"strings"

	"github.com/gin-gonic/gin"

	"github.com/machashop/students-ms/internal/models"
	"github.com/machashop/students-ms/internal/service"
	appErrors "github.com/machashop/students-ms/pkg/errors"
	"github.com/machashop/students-ms/pkg/response"
)

// EnrollmentHandler exposes classroom-student enrollment endpoints.
type EnrollmentHandler struct {
	enrollments *service.EnrollmentService
}

// NewEnrollmentHandler constructs EnrollmentHandler.
func NewEnrollmentHandler(enrollments *service.EnrollmentService) *EnrollmentHandler {
	return &EnrollmentHandler{enrollments: enrollments}
}

// List godoc
// @Summary List enrollments
// @Tags Enrollments
// @Produce json
// @Param search query string false "Search by student name or document"
// @Param status query string false "Filter by status (A or I)"
// @Param year query string false "Filter by enrollment year"
// @Param period query string false "Filter by enrollment period"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /classroom-students [get]
func (h *EnrollmentHandler) List(c *gin.Context) {
	h.respondList(c, h.baseFilter(c))
}

// ListByStudent godoc
// @Summary List enrollments of a student
// @Tags Enrollments
// @Produce json
// @Param studentId path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /classroom-students/student/{studentId} [get]
func (h *EnrollmentHandler) ListByStudent(c *gin.Context) {
	filter := h.baseFilter(c)
	filter.StudentID = c.Param("studentId")
	h.respondList(c, filter)
}

// ListByClassroom godoc
// @Summary List enrollments of a classroom
// @Tags Enrollments
// @Produce json
// @Param classroomId path string true "Classroom ID"
// @Success 200 {object} response.Envelope
// @Router /classroom-students/classroom/{classroomId} [get]
func (h *EnrollmentHandler) ListByClassroom(c *gin.Context) {
	filter := h.baseFilter(c)
	filter.ClassroomID = c.Param("classroomId")
	h.respondList(c, filter)
}

// ListByStatus godoc
// @Summary List enrollments with a given status
// @Tags Enrollments
// @Produce json
// @Param status path string true "Status (A or I)"
// @Success 200 {object} response.Envelope
// @Router /classroom-students/status/{status} [get]
func (h *EnrollmentHandler) ListByStatus(c *gin.Context) {
	status := statusParam(c.Param("status"))
	if status == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be A or I"))
		return
	}
	filter := h.baseFilter(c)
	filter.Status = status
	h.respondList(c, filter)
}

// ListByYear godoc
// @Summary List enrollments of a year
// @Tags Enrollments
// @Produce json
// @Param year path string true "Enrollment year (YYYY)"
// @Success 200 {object} response.Envelope
// @Router /classroom-students/year/{year} [get]
func (h *EnrollmentHandler) ListByYear(c *gin.Context) {
	filter := h.baseFilter(c)
	filter.Year = c.Param("year")
	h.respondList(c, filter)
}

// ListByPeriod godoc
// @Summary List enrollments of a period
// @Tags Enrollments
// @Produce json
// @Param period path string true "Enrollment period"
// @Success 200 {object} response.Envelope
// @Router /classroom-students/period/{period} [get]
func (h *EnrollmentHandler) ListByPeriod(c *gin.Context) {
	filter := h.baseFilter(c)
	filter.Period = c.Param("period")
	h.respondList(c, filter)
}

// ListByYearAndPeriod godoc
// @Summary List enrollments of a year and period
// @Tags Enrollments
// @Produce json
// @Param year path string true "Enrollment year (YYYY)"
// @Param period path string true "Enrollment period"
// @Success 200 {object} response.Envelope
// @Router /classroom-students/year/{year}/period/{period} [get]
func (h *EnrollmentHandler) ListByYearAndPeriod(c *gin.Context) {
	filter := h.baseFilter(c)
	filter.Year = c.Param("year")
	filter.Period = c.Param("period")
	h.respondList(c, filter)
}

// EligibleStudents godoc
// @Summary List active students without an active enrollment
// @Tags Enrollments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /classroom-students/eligible-students [get]
func (h *EnrollmentHandler) EligibleStudents(c *gin.Context) {
	students, err := h.enrollments.EligibleStudents(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, nil)
}

// Get godoc
// @Summary Get enrollment detail
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /classroom-students/{id} [get]
func (h *EnrollmentHandler) Get(c *gin.Context) {
	detail, err := h.enrollments.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Create godoc
// @Summary Enroll a student into a classroom
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param payload body service.CreateEnrollmentRequest true "Enrollment payload"
// @Success 201 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Student already has an active enrollment"
// @Router /classroom-students [post]
func (h *EnrollmentHandler) Create(c *gin.Context) {
	var req service.CreateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.enrollments.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, detail)
}

// Update godoc
// @Summary Update enrollment
// @Tags Enrollments
// @Accept json
// @Produce json
// @Param id path string true "Enrollment ID"
// @Param payload body service.UpdateEnrollmentRequest true "Enrollment payload"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Student already has an active enrollment"
// @Router /classroom-students/{id} [put]
func (h *EnrollmentHandler) Update(c *gin.Context) {
	var req service.UpdateEnrollmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	detail, err := h.enrollments.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Delete godoc
// @Summary Deactivate enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Router /classroom-students/{id} [delete]
func (h *EnrollmentHandler) Delete(c *gin.Context) {
	detail, err := h.enrollments.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

// Restore godoc
// @Summary Restore a deactivated enrollment
// @Tags Enrollments
// @Produce json
// @Param id path string true "Enrollment ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope "Student already has an active enrollment"
// @Router /classroom-students/{id}/restore [put]
func (h *EnrollmentHandler) Restore(c *gin.Context) {
	detail, err := h.enrollments.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, detail, nil)
}

func (h *EnrollmentHandler) respondList(c *gin.Context, filter models.EnrollmentFilter) {
	details, pagination, err := h.enrollments.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, details, pagination)
}

func (h *EnrollmentHandler) baseFilter(c *gin.Context) models.EnrollmentFilter {
	var filter models.EnrollmentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.Status = statusParam(c.Query("status"))
	filter.Year = c.Query("year")
	filter.Period = c.Query("period")
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}
