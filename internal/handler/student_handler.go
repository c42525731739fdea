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

// StudentHandler exposes student endpoints.
type StudentHandler struct {
	students *service.StudentService
}

// NewStudentHandler constructs StudentHandler.
func NewStudentHandler(students *service.StudentService) *StudentHandler {
	return &StudentHandler{students: students}
}

// List godoc
// @Summary List students
// @Tags Students
// @Produce json
// @Param search query string false "Search by name or document"
// @Param status query string false "Filter by status (A or I)"
// @Param gender query string false "Filter by gender (M or F)"
// @Param documentType query string false "Filter by document type (DNI or CE)"
// @Param institutionId query string false "Filter by institution"
// @Param page query int false "Page"
// @Param limit query int false "Page size"
// @Success 200 {object} response.Envelope
// @Router /students [get]
func (h *StudentHandler) List(c *gin.Context) {
	filter := h.baseFilter(c)
	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// ListByStatus godoc
// @Summary List students with a given status
// @Tags Students
// @Produce json
// @Param status path string true "Status (A or I)"
// @Success 200 {object} response.Envelope
// @Router /students/status/{status} [get]
func (h *StudentHandler) ListByStatus(c *gin.Context) {
	status := statusParam(c.Param("status"))
	if status == "" {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "status must be A or I"))
		return
	}
	filter := h.baseFilter(c)
	filter.Status = status
	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// ListByGender godoc
// @Summary List students with a given gender
// @Tags Students
// @Produce json
// @Param gender path string true "Gender (M or F)"
// @Success 200 {object} response.Envelope
// @Router /students/gender/{gender} [get]
func (h *StudentHandler) ListByGender(c *gin.Context) {
	gender := models.Gender(strings.ToUpper(c.Param("gender")))
	if gender != models.GenderMale && gender != models.GenderFemale {
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "gender must be M or F"))
		return
	}
	filter := h.baseFilter(c)
	filter.Gender = gender
	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// ListByInstitution godoc
// @Summary List students of an institution
// @Tags Students
// @Produce json
// @Param institutionId path string true "Institution ID"
// @Success 200 {object} response.Envelope
// @Router /students/institution/{institutionId} [get]
func (h *StudentHandler) ListByInstitution(c *gin.Context) {
	filter := h.baseFilter(c)
	filter.InstitutionID = c.Param("institutionId")
	students, pagination, err := h.students.List(c.Request.Context(), filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, students, pagination)
}

// Get godoc
// @Summary Get student detail
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [get]
func (h *StudentHandler) Get(c *gin.Context) {
	student, err := h.students.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Create godoc
// @Summary Register student
// @Tags Students
// @Accept json
// @Produce json
// @Param payload body service.CreateStudentRequest true "Student payload"
// @Success 201 {object} response.Envelope
// @Router /students [post]
func (h *StudentHandler) Create(c *gin.Context) {
	var req service.CreateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Create(c.Request.Context(), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, student)
}

// Update godoc
// @Summary Update student
// @Tags Students
// @Accept json
// @Produce json
// @Param id path string true "Student ID"
// @Param payload body service.UpdateStudentRequest true "Student payload"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [put]
func (h *StudentHandler) Update(c *gin.Context) {
	var req service.UpdateStudentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	student, err := h.students.Update(c.Request.Context(), c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Delete godoc
// @Summary Deactivate student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id} [delete]
func (h *StudentHandler) Delete(c *gin.Context) {
	student, err := h.students.Deactivate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

// Restore godoc
// @Summary Restore a deactivated student
// @Tags Students
// @Produce json
// @Param id path string true "Student ID"
// @Success 200 {object} response.Envelope
// @Router /students/{id}/restore [put]
func (h *StudentHandler) Restore(c *gin.Context) {
	student, err := h.students.Restore(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, student, nil)
}

func (h *StudentHandler) baseFilter(c *gin.Context) models.StudentFilter {
	var filter models.StudentFilter
	filter.Search = strings.TrimSpace(c.Query("search"))
	filter.InstitutionID = c.Query("institutionId")
	filter.Status = statusParam(c.Query("status"))
	if g := models.Gender(strings.ToUpper(c.Query("gender"))); g == models.GenderMale || g == models.GenderFemale {
		filter.Gender = g
	}
	if dt := models.DocumentType(strings.ToUpper(c.Query("documentType"))); dt == models.DocumentTypeDNI || dt == models.DocumentTypeCE {
		filter.DocumentType = dt
	}
	filter.Page, filter.PageSize = pageParams(c)
	filter.SortBy = c.Query("sort")
	filter.SortOrder = c.Query("order")
	return filter
}
