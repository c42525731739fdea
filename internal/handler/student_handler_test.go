package handler

import (
	"context"
	"database/sql"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/machashop/students-ms/internal/models"
	"github.com/machashop/students-ms/internal/service"
)

type studentRepoStub struct {
	students   map[string]models.Student
	lastFilter models.StudentFilter
}

func (m *studentRepoStub) List(ctx context.Context, filter models.StudentFilter) ([]models.Student, int, error) {
	m.lastFilter = filter
	var out []models.Student
	for _, s := range m.students {
		if filter.Status != "" && s.Status != filter.Status {
			continue
		}
		out = append(out, s)
	}
	return out, len(out), nil
}

func (m *studentRepoStub) FindByID(ctx context.Context, id string) (*models.Student, error) {
	if s, ok := m.students[id]; ok {
		return &s, nil
	}
	return nil, sql.ErrNoRows
}

func (m *studentRepoStub) ExistsByDocument(ctx context.Context, docType models.DocumentType, number, excludeID string) (bool, error) {
	for id, s := range m.students {
		if id != excludeID && s.DocumentType == docType && s.DocumentNumber == number {
			return true, nil
		}
	}
	return false, nil
}

func (m *studentRepoStub) Create(ctx context.Context, student *models.Student) error {
	if student.ID == "" {
		student.ID = "st-new"
	}
	m.students[student.ID] = *student
	return nil
}

func (m *studentRepoStub) Update(ctx context.Context, student *models.Student) error {
	m.students[student.ID] = *student
	return nil
}

func (m *studentRepoStub) SetStatus(ctx context.Context, id string, status models.Status) error {
	s := m.students[id]
	s.Status = status
	m.students[id] = s
	return nil
}

func newStudentRouter(repo *studentRepoStub) *gin.Engine {
	gin.SetMode(gin.TestMode)
	h := NewStudentHandler(service.NewStudentService(repo, nil, nil))

	r := gin.New()
	r.GET("/students/status/:status", h.ListByStatus)
	r.POST("/students", h.Create)
	return r
}

func TestStudentHandlerListByStatusInvalid(t *testing.T) {
	repo := &studentRepoStub{students: map[string]models.Student{}}
	r := newStudentRouter(repo)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/students/status/X", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}

func TestStudentHandlerListByStatusLowercaseAccepted(t *testing.T) {
	repo := &studentRepoStub{students: map[string]models.Student{
		"st-1": {ID: "st-1", FirstName: "Ana", LastName: "Pérez", Status: models.StatusActive},
		"st-2": {ID: "st-2", FirstName: "Luis", LastName: "Gómez", Status: models.StatusInactive},
	}}
	r := newStudentRouter(repo)

	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodGet, "/students/status/a", nil)
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusOK, w.Code)
	require.Equal(t, models.StatusActive, repo.lastFilter.Status)

	var envelope struct {
		Data []models.Student `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Len(t, envelope.Data, 1)
	require.Equal(t, "st-1", envelope.Data[0].ID)
}

func TestStudentHandlerCreate(t *testing.T) {
	repo := &studentRepoStub{students: map[string]models.Student{}}
	r := newStudentRouter(repo)

	body := `{
		"institutionId": "inst-1",
		"firstName": "Ana",
		"lastName": "Pérez",
		"documentType": "DNI",
		"documentNumber": "12345678",
		"gender": "F",
		"birthDate": "2010-05-12",
		"address": "Av. Los Olivos 123",
		"phone": "912345678",
		"email": "ana.perez@example.com"
	}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/students", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusCreated, w.Code)
	var envelope struct {
		Data models.Student `json:"data"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &envelope))
	require.Equal(t, "Ana_Pérez_12345678", envelope.Data.NameQR)
	require.Equal(t, models.StatusActive, envelope.Data.Status)
}

func TestStudentHandlerCreateInvalidDocument(t *testing.T) {
	repo := &studentRepoStub{students: map[string]models.Student{}}
	r := newStudentRouter(repo)

	body := `{
		"institutionId": "inst-1",
		"firstName": "Ana",
		"lastName": "Pérez",
		"documentType": "DNI",
		"documentNumber": "1234",
		"gender": "F",
		"birthDate": "2010-05-12",
		"address": "Av. Los Olivos 123",
		"phone": "912345678",
		"email": "ana.perez@example.com"
	}`
	w := httptest.NewRecorder()
	req, _ := http.NewRequest(http.MethodPost, "/students", strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	r.ServeHTTP(w, req)

	require.Equal(t, http.StatusBadRequest, w.Code)
}
