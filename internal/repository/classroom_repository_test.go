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

var classroomCols = []string{"id", "name", "level", "section", "capacity", "status", "created_at", "updated_at"}

func TestClassroomRepositoryListFilters(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	now := time.Now()
	rows := sqlmock.NewRows(classroomCols).
		AddRow("cl-1", "3A", "PRIMARIA", "A", 30, "A", now, now)

	mock.ExpectQuery("SELECT id, name, level, section, capacity, status, created_at, updated_at FROM classrooms WHERE 1=1 AND status = \\$1 AND level = \\$2").
		WithArgs(models.StatusActive, "PRIMARIA").
		WillReturnRows(rows)
	mock.ExpectQuery("SELECT COUNT\\(\\*\\) FROM classrooms WHERE 1=1 AND status = \\$1 AND level = \\$2").
		WithArgs(models.StatusActive, "PRIMARIA").
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(1))

	classrooms, total, err := repo.List(context.Background(), models.ClassroomFilter{
		Status: models.StatusActive,
		Level:  "PRIMARIA",
	})
	require.NoError(t, err)
	require.Equal(t, 1, total)
	require.Len(t, classrooms, 1)
	require.Equal(t, "3A", classrooms[0].Name)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositoryCreateAssignsID(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO classrooms")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	classroom := &models.Classroom{
		Name:     "5B",
		Level:    "SECUNDARIA",
		Section:  "B",
		Capacity: 25,
		Status:   models.StatusActive,
	}
	require.NoError(t, repo.Create(context.Background(), classroom))
	require.NotEmpty(t, classroom.ID)
	require.False(t, classroom.UpdatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestClassroomRepositorySetStatus(t *testing.T) {
	db, mock, cleanup := newEnrollmentRepoMock(t)
	defer cleanup()
	repo := NewClassroomRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("UPDATE classrooms SET status = $2, updated_at = $3 WHERE id = $1")).
		WithArgs("cl-1", models.StatusInactive, sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 1))

	require.NoError(t, repo.SetStatus(context.Background(), "cl-1", models.StatusInactive))
	require.NoError(t, mock.ExpectationsWereMet())
}
