package handler

import (
	"github.com/gin-gonic/gin"

	"github.com/machashop/students-ms/internal/middleware"
	"github.com/machashop/students-ms/internal/models"
	"github.com/machashop/students-ms/internal/service"
)

// Handlers groups every HTTP handler mounted on the router.
type Handlers struct {
	Auth         *AuthHandler
	Students     *StudentHandler
	Enrollments  *EnrollmentHandler
	Classrooms   *ClassroomHandler
	Institutions *InstitutionHandler
	Exports      *ExportHandler
	Metrics      *MetricsHandler
}

// Register mounts the route table under the configured API prefix. Probe
// endpoints stay at the engine root so infrastructure does not need to know
// the prefix. Mutating routes require the ADMIN or OPERATOR role; restore
// and export routes are ADMIN only.
func Register(r *gin.Engine, prefix string, h Handlers, auth *service.AuthService) {
	r.GET("/health", h.Metrics.Health)
	r.GET("/ready", h.Metrics.Ready)
	r.GET("/metrics", h.Metrics.Prometheus)

	api := r.Group(prefix)
	api.POST("/auth/login", h.Auth.Login)
	api.GET("/exports/download", h.Exports.Download)

	authed := api.Group("/", middleware.JWT(auth))
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleOperator)
	adminOnly := middleware.RequireRoles(models.RoleAdmin)

	authed.GET("/auth/me", h.Auth.Me)
	authed.POST("/auth/change-password", h.Auth.ChangePassword)

	students := authed.Group("/students")
	{
		students.GET("", h.Students.List)
		students.GET("/status/:status", h.Students.ListByStatus)
		students.GET("/gender/:gender", h.Students.ListByGender)
		students.GET("/institution/:institutionId", h.Students.ListByInstitution)
		students.GET("/:id", h.Students.Get)
		students.POST("", staff, h.Students.Create)
		students.PUT("/:id", staff, h.Students.Update)
		students.DELETE("/:id", staff, h.Students.Delete)
		students.PUT("/:id/restore", adminOnly, h.Students.Restore)
	}

	enrollments := authed.Group("/classroom-students")
	{
		enrollments.GET("", h.Enrollments.List)
		enrollments.GET("/eligible-students", h.Enrollments.EligibleStudents)
		enrollments.GET("/student/:studentId", h.Enrollments.ListByStudent)
		enrollments.GET("/classroom/:classroomId", h.Enrollments.ListByClassroom)
		enrollments.GET("/status/:status", h.Enrollments.ListByStatus)
		enrollments.GET("/year/:year", h.Enrollments.ListByYear)
		enrollments.GET("/year/:year/period/:period", h.Enrollments.ListByYearAndPeriod)
		enrollments.GET("/period/:period", h.Enrollments.ListByPeriod)
		enrollments.GET("/:id", h.Enrollments.Get)
		enrollments.POST("", staff, h.Enrollments.Create)
		enrollments.PUT("/:id", staff, h.Enrollments.Update)
		enrollments.DELETE("/:id", staff, h.Enrollments.Delete)
		enrollments.PUT("/:id/restore", adminOnly, h.Enrollments.Restore)
	}

	classrooms := authed.Group("/classrooms")
	{
		classrooms.GET("", h.Classrooms.List)
		classrooms.GET("/:id", h.Classrooms.Get)
		classrooms.GET("/:id/roster", h.Classrooms.Roster)
		classrooms.POST("", staff, h.Classrooms.Create)
		classrooms.PUT("/:id", staff, h.Classrooms.Update)
		classrooms.DELETE("/:id", staff, h.Classrooms.Delete)
		classrooms.PUT("/:id/restore", adminOnly, h.Classrooms.Restore)
	}

	institutions := authed.Group("/institutions")
	{
		institutions.GET("", h.Institutions.List)
		institutions.GET("/:id", h.Institutions.Get)
	}

	exports := authed.Group("/exports", adminOnly)
	{
		exports.POST("", h.Exports.Request)
		exports.GET("/:id", h.Exports.Status)
	}
}
