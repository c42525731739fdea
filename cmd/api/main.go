package main

import (
	"context"
	"fmt"
	"log"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/machashop/students-ms/api/swagger"
	"github.com/machashop/students-ms/internal/client"
	"github.com/machashop/students-ms/internal/handler"
	"github.com/machashop/students-ms/internal/middleware"
	"github.com/machashop/students-ms/internal/repository"
	"github.com/machashop/students-ms/internal/service"
	"github.com/machashop/students-ms/pkg/cache"
	"github.com/machashop/students-ms/pkg/config"
	"github.com/machashop/students-ms/pkg/database"
	"github.com/machashop/students-ms/pkg/jobs"
	"github.com/machashop/students-ms/pkg/logger"
	corsmiddleware "github.com/machashop/students-ms/pkg/middleware/cors"
	reqidmiddleware "github.com/machashop/students-ms/pkg/middleware/requestid"
	"github.com/machashop/students-ms/pkg/storage"
	"github.com/machashop/students-ms/pkg/validation"
)

// @title Students Management API
// @version 1.0.0
// @description REST API for students, classrooms and enrollments
// @BasePath /
// @schemes http
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization

func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	logr, err := logger.New(cfg)
	if err != nil {
		log.Fatalf("failed to init logger: %v", err)
	}
	defer logr.Sync() //nolint:errcheck

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close() //nolint:errcheck

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, continuing without cache", "error", err)
		redisClient = nil
	}

	validate := validation.New()

	studentRepo := repository.NewStudentRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	classroomRepo := repository.NewClassroomRepository(db)
	userRepo := repository.NewUserRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	defer cacheRepo.Close() //nolint:errcheck

	institutionClient := client.NewInstitutionClient(cfg.Institutions, logr)

	metricsSvc := service.NewMetricsService()
	authSvc := service.NewAuthService(userRepo, cfg.JWT, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, studentRepo, classroomRepo, validate, logr)
	enrollmentSvc.BindMetrics(metricsSvc)
	classroomSvc := service.NewClassroomService(classroomRepo, enrollmentRepo, validate, logr)
	institutionSvc := service.NewInstitutionService(institutionClient, cacheRepo, cfg.Institutions.CacheTTL, logr)
	institutionSvc.BindMetrics(metricsSvc)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	var exportSvc *service.ExportService
	if cfg.Exports.Enabled {
		fileStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("failed to init export storage", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)
		exportSvc = service.NewExportService(exportJobRepo, studentRepo, enrollmentRepo, fileStore, signer, logr)
		exportSvc.BindMetrics(metricsSvc)

		queue := jobs.NewQueue("exports", exportSvc.ProcessJob, jobs.QueueConfig{
			Workers:    cfg.Exports.WorkerConcurrency,
			MaxRetries: cfg.Exports.WorkerRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()
		exportSvc.BindQueue(queue)

		go func() {
			ticker := time.NewTicker(cfg.Exports.CleanupInterval)
			defer ticker.Stop()
			for {
				select {
				case <-ctx.Done():
					return
				case <-ticker.C:
					exportSvc.Cleanup(cfg.Exports.SignedURLTTL)
				}
			}
		}()
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	handler.Register(r, cfg.APIPrefix, handler.Handlers{
		Auth:         handler.NewAuthHandler(authSvc),
		Students:     handler.NewStudentHandler(studentSvc),
		Enrollments:  handler.NewEnrollmentHandler(enrollmentSvc),
		Classrooms:   handler.NewClassroomHandler(classroomSvc),
		Institutions: handler.NewInstitutionHandler(institutionSvc),
		Exports:      handler.NewExportHandler(exportSvc),
		Metrics:      handler.NewMetricsHandler(metricsSvc, db),
	}, authSvc)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
