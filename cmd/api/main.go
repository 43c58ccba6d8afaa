package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/field-placement-api/api/swagger"
	"github.com/noah-isme/field-placement-api/internal/handler"
	"github.com/noah-isme/field-placement-api/internal/middleware"
	"github.com/noah-isme/field-placement-api/internal/models"
	"github.com/noah-isme/field-placement-api/internal/repository"
	"github.com/noah-isme/field-placement-api/internal/service"
	"github.com/noah-isme/field-placement-api/pkg/cache"
	"github.com/noah-isme/field-placement-api/pkg/config"
	"github.com/noah-isme/field-placement-api/pkg/database"
	"github.com/noah-isme/field-placement-api/pkg/export"
	"github.com/noah-isme/field-placement-api/pkg/jobs"
	"github.com/noah-isme/field-placement-api/pkg/logger"
	"github.com/noah-isme/field-placement-api/pkg/mailer"
	corsmiddleware "github.com/noah-isme/field-placement-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/field-placement-api/pkg/middleware/requestid"
	"github.com/noah-isme/field-placement-api/pkg/storage"
)

// @title Field Placement API
// @version 1.0.0
// @description School and subject capacity allocation for student field placements
// @BasePath /api/v1
// @schemes http

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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to redis", "error", err)
	}
	defer redisClient.Close()

	validate := validator.New()

	// Repositories.
	regionRepo := repository.NewRegionRepository(db)
	districtRepo := repository.NewDistrictRepository(db)
	schoolRepo := repository.NewSchoolRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	capacityRepo := repository.NewSubjectCapacityRepository(db)
	yearRepo := repository.NewAcademicYearRepository(db)
	pinRepo := repository.NewPinRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	applicationRepo := repository.NewApplicationRepository(db)
	assessorRepo := repository.NewAssessorRepository(db)
	assessmentRepo := repository.NewAssessmentRepository(db)
	logbookRepo := repository.NewLogbookRepository(db)
	selectionRepo := repository.NewSelectionRepository(redisClient, cfg.Selection.PendingTTL)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)
	auditRepo := repository.NewAuditRepository(db)

	// Services.
	metricsSvc := service.NewMetricsService()
	yearSvc := service.NewAcademicYearService(yearRepo, validate, logr)
	availabilitySvc := service.NewAvailabilityService(regionRepo, districtRepo, schoolRepo, pinRepo,
		cacheRepo, cfg.Selection.AvailabilityCacheTTL, cfg.Selection.FailOpenNoActiveYear, logr)
	selectionSvc := service.NewSelectionService(selectionRepo, schoolRepo, studentRepo, availabilitySvc, metricsSvc, logr)
	applicationSvc := service.NewApplicationService(applicationRepo, studentRepo, subjectRepo, capacityRepo, metricsSvc, validate, logr)
	pinningSvc := service.NewPinningService(pinRepo, regionRepo, schoolRepo, yearRepo, availabilitySvc, validate, logr)
	geographySvc := service.NewGeographyService(regionRepo, districtRepo, schoolRepo, validate, logr)
	subjectSvc := service.NewSubjectService(subjectRepo, capacityRepo, schoolRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, validate, logr)
	assessorSvc := service.NewAssessorService(assessorRepo, validate, logr)
	logbookSvc := service.NewLogbookService(logbookRepo, studentRepo, schoolRepo, cfg.Logbook.LocationRadiusMeters, validate, logr)
	letterStore, err := storage.NewLocalStore(cfg.Letters.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init letter storage", "error", err)
	}
	letterSecret := cfg.Letters.SigningSecret
	if letterSecret == "" {
		letterSecret = cfg.JWT.Secret
	}
	letterSigner := storage.NewDownloadSigner(letterSecret, cfg.Letters.DownloadTTL)
	letterSvc := service.NewLetterService(applicationRepo, studentRepo, schoolRepo,
		export.NewLetterRenderer(), letterStore, letterSigner, cfg.Letters.GroupQuota, logr)

	var mail mailer.Mailer
	if cfg.Mail.SendgridAPIKey != "" {
		mail = mailer.NewSendgrid(cfg.Mail, logr)
	} else {
		mail = mailer.NewNop(logr)
	}
	assignmentSvc := service.NewAssignmentService(assessmentRepo, assessorRepo, schoolRepo, studentRepo,
		mail, metricsSvc, cfg.Assignments.NotifyAssessors, cfg.Mail.LoginURL, validate, logr)

	assignmentQueue := jobs.NewQueue("assessor-assignments", assignmentSvc.JobHandler(), jobs.Options{
		Workers:     cfg.Assignments.WorkerConcurrency,
		MaxAttempts: cfg.Assignments.WorkerMaxAttempts,
		Logger:      logr,
	})
	assignmentQueue.Start(context.Background())
	defer assignmentQueue.Stop()

	// Seats held by pending selections whose TTL lapsed are reclaimed here;
	// nothing else releases them once the Redis key is gone.
	sweepCtx, stopSweep := context.WithCancel(context.Background())
	defer stopSweep()
	go func() {
		ticker := time.NewTicker(cfg.Selection.SweepInterval)
		defer ticker.Stop()
		for {
			select {
			case <-sweepCtx.Done():
				return
			case <-ticker.C:
				if _, err := selectionSvc.ReleaseExpired(sweepCtx); err != nil {
					logr.Sugar().Warnw("pending selection sweep failed", "error", err)
				}
			}
		}
	}()

	// Handlers.
	geographyHandler := handler.NewGeographyHandler(geographySvc, availabilitySvc, yearSvc)
	selectionHandler := handler.NewSelectionHandler(selectionSvc, studentSvc, yearSvc)
	applicationHandler := handler.NewApplicationHandler(applicationSvc, studentSvc)
	pinningHandler := handler.NewPinningHandler(pinningSvc, yearSvc)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc, assessorSvc, assignmentQueue)
	assessorHandler := handler.NewAssessorHandler(assessorSvc)
	subjectHandler := handler.NewSubjectHandler(subjectSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	yearHandler := handler.NewAcademicYearHandler(yearSvc)
	logbookHandler := handler.NewLogbookHandler(logbookSvc, studentSvc)
	letterHandler := handler.NewLetterHandler(letterSvc, studentSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "down", "reason": "database"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}
	// The signed token is the credential here; no session required.
	r.GET("/letters/files/:token", letterHandler.Download)

	auth := middleware.JWT(cfg.JWT.Secret)
	admin := middleware.RequireRoles(models.RoleAdmin)
	student := middleware.RequireRoles(models.RoleStudent)
	staff := middleware.RequireRoles(models.RoleAdmin, models.RoleAssessor)

	api := r.Group(cfg.APIPrefix)
	api.Use(auth)
	{
		api.GET("/regions", geographyHandler.ListRegions)
		api.GET("/regions/:id/districts", geographyHandler.ListDistricts)
		api.GET("/districts/:id/schools", geographyHandler.ListSchools)
		api.GET("/schools/:id/availability", geographyHandler.SchoolAvailability)
		api.GET("/schools/:id/subjects", subjectHandler.ListSchoolSubjects)
		api.GET("/subjects", subjectHandler.List)

		api.POST("/schools", admin, geographyHandler.CreateSchool)
		api.PUT("/schools/:id", admin, geographyHandler.UpdateSchool)
		api.POST("/schools/:id/subjects", admin, subjectHandler.OpenSchoolSubject)
		api.POST("/subjects", admin, subjectHandler.Create)

		api.POST("/selection", student, selectionHandler.Select)
		api.DELETE("/selection", student, selectionHandler.Cancel)
		api.POST("/selection/confirm", student, selectionHandler.Confirm)
		api.GET("/selection", student, selectionHandler.Current)

		api.POST("/applications", student, applicationHandler.Apply)
		api.GET("/applications", applicationHandler.List)
		api.POST("/applications/:id/approve", admin, middleware.Audit(auditRepo, "approve", "application"), applicationHandler.Approve)
		api.POST("/applications/:id/reject", admin, middleware.Audit(auditRepo, "reject", "application"), applicationHandler.Reject)

		api.POST("/pinning/regions", admin, middleware.Audit(auditRepo, "submit_allowed_regions", "pinning"), pinningHandler.SubmitAllowedRegions)
		api.POST("/schools/:id/pin", admin, middleware.Audit(auditRepo, "pin", "school"), pinningHandler.PinSchool)
		api.DELETE("/schools/:id/pin", admin, middleware.Audit(auditRepo, "unpin", "school"), pinningHandler.UnpinSchool)

		api.GET("/assessors", admin, assessorHandler.List)
		api.POST("/assessors", admin, assessorHandler.Create)
		api.GET("/assessors/:id/students", staff, assignmentHandler.ListStudents)
		api.POST("/assignments", admin, middleware.Audit(auditRepo, "assign", "assessor_assignment"), assignmentHandler.Assign)
		api.POST("/assignments/bulk", admin, middleware.Audit(auditRepo, "bulk_assign", "assessor_assignment"), assignmentHandler.BulkAssign)
		api.GET("/assignments", staff, assignmentHandler.List)
		api.POST("/assignments/:id/complete", staff, assignmentHandler.Complete)
		api.PUT("/student-assessments/:id", staff, assignmentHandler.UpdateStudentAssessment)

		api.GET("/academic-years", admin, yearHandler.List)
		api.POST("/academic-years", admin, yearHandler.Create)
		api.POST("/academic-years/:id/activate", admin, middleware.Audit(auditRepo, "activate", "academic_year"), yearHandler.Activate)

		api.POST("/logbook", student, logbookHandler.Submit)
		api.GET("/logbook", student, logbookHandler.History)

		api.GET("/letters/individual", student, letterHandler.Individual)
		api.GET("/letters/group/:schoolId", admin, letterHandler.Group)

		api.GET("/students", admin, studentHandler.List)
		api.POST("/students/:id/approve", admin, studentHandler.Approve)
		api.GET("/students/me", student, studentHandler.Me)
		api.PUT("/students/me", student, studentHandler.UpdateMe)
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
