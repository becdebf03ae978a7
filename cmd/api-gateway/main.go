package main

import (
	"context"
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/gin-gonic/gin/binding"
	"github.com/go-playground/validator/v10"
	"github.com/redis/go-redis/v9"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/academia-hub/agenda-api/api/swagger"
	"github.com/academia-hub/agenda-api/internal/handler"
	"github.com/academia-hub/agenda-api/internal/middleware"
	"github.com/academia-hub/agenda-api/internal/models"
	"github.com/academia-hub/agenda-api/internal/repository"
	"github.com/academia-hub/agenda-api/internal/service"
	"github.com/academia-hub/agenda-api/pkg/cache"
	"github.com/academia-hub/agenda-api/pkg/config"
	"github.com/academia-hub/agenda-api/pkg/database"
	"github.com/academia-hub/agenda-api/pkg/logger"
	corsmiddleware "github.com/academia-hub/agenda-api/pkg/middleware/cors"
	reqidmiddleware "github.com/academia-hub/agenda-api/pkg/middleware/requestid"
	"github.com/academia-hub/agenda-api/pkg/storage"
)

// @title Academia Agenda API
// @version 1.0.0
// @description Availability and slot-conflict engine for academy class scheduling
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
		logr.Sugar().Fatalw("postgres connection failed", "error", err)
	}
	defer db.Close()

	var redisClient *redis.Client
	if cfg.Availability.CacheEnabled {
		redisClient, err = cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, availability cache disabled", "error", err)
		}
	}
	if redisClient != nil {
		defer redisClient.Close()
	}

	scheduleRepo := repository.NewScheduleRepository(db)
	classRepo := repository.NewClassRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Availability.CacheTTL, logr,
		cfg.Availability.CacheEnabled && redisClient != nil)
	availabilitySvc := service.NewAvailabilityService(scheduleRepo, classRepo, roomRepo, teacherRepo,
		cacheSvc, metricsSvc, logr, cfg.Availability)
	scheduleSvc := service.NewWeeklyScheduleService(scheduleRepo, teacherRepo, availabilitySvc, logr)
	classSvc := service.NewClassService(classRepo, scheduleRepo, roomRepo, enrollmentRepo, availabilitySvc, metricsSvc, logr)
	roomSvc := service.NewRoomService(roomRepo, availabilitySvc, logr)

	var reportSvc *service.ReportService
	if cfg.Reports.Enabled {
		store, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
		if err != nil {
			logr.Sugar().Fatalw("report storage init failed", "error", err)
		}
		signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
		reportSvc = service.NewReportService(availabilitySvc, teacherRepo, store, signer, logr, cfg.Reports)
		reportSvc.Start(context.Background())
		defer reportSvc.Stop()
	}

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	if v, ok := binding.Validator.Engine().(*validator.Validate); ok {
		_ = v.RegisterValidation("weekday", func(fl validator.FieldLevel) bool {
			_, err := models.ParseWeekday(fl.Field().String())
			return err == nil
		})
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(corsmiddleware.Config{AllowedOrigins: cfg.CORS.AllowedOrigins}))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	availabilityHandler := handler.NewAvailabilityHandler(availabilitySvc)
	classHandler := handler.NewClassHandler(classSvc)
	roomHandler := handler.NewRoomHandler(roomSvc)

	guard := middleware.JWT(cfg.Auth)

	api := r.Group(cfg.APIPrefix)
	{
		api.GET("/teachers/:teacherId/availability", availabilityHandler.Evaluate)

		api.GET("/schedules", scheduleHandler.GetActive)
		api.POST("/schedules", guard, scheduleHandler.Create)
		api.PATCH("/schedules/:id/state", guard, scheduleHandler.UpdateState)

		api.GET("/classes", classHandler.ListByTeacher)
		api.GET("/classes/:id", classHandler.Get)
		api.POST("/classes", guard, classHandler.Create)
		api.PATCH("/classes/:id/state", guard, classHandler.Transition)
		api.PUT("/classes/:id", guard, classHandler.Update)
		api.DELETE("/classes/:id", guard, classHandler.Delete)

		api.GET("/rooms", roomHandler.List)
		api.GET("/rooms/:id", roomHandler.Get)
		api.POST("/rooms", guard, roomHandler.Create)
		api.PATCH("/rooms/:id/status", guard, roomHandler.UpdateStatus)

		if reportSvc != nil {
			reportHandler := handler.NewReportHandler(reportSvc)
			api.POST("/reports", guard, reportHandler.Create)
			api.GET("/reports/:id", reportHandler.Get)
			api.GET("/reports/download/:token", reportHandler.Download)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
