package main

import (
	"context"
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/school-timetable-api/api/swagger"
	"github.com/noah-isme/school-timetable-api/internal/handler"
	"github.com/noah-isme/school-timetable-api/internal/middleware"
	"github.com/noah-isme/school-timetable-api/internal/repository"
	"github.com/noah-isme/school-timetable-api/internal/service"
	"github.com/noah-isme/school-timetable-api/pkg/cache"
	"github.com/noah-isme/school-timetable-api/pkg/config"
	"github.com/noah-isme/school-timetable-api/pkg/database"
	"github.com/noah-isme/school-timetable-api/pkg/jobs"
	"github.com/noah-isme/school-timetable-api/pkg/lock"
	"github.com/noah-isme/school-timetable-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-timetable-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-timetable-api/pkg/middleware/requestid"
)

// @title School Timetable API
// @version 1.0.0
// @description Timetable generation and lesson scheduling service
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
		// The API degrades to uncached reads when Redis is unreachable.
		logr.Sugar().Warnw("redis unavailable, timetable cache disabled", "error", err)
		redisClient = nil
	}

	lessonRepo := repository.NewLessonRepository(db)
	requirementRepo := repository.NewRequirementRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	roomRepo := repository.NewRoomRepository(db)
	timeSlotRepo := repository.NewTimeSlotRepository(db)
	termRepo := repository.NewTermRepository(db)
	classRepo := repository.NewClassSectionRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	termLocks := lock.NewKeyedMutex()
	metricsService := service.NewMetricsService()

	timetableService := service.NewTimetableService(lessonRepo, cacheRepo, cfg.Timetable, logr)

	warmupQueue := jobs.NewQueue("timetable-cache-warmup", func(ctx context.Context, job jobs.Job) error {
		payload, err := decodeWarmupPayload(job.Payload)
		if err != nil {
			return err
		}
		sections, err := classRepo.List(ctx, payload.SchoolID)
		if err != nil {
			return fmt.Errorf("list class sections for warm-up: %w", err)
		}
		ids := make([]string, 0, len(sections))
		for _, section := range sections {
			ids = append(ids, section.ID)
		}
		timetableService.WarmCache(ctx, payload.SchoolID, payload.TermID, ids)
		return nil
	}, jobs.QueueConfig{Workers: 2, Logger: logr})

	lessonService := service.NewLessonService(lessonRepo, timeSlotRepo, teacherRepo, roomRepo, cacheRepo, termLocks, nil, logr)
	generatorService := service.NewTimetableGeneratorService(service.TimetableGeneratorDeps{
		Terms:        termRepo,
		Requirements: requirementRepo,
		Teachers:     teacherRepo,
		Rooms:        roomRepo,
		Slots:        timeSlotRepo,
		Lessons:      lessonRepo,
		Cache:        cacheRepo,
		Locks:        termLocks,
		Metrics:      metricsService,
		Warmups:      warmupQueue,
		Defaults:     cfg.Scheduler,
		Logger:       logr,
	})
	substitutionService := service.NewSubstitutionService(lessonRepo, timeSlotRepo, teacherRepo, roomRepo, nil, logr)

	lessonHandler := handler.NewLessonHandler(lessonService)
	generatorHandler := handler.NewGeneratorHandler(generatorService)
	timetableHandler := handler.NewTimetableHandler(timetableService)
	substitutionHandler := handler.NewSubstitutionHandler(substitutionService)
	metricsHandler := handler.NewMetricsHandler(metricsService, db, redisClient)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsService))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	prefix := cfg.APIPrefix
	if prefix == "" {
		prefix = "/api/v1"
	}
	api := r.Group(prefix)
	{
		api.POST("/timetable/generate", generatorHandler.Generate)
		api.GET("/timetable/classes/:id", timetableHandler.ByClass)
		api.GET("/timetable/classes/:id/export", timetableHandler.ExportClass)
		api.GET("/timetable/teachers/:id", timetableHandler.ByTeacher)
		api.GET("/timetable/rooms/:id", timetableHandler.ByRoom)

		api.GET("/lessons", lessonHandler.List)
		api.POST("/lessons", lessonHandler.Create)
		api.POST("/lessons/bulk", lessonHandler.BulkCreate)
		api.DELETE("/lessons", lessonHandler.Clear)
		api.GET("/lessons/:id", lessonHandler.Get)
		api.PUT("/lessons/:id", lessonHandler.Update)
		api.POST("/lessons/:id/cancel", lessonHandler.Cancel)

		api.POST("/substitutions/validate", substitutionHandler.Validate)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	warmupQueue.Start(ctx)
	defer warmupQueue.Stop()

	addr := fmt.Sprintf(":%d", cfg.Port)
	server := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}

func decodeWarmupPayload(payload interface{}) (service.CacheWarmupPayload, error) {
	if typed, ok := payload.(service.CacheWarmupPayload); ok {
		return typed, nil
	}
	raw, err := json.Marshal(payload)
	if err != nil {
		return service.CacheWarmupPayload{}, fmt.Errorf("marshal warm-up payload: %w", err)
	}
	var decoded service.CacheWarmupPayload
	if err := json.Unmarshal(raw, &decoded); err != nil {
		return service.CacheWarmupPayload{}, fmt.Errorf("decode warm-up payload: %w", err)
	}
	return decoded, nil
}
