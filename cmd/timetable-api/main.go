package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"
	"go.uber.org/zap"

	_ "github.com/noah-isme/sma-timetable/api/swagger"
	"github.com/noah-isme/sma-timetable/internal/handler"
	internalmiddleware "github.com/noah-isme/sma-timetable/internal/middleware"
	"github.com/noah-isme/sma-timetable/internal/models"
	"github.com/noah-isme/sma-timetable/internal/repository"
	"github.com/noah-isme/sma-timetable/internal/service"
	"github.com/noah-isme/sma-timetable/internal/solver"
	"github.com/noah-isme/sma-timetable/pkg/cache"
	"github.com/noah-isme/sma-timetable/pkg/config"
	"github.com/noah-isme/sma-timetable/pkg/database"
	"github.com/noah-isme/sma-timetable/pkg/events"
	"github.com/noah-isme/sma-timetable/pkg/export"
	"github.com/noah-isme/sma-timetable/pkg/jobs"
	"github.com/noah-isme/sma-timetable/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-timetable/pkg/middleware/requestid"
)

// @title SMA Timetable API
// @version 1.0.0
// @description Weekly timetable generation for rooms, teachers and class groups
// @BasePath /api/v1
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	db, err := database.NewPostgres(ctx, cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("database unavailable", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()
	validate := validator.New()

	var cacheRepo service.CacheRepository
	readiness := map[string]handler.ReadinessCheck{"database": db.PingContext}
	redisClient, err := cache.NewRedis(ctx, cfg.Redis)
	if err != nil {
		logr.Warn("redis unavailable, caching disabled", zap.Error(err))
	} else {
		repo := repository.NewCacheRepository(redisClient, logr)
		defer repo.Close() //nolint:errcheck
		cacheRepo = repo
		readiness["redis"] = repo.Ping
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Scheduler.ReportCacheTTL, logr)

	var publisher events.Publisher = events.NopPublisher{}
	if cfg.Events.Enabled {
		amqpPublisher, err := events.NewAMQPPublisher(cfg.Events.URL, cfg.Events.Exchange, logr)
		if err != nil {
			logr.Warn("event broker unavailable, events disabled", zap.Error(err))
		} else {
			publisher = amqpPublisher
		}
	}
	defer publisher.Close() //nolint:errcheck

	roomRepo := repository.NewRoomRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	subjectRepo := repository.NewSubjectRepository(db)
	groupRepo := repository.NewGroupRepository(db)
	timeslotRepo := repository.NewTimeslotRepository(db)
	scheduleRepo := repository.NewScheduleRepository(db)

	var solverSvc *service.SolverService
	var queue *jobs.Queue
	if cfg.Scheduler.Enabled {
		queue = jobs.NewQueue(service.JobTypeSolve, func(ctx context.Context, job jobs.Job) error {
			return solverSvc.RunJob(ctx, job)
		}, jobs.QueueConfig{
			Workers:    1,
			BufferSize: cfg.Scheduler.QueueBuffer,
			MaxRetries: cfg.Scheduler.QueueRetries,
			Logger:     logr.Named("queue"),
		})
	}

	readers := service.SnapshotReaders{
		Rooms:     roomRepo,
		Teachers:  teacherRepo,
		Subjects:  subjectRepo,
		Groups:    groupRepo,
		Timeslots: timeslotRepo,
	}
	var dispatcher interface {
		TryEnqueue(job jobs.Job) error
		Pending() int
	}
	if queue != nil {
		dispatcher = queue
	}
	solverSvc = service.NewSolverService(
		readers,
		scheduleRepo,
		db,
		solver.New(logr.Named("solver")),
		dispatcher,
		cacheSvc,
		metricsSvc,
		publisher,
		validate,
		logr,
		service.SolverServiceConfig{RunTTL: cfg.Scheduler.RunTTL, ReportCacheTTL: cfg.Scheduler.ReportCacheTTL},
	)
	if queue != nil {
		queue.Start(ctx)
		defer queue.Stop()
	}

	scheduleSvc := service.NewScheduleService(
		scheduleRepo,
		timeslotRepo,
		db,
		publisher,
		export.NewCSVExporter(','),
		export.NewPDFExporter(),
		validate,
		logr,
		service.ScheduleServiceConfig{ExportTitle: cfg.Export.Title},
	)
	timeslotSvc := service.NewTimeslotService(timeslotRepo, scheduleRepo, db, solverSvc, logr)
	tokenSvc := service.NewTokenService(service.TokenConfig{Secret: cfg.JWT.Secret, Issuer: cfg.JWT.Issuer})

	solverHandler := handler.NewSolverHandler(solverSvc)
	scheduleHandler := handler.NewScheduleHandler(scheduleSvc)
	timeslotHandler := handler.NewTimeslotHandler(timeslotSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc, readiness)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(internalmiddleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", metricsHandler.Ready)
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	api.Use(internalmiddleware.JWT(tokenSvc))
	admin := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin)
	staff := internalmiddleware.RequireRoles(models.RoleAdmin, models.RoleSuperAdmin, models.RoleTeacher)

	schedule := api.Group("/schedule")
	schedule.POST("/solve", admin, solverHandler.Solve)
	schedule.POST("/solve/async", admin, solverHandler.SolveAsync)
	schedule.GET("/runs/:id", admin, solverHandler.GetRun)
	schedule.GET("/report/latest", staff, solverHandler.LatestReport)
	schedule.GET("", staff, scheduleHandler.Grid)
	schedule.POST("/swap", admin, scheduleHandler.Swap)
	schedule.GET("/export", staff, scheduleHandler.Export)

	api.POST("/timeslots/defaults", admin, timeslotHandler.GenerateDefaults)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env, "scheduler", cfg.Scheduler.Enabled)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
}
