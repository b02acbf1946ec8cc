package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/noah-isme/sma-izin-api/api/swagger"
	"github.com/noah-isme/sma-izin-api/internal/handler"
	"github.com/noah-isme/sma-izin-api/internal/middleware"
	"github.com/noah-isme/sma-izin-api/internal/models"
	"github.com/noah-isme/sma-izin-api/internal/notify"
	"github.com/noah-isme/sma-izin-api/internal/repository"
	"github.com/noah-isme/sma-izin-api/internal/service"
	"github.com/noah-isme/sma-izin-api/pkg/cache"
	"github.com/noah-isme/sma-izin-api/pkg/config"
	"github.com/noah-isme/sma-izin-api/pkg/database"
	"github.com/noah-isme/sma-izin-api/pkg/export"
	"github.com/noah-isme/sma-izin-api/pkg/jobs"
	"github.com/noah-isme/sma-izin-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/sma-izin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/sma-izin-api/pkg/middleware/requestid"
	"github.com/noah-isme/sma-izin-api/pkg/storage"
)

// @title SMA Izin API
// @version 1.0.0
// @description Daily student permission queue for schools
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

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect database", "error", err)
	}
	defer db.Close() //nolint:errcheck

	metrics := service.NewMetricsService()

	redisClient, redisErr := cache.NewRedis(cfg.Redis)
	if redisErr != nil {
		logr.Sugar().Warnw("redis unavailable, running without cache", "error", redisErr)
	}

	var cacheSvc *service.CacheService
	if redisClient != nil {
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metrics, cfg.Board.SnapshotTTL, logr, true)
	}

	var hub notify.Hub
	if cfg.Board.NotifyUseRedis && redisClient != nil {
		hub = notify.NewRedisHub(redisClient, cfg.Board.NotifyChannel)
	} else {
		hub = notify.NewInMemory(cfg.Board.NotifyBuffer)
	}

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	studentRepo := repository.NewStudentRepository(db)
	queueRepo := repository.NewQueueRepository(db)
	boardRepo := repository.NewBoardRepository(db)
	historyRepo := repository.NewHistoryRepository(db)
	reportRepo := repository.NewReportRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "sma-izin-api",
	})
	userSvc := service.NewUserService(userRepo, validate, logr)
	ledgerSvc := service.NewLedgerService(historyRepo, hub, userRepo, logr)
	queueSvc := service.NewQueueService(queueRepo, boardRepo, ledgerSvc, hub, userRepo, validate, logr)
	studentSvc := service.NewStudentService(studentRepo, nil, hub, userRepo, validate, logr)
	boardSvc := service.NewBoardService(boardRepo, cacheSvc, cfg.Board.SnapshotTTL, logr)
	dataSvc := service.NewDataService(studentRepo, queueRepo, boardRepo, historyRepo, userRepo, hub, userRepo, logr)

	fileStore, err := storage.NewLocalStorage(cfg.Reports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init report storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Reports.SignedURLSecret, cfg.Reports.SignedURLTTL)
	exportSvc := service.NewExportService(queueRepo, historyRepo, fileStore, signer, service.ExportConfig{
		APIPrefix: cfg.APIPrefix,
		ResultTTL: cfg.Reports.SignedURLTTL,
	}, logr, export.NewCSVExporter(), export.NewPDFExporter(), export.NewSlipExporter())

	worker := service.NewReportWorker(reportRepo, exportSvc, cfg.Reports.WorkerRetries, logr)
	jobQueue := jobs.NewQueue("reports", worker.Handle, jobs.QueueConfig{
		Workers:    cfg.Reports.WorkerConcurrency,
		MaxRetries: cfg.Reports.WorkerRetries,
		Logger:     logr,
	})
	reportSvc := service.NewReportService(reportRepo, queueRepo, ledgerSvc, jobQueue, exportSvc, logr, service.ReportServiceConfig{
		ResultTTL:       cfg.Reports.SignedURLTTL,
		CleanupInterval: cfg.Reports.CleanupInterval,
		MaxRetries:      cfg.Reports.WorkerRetries,
	})

	rootCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	jobQueue.Start(rootCtx)
	defer jobQueue.Stop()
	reportSvc.RecoverPendingJobs(rootCtx)
	reportSvc.StartCleanup(rootCtx)

	if cacheSvc != nil {
		if err := boardSvc.Watch(rootCtx, hub); err != nil {
			logr.Sugar().Warnw("board cache invalidation disabled", "error", err)
		}
	}

	authHandler := handler.NewAuthHandler(authSvc)
	userHandler := handler.NewUserHandler(userSvc)
	queueHandler := handler.NewQueueHandler(queueSvc)
	boardHandler := handler.NewBoardHandler(boardSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	historyHandler := handler.NewHistoryHandler(ledgerSvc)
	reportHandler := handler.NewReportHandler(reportSvc)
	dataHandler := handler.NewDataHandler(dataSvc)
	metricsHandler := handler.NewMetricsHandler(metrics)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metrics))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	r.GET("/ready", func(c *gin.Context) {
		if err := db.PingContext(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "degraded"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	v1 := r.Group(cfg.APIPrefix)

	v1.POST("/auth/login", authHandler.Login)
	v1.POST("/auth/refresh", authHandler.Refresh)

	// Anonymous display board endpoint, no auth on purpose.
	v1.GET("/public/queue", boardHandler.Today)
	v1.GET("/reports/download/:token", reportHandler.Download)

	authed := v1.Group("")
	authed.Use(middleware.JWT(authSvc))
	{
		authed.POST("/auth/logout", authHandler.Logout)
		authed.POST("/auth/change-password", authHandler.ChangePassword)
		authed.GET("/auth/me", authHandler.Me)

		authed.GET("/queue/today", queueHandler.Today)
		authed.POST("/queue", queueHandler.Add)
		authed.DELETE("/queue/:id", queueHandler.Remove)

		authed.GET("/students", studentHandler.List)

		authed.GET("/history", historyHandler.List)

		authed.POST("/reports", reportHandler.Create)
		authed.GET("/reports/:id", reportHandler.Status)

		authed.GET("/data/export", dataHandler.Export)

		admin := authed.Group("")
		admin.Use(middleware.RequireRoles(models.RoleAdmin))
		{
			admin.POST("/queue/reset", queueHandler.Reset)
			admin.POST("/students", studentHandler.Create)
			admin.DELETE("/students/:id", studentHandler.Delete)
			admin.GET("/students/template", studentHandler.Template)
			admin.POST("/students/import", studentHandler.Import)
			admin.GET("/users", userHandler.List)
			admin.GET("/users/:id", userHandler.Get)
			admin.POST("/users", userHandler.Create)
			admin.DELETE("/users/:id", userHandler.Deactivate)
			admin.DELETE("/data", dataHandler.Wipe)
			admin.GET("/system/metrics", metricsHandler.Summary)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	srv := &http.Server{Addr: addr, Handler: r}

	go func() {
		logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-rootCtx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Warnw("graceful shutdown failed", "error", err)
	}
	if redisClient != nil {
		_ = redisClient.Close()
	}
}
