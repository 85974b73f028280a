package main

import (
	"context"
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

	_ "rosterhub/api/swagger"
	"rosterhub/internal/handler"
	"rosterhub/internal/middleware"
	"rosterhub/internal/models"
	"rosterhub/internal/repository"
	"rosterhub/internal/service"
	"rosterhub/pkg/cache"
	"rosterhub/pkg/config"
	"rosterhub/pkg/database"
	"rosterhub/pkg/jobs"
	"rosterhub/pkg/logger"
	corsmiddleware "rosterhub/pkg/middleware/cors"
	reqidmiddleware "rosterhub/pkg/middleware/requestid"
	"rosterhub/pkg/storage"
)

// @title RosterHub API
// @version 1.0.0
// @description Personnel roster service for regional delivery offices
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

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

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

	uploadStore, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init upload storage", "error", err)
	}

	exportStore, err := storage.NewLocalStorage(cfg.Exports.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to init export storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Exports.SignedURLSecret, cfg.Exports.SignedURLTTL)

	courierRepo := repository.NewCourierRepository(db)
	staffRepo := repository.NewOfficeStaffRepository(db)
	userRepo := repository.NewUserRepository(db)
	exportJobRepo := repository.NewExportJobRepository(db)
	sessionRepo := repository.NewSessionRepository(redisClient, cfg.Session.TTL)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	validate := validator.New()

	metricsSvc := service.NewMetricsService()
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Dashboard.CacheTTL, logr)

	authSvc := service.NewAuthService(userRepo, sessionRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             "rosterhub",
	})
	rosterSvc := service.NewRosterService(courierRepo, staffRepo, validate, logr)
	sessionSvc := service.NewSessionService(sessionRepo, logr)
	dashboardSvc := service.NewDashboardService(courierRepo, staffRepo, cacheSvc, cfg.Dashboard.CacheTTL, logr)
	historySvc := service.NewHistoryService(courierRepo, staffRepo, cacheSvc, cfg.History.CacheTTL, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	attachmentSvc := service.NewAttachmentService(courierRepo, staffRepo, uploadStore, cfg.Uploads, logr)
	exportSvc := service.NewExportService(courierRepo, staffRepo, exportJobRepo, exportStore, signer, metricsSvc, cfg.Exports.SignedURLTTL, logr)

	exportQueue := jobs.NewQueue("exports", exportSvc.HandleJob, jobs.QueueConfig{
		Workers:    cfg.Exports.WorkerConcurrency,
		BufferSize: 64,
		MaxRetries: cfg.Exports.WorkerRetries,
		RetryDelay: 5 * time.Second,
		Logger:     logr,
	})
	exportSvc.SetQueue(exportQueue)
	exportQueue.Start(ctx)
	defer exportQueue.Stop()

	go cleanupExports(ctx, exportStore, cfg.Exports, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	sessionHandler := handler.NewSessionHandler(sessionSvc)
	personnelHandler := handler.NewPersonnelHandler(rosterSvc, attachmentSvc, exportSvc, dashboardSvc, historySvc, sessionSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc, historySvc)
	exportHandler := handler.NewExportHandler(exportSvc)
	userHandler := handler.NewUserHandler(userSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

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

	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	api.POST("/auth/login", authHandler.Login)
	api.POST("/auth/refresh", authHandler.Refresh)

	// Signed download links carry their own credentials.
	api.GET("/exports/download/:token", exportHandler.Download)

	authed := api.Group("")
	authed.Use(middleware.JWT(authSvc))

	authed.POST("/auth/logout", authHandler.Logout)
	authed.GET("/auth/me", authHandler.Me)

	session := authed.Group("/session")
	{
		session.GET("", sessionHandler.Current)
		session.POST("/office", sessionHandler.SelectOffice)
		session.POST("/category", sessionHandler.SelectCategory)
		session.POST("/edit", sessionHandler.BeginEdit)
		session.DELETE("/edit", sessionHandler.EndEdit)
		session.POST("/back", sessionHandler.GoBack)
	}

	personnel := authed.Group("/personnel/:category")
	{
		personnel.GET("", personnelHandler.List)
		personnel.GET("/export", personnelHandler.Export)
		personnel.GET("/:id", personnelHandler.Get)
		personnel.GET("/:id/attachments/:slot", personnelHandler.DownloadAttachment)

		personnel.POST("",
			middleware.RequireAction(models.ActionCreate),
			middleware.Audit(userRepo, models.AuditActionCreate, "personnel"),
			personnelHandler.Create)
		personnel.PATCH("/:id",
			middleware.RequireAction(models.ActionEdit),
			middleware.Audit(userRepo, models.AuditActionUpdate, "personnel"),
			personnelHandler.Update)
		personnel.POST("/:id/deactivate",
			middleware.RequireAction(models.ActionDeactivate),
			middleware.Audit(userRepo, models.AuditActionDeactivate, "personnel"),
			personnelHandler.Deactivate)
		personnel.POST("/:id/attachments/:slot",
			middleware.RequireAction(models.ActionEdit),
			middleware.Audit(userRepo, models.AuditActionAttach, "personnel"),
			personnelHandler.Attach)
	}

	admin := authed.Group("")
	admin.Use(middleware.RequireRoles(models.RoleAdmin))
	{
		admin.GET("/dashboard", dashboardHandler.Summary)
		admin.POST("/dashboard/refresh", dashboardHandler.Refresh)
		admin.GET("/history", dashboardHandler.History)
	}

	exports := authed.Group("/exports")
	{
		exports.POST("", exportHandler.Request)
		exports.GET("/:id", exportHandler.Status)
	}

	users := authed.Group("/users")
	users.Use(middleware.RequireAction(models.ActionManageUsers))
	{
		users.GET("", userHandler.List)
		users.POST("", userHandler.Create)
		users.PUT("/:id/role", userHandler.UpdateRole)
		users.DELETE("/:id", userHandler.Delete)
	}

	srv := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Port),
		Handler: r,
	}

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Sugar().Fatalw("server failed", "error", err)
		}
	}()

	<-ctx.Done()
	logr.Sugar().Infow("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Sugar().Errorw("shutdown incomplete", "error", err)
	}
}

// cleanupExports removes generated export files older than the signed
// link lifetime, so the directory does not grow without bound.
func cleanupExports(ctx context.Context, store *storage.LocalStorage, cfg config.ExportsConfig, logr *zap.Logger) {
	ticker := time.NewTicker(cfg.CleanupInterval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			removed, err := store.CleanupOlderThan(cfg.SignedURLTTL)
			if err != nil {
				logr.Sugar().Warnw("export cleanup failed", "error", err)
				continue
			}
			if len(removed) > 0 {
				logr.Sugar().Infow("export files cleaned up", "count", len(removed))
			}
		}
	}
}
