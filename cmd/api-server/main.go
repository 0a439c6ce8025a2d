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

	_ "github.com/talim-board/admin-api/api/swagger"
	"github.com/talim-board/admin-api/internal/handler"
	"github.com/talim-board/admin-api/internal/middleware"
	"github.com/talim-board/admin-api/internal/models"
	"github.com/talim-board/admin-api/internal/repository"
	"github.com/talim-board/admin-api/internal/service"
	"github.com/talim-board/admin-api/pkg/cache"
	"github.com/talim-board/admin-api/pkg/config"
	"github.com/talim-board/admin-api/pkg/database"
	"github.com/talim-board/admin-api/pkg/logger"
	corsmiddleware "github.com/talim-board/admin-api/pkg/middleware/cors"
	reqidmiddleware "github.com/talim-board/admin-api/pkg/middleware/requestid"
	"github.com/talim-board/admin-api/pkg/storage"
)

// @title Talim Board Admin API
// @version 1.0.0
// @description Administration API for the examination board
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
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	metricsSvc := service.NewMetricsService()

	var cacheSvc *service.CacheService
	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, list caching disabled", "error", err)
	} else {
		defer redisClient.Close()
		cacheRepo := repository.NewCacheRepository(redisClient, logr)
		cacheSvc = service.NewCacheService(cacheRepo, metricsSvc, cfg.Lists.CacheTTL, logr, cfg.Lists.Enabled)
	}

	uploads, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Sugar().Fatalw("failed to prepare upload storage", "error", err)
	}
	signer := storage.NewSignedURLSigner(cfg.Uploads.SignedURLSecret, cfg.Uploads.SignedURLTTL)

	validate := validator.New()

	userRepo := repository.NewUserRepository(db)
	examRepo := repository.NewExamRepository(db)
	accountRepo := repository.NewBankAccountRepository(db)
	transactionRepo := repository.NewBankTransactionRepository(db)
	kitabRepo := repository.NewKitabRepository(db)
	marhalaRepo := repository.NewMarhalaRepository(db)
	markazRepo := repository.NewMarkazRepository(db)
	teacherRepo := repository.NewTeacherRepository(db)
	noticeRepo := repository.NewNoticeRepository(db)
	faqRepo := repository.NewFAQRepository(db)

	authSvc := service.NewAuthService(userRepo, validate, logr, service.AuthConfig{
		AccessTokenSecret:  cfg.JWT.Secret,
		AccessTokenExpiry:  cfg.JWT.Expiration,
		RefreshTokenExpiry: cfg.JWT.RefreshExpiration,
		Issuer:             cfg.JWT.Issuer,
	})

	listTTL := cfg.Lists.CacheTTL
	examSvc := service.NewExamService(examRepo, cacheSvc, listTTL, validate, logr)
	accountSvc := service.NewBankAccountService(accountRepo, cacheSvc, listTTL, validate, logr)
	transactionSvc := service.NewBankTransactionService(transactionRepo, accountRepo, cacheSvc, listTTL, validate, logr)
	kitabSvc := service.NewKitabService(kitabRepo, cacheSvc, listTTL, validate, logr)
	marhalaSvc := service.NewMarhalaService(marhalaRepo, cacheSvc, listTTL, validate, logr)
	markazSvc := service.NewMarkazService(markazRepo, cacheSvc, listTTL, validate, logr)
	teacherSvc := service.NewTeacherService(teacherRepo, cacheSvc, listTTL, validate, logr)
	noticeSvc := service.NewNoticeService(noticeRepo, cacheSvc, listTTL, validate, logr)
	faqSvc := service.NewFAQService(faqRepo, cacheSvc, listTTL, validate, logr)
	statementSvc := service.NewStatementService(transactionRepo, accountRepo, logr)
	dashboardSvc := service.NewDashboardService(
		accountRepo, transactionRepo, examRepo, teacherRepo, markazRepo, noticeRepo,
		cacheSvc, cfg.Dashboard.CacheTTL, cfg.Dashboard.RecentTransactions, logr,
	)

	authHandler := handler.NewAuthHandler(authSvc)
	examHandler := handler.NewExamHandler(examSvc)
	accountHandler := handler.NewBankAccountHandler(accountSvc, statementSvc)
	transactionHandler := handler.NewBankTransactionHandler(transactionSvc)
	kitabHandler := handler.NewKitabHandler(kitabSvc)
	marhalaHandler := handler.NewMarhalaHandler(marhalaSvc)
	markazHandler := handler.NewMarkazHandler(markazSvc)
	teacherHandler := handler.NewTeacherHandler(teacherSvc, uploads, signer)
	noticeHandler := handler.NewNoticeHandler(noticeSvc)
	faqHandler := handler.NewFAQHandler(faqSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.WithResponseMeta())
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
		defer cancel()
		if err := db.PingContext(ctx); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "reason": "database"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)
	r.GET("/files", teacherHandler.DownloadPhoto)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
		auth.POST("/change-password", middleware.JWT(authSvc), authHandler.ChangePassword)
		auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))
	superadmin := middleware.RequireRoles(models.RoleSuperAdmin)

	exams := protected.Group("/exams")
	{
		exams.GET("", examHandler.List)
		exams.GET("/:id", examHandler.Get)
		exams.POST("", examHandler.Create)
		exams.PUT("/:id", examHandler.Update)
		exams.PATCH("/:id/status", examHandler.UpdateStatus)
		exams.DELETE("/:id", superadmin, examHandler.Delete)
	}

	accounts := protected.Group("/bank-accounts")
	{
		accounts.GET("", accountHandler.List)
		accounts.GET("/:id", accountHandler.Get)
		accounts.GET("/:id/statement", accountHandler.Statement)
		accounts.POST("", accountHandler.Create)
		accounts.PUT("/:id", accountHandler.Update)
		accounts.DELETE("/:id", superadmin, accountHandler.Deactivate)
	}

	transactions := protected.Group("/bank-transactions")
	{
		transactions.GET("", transactionHandler.List)
		transactions.POST("", transactionHandler.Create)
	}

	kitabs := protected.Group("/kitabs")
	{
		kitabs.GET("", kitabHandler.List)
		kitabs.GET("/:id", kitabHandler.Get)
		kitabs.POST("", kitabHandler.Create)
		kitabs.PUT("/:id", kitabHandler.Update)
		kitabs.DELETE("/:id", superadmin, kitabHandler.Delete)
	}

	marhalas := protected.Group("/marhalas")
	{
		marhalas.GET("", marhalaHandler.List)
		marhalas.GET("/:id", marhalaHandler.Get)
		marhalas.POST("", marhalaHandler.Create)
		marhalas.PUT("/:id", marhalaHandler.Update)
	}

	markazes := protected.Group("/markazes")
	{
		markazes.GET("", markazHandler.List)
		markazes.GET("/:id", markazHandler.Get)
		markazes.POST("", markazHandler.Create)
		markazes.PUT("/:id", markazHandler.Update)
		markazes.DELETE("/:id", superadmin, markazHandler.Deactivate)
	}

	teachers := protected.Group("/teachers")
	{
		teachers.GET("", teacherHandler.List)
		teachers.GET("/:id", teacherHandler.Get)
		teachers.POST("", teacherHandler.Create)
		teachers.PUT("/:id", teacherHandler.Update)
		teachers.PUT("/:id/mumtahin", teacherHandler.SetEligibility)
		teachers.POST("/:id/photo", teacherHandler.UploadPhoto)
		teachers.GET("/:id/photo-url", teacherHandler.PhotoURL)
		teachers.DELETE("/:id", superadmin, teacherHandler.Deactivate)
	}

	notices := protected.Group("/notices")
	{
		notices.GET("", noticeHandler.List)
		notices.GET("/:id", noticeHandler.Get)
		notices.POST("", noticeHandler.Create)
		notices.PUT("/:id", noticeHandler.Update)
		notices.DELETE("/:id", superadmin, noticeHandler.Delete)
	}

	faqs := protected.Group("/faqs")
	{
		faqs.GET("", faqHandler.List)
		faqs.GET("/:id", faqHandler.Get)
		faqs.POST("", faqHandler.Create)
		faqs.PUT("/:id", faqHandler.Update)
		faqs.DELETE("/:id", superadmin, faqHandler.Deactivate)
	}

	if cfg.Dashboard.Enabled {
		dashboard := protected.Group("/dashboard")
		{
			dashboard.GET("", dashboardHandler.Overview)
			dashboard.GET("/bank", dashboardHandler.Bank)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
