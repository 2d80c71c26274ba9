package main

import (
	"fmt"
	"log"
	"net/http"

	"github.com/gin-gonic/gin"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/scolaris/scolaris-api/api/swagger"
	"github.com/scolaris/scolaris-api/internal/handler"
	"github.com/scolaris/scolaris-api/internal/middleware"
	"github.com/scolaris/scolaris-api/internal/models"
	"github.com/scolaris/scolaris-api/internal/repository"
	"github.com/scolaris/scolaris-api/internal/service"
	"github.com/scolaris/scolaris-api/pkg/cache"
	"github.com/scolaris/scolaris-api/pkg/config"
	"github.com/scolaris/scolaris-api/pkg/database"
	"github.com/scolaris/scolaris-api/pkg/export"
	"github.com/scolaris/scolaris-api/pkg/logger"
	corsmiddleware "github.com/scolaris/scolaris-api/pkg/middleware/cors"
	reqidmiddleware "github.com/scolaris/scolaris-api/pkg/middleware/requestid"
)

// @title Scolaris API
// @version 1.0.0
// @description School administration API with report card generation
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

	var cacheRepo service.CacheRepository
	if cfg.Bulletins.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Warnw("redis unavailable, caching disabled", "error", err)
		} else {
			defer redisClient.Close()
			cacheRepo = repository.NewCacheRepository(redisClient, logr)
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Bulletins.CacheTTL, logr, cfg.Bulletins.CacheEnabled && cacheRepo != nil)

	userRepo := repository.NewUserRepository(db)
	classRepo := repository.NewClassRepository(db)
	termRepo := repository.NewTermRepository(db)
	classSubjectRepo := repository.NewClassSubjectRepository(db)
	enrollmentRepo := repository.NewEnrollmentRepository(db)
	gradeRepo := repository.NewGradeRepository(db)
	bulletinRepo := repository.NewBulletinRepository(db)

	authSvc := service.NewAuthService(userRepo, nil, logr, service.AuthConfig{
		Secret:        cfg.JWT.Secret,
		Expiry:        cfg.JWT.Expiration,
		RefreshExpiry: cfg.JWT.RefreshExpiration,
		Issuer:        cfg.JWT.Issuer,
	})
	termSvc := service.NewTermService(termRepo, logr)
	classSubjectSvc := service.NewClassSubjectService(classSubjectRepo, classRepo, nil, logr)
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, classRepo, nil, logr)
	gradeSvc := service.NewGradeService(gradeRepo, classSubjectRepo, termRepo, nil, logr)
	bulletinSvc := service.NewBulletinService(enrollmentRepo, classSubjectRepo, gradeRepo, bulletinRepo, classRepo, termRepo, userRepo, cacheSvc, metricsSvc, nil, logr)

	var pdfExporter *export.BulletinPDF
	if cfg.Bulletins.PDFExport {
		pdfExporter = export.NewBulletinPDF(cfg.Bulletins.SchoolName)
	}

	authHandler := handler.NewAuthHandler(authSvc)
	termHandler := handler.NewTermHandler(termSvc)
	classSubjectHandler := handler.NewClassSubjectHandler(classSubjectSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	gradeHandler := handler.NewGradeHandler(gradeSvc)
	bulletinHandler := handler.NewBulletinHandler(bulletinSvc, pdfExporter)
	metricsHandler := handler.NewMetricsHandler(metricsSvc)

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(reqidmiddleware.Middleware())
	r.Use(logger.GinMiddleware(logr))
	r.Use(corsmiddleware.New(cfg.CORS.AllowedOrigins))
	r.Use(middleware.Metrics(metricsSvc))

	r.GET("/health", metricsHandler.Health)
	r.GET("/ready", func(c *gin.Context) {
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	auth.POST("/login", authHandler.Login)
	auth.POST("/refresh", authHandler.Refresh)
	auth.POST("/logout", middleware.JWT(authSvc), authHandler.Logout)
	auth.GET("/me", middleware.JWT(authSvc), authHandler.Me)

	protected := api.Group("")
	protected.Use(middleware.JWT(authSvc))

	protected.GET("/terms", termHandler.List)
	protected.GET("/terms/:id", termHandler.Get)

	protected.GET("/classes/:id/subjects", classSubjectHandler.List)
	protected.PUT("/classes/:id/subjects", middleware.RequireRoles(models.RoleAdmin), classSubjectHandler.Replace)

	protected.GET("/enrollments", enrollmentHandler.List)
	protected.POST("/enrollments", middleware.RequireRoles(models.RoleAdmin), enrollmentHandler.Create)
	protected.PATCH("/enrollments/:id/status", middleware.RequireRoles(models.RoleAdmin), enrollmentHandler.UpdateStatus)

	protected.GET("/grades", gradeHandler.List)
	protected.POST("/grades", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), gradeHandler.Create)
	protected.DELETE("/grades/:id", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), gradeHandler.Delete)

	staff := middleware.RequireRoles(models.RoleAdmin, models.RolePrincipal, models.RoleTeacher)
	protected.POST("/bulletins/generate", staff, bulletinHandler.Generate)
	protected.GET("/bulletins", bulletinHandler.List)
	protected.GET("/bulletins/:id", bulletinHandler.Get)
	protected.GET("/bulletins/:id/pdf", bulletinHandler.ExportPDF)
	protected.PATCH("/bulletins/:id/comments", staff, bulletinHandler.UpdateComments)
	protected.GET("/students/:id/bulletins", bulletinHandler.StudentBulletins)

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
