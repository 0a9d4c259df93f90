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

	_ "github.com/uni-admin/enrollment-api/api/swagger"
	"github.com/uni-admin/enrollment-api/internal/handler"
	"github.com/uni-admin/enrollment-api/internal/middleware"
	"github.com/uni-admin/enrollment-api/internal/mirror"
	"github.com/uni-admin/enrollment-api/internal/models"
	"github.com/uni-admin/enrollment-api/internal/repository"
	"github.com/uni-admin/enrollment-api/internal/schema"
	"github.com/uni-admin/enrollment-api/internal/service"
	"github.com/uni-admin/enrollment-api/pkg/cache"
	"github.com/uni-admin/enrollment-api/pkg/config"
	"github.com/uni-admin/enrollment-api/pkg/database"
	"github.com/uni-admin/enrollment-api/pkg/logger"
	corsmiddleware "github.com/uni-admin/enrollment-api/pkg/middleware/cors"
	reqidmiddleware "github.com/uni-admin/enrollment-api/pkg/middleware/requestid"
)

// @title University Enrollment API
// @version 1.0.0
// @description Course-enrollment manager: catalog, approval workflow, enroll/drop rules
// @BasePath /
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
		logr.Sugar().Fatalw("failed to connect to database", "error", err)
	}
	defer db.Close()

	ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
	defer cancel()

	if cfg.Schema.Migrate {
		if err := schema.Migrate(ctx, db, logr); err != nil {
			logr.Sugar().Fatalw("failed to migrate schema", "error", err)
		}
	}
	version, err := schema.Version(ctx, db)
	if err != nil {
		logr.Sugar().Fatalw("failed to read schema version", "error", err)
	}
	if cfg.Schema.Seed {
		if err := schema.Seed(ctx, db, logr); err != nil {
			logr.Sugar().Fatalw("failed to seed database", "error", err)
		}
	}

	studentRepo := repository.NewStudentRepository(db)
	professorRepo := repository.NewProfessorRepository(db)
	adminRepo := repository.NewAdminRepository(db)
	courseRepo := repository.NewCourseRepository(db, schema.SupportsStatus(version))
	enrollmentRepo := repository.NewEnrollmentRepository(db)

	metricsSvc := service.NewMetricsService()

	index := mirror.New()
	mirrorSvc := service.NewMirrorService(studentRepo, professorRepo, adminRepo, courseRepo, enrollmentRepo, index, metricsSvc, logr)
	if err := mirrorSvc.Rebuild(ctx); err != nil {
		logr.Sugar().Fatalw("failed to build mirror", "error", err)
	}

	var catalog *cache.CatalogCache
	if cfg.Catalog.CacheEnabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Sugar().Fatalw("failed to connect to redis", "error", err)
		}
		defer redisClient.Close()
		catalog = cache.NewCatalogCache(redisClient, cfg.Catalog.CacheTTL)
	}

	validate := validator.New()
	authSvc := service.NewAuthService(index, validate, logr, service.AuthConfig{
		Secret:     cfg.JWT.Secret,
		Expiration: cfg.JWT.Expiration,
		Issuer:     cfg.JWT.Issuer,
	})
	studentSvc := service.NewStudentService(studentRepo, index, validate, logr)
	courseSvc := service.NewCourseService(courseRepo, index, catalog, metricsSvc, validate, logr, schema.SupportsStatus(version))
	enrollmentSvc := service.NewEnrollmentService(enrollmentRepo, index, catalog, logr)
	rosterSvc := service.NewRosterService(enrollmentRepo, index, logr)

	authHandler := handler.NewAuthHandler(authSvc, studentSvc)
	studentHandler := handler.NewStudentHandler(studentSvc)
	courseHandler := handler.NewCourseHandler(courseSvc)
	enrollmentHandler := handler.NewEnrollmentHandler(enrollmentSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	mirrorHandler := handler.NewMirrorHandler(mirrorSvc)
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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "database unreachable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", metricsHandler.Prometheus)

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)
	{
		api.POST("/auth/login", authHandler.Login)
		api.POST("/auth/register", authHandler.Register)

		browse := api.Group("", middleware.OptionalJWT(authSvc))
		{
			browse.GET("/courses", courseHandler.List)
			browse.GET("/courses/:code", courseHandler.Get)
		}

		adminOnly := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleAdmin))
		{
			adminOnly.POST("/courses", courseHandler.Create)
			adminOnly.PUT("/courses/:code", courseHandler.Update)
			adminOnly.PUT("/courses/:code/approve", courseHandler.Approve)
			adminOnly.PUT("/courses/:code/reject", courseHandler.Reject)
			adminOnly.DELETE("/courses/:code", courseHandler.Delete)
			adminOnly.GET("/students", studentHandler.List)
			adminOnly.POST("/mirror/rebuild", mirrorHandler.Rebuild)
		}

		selfOrAdmin := api.Group("", middleware.JWT(authSvc), middleware.RBAC(string(models.RoleAdmin), "SELF"))
		{
			selfOrAdmin.GET("/students/:id", studentHandler.Get)
			selfOrAdmin.GET("/students/:id/courses", studentHandler.Courses)
		}

		enroll := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleStudent, models.RoleAdmin))
		{
			enroll.POST("/enrollments", enrollmentHandler.Create)
			enroll.DELETE("/enrollments", enrollmentHandler.Delete)
		}

		teaching := api.Group("", middleware.JWT(authSvc), middleware.RequireRoles(models.RoleProfessor, models.RoleAdmin))
		{
			teaching.GET("/professors/:id/courses", rosterHandler.Courses)
			teaching.GET("/rosters/:code", rosterHandler.Roster)
			teaching.GET("/rosters/:code/export", rosterHandler.Export)
		}
	}

	addr := fmt.Sprintf(":%d", cfg.Port)
	logr.Sugar().Infow("server starting", "addr", addr, "env", cfg.Env, "schema_version", version)
	if err := r.Run(addr); err != nil {
		logr.Sugar().Fatalw("server failed", "error", err)
	}
}
