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
	"go.uber.org/zap"

	"github.com/noah-isme/school-attendance-api/internal/handler"
	"github.com/noah-isme/school-attendance-api/internal/middleware"
	"github.com/noah-isme/school-attendance-api/internal/models"
	"github.com/noah-isme/school-attendance-api/internal/repository"
	"github.com/noah-isme/school-attendance-api/internal/service"
	"github.com/noah-isme/school-attendance-api/pkg/cache"
	"github.com/noah-isme/school-attendance-api/pkg/config"
	"github.com/noah-isme/school-attendance-api/pkg/database"
	"github.com/noah-isme/school-attendance-api/pkg/logger"
	corsmiddleware "github.com/noah-isme/school-attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/noah-isme/school-attendance-api/pkg/middleware/requestid"
	"github.com/noah-isme/school-attendance-api/pkg/storage"
)

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
		logr.Fatal("failed to connect to postgres", zap.Error(err))
	}
	defer db.Close() //nolint:errcheck

	uploads, err := storage.NewLocalStorage(cfg.Uploads.StorageDir)
	if err != nil {
		logr.Fatal("failed to prepare uploads directory", zap.Error(err))
	}

	metricsSvc := service.NewMetricsService()

	var cacheRepo service.CacheRepository
	if cfg.Cache.Enabled {
		redisClient, err := cache.NewRedis(cfg.Redis)
		if err != nil {
			logr.Warn("redis unavailable, caching disabled", zap.Error(err))
		} else {
			repo := repository.NewCacheRepository(redisClient, logr)
			defer repo.Close() //nolint:errcheck
			cacheRepo = repo
		}
	}
	cacheSvc := service.NewCacheService(cacheRepo, metricsSvc, cfg.Cache.TTL, logr, cacheRepo != nil)

	validate := validator.New()

	students := repository.NewStudentRepository(db)
	teachers := repository.NewTeacherRepository(db)
	employees := repository.NewEmployeeRepository(db)
	events := repository.NewAttendanceRepository(db)
	assignments := repository.NewAssignmentRepository(db)

	directorySvc := service.NewDirectoryService(students, teachers, employees, logr)
	authSvc := service.NewAuthService(directorySvc, validate, logr, service.AuthConfig{
		Secret:            cfg.JWT.Secret,
		Expiry:            cfg.JWT.Expiration,
		Issuer:            cfg.JWT.Issuer,
		AdminEmail:        cfg.Admin.Email,
		AdminPasswordHash: cfg.Admin.PasswordHash,
	})
	attendanceSvc := service.NewAttendanceService(directorySvc, events, cacheSvc, metricsSvc, logr)
	accountSvc := service.NewAccountService(students, teachers, employees, validate, logr)
	assignmentSvc := service.NewAssignmentService(assignments, teachers, validate, logr)
	rosterSvc := service.NewRosterService(students, assignments, teachers, events, logr)
	dashboardSvc := service.NewDashboardService(students, teachers, employees, events, cacheSvc, logr)

	authHandler := handler.NewAuthHandler(authSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, directorySvc)
	accountHandler := handler.NewAccountHandler(accountSvc, uploads, cfg.Uploads.MaxFileSizeBytes)
	assignmentHandler := handler.NewAssignmentHandler(assignmentSvc)
	rosterHandler := handler.NewRosterHandler(rosterSvc)
	dashboardHandler := handler.NewDashboardHandler(dashboardSvc)

	if cfg.Env == config.EnvProduction {
		gin.SetMode(gin.ReleaseMode)
	}

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
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))
	r.Static("/uploads", cfg.Uploads.StorageDir)

	api := r.Group(cfg.APIPrefix)
	api.POST("/auth/login", authHandler.Login)

	authed := api.Group("", middleware.JWT(authSvc))
	authed.GET("/auth/me", authHandler.Me)
	authed.GET("/me/profile", accountHandler.Profile)
	authed.PUT("/me/profile", accountHandler.UpdateProfile)
	authed.GET("/me/attendance", attendanceHandler.MyAttendance)

	kiosk := authed.Group("", middleware.RequireRoles(models.RoleAdmin))
	kiosk.GET("/directory/:code", attendanceHandler.Lookup)
	kiosk.POST("/attendance/:code/sign-in", attendanceHandler.SignIn)
	kiosk.POST("/attendance/:code/sign-out", attendanceHandler.SignOut)

	authed.GET("/attendance/records", middleware.RequireRoles(models.RoleAdmin), attendanceHandler.Records)
	authed.GET("/attendance/summary", middleware.RequireRoles(models.RoleAdmin, models.RoleTeacher), attendanceHandler.Summary)
	authed.GET("/attendance/export", middleware.RequireRoles(models.RoleAdmin), attendanceHandler.Export)

	admin := authed.Group("/admin", middleware.RequireRoles(models.RoleAdmin))
	admin.GET("/dashboard", dashboardHandler.Stats)
	admin.GET("/students", accountHandler.ListStudents)
	admin.POST("/students", accountHandler.CreateStudent)
	admin.GET("/students/:id", accountHandler.GetStudent)
	admin.PUT("/students/:id", accountHandler.UpdateStudent)
	admin.DELETE("/students/:id", accountHandler.DeleteStudent)
	admin.GET("/teachers", accountHandler.ListTeachers)
	admin.POST("/teachers", accountHandler.CreateTeacher)
	admin.GET("/teachers/:id", accountHandler.GetTeacher)
	admin.PUT("/teachers/:id", accountHandler.UpdateTeacher)
	admin.DELETE("/teachers/:id", accountHandler.DeleteTeacher)
	admin.GET("/employees", accountHandler.ListEmployees)
	admin.POST("/employees", accountHandler.CreateEmployee)
	admin.GET("/employees/:id", accountHandler.GetEmployee)
	admin.PUT("/employees/:id", accountHandler.UpdateEmployee)
	admin.DELETE("/employees/:id", accountHandler.DeleteEmployee)

	teacherScoped := authed.Group("/teachers/:id", middleware.RBAC(string(models.RoleAdmin), middleware.SelfAccess))
	teacherScoped.GET("/assignments", assignmentHandler.List)
	teacherScoped.POST("/assignments", assignmentHandler.Add)
	teacherScoped.PUT("/assignments", assignmentHandler.Replace)
	teacherScoped.DELETE("/assignments/:assignmentID", assignmentHandler.Remove)
	teacherScoped.GET("/students", rosterHandler.Students)

	authed.GET("/students/:id/classmates", middleware.RBAC(string(models.RoleAdmin), middleware.SelfAccess), rosterHandler.Classmates)

	srv := &http.Server{
		Addr:              fmt.Sprintf(":%d", cfg.Port),
		Handler:           r,
		ReadHeaderTimeout: 10 * time.Second,
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		logr.Sugar().Infow("server starting", "addr", srv.Addr, "env", cfg.Env)
		if err := srv.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			logr.Fatal("server failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	logr.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		logr.Error("forced shutdown", zap.Error(err))
	}
}
