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
	"github.com/google/uuid"
	swaggerFiles "github.com/swaggo/files"
	ginSwagger "github.com/swaggo/gin-swagger"

	_ "github.com/nafa-hr/attendance-api/api/swagger"
	"github.com/nafa-hr/attendance-api/internal/dto"
	"github.com/nafa-hr/attendance-api/internal/handler"
	"github.com/nafa-hr/attendance-api/internal/middleware"
	"github.com/nafa-hr/attendance-api/internal/models"
	"github.com/nafa-hr/attendance-api/internal/repository"
	"github.com/nafa-hr/attendance-api/internal/service"
	"github.com/nafa-hr/attendance-api/pkg/cache"
	"github.com/nafa-hr/attendance-api/pkg/config"
	"github.com/nafa-hr/attendance-api/pkg/database"
	"github.com/nafa-hr/attendance-api/pkg/jobs"
	"github.com/nafa-hr/attendance-api/pkg/logger"
	corsmiddleware "github.com/nafa-hr/attendance-api/pkg/middleware/cors"
	reqidmiddleware "github.com/nafa-hr/attendance-api/pkg/middleware/requestid"
)

// @title NAFA Attendance API
// @version 1.0.0
// @description HR attendance tracking with shift-aware lateness resolution
// @BasePath /api
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

	db, err := database.NewPostgres(cfg.Database)
	if err != nil {
		logr.Sugar().Fatalw("failed to connect to postgres", "error", err)
	}
	defer db.Close()

	redisClient, err := cache.NewRedis(cfg.Redis)
	if err != nil {
		logr.Sugar().Warnw("redis unavailable, stats caching disabled", "error", err)
		redisClient = nil
	}

	validate := validator.New()

	// Repositories.
	userRepo := repository.NewUserRepository(db)
	attendanceRepo := repository.NewAttendanceRepository(db)
	leaveRepo := repository.NewLeaveRepository(db)
	permissionRepo := repository.NewPermissionRepository(db)
	dayOffRepo := repository.NewDayOffRepository(db)
	shiftRepo := repository.NewShiftRepository(db)
	departmentRepo := repository.NewDepartmentRepository(db)
	cacheRepo := repository.NewCacheRepository(redisClient, logr)

	// Engine pieces shared across services.
	windows := service.NewWindowResolver(cfg.Attendance)
	resolver := service.NewStatusResolver(leaveRepo, dayOffRepo, permissionRepo)

	// Services.
	metricsSvc := service.NewMetricsService()
	statsSvc := service.NewStatsService(attendanceRepo, userRepo, permissionRepo, departmentRepo, windows, cacheRepo, cfg.Stats.CacheTTL, logr)
	authSvc := service.NewAuthService(userRepo, validate, logr, cfg.JWT)
	attendanceSvc := service.NewAttendanceService(attendanceRepo, userRepo, windows, resolver, permissionRepo, leaveRepo, permissionRepo, statsSvc, logr)
	autoFillSvc := service.NewAutoFillService(userRepo, attendanceRepo, windows, resolver, permissionRepo, statsSvc, validate, logr)
	leaveSvc := service.NewLeaveService(leaveRepo, userRepo, statsSvc, validate, logr)
	permissionSvc := service.NewPermissionService(permissionRepo, statsSvc, validate, logr)
	dayOffSvc := service.NewDayOffService(dayOffRepo, validate, logr)
	userSvc := service.NewUserService(userRepo, validate, logr)
	shiftSvc := service.NewShiftService(shiftRepo, validate, logr)
	departmentSvc := service.NewDepartmentService(departmentRepo, validate, logr)

	// Handlers.
	authHandler := handler.NewAuthHandler(authSvc)
	attendanceHandler := handler.NewAttendanceHandler(attendanceSvc, metricsSvc)
	autoFillHandler := handler.NewAutoFillHandler(autoFillSvc, metricsSvc)
	leaveHandler := handler.NewLeaveHandler(leaveSvc)
	permissionHandler := handler.NewPermissionHandler(permissionSvc)
	dayOffHandler := handler.NewDayOffHandler(dayOffSvc)
	userHandler := handler.NewUserHandler(userSvc)
	shiftHandler := handler.NewShiftHandler(shiftSvc)
	departmentHandler := handler.NewDepartmentHandler(departmentSvc)
	statsHandler := handler.NewStatsHandler(statsSvc)

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
		if err := db.Ping(); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
			return
		}
		c.JSON(http.StatusOK, gin.H{"status": "ready"})
	})
	r.GET("/metrics", gin.WrapH(metricsSvc.Handler()))

	if cfg.Env != config.EnvProduction {
		r.GET("/docs/*any", ginSwagger.WrapHandler(swaggerFiles.Handler))
	}

	api := r.Group(cfg.APIPrefix)

	auth := api.Group("/auth")
	{
		auth.POST("/login", authHandler.Login)
		auth.POST("/login/pin", authHandler.LoginWithPin)

		authed := auth.Group("", middleware.JWT(authSvc))
		authed.GET("/me", authHandler.Me)
		authed.PUT("/password", authHandler.UpdatePassword)
		authed.PUT("/pin", authHandler.UpdatePin)
	}

	protected := api.Group("", middleware.JWT(authSvc))

	attendances := protected.Group("/attendances")
	{
		attendances.POST("/check-in", attendanceHandler.CheckIn)
		attendances.POST("/check-out", attendanceHandler.CheckOut)
		attendances.GET("/me", attendanceHandler.My)
		attendances.GET("/today",
			middleware.RequireRoles(models.RoleManager, models.RoleRH, models.RoleAdmin, models.RoleVigile),
			attendanceHandler.TodaySituation)
		attendances.GET("/daily",
			middleware.RequireRoles(models.RoleManager, models.RoleRH, models.RoleAdmin, models.RoleVigile),
			attendanceHandler.DailyOverview)
		attendances.GET("",
			middleware.RequireRoles(models.RoleManager, models.RoleRH, models.RoleAdmin),
			attendanceHandler.List)
		attendances.POST("/auto-fill",
			middleware.RequireRoles(models.RoleRH, models.RoleAdmin),
			autoFillHandler.Fill)
		attendances.POST("/users/:id/absent",
			middleware.RequireRoles(models.RoleRH, models.RoleAdmin),
			attendanceHandler.MarkAbsent)
		attendances.DELETE("/:id",
			middleware.RequireRoles(models.RoleAdmin),
			attendanceHandler.Delete)
	}

	leaves := protected.Group("/leaves")
	{
		leaves.POST("", leaveHandler.Create)
		leaves.GET("/me", leaveHandler.My)
		leaves.GET("", middleware.RequireApprover(), leaveHandler.List)
		leaves.PUT("/:id", leaveHandler.Update)
		leaves.POST("/:id/approve", middleware.RequireApprover(), leaveHandler.Approve)
		leaves.POST("/:id/reject", middleware.RequireApprover(), leaveHandler.Reject)
		leaves.DELETE("/:id", leaveHandler.Delete)
	}

	permissions := protected.Group("/permissions")
	{
		permissions.POST("", permissionHandler.Create)
		permissions.GET("/me", permissionHandler.My)
		permissions.GET("", middleware.RequireApprover(), permissionHandler.List)
		permissions.PUT("/:id", permissionHandler.Update)
		permissions.POST("/:id/approve", middleware.RequireApprover(), permissionHandler.Approve)
		permissions.POST("/:id/reject", middleware.RequireApprover(), permissionHandler.Reject)
		permissions.DELETE("/:id", permissionHandler.Delete)
	}

	dayOffs := protected.Group("/day-offs")
	{
		dayOffs.GET("", dayOffHandler.List)
		dayOffs.POST("",
			middleware.RequireRoles(models.RoleManager, models.RoleRH, models.RoleAdmin),
			dayOffHandler.Create)
		dayOffs.PUT("/:id",
			middleware.RequireRoles(models.RoleManager, models.RoleRH, models.RoleAdmin),
			dayOffHandler.Update)
		dayOffs.DELETE("/:id",
			middleware.RequireRoles(models.RoleManager, models.RoleRH, models.RoleAdmin),
			dayOffHandler.Delete)
	}

	users := protected.Group("/users")
	{
		users.GET("", middleware.RequireRoles(models.RoleManager, models.RoleRH, models.RoleAdmin), userHandler.List)
		users.POST("", middleware.RequireRoles(models.RoleRH, models.RoleAdmin), userHandler.Create)
		users.GET("/:id", middleware.RBAC(string(models.RoleManager), string(models.RoleRH), string(models.RoleAdmin), "SELF"), userHandler.Get)
		users.PUT("/:id", middleware.RequireRoles(models.RoleRH, models.RoleAdmin), userHandler.Update)
		users.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), userHandler.Delete)
	}

	shifts := protected.Group("/shifts")
	{
		shifts.GET("", shiftHandler.List)
		shifts.GET("/:id", shiftHandler.Get)
		shifts.POST("", middleware.RequireRoles(models.RoleRH, models.RoleAdmin), shiftHandler.Create)
		shifts.PUT("/:id", middleware.RequireRoles(models.RoleRH, models.RoleAdmin), shiftHandler.Update)
		shifts.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), shiftHandler.Delete)
	}

	departments := protected.Group("/departments")
	{
		departments.GET("", departmentHandler.List)
		departments.GET("/:id", departmentHandler.Get)
		departments.POST("", middleware.RequireRoles(models.RoleRH, models.RoleAdmin), departmentHandler.Create)
		departments.PUT("/:id", middleware.RequireRoles(models.RoleRH, models.RoleAdmin), departmentHandler.Update)
		departments.DELETE("/:id", middleware.RequireRoles(models.RoleAdmin), departmentHandler.Delete)
	}

	stats := protected.Group("/stats", middleware.RequireRoles(models.RoleManager, models.RoleRH, models.RoleAdmin))
	{
		stats.GET("/users/:id", statsHandler.UserMonthly)
		stats.GET("/monthly", statsHandler.MonthlyCounts)
		stats.GET("/summary", statsHandler.OrganizationSummary)
		stats.GET("/export", statsHandler.Export)
	}

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if cfg.AutoFill.Enabled {
		queue := jobs.NewQueue("auto-fill", func(ctx context.Context, job jobs.Job) error {
			req, ok := job.Payload.(dto.AutoFillRequest)
			if !ok {
				return fmt.Errorf("unexpected payload type for job %s", job.ID)
			}
			result, err := autoFillSvc.Fill(ctx, req)
			if err != nil {
				return err
			}
			metricsSvc.RecordAutoFill(result.CreatedCount, result.SkippedCount)
			return nil
		}, jobs.QueueConfig{
			Workers:    cfg.AutoFill.Workers,
			MaxRetries: cfg.AutoFill.MaxRetries,
			Logger:     logr,
		})
		queue.Start(ctx)
		defer queue.Stop()

		scheduler := jobs.NewDailyScheduler(queue, cfg.AutoFill.RunAt, logr)
		for _, shiftType := range []models.ShiftType{models.ShiftMorning, models.ShiftEvening} {
			st := shiftType
			scheduler.Register(func() jobs.Job {
				return jobs.Job{
					ID:      uuid.NewString(),
					Type:    "auto-fill",
					Payload: dto.AutoFillRequest{ShiftType: string(st)},
				}
			})
		}
		if err := scheduler.Start(ctx); err != nil {
			logr.Sugar().Fatalw("failed to start auto-fill scheduler", "error", err)
		}
		defer scheduler.Stop()
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
		logr.Sugar().Errorw("graceful shutdown failed", "error", err)
	}
	if err := cacheRepo.Close(); err != nil {
		logr.Sugar().Warnw("failed to close redis", "error", err)
	}
}
