package server

import (
	"log/slog"
	"net/http"
	"time"

	"task-planner/backend/internal/config"
	"task-planner/backend/internal/handlers"
	"task-planner/backend/internal/middleware"
	"task-planner/backend/internal/monitoring"
	"task-planner/backend/internal/services"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

type Deps struct {
	Config      *config.Config
	Logger      *slog.Logger
	Planner     services.Planner
	Auth        services.AuthService
	Monitor     *monitoring.Monitor
	RateLimiter *middleware.IPRateLimiter
}

// NewRateLimiter converts the per-minute settings into a token bucket, or
// returns nil when limiting is disabled.
func NewRateLimiter(cfg config.RateLimitConfig) *middleware.IPRateLimiter {
	if !cfg.Enabled || cfg.RequestsPerMin <= 0 {
		return nil
	}
	return middleware.NewIPRateLimiter(middleware.RateLimitConfig{
		RequestsPerSecond: float64(cfg.RequestsPerMin) / 60,
		Burst:             cfg.BurstSize,
		IdleTTL:           cfg.CleanupInterval,
	})
}

func NewRouter(d Deps) *gin.Engine {
	if d.Config.IsProduction() {
		gin.SetMode(gin.ReleaseMode)
	}
	if d.Monitor == nil {
		d.Monitor = monitoring.NewMonitor(5 * time.Second)
	}

	router := gin.New()
	router.Use(middleware.RecoveryWithLog(d.Logger))
	router.Use(middleware.RequestLogger(d.Logger))
	router.Use(d.Monitor.MetricsMiddleware())
	router.Use(cors.New(cors.Config{
		AllowOrigins:     d.Config.CORS.AllowedOrigins,
		AllowMethods:     []string{http.MethodGet, http.MethodPost, http.MethodPut, http.MethodPatch, http.MethodDelete, http.MethodOptions},
		AllowHeaders:     []string{"Origin", "Content-Type", "Authorization"},
		AllowCredentials: true,
		MaxAge:           12 * time.Hour,
	}))

	router.GET("/health", d.Monitor.HealthHandler())
	router.GET("/health/ready", d.Monitor.ReadinessHandler())
	router.GET("/health/live", d.Monitor.LivenessHandler())
	router.GET("/metrics", d.Monitor.MetricsHandler())

	api := router.Group("/api")
	if d.RateLimiter != nil {
		api.Use(middleware.RateLimit(d.RateLimiter))
	}

	authHandler := handlers.NewAuthHandler(d.Auth)
	authz := middleware.AuthzMiddleware(d.Auth)

	auth := api.Group("/auth")
	{
		auth.POST("/signup", authHandler.Signup)
		auth.POST("/signin", authHandler.Signin)
		auth.POST("/refresh", authHandler.Refresh)
		auth.POST("/logout", authHandler.Logout)
		auth.GET("/me", authz, authHandler.Me)
	}

	protected := api.Group("")
	protected.Use(authz)

	taskHandler := handlers.NewTaskHandler(d.Planner)
	tasks := protected.Group("/tasks")
	{
		tasks.GET("", taskHandler.GetTasks)
		tasks.POST("", taskHandler.CreateTask)
		tasks.GET("/:id", taskHandler.GetTaskByID)
		tasks.PUT("/:id", taskHandler.UpdateTask)
		tasks.PATCH("/:id/complete", taskHandler.CompleteTask)
		tasks.DELETE("/:id", taskHandler.DeleteTask)
	}

	projectHandler := handlers.NewProjectHandler(d.Planner)
	projects := protected.Group("/projects")
	{
		projects.GET("", projectHandler.GetProjects)
		projects.POST("", projectHandler.CreateProject)
		projects.GET("/:id", projectHandler.GetProjectByID)
		projects.PUT("/:id", projectHandler.UpdateProject)
		projects.DELETE("/:id", projectHandler.DeleteProject)
	}

	tagHandler := handlers.NewTagHandler(d.Planner)
	tags := protected.Group("/tags")
	{
		tags.GET("", tagHandler.GetTags)
		tags.POST("", tagHandler.CreateTag)
		tags.GET("/:id", tagHandler.GetTagByID)
		tags.PUT("/:id", tagHandler.UpdateTag)
		tags.DELETE("/:id", tagHandler.DeleteTag)
	}

	analyticsHandler := handlers.NewAnalyticsHandler(d.Planner)
	analytics := protected.Group("/analytics")
	{
		analytics.GET("/tasks", analyticsHandler.TaskSummary)
		analytics.GET("/projects", analyticsHandler.ProjectSummary)
	}

	return router
}
