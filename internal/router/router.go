package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/lumilearn/tutor-backend/internal/config"
	"github.com/lumilearn/tutor-backend/internal/handler"
	"github.com/lumilearn/tutor-backend/internal/middleware"
	"github.com/lumilearn/tutor-backend/internal/response"
	"github.com/lumilearn/tutor-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth     *handler.AuthHandler
	Tutor    *handler.TutorHandler
	Content  *handler.ContentHandler
	Progress *handler.ProgressHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// If AllowedOrigins is set in config, restrict to that list;
	// otherwise allow all (*) so dev works without extra config.
	corsConfig := cors.DefaultConfig()
	if len(cfg.AllowedOrigins) > 0 {
		corsConfig.AllowOrigins = cfg.AllowedOrigins
	} else {
		corsConfig.AllowAllOrigins = true
	}
	corsConfig.AllowMethods = []string{"GET", "POST", "PUT", "PATCH", "DELETE", "OPTIONS"}
	corsConfig.AllowHeaders = []string{"Origin", "Content-Type", "Authorization", "X-Request-ID"}
	corsConfig.ExposeHeaders = []string{"X-Request-ID"}
	corsConfig.MaxAge = 12 * time.Hour
	router.Use(cors.New(corsConfig))

	// Apply request ID middleware globally so every response includes metadata.
	router.Use(response.RequestIDMiddleware())

	// Apply brotli middleware globally. Rendered curriculum sections are the
	// bulk of response bytes and compress well.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Auth routes run behind a per-IP limiter; credential endpoints are the
	// usual brute-force target.
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	auth := router.Group("/api/v1/auth")
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/student/register", handlers.Auth.StudentRegister)
		auth.POST("/student/login", handlers.Auth.StudentLogin)

		// Authenticated profile routes
		auth.POST("/student/logout", middleware.RequireStudentJWT(authService), handlers.Auth.StudentLogout)
		auth.GET("/student/me", middleware.RequireStudentJWT(authService), handlers.Auth.StudentProfile)
	}

	// Student routes: JWT plus single-device session check.
	studentAPI := router.Group("/api/v1/student")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		studentAPI.GET("/topics", handlers.Content.ListTopics)
		studentAPI.GET("/topics/:topic/learn/steps", handlers.Content.ListSteps)
		studentAPI.GET("/progress", handlers.Progress.Report)
	}

	// Tutor routes additionally rate-limited: every chat turn costs a model
	// evaluation.
	tutorLimiter := middleware.NewRateLimiter(20, time.Minute)

	tutorAPI := studentAPI.Group("/topics/:topic/tutor")
	tutorAPI.Use(tutorLimiter.Middleware())
	{
		tutorAPI.POST("/start", handlers.Tutor.Start)
		tutorAPI.POST("/chat", handlers.Tutor.Chat)
		tutorAPI.GET("/status", handlers.Tutor.Status)
		tutorAPI.POST("/reset", handlers.Tutor.Reset)
		tutorAPI.POST("/practice-review", handlers.Tutor.PracticeReview)
	}

	return router
}
