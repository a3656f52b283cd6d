package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prepstack/satprep-backend/internal/config"
	"github.com/prepstack/satprep-backend/internal/handler"
	"github.com/prepstack/satprep-backend/internal/middleware"
	"github.com/prepstack/satprep-backend/internal/response"
	"github.com/prepstack/satprep-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Paper       *handler.PaperHandler
	Quiz        *handler.QuizHandler
	TestSession *handler.TestSessionHandler
	Dashboard   *handler.DashboardHandler
	WS          *handler.WSHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(
	authService *service.AuthService,
	handlers *Handlers,
	cfg *config.Config,
) *gin.Engine {
	gin.SetMode(cfg.GinMode)
	router := gin.Default()

	// ─── CORS ──────────────────────────────────────────────────────────
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

	// Apply brotli middleware globally.
	router.Use(middleware.Brotli())

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Rate limiter for auth routes (30 requests per minute per IP).
	authLimiter := middleware.NewRateLimiter(30, time.Minute)

	// ─── 1. Auth Group (Public, Rate Limited) ──────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", authLimiter.Middleware(), handlers.Auth.Login)

		// Authenticated profile routes
		auth.GET("/me", middleware.RequireStudentJWT(authService), handlers.Auth.GetProfile)
		auth.POST("/logout", middleware.RequireStudentJWT(authService), handlers.Auth.Logout)
	}

	// ─── 2. Student Group (JWT + Single Device) ────────────────────────
	studentAPI := router.Group("/api/v1")
	studentAPI.Use(
		middleware.RequireStudentJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		// Paper catalog
		studentAPI.GET("/papers", handlers.Paper.List)
		studentAPI.GET("/papers/:id", handlers.Paper.Get)

		// Daily quiz
		studentAPI.GET("/quiz/:paper_id/questions", handlers.Quiz.GetQuestions)
		studentAPI.POST("/quiz/validate", handlers.Quiz.ValidateAnswers)

		// Timed test session
		studentAPI.POST("/tests/:paper_id/session", handlers.TestSession.Start)
		studentAPI.GET("/tests/:paper_id/session", handlers.TestSession.GetState)
		studentAPI.DELETE("/tests/:paper_id/session", handlers.TestSession.Abandon)
		studentAPI.GET("/tests/:paper_id/session/questions", handlers.TestSession.GetQuestions)
		studentAPI.POST("/tests/:paper_id/session/answer", handlers.TestSession.SelectAnswer)
		studentAPI.POST("/tests/:paper_id/session/goto", handlers.TestSession.GoTo)
		studentAPI.POST("/tests/:paper_id/session/next", handlers.TestSession.Next)
		studentAPI.POST("/tests/:paper_id/session/previous", handlers.TestSession.Previous)
		studentAPI.POST("/tests/:paper_id/session/submit", handlers.TestSession.Submit)
		studentAPI.POST("/tests/:paper_id/session/background", handlers.TestSession.Background)
		studentAPI.POST("/tests/:paper_id/session/foreground", handlers.TestSession.Foreground)

		// Progress dashboard
		studentAPI.GET("/dashboard", handlers.Dashboard.GetOverview)
	}

	// ─── 3. WebSocket Group (Student WS Auth) ──────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireStudentWSAuth(authService))
	{
		ws.GET("/tests/:paper_id/stream", handlers.WS.SessionStream)
	}

	return router
}
