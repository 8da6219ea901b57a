package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"

	"github.com/prepdesk/prepdesk-backend/internal/config"
	"github.com/prepdesk/prepdesk-backend/internal/handler"
	"github.com/prepdesk/prepdesk-backend/internal/middleware"
	"github.com/prepdesk/prepdesk-backend/internal/response"
	"github.com/prepdesk/prepdesk-backend/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Exam        *handler.ExamHandler
	Session     *handler.SessionHandler
	QuestionSet *handler.QuestionSetHandler
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

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// ─── 1. Auth Group (Public) ────────────────────────────────────────
	auth := router.Group("/api/v1/auth")
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/register", handlers.Auth.Register)

		// Authenticated profile routes
		auth.POST("/logout", middleware.RequireCandidateJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireCandidateJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Candidate Group (JWT + Single Device) ──────────────────────
	api := router.Group("/api/v1")
	api.Use(
		middleware.RequireCandidateJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		api.GET("/exams", handlers.Exam.GetLobby)
		api.GET("/exams/:exam_id/paper", handlers.Exam.GetPaper)
		api.GET("/question-sets/:set_id", handlers.QuestionSet.Get)

		session := api.Group("/exams/:exam_id/session")
		{
			session.GET("", handlers.Session.GetState)
			session.GET("/stats", handlers.Session.GetStats)
			session.POST("/navigate", handlers.Session.Navigate)
			session.POST("/next", handlers.Session.Next)
			session.POST("/previous", handlers.Session.Previous)
			session.POST("/answer", handlers.Session.SaveAnswer)
			session.POST("/save-and-navigate", handlers.Session.SaveAndNavigate)
			session.POST("/mark-and-navigate", handlers.Session.MarkAndNavigate)
			session.POST("/clear-response", handlers.Session.ClearResponse)
			session.POST("/mark-for-review", handlers.Session.ToggleMark)
			session.POST("/heartbeat", handlers.Session.Heartbeat)
			session.POST("/pause", handlers.Session.Pause)
			session.POST("/resume", handlers.Session.Resume)
			session.POST("/language", handlers.Session.SetLanguage)
			session.POST("/submit", handlers.Session.Submit)
		}
	}

	// ─── 3. WebSocket Group (Candidate WS Auth) ────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireCandidateWSAuth(authService))
	{
		ws.GET("/exams/:exam_id/session", handlers.WS.SessionStream)
	}

	return router
}
