package router

import (
	"net/http"
	"time"

	"github.com/edulita/tryout-backend/internal/config"
	"github.com/edulita/tryout-backend/internal/handler"
	"github.com/edulita/tryout-backend/internal/middleware"
	"github.com/edulita/tryout-backend/internal/model"
	"github.com/edulita/tryout-backend/internal/response"
	"github.com/edulita/tryout-backend/internal/service"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	Participant *handler.ParticipantHandler
	History     *handler.HistoryHandler
	Test        *handler.TestHandler
	Monitor     *handler.MonitorHandler
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
	auth.Use(authLimiter.Middleware())
	{
		auth.POST("/login", handlers.Auth.Login)
		auth.POST("/logout", middleware.RequireParticipantJWT(authService), handlers.Auth.Logout)
		auth.GET("/me", middleware.RequireParticipantJWT(authService), handlers.Auth.Me)
		auth.GET("/admin/me", middleware.RequireAdminJWT(authService), handlers.Auth.Me)
	}

	// ─── 2. Participant Group (JWT + Single Device) ────────────────────
	participantAPI := router.Group("/api/v1/participant")
	participantAPI.Use(
		middleware.RequireParticipantJWT(authService),
		middleware.CheckSingleDeviceSession(authService),
	)
	{
		participantAPI.POST("/generate-test", handlers.Participant.GenerateTest)
		participantAPI.PUT("/continue/:attempt_id", handlers.Participant.ContinueTest)
		participantAPI.PUT("/continue/:attempt_id/:category_id", handlers.Participant.ContinueCategory)
		participantAPI.PUT("/end-category/:attempt_id/:category_id", handlers.Participant.EndCategory)
		participantAPI.PUT("/end-session/:attempt_id", handlers.Participant.EndSession)
		participantAPI.GET("/active-category/:attempt_id", handlers.Participant.ActiveCategory)

		participantAPI.PUT("/save-answer/:attempt_id", handlers.Participant.SaveAnswer)
		participantAPI.PUT("/reset-answer/:attempt_id", handlers.Participant.ResetAnswer)
		participantAPI.PUT("/flag-question/:attempt_id", handlers.Participant.FlagQuestion)

		participantAPI.GET("/history-test", handlers.History.ListHistory)
		participantAPI.GET("/history-test/:id", handlers.History.HistoryDetail)
		participantAPI.GET("/leaderboard/:test_id",
			middleware.CacheControl(30),
			handlers.History.Leaderboard,
		)
	}

	// ─── 3. Privileged attempt edges (Admin JWT) ───────────────────────
	// Same path family the participant client uses, but the reopen and
	// essay-grading operations require a supervisor token.
	privilegedAPI := router.Group("/api/v1/participant")
	privilegedAPI.Use(middleware.RequireAdminJWT(authService))
	{
		privilegedAPI.PUT("/regenerate-test/:attempt_id", handlers.Participant.RegenerateTest)
		privilegedAPI.GET("/essay-answers", handlers.History.ListEssayAnswers)
		privilegedAPI.PUT("/essay-answers/:id", handlers.History.GradeEssay)
	}

	// ─── 4. Admin Group (JWT) ──────────────────────────────────────────
	adminAPI := router.Group("/api/v1/admin")
	adminAPI.Use(middleware.RequireAdminJWT(authService))
	{
		adminAPI.GET("/tests", handlers.Test.ListTests)
		adminAPI.POST("/tests", handlers.Test.CreateTest)
		adminAPI.GET("/tests/:id", handlers.Test.GetTest)
		adminAPI.PUT("/tests/:id", handlers.Test.UpdateTest)
		adminAPI.POST("/tests/:id/categories", handlers.Test.AddCategory)
		adminAPI.POST("/tests/:id/categories/:category_id/questions", handlers.Test.AddQuestion)

		adminAPI.GET("/tests/:id/monitor/ongoing", handlers.Monitor.ListOngoing)
		adminAPI.GET("/tests/:id/monitor/completed", handlers.Monitor.ListCompleted)
		adminAPI.PUT("/attempts/:id/force-finish", handlers.Monitor.ForceFinish)
		adminAPI.PUT("/attempts/:id/reopen", handlers.Monitor.Reopen)

		adminAPI.POST("/users/:id/reset-session",
			middleware.RequireRole(model.RoleSuperadmin, model.RoleSupervisor),
			handlers.Auth.ResetParticipantSession,
		)
	}

	// ─── 5. WebSocket Group (Admin WS Auth) ────────────────────────────
	ws := router.Group("/ws/v1")
	ws.Use(middleware.RequireAdminWSAuth(authService))
	{
		ws.GET("/admin/tests/:id/stream", handlers.WS.TestMonitorStream)
	}

	return router
}
