package router

import (
	"net/http"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/gradelab/examlink/internal/config"
	"github.com/gradelab/examlink/internal/handler"
	"github.com/gradelab/examlink/internal/middleware"
	"github.com/gradelab/examlink/internal/response"
	"github.com/gradelab/examlink/internal/service"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth        *handler.AuthHandler
	AnswerKey   *handler.AnswerKeyHandler
	ExamSession *handler.ExamSessionHandler
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
	// Restrict to the configured origin list when set; otherwise allow all
	// so dev works without extra config.
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

	router.Use(response.RequestIDMiddleware())

	// Health check and Prometheus scrape endpoint.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	// Public exam endpoints take unauthenticated traffic, so throttle
	// identity guessing and submit hammering per IP.
	examLimiter := middleware.NewRateLimiter(60, time.Minute)

	// ─── 1. Student Group (Public, Rate Limited) ───────────────────────
	examAPI := router.Group("/api/v1/exam-sessions")
	examAPI.Use(examLimiter.Middleware())
	{
		examAPI.POST("", handlers.ExamSession.Open)
		examAPI.GET("/:token/paper", handlers.ExamSession.Paper)
		examAPI.GET("/:token/state", handlers.ExamSession.State)
		examAPI.POST("/:token/submit", handlers.ExamSession.Submit)
		examAPI.GET("/:token/report", handlers.ExamSession.Report)
	}

	// ─── 2. WebSocket Group (Session Token in Path) ────────────────────
	ws := router.Group("/ws/v1")
	{
		ws.GET("/exam-sessions/:token/stream", handlers.WS.SessionStream)
	}

	// ─── 3. Teacher Group (JWT) ────────────────────────────────────────
	authAPI := router.Group("/api/v1/teacher/auth")
	{
		authAPI.POST("/login", handlers.Auth.Login)
		authAPI.GET("/me", middleware.RequireTeacherJWT(authService), handlers.Auth.Profile)
	}

	teacherAPI := router.Group("/api/v1/teacher")
	teacherAPI.Use(middleware.RequireTeacherJWT(authService))
	{
		teacherAPI.POST("/answer-keys", handlers.AnswerKey.Create)
		teacherAPI.GET("/answer-keys", handlers.AnswerKey.List)
		teacherAPI.GET("/answer-keys/:id", handlers.AnswerKey.Get)
		teacherAPI.GET("/answer-keys/:id/sessions", handlers.AnswerKey.ListSessions)
	}

	return router
}
