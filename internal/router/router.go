package router

import (
	"net/http"
	"time"

	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/config"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/handler"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/middleware"
	"github.com/DeviNivedithaD/ExamProtoringSystem/internal/response"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
)

// Handlers groups all handler instances for route setup.
type Handlers struct {
	Auth           *handler.AuthHandler
	Student        *handler.StudentHandler
	ExamSession    *handler.ExamSessionHandler
	StudentSession *handler.StudentSessionHandler
	Violation      *handler.ViolationHandler
	WS             *handler.WSHandler
	Monitor        *handler.MonitorHandler
}

// SetupRouter configures all Gin route groups with appropriate middlewares.
func SetupRouter(handlers *Handlers, cfg *config.Config) *gin.Engine {
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

	// Health check.
	router.GET("/health", func(c *gin.Context) {
		response.Success(c, http.StatusOK, gin.H{"status": "ok"})
	})

	// Realtime proctoring socket. Connections declare their role with
	// their first message, so there is no path parameter here.
	router.GET("/ws", handlers.WS.ProctorStream)

	// Rate limiter for violation ingestion (60 reports per minute per IP).
	violationLimiter := middleware.NewRateLimiter(60, time.Minute)

	api := router.Group("/api/v1")
	{
		auth := api.Group("/auth")
		{
			auth.POST("/login", handlers.Auth.Login)
			auth.POST("/logout", handlers.Auth.Logout)
		}

		api.POST("/students", handlers.Student.CreateStudent)
		api.GET("/students", handlers.Student.ListStudents)

		api.GET("/exam-sessions", handlers.ExamSession.ListExamSessions)
		api.GET("/exam-sessions/active", handlers.ExamSession.ListActiveExamSessions)
		api.POST("/exam-sessions", handlers.ExamSession.CreateExamSession)
		api.GET("/exam-sessions/:id", handlers.ExamSession.GetExamSession)
		api.PATCH("/exam-sessions/:id", handlers.ExamSession.UpdateExamSession)

		api.POST("/student-sessions", handlers.StudentSession.JoinExam)
		api.GET("/student-sessions/active", handlers.StudentSession.ListActiveSessions)
		api.GET("/student-sessions/by-student-exam", handlers.StudentSession.ListByStudentAndExam)
		api.GET("/student-sessions/:id", handlers.StudentSession.GetStudentSession)
		api.PATCH("/student-sessions/:id", handlers.StudentSession.UpdateStudentSession)
		api.POST("/student-sessions/:id/warning", handlers.StudentSession.RecordWarning)

		api.POST("/violations", violationLimiter.Middleware(), handlers.Violation.CreateViolation)
		api.GET("/violations", handlers.Violation.ListViolations)
		api.GET("/violations/student-session/:id", handlers.Violation.ListSessionViolations)

		api.GET("/admin/exam-sessions/:id/monitor", handlers.Monitor.MonitorExamSSE)
	}

	return router
}
