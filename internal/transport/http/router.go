package http

import (
	"context"
	"net/http"
	"time"

	"nf-quiz-service/internal/domain"
	"nf-quiz-service/internal/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// RouterConfig carries the transport settings of the server section.
type RouterConfig struct {
	RateLimitRPS   float64
	RateLimitBurst int
	AllowedOrigins []string
}

// Deps are the collaborators the router wires into routes.
type Deps struct {
	Handler  *Handler
	WS       *WSHandler
	Tokens   TokenParser
	Accounts AccountLookup
	Metrics  *metrics.Metrics
	// Health reports whether the backing store is reachable.
	Health func(ctx context.Context) error
	Log    *zap.Logger
}

// NewRouter builds the gin engine with every route of the service.
func NewRouter(cfg RouterConfig, deps Deps) *gin.Engine {
	log := deps.Log
	if log == nil {
		log = zap.NewNop()
	}

	r := gin.New()
	r.Use(gin.Recovery(), RequestLogger(log), Secure(), CORS(cfg.AllowedOrigins))
	if deps.Metrics != nil {
		r.Use(deps.Metrics.Middleware())
		r.GET("/metrics", deps.Metrics.Handler())
	}

	r.GET("/healthz", func(c *gin.Context) {
		if deps.Health != nil {
			ctx, cancel := context.WithTimeout(c.Request.Context(), 2*time.Second)
			defer cancel()
			if err := deps.Health(ctx); err != nil {
				log.Warn("health check failed", zap.Error(err))
				fail(c, http.StatusServiceUnavailable, "store unavailable")
				return
			}
		}
		c.String(http.StatusOK, "ok")
	})

	authed := Authenticate(deps.Tokens, deps.Accounts)
	student := RequireRole(domain.RoleStudent)
	lecturer := RequireRole(domain.RoleLecturer)
	h := deps.Handler

	api := r.Group("/api", RateLimiter(cfg.RateLimitRPS, cfg.RateLimitBurst))
	api.POST("/register", h.Register)
	api.POST("/login", h.Login)

	api.GET("/modules", authed, RequireRole(domain.RoleStudent, domain.RoleLecturer), h.Modules)

	students := api.Group("", authed, student)
	students.POST("/quiz", h.StartQuiz)
	students.POST("/quiz/submit", h.SubmitAnswers)
	students.GET("/attempts/:id", h.ReviewAttempt)
	students.GET("/dashboard", h.Dashboard)
	students.PATCH("/recommendations/:id", h.CompleteRecommendation)
	students.POST("/modules/:id/progress", h.RecordModuleScore)
	students.POST("/feedback", h.SubmitFeedback)

	lecturers := api.Group("/lecturer", authed, lecturer)
	lecturers.GET("/overview", h.Overview)
	lecturers.GET("/rankings", h.Rankings)
	lecturers.GET("/items", h.ItemTimings)
	lecturers.GET("/feedback", h.FeedbackReport)
	lecturers.GET("/students/:id", h.StudentDetail)
	lecturers.DELETE("/students/:id", h.DeleteStudent)

	if deps.WS != nil {
		r.GET("/ws/quiz", authed, student, deps.WS.Serve)
	}
	return r
}
