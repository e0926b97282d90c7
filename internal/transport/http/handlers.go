package http

import (
	"errors"
	"fmt"
	"io"
	"strconv"

	"nf-quiz-service/internal/app"
	"nf-quiz-service/internal/domain"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

// Handler exposes the quiz, account, dashboard and progress use cases over JSON.
type Handler struct {
	quiz      *app.QuizService
	accounts  *app.AccountService
	dashboard *app.DashboardService
	progress  *app.ProgressService
	log       *zap.Logger
}

func NewHandler(quiz *app.QuizService, accounts *app.AccountService, dashboard *app.DashboardService, progress *app.ProgressService, log *zap.Logger) *Handler {
	if log == nil {
		log = zap.NewNop()
	}
	return &Handler{quiz: quiz, accounts: accounts, dashboard: dashboard, progress: progress, log: log}
}

func (h *Handler) Register(c *gin.Context) {
	var reg app.Registration
	if err := c.ShouldBindJSON(&reg); err != nil {
		writeError(c, h.log, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	acc, err := h.accounts.Register(c.Request.Context(), reg)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	created(c, acc)
}

func (h *Handler) Login(c *gin.Context) {
	var cred app.Credentials
	if err := c.ShouldBindJSON(&cred); err != nil {
		writeError(c, h.log, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	session, err := h.accounts.Login(c.Request.Context(), cred)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	ok(c, session)
}

// StartQuiz accepts an optional {"scope": [...]} body; no body means the whole bank.
func (h *Handler) StartQuiz(c *gin.Context) {
	var scope domain.Scope
	if err := c.ShouldBindJSON(&scope); err != nil && !errors.Is(err, io.EOF) {
		writeError(c, h.log, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	paper, err := h.quiz.StartQuiz(c.Request.Context(), claimsFrom(c).AccountID, scope)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	created(c, paper)
}

func (h *Handler) SubmitAnswers(c *gin.Context) {
	var sub domain.Submission
	if err := c.ShouldBindJSON(&sub); err != nil {
		writeError(c, h.log, domain.InvalidSubmission("%v", err))
		return
	}
	result, err := h.quiz.SubmitAnswers(c.Request.Context(), claimsFrom(c).AccountID, sub)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	ok(c, result)
}

func (h *Handler) ReviewAttempt(c *gin.Context) {
	review, err := h.dashboard.ReviewAttempt(c.Request.Context(), claimsFrom(c).AccountID, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	ok(c, review)
}

func (h *Handler) Dashboard(c *gin.Context) {
	h.studentDashboard(c, claimsFrom(c).AccountID)
}

func (h *Handler) CompleteRecommendation(c *gin.Context) {
	rec, err := h.dashboard.CompleteRecommendation(c.Request.Context(), claimsFrom(c).AccountID, c.Param("id"))
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	ok(c, rec)
}

func (h *Handler) Modules(c *gin.Context) {
	modules, err := h.dashboard.Modules(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	ok(c, modules)
}

func (h *Handler) RecordModuleScore(c *gin.Context) {
	moduleID, err := strconv.ParseInt(c.Param("id"), 10, 64)
	if err != nil {
		writeError(c, h.log, fmt.Errorf("%w: module id %q", domain.ErrInvalidInput, c.Param("id")))
		return
	}
	var in app.ModuleScore
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, h.log, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	p, err := h.progress.RecordModuleScore(c.Request.Context(), claimsFrom(c).AccountID, moduleID, in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	ok(c, p)
}

func (h *Handler) SubmitFeedback(c *gin.Context) {
	var in app.FeedbackInput
	if err := c.ShouldBindJSON(&in); err != nil {
		writeError(c, h.log, fmt.Errorf("%w: %v", domain.ErrInvalidInput, err))
		return
	}
	f, err := h.progress.SubmitFeedback(c.Request.Context(), claimsFrom(c).AccountID, in)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	created(c, f)
}

func (h *Handler) FeedbackReport(c *gin.Context) {
	report, err := h.progress.FeedbackReport(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	ok(c, report)
}

func (h *Handler) Overview(c *gin.Context) {
	overview, err := h.dashboard.Overview(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	ok(c, overview)
}

func (h *Handler) Rankings(c *gin.Context) {
	rows, err := h.dashboard.Rankings(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	ok(c, rows)
}

func (h *Handler) ItemTimings(c *gin.Context) {
	report, err := h.dashboard.ItemTimings(c.Request.Context())
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	ok(c, report)
}

func (h *Handler) StudentDetail(c *gin.Context) {
	h.studentDashboard(c, c.Param("id"))
}

func (h *Handler) DeleteStudent(c *gin.Context) {
	if err := h.dashboard.DeleteStudent(c.Request.Context(), c.Param("id")); err != nil {
		writeError(c, h.log, err)
		return
	}
	ok(c, nil)
}

func (h *Handler) studentDashboard(c *gin.Context, studentID string) {
	view, err := h.dashboard.StudentDashboard(c.Request.Context(), studentID)
	if err != nil {
		writeError(c, h.log, err)
		return
	}
	ok(c, view)
}
