package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"nf-quiz-service/internal/app"
	"nf-quiz-service/internal/auth"
	"nf-quiz-service/internal/domain"
	"nf-quiz-service/internal/infra/memory"
	"nf-quiz-service/internal/infra/sqldb"
	"nf-quiz-service/internal/metrics"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/require"
)

type testServer struct {
	router   *gin.Engine
	store    *sqldb.Store
	accounts *app.AccountService
}

func newTestServer(t *testing.T, cfg app.QuizConfig) *testServer {
	t.Helper()
	gin.SetMode(gin.TestMode)

	db, err := sqldb.Open(sqldb.DriverSQLite, fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.NewString()))
	require.NoError(t, err)
	t.Cleanup(func() { _ = db.Close() })
	require.NoError(t, sqldb.Migrate(context.Background(), db, nil))

	store := sqldb.NewStore(db)
	_, err = store.Seed(context.Background(), testBank(), testModules())
	require.NoError(t, err)

	tokens := auth.NewTokens("test-secret-value", time.Hour)
	quiz := app.NewQuizService(memory.NewBankCache(store, time.Minute), store, cfg, nil)
	accounts := app.NewAccountService(store, tokens, nil)
	dashboard := app.NewDashboardService(store, cfg.Concepts, nil)
	progress := app.NewProgressService(store, nil)

	router := NewRouter(RouterConfig{AllowedOrigins: []string{"*"}}, Deps{
		Handler:  NewHandler(quiz, accounts, dashboard, progress, nil),
		WS:       NewWSHandler(quiz, nil),
		Tokens:   tokens,
		Accounts: accounts,
		Metrics:  metrics.New(),
		Health:   store.Ping,
	})
	return &testServer{router: router, store: store, accounts: accounts}
}

func testBank() []domain.QuizItem {
	var bank []domain.QuizItem
	add := func(level domain.Level, concept string, n int) {
		for i := 1; i <= n; i++ {
			id := fmt.Sprintf("%s-%02d", level, i)
			bank = append(bank, domain.QuizItem{
				ID:            id,
				Question:      "Question " + id,
				Options:       []string{"right", "wrong-1", "wrong-2", "wrong-3"},
				CorrectAnswer: "right",
				Level:         level,
				Concept:       concept,
				Explanation:   "Explanation " + id,
			})
		}
	}
	add(domain.LevelFD, "Functional Dependency", 12)
	add(domain.Level1NF, "Atomic Values", 12)
	add(domain.Level2NF, "Partial Dependency", 3)
	add(domain.Level3NF, "Transitive Dependency", 3)
	return bank
}

func testModules() []domain.Module {
	return []domain.Module{
		{Title: "Functional Dependencies", Level: domain.LevelFD, Concept: "Functional Dependency"},
		{Title: "Atomic Values and 1NF", Level: domain.Level1NF, Concept: "Atomic Values"},
	}
}

type reply[T any] struct {
	Code    int    `json:"code"`
	Message string `json:"message"`
	Data    T      `json:"data"`
}

func (s *testServer) do(t *testing.T, method, path, token string, body interface{}) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	switch b := body.(type) {
	case nil:
	case string:
		buf.WriteString(b)
	default:
		require.NoError(t, json.NewEncoder(&buf).Encode(b))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

func decode[T any](t *testing.T, w *httptest.ResponseRecorder) reply[T] {
	t.Helper()
	var out reply[T]
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

// studentToken registers a student over HTTP and logs in.
func (s *testServer) studentToken(t *testing.T, email string) (string, domain.Account) {
	t.Helper()
	w := s.do(t, http.MethodPost, "/api/register", "", app.Registration{Name: "Student", Email: email, Password: "secret-pass"})
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())

	w = s.do(t, http.MethodPost, "/api/login", "", app.Credentials{Email: email, Password: "secret-pass"})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := decode[app.Session](t, w).Data
	return session.Token, session.Account
}

func (s *testServer) lecturerToken(t *testing.T) string {
	t.Helper()
	_, err := s.accounts.RegisterAs(context.Background(), app.Registration{
		Name: "Lecturer", Email: "lecturer@example.edu", Password: "secret-pass",
	}, domain.RoleLecturer)
	require.NoError(t, err)

	w := s.do(t, http.MethodPost, "/api/login", "", app.Credentials{
		Email: "lecturer@example.edu", Password: "secret-pass", Role: domain.RoleLecturer,
	})
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	return decode[app.Session](t, w).Data.Token
}

// answerAll answers every item of paper with answer after the given seconds.
func answerAll(paper domain.QuizPaper, answer string, seconds float64) domain.Submission {
	sub := domain.Submission{AttemptID: paper.AttemptID}
	for _, item := range paper.Items {
		sub.Answers = append(sub.Answers, domain.AnswerSubmission{ItemID: item.ID, Answer: answer, ElapsedSeconds: seconds})
	}
	return sub
}
