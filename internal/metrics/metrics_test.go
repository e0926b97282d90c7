package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRecorderCounts(t *testing.T) {
	m := New()

	m.QuizStarted("all", 10)
	m.QuizStarted("all", 10)
	m.AttemptGraded(83.3, true)
	m.MasteryEvaluated("Atomic Values", false)
	m.RecommendationIssued("Atomic Values")

	assert.Equal(t, 2.0, testutil.ToFloat64(m.quizzesStarted.WithLabelValues("all")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.attemptsGraded.WithLabelValues("true")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.masteryEvals.WithLabelValues("Atomic Values", "false")))
	assert.Equal(t, 1.0, testutil.ToFloat64(m.recommendations.WithLabelValues("Atomic Values")))
}

func TestMiddlewareAndHandler(t *testing.T) {
	gin.SetMode(gin.TestMode)
	m := New()
	r := gin.New()
	r.Use(m.Middleware())
	r.GET("/healthz", func(c *gin.Context) { c.String(http.StatusOK, "ok") })
	r.GET("/metrics", m.Handler())

	for i := 0; i < 3; i++ {
		w := httptest.NewRecorder()
		r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.Equal(t, 3.0, testutil.ToFloat64(m.requests.WithLabelValues(http.MethodGet, "/healthz", "200")))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/metrics", nil))
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.True(t, strings.Contains(body, "nfquiz_http_requests_total"))
	assert.True(t, strings.Contains(body, "go_goroutines"))
}
