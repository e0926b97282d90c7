package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "nfquiz"

// Metrics owns a private registry so tests and multiple servers never collide on the default one.
type Metrics struct {
	registry *prometheus.Registry

	requests        *prometheus.CounterVec
	requestDuration *prometheus.HistogramVec
	quizzesStarted  *prometheus.CounterVec
	quizItems       prometheus.Histogram
	attemptsGraded  *prometheus.CounterVec
	scores          prometheus.Histogram
	masteryEvals    *prometheus.CounterVec
	recommendations *prometheus.CounterVec
}

func New() *Metrics {
	m := &Metrics{
		registry: prometheus.NewRegistry(),
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "http_requests_total",
			Help:      "Total number of HTTP requests",
		}, []string{"method", "endpoint", "status"}),
		requestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "http_request_duration_seconds",
			Help:      "Duration of HTTP requests",
			Buckets:   []float64{0.01, 0.05, 0.1, 0.5, 1, 2, 5},
		}, []string{"method", "endpoint"}),
		quizzesStarted: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "quizzes_started_total",
			Help:      "Quiz attempts started, by scope",
		}, []string{"scope"}),
		quizItems: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "quiz_items",
			Help:      "Number of items per assembled quiz",
			Buckets:   prometheus.LinearBuckets(2, 2, 10),
		}),
		attemptsGraded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "attempts_graded_total",
			Help:      "Graded attempts, by pass outcome",
		}, []string{"passed"}),
		scores: prometheus.NewHistogram(prometheus.HistogramOpts{
			Namespace: namespace,
			Name:      "attempt_score_pct",
			Help:      "Distribution of attempt scores",
			Buckets:   prometheus.LinearBuckets(10, 10, 10),
		}),
		masteryEvals: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "mastery_evaluations_total",
			Help:      "Mastery evaluations, by concept and outcome",
		}, []string{"concept", "mastered"}),
		recommendations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: namespace,
			Name:      "recommendations_issued_total",
			Help:      "Recommendations issued, by concept",
		}, []string{"concept"}),
	}

	m.registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
		m.requests,
		m.requestDuration,
		m.quizzesStarted,
		m.quizItems,
		m.attemptsGraded,
		m.scores,
		m.masteryEvals,
		m.recommendations,
	)
	return m
}

func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

func (m *Metrics) QuizStarted(scope string, items int) {
	m.quizzesStarted.WithLabelValues(scope).Inc()
	m.quizItems.Observe(float64(items))
}

func (m *Metrics) AttemptGraded(scorePct float64, passed bool) {
	m.attemptsGraded.WithLabelValues(strconv.FormatBool(passed)).Inc()
	m.scores.Observe(scorePct)
}

func (m *Metrics) MasteryEvaluated(concept string, mastered bool) {
	m.masteryEvals.WithLabelValues(concept, strconv.FormatBool(mastered)).Inc()
}

func (m *Metrics) RecommendationIssued(concept string) {
	m.recommendations.WithLabelValues(concept).Inc()
}

// Middleware counts requests and observes their latency per route template.
func (m *Metrics) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		endpoint := c.FullPath()
		if endpoint == "" {
			endpoint = "unmatched"
		}
		m.requests.WithLabelValues(c.Request.Method, endpoint, strconv.Itoa(c.Writer.Status())).Inc()
		m.requestDuration.WithLabelValues(c.Request.Method, endpoint).Observe(time.Since(start).Seconds())
	}
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() gin.HandlerFunc {
	h := promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
	return func(c *gin.Context) {
		h.ServeHTTP(c.Writer, c.Request)
	}
}
