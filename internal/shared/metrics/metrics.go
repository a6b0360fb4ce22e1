package metrics

import (
	"strconv"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

const namespace = "cvbuilder"

// Registry holds every collector exposed at /metrics.
var Registry = prometheus.NewRegistry()

var (
	factory = promauto.With(Registry)

	httpRequestsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "http_requests_total",
		Help:      "HTTP requests by route, method and status.",
	}, []string{"route", "method", "status"})

	httpRequestDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "http_request_duration_seconds",
		Help:      "HTTP request latency.",
		Buckets:   prometheus.DefBuckets,
	}, []string{"route", "method"})

	exportsTotal = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "cv_exports_total",
		Help:      "CV exports by format, template and outcome.",
	}, []string{"format", "template", "outcome"})

	exportDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "cv_export_duration_seconds",
		Help:      "Time spent rendering a CV.",
		Buckets:   []float64{0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5},
	}, []string{"format"})

	assessmentGenerations = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assessment_generations_total",
		Help:      "Assessment generation attempts by outcome.",
	}, []string{"outcome"})

	assessmentGradings = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "assessment_gradings_total",
		Help:      "Assessment submissions graded by outcome.",
	}, []string{"outcome"})

	rateLimited = factory.NewCounterVec(prometheus.CounterOpts{
		Namespace: namespace,
		Name:      "rate_limited_total",
		Help:      "Requests rejected by the rate limiter, by group.",
	}, []string{"group"})

	llmDuration = factory.NewHistogramVec(prometheus.HistogramOpts{
		Namespace: namespace,
		Name:      "llm_request_duration_seconds",
		Help:      "Latency of LLM provider calls.",
		Buckets:   []float64{0.25, 0.5, 1, 2, 5, 10, 20, 30, 60},
	}, []string{"purpose", "outcome"})
)

func init() {
	Registry.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)
}

// Outcome labels.
const (
	OutcomeOK    = "ok"
	OutcomeError = "error"
)

// ObserveExport records one render of a CV.
func ObserveExport(format, template string, err error, d time.Duration) {
	exportsTotal.WithLabelValues(format, template, outcomeOf(err)).Inc()
	exportDuration.WithLabelValues(format).Observe(d.Seconds())
}

// IncAssessmentGenerated counts a generation attempt.
func IncAssessmentGenerated(err error) {
	assessmentGenerations.WithLabelValues(outcomeOf(err)).Inc()
}

// IncAssessmentGraded counts a graded submission.
func IncAssessmentGraded(err error) {
	assessmentGradings.WithLabelValues(outcomeOf(err)).Inc()
}

// ObserveLLMCall records provider latency for a purpose such as "generate" or "grade".
func ObserveLLMCall(purpose string, err error, d time.Duration) {
	llmDuration.WithLabelValues(purpose, outcomeOf(err)).Observe(d.Seconds())
}

// IncRateLimited counts a request rejected with 429.
func IncRateLimited(group string) {
	rateLimited.WithLabelValues(group).Inc()
}

// Middleware records request counts and latency per matched route.
func Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		route := c.FullPath()
		if route == "" {
			route = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(route, c.Request.Method, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(route, c.Request.Method).Observe(time.Since(start).Seconds())
	}
}

// Handler exposes metrics in Prometheus text format.
func Handler() gin.HandlerFunc {
	return gin.WrapH(promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))
}

func outcomeOf(err error) string {
	if err != nil {
		return OutcomeError
	}
	return OutcomeOK
}
