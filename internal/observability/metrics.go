package observability

import (
	"net/http"
	"strconv"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics holds the Prometheus collectors of the service. All record methods
// are safe on a nil receiver so engines can run without instrumentation.
type Metrics struct {
	registry *prometheus.Registry

	RequestsTotal    *prometheus.CounterVec
	RequestDuration  *prometheus.HistogramVec
	ErrorsTotal      *prometheus.CounterVec
	LLMCallsTotal    *prometheus.CounterVec
	LLMDuration      *prometheus.HistogramVec
	Categorizations  *prometheus.CounterVec
	EscalationsTotal *prometheus.CounterVec
	DegradedReads    *prometheus.CounterVec
	KBReviewsTotal   *prometheus.CounterVec
	RoutingTotal     *prometheus.CounterVec
}

// NewMetrics registers the collectors on a fresh registry.
func NewMetrics() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))

	m := &Metrics{
		registry: reg,
		RequestsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicedesk_http_requests_total",
			Help: "HTTP requests by route, method and status.",
		}, []string{"route", "method", "status"}),
		RequestDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "servicedesk_http_request_duration_seconds",
			Help:    "HTTP request latency in seconds.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
		ErrorsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicedesk_http_errors_total",
			Help: "Error responses by route, method and error code.",
		}, []string{"route", "method", "code"}),
		LLMCallsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicedesk_llm_calls_total",
			Help: "LLM calls by task and outcome.",
		}, []string{"task", "outcome"}),
		LLMDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "servicedesk_llm_call_duration_seconds",
			Help:    "Duration of LLM calls in seconds.",
			Buckets: prometheus.ExponentialBuckets(0.05, 2, 9), // 50ms .. ~12.8s
		}, []string{"task"}),
		Categorizations: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicedesk_categorizations_total",
			Help: "Categorization decisions by outcome and winning source.",
		}, []string{"decision", "source"}),
		EscalationsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicedesk_chat_escalations_total",
			Help: "Chat turns handed to a human, by reason.",
		}, []string{"reason"}),
		DegradedReads: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicedesk_degraded_reads_total",
			Help: "Reads served from a fallback source.",
		}, []string{"resource", "source"}),
		KBReviewsTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicedesk_kb_reviews_total",
			Help: "Knowledge-base suggestion reviews by action.",
		}, []string{"action"}),
		RoutingTotal: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "servicedesk_routing_total",
			Help: "Routing proposals by reason and commit result.",
		}, []string{"reason", "result"}),
	}

	reg.MustRegister(
		m.RequestsTotal,
		m.RequestDuration,
		m.ErrorsTotal,
		m.LLMCallsTotal,
		m.LLMDuration,
		m.Categorizations,
		m.EscalationsTotal,
		m.DegradedReads,
		m.KBReviewsTotal,
		m.RoutingTotal,
	)
	return m
}

// Registry exposes the underlying registry, mainly for tests.
func (m *Metrics) Registry() *prometheus.Registry {
	return m.registry
}

// Handler serves the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{})
}

// RecordRequest counts a served request.
func (m *Metrics) RecordRequest(route, method string, status int, duration time.Duration) {
	if m == nil {
		return
	}
	m.RequestsTotal.WithLabelValues(route, method, strconv.Itoa(status)).Inc()
	m.RequestDuration.WithLabelValues(route, method).Observe(duration.Seconds())
}

// RecordError counts an error response.
func (m *Metrics) RecordError(route, method, code string) {
	if m == nil {
		return
	}
	m.ErrorsTotal.WithLabelValues(route, method, code).Inc()
}

func (m *Metrics) ObserveLLMCall(task, outcome string, duration time.Duration) {
	if m == nil {
		return
	}
	m.LLMCallsTotal.WithLabelValues(task, outcome).Inc()
	m.LLMDuration.WithLabelValues(task).Observe(duration.Seconds())
}

func (m *Metrics) RecordCategorization(decision, source string) {
	if m == nil {
		return
	}
	m.Categorizations.WithLabelValues(decision, source).Inc()
}

func (m *Metrics) RecordEscalation(reason string) {
	if m == nil {
		return
	}
	m.EscalationsTotal.WithLabelValues(reason).Inc()
}

func (m *Metrics) RecordDegradedRead(resource, source string) {
	if m == nil {
		return
	}
	m.DegradedReads.WithLabelValues(resource, source).Inc()
}

func (m *Metrics) RecordKBReview(action string) {
	if m == nil {
		return
	}
	m.KBReviewsTotal.WithLabelValues(action).Inc()
}

func (m *Metrics) RecordRouting(reason, result string) {
	if m == nil {
		return
	}
	m.RoutingTotal.WithLabelValues(reason, result).Inc()
}
