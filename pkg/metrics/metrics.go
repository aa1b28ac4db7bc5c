// Package metrics holds the Prometheus collectors exported on /metrics.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

type Metrics struct {
	registry *prometheus.Registry

	OTPIssued       *prometheus.CounterVec
	OTPVerified     *prometheus.CounterVec
	LicenseEvents   *prometheus.CounterVec
	MailSent        *prometheus.CounterVec
	MailDeadLetters prometheus.Counter
	MailQueueDepth  prometheus.Gauge
	HTTPRequests    *prometheus.CounterVec
	HTTPDuration    *prometheus.HistogramVec
}

func New() *Metrics {
	reg := prometheus.NewRegistry()
	reg.MustRegister(
		collectors.NewGoCollector(),
		collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}),
	)

	m := &Metrics{
		registry: reg,
		OTPIssued: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_issued_total",
			Help: "One-time passcodes issued, by purpose.",
		}, []string{"purpose"}),
		OTPVerified: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "otp_verifications_total",
			Help: "OTP verification attempts, by result.",
		}, []string{"result"}),
		LicenseEvents: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "license_transitions_total",
			Help: "License request lifecycle transitions, by resulting status.",
		}, []string{"status"}),
		MailSent: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "mail_send_attempts_total",
			Help: "Outbound email delivery attempts, by result.",
		}, []string{"result"}),
		MailDeadLetters: prometheus.NewCounter(prometheus.CounterOpts{
			Name: "mail_dead_letters_total",
			Help: "Emails dropped after exhausting retries.",
		}),
		MailQueueDepth: prometheus.NewGauge(prometheus.GaugeOpts{
			Name: "mail_queue_depth",
			Help: "Emails waiting in the dispatch queue.",
		}),
		HTTPRequests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Name: "http_requests_total",
			Help: "HTTP requests, by route pattern, method and status.",
		}, []string{"route", "method", "status"}),
		HTTPDuration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Name:    "http_request_duration_seconds",
			Help:    "HTTP request latency.",
			Buckets: prometheus.DefBuckets,
		}, []string{"route", "method"}),
	}

	reg.MustRegister(
		m.OTPIssued,
		m.OTPVerified,
		m.LicenseEvents,
		m.MailSent,
		m.MailDeadLetters,
		m.MailQueueDepth,
		m.HTTPRequests,
		m.HTTPDuration,
	)

	return m
}

// Handler serves the registry in the Prometheus exposition format.
func (m *Metrics) Handler() http.Handler {
	return promhttp.HandlerFor(m.registry, promhttp.HandlerOpts{Registry: m.registry})
}

type statusRecorder struct {
	http.ResponseWriter
	status int
}

func (r *statusRecorder) WriteHeader(code int) {
	r.status = code
	r.ResponseWriter.WriteHeader(code)
}

// Instrument records request count and latency per chi route pattern.
func (m *Metrics) Instrument(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		rec := &statusRecorder{ResponseWriter: w, status: http.StatusOK}

		next.ServeHTTP(rec, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}

		m.HTTPRequests.WithLabelValues(route, r.Method, strconv.Itoa(rec.status)).Inc()
		m.HTTPDuration.WithLabelValues(route, r.Method).Observe(time.Since(start).Seconds())
	})
}
