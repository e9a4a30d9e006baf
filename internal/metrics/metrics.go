// Package metrics описывает Prometheus-метрики HTTP-запросов и операций с продажами.
package metrics

import (
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi"
	"github.com/go-chi/chi/middleware"
	"github.com/prometheus/client_golang/prometheus"

	"github.com/magabrotheeeer/sales-tracker/internal/models"
)

// Metrics набор метрик сервиса.
type Metrics struct {
	requests         *prometheus.CounterVec
	duration         *prometheus.HistogramVec
	salesCreated     prometheus.Counter
	paymentsRecorded *prometheus.CounterVec
}

// New создаёт метрики и регистрирует их в reg.
func New(reg prometheus.Registerer) *Metrics {
	m := &Metrics{
		requests: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sales_tracker",
			Name:      "http_requests_total",
			Help:      "Number of HTTP requests by method, route and status.",
		}, []string{"method", "route", "status"}),
		duration: prometheus.NewHistogramVec(prometheus.HistogramOpts{
			Namespace: "sales_tracker",
			Name:      "http_request_duration_seconds",
			Help:      "HTTP request latency.",
			Buckets:   prometheus.DefBuckets,
		}, []string{"method", "route"}),
		salesCreated: prometheus.NewCounter(prometheus.CounterOpts{
			Namespace: "sales_tracker",
			Name:      "sales_created_total",
			Help:      "Number of created sales.",
		}),
		paymentsRecorded: prometheus.NewCounterVec(prometheus.CounterOpts{
			Namespace: "sales_tracker",
			Name:      "payments_recorded_total",
			Help:      "Number of recorded payments by resulting sale status.",
		}, []string{"status"}),
	}
	reg.MustRegister(m.requests, m.duration, m.salesCreated, m.paymentsRecorded)
	return m
}

// Middleware считает запросы и их длительность по шаблону маршрута chi.
func (m *Metrics) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		ww := middleware.NewWrapResponseWriter(w, r.ProtoMajor)

		next.ServeHTTP(ww, r)

		route := "unmatched"
		if rctx := chi.RouteContext(r.Context()); rctx != nil {
			if pattern := rctx.RoutePattern(); pattern != "" {
				route = pattern
			}
		}
		status := ww.Status()
		if status == 0 {
			status = http.StatusOK
		}
		m.requests.WithLabelValues(r.Method, route, strconv.Itoa(status)).Inc()
		m.duration.WithLabelValues(r.Method, route).Observe(time.Since(start).Seconds())
	})
}

// SaleCreated отмечает создание продажи.
func (m *Metrics) SaleCreated() {
	m.salesCreated.Inc()
}

// PaymentRecorded отмечает принятый платёж.
func (m *Metrics) PaymentRecorded(status models.PaymentStatus) {
	m.paymentsRecorded.WithLabelValues(string(status)).Inc()
}
