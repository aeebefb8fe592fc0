// Package server Prometheus 指标导出
package server

import (
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Metrics 包含所有 API Server 指标
type Metrics struct {
	// HTTP 请求指标
	HTTPRequestsTotal    *prometheus.CounterVec
	HTTPRequestDuration  *prometheus.HistogramVec
	HTTPRequestsInFlight prometheus.Gauge

	// 预订/支付指标
	CheckoutSessionsTotal prometheus.Counter
	WebhookEventsTotal    *prometheus.CounterVec
	BookingsCreatedTotal  prometheus.Counter
}

// NewMetrics 创建指标实例
func NewMetrics(namespace string) *Metrics {
	return &Metrics{
		HTTPRequestsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "http_requests_total",
				Help:      "Total HTTP requests",
			},
			[]string{"method", "path", "status"},
		),
		HTTPRequestDuration: promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Name:      "http_request_duration_seconds",
				Help:      "HTTP request duration in seconds",
				Buckets:   []float64{0.001, 0.005, 0.01, 0.025, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5, 10},
			},
			[]string{"method", "path"},
		),
		HTTPRequestsInFlight: promauto.NewGauge(
			prometheus.GaugeOpts{
				Namespace: namespace,
				Name:      "http_requests_in_flight",
				Help:      "Current number of HTTP requests being processed",
			},
		),
		CheckoutSessionsTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "checkout_sessions_total",
				Help:      "Total payment checkout sessions created",
			},
		),
		WebhookEventsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "webhook_events_total",
				Help:      "Total payment webhook events by outcome",
			},
			[]string{"outcome"},
		),
		BookingsCreatedTotal: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Name:      "bookings_created_total",
				Help:      "Total bookings created from completed checkouts",
			},
		),
	}
}

// RecordCheckoutSession 记录支付会话创建
func (m *Metrics) RecordCheckoutSession() {
	m.CheckoutSessionsTotal.Inc()
}

// RecordWebhookEvent 记录 Webhook 事件处理结果
func (m *Metrics) RecordWebhookEvent(outcome string) {
	m.WebhookEventsTotal.WithLabelValues(outcome).Inc()
}

// RecordBookingCreated 记录预订创建
func (m *Metrics) RecordBookingCreated() {
	m.BookingsCreatedTotal.Inc()
}

// MetricsMiddleware 创建 HTTP 指标中间件
func (m *Metrics) MetricsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		m.HTTPRequestsInFlight.Inc()
		defer m.HTTPRequestsInFlight.Dec()

		// 包装 ResponseWriter 以捕获状态码
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		duration := time.Since(start).Seconds()
		path := normalizePath(r.URL.Path)
		status := strconv.Itoa(wrapped.statusCode)

		m.HTTPRequestsTotal.WithLabelValues(r.Method, path, status).Inc()
		m.HTTPRequestDuration.WithLabelValues(r.Method, path).Observe(duration)
	})
}

// responseWriter 包装 http.ResponseWriter 以捕获状态码
type responseWriter struct {
	http.ResponseWriter
	statusCode int
}

func (rw *responseWriter) WriteHeader(code int) {
	rw.statusCode = code
	rw.ResponseWriter.WriteHeader(code)
}

// namedTourPaths 行程下不含标识符的具名子路由
var namedTourPaths = map[string]bool{
	"/api/v1/tours/top-5-cheap": true,
	"/api/v1/tours/stats":       true,
}

// namedUserPaths 用户下不含标识符的具名子路由
var namedUserPaths = map[string]bool{
	"/api/v1/users/me":        true,
	"/api/v1/users/update-me": true,
	"/api/v1/users/delete-me": true,
}

// normalizePath 规范化路径，将标识符替换为占位符，避免高基数标签
// 例如 /api/v1/tours/tour-123 -> /api/v1/tours/{id}
func normalizePath(path string) string {
	switch {
	case namedTourPaths[path] || namedUserPaths[path]:
		return path
	case strings.HasPrefix(path, "/api/v1/tours/slug/"):
		return "/api/v1/tours/slug/{slug}"
	case strings.HasPrefix(path, "/api/v1/tours/within/"):
		return "/api/v1/tours/within/{distance}"
	case strings.HasPrefix(path, "/api/v1/tours/") && strings.HasSuffix(path, "/reviews"):
		return "/api/v1/tours/{id}/reviews"
	case strings.HasPrefix(path, "/api/v1/tours/") && strings.HasSuffix(path, "/cover"):
		return "/api/v1/tours/{id}/cover"
	case strings.HasPrefix(path, "/api/v1/tours/"):
		return "/api/v1/tours/{id}"
	case strings.HasPrefix(path, "/api/v1/auth/reset-password/"):
		return "/api/v1/auth/reset-password/{token}"
	case strings.HasPrefix(path, "/api/v1/auth/"):
		// 其余 auth 路由不含标识符
		return path
	case strings.HasPrefix(path, "/api/v1/users/"):
		return "/api/v1/users/{id}"
	case strings.HasPrefix(path, "/api/v1/reviews/"):
		return "/api/v1/reviews/{id}"
	case strings.HasPrefix(path, "/api/v1/bookings/checkout-session/"):
		return "/api/v1/bookings/checkout-session/{tourId}"
	case path == "/api/v1/bookings/my" || path == "/api/v1/bookings/webhook-checkout":
		return path
	case strings.HasPrefix(path, "/api/v1/bookings/"):
		return "/api/v1/bookings/{id}"
	default:
		return path
	}
}

// MetricsHandler 返回 Prometheus HTTP Handler
func MetricsHandler() http.Handler {
	return promhttp.Handler()
}
