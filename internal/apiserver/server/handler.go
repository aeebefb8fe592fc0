// Package server 路由配置与核心基础设施
//
// 本包把各领域独立包的路由组装成完整的 HTTP API，并挂上
// 指标、访问日志和 CORS 中间件。领域逻辑都在各自的包里。
package server

import (
	"encoding/json"
	"net/http"
	"time"

	"tourbook/internal/apiserver/auth"
	"tourbook/internal/apiserver/booking"
	"tourbook/internal/apiserver/review"
	"tourbook/internal/apiserver/tour"
	"tourbook/internal/apiserver/user"
	"tourbook/internal/config"
	"tourbook/internal/shared/cache"
	"tourbook/internal/shared/mailer"
	"tourbook/internal/shared/objstore"
	"tourbook/internal/shared/payment"
	"tourbook/internal/shared/storage/mongostore"
	"tourbook/pkg/logging"
)

// Handler API 处理器
//
// Handler 是所有 HTTP API 的入口，负责：
//   - 组装各领域包的路由
//   - 管理存储层连接和外部依赖
//   - 中间件（指标、访问日志、CORS）
type Handler struct {
	store *mongostore.Store // MongoDB 存储层（持久化业务数据）
	cfg   *config.Config

	gateway payment.Gateway // 支付网关
	dedup   cache.Cache     // Webhook 事件去重缓存
	objects *objstore.Client
	mail    auth.Mailer

	metrics *Metrics
	logger  *logging.Logger
}

// NewHandler 创建 Handler 实例
//
// 可选依赖默认取安全的空实现，由启动逻辑按配置注入真实现。
func NewHandler(store *mongostore.Store, cfg *config.Config) *Handler {
	return &Handler{
		store:   store,
		cfg:     cfg,
		dedup:   cache.NewNoOpCache(),
		mail:    mailer.NoOp{},
		metrics: NewMetrics("api"),
		logger:  logging.Default("server"),
	}
}

// SetGateway 注入支付网关
func (h *Handler) SetGateway(gateway payment.Gateway) { h.gateway = gateway }

// SetCache 注入 Webhook 去重缓存
func (h *Handler) SetCache(dedup cache.Cache) { h.dedup = dedup }

// SetObjects 注入对象存储客户端（封面上传）
func (h *Handler) SetObjects(objects *objstore.Client) { h.objects = objects }

// SetMailer 注入邮件发送实现
func (h *Handler) SetMailer(mail auth.Mailer) { h.mail = mail }

// GetMetrics 返回指标实例
func (h *Handler) GetMetrics() *Metrics { return h.metrics }

// Router 返回配置好的 HTTP 路由
//
// 路由规则：
//
// 健康检查:
//   - GET /health - 服务健康检查
//   - GET /metrics - Prometheus 指标
//
// 认证 (Auth):
//   - POST  /api/v1/auth/signup
//   - POST  /api/v1/auth/login
//   - GET   /api/v1/auth/logout
//   - POST  /api/v1/auth/forgot-password
//   - PATCH /api/v1/auth/reset-password/{token}
//   - PATCH /api/v1/auth/update-password
//
// 行程 (Tour):
//   - GET/POST /api/v1/tours，GET/PATCH/DELETE /api/v1/tours/{id}
//   - GET /api/v1/tours/top-5-cheap | stats | slug/{slug} |
//     within/{distance}/center/{latlng}/unit/{unit}
//   - POST /api/v1/tours/{id}/cover
//
// 评价 (Review):
//   - GET/POST /api/v1/reviews（含 /api/v1/tours/{tourId}/reviews 嵌套路由）
//   - GET/PATCH/DELETE /api/v1/reviews/{id}
//
// 用户 (User):
//   - GET /api/v1/users/me，PATCH /update-me，DELETE /delete-me
//   - 管理接口 GET/PATCH/DELETE /api/v1/users/{id}
//
// 预订 (Booking):
//   - GET /api/v1/bookings/checkout-session/{tourId}
//   - GET /api/v1/bookings/my，管理 CRUD /api/v1/bookings
//   - POST /api/v1/bookings/webhook-checkout（支付网关回调）
func (h *Handler) Router() http.Handler {
	mux := http.NewServeMux()

	// 健康检查
	mux.HandleFunc("GET /health", h.Health)

	// Prometheus 指标端点
	mux.Handle("GET /metrics", MetricsHandler())

	authHandler := auth.NewHandler(h.store, h.mail, h.cfg.Auth)
	authHandler.RegisterRoutes(mux)

	tourHandler := tour.NewHandler(h.store, h.objects, h.cfg.Auth)
	tourHandler.RegisterRoutes(mux)

	reviewHandler := review.NewHandler(h.store, h.cfg.Auth)
	reviewHandler.RegisterRoutes(mux)

	userHandler := user.NewHandler(h.store, h.cfg.Auth)
	userHandler.RegisterRoutes(mux)

	bookingHandler := booking.NewHandler(h.store, h.gateway, h.dedup,
		h.metrics, h.logger, h.cfg.Auth, h.cfg.PublicURL)
	bookingHandler.RegisterRoutes(mux)

	// 应用指标中间件到 REST API
	apiHandler := h.metrics.MetricsMiddleware(mux)

	// 应用访问日志中间件
	loggedHandler := h.accessLogMiddleware(apiHandler)

	// 应用 CORS 中间件
	return corsMiddleware(loggedHandler)
}

// accessLogMiddleware 记录每个请求的访问日志
func (h *Handler) accessLogMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		start := time.Now()
		wrapped := &responseWriter{ResponseWriter: w, statusCode: http.StatusOK}

		next.ServeHTTP(wrapped, r)

		h.logger.HTTPRequestLog(r.Method, r.URL.Path, wrapped.statusCode,
			time.Since(start), clientIP(r))
	})
}

// clientIP 取客户端地址，反向代理后优先转发头
func clientIP(r *http.Request) string {
	if v := r.Header.Get("X-Forwarded-For"); v != "" {
		return v
	}
	return r.RemoteAddr
}

// corsMiddleware 添加 CORS 头支持跨域请求
func corsMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Access-Control-Allow-Origin", "*")
		w.Header().Set("Access-Control-Allow-Methods", "GET, POST, PUT, PATCH, DELETE, OPTIONS")
		w.Header().Set("Access-Control-Allow-Headers", "Content-Type, Authorization")

		if r.Method == "OPTIONS" {
			w.WriteHeader(http.StatusOK)
			return
		}

		next.ServeHTTP(w, r)
	})
}

// Health 健康检查接口
//
// 路由: GET /health
//
// 用于负载均衡器和监控系统检查服务状态。
// 返回 {"status": "ok"} 表示服务正常运行。
func (h *Handler) Health(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	json.NewEncoder(w).Encode(map[string]string{"status": "ok"})
}
