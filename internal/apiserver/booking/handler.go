// Package booking 预订领域 - HTTP 处理与支付接入
package booking

import (
	"fmt"
	"io"
	"net/http"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"tourbook/internal/apiserver/auth"
	"tourbook/internal/apiserver/crud"
	"tourbook/internal/apiserver/respond"
	"tourbook/internal/shared/apperr"
	"tourbook/internal/shared/cache"
	"tourbook/internal/shared/model"
	"tourbook/internal/shared/payment"
	"tourbook/internal/shared/query"
	"tourbook/internal/shared/storage/mongostore"
	"tourbook/pkg/logging"
)

// maxWebhookBody webhook 请求体大小上限
const maxWebhookBody = 1 << 20

// Fields 预订的查询字段白名单
var Fields = query.FieldSpec{
	"tour":      {Column: "tour", Kind: query.KindString},
	"user":      {Column: "user", Kind: query.KindString},
	"price":     {Column: "price", Kind: query.KindNumber},
	"paid":      {Column: "paid", Kind: query.KindBool},
	"createdAt": {Column: "created_at", Kind: query.KindString},
}

// Metrics 支付与预订指标接口，由 server 包的 Prometheus 指标实现
type Metrics interface {
	RecordCheckoutSession()
	RecordWebhookEvent(outcome string)
	RecordBookingCreated()
}

// NoOpMetrics 不记录任何指标（用于测试）
type NoOpMetrics struct{}

func (NoOpMetrics) RecordCheckoutSession()    {}
func (NoOpMetrics) RecordWebhookEvent(string) {}
func (NoOpMetrics) RecordBookingCreated()     {}

// Handler 预订领域 HTTP 处理器
type Handler struct {
	store     *mongostore.Store
	gateway   payment.Gateway
	dedup     cache.Cache
	metrics   Metrics
	logger    *logging.Logger
	authCfg   auth.Config
	publicURL string
	crud      *crud.Handlers[model.Booking, *model.Booking]
}

// NewHandler 创建预订处理器
func NewHandler(store *mongostore.Store, gateway payment.Gateway, dedup cache.Cache,
	metrics Metrics, logger *logging.Logger, authCfg auth.Config, publicURL string) *Handler {
	if metrics == nil {
		metrics = NoOpMetrics{}
	}
	if logger == nil {
		logger = logging.Default("booking")
	}
	h := &Handler{
		store:     store,
		gateway:   gateway,
		dedup:     dedup,
		metrics:   metrics,
		logger:    logger,
		authCfg:   authCfg,
		publicURL: strings.TrimRight(publicURL, "/"),
	}
	h.crud = crud.New[model.Booking, *model.Booking](crud.Config[model.Booking]{
		Singular: "booking",
		Plural:   "bookings",
		Repo:     store.Bookings(),
		Fields:   Fields,
		Scope:    h.scope,
	})
	return h
}

// RegisterRoutes 注册预订相关路由
// webhook 公开（靠签名校验），checkout 需登录，管理接口仅 admin/lead-guide
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	protect := auth.Protect(h.authCfg, h.store)
	staff := auth.RequireRoles(model.UserRoleAdmin, model.UserRoleLeadGuide)
	guarded := func(fn http.HandlerFunc) http.Handler {
		return protect(staff(fn))
	}

	mux.HandleFunc("POST /api/v1/bookings/webhook-checkout", h.WebhookCheckout)
	mux.Handle("GET /api/v1/bookings/checkout-session/{tourId}", protect(http.HandlerFunc(h.CheckoutSession)))
	mux.Handle("GET /api/v1/bookings/my", protect(http.HandlerFunc(h.crud.List)))

	mux.Handle("GET /api/v1/bookings", guarded(h.crud.List))
	mux.Handle("POST /api/v1/bookings", guarded(h.crud.Create))
	mux.Handle("GET /api/v1/bookings/{id}", guarded(h.crud.GetOne))
	mux.Handle("PATCH /api/v1/bookings/{id}", guarded(h.crud.Update))
	mux.Handle("DELETE /api/v1/bookings/{id}", guarded(h.crud.Delete))
}

// scope "my" 路由只返回当前用户的预订
func (h *Handler) scope(r *http.Request) bson.D {
	if strings.HasSuffix(r.URL.Path, "/my") {
		if user := auth.GetUser(r.Context()); user != nil {
			return bson.D{{Key: "user", Value: user.ID}}
		}
	}
	return nil
}

// CheckoutSession 为当前用户创建行程的支付会话
// GET /api/v1/bookings/checkout-session/{tourId}
func (h *Handler) CheckoutSession(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if user == nil {
		respond.Error(w, apperr.Unauthorized("you are not logged in, please log in to get access"))
		return
	}

	tourID := r.PathValue("tourId")
	tour, err := h.store.Tours().FindByID(r.Context(), tourID)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if tour == nil {
		respond.Error(w, apperr.NotFound("no tour found with that id"))
		return
	}

	session, err := h.gateway.CreateCheckoutSession(r.Context(), payment.CheckoutParams{
		TourID:        tour.ID,
		TourName:      fmt.Sprintf("%s Tour", tour.Name),
		TourSummary:   tour.Summary,
		ImageURL:      h.coverURL(tour),
		AmountCents:   int64(tour.Price * 100),
		CustomerEmail: user.Email,
		SuccessURL:    h.publicURL + "/my-tours?alert=booking",
		CancelURL:     h.publicURL + "/tour/" + tour.Slug,
	})
	if err != nil {
		h.logger.PaymentLog("checkout_session", tour.ID, "", err)
		respond.Error(w, apperr.Upstream("could not create checkout session, try again later", err))
		return
	}

	h.metrics.RecordCheckoutSession()
	h.logger.PaymentLog("checkout_session", tour.ID, session.ID, nil)
	respond.Data(w, http.StatusOK, map[string]any{"session": session})
}

// coverURL 封面图的公开地址，webhook 场景网关要求绝对 URL
func (h *Handler) coverURL(tour *model.Tour) string {
	if tour.ImageCover == "" {
		return ""
	}
	if strings.HasPrefix(tour.ImageCover, "http://") || strings.HasPrefix(tour.ImageCover, "https://") {
		return tour.ImageCover
	}
	return h.publicURL + "/img/tours/" + tour.ImageCover
}

// WebhookCheckout 处理支付网关回调，支付完成后落预订
// POST /api/v1/bookings/webhook-checkout
//
// 预订只在这里创建：回跳 URL 不携带任何可伪造的预订参数。
// 事件 ID 先经 Redis 去重，网关重复投递不会产生重复预订。
func (h *Handler) WebhookCheckout(w http.ResponseWriter, r *http.Request) {
	payload, err := io.ReadAll(io.LimitReader(r.Body, maxWebhookBody))
	if err != nil {
		respond.Error(w, apperr.BadRequest("could not read webhook payload"))
		return
	}

	event, err := h.gateway.VerifyEvent(payload, r.Header.Get(payment.SignatureHeader))
	if err != nil {
		h.metrics.RecordWebhookEvent("rejected")
		respond.Error(w, apperr.BadRequest(fmt.Sprintf("webhook error: %v", err)))
		return
	}

	if event.Type != payment.EventCheckoutCompleted {
		h.metrics.RecordWebhookEvent("ignored")
		respond.Data(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	first, err := h.dedup.MarkEventProcessed(r.Context(), event.ID)
	if err != nil {
		// 去重不可用时拒绝事件，让网关稍后重试
		respond.Error(w, err)
		return
	}
	if !first {
		h.metrics.RecordWebhookEvent("duplicate")
		respond.Data(w, http.StatusOK, map[string]any{"received": true})
		return
	}

	if err := h.createBookingFromSession(r, &event.Data.Object); err != nil {
		h.metrics.RecordWebhookEvent("failed")
		h.logger.PaymentLog("webhook_booking", event.Data.Object.ClientReferenceID, event.Data.Object.ID, err)
		respond.Error(w, err)
		return
	}

	h.metrics.RecordWebhookEvent("booked")
	h.metrics.RecordBookingCreated()
	h.logger.PaymentLog("webhook_booking", event.Data.Object.ClientReferenceID, event.Data.Object.ID, nil)
	respond.Data(w, http.StatusOK, map[string]any{"received": true})
}

// webhookError 回调处理中的底层失败统一按协议错误返回
// 网关对 4xx 不再重投，重试解决不了的失败不该让它重试
func webhookError(err error) error {
	if e, ok := apperr.From(err); ok {
		return e
	}
	return apperr.BadRequest(fmt.Sprintf("webhook error: %v", err))
}

func (h *Handler) createBookingFromSession(r *http.Request, session *payment.Session) error {
	user, err := h.store.GetUserByEmail(r.Context(), session.CustomerEmail)
	if err != nil {
		return webhookError(err)
	}
	if user == nil {
		return apperr.BadRequest("no user found for checkout session")
	}

	booking := &model.Booking{
		ID:     h.store.Bookings().NewID(),
		TourID: session.ClientReferenceID,
		UserID: user.ID,
		Price:  float64(session.AmountTotal) / 100,
		Paid:   true,
	}
	booking.BeforeSave()
	if err := model.Validate(booking); err != nil {
		return err
	}
	return h.store.Bookings().Insert(r.Context(), booking)
}
