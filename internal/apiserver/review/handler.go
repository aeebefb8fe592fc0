// Package review 行程评价领域 - HTTP 处理
package review

import (
	"context"
	"log"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"tourbook/internal/apiserver/auth"
	"tourbook/internal/apiserver/crud"
	"tourbook/internal/shared/model"
	"tourbook/internal/shared/query"
	"tourbook/internal/shared/storage/mongostore"
)

// Fields 评价的查询字段白名单
var Fields = query.FieldSpec{
	"rating":    {Column: "rating", Kind: query.KindNumber},
	"tour":      {Column: "tour", Kind: query.KindString},
	"user":      {Column: "user", Kind: query.KindString},
	"createdAt": {Column: "created_at", Kind: query.KindString},
}

// Handler 评价领域 HTTP 处理器
type Handler struct {
	store   *mongostore.Store
	authCfg auth.Config
	crud    *crud.Handlers[model.Review, *model.Review]
}

// NewHandler 创建评价处理器
func NewHandler(store *mongostore.Store, authCfg auth.Config) *Handler {
	h := &Handler{store: store, authCfg: authCfg}
	h.crud = crud.New[model.Review, *model.Review](crud.Config[model.Review]{
		Singular:    "review",
		Plural:      "reviews",
		Repo:        store.Reviews(),
		Fields:      Fields,
		Prepare:     h.prefill,
		Scope:       parentScope,
		Expand:      h.expandAuthor,
		AfterChange: h.recalcRatings,
	})
	return h
}

// RegisterRoutes 注册评价相关路由
// 所有评价接口都要求登录；发表评价仅限普通用户，
// 删改评价放行 user 和 admin 两个角色，不校验评价归属
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	protect := auth.Protect(h.authCfg, h.store)
	reviewer := auth.RequireRoles(model.UserRoleUser)
	moderator := auth.RequireRoles(model.UserRoleUser, model.UserRoleAdmin)

	mux.Handle("GET /api/v1/reviews", protect(http.HandlerFunc(h.crud.List)))
	mux.Handle("POST /api/v1/reviews", protect(reviewer(http.HandlerFunc(h.crud.Create))))
	mux.Handle("GET /api/v1/reviews/{id}", protect(http.HandlerFunc(h.crud.GetOne)))
	mux.Handle("PATCH /api/v1/reviews/{id}", protect(moderator(http.HandlerFunc(h.crud.Update))))
	mux.Handle("DELETE /api/v1/reviews/{id}", protect(moderator(http.HandlerFunc(h.crud.Delete))))

	// 嵌套路由：挂在行程下的评价
	mux.Handle("GET /api/v1/tours/{tourId}/reviews", protect(http.HandlerFunc(h.crud.List)))
	mux.Handle("POST /api/v1/tours/{tourId}/reviews", protect(reviewer(http.HandlerFunc(h.crud.Create))))
}

// prefill 从路径和认证上下文补齐 tour/user 引用
func (h *Handler) prefill(r *http.Request, review *model.Review) error {
	if review.TourID == "" {
		review.TourID = r.PathValue("tourId")
	}
	if user := auth.GetUser(r.Context()); user != nil {
		review.UserID = user.ID
	}
	return nil
}

// parentScope 嵌套路由只返回所属行程的评价
func parentScope(r *http.Request) bson.D {
	if tourID := r.PathValue("tourId"); tourID != "" {
		return bson.D{{Key: "tour", Value: tourID}}
	}
	return nil
}

// expandAuthor 读取详情时内联作者档案
func (h *Handler) expandAuthor(ctx context.Context, review *model.Review) error {
	author, err := h.store.GetUserByID(ctx, review.UserID)
	if err != nil {
		return err
	}
	review.Author = author
	return nil
}

// recalcRatings 评价写入或删除后重算所属行程的评分汇总
func (h *Handler) recalcRatings(ctx context.Context, review *model.Review) {
	if _, err := h.store.RecalcTourRatings(ctx, review.TourID); err != nil {
		log.Printf("[review] recalc ratings for tour %s failed: %v", review.TourID, err)
	}
}
