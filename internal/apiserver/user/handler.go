// Package user 用户领域 - HTTP 处理
package user

import (
	"encoding/json"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"tourbook/internal/apiserver/auth"
	"tourbook/internal/apiserver/crud"
	"tourbook/internal/apiserver/respond"
	"tourbook/internal/shared/apperr"
	"tourbook/internal/shared/model"
	"tourbook/internal/shared/query"
	"tourbook/internal/shared/storage/mongostore"
)

// Fields 用户的查询字段白名单
var Fields = query.FieldSpec{
	"name":      {Column: "name", Kind: query.KindString},
	"email":     {Column: "email", Kind: query.KindString},
	"role":      {Column: "role", Kind: query.KindString},
	"createdAt": {Column: "created_at", Kind: query.KindString},
}

// Handler 用户领域 HTTP 处理器
type Handler struct {
	store   *mongostore.Store
	authCfg auth.Config
	crud    *crud.Handlers[model.User, *model.User]
}

// NewHandler 创建用户处理器
func NewHandler(store *mongostore.Store, authCfg auth.Config) *Handler {
	h := &Handler{store: store, authCfg: authCfg}
	h.crud = crud.New[model.User, *model.User](crud.Config[model.User]{
		Singular: "user",
		Plural:   "users",
		Repo:     store.Users(),
		Fields:   Fields,
	})
	return h
}

// RegisterRoutes 注册用户相关路由
// 自助接口需要登录；管理接口仅 admin 可用
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	protect := auth.Protect(h.authCfg, h.store)
	admin := auth.RequireRoles(model.UserRoleAdmin)
	guarded := func(fn http.HandlerFunc) http.Handler {
		return protect(admin(fn))
	}

	// 具名路由先于 {id} 注册，避免被参数路由吃掉
	mux.Handle("GET /api/v1/users/me", protect(http.HandlerFunc(h.Me)))
	mux.Handle("PATCH /api/v1/users/update-me", protect(http.HandlerFunc(h.UpdateMe)))
	mux.Handle("DELETE /api/v1/users/delete-me", protect(http.HandlerFunc(h.DeleteMe)))

	mux.Handle("GET /api/v1/users", guarded(h.crud.List))
	mux.HandleFunc("POST /api/v1/users", h.CreateNotSupported)
	mux.Handle("GET /api/v1/users/{id}", guarded(h.crud.GetOne))
	mux.Handle("PATCH /api/v1/users/{id}", guarded(h.crud.Update))
	mux.Handle("DELETE /api/v1/users/{id}", guarded(h.crud.Delete))
}

// Me 返回当前登录用户
// GET /api/v1/users/me
func (h *Handler) Me(w http.ResponseWriter, r *http.Request) {
	// 复用单查处理，标识符来自会话而非路径
	r.SetPathValue("id", auth.GetUser(r.Context()).ID)
	h.crud.GetOne(w, r)
}

// updateMePayload 自助资料更新允许的字段
// 密码字段单列出来识别误用，而不是静默丢弃
type updateMePayload struct {
	Name            *string `json:"name"`
	Email           *string `json:"email"`
	Photo           *string `json:"photo"`
	Password        *string `json:"password"`
	PasswordConfirm *string `json:"passwordConfirm"`
}

// UpdateMe 更新当前用户的资料字段
// PATCH /api/v1/users/update-me
func (h *Handler) UpdateMe(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())

	var payload updateMePayload
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		respond.Error(w, apperr.BadRequest("invalid request body"))
		return
	}
	if payload.Password != nil || payload.PasswordConfirm != nil {
		respond.Error(w, apperr.BadRequest("this route is not for password updates, please use /update-password"))
		return
	}

	patch := bson.D{}
	if payload.Name != nil {
		user.Name = *payload.Name
		patch = append(patch, bson.E{Key: "name", Value: user.Name})
	}
	if payload.Email != nil {
		user.Email = model.NormalizeEmail(*payload.Email)
		patch = append(patch, bson.E{Key: "email", Value: user.Email})
	}
	if payload.Photo != nil {
		user.Photo = *payload.Photo
		patch = append(patch, bson.E{Key: "photo", Value: user.Photo})
	}

	if err := model.Validate(user); err != nil {
		respond.Error(w, err)
		return
	}
	if len(patch) > 0 {
		if err := h.store.Users().Patch(r.Context(), user.ID, patch); err != nil {
			respond.Error(w, err)
			return
		}
	}
	respond.Data(w, http.StatusOK, map[string]any{"user": user})
}

// DeleteMe 停用当前用户账号
// DELETE /api/v1/users/delete-me
//
// 软删除：记录保留，登录和默认读取不再可见。
func (h *Handler) DeleteMe(w http.ResponseWriter, r *http.Request) {
	user := auth.GetUser(r.Context())
	if err := h.store.DeactivateUser(r.Context(), user.ID); err != nil {
		respond.Error(w, err)
		return
	}
	respond.NoContent(w)
}

// CreateNotSupported 用户只能通过注册接口创建
// POST /api/v1/users
func (h *Handler) CreateNotSupported(w http.ResponseWriter, _ *http.Request) {
	respond.Error(w, apperr.BadRequest("this route is not defined, please use /auth/signup instead"))
}
