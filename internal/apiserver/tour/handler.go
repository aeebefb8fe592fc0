// Package tour 行程领域 - HTTP 处理
package tour

import (
	"context"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	"go.mongodb.org/mongo-driver/v2/bson"

	"tourbook/internal/apiserver/auth"
	"tourbook/internal/apiserver/crud"
	"tourbook/internal/apiserver/respond"
	"tourbook/internal/shared/apperr"
	"tourbook/internal/shared/model"
	"tourbook/internal/shared/objstore"
	"tourbook/internal/shared/query"
	"tourbook/internal/shared/storage/mongostore"
)

// 地球半径，$centerSphere 需要弧度制的半径
const (
	earthRadiusMiles = 3963.2
	earthRadiusKm    = 6378.1
)

// maxCoverSize 封面图上传大小上限
const maxCoverSize = 10 << 20

// Fields 行程的查询字段白名单
var Fields = query.FieldSpec{
	"name":            {Column: "name", Kind: query.KindString},
	"slug":            {Column: "slug", Kind: query.KindString},
	"duration":        {Column: "duration", Kind: query.KindNumber},
	"maxGroupSize":    {Column: "max_group_size", Kind: query.KindNumber},
	"difficulty":      {Column: "difficulty", Kind: query.KindString},
	"ratingsAverage":  {Column: "ratings_average", Kind: query.KindNumber},
	"ratingsQuantity": {Column: "ratings_quantity", Kind: query.KindNumber},
	"price":           {Column: "price", Kind: query.KindNumber},
	"priceDiscount":   {Column: "price_discount", Kind: query.KindNumber},
	"summary":         {Column: "summary", Kind: query.KindString},
	"createdAt":       {Column: "created_at", Kind: query.KindString},
}

// Handler 行程领域 HTTP 处理器
type Handler struct {
	store   *mongostore.Store
	objects *objstore.Client // 可为 nil，此时封面上传不可用
	authCfg auth.Config
	crud    *crud.Handlers[model.Tour, *model.Tour]
}

// NewHandler 创建行程处理器
func NewHandler(store *mongostore.Store, objects *objstore.Client, authCfg auth.Config) *Handler {
	h := &Handler{store: store, objects: objects, authCfg: authCfg}
	h.crud = crud.New[model.Tour, *model.Tour](crud.Config[model.Tour]{
		Singular: "tour",
		Plural:   "tours",
		Repo:     store.Tours(),
		Fields:   Fields,
		Expand:   h.expandGuides,
	})
	return h
}

// RegisterRoutes 注册行程相关路由
// 读取接口公开；写入接口仅 admin 和 lead-guide 可用
func (h *Handler) RegisterRoutes(mux *http.ServeMux) {
	protect := auth.Protect(h.authCfg, h.store)
	staff := auth.RequireRoles(model.UserRoleAdmin, model.UserRoleLeadGuide)
	guarded := func(fn http.HandlerFunc) http.Handler {
		return protect(staff(fn))
	}

	mux.HandleFunc("GET /api/v1/tours", h.crud.List)
	mux.Handle("POST /api/v1/tours", guarded(h.crud.Create))

	// 具名路由先于 {id} 注册，避免被参数路由吃掉
	mux.HandleFunc("GET /api/v1/tours/top-5-cheap", h.TopCheap)
	mux.HandleFunc("GET /api/v1/tours/stats", h.Stats)
	mux.HandleFunc("GET /api/v1/tours/slug/{slug}", h.GetBySlug)
	mux.HandleFunc("GET /api/v1/tours/within/{distance}/center/{latlng}/unit/{unit}", h.Within)

	mux.HandleFunc("GET /api/v1/tours/{id}", h.crud.GetOne)
	mux.Handle("PATCH /api/v1/tours/{id}", guarded(h.crud.Update))
	mux.Handle("DELETE /api/v1/tours/{id}", guarded(h.crud.Delete))
	mux.Handle("POST /api/v1/tours/{id}/cover", guarded(h.UploadCover))
}

// expandGuides 读取详情时内联导游档案
func (h *Handler) expandGuides(ctx context.Context, tour *model.Tour) error {
	for _, guideID := range tour.Guides {
		guide, err := h.store.GetUserByID(ctx, guideID)
		if err != nil {
			return err
		}
		if guide != nil {
			tour.GuideProfiles = append(tour.GuideProfiles, guide)
		}
	}
	return nil
}

// TopCheap 高分低价前五的预设查询
// GET /api/v1/tours/top-5-cheap
func (h *Handler) TopCheap(w http.ResponseWriter, r *http.Request) {
	preset := url.Values{}
	preset.Set(query.ParamLimit, "5")
	preset.Set(query.ParamSort, "-ratingsAverage,price")
	preset.Set(query.ParamFields, "name,price,ratingsAverage,summary,difficulty")
	r.URL.RawQuery = preset.Encode()
	h.crud.List(w, r)
}

// Stats 按难度聚合的行程统计
// GET /api/v1/tours/stats
func (h *Handler) Stats(w http.ResponseWriter, r *http.Request) {
	stats, err := h.store.TourStats(r.Context(), 4.5)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.Data(w, http.StatusOK, map[string]any{"stats": stats})
}

// GetBySlug 按 slug 查询行程（网站详情页使用）
// GET /api/v1/tours/slug/{slug}
func (h *Handler) GetBySlug(w http.ResponseWriter, r *http.Request) {
	tour, err := h.store.GetTourBySlug(r.Context(), r.PathValue("slug"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	if tour == nil {
		respond.Error(w, apperr.NotFound("there is no tour with that name"))
		return
	}
	if err := h.expandGuides(r.Context(), tour); err != nil {
		respond.Error(w, err)
		return
	}
	respond.Data(w, http.StatusOK, map[string]any{"tour": tour})
}

// Within 查询以给定点为圆心、给定半径内出发的行程
// GET /api/v1/tours/within/{distance}/center/{latlng}/unit/{unit}
func (h *Handler) Within(w http.ResponseWriter, r *http.Request) {
	distance, err := strconv.ParseFloat(r.PathValue("distance"), 64)
	if err != nil || distance <= 0 {
		respond.Error(w, apperr.BadRequest("distance must be a positive number"))
		return
	}

	lat, lng, err := parseLatLng(r.PathValue("latlng"))
	if err != nil {
		respond.Error(w, err)
		return
	}

	var radius float64
	switch r.PathValue("unit") {
	case "mi":
		radius = distance / earthRadiusMiles
	case "km":
		radius = distance / earthRadiusKm
	default:
		respond.Error(w, apperr.BadRequest("unit must be mi or km"))
		return
	}

	tours, err := h.store.ToursWithin(r.Context(), lng, lat, radius)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.List(w, len(tours), map[string]any{"tours": tours})
}

// parseLatLng 解析 "lat,lng" 形式的路径段
func parseLatLng(raw string) (lat, lng float64, err error) {
	badFormat := apperr.BadRequest("please provide latitude and longitude in the format lat,lng")
	rawLat, rawLng, found := strings.Cut(raw, ",")
	if !found {
		return 0, 0, badFormat
	}
	lat, err = strconv.ParseFloat(strings.TrimSpace(rawLat), 64)
	if err != nil {
		return 0, 0, badFormat
	}
	lng, err = strconv.ParseFloat(strings.TrimSpace(rawLng), 64)
	if err != nil {
		return 0, 0, badFormat
	}
	if lat < -90 || lat > 90 || lng < -180 || lng > 180 {
		return 0, 0, apperr.BadRequest("latitude or longitude out of range")
	}
	return lat, lng, nil
}

// UploadCover 上传行程封面图到对象存储
// POST /api/v1/tours/{id}/cover (multipart 字段名 "cover")
func (h *Handler) UploadCover(w http.ResponseWriter, r *http.Request) {
	if h.objects == nil {
		respond.Error(w, apperr.New(http.StatusServiceUnavailable, "image uploads are not configured"))
		return
	}

	id := r.PathValue("id")
	tour, err := h.store.Tours().FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if tour == nil {
		respond.Error(w, apperr.NotFound("no tour found with that id"))
		return
	}

	if err := r.ParseMultipartForm(maxCoverSize); err != nil {
		respond.Error(w, apperr.BadRequest("invalid multipart upload"))
		return
	}
	file, header, err := r.FormFile("cover")
	if err != nil {
		respond.Error(w, apperr.BadRequest("cover file is required"))
		return
	}
	defer file.Close()

	key := objstore.TourCoverKey(id, header.Filename)
	if err := h.objects.Upload(r.Context(), key, file, header.Size, objstore.CoverContentType(key)); err != nil {
		respond.Error(w, apperr.Upstream("failed to store cover image", err))
		return
	}

	if err := h.store.Tours().Patch(r.Context(), id, bson.D{{Key: "image_cover", Value: key}}); err != nil {
		respond.Error(w, err)
		return
	}
	tour.ImageCover = key

	respond.Data(w, http.StatusOK, map[string]any{"tour": tour})
}
