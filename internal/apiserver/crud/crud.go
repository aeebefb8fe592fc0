// Package crud 通用资源处理器工厂
//
// 给定实体类型，生成契约一致的五个操作（创建、单查、列表、更新、删除）。
// 工厂内不含任何实体特有逻辑：嵌套路由的父引用预填充、父级过滤、
// 关联展开和写后联动（评分重算）都通过 Config 注入。
package crud

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"

	"go.mongodb.org/mongo-driver/v2/bson"

	"tourbook/internal/apiserver/respond"
	"tourbook/internal/shared/apperr"
	"tourbook/internal/shared/model"
	"tourbook/internal/shared/query"
)

// Entity 指针实现实体能力接口的约束
type Entity[T any] interface {
	*T
	model.Entity
}

// Repo 实体的存储能力接口，由 mongostore.Collection 实现
type Repo[T any] interface {
	NewID() string
	Insert(ctx context.Context, doc *T) error
	FindByID(ctx context.Context, id string) (*T, error)
	FindPage(ctx context.Context, scope bson.D, opts *query.Options) ([]*T, error)
	Replace(ctx context.Context, id string, doc *T) error
	Delete(ctx context.Context, id string) error
}

// Config 工厂配置
type Config[T any] struct {
	Singular string            // 信封里的资源键，如 "tour"
	Plural   string            // 列表资源键，如 "tours"
	Repo     Repo[T]
	Fields   query.FieldSpec   // 过滤/排序/投影白名单

	// Prepare 创建前的预处理（嵌套资源的父引用预填充）
	Prepare func(r *http.Request, doc *T) error
	// Scope 列表的路由级父过滤（如某行程下的评价）
	Scope func(r *http.Request) bson.D
	// Expand 单查时的关联展开
	Expand func(ctx context.Context, doc *T) error
	// AfterChange 写入/删除成功后的联动维护（评分重算）
	// 失败不影响已完成的主写入，由实现方自行记录
	AfterChange func(ctx context.Context, doc *T)
}

// Handlers 某实体类型的五个 CRUD 操作
type Handlers[T any, PT Entity[T]] struct {
	cfg Config[T]
}

// New 创建实体的 CRUD 处理器集合
func New[T any, PT Entity[T]](cfg Config[T]) *Handlers[T, PT] {
	return &Handlers[T, PT]{cfg: cfg}
}

// Create 创建资源
//
// 路由: POST /api/v1/{plural}
// 成功返回 201 和创建后的记录
func (h *Handlers[T, PT]) Create(w http.ResponseWriter, r *http.Request) {
	doc := new(T)
	if err := json.NewDecoder(r.Body).Decode(doc); err != nil {
		respond.Error(w, apperr.BadRequest("invalid request body"))
		return
	}

	if h.cfg.Prepare != nil {
		if err := h.cfg.Prepare(r, doc); err != nil {
			respond.Error(w, err)
			return
		}
	}

	p := PT(doc)
	if p.GetID() == "" {
		p.SetID(h.cfg.Repo.NewID())
	}
	p.BeforeSave()

	if err := model.Validate(doc); err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.cfg.Repo.Insert(r.Context(), doc); err != nil {
		respond.Error(w, err)
		return
	}

	if h.cfg.AfterChange != nil {
		h.cfg.AfterChange(r.Context(), doc)
	}
	respond.Data(w, http.StatusCreated, map[string]any{h.cfg.Singular: doc})
}

// GetOne 按标识符读取资源
//
// 路由: GET /api/v1/{plural}/{id}
func (h *Handlers[T, PT]) GetOne(w http.ResponseWriter, r *http.Request) {
	doc, err := h.cfg.Repo.FindByID(r.Context(), r.PathValue("id"))
	if err != nil {
		respond.Error(w, err)
		return
	}
	if doc == nil {
		respond.Error(w, h.notFound())
		return
	}

	if h.cfg.Expand != nil {
		if err := h.cfg.Expand(r.Context(), doc); err != nil {
			respond.Error(w, err)
			return
		}
	}
	respond.Data(w, http.StatusOK, map[string]any{h.cfg.Singular: doc})
}

// List 按查询参数读取资源列表
//
// 路由: GET /api/v1/{plural}
// 支持 page/sort/limit/fields 控制参数和白名单内的过滤字段
func (h *Handlers[T, PT]) List(w http.ResponseWriter, r *http.Request) {
	opts, err := query.Parse(r.URL.Query(), h.cfg.Fields)
	if err != nil {
		respond.Error(w, err)
		return
	}

	var scope bson.D
	if h.cfg.Scope != nil {
		scope = h.cfg.Scope(r)
	}

	docs, err := h.cfg.Repo.FindPage(r.Context(), scope, opts)
	if err != nil {
		respond.Error(w, err)
		return
	}
	respond.List(w, len(docs), map[string]any{h.cfg.Plural: docs})
}

// Update 按标识符部分更新资源
//
// 路由: PATCH /api/v1/{plural}/{id}
// 请求体合并到现有记录，约束字段重新校验
func (h *Handlers[T, PT]) Update(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := h.cfg.Repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if doc == nil {
		respond.Error(w, h.notFound())
		return
	}

	if err := json.NewDecoder(r.Body).Decode(doc); err != nil {
		respond.Error(w, apperr.BadRequest("invalid request body"))
		return
	}

	p := PT(doc)
	p.SetID(id) // 请求体不能改写标识符
	p.BeforeSave()

	if err := model.Validate(doc); err != nil {
		respond.Error(w, err)
		return
	}
	if err := h.cfg.Repo.Replace(r.Context(), id, doc); err != nil {
		respond.Error(w, err)
		return
	}

	if h.cfg.AfterChange != nil {
		h.cfg.AfterChange(r.Context(), doc)
	}
	respond.Data(w, http.StatusOK, map[string]any{h.cfg.Singular: doc})
}

// Delete 按标识符删除资源
//
// 路由: DELETE /api/v1/{plural}/{id}
// 成功返回 204 空响应体
func (h *Handlers[T, PT]) Delete(w http.ResponseWriter, r *http.Request) {
	id := r.PathValue("id")
	doc, err := h.cfg.Repo.FindByID(r.Context(), id)
	if err != nil {
		respond.Error(w, err)
		return
	}
	if doc == nil {
		respond.Error(w, h.notFound())
		return
	}

	if err := h.cfg.Repo.Delete(r.Context(), id); err != nil {
		respond.Error(w, err)
		return
	}

	if h.cfg.AfterChange != nil {
		h.cfg.AfterChange(r.Context(), doc)
	}
	respond.NoContent(w)
}

func (h *Handlers[T, PT]) notFound() error {
	return apperr.NotFound(fmt.Sprintf("no %s found with that id", h.cfg.Singular))
}
