package mongostore

import (
	"context"
	"errors"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"

	"tourbook/internal/shared/model"
	"tourbook/internal/shared/query"
	"tourbook/internal/shared/storage"
)

// Collection 类型化的集合句柄
//
// defaults 是集合级默认约束（secret 行程、停用用户的排除），
// 叠加到每一次读取的过滤条件上，与 query builder 的过滤相互独立。
type Collection[T any] struct {
	col      *mongo.Collection
	idPrefix string
	defaults bson.D
}

// NewID 生成本集合前缀的标识符
func (c *Collection[T]) NewID() string {
	return model.NewID(c.idPrefix)
}

// readFilter 合并默认约束和调用方过滤条件
//
// 优先级从高到低：集合默认约束、路由 scope、请求过滤。
// 同名字段只保留最高优先级的一条，请求参数覆盖不了路由级过滤。
func (c *Collection[T]) readFilter(filters ...bson.D) bson.D {
	merged := bson.D{}
	seen := map[string]bool{}
	appendNew := func(f bson.D) {
		for _, e := range f {
			if seen[e.Key] {
				continue
			}
			seen[e.Key] = true
			merged = append(merged, e)
		}
	}
	appendNew(c.defaults)
	for _, f := range filters {
		appendNew(f)
	}
	return merged
}

// Insert 插入单个文档
func (c *Collection[T]) Insert(ctx context.Context, doc *T) error {
	_, err := c.col.InsertOne(ctx, doc)
	return wrapError(err)
}

// FindByID 按 _id 查找
// 文档不存在时返回 (nil, nil)
func (c *Collection[T]) FindByID(ctx context.Context, id string) (*T, error) {
	return c.FindOne(ctx, bson.D{{Key: "_id", Value: id}})
}

// FindOne 查找满足过滤条件的单个文档
func (c *Collection[T]) FindOne(ctx context.Context, filter bson.D) (*T, error) {
	var result T
	err := c.col.FindOne(ctx, c.readFilter(filter)).Decode(&result)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, nil
		}
		return nil, wrapError(err)
	}
	return &result, nil
}

// FindPage 按查询配置物化一页结果
//
// scope 是路由提供的父级过滤（如某个行程下的评价）。
// 显式请求的页码越过匹配总数时返回 storage.ErrPageOutOfRange。
func (c *Collection[T]) FindPage(ctx context.Context, scope bson.D, opts *query.Options) ([]*T, error) {
	filter := c.readFilter(scope, opts.Filter)

	if opts.PageSet {
		total, err := c.col.CountDocuments(ctx, filter)
		if err != nil {
			return nil, wrapError(err)
		}
		if opts.Skip >= total {
			return nil, storage.ErrPageOutOfRange
		}
	}

	findOpts := options.Find().
		SetSort(opts.Sort).
		SetSkip(opts.Skip).
		SetLimit(opts.Limit)
	if opts.Projection != nil {
		findOpts.SetProjection(opts.Projection)
	}

	cursor, err := c.col.Find(ctx, filter, findOpts)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	results := []*T{}
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	return results, cursor.Err()
}

// FindAll 查找满足过滤条件的全部文档
func (c *Collection[T]) FindAll(ctx context.Context, filter bson.D, opts ...options.Lister[options.FindOptions]) ([]*T, error) {
	cursor, err := c.col.Find(ctx, c.readFilter(filter), opts...)
	if err != nil {
		return nil, wrapError(err)
	}
	defer cursor.Close(ctx)

	results := []*T{}
	for cursor.Next(ctx) {
		var item T
		if err := cursor.Decode(&item); err != nil {
			return nil, err
		}
		results = append(results, &item)
	}
	return results, cursor.Err()
}

// Replace 按 _id 整体替换文档
func (c *Collection[T]) Replace(ctx context.Context, id string, doc *T) error {
	res, err := c.col.ReplaceOne(ctx, bson.D{{Key: "_id", Value: id}}, doc)
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Patch 按 _id 更新指定字段
func (c *Collection[T]) Patch(ctx context.Context, id string, update bson.D) error {
	res, err := c.col.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$set", Value: update}})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Unset 按 _id 清除指定字段
func (c *Collection[T]) Unset(ctx context.Context, id string, fields ...string) error {
	unset := bson.D{}
	for _, f := range fields {
		unset = append(unset, bson.E{Key: f, Value: ""})
	}
	res, err := c.col.UpdateOne(ctx, bson.D{{Key: "_id", Value: id}}, bson.D{{Key: "$unset", Value: unset}})
	if err != nil {
		return wrapError(err)
	}
	if res.MatchedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// Delete 按 _id 删除
func (c *Collection[T]) Delete(ctx context.Context, id string) error {
	res, err := c.col.DeleteOne(ctx, bson.D{{Key: "_id", Value: id}})
	if err != nil {
		return wrapError(err)
	}
	if res.DeletedCount == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// wrapError 将 MongoDB 错误转换为领域错误
func wrapError(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, mongo.ErrNoDocuments) {
		return storage.ErrNotFound
	}
	if mongo.IsDuplicateKeyError(err) {
		return storage.ErrDuplicate
	}
	return err
}
